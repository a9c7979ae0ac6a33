package blob

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/cloudinary/cloudinary-go/v2"
	"github.com/cloudinary/cloudinary-go/v2/api"
	"github.com/cloudinary/cloudinary-go/v2/api/uploader"
)

const privateDelivery = "private"

// Cloudinary keeps each bucket under a folder of the same name. Owner
// contracts are delivered as public uploads, guest files as private assets.
type Cloudinary struct {
	cld *cloudinary.Cloudinary
	now func() time.Time
}

func NewCloudinary(cld *cloudinary.Cloudinary) *Cloudinary {
	return &Cloudinary{cld: cld, now: time.Now}
}

func publicID(bucket Bucket, p string) (id, format string) {
	base, ext := splitExt(p)
	return string(bucket) + "/" + base, ext
}

func (c *Cloudinary) Upload(ctx context.Context, bucket Bucket, p string, r io.Reader, contentType string) error {
	id, _ := publicID(bucket, p)
	params := uploader.UploadParams{
		PublicID:     id,
		Overwrite:    api.Bool(true),
		ResourceType: "image",
	}
	if bucket == SignedContracts {
		params.Type = api.DeliveryType(privateDelivery)
	}

	resp, err := c.cld.Upload.Upload(ctx, r, params)
	if err != nil {
		return fmt.Errorf("cloudinary upload: %w", err)
	}
	if resp.Error.Message != "" {
		return fmt.Errorf("cloudinary upload: %s", resp.Error.Message)
	}
	return nil
}

func (c *Cloudinary) PublicURL(bucket Bucket, p string) (string, error) {
	if bucket != Contracts {
		return "", errors.New("bucket has no public URLs")
	}
	id, format := publicID(bucket, p)
	img, err := c.cld.Image(id)
	if err != nil {
		return "", err
	}
	img.Config.URL.Secure = true
	u, err := img.String()
	if err != nil {
		return "", err
	}
	if format != "" {
		u += "." + format
	}
	return u, nil
}

// SignedURL builds a private download link that expires after ttl.
func (c *Cloudinary) SignedURL(_ context.Context, bucket Bucket, p string, ttl time.Duration) (string, error) {
	id, format := publicID(bucket, p)
	expires := c.now().Add(ttl)

	u, err := c.cld.Upload.PrivateDownloadURL(uploader.PrivateDownloadURLParams{
		PublicID:     id,
		Format:       format,
		DeliveryType: privateDelivery,
		ExpiresAt:    &expires,
		ResourceType: api.Image,
	})
	if err != nil {
		return "", fmt.Errorf("cloudinary signed url: %w", err)
	}
	return u, nil
}
