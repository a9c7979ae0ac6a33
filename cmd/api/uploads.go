package main

import (
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"

	"rental/internal/blob"
	"rental/internal/dossier"
)

func sniffMIME(file multipart.File) (string, error) {
	buf := make([]byte, 512)
	n, err := file.Read(buf)
	if err != nil && err != io.EOF {
		return "", fmt.Errorf("read: %w", err)
	}
	mime := http.DetectContentType(buf[:n])

	// reset so later reads start from byte 0
	if seeker, ok := file.(io.Seeker); ok {
		if _, err := seeker.Seek(0, io.SeekStart); err != nil {
			return "", fmt.Errorf("seek reset: %w", err)
		}
	}
	return mime, nil
}

// uploadContentType trusts the sniffed type. HEIC is not recognised by the
// sniffer, so the declared type is only used for it.
func uploadContentType(sniffed, declared string) string {
	if sniffed == "application/octet-stream" && strings.EqualFold(strings.TrimSpace(declared), "image/heic") {
		return "image/heic"
	}
	return strings.Split(sniffed, ";")[0]
}

// readUpload parses a multipart request and returns the file in field. The
// caller must run cleanup once the body has been consumed.
func readUpload(w http.ResponseWriter, r *http.Request, field string) (dossier.Upload, func(), error) {
	noop := func() {}
	r.Body = http.MaxBytesReader(w, r.Body, blob.MaxUploadSize+1<<20)
	if err := r.ParseMultipartForm(blob.MaxUploadSize); err != nil {
		return dossier.Upload{}, noop, fmt.Errorf("failed to parse form: %w", err)
	}
	cleanup := func() {
		if r.MultipartForm != nil {
			_ = r.MultipartForm.RemoveAll()
		}
	}

	file, header, err := r.FormFile(field)
	if err != nil {
		cleanup()
		return dossier.Upload{}, noop, fmt.Errorf("missing %s: %w", field, err)
	}
	if header.Size > blob.MaxUploadSize {
		file.Close()
		cleanup()
		return dossier.Upload{}, noop, fmt.Errorf("file is larger than %d MB", blob.MaxUploadSize>>20)
	}

	mime, err := sniffMIME(file)
	if err != nil {
		file.Close()
		cleanup()
		return dossier.Upload{}, noop, fmt.Errorf("sniff mime: %w", err)
	}
	contentType := uploadContentType(mime, header.Header.Get("Content-Type"))
	if _, err := blob.Extension(contentType); err != nil {
		file.Close()
		cleanup()
		return dossier.Upload{}, noop, err
	}

	return dossier.Upload{Body: file, ContentType: contentType}, func() {
		file.Close()
		cleanup()
	}, nil
}
