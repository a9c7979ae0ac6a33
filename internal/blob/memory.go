package blob

import (
	"context"
	"fmt"
	"io"
	"sync"
	"time"
)

// Memory is a process-local Store for development and tests.
type Memory struct {
	mu    sync.RWMutex
	files map[string][]byte
	types map[string]string
}

func NewMemory() *Memory {
	return &Memory{files: map[string][]byte{}, types: map[string]string{}}
}

func key(bucket Bucket, p string) string { return string(bucket) + "/" + p }

func (m *Memory) Upload(_ context.Context, bucket Bucket, p string, r io.Reader, contentType string) error {
	data, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.files[key(bucket, p)] = data
	m.types[key(bucket, p)] = contentType
	return nil
}

func (m *Memory) PublicURL(bucket Bucket, p string) (string, error) {
	return "memory://" + key(bucket, p), nil
}

func (m *Memory) SignedURL(_ context.Context, bucket Bucket, p string, ttl time.Duration) (string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if _, ok := m.files[key(bucket, p)]; !ok {
		return "", fmt.Errorf("no such file %s", key(bucket, p))
	}
	return fmt.Sprintf("memory://%s?ttl=%d", key(bucket, p), int(ttl.Seconds())), nil
}

// File returns a stored file and its content type.
func (m *Memory) File(bucket Bucket, p string) ([]byte, string, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	data, ok := m.files[key(bucket, p)]
	return data, m.types[key(bucket, p)], ok
}
