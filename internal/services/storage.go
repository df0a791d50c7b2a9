package services

import (
	"crypto/rand"
	"encoding/hex"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/ecotrack/waste-server/internal/apperr"
	"go.uber.org/zap"
)

// BlobStore persists uploaded photos to a local directory served under
// /uploads. Callers enforce the image-type and size constraints before the
// bytes reach the store; the store re-checks both.
type BlobStore struct {
	dir      string
	baseURL  string
	maxBytes int64
	logger   *zap.SugaredLogger
}

// NewBlobStore creates the upload directory if needed and returns the store.
func NewBlobStore(dir, baseURL string, maxBytes int64, logger *zap.SugaredLogger) (*BlobStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, apperr.External(err, "failed to create upload directory")
	}
	return &BlobStore{dir: dir, baseURL: strings.TrimRight(baseURL, "/"), maxBytes: maxBytes, logger: logger}, nil
}

// Save writes one uploaded image and returns its public URL. The stored
// name is random; the original name contributes only its extension.
func (b *BlobStore) Save(originalName, contentType string, size int64, r io.Reader) (string, error) {
	if !strings.HasPrefix(contentType, "image/") {
		return "", apperr.PreconditionFailed("only image uploads are accepted, got %s", contentType)
	}
	if size > b.maxBytes {
		return "", apperr.PreconditionFailed("file exceeds the %dMB upload limit", b.maxBytes/(1024*1024))
	}

	name := randomName() + sanitizeExt(originalName)
	path := filepath.Join(b.dir, name)

	f, err := os.Create(path)
	if err != nil {
		return "", apperr.External(err, "failed to create blob file")
	}
	defer f.Close()

	// LimitReader guards against callers lying about size.
	written, err := io.Copy(f, io.LimitReader(r, b.maxBytes+1))
	if err != nil {
		_ = os.Remove(path)
		return "", apperr.External(err, "failed to write blob file")
	}
	if written > b.maxBytes {
		_ = os.Remove(path)
		return "", apperr.PreconditionFailed("file exceeds the %dMB upload limit", b.maxBytes/(1024*1024))
	}

	b.logger.Infow("Blob stored", "name", name, "bytes", written)
	return b.baseURL + "/uploads/" + name, nil
}

// Dir returns the directory blobs are written to, for static serving.
func (b *BlobStore) Dir() string { return b.dir }

func randomName() string {
	buf := make([]byte, 12)
	if _, err := rand.Read(buf); err != nil {
		return "upload"
	}
	return hex.EncodeToString(buf)
}

// sanitizeExt keeps a short, safe extension from the original filename.
func sanitizeExt(name string) string {
	ext := strings.ToLower(filepath.Ext(name))
	if len(ext) == 0 || len(ext) > 5 {
		return ""
	}
	for _, c := range ext[1:] {
		if (c < 'a' || c > 'z') && (c < '0' || c > '9') {
			return ""
		}
	}
	return ext
}
