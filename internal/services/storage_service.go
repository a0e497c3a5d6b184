package services

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"

	"github.com/sitescope/backend/internal/config"
)

// StorageService caches media objects on local disk so file serving does not
// round-trip to the bucket on every request.
type StorageService struct {
	cfg *config.Config
}

func NewStorageService(cfg *config.Config) *StorageService {
	// ensure local path exists
	_ = os.MkdirAll(cfg.LocalAssetsPath, 0o755)
	return &StorageService{cfg: cfg}
}

// LocalPath maps a storage key to its cache location on disk.
func (s *StorageService) LocalPath(key string) string {
	return filepath.Join(s.cfg.LocalAssetsPath, filepath.FromSlash(key))
}

// Exists reports whether the key is already cached.
func (s *StorageService) Exists(key string) bool {
	_, err := os.Stat(s.LocalPath(key))
	return err == nil
}

// SaveStream writes an incoming stream to the cache atomically and returns
// the absolute path, size and checksum.
func (s *StorageService) SaveStream(ctx context.Context, key string, r io.Reader) (string, int64, string, error) {
	absPath := s.LocalPath(key)
	if err := os.MkdirAll(filepath.Dir(absPath), 0o755); err != nil {
		return "", 0, "", err
	}

	tmp := absPath + ".part"
	f, err := os.Create(tmp)
	if err != nil {
		return "", 0, "", err
	}
	defer f.Close()

	hasher := sha256.New()
	n, err := io.Copy(io.MultiWriter(f, hasher), r)
	if err != nil {
		_ = os.Remove(tmp)
		return "", 0, "", err
	}

	if err := f.Sync(); err != nil {
		_ = os.Remove(tmp)
		return "", 0, "", err
	}

	if err := os.Rename(tmp, absPath); err != nil {
		_ = os.Remove(tmp)
		return "", 0, "", err
	}

	checksum := hex.EncodeToString(hasher.Sum(nil))
	return absPath, n, checksum, nil
}

// Remove drops a cached object. Missing files are not an error.
func (s *StorageService) Remove(key string) error {
	err := os.Remove(s.LocalPath(key))
	if os.IsNotExist(err) {
		return nil
	}
	return err
}

// ServeFileWithRange serves a cached file with HTTP range support.
func (s *StorageService) ServeFileWithRange(w http.ResponseWriter, req *http.Request, absPath, downloadName string) error {
	if downloadName != "" {
		w.Header().Set("Content-Disposition", fmt.Sprintf("inline; filename=\"%s\"", downloadName))
	}
	http.ServeFile(w, req, absPath)
	return nil
}
