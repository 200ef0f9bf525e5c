package storage

import (
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"os"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
)

// PublicPrefix is the URL path uploaded files are served under.
const PublicPrefix = "/uploads/"

var ErrNotImage = errors.New("only image uploads are allowed")

type Service struct {
	dir string
}

func NewService(dir string) *Service {
	return &Service{dir: dir}
}

func (s *Service) Dir() string {
	return s.dir
}

// SaveImage stores an uploaded image under a fresh name and returns its
// public path. The content type is sniffed from the bytes; the client's
// header is ignored.
func (s *Service) SaveImage(fh *multipart.FileHeader) (string, error) {
	src, err := fh.Open()
	if err != nil {
		return "", err
	}
	defer src.Close()

	mt, err := mimetype.DetectReader(src)
	if err != nil {
		return "", err
	}
	if !strings.HasPrefix(mt.String(), "image/") {
		return "", ErrNotImage
	}
	if _, err := src.Seek(0, io.SeekStart); err != nil {
		return "", err
	}

	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return "", fmt.Errorf("create upload dir: %w", err)
	}
	name := uuid.NewString() + mt.Extension()
	dst, err := os.Create(filepath.Join(s.dir, name))
	if err != nil {
		return "", err
	}
	if _, err := io.Copy(dst, src); err != nil {
		dst.Close()
		return "", err
	}
	if err := dst.Close(); err != nil {
		return "", err
	}
	return PublicPrefix + name, nil
}

// Remove deletes a file previously returned by SaveImage. Paths outside the
// upload directory are ignored.
func (s *Service) Remove(publicPath string) error {
	name := strings.TrimPrefix(publicPath, PublicPrefix)
	if name == publicPath || name == "" || strings.ContainsAny(name, `/\`) {
		return nil
	}
	err := os.Remove(filepath.Join(s.dir, name))
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	return err
}
