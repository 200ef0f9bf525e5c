package server

import (
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/bajrang214/looptalk-client/internal/config"
)

func TestHealthRoute(t *testing.T) {
	s := NewServer(config.Config{JWTSecret: "secret", ServerPort: ":0", UploadDir: t.TempDir()}, nil, nil)

	req := httptest.NewRequest("GET", "/health", nil)
	resp, err := s.App.Test(req)
	if err != nil {
		t.Fatalf("test request: %v", err)
	}
	if resp.StatusCode != 200 {
		t.Fatalf("expected 200 status")
	}
}

func TestProtectedRoutesNeedToken(t *testing.T) {
	s := NewServer(config.Config{JWTSecret: "secret", UploadDir: t.TempDir()}, nil, nil)

	for _, r := range []struct{ method, path string }{
		{http.MethodPost, "/api/posts"},
		{http.MethodPut, "/api/posts/p1/like"},
		{http.MethodPut, "/api/posts/p1/comment"},
		{http.MethodPut, "/api/posts/p1/comment/delete"},
		{http.MethodPut, "/api/posts/p1/edit"},
		{http.MethodDelete, "/api/posts/p1"},
		{http.MethodGet, "/api/user/me"},
		{http.MethodGet, "/api/user/me/posts"},
	} {
		resp, err := s.App.Test(httptest.NewRequest(r.method, r.path, nil))
		if err != nil {
			t.Fatalf("%s %s: %v", r.method, r.path, err)
		}
		if resp.StatusCode != http.StatusUnauthorized {
			t.Fatalf("%s %s: expected 401, got %d", r.method, r.path, resp.StatusCode)
		}
	}
}

func TestUploadsServed(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "x.png"), []byte("png"), 0o600); err != nil {
		t.Fatalf("write file: %v", err)
	}
	s := NewServer(config.Config{JWTSecret: "secret", UploadDir: dir}, nil, nil)

	resp, err := s.App.Test(httptest.NewRequest(http.MethodGet, "/uploads/x.png", nil))
	if err != nil || resp.StatusCode != http.StatusOK {
		t.Fatalf("expected upload served, got %v %v", resp, err)
	}
}
