package storage

import (
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/gofiber/fiber/v2"
)

func TestStaticUploads(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "a.png"), pngHeader, 0o600); err != nil {
		t.Fatalf("write file: %v", err)
	}

	app := fiber.New()
	RegisterRoutes(app, NewService(dir))

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/uploads/a.png", nil))
	if err != nil || resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %v %v", resp, err)
	}
	body, _ := io.ReadAll(resp.Body)
	if len(body) != len(pngHeader) {
		t.Fatalf("unexpected body length %d", len(body))
	}

	resp, _ = app.Test(httptest.NewRequest(http.MethodGet, "/uploads/missing.png", nil))
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", resp.StatusCode)
	}
}
