package storage

import (
	"strings"

	"github.com/gofiber/fiber/v2"
)

// RegisterRoutes serves stored uploads as static files.
func RegisterRoutes(r fiber.Router, svc *Service) {
	r.Static(strings.TrimSuffix(PublicPrefix, "/"), svc.dir, fiber.Static{ByteRange: true})
}
