package auth

import (
	"errors"

	"github.com/gofiber/fiber/v2"
)

// RegisterRoutes mounts signup and login. Errors are answered as {"msg": ...}
// because that is the body shape clients read server messages from.
func RegisterRoutes(r fiber.Router, svc *Service) {
	r.Post("/signup", func(c *fiber.Ctx) error {
		var req SignupRequest
		if err := c.BodyParser(&req); err != nil {
			return msg(c, fiber.StatusBadRequest, "invalid payload")
		}
		user, err := svc.Signup(c.Context(), req)
		switch {
		case errors.Is(err, ErrUserExists):
			return msg(c, fiber.StatusBadRequest, "User already exists")
		case errors.Is(err, ErrMissingFields):
			return msg(c, fiber.StatusBadRequest, err.Error())
		case err != nil:
			return fiber.NewError(fiber.StatusInternalServerError, err.Error())
		}
		return c.Status(fiber.StatusCreated).JSON(fiber.Map{"msg": "User registered", "user": user})
	})

	r.Post("/login", func(c *fiber.Ctx) error {
		var req LoginRequest
		if err := c.BodyParser(&req); err != nil || req.Email == "" || req.Password == "" {
			return msg(c, fiber.StatusBadRequest, "email and password required")
		}
		resp, err := svc.Login(c.Context(), req)
		if errors.Is(err, ErrInvalidCredentials) {
			return msg(c, fiber.StatusBadRequest, "Invalid credentials")
		}
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, err.Error())
		}
		return c.JSON(resp)
	})
}

func msg(c *fiber.Ctx, status int, text string) error {
	return c.Status(status).JSON(fiber.Map{"msg": text})
}
