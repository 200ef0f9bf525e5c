package social

import (
	"errors"
	"log"

	"github.com/gofiber/fiber/v2"

	"github.com/bajrang214/looptalk-client/internal/auth"
	"github.com/bajrang214/looptalk-client/internal/storage"
)

func RegisterRoutes(r fiber.Router, svc *Service, store *storage.Service, authMiddleware fiber.Handler) {
	r.Get("/posts", func(c *fiber.Ctx) error {
		posts, err := svc.List(c.Context())
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, err.Error())
		}
		return c.JSON(posts)
	})

	r.Post("/posts", authMiddleware, func(c *fiber.Ctx) error {
		image, err := saveUpload(c, store, "image")
		if err != nil {
			return err
		}
		post, err := svc.Create(c.Context(), auth.UserID(c), c.FormValue("content"), image)
		if err != nil {
			_ = store.Remove(image)
			return httpError(err)
		}
		return c.Status(fiber.StatusCreated).JSON(post)
	})

	r.Put("/posts/:id/like", authMiddleware, func(c *fiber.Ctx) error {
		if err := svc.ToggleLike(c.Context(), c.Params("id"), auth.UserID(c)); err != nil {
			return httpError(err)
		}
		return c.JSON(fiber.Map{"msg": "Like toggled"})
	})

	r.Put("/posts/:id/comment", authMiddleware, func(c *fiber.Ctx) error {
		var body struct {
			Text string `json:"text"`
		}
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid payload")
		}
		if err := svc.AddComment(c.Context(), c.Params("id"), auth.UserID(c), body.Text); err != nil {
			return httpError(err)
		}
		return c.JSON(fiber.Map{"msg": "Comment added"})
	})

	r.Put("/posts/:id/comment/delete", authMiddleware, func(c *fiber.Ctx) error {
		var body struct {
			Index *int `json:"index"`
		}
		if err := c.BodyParser(&body); err != nil || body.Index == nil {
			return fiber.NewError(fiber.StatusBadRequest, "index required")
		}
		if err := svc.DeleteComment(c.Context(), c.Params("id"), auth.UserID(c), *body.Index); err != nil {
			return httpError(err)
		}
		return c.JSON(fiber.Map{"msg": "Comment deleted"})
	})

	r.Put("/posts/:id/edit", authMiddleware, func(c *fiber.Ctx) error {
		var body struct {
			Content string `json:"content"`
		}
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid payload")
		}
		if err := svc.Edit(c.Context(), c.Params("id"), auth.UserID(c), body.Content); err != nil {
			return httpError(err)
		}
		return c.JSON(fiber.Map{"msg": "Post updated"})
	})

	r.Delete("/posts/:id", authMiddleware, func(c *fiber.Ctx) error {
		image, err := svc.Delete(c.Context(), c.Params("id"), auth.UserID(c))
		if err != nil {
			return httpError(err)
		}
		if err := store.Remove(image); err != nil {
			log.Printf("[SOCIAL] remove image %s: %v", image, err)
		}
		return c.JSON(fiber.Map{"msg": "Post deleted"})
	})

	r.Get("/user/me", authMiddleware, func(c *fiber.Ctx) error {
		p, err := svc.Profile(c.Context(), auth.UserID(c))
		if err != nil {
			return httpError(err)
		}
		return c.JSON(p)
	})

	r.Put("/user/me", authMiddleware, func(c *fiber.Ctx) error {
		image, err := saveUpload(c, store, "profileImage")
		if err != nil {
			return err
		}
		p, err := svc.UpdateProfile(c.Context(), auth.UserID(c), c.FormValue("bio"), image)
		if err != nil {
			_ = store.Remove(image)
			return httpError(err)
		}
		return c.JSON(p)
	})

	r.Get("/user/me/posts", authMiddleware, func(c *fiber.Ctx) error {
		posts, err := svc.ListByUser(c.Context(), auth.UserID(c))
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, err.Error())
		}
		return c.JSON(posts)
	})
}

// saveUpload stores the optional file in field and returns its public path,
// or "" when the request carries none.
func saveUpload(c *fiber.Ctx, store *storage.Service, field string) (string, error) {
	fh, err := c.FormFile(field)
	if err != nil {
		return "", nil
	}
	path, err := store.SaveImage(fh)
	if errors.Is(err, storage.ErrNotImage) {
		return "", fiber.NewError(fiber.StatusBadRequest, err.Error())
	}
	if err != nil {
		return "", fiber.NewError(fiber.StatusInternalServerError, err.Error())
	}
	return path, nil
}

func httpError(err error) error {
	switch {
	case errors.Is(err, ErrNotFound), errors.Is(err, ErrUserNotFound):
		return fiber.NewError(fiber.StatusNotFound, err.Error())
	case errors.Is(err, ErrForbidden):
		return fiber.NewError(fiber.StatusForbidden, err.Error())
	case errors.Is(err, ErrEmptyPost), errors.Is(err, ErrEmptyComment), errors.Is(err, ErrBadIndex):
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}
	return fiber.NewError(fiber.StatusInternalServerError, err.Error())
}
