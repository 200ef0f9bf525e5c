package apitest

import (
	"path/filepath"
	"strings"

	"github.com/gofiber/fiber/v2"
)

type wireUser struct {
	ID       string `json:"_id"`
	Username string `json:"username"`
}

type wireComment struct {
	UserID *wireUser `json:"userId"`
	Text   string    `json:"text"`
}

type wirePost struct {
	ID        string        `json:"_id"`
	UserID    *wireUser     `json:"userId"`
	Content   string        `json:"content"`
	Image     string        `json:"image,omitempty"`
	Likes     []string      `json:"likes"`
	Comments  []wireComment `json:"comments"`
	CreatedAt string        `json:"createdAt"`
}

func (s *Server) routes(r fiber.Router) {
	r.Post("/signup", s.signup)
	r.Post("/login", s.login)

	r.Get("/posts", func(c *fiber.Ctx) error {
		s.mu.Lock()
		defer s.mu.Unlock()
		return c.JSON(s.wirePosts(func(*Post) bool { return true }))
	})
	r.Post("/posts", s.createPost)
	r.Put("/posts/:id/like", s.withPost(func(c *fiber.Ctx, u *User, p *Post) error {
		for i, id := range p.Likes {
			if id == u.ID {
				p.Likes = append(p.Likes[:i], p.Likes[i+1:]...)
				return c.JSON(s.wire(p))
			}
		}
		p.Likes = append(p.Likes, u.ID)
		return c.JSON(s.wire(p))
	}))
	r.Put("/posts/:id/comment", s.withPost(func(c *fiber.Ctx, u *User, p *Post) error {
		var body struct {
			Text string `json:"text"`
		}
		if err := c.BodyParser(&body); err != nil || strings.TrimSpace(body.Text) == "" {
			return fiber.NewError(fiber.StatusBadRequest, "text required")
		}
		p.Comments = append(p.Comments, Comment{AuthorID: u.ID, Text: body.Text})
		return c.JSON(s.wire(p))
	}))
	r.Put("/posts/:id/comment/delete", s.withPost(func(c *fiber.Ctx, u *User, p *Post) error {
		var body struct {
			Index *int `json:"index"`
		}
		if err := c.BodyParser(&body); err != nil || body.Index == nil {
			return fiber.NewError(fiber.StatusBadRequest, "index required")
		}
		i := *body.Index
		if i < 0 || i >= len(p.Comments) {
			return fiber.NewError(fiber.StatusBadRequest, "comment not found")
		}
		if p.Comments[i].AuthorID != u.ID {
			return fiber.NewError(fiber.StatusForbidden, "not your comment")
		}
		p.Comments = append(p.Comments[:i], p.Comments[i+1:]...)
		return c.JSON(s.wire(p))
	}))
	r.Put("/posts/:id/edit", s.withPost(func(c *fiber.Ctx, u *User, p *Post) error {
		var body struct {
			Content string `json:"content"`
		}
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid payload")
		}
		if p.AuthorID != u.ID {
			return fiber.NewError(fiber.StatusForbidden, "not your post")
		}
		p.Content = body.Content
		return c.JSON(s.wire(p))
	}))
	r.Delete("/posts/:id", s.withPost(func(c *fiber.Ctx, u *User, p *Post) error {
		if p.AuthorID != u.ID {
			return fiber.NewError(fiber.StatusForbidden, "not your post")
		}
		for i, cand := range s.posts {
			if cand == p {
				s.posts = append(s.posts[:i], s.posts[i+1:]...)
				break
			}
		}
		return c.JSON(fiber.Map{"msg": "Post deleted"})
	}))

	r.Get("/user/me", func(c *fiber.Ctx) error {
		s.mu.Lock()
		defer s.mu.Unlock()
		u, err := s.authenticate(c)
		if err != nil {
			return err
		}
		return c.JSON(u)
	})
	r.Put("/user/me", func(c *fiber.Ctx) error {
		s.mu.Lock()
		defer s.mu.Unlock()
		u, err := s.authenticate(c)
		if err != nil {
			return err
		}
		u.Bio = c.FormValue("bio")
		if fh, err := c.FormFile("profileImage"); err == nil {
			u.ProfileImage = "/uploads/" + filepath.Base(fh.Filename)
		}
		return c.JSON(u)
	})
	r.Get("/user/me/posts", func(c *fiber.Ctx) error {
		s.mu.Lock()
		defer s.mu.Unlock()
		u, err := s.authenticate(c)
		if err != nil {
			return err
		}
		return c.JSON(s.wirePosts(func(p *Post) bool { return p.AuthorID == u.ID }))
	})
}

func (s *Server) signup(c *fiber.Ctx) error {
	var body struct {
		Username string `json:"username"`
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := c.BodyParser(&body); err != nil || body.Username == "" || body.Email == "" || body.Password == "" {
		return fiber.NewError(fiber.StatusBadRequest, "username, email and password required")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if u.Email == body.Email || u.Username == body.Username {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"msg": "User already exists"})
		}
	}
	id := s.nextID("user")
	s.users[id] = &User{ID: id, Username: body.Username, Email: body.Email, Password: body.Password, Token: "token-" + id}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"msg": "User registered"})
}

func (s *Server) login(c *fiber.Ctx) error {
	var body struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := c.BodyParser(&body); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid payload")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if u.Email == body.Email && u.Password == body.Password {
			return c.JSON(fiber.Map{"token": u.Token, "userId": u.ID})
		}
	}
	return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"msg": "Invalid credentials"})
}

func (s *Server) createPost(c *fiber.Ctx) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, err := s.authenticate(c)
	if err != nil {
		return err
	}
	p := &Post{ID: s.nextID("post"), AuthorID: u.ID, Content: c.FormValue("content"), CreatedAt: s.tick()}
	if fh, err := c.FormFile("image"); err == nil {
		p.Image = "/uploads/" + filepath.Base(fh.Filename)
	}
	if strings.TrimSpace(p.Content) == "" && p.Image == "" {
		return fiber.NewError(fiber.StatusBadRequest, "content or image required")
	}
	s.posts = append([]*Post{p}, s.posts...)
	return c.Status(fiber.StatusCreated).JSON(s.wire(p))
}

func (s *Server) withPost(fn func(*fiber.Ctx, *User, *Post) error) fiber.Handler {
	return func(c *fiber.Ctx) error {
		s.mu.Lock()
		defer s.mu.Unlock()
		u, err := s.authenticate(c)
		if err != nil {
			return err
		}
		for _, p := range s.posts {
			if p.ID == c.Params("id") {
				return fn(c, u, p)
			}
		}
		return fiber.NewError(fiber.StatusNotFound, "post not found")
	}
}

// authenticate must be called with s.mu held.
func (s *Server) authenticate(c *fiber.Ctx) (*User, error) {
	token := strings.TrimPrefix(c.Get("Authorization"), "Bearer ")
	for _, u := range s.users {
		if token != "" && u.Token == token {
			return u, nil
		}
	}
	return nil, fiber.NewError(fiber.StatusUnauthorized, "invalid token")
}

func (s *Server) wirePosts(keep func(*Post) bool) []wirePost {
	out := []wirePost{}
	for _, p := range s.posts {
		if keep(p) {
			out = append(out, s.wire(p))
		}
	}
	return out
}

func (s *Server) wire(p *Post) wirePost {
	w := wirePost{
		ID:        p.ID,
		UserID:    s.ref(p.AuthorID),
		Content:   p.Content,
		Image:     p.Image,
		Likes:     append([]string{}, p.Likes...),
		Comments:  []wireComment{},
		CreatedAt: p.CreatedAt.Format("2006-01-02T15:04:05.000Z07:00"),
	}
	for _, cm := range p.Comments {
		w.Comments = append(w.Comments, wireComment{UserID: s.ref(cm.AuthorID), Text: cm.Text})
	}
	return w
}

func (s *Server) ref(id string) *wireUser {
	u, ok := s.users[id]
	if !ok {
		return nil
	}
	return &wireUser{ID: u.ID, Username: u.Username}
}
