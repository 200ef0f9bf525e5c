// Package apitest runs an in-memory LoopTalk API on an httptest server so
// client packages can exercise the real HTTP exchange in their tests.
package apitest

import (
	"fmt"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
)

type User struct {
	ID           string `json:"_id"`
	Username     string `json:"username"`
	Email        string `json:"email"`
	Password     string `json:"-"`
	Token        string `json:"-"`
	Bio          string `json:"bio"`
	ProfileImage string `json:"profileImage"`
}

type Comment struct {
	AuthorID string
	Text     string
}

type Post struct {
	ID        string
	AuthorID  string
	Content   string
	Image     string
	Likes     []string
	Comments  []Comment
	CreatedAt time.Time
}

type Call struct {
	Method string
	Path   string
}

type Server struct {
	URL string

	mu       sync.Mutex
	users    map[string]*User
	posts    []*Post
	calls    []Call
	failures map[string]int
	seq      int
	clock    time.Time
}

func New(t testing.TB) *Server {
	t.Helper()
	s := &Server{
		users:    map[string]*User{},
		failures: map[string]int{},
		clock:    time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC),
	}
	app := fiber.New(fiber.Config{Immutable: true})
	app.Use(s.record)
	s.routes(app.Group("/api"))

	srv := httptest.NewServer(adaptor.FiberApp(app))
	t.Cleanup(srv.Close)
	s.URL = srv.URL
	return s
}

func (s *Server) AddUser(u User) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := u
	s.users[u.ID] = &cp
}

// AddPost appends to the end of the list; GET /api/posts returns posts in
// insertion order and new posts created through the API go first.
func (s *Server) AddPost(p Post) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := p
	if cp.CreatedAt.IsZero() {
		cp.CreatedAt = s.tick()
	}
	cp.Likes = append([]string(nil), p.Likes...)
	cp.Comments = append([]Comment(nil), p.Comments...)
	s.posts = append(s.posts, &cp)
}

func (s *Server) Posts() []Post {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Post, len(s.posts))
	for i, p := range s.posts {
		out[i] = *p
		out[i].Likes = append([]string(nil), p.Likes...)
		out[i].Comments = append([]Comment(nil), p.Comments...)
	}
	return out
}

func (s *Server) User(id string) User {
	s.mu.Lock()
	defer s.mu.Unlock()
	if u, ok := s.users[id]; ok {
		return *u
	}
	return User{}
}

func (s *Server) Calls() []Call {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Call(nil), s.calls...)
}

// CallCount counts recorded requests with the given method whose path starts
// with prefix.
func (s *Server) CallCount(method, prefix string) int {
	n := 0
	for _, c := range s.Calls() {
		if c.Method == method && strings.HasPrefix(c.Path, prefix) {
			n++
		}
	}
	return n
}

// Fail makes every request matching method and exact path answer with status
// until Fail is called again with status 0.
func (s *Server) Fail(method, path string, status int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := method + " " + path
	if status == 0 {
		delete(s.failures, key)
		return
	}
	s.failures[key] = status
}

func (s *Server) record(c *fiber.Ctx) error {
	s.mu.Lock()
	s.calls = append(s.calls, Call{Method: c.Method(), Path: c.Path()})
	status, fail := s.failures[c.Method()+" "+c.Path()]
	s.mu.Unlock()
	if fail {
		return fiber.NewError(status, "injected failure")
	}
	return c.Next()
}

func (s *Server) tick() time.Time {
	s.clock = s.clock.Add(time.Minute)
	return s.clock
}

func (s *Server) nextID(prefix string) string {
	s.seq++
	return fmt.Sprintf("%s-%d", prefix, s.seq)
}
