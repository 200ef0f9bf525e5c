package profile

import (
	"context"
	"errors"
	"io"
	"log"
	"os"
	"path/filepath"
	"testing"

	"github.com/bajrang214/looptalk-client/internal/api"
	"github.com/bajrang214/looptalk-client/internal/apitest"
	"github.com/bajrang214/looptalk-client/internal/preview"
	"github.com/bajrang214/looptalk-client/internal/session"
)

var pngHeader = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR\x00\x00\x00\x01\x00\x00\x00\x01\x08\x02\x00\x00\x00")

func newPage(t *testing.T, loggedIn bool) (*Page, *apitest.Server, *preview.Registry) {
	t.Helper()
	srv := apitest.New(t)
	srv.AddUser(apitest.User{ID: "u1", Username: "alice", Email: "alice@example.com", Password: "pw", Token: "tok-1", Bio: "hi"})
	srv.AddUser(apitest.User{ID: "u2", Username: "bob", Email: "bob@example.com", Password: "pw", Token: "tok-2"})
	srv.AddPost(apitest.Post{ID: "p1", AuthorID: "u1", Content: "mine"})
	srv.AddPost(apitest.Post{ID: "p2", AuthorID: "u2", Content: "theirs"})

	sess := session.New(session.NewMemoryStore())
	if loggedIn {
		if err := sess.Save(context.Background(), session.Credential{Token: "tok-1", UserID: "u1"}); err != nil {
			t.Fatalf("save session: %v", err)
		}
	}
	reg := preview.NewRegistry()
	client := api.NewClient(srv.URL, nil, sess)
	return NewPage(client, sess, preview.NewManager(reg), log.New(io.Discard, "", 0)), srv, reg
}

func TestLoadWithoutSession(t *testing.T) {
	p, srv, _ := newPage(t, false)
	err := p.Load(context.Background())
	if !errors.Is(err, api.ErrAuth) {
		t.Fatalf("expected auth error, got %v", err)
	}
	if len(srv.Calls()) != 0 {
		t.Fatalf("expected no requests, got %v", srv.Calls())
	}
	if p.Status() != "No token found. Please login again." {
		t.Fatalf("unexpected status %q", p.Status())
	}
}

func TestLoadFetchesProfileAndOwnPosts(t *testing.T) {
	p, _, _ := newPage(t, true)
	if err := p.Load(context.Background()); err != nil {
		t.Fatalf("load: %v", err)
	}
	if prof := p.Profile(); prof.ID != "u1" || prof.Username != "alice" || p.Bio() != "hi" {
		t.Fatalf("unexpected profile %+v bio %q", prof, p.Bio())
	}
	posts := p.Posts().Posts()
	if len(posts) != 1 || posts[0].ID != "p1" {
		t.Fatalf("expected only own posts, got %+v", posts)
	}
}

func TestDeleteOwnPostResyncsOwnList(t *testing.T) {
	p, srv, _ := newPage(t, true)
	ctx := context.Background()
	if err := p.Load(ctx); err != nil {
		t.Fatalf("load: %v", err)
	}
	if _, err := p.Posts().DeletePost(ctx, "p1", func(string) bool { return true }); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if len(p.Posts().Posts()) != 0 {
		t.Fatalf("expected empty own list, got %+v", p.Posts().Posts())
	}
	if srv.CallCount("GET", "/api/user/me/posts") != 2 {
		t.Fatalf("expected resync through own posts, got %v", srv.Calls())
	}
}

func TestUpdateWithAvatar(t *testing.T) {
	p, srv, reg := newPage(t, true)
	path := filepath.Join(t.TempDir(), "me.png")
	if err := os.WriteFile(path, pngHeader, 0o600); err != nil {
		t.Fatalf("write file: %v", err)
	}
	if _, err := p.SelectImage(path); err != nil {
		t.Fatalf("select: %v", err)
	}
	p.SetBio("new bio")

	if err := p.Update(context.Background()); err != nil {
		t.Fatalf("update: %v", err)
	}
	if p.Status() != "Profile updated" {
		t.Fatalf("unexpected status %q", p.Status())
	}
	if prof := p.Profile(); prof.Bio != "new bio" || prof.ProfileImage != "/uploads/me.png" {
		t.Fatalf("unexpected profile %+v", prof)
	}
	if len(reg.Live()) != 0 {
		t.Fatalf("avatar preview leaked: %v", reg.Live())
	}
	if u := srv.User("u1"); u.Bio != "new bio" {
		t.Fatalf("server not updated: %+v", u)
	}
}

func TestUpdateFailureKeepsPreview(t *testing.T) {
	p, srv, reg := newPage(t, true)
	path := filepath.Join(t.TempDir(), "me.png")
	if err := os.WriteFile(path, pngHeader, 0o600); err != nil {
		t.Fatalf("write file: %v", err)
	}
	if _, err := p.SelectImage(path); err != nil {
		t.Fatalf("select: %v", err)
	}
	srv.Fail("PUT", "/api/user/me", 500)

	if err := p.Update(context.Background()); !errors.Is(err, api.ErrServer) {
		t.Fatalf("expected server error, got %v", err)
	}
	if p.Status() != "Failed to update profile" {
		t.Fatalf("unexpected status %q", p.Status())
	}
	if len(reg.Live()) != 1 {
		t.Fatalf("preview should survive a failed update, live %v", reg.Live())
	}
}

func TestUpdateWithoutSessionSendsNothing(t *testing.T) {
	p, srv, _ := newPage(t, false)
	p.SetBio("x")
	if err := p.Update(context.Background()); !errors.Is(err, api.ErrAuth) {
		t.Fatalf("expected auth error, got %v", err)
	}
	if len(srv.Calls()) != 0 {
		t.Fatalf("expected no requests, got %v", srv.Calls())
	}
}
