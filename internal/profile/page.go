// Package profile backs the signed-in user's own page: profile details, the
// bio/avatar form, and the list of their posts.
package profile

import (
	"context"
	"fmt"
	"log"
	"sync"

	"github.com/bajrang214/looptalk-client/internal/api"
	"github.com/bajrang214/looptalk-client/internal/feed"
	"github.com/bajrang214/looptalk-client/internal/preview"
)

const (
	updatedText = "Profile updated"
	failedText  = "Failed to update profile"
)

type Client interface {
	feed.Repository
	GetProfile(ctx context.Context) (api.Profile, error)
	UpdateProfile(ctx context.Context, bio string, image *api.Image) (api.Profile, error)
	MyPosts(ctx context.Context) ([]api.Post, error)
}

type Page struct {
	client  Client
	creds   api.CredentialSource
	preview *preview.Manager
	posts   *feed.Engine
	logger  *log.Logger

	mu      sync.Mutex
	profile api.Profile
	bio     string
	status  string
}

// NewPage wires a second feed engine whose resyncs list only the user's own
// posts, so edit and delete on this page behave exactly as on the feed.
func NewPage(client Client, creds api.CredentialSource, pm *preview.Manager, logger *log.Logger) *Page {
	if logger == nil {
		logger = log.Default()
	}
	return &Page{
		client:  client,
		creds:   creds,
		preview: pm,
		logger:  logger,
		posts:   feed.NewEngine(client, feed.WithSource(client.MyPosts), feed.WithLogger(logger)),
	}
}

func (p *Page) Posts() *feed.Engine {
	return p.posts
}

// Load fails with an auth error and no requests when nobody is signed in.
func (p *Page) Load(ctx context.Context) error {
	if p.creds == nil {
		return &api.Error{Kind: api.ErrAuth, Op: "load profile"}
	}
	if _, err := p.creds.Credential(ctx); err != nil {
		p.setStatus(feed.Message(err))
		return &api.Error{Kind: api.ErrAuth, Op: "load profile", Err: err}
	}

	prof, err := p.client.GetProfile(ctx)
	if err != nil {
		p.logger.Printf("[PROFILE] fetch error: %v", err)
		p.setStatus("Failed to load profile")
		return fmt.Errorf("load profile: %w", err)
	}
	p.mu.Lock()
	p.profile = prof
	p.bio = prof.Bio
	p.mu.Unlock()

	return p.posts.Refresh(ctx)
}

func (p *Page) Profile() api.Profile {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.profile
}

func (p *Page) SetBio(bio string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.bio = bio
}

func (p *Page) Bio() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.bio
}

func (p *Page) Status() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.status
}

func (p *Page) SelectImage(path string) (preview.Handle, error) {
	return p.preview.Select(path)
}

// Update sends the bio and, when one is picked, the new avatar. The picked
// image is released only after the server accepted it.
func (p *Page) Update(ctx context.Context) error {
	var img *api.Image
	if h, ok := p.preview.Current(); ok {
		f, err := h.Open()
		if err != nil {
			p.setStatus(failedText)
			return fmt.Errorf("open avatar: %w", err)
		}
		defer f.Close()
		img = &api.Image{Filename: h.Name, ContentType: h.MIME, Body: f}
	}

	prof, err := p.client.UpdateProfile(ctx, p.Bio(), img)
	if err != nil {
		p.logger.Printf("[PROFILE] update error: %v", err)
		p.setStatus(failedText)
		return err
	}

	p.mu.Lock()
	p.profile = prof
	p.bio = prof.Bio
	p.status = updatedText
	p.mu.Unlock()
	p.preview.Clear()
	return nil
}

func (p *Page) setStatus(s string) {
	p.mu.Lock()
	p.status = s
	p.mu.Unlock()
}
