// Package feed keeps a local copy of the post collection in step with the
// server. Every mutation is a single request followed by a full refetch that
// replaces the collection; nothing is patched locally.
package feed

import (
	"context"
	"log"
	"strings"
	"sync"

	"github.com/bajrang214/looptalk-client/internal/api"
)

type Repository interface {
	ListPosts(ctx context.Context) ([]api.Post, error)
	CreatePost(ctx context.Context, content string, image *api.Image) (api.Post, error)
	LikePost(ctx context.Context, postID string) error
	AddComment(ctx context.Context, postID, text string) error
	DeleteComment(ctx context.Context, postID string, index int) error
	EditPost(ctx context.Context, postID, content string) error
	DeletePost(ctx context.Context, postID string) error
}

// Source produces the snapshot a resync installs.
type Source func(ctx context.Context) ([]api.Post, error)

type Phase int

const (
	Idle Phase = iota
	Requesting
	Resyncing
)

func (p Phase) String() string {
	switch p {
	case Requesting:
		return "requesting"
	case Resyncing:
		return "resyncing"
	default:
		return "idle"
	}
}

type Transition struct {
	Action Action
	PostID string
	From   Phase
	To     Phase
	Err    error
}

type Observer func(Transition)

type Option func(*Engine)

// WithSource replaces the list operation used for resyncs, e.g. own posts on
// the profile page.
func WithSource(src Source) Option {
	return func(e *Engine) { e.source = src }
}

func WithObserver(o Observer) Option {
	return func(e *Engine) { e.observer = o }
}

func WithLogger(l *log.Logger) Option {
	return func(e *Engine) { e.logger = l }
}

const DeletePrompt = "Are you sure you want to delete this post?"

// ConfirmFunc asks the user a yes/no question.
type ConfirmFunc func(prompt string) bool

type Engine struct {
	repo     Repository
	source   Source
	observer Observer
	logger   *log.Logger
	edit     *EditCoordinator

	mu       sync.RWMutex
	posts    []api.Post
	fetchErr error
	drafts   map[string]string
}

func NewEngine(repo Repository, opts ...Option) *Engine {
	e := &Engine{
		repo:   repo,
		logger: log.Default(),
		edit:   &EditCoordinator{},
		drafts: map[string]string{},
	}
	e.source = repo.ListPosts
	for _, opt := range opts {
		opt(e)
	}
	return e
}

func (e *Engine) Edit() *EditCoordinator {
	return e.edit
}

// Posts returns the current snapshot in server order.
func (e *Engine) Posts() []api.Post {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return append([]api.Post(nil), e.posts...)
}

func (e *Engine) Post(id string) (api.Post, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	for _, p := range e.posts {
		if p.ID == id {
			return p, true
		}
	}
	return api.Post{}, false
}

// FetchErr is the error of the most recent failed refetch, cleared by the
// next successful one.
func (e *Engine) FetchErr() error {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.fetchErr
}

// Refresh replaces the whole collection with the server's list. On failure
// the last good snapshot stays in place.
func (e *Engine) Refresh(ctx context.Context) error {
	posts, err := e.source(ctx)
	if err != nil {
		e.logger.Printf("[FEED] fetch error: %v", err)
		wrapped := &ActionError{Action: ActionRefresh, Err: err}
		e.mu.Lock()
		e.fetchErr = wrapped
		e.mu.Unlock()
		return wrapped
	}
	if posts == nil {
		posts = []api.Post{}
	}
	e.mu.Lock()
	e.posts = posts
	e.fetchErr = nil
	e.mu.Unlock()
	return nil
}

func (e *Engine) Like(ctx context.Context, postID string) error {
	return e.run(ctx, ActionLike, postID, func(ctx context.Context) error {
		return e.repo.LikePost(ctx, postID)
	})
}

func (e *Engine) SetCommentDraft(postID, text string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.drafts[postID] = text
}

func (e *Engine) CommentDraft(postID string) string {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.drafts[postID]
}

// SubmitComment sends the draft typed for postID. A blank draft is ignored.
func (e *Engine) SubmitComment(ctx context.Context, postID string) error {
	return e.AddComment(ctx, postID, e.CommentDraft(postID))
}

// AddComment silently ignores blank text; no request is sent.
func (e *Engine) AddComment(ctx context.Context, postID, text string) error {
	if strings.TrimSpace(text) == "" {
		return nil
	}
	return e.run(ctx, ActionComment, postID, func(ctx context.Context) error {
		if err := e.repo.AddComment(ctx, postID, text); err != nil {
			return err
		}
		e.SetCommentDraft(postID, "")
		return nil
	})
}

// DeleteComment removes the comment at index in the server's current
// sequence. The index is taken from whatever snapshot the caller rendered;
// if the server list moved since, a different comment may be removed.
func (e *Engine) DeleteComment(ctx context.Context, postID string, index int) error {
	return e.run(ctx, ActionDeleteComment, postID, func(ctx context.Context) error {
		if err := e.repo.DeleteComment(ctx, postID, index); err != nil {
			return err
		}
		e.SetCommentDraft(postID, "")
		return nil
	})
}

// CommitEdit sends the draft held in the edit slot. On success the slot is
// vacated before the resync; on failure the draft stays for another try.
func (e *Engine) CommitEdit(ctx context.Context) error {
	st := e.edit.State()
	if !st.Active {
		return nil
	}
	return e.run(ctx, ActionEdit, st.PostID, func(ctx context.Context) error {
		if err := e.repo.EditPost(ctx, st.PostID, st.Draft); err != nil {
			return err
		}
		e.edit.finish(st.PostID)
		return nil
	})
}

// DeletePost asks confirm first and sends nothing unless it answers yes.
// The boolean reports whether the delete was attempted.
func (e *Engine) DeletePost(ctx context.Context, postID string, confirm ConfirmFunc) (bool, error) {
	if confirm == nil || !confirm(DeletePrompt) {
		return false, nil
	}
	return true, e.run(ctx, ActionDelete, postID, func(ctx context.Context) error {
		return e.repo.DeletePost(ctx, postID)
	})
}

func (e *Engine) CreatePost(ctx context.Context, content string, image *api.Image) (api.Post, error) {
	var created api.Post
	err := e.run(ctx, ActionCreate, "", func(ctx context.Context) error {
		p, err := e.repo.CreatePost(ctx, content, image)
		if err != nil {
			return err
		}
		created = p
		return nil
	})
	return created, err
}

// run drives one action through Requesting and, on success, Resyncing.
// There is no retry and no ordering between concurrent actions: each resync
// installs its own snapshot when it completes.
func (e *Engine) run(ctx context.Context, action Action, postID string, call func(context.Context) error) error {
	e.notify(Transition{Action: action, PostID: postID, From: Idle, To: Requesting})

	if err := call(ctx); err != nil {
		e.logger.Printf("[FEED] %s error: %v", action, err)
		wrapped := &ActionError{Action: action, PostID: postID, Err: err}
		e.notify(Transition{Action: action, PostID: postID, From: Requesting, To: Idle, Err: wrapped})
		return wrapped
	}

	e.notify(Transition{Action: action, PostID: postID, From: Requesting, To: Resyncing})
	err := e.Refresh(ctx)
	e.notify(Transition{Action: action, PostID: postID, From: Resyncing, To: Idle, Err: err})
	return err
}

func (e *Engine) notify(t Transition) {
	if e.observer != nil {
		e.observer(t)
	}
}
