package feed

import (
	"sync"

	"github.com/bajrang214/looptalk-client/internal/api"
)

// EditState is the single edit slot. When Active is false no post is being
// edited and PostID and Draft are empty.
type EditState struct {
	Active bool
	PostID string
	Draft  string
}

type EditCoordinator struct {
	mu    sync.Mutex
	state EditState
}

// Begin opens the slot on p with its current content as the draft. Any edit
// already in progress is discarded.
func (c *EditCoordinator) Begin(p api.Post) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.state = EditState{Active: true, PostID: p.ID, Draft: p.Content}
}

// SetDraft reports false when nothing is being edited.
func (c *EditCoordinator) SetDraft(text string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.state.Active {
		return false
	}
	c.state.Draft = text
	return true
}

func (c *EditCoordinator) Cancel() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.state = EditState{}
}

func (c *EditCoordinator) State() EditState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

func (c *EditCoordinator) Editing(postID string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state.Active && c.state.PostID == postID
}

// finish vacates the slot after a committed edit, unless the user has
// already moved on to another post.
func (c *EditCoordinator) finish(postID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state.PostID == postID {
		c.state = EditState{}
	}
}
