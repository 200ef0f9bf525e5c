package feed

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/bajrang214/looptalk-client/internal/api"
	"github.com/bajrang214/looptalk-client/internal/preview"
)

const (
	emptyPostText   = "Please write something or select an image."
	postCreatedText = "Post created"
)

// Composer is the new-post form: text plus an optional picked image.
type Composer struct {
	engine  *Engine
	preview *preview.Manager

	mu      sync.Mutex
	content string
	status  string
}

func NewComposer(engine *Engine, pm *preview.Manager) *Composer {
	return &Composer{engine: engine, preview: pm}
}

func (c *Composer) SetContent(text string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.content = text
}

func (c *Composer) Content() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.content
}

// Status is the last outcome message, empty until Submit runs.
func (c *Composer) Status() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.status
}

func (c *Composer) SelectImage(path string) (preview.Handle, error) {
	return c.preview.Select(path)
}

func (c *Composer) Image() (preview.Handle, bool) {
	return c.preview.Current()
}

// Reset empties the form and releases the picked image.
func (c *Composer) Reset() {
	c.mu.Lock()
	c.content = ""
	c.status = ""
	c.mu.Unlock()
	c.preview.Clear()
}

// Submit creates the post. The form is cleared only when the server accepted
// it; on failure the text and image stay so the user can retry.
func (c *Composer) Submit(ctx context.Context) error {
	content := c.Content()
	handle, hasImage := c.preview.Current()
	if strings.TrimSpace(content) == "" && !hasImage {
		c.setStatus(emptyPostText)
		return &ActionError{Action: ActionCreate, Err: &api.Error{Kind: api.ErrValidation, Op: string(ActionCreate), Message: emptyPostText}}
	}

	var img *api.Image
	if hasImage {
		f, err := handle.Open()
		if err != nil {
			c.setStatus(failureText[ActionCreate])
			return &ActionError{Action: ActionCreate, Err: err}
		}
		defer f.Close()
		img = &api.Image{Filename: handle.Name, ContentType: handle.MIME, Body: f}
	}

	_, err := c.engine.CreatePost(ctx, content, img)
	if err != nil {
		var actErr *ActionError
		if !errors.As(err, &actErr) || actErr.Action == ActionCreate {
			c.setStatus(Message(err))
			return err
		}
	}

	// the post exists even if the resync afterwards failed
	c.mu.Lock()
	c.content = ""
	c.status = postCreatedText
	c.mu.Unlock()
	c.preview.Clear()
	return err
}

func (c *Composer) setStatus(s string) {
	c.mu.Lock()
	c.status = s
	c.mu.Unlock()
}
