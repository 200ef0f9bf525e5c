// Package tui is the terminal front end: feed, profile, and the login and
// signup forms, all driven through the feed engine and profile page.
package tui

import (
	"context"
	"errors"
	"strconv"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/bajrang214/looptalk-client/internal/api"
	"github.com/bajrang214/looptalk-client/internal/feed"
	"github.com/bajrang214/looptalk-client/internal/profile"
	"github.com/bajrang214/looptalk-client/internal/session"
)

type Service interface {
	Login(ctx context.Context, email, password string) (session.Credential, error)
	Signup(ctx context.Context, req api.SignupRequest) error
	ResolveImageURL(path string) string
}

type Deps struct {
	Service  Service
	Session  *session.Context
	Feed     *feed.Engine
	Composer *feed.Composer
	Profile  *profile.Page
}

type screen int

const (
	screenFeed screen = iota
	screenProfile
	screenLogin
	screenSignup
)

type mode int

const (
	modeBrowse mode = iota
	modeCompose
	modeImage
	modeComment
	modeDeleteComment
	modeEdit
	modeConfirmDelete
	modeBio
	modeAvatar
)

var errLoginRequired = errors.New("login required")

var errPasswordMismatch = &api.Error{Kind: api.ErrValidation, Op: "signup", Message: "Passwords do not match"}

type Model struct {
	deps    Deps
	screen  screen
	mode    mode
	cursor  int
	userID  string
	target  string
	input   prompt
	form    []formField
	focus   int
	loading bool
	status  string
	err     error
	width   int
	height  int
}

// NewModel starts on the feed. userID is the identity already stored in the
// session, empty when logged out.
func NewModel(deps Deps, userID string) Model {
	return Model{deps: deps, userID: userID, loading: true}
}

func (m Model) Init() tea.Cmd {
	return refreshCmd(m.deps.Feed)
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil
	case postsLoadedMsg:
		m.loading = false
		m.err = msg.err
		m.clampCursor()
		return m, nil
	case profileLoadedMsg:
		m.loading = false
		m.err = msg.err
		m.clampCursor()
		return m, nil
	case actionDoneMsg:
		m.loading = false
		m.err = msg.err
		if msg.err == nil {
			m.status = msg.status
		}
		m.clampCursor()
		var actErr *feed.ActionError
		if errors.As(msg.err, &actErr) && actErr.Action == feed.ActionEdit {
			// the engine kept the draft; put it back on screen
			if st := m.engine().Edit().State(); st.Active {
				m.mode = modeEdit
				m.target = st.PostID
				m.input = areaPrompt("Edit post", st.Draft)
			}
		}
		return m, nil
	case loginMsg:
		m.loading = false
		if msg.err != nil {
			m.err = msg.err
			return m, nil
		}
		m.userID = msg.cred.UserID
		m.screen = screenFeed
		m.form = nil
		m.err = nil
		m.status = "Logged in"
		m.loading = true
		return m, refreshCmd(m.deps.Feed)
	case signupMsg:
		m.loading = false
		if msg.err != nil {
			m.err = msg.err
			return m, nil
		}
		m = m.openLogin()
		m.status = "Signup successful. Please login."
		return m, nil
	case logoutMsg:
		if msg.err != nil {
			m.err = msg.err
			return m, nil
		}
		m.userID = ""
		m.deps.Composer.Reset()
		m.deps.Feed.Edit().Cancel()
		m = m.openLogin()
		m.status = "Logged out"
		return m, nil
	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC {
			return m, tea.Quit
		}
		switch {
		case m.screen == screenLogin || m.screen == screenSignup:
			return m.updateForm(msg)
		case m.mode != modeBrowse:
			return m.updateInput(msg)
		default:
			return m.updateBrowse(msg)
		}
	}
	return m, nil
}

func (m Model) engine() *feed.Engine {
	if m.screen == screenProfile {
		return m.deps.Profile.Posts()
	}
	return m.deps.Feed
}

func (m Model) current() (api.Post, bool) {
	posts := m.engine().Posts()
	if m.cursor < 0 || m.cursor >= len(posts) {
		return api.Post{}, false
	}
	return posts[m.cursor], true
}

func (m *Model) clampCursor() {
	n := len(m.engine().Posts())
	if m.cursor >= n {
		m.cursor = n - 1
	}
	if m.cursor < 0 {
		m.cursor = 0
	}
}

func (m Model) updateBrowse(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	m.status = ""
	switch msg.String() {
	case "q":
		return m, tea.Quit
	case "j", "down":
		if m.cursor < len(m.engine().Posts())-1 {
			m.cursor++
		}
		return m, nil
	case "k", "up":
		if m.cursor > 0 {
			m.cursor--
		}
		return m, nil
	case "r":
		return m.reload()
	case "f":
		m.screen = screenFeed
		m.cursor = 0
		return m.reload()
	case "p":
		if m.userID == "" {
			m.err = errLoginRequired
			return m, nil
		}
		m.screen = screenProfile
		m.cursor = 0
		return m.reload()
	case "L":
		if m.userID == "" {
			return m.openLogin(), nil
		}
		return m, nil
	case "o":
		if m.userID == "" {
			return m, nil
		}
		return m, logoutCmd(m.deps.Session)
	case "n":
		if m.screen != screenFeed {
			return m, nil
		}
		return m.startInput(modeCompose, "", "New post", m.deps.Composer.Content()), nil
	case "b":
		if m.screen != screenProfile {
			return m, nil
		}
		return m.startInput(modeBio, "", "Bio", m.deps.Profile.Bio()), nil
	}

	post, ok := m.current()
	if !ok {
		return m, nil
	}
	e := m.engine()
	switch msg.String() {
	case "l":
		m.loading = true
		return m, actionCmd("", func(ctx context.Context) error { return e.Like(ctx, post.ID) })
	case "c":
		return m.startInput(modeComment, post.ID, "Comment", e.CommentDraft(post.ID)), nil
	case "x":
		if len(post.Comments) == 0 {
			return m, nil
		}
		return m.startInput(modeDeleteComment, post.ID, "Delete comment #", ""), nil
	case "e":
		if !feed.CanModifyPost(m.userID, post) {
			return m, nil
		}
		e.Edit().Begin(post)
		return m.startInput(modeEdit, post.ID, "Edit post", post.Content), nil
	case "d":
		if !feed.CanModifyPost(m.userID, post) {
			return m, nil
		}
		m.mode = modeConfirmDelete
		m.target = post.ID
		return m, nil
	}
	return m, nil
}

func (m Model) reload() (tea.Model, tea.Cmd) {
	m.loading = true
	m.err = nil
	if m.screen == screenProfile {
		p := m.deps.Profile
		return m, func() tea.Msg {
			ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
			defer cancel()
			return profileLoadedMsg{err: p.Load(ctx)}
		}
	}
	return m, refreshCmd(m.deps.Feed)
}

func (m Model) startInput(md mode, target, label, value string) Model {
	m.mode = md
	m.target = target
	if md == modeCompose || md == modeEdit {
		m.input = areaPrompt(label, value)
	} else {
		m.input = linePrompt(label, value)
	}
	m.err = nil
	return m
}

func (m Model) updateInput(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	e := m.engine()
	target := m.target

	if m.mode == modeConfirmDelete {
		switch msg.String() {
		case "y", "Y":
			m.mode = modeBrowse
			m.loading = true
			return m, actionCmd("Post deleted", func(ctx context.Context) error {
				_, err := e.DeletePost(ctx, target, func(string) bool { return true })
				return err
			})
		case "n", "N", "esc":
			m.mode = modeBrowse
			m.target = ""
		}
		return m, nil
	}

	switch msg.Type {
	case tea.KeyEsc:
		switch m.mode {
		case modeEdit:
			e.Edit().Cancel()
		case modeCompose:
			m.deps.Composer.SetContent(m.input.Value())
		case modeComment:
			e.SetCommentDraft(target, m.input.Value())
		}
		m.mode = modeBrowse
		return m, nil
	}
	if m.input.submits(msg) {
		return m.submitInput()
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.update(msg)
	if m.mode == modeEdit {
		e.Edit().SetDraft(m.input.Value())
	}
	return m, cmd
}

func (m Model) submitInput() (tea.Model, tea.Cmd) {
	e := m.engine()
	target := m.target
	value := m.input.Value()

	switch m.mode {
	case modeCompose:
		m.deps.Composer.SetContent(value)
		return m.startInput(modeImage, "", "Image path (enter to skip)", ""), nil
	case modeImage:
		if path := strings.TrimSpace(value); path != "" {
			if _, err := m.deps.Composer.SelectImage(path); err != nil {
				m.err = err
				return m, nil
			}
		}
		m.mode = modeBrowse
		m.loading = true
		c := m.deps.Composer
		return m, actionCmd("Post created", c.Submit)
	case modeComment:
		m.mode = modeBrowse
		e.SetCommentDraft(target, value)
		if strings.TrimSpace(value) == "" {
			return m, nil
		}
		m.loading = true
		return m, actionCmd("Comment added", func(ctx context.Context) error { return e.SubmitComment(ctx, target) })
	case modeDeleteComment:
		post, ok := e.Post(target)
		n, err := strconv.Atoi(strings.TrimSpace(value))
		if !ok || err != nil || n < 1 || n > len(post.Comments) {
			m.err = errors.New("no such comment")
			return m, nil
		}
		if !feed.CanDeleteComment(m.userID, post.Comments[n-1]) {
			m.err = errors.New("you can only delete your own comments")
			return m, nil
		}
		m.mode = modeBrowse
		m.loading = true
		return m, actionCmd("Comment deleted", func(ctx context.Context) error { return e.DeleteComment(ctx, target, n-1) })
	case modeEdit:
		e.Edit().SetDraft(value)
		m.mode = modeBrowse
		m.loading = true
		return m, actionCmd("Post updated", e.CommitEdit)
	case modeBio:
		m.deps.Profile.SetBio(value)
		return m.startInput(modeAvatar, "", "Avatar image path (enter to skip)", ""), nil
	case modeAvatar:
		if path := strings.TrimSpace(value); path != "" {
			if _, err := m.deps.Profile.SelectImage(path); err != nil {
				m.err = err
				return m, nil
			}
		}
		m.mode = modeBrowse
		m.loading = true
		p := m.deps.Profile
		return m, actionCmd("Profile updated", p.Update)
	}
	return m, nil
}

func (m Model) openLogin() Model {
	m.screen = screenLogin
	m.mode = modeBrowse
	m.form = newForm(textField("Email"), passwordField("Password"))
	m.focus = 0
	m.err = nil
	return m
}

func (m Model) openSignup() Model {
	m.screen = screenSignup
	m.mode = modeBrowse
	m.form = newForm(textField("Username"), textField("Email"), passwordField("Password"), passwordField("Confirm password"))
	m.focus = 0
	m.err = nil
	return m
}

func (m Model) updateForm(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEsc:
		m.screen = screenFeed
		m.form = nil
		m.err = nil
		return m, nil
	case tea.KeyTab, tea.KeyDown:
		return m.focusField((m.focus + 1) % len(m.form)), nil
	case tea.KeyShiftTab, tea.KeyUp:
		return m.focusField((m.focus + len(m.form) - 1) % len(m.form)), nil
	case tea.KeyCtrlN:
		if m.screen == screenLogin {
			return m.openSignup(), nil
		}
		return m.openLogin(), nil
	case tea.KeyEnter:
		m.err = nil
		if m.screen == screenLogin {
			m.loading = true
			return m, loginCmd(m.deps.Service, m.deps.Session, m.form[0].input.Value(), m.form[1].input.Value())
		}
		if m.form[2].input.Value() != m.form[3].input.Value() {
			m.err = errPasswordMismatch
			return m, nil
		}
		m.loading = true
		return m, signupCmd(m.deps.Service, api.SignupRequest{
			Username: m.form[0].input.Value(),
			Email:    m.form[1].input.Value(),
			Password: m.form[2].input.Value(),
		})
	}
	var cmd tea.Cmd
	m.form[m.focus].input, cmd = m.form[m.focus].input.Update(msg)
	return m, cmd
}

func (m Model) focusField(i int) Model {
	form := append([]formField(nil), m.form...)
	form[m.focus].input.Blur()
	form[i].input.Focus()
	m.form = form
	m.focus = i
	return m
}
