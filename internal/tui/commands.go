package tui

import (
	"context"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/bajrang214/looptalk-client/internal/api"
	"github.com/bajrang214/looptalk-client/internal/feed"
	"github.com/bajrang214/looptalk-client/internal/session"
)

const requestTimeout = 15 * time.Second

type postsLoadedMsg struct {
	err error
}

type profileLoadedMsg struct {
	err error
}

// actionDoneMsg reports the end of a feed mutation; the engine already holds
// the resynced collection.
type actionDoneMsg struct {
	status string
	err    error
}

type loginMsg struct {
	cred session.Credential
	err  error
}

type signupMsg struct {
	err error
}

type logoutMsg struct {
	err error
}

func refreshCmd(e *feed.Engine) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()
		return postsLoadedMsg{err: e.Refresh(ctx)}
	}
}

func actionCmd(status string, fn func(ctx context.Context) error) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()
		if err := fn(ctx); err != nil {
			return actionDoneMsg{err: err}
		}
		return actionDoneMsg{status: status}
	}
}

func loginCmd(svc Service, sess *session.Context, email, password string) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()
		cred, err := svc.Login(ctx, email, password)
		if err != nil {
			return loginMsg{err: err}
		}
		if err := sess.Save(ctx, cred); err != nil {
			return loginMsg{err: err}
		}
		return loginMsg{cred: cred}
	}
}

func signupCmd(svc Service, req api.SignupRequest) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()
		return signupMsg{err: svc.Signup(ctx, req)}
	}
}

func logoutCmd(sess *session.Context) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()
		return logoutMsg{err: sess.Clear(ctx)}
	}
}
