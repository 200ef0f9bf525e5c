package tui

import (
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/bajrang214/looptalk-client/internal/api"
	"github.com/bajrang214/looptalk-client/internal/feed"
	"github.com/bajrang214/looptalk-client/internal/session"
)

var (
	titleStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#7D56F4"))
	selectedStyle = lipgloss.NewStyle().BorderStyle(lipgloss.NormalBorder()).BorderLeft(true).BorderForeground(lipgloss.Color("#7D56F4")).PaddingLeft(1)
	postStyle     = lipgloss.NewStyle().PaddingLeft(2)
	mutedStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	errorStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF5F87"))
	statusStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#04B575"))
)

func (m Model) View() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("LoopTalk"))
	b.WriteString("  ")
	b.WriteString(mutedStyle.Render(m.navLine()))
	b.WriteString("\n\n")

	switch m.screen {
	case screenLogin, screenSignup:
		b.WriteString(m.formView())
	case screenProfile:
		b.WriteString(m.profileHeader())
		b.WriteString(m.postsView())
	default:
		b.WriteString(m.postsView())
	}

	b.WriteString("\n")
	b.WriteString(m.promptView())
	b.WriteString(m.messagePanel())
	b.WriteString("\n")
	b.WriteString(mutedStyle.Render(m.helpLine()))
	b.WriteString("\n")
	return b.String()
}

func (m Model) navLine() string {
	if m.userID == "" {
		return "not logged in | L: login"
	}
	where := "feed"
	if m.screen == screenProfile {
		where = "profile"
	}
	return fmt.Sprintf("%s | f: feed | p: profile | o: logout", where)
}

func (m Model) helpLine() string {
	switch {
	case m.screen == screenLogin:
		return "tab: next field | enter: login | ctrl+n: signup | esc: back"
	case m.screen == screenSignup:
		return "tab: next field | enter: signup | ctrl+n: login | esc: back"
	case m.mode == modeConfirmDelete:
		return "y: delete | n: cancel"
	case m.mode == modeCompose || m.mode == modeEdit:
		return "ctrl+s: submit | enter: new line | esc: cancel"
	case m.mode != modeBrowse:
		return "enter: submit | esc: cancel"
	case m.screen == screenProfile:
		return "j/k: move | l: like | c: comment | x: delete comment | e: edit | d: delete | b: edit bio | r: refresh | q: quit"
	}
	return "j/k: move | n: new post | l: like | c: comment | x: delete comment | e: edit | d: delete | r: refresh | q: quit"
}

func (m Model) formView() string {
	var b strings.Builder
	heading := "Login"
	if m.screen == screenSignup {
		heading = "Sign up"
	}
	b.WriteString(titleStyle.Render(heading))
	b.WriteString("\n")
	for i, f := range m.form {
		cursor := "  "
		if i == m.focus {
			cursor = "> "
		}
		fmt.Fprintf(&b, "%s%s: %s\n", cursor, f.label, f.input.View())
	}
	return b.String()
}

func (m Model) profileHeader() string {
	p := m.deps.Profile.Profile()
	if p.ID == "" {
		return ""
	}
	var b strings.Builder
	b.WriteString(titleStyle.Render(p.Username))
	if p.Email != "" {
		b.WriteString(" " + mutedStyle.Render(p.Email))
	}
	b.WriteString("\n")
	bio := p.Bio
	if bio == "" {
		bio = "No bio yet."
	}
	b.WriteString(bio + "\n")
	if p.ProfileImage != "" {
		b.WriteString(mutedStyle.Render("avatar: "+m.deps.Service.ResolveImageURL(p.ProfileImage)) + "\n")
	}
	b.WriteString("\n")
	return b.String()
}

func (m Model) postsView() string {
	if m.loading && len(m.engine().Posts()) == 0 {
		return "Loading posts...\n"
	}
	posts := m.engine().Posts()
	if len(posts) == 0 {
		if err := m.engine().FetchErr(); err != nil {
			return errorStyle.Render(feed.Message(err)) + "\n"
		}
		return "No posts yet.\n"
	}
	var b strings.Builder
	for i, p := range posts {
		block := m.postView(p)
		if i == m.cursor {
			b.WriteString(selectedStyle.Render(block))
		} else {
			b.WriteString(postStyle.Render(block))
		}
		b.WriteString("\n")
	}
	return b.String()
}

func (m Model) postView(p api.Post) string {
	var b strings.Builder
	author := p.Author.Username
	if author == "" {
		author = "Unknown"
	}
	b.WriteString(titleStyle.Render(author))
	if !p.CreatedAt.IsZero() {
		b.WriteString(" " + mutedStyle.Render(p.CreatedAt.Local().Format("2006-01-02 15:04")))
	}
	b.WriteString("\n")

	if m.engine().Edit().Editing(p.ID) && m.mode == modeEdit {
		b.WriteString(mutedStyle.Render("(editing)") + "\n")
	} else if p.Content != "" {
		b.WriteString(p.Content + "\n")
	}
	if p.Image != "" {
		b.WriteString(mutedStyle.Render("image: "+m.deps.Service.ResolveImageURL(p.Image)) + "\n")
	}

	liked := ""
	if p.LikedBy(m.userID) {
		liked = " (liked)"
	}
	actions := feed.PostActions(m.userID, p)
	line := fmt.Sprintf("likes: %d%s  comments: %d", p.LikeCount(), liked, len(p.Comments))
	if actions.Edit {
		line += "  [e]dit [d]elete"
	}
	b.WriteString(mutedStyle.Render(line) + "\n")

	for i, c := range p.Comments {
		name := c.Author.Username
		if name == "" {
			name = "User"
		}
		mark := ""
		if actions.DeleteComment[i] {
			mark = " [x]"
		}
		fmt.Fprintf(&b, "  %d. %s: %s%s\n", i+1, name, c.Text, mark)
	}
	return strings.TrimRight(b.String(), "\n")
}

func (m Model) promptView() string {
	switch m.mode {
	case modeBrowse:
		return ""
	case modeConfirmDelete:
		return feed.DeletePrompt + " (y/n)\n"
	}
	out := m.input.View()
	if m.mode == modeImage {
		if h, ok := m.deps.Composer.Image(); ok {
			out = mutedStyle.Render("selected: "+h.Name) + "\n" + out
		}
	}
	return out
}

func (m Model) messagePanel() string {
	switch {
	case m.loading:
		return mutedStyle.Render("Working...")
	case m.err != nil:
		return errorStyle.Render(errorText(m.err))
	case m.status != "":
		return statusStyle.Render(m.status)
	}
	return ""
}

// errorText shows request failures through the feed's message mapping and
// local input errors as they are.
func errorText(err error) string {
	var apiErr *api.Error
	var actErr *feed.ActionError
	if errors.As(err, &apiErr) || errors.As(err, &actErr) || errors.Is(err, session.ErrUnauthenticated) {
		return feed.Message(err)
	}
	return err.Error()
}
