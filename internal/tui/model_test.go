package tui

import (
	"context"
	"io"
	"log"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/bajrang214/looptalk-client/internal/api"
	"github.com/bajrang214/looptalk-client/internal/apitest"
	"github.com/bajrang214/looptalk-client/internal/feed"
	"github.com/bajrang214/looptalk-client/internal/preview"
	"github.com/bajrang214/looptalk-client/internal/profile"
	"github.com/bajrang214/looptalk-client/internal/session"
)

func newTestModel(t *testing.T, loggedIn bool) (Model, *apitest.Server, *session.Context) {
	t.Helper()
	srv := apitest.New(t)
	srv.AddUser(apitest.User{ID: "u1", Username: "alice", Email: "alice@example.com", Password: "pw", Token: "tok-1"})
	srv.AddUser(apitest.User{ID: "u2", Username: "bob", Email: "bob@example.com", Password: "pw", Token: "tok-2"})
	srv.AddPost(apitest.Post{ID: "p1", AuthorID: "u1", Content: "first post"})
	srv.AddPost(apitest.Post{ID: "p2", AuthorID: "u2", Content: "second post"})

	ctx := context.Background()
	sess := session.New(session.NewMemoryStore())
	userID := ""
	if loggedIn {
		if err := sess.Save(ctx, session.Credential{Token: "tok-1", UserID: "u1"}); err != nil {
			t.Fatalf("save session: %v", err)
		}
		userID = "u1"
	}

	quiet := log.New(io.Discard, "", 0)
	client := api.NewClient(srv.URL, nil, sess)
	reg := preview.NewRegistry()
	engine := feed.NewEngine(client, feed.WithLogger(quiet))
	m := NewModel(Deps{
		Service:  client,
		Session:  sess,
		Feed:     engine,
		Composer: feed.NewComposer(engine, preview.NewManager(reg)),
		Profile:  profile.NewPage(client, sess, preview.NewManager(reg), quiet),
	}, userID)
	return run(t, m, m.Init()), srv, sess
}

// run executes cmd and feeds every resulting message back into the model
// until no command is left.
func run(t *testing.T, m Model, cmd tea.Cmd) Model {
	t.Helper()
	for cmd != nil {
		msg := cmd()
		if msg == nil {
			break
		}
		if _, ok := msg.(tea.QuitMsg); ok {
			break
		}
		var next tea.Model
		next, cmd = m.Update(msg)
		m = next.(Model)
	}
	return m
}

func press(t *testing.T, m Model, msgs ...tea.Msg) Model {
	t.Helper()
	for _, msg := range msgs {
		next, cmd := m.Update(msg)
		m = run(t, next.(Model), cmd)
	}
	return m
}

func keys(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

var (
	enter     = tea.KeyMsg{Type: tea.KeyEnter}
	tab       = tea.KeyMsg{Type: tea.KeyTab}
	save      = tea.KeyMsg{Type: tea.KeyCtrlS}
	esc       = tea.KeyMsg{Type: tea.KeyEsc}
	clearLine = tea.KeyMsg{Type: tea.KeyCtrlU}
)

func TestInitLoadsFeed(t *testing.T) {
	m, _, _ := newTestModel(t, true)
	if m.loading {
		t.Fatalf("expected loading to finish")
	}
	view := m.View()
	for _, want := range []string{"first post", "second post", "alice", "[e]dit"} {
		if !strings.Contains(view, want) {
			t.Fatalf("view missing %q:\n%s", want, view)
		}
	}
}

func TestLikeCurrentPost(t *testing.T) {
	m, srv, _ := newTestModel(t, true)
	m = press(t, m, keys("j"), keys("l"))

	if srv.CallCount("PUT", "/api/posts/p2/like") != 1 {
		t.Fatalf("expected like on p2, calls %v", srv.Calls())
	}
	p, _ := m.deps.Feed.Post("p2")
	if !p.LikedBy("u1") {
		t.Fatalf("expected resynced like, got %+v", p)
	}
}

func TestDeleteAsksFirst(t *testing.T) {
	m, srv, _ := newTestModel(t, true)

	m = press(t, m, keys("d"))
	if m.mode != modeConfirmDelete || !strings.Contains(m.View(), feed.DeletePrompt) {
		t.Fatalf("expected confirmation prompt:\n%s", m.View())
	}
	m = press(t, m, keys("n"))
	if srv.CallCount("DELETE", "/api/posts") != 0 {
		t.Fatalf("declined delete reached the server")
	}

	m = press(t, m, keys("d"), keys("y"))
	if srv.CallCount("DELETE", "/api/posts/p1") != 1 {
		t.Fatalf("expected delete of p1, calls %v", srv.Calls())
	}
	if len(m.deps.Feed.Posts()) != 1 || m.status != "Post deleted" {
		t.Fatalf("unexpected state: posts %+v status %q", m.deps.Feed.Posts(), m.status)
	}
}

func TestDeleteHiddenForOthersPosts(t *testing.T) {
	m, _, _ := newTestModel(t, true)
	m = press(t, m, keys("j"), keys("d"))
	if m.mode != modeBrowse {
		t.Fatalf("delete must not be offered on another user's post")
	}
}

func TestComposeAndSubmit(t *testing.T) {
	m, srv, _ := newTestModel(t, true)
	m = press(t, m, keys("n"), keys("hello world"), save, enter)

	if m.status != "Post created" {
		t.Fatalf("unexpected status %q err %v", m.status, m.err)
	}
	posts := srv.Posts()
	if len(posts) != 3 || posts[0].Content != "hello world" {
		t.Fatalf("unexpected server posts %+v", posts)
	}
	if got := m.deps.Feed.Posts(); len(got) != 3 || got[0].Content != "hello world" {
		t.Fatalf("feed not resynced: %+v", got)
	}
}

func TestComposeEmptyShowsValidation(t *testing.T) {
	m, srv, _ := newTestModel(t, true)
	m = press(t, m, keys("n"), save, enter)

	if srv.CallCount("POST", "/api/posts") != 0 {
		t.Fatalf("empty post reached the server")
	}
	if !strings.Contains(m.View(), "Please write something or select an image.") {
		t.Fatalf("expected validation message:\n%s", m.View())
	}
}

func TestEditOwnPost(t *testing.T) {
	m, srv, _ := newTestModel(t, true)
	m = press(t, m, keys("e"), clearLine, keys("changed"), save)

	if got := srv.Posts()[0].Content; got != "changed" {
		t.Fatalf("expected server content updated, got %q", got)
	}
	if m.deps.Feed.Edit().State().Active {
		t.Fatalf("expected edit slot cleared")
	}
}

func TestBlankCommentSendsNothing(t *testing.T) {
	m, srv, _ := newTestModel(t, true)
	m = press(t, m, keys("c"), keys("   "), enter)
	if srv.CallCount("POST", "/api/posts/p1/comment") != 0 {
		t.Fatalf("blank comment reached the server")
	}

	m = press(t, m, keys("c"), clearLine, keys("nice"), enter)
	p, _ := m.deps.Feed.Post("p1")
	if len(p.Comments) != 1 || p.Comments[0].Text != "nice" {
		t.Fatalf("expected comment after resync, got %+v", p.Comments)
	}
}

func TestLoginThenLogout(t *testing.T) {
	m, _, sess := newTestModel(t, false)
	m = press(t, m, keys("L"), keys("alice@example.com"), tab, keys("pw"), enter)

	if m.userID != "u1" || m.screen != screenFeed {
		t.Fatalf("expected logged in on feed, user %q screen %d err %v", m.userID, m.screen, m.err)
	}
	cred, err := sess.Credential(context.Background())
	if err != nil || cred.Token != "tok-1" {
		t.Fatalf("expected stored credential, got %+v %v", cred, err)
	}

	m = press(t, m, keys("o"))
	if m.userID != "" || m.screen != screenLogin {
		t.Fatalf("expected logged out on login screen")
	}
	if _, err := sess.Credential(context.Background()); err == nil {
		t.Fatalf("expected credential cleared")
	}
}

func TestLoginFailureShowsServerMessage(t *testing.T) {
	m, _, _ := newTestModel(t, false)
	m = press(t, m, keys("L"), keys("alice@example.com"), tab, keys("wrong"), enter)
	if m.screen != screenLogin || !strings.Contains(m.View(), "Invalid credentials") {
		t.Fatalf("expected login error:\n%s", m.View())
	}
}

func TestProfileRequiresLogin(t *testing.T) {
	m, srv, _ := newTestModel(t, false)
	before := len(srv.Calls())
	m = press(t, m, keys("p"))
	if m.screen != screenFeed || m.err == nil {
		t.Fatalf("expected login required error")
	}
	if len(srv.Calls()) != before {
		t.Fatalf("profile without login reached the server")
	}
}

func TestProfileShowsOwnPosts(t *testing.T) {
	m, _, _ := newTestModel(t, true)
	m = press(t, m, keys("p"))
	if m.screen != screenProfile {
		t.Fatalf("expected profile screen")
	}
	view := m.View()
	if !strings.Contains(view, "first post") || strings.Contains(view, "second post") {
		t.Fatalf("expected only own posts:\n%s", view)
	}

	m = press(t, m, keys("b"), keys("about me"), enter, enter)
	if m.status != "Profile updated" || m.deps.Profile.Profile().Bio != "about me" {
		t.Fatalf("unexpected status %q err %v", m.status, m.err)
	}
}

func TestComposeKeepsLineBreaks(t *testing.T) {
	m, srv, _ := newTestModel(t, true)
	m = press(t, m, keys("n"), keys("line one"), enter, keys("line two"), save, enter)

	if m.status != "Post created" {
		t.Fatalf("unexpected status %q err %v", m.status, m.err)
	}
	if got := srv.Posts()[0].Content; got != "line one\nline two" {
		t.Fatalf("expected two-line post, got %q", got)
	}
}

func TestFailedEditStaysOpen(t *testing.T) {
	m, srv, _ := newTestModel(t, true)
	srv.Fail("PUT", "/api/posts/p1/edit", 500)
	m = press(t, m, keys("e"), clearLine, keys("changed"), save)

	if m.mode != modeEdit || m.input.Value() != "changed" {
		t.Fatalf("expected edit prompt reopened with draft, mode %d value %q", m.mode, m.input.Value())
	}
	if !strings.Contains(m.View(), "Failed to update post") {
		t.Fatalf("expected failure message:\n%s", m.View())
	}
	if st := m.deps.Feed.Edit().State(); !st.Active || st.Draft != "changed" {
		t.Fatalf("expected draft kept in slot, got %+v", st)
	}

	m = press(t, m, esc)
	if m.mode != modeBrowse || m.deps.Feed.Edit().State().Active {
		t.Fatalf("expected cancel to clear the slot")
	}
	if got := srv.Posts()[0].Content; got != "first post" {
		t.Fatalf("server content changed: %q", got)
	}
}

func TestSignupPasswordMismatch(t *testing.T) {
	m, srv, _ := newTestModel(t, false)
	m = press(t, m, keys("L"), tea.KeyMsg{Type: tea.KeyCtrlN})
	if m.screen != screenSignup || len(m.form) != 4 {
		t.Fatalf("expected signup form with confirm field, got screen %d fields %d", m.screen, len(m.form))
	}
	m = press(t, m, keys("carol"), tab, keys("carol@example.com"), tab, keys("secret"), tab, keys("secrte"), enter)

	if srv.CallCount("POST", "/api/signup") != 0 {
		t.Fatalf("mismatched passwords reached the server")
	}
	if m.screen != screenSignup || !strings.Contains(m.View(), "Passwords do not match") {
		t.Fatalf("expected mismatch message:\n%s", m.View())
	}
	if strings.Contains(m.View(), "secret") {
		t.Fatalf("password rendered in clear:\n%s", m.View())
	}
}

func TestSignupMatchingPasswords(t *testing.T) {
	m, srv, _ := newTestModel(t, false)
	m = press(t, m, keys("L"), tea.KeyMsg{Type: tea.KeyCtrlN},
		keys("carol"), tab, keys("carol@example.com"), tab, keys("secret"), tab, keys("secret"), enter)

	if srv.CallCount("POST", "/api/signup") != 1 {
		t.Fatalf("expected one signup call, calls %v", srv.Calls())
	}
	if m.screen != screenLogin || m.status != "Signup successful. Please login." {
		t.Fatalf("expected login screen after signup, screen %d status %q err %v", m.screen, m.status, m.err)
	}
}

func TestMissingAuthorNames(t *testing.T) {
	m, _, _ := newTestModel(t, true)
	out := m.postView(api.Post{ID: "px", Content: "orphan", Comments: []api.Comment{{Text: "hey"}}})
	if !strings.Contains(out, "Unknown") || !strings.Contains(out, "1. User: hey") {
		t.Fatalf("expected fallback names:\n%s", out)
	}
}
