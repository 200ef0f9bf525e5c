package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/bajrang214/looptalk-client/internal/api"
	"github.com/bajrang214/looptalk-client/internal/config"
	"github.com/bajrang214/looptalk-client/internal/db"
	"github.com/bajrang214/looptalk-client/internal/feed"
	"github.com/bajrang214/looptalk-client/internal/preview"
	"github.com/bajrang214/looptalk-client/internal/profile"
	"github.com/bajrang214/looptalk-client/internal/session"
	"github.com/bajrang214/looptalk-client/internal/tui"
)

var mainDepsProvider = defaultDeps
var mainRunner = realMain

func main() {
	if err := mainRunner(mainDepsProvider()); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

type mainDeps struct {
	loadConfig func() config.Config
	logToFile  func(path, prefix string) (io.Closer, error)
	openStore  func(config.Config) (session.Store, func(), error)
	runProgram func(tea.Model) error
}

func defaultDeps() mainDeps {
	return mainDeps{
		loadConfig: config.Load,
		logToFile: func(path, prefix string) (io.Closer, error) {
			return tea.LogToFile(path, prefix)
		},
		openStore: openStore,
		runProgram: func(m tea.Model) error {
			_, err := tea.NewProgram(m, tea.WithAltScreen()).Run()
			return err
		},
	}
}

func realMain(deps mainDeps) error {
	cfg := deps.loadConfig()

	if cfg.LogFile != "" {
		f, err := deps.logToFile(cfg.LogFile, "looptalk")
		if err != nil {
			return fmt.Errorf("open log file: %w", err)
		}
		defer f.Close()
	}

	store, closeStore, err := deps.openStore(cfg)
	if err != nil {
		return fmt.Errorf("open session store: %w", err)
	}
	defer closeStore()

	model := newModel(cfg, session.New(store), log.Default())
	return deps.runProgram(model)
}

var errNoRedis = errors.New("SESSION_STORE=redis needs REDIS_ADDR")

// openStore picks the credential store named by SESSION_STORE.
func openStore(cfg config.Config) (session.Store, func(), error) {
	noop := func() {}
	switch cfg.SessionStore {
	case "memory":
		return session.NewMemoryStore(), noop, nil
	case "redis":
		rdb := db.ConnectRedis(cfg)
		if rdb == nil {
			return nil, noop, errNoRedis
		}
		if err := rdb.Ping(context.Background()).Err(); err != nil {
			_ = rdb.Close()
			return nil, noop, fmt.Errorf("redis ping: %w", err)
		}
		return session.NewRedisStore(rdb, cfg.SessionKeyPrefix), func() { _ = rdb.Close() }, nil
	case "file", "":
		path := cfg.SessionFile
		if path == "" {
			p, err := session.DefaultFilePath()
			if err != nil {
				return nil, noop, err
			}
			path = p
		}
		return session.NewFileStore(path), noop, nil
	}
	return nil, noop, fmt.Errorf("unknown SESSION_STORE %q", cfg.SessionStore)
}

func newModel(cfg config.Config, sess *session.Context, logger *log.Logger) tui.Model {
	client := api.NewClient(cfg.APIBaseURL, &http.Client{Timeout: cfg.HTTPTimeout}, sess)
	registry := preview.NewRegistry()
	engine := feed.NewEngine(client, feed.WithLogger(logger))

	return tui.NewModel(tui.Deps{
		Service:  client,
		Session:  sess,
		Feed:     engine,
		Composer: feed.NewComposer(engine, preview.NewManager(registry)),
		Profile:  profile.NewPage(client, sess, preview.NewManager(registry), logger),
	}, sess.UserID(context.Background()))
}
