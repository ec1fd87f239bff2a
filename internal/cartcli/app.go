// Package cartcli is the interactive cart client. It wires the local and
// remote stores, the availability oracle and the conflict watcher around a
// cart engine for whichever session is logged in, and drives everything
// from a small REPL.
package cartcli

import (
	"bufio"
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/vallamarket/cartsync/internal/cart"
	"github.com/vallamarket/cartsync/internal/checkout"
	"github.com/vallamarket/cartsync/internal/config"
	"github.com/vallamarket/cartsync/internal/conflict"
	"github.com/vallamarket/cartsync/internal/localstore"
	"github.com/vallamarket/cartsync/internal/logging"
	"github.com/vallamarket/cartsync/internal/photos"
	"github.com/vallamarket/cartsync/internal/remote"
)

type App struct {
	config *config.Config
	logger logging.Logger

	local    *localstore.Store
	remoteDB *remote.Store
	oracle   *remote.Oracle
	photos   *photos.Resolver

	session cart.Session
	engine  *cart.Engine
	watcher *conflict.Watcher

	reader *bufio.Reader
}

func NewApp(ctx context.Context, c *config.Config) (*App, error) {

	sl := slog.New(slog.NewJSONHandler(os.Stderr, nil))
	logger := logging.NewSlogLogger(sl)

	local, err := localstore.Open(ctx, c.LocalDBPath)
	if err != nil {
		return nil, fmt.Errorf("local db init error: %w", err)
	}

	remoteDB, err := remote.Connect(ctx, c.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("backend init error: %w", err)
	}

	a := &App{
		config:   c,
		logger:   logger,
		local:    local,
		remoteDB: remoteDB,
		oracle:   remote.NewOracle(remoteDB.Pool()),
		photos: photos.NewResolver(photos.Options{
			Region:       c.S3Region,
			RootUser:     c.S3RootUser,
			RootPassword: c.S3RootPassword,
			BaseEndpoint: c.S3BaseEndpoint,
			Bucket:       c.S3Bucket,
		}),
		reader: bufio.NewReader(os.Stdin),
	}

	// An anonymous session can still browse the locally saved cart.
	a.startSession(ctx, cart.Session{})

	return a, nil
}

// startSession tears down any running engine and builds a fresh one for the
// given identity, then hydrates it.
func (a *App) startSession(ctx context.Context, session cart.Session) {
	a.stopSession()

	a.session = session

	handoff := checkout.NewWriter(a.local, a.logger)
	engine := cart.NewEngine(session, a.local, a.remoteDB, a.oracle, handoff, a.logger,
		cart.Config{Scope: a.config.CartScope, SyncDebounce: a.config.SyncDebounce})

	listener := remote.NewListener(a.config.DatabaseDSN, a.logger)
	watcher := conflict.NewWatcher(listener, engine, engine.FlagConflicts, a.logger)
	engine.SetOnChange(func(itemCount int) {
		watcher.SetActive(itemCount > 0)
	})

	a.engine = engine
	a.watcher = watcher

	engine.Hydrate(ctx)
}

func (a *App) stopSession() {
	if a.watcher != nil {
		a.watcher.Close()
		a.watcher = nil
	}
	if a.engine != nil {
		a.engine.Close()
		a.engine = nil
	}
	a.session = cart.Session{}
}

func (a *App) isLoggedIn() bool {
	return a.session.Authenticated()
}

func (a *App) initSignalHandler(cancelFunc context.CancelFunc) {
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		cancelFunc()
	}()
}

func (a *App) Run(ctx context.Context) {

	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	a.initSignalHandler(cancelFunc)

	a.Root(ctx)

	a.stopSession()
	a.remoteDB.Close()
}
