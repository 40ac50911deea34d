package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"runtime/debug"
	"syscall"

	"github.com/common-nighthawk/go-figure"
	"github.com/itchub/edu-dashboard/authfetch"
	"github.com/itchub/edu-dashboard/backend"
	"github.com/itchub/edu-dashboard/backend/httpapi"
	"github.com/itchub/edu-dashboard/backend/localfixture"
	"github.com/itchub/edu-dashboard/internal/config"
	"github.com/itchub/edu-dashboard/session"
	"github.com/itchub/edu-dashboard/tokenstore"
)

func main() {
	if err := run(); err != nil {
		log.Fatalf("Error: %s\n", err)
	}
}

func run() (returnError error) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("Recovered from panic: %v\n", r)
			debug.PrintStack()
			returnError = errors.New("panic recovered")
		}
	}()

	c := config.New()
	displayAppname(c.GetAppName())

	store := tokenstore.NewFileStore(filepath.Join(c.GetDataFolder(), "session.json"))

	b, cleanup, err := buildBackend(c, store)
	if err != nil {
		return fmt.Errorf("building backend: %w", err)
	}
	defer cleanup()

	sess, err := session.New(b, store)
	if err != nil {
		return fmt.Errorf("session.New: %w", err)
	}
	defer sess.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	sess.Bootstrap(ctx)
	return dispatch(ctx, sess, b, os.Args[1:])
}

// buildBackend selects the storage port implementation: the remote REST API
// or the embedded fixture database, per configuration.
func buildBackend(c config.Config, store tokenstore.Store) (backend.Backend, func(), error) {
	if c.LocalMode() {
		fixture, err := localfixture.New(c.GetLocalDB(), store)
		if err != nil {
			return nil, nil, err
		}
		return fixture, func() { _ = fixture.Close() }, nil
	}

	fetch, err := authfetch.New(c.GetAPIBaseURL(), store,
		authfetch.WithHTTPClient(&http.Client{Timeout: c.GetHTTPTimeout()}),
		authfetch.WithOnSessionExpired(func() {
			fmt.Println("Session expired. Please login again.")
		}),
	)
	if err != nil {
		return nil, nil, err
	}
	api, err := httpapi.New(fetch)
	if err != nil {
		return nil, nil, err
	}
	return api, func() {}, nil
}

func displayAppname(appname string) {
	myFigure := figure.NewFigure(appname, "cybermedium", true)
	myFigure.Print()
	fmt.Println()
}
