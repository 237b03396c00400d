package main

import (
	"errors"

	"github.com/dusk-indust/surveynotes/internal/processor"
	"github.com/dusk-indust/surveynotes/internal/session"
	"github.com/dusk-indust/surveynotes/internal/survey"
)

// runtime is the wired service stack for one command invocation.
type runtime struct {
	store     session.Store
	refresher *survey.Refresher
	svc       *survey.Service
}

// open wires the configured store, the processing client and the
// reconciler. onProgress may be nil.
func (a *app) open(onProgress func(survey.ProgressEvent)) (*runtime, error) {
	store, err := session.Open(a.cfg.Store.Driver, a.cfg.StorePath(a.configDir))
	if err != nil {
		return nil, err
	}

	proc := processor.NewHTTPClient(a.cfg.Endpoint)
	refresher := survey.NewRefresher(store, proc, a.cfg.Reconciler(), a.logger, onProgress)
	return &runtime{
		store:     store,
		refresher: refresher,
		svc:       survey.NewService(refresher),
	}, nil
}

// requireEndpoint fails early for commands that run processing passes.
func (a *app) requireEndpoint() error {
	if a.cfg.Endpoint == "" {
		return errors.New("no processing endpoint configured: set endpoint in surveynotes.yml")
	}
	return nil
}

func (r *runtime) Close() error {
	return r.store.Close()
}
