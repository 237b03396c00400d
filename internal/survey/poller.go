package survey

import (
	"context"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// PollerConfig controls one polling loop.
type PollerConfig struct {
	// SessionID is the session the transcript belongs to.
	SessionID string

	// Interval is the time between regular ticks.
	Interval time.Duration

	// WatchPath, when set, triggers an extra tick after writes to that file.
	WatchPath string

	// Debounce delays watch-triggered ticks so a burst of writes yields one
	// pass.
	Debounce time.Duration
}

// Poller periodically re-processes a session's cumulative transcript and
// reconciles the result into the stored sections.
type Poller struct {
	cfg       PollerConfig
	source    Source
	refresher *Refresher
	logger    *zap.Logger

	mu        sync.Mutex // serializes ticks
	last      string
	processed bool
}

// NewPoller creates a Poller for cfg.SessionID reading transcripts from source.
func NewPoller(cfg PollerConfig, source Source, refresher *Refresher) *Poller {
	if cfg.Interval <= 0 {
		cfg.Interval = 15 * time.Second
	}
	return &Poller{
		cfg:       cfg,
		source:    source,
		refresher: refresher,
		logger:    refresher.logger.With(zap.String("session", cfg.SessionID)),
	}
}

// Tick runs one pass if the transcript changed since the last successful
// pass. It reports whether a pass ran. Blank transcripts are not processed.
func (p *Poller) Tick(ctx context.Context) (bool, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	text, err := p.source.Transcript(ctx)
	if err != nil {
		return false, err
	}
	if strings.TrimSpace(text) == "" || (p.processed && text == p.last) {
		p.refresher.emit(ProgressEvent{SessionID: p.cfg.SessionID, Status: ProgressSkipped})
		return false, nil
	}

	if _, err := p.refresher.Refresh(ctx, p.cfg.SessionID, text); err != nil {
		return false, err
	}
	p.last = text
	p.processed = true
	return true, nil
}

// Run ticks immediately, then on every interval and, when a watch path is
// configured, after debounced writes to it. Tick errors are logged and the
// loop continues. Run returns nil when ctx is cancelled.
func (p *Poller) Run(ctx context.Context) error {
	ticker := time.NewTicker(p.cfg.Interval)
	defer ticker.Stop()

	var (
		events   <-chan fsnotify.Event
		errs     <-chan error
		target   string
		debounce *time.Timer
		fire     <-chan time.Time
	)

	if p.cfg.WatchPath != "" {
		w, err := fsnotify.NewWatcher()
		if err != nil {
			return err
		}
		defer w.Close()

		target = filepath.Clean(p.cfg.WatchPath)
		// Watch the directory: editors often replace the file instead of
		// writing in place.
		if err := w.Add(filepath.Dir(target)); err != nil {
			return err
		}
		events, errs = w.Events, w.Errors
	}
	defer func() {
		if debounce != nil {
			debounce.Stop()
		}
	}()

	p.tick(ctx)

	for {
		select {
		case <-ctx.Done():
			p.logger.Debug("poller stopped")
			return nil

		case <-ticker.C:
			p.tick(ctx)

		case ev, ok := <-events:
			if !ok {
				events = nil
				continue
			}
			if filepath.Clean(ev.Name) != target || !ev.Has(fsnotify.Write|fsnotify.Create) {
				continue
			}
			if debounce == nil {
				debounce = time.NewTimer(p.cfg.Debounce)
			} else {
				debounce.Reset(p.cfg.Debounce)
			}
			fire = debounce.C

		case <-fire:
			fire = nil
			p.tick(ctx)

		case err, ok := <-errs:
			if !ok {
				errs = nil
				continue
			}
			p.logger.Warn("transcript watch error", zap.Error(err))
		}
	}
}

func (p *Poller) tick(ctx context.Context) {
	ran, err := p.Tick(ctx)
	switch {
	case err != nil && ctx.Err() == nil:
		p.logger.Error("tick failed", zap.Error(err))
	case ran:
		p.logger.Debug("tick processed transcript")
	}
}
