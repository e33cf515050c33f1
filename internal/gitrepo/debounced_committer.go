package gitrepo

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"sync"
	"time"

	"handyman/internal/model"
)

// DebouncedCommitter commits the catalog a short while after the last save,
// so a burst of saves lands as one commit.
type DebouncedCommitter struct {
	dir      string
	paths    []string
	debounce time.Duration
	autoPush bool
	logger   *slog.Logger

	mu       sync.Mutex
	timer    *time.Timer
	pending  bool
	running  bool
	messages []string
	done     chan struct{}
}

type DebouncedCommitterOpts struct {
	Dir      string
	Paths    []string
	Debounce time.Duration

	// AutoPush enables best-effort `git push` after committing when an upstream exists.
	AutoPush bool
	Logger   *slog.Logger
}

func NewDebouncedCommitter(opts DebouncedCommitterOpts) *DebouncedCommitter {
	debounce := opts.Debounce
	if debounce <= 0 {
		debounce = 2 * time.Second
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &DebouncedCommitter{
		dir:      opts.Dir,
		paths:    append([]string(nil), opts.Paths...),
		debounce: debounce,
		autoPush: opts.AutoPush,
		logger:   logger,
	}
}

// AfterSave matches store.Options.AfterSave.
func (d *DebouncedCommitter) AfterSave(_ context.Context, _ string, b model.Batch) error {
	d.Notify(BatchMessage(b))
	return nil
}

func (d *DebouncedCommitter) Notify(message string) {
	if d == nil {
		return
	}

	d.mu.Lock()
	d.pending = true
	if m := strings.TrimSpace(message); m != "" {
		d.messages = append(d.messages, m)
	}
	if d.timer == nil {
		d.timer = time.AfterFunc(d.debounce, d.onTimer)
		d.mu.Unlock()
		return
	}
	d.timer.Reset(d.debounce)
	d.mu.Unlock()
}

// Flush runs any pending commit now and waits for it.
func (d *DebouncedCommitter) Flush() {
	if d == nil {
		return
	}
	d.mu.Lock()
	if d.timer != nil {
		d.timer.Stop()
	}
	for d.running {
		wait := d.done
		d.mu.Unlock()
		<-wait
		d.mu.Lock()
	}
	d.mu.Unlock()
	d.run()
}

func (d *DebouncedCommitter) onTimer() {
	d.mu.Lock()
	if d.running {
		if d.timer != nil {
			d.timer.Reset(d.debounce)
		}
		d.mu.Unlock()
		return
	}
	d.mu.Unlock()
	d.run()
}

func (d *DebouncedCommitter) run() {
	d.mu.Lock()
	if d.running || !d.pending {
		d.mu.Unlock()
		return
	}
	d.pending = false
	d.running = true
	d.done = make(chan struct{})
	message := strings.Join(d.messages, "\n\n")
	d.messages = nil
	d.mu.Unlock()

	ctx := context.Background()
	committed, err := CommitPaths(ctx, d.dir, d.paths, message)
	if err != nil {
		d.logger.Warn("auto-commit failed", "dir", d.dir, "error", err)
	} else if committed {
		d.logger.Info("catalog committed", "dir", d.dir)
		if d.autoPush {
			d.push(ctx)
		}
	}

	d.mu.Lock()
	d.running = false
	close(d.done)
	if d.pending && d.timer != nil {
		d.timer.Reset(d.debounce)
	}
	d.mu.Unlock()
}

func (d *DebouncedCommitter) push(ctx context.Context) {
	st, err := GetStatus(ctx, d.dir)
	if err != nil || !st.IsRepo || strings.TrimSpace(st.Upstream) == "" {
		return
	}
	if err := PushCatalog(ctx, d.dir); err != nil {
		d.logger.Warn("auto-push failed", "dir", d.dir, "conflict", errors.Is(err, ErrPushConflict), "error", err)
		return
	}
	d.logger.Info("catalog pushed", "dir", d.dir, "upstream", st.Upstream)
}
