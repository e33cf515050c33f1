package editor

import (
	"io"
	"log/slog"
	"time"
)

// Event describes one state-machine transition.
type Event struct {
	Name     string
	Ref      string
	Fields   map[string]any
	Err      error
	Duration time.Duration
}

type Observer interface {
	ObserveTransition(ev Event)
}

type NoopObserver struct{}

func (NoopObserver) ObserveTransition(Event) {}

type logObserver struct {
	logger *slog.Logger
}

// NewLogObserver logs transitions through logger. A nil logger disables it.
func NewLogObserver(logger *slog.Logger) Observer {
	if logger == nil {
		return NoopObserver{}
	}
	return &logObserver{logger: logger}
}

// NewTextObserver logs transitions as text lines to w.
func NewTextObserver(w io.Writer) Observer {
	if w == nil {
		return NoopObserver{}
	}
	return NewLogObserver(slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: slog.LevelDebug})))
}

func (o *logObserver) ObserveTransition(ev Event) {
	attrs := make([]any, 0, 6+len(ev.Fields)*2)
	attrs = append(attrs, "transition", ev.Name)
	if ev.Ref != "" {
		attrs = append(attrs, "node", ev.Ref)
	}
	if ev.Duration > 0 {
		attrs = append(attrs, "duration_ms", ev.Duration.Milliseconds())
	}
	for k, v := range ev.Fields {
		attrs = append(attrs, k, v)
	}
	if ev.Err != nil {
		attrs = append(attrs, "error", ev.Err.Error())
		o.logger.Error("editor", attrs...)
		return
	}
	o.logger.Debug("editor", attrs...)
}
