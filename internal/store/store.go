// Package store reads and writes the catalog file and keeps the save journal.
package store

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"handyman/internal/model"
)

// DefaultCatalogName is the file `handyman` looks for when no catalog is given.
const DefaultCatalogName = "site_structure.toml"

type Options struct {
	Journal *Journal
	Logger  *slog.Logger

	// AfterSave runs after a batch is written. Errors are logged, not returned.
	AfterSave func(ctx context.Context, path string, b model.Batch) error
}

// Store is one catalog file. Saves are serialized.
type Store struct {
	Path   string
	Format Format

	mu        sync.Mutex
	journal   *Journal
	logger    *slog.Logger
	afterSave func(ctx context.Context, path string, b model.Batch) error
}

func New(path string, opts Options) (*Store, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, errors.New("store: catalog path is empty")
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}
	f, err := FormatFor(abs)
	if err != nil {
		return nil, err
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Store{
		Path:      abs,
		Format:    f,
		journal:   opts.Journal,
		logger:    logger,
		afterSave: opts.AfterSave,
	}, nil
}

func (s *Store) Load(ctx context.Context) (model.Catalog, error) {
	if err := ctx.Err(); err != nil {
		return model.Catalog{}, err
	}
	b, err := os.ReadFile(s.Path)
	if err != nil {
		return model.Catalog{}, fmt.Errorf("reading catalog: %w", err)
	}
	return Decode(s.Format, b)
}

// Write replaces the catalog file atomically, keeping the previous version
// next to it as <name>.bak.
func (s *Store) Write(ctx context.Context, cat model.Catalog) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.writeLocked(ctx, cat)
}

func (s *Store) writeLocked(ctx context.Context, cat model.Catalog) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	b, err := Encode(s.Format, cat)
	if err != nil {
		return fmt.Errorf("encoding catalog: %w", err)
	}
	dir := filepath.Dir(s.Path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	base := filepath.Base(s.Path)
	if prev, err := os.ReadFile(s.Path); err == nil && len(prev) > 0 {
		_ = atomicWriteFile(dir, base+".bak.*.tmp", s.Path+".bak", prev, 0o644)
	}
	return atomicWriteFile(dir, base+".*.tmp", s.Path, b, 0o644)
}

// Save applies a batch to the catalog file. It is the editor's persister.
func (s *Store) Save(ctx context.Context, b model.Batch) error {
	start := time.Now()
	err := s.save(ctx, b)
	if s.journal != nil {
		if jerr := s.journal.Record(context.WithoutCancel(ctx), s.Path, b, err); jerr != nil {
			s.logger.Warn("journal write failed", "batch", b.ID, "error", jerr)
		}
	}
	if err != nil {
		s.logger.Error("save failed", "batch", b.ID, "catalog", s.Path, "error", err)
		return err
	}
	s.logger.Info("catalog saved", "batch", b.ID, "changes", len(b.Changes), "duration_ms", time.Since(start).Milliseconds())
	if s.afterSave != nil {
		if err := s.afterSave(ctx, s.Path, b); err != nil {
			s.logger.Warn("after-save hook failed", "batch", b.ID, "error", err)
		}
	}
	return nil
}

func (s *Store) save(ctx context.Context, b model.Batch) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cat, err := s.Load(ctx)
	if err != nil {
		return err
	}
	next, err := ApplyBatch(cat, b)
	if err != nil {
		return err
	}
	return s.writeLocked(ctx, next)
}

// Discover walks up from dir looking for DefaultCatalogName.
func Discover(dir string) (string, bool) {
	dir, err := filepath.Abs(dir)
	if err != nil {
		return "", false
	}
	for {
		p := filepath.Join(dir, DefaultCatalogName)
		if st, err := os.Stat(p); err == nil && !st.IsDir() {
			return p, true
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", false
		}
		dir = parent
	}
}
