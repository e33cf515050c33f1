package cli

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/exec"
	"os/signal"
	"path/filepath"
	"runtime"
	"strings"
	"syscall"
	"time"

	"handyman/internal/gitrepo"
	"handyman/internal/store"
	"handyman/internal/tree"
	"handyman/internal/web"

	"github.com/spf13/cobra"
)

const defaultAddr = "127.0.0.1:8080"

func newServeCmd(app *App) *cobra.Command {
	var addr string
	var open bool
	var readOnly bool
	var journal string
	var noJournal bool
	var maxSessions int

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the in-place catalog editor",
		Long: strings.TrimSpace(`
Serve the catalog as an editable page. Drag the handyman onto a card to edit
it, drop it on the toolbar to close the editor, and use Save / Revert to
write or discard every pending change at once.

Each save is recorded in a SQLite journal (see ` + "`handyman history`" + `). When
auto-commit is enabled (config autoCommit or HANDYMAN_AUTOCOMMIT=1) the
catalog file is committed to git shortly after each save.
`),
		Example: strings.TrimSpace(`
handyman serve --addr 127.0.0.1:8080 --open
handyman --catalog ./site/site.yaml serve --read-only
`),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			listenAddr := strings.TrimSpace(addr)
			if !cmd.Flags().Changed("addr") && app.cfg != nil && strings.TrimSpace(app.cfg.Addr) != "" {
				listenAddr = strings.TrimSpace(app.cfg.Addr)
			}
			if listenAddr == "" {
				return writeErr(cmd, errors.New("serve: missing --addr"))
			}

			path, err := resolveCatalog(app)
			if err != nil {
				return writeErr(cmd, err)
			}
			schemas, err := loadSchemas(app)
			if err != nil {
				return writeErr(cmd, err)
			}

			opts := store.Options{Logger: app.logger}
			journalFile := ""
			if !noJournal {
				journalFile, err = journalPath(app, journal)
				if err != nil {
					return writeErr(cmd, err)
				}
				if err := os.MkdirAll(filepath.Dir(journalFile), 0o755); err != nil {
					return writeErr(cmd, err)
				}
				j, err := store.OpenJournal(ctx, journalFile)
				if err != nil {
					return writeErr(cmd, fmt.Errorf("opening journal: %w", err))
				}
				defer j.Close()
				opts.Journal = j
			}

			autoCommit := gitrepo.AutoCommitEnabled(app.cfg != nil && app.cfg.AutoCommit)
			if autoCommit && !readOnly {
				abs, err := filepath.Abs(path)
				if err != nil {
					return writeErr(cmd, err)
				}
				committer := gitrepo.NewDebouncedCommitter(gitrepo.DebouncedCommitterOpts{
					Dir:      filepath.Dir(abs),
					Paths:    []string{abs},
					AutoPush: gitrepo.AutoPushEnabled(),
					Logger:   app.logger,
				})
				defer committer.Flush()
				opts.AfterSave = committer.AfterSave
			}

			st, err := store.New(path, opts)
			if err != nil {
				return writeErr(cmd, err)
			}
			// Refuse to start on a catalog the editor could not load.
			cat, err := st.Load(ctx)
			if err != nil {
				return writeErr(cmd, err)
			}
			if _, err := tree.Build(cat, schemas); err != nil {
				return writeErr(cmd, err)
			}

			srv, err := web.NewServer(web.ServerConfig{
				Addr:        listenAddr,
				Store:       st,
				Schemas:     schemas,
				Logger:      app.logger,
				ReadOnly:    readOnly,
				MaxSessions: maxSessions,
			})
			if err != nil {
				return writeErr(cmd, err)
			}

			ln, err := net.Listen("tcp", listenAddr)
			if err != nil {
				return writeErr(cmd, err)
			}

			actualAddr := ln.Addr().String()
			url := "http://" + actualAddr + "/"

			opened := false
			openErr := ""
			if open {
				if err := openURL(url); err != nil {
					openErr = err.Error()
				} else {
					opened = true
				}
			}

			hints := []string{}
			if !opened {
				hints = append(hints, "open "+url)
			}
			_ = writeOut(cmd, app, map[string]any{
				"data": map[string]any{
					"addr":       actualAddr,
					"url":        url,
					"catalog":    st.Path,
					"journal":    journalFile,
					"readOnly":   readOnly,
					"autoCommit": autoCommit && !readOnly,
					"opened":     opened,
					"openError":  openErr,
					"startedAt":  time.Now().UTC().Format(time.RFC3339Nano),
				},
				"_hints": hints,
			})
			app.logger.Info("handyman serving", "url", url, "catalog", st.Path)

			httpSrv := &http.Server{Handler: srv.Handler(), ReadHeaderTimeout: 10 * time.Second}
			go func() {
				<-ctx.Done()
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				_ = httpSrv.Shutdown(shutdownCtx)
			}()
			if err := httpSrv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return writeErr(cmd, err)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&addr, "addr", envOr("HANDYMAN_ADDR", defaultAddr), "Bind address (host:port or :port)")
	cmd.Flags().BoolVar(&open, "open", false, "Open the editor in your default browser")
	cmd.Flags().BoolVar(&readOnly, "read-only", false, "Serve the catalog but reject saves")
	cmd.Flags().StringVar(&journal, "journal", "", "Save journal (SQLite) path (default: config journal, then ~/.handyman/journal.sqlite)")
	cmd.Flags().BoolVar(&noJournal, "no-journal", false, "Do not record saves in the journal")
	cmd.Flags().IntVar(&maxSessions, "max-sessions", 64, "Maximum live browser sessions")
	return cmd
}

func openURL(url string) error {
	url = strings.TrimSpace(url)
	if url == "" {
		return errors.New("empty url")
	}
	switch runtime.GOOS {
	case "darwin":
		return exec.Command("open", url).Run()
	case "windows":
		return exec.Command("cmd", "/c", "start", "", url).Run()
	default:
		return exec.Command("xdg-open", url).Run()
	}
}
