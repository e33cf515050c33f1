package web

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"handyman/internal/editor"
	"handyman/internal/tree"

	"github.com/google/uuid"
	"github.com/starfederation/datastar-go/datastar"
)

func newBatchID() string { return uuid.NewString() }

// actionSignals is what the page posts with every action: the live values
// of the open surface's inputs.
type actionSignals struct {
	Fields map[string]any `json:"fields"`
}

// syncInputs copies browser input values into the open surface. Names the
// surface does not have are ignored.
func syncInputs(ed *editor.Session, fields map[string]any) {
	if len(fields) == 0 {
		return
	}
	v := ed.State()
	if v.Surface == nil {
		return
	}
	for _, in := range v.Surface.Inputs {
		raw, ok := fields[in.Name]
		if !ok || raw == nil {
			continue
		}
		_ = ed.SetInput(in.Name, fmt.Sprint(raw))
	}
}

func statusFor(err error) int {
	var nf editor.NotFoundError
	switch {
	case errors.As(err, &nf):
		return http.StatusNotFound
	case errors.Is(err, editor.ErrNoSession),
		errors.Is(err, editor.ErrSessionOpen),
		errors.Is(err, editor.ErrSaveInFlight):
		return http.StatusConflict
	case errors.Is(err, editor.ErrNotMenu),
		errors.Is(err, editor.ErrUnknownField):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// action runs one state transition for the requesting page and answers with
// datastar patches for the catalog, the toolbar and the surface.
func (s *Server) action(w http.ResponseWriter, r *http.Request, name string, fn func(ed *editor.Session) error) {
	ps, ok := s.sessionFor(r)
	if !ok {
		http.Error(w, "no editor session; reload the page", http.StatusConflict)
		return
	}
	var sig actionSignals
	if err := datastar.ReadSignals(r, &sig); err != nil {
		s.logger.Debug("ignoring unreadable signals", "action", name, "error", err)
	}
	syncInputs(ps.ed, sig.Fields)

	err := fn(ps.ed)
	var saveErr editor.SaveError
	if err != nil && !errors.As(err, &saveErr) {
		http.Error(w, err.Error(), statusFor(err))
		return
	}

	sse := datastar.NewSSE(w, r)
	if perr := s.patchPage(sse, ps.ed); perr != nil {
		_ = sse.ExecuteScript(fmt.Sprintf(`console.error(%q)`, perr.Error()))
		return
	}
	if err != nil {
		// The ledger is kept; tell the operator their edits are still pending.
		_ = sse.ExecuteScript(fmt.Sprintf(`alert(%q)`, "Save failed, your changes are still pending: "+saveErr.Err.Error()))
	}
}

func (s *Server) patchPage(sse *datastar.ServerSentEventGenerator, ed *editor.Session) error {
	var (
		vm  pageVM
		sig map[string]any
	)
	names := allFieldNames(s)
	ed.Read(func(t *tree.Tree, v editor.View) {
		vm = buildPage(t, v)
		sig = fieldSignals(v, names)
	})
	for _, part := range []struct{ tmpl, selector string }{
		{"catalog", "#catalog"},
		{"toolbar", "#toolbar"},
		{"surface", "#surface"},
	} {
		html, err := s.renderTemplate(part.tmpl, vm)
		if err != nil {
			return err
		}
		if err := sse.PatchElements(html, datastar.WithSelector(part.selector), datastar.WithMode(datastar.ElementPatchModeOuter)); err != nil {
			return err
		}
	}
	return sse.MarshalAndPatchSignals(map[string]any{"fields": sig})
}

func (s *Server) handleHome(w http.ResponseWriter, r *http.Request) {
	if old, ok := s.sessionFor(r); ok {
		s.sessions.drop(old.id)
	}
	ed, err := s.newEditorSession(r.Context())
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	ps := s.sessions.put(ed)
	setSessionCookie(w, ps.id)

	var vm pageVM
	var sig map[string]any
	names := allFieldNames(s)
	ed.Read(func(t *tree.Tree, v editor.View) {
		vm = buildPage(t, v)
		sig = fieldSignals(v, names)
	})
	b, err := jsonAttr(map[string]any{"fields": sig})
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	vm.Signals = b
	s.writeHTMLTemplate(w, "page.html", vm)
}

func (s *Server) handleOpen(w http.ResponseWriter, r *http.Request) {
	ref := strings.TrimSpace(r.PathValue("ref"))
	s.action(w, r, "open", func(ed *editor.Session) error {
		return ed.Open(ref, nil)
	})
}

// handleInput only syncs the surface; it backs data-on:change on inputs.
func (s *Server) handleInput(w http.ResponseWriter, r *http.Request) {
	s.action(w, r, "input", func(*editor.Session) error { return nil })
}

func (s *Server) handleDropHome(w http.ResponseWriter, r *http.Request) {
	s.action(w, r, "home", func(ed *editor.Session) error { return ed.DropOnHome() })
}

func (s *Server) handleDropToolbar(w http.ResponseWriter, r *http.Request) {
	s.action(w, r, "toolbar", func(ed *editor.Session) error { return ed.DropOnToolbar() })
}

func (s *Server) handleDropSurface(w http.ResponseWriter, r *http.Request) {
	s.action(w, r, "surface", func(ed *editor.Session) error { return ed.DropOnSurface() })
}

func (s *Server) handleAddOffering(w http.ResponseWriter, r *http.Request) {
	s.action(w, r, "add-offering", func(ed *editor.Session) error {
		_, err := ed.AddOffering()
		return err
	})
}

func (s *Server) handleAddSubmenu(w http.ResponseWriter, r *http.Request) {
	s.action(w, r, "add-submenu", func(ed *editor.Session) error {
		_, err := ed.AddSubmenu()
		return err
	})
}

func (s *Server) handleSaveAll(w http.ResponseWriter, r *http.Request) {
	s.action(w, r, "save", func(ed *editor.Session) error { return ed.SaveAll(r.Context()) })
}

func (s *Server) handleRevertAll(w http.ResponseWriter, r *http.Request) {
	s.action(w, r, "revert", func(ed *editor.Session) error { return ed.RevertAll() })
}

func (s *Server) handleSessionState(w http.ResponseWriter, r *http.Request) {
	ps, ok := s.sessionFor(r)
	if !ok {
		http.Error(w, "no editor session; reload the page", http.StatusConflict)
		return
	}
	writeJSON(w, http.StatusOK, stateJSON(ps.ed.State()))
}

// handleEvents streams a notice to every open page when any page saves.
func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	sse := datastar.NewSSE(w, r)
	_ = sse.MarshalAndPatchSignals(map[string]any{"catalogVersion": s.hub.currentVersion()})

	ch, cancel := s.hub.subscribe()
	defer cancel()

	keepAlive := time.NewTicker(25 * time.Second)
	defer keepAlive.Stop()

	for {
		select {
		case <-sse.Context().Done():
			return
		case <-keepAlive.C:
			_ = sse.PatchSignals([]byte(`{}`))
		case <-ch:
			version := s.hub.currentVersion()
			html, err := s.renderTemplate("notice", map[string]any{"Version": version, "At": time.Now().Format("15:04:05")})
			if err != nil {
				_ = sse.ExecuteScript(fmt.Sprintf(`console.error(%q)`, err.Error()))
				continue
			}
			_ = sse.PatchElements(html, datastar.WithSelector("#notice"), datastar.WithMode(datastar.ElementPatchModeOuter))
			_ = sse.MarshalAndPatchSignals(map[string]any{"catalogVersion": version})
		}
	}
}
