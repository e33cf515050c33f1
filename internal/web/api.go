package web

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"handyman/internal/model"
	"handyman/internal/schema"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	_ = enc.Encode(v)
}

// handleLoad serves the catalog as {"menus": [...], "offerings": [...]}.
func (s *Server) handleLoad(w http.ResponseWriter, r *http.Request) {
	cat, err := s.store.Load(r.Context())
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, cat)
}

// handleSave applies {"changes": [...]} to the catalog file.
func (s *Server) handleSave(w http.ResponseWriter, r *http.Request) {
	if s.cfg.ReadOnly {
		http.Error(w, errReadOnly.Error(), http.StatusForbidden)
		return
	}
	var b model.Batch
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, 4<<20))
	if err := dec.Decode(&b); err != nil {
		http.Error(w, "invalid batch: "+err.Error(), http.StatusBadRequest)
		return
	}
	if strings.TrimSpace(b.ID) == "" {
		b.ID = newBatchID()
	}
	if err := s.store.Save(r.Context(), b); err != nil {
		http.Error(w, err.Error(), http.StatusUnprocessableEntity)
		return
	}
	s.hub.broadcast()
	writeJSON(w, http.StatusOK, map[string]any{"status": "ok", "batch": b.ID, "changes": len(b.Changes)})
}

// handleSchema serves the schema document for one node type.
func (s *Server) handleSchema(w http.ResponseWriter, r *http.Request) {
	name := strings.TrimSuffix(strings.TrimSpace(r.PathValue("type")), ".json")
	t, ok := model.ParseNodeType(name)
	if !ok {
		http.NotFound(w, r)
		return
	}
	sc, err := s.schemas.Schema(t)
	if err != nil {
		if errors.Is(err, schema.ErrUnknownType) {
			http.NotFound(w, r)
			return
		}
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, sc.Document())
}
