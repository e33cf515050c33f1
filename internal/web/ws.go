package web

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"handyman/internal/editor"

	"github.com/gorilla/websocket"
)

var wsUpgrader = websocket.Upgrader{
	ReadBufferSize:  16 * 1024,
	WriteBufferSize: 16 * 1024,
	CheckOrigin: func(r *http.Request) bool {
		origin := strings.TrimSpace(r.Header.Get("Origin"))
		if origin == "" {
			return true
		}
		host := strings.TrimSpace(r.Host)
		return strings.Contains(origin, "://"+host)
	},
}

// wsCommand drives the same transitions as the datastar actions, for
// scripted clients. Fields are applied to the open surface first.
type wsCommand struct {
	Op     string            `json:"op"`
	Ref    string            `json:"ref,omitempty"`
	Fields map[string]string `json:"fields,omitempty"`
}

type wsReply struct {
	OK    bool      `json:"ok"`
	Op    string    `json:"op"`
	Error string    `json:"error,omitempty"`
	Ref   string    `json:"ref,omitempty"`
	State stateView `json:"state"`
}

type stateView struct {
	Token         string       `json:"token"`
	Open          string       `json:"open,omitempty"`
	Surface       []inputView  `json:"surface,omitempty"`
	Actions       []string     `json:"actions,omitempty"`
	Ledger        []ledgerView `json:"ledger"`
	ReviewVisible bool         `json:"reviewVisible"`
	Saving        bool         `json:"saving"`
}

type inputView struct {
	Name     string `json:"name"`
	Value    string `json:"value"`
	Required bool   `json:"required,omitempty"`
	Missing  bool   `json:"missing,omitempty"`
}

type ledgerView struct {
	Ref     string `json:"ref"`
	Type    string `json:"type"`
	IsNew   bool   `json:"isNew"`
	Display string `json:"display"`
}

func stateJSON(v editor.View) stateView {
	out := stateView{
		Token:         string(v.Token),
		Open:          v.Open,
		Ledger:        []ledgerView{},
		ReviewVisible: v.ReviewVisible,
		Saving:        v.Saving,
	}
	missing := map[string]bool{}
	for _, name := range v.Missing {
		missing[name] = true
	}
	if v.Surface != nil {
		for _, in := range v.Surface.Inputs {
			out.Surface = append(out.Surface, inputView{Name: in.Name, Value: in.Value, Required: in.Required, Missing: missing[in.Name]})
		}
		for _, a := range v.Surface.Actions {
			out.Actions = append(out.Actions, string(a))
		}
	}
	for _, e := range v.Ledger {
		out.Ledger = append(out.Ledger, ledgerView{Ref: e.Ref, Type: string(e.Type), IsNew: e.IsNew, Display: e.Display})
	}
	return out
}

func jsonAttr(v any) (string, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	ps, ok := s.sessionFor(r)
	if !ok {
		http.Error(w, "no editor session; reload the page", http.StatusConflict)
		return
	}
	conn, err := wsUpgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade has already answered the client.
		return
	}
	defer conn.Close()

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	for {
		var cmd wsCommand
		if err := conn.ReadJSON(&cmd); err != nil {
			return
		}
		reply := s.runCommand(ctx, ps.ed, cmd)
		_ = conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
		if err := conn.WriteJSON(reply); err != nil {
			return
		}
	}
}

func (s *Server) runCommand(ctx context.Context, ed *editor.Session, cmd wsCommand) wsReply {
	op := strings.ToLower(strings.TrimSpace(cmd.Op))
	for name, value := range cmd.Fields {
		if err := ed.SetInput(name, value); err != nil {
			return wsReply{Op: op, Error: err.Error(), State: stateJSON(ed.State())}
		}
	}

	var (
		err error
		ref string
	)
	switch op {
	case "open":
		err = ed.Open(cmd.Ref, nil)
	case "input":
	case "commit":
		err = ed.Commit()
	case "home":
		err = ed.DropOnHome()
	case "toolbar":
		err = ed.DropOnToolbar()
	case "surface":
		err = ed.DropOnSurface()
	case "add-offering", "add-submenu":
		add := ed.AddOffering
		if op == "add-submenu" {
			add = ed.AddSubmenu
		}
		if n, aerr := add(); aerr != nil {
			err = aerr
		} else {
			ref = n.Ref
		}
	case "save":
		err = ed.SaveAll(ctx)
	case "revert":
		err = ed.RevertAll()
	case "state":
	default:
		return wsReply{Op: op, Error: "unknown op " + cmd.Op, State: stateJSON(ed.State())}
	}
	reply := wsReply{OK: err == nil, Op: op, Ref: ref, State: stateJSON(ed.State())}
	if err != nil {
		reply.Error = err.Error()
	}
	return reply
}
