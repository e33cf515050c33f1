package web

import (
	"strings"
	"testing"

	"github.com/gorilla/websocket"
)

func dialWS(t *testing.T, e *testEnv) *websocket.Conn {
	t.Helper()
	u := "ws" + strings.TrimPrefix(e.ts.URL, "http") + "/session/ws"
	conn, resp, err := websocket.DefaultDialer.Dial(u, cookieHeader(t, e))
	if err != nil {
		status := 0
		if resp != nil {
			status = resp.StatusCode
		}
		t.Fatalf("dial %s: %v (status %d)", u, err, status)
	}
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func send(t *testing.T, conn *websocket.Conn, cmd wsCommand) wsReply {
	t.Helper()
	if err := conn.WriteJSON(cmd); err != nil {
		t.Fatalf("write %s: %v", cmd.Op, err)
	}
	var reply wsReply
	if err := conn.ReadJSON(&reply); err != nil {
		t.Fatalf("read %s: %v", cmd.Op, err)
	}
	return reply
}

func TestWS_AddOfferingThenRevert(t *testing.T) {
	e := newTestEnv(t)
	m1 := e.openPage()[0]
	conn := dialWS(t, e)

	r := send(t, conn, wsCommand{Op: "open", Ref: m1})
	if !r.OK || r.State.Open != m1 || len(r.State.Actions) != 2 {
		t.Fatalf("open: %+v", r)
	}

	r = send(t, conn, wsCommand{Op: "add-offering"})
	if !r.OK || r.Ref == "" || r.State.Open != r.Ref {
		t.Fatalf("add-offering: %+v", r)
	}
	newRef := r.Ref
	var sawNew bool
	for _, l := range r.State.Ledger {
		if l.Ref == newRef && l.IsNew && l.Type == "offering" {
			sawNew = true
		}
	}
	if !sawNew {
		t.Fatalf("expected provisional offering in ledger: %+v", r.State.Ledger)
	}
	if r.State.Surface[0].Name != "menu" || r.State.Surface[0].Value != "M1" {
		t.Fatalf("expected menu prefilled on the new offering: %+v", r.State.Surface)
	}

	r = send(t, conn, wsCommand{Op: "revert"})
	if r.OK {
		t.Fatalf("revert with an open session should fail: %+v", r)
	}

	send(t, conn, wsCommand{Op: "toolbar"})
	r = send(t, conn, wsCommand{Op: "revert"})
	if !r.OK || len(r.State.Ledger) != 0 || r.State.ReviewVisible {
		t.Fatalf("revert: %+v", r)
	}

	r = send(t, conn, wsCommand{Op: "open", Ref: newRef})
	if r.OK {
		t.Fatalf("reverted offering should be gone: %+v", r)
	}
}

func TestWS_FieldsAndUnknownOp(t *testing.T) {
	e := newTestEnv(t)
	m1 := e.openPage()[0]
	conn := dialWS(t, e)

	send(t, conn, wsCommand{Op: "open", Ref: m1})
	r := send(t, conn, wsCommand{Op: "home", Fields: map[string]string{"text": "Plumbing Services"}})
	if !r.OK || r.State.Token != "home" || len(r.State.Ledger) != 1 {
		t.Fatalf("home: %+v", r)
	}
	if r.State.Ledger[0].Display != "M1: Plumbing Services" {
		t.Fatalf("unexpected display: %q", r.State.Ledger[0].Display)
	}

	r = send(t, conn, wsCommand{Op: "input", Fields: map[string]string{"colour": "red"}})
	if r.OK || !strings.Contains(r.Error, "unknown field") {
		t.Fatalf("expected unknown field error: %+v", r)
	}

	r = send(t, conn, wsCommand{Op: "dance"})
	if r.OK || !strings.Contains(r.Error, "unknown op") {
		t.Fatalf("expected unknown op error: %+v", r)
	}
}
