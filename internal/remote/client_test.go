// ABOUTME: Tests the remote client against the real server handler
// ABOUTME: Covers the hello exchange, commands and pushed status
package remote

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/loopdeck/loopdeck-go/internal/engine"
)

func TestClientRoundTrip(t *testing.T) {
	t.Parallel()

	p := &fakePlayer{snap: engine.Snapshot{State: "paused", Source: "clip.wav", Speed: 1}}
	s := NewServer(Config{Name: "deck"}, p)

	ts := httptest.NewServer(http.HandlerFunc(s.handleWebSocket))
	defer ts.Close()

	addr := strings.TrimPrefix(ts.URL, "http://")
	c, err := Dial(addr)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer c.Close()

	if c.Hello().Name != "deck" {
		t.Errorf("hello name = %q, want deck", c.Hello().Name)
	}

	pos := 0.25
	if err := c.Send(Command{Command: CmdSeek, Pos: &pos}); err != nil {
		t.Fatalf("send: %v", err)
	}

	select {
	case snap := <-c.Status:
		if snap.Source != "clip.wav" {
			t.Errorf("status source = %q", snap.Source)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("no status reply")
	}

	if len(p.seeks) != 1 || p.seeks[0] != 0.25 {
		t.Errorf("seeks = %v, want [0.25]", p.seeks)
	}
}

func TestClientSurfacesCommandErrors(t *testing.T) {
	t.Parallel()

	s := NewServer(Config{Name: "deck"}, &fakePlayer{})
	ts := httptest.NewServer(http.HandlerFunc(s.handleWebSocket))
	defer ts.Close()

	c, err := Dial(strings.TrimPrefix(ts.URL, "http://"))
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer c.Close()

	if err := c.Send(Command{Command: "explode"}); err != nil {
		t.Fatalf("send: %v", err)
	}

	select {
	case e := <-c.Errors:
		if e.Error != "command_failed" {
			t.Errorf("error code = %q", e.Error)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("no error reply")
	}
}
