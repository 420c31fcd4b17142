// ABOUTME: Tests for remote command dispatch and the websocket round trip
// ABOUTME: Uses httptest with a real websocket dialer against a fake player
package remote

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/loopdeck/loopdeck-go/internal/engine"
)

type fakePlayer struct {
	plays   int
	pauses  int
	seeks   []float64
	loops   []bool
	trims   [][2]float64
	speeds  []float64
	volumes []float64
	opens   []string
	snap    engine.Snapshot
}

func (f *fakePlayer) Play()                      { f.plays++ }
func (f *fakePlayer) Pause()                     { f.pauses++ }
func (f *fakePlayer) Seek(pos float64)           { f.seeks = append(f.seeks, pos) }
func (f *fakePlayer) SetLoop(enabled bool)       { f.loops = append(f.loops, enabled) }
func (f *fakePlayer) SetSpeed(ratio float64)     { f.speeds = append(f.speeds, ratio) }
func (f *fakePlayer) SetVolume(v float64)        { f.volumes = append(f.volumes, v) }
func (f *fakePlayer) OpenPath(path string) error { f.opens = append(f.opens, path); return nil }
func (f *fakePlayer) Snapshot() engine.Snapshot  { return f.snap }

func (f *fakePlayer) SetTrim(start, end float64) {
	f.trims = append(f.trims, [2]float64{start, end})
}

func fl(v float64) *float64 { return &v }

func TestApplyDispatch(t *testing.T) {
	t.Parallel()

	p := &fakePlayer{}
	s := NewServer(Config{Name: "test"}, p)

	yes := true
	cmds := []Command{
		{Command: CmdPlay},
		{Command: CmdPause},
		{Command: CmdSeek, Pos: fl(0.5)},
		{Command: CmdLoop, Enabled: &yes},
		{Command: CmdTrim, Start: fl(0.1), End: fl(0.9)},
		{Command: CmdSpeed, Ratio: fl(2)},
		{Command: CmdVolume, Volume: fl(0.5)},
		{Command: CmdOpen, Path: "clip.flac"},
		{Command: CmdStatus},
	}
	for _, cmd := range cmds {
		if err := s.apply(cmd); err != nil {
			t.Fatalf("apply %s: %v", cmd.Command, err)
		}
	}

	if p.plays != 1 || p.pauses != 1 {
		t.Errorf("plays/pauses = %d/%d, want 1/1", p.plays, p.pauses)
	}
	if len(p.seeks) != 1 || p.seeks[0] != 0.5 {
		t.Errorf("seeks = %v", p.seeks)
	}
	if len(p.loops) != 1 || !p.loops[0] {
		t.Errorf("loops = %v", p.loops)
	}
	if len(p.trims) != 1 || p.trims[0] != [2]float64{0.1, 0.9} {
		t.Errorf("trims = %v", p.trims)
	}
	if len(p.speeds) != 1 || p.speeds[0] != 2 {
		t.Errorf("speeds = %v", p.speeds)
	}
	if len(p.volumes) != 1 || p.volumes[0] != 0.5 {
		t.Errorf("volumes = %v", p.volumes)
	}
	if len(p.opens) != 1 || p.opens[0] != "clip.flac" {
		t.Errorf("opens = %v", p.opens)
	}
}

func TestApplyRejectsMissingFields(t *testing.T) {
	t.Parallel()

	s := NewServer(Config{}, &fakePlayer{})

	bad := []Command{
		{Command: CmdSeek},
		{Command: CmdLoop},
		{Command: CmdTrim, Start: fl(0)},
		{Command: CmdSpeed},
		{Command: CmdVolume},
		{Command: CmdOpen},
		{Command: "selfdestruct"},
	}
	for _, cmd := range bad {
		if err := s.apply(cmd); err == nil {
			t.Errorf("apply %+v: expected error", cmd)
		}
	}
}

func readMessage(t *testing.T, conn *websocket.Conn) Message {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, data, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	var msg Message
	if err := json.Unmarshal(data, &msg); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	return msg
}

func sendCommand(t *testing.T, conn *websocket.Conn, cmd Command) {
	t.Helper()
	raw, err := json.Marshal(cmd)
	if err != nil {
		t.Fatal(err)
	}
	data, err := json.Marshal(Message{Type: TypeCommand, Payload: raw})
	if err != nil {
		t.Fatal(err)
	}
	if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
		t.Fatalf("write: %v", err)
	}
}

func TestWebSocketRoundTrip(t *testing.T) {
	t.Parallel()

	p := &fakePlayer{snap: engine.Snapshot{State: "paused", Source: "clip.wav"}}
	s := NewServer(Config{Name: "deck"}, p)

	ts := httptest.NewServer(http.HandlerFunc(s.handleWebSocket))
	defer ts.Close()

	url := "ws" + strings.TrimPrefix(ts.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	msg := readMessage(t, conn)
	if msg.Type != TypeHello {
		t.Fatalf("first message type = %s, want hello", msg.Type)
	}
	var hello Hello
	if err := json.Unmarshal(msg.Payload, &hello); err != nil {
		t.Fatal(err)
	}
	if hello.Name != "deck" || hello.Version != ProtocolVersion {
		t.Errorf("hello = %+v", hello)
	}

	sendCommand(t, conn, Command{Command: CmdPlay})

	msg = readMessage(t, conn)
	if msg.Type != TypeStatus {
		t.Fatalf("reply type = %s, want status", msg.Type)
	}
	var snap engine.Snapshot
	if err := json.Unmarshal(msg.Payload, &snap); err != nil {
		t.Fatal(err)
	}
	if snap.Source != "clip.wav" {
		t.Errorf("status source = %q", snap.Source)
	}
	if p.plays != 1 {
		t.Errorf("plays = %d, want 1", p.plays)
	}
}

func TestWebSocketRejectsMalformed(t *testing.T) {
	t.Parallel()

	s := NewServer(Config{Name: "deck"}, &fakePlayer{})
	ts := httptest.NewServer(http.HandlerFunc(s.handleWebSocket))
	defer ts.Close()

	url := "ws" + strings.TrimPrefix(ts.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	readMessage(t, conn) // hello

	if err := conn.WriteMessage(websocket.TextMessage, []byte("{not json")); err != nil {
		t.Fatal(err)
	}
	msg := readMessage(t, conn)
	if msg.Type != TypeError {
		t.Fatalf("reply type = %s, want error", msg.Type)
	}
}
