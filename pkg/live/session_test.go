package live

import (
	"context"
	"encoding/base64"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"EchoAI/pkg/audio"

	"github.com/gorilla/websocket"
)

var testUpgrader = websocket.Upgrader{}

// fakeEndpoint runs handler as a websocket server and returns its ws:// URL.
func fakeEndpoint(t *testing.T, handler func(conn *websocket.Conn)) string {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := testUpgrader.Upgrade(w, r, nil)
		if err != nil {
			t.Errorf("upgrade failed: %v", err)
			return
		}
		defer conn.Close()
		handler(conn)
	}))
	t.Cleanup(srv.Close)
	return "ws" + strings.TrimPrefix(srv.URL, "http")
}

// ackSetup reads the setup frame and answers with a setup acknowledgment.
func ackSetup(t *testing.T, conn *websocket.Conn) setupFrame {
	t.Helper()
	var frame setupFrame
	if err := conn.ReadJSON(&frame); err != nil {
		t.Errorf("read setup: %v", err)
	}
	if err := conn.WriteJSON(map[string]any{"setupComplete": map[string]any{}}); err != nil {
		t.Errorf("write ack: %v", err)
	}
	return frame
}

func testConfig(endpoint string) Config {
	return Config{
		APIKey:         "test-key",
		Model:          "test-live-model",
		Voice:          "Charon",
		Endpoint:       endpoint,
		SetupTimeout:   500 * time.Millisecond,
		ReceiveTimeout: 500 * time.Millisecond,
	}
}

func TestSessionFullCycle(t *testing.T) {
	chunk1 := []byte{1, 1, 1, 1}
	chunk2 := []byte{2, 2, 2, 2}

	endpoint := fakeEndpoint(t, func(conn *websocket.Conn) {
		setup := ackSetup(t, conn)
		if setup.Setup.Model != "models/test-live-model" {
			t.Errorf("unexpected model in setup: %q", setup.Setup.Model)
		}

		var cc clientContentFrame
		if err := conn.ReadJSON(&cc); err != nil {
			t.Errorf("read client content: %v", err)
			return
		}
		if !cc.ClientContent.TurnComplete {
			t.Errorf("expected terminated client message")
		}
		if len(cc.ClientContent.Turns) != 1 {
			t.Errorf("expected 1 turn, got %d", len(cc.ClientContent.Turns))
		}

		// two fragments, then the completion marker
		conn.WriteJSON(map[string]any{"serverContent": map[string]any{
			"modelTurn": map[string]any{"parts": []map[string]any{
				{"text": "Hello "},
				{"inlineData": map[string]any{"mimeType": "audio/pcm", "data": base64.StdEncoding.EncodeToString(chunk1)}},
			}},
		}})
		conn.WriteJSON(map[string]any{"serverContent": map[string]any{
			"modelTurn": map[string]any{"parts": []map[string]any{
				{"text": "there"},
				{"inlineData": map[string]any{"mimeType": "audio/pcm", "data": base64.StdEncoding.EncodeToString(chunk2)}},
			}},
			"turnComplete": true,
		}})
	})

	s, err := Dial(context.Background(), testConfig(endpoint))
	if err != nil {
		t.Fatalf("dial failed: %v", err)
	}
	defer s.Close()

	turns := []Turn{{Role: "user", Parts: []TurnPart{{Text: "hi"}}}}
	if err := s.Send(turns); err != nil {
		t.Fatalf("send failed: %v", err)
	}
	res := s.Collect()
	if s.State() != StateComplete {
		t.Fatalf("expected complete state, got %s", s.State())
	}
	if res.Text != "Hello there" {
		t.Fatalf("unexpected text: %q", res.Text)
	}
	if len(res.AudioChunks) != 2 {
		t.Fatalf("expected 2 audio chunks, got %d", len(res.AudioChunks))
	}

	text, wav := Package(res)
	if text != "Hello there" {
		t.Fatalf("unexpected packaged text: %q", text)
	}
	f, pcm, err := audio.ParseWAV(wav)
	if err != nil {
		t.Fatalf("packaged audio is not a WAV: %v", err)
	}
	if f != audio.DefaultFormat() {
		t.Fatalf("unexpected output format: %+v", f)
	}
	// 300ms pad + both chunks, in order
	wantLen := 14400 + len(chunk1) + len(chunk2)
	if len(pcm) != wantLen {
		t.Fatalf("expected %d payload bytes, got %d", wantLen, len(pcm))
	}
	if pcm[14400] != 1 || pcm[14400+len(chunk1)] != 2 {
		t.Fatalf("chunks out of order in payload")
	}
}

func TestSessionEmptyTurn(t *testing.T) {
	endpoint := fakeEndpoint(t, func(conn *websocket.Conn) {
		ackSetup(t, conn)
		var cc clientContentFrame
		if err := conn.ReadJSON(&cc); err != nil {
			return
		}
		// completion with no fragments at all
		conn.WriteJSON(map[string]any{"serverContent": map[string]any{"turnComplete": true}})
	})

	s, err := Dial(context.Background(), testConfig(endpoint))
	if err != nil {
		t.Fatalf("dial failed: %v", err)
	}
	defer s.Close()

	if err := s.Send([]Turn{{Role: "user", Parts: []TurnPart{{Text: "hi"}}}}); err != nil {
		t.Fatalf("send failed: %v", err)
	}
	res := s.Collect()
	if res.Text != "" || len(res.AudioChunks) != 0 {
		t.Fatalf("expected empty result, got %+v", res)
	}

	// a zero-fragment turn still packages as a valid pad-only WAV
	text, wav := Package(res)
	if text != "" {
		t.Fatalf("expected empty text, got %q", text)
	}
	_, pcm, err := audio.ParseWAV(wav)
	if err != nil {
		t.Fatalf("packaged audio is not a WAV: %v", err)
	}
	if len(pcm) != 14400 {
		t.Fatalf("expected pad-only payload, got %d bytes", len(pcm))
	}
}

func TestSessionSetupTimeout(t *testing.T) {
	endpoint := fakeEndpoint(t, func(conn *websocket.Conn) {
		// swallow the setup frame and never acknowledge
		var frame setupFrame
		_ = conn.ReadJSON(&frame)
		time.Sleep(time.Second)
	})

	cfg := testConfig(endpoint)
	cfg.SetupTimeout = 100 * time.Millisecond
	_, err := Dial(context.Background(), cfg)
	if err != ErrSetupTimeout {
		t.Fatalf("expected ErrSetupTimeout, got %v", err)
	}
}

func TestSessionSetupRejected(t *testing.T) {
	endpoint := fakeEndpoint(t, func(conn *websocket.Conn) {
		var frame setupFrame
		_ = conn.ReadJSON(&frame)
		// a setup-phase frame that is not an acknowledgment is fatal
		conn.WriteJSON(map[string]any{"serverContent": map[string]any{"turnComplete": true}})
	})

	_, err := Dial(context.Background(), testConfig(endpoint))
	if err != ErrSetupRejected {
		t.Fatalf("expected ErrSetupRejected, got %v", err)
	}
}

func TestSessionReceiveTimeoutKeepsPartial(t *testing.T) {
	endpoint := fakeEndpoint(t, func(conn *websocket.Conn) {
		ackSetup(t, conn)
		var cc clientContentFrame
		if err := conn.ReadJSON(&cc); err != nil {
			return
		}
		// one fragment, then silence; no completion marker ever arrives
		conn.WriteJSON(map[string]any{"serverContent": map[string]any{
			"modelTurn": map[string]any{"parts": []map[string]any{{"text": "partial"}}},
		}})
		time.Sleep(time.Second)
	})

	cfg := testConfig(endpoint)
	cfg.ReceiveTimeout = 150 * time.Millisecond
	s, err := Dial(context.Background(), cfg)
	if err != nil {
		t.Fatalf("dial failed: %v", err)
	}
	defer s.Close()

	if err := s.Send([]Turn{{Role: "user", Parts: []TurnPart{{Text: "hi"}}}}); err != nil {
		t.Fatalf("send failed: %v", err)
	}
	res := s.Collect()
	if res.Text != "partial" {
		t.Fatalf("expected partial text to survive the timeout, got %q", res.Text)
	}
	if s.State() != StateComplete {
		t.Fatalf("expected complete state after timeout, got %s", s.State())
	}
}

func TestSessionTransportFaultKeepsPartial(t *testing.T) {
	endpoint := fakeEndpoint(t, func(conn *websocket.Conn) {
		ackSetup(t, conn)
		var cc clientContentFrame
		if err := conn.ReadJSON(&cc); err != nil {
			return
		}
		conn.WriteJSON(map[string]any{"serverContent": map[string]any{
			"modelTurn": map[string]any{"parts": []map[string]any{{"text": "partial"}}},
		}})
		// returning drops the connection mid-turn without a close handshake
	})

	s, err := Dial(context.Background(), testConfig(endpoint))
	if err != nil {
		t.Fatalf("dial failed: %v", err)
	}
	defer s.Close()

	if err := s.Send([]Turn{{Role: "user", Parts: []TurnPart{{Text: "hi"}}}}); err != nil {
		t.Fatalf("send failed: %v", err)
	}
	res := s.Collect()
	if res.Text != "partial" {
		t.Fatalf("expected partial text to survive the fault, got %q", res.Text)
	}
	if s.State() != StateFailed {
		t.Fatalf("expected failed state after transport fault, got %s", s.State())
	}
}

func TestCleanText(t *testing.T) {
	cases := []struct {
		in, want string
	}{
		{"plain answer", "plain answer"},
		{"**thinking** the answer", "the answer"},
		{"a **b** c **d** e", "a  c  e"},
		{"**only markup**", "**only markup**"},
		{"  padded  ", "padded"},
	}
	for _, tc := range cases {
		if got := CleanText(tc.in); got != tc.want {
			t.Fatalf("CleanText(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}
