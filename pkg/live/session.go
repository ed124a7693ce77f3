package live

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"log"
	"net"
	"net/url"
	"regexp"
	"strings"
	"time"

	"EchoAI/pkg/audio"

	"github.com/gorilla/websocket"
)

// State is the session's position in the request/response cycle.
type State int

const (
	StateConnecting State = iota
	StateAwaitingSetupAck
	StateSending
	StateReceiving
	StateComplete
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateConnecting:
		return "connecting"
	case StateAwaitingSetupAck:
		return "awaiting_setup_ack"
	case StateSending:
		return "sending"
	case StateReceiving:
		return "receiving"
	case StateComplete:
		return "complete"
	case StateFailed:
		return "failed"
	}
	return "unknown"
}

const defaultEndpoint = "wss://generativelanguage.googleapis.com/ws/google.ai.generativelanguage.v1beta.GenerativeService.BidiGenerateContent"

// Config drives one session. Endpoint is overridable for tests; empty means
// the production BidiGenerateContent URL.
type Config struct {
	APIKey            string
	Model             string
	Voice             string
	SystemInstruction string
	Endpoint          string
	SetupTimeout      time.Duration
	ReceiveTimeout    time.Duration
}

// Turn is one party's contribution, ordered parts of text and/or inline audio.
type Turn struct {
	Role  string
	Parts []TurnPart
}

// TurnPart carries either text or raw audio bytes with their MIME type.
type TurnPart struct {
	Text      string
	AudioData []byte
	MimeType  string
}

// CollectResult is the raw accumulated model turn before packaging.
type CollectResult struct {
	Text        string
	AudioChunks [][]byte
}

// Session executes exactly one request/response cycle over a fresh connection.
// It is not safe for concurrent use and is not reusable after Close.
type Session struct {
	cfg   Config
	conn  *websocket.Conn
	state State
}

// Dial opens the transport and performs the setup handshake. On success the
// session is ready for one Send/Collect cycle.
func Dial(ctx context.Context, cfg Config) (*Session, error) {
	if cfg.SetupTimeout <= 0 {
		cfg.SetupTimeout = 10 * time.Second
	}
	if cfg.ReceiveTimeout <= 0 {
		cfg.ReceiveTimeout = 15 * time.Second
	}
	endpoint := cfg.Endpoint
	if endpoint == "" {
		endpoint = defaultEndpoint
	}
	u := endpoint + "?key=" + url.QueryEscape(cfg.APIKey)

	s := &Session{cfg: cfg, state: StateConnecting}
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, u, nil)
	if err != nil {
		s.state = StateFailed
		return nil, fmt.Errorf("live: dial: %w", err)
	}
	s.conn = conn

	if err := s.setup(); err != nil {
		conn.Close()
		s.state = StateFailed
		return nil, err
	}
	return s, nil
}

// setup sends the configuration frame and waits for its acknowledgment.
func (s *Session) setup() error {
	frame := setupFrame{Setup: setupBody{
		Model: "models/" + s.cfg.Model,
		GenerationConfig: generationConfig{
			ResponseModalities: []string{"AUDIO"},
			SpeechConfig: &speechConfig{
				VoiceConfig: voiceConfig{
					PrebuiltVoiceConfig: prebuiltVoiceConfig{VoiceName: s.cfg.Voice},
				},
			},
		},
	}}
	if si := strings.TrimSpace(s.cfg.SystemInstruction); si != "" {
		frame.Setup.SystemInstruction = &content{Parts: []part{{Text: si}}}
	}
	if err := s.conn.WriteJSON(frame); err != nil {
		return fmt.Errorf("live: write setup: %w", err)
	}

	s.state = StateAwaitingSetupAck
	_ = s.conn.SetReadDeadline(time.Now().Add(s.cfg.SetupTimeout))
	var ack serverFrame
	if err := s.conn.ReadJSON(&ack); err != nil {
		if isTimeout(err) {
			return ErrSetupTimeout
		}
		return fmt.Errorf("live: read setup ack: %w", err)
	}
	// any unexpected shape during setup is fatal
	if ack.SetupComplete == nil {
		return ErrSetupRejected
	}
	s.state = StateSending
	return nil
}

// Send transmits the full outgoing turn set as one terminated client message.
func (s *Session) Send(turns []Turn) error {
	if s.state != StateSending {
		return fmt.Errorf("live: send in state %s", s.state)
	}
	cc := clientContent{TurnComplete: true}
	for _, t := range turns {
		c := content{Role: t.Role}
		for _, p := range t.Parts {
			switch {
			case len(p.AudioData) > 0:
				c.Parts = append(c.Parts, part{InlineData: &inlineData{
					MimeType: p.MimeType,
					Data:     base64.StdEncoding.EncodeToString(p.AudioData),
				}})
			case p.Text != "":
				c.Parts = append(c.Parts, part{Text: p.Text})
			}
		}
		if len(c.Parts) > 0 {
			cc.Turns = append(cc.Turns, c)
		}
	}
	if err := s.conn.WriteJSON(clientContentFrame{ClientContent: cc}); err != nil {
		s.state = StateFailed
		return fmt.Errorf("live: write client content: %w", err)
	}
	s.state = StateReceiving
	return nil
}

// Collect reads response frames until the turn-complete marker, a per-read
// timeout, or a transport fault. Timeouts and faults both end the loop with
// the partial result; a fault leaves the session in the failed state while a
// timeout counts as a completed turn.
func (s *Session) Collect() CollectResult {
	var res CollectResult
	var text strings.Builder
	for {
		_ = s.conn.SetReadDeadline(time.Now().Add(s.cfg.ReceiveTimeout))
		var frame serverFrame
		if err := s.conn.ReadJSON(&frame); err != nil {
			if isTimeout(err) {
				log.Printf("[live] receive timed out, returning partial result")
				s.state = StateComplete
			} else {
				log.Printf("[live] transport fault mid-session: %v", err)
				s.state = StateFailed
			}
			break
		}
		if frame.ServerContent == nil {
			// unknown frame shape outside setup: logged, never fatal
			log.Printf("[live] ignoring frame without serverContent")
			continue
		}
		if mt := frame.ServerContent.ModelTurn; mt != nil {
			for _, p := range mt.Parts {
				if p.Text != "" {
					text.WriteString(p.Text)
				}
				if p.InlineData != nil && p.InlineData.Data != "" {
					raw, err := base64.StdEncoding.DecodeString(p.InlineData.Data)
					if err != nil {
						log.Printf("[live] bad inline audio fragment: %v", err)
						continue
					}
					res.AudioChunks = append(res.AudioChunks, raw)
				}
			}
		}
		if frame.ServerContent.TurnComplete {
			s.state = StateComplete
			break
		}
	}
	res.Text = text.String()
	return res
}

// Close tears down the transport. The connection is never reused.
func (s *Session) Close() {
	if s.conn != nil {
		_ = s.conn.Close()
	}
}

// State returns the current protocol state.
func (s *Session) State() State {
	return s.state
}

const silencePadMillis = 300

var boldSpan = regexp.MustCompile(`\*\*[^*]*\*\*`)

// CleanText removes bold-delimited spans, a heuristic cleanup of model
// "thinking" markup. If cleanup leaves nothing, the raw text is kept.
func CleanText(raw string) string {
	cleaned := strings.TrimSpace(boldSpan.ReplaceAllString(raw, ""))
	if cleaned == "" {
		return strings.TrimSpace(raw)
	}
	return cleaned
}

// Package turns a raw collect result into the final response: audio chunks are
// joined in arrival order behind a 300ms silence pad and wrapped in a WAV
// container; text is cleaned of thought markup.
func Package(res CollectResult) (text string, wav []byte) {
	pcm := audio.SilencePad(silencePadMillis, audio.DefaultFormat())
	for _, chunk := range res.AudioChunks {
		pcm = append(pcm, chunk...)
	}
	return CleanText(res.Text), audio.WrapWAV(pcm, audio.DefaultFormat())
}

func isTimeout(err error) bool {
	var ne net.Error
	return errors.As(err, &ne) && ne.Timeout()
}
