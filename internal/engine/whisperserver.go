package engine

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
)

// Frame types exchanged with the whisper sidecar. The client sends a start
// frame, the audio as binary messages, then an end frame; the server answers
// with info, segment events as decoding progresses, and a final done frame.
const (
	frameStart   = "start"
	frameEnd     = "end"
	frameInfo    = "info"
	frameSegment = "segment"
	frameDone    = "done"
	frameError   = "error"
)

// audioChunkSize is the binary message size used when uploading audio
const audioChunkSize = 32 * 1024

// serverFrame is a JSON control frame from the sidecar
type serverFrame struct {
	Type     string  `json:"type"`
	Duration float64 `json:"duration"`
	Language string  `json:"language"`
	Start    float64 `json:"start"`
	End      float64 `json:"end"`
	Text     string  `json:"text"`
	Message  string  `json:"message"`
}

// startFrame is the session-opening frame sent by the client
type startFrame struct {
	Type       string `json:"type"`
	Language   string `json:"language"`
	SampleRate int    `json:"sample_rate"`
	VADFilter  bool   `json:"vad_filter"`
}

// WhisperServer talks to a persistent transcription sidecar over WebSocket.
// The sidecar keeps the model loaded across requests, so per-request cost is
// inference only.
type WhisperServer struct {
	url    string
	logger zerolog.Logger
}

// NewWhisperServer returns a backend that dials url for each request
func NewWhisperServer(url string, logger zerolog.Logger) *WhisperServer {
	return &WhisperServer{url: url, logger: logger}
}

// Transcribe uploads the audio file and returns once the info frame arrives
func (w *WhisperServer) Transcribe(ctx context.Context, audioPath, language string) (Stream, error) {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, w.url, nil)
	if err != nil {
		return nil, fmt.Errorf("dial whisper server %s: %w", w.url, err)
	}

	if err := conn.WriteJSON(startFrame{
		Type:       frameStart,
		Language:   language,
		SampleRate: 16000,
		VADFilter:  true,
	}); err != nil {
		conn.Close()
		return nil, fmt.Errorf("send start frame: %w", err)
	}

	// Upload concurrently so the server can start decoding while the tail
	// of the file is still in flight.
	uploadErr := make(chan error, 1)
	go func() {
		uploadErr <- w.upload(conn, audioPath)
	}()

	stream := &wsStream{conn: conn, uploadErr: uploadErr, logger: w.logger}

	frame, err := stream.readFrame(ctx)
	if err != nil {
		_ = stream.Close()
		return nil, err
	}
	if frame.Type != frameInfo {
		_ = stream.Close()
		return nil, fmt.Errorf("expected info frame, got %q", frame.Type)
	}
	stream.duration = frame.Duration

	return stream, nil
}

// Close is a no-op; connections are per request
func (w *WhisperServer) Close() error {
	return nil
}

// upload streams the audio file as binary messages followed by an end frame
func (w *WhisperServer) upload(conn *websocket.Conn, audioPath string) error {
	f, err := os.Open(audioPath)
	if err != nil {
		return fmt.Errorf("open audio: %w", err)
	}
	defer f.Close()

	buf := make([]byte, audioChunkSize)
	for {
		n, err := f.Read(buf)
		if n > 0 {
			if werr := conn.WriteMessage(websocket.BinaryMessage, buf[:n]); werr != nil {
				return fmt.Errorf("send audio chunk: %w", werr)
			}
		}
		if err == io.EOF {
			break
		}
		if err != nil {
			return fmt.Errorf("read audio: %w", err)
		}
	}

	return conn.WriteJSON(map[string]string{"type": frameEnd})
}

// wsStream yields segment frames from an open sidecar connection
type wsStream struct {
	conn      *websocket.Conn
	uploadErr chan error
	logger    zerolog.Logger
	duration  float64
	exhausted bool
}

func (s *wsStream) Next(ctx context.Context) (Segment, bool, error) {
	if s.exhausted {
		return Segment{}, false, nil
	}

	for {
		frame, err := s.readFrame(ctx)
		if err != nil {
			s.exhausted = true
			return Segment{}, false, err
		}

		switch frame.Type {
		case frameSegment:
			return Segment{Start: frame.Start, End: frame.End, Text: frame.Text}, true, nil
		case frameDone:
			s.exhausted = true
			if err := <-s.uploadErr; err != nil {
				s.logger.Warn().Err(err).Msg("Audio upload finished with error after decode completed")
			}
			return Segment{}, false, nil
		case frameError:
			s.exhausted = true
			return Segment{}, false, fmt.Errorf("whisper server: %s", frame.Message)
		default:
			// Skip unknown frame types for forward compatibility
		}
	}
}

func (s *wsStream) Duration() float64 {
	return s.duration
}

func (s *wsStream) Close() error {
	return s.conn.Close()
}

// readFrame reads the next JSON control frame, honoring ctx deadlines
func (s *wsStream) readFrame(ctx context.Context) (serverFrame, error) {
	if deadline, ok := ctx.Deadline(); ok {
		_ = s.conn.SetReadDeadline(deadline)
	} else {
		_ = s.conn.SetReadDeadline(time.Time{})
	}

	for {
		msgType, data, err := s.conn.ReadMessage()
		if err != nil {
			return serverFrame{}, fmt.Errorf("read whisper server frame: %w", err)
		}
		if msgType != websocket.TextMessage {
			continue
		}

		var frame serverFrame
		if err := json.Unmarshal(data, &frame); err != nil {
			return serverFrame{}, fmt.Errorf("malformed whisper server frame: %w", err)
		}
		return frame, nil
	}
}
