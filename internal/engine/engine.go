package engine

import "context"

// Segment is a time-bounded span of recognized speech
type Segment struct {
	// Start is the segment start offset in seconds
	Start float64

	// End is the segment end offset in seconds (>= Start)
	End float64

	// Text is the recognized text for this span
	Text string
}

// Stream is a lazy, single-pass sequence of segments produced while the
// engine decodes audio. Segments arrive in time order. Consuming a stream
// twice is not possible; a new Transcribe call is required.
type Stream interface {
	// Next returns the next segment. ok is false once the stream is
	// exhausted; a non-nil error means the engine failed mid-stream and no
	// further segments will arrive.
	Next(ctx context.Context) (seg Segment, ok bool, err error)

	// Duration returns the total audio duration in seconds, or 0 when the
	// engine could not determine it.
	Duration() float64

	// Close releases engine resources for this stream. It must be called
	// on every path, including early abandonment.
	Close() error
}

// Engine is the interface for speech-to-text backends
type Engine interface {
	// Transcribe starts decoding the audio file at audioPath. An empty
	// language requests auto-detection. Voice-activity filtering is always
	// applied by backends that support it.
	Transcribe(ctx context.Context, audioPath, language string) (Stream, error)

	// Close releases backend-wide resources
	Close() error
}

// bufferedStream adapts an already-materialized segment list to the Stream
// interface, for backends that only offer batch results
type bufferedStream struct {
	segments []Segment
	duration float64
	pos      int
}

// NewBufferedStream wraps a fixed segment list as a single-pass Stream
func NewBufferedStream(segments []Segment, duration float64) Stream {
	return &bufferedStream{segments: segments, duration: duration}
}

func (s *bufferedStream) Next(ctx context.Context) (Segment, bool, error) {
	if err := ctx.Err(); err != nil {
		return Segment{}, false, err
	}
	if s.pos >= len(s.segments) {
		return Segment{}, false, nil
	}
	seg := s.segments[s.pos]
	s.pos++
	return seg, true, nil
}

func (s *bufferedStream) Duration() float64 {
	return s.duration
}

func (s *bufferedStream) Close() error {
	return nil
}
