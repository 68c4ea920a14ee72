package engine

import (
	"context"
	"sync"
)

// serialEngine bounds concurrent inference on a shared backend. Local
// whisper inference is not safe to run concurrently on one model handle, so
// the default is a single slot; the slot is held until the returned stream
// is closed, not just until Transcribe returns.
type serialEngine struct {
	inner Engine
	slots chan struct{}
}

// Serialize wraps inner so that at most slots Transcribe sessions run at once
func Serialize(inner Engine, slots int) Engine {
	if slots < 1 {
		slots = 1
	}
	return &serialEngine{
		inner: inner,
		slots: make(chan struct{}, slots),
	}
}

func (e *serialEngine) Transcribe(ctx context.Context, audioPath, language string) (Stream, error) {
	select {
	case e.slots <- struct{}{}:
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	stream, err := e.inner.Transcribe(ctx, audioPath, language)
	if err != nil {
		<-e.slots
		return nil, err
	}

	return &slotStream{Stream: stream, release: func() { <-e.slots }}, nil
}

func (e *serialEngine) Close() error {
	return e.inner.Close()
}

// slotStream releases the inference slot exactly once on Close
type slotStream struct {
	Stream
	release func()
	once    sync.Once
}

func (s *slotStream) Close() error {
	err := s.Stream.Close()
	s.once.Do(s.release)
	return err
}
