package pipeline

import (
	"context"
	"errors"
)

// Source supplies frames to a Runner.  Read returns gaze.ErrSourceClosed or
// io.EOF once no more frames will be produced
type Source interface {
	Read(ctx context.Context) (Frame, error)
}

// Sink consumes the result of every frame a Runner processes, including
// skipped frames which carry an error and no faces
type Sink interface {
	Consume(ctx context.Context, res FrameResult) error
}

// SinkFunc adapts a function to the Sink interface
type SinkFunc func(ctx context.Context, res FrameResult) error

// Consume calls f(ctx, res)
func (f SinkFunc) Consume(ctx context.Context, res FrameResult) error {
	return f(ctx, res)
}

// ChannelSink delivers results on a channel, blocking until the receiver
// takes each one or the context is done
type ChannelSink chan FrameResult

// Consume sends the result on the channel
func (c ChannelSink) Consume(ctx context.Context, res FrameResult) error {
	select {
	case c <- res:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// MultiSink fans each result out to every sink in order
type MultiSink []Sink

// Consume passes the result to every sink, all sinks are called even if one
// fails
func (m MultiSink) Consume(ctx context.Context, res FrameResult) error {

	var errs []error

	for _, s := range m {
		if err := s.Consume(ctx, res); err != nil {
			errs = append(errs, err)
		}
	}

	return errors.Join(errs...)
}
