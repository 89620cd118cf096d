package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync/atomic"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/swdee/go-gaze"
	"golang.org/x/time/rate"
)

// defaultMaxReadErrors is the number of consecutive frame read failures a
// Runner tolerates before stopping
const defaultMaxReadErrors = 10

// Stats are the frame counters of a Runner
type Stats struct {
	// Frames is the number of frames read from the source
	Frames uint64 `json:"frames"`
	// Skipped is the number of frames that failed in the pipeline
	Skipped uint64 `json:"skipped"`
	// Faces is the total number of faces emitted
	Faces uint64 `json:"faces"`
	// ReadErrors is the number of failed source reads
	ReadErrors uint64 `json:"read_errors"`
}

// Runner pulls frames from a Source, runs them through a Processor and
// emits the results to a Sink, one frame at a time at a bounded rate.  A
// frame that fails is reported to the sink with its error and the next frame
// is attempted.  Cancellation is observed between frames
type Runner struct {
	proc          Processor
	source        Source
	sink          Sink
	limiter       *rate.Limiter
	streamID      string
	seq           *SequenceGenerator
	maxReadErrors int
	log           logrus.FieldLogger

	frames     atomic.Uint64
	skipped    atomic.Uint64
	faces      atomic.Uint64
	readErrors atomic.Uint64
}

// RunnerOption configures a Runner
type RunnerOption func(*Runner)

// WithRate limits the Runner to the given frames per second, a value of
// zero or less removes the limit
func WithRate(fps float64) RunnerOption {
	return func(r *Runner) {
		if fps <= 0 {
			r.limiter = rate.NewLimiter(rate.Inf, 1)
			return
		}
		r.limiter = rate.NewLimiter(rate.Limit(fps), 1)
	}
}

// WithStreamID sets the stream ID attached to every result
func WithStreamID(id string) RunnerOption {
	return func(r *Runner) {
		r.streamID = id
	}
}

// WithMaxReadErrors sets how many consecutive source read failures are
// skipped before Run returns the error
func WithMaxReadErrors(n int) RunnerOption {
	return func(r *Runner) {
		r.maxReadErrors = n
	}
}

// WithRunnerLogger sets the logger used by the Runner
func WithRunnerLogger(l logrus.FieldLogger) RunnerOption {
	return func(r *Runner) {
		r.log = l
	}
}

// NewRunner returns a Runner for a single stream
func NewRunner(proc Processor, source Source, sink Sink, opts ...RunnerOption) *Runner {
	r := &Runner{
		proc:          proc,
		source:        source,
		sink:          sink,
		limiter:       rate.NewLimiter(rate.Inf, 1),
		streamID:      uuid.NewString(),
		seq:           NewSequenceGenerator(),
		maxReadErrors: defaultMaxReadErrors,
		log:           logrus.StandardLogger(),
	}

	for _, opt := range opts {
		opt(r)
	}

	r.log = r.log.WithField("stream", r.streamID)

	return r
}

// StreamID returns the ID attached to every result of this Runner
func (r *Runner) StreamID() string {
	return r.streamID
}

// Stats returns a snapshot of the frame counters
func (r *Runner) Stats() Stats {
	return Stats{
		Frames:     r.frames.Load(),
		Skipped:    r.skipped.Load(),
		Faces:      r.faces.Load(),
		ReadErrors: r.readErrors.Load(),
	}
}

// Run processes frames until the source is exhausted, the context is
// cancelled or the sink fails.  An exhausted source returns nil, a cancelled
// context returns the context error
func (r *Runner) Run(ctx context.Context) error {

	consecutiveReadErrs := 0

	for {
		// frame boundary
		if err := ctx.Err(); err != nil {
			return err
		}

		if err := r.limiter.Wait(ctx); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return fmt.Errorf("error waiting for next frame: %w", err)
		}

		frame, err := r.source.Read(ctx)

		if errors.Is(err, gaze.ErrSourceClosed) || errors.Is(err, io.EOF) {
			r.log.Info("frame source closed")
			return nil
		}

		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}

			r.readErrors.Add(1)
			consecutiveReadErrs++

			if consecutiveReadErrs > r.maxReadErrors {
				return fmt.Errorf("error reading frame: %w", err)
			}

			r.log.WithError(err).Warn("failed to read frame")
			continue
		}

		consecutiveReadErrs = 0

		if err := r.sink.Consume(ctx, r.process(ctx, frame)); err != nil {
			return fmt.Errorf("error emitting frame result: %w", err)
		}
	}
}

// process runs one frame through the pipeline, a failed frame yields a
// result with the error set and no faces
func (r *Runner) process(ctx context.Context, frame Frame) FrameResult {

	r.frames.Add(1)
	seq := r.seq.GetNext()

	res, err := r.proc.Process(ctx, frame)

	if err != nil {
		r.skipped.Add(1)

		r.log.WithFields(logrus.Fields{
			"frame": seq,
		}).WithError(err).Warn("skipping frame")

		res = FrameResult{
			Faces: make([]FaceResult, 0),
			Err:   err,
			Frame: frame,
		}
	}

	res.StreamID = r.streamID
	res.Sequence = seq

	r.faces.Add(uint64(len(res.Faces)))

	if err == nil {
		r.log.WithFields(logrus.Fields{
			"frame":     seq,
			"faces":     len(res.Faces),
			"detect_ms": res.Timing.Detect.Milliseconds(),
			"total_ms":  res.Timing.Total.Milliseconds(),
		}).Debug("frame processed")
	}

	return res
}
