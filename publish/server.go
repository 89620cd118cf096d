// Package publish serves frame results over HTTP and websockets so remote
// clients can follow the faces and gaze directions of each stream
package publish

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
	jsoniter "github.com/json-iterator/go"
	"github.com/sirupsen/logrus"
	"github.com/swdee/go-gaze/pipeline"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// EncodeFunc renders a frame result into an image, eg: an annotated JPEG
type EncodeFunc func(res pipeline.FrameResult) ([]byte, error)

// StatsFunc returns the frame counters of each stream keyed by stream ID
type StatsFunc func() map[string]pipeline.Stats

// Option configures a Server
type Option func(*Server)

// WithEncoder enables the snapshot endpoint and the frames websocket using
// the encoder to render frames
func WithEncoder(enc EncodeFunc) Option {
	return func(s *Server) {
		s.encode = enc
	}
}

// WithStats enables the stats endpoint
func WithStats(fn StatsFunc) Option {
	return func(s *Server) {
		s.stats = fn
	}
}

// WithLogger sets the logger used by the Server
func WithLogger(l logrus.FieldLogger) Option {
	return func(s *Server) {
		s.log = l
	}
}

// Server publishes frame results.  It is a pipeline.Sink and may be shared
// by the Runners of several streams
type Server struct {
	app       *fiber.App
	results   *Hub
	frames    *Hub
	encode    EncodeFunc
	stats     StatsFunc
	log       logrus.FieldLogger
	mu        sync.RWMutex
	latest    map[string]Result
	latestRaw map[string]pipeline.FrameResult
}

// NewServer returns a Server with its routes registered
func NewServer(opts ...Option) *Server {

	s := &Server{
		log:       logrus.StandardLogger(),
		latest:    make(map[string]Result),
		latestRaw: make(map[string]pipeline.FrameResult),
	}

	for _, opt := range opts {
		opt(s)
	}

	s.results = NewHub("results", s.log)
	s.frames = NewHub("frames", s.log)

	app := fiber.New(fiber.Config{
		AppName:               "go-gaze",
		DisableStartupMessage: true,
		StrictRouting:         true,
		CaseSensitive:         true,
		JSONEncoder:           json.Marshal,
		JSONDecoder:           json.Unmarshal,
	})

	app.Get("/healthz", s.handleHealth)

	api := app.Group("/api")
	api.Get("/streams", s.handleStreams)
	api.Get("/streams/:id/latest", s.handleLatest)
	api.Get("/streams/:id/snapshot.jpg", s.handleSnapshot)
	api.Get("/stats", s.handleStats)

	// WebSocket upgrade middleware
	app.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})

	app.Get("/ws/results", websocket.New(s.handleWS(s.results)))
	app.Get("/ws/frames", websocket.New(s.handleWS(s.frames)))

	s.app = app

	return s
}

// App returns the underlying fiber application
func (s *Server) App() *fiber.App {
	return s.app
}

// Run starts the websocket hubs and serves HTTP on addr until the context is
// cancelled
func (s *Server) Run(ctx context.Context, addr string) error {

	go s.results.Run(ctx)
	go s.frames.Run(ctx)

	errCh := make(chan error, 1)

	go func() {
		s.log.WithField("addr", addr).Info("publish server listening")
		errCh <- s.app.Listen(addr)
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("error serving on %s: %w", addr, err)

	case <-ctx.Done():
		if err := s.app.Shutdown(); err != nil {
			return fmt.Errorf("error shutting down server: %w", err)
		}
		return nil
	}
}

// Consume records the result as the latest of its stream and broadcasts it
// to websocket clients
func (s *Server) Consume(ctx context.Context, res pipeline.FrameResult) error {

	out := NewResult(res)

	s.mu.Lock()
	s.latest[res.StreamID] = out
	s.latestRaw[res.StreamID] = res
	s.mu.Unlock()

	data, err := json.Marshal(out)

	if err != nil {
		return fmt.Errorf("error encoding frame result: %w", err)
	}

	s.results.Broadcast(Message{Type: JSONMessage, Data: data})

	if s.encode != nil && res.Err == nil && s.frames.ClientCount() > 0 {
		img, err := s.encode(res)

		if err != nil {
			s.log.WithError(err).Warn("failed to encode frame")
			return nil
		}

		s.frames.Broadcast(Message{Type: BinaryMessage, Data: img})
	}

	return nil
}

// Latest returns the most recent result of a stream
func (s *Server) Latest(streamID string) (Result, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	res, ok := s.latest[streamID]
	return res, ok
}

func (s *Server) handleHealth(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"status":  "ok",
		"clients": s.results.ClientCount() + s.frames.ClientCount(),
	})
}

func (s *Server) handleStreams(c *fiber.Ctx) error {

	s.mu.RLock()
	ids := make([]string, 0, len(s.latest))
	for id := range s.latest {
		ids = append(ids, id)
	}
	s.mu.RUnlock()

	sort.Strings(ids)

	return c.JSON(fiber.Map{"streams": ids})
}

func (s *Server) handleLatest(c *fiber.Ctx) error {

	res, ok := s.Latest(c.Params("id"))

	if !ok {
		return fiber.NewError(fiber.StatusNotFound, "unknown stream")
	}

	return c.JSON(res)
}

func (s *Server) handleSnapshot(c *fiber.Ctx) error {

	if s.encode == nil {
		return fiber.NewError(fiber.StatusNotImplemented, "snapshots disabled")
	}

	s.mu.RLock()
	res, ok := s.latestRaw[c.Params("id")]
	s.mu.RUnlock()

	if !ok {
		return fiber.NewError(fiber.StatusNotFound, "unknown stream")
	}

	img, err := s.encode(res)

	if err != nil {
		s.log.WithError(err).Warn("failed to encode snapshot")
		return fiber.NewError(fiber.StatusInternalServerError, "error encoding snapshot")
	}

	c.Set(fiber.HeaderContentType, "image/jpeg")

	return c.Send(img)
}

func (s *Server) handleStats(c *fiber.Ctx) error {

	if s.stats == nil {
		return fiber.NewError(fiber.StatusNotImplemented, "stats disabled")
	}

	return c.JSON(s.stats())
}

// handleWS subscribes a websocket connection to the hub until it closes
func (s *Server) handleWS(hub *Hub) func(*websocket.Conn) {
	return func(conn *websocket.Conn) {
		client := newClient(hub, conn)

		if client == nil {
			conn.Close()
			return
		}

		client.run()
	}
}
