package gaze

import (
	"context"
	"sync"
)

// Pool is a simple model pool holding multiple instances of the same Model
// so each video stream can use its own instance
type Pool struct {
	// pool of models
	models chan Model
	// size of pool
	size int
	// mu guards closed and sends on the models channel
	mu     sync.Mutex
	closed bool
}

// OpenFunc opens the i'th model instance of a pool
type OpenFunc func(i int) (Model, error)

// NewPool creates a new model pool of the given size
func NewPool(size int, open OpenFunc) (*Pool, error) {
	p := &Pool{
		models: make(chan Model, size),
		size:   size,
	}

	for i := 0; i < size; i++ {
		m, err := open(i)

		if err != nil {
			// close any instances that may have been created before receiving
			// the error
			p.Close()
			return nil, err
		}

		// attach to pool
		p.Return(m)
	}

	return p, nil
}

// Size returns the number of models the pool was created with
func (p *Pool) Size() int {
	return p.size
}

// Get a model from the pool, blocking until one is returned or the context
// is done
func (p *Pool) Get(ctx context.Context) (Model, error) {
	select {
	case m, ok := <-p.models:
		if !ok {
			return nil, ErrPoolClosed
		}
		return m, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Return a model to the pool
func (p *Pool) Return(m Model) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		_ = m.Close()
		return
	}

	select {
	case p.models <- m:
	default:
		// pool is full
		_ = m.Close()
	}
}

// Close the pool and all models in it.  Models still checked out are closed
// when they are returned
func (p *Pool) Close() {
	p.mu.Lock()

	if p.closed {
		p.mu.Unlock()
		return
	}

	p.closed = true
	close(p.models)
	p.mu.Unlock()

	// close all models
	for next := range p.models {
		_ = next.Close()
	}
}
