// Package model loads an animated model off the frame goroutine and
// installs it into the scene once the load settles.
package model

import (
	"sync"

	"backdrop-engine/scene"
)

// Loader produces the model asset. It runs on its own goroutine.
type Loader func() (*scene.GLTFResult, error)

type outcome struct {
	result *scene.GLTFResult
	err    error
}

// Future is the one-shot result of an asynchronous load. The loader
// publishes exactly once; readers poll without blocking.
type Future struct {
	ch   chan outcome
	once sync.Once

	mu      sync.Mutex
	settled bool
	out     outcome
}

func newFuture() *Future {
	return &Future{ch: make(chan outcome, 1)}
}

// Go starts load on a new goroutine. There is no cancellation: a load that
// never returns leaves the future pending forever.
func Go(load Loader) *Future {
	f := newFuture()
	go func() {
		res, err := load()
		f.resolve(res, err)
	}()
	return f
}

// Resolved returns an already settled future.
func Resolved(res *scene.GLTFResult, err error) *Future {
	f := newFuture()
	f.resolve(res, err)
	return f
}

// NewPending returns a future that never settles.
func NewPending() *Future {
	return newFuture()
}

func (f *Future) resolve(res *scene.GLTFResult, err error) {
	f.once.Do(func() {
		f.ch <- outcome{result: res, err: err}
	})
}

// Poll reports the outcome if the load has settled, without blocking.
func (f *Future) Poll() (res *scene.GLTFResult, err error, ok bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.settled {
		select {
		case f.out = <-f.ch:
			f.settled = true
		default:
			return nil, nil, false
		}
	}
	return f.out.result, f.out.err, true
}

// Wait blocks until the load settles.
func (f *Future) Wait() (*scene.GLTFResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.settled {
		f.out = <-f.ch
		f.settled = true
	}
	return f.out.result, f.out.err
}
