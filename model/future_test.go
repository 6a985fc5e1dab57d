package model

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"backdrop-engine/scene"
)

func TestFuturePollDoesNotBlock(t *testing.T) {
	release := make(chan struct{})
	f := Go(func() (*scene.GLTFResult, error) {
		<-release
		return &scene.GLTFResult{}, nil
	})

	_, _, ok := f.Poll()
	assert.False(t, ok)

	close(release)
	require.Eventually(t, func() bool {
		_, _, ok := f.Poll()
		return ok
	}, time.Second, time.Millisecond)

	// settled results are sticky
	res, err, ok := f.Poll()
	assert.True(t, ok)
	assert.NoError(t, err)
	assert.NotNil(t, res)
}

func TestFutureWait(t *testing.T) {
	boom := errors.New("boom")
	f := Go(func() (*scene.GLTFResult, error) { return nil, boom })

	_, err := f.Wait()
	assert.ErrorIs(t, err, boom)
	_, err, ok := f.Poll()
	assert.True(t, ok)
	assert.ErrorIs(t, err, boom)
}

func TestResolvedAndPending(t *testing.T) {
	res := &scene.GLTFResult{}
	got, err, ok := Resolved(res, nil).Poll()
	assert.True(t, ok)
	assert.NoError(t, err)
	assert.Same(t, res, got)

	_, _, ok = NewPending().Poll()
	assert.False(t, ok)
}
