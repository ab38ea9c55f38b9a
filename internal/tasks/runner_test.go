package tasks

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestGo_RunsTaskWithoutBlockingCaller(t *testing.T) {
	r := NewRunner(nil)
	started := make(chan struct{})
	var done atomic.Bool

	r.Go("test-task", func(ctx context.Context) {
		<-started
		done.Store(true)
	})

	assert.False(t, done.Load(), "caller must not wait for the task")
	close(started)
	assert.True(t, r.Wait(2*time.Second))
	assert.True(t, done.Load())
}

func TestGo_RecoversPanics(t *testing.T) {
	r := NewRunner(nil)
	r.Go("panicky", func(ctx context.Context) {
		panic("boom")
	})
	assert.True(t, r.Wait(2*time.Second), "panicking task still completes")

	// The runner stays usable after a panic.
	var ran atomic.Bool
	r.Go("after-panic", func(ctx context.Context) { ran.Store(true) })
	assert.True(t, r.Wait(2*time.Second))
	assert.True(t, ran.Load())
}

func TestWait_TimesOutOnStuckTask(t *testing.T) {
	r := NewRunner(nil)
	release := make(chan struct{})
	r.Go("stuck", func(ctx context.Context) { <-release })

	assert.False(t, r.Wait(50*time.Millisecond))
	close(release)
	assert.True(t, r.Wait(2*time.Second))
}

func TestWait_EmptyRunner(t *testing.T) {
	r := NewRunner(nil)
	assert.True(t, r.Wait(time.Second))
}
