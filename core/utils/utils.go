// Package utils is used for common functions and tools used across the
// codebase.
package utils

import (
	"context"
	"sync"
	"time"

	"github.com/jpillora/backoff"
	"github.com/pkg/errors"
	"github.com/tevino/abool"
	"go.uber.org/atomic"
)

// StartStopOnce contains a StartStopOnceState integer.
type StartStopOnce struct {
	state atomic.Int32
}

// StartStopOnceState holds the state for StartStopOnce.
type StartStopOnceState int32

//nolint
const (
	StartStopOnce_Unstarted StartStopOnceState = iota
	StartStopOnce_Started
	StartStopOnce_Starting
	StartStopOnce_Stopping
	StartStopOnce_Stopped
)

// StartOnce sets the state to Started.
func (once *StartStopOnce) StartOnce(name string, fn func() error) error {
	success := once.state.CAS(int32(StartStopOnce_Unstarted), int32(StartStopOnce_Starting))
	if !success {
		return errors.Errorf("%v has already started once", name)
	}
	err := fn()

	success = once.state.CAS(int32(StartStopOnce_Starting), int32(StartStopOnce_Started))
	if !success {
		return errors.Errorf("%v state unexpectedly changed during Start", name)
	}
	return err
}

// StopOnce sets the state to Stopped.
func (once *StartStopOnce) StopOnce(name string, fn func() error) error {
	success := once.state.CAS(int32(StartStopOnce_Started), int32(StartStopOnce_Stopping))
	if !success {
		return errors.Errorf("%v has already stopped once", name)
	}
	err := fn()

	success = once.state.CAS(int32(StartStopOnce_Stopping), int32(StartStopOnce_Stopped))
	if !success {
		return errors.Errorf("%v state unexpectedly changed during Close", name)
	}
	return err
}

// State retrieves the current state.
func (once *StartStopOnce) State() StartStopOnceState {
	return StartStopOnceState(once.state.Load())
}

// IfStarted runs the func and returns true, only if started.
func (once *StartStopOnce) IfStarted(f func()) (ok bool) {
	if once.State() == StartStopOnce_Started {
		f()
		return true
	}
	return false
}

// BackoffSleeper is a sleeper that backs off on subsequent attempts.
type BackoffSleeper struct {
	backoff.Backoff
	beenRun *abool.AtomicBool
}

// NewBackoffSleeper returns a BackoffSleeper that does not wait on the
// first attempt, sleeps for 1 second on the second, and backs off
// exponentially to at most 10 seconds.
func NewBackoffSleeper() *BackoffSleeper {
	return NewBackoffSleeperWith(1*time.Second, 10*time.Second)
}

// NewBackoffSleeperWith returns a BackoffSleeper with custom minimum and
// maximum delays. The delay doubles on each attempt.
func NewBackoffSleeperWith(min, max time.Duration) *BackoffSleeper {
	return &BackoffSleeper{
		Backoff: backoff.Backoff{
			Min:    min,
			Max:    max,
			Factor: 2,
		},
		beenRun: abool.New(),
	}
}

// Sleep waits for the given duration, incrementing the back off.
func (bs *BackoffSleeper) Sleep() {
	if bs.beenRun.SetToIf(false, true) {
		return
	}
	time.Sleep(bs.Backoff.Duration())
}

// After returns the duration for the next stop, and increments the backoff.
func (bs *BackoffSleeper) After() time.Duration {
	if bs.beenRun.SetToIf(false, true) {
		return 0
	}
	return bs.Backoff.Duration()
}

// Duration returns the current duration value.
func (bs *BackoffSleeper) Duration() time.Duration {
	if !bs.beenRun.IsSet() {
		return 0
	}
	return bs.ForAttempt(bs.Attempt())
}

// Reset resets the backoff intervals.
func (bs *BackoffSleeper) Reset() {
	bs.beenRun.UnSet()
	bs.Backoff.Reset()
}

// RetryWithBackoff retries the fn with exponential backoff until it does
// not ask for a retry or the context is cancelled.
func RetryWithBackoff(ctx context.Context, fn func() (retry bool)) {
	RetryWithBackoffSleeper(ctx, NewBackoffSleeper(), fn)
}

// RetryWithBackoffSleeper is RetryWithBackoff with a caller-provided
// sleeper, for retry loops that need a custom initial delay.
func RetryWithBackoffSleeper(ctx context.Context, sleeper *BackoffSleeper, fn func() (retry bool)) {
	sleeper.Reset()
	for {
		retry := fn()
		if !retry {
			return
		}

		select {
		case <-ctx.Done():
			return
		case <-time.After(sleeper.After()):
			continue
		}
	}
}

// WaitGroupChan creates a channel that closes when the provided
// sync.WaitGroup is done.
func WaitGroupChan(wg *sync.WaitGroup) <-chan struct{} {
	chAwait := make(chan struct{})
	go func() {
		defer close(chAwait)
		wg.Wait()
	}()
	return chAwait
}

// ContextFromChan creates a context that finishes when the provided
// channel receives or is closed.
func ContextFromChan(chStop <-chan struct{}) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		select {
		case <-chStop:
			cancel()
		case <-ctx.Done():
		}
	}()
	return ctx, cancel
}
