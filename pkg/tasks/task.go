// Package tasks provides a small future type used to hand the result of
// an asynchronous snapshot operation back to its caller.
package tasks

import (
	"context"
	"errors"
	"fmt"
	"sync"
)

var (
	// ErrAlreadyComplete is returned by Source when a result was already set.
	ErrAlreadyComplete = errors.New("task already complete")
	// ErrNotComplete is returned by Result for a task still in flight.
	ErrNotComplete = errors.New("task not complete")
)

// PanicError wraps a value recovered from a panicking task function.
type PanicError struct {
	Value interface{}
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("task panicked: %v", e.Value)
}

// Task is the read side of an asynchronous result. It completes exactly
// once, with either a value or an error.
type Task[T any] struct {
	done  chan struct{}
	once  sync.Once
	value T
	err   error
}

func newTask[T any]() *Task[T] {
	return &Task[T]{
		done: make(chan struct{}),
	}
}

func (t *Task[T]) complete(value T, err error) bool {
	completed := false
	t.once.Do(func() {
		t.value = value
		t.err = err
		close(t.done)
		completed = true
	})
	return completed
}

// Done returns a channel that is closed when the task completes.
func (t *Task[T]) Done() <-chan struct{} {
	return t.done
}

// IsComplete reports whether a result has been set.
func (t *Task[T]) IsComplete() bool {
	select {
	case <-t.done:
		return true
	default:
		return false
	}
}

// IsSuccessful reports whether the task completed without an error.
func (t *Task[T]) IsSuccessful() bool {
	return t.IsComplete() && t.err == nil
}

// Result returns the task's value and error without blocking. A task
// still in flight reports ErrNotComplete.
func (t *Task[T]) Result() (T, error) {
	if !t.IsComplete() {
		var zero T
		return zero, ErrNotComplete
	}
	return t.value, t.err
}

// Await blocks until the task completes or ctx is done. Cancelling ctx
// only stops the wait; the task itself keeps running.
func (t *Task[T]) Await(ctx context.Context) (T, error) {
	select {
	case <-t.done:
		return t.value, t.err
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}

// OnComplete calls fn with the task's result once it completes. fn runs
// on its own goroutine.
func (t *Task[T]) OnComplete(fn func(T, error)) {
	go func() {
		<-t.done
		fn(t.value, t.err)
	}()
}

// Source is the write side of a Task.
type Source[T any] struct {
	task *Task[T]
}

// NewSource creates a Source with a pending task.
func NewSource[T any]() *Source[T] {
	return &Source[T]{
		task: newTask[T](),
	}
}

func (s *Source[T]) Task() *Task[T] {
	return s.task
}

// SetResult completes the task with a value.
func (s *Source[T]) SetResult(value T) error {
	if !s.task.complete(value, nil) {
		return ErrAlreadyComplete
	}
	return nil
}

// SetError completes the task with an error.
func (s *Source[T]) SetError(err error) error {
	var zero T
	if !s.task.complete(zero, err) {
		return ErrAlreadyComplete
	}
	return nil
}

// Run executes fn on a new goroutine and returns a task for its result.
// A panic in fn completes the task with an error instead of crashing the
// process.
func Run[T any](ctx context.Context, fn func(ctx context.Context) (T, error)) *Task[T] {
	source := NewSource[T]()
	go func() {
		defer func() {
			if r := recover(); r != nil {
				source.SetError(&PanicError{Value: r})
			}
		}()
		value, err := fn(ctx)
		if err != nil {
			source.SetError(err)
			return
		}
		source.SetResult(value)
	}()
	return source.Task()
}

// FromResult returns an already completed task.
func FromResult[T any](value T) *Task[T] {
	t := newTask[T]()
	t.complete(value, nil)
	return t
}

// FromError returns an already failed task.
func FromError[T any](err error) *Task[T] {
	var zero T
	t := newTask[T]()
	t.complete(zero, err)
	return t
}
