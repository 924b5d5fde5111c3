package repositories

import "errors"

type ErrNotFound struct {
}

func (e *ErrNotFound) Error() string {
	return "not found"
}

func IsNotFound(err error) bool {
	var target *ErrNotFound
	return errors.As(err, &target)
}

type ErrAlreadyExists struct {
}

func (e *ErrAlreadyExists) Error() string {
	return "already exists"
}

func IsAlreadyExists(err error) bool {
	var target *ErrAlreadyExists
	return errors.As(err, &target)
}

type ErrRevisionMismatch struct {
	Expected int64
}

func (e *ErrRevisionMismatch) Error() string {
	return "revision mismatch"
}

func IsRevisionMismatch(err error) bool {
	var target *ErrRevisionMismatch
	return errors.As(err, &target)
}
