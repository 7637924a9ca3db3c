// Copyright 2025, Jason S. McMullan <jason.mcmullan@gmail.com>

package emulator

import (
	"errors"

	"github.com/ezrec/bpfsim/translate"
)

var f = translate.From

var (
	ErrTickLimit  = errors.New(f("tick limit exceeded"))
	ErrSeedSyntax = errors.New(f("seed syntax"))
)

// ErrRuntime indicates the source line of a runtime error.
type ErrRuntime struct {
	LineNo int
	Err    error
}

func (err *ErrRuntime) Error() string {
	return f("line %d %v", err.LineNo, err.Err)
}

func (err *ErrRuntime) Unwrap() error {
	return err.Err
}
