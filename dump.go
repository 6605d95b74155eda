package mealresolver

import (
	"fmt"
	"io"
	"runtime"

	"github.com/davecgh/go-spew/spew"
)

// Fdump writes v to w prefixed with the caller's file and line.
func Fdump(w io.Writer, v ...any) {
	_, file, line, _ := runtime.Caller(1)
	args := append([]any{fmt.Sprintf("%s:%d:", file, line)}, v...)
	spew.Fdump(w, args...)
}
