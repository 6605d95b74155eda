package storage

import (
	"context"
	"errors"
)

// TableState loads the raw bytes of a food reference table.
type TableState interface {
	Load(ctx context.Context) ([]byte, error)
}

// TestTableState is a simple in-memory implementation for testing
type TestTableState struct {
	data []byte
	err  error
}

func NewTestTableState(data []byte) *TestTableState {
	return &TestTableState{data: data}
}

func NewTestTableStateWithError() *TestTableState {
	return &TestTableState{err: errors.New("not found")}
}

func (t *TestTableState) Load(ctx context.Context) ([]byte, error) {
	if t.err != nil {
		return nil, t.err
	}
	return t.data, nil
}
