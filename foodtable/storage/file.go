package storage

import (
	"context"
	"os"
)

type FileTableState struct {
	FilePath string
}

func NewFileTableState(filePath string) *FileTableState {
	return &FileTableState{FilePath: filePath}
}

func (f *FileTableState) Load(ctx context.Context) ([]byte, error) {
	return os.ReadFile(f.FilePath)
}
