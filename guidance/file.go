package guidance

import (
	"context"
	"os"
)

type File struct {
	FilePath string
}

func NewFile(filePath string) *File {
	return &File{FilePath: filePath}
}

func (f *File) Load(ctx context.Context) ([]byte, error) {
	return os.ReadFile(f.FilePath)
}
