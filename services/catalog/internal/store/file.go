package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
)

// FileSource reads the dataset from a JSON file on disk.
type FileSource struct {
	Path string
}

func NewFileSource(path string) *FileSource {
	return &FileSource{Path: path}
}

func (s *FileSource) Name() string { return "file:" + s.Path }

func (s *FileSource) Load(ctx context.Context) (*Database, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	b, err := os.ReadFile(s.Path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, &LoadError{Kind: KindNotFound, Source: s.Name(), Err: err}
		}
		return nil, fmt.Errorf("read %s: %w", s.Path, err)
	}
	return decodeDatabase(s.Name(), b)
}

func decodeDatabase(source string, b []byte) (*Database, error) {
	var db Database
	if err := json.Unmarshal(b, &db); err != nil {
		return nil, &LoadError{Kind: KindMalformed, Source: source, Err: err}
	}
	if db.Data == nil {
		db.Data = []Anime{}
	}
	return &db, nil
}
