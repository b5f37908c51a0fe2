package suppressions

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
)

// FileStore keeps the list in a text file, one test ID per line.
type FileStore struct {
	Path string
}

func (f *FileStore) Description() string { return f.Path }

func (f *FileStore) Load(context.Context) ([]string, error) {
	data, err := os.ReadFile(f.Path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("cannot read suppression file: %w", err)
	}
	return ParseTestIDs(string(data)), nil
}

func (f *FileStore) Save(_ context.Context, testIDs []string) error {
	if err := os.WriteFile(f.Path, []byte(FormatTestIDs(testIDs)), 0o600); err != nil {
		return fmt.Errorf("cannot write suppression file: %w", err)
	}
	return nil
}
