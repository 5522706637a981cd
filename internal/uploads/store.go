package uploads

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// Store keeps uploaded image files in a single directory, addressed by their
// sanitized original file name.
type Store struct {
	dir string
}

func NewStore(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating upload dir %s: %w", dir, err)
	}
	return &Store{dir: dir}, nil
}

func (s *Store) Dir() string {
	return s.dir
}

// Save writes content under name unless a file with that name already exists,
// in which case the existing file is reused untouched. The name must already
// be a sanitized single path component.
func (s *Store) Save(name string, content io.Reader) error {
	dst := filepath.Join(s.dir, filepath.Base(name))
	_, err := os.Stat(dst)
	if err == nil {
		return nil
	}
	if !os.IsNotExist(err) {
		return err
	}

	f, err := os.Create(dst)
	if err != nil {
		return err
	}
	_, err = io.Copy(f, content)
	if closeErr := f.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		os.Remove(dst)
		return err
	}
	return nil
}

// Remove unlinks the named file. A file that is already gone is not an error.
func (s *Store) Remove(name string) error {
	err := os.Remove(filepath.Join(s.dir, filepath.Base(name)))
	if err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}
