// Package artifact stores synthesized reply audio for later download. Each
// artifact lives under a fresh UUID so concurrent turns never collide, and an
// age-based reaper sweeps old files in the background.
package artifact

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// ContentType is the MIME type of every stored artifact.
const ContentType = "audio/mpeg"

// ErrNotFound indicates the requested artifact does not exist in the store.
var ErrNotFound = errors.New("artifact: not found")

// Store is a directory-backed artifact store. It is safe for concurrent use;
// all state lives on disk under uniquely named files.
type Store struct {
	dir string
}

// NewStore creates the backing directory if needed and returns a Store over it.
func NewStore(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("artifact: create dir %q: %w", dir, err)
	}
	return &Store{dir: dir}, nil
}

// Dir returns the backing directory.
func (s *Store) Dir() string {
	return s.dir
}

// Save persists mp3 audio under a freshly generated name and returns that
// name, of the form "<uuid>.mp3".
func (s *Store) Save(audio []byte) (string, error) {
	name := uuid.NewString() + ".mp3"
	if err := os.WriteFile(filepath.Join(s.dir, name), audio, 0o644); err != nil {
		return "", fmt.Errorf("artifact: save %q: %w", name, err)
	}
	return name, nil
}

// Open returns the stored artifact bytes for a name previously returned by
// Save. Names containing path separators or traversal components are treated
// as not found.
func (s *Store) Open(name string) ([]byte, error) {
	if !validName(name) {
		return nil, ErrNotFound
	}
	data, err := os.ReadFile(filepath.Join(s.dir, name))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("artifact: open %q: %w", name, err)
	}
	return data, nil
}

func validName(name string) bool {
	if name == "" || name != filepath.Base(name) {
		return false
	}
	return !strings.ContainsAny(name, "/\\") && name != "." && name != ".."
}
