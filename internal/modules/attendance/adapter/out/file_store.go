package out

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/gofrs/flock"

	"officetime/internal/platform/logging"
)

// FileStore keeps all keys in one JSON object on disk. Every access holds an
// advisory lock on a sibling .lock file, so several processes can share the
// store, and every write goes through a temp file and a rename.
type FileStore struct {
	path string
	lock *flock.Flock
	mu   sync.Mutex
}

func NewFileStore(path string) *FileStore {
	return &FileStore{path: path, lock: flock.New(path + ".lock")}
}

func (s *FileStore) Get(ctx context.Context, key string) (string, bool, error) {
	var (
		v  string
		ok bool
	)
	err := s.locked(ctx, func(values map[string]string) (bool, error) {
		v, ok = values[key]
		return false, nil
	})
	return v, ok, err
}

func (s *FileStore) Set(ctx context.Context, key, value string) error {
	return s.locked(ctx, func(values map[string]string) (bool, error) {
		values[key] = value
		return true, nil
	})
}

func (s *FileStore) Remove(ctx context.Context, key string) error {
	return s.locked(ctx, func(values map[string]string) (bool, error) {
		if _, ok := values[key]; !ok {
			return false, nil
		}
		delete(values, key)
		return true, nil
	})
}

// locked runs fn on the decoded document under both the process mutex and the
// file lock, and saves the document when fn reports a change.
func (s *FileStore) locked(ctx context.Context, fn func(map[string]string) (bool, error)) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("create store dir: %w", err)
	}
	if err := s.lock.Lock(); err != nil {
		return fmt.Errorf("lock store: %w", err)
	}
	defer func() { _ = s.lock.Unlock() }()

	values, err := s.load(ctx)
	if err != nil {
		return err
	}
	changed, err := fn(values)
	if err != nil || !changed {
		return err
	}
	return s.save(values)
}

// load moves an undecodable file aside to <path>.corrupt and starts over
// with an empty document.
func (s *FileStore) load(ctx context.Context) (map[string]string, error) {
	payload, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return map[string]string{}, nil
		}
		return nil, fmt.Errorf("read store: %w", err)
	}
	values := map[string]string{}
	if len(payload) == 0 {
		return values, nil
	}
	if err := json.Unmarshal(payload, &values); err != nil {
		aside := s.path + ".corrupt"
		logging.FromContext(ctx).Error().Err(err).Str("path", s.path).Str("moved_to", aside).
			Msg("store file is corrupt, starting empty")
		if err := os.Rename(s.path, aside); err != nil {
			return nil, fmt.Errorf("move corrupt store aside: %w", err)
		}
		return map[string]string{}, nil
	}
	return values, nil
}

func (s *FileStore) save(values map[string]string) error {
	payload, err := json.MarshalIndent(values, "", "  ")
	if err != nil {
		return fmt.Errorf("encode store: %w", err)
	}
	tmp, err := os.CreateTemp(filepath.Dir(s.path), filepath.Base(s.path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp store: %w", err)
	}
	defer func() { _ = os.Remove(tmp.Name()) }()
	if _, err := tmp.Write(payload); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("write store: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("write store: %w", err)
	}
	if err := os.Chmod(tmp.Name(), 0o644); err != nil {
		return fmt.Errorf("write store: %w", err)
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		return fmt.Errorf("replace store: %w", err)
	}
	return nil
}
