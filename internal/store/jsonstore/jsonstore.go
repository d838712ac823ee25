package jsonstore

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/sirupsen/logrus"

	"github.com/idilsaglam/kanban/internal/store"
)

// JSON-backed storage. One file per collection, human-readable, portable.
// No locking; last writer wins, fine for a local single-user tool.

const fileExt = ".json"

// Store keeps each key in <dir>/<key>.json.
type Store struct {
	dir string
	log logrus.FieldLogger
}

// New returns a Store rooted at dir. The directory is created on first Save.
func New(dir string, log logrus.FieldLogger) *Store {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Store{dir: dir, log: log}
}

func (s *Store) dataPath(key string) (string, error) {
	if err := store.CheckKey(key); err != nil {
		return "", err
	}
	return filepath.Join(s.dir, key+fileExt), nil
}

func (s *Store) Load(ctx context.Context, key string, dst any) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	p, err := s.dataPath(key)
	if err != nil {
		return false, err
	}
	b, err := os.ReadFile(p)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return false, nil
		}
		return false, fmt.Errorf("read file: %w", err)
	}
	if len(b) == 0 {
		return false, nil
	}
	if err := store.Unmarshal(b, dst); err != nil {
		s.log.WithFields(logrus.Fields{"key": key, "path": p}).WithError(err).
			Warn("stored collection is not parseable, treating as absent")
		return false, nil
	}
	return true, nil
}

// Save writes through a temp file and a rename so readers never observe a
// half-written collection.
func (s *Store) Save(ctx context.Context, key string, value any) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	p, err := s.dataPath(key)
	if err != nil {
		return err
	}
	b, err := store.Marshal(value)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(s.dir, 0o700); err != nil {
		return fmt.Errorf("mkdir: %w", err)
	}
	tmp, err := os.CreateTemp(s.dir, key+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(b); err != nil {
		tmp.Close()
		return fmt.Errorf("write file: %w", err)
	}
	if err := tmp.Chmod(0o600); err != nil {
		tmp.Close()
		return fmt.Errorf("chmod: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close: %w", err)
	}
	if err := os.Rename(tmp.Name(), p); err != nil {
		return fmt.Errorf("rename: %w", err)
	}
	s.log.WithFields(logrus.Fields{"key": key, "bytes": len(b)}).Debug("collection saved")
	return nil
}
