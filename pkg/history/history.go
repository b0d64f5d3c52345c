package history

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	bolt "go.etcd.io/bbolt"
)

// maxEntries caps the per-profile MRU list.
const maxEntries = 20

var bucketPaths = []byte("path_history")

// Store persists per-profile path history in a local BoltDB file.
type Store struct {
	db *bolt.DB
}

// DefaultPath returns the history database location under the user
// config directory, next to the config file.
func DefaultPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("failed to resolve user config directory: %w", err)
	}
	return filepath.Join(dir, "etcdmate", "history.db"), nil
}

// Open opens (creating if needed) the history database.
func Open(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	db, err := bolt.Open(path, 0600, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to open history database: %w", err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(bucketPaths)
		return err
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create bucket: %w", err)
	}

	return &Store{db: db}, nil
}

// Close closes the database
func (s *Store) Close() error {
	return s.db.Close()
}

// Get returns the path history for a profile, most recent first. An
// unknown profile yields an empty list.
func (s *Store) Get(profile string) ([]string, error) {
	var paths []string
	err := s.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketPaths)
		data := b.Get([]byte(profile))
		if data == nil {
			return nil
		}
		return json.Unmarshal(data, &paths)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to read history for %q: %w", profile, err)
	}
	if paths == nil {
		paths = []string{}
	}
	return paths, nil
}

// Save records a visited path for a profile: duplicates move to the
// front and the list is truncated to the most recent entries. The
// updated list is returned.
func (s *Store) Save(profile, path string) ([]string, error) {
	var updated []string
	err := s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketPaths)

		var paths []string
		if data := b.Get([]byte(profile)); data != nil {
			if err := json.Unmarshal(data, &paths); err != nil {
				// Corrupt entry; start the list over rather than fail the save
				paths = nil
			}
		}

		updated = make([]string, 0, len(paths)+1)
		updated = append(updated, path)
		for _, p := range paths {
			if p != path {
				updated = append(updated, p)
			}
		}
		if len(updated) > maxEntries {
			updated = updated[:maxEntries]
		}

		data, err := json.Marshal(updated)
		if err != nil {
			return err
		}
		return b.Put([]byte(profile), data)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to save history for %q: %w", profile, err)
	}
	return updated, nil
}

// Delete removes the history list for a profile.
func (s *Store) Delete(profile string) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketPaths)
		return b.Delete([]byte(profile))
	})
}
