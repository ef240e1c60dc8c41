package storage

import (
	"context"
	stderrors "errors"
	"os"
	"path/filepath"

	"github.com/tidwall/buntdb"

	"github.com/felixgeelhaar/retailctl/internal/errors"
)

// InMemoryPath opens a buntdb database that is never written to disk.
const InMemoryPath = ":memory:"

// BuntStorage stores keys in a buntdb file. buntdb appends every write to
// its log and fsyncs once per second, so a value set by one command is
// visible to the next process.
type BuntStorage struct {
	db   *buntdb.DB
	path string
}

// OpenBunt opens (or creates) the database at path. Missing parent
// directories are created with owner-only permissions and the file itself
// is kept at 0600 since it holds the bearer token.
func OpenBunt(path string) (*BuntStorage, error) {
	if path != InMemoryPath {
		if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
			return nil, errors.Wrap(errors.ErrCodeStorageOpen, "failed to create storage directory", err)
		}
		if err := restrictFile(path); err != nil {
			return nil, errors.Wrap(errors.ErrCodeStorageOpen, "failed to secure storage "+path, err)
		}
	}

	db, err := buntdb.Open(path)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeStorageOpen, "failed to open storage "+path, err).
			WithSuggestion("Check the --storage path or remove a corrupted session file")
	}
	return &BuntStorage{db: db, path: path}, nil
}

// restrictFile creates path with mode 0600 if missing and tightens an
// existing file to 0600.
func restrictFile(path string) error {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_RDWR, 0o600)
	if err != nil {
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	return os.Chmod(path, 0o600)
}

// Path returns the database location.
func (b *BuntStorage) Path() string { return b.path }

// Get returns the value stored under key.
func (b *BuntStorage) Get(ctx context.Context, key string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	var value string
	err := b.db.View(func(tx *buntdb.Tx) error {
		v, err := tx.Get(key)
		if err != nil {
			return err
		}
		value = v
		return nil
	})
	if stderrors.Is(err, buntdb.ErrNotFound) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", errors.Wrap(errors.ErrCodeStorageRead, "failed to read "+key, err)
	}
	return value, nil
}

// Set stores value under key.
func (b *BuntStorage) Set(ctx context.Context, key, value string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	err := b.db.Update(func(tx *buntdb.Tx) error {
		_, _, err := tx.Set(key, value, nil)
		return err
	})
	if err != nil {
		return errors.Wrap(errors.ErrCodeStorageWrite, "failed to write "+key, err)
	}
	return nil
}

// Delete removes keys in a single transaction.
func (b *BuntStorage) Delete(ctx context.Context, keys ...string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	err := b.db.Update(func(tx *buntdb.Tx) error {
		for _, k := range keys {
			if _, err := tx.Delete(k); err != nil && !stderrors.Is(err, buntdb.ErrNotFound) {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return errors.Wrap(errors.ErrCodeStorageWrite, "failed to delete keys", err)
	}
	return nil
}

// Close flushes and closes the database.
func (b *BuntStorage) Close() error {
	return b.db.Close()
}
