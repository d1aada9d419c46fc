package repositories

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/dgraph-io/badger/v4"
)

// BadgerStore implements Store on a Badger key/value database. Every unit of
// work is one Badger transaction, so uniqueness and reference checks made by
// the repositories are validated again at commit time.
type BadgerStore struct {
	db *badger.DB
}

// NewBadgerStore opens (or creates) a Badger database at path. An empty path
// opens an in-memory database.
func NewBadgerStore(path string, verbose bool) (*BadgerStore, error) {
	var opts badger.Options
	if path == "" {
		opts = badger.DefaultOptions("").WithInMemory(true)
	} else {
		if err := os.MkdirAll(path, 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
		opts = badger.DefaultOptions(path)
	}
	if !verbose {
		opts = opts.WithLogger(nil)
	}
	db, err := badger.Open(opts.WithNumVersionsToKeep(1))
	if err != nil {
		return nil, err
	}
	return &BadgerStore{db: db}, nil
}

// NewBadgerStoreWithDB wraps an already opened Badger database.
func NewBadgerStoreWithDB(db *badger.DB) *BadgerStore {
	return &BadgerStore{db: db}
}

// Update runs fn inside a read-write transaction.
func (s *BadgerStore) Update(fn func(tx Tx) error) error {
	err := s.db.Update(func(txn *badger.Txn) error {
		return fn(&badgerTx{txn: txn})
	})
	if errors.Is(err, badger.ErrConflict) {
		return ErrConflict
	}
	return err
}

// View runs fn inside a read-only transaction.
func (s *BadgerStore) View(fn func(tx Tx) error) error {
	return s.db.View(func(txn *badger.Txn) error {
		return fn(&badgerTx{txn: txn})
	})
}

// Backup streams a full backup of the database to w.
func (s *BadgerStore) Backup(w io.Writer) error {
	_, err := s.db.Backup(w, 0)
	return err
}

// Load restores a backup produced by Backup.
func (s *BadgerStore) Load(r io.Reader) error {
	return s.db.Load(r, 4)
}

// Clear drops every key. Used by tests and "db clean".
func (s *BadgerStore) Clear() error {
	return s.db.DropAll()
}

func (s *BadgerStore) Close() error {
	return s.db.Close()
}

type badgerTx struct {
	txn *badger.Txn
}

func (t *badgerTx) Users() UserRepository {
	return &BadgerUserRepository{txn: t.txn}
}

func (t *badgerTx) Posts() PostRepository {
	return &BadgerPostRepository{txn: t.txn}
}

func (t *badgerTx) Comments() CommentRepository {
	return &BadgerCommentRepository{txn: t.txn}
}
