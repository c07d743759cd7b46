package storage

import (
	"errors"
	"fmt"
	"strings"

	"github.com/dgraph-io/badger/v4"
	"github.com/rs/zerolog"

	"todocli/internal/logging"
)

// BadgerStore implements Store on an embedded BadgerDB.
type BadgerStore struct {
	db *badger.DB
}

// OpenBadger opens (or creates) a store in dir.
func OpenBadger(dir string) (*BadgerStore, error) {
	opts := badger.DefaultOptions(dir).WithLogger(newBadgerLogger())
	return openBadger(opts)
}

// OpenBadgerInMemory opens a store that never touches disk.
func OpenBadgerInMemory() (*BadgerStore, error) {
	opts := badger.DefaultOptions("").WithInMemory(true).WithLogger(newBadgerLogger())
	return openBadger(opts)
}

func openBadger(opts badger.Options) (*BadgerStore, error) {
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}
	return &BadgerStore{db: db}, nil
}

// Get implements Store.
func (s *BadgerStore) Get(key string) (string, bool, error) {
	var value string
	found := false

	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(key))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			value = string(val)
			found = true
			return nil
		})
	})
	if err != nil {
		return "", false, wrapBadgerErr("get "+key, err)
	}
	return value, found, nil
}

// Set implements Store.
func (s *BadgerStore) Set(key, value string) error {
	err := s.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(key), []byte(value))
	})
	return wrapBadgerErr("set "+key, err)
}

// Remove implements Store.
func (s *BadgerStore) Remove(keys ...string) error {
	err := s.db.Update(func(txn *badger.Txn) error {
		for _, k := range keys {
			if err := txn.Delete([]byte(k)); err != nil && !errors.Is(err, badger.ErrKeyNotFound) {
				return err
			}
		}
		return nil
	})
	return wrapBadgerErr("remove "+strings.Join(keys, ","), err)
}

// Close implements Store.
func (s *BadgerStore) Close() error {
	return s.db.Close()
}

func wrapBadgerErr(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, badger.ErrDBClosed) {
		return ErrClosed
	}
	return fmt.Errorf("store %s: %w", op, err)
}

// badgerLogger routes badger's internal logging into zerolog. Badger is chatty at
// info level, so info and debug go to trace.
type badgerLogger struct {
	l zerolog.Logger
}

func newBadgerLogger() *badgerLogger {
	return &badgerLogger{l: logging.With().Str("component", "badger").Logger()}
}

func (b *badgerLogger) Errorf(format string, args ...interface{}) {
	b.l.Error().Msgf(strings.TrimSpace(format), args...)
}

func (b *badgerLogger) Warningf(format string, args ...interface{}) {
	b.l.Warn().Msgf(strings.TrimSpace(format), args...)
}

func (b *badgerLogger) Infof(format string, args ...interface{}) {
	b.l.Trace().Msgf(strings.TrimSpace(format), args...)
}

func (b *badgerLogger) Debugf(format string, args ...interface{}) {
	b.l.Trace().Msgf(strings.TrimSpace(format), args...)
}
