// Package badgerstore keeps readings in an embedded badger database, keyed
// by creation time so iteration order is time order.
package badgerstore

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/dgraph-io/badger/v4"

	"sensor-dashboard/backend/internal/sensor"
	"sensor-dashboard/backend/internal/store"
	"sensor-dashboard/backend/pkg/utils"
)

var readingPrefix = []byte("reading/")

type Store struct {
	db *badger.DB
	l  *slog.Logger
}

// Open opens the database in dir. An empty dir keeps everything in memory.
func Open(l *slog.Logger, dir string) (*Store, error) {
	l = l.With(slog.String("component", "badger-store"))

	opts := badger.DefaultOptions(dir).WithLogger(&badgerLogger{l: l})
	if dir == "" {
		opts = opts.WithInMemory(true)
	}

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open badger database: %w", err)
	}

	return &Store{db: db, l: l}, nil
}

func (s *Store) Kind() store.Kind {
	return store.KindBadger
}

// key is prefix | big-endian unix nanos | id, so keys sort by time and
// readings sharing a timestamp do not overwrite each other.
func key(createdAt time.Time, id string) []byte {
	k := make([]byte, 0, len(readingPrefix)+8+len(id))
	k = append(k, readingPrefix...)
	k = binary.BigEndian.AppendUint64(k, uint64(createdAt.UnixNano()))

	return append(k, id...)
}

func decode(item *badger.Item) (sensor.Row, error) {
	var r sensor.Row

	err := item.Value(func(val []byte) error {
		var err error
		r, err = utils.FromJSON[sensor.Row](val)

		return err
	})
	if err != nil {
		return sensor.Row{}, fmt.Errorf("failed to decode reading %x: %w", item.Key(), err)
	}

	return r, nil
}

func (s *Store) Latest(_ context.Context) (sensor.Row, error) {
	var r sensor.Row

	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Reverse = true
		opts.Prefix = readingPrefix

		it := txn.NewIterator(opts)
		defer it.Close()

		// Reverse iteration must start past the last key of the prefix.
		it.Seek(append(append([]byte{}, readingPrefix...), 0xFF))

		if !it.ValidForPrefix(readingPrefix) {
			return store.ErrNoData
		}

		var err error
		r, err = decode(it.Item())

		return err
	})

	return r, err
}

func (s *Store) Since(ctx context.Context, since time.Time) ([]sensor.Row, error) {
	out := []sensor.Row{}

	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = readingPrefix

		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Seek(key(since, "")); it.ValidForPrefix(readingPrefix); it.Next() {
			if err := ctx.Err(); err != nil {
				return err
			}

			r, err := decode(it.Item())
			if err != nil {
				return err
			}

			out = append(out, r)
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	return out, nil
}

func (s *Store) Insert(_ context.Context, r sensor.Row) error {
	if err := r.Validate(); err != nil {
		return fmt.Errorf("invalid reading: %w", err)
	}

	if r.ID == "" {
		r.ID = utils.NewUUID()
	}

	r.CreatedAt = r.CreatedAt.UTC()

	val, err := utils.ToJSON(r)
	if err != nil {
		return fmt.Errorf("failed to encode reading: %w", err)
	}

	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Set(key(r.CreatedAt, r.ID), val)
	})
}

func (s *Store) Ping(_ context.Context) error {
	if s.db.IsClosed() {
		return errors.New("badger database is closed")
	}

	return nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// badgerLogger routes badger's printf style logs to slog.
type badgerLogger struct {
	l *slog.Logger
}

func (b *badgerLogger) Errorf(format string, args ...any) {
	b.l.Error(line(format, args...))
}

func (b *badgerLogger) Warningf(format string, args ...any) {
	b.l.Warn(line(format, args...))
}

func (b *badgerLogger) Infof(format string, args ...any) {
	b.l.Debug(line(format, args...))
}

func (b *badgerLogger) Debugf(format string, args ...any) {
	b.l.Debug(line(format, args...))
}

func line(format string, args ...any) string {
	return strings.TrimSpace(fmt.Sprintf(format, args...))
}
