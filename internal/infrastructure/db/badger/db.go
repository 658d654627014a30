package badgerdb

import (
	"errors"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/dgraph-io/badger/v4/options"
	log "github.com/sirupsen/logrus"
	"github.com/timshannon/badgerhold/v4"
)

const (
	maxTxRetries  = 5
	txRetryDelay  = 10 * time.Millisecond
	gcInterval    = 30 * time.Minute
	gcDiscardRate = 0.5
)

// createDB opens a badgerhold store in dir, or in memory if dir is empty.
func createDB(dir string, logger badger.Logger) (*badgerhold.Store, error) {
	isInMemory := len(dir) <= 0

	opts := badger.DefaultOptions(dir)
	opts.Logger = logger
	if isInMemory {
		opts.InMemory = true
	} else {
		opts.Compression = options.ZSTD
	}

	store, err := badgerhold.Open(badgerhold.Options{
		Encoder:          badgerhold.DefaultEncode,
		Decoder:          badgerhold.DefaultDecode,
		SequenceBandwith: 100,
		Options:          opts,
	})
	if err != nil {
		return nil, err
	}

	if !isInMemory {
		go runValueLogGC(store)
	}
	return store, nil
}

func runValueLogGC(store *badgerhold.Store) {
	ticker := time.NewTicker(gcInterval)
	defer ticker.Stop()
	for range ticker.C {
		if store.Badger().IsClosed() {
			return
		}
		if err := store.Badger().RunValueLogGC(gcDiscardRate); err != nil &&
			!errors.Is(err, badger.ErrNoRewrite) && !errors.Is(err, badger.ErrRejected) {
			log.WithError(err).Warn("badger value log gc failed")
		}
	}
}

// update runs fn in a read-write transaction, retrying on conflicts with
// concurrent transactions.
func update(store *badgerhold.Store, fn func(tx *badger.Txn) error) error {
	var err error
	for i := 0; i < maxTxRetries; i++ {
		err = store.Badger().Update(fn)
		if !errors.Is(err, badger.ErrConflict) {
			return err
		}
		time.Sleep(txRetryDelay)
	}
	return err
}

func view(store *badgerhold.Store, fn func(tx *badger.Txn) error) error {
	return store.Badger().View(fn)
}

type logger struct {
	entry *log.Entry
}

// NewLogger returns a badger logger writing to logrus. Badger info messages
// are logged at debug level.
func NewLogger() badger.Logger {
	return &logger{log.WithField("db", "badger")}
}

func (l *logger) Errorf(format string, args ...interface{}) {
	l.entry.Errorf(format, args...)
}

func (l *logger) Warningf(format string, args ...interface{}) {
	l.entry.Warnf(format, args...)
}

func (l *logger) Infof(format string, args ...interface{}) {
	l.entry.Debugf(format, args...)
}

func (l *logger) Debugf(format string, args ...interface{}) {
	l.entry.Tracef(format, args...)
}

func toMillis(t time.Time) int64 {
	if t.IsZero() {
		return 0
	}
	return t.UnixMilli()
}

func fromMillis(ms int64) time.Time {
	if ms == 0 {
		return time.Time{}
	}
	return time.UnixMilli(ms)
}

func toMillisPtr(t *time.Time) int64 {
	if t == nil {
		return 0
	}
	return t.UnixMilli()
}

func fromMillisPtr(ms int64) *time.Time {
	if ms == 0 {
		return nil
	}
	t := time.UnixMilli(ms)
	return &t
}
