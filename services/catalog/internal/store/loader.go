package store

import (
	"context"
	"sync/atomic"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

// Store owns the in-memory catalog snapshot. The first successful load is kept
// for the lifetime of the process; failed loads are retried on the next call.
type Store struct {
	src    Source
	log    *zap.Logger
	onLoad func(error)

	group singleflight.Group
	db    atomic.Pointer[Database]
}

type Option func(*Store)

// WithOnLoad registers fn to be called after every load attempt that reached the source.
func WithOnLoad(fn func(error)) Option {
	return func(s *Store) { s.onLoad = fn }
}

func New(src Source, log *zap.Logger, opts ...Option) *Store {
	if log == nil {
		log = zap.NewNop()
	}
	s := &Store{src: src, log: log}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Load returns the cached dataset, reading it from the source on first use.
// Concurrent callers share a single in-flight read.
func (s *Store) Load(ctx context.Context) (*Database, error) {
	if db := s.db.Load(); db != nil {
		return db, nil
	}

	v, err, _ := s.group.Do("dataset", func() (any, error) {
		if db := s.db.Load(); db != nil {
			return db, nil
		}
		// One abandoned request must not fail the load shared by the others.
		db, err := s.src.Load(context.WithoutCancel(ctx))
		if s.onLoad != nil {
			s.onLoad(err)
		}
		if err != nil {
			s.log.Error("load anime database", zap.String("source", s.src.Name()), zap.Error(err))
			return nil, err
		}
		s.db.Store(db)
		s.log.Info("anime database loaded",
			zap.String("source", s.src.Name()),
			zap.Int("entries", len(db.Data)),
			zap.String("last_update", db.LastUpdate),
		)
		return db, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*Database), nil
}

// Loaded reports whether a snapshot is available.
func (s *Store) Loaded() bool {
	return s.db.Load() != nil
}
