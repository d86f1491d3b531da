package core

import (
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/JonMunkholm/csvedit/internal/config"
	"github.com/JonMunkholm/csvedit/internal/logging"
	"github.com/google/uuid"
)

// Service owns one Document per session and applies user actions to it.
//
// Actions on the same session run one at a time, the way a single browser
// tab issues them. Each action reads the session from the Store, applies one
// Document operation and writes the result back.
type Service struct {
	store       Store
	limiter     *LoadLimiter
	maxFileSize int64
	locks       *sessionLocks

	now func() time.Time
}

// NewService creates a Service backed by store.
func NewService(store Store, cfg *config.Config) *Service {
	return &Service{
		store:       store,
		limiter:     NewLoadLimiter(cfg.Upload.MaxConcurrent, cfg.Upload.MaxWaitTime),
		maxFileSize: cfg.Upload.MaxFileSize,
		locks:       newSessionLocks(),
		now:         time.Now,
	}
}

// Load reads a file and replaces the session's document with its contents.
// An empty sessionID starts a new session. If reading fails the session
// keeps its previous document.
func (s *Service) Load(ctx context.Context, sessionID, fileName string, r io.Reader) (*Session, error) {
	if err := s.limiter.Acquire(ctx); err != nil {
		return nil, fmt.Errorf("load %q: %w", fileName, err)
	}
	defer s.limiter.Release()

	start := s.now()
	text, err := ReadText(ctx, r, s.maxFileSize)
	if err != nil {
		return nil, fmt.Errorf("load %q: %w", fileName, err)
	}

	doc := Parse(text)
	doc.Name = fileName

	if sessionID == "" {
		sessionID = uuid.NewString()
	}

	unlock := s.locks.lock(sessionID)
	defer unlock()

	sess := &Session{ID: sessionID, Document: doc, UpdatedAt: s.now()}
	if err := s.store.Put(ctx, sess); err != nil {
		return nil, fmt.Errorf("load %q: %w", fileName, err)
	}

	logging.WithFields(ctx, "session_id", sessionID).Info("file loaded",
		"file", fileName,
		"headers", len(doc.Headers),
		"rows", len(doc.Rows),
		"duration_ms", s.now().Sub(start).Milliseconds(),
	)
	return sess, nil
}

// Session returns the current state of a session.
func (s *Service) Session(ctx context.Context, id string) (*Session, error) {
	if id == "" {
		return nil, ErrSessionNotFound
	}
	return s.store.Get(ctx, id)
}

// BeginEdit marks a row of the session's document as being edited.
func (s *Service) BeginEdit(ctx context.Context, id string, rowID uuid.UUID) (*Session, error) {
	return s.update(ctx, id, func(d *Document) error {
		return d.BeginEdit(rowID)
	})
}

// CommitEdit merges draft into the row under edit.
func (s *Service) CommitEdit(ctx context.Context, id string, draft Draft) (*Session, error) {
	return s.update(ctx, id, func(d *Document) error {
		return d.CommitEdit(draft)
	})
}

// CancelEdit drops the edit state of the session's document.
func (s *Service) CancelEdit(ctx context.Context, id string) (*Session, error) {
	return s.update(ctx, id, func(d *Document) error {
		d.CancelEdit()
		return nil
	})
}

// DeleteRow removes one row by ID.
func (s *Service) DeleteRow(ctx context.Context, id string, rowID uuid.UUID) (*Session, error) {
	return s.update(ctx, id, func(d *Document) error {
		return d.Delete(rowID)
	})
}

// AddRow appends a row built from draft and returns it.
func (s *Service) AddRow(ctx context.Context, id string, draft Draft) (Record, error) {
	var rec Record
	_, err := s.update(ctx, id, func(d *Document) error {
		rec = d.Add(draft)
		return nil
	})
	return rec, err
}

// Export serializes the session's document.
func (s *Service) Export(ctx context.Context, id string) (string, error) {
	sess, err := s.Session(ctx, id)
	if err != nil {
		return "", err
	}
	return sess.Document.String(), nil
}

// ExportXLSX writes the session's document as a workbook.
func (s *Service) ExportXLSX(ctx context.Context, id string, w io.Writer) error {
	sess, err := s.Session(ctx, id)
	if err != nil {
		return err
	}
	return WriteXLSX(sess.Document, w)
}

// Summary describes every column of the session's document.
func (s *Service) Summary(ctx context.Context, id string) ([]ColumnSummary, error) {
	sess, err := s.Session(ctx, id)
	if err != nil {
		return nil, err
	}
	return Summarize(sess.Document), nil
}

// Discard deletes a session.
func (s *Service) Discard(ctx context.Context, id string) error {
	unlock := s.locks.lock(id)
	defer unlock()
	return s.store.Delete(ctx, id)
}

// SweepIdle deletes sessions not touched within ttl.
func (s *Service) SweepIdle(ctx context.Context, ttl time.Duration) (int64, error) {
	return s.store.DeleteIdleSince(ctx, s.now().Add(-ttl))
}

// LoadLimiterStatus reports load slot usage.
func (s *Service) LoadLimiterStatus() LoadLimiterStatus {
	return s.limiter.Status()
}

// WaitForLoads blocks until in-flight loads finish or ctx is done.
func (s *Service) WaitForLoads(ctx context.Context) error {
	return s.limiter.WaitForDrain(ctx)
}

// update runs fn against the stored document under the session lock and
// saves the result. The document is saved even when fn fails, since a failed
// commit still clears the edit state.
func (s *Service) update(ctx context.Context, id string, fn func(*Document) error) (*Session, error) {
	if id == "" {
		return nil, ErrSessionNotFound
	}

	unlock := s.locks.lock(id)
	defer unlock()

	sess, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	opErr := fn(sess.Document)

	sess.UpdatedAt = s.now()
	if err := s.store.Put(ctx, sess); err != nil {
		return nil, fmt.Errorf("save session %s: %w", id, err)
	}

	if opErr != nil {
		logging.WithFields(ctx, "session_id", id).Debug("action rejected", "error", opErr)
		return sess, opErr
	}
	return sess, nil
}

// sessionLocks hands out one mutex per session ID and forgets it once no
// caller holds or waits on it.
type sessionLocks struct {
	mu    sync.Mutex
	locks map[string]*sessionLock
}

type sessionLock struct {
	sync.Mutex
	refs int
}

func newSessionLocks() *sessionLocks {
	return &sessionLocks{locks: make(map[string]*sessionLock)}
}

func (l *sessionLocks) lock(id string) (unlock func()) {
	l.mu.Lock()
	sl, ok := l.locks[id]
	if !ok {
		sl = &sessionLock{}
		l.locks[id] = sl
	}
	sl.refs++
	l.mu.Unlock()

	sl.Lock()
	return func() {
		sl.Unlock()
		l.mu.Lock()
		sl.refs--
		if sl.refs == 0 {
			delete(l.locks, id)
		}
		l.mu.Unlock()
	}
}
