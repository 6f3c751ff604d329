package inmemdb

import (
	"context"
	"time"

	"github.com/trezcool/classbook/core/session"
)

type sessionStore struct {
	db *sessionTable
}

var _ session.Store = (*sessionStore)(nil) // interface compliance check

func NewSessionStore(db *DB) session.Store {
	return &sessionStore{db: db.session}
}

func copySession(s session.Session) *session.Session {
	if s.Viewing != nil {
		v := *s.Viewing
		s.Viewing = &v
	}
	return &s
}

func (store *sessionStore) Create(_ context.Context, s session.Session) error {
	store.db.Lock()
	defer store.db.Unlock()

	store.db.table[s.ID] = copySession(s)
	return nil
}

func (store *sessionStore) Get(_ context.Context, id string) (session.Session, error) {
	store.db.RLock()
	defer store.db.RUnlock()

	if s, ok := store.db.table[id]; ok {
		return *copySession(*s), nil
	}
	return session.Session{}, session.ErrNotFound
}

func (store *sessionStore) Update(_ context.Context, s session.Session) error {
	store.db.Lock()
	defer store.db.Unlock()

	if _, ok := store.db.table[s.ID]; !ok {
		return session.ErrNotFound
	}
	store.db.table[s.ID] = copySession(s)
	return nil
}

func (store *sessionStore) Delete(_ context.Context, id string) error {
	store.db.Lock()
	defer store.db.Unlock()

	if _, ok := store.db.table[id]; !ok {
		return session.ErrNotFound
	}
	delete(store.db.table, id)
	return nil
}

func (store *sessionStore) DeleteExpired(_ context.Context, now time.Time) (int, error) {
	store.db.Lock()
	defer store.db.Unlock()

	n := 0
	for id, s := range store.db.table {
		if s.Expired(now) {
			delete(store.db.table, id)
			n++
		}
	}
	return n, nil
}
