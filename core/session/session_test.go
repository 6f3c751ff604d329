package session

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/classbook/core/dashboard"
	"github.com/trezcool/classbook/core/user"
)

type fakeStore struct {
	mu         sync.Mutex
	sessions   map[string]Session
	expiredErr error
}

func newFakeStore() *fakeStore {
	return &fakeStore{sessions: make(map[string]Session)}
}

func (st *fakeStore) Create(_ context.Context, s Session) error {
	st.mu.Lock()
	defer st.mu.Unlock()
	st.sessions[s.ID] = s
	return nil
}

func (st *fakeStore) Get(_ context.Context, id string) (Session, error) {
	st.mu.Lock()
	defer st.mu.Unlock()
	if s, ok := st.sessions[id]; ok {
		return s, nil
	}
	return Session{}, ErrNotFound
}

func (st *fakeStore) Update(_ context.Context, s Session) error {
	st.mu.Lock()
	defer st.mu.Unlock()
	if _, ok := st.sessions[s.ID]; !ok {
		return ErrNotFound
	}
	st.sessions[s.ID] = s
	return nil
}

func (st *fakeStore) Delete(_ context.Context, id string) error {
	st.mu.Lock()
	defer st.mu.Unlock()
	if _, ok := st.sessions[id]; !ok {
		return ErrNotFound
	}
	delete(st.sessions, id)
	return nil
}

func (st *fakeStore) DeleteExpired(_ context.Context, now time.Time) (int, error) {
	st.mu.Lock()
	defer st.mu.Unlock()
	if st.expiredErr != nil {
		return 0, st.expiredErr
	}
	n := 0
	for id, s := range st.sessions {
		if s.Expired(now) {
			delete(st.sessions, id)
			n++
		}
	}
	return n, nil
}

func (st *fakeStore) len() int {
	st.mu.Lock()
	defer st.mu.Unlock()
	return len(st.sessions)
}

type fakeLogger struct {
	mu     sync.Mutex
	errors []string
}

func (l *fakeLogger) Debug(string, ...interface{}) {}
func (l *fakeLogger) Info(string, ...interface{})  {}
func (l *fakeLogger) Warn(string, ...interface{})  {}
func (l *fakeLogger) Fatal(string, ...interface{}) {}

func (l *fakeLogger) Error(msg string, _ ...interface{}) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.errors = append(l.errors, msg)
}

func (l *fakeLogger) errorCount() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.errors)
}

type fakeWards map[string][]user.Ward

func (fw fakeWards) Ward(_ context.Context, username, wardID string) (user.Ward, error) {
	wards, ok := fw[username]
	if !ok {
		return user.Ward{}, user.ErrNotParent
	}
	for _, w := range wards {
		if w.ID == wardID {
			return w, nil
		}
	}
	return user.Ward{}, user.ErrWardNotFound
}

var (
	teacher = user.Account{Username: "teacher", Role: user.RoleTeacher}
	parent  = user.Account{Username: "parent", Role: user.RoleParent}
	rahul   = user.Ward{ID: "1", Name: "Rahul Kumar", Class: "Grade 3", Section: "A"}
)

func newTestService() (*Service, *fakeStore) {
	store := newFakeStore()
	wards := fakeWards{"parent": {rahul}}
	return NewService(store, wards, time.Hour), store
}

func TestService_Start(t *testing.T) {
	svc, store := newTestService()

	tests := []struct {
		name    string
		acc     user.Account
		wantErr error
	}{
		{name: "teacher", acc: teacher},
		{name: "parent", acc: parent},
		{name: "no username", acc: user.Account{Role: user.RoleStudent}, wantErr: ErrInvalidAccount},
		{name: "bad role", acc: user.Account{Username: "admin", Role: "admin"}, wantErr: ErrInvalidAccount},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := svc.Start(context.Background(), tt.acc)
			if err != tt.wantErr {
				t.Fatalf("Start() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil {
				return
			}
			assert.NotEmpty(t, s.ID)
			assert.Equal(t, tt.acc.Role, s.Role)
			assert.Equal(t, time.Hour, s.ExpiresAt.Sub(s.CreatedAt))
			assert.Nil(t, s.Viewing)
			assert.Contains(t, store.sessions, s.ID)
		})
	}
}

func TestService_Get(t *testing.T) {
	now := time.Date(2024, 1, 1, 8, 0, 0, 0, time.UTC)
	defer func(f func() time.Time) { NowFunc = f }(NowFunc)
	NowFunc = func() time.Time { return now }

	svc, store := newTestService()
	s, err := svc.Start(context.Background(), teacher)
	require.NoError(t, err)

	got, err := svc.Get(context.Background(), s.ID)
	require.NoError(t, err)
	assert.Equal(t, s, got)

	_, err = svc.Get(context.Background(), "unknown")
	assert.Equal(t, ErrNotFound, err)

	now = now.Add(time.Hour)
	_, err = svc.Get(context.Background(), s.ID)
	assert.Equal(t, ErrNotFound, err)
	assert.NotContains(t, store.sessions, s.ID)
}

func TestService_End(t *testing.T) {
	svc, _ := newTestService()
	s, err := svc.Start(context.Background(), teacher)
	require.NoError(t, err)

	require.NoError(t, svc.End(context.Background(), s.ID))
	_, err = svc.Get(context.Background(), s.ID)
	assert.Equal(t, ErrNotFound, err)
	assert.Equal(t, ErrNotFound, svc.End(context.Background(), s.ID))
}

func TestService_Purge(t *testing.T) {
	now := time.Date(2024, 1, 1, 8, 0, 0, 0, time.UTC)
	defer func(f func() time.Time) { NowFunc = f }(NowFunc)
	NowFunc = func() time.Time { return now }

	svc, store := newTestService()
	ctx := context.Background()
	for i := 0; i < 1000; i++ {
		_, err := svc.Start(ctx, teacher)
		require.NoError(t, err)
	}

	now = now.Add(2 * time.Hour)
	live, err := svc.Start(ctx, parent)
	require.NoError(t, err)
	require.Equal(t, 1001, store.len())

	n, err := svc.Purge(ctx)
	if err != nil {
		t.Fatalf("Purge() error = %v, wantErr %v", err, false)
	}
	assert.Equal(t, 1000, n)
	assert.Equal(t, 1, store.len())
	got, err := svc.Get(ctx, live.ID)
	require.NoError(t, err)
	assert.Equal(t, live, got)

	store.expiredErr = errors.New("store down")
	_, err = svc.Purge(ctx)
	assert.Equal(t, store.expiredErr, errors.Cause(err))
}

func TestService_RunPurge(t *testing.T) {
	now := time.Date(2024, 1, 1, 8, 0, 0, 0, time.UTC)
	defer func(f func() time.Time) { NowFunc = f }(NowFunc)
	NowFunc = func() time.Time { return now }

	t.Run("sweeps until cancelled", func(t *testing.T) {
		svc, store := newTestService()
		for _, id := range []string{"a", "b", "c"} {
			require.NoError(t, store.Create(context.Background(), Session{ID: id, ExpiresAt: now.Add(-time.Minute)}))
		}
		require.NoError(t, store.Create(context.Background(), Session{ID: "live", ExpiresAt: now.Add(time.Minute)}))

		ctx, cancel := context.WithCancel(context.Background())
		done := make(chan struct{})
		go func() {
			svc.RunPurge(ctx, 5*time.Millisecond, new(fakeLogger))
			close(done)
		}()

		assert.Eventually(t, func() bool { return store.len() == 1 }, time.Second, 5*time.Millisecond)
		cancel()
		select {
		case <-done:
		case <-time.After(time.Second):
			t.Fatal("RunPurge() did not return after cancel")
		}
	})

	t.Run("logs store errors and goes on", func(t *testing.T) {
		svc, store := newTestService()
		store.expiredErr = errors.New("store down")
		lgr := new(fakeLogger)

		ctx, cancel := context.WithCancel(context.Background())
		done := make(chan struct{})
		go func() {
			svc.RunPurge(ctx, 5*time.Millisecond, lgr)
			close(done)
		}()

		assert.Eventually(t, func() bool { return lgr.errorCount() >= 2 }, time.Second, 5*time.Millisecond)
		cancel()
		<-done
	})
}

func TestService_ViewAs(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()
	ps, err := svc.Start(ctx, parent)
	require.NoError(t, err)
	ts, err := svc.Start(ctx, teacher)
	require.NoError(t, err)

	tests := []struct {
		name     string
		id       string
		wardID   string
		resource dashboard.Tile
		wantErr  error
	}{
		{name: "not a parent", id: ts.ID, wardID: "1", resource: dashboard.TileEbook, wantErr: ErrNotParent},
		{name: "not a tile", id: ps.ID, wardID: "1", resource: "settings", wantErr: ErrInvalidTile},
		{name: "unknown ward", id: ps.ID, wardID: "9", resource: dashboard.TileEbook, wantErr: user.ErrWardNotFound},
		{name: "unknown session", id: "nope", wardID: "1", resource: dashboard.TileEbook, wantErr: ErrNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.ViewAs(ctx, tt.id, tt.wardID, tt.resource)
			if errors.Cause(err) != tt.wantErr {
				t.Errorf("ViewAs() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}

	t.Run("view then stop", func(t *testing.T) {
		_, err := svc.StopViewing(ctx, ps.ID)
		assert.Equal(t, ErrNotViewing, err)

		s, err := svc.ViewAs(ctx, ps.ID, "1", dashboard.TileAssessments)
		require.NoError(t, err)
		assert.Equal(t, &Viewing{Ward: rahul, Resource: dashboard.TileAssessments}, s.Viewing)
		assert.Equal(t, user.RoleStudent, s.EffectiveRole())

		// switching tiles replaces the viewing
		s, err = svc.ViewAs(ctx, ps.ID, "1", dashboard.TileReports)
		require.NoError(t, err)
		assert.Equal(t, dashboard.TileReports, s.Viewing.Resource)

		stored, err := svc.Get(ctx, ps.ID)
		require.NoError(t, err)
		assert.Equal(t, s, stored)

		s, err = svc.StopViewing(ctx, ps.ID)
		require.NoError(t, err)
		assert.Nil(t, s.Viewing)
		assert.Equal(t, user.RoleParent, s.EffectiveRole())
	})

	t.Run("stop as teacher", func(t *testing.T) {
		_, err := svc.StopViewing(ctx, ts.ID)
		assert.Equal(t, ErrNotParent, err)
	})
}

func TestSession_Expired(t *testing.T) {
	now := time.Now()
	s := Session{ExpiresAt: now}
	assert.True(t, s.Expired(now))
	assert.True(t, s.Expired(now.Add(time.Second)))
	assert.False(t, s.Expired(now.Add(-time.Second)))
}
