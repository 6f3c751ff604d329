// Package session replaces ambient UI state with an explicit, role-bearing session object.
package session

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/trezcool/classbook/core"
	"github.com/trezcool/classbook/core/dashboard"
	"github.com/trezcool/classbook/core/user"
)

var (
	// errors
	ErrNotFound       = errors.New("session not found")
	ErrNotParent      = errors.New("only parents can view as a ward")
	ErrInvalidTile    = errors.New("resource is not a ward tile")
	ErrNotViewing     = errors.New("session is not viewing as a ward")
	ErrInvalidAccount = errors.New("invalid account")

	NowFunc = func() time.Time { return time.Now().UTC() } // mockable
)

// Viewing records a parent looking at one resource of a ward.
type Viewing struct {
	Ward     user.Ward      `json:"ward"`
	Resource dashboard.Tile `json:"resource"`
}

type Session struct {
	ID        string    `json:"id"`
	Username  string    `json:"username"`
	Role      user.Role `json:"role"`
	CreatedAt time.Time `json:"created_at"`
	ExpiresAt time.Time `json:"expires_at"`
	Viewing   *Viewing  `json:"viewing"`
}

func (s Session) Expired(now time.Time) bool {
	return !now.Before(s.ExpiresAt)
}

// EffectiveRole is the role whose view is shown: a parent viewing a ward sees the student view.
func (s Session) EffectiveRole() user.Role {
	if s.Viewing != nil {
		return user.RoleStudent
	}
	return s.Role
}

type (
	Store interface {
		Create(ctx context.Context, s Session) error
		Get(ctx context.Context, id string) (Session, error)
		Update(ctx context.Context, s Session) error
		Delete(ctx context.Context, id string) error
		// DeleteExpired removes every session expired at now and returns how many were removed.
		DeleteExpired(ctx context.Context, now time.Time) (int, error)
	}

	WardFinder interface {
		Ward(ctx context.Context, username, wardID string) (user.Ward, error)
	}

	Service struct {
		store Store
		wards WardFinder
		ttl   time.Duration
	}
)

func NewService(store Store, wards WardFinder, ttl time.Duration) *Service {
	return &Service{store: store, wards: wards, ttl: ttl}
}

// Start opens a session for an authenticated account.
func (svc *Service) Start(ctx context.Context, acc user.Account) (Session, error) {
	if acc.Username == "" || !acc.Role.IsValid() {
		return Session{}, ErrInvalidAccount
	}
	now := NowFunc()
	s := Session{
		ID:        uuid.NewString(),
		Username:  acc.Username,
		Role:      acc.Role,
		CreatedAt: now,
		ExpiresAt: now.Add(svc.ttl),
	}
	if err := svc.store.Create(ctx, s); err != nil {
		return Session{}, errors.Wrap(err, "creating session")
	}
	return s, nil
}

// Get returns a live session. Expired sessions are removed and reported as ErrNotFound.
func (svc *Service) Get(ctx context.Context, id string) (Session, error) {
	s, err := svc.store.Get(ctx, id)
	if err != nil {
		return Session{}, err
	}
	if s.Expired(NowFunc()) {
		if err := svc.store.Delete(ctx, id); err != nil && errors.Cause(err) != ErrNotFound {
			return Session{}, errors.Wrap(err, "deleting expired session")
		}
		return Session{}, ErrNotFound
	}
	return s, nil
}

func (svc *Service) End(ctx context.Context, id string) error {
	return svc.store.Delete(ctx, id)
}

// Purge removes the expired sessions, including those never looked up again.
func (svc *Service) Purge(ctx context.Context) (int, error) {
	n, err := svc.store.DeleteExpired(ctx, NowFunc())
	if err != nil {
		return n, errors.Wrap(err, "deleting expired sessions")
	}
	return n, nil
}

// RunPurge calls Purge every interval until ctx is done. Purge errors are logged; the loop goes on.
func (svc *Service) RunPurge(ctx context.Context, every time.Duration, logger core.Logger) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := svc.Purge(ctx)
			if err != nil {
				logger.Error(fmt.Sprintf("purging sessions: %v", err), err)
				continue
			}
			if n > 0 {
				logger.Debug(fmt.Sprintf("purged %d expired sessions", n))
			}
		}
	}
}

// ViewAs lets a parent session look at one tile of a ward's student view.
func (svc *Service) ViewAs(ctx context.Context, id, wardID string, resource dashboard.Tile) (Session, error) {
	s, err := svc.Get(ctx, id)
	if err != nil {
		return Session{}, err
	}
	if s.Role != user.RoleParent {
		return Session{}, ErrNotParent
	}
	if !dashboard.IsTile(resource) {
		return Session{}, ErrInvalidTile
	}
	ward, err := svc.wards.Ward(ctx, s.Username, wardID)
	if err != nil {
		return Session{}, errors.Wrap(err, "finding ward")
	}
	s.Viewing = &Viewing{Ward: ward, Resource: resource}
	if err := svc.store.Update(ctx, s); err != nil {
		return Session{}, errors.Wrap(err, "updating session")
	}
	return s, nil
}

// StopViewing returns a parent session to the ward selection.
func (svc *Service) StopViewing(ctx context.Context, id string) (Session, error) {
	s, err := svc.Get(ctx, id)
	if err != nil {
		return Session{}, err
	}
	if s.Role != user.RoleParent {
		return Session{}, ErrNotParent
	}
	if s.Viewing == nil {
		return Session{}, ErrNotViewing
	}
	s.Viewing = nil
	if err := svc.store.Update(ctx, s); err != nil {
		return Session{}, errors.Wrap(err, "updating session")
	}
	return s, nil
}
