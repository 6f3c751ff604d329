package inmemdb

import (
	"context"

	"github.com/trezcool/classbook/core/user"
)

type accountRepository struct {
	db *accountTable
}

var _ user.Repository = (*accountRepository)(nil) // interface compliance check

func NewAccountRepository(db *DB) user.Repository {
	return &accountRepository{db: db.account}
}

func (repo *accountRepository) GetAccount(_ context.Context, username string) (user.Account, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if acc, ok := repo.db.accounts[username]; ok {
		return *acc, nil
	}
	return user.Account{}, user.ErrNotFound
}

func (repo *accountRepository) GetProfile(_ context.Context, username string) (user.Profile, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if prof, ok := repo.db.profiles[username]; ok {
		return prof.Clone(), nil
	}
	return user.Profile{}, user.ErrNotFound
}

func (repo *accountRepository) UpdateProfile(_ context.Context, username string, prof user.Profile) (user.Profile, error) {
	if err := prof.Check(); err != nil {
		return user.Profile{}, err
	}

	repo.db.Lock()
	defer repo.db.Unlock()

	old, ok := repo.db.profiles[username]
	if !ok {
		return user.Profile{}, user.ErrNotFound
	}
	if old.Role != prof.Role {
		return user.Profile{}, user.ErrInvalidProfile
	}
	stored := prof.Clone()
	repo.db.profiles[username] = &stored
	return stored.Clone(), nil
}
