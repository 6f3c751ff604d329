package inmemdb

import (
	"sync"

	"github.com/pkg/errors"

	"github.com/trezcool/classbook/core/session"
	"github.com/trezcool/classbook/core/user"
)

type (
	DB struct {
		account *accountTable
		session *sessionTable
	}

	accountTable struct {
		sync.RWMutex
		accounts map[string]*user.Account
		profiles map[string]*user.Profile
	}

	sessionTable struct {
		sync.RWMutex
		table map[string]*session.Session
	}
)

// Open returns an empty in-memory database.
func Open() *DB {
	return &DB{
		account: &accountTable{
			accounts: make(map[string]*user.Account),
			profiles: make(map[string]*user.Profile),
		},
		session: &sessionTable{table: make(map[string]*session.Session)},
	}
}

// OpenDemo returns a database seeded with the demo accounts and their profiles.
// A non-empty hash overrides the default password of that role.
func OpenDemo(hashes map[user.Role]string) (*DB, error) {
	db := Open()
	accounts, err := user.DemoAccounts(hashes)
	if err != nil {
		return nil, errors.Wrap(err, "building demo accounts")
	}
	profiles := user.DemoProfiles()
	for i := range accounts {
		prof, ok := profiles[accounts[i].Username]
		if !ok {
			return nil, errors.Errorf("no demo profile for %q", accounts[i].Username)
		}
		if err := db.AddAccount(accounts[i], prof); err != nil {
			return nil, err
		}
	}
	return db, nil
}

// AddAccount stores acc with its profile, replacing any previous one.
func (db *DB) AddAccount(acc user.Account, prof user.Profile) error {
	if err := prof.Check(); err != nil {
		return errors.Wrapf(err, "profile of %q", acc.Username)
	}
	if prof.Role != acc.Role {
		return errors.Wrapf(user.ErrInvalidProfile, "account %q", acc.Username)
	}
	prof = prof.Clone()

	db.account.Lock()
	defer db.account.Unlock()
	db.account.accounts[acc.Username] = &acc
	db.account.profiles[acc.Username] = &prof
	return nil
}
