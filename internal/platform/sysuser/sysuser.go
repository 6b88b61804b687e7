// Package sysuser resolves local service accounts and applies ownership.
package sysuser

import (
	"fmt"
	"os"
	"os/user"
	"strconv"

	"github.com/spf13/afero"
)

// Account identifies a local user.
type Account struct {
	Name string
	UID  int
	GID  int
	Home string
}

// Resolver looks up local accounts by name.
type Resolver interface {
	Lookup(name string) (Account, error)
}

// OSResolver resolves accounts from the host user database.
type OSResolver struct{}

// Lookup implements Resolver.
func (OSResolver) Lookup(name string) (Account, error) {
	u, err := user.Lookup(name)
	if err != nil {
		return Account{}, fmt.Errorf("lookup user %s: %w", name, err)
	}

	uid, err := strconv.Atoi(u.Uid)
	if err != nil {
		return Account{}, fmt.Errorf("parse uid %q for %s: %w", u.Uid, name, err)
	}
	gid, err := strconv.Atoi(u.Gid)
	if err != nil {
		return Account{}, fmt.Errorf("parse gid %q for %s: %w", u.Gid, name, err)
	}

	return Account{Name: name, UID: uid, GID: gid, Home: u.HomeDir}, nil
}

// Static resolves accounts from a fixed table. It backs tests and dry runs.
type Static map[string]Account

// Lookup implements Resolver.
func (s Static) Lookup(name string) (Account, error) {
	acct, ok := s[name]
	if !ok {
		return Account{}, fmt.Errorf("unknown user %s", name)
	}
	return acct, nil
}

// OwnTree recursively hands ownership of root and everything below it to
// the account.
func OwnTree(fs afero.Fs, root string, acct Account) error {
	return afero.Walk(fs, root, func(path string, _ os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if err := fs.Chown(path, acct.UID, acct.GID); err != nil {
			return fmt.Errorf("chown %s to %s: %w", path, acct.Name, err)
		}
		return nil
	})
}
