package main

import (
	"fmt"
	"syscall"

	"golang.org/x/term"

	"github.com/trezcool/classbook/core/user"
)

var readPasswordFunc = term.ReadPassword // mockable

// hashPassword prints the bcrypt hash of a prompted password, for the ACCOUNTS_*_PASSWORDHASH settings.
func (cli *commandLine) hashPassword() error {
	_, _ = fmt.Fprint(cli.out, "Enter password:")
	pwd, err := readPasswordFunc(int(syscall.Stdin))
	_, _ = fmt.Fprintln(cli.out)
	if err != nil {
		return err
	}
	if len(pwd) == 0 {
		return errEmptyPassword
	}

	var acc user.Account
	if err := acc.SetPassword(string(pwd)); err != nil {
		return err
	}
	_, _ = fmt.Fprintln(cli.out, string(acc.PasswordHash))
	return nil
}
