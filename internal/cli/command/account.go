package command

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/urfave/cli/v2"

	"github.com/yndnr/qipc-go/internal/core/service"
)

// AccountCommand returns the account file command group.
func AccountCommand() *cli.Command {
	return &cli.Command{
		Name:  "account",
		Usage: "Manage user:sha1 account files",
		Subcommands: []*cli.Command{
			{
				Name:      "hash",
				Usage:     "Print an account line",
				ArgsUsage: "USER PASSWORD",
				Action:    accountHash,
			},
			{
				Name:      "add",
				Usage:     "Append an account to a file",
				ArgsUsage: "FILE USER PASSWORD",
				Action:    accountAdd,
			},
			{
				Name:      "verify",
				Usage:     "Check a password against a file",
				ArgsUsage: "FILE USER PASSWORD",
				Action:    accountVerify,
			},
		},
	}
}

// AccountLine formats one account file line.
func AccountLine(user, password string) (string, error) {
	if user == "" || strings.ContainsAny(user, ":\r\n") {
		return "", fmt.Errorf("invalid user name %q", user)
	}
	return user + ":" + service.HashPassword(password), nil
}

func accountHash(c *cli.Context) error {
	if c.NArg() != 2 {
		return cli.Exit("account hash: expected USER PASSWORD", 2)
	}
	line, err := AccountLine(c.Args().Get(0), c.Args().Get(1))
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(c.App.Writer, line)
	return err
}

func accountAdd(c *cli.Context) error {
	if c.NArg() != 3 {
		return cli.Exit("account add: expected FILE USER PASSWORD", 2)
	}
	path, user := c.Args().Get(0), c.Args().Get(1)
	line, err := AccountLine(user, c.Args().Get(2))
	if err != nil {
		return err
	}

	if _, err := os.Stat(path); err == nil {
		store, err := loadAccounts(c, path)
		if err != nil {
			return err
		}
		if store.Has(user) {
			return fmt.Errorf("user %q already exists in %s", user, path)
		}
	} else if !errors.Is(err, fs.ErrNotExist) {
		return err
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0600)
	if err != nil {
		return err
	}
	if _, err := fmt.Fprintln(f, line); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func accountVerify(c *cli.Context) error {
	if c.NArg() != 3 {
		return cli.Exit("account verify: expected FILE USER PASSWORD", 2)
	}
	store, err := loadAccounts(c, c.Args().Get(0))
	if err != nil {
		return err
	}
	if !store.Verify(c.Args().Get(1), c.Args().Get(2)) {
		return cli.Exit("rejected", 1)
	}
	_, err = fmt.Fprintln(c.App.Writer, "ok")
	return err
}

func loadAccounts(c *cli.Context, path string) (*service.CredentialStore, error) {
	log, err := newLogger(ParseGlobalFlags(c).Verbose, c.App.ErrWriter)
	if err != nil {
		return nil, err
	}
	return service.LoadCredentialStore(path, log.Slog())
}
