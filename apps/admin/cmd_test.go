package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io/ioutil"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"testing"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/trezcool/classbook/core"
	"github.com/trezcool/classbook/core/catalog"
	logsvc "github.com/trezcool/classbook/services/logger"
	"github.com/trezcool/classbook/storage/yamlfile"
)

func setup(t *testing.T) (*commandLine, *bytes.Buffer) {
	conf := core.NewTestConfig()
	logger := logsvc.NewRollbarLogger(log.New(ioutil.Discard, "", 0), conf)
	logger.Enable(false)

	out := new(bytes.Buffer)
	return &commandLine{
		conf:   conf,
		logger: logger,
		out:    out,
		openDB: func(context.Context) (*sqlx.DB, error) { return nil, nil },
	}, out
}

type cliTest struct {
	name       string
	args       []string // without program name
	wantErr    error
	wantErrStr string
	extra      interface{}
}

func checkErr(t *testing.T, tt cliTest, err error) {
	t.Helper()
	switch {
	case tt.wantErr != nil:
		if errors.Cause(err) != tt.wantErr {
			t.Errorf("cli.run() error = %v, wantErr %v", err, tt.wantErr)
		}
	case tt.wantErrStr != "":
		if err == nil || err.Error() != tt.wantErrStr {
			t.Errorf("cli.run() error = %v, wantErrStr %s", err, tt.wantErrStr)
		}
	case err != nil:
		t.Errorf("cli.run() unexpected error = %v", err)
	}
}

func writeCatalog(t *testing.T, data string) string {
	path := filepath.Join(t.TempDir(), "catalog.yaml")
	if err := ioutil.WriteFile(path, []byte(data), 0o600); err != nil {
		t.Fatalf("writeCatalog() failed: %v", err)
	}
	return path
}

const brokenCatalog = `
chapters:
  - {id: 1, name: One}
books:
  - id: reader
    title: Reader
    pages:
      - number: 1
        title: First
        content: abc
        annotations:
          - {id: x, kind: video, label: X, target: "https://example.com/x", offset: 5}
subjects:
  - {id: science, title: Science, book: reader}
`

func Test_commandLine_migrate(t *testing.T) {
	cli, _ := setup(t)

	gooseRunFunc = func(_ context.Context, _ *sqlx.DB, command string, args ...string) error {
		switch command {
		case "up", "up-by-one", "down", "fix", "redo", "reset", "status", "version": // pass
		case "up-to", "down-to":
			if len(args) == 0 {
				return fmt.Errorf("%s must be of form: goose [OPTIONS] DRIVER DBSTRING %s VERSION", command, command)
			}
			if _, err := strconv.ParseInt(args[0], 10, 64); err != nil {
				return fmt.Errorf("version must be a number (got '%s')", args[0])
			}
		case "create":
			if len(args) == 0 {
				return fmt.Errorf("create must be of form: goose [OPTIONS] DRIVER DBSTRING create NAME [go|sql]")
			}
		default:
			return fmt.Errorf("%q: no such command", command)
		}
		return nil
	}

	tests := []cliTest{
		{name: "no subcommand", args: []string{"migrate"}, wantErrStr: "requires at least 1 arg(s), only received 0"},
		{name: "unknown subcommand", args: []string{"migrate", "lol"}, wantErrStr: "\"lol\": no such command"},
		{name: "up-to: no args", args: []string{"migrate", "up-to"}, wantErrStr: "up-to must be of form: goose [OPTIONS] DRIVER DBSTRING up-to VERSION"},
		{name: "up-to: non-int arg", args: []string{"migrate", "up-to", "lol"}, wantErrStr: "version must be a number (got 'lol')"},
		{name: "create: no args", args: []string{"migrate", "create"}, wantErrStr: "create must be of form: goose [OPTIONS] DRIVER DBSTRING create NAME [go|sql]"},
		{name: "down-to: no args", args: []string{"migrate", "down-to"}, wantErrStr: "down-to must be of form: goose [OPTIONS] DRIVER DBSTRING down-to VERSION"},
		{name: "up", args: []string{"migrate", "up"}},
		{name: "up-by-one", args: []string{"migrate", "up-by-one"}},
		{name: "up-to", args: []string{"migrate", "up-to", "1"}},
		{name: "down", args: []string{"migrate", "down"}},
		{name: "down-to", args: []string{"migrate", "down-to", "0"}},
		{name: "redo", args: []string{"migrate", "redo"}},
		{name: "reset", args: []string{"migrate", "reset"}},
		{name: "status", args: []string{"migrate", "status"}},
		{name: "version", args: []string{"migrate", "version"}},
		{name: "fix", args: []string{"migrate", "fix"}},
	}
	for _, tt := range tests {
		args := append([]string{"admin"}, tt.args...)

		t.Run(tt.name, func(t *testing.T) {
			checkErr(t, tt, cli.run(args))
		})
	}

	t.Run("database unavailable", func(t *testing.T) {
		dbErr := errors.New("connection refused")
		cli, _ := setup(t)
		cli.openDB = func(context.Context) (*sqlx.DB, error) { return nil, dbErr }
		err := cli.run([]string{"admin", "migrate", "up"})
		assert.Equal(t, dbErr, errors.Cause(err))
	})
}

func Test_commandLine_hashPassword(t *testing.T) {
	type extra struct {
		pwd string
		err error
	}
	readErr := errors.New("not a terminal")

	tests := []cliTest{
		{name: "unexpected args", args: []string{"hashpassword", "lol"}, wantErrStr: `unknown command "lol" for "admin hashpassword"`},
		{name: "empty password", args: []string{"hashpassword"}, wantErr: errEmptyPassword},
		{name: "read error", args: []string{"hashpassword"}, extra: extra{err: readErr}, wantErr: readErr},
		{name: "hash", args: []string{"hashpassword"}, extra: extra{pwd: "s3cr3t!"}},
	}
	for _, tt := range tests {
		args := append([]string{"admin"}, tt.args...)

		t.Run(tt.name, func(t *testing.T) {
			cli, out := setup(t)
			readPasswordFunc = func(fd int) ([]byte, error) {
				if extra, ok := tt.extra.(extra); ok {
					return []byte(extra.pwd), extra.err
				}
				return nil, nil
			}

			err := cli.run(args)
			checkErr(t, tt, err)
			if err == nil {
				lines := bytes.Split(bytes.TrimSpace(out.Bytes()), []byte("\n"))
				hash := lines[len(lines)-1]
				assert.NoError(t, bcrypt.CompareHashAndPassword(hash, []byte(tt.extra.(extra).pwd)))
			}
		})
	}
}

func Test_commandLine_check(t *testing.T) {
	broken := writeCatalog(t, brokenCatalog)
	invalid := writeCatalog(t, "subjects:\n  - {id: science, title: Science, book: nope}\n")

	tests := []cliTest{
		{name: "embedded catalog", args: []string{"check"}},
		{name: "missing file", args: []string{"check", "--catalog", filepath.Join(os.TempDir(), "no-such-catalog.yaml")}, extra: os.ErrNotExist},
		{name: "unrenderable page", args: []string{"check", "--catalog", broken}, wantErrStr: "1 page(s) cannot be rendered"},
		{name: "invalid catalog", args: []string{"check", "--catalog", invalid}, wantErr: catalog.ErrInvalidCatalog},
	}
	for _, tt := range tests {
		args := append([]string{"admin"}, tt.args...)

		t.Run(tt.name, func(t *testing.T) {
			cli, out := setup(t)
			err := cli.run(args)

			switch {
			case tt.extra != nil:
				assert.True(t, errors.Is(err, tt.extra.(error)), "error = %v", err)
			case tt.wantErr != nil:
				assert.True(t, errors.Is(err, tt.wantErr), "error = %v", err)
			default:
				checkErr(t, tt, err)
			}
			if err == nil {
				assert.Contains(t, out.String(), "catalog OK: 4 book(s), 12 page(s), 18 material(s)")
			}
			if tt.wantErrStr != "" {
				assert.Contains(t, out.String(), `book "reader" page 1`)
			}
		})
	}
}

func Test_commandLine_render(t *testing.T) {
	broken := writeCatalog(t, brokenCatalog)

	type extra struct {
		page     float64
		segments int
		errCode  string
	}
	tests := []cliTest{
		{name: "no args", args: []string{"render"}, wantErrStr: "accepts 2 arg(s), received 0"},
		{name: "bad page", args: []string{"render", "science", "one"}, wantErr: errInvalidPage},
		{name: "zero page", args: []string{"render", "science", "0"}, wantErr: errInvalidPage},
		{name: "unknown subject", args: []string{"render", "art", "1"}, wantErr: catalog.ErrNotFound},
		{name: "page out of range", args: []string{"render", "science", "9"}, wantErr: catalog.ErrNotFound},
		{name: "page", args: []string{"render", "science", "2"}, extra: extra{page: 2, segments: 5}},
		{
			name:  "unrenderable page",
			args:  []string{"--catalog", broken, "render", "science", "1"},
			extra: extra{page: 1, errCode: catalog.CodeInvalidOffset},
		},
	}
	for _, tt := range tests {
		args := append([]string{"admin"}, tt.args...)

		t.Run(tt.name, func(t *testing.T) {
			cli, out := setup(t)
			err := cli.run(args)
			checkErr(t, tt, err)
			want, ok := tt.extra.(extra)
			if err != nil || !ok {
				return
			}

			var rp map[string]interface{}
			require.NoError(t, json.Unmarshal(out.Bytes(), &rp))
			assert.Equal(t, want.page, rp["number"])
			assert.Len(t, rp["segments"], want.segments)

			if want.errCode != "" {
				renderErr, ok := rp["render_error"].(map[string]interface{})
				require.True(t, ok, "render_error missing: %s", out.String())
				assert.Equal(t, want.errCode, renderErr["code"])
				assert.Equal(t, "x", renderErr["annotation_id"])
			} else {
				assert.NotContains(t, rp, "render_error")
			}
		})
	}
}

func Test_commandLine_seed(t *testing.T) {
	var migrated []string
	var saved *catalog.Catalog
	gooseRunFunc = func(_ context.Context, _ *sqlx.DB, command string, _ ...string) error {
		migrated = append(migrated, command)
		return nil
	}
	saveCatalogFunc = func(_ context.Context, _ *sqlx.DB, cat *catalog.Catalog) error {
		saved = cat
		return nil
	}

	cli, _ := setup(t)
	require.NoError(t, cli.run([]string{"admin", "seed"}))
	assert.Equal(t, []string{"up"}, migrated)
	require.NotNil(t, saved)
	assert.Len(t, saved.Materials, 18)

	t.Run("invalid catalog is not saved", func(t *testing.T) {
		saved, migrated = nil, nil
		invalid := writeCatalog(t, "subjects:\n  - {id: science, title: Science, book: nope}\n")
		cli, _ := setup(t)
		err := cli.run([]string{"admin", "seed", "--catalog", invalid})
		assert.True(t, errors.Is(err, catalog.ErrInvalidCatalog), "error = %v", err)
		assert.Nil(t, saved)
		assert.Nil(t, migrated)
	})
}

func Test_commandLine_export(t *testing.T) {
	t.Run("embedded catalog", func(t *testing.T) {
		cli, out := setup(t)
		require.NoError(t, cli.run([]string{"admin", "export"}))
		cat, err := yamlfile.Decode(out)
		require.NoError(t, err)
		assert.Len(t, cat.Books, 4)
		assert.Len(t, cat.Materials, 18)
	})

	t.Run("from database", func(t *testing.T) {
		loadCatalogFunc = func(context.Context, *sqlx.DB) (*catalog.Catalog, error) {
			return &catalog.Catalog{Classes: []catalog.Class{{ID: "6", Name: "Class 6"}}}, nil
		}
		cli, out := setup(t)
		require.NoError(t, cli.run([]string{"admin", "export", "--from-db"}))
		cat, err := yamlfile.Decode(out)
		require.NoError(t, err)
		assert.Equal(t, []catalog.Class{{ID: "6", Name: "Class 6"}}, cat.Classes)
	})

	t.Run("database unavailable", func(t *testing.T) {
		dbErr := errors.New("connection refused")
		cli, _ := setup(t)
		cli.openDB = func(context.Context) (*sqlx.DB, error) { return nil, dbErr }
		err := cli.run([]string{"admin", "export", "--from-db"})
		assert.Equal(t, dbErr, errors.Cause(err))
	})

	t.Run("unexpected args", func(t *testing.T) {
		cli, _ := setup(t)
		err := cli.run([]string{"admin", "export", "all"})
		assert.EqualError(t, err, `unknown command "all" for "admin export"`)
	})
}
