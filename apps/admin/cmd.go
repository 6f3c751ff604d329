package main

import (
	"context"
	"io"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/trezcool/classbook/core"
	"github.com/trezcool/classbook/core/catalog"
	appfs "github.com/trezcool/classbook/fs"
	"github.com/trezcool/classbook/storage/yamlfile"
)

var (
	errEmptyPassword = errors.New("password cannot be empty")
	errInvalidPage   = errors.New("page must be a positive number")
)

type commandLine struct {
	conf   *core.Config
	logger core.Logger
	out    io.Writer
	openDB func(ctx context.Context) (*sqlx.DB, error)

	db          *sqlx.DB
	catalogFile string
	fromDB      bool
}

func (cli *commandLine) rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "admin",
		Short:         "Classbook administration",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.SetOut(cli.out)
	root.PersistentFlags().StringVar(
		&cli.catalogFile, "catalog", "", "catalog YAML file (default: the embedded demo catalog)",
	)

	root.AddCommand(
		&cobra.Command{
			Use:   "hashpassword",
			Short: "Prompt for a password and print its bcrypt hash",
			Args:  cobra.NoArgs,
			RunE:  func(cmd *cobra.Command, args []string) error { return cli.hashPassword() },
		},
		&cobra.Command{
			Use:   "check",
			Short: "Validate the catalog and render every page",
			Args:  cobra.NoArgs,
			RunE:  func(cmd *cobra.Command, args []string) error { return cli.check(cmd.Context()) },
		},
		&cobra.Command{
			Use:   "render SUBJECT PAGE",
			Short: "Print the segments of a book page",
			Args:  cobra.ExactArgs(2),
			RunE:  func(cmd *cobra.Command, args []string) error { return cli.render(cmd.Context(), args[0], args[1]) },
		},
		&cobra.Command{
			Use:   "migrate COMMAND [ARGS...]",
			Short: "Run a goose command (up, down, status, redo...) against the database",
			Args:  cobra.MinimumNArgs(1),
			RunE:  func(cmd *cobra.Command, args []string) error { return cli.migrate(cmd.Context(), args) },
		},
		&cobra.Command{
			Use:   "seed",
			Short: "Write the catalog to the database",
			Args:  cobra.NoArgs,
			RunE:  func(cmd *cobra.Command, args []string) error { return cli.seed(cmd.Context()) },
		},
	)

	export := &cobra.Command{
		Use:   "export",
		Short: "Print the catalog as YAML",
		Args:  cobra.NoArgs,
		RunE:  func(cmd *cobra.Command, args []string) error { return cli.export(cmd.Context()) },
	}
	export.Flags().BoolVar(&cli.fromDB, "from-db", false, "read the catalog stored in the database")
	root.AddCommand(export)
	return root
}

// run executes the command line args (program name first).
func (cli *commandLine) run(args []string) error {
	root := cli.rootCmd()
	if len(args) > 0 {
		args = args[1:]
	}
	root.SetArgs(args)
	return root.ExecuteContext(context.Background())
}

// database lazily connects to the database.
func (cli *commandLine) database(ctx context.Context) (*sqlx.DB, error) {
	if cli.db != nil {
		return cli.db, nil
	}
	db, err := cli.openDB(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "opening database")
	}
	cli.db = db
	return db, nil
}

func (cli *commandLine) close() error {
	if cli.db == nil {
		return nil
	}
	return cli.db.Close()
}

func (cli *commandLine) catalogRepository() catalog.Repository {
	if cli.catalogFile != "" {
		return yamlfile.NewFileRepository(cli.catalogFile)
	}
	return yamlfile.NewFSRepository(appfs.FS, appfs.CatalogPath)
}
