package main

import (
	"context"

	"github.com/jmoiron/sqlx"

	"github.com/trezcool/classbook/core/catalog"
	"github.com/trezcool/classbook/storage/database"
	sqlxrepos "github.com/trezcool/classbook/storage/database/sqlx"
	"github.com/trezcool/classbook/storage/yamlfile"
)

var (
	gooseRunFunc = func(ctx context.Context, db *sqlx.DB, command string, args ...string) error { // mockable
		return database.RunMigration(ctx, db.DB, command, args...)
	}

	saveCatalogFunc = func(ctx context.Context, db *sqlx.DB, cat *catalog.Catalog) error { // mockable
		return sqlxrepos.NewCatalogRepository(db).Save(ctx, cat)
	}

	loadCatalogFunc = func(ctx context.Context, db *sqlx.DB) (*catalog.Catalog, error) { // mockable
		return sqlxrepos.NewCatalogRepository(db).Load(ctx)
	}
)

func (cli *commandLine) migrate(ctx context.Context, args []string) error {
	db, err := cli.database(ctx)
	if err != nil {
		return err
	}
	return gooseRunFunc(ctx, db, args[0], args[1:]...)
}

// seed migrates the database and replaces its catalog with the selected one.
func (cli *commandLine) seed(ctx context.Context) error {
	cat, err := cli.catalogRepository().Load(ctx)
	if err != nil {
		return err
	}
	if err := cat.Validate(); err != nil {
		return err
	}

	db, err := cli.database(ctx)
	if err != nil {
		return err
	}
	if err := gooseRunFunc(ctx, db, "up"); err != nil {
		return err
	}
	return saveCatalogFunc(ctx, db, cat)
}

// export prints the selected catalog, or the one stored in the database, as YAML.
func (cli *commandLine) export(ctx context.Context) error {
	var (
		cat *catalog.Catalog
		err error
	)
	if cli.fromDB {
		db, dbErr := cli.database(ctx)
		if dbErr != nil {
			return dbErr
		}
		cat, err = loadCatalogFunc(ctx, db)
	} else {
		cat, err = cli.catalogRepository().Load(ctx)
	}
	if err != nil {
		return err
	}
	return yamlfile.Encode(cli.out, cat)
}
