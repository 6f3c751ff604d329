package dig_container

import (
	"context"
	"fmt"
	"log"
	"os"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"go.uber.org/dig"

	echoapi "github.com/trezcool/classbook/apps/api/echo"
	"github.com/trezcool/classbook/core"
	"github.com/trezcool/classbook/core/catalog"
	"github.com/trezcool/classbook/core/session"
	"github.com/trezcool/classbook/core/user"
	"github.com/trezcool/classbook/core/viewer"
	appfs "github.com/trezcool/classbook/fs"
	logsvc "github.com/trezcool/classbook/services/logger"
	"github.com/trezcool/classbook/storage/database"
	inmemdb "github.com/trezcool/classbook/storage/database/inmem"
	sqlxrepos "github.com/trezcool/classbook/storage/database/sqlx"
	"github.com/trezcool/classbook/storage/yamlfile"
)

// Catalog sources
const (
	SourceEmbedded = "embedded"
	SourceFile     = "file"
	SourceDatabase = "database"
)

type DBLoggerParam struct {
	dig.In
	Logger core.Logger `name:"dbLogger"`
}

func newLogger(conf *core.Config) core.Logger {
	stdLogger := log.New(os.Stdout, "API : ", log.LstdFlags)
	logger := logsvc.NewRollbarLogger(stdLogger, conf)
	logger.Enable(!conf.Debug)
	return logger
}

func newDBLogger(conf *core.Config) core.Logger {
	stdLogger := log.New(os.Stdout, "DB : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile)
	logger := logsvc.NewRollbarLogger(stdLogger, conf)
	logger.Enable(!conf.Debug)
	return logger
}

// newDB connects to Postgres and applies the migrations. It returns nil when the database is disabled.
func newDB(conf *core.Config, loggerParam DBLoggerParam) *sqlx.DB {
	if !conf.Database.Enabled && conf.Catalog.Source != SourceDatabase {
		return nil
	}

	setUp := func() (*sqlx.DB, error) {
		ctx := context.Background()
		db, err := database.Open(ctx, conf)
		if err != nil {
			return nil, err
		}
		if err = database.Migrate(ctx, db.DB); err != nil {
			_ = db.Close()
			return nil, err
		}
		return db, nil
	}

	db, err := setUp()
	if err != nil {
		loggerParam.Logger.Fatal(fmt.Sprintf("setting up database: %v", err), err)
	}
	return db
}

func newInMemDB(conf *core.Config, logger core.Logger) *inmemdb.DB {
	db, err := inmemdb.OpenDemo(map[user.Role]string{
		user.RoleTeacher: conf.Accounts.TeacherPasswordHash,
		user.RoleStudent: conf.Accounts.StudentPasswordHash,
		user.RoleParent:  conf.Accounts.ParentPasswordHash,
	})
	if err != nil {
		logger.Fatal(fmt.Sprintf("seeding demo accounts: %v", err), err)
	}
	return db
}

func newCatalogRepository(conf *core.Config, db *sqlx.DB) (catalog.Repository, error) {
	switch conf.Catalog.Source {
	case SourceEmbedded, "":
		return yamlfile.NewFSRepository(appfs.FS, appfs.CatalogPath), nil
	case SourceFile:
		if conf.Catalog.File == "" {
			return nil, errors.New("catalog.file is required when the catalog source is \"file\"")
		}
		return yamlfile.NewFileRepository(conf.Catalog.File), nil
	case SourceDatabase:
		return sqlxrepos.NewCatalogRepository(db), nil
	}
	return nil, errors.Errorf("unknown catalog source %q", conf.Catalog.Source)
}

func newCatalogService(
	repo catalog.Repository,
	validate *validator.Validate,
	translator ut.Translator,
	logger core.Logger,
) (*catalog.Service, error) {
	return catalog.NewService(context.Background(), repo, validate, translator, logger)
}

func newSessionService(conf *core.Config, store session.Store, usrSvc *user.Service) *session.Service {
	return session.NewService(store, usrSvc, conf.Server.SessionTTL)
}

func newDocumentRenderer(conf *core.Config) viewer.DocumentRenderer {
	source := viewer.NewHTTPSource(conf.Viewer.FetchTimeout, conf.Viewer.MaxDocBytes, conf.Viewer.FetchRetries)
	return viewer.NewPDFRenderer(source)
}

// newValidator returns a validator with every custom tag and translation registered.
func newValidator(translator ut.Translator) *validator.Validate {
	validate := validator.New()
	core.InitValidators(validate, translator)
	user.InitValidators(validate, translator)
	catalog.InitValidators(validate, translator)
	return validate
}

// New returns a new dependency injection dig.Container
func New() *dig.Container {
	c := dig.New()

	must(c.Provide(core.NewConfig))
	must(c.Provide(newLogger))
	must(c.Provide(newDBLogger, dig.Name("dbLogger")))
	must(c.Provide(newDB))
	must(c.Provide(newInMemDB))
	must(c.Provide(inmemdb.NewAccountRepository))
	must(c.Provide(inmemdb.NewSessionStore))
	must(c.Provide(newCatalogRepository))
	must(c.Provide(core.NewTranslator))
	must(c.Provide(newValidator))
	must(c.Provide(user.NewService))
	must(c.Provide(newSessionService))
	must(c.Provide(newCatalogService))
	must(c.Provide(newDocumentRenderer))
	must(c.Provide(echoapi.NewServer))

	return c
}

// must exits program if err happened
func must(err error) {
	if err != nil {
		log.Fatal(errors.Wrap(err, "failed to provide dependency").Error())
	}
}
