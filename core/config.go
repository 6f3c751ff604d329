package core

import (
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type (
	serverConfig struct {
		Host                      string
		Address                   string
		DebugHost                 string
		ReadTimeout               time.Duration
		WriteTimeout              time.Duration
		ShutdownTimeout           time.Duration
		JWTExpirationDelta        time.Duration
		JWTRefreshExpirationDelta time.Duration
		SessionTTL                time.Duration
		SessionPurgeInterval      time.Duration
	}

	dbConfig struct {
		Enabled      bool
		Host         string
		Name         string
		User         string
		Password     string
		DisableTLS   bool
		MaxIdleConns int
		MaxOpenConns int
		ConnectTries uint
		ConnectDelay time.Duration
	}

	// catalogConfig selects where the content catalog comes from: "embedded" (default), "file" or "database".
	catalogConfig struct {
		Source string
		File   string
		Watch  bool
	}

	viewerConfig struct {
		FetchTimeout time.Duration
		MaxDocBytes  int64
		FetchRetries uint
	}

	// accountsConfig may override the bcrypt hashes of the demo accounts.
	accountsConfig struct {
		TeacherPasswordHash string
		StudentPasswordHash string
		ParentPasswordHash  string
	}

	Config struct {
		AppName      string
		Build        string
		Env          string
		Debug        bool
		TestMode     bool
		SecretKey    string
		RollbarToken string
		Server       serverConfig
		Database     dbConfig
		Catalog      catalogConfig
		Viewer       viewerConfig
		Accounts     accountsConfig
	}
)

// NewConfig loads the configuration from the environment (and the optional `config/.env.<env>` file).
// ENV selects the environment: DEV (local; default), TEST, QA or PROD. Keys are read with the
// environment as prefix, e.g. `DEV_SERVER_ADDRESS`.
func NewConfig() *Config {
	conf := viper.New()

	env := strings.ToUpper(os.Getenv("ENV"))
	if env == "" {
		env = "DEV"
	}

	// defaults
	conf.SetTypeByDefaultValue(true)
	conf.SetDefault("appName", "Classbook")
	conf.SetDefault("build", "dev")
	conf.SetDefault("debug", env == "DEV" || env == "TEST")
	conf.SetDefault("testMode", env == "TEST")
	conf.SetDefault("secretKey", "k3x*9c!ub7#2w^q@f1r0v$8n&e5m6y-dt4o%s+zj_ha=lp(g)")
	conf.SetDefault("rollbarToken", "")

	conf.SetDefault("server.host", "localhost")
	conf.SetDefault("server.address", ":8000")
	conf.SetDefault("server.debugHost", ":4000")
	conf.SetDefault("server.readTimeout", 5*time.Second)
	conf.SetDefault("server.writeTimeout", 10*time.Second)
	conf.SetDefault("server.shutdownTimeout", 5*time.Second)
	conf.SetDefault("server.jwtExpirationDelta", 2*time.Hour)
	conf.SetDefault("server.jwtRefreshExpirationDelta", 12*time.Hour)
	conf.SetDefault("server.sessionTTL", 12*time.Hour)
	conf.SetDefault("server.sessionPurgeInterval", 10*time.Minute)

	conf.SetDefault("database.enabled", false)
	conf.SetDefault("database.host", "localhost:5432")
	conf.SetDefault("database.name", "classbook")
	conf.SetDefault("database.user", "postgres")
	conf.SetDefault("database.password", "postgres")
	conf.SetDefault("database.disableTLS", true)
	conf.SetDefault("database.maxIdleConns", 2)
	conf.SetDefault("database.maxOpenConns", 10)
	conf.SetDefault("database.connectTries", 5)
	conf.SetDefault("database.connectDelay", time.Second)

	conf.SetDefault("catalog.source", "embedded")
	conf.SetDefault("catalog.file", "")
	conf.SetDefault("catalog.watch", false)

	conf.SetDefault("viewer.fetchTimeout", 15*time.Second)
	conf.SetDefault("viewer.maxDocBytes", 32<<20)
	conf.SetDefault("viewer.fetchRetries", 2)

	conf.SetDefault("accounts.teacherPasswordHash", "")
	conf.SetDefault("accounts.studentPasswordHash", "")
	conf.SetDefault("accounts.parentPasswordHash", "")

	conf.SetEnvPrefix(env)
	conf.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// load .env if it exists (ignore if it does not)
	dotEnvPath := filepath.Join(Getwd(), "config", ".env."+strings.ToLower(env))
	if _, err := os.Stat(dotEnvPath); err == nil {
		if err := godotenv.Load(dotEnvPath); err != nil {
			log.Fatalf("config.godotenv(%s): %v", dotEnvPath, err)
		}
	} else if !os.IsNotExist(err) {
		log.Fatalf("config.os.Stat(%s): %v", dotEnvPath, err)
	}
	conf.AutomaticEnv()

	return &Config{
		AppName:      conf.GetString("appName"),
		Build:        conf.GetString("build"),
		Env:          env,
		Debug:        conf.GetBool("debug"),
		TestMode:     conf.GetBool("testMode"),
		SecretKey:    conf.GetString("secretKey"),
		RollbarToken: conf.GetString("rollbarToken"),
		Server: serverConfig{
			Host:                      conf.GetString("server.host"),
			Address:                   conf.GetString("server.address"),
			DebugHost:                 conf.GetString("server.debugHost"),
			ReadTimeout:               conf.GetDuration("server.readTimeout"),
			WriteTimeout:              conf.GetDuration("server.writeTimeout"),
			ShutdownTimeout:           conf.GetDuration("server.shutdownTimeout"),
			JWTExpirationDelta:        conf.GetDuration("server.jwtExpirationDelta"),
			JWTRefreshExpirationDelta: conf.GetDuration("server.jwtRefreshExpirationDelta"),
			SessionTTL:                conf.GetDuration("server.sessionTTL"),
			SessionPurgeInterval:      conf.GetDuration("server.sessionPurgeInterval"),
		},
		Database: dbConfig{
			Enabled:      conf.GetBool("database.enabled"),
			Host:         conf.GetString("database.host"),
			Name:         conf.GetString("database.name"),
			User:         conf.GetString("database.user"),
			Password:     conf.GetString("database.password"),
			DisableTLS:   conf.GetBool("database.disableTLS"),
			MaxIdleConns: conf.GetInt("database.maxIdleConns"),
			MaxOpenConns: conf.GetInt("database.maxOpenConns"),
			ConnectTries: conf.GetUint("database.connectTries"),
			ConnectDelay: conf.GetDuration("database.connectDelay"),
		},
		Catalog: catalogConfig{
			Source: strings.ToLower(conf.GetString("catalog.source")),
			File:   conf.GetString("catalog.file"),
			Watch:  conf.GetBool("catalog.watch"),
		},
		Viewer: viewerConfig{
			FetchTimeout: conf.GetDuration("viewer.fetchTimeout"),
			MaxDocBytes:  conf.GetInt64("viewer.maxDocBytes"),
			FetchRetries: conf.GetUint("viewer.fetchRetries"),
		},
		Accounts: accountsConfig{
			TeacherPasswordHash: conf.GetString("accounts.teacherPasswordHash"),
			StudentPasswordHash: conf.GetString("accounts.studentPasswordHash"),
			ParentPasswordHash:  conf.GetString("accounts.parentPasswordHash"),
		},
	}
}

// NewTestConfig returns the configuration used by tests.
func NewTestConfig() *Config {
	_ = os.Setenv("ENV", "TEST")
	return NewConfig()
}
