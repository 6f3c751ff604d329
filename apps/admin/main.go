package main

import (
	"context"
	"log"
	"os"

	"github.com/jmoiron/sqlx"

	"github.com/trezcool/classbook/core"
	logsvc "github.com/trezcool/classbook/services/logger"
	"github.com/trezcool/classbook/storage/database"
)

func main() {
	stdLogger := log.New(os.Stderr, "ADMIN : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile)
	conf := core.NewConfig()
	logger := logsvc.NewRollbarLogger(stdLogger, conf)
	logger.Enable(false)

	cli := commandLine{
		conf:   conf,
		logger: logger,
		out:    os.Stdout,
		openDB: func(ctx context.Context) (*sqlx.DB, error) { return database.Open(ctx, conf) },
	}
	err := cli.run(os.Args)
	if cerr := cli.close(); cerr != nil {
		stdLogger.Printf("closing database: %v", cerr)
	}
	if err != nil {
		stdLogger.Printf("error: %v", err)
		os.Exit(1)
	}
}
