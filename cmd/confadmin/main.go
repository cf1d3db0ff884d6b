// confadmin runs maintenance tasks against the conference store: schema
// migrations, account management and connectivity checks.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/dmitrijs2005/confkeeper/internal/admin"
	"github.com/dmitrijs2005/confkeeper/internal/logging"
	"github.com/dmitrijs2005/confkeeper/internal/server/config"
	"github.com/dmitrijs2005/confkeeper/internal/server/repositories/repomanager"
	"github.com/spf13/pflag"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		if errors.Is(err, admin.ErrUsage) {
			os.Exit(2)
		}
		os.Exit(1)
	}
}

func run() error {
	var configPath, store, dsn, mongoURI, dbName, logLevel string

	flagSet := pflag.NewFlagSet("confadmin", pflag.ContinueOnError)
	flagSet.SetInterspersed(false)
	flagSet.StringVarP(&configPath, "config", "c", "", "path to a JSON or YAML config file")
	flagSet.StringVar(&store, "store", "", "store driver (postgres|mongo)")
	flagSet.StringVar(&dsn, "dsn", "", "PostgreSQL DSN")
	flagSet.StringVar(&mongoURI, "mongo-uri", "", "MongoDB URI")
	flagSet.StringVar(&dbName, "db-name", "", "database name (mongo)")
	flagSet.StringVar(&logLevel, "log-level", "warn", "log level")
	if err := flagSet.Parse(os.Args[1:]); err != nil {
		return fmt.Errorf("%w: %v", admin.ErrUsage, err)
	}

	var cfgArgs []string
	if configPath != "" {
		cfgArgs = []string{"--config=" + configPath}
	}
	cfg, err := config.Load(cfgArgs, os.LookupEnv)
	if err != nil {
		return err
	}
	for dst, v := range map[*string]string{&cfg.StoreDriver: store, &cfg.DatabaseDSN: dsn, &cfg.MongoURI: mongoURI, &cfg.DatabaseName: dbName} {
		if v != "" {
			*dst = v
		}
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	ctx := context.Background()
	logger := logging.NewJSONLogger(os.Stderr, logLevel)

	repos, err := repomanager.Open(ctx, cfg)
	if err != nil {
		return err
	}
	defer repos.Close(ctx)

	return admin.New(repos, cfg, logger, os.Stdin, os.Stdout).Run(ctx, flagSet.Args())
}
