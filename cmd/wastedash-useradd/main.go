// Command wastedash-useradd provisions or resets a dashboard account in
// the user database.
package main

import (
	"context"
	"flag"
	"os"

	"wastedash/internal/auth"
	"wastedash/internal/cli"
	applog "wastedash/internal/log"
)

func main() {
	username := flag.String("username", "", "account name to create or update")
	password := flag.String("password", "", "new password for the account")
	flag.Parse()

	cli.LoadEnvFile()
	logger := cli.SetupLogger()

	if *username == "" || *password == "" {
		logger.Error("Both -username and -password are required")
		os.Exit(2)
	}

	cfg := cli.LoadAndValidateConfig(logger)
	repo := cli.InitSQLite(logger, cfg.SQLiteDBPath)
	defer repo.Close()

	hash, err := auth.HashPassword(*password)
	if err != nil {
		logger.Error("Failed to hash password", applog.FieldError, err)
		os.Exit(1)
	}

	if err := repo.UpsertUser(context.Background(), *username, hash); err != nil {
		logger.Error("Failed to store account", applog.FieldError, err, applog.FieldUser, *username)
		os.Exit(1)
	}

	logger.Info("Account stored", applog.FieldUser, *username)
}
