package main

import (
	"context"
	"fmt"
	"os"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/joho/godotenv"
	"github.com/pressly/goose/v3"
	"go.uber.org/zap"
)

// Runs goose against db/migrations. The first argument is the goose
// command, defaulting to "up".
func main() {
	_ = godotenv.Load()
	logger, err := zap.NewDevelopment()
	if err != nil {
		panic(err)
	}
	defer logger.Sync()
	zap.ReplaceGlobals(logger)

	command := "up"
	if len(os.Args) > 1 {
		command = os.Args[1]
	}

	dir := os.Getenv("MIGRATIONS_DIR")
	if dir == "" {
		dir = "db/migrations"
	}

	dsn := fmt.Sprintf(
		"host=%s user=%s password=%s dbname=%s port=%s sslmode=%s",
		os.Getenv("DB_HOST"),
		os.Getenv("DB_USER"),
		os.Getenv("DB_PASSWORD"),
		os.Getenv("DB_NAME"),
		os.Getenv("DB_PORT"),
		os.Getenv("DB_SSLMODE"),
	)

	db, err := goose.OpenDBWithDriver("pgx", dsn)
	if err != nil {
		logger.Fatal("goose: failed to open DB", zap.Error(err))
	}
	defer db.Close()

	goose.SetTableName("schema_migrations")

	if err := goose.RunContext(context.Background(), command, db, dir); err != nil {
		logger.Fatal("goose command failed", zap.String("command", command), zap.Error(err))
	}

	logger.Info("migrations done", zap.String("command", command), zap.String("dir", dir))
}
