package cmd

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/templui/goalsetter/internal/config"
	"github.com/templui/goalsetter/internal/db"
	"github.com/templui/goalsetter/internal/logger"
)

// openDatabase connects using the DB_* settings only.
func openDatabase(ctx context.Context) (*config.Config, *sqlx.DB, error) {
	cfg := config.LoadDatabase()
	logger.Init(true, "")

	conn, err := db.Init(ctx, cfg.DBDriver, cfg.DBConnection)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open database: %w", err)
	}
	return cfg, conn, nil
}
