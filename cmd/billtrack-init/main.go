// Command billtrack-init seeds a user's expense registry with a starter
// set of templates so a fresh dashboard is not empty.
package main

import (
	"context"
	"flag"
	"os"
	"time"

	"github.com/joho/godotenv"

	"billtrack/internal/config"
	"billtrack/internal/core"
	"billtrack/internal/log"
	"billtrack/internal/storage"
)

func starterRegistry(today core.Date) core.Registry {
	// A goal due roughly six months out gives the savings pacing
	// something to plan against.
	goalDue := today.AddDays(182)
	return core.Registry{
		{
			ID: "rent", Name: "Rent", Icon: "🏠", Variant: core.VariantRecurring,
			Amount: core.Money{Cents: 120000}, DueDay: 1,
		},
		{
			ID: "groceries", Name: "Groceries", Icon: "🛒", Variant: core.VariantVariable,
			Amount: core.Money{Cents: 40000}, DueDay: 15,
		},
		{
			ID: "emergency-fund", Name: "Emergency fund", Icon: "🏦", Variant: core.VariantGoal,
			Amount: core.Money{Cents: 100000}, DueDate: goalDue,
		},
	}
}

func main() {
	_ = godotenv.Load()

	logger := log.New(log.Config{})
	log.SetDefault(logger)

	user := flag.String("user", "", "user id to seed (empty for the default registry)")
	force := flag.Bool("force", false, "overwrite an existing registry")
	flag.Parse()

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.Error("configuration validation failed", "error", err)
		os.Exit(1)
	}

	repo, err := storage.NewRepository(cfg.SQLiteDBPath)
	if err != nil {
		logger.Error("failed to initialize storage", "error", err, "path", cfg.SQLiteDBPath)
		os.Exit(1)
	}
	defer repo.Close()

	ctx := context.Background()
	existing, err := repo.LoadExpenses(ctx, *user)
	if err != nil {
		logger.Error("failed to read registry", "error", err)
		os.Exit(1)
	}
	if len(existing) > 0 && !*force {
		logger.Info("registry already populated, nothing to do",
			"user", *user, "expenses", len(existing))
		return
	}

	reg := starterRegistry(core.DateOf(time.Now()))
	if err := repo.SaveExpenses(ctx, *user, reg); err != nil {
		logger.Error("failed to seed registry", "error", err)
		os.Exit(1)
	}
	logger.Info("registry seeded", "user", *user, "expenses", len(reg))
}
