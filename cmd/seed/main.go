// Command seed fills the configured databases with generated users,
// categories, articles, comments and likes.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/anonto42/inkwell/backend/internal/logger"
	"github.com/anonto42/inkwell/backend/internal/models"
	"github.com/anonto42/inkwell/backend/internal/repositories"
	"github.com/anonto42/inkwell/backend/internal/seed"
	"github.com/anonto42/inkwell/backend/pkg/config"
	"go.uber.org/zap"
)

func main() {
	var opts seed.Options
	var rngSeed uint64
	flag.IntVar(&opts.Users, "users", 20, "number of reader accounts")
	flag.IntVar(&opts.Articles, "articles", 30, "number of articles")
	flag.IntVar(&opts.MaxCommentsPerPost, "comments", 6, "maximum comments per published article")
	flag.IntVar(&opts.MaxLikesPerPost, "likes", 10, "maximum likes per published article")
	flag.StringVar(&opts.AdminEmail, "admin", "admin@example.com", "admin account email")
	flag.Uint64Var(&rngSeed, "seed", 0, "random seed (0 picks one)")
	flag.Parse()

	if err := run(opts, rngSeed); err != nil {
		fmt.Fprintf(os.Stderr, "seed: %v\n", err)
		os.Exit(1)
	}
}

func run(opts seed.Options, rngSeed uint64) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	logger.InitializeConsole(cfg.LogLevel)

	ctx := context.Background()
	db, err := config.InitDB(ctx, cfg)
	if err != nil {
		return err
	}
	defer db.CloseDB()

	if err := db.Postgres.AutoMigrate(models.Relational()...); err != nil {
		return fmt.Errorf("failed to auto migrate models: %w", err)
	}

	seeder, err := seed.NewSeeder(db.Postgres, repositories.NewMongoArticleRepository(db.MongoDB), rngSeed)
	if err != nil {
		return err
	}
	sum, err := seeder.Seed(ctx, opts)
	if err != nil {
		return err
	}

	logger.Log.Info("database seeded",
		zap.Int("users", sum.Users),
		zap.Int("categories", sum.Categories),
		zap.Int("articles", sum.Articles),
		zap.Int("comments", sum.Comments),
		zap.Int("likes", sum.Likes),
		zap.String("password", seed.DefaultPassword),
	)
	return nil
}
