package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/inkvault/backend/internal/config"
	"github.com/inkvault/backend/internal/database"
	"github.com/inkvault/backend/internal/logger"
	"github.com/inkvault/backend/internal/seed"
)

func usage() {
	fmt.Println("Usage: seed [flags] [dev|clean]")
	fmt.Println("  dev   - Seed the database with fake accounts, posts and comment threads")
	fmt.Println("  clean - Remove all data (use with caution)")
	flag.PrintDefaults()
}

func main() {
	opts := seed.DevOptions
	flag.IntVar(&opts.Users, "users", opts.Users, "number of fake accounts")
	flag.IntVar(&opts.PostsPerUser, "posts", opts.PostsPerUser, "posts per account")
	flag.IntVar(&opts.CommentsPerPost, "comments", opts.CommentsPerPost, "comments per post")
	flag.IntVar(&opts.RepliesPerComment, "replies", opts.RepliesPerComment, "replies per comment")
	randSeed := flag.Int64("seed", 0, "random seed, 0 picks one")
	flag.Usage = usage
	flag.Parse()

	command := "dev"
	if flag.NArg() > 0 {
		command = flag.Arg(0)
	}
	if command != "dev" && command != "clean" {
		usage()
		os.Exit(1)
	}

	config.LoadDotEnv()
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}
	if err := logger.Initialize(cfg.LogLevel, cfg.LogFile); err != nil {
		fmt.Fprintf(os.Stderr, "logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Close()

	if err := database.Initialize(cfg); err != nil {
		logger.FatalWithFields("Failed to connect to database", err)
	}
	defer database.Close()
	if err := database.Migrate(); err != nil {
		logger.FatalWithFields("Migration failed", err)
	}

	ctx := context.Background()
	seeder := seed.NewSeeder(database.DB, *randSeed)
	switch command {
	case "dev":
		sum, err := seeder.Seed(ctx, opts)
		if err != nil {
			logger.FatalWithFields("Seeding failed", err)
		}
		logger.Infof("Seeded %d users, %d posts, %d comments, %d replies. Log in as admin / %s",
			sum.Users, sum.Posts, sum.Comments, sum.Replies, seed.DefaultPassword)
	case "clean":
		if err := seeder.Clean(ctx); err != nil {
			logger.FatalWithFields("Clean failed", err)
		}
	}
}
