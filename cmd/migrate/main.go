package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"wastemap-server/internal/config"
	"wastemap-server/internal/db"
	"wastemap-server/internal/logging"
	"wastemap-server/internal/migrate"
)

const usage = `usage: %s <command>
  migrate  apply pending schema/seed migrations
  status   list pending migrations
`

func main() {
	if len(os.Args) < 2 {
		fmt.Fprintf(os.Stderr, usage, os.Args[0])
		os.Exit(1)
	}

	if err := config.LoadDotEnv(os.Getenv("ENV_FILE")); err != nil {
		fmt.Fprintf(os.Stderr, "config error: %v\n", err)
		os.Exit(1)
	}
	cfg, err := config.LoadFromEnv()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config error: %v\n", err)
		os.Exit(1)
	}
	slog.SetDefault(logging.New(cfg, "dev", "wastemap-migrate"))

	conn, err := db.Open(context.Background(), cfg, slog.Default())
	if err != nil {
		fmt.Fprintf(os.Stderr, "db open: %v\n", err)
		os.Exit(1)
	}
	defer func() {
		if closeErr := db.Close(conn); closeErr != nil {
			slog.Error("db close", "err", closeErr)
		}
	}()

	switch os.Args[1] {
	case "migrate":
		n, err := migrate.Run(conn)
		if err != nil {
			fmt.Fprintf(os.Stderr, "migrate: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("%d migrations applied\n", n)
	case "status":
		pending, err := migrate.Pending(conn)
		if err != nil {
			fmt.Fprintf(os.Stderr, "status: %v\n", err)
			os.Exit(1)
		}
		if len(pending) == 0 {
			fmt.Println("up to date")
			return
		}
		for _, p := range pending {
			fmt.Println("pending", p)
		}
	default:
		fmt.Fprintf(os.Stderr, "unknown command: %s\n", os.Args[1])
		os.Exit(1)
	}
}
