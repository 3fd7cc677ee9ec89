// Command timerwatch is a terminal dashboard for one user's timers. It keeps
// a live countdown for every timer plus the sorted overview, rings the
// terminal bell on completion, and accepts commands at a prompt.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jmhodges/clock"
	"go.uber.org/zap"

	"dashboard/backend/internal/client"
	"dashboard/backend/internal/logging"
)

var (
	serverURL = flag.String("server", "http://localhost:8080", "Base URL of the timer backend")
	email     = flag.String("email", "", "Account email")
	register  = flag.Bool("register", false, "Create the account before logging in")
	tick      = flag.Duration("tick", time.Second, "Countdown tick interval")
	refresh   = flag.Duration("refresh", 30*time.Second, "Overview refresh interval")
	logLevel  = flag.String("log-level", "warn", "Log level")
)

func main() {
	flag.Parse()

	password := os.Getenv("TIMERWATCH_PASSWORD")
	if *email == "" || password == "" {
		fmt.Fprintln(os.Stderr, "timerwatch: -email and TIMERWATCH_PASSWORD are required")
		os.Exit(2)
	}

	logger, err := logging.NewDevelopment(*logLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "timerwatch: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	api := client.New(*serverURL, nil)
	if *register {
		if _, err := api.Register(ctx, *email, password); err != nil {
			logger.Fatal("register", zap.Error(err))
		}
	} else if _, err := api.Login(ctx, *email, password); err != nil {
		logger.Fatal("login", zap.Error(err))
	}

	sh, err := newShell(api, clock.New(), logger, *tick, *refresh)
	if err != nil {
		logger.Fatal("start shell", zap.Error(err))
	}
	sh.Run(ctx, cancel)
}
