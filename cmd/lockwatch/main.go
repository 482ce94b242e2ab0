// Package main is the entry point for the lockwatch CLI.
package main

import (
	"context"
	"os"
	"path/filepath"
	"syscall"

	"github.com/MatthiasKunnen/lockwatch/internal/cli"
)

func main() {
	ctx, stop := cli.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := cli.Execute(ctx, filepath.Base(os.Args[0]), os.Args[1:], os.Stdout, os.Getenv)
	stop()
	os.Exit(code)
}
