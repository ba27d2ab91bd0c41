// Package main is the summarize CLI: it fetches one URL, reduces its content to a
// prompt-sized payload and prints a summary from a chat-completion API.
//
// Usage: summarize [flags] <url>
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	pkgconfig "github.com/davisbuilds/summarize/pkg/config"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	code := run(ctx, os.Args[1:], deps{
		Env:        pkgconfig.OSEnv(),
		Stdout:     os.Stdout,
		Stderr:     os.Stderr,
		HTTPClient: &http.Client{},
	})
	stop()
	os.Exit(code)
}
