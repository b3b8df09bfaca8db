package main

import (
	"context"
	"io"
	"net"
	"os"
)

// Environment holds injectable dependencies for testability.
type Environment struct {
	Getenv  func(string) string
	Environ func() []string
	Stdout  io.Writer
	Stderr  io.Writer

	// Listen opens the server socket; tests pass a loopback listener.
	Listen func(ctx context.Context, addr string) (net.Listener, error)

	// BrowserPath reports the Chrome binary rod would use, if any.
	BrowserPath func() (string, bool)
}

// DefaultEnv returns the production environment.
func DefaultEnv() *Environment {
	return &Environment{
		Getenv:      os.Getenv,
		Environ:     os.Environ,
		Stdout:      os.Stdout,
		Stderr:      os.Stderr,
		Listen:      listenTCP,
		BrowserPath: lookBrowser,
	}
}

func listenTCP(ctx context.Context, addr string) (net.Listener, error) {
	var lc net.ListenConfig
	return lc.Listen(ctx, "tcp", addr)
}
