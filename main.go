package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	cfg, err := loadConfig()
	if err != nil {
		a := newApp(config{})
		a.fail("Error reading configuration:", err)
		return
	}

	executeCommand(ctx, newApp(cfg))
}
