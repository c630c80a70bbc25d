package main

import (
	"context"
	"os"

	"chronos-go/pkg/logger"
)

func main() {
	log := logger.NewFromEnv()

	if err := newRootCmd(log).ExecuteContext(context.Background()); err != nil {
		log.Critical("app: command failed", "err", err)
		os.Exit(1)
	}
}
