package main

import (
	"braidbook/config"
	"braidbook/di"
	"braidbook/shared/logger"
	"context"
	"os"

	"github.com/rs/zerolog/log"
)

const (
	argOnce = "once"
)

func main() {
	cfg := config.Get()

	logger.InitLogger()

	logger.Configure(cfg)

	sweeper := di.InitializeSweeper()

	if len(os.Args) > 1 && os.Args[1] == argOnce {
		if err := sweeper.RunOnce(context.Background()); err != nil {
			log.Fatal().Err(err).Msg("Sweeper pass failed")
		}

		return
	}

	sweeper.Serve()
}
