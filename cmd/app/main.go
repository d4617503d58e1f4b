package main

import (
	"braidbook/config"
	"braidbook/di"
	"braidbook/helper"
	"braidbook/shared/logger"

	"github.com/rs/zerolog/log"
)

func main() {
	cfg := config.Get()

	logger.InitLogger()

	logger.Configure(cfg)

	if cfg.DB.Postgres.AutoMigrate {
		if err := helper.Migrate(cfg, helper.ActionUp); err != nil {
			log.Fatal().Err(err).Msg("Failed to apply migrations on startup")
		}
	}

	http := di.InitializeService()
	http.Serve()
}
