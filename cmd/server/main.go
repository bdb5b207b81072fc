package main

import (
	"context"
	"net/http"

	"github.com/rs/zerolog/log"

	_ "github.com/lib/pq"

	"github.com/go-petr/pet-wallet/cmd/httpserver"
	"github.com/go-petr/pet-wallet/internal/events"
	"github.com/go-petr/pet-wallet/internal/events/kafka"
	"github.com/go-petr/pet-wallet/internal/middleware"
	"github.com/go-petr/pet-wallet/pkg/configpkg"
	"github.com/go-petr/pet-wallet/pkg/dbpkg"
	"github.com/go-petr/pet-wallet/pkg/redispkg"

	"github.com/redis/go-redis/v9"
)

func main() {
	config, err := configpkg.Load("./configs")
	if err != nil {
		log.Fatal().Err(err).Msg("cannot load config")
	}

	logger := middleware.CreateLogger(config)

	conn, err := dbpkg.Setup(config.DBDriver, config.DBSource)
	if err != nil {
		logger.Fatal().Err(err).Msg("cannot connect to db")
	}

	var cache *redis.Client
	if config.RedisURL != "" {
		cache, err = redispkg.Setup(context.Background(), config.RedisURL)
		if err != nil {
			logger.Fatal().Err(err).Msg("cannot connect to redis")
		}
	}

	var publisher events.Publisher
	if len(config.KafkaBrokers) > 0 {
		kafkaPublisher := kafka.NewPublisher(config.KafkaBrokers)
		defer kafkaPublisher.Close()

		publisher = kafkaPublisher
	}

	server, err := httpserver.New(conn, logger, config, cache, publisher)
	if err != nil {
		logger.Fatal().Err(err).Msg("cannot create server")
	}

	if err := http.ListenAndServe(config.ServerAddress, server); err != nil {
		logger.Fatal().Err(err).Msg("cannot start server")
	}
}
