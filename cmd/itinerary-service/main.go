package main

import (
	"os"

	"github.com/rs/zerolog/log"

	"github.com/tripplanner/itinerary-service/internal/service"
)

func main() {
	if err := service.Run(); err != nil {
		log.Error().Err(err).Msg("itinerary-service exited with error")
		os.Exit(1)
	}
}
