package main

import (
	"os"

	"github.com/rs/zerolog/log"

	"github.com/tripplanner/itinerary-service/internal/mcpserver"
)

func main() {
	if err := mcpserver.Run(os.Args[1:]); err != nil {
		log.Error().Err(err).Msg("MCP server exited with error")
		os.Exit(1)
	}
}
