// Package main is the entry point for the numberhero server.
package main

import (
	"github.com/rs/zerolog/log"

	"github.com/robalobadob/numberhero/cmd"
)

// version is injected via ldflags at build time.
var version = "dev"

func main() {
	cmd.SetVersion(version)
	if err := cmd.Execute(); err != nil {
		log.Fatal().Err(err).Msg("numberhero exited")
	}
}
