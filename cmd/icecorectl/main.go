// Command icecorectl inspects table metadata, plans scans, and
// previews schema-evolution commit payloads against a REST or Glue
// catalog.
package main

import (
	"github.com/rs/zerolog/log"

	"github.com/marmotdata/icecore/internal/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		log.Fatal().Err(err).Msg("icecorectl failed")
	}
}
