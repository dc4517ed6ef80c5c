package util

import (
	"time"

	"github.com/rs/zerolog/log"
)

// Trace 记录耗时，用法：defer util.Trace("remove background")()
func Trace(msg string) func() {
	start := time.Now()
	log.Debug().Str("trace", msg).Msg("enter")
	return func() {
		log.Debug().Str("trace", msg).Dur("elapsed", time.Since(start)).Msg("exit")
	}
}
