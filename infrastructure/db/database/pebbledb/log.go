package pebbledb

import (
	"fmt"

	"github.com/kaspanet/chainkeeper/infrastructure/logger"
)

var log = logger.RegisterSubSystem("PBDB")

// pebbleLogger routes pebble's internal logging into the PBDB subsystem.
type pebbleLogger struct {
	log *logger.Logger
}

func (l pebbleLogger) Infof(format string, args ...interface{}) {
	l.log.Debugf(format, args...)
}

func (l pebbleLogger) Fatalf(format string, args ...interface{}) {
	l.log.Criticalf(format, args...)
	panic(fmt.Sprintf(format, args...))
}
