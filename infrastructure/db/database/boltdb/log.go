package boltdb

import "github.com/kaspanet/chainkeeper/infrastructure/logger"

var log = logger.RegisterSubSystem("BTDB")
