package ldb

import "github.com/kaspanet/chainkeeper/infrastructure/logger"

var log = logger.RegisterSubSystem("CKDB")
