package main

import (
	"github.com/kaspanet/chainkeeper/infrastructure/logger"
)

var log = logger.RegisterSubSystem("CTL")
