package chain

import (
	"github.com/kaspanet/chainkeeper/infrastructure/logger"
)

var log = logger.RegisterSubSystem("CHMG")
