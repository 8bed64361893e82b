package blocklinker

import (
	"github.com/kaspanet/chainkeeper/infrastructure/logger"
)

var log = logger.RegisterSubSystem("BLNK")
