package divergencemanager

import (
	"github.com/kaspanet/chainkeeper/infrastructure/logger"
)

var log = logger.RegisterSubSystem("DVRG")
