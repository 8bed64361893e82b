package profiling

import (
	"net"
	"net/http"

	// Required for profiling
	_ "net/http/pprof"

	"github.com/kaspanet/chainkeeper/infrastructure/logger"
	"github.com/kaspanet/chainkeeper/util/panics"
)

// Start starts the profiling server
func Start(port string, log *logger.Logger) {
	go func() {
		defer panics.HandlePanic(log, "profiling.Start", nil)

		listenAddr := net.JoinHostPort("", port)
		log.Infof("Profile server listening on %s", listenAddr)
		profileRedirect := http.RedirectHandler("/debug/pprof", http.StatusSeeOther)
		http.Handle("/", profileRedirect)
		log.Error(http.ListenAndServe(listenAddr, nil))
	}()
}
