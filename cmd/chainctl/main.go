package main

import (
	"context"

	"github.com/kaspanet/chainkeeper/domain/chain"
	"github.com/kaspanet/chainkeeper/domain/chain/model/externalapi"
	"github.com/kaspanet/chainkeeper/infrastructure/config"
	"github.com/kaspanet/chainkeeper/infrastructure/db/database/dbfactory"
	"github.com/kaspanet/chainkeeper/infrastructure/logger"
	"github.com/kaspanet/chainkeeper/infrastructure/os/signal"
	"github.com/kaspanet/chainkeeper/util/panics"
	"github.com/kaspanet/chainkeeper/util/profiling"
	"github.com/pkg/errors"
)

func main() {
	subCmd, cfgFlags, subConfig := parseCommandLine()

	err := cfgFlags.InitLog()
	if err != nil {
		printErrorAndExit(err)
	}
	defer panics.HandlePanic(log, "main", nil)

	if cfgFlags.Profile != "" {
		profiling.Start(cfgFlags.Profile, log)
	}

	ctx, cancel := signal.WithInterrupt(context.Background(), signal.InterruptListener())
	err = run(ctx, subCmd, cfgFlags, subConfig)
	cancel()
	logger.BackendLog.Close()
	if err != nil {
		printErrorAndExit(err)
	}
}

func run(ctx context.Context, subCmd string, cfgFlags *config.Flags, subConfig interface{}) error {
	db, err := dbfactory.Open(cfgFlags.DatabaseOptions())
	if err != nil {
		return err
	}
	defer func() {
		closeErr := db.Close()
		if closeErr != nil {
			log.Errorf("Error closing the database: %s", closeErr)
		}
	}()

	chainManager, err := chain.NewFactory().NewChainManager(cfgFlags.ChainConfig(), db)
	if err != nil {
		return err
	}

	return runSubCommand(ctx, chainManager, subCmd, subConfig)
}

func runSubCommand(ctx context.Context, chainManager externalapi.ChainManager, subCmd string, subConfig interface{}) error {
	switch subCmd {
	case createSubCmd:
		return create(chainManager, subConfig.(*createConfig))
	case attachSubCmd:
		return attach(chainManager, subConfig.(*attachConfig))
	case finalizeSubCmd:
		return finalize(chainManager, subConfig.(*finalizeConfig))
	case indexSubCmd:
		return index(chainManager, subConfig.(*indexConfig))
	case showSubCmd:
		return show(chainManager, subConfig.(*showConfig))
	case linkSubCmd:
		return link(chainManager, subConfig.(*linkConfig))
	case divergeSubCmd:
		return diverge(chainManager, subConfig.(*divergeConfig))
	case importSubCmd:
		return importFeeds(ctx, chainManager, subConfig.(*importConfig))
	case simulateSubCmd:
		return simulate(ctx, chainManager, subConfig.(*simulateConfig))
	case pruneSubCmd:
		return prune(chainManager, subConfig.(*pruneConfig))
	case resetSubCmd:
		return reset(chainManager, subConfig.(*resetConfig))
	case removeSubCmd:
		return removeBranch(chainManager, subConfig.(*removeConfig))
	default:
		return errors.Errorf("Unknown sub-command '%s'\n", subCmd)
	}
}
