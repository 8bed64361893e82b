package main

import (
	"fmt"
	"os"

	"github.com/jessevdk/go-flags"
	"github.com/kaspanet/chainkeeper/infrastructure/config"
	"github.com/kaspanet/chainkeeper/version"
	"github.com/pkg/errors"
)

const (
	createSubCmd   = "create"
	attachSubCmd   = "attach"
	finalizeSubCmd = "finalize"
	indexSubCmd    = "index"
	showSubCmd     = "show"
	linkSubCmd     = "link"
	divergeSubCmd  = "diverge"
	importSubCmd   = "import"
	simulateSubCmd = "simulate"
	pruneSubCmd    = "prune"
	resetSubCmd    = "reset"
	removeSubCmd   = "remove-branch"
)

// ChainFlags selects the chain a command operates on
type ChainFlags struct {
	ChainID uint32 `long:"chain-id" short:"c" description:"The id of the chain" required:"true"`
}

type createConfig struct {
	ChainFlags
	GenesisHash string `long:"genesis" short:"g" description:"The genesis block hash (encoded in hex). Derived from the chain id if omitted"`
}

type attachConfig struct {
	ChainFlags
	BlockHash         string `long:"hash" description:"The block hash (encoded in hex)" required:"true"`
	Height            uint64 `long:"height" description:"The block height" required:"true"`
	PreviousBlockHash string `long:"prev" description:"The previous block hash (encoded in hex)" required:"true"`
}

type finalizeConfig struct {
	ChainFlags
	BlockHash string `long:"hash" description:"The block to make the last irreversible block (encoded in hex)" required:"true"`
}

type indexConfig struct {
	ChainFlags
	Height uint64 `long:"height" description:"The finalized height to look up" required:"true"`
}

type showConfig struct {
	ChainFlags
}

type linkConfig struct {
	ChainFlags
	BlockHash string `long:"hash" description:"The block hash (encoded in hex)" required:"true"`
}

type divergeConfig struct {
	ChainFlags
	TipA string `long:"tip-a" description:"The first tip (encoded in hex)" required:"true"`
	TipB string `long:"tip-b" description:"The second tip (encoded in hex)" required:"true"`
}

type importConfig struct {
	Files []string `long:"file" short:"f" description:"A JSON lines feed of block links. May be given several times, feeds are imported in parallel" required:"true"`
}

type simulateConfig struct {
	ChainFlags
	Blocks   int     `long:"blocks" short:"n" description:"Number of blocks to generate"`
	ForkRate float64 `long:"fork-rate" description:"Probability of a block to fork off an older block instead of extending the tip"`
	Seed     int64   `long:"seed" description:"Seed of the random generator"`
	Shuffle  bool    `long:"shuffle" description:"Attach blocks in random order instead of generation order"`
	Finalize uint64  `long:"finalize-depth" description:"Finalize the best chain this many blocks below its tip, 0 to skip"`
}

type pruneConfig struct {
	ChainFlags
}

type resetConfig struct {
	ChainFlags
}

type removeConfig struct {
	ChainFlags
	BlockHash string `long:"hash" description:"The first block of the branch to remove (encoded in hex)" required:"true"`
}

func parseCommandLine() (subCommand string, cfgFlags *config.Flags, subConfig interface{}) {
	cfgFlags = config.DefaultFlags()
	parser := flags.NewParser(cfgFlags, flags.PrintErrors|flags.HelpFlag)
	parser.SubcommandsOptional = true

	createConf := &createConfig{}
	parser.AddCommand(createSubCmd, "Creates a new chain",
		"Creates a new chain with a linked, irreversible genesis block", createConf)

	attachConf := &attachConfig{}
	parser.AddCommand(attachSubCmd, "Attaches a block to a chain",
		"Attaches a block to a chain and prints the attach status", attachConf)

	finalizeConf := &finalizeConfig{}
	parser.AddCommand(finalizeSubCmd, "Sets the last irreversible block",
		"Sets the last irreversible block of a chain, indexing every height up to it", finalizeConf)

	indexConf := &indexConfig{}
	parser.AddCommand(indexSubCmd, "Shows the canonical block at a finalized height",
		"Shows the canonical block at a finalized height", indexConf)

	showConf := &showConfig{}
	parser.AddCommand(showSubCmd, "Shows a chain",
		"Shows the best chain, the last irreversible block and the orphans of a chain", showConf)

	linkConf := &linkConfig{}
	parser.AddCommand(linkSubCmd, "Shows a block link",
		"Shows the link record of a block", linkConf)

	divergeConf := &divergeConfig{}
	parser.AddCommand(divergeSubCmd, "Computes the divergence path of two tips",
		"Computes the common ancestor of two tips and the blocks only one of them contains", divergeConf)

	importConf := &importConfig{}
	parser.AddCommand(importSubCmd, "Imports JSON lines feeds of block links",
		"Imports JSON lines feeds of block links. Every line is an object with the fields "+
			"chainId, blockHash, height and previousBlockHash", importConf)

	simulateConf := &simulateConfig{Blocks: 100, ForkRate: 0.1, Seed: 1}
	parser.AddCommand(simulateSubCmd, "Simulates a forking chain",
		"Generates a random tree of blocks and attaches it to a chain", simulateConf)

	pruneConf := &pruneConfig{}
	parser.AddCommand(pruneSubCmd, "Prunes orphans below the last irreversible block",
		"Prunes orphans that can no longer be linked because they are at or below the last irreversible block",
		pruneConf)

	resetConf := &resetConfig{}
	parser.AddCommand(resetSubCmd, "Resets a chain to its last irreversible block",
		"Unlinks every block above the last irreversible block and clears the orphans", resetConf)

	removeConf := &removeConfig{}
	parser.AddCommand(removeSubCmd, "Removes a failed branch",
		"Unlinks a block whose execution failed together with every block above it", removeConf)

	_, err := config.Parse(parser, cfgFlags, os.Args[1:])
	if err != nil {
		var flagsErr *flags.Error
		if ok := errors.As(err, &flagsErr); ok {
			if flagsErr.Type == flags.ErrHelp {
				os.Exit(0)
			}
			// Already printed by the parser
			os.Exit(1)
		}
		printErrorAndExit(err)
		return "", nil, nil
	}

	if cfgFlags.ShowVersion {
		fmt.Println("chainctl version", version.Version())
		os.Exit(0)
	}
	if parser.Command.Active == nil {
		parser.WriteHelp(os.Stderr)
		os.Exit(1)
	}

	switch parser.Command.Active.Name {
	case createSubCmd:
		subConfig = createConf
	case attachSubCmd:
		subConfig = attachConf
	case finalizeSubCmd:
		subConfig = finalizeConf
	case indexSubCmd:
		subConfig = indexConf
	case showSubCmd:
		subConfig = showConf
	case linkSubCmd:
		subConfig = linkConf
	case divergeSubCmd:
		subConfig = divergeConf
	case importSubCmd:
		subConfig = importConf
	case simulateSubCmd:
		subConfig = simulateConf
	case pruneSubCmd:
		subConfig = pruneConf
	case resetSubCmd:
		subConfig = resetConf
	case removeSubCmd:
		subConfig = removeConf
	}

	return parser.Command.Active.Name, cfgFlags, subConfig
}
