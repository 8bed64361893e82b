package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/btcsuite/btcutil"
	"github.com/jessevdk/go-flags"
	"github.com/kaspanet/chainkeeper/domain/chain"
	"github.com/kaspanet/chainkeeper/infrastructure/db/database/dbfactory"
	"github.com/kaspanet/chainkeeper/infrastructure/logger"
	"github.com/pkg/errors"
)

const (
	defaultConfigFilename = "chainkeeper.conf"
	defaultDataDirname    = "data"
	defaultLogDirname     = "logs"
	defaultLogFilename    = "chainkeeper.log"
	defaultErrLogFilename = "chainkeeper_err.log"
	defaultLogLevel       = "info"
	defaultDBType         = dbfactory.TypeLevelDB
	defaultDBCacheSizeMiB = 64
)

var (
	// DefaultAppDir is the default home directory for chainkeeper.
	DefaultAppDir = btcutil.AppDataDir("chainkeeper", false)

	defaultConfigFile = filepath.Join(DefaultAppDir, defaultConfigFilename)
)

// Flags defines the configuration options shared by every chainkeeper
// command. The options can also be set in an ini formatted config file.
type Flags struct {
	ShowVersion     bool   `short:"V" long:"version" description:"Display version information and exit" no-ini:"true"`
	ConfigFile      string `short:"C" long:"configfile" description:"Path to configuration file"`
	AppDir          string `short:"b" long:"appdir" description:"Directory to store data"`
	LogDir          string `long:"logdir" description:"Directory to log output"`
	LogLevel        string `short:"d" long:"loglevel" description:"Logging level for all subsystems {trace, debug, info, warn, error, critical} -- You may also specify <subsystem>=<level>,<subsystem2>=<level>,... to set the log level for individual subsystems"`
	DBType          string `long:"dbtype" description:"Database backend {leveldb, bolt, pebble, memory}"`
	DBCacheSizeMiB  int    `long:"dbcache" description:"Database cache size in MiB"`
	MaxOrphans      int    `long:"maxorphans" description:"Max number of orphans registered per chain, 0 for no limit"`
	LinkCacheSize   int    `long:"linkcachesize" description:"Number of block links cached in memory per chain"`
	OrphanCacheSize int    `long:"orphancachesize" description:"Number of orphan registry entries cached in memory per chain"`
	IndexCacheSize  int    `long:"indexcachesize" description:"Number of finalized heights cached in memory per chain"`
	Profile         string `long:"profile" description:"Enable HTTP profiling on given port -- NOTE port must be between 1024 and 65535"`
}

// DefaultFlags returns the flags with every option set to its default
func DefaultFlags() *Flags {
	chainConfig := chain.DefaultConfig()
	return &Flags{
		ConfigFile:      defaultConfigFile,
		AppDir:          DefaultAppDir,
		LogLevel:        defaultLogLevel,
		DBType:          defaultDBType,
		DBCacheSizeMiB:  defaultDBCacheSizeMiB,
		MaxOrphans:      chainConfig.MaxOrphans,
		LinkCacheSize:   chainConfig.LinkCacheSize,
		OrphanCacheSize: chainConfig.OrphanCacheSize,
		IndexCacheSize:  chainConfig.IndexCacheSize,
	}
}

// Parse fills cfgFlags, which must be the options of parser, in three
// steps:
// 	1) Pre-parse args to find an alternative config file
// 	2) Load the config file, if it exists, over the defaults
// 	3) Parse args again so that they take precedence over the config file
// It returns the remaining arguments.
func Parse(parser *flags.Parser, cfgFlags *Flags, args []string) ([]string, error) {
	preCfg := *cfgFlags
	preParser := flags.NewParser(&preCfg, flags.IgnoreUnknown)
	// Any errors here, help included, are reported by the final parse
	_, _ = preParser.ParseArgs(args)

	configFile := cleanAndExpandPath(preCfg.ConfigFile)
	err := flags.NewIniParser(parser).ParseFile(configFile)
	if err != nil {
		var pathErr *os.PathError
		if !errors.As(err, &pathErr) {
			return nil, errors.Wrapf(err, "error parsing config file %s", configFile)
		}
		if preCfg.ConfigFile != defaultConfigFile {
			return nil, errors.Wrapf(err, "error reading config file %s", configFile)
		}
	}

	remainingArgs, err := parser.ParseArgs(args)
	if err != nil {
		return nil, err
	}

	err = cfgFlags.resolve()
	if err != nil {
		return nil, err
	}
	return remainingArgs, nil
}

func (cfgFlags *Flags) resolve() error {
	cfgFlags.AppDir = cleanAndExpandPath(cfgFlags.AppDir)
	if cfgFlags.LogDir == "" {
		cfgFlags.LogDir = filepath.Join(cfgFlags.AppDir, defaultLogDirname)
	}
	cfgFlags.LogDir = cleanAndExpandPath(cfgFlags.LogDir)

	cfgFlags.DBType = strings.ToLower(cfgFlags.DBType)
	if !validDBType(cfgFlags.DBType) {
		return errors.Errorf("the specified database type [%s] is invalid -- supported types %s",
			cfgFlags.DBType, strings.Join(dbfactory.SupportedTypes, ", "))
	}

	if cfgFlags.DBCacheSizeMiB < 0 {
		return errors.Errorf("dbcache cannot be negative, got %d", cfgFlags.DBCacheSizeMiB)
	}
	if cfgFlags.LinkCacheSize < 0 || cfgFlags.OrphanCacheSize < 0 || cfgFlags.IndexCacheSize < 0 {
		return errors.New("cache sizes cannot be negative")
	}

	if cfgFlags.Profile != "" {
		profilePort, err := strconv.Atoi(cfgFlags.Profile)
		if err != nil || profilePort < 1024 || profilePort > 65535 {
			return errors.Errorf("the profile port must be between 1024 and 65535, got %s", cfgFlags.Profile)
		}
	}
	return nil
}

// ChainConfig returns the chain manager parameters set by the flags
func (cfgFlags *Flags) ChainConfig() *chain.Config {
	return &chain.Config{
		MaxOrphans:      cfgFlags.MaxOrphans,
		LinkCacheSize:   cfgFlags.LinkCacheSize,
		OrphanCacheSize: cfgFlags.OrphanCacheSize,
		IndexCacheSize:  cfgFlags.IndexCacheSize,
	}
}

// DatabaseOptions returns the options of the database selected by the flags
func (cfgFlags *Flags) DatabaseOptions() dbfactory.Options {
	return dbfactory.Options{
		Type:         cfgFlags.DBType,
		Path:         filepath.Join(cfgFlags.AppDir, defaultDataDirname),
		CacheSizeMiB: cfgFlags.DBCacheSizeMiB,
	}
}

// InitLog starts logging into the log directory, mirroring errors to
// stdout, and applies the log level flag.
func (cfgFlags *Flags) InitLog() error {
	logger.InitLog(filepath.Join(cfgFlags.LogDir, defaultLogFilename),
		filepath.Join(cfgFlags.LogDir, defaultErrLogFilename), logger.LevelError)
	return logger.ParseAndSetLogLevels(cfgFlags.LogLevel)
}

// validDBType returns whether or not dbType is a supported database type.
func validDBType(dbType string) bool {
	for _, knownType := range dbfactory.SupportedTypes {
		if dbType == knownType {
			return true
		}
	}
	return false
}

// cleanAndExpandPath expands environment variables and leading ~ in the
// passed path, cleans the result, and returns it.
func cleanAndExpandPath(path string) string {
	// Expand initial ~ to OS specific home directory.
	if strings.HasPrefix(path, "~") {
		homeDir := filepath.Dir(DefaultAppDir)
		path = strings.Replace(path, "~", homeDir, 1)
	}

	// NOTE: The os.ExpandEnv doesn't work with Windows-style %VARIABLE%,
	// but they variables can still be expanded via POSIX-style $VARIABLE.
	return filepath.Clean(os.ExpandEnv(path))
}

// WriteConfigFile writes the current flags as an ini config file to path
func (cfgFlags *Flags) WriteConfigFile(path string) error {
	err := os.MkdirAll(filepath.Dir(path), 0700)
	if err != nil {
		return errors.WithStack(err)
	}

	parser := flags.NewParser(cfgFlags, flags.None)
	file, err := os.Create(path)
	if err != nil {
		return errors.WithStack(err)
	}
	defer file.Close()

	_, err = fmt.Fprintln(file, "; chainkeeper configuration")
	if err != nil {
		return errors.WithStack(err)
	}
	flags.NewIniParser(parser).Write(file, flags.IniIncludeComments|flags.IniIncludeDefaults)
	return nil
}
