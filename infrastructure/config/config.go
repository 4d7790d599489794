// Copyright (c) 2013-2016 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package config parses the node's command-line configuration surface:
// network selection and the block-template assembly policy spec.md §6
// names (blockmaxweight, blockmintxfee, blockversion, printpriority).
//
// Grounded on cmd/kaspaminer/config.go's go-flags struct and parse
// sequence, extended with the policy flags a miner client never needed.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/jessevdk/go-flags"
	"github.com/pkg/errors"
	"github.com/pinpins/interchained/chainparams"
	"github.com/pinpins/interchained/mining"
	"github.com/pinpins/interchained/version"
)

const (
	defaultLogFilename    = "interchained.log"
	defaultErrLogFilename = "interchained_err.log"
	defaultDataDirname    = "data"
	defaultNumWorkers     = 0
)

var defaultHomeDir = defaultAppDataDir()

// defaultAppDataDir returns $HOME/.interchained, falling back to the
// current directory if the home directory can't be resolved.
func defaultAppDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil || home == "" {
		return "."
	}
	return filepath.Join(home, ".interchained")
}

// NetworkFlags selects which chain parameters a node or tool runs against.
//
// Grounded on infrastructure/config/network.go's NetworkFlags, replacing
// its DAG-parameter override table with the plain network-name resolution
// chainparams.ByName already performs.
type NetworkFlags struct {
	Testnet bool `long:"testnet" description:"Use the test network"`
	Regtest bool `long:"regtest" description:"Use the regression test network"`

	ActiveNetParams *chainparams.Params
}

// ResolveNetwork validates that at most one network flag was given and
// sets ActiveNetParams, defaulting to mainnet.
func (n *NetworkFlags) ResolveNetwork() error {
	name, numNets := "mainnet", 0
	if n.Testnet {
		name = "testnet"
		numNets++
	}
	if n.Regtest {
		name = "regtest"
		numNets++
	}
	if numNets > 1 {
		return errors.New("the testnet and regtest flags are mutually exclusive")
	}
	params, ok := chainparams.ByName(name)
	if !ok {
		return errors.Errorf("unknown network %q", name)
	}
	n.ActiveNetParams = params
	return nil
}

// Config is the node's full command-line surface.
//
// Grounded on cmd/kaspaminer/config.go's configFlags, extended with the
// block-template assembly policy spec.md §6 describes.
type Config struct {
	ShowVersion bool `short:"V" long:"version" description:"Display version information and exit"`

	DataDir string `short:"b" long:"datadir" description:"Directory to store the token ledger's persisted state"`
	LogDir  string `long:"logdir" description:"Directory to log output"`
	Debug   string `short:"d" long:"debuglevel" description:"Logging level" default:"info"`

	PayoutAddress   string `long:"miningaddr" description:"Address to pay block rewards to; mining is disabled if empty"`
	GenerateThreads int    `long:"genthreads" description:"Number of mining worker goroutines; 0 disables in-process mining" default:"0"`

	BlockMaxWeight uint32 `long:"blockmaxweight" description:"Maximum block weight to be used when creating a block template" default:"3996000"`
	BlockMinTxFee  int64  `long:"blockmintxfee" description:"The minimum transaction fee in amount/byte to be considered for block template inclusion" default:"1"`
	BlockVersion   int32  `long:"blockversion" description:"Block version to use for regtest block templates"`
	PrintPriority  bool   `long:"printpriority" description:"Log the fee-rate ordering used for each assembled block template"`

	NetworkFlags
}

// Policy builds the mining.Policy this configuration describes.
func (cfg *Config) Policy() *mining.Policy {
	return &mining.Policy{
		BlockMaxWeight: cfg.BlockMaxWeight,
		BlockMinTxFee:  cfg.BlockMinTxFee,
		BlockVersion:   cfg.BlockVersion,
		PrintPriority:  cfg.PrintPriority,
	}
}

// LogFile and ErrLogFile are the default rotated log paths under LogDir.
func (cfg *Config) LogFile() string    { return filepath.Join(cfg.LogDir, defaultLogFilename) }
func (cfg *Config) ErrLogFile() string { return filepath.Join(cfg.LogDir, defaultErrLogFilename) }

// Load parses the process's command-line arguments into a Config,
// resolving defaults and the active network, matching the parse-then-
// validate sequence of cmd/kaspaminer/config.go's parseConfig.
func Load() (*Config, error) {
	cfg := &Config{
		DataDir: filepath.Join(defaultHomeDir, defaultDataDirname),
		LogDir:  defaultHomeDir,
	}
	parser := flags.NewParser(cfg, flags.PrintErrors|flags.HelpFlag)
	_, err := parser.Parse()
	if cfg.ShowVersion {
		fmt.Printf("interchained version %s\n", version.Version())
		os.Exit(0)
	}
	if err != nil {
		return nil, err
	}
	if err := cfg.ResolveNetwork(); err != nil {
		return nil, err
	}
	if cfg.GenerateThreads < 0 {
		return nil, errors.New("genthreads may not be negative")
	}
	return cfg, nil
}
