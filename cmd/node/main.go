// Copyright (c) 2013-2016 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Command node is the daemon entry point: it assembles the mempool,
// mining, token-ledger, and chain-index packages into a single running
// process that mines its own blocks and replays their token operations.
//
// Grounded on cmd/kaspaminer/main.go's startup shape (parse config, log
// version, install an interrupt listener, run the long-lived loop in a
// goroutine, wait on done-or-interrupt), adapted from an RPC-client miner
// into an in-process node with no peer networking.
package main

import (
	"fmt"
	"os"
	"os/signal"

	"github.com/pinpins/interchained/chainindex"
	"github.com/pinpins/interchained/infrastructure/config"
	"github.com/pinpins/interchained/infrastructure/logger"
	"github.com/pinpins/interchained/mempool"
	"github.com/pinpins/interchained/miner"
	"github.com/pinpins/interchained/mining"
	"github.com/pinpins/interchained/tokenledger"
	"github.com/pinpins/interchained/version"
	"github.com/pinpins/interchained/wire"
)

func interruptListener() <-chan os.Signal {
	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt)
	return c
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "error parsing command-line arguments: %s\n", err)
		os.Exit(1)
	}

	backend := logger.NewBackend()
	level, ok := logger.LevelFromString(cfg.Debug)
	if !ok {
		level = logger.LevelInfo
	}
	if err := backend.AddLogFile(cfg.LogFile(), level); err != nil {
		fmt.Fprintf(os.Stderr, "error opening log file: %s\n", err)
		os.Exit(1)
	}
	if err := backend.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "error starting logger: %s\n", err)
		os.Exit(1)
	}
	defer backend.Close()

	log := backend.Logger("NODE")
	log.SetLevel(level)
	log.Infof("interchained node version %s starting on %s", version.Version(), cfg.ActiveNetParams.Name)

	chn := newChain(cfg.ActiveNetParams)
	txSource := &mempool.OrderedByAncestorFeeRate{}

	ledger, err := tokenledger.Open(tokenledger.Config{
		DataDir:          cfg.DataDir,
		GovernanceWallet: cfg.ActiveNetParams.GovernanceWallet,
		ActivationHeight: cfg.ActiveNetParams.TokenActivationHeight,
		Blocks:           chn,
	})
	if err != nil {
		log.Errorf("failed to open token ledger: %s", err)
		os.Exit(1)
	}
	defer ledger.Close()

	generator := mining.NewBlkTmplGenerator(cfg.Policy(), cfg.ActiveNetParams, txSource, chn, chainindex.NewTimeSource())
	generatorLog := backend.Logger("MINR")
	generatorLog.SetLevel(level)
	generator.Logger = generatorLog

	submitter := &ledgerSubmitter{chain: chn, ledger: ledger, log: log}

	coordinatorLog := backend.Logger("MINC")
	coordinatorLog.SetLevel(level)
	coordinator := miner.NewCoordinator(miner.Config{
		Generator:     generator,
		Params:        cfg.ActiveNetParams,
		ChainTip:      chn,
		TimeSource:    chainindex.NewTimeSource(),
		Submitter:     submitter,
		PayoutAddress: cfg.PayoutAddress,
		NumWorkers:    cfg.GenerateThreads,
		Logger:        coordinatorLog,
	})

	interrupt := interruptListener()
	doneCh := make(chan struct{})

	if cfg.GenerateThreads > 0 && cfg.PayoutAddress != "" {
		coordinator.SetGenerating(true)
	} else {
		log.Infof("mining disabled: genthreads=%d miningaddr=%q", cfg.GenerateThreads, cfg.PayoutAddress)
	}
	go func() {
		coordinator.Run()
		close(doneCh)
	}()

	select {
	case <-doneCh:
	case <-interrupt:
		log.Infof("received interrupt, shutting down")
		coordinator.Stop()
		<-coordinator.Done()
	}
}

// ledgerSubmitter adapts chain+tokenledger into the single
// miner.BlockSubmitter call the coordinator makes per found block: the
// chain validates and appends the block, then the ledger replays its
// token operations.
type ledgerSubmitter struct {
	chain  *chain
	ledger *tokenledger.Ledger
	log    *logger.Logger
}

func (s *ledgerSubmitter) SubmitBlock(block *wire.MsgBlock) error {
	if err := s.chain.SubmitBlock(block); err != nil {
		return err
	}
	height := s.chain.TipHeight()
	s.ledger.ProcessBlock(block, height)
	s.log.Infof("accepted block %s at height %d", block.BlockHash(), height)
	return nil
}
