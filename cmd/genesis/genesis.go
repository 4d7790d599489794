// Copyright (c) 2014-2016 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Command genesis prints the genesis block and consensus parameters of a
// configured network, the way the teacher's own genesis tool once solved
// and printed the DAG's genesis blocks.
package main

import (
	"encoding/hex"
	"fmt"
	"os"

	"github.com/jessevdk/go-flags"
	"github.com/pinpins/interchained/chainparams"
)

type options struct {
	Network string `short:"n" long:"network" description:"Network to print (mainnet, testnet, regtest)" default:"mainnet"`
}

func main() {
	var opts options
	parser := flags.NewParser(&opts, flags.PrintErrors|flags.HelpFlag)
	if _, err := parser.Parse(); err != nil {
		os.Exit(1)
	}

	params, ok := chainparams.ByName(opts.Network)
	if !ok {
		fmt.Fprintf(os.Stderr, "unknown network %q\n", opts.Network)
		os.Exit(1)
	}

	block := params.GenesisBlock
	hash := block.BlockHash()

	fmt.Printf("network: %s\n", params.Name)
	fmt.Printf("version: %d\n", block.Header.Version)
	fmt.Printf("timestamp: %d (%s)\n", block.Header.Timestamp.Unix(), block.Header.Timestamp.UTC())
	fmt.Printf("bits: 0x%08x\n", block.Header.Bits)
	fmt.Printf("nonce: %d\n", block.Header.Nonce)
	fmt.Printf("merkle root: %s\n", block.Header.MerkleRoot)
	fmt.Printf("hash: %s\n", hash)
	fmt.Printf("coinbase script: %s\n", hex.EncodeToString(block.Transactions[0].TxIn[0].SignatureScript))
	fmt.Println()
	fmt.Printf("powLimit: 0x%x\n", params.PowLimit)
	fmt.Printf("powLimitYespower: 0x%x\n", params.PowLimitYespower)
	fmt.Printf("yespowerForkHeight: %d\n", params.YespowerForkHeight)
	fmt.Printf("difficultyForkHeight: %d\n", params.DifficultyForkHeight)
	fmt.Printf("nextDifficultyForkHeight: %d\n", params.NextDifficultyForkHeight)
	fmt.Printf("nextDifficultyFork2Height: %d\n", params.NextDifficultyFork2Height)
	fmt.Printf("nextDifficultyFork3Height: %d\n", params.NextDifficultyFork3Height)
	fmt.Printf("nextDifficultyFork5Height: %d\n", params.NextDifficultyFork5Height)
	fmt.Printf("nPowTargetSpacing: %d\n", params.NPowTargetSpacing)
	fmt.Printf("nPowTargetTimespan: %d\n", params.NPowTargetTimespan)
	fmt.Printf("nFeeBurnEndHeight: %d\n", params.NFeeBurnEndHeight)
	fmt.Printf("governanceWallet: %s\n", params.GovernanceWallet)
	fmt.Printf("nodeOperatorWallet: %s\n", params.NodeOperatorWallet)
	fmt.Printf("tokenActivationHeight: %d\n", params.TokenActivationHeight)
}
