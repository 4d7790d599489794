// Package chainparams defines the per-network consensus parameters consumed
// by the pow, mining, and tokenledger packages.
package chainparams

import (
	"math/big"
	"time"

	"github.com/pinpins/interchained/wire"
)

var bigOne = big.NewInt(1)

// mainPowLimit is the highest SHA256-regime proof-of-work target, 2^224-1.
var mainPowLimit = new(big.Int).Sub(new(big.Int).Lsh(bigOne, 224), bigOne)

// mainPowLimitYespower is the highest yespower-regime target, 2^235-1.
var mainPowLimitYespower = new(big.Int).Sub(new(big.Int).Lsh(bigOne, 235), bigOne)

var regtestPowLimit = new(big.Int).Sub(new(big.Int).Lsh(bigOne, 255), bigOne)

// Params holds the consensus and issuance parameters of one network,
// modeled on the teacher's per-network Params table, generalized from
// GHOSTDAG/DAG fields to the fork-height fields a linear PoW chain needs.
type Params struct {
	Name string

	// PowLimit is the SHA256-regime proof-of-work limit (pre yespower fork).
	PowLimit *big.Int
	// PowLimitYespower is the yespower-regime proof-of-work limit.
	PowLimitYespower *big.Int

	// YespowerForkHeight is the height at which the memory-hard hash
	// function becomes the consensus hash for PoW verification.
	YespowerForkHeight int64

	// DifficultyForkHeight activates the MTP+20-minute time clamp in
	// the template assembler.
	DifficultyForkHeight int64

	// NextDifficultyForkHeight is the height at which LWMA3 becomes
	// eligible (given N=60 blocks of history past it).
	NextDifficultyForkHeight int64
	// NextDifficultyFork2Height switches retargeting to DGW3-Nova.
	NextDifficultyFork2Height int64
	// NextDifficultyFork3Height activates the emergency/min-solve trigger
	// inside DGW3-Nova.
	NextDifficultyFork3Height int64
	// NextDifficultyFork5Height shrinks the DGW3-Nova window from 24 to 12
	// blocks and switches it to the v9 emergency-trigger and clamp rules.
	NextDifficultyFork5Height int64

	// NPowTargetSpacing is the desired seconds between blocks.
	NPowTargetSpacing int64
	// NPowTargetTimespan is the legacy retarget interval in seconds.
	NPowTargetTimespan int64

	// DifficultyAdjustmentInterval is NPowTargetTimespan / NPowTargetSpacing,
	// the legacy Bitcoin retarget interval in blocks.
	DifficultyAdjustmentInterval int64

	FPowAllowMinDifficultyBlocks bool
	FPowNoRetargeting            bool

	// NFeeBurnEndHeight is the last height at which collected fees are
	// burned rather than paid into the coinbase.
	NFeeBurnEndHeight int64

	GovernanceWallet      string
	NodeOperatorWallet    string
	TokenActivationHeight int64

	// GenesisBlock is the hardcoded height-0 block a node bootstraps its
	// chain index from. CheckProofOfWork accepts it unconditionally.
	GenesisBlock *wire.MsgBlock
}

// DifficultyAdjustmentIntervalBlocks returns the legacy retarget window in
// blocks, as a convenience over the raw field (grounded on
// Consensus::Params::DifficultyAdjustmentInterval()).
func (p *Params) DifficultyAdjustmentIntervalBlocks() int64 {
	if p.DifficultyAdjustmentInterval != 0 {
		return p.DifficultyAdjustmentInterval
	}
	return p.NPowTargetTimespan / p.NPowTargetSpacing
}

// TargetSpacingDuration is NPowTargetSpacing as a time.Duration.
func (p *Params) TargetSpacingDuration() time.Duration {
	return time.Duration(p.NPowTargetSpacing) * time.Second
}

// MainNetParams is the production network.
var MainNetParams = Params{
	Name:                         "mainnet",
	PowLimit:                     mainPowLimit,
	PowLimitYespower:             mainPowLimitYespower,
	YespowerForkHeight:           1,
	DifficultyForkHeight:         26754,
	NextDifficultyForkHeight:     50000,
	NextDifficultyFork2Height:    110000,
	NextDifficultyFork3Height:    120000,
	NextDifficultyFork5Height:    150000,
	NPowTargetSpacing:            120,
	NPowTargetTimespan:           14 * 24 * 60 * 60,
	DifficultyAdjustmentInterval: 14 * 24 * 60 * 60 / 120,
	FPowAllowMinDifficultyBlocks: false,
	FPowNoRetargeting:            false,
	NFeeBurnEndHeight:            5000,
	GovernanceWallet:             "itc1qwccnjw6gz49vlsjvf3f6wvamltmqdykwmh0r4r",
	NodeOperatorWallet:           "itc1qoperatoraddressplaceholder0000000000",
	TokenActivationHeight:        30000,
	GenesisBlock:                 mainNetGenesis,
}

// RegtestParams is the local regression-test network: minimum difficulty
// blocks allowed, no automatic retargeting pressure.
var RegtestParams = Params{
	Name:                         "regtest",
	PowLimit:                     regtestPowLimit,
	PowLimitYespower:             regtestPowLimit,
	YespowerForkHeight:           1,
	DifficultyForkHeight:         0,
	NextDifficultyForkHeight:     0,
	NextDifficultyFork2Height:    0,
	NextDifficultyFork3Height:    0,
	NextDifficultyFork5Height:    0,
	NPowTargetSpacing:            120,
	NPowTargetTimespan:           14 * 24 * 60 * 60,
	DifficultyAdjustmentInterval: 14 * 24 * 60 * 60 / 120,
	FPowAllowMinDifficultyBlocks: true,
	FPowNoRetargeting:            true,
	NFeeBurnEndHeight:            0,
	GovernanceWallet:             "itc1qwccnjw6gz49vlsjvf3f6wvamltmqdykwmh0r4r",
	NodeOperatorWallet:           "itc1qoperatoraddressplaceholder0000000000",
	TokenActivationHeight:        0,
	GenesisBlock:                 regtestGenesis,
}

// TestNetParams is the public test network: same fork schedule as mainnet
// but with minimum-difficulty blocks allowed like Bitcoin testnet.
var TestNetParams = Params{
	Name:                         "testnet",
	PowLimit:                     mainPowLimit,
	PowLimitYespower:             mainPowLimitYespower,
	YespowerForkHeight:           1,
	DifficultyForkHeight:         1000,
	NextDifficultyForkHeight:     2000,
	NextDifficultyFork2Height:    4000,
	NextDifficultyFork3Height:    4500,
	NextDifficultyFork5Height:    6000,
	NPowTargetSpacing:            120,
	NPowTargetTimespan:           14 * 24 * 60 * 60,
	DifficultyAdjustmentInterval: 14 * 24 * 60 * 60 / 120,
	FPowAllowMinDifficultyBlocks: true,
	FPowNoRetargeting:            false,
	NFeeBurnEndHeight:            500,
	GovernanceWallet:             "itc1qwccnjw6gz49vlsjvf3f6wvamltmqdykwmh0r4r",
	NodeOperatorWallet:           "itc1qoperatoraddressplaceholder0000000000",
	TokenActivationHeight:        1500,
	GenesisBlock:                 testNetGenesis,
}

// ByName resolves a network name to its Params, matching the teacher's
// network-select style (infrastructure/config/network.go).
func ByName(name string) (*Params, bool) {
	switch name {
	case "mainnet", "":
		return &MainNetParams, true
	case "testnet":
		return &TestNetParams, true
	case "regtest":
		return &RegtestParams, true
	default:
		return nil, false
	}
}
