// Package miner implements the in-process block-template mining
// coordinator of spec.md §4.C: a supervisor goroutine that rebuilds a
// template from the latest chain tip and races N worker goroutines against
// it until one finds a valid proof of work or the round is abandoned.
//
// Grounded on cmd/kaspaminer/mineloop.go's goroutine-per-worker,
// atomic-hash-counter, ticker-paced supervisor shape; restructured from an
// RPC-client-driven external miner into an in-process coordinator that
// calls the mining and pow packages directly.
package miner

import (
	"math/rand"
	"sync"
	"sync/atomic"
	"time"

	"github.com/mitchellh/copystructure"
	"github.com/pinpins/interchained/chainindex"
	"github.com/pinpins/interchained/chainparams"
	"github.com/pinpins/interchained/mining"
	"github.com/pinpins/interchained/pow"
	"github.com/pinpins/interchained/wire"
)

// BlockSubmitter hands a mined block to the rest of the node (chain
// connection, peer relay). The coordinator calls it at most once per round.
type BlockSubmitter interface {
	SubmitBlock(block *wire.MsgBlock) error
}

// Logger is the minimal leveled-logging surface the coordinator needs;
// satisfied by *logger.Logger.
type Logger interface {
	Infof(format string, args ...interface{})
	Warnf(format string, args ...interface{})
	Debugf(format string, args ...interface{})
}

type nopLogger struct{}

func (nopLogger) Infof(string, ...interface{})  {}
func (nopLogger) Warnf(string, ...interface{})  {}
func (nopLogger) Debugf(string, ...interface{}) {}

// hashRateLogInterval and hashRateSampleSize gate how often a worker emits
// a hashrate observation, per spec.md §4.C step 5's "every 1000 hashes and
// elapsed >= 5s" rule.
const (
	hashRateSampleSize = 1000
	hashRateLogInterval = 5 * time.Second
)

// supervisorPollInterval and postSuccessSleep are spec.md §4.C step 6's
// fixed timings.
const (
	supervisorPollInterval = 200 * time.Millisecond
	postSuccessSleep       = 500 * time.Millisecond
)

// Config wires a Coordinator to the rest of the node.
type Config struct {
	Generator      *mining.BlkTmplGenerator
	Params         *chainparams.Params
	ChainTip       mining.ChainTip
	TimeSource     chainindex.TimeSource
	Submitter      BlockSubmitter
	PayoutAddress  string
	NumWorkers     int
	Logger         Logger
}

// Coordinator is the mining supervisor: it owns the generating/shutdown
// flags and drives the worker pool.
//
// Grounded on cmd/kaspaminer/mineloop.go's package-level atomic flags,
// generalized into per-instance fields so multiple coordinators (e.g. in
// tests) don't share state.
type Coordinator struct {
	cfg Config

	generating  int32
	shutdown    int32
	foundBlock  int32
	totalHashes uint64
	roundStart  time.Time

	doneCh chan struct{}
}

// NewCoordinator returns a Coordinator ready to Run. NumWorkers is clamped
// to at least 1.
func NewCoordinator(cfg Config) *Coordinator {
	if cfg.NumWorkers < 1 {
		cfg.NumWorkers = 1
	}
	if cfg.Logger == nil {
		cfg.Logger = nopLogger{}
	}
	return &Coordinator{cfg: cfg, doneCh: make(chan struct{})}
}

// SetGenerating starts or pauses mining. When paused the supervisor loop
// idles without building templates or spawning workers; it is the "stop
// flag" workers check alongside shutdown and found_block.
func (c *Coordinator) SetGenerating(on bool) {
	if on {
		atomic.StoreInt32(&c.generating, 1)
	} else {
		atomic.StoreInt32(&c.generating, 0)
	}
}

// IsGenerating reports whether mining is currently enabled.
func (c *Coordinator) IsGenerating() bool {
	return atomic.LoadInt32(&c.generating) != 0
}

// Stop halts the supervisor loop permanently; Run returns once the current
// round (if any) finishes.
func (c *Coordinator) Stop() {
	atomic.StoreInt32(&c.shutdown, 1)
}

// Run drives the supervisor loop until Stop is called. It blocks the
// calling goroutine; callers typically invoke it via `go coordinator.Run()`.
func (c *Coordinator) Run() {
	defer close(c.doneCh)
	for atomic.LoadInt32(&c.shutdown) == 0 {
		if !c.IsGenerating() {
			time.Sleep(supervisorPollInterval)
			continue
		}
		if !c.runRound() {
			return
		}
	}
}

// Done returns a channel closed once Run has returned.
func (c *Coordinator) Done() <-chan struct{} {
	return c.doneCh
}

// runRound executes spec.md §4.C's per-iteration steps 1-6. It returns
// false if the coordinator should stop permanently (an invalid payout
// address).
func (c *Coordinator) runRound() bool {
	// Step 1: clear found_block and the hash counter.
	atomic.StoreInt32(&c.foundBlock, 0)
	atomic.StoreUint64(&c.totalHashes, 0)
	c.roundStart = time.Now()

	// Step 2: resolve the payout address.
	payToScript, ok := mining.PayToAddressScript(c.cfg.PayoutAddress)
	if !ok {
		c.cfg.Logger.Warnf("miner: invalid or unconfigured payout address %q, stopping", c.cfg.PayoutAddress)
		c.Stop()
		return false
	}

	// Step 3: build a fresh template.
	template, err := c.cfg.Generator.NewBlockTemplate(payToScript)
	if err != nil {
		c.cfg.Logger.Warnf("miner: failed to build block template: %s", err)
		time.Sleep(supervisorPollInterval)
		return true
	}

	tip := c.cfg.ChainTip.Tip()

	// Step 4: capture the coinbase's original witness stack.
	originalWitness := captureWitnessStack(template.Block)

	// Step 5: spawn workers.
	var wg sync.WaitGroup
	for i := 0; i < c.cfg.NumWorkers; i++ {
		wg.Add(1)
		go func(workerID int) {
			defer wg.Done()
			c.work(workerID, template, tip, originalWitness)
		}(i)
	}

	// Step 6: poll until the round ends, then wait for workers to exit.
	ticker := time.NewTicker(supervisorPollInterval)
	for atomic.LoadInt32(&c.foundBlock) == 0 &&
		atomic.LoadInt32(&c.shutdown) == 0 &&
		c.IsGenerating() {
		<-ticker.C
	}
	ticker.Stop()
	wg.Wait()

	if atomic.LoadInt32(&c.foundBlock) != 0 {
		time.Sleep(postSuccessSleep)
	}
	return true
}

// work is a single worker's search loop: clone, mutate, then iterate
// nonces until success or a stop condition.
func (c *Coordinator) work(workerID int, template *mining.BlockTemplate, tip *chainindex.BlockNode, originalWitness [][]byte) {
	clonedAny, err := copystructure.Copy(template)
	if err != nil {
		c.cfg.Logger.Warnf("miner: worker %d: failed to clone template: %s", workerID, err)
		return
	}
	workerTemplate := clonedAny.(*mining.BlockTemplate)
	block := workerTemplate.Block

	IncrementExtraNonce(block, workerTemplate.Height)
	restoreWitnessStack(block, originalWitness)
	regenerateWitnessCommitment(workerTemplate)

	mtp := tip.GetMedianTimePast()
	startNonce := rand.Uint32()
	stride := uint32(c.cfg.NumWorkers)
	nonce := startNonce + uint32(workerID)

	localHashes := uint64(0)
	for {
		if atomic.LoadInt32(&c.shutdown) != 0 || !c.IsGenerating() || atomic.LoadInt32(&c.foundBlock) != 0 {
			return
		}

		adjustedNow := c.cfg.TimeSource.Now()
		blockTime := mtp.Add(time.Second)
		if adjustedNow.After(blockTime) {
			blockTime = adjustedNow
		}
		block.Header.Timestamp = blockTime
		block.Header.Nonce = nonce

		ok, err := pow.CheckProofOfWork(&block.Header, workerTemplate.Height, c.cfg.Params)
		if err == nil && ok {
			if atomic.CompareAndSwapInt32(&c.foundBlock, 0, 1) {
				if submitErr := c.cfg.Submitter.SubmitBlock(block); submitErr != nil {
					c.cfg.Logger.Warnf("miner: worker %d: failed to submit block %s: %s",
						workerID, block.BlockHash(), submitErr)
				} else {
					c.cfg.Logger.Infof("miner: worker %d found block %s at height %d",
						workerID, block.BlockHash(), workerTemplate.Height)
				}
			}
			return
		}

		nonce += stride
		localHashes++
		atomic.AddUint64(&c.totalHashes, 1)

		if localHashes%hashRateSampleSize == 0 {
			elapsed := time.Since(c.roundStart)
			if elapsed >= hashRateLogInterval {
				rate := float64(atomic.LoadUint64(&c.totalHashes)) / elapsed.Seconds()
				c.cfg.Logger.Debugf("miner: hash rate %.2f hash/s", rate)
			}
		}
	}
}
