package scan

import (
	"context"
	"fmt"

	"github.com/Catorpilor/fresh-market-watcher/internal/chain"
)

// DefaultBlockTimeSeconds is assumed for chains missing from the registry.
// Ethereum's 12s slot time is the conservative fallback.
const DefaultBlockTimeSeconds = 12

// Window bounds accepted by the pipeline, in minutes.
const (
	MinWindowMinutes = 1
	MaxWindowMinutes = 1440
)

// BlockRange represents an inclusive block range.
type BlockRange struct {
	From uint64
	To   uint64
}

// Estimator converts a time window into a block count using the chain
// registry. Unknown chains fall back to the default block time instead of
// erroring; that policy keeps scans usable on chains the table lags behind.
type Estimator struct {
	registry *chain.Registry
}

// NewEstimator builds an estimator over the given registry.
func NewEstimator(registry *chain.Registry) *Estimator {
	return &Estimator{registry: registry}
}

// BlocksForWindow returns floor(windowMinutes*60 / blockTime) for the chain.
func (e *Estimator) BlocksForWindow(chainName string, windowMinutes int) uint64 {
	blockTime := float64(DefaultBlockTimeSeconds)
	if e.registry != nil {
		if cfg, ok := e.registry.Lookup(chainName); ok && cfg.BlockTimeSeconds > 0 {
			blockTime = cfg.BlockTimeSeconds
		}
	}
	return uint64(float64(windowMinutes) * 60 / blockTime)
}

// ResolveRange anchors the estimated block count at the live head.
func (e *Estimator) ResolveRange(ctx context.Context, client EthClient, chainName string, windowMinutes int) (BlockRange, error) {
	head, err := client.LatestBlockNumber(ctx)
	if err != nil {
		return BlockRange{}, fmt.Errorf("get latest block: %w", err)
	}

	blocks := e.BlocksForWindow(chainName, windowMinutes)
	from := uint64(0)
	if head > blocks {
		from = head - blocks
	}
	return BlockRange{From: from, To: head}, nil
}

// SplitRange splits a block range into batches of size batchSize. Providers
// cap getLogs spans, so long windows on fast chains go out in pieces.
func SplitRange(from, to, batchSize uint64) ([]BlockRange, error) {
	if batchSize == 0 {
		return nil, fmt.Errorf("batch size must be greater than zero")
	}
	if to < from {
		return nil, fmt.Errorf("to block must be >= from block")
	}

	ranges := make([]BlockRange, 0)
	start := from
	for start <= to {
		remaining := to - start + 1
		var end uint64
		if remaining <= batchSize {
			end = to
		} else {
			end = start + batchSize - 1
		}
		ranges = append(ranges, BlockRange{From: start, To: end})
		if end == to {
			break
		}
		start = end + 1
	}

	return ranges, nil
}
