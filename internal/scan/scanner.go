package scan

import (
	"context"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/Catorpilor/fresh-market-watcher/internal/dex"
	"github.com/Catorpilor/fresh-market-watcher/internal/model"
)

// DefaultLogBatchSize bounds the span of a single getLogs call.
const DefaultLogBatchSize = 5000

// Scanner queries factory contracts for V2 and V3 creation events and
// decodes matches into PoolRecords.
//
// Failure isolation: a failed shape query skips that shape only, a failed
// log decode skips that log only, and a failed factory skips that factory
// only. The scan as a whole never aborts on recovered errors.
type Scanner struct {
	client    EthClient
	decoder   *dex.CreationDecoder
	logger    *zap.Logger
	metrics   *Metrics
	batchSize uint64

	pairTopic common.Hash
	poolTopic common.Hash
}

// NewScanner builds a scanner over the given client.
func NewScanner(client EthClient, logger *zap.Logger, metrics *Metrics, batchSize uint64) (*Scanner, error) {
	if client == nil {
		return nil, fmt.Errorf("eth client is nil")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if batchSize == 0 {
		batchSize = DefaultLogBatchSize
	}

	decoder, err := dex.NewCreationDecoder()
	if err != nil {
		return nil, err
	}
	pairTopic, err := dex.PairCreatedTopic()
	if err != nil {
		return nil, err
	}
	poolTopic, err := dex.PoolCreatedTopic()
	if err != nil {
		return nil, err
	}

	return &Scanner{
		client:    client,
		decoder:   decoder,
		logger:    logger,
		metrics:   metrics,
		batchSize: batchSize,
		pairTopic: pairTopic,
		poolTopic: poolTopic,
	}, nil
}

// Scan returns the deduplicated pool creations across all factories in the
// range. Order is first-seen: factory input order, V2 before V3 within one
// factory, block/log order within one shape.
func (s *Scanner) Scan(ctx context.Context, factories []common.Address, blockRange BlockRange) []model.PoolRecord {
	records := make([]model.PoolRecord, 0)

	for _, factory := range factories {
		factoryRecords, err := s.scanFactory(ctx, factory, blockRange)
		if err != nil {
			s.logger.Warn("factory scan failed",
				zap.String("factory", factory.Hex()),
				zap.Uint64("from", blockRange.From),
				zap.Uint64("to", blockRange.To),
				zap.Error(err),
			)
			continue
		}
		records = append(records, factoryRecords...)
	}

	return dedupePools(records)
}

func (s *Scanner) scanFactory(ctx context.Context, factory common.Address, blockRange BlockRange) ([]model.PoolRecord, error) {
	var (
		v2Logs, v3Logs []types.Log
		v2Err, v3Err   error
	)

	// The two event shapes are independent queries; one failing must not
	// stop the other.
	var g errgroup.Group
	g.Go(func() error {
		v2Logs, v2Err = s.fetchShape(ctx, factory, s.pairTopic, blockRange)
		return nil
	})
	g.Go(func() error {
		v3Logs, v3Err = s.fetchShape(ctx, factory, s.poolTopic, blockRange)
		return nil
	})
	_ = g.Wait()

	if v2Err != nil {
		s.metrics.rpcError("pair_created")
		s.logger.Warn("v2 creation query failed", zap.String("factory", factory.Hex()), zap.Error(v2Err))
	}
	if v3Err != nil {
		s.metrics.rpcError("pool_created")
		s.logger.Warn("v3 creation query failed", zap.String("factory", factory.Hex()), zap.Error(v3Err))
	}
	if v2Err != nil && v3Err != nil {
		return nil, fmt.Errorf("both creation queries failed: %v; %v", v2Err, v3Err)
	}

	records := make([]model.PoolRecord, 0, len(v2Logs)+len(v3Logs))
	records = append(records, s.decodeLogs(ctx, v2Logs)...)
	records = append(records, s.decodeLogs(ctx, v3Logs)...)
	return records, nil
}

func (s *Scanner) fetchShape(ctx context.Context, factory common.Address, topic common.Hash, blockRange BlockRange) ([]types.Log, error) {
	batches, err := SplitRange(blockRange.From, blockRange.To, s.batchSize)
	if err != nil {
		return nil, err
	}

	logs := make([]types.Log, 0)
	for _, batch := range batches {
		batchLogs, err := s.client.FilterLogs(ctx, batch.From, batch.To, []common.Address{factory}, []common.Hash{topic})
		if err != nil {
			return nil, fmt.Errorf("filter logs %d-%d: %w", batch.From, batch.To, err)
		}
		logs = append(logs, batchLogs...)
	}
	return logs, nil
}

func (s *Scanner) decodeLogs(ctx context.Context, logs []types.Log) []model.PoolRecord {
	records := make([]model.PoolRecord, 0, len(logs))
	for _, log := range logs {
		record, err := s.decoder.Decode(log)
		if err != nil {
			s.logger.Warn("creation log decode failed",
				zap.String("tx", log.TxHash.Hex()),
				zap.Uint64("block", log.BlockNumber),
				zap.Error(err),
			)
			continue
		}

		if ts, err := s.client.BlockTimestamp(ctx, log.BlockNumber); err == nil {
			record.CreatedAt = model.FormatCreatedAt(ts)
		} else {
			s.metrics.rpcError("block_timestamp")
			s.logger.Warn("block timestamp fetch failed", zap.Uint64("block", log.BlockNumber), zap.Error(err))
		}

		records = append(records, record)
	}
	return records
}

// dedupePools drops repeated pool addresses, keeping the first occurrence.
func dedupePools(records []model.PoolRecord) []model.PoolRecord {
	seen := make(map[string]struct{}, len(records))
	out := make([]model.PoolRecord, 0, len(records))
	for _, record := range records {
		if _, ok := seen[record.Address]; ok {
			continue
		}
		seen[record.Address] = struct{}{}
		out = append(out, record)
	}
	return out
}
