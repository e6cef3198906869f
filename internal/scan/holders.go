package scan

import (
	"context"
	"fmt"
	"math/big"
	"sort"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"go.uber.org/zap"

	"github.com/Catorpilor/fresh-market-watcher/internal/dex"
)

const (
	// DefaultHolderMaxBlocks bounds the transfer replay window.
	DefaultHolderMaxBlocks = 1000
	// DefaultTopHolders is the ranked output truncation limit.
	DefaultTopHolders = 5
)

// HolderReconstructor approximates the current top holders of a pool's
// liquidity token by replaying its Transfer logs over a bounded recent
// window. Balances are relative to the window, not a full-history ledger;
// for freshly created pools the window covers the whole history, which is
// the case this system targets.
type HolderReconstructor struct {
	client    EthClient
	logger    *zap.Logger
	maxBlocks uint64
	limit     int

	transferTopic common.Hash
}

// NewHolderReconstructor builds a reconstructor with the given window and
// ranking limit.
func NewHolderReconstructor(client EthClient, logger *zap.Logger, maxBlocks uint64, limit int) (*HolderReconstructor, error) {
	if client == nil {
		return nil, fmt.Errorf("eth client is nil")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if maxBlocks == 0 {
		maxBlocks = DefaultHolderMaxBlocks
	}
	if limit <= 0 {
		limit = DefaultTopHolders
	}

	topic, err := dex.TransferTopic()
	if err != nil {
		return nil, err
	}

	return &HolderReconstructor{
		client:        client,
		logger:        logger,
		maxBlocks:     maxBlocks,
		limit:         limit,
		transferTopic: topic,
	}, nil
}

// TopHolders returns up to the configured limit of holder addresses of the
// pool's liquidity token, ordered by descending replayed balance. Any
// retrieval or decode error yields an empty list, never a request failure.
func (h *HolderReconstructor) TopHolders(ctx context.Context, pool common.Address, creationBlock, head uint64) []string {
	scanFrom := creationBlock
	if head > h.maxBlocks && head-h.maxBlocks > creationBlock {
		scanFrom = head - h.maxBlocks
	}

	logs, err := h.client.FilterLogs(ctx, scanFrom, head, []common.Address{pool}, []common.Hash{h.transferTopic})
	if err != nil {
		h.logger.Warn("transfer log query failed", zap.String("pool", pool.Hex()), zap.Error(err))
		return []string{}
	}

	balances, order, err := replayTransfers(logs)
	if err != nil {
		h.logger.Warn("transfer replay failed", zap.String("pool", pool.Hex()), zap.Error(err))
		return []string{}
	}

	return rankHolders(balances, order, h.limit)
}

// replayTransfers folds transfer logs in chronological order into signed
// balance deltas per address. The zero-address side of a mint or burn is
// skipped. Returns the balances plus first-touch order for stable ranking.
func replayTransfers(logs []types.Log) (map[common.Address]*big.Int, []common.Address, error) {
	var zero common.Address
	balances := make(map[common.Address]*big.Int)
	order := make([]common.Address, 0)

	touch := func(addr common.Address) *big.Int {
		bal, ok := balances[addr]
		if !ok {
			bal = new(big.Int)
			balances[addr] = bal
			order = append(order, addr)
		}
		return bal
	}

	for _, log := range logs {
		if len(log.Topics) != 3 {
			return nil, nil, fmt.Errorf("transfer log with %d topics", len(log.Topics))
		}
		value := new(big.Int).SetBytes(log.Data)
		from := common.BytesToAddress(log.Topics[1].Bytes())
		to := common.BytesToAddress(log.Topics[2].Bytes())

		if from != zero {
			bal := touch(from)
			bal.Sub(bal, value)
		}
		if to != zero {
			bal := touch(to)
			bal.Add(bal, value)
		}
	}

	return balances, order, nil
}

// rankHolders keeps strictly positive balances, sorts descending, and
// truncates. The sort is stable over first-touch order, so equal balances
// keep a deterministic order.
func rankHolders(balances map[common.Address]*big.Int, order []common.Address, limit int) []string {
	type holder struct {
		addr    common.Address
		balance *big.Int
	}

	holders := make([]holder, 0, len(order))
	for _, addr := range order {
		bal := balances[addr]
		if bal == nil || bal.Sign() <= 0 {
			continue
		}
		holders = append(holders, holder{addr: addr, balance: bal})
	}

	sort.SliceStable(holders, func(i, j int) bool {
		return holders[i].balance.Cmp(holders[j].balance) > 0
	})

	if len(holders) > limit {
		holders = holders[:limit]
	}

	out := make([]string, 0, len(holders))
	for _, h := range holders {
		out = append(out, h.addr.Hex())
	}
	return out
}
