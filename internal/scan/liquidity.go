package scan

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"go.uber.org/zap"

	"github.com/Catorpilor/fresh-market-watcher/internal/dex"
	"github.com/Catorpilor/fresh-market-watcher/internal/model"
)

// DefaultLiquidityWindow is how many blocks past creation to look for the
// first mint. Initial deposits land in the creation transaction or right
// after it.
const DefaultLiquidityWindow = 10

// Sentinel values for the init_liquidity field. Distinct outcomes: no mint
// happened yet, the lookup itself failed, or a mint decoded but its amounts
// were unusable.
const (
	LiquidityNone        = "No liquidity"
	LiquidityUnavailable = "Unable to fetch"
	LiquidityUnknown     = "Unknown"
)

// LiquidityResolver finds a pool's first liquidity-mint event and treats its
// deposited amounts as the initial liquidity. Current reserves are
// deliberately not used: they drift as soon as trading starts and stop
// representing the true initial deposit.
type LiquidityResolver struct {
	client EthClient
	logger *zap.Logger
	window uint64

	v2MintTopic common.Hash
	v3MintTopic common.Hash
	v2MintEvent abi.Event
	v3MintEvent abi.Event
}

// NewLiquidityResolver builds a resolver scanning `window` blocks past
// creation.
func NewLiquidityResolver(client EthClient, logger *zap.Logger, window uint64) (*LiquidityResolver, error) {
	if client == nil {
		return nil, fmt.Errorf("eth client is nil")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if window == 0 {
		window = DefaultLiquidityWindow
	}

	v2ABI, err := dex.V2PairABI()
	if err != nil {
		return nil, err
	}
	v3ABI, err := dex.V3PoolABI()
	if err != nil {
		return nil, err
	}

	return &LiquidityResolver{
		client:      client,
		logger:      logger,
		window:      window,
		v2MintTopic: v2ABI.Events["Mint"].ID,
		v3MintTopic: v3ABI.Events["Mint"].ID,
		v2MintEvent: v2ABI.Events["Mint"],
		v3MintEvent: v3ABI.Events["Mint"],
	}, nil
}

// InitialLiquidity resolves and formats the initial deposit of a pool.
// V2-shaped mints are preferred over V3-shaped ones; only the first matching
// log in block/log order is used, later liquidity additions are ignored.
func (r *LiquidityResolver) InitialLiquidity(ctx context.Context, pool model.PoolRecord, meta0, meta1 *model.TokenMeta) string {
	address := common.HexToAddress(pool.Address)
	logs, err := r.client.FilterLogs(
		ctx,
		pool.BlockNumber,
		pool.BlockNumber+r.window,
		[]common.Address{address},
		[]common.Hash{r.v2MintTopic, r.v3MintTopic},
	)
	if err != nil {
		r.logger.Warn("mint log query failed", zap.String("pool", pool.Address), zap.Error(err))
		return LiquidityUnavailable
	}

	amounts, found, err := r.firstMint(logs)
	if err != nil {
		r.logger.Warn("mint decode failed", zap.String("pool", pool.Address), zap.Error(err))
		return LiquidityUnavailable
	}
	if !found {
		return LiquidityNone
	}
	if amounts.Amount0 == nil || amounts.Amount1 == nil {
		return LiquidityUnknown
	}
	if amounts.IsZero() {
		return LiquidityNone
	}

	return FormatLiquidity(amounts, meta0, meta1)
}

// firstMint picks the first V2-shaped mint if any exists in the window,
// otherwise the first V3-shaped one.
func (r *LiquidityResolver) firstMint(logs []types.Log) (model.MintAmounts, bool, error) {
	for _, log := range logs {
		if len(log.Topics) == 0 || log.Topics[0] != r.v2MintTopic {
			continue
		}
		amounts, err := r.decodeV2Mint(log)
		if err != nil {
			return model.MintAmounts{}, false, err
		}
		return amounts, true, nil
	}

	for _, log := range logs {
		if len(log.Topics) == 0 || log.Topics[0] != r.v3MintTopic {
			continue
		}
		amounts, err := r.decodeV3Mint(log)
		if err != nil {
			return model.MintAmounts{}, false, err
		}
		return amounts, true, nil
	}

	return model.MintAmounts{}, false, nil
}

func (r *LiquidityResolver) decodeV2Mint(log types.Log) (model.MintAmounts, error) {
	values, err := r.v2MintEvent.Inputs.NonIndexed().Unpack(log.Data)
	if err != nil {
		return model.MintAmounts{}, fmt.Errorf("unpack v2 mint: %w", err)
	}
	if len(values) != 2 {
		return model.MintAmounts{}, fmt.Errorf("unexpected v2 mint values: %d", len(values))
	}

	amount0, ok0 := values[0].(*big.Int)
	amount1, ok1 := values[1].(*big.Int)
	if !ok0 || !ok1 {
		return model.MintAmounts{}, fmt.Errorf("v2 mint amount types %T, %T", values[0], values[1])
	}
	return model.MintAmounts{Amount0: amount0, Amount1: amount1}, nil
}

func (r *LiquidityResolver) decodeV3Mint(log types.Log) (model.MintAmounts, error) {
	values, err := r.v3MintEvent.Inputs.NonIndexed().Unpack(log.Data)
	if err != nil {
		return model.MintAmounts{}, fmt.Errorf("unpack v3 mint: %w", err)
	}
	// Non-indexed inputs: sender, amount, amount0, amount1.
	if len(values) != 4 {
		return model.MintAmounts{}, fmt.Errorf("unexpected v3 mint values: %d", len(values))
	}

	amount0, ok0 := values[2].(*big.Int)
	amount1, ok1 := values[3].(*big.Int)
	if !ok0 || !ok1 {
		return model.MintAmounts{}, fmt.Errorf("v3 mint amount types %T, %T", values[2], values[3])
	}
	return model.MintAmounts{Amount0: amount0, Amount1: amount1}, nil
}

// FormatLiquidity renders deposited amounts as "<amt0> <sym0> / <amt1>
// <sym1>" in whole-token units rounded to 2 decimal places. Missing symbols
// fall back to positional placeholders.
func FormatLiquidity(amounts model.MintAmounts, meta0, meta1 *model.TokenMeta) string {
	sym0, dec0 := symbolAndDecimals(meta0, "TOKEN0")
	sym1, dec1 := symbolAndDecimals(meta1, "TOKEN1")
	return fmt.Sprintf("%s %s / %s %s",
		formatUnits(amounts.Amount0, dec0), sym0,
		formatUnits(amounts.Amount1, dec1), sym1,
	)
}

func symbolAndDecimals(meta *model.TokenMeta, placeholder string) (string, uint8) {
	if meta == nil {
		return placeholder, model.DefaultTokenDecimals
	}
	symbol := meta.Symbol
	if symbol == "" {
		symbol = placeholder
	}
	return symbol, meta.Decimals
}

func formatUnits(value *big.Int, decimals uint8) string {
	if value == nil {
		return "0.00"
	}
	scale := new(big.Float).SetInt(new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(decimals)), nil))
	scaled := new(big.Float).Quo(new(big.Float).SetInt(value), scale)
	return scaled.Text('f', 2)
}
