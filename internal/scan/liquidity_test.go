package scan

import (
	"context"
	"fmt"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/Catorpilor/fresh-market-watcher/internal/model"
)

func newTestResolver(t *testing.T, client *fakeClient) *LiquidityResolver {
	t.Helper()
	resolver, err := NewLiquidityResolver(client, zap.NewNop(), DefaultLiquidityWindow)
	require.NoError(t, err)
	return resolver
}

func testPool(block uint64) model.PoolRecord {
	return model.PoolRecord{
		Address:     poolOne.Hex(),
		BlockNumber: block,
		PoolType:    model.PoolTypeV2,
	}
}

func tokens(amount int64, decimals uint8) *big.Int {
	unit := new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(decimals)), nil)
	return new(big.Int).Mul(big.NewInt(amount), unit)
}

func TestInitialLiquidityFirstMintOnly(t *testing.T) {
	client := &fakeClient{
		logsFn: func(from, to uint64, _ []common.Address, _ []common.Hash) ([]types.Log, error) {
			return []types.Log{
				v2MintLog(t, poolOne, tokens(5, 18), tokens(1000, 6), from),
				v2MintLog(t, poolOne, tokens(500, 18), tokens(90000, 6), from+2),
				v2MintLog(t, poolOne, tokens(9, 18), tokens(2000, 6), from+5),
			}, nil
		},
	}

	meta0 := &model.TokenMeta{Symbol: "WETH", Decimals: 18}
	meta1 := &model.TokenMeta{Symbol: "USDC", Decimals: 6}

	got := newTestResolver(t, client).InitialLiquidity(context.Background(), testPool(100), meta0, meta1)

	assert.Equal(t, "5.00 WETH / 1000.00 USDC", got)
}

func TestInitialLiquidityPrefersV2OverV3(t *testing.T) {
	client := &fakeClient{
		logsFn: func(from, _ uint64, _ []common.Address, _ []common.Hash) ([]types.Log, error) {
			// The V3-shaped mint lands first in block order; the V2-shaped
			// one must still win.
			return []types.Log{
				v3MintLog(t, poolOne, tokens(1, 18), tokens(2, 18), from),
				v2MintLog(t, poolOne, tokens(7, 18), tokens(8, 18), from+1),
			}, nil
		},
	}

	meta := &model.TokenMeta{Symbol: "TKN", Decimals: 18}

	got := newTestResolver(t, client).InitialLiquidity(context.Background(), testPool(100), meta, meta)

	assert.Equal(t, "7.00 TKN / 8.00 TKN", got)
}

func TestInitialLiquidityV3FallbackWhenNoV2Mint(t *testing.T) {
	client := &fakeClient{
		logsFn: func(from, _ uint64, _ []common.Address, _ []common.Hash) ([]types.Log, error) {
			return []types.Log{v3MintLog(t, poolOne, tokens(3, 18), tokens(4, 18), from)}, nil
		},
	}

	meta := &model.TokenMeta{Symbol: "TKN", Decimals: 18}

	got := newTestResolver(t, client).InitialLiquidity(context.Background(), testPool(100), meta, meta)

	assert.Equal(t, "3.00 TKN / 4.00 TKN", got)
}

func TestInitialLiquidityNoMint(t *testing.T) {
	client := &fakeClient{
		logsFn: func(uint64, uint64, []common.Address, []common.Hash) ([]types.Log, error) {
			return nil, nil
		},
	}

	got := newTestResolver(t, client).InitialLiquidity(context.Background(), testPool(100), nil, nil)

	assert.Equal(t, LiquidityNone, got)
}

func TestInitialLiquidityZeroAmountsAreNoLiquidity(t *testing.T) {
	client := &fakeClient{
		logsFn: func(from, _ uint64, _ []common.Address, _ []common.Hash) ([]types.Log, error) {
			return []types.Log{v2MintLog(t, poolOne, big.NewInt(0), big.NewInt(0), from)}, nil
		},
	}

	got := newTestResolver(t, client).InitialLiquidity(context.Background(), testPool(100), nil, nil)

	assert.Equal(t, LiquidityNone, got)
}

func TestInitialLiquidityQueryFailure(t *testing.T) {
	client := &fakeClient{
		logsFn: func(uint64, uint64, []common.Address, []common.Hash) ([]types.Log, error) {
			return nil, fmt.Errorf("timeout")
		},
	}

	got := newTestResolver(t, client).InitialLiquidity(context.Background(), testPool(100), nil, nil)

	assert.Equal(t, LiquidityUnavailable, got)
}

func TestInitialLiquidityWindowBounds(t *testing.T) {
	var gotFrom, gotTo uint64
	client := &fakeClient{
		logsFn: func(from, to uint64, _ []common.Address, _ []common.Hash) ([]types.Log, error) {
			gotFrom, gotTo = from, to
			return nil, nil
		},
	}

	newTestResolver(t, client).InitialLiquidity(context.Background(), testPool(1234), nil, nil)

	assert.Equal(t, uint64(1234), gotFrom)
	assert.Equal(t, uint64(1234+DefaultLiquidityWindow), gotTo)
}

func TestFormatLiquidityPlaceholders(t *testing.T) {
	amounts := model.MintAmounts{Amount0: tokens(1, 18), Amount1: tokens(2, 18)}

	got := FormatLiquidity(amounts, nil, &model.TokenMeta{Decimals: 18})

	assert.Equal(t, "1.00 TOKEN0 / 2.00 TOKEN1", got)
}

func TestFormatLiquidityFractional(t *testing.T) {
	// 1.5 tokens at 6 decimals and 0.126 at 3 decimals; the latter rounds.
	amounts := model.MintAmounts{Amount0: big.NewInt(1_500_000), Amount1: big.NewInt(126)}
	meta0 := &model.TokenMeta{Symbol: "A", Decimals: 6}
	meta1 := &model.TokenMeta{Symbol: "B", Decimals: 3}

	got := FormatLiquidity(amounts, meta0, meta1)

	assert.Equal(t, "1.50 A / 0.13 B", got)
}
