package model

import "time"

// PoolType tags which protocol shape a pool was created with.
type PoolType string

const (
	PoolTypeV2 PoolType = "v2"
	PoolTypeV3 PoolType = "v3"
)

// PoolRecord identifies one AMM pool discovery decoded from a factory
// creation event. Immutable once created; enrichment stages work on copies.
type PoolRecord struct {
	Address     string   `json:"address"`
	Token0      string   `json:"token0"`
	Token1      string   `json:"token1"`
	Factory     string   `json:"factory"`
	BlockNumber uint64   `json:"block_number"`
	TxHash      string   `json:"tx_hash"`
	CreatedAt   string   `json:"created_at"`
	PoolType    PoolType `json:"pool_type"`
	FeeTier     uint32   `json:"fee_tier,omitempty"`
	TickSpacing int32    `json:"tick_spacing,omitempty"`
}

// EnrichedPool is a PoolRecord plus liquidity and holder enrichment.
type EnrichedPool struct {
	PoolRecord
	Token0Meta    *TokenMeta `json:"token0_meta,omitempty"`
	Token1Meta    *TokenMeta `json:"token1_meta,omitempty"`
	InitLiquidity string     `json:"init_liquidity"`
	TopHolders    []string   `json:"top_holders"`
}

// FormatCreatedAt renders a block timestamp the way EnrichedPool carries it.
func FormatCreatedAt(ts uint64) string {
	return time.Unix(int64(ts), 0).UTC().Format(time.RFC3339)
}
