package postgres

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Catorpilor/fresh-market-watcher/internal/model"
)

// Store exports scan snapshots to Postgres. Opt-in: the pipeline itself
// never reads this back; it exists so explicitly requested scans can be
// kept for offline review.
type Store struct {
	pool *pgxpool.Pool
}

func NewStore(ctx context.Context, dsn string) (*Store, error) {
	if dsn == "" {
		return nil, fmt.Errorf("pg dsn is required")
	}
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, err
	}
	return &Store{pool: pool}, nil
}

func (s *Store) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
}

// UpsertDiscoveries inserts or updates one scan's enriched pools, keyed on
// (chain, pool address).
func (s *Store) UpsertDiscoveries(ctx context.Context, chainName string, pools []model.EnrichedPool) error {
	if len(pools) == 0 {
		return nil
	}

	batch := &pgx.Batch{}
	for _, pool := range pools {
		batch.Queue(`
			INSERT INTO pool_discoveries (
				chain, pool_address, pool_type, token0, token1, factory,
				fee_tier, tick_spacing, block_number, tx_hash, pool_created_at,
				init_liquidity, top_holders, created_at, updated_at
			) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,now(),now())
			ON CONFLICT (chain, pool_address)
			DO UPDATE SET
				init_liquidity = EXCLUDED.init_liquidity,
				top_holders = EXCLUDED.top_holders,
				updated_at = now()
		`,
			strings.ToLower(chainName),
			pool.Address,
			string(pool.PoolType),
			pool.Token0,
			pool.Token1,
			pool.Factory,
			int64(pool.FeeTier),
			pool.TickSpacing,
			int64(pool.BlockNumber),
			pool.TxHash,
			pool.CreatedAt,
			pool.InitLiquidity,
			pool.TopHolders,
		)
	}

	br := s.pool.SendBatch(ctx, batch)
	defer br.Close()

	for range pools {
		if _, err := br.Exec(); err != nil {
			return err
		}
	}
	return nil
}
