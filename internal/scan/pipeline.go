package scan

import (
	"context"
	"fmt"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/Catorpilor/fresh-market-watcher/internal/cache"
	"github.com/Catorpilor/fresh-market-watcher/internal/chain"
	"github.com/Catorpilor/fresh-market-watcher/internal/dex"
	"github.com/Catorpilor/fresh-market-watcher/internal/model"
)

// Request is the pipeline input contract.
type Request struct {
	Chain         string   `json:"chain"`
	Factories     []string `json:"factories"`
	WindowMinutes int      `json:"window_minutes"`
	RPCURL        string   `json:"rpc_url,omitempty"`
}

// Config tunes the pipeline. Zero values fall back to defaults.
type Config struct {
	LogBatchSize    uint64
	LiquidityWindow uint64
	HolderMaxBlocks uint64
	TopHolders      int
	// Cooperative pacing between enrichment calls, to stay under upstream
	// RPC rate limits. Not a concurrency bound. Negative disables pacing.
	PoolDelay  time.Duration
	TokenDelay time.Duration
}

// Default pacing between enrichment calls.
const (
	DefaultPoolDelay  = 100 * time.Millisecond
	DefaultTokenDelay = 50 * time.Millisecond
)

// DefaultConfig returns the reference pipeline tuning.
func DefaultConfig() Config {
	return Config{
		LogBatchSize:    DefaultLogBatchSize,
		LiquidityWindow: DefaultLiquidityWindow,
		HolderMaxBlocks: DefaultHolderMaxBlocks,
		TopHolders:      DefaultTopHolders,
		PoolDelay:       DefaultPoolDelay,
		TokenDelay:      DefaultTokenDelay,
	}
}

// Dialer opens an RPC client for a URL. Injected so tests can supply fakes.
type Dialer func(ctx context.Context, rpcURL string) (EthClient, error)

// Pipeline sequences a scan request: validate, resolve the block range,
// consult the cache, scan creation events, enrich each pool, cache the
// result. Per-pool enrichment failures degrade to sentinel values; only
// configuration and head-fetch failures abort a request.
type Pipeline struct {
	cfg       Config
	registry  *chain.Registry
	estimator *Estimator
	results   *cache.ResultCache
	logger    *zap.Logger
	metrics   *Metrics
	dial      Dialer
}

// NewPipeline wires a pipeline. A nil dialer uses the real RPC client; a
// nil cache disables result caching; a nil metrics registry is allowed.
func NewPipeline(cfg Config, registry *chain.Registry, results *cache.ResultCache, logger *zap.Logger, metrics *Metrics, dial Dialer) *Pipeline {
	if logger == nil {
		logger = zap.NewNop()
	}
	if registry == nil {
		registry = chain.NewRegistry()
	}
	if dial == nil {
		dial = func(ctx context.Context, rpcURL string) (EthClient, error) {
			return chain.NewClient(ctx, rpcURL)
		}
	}
	if cfg.LogBatchSize == 0 {
		cfg.LogBatchSize = DefaultLogBatchSize
	}
	if cfg.LiquidityWindow == 0 {
		cfg.LiquidityWindow = DefaultLiquidityWindow
	}
	if cfg.HolderMaxBlocks == 0 {
		cfg.HolderMaxBlocks = DefaultHolderMaxBlocks
	}
	if cfg.TopHolders <= 0 {
		cfg.TopHolders = DefaultTopHolders
	}
	if cfg.PoolDelay == 0 {
		cfg.PoolDelay = DefaultPoolDelay
	}
	if cfg.TokenDelay == 0 {
		cfg.TokenDelay = DefaultTokenDelay
	}

	return &Pipeline{
		cfg:       cfg,
		registry:  registry,
		estimator: NewEstimator(registry),
		results:   results,
		logger:    logger,
		metrics:   metrics,
		dial:      dial,
	}
}

// Run executes one scan request and always returns a structured result.
func (p *Pipeline) Run(ctx context.Context, req Request) model.ScanResult {
	start := time.Now()
	defer func() {
		p.metrics.observeDuration(time.Since(start).Seconds())
	}()

	factories, err := ParseFactories(req.Factories)
	if err != nil {
		return p.fail(req, model.ErrorKindInvalidRequest, err)
	}
	if req.WindowMinutes < MinWindowMinutes || req.WindowMinutes > MaxWindowMinutes {
		return p.fail(req, model.ErrorKindInvalidRequest, fmt.Errorf("window must be between %d and %d minutes, got %d",
			MinWindowMinutes, MaxWindowMinutes, req.WindowMinutes))
	}

	rpcURL := req.RPCURL
	if rpcURL == "" {
		chainCfg, ok := p.registry.Lookup(req.Chain)
		if !ok || chainCfg.DefaultRPCURL == "" {
			return p.fail(req, model.ErrorKindInvalidRequest, fmt.Errorf("no RPC endpoint configured for chain %q", req.Chain))
		}
		rpcURL = chainCfg.DefaultRPCURL
	}

	client, err := p.dial(ctx, rpcURL)
	if err != nil {
		return p.fail(req, model.ErrorKindInternal, fmt.Errorf("connect rpc: %w", err))
	}
	if closer, ok := client.(interface{ Close() }); ok {
		defer closer.Close()
	}

	blockRange, err := p.estimator.ResolveRange(ctx, client, req.Chain, req.WindowMinutes)
	if err != nil {
		return p.fail(req, model.ErrorKindInternal, err)
	}

	key := cache.Key(req.Chain, req.Factories, blockRange.From, blockRange.To)
	if p.results != nil {
		if cached, ok := p.results.Get(key); ok {
			p.metrics.cacheHit()
			p.metrics.scanResult("cache_hit")
			return cached
		}
	}

	scanner, err := NewScanner(client, p.logger, p.metrics, p.cfg.LogBatchSize)
	if err != nil {
		return p.fail(req, model.ErrorKindInternal, err)
	}

	records := scanner.Scan(ctx, factories, blockRange)
	p.metrics.addPools(len(records))
	p.logger.Info("scan complete",
		zap.String("chain", req.Chain),
		zap.Uint64("from", blockRange.From),
		zap.Uint64("to", blockRange.To),
		zap.Int("pools", len(records)),
	)

	result := model.ScanResult{
		Success:       true,
		Chain:         req.Chain,
		WindowMinutes: req.WindowMinutes,
		FromBlock:     blockRange.From,
		ToBlock:       blockRange.To,
		Pools:         p.enrich(ctx, client, records, blockRange.To),
	}

	if p.results != nil {
		p.results.Set(key, result)
	}
	p.metrics.scanResult("ok")
	return result
}

func (p *Pipeline) enrich(ctx context.Context, client EthClient, records []model.PoolRecord, head uint64) []model.EnrichedPool {
	liquidity, liqErr := NewLiquidityResolver(client, p.logger, p.cfg.LiquidityWindow)
	if liqErr != nil {
		p.logger.Warn("liquidity resolver unavailable", zap.Error(liqErr))
	}
	holders, holdErr := NewHolderReconstructor(client, p.logger, p.cfg.HolderMaxBlocks, p.cfg.TopHolders)
	if holdErr != nil {
		p.logger.Warn("holder reconstructor unavailable", zap.Error(holdErr))
	}

	poolLimiter := rate.NewLimiter(rate.Every(p.cfg.PoolDelay), 1)
	tokenLimiter := rate.NewLimiter(rate.Every(p.cfg.TokenDelay), 1)

	pools := make([]model.EnrichedPool, 0, len(records))
	for _, record := range records {
		if err := poolLimiter.Wait(ctx); err != nil {
			p.logger.Warn("enrichment interrupted", zap.Error(err))
		}

		enriched := model.EnrichedPool{
			PoolRecord:    record,
			InitLiquidity: LiquidityUnavailable,
			TopHolders:    []string{},
		}

		if err := tokenLimiter.Wait(ctx); err == nil {
			meta0 := dex.FetchTokenMeta(ctx, client, common.HexToAddress(record.Token0), p.logger)
			enriched.Token0Meta = &meta0
		}
		if err := tokenLimiter.Wait(ctx); err == nil {
			meta1 := dex.FetchTokenMeta(ctx, client, common.HexToAddress(record.Token1), p.logger)
			enriched.Token1Meta = &meta1
		}

		if liquidity != nil {
			enriched.InitLiquidity = liquidity.InitialLiquidity(ctx, record, enriched.Token0Meta, enriched.Token1Meta)
		}
		if enriched.InitLiquidity == LiquidityUnavailable {
			p.metrics.enrichFailure("liquidity")
		}

		if holders != nil {
			enriched.TopHolders = holders.TopHolders(ctx, common.HexToAddress(record.Address), record.BlockNumber, head)
		}

		pools = append(pools, enriched)
	}

	return pools
}

func (p *Pipeline) fail(req Request, kind string, err error) model.ScanResult {
	p.logger.Error("scan request failed", zap.String("chain", req.Chain), zap.String("kind", kind), zap.Error(err))
	p.metrics.scanResult("error")
	return model.ScanResult{
		Success:       false,
		Chain:         req.Chain,
		WindowMinutes: req.WindowMinutes,
		Pools:         []model.EnrichedPool{},
		Error:         err.Error(),
		ErrorKind:     kind,
	}
}
