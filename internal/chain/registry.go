package chain

import "strings"

// Config describes one supported chain: its average block time and the RPC
// endpoint used when a request does not supply its own.
type Config struct {
	BlockTimeSeconds float64
	DefaultRPCURL    string
}

// Registry maps a chain identifier to its Config. It is a static lookup
// table; unknown chains are reported as absent, never as an error.
type Registry struct {
	chains map[string]Config
}

// NewRegistry returns a registry preloaded with the default chain table.
func NewRegistry() *Registry {
	return &Registry{chains: map[string]Config{
		"ethereum":  {BlockTimeSeconds: 12, DefaultRPCURL: "https://eth.llamarpc.com"},
		"bsc":       {BlockTimeSeconds: 3, DefaultRPCURL: "https://binance.llamarpc.com"},
		"polygon":   {BlockTimeSeconds: 2.1, DefaultRPCURL: "https://polygon.llamarpc.com"},
		"arbitrum":  {BlockTimeSeconds: 0.25, DefaultRPCURL: "https://arbitrum.llamarpc.com"},
		"optimism":  {BlockTimeSeconds: 2, DefaultRPCURL: "https://optimism.llamarpc.com"},
		"base":      {BlockTimeSeconds: 2, DefaultRPCURL: "https://base.llamarpc.com"},
		"avalanche": {BlockTimeSeconds: 2, DefaultRPCURL: "https://api.avax.network/ext/bc/C/rpc"},
		"fantom":    {BlockTimeSeconds: 1.1, DefaultRPCURL: "https://rpc.ftm.tools"},
	}}
}

// Lookup returns the config for a chain identifier, case-insensitively.
func (r *Registry) Lookup(chain string) (Config, bool) {
	cfg, ok := r.chains[strings.ToLower(strings.TrimSpace(chain))]
	return cfg, ok
}

// Register adds or overrides a chain entry.
func (r *Registry) Register(chain string, cfg Config) {
	r.chains[strings.ToLower(strings.TrimSpace(chain))] = cfg
}
