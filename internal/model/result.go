package model

// Error kinds classify a failed result for transport mapping. They never
// appear in the response body.
const (
	ErrorKindInvalidRequest = "invalid_request"
	ErrorKindInternal       = "internal"
)

// ScanResult is the pipeline output for one request. Pools keep discovery
// order after dedup; enrichment degradation is visible through sentinel
// field values, never by dropping pools. A result served from the cache is
// indistinguishable from the original; hit counts live in metrics.
type ScanResult struct {
	Success       bool           `json:"success"`
	Chain         string         `json:"chain"`
	WindowMinutes int            `json:"window_minutes"`
	FromBlock     uint64         `json:"from_block"`
	ToBlock       uint64         `json:"to_block"`
	Pools         []EnrichedPool `json:"pools"`
	Error         string         `json:"error,omitempty"`
	ErrorKind     string         `json:"-"`
}
