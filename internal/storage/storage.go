package storage

import "github.com/Catorpilor/fresh-market-watcher/internal/model"

// ReportSink receives the enriched pools of one completed scan.
type ReportSink interface {
	PutPools(pools []model.EnrichedPool) error
}
