// Package store persists crawled items. The pipeline only depends on the
// Sink interface; Postgres and JSON-file implementations live here.
package store

import (
	"context"

	"github.com/Sallywang319/myMediaCrawler/internal/types"
)

// Sink is the persistence contract the pipeline writes through. Upsert must
// treat (Platform, NativeID) as the identity: the eager save at discovery and
// the later detail update land on the same logical record, never a duplicate.
type Sink interface {
	Upsert(ctx context.Context, record *types.ItemRecord) error
	Close() error
}
