package match

import "math"

const (
	// CoreVersion is the current version of the matching core
	CoreVersion = "v1.0.0"

	// SnapshotSchemaVersion is the current version of the snapshot schema
	// Increment this when the snapshot format changes in a backward-incompatible way
	SnapshotSchemaVersion = 1

	// DefaultLevelChunkSize is the number of level records the pool adds per growth step.
	DefaultLevelChunkSize = 1024

	// NoAskPrice is the ask side market price while there is neither liquidity nor a trade.
	NoAskPrice uint64 = math.MaxUint64

	// NoBidPrice is the bid side market price while there is neither liquidity nor a trade.
	NoBidPrice uint64 = 0

	// sentinel head nodes taken from the pool, one per index
	indexCount = 6
)
