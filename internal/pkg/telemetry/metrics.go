package telemetry

// Span and attribute names used for instrumentation.
const (
	TracerName = "github.com/samirrijal/geolisten"

	SpanPersist         = "collector.persist"
	SpanResolveBoundary = "boundary.resolve"

	AttrRecordID = "record.id"
	AttrAuthor   = "record.author"
	AttrRegion   = "boundary.region"
	AttrCacheHit = "boundary.cache_hit"
)
