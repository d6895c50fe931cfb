package cache

import (
	"fmt"
	"time"
)

// Cache key builders and TTLs for the portal's hot read paths. Reference
// data changes rarely and tolerates longer TTLs; application lookups by
// tracking code are short-lived because status transitions must surface
// quickly to suppliers polling the tracking endpoint.
const (
	TTLReferenceData  = 30 * time.Minute
	TTLRequirements   = 15 * time.Minute
	TTLTrackingLookup = 60 * time.Second
)

const (
	KeyRegions      = "portal:regions"
	KeyCommodities  = "portal:commodities"
	KeySchools      = "portal:schools"
	KeyRequirements = "portal:requirements:active"
)

// KeyTracking returns the cache key for an application tracking lookup.
func KeyTracking(code string) string {
	return fmt.Sprintf("portal:tracking:%s", code)
}
