package constants

import (
	"fmt"
	"time"
)

// Redis key registry for campusq.
// Pattern: campusq:{module}:{operation}:{identifier}
//
// Everything stored under these keys is derived or single-use state:
// the consumed-token ledger, per-station notified sets, the
// current-serving display index, station change counters and the
// directory cache. Tickets, counters and sequence numbers live in
// Postgres; Redis holds nothing that cannot be rebuilt from it,
// except the consumed-token ledger which expires with the tokens.

// ================== TTL DURATIONS ==================

const (
	// TTLConsumedTokenFloor is the minimum TTL written for a consumed
	// token entry; entries otherwise expire together with the token.
	TTLConsumedTokenFloor = 1 * time.Minute

	// TTLNotifiedSet bounds the per-station notified set.
	TTLNotifiedSet = 12 * time.Hour

	// TTLServingIndex bounds the current-serving display index.
	TTLServingIndex = 12 * time.Hour

	// TTLStationVersion bounds the station change counter.
	TTLStationVersion = 24 * time.Hour

	// TTLDirectoryCache bounds cached station listings.
	TTLDirectoryCache = 1 * time.Minute
)

// ================== KEY BUILDERS ==================

// ConsumedTokenKey returns the key recording that a token has been used.
// The id is a digest of the raw token value, not the token itself.
func ConsumedTokenKey(digest string) string {
	return fmt.Sprintf("campusq:tokens:consumed:%s", digest)
}

// NotifiedSetKey returns the key of the set of ticket ids already
// notified for front-of-line proximity at a station.
func NotifiedSetKey(stationID string) string {
	return fmt.Sprintf("campusq:notify:front:%s", stationID)
}

// ServingIndexKey returns the key of the hash mapping counter number to
// the ticket id it is currently serving, per station.
func ServingIndexKey(stationID string) string {
	return fmt.Sprintf("campusq:serving:current:%s", stationID)
}

// StationVersionKey returns the key of the station change counter,
// bumped whenever the station's queue or serving state changes.
func StationVersionKey(stationID string) string {
	return fmt.Sprintf("campusq:stations:version:%s", stationID)
}

// DirectoryCacheKey returns the cache key for an activated-station
// listing by purpose.
func DirectoryCacheKey(purpose string) string {
	return fmt.Sprintf("campusq:stations:directory:%s", purpose)
}

// DirectoryCachePattern matches every directory cache entry.
const DirectoryCachePattern = "campusq:stations:directory:*"

// RateLimitKey returns the key for a fixed rate-limit window.
func RateLimitKey(limitType, clientIP string, windowStart int64) string {
	return fmt.Sprintf("campusq:ratelimit:%s:%s:%d", limitType, clientIP, windowStart)
}
