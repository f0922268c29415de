package constants

import (
	"fmt"
	"time"
)

// Redis Cache Configuration
// This file centralizes all Redis keys and TTL values for the Tablewise application
// Pattern: tablewise:{module}:{operation}:{identifier}:{params?}

// ================== CACHE TTL DURATIONS ==================

// Static Data (Long TTL: rarely changes)
const (
	TTL_STATIC_LONG  = 24 * time.Hour // 24 hours - for very stable data
	TTL_STATIC_SHORT = 6 * time.Hour  // 6 hours - for user profiles
)

// Semi-Static Data (Medium TTL: changes occasionally)
const (
	TTL_SEMI_STATIC_MEDIUM = 2 * time.Hour    // 2 hours - for restaurant details
	TTL_SEMI_STATIC_SHORT  = 1 * time.Hour    // 1 hour - for restaurant listings
	TTL_SEMI_STATIC_QUICK  = 15 * time.Minute // 15 minutes
)

// Dynamic Data (Short TTL: changes frequently)
const (
	TTL_DYNAMIC_MEDIUM = 10 * time.Minute // 10 minutes - for analytics
	TTL_DYNAMIC_SHORT  = 5 * time.Minute  // 5 minutes
)

// ================== REDIS KEY PREFIXES ==================

const (
	CACHE_PREFIX = "tablewise"
)

// ================== RESTAURANTS MODULE ==================

const (
	CACHE_KEY_RESTAURANT_DETAIL = CACHE_PREFIX + ":restaurants:detail:uuid:" // + restaurant-id
	CACHE_KEY_RESTAURANTS_LIST  = CACHE_PREFIX + ":restaurants:list"         // + :hash
)

const (
	TTL_RESTAURANT_DETAIL = TTL_SEMI_STATIC_MEDIUM // 2 hours
	TTL_RESTAURANTS_LIST  = TTL_SEMI_STATIC_SHORT  // 1 hour
)

// ================== ANALYTICS MODULE ==================

const (
	CACHE_KEY_ANALYTICS_ADMIN    = CACHE_PREFIX + ":analytics:admin:days:"         // + days
	CACHE_KEY_ANALYTICS_MANAGER  = CACHE_PREFIX + ":analytics:manager:uuid:"       // + manager-id:days:X
	CACHE_KEY_ANALYTICS_PERSONAL = CACHE_PREFIX + ":analytics:user:personal:uuid:" // + user-id:days:X
	CACHE_KEY_ANALYTICS_RESTO    = CACHE_PREFIX + ":analytics:restaurant:uuid:"    // + restaurant-id:days:X
)

const (
	TTL_ANALYTICS_DASHBOARD = TTL_DYNAMIC_MEDIUM // 10 minutes
	TTL_ANALYTICS_PERSONAL  = TTL_DYNAMIC_SHORT  // 5 minutes
)

// ================== CAPACITY LEDGER ==================

// Ledger keys are not cache entries: they hold the consumed seat counts per slot.
const (
	LEDGER_KEY_PREFIX   = CACHE_PREFIX + ":ledger:slots:" // + restaurant-id:date
	LEDGER_LOCK_PREFIX  = CACHE_PREFIX + ":ledger:lock:"  // + restaurant-id:date:time
	LEDGER_SEEDED_FIELD = "_seeded"
)

const (
	TTL_LEDGER_MIN = 1 * time.Hour // floor for past or unparsable dates
)

// ================== RATE LIMITING ==================

const (
	RATE_LIMIT_PREFIX = CACHE_PREFIX + ":rate_limit:" // + type:client
)

// ================== CACHE INVALIDATION PATTERNS ==================

const (
	PATTERN_INVALIDATE_RESTAURANTS_LIST = CACHE_PREFIX + ":restaurants:list*"
	PATTERN_INVALIDATE_ANALYTICS        = CACHE_PREFIX + ":analytics:*"
)

// ================== HELPER FUNCTIONS ==================

func BuildRestaurantDetailKey(restaurantID string) string {
	return CACHE_KEY_RESTAURANT_DETAIL + restaurantID
}

func BuildRestaurantListKey(hash string) string {
	return CACHE_KEY_RESTAURANTS_LIST + ":" + hash
}

func BuildAdminAnalyticsKey(days int) string {
	return fmt.Sprintf("%s%d", CACHE_KEY_ANALYTICS_ADMIN, days)
}

func BuildManagerAnalyticsKey(managerID string, days int) string {
	return fmt.Sprintf("%s%s:days:%d", CACHE_KEY_ANALYTICS_MANAGER, managerID, days)
}

func BuildRestaurantAnalyticsKey(restaurantID string, days int) string {
	return fmt.Sprintf("%s%s:days:%d", CACHE_KEY_ANALYTICS_RESTO, restaurantID, days)
}

func BuildPersonalAnalyticsKey(userID string, days int) string {
	return fmt.Sprintf("%s%s:days:%d", CACHE_KEY_ANALYTICS_PERSONAL, userID, days)
}

func BuildLedgerKey(restaurantID, date string) string {
	return LEDGER_KEY_PREFIX + restaurantID + ":" + date
}

func BuildLedgerLockKey(restaurantID, date, slot string) string {
	return LEDGER_LOCK_PREFIX + restaurantID + ":" + date + ":" + slot
}
