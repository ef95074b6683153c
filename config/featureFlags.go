package config

import (
	"os"
	"strings"
	"time"
)

func envTrue(key string) bool {
	v := strings.ToLower(strings.TrimSpace(os.Getenv(key)))
	return v == "1" || v == "true" || v == "yes" || v == "y" || v == "on"
}

// ReportCacheEnabled caches read-only debt reports (aging, debtors, products) in Redis.
//
// Set via env:
// - ENABLE_REPORT_CACHE=true
// - REPORT_CACHE_TTL_SECONDS=120
//
// Customer and instance balances are never cached. Cached keys carry a generation number that every
// committed ledger write bumps, so a report built while a payment commits is stored under the old
// generation and never read again.
func ReportCacheEnabled() bool {
	return envTrue("ENABLE_REPORT_CACHE")
}

func ReportCacheTTL() time.Duration {
	return time.Duration(intFromEnv("REPORT_CACHE_TTL_SECONDS", 120)) * time.Second
}

// RedisDebtLocksEnabled takes a best-effort Redis lock per debt instance before the DB row lock.
//
// Set via env:
// - REDIS_DEBT_LOCKS=true
func RedisDebtLocksEnabled() bool {
	return envTrue("REDIS_DEBT_LOCKS")
}

// DebtTxMaxAttempts bounds retries of a payment command after an optimistic concurrency conflict.
//
// Set via env:
// - DEBT_TX_MAX_ATTEMPTS (default 3)
func DebtTxMaxAttempts() int {
	n := intFromEnv("DEBT_TX_MAX_ATTEMPTS", 3)
	if n < 1 {
		return 1
	}
	return n
}

// SkipMigrations disables AutoMigrate on server startup (run cmd tooling instead).
func SkipMigrations() bool {
	return envTrue("SKIP_MIGRATIONS")
}

// ReportSlowMs is the duration above which a report build is logged as slow.
//
// Set via env:
// - REPORT_SLOW_MS (default 500)
func ReportSlowMs() int64 {
	return int64(intFromEnv("REPORT_SLOW_MS", 500))
}
