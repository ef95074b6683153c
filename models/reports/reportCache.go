package reports

import (
	"context"
	"fmt"
	"time"

	"github.com/mmdatafocus/fiado_backend/config"
	"github.com/mmdatafocus/fiado_backend/utils"
	"github.com/sirupsen/logrus"
)

// every cached debt report key is registered here so one payment can drop them all
const debtReportKeySet = "report:debt:keys"

// bumped on every invalidation; part of each cache key
const debtReportGenKey = "report:debt:gen"

type reportStore interface {
	enabled() bool
	generation() (int64, error)
	bumpGeneration() error
	get(key string, dest any) (bool, error)
	set(key string, obj any, ttl time.Duration) error
	dropAll() error
}

type redisReportStore struct{}

func (redisReportStore) enabled() bool {
	return config.ReportCacheEnabled() && config.GetRedisDB() != nil
}

func (redisReportStore) generation() (int64, error) {
	return config.GetRedisInt(debtReportGenKey)
}

func (redisReportStore) bumpGeneration() error {
	_, err := config.IncrRedisKey(debtReportGenKey)
	return err
}

func (redisReportStore) get(key string, dest any) (bool, error) {
	return config.GetRedisObject(key, dest)
}

func (redisReportStore) set(key string, obj any, ttl time.Duration) error {
	if err := config.SetRedisObject(key, obj, ttl); err != nil {
		return err
	}
	return config.AddRedisSet(debtReportKeySet, key)
}

func (redisReportStore) dropAll() error {
	keys, err := config.GetRedisSetMembers(debtReportKeySet)
	if err != nil {
		return err
	}
	return config.RemoveRedisKey(append(keys, debtReportKeySet)...)
}

var cacheStore reportStore = redisReportStore{}

func reportCacheTTL() time.Duration {
	return config.ReportCacheTTL()
}

func reportSlowMs() int64 {
	return config.ReportSlowMs()
}

func logSlowReport(ctx context.Context, name string, started time.Time, extra map[string]any) {
	d := time.Since(started)
	if d.Milliseconds() < reportSlowMs() {
		return
	}
	cid, _ := utils.GetCorrelationIdFromContext(ctx)
	config.GetLogger().WithFields(logrus.Fields{
		"report":         name,
		"ms":             d.Milliseconds(),
		"correlation_id": cid,
		"extra":          extra,
	}).Warn("slow_report")
}

func generationKey(key string, gen int64) string {
	return fmt.Sprintf("%s:g%d", key, gen)
}

// cachedReport serves key from Redis when report caching is on, building and storing it on a miss.
// The generation is read before building so a concurrent invalidation strands the result under the old key.
func cachedReport[T any](ctx context.Context, key string, build func() (T, error)) (T, error) {
	if !cacheStore.enabled() {
		return build()
	}
	gen, err := cacheStore.generation()
	if err != nil {
		config.LogError(config.GetLogger(), "Reports", "cachedReport", "cache generation", key, err)
		return build()
	}
	genKey := generationKey(key, gen)
	var cached T
	if ok, err := cacheStore.get(genKey, &cached); err == nil && ok {
		return cached, nil
	}
	result, err := build()
	if err != nil {
		return result, err
	}
	if err := cacheStore.set(genKey, result, reportCacheTTL()); err != nil {
		config.LogError(config.GetLogger(), "Reports", "cachedReport", "cache set", genKey, err)
	}
	return result, nil
}

// InvalidateDebtReports drops every cached debt report. Called after each committed ledger write.
func InvalidateDebtReports() error {
	if err := cacheStore.bumpGeneration(); err != nil {
		return err
	}
	return cacheStore.dropAll()
}
