package db

import (
	"log"
	"sync"

	"github.com/dgraph-io/ristretto"
)

// Cache keys are tracked per entity so that every write path can clear all
// cached reads of that entity in one call.
var (
	Cache         *ristretto.Cache
	GoalCacheKeys = struct {
		sync.RWMutex
		m map[string]struct{}
	}{m: make(map[string]struct{})}
	EntryCacheKeys = struct {
		sync.RWMutex
		m map[string]struct{}
	}{m: make(map[string]struct{})}
	TransactionCacheKeys = struct {
		sync.RWMutex
		m map[string]struct{}
	}{m: make(map[string]struct{})}
)

func InitCache() {
	var err error
	Cache, err = ristretto.NewCache(&ristretto.Config{
		NumCounters: 10000, // number of keys to track frequency of
		MaxCost:     10000,
		BufferItems: 64, // number of keys per Get buffer
	})
	if err != nil {
		log.Fatalf("failed to initialize cache: %v", err)
	}
}

// Goal Cache Functions
func SetGoalCache(cacheKey string, value interface{}) {
	GoalCacheKeys.Lock()
	GoalCacheKeys.m[cacheKey] = struct{}{}
	GoalCacheKeys.Unlock()
	Cache.Set(cacheKey, value, 1)
}

func ClearAllGoalCaches() {
	GoalCacheKeys.Lock()
	for key := range GoalCacheKeys.m {
		Cache.Del(key)
	}
	GoalCacheKeys.m = make(map[string]struct{})
	GoalCacheKeys.Unlock()
}

// Entry Cache Functions
func SetEntryCache(cacheKey string, value interface{}) {
	EntryCacheKeys.Lock()
	EntryCacheKeys.m[cacheKey] = struct{}{}
	EntryCacheKeys.Unlock()
	Cache.Set(cacheKey, value, 1)
}

func ClearAllEntryCaches() {
	EntryCacheKeys.Lock()
	for key := range EntryCacheKeys.m {
		Cache.Del(key)
	}
	EntryCacheKeys.m = make(map[string]struct{})
	EntryCacheKeys.Unlock()
}

// Transaction Cache Functions
func SetTransactionCache(cacheKey string, value interface{}) {
	TransactionCacheKeys.Lock()
	TransactionCacheKeys.m[cacheKey] = struct{}{}
	TransactionCacheKeys.Unlock()
	Cache.Set(cacheKey, value, 1)
}

func ClearAllTransactionCaches() {
	TransactionCacheKeys.Lock()
	for key := range TransactionCacheKeys.m {
		Cache.Del(key)
	}
	TransactionCacheKeys.m = make(map[string]struct{})
	TransactionCacheKeys.Unlock()
}
