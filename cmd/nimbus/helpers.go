package main

import (
	"time"

	"nimbus/internal/logging"
	"nimbus/internal/nws"
	"nimbus/internal/store"
)

const (
	// alertsCacheTTL keeps alert responses fresh; active alerts churn fast.
	alertsCacheTTL = 2 * time.Minute
	// forecastCacheTTL matches the NWS's own forecast update cadence.
	forecastCacheTTL = 30 * time.Minute
)

// openStore opens the configured SQLite store, or returns nil if it cannot
// be opened. The store is an optimization (cache, history), never a
// requirement, so failures degrade to uncached operation.
func openStore() *store.SqlStore {
	s, err := store.Open(cfg.DBPath)
	if err != nil {
		logging.New("store").Warn("store unavailable, continuing without cache/history",
			"path", cfg.DBPath, "error", err)
		return nil
	}
	return s
}

// newWeatherClient builds the NWS client from config, wiring the response
// cache when a store is available. ttl picks the cache window for this
// command's request pattern.
func newWeatherClient(s *store.SqlStore, ttl time.Duration) (*nws.Client, error) {
	opts := []nws.Option{
		nws.WithBaseURL(cfg.NWSBaseURL),
		nws.WithUserAgent(cfg.UserAgent),
		nws.WithTimeout(cfg.Timeout()),
		nws.WithLogger(logging.New("nws")),
	}
	if s != nil {
		opts = append(opts, nws.WithCache(&store.CacheAdapter{Store: s, MaxAge: ttl}))
	}
	return nws.New(opts...)
}
