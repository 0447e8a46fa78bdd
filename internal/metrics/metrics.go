package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// CacheHitsTotal is the number of API responses served from the cache
	CacheHitsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "gitprofile_cache_hits_total",
		Help: "Total number of GitHub API responses served from the response cache",
	})

	// CacheMissesTotal is the number of lookups that required a live call
	CacheMissesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "gitprofile_cache_misses_total",
		Help: "Total number of response cache misses",
	})

	// FetchErrorsTotal counts failed GitHub API calls by error kind
	FetchErrorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "gitprofile_fetch_errors_total",
		Help: "Total number of failed GitHub API calls",
	}, []string{"kind"})

	// WidgetsRenderedTotal counts rendered widget images by kind
	WidgetsRenderedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "gitprofile_widgets_rendered_total",
		Help: "Total number of rendered widget images",
	}, []string{"kind"})
)
