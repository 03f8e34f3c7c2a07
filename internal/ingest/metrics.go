package ingest

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	tabularProcessedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "agrilink_tabular_processed_total",
			Help: "Tabular files run through the sample matcher, by outcome",
		},
		[]string{"outcome"},
	)

	attributesWrittenTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "agrilink_image_attributes_written_total",
			Help: "Image attributes created or overwritten by the sample matcher",
		},
		[]string{"kind"},
	)

	geneticRowsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "agrilink_genetic_rows_total",
			Help: "Genetic spreadsheet rows, by build outcome",
		},
		[]string{"outcome"},
	)

	previewCacheTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "agrilink_preview_cache_requests_total",
			Help: "Preview cache lookups by result",
		},
		[]string{"result"},
	)
)
