package server

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/base-14/examples/go/parking-rules/internal/logging"
	"github.com/base-14/examples/go/parking-rules/internal/parking"
)

const scrapeTimeout = 2 * time.Second

// occupancyCollector reads the ledger on every scrape so /metrics always
// reflects the stored state, whichever ledger backs the attendant.
type occupancyCollector struct {
	attendant *parking.Attendant

	active *prometheus.Desc
	limit  *prometheus.Desc
}

func newOccupancyCollector(attendant *parking.Attendant) *occupancyCollector {
	return &occupancyCollector{
		attendant: attendant,
		active: prometheus.NewDesc("parking_active_slots",
			"Number of occupied slots per vehicle category.",
			[]string{"category"}, nil),
		limit: prometheus.NewDesc("parking_slot_limit",
			"Slot limit per vehicle category.",
			[]string{"category"}, nil),
	}
}

func (c *occupancyCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.active
	ch <- c.limit
}

func (c *occupancyCollector) Collect(ch chan<- prometheus.Metric) {
	ctx, cancel := context.WithTimeout(context.Background(), scrapeTimeout)
	defer cancel()

	status, err := c.attendant.Status(ctx)
	if err != nil {
		logging.Warn(ctx).Err(err).Msg("occupancy scrape failed")
		return
	}

	for _, cs := range status.Categories {
		ch <- prometheus.MustNewConstMetric(c.active, prometheus.GaugeValue, float64(cs.Occupied), cs.Category.String())
		ch <- prometheus.MustNewConstMetric(c.limit, prometheus.GaugeValue, float64(cs.Limit), cs.Category.String())
	}
}

func newRegistry(attendant *parking.Attendant) *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		newOccupancyCollector(attendant),
	)
	return reg
}
