// Package scheduler wires up the cron job that periodically re-ingests
// restaurant data for a fixed list of key locations.
package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"

	"foodfindr/internal/ingest"
	"foodfindr/internal/logging"
	"foodfindr/internal/model"
	"foodfindr/internal/monitoring"
)

// Sync defaults for each location.
const (
	defaultRadiusMeters = 5000
	defaultMaxResults   = 50
)

// defaultLocations is the fixed sync list. In a richer deployment this
// would come from user activity or recent searches.
var defaultLocations = []model.SyncLocation{
	{Name: "New York", Latitude: 40.7128, Longitude: -74.0060},
	{Name: "Los Angeles", Latitude: 34.0522, Longitude: -118.2437},
	{Name: "Chicago", Latitude: 41.8781, Longitude: -87.6298},
}

// Scheduler drives the ingest worker on a cron interval.
type Scheduler struct {
	cron      *cron.Cron
	worker    *ingest.Worker
	locations []model.SyncLocation
	spec      string
}

// New creates a Scheduler that fires every intervalHours hours over the
// default location list.
func New(worker *ingest.Worker, intervalHours int) *Scheduler {
	return &Scheduler{
		cron:      cron.New(),
		worker:    worker,
		locations: defaultLocations,
		spec:      fmt.Sprintf("@every %dh", intervalHours),
	}
}

// Start registers the sync job and starts the cron loop. It also kicks off
// one sync immediately so a fresh deployment has data without waiting for
// the first tick.
func (s *Scheduler) Start(ctx context.Context) error {
	_, err := s.cron.AddFunc(s.spec, func() {
		s.RunAll(ctx)
	})
	if err != nil {
		return fmt.Errorf("cron.AddFunc: %w", err)
	}

	s.cron.Start()
	logging.Info("sync scheduler started", logrus.Fields{"spec": s.spec})

	go s.RunAll(ctx)
	return nil
}

// Stop shuts down the cron loop.
func (s *Scheduler) Stop() {
	s.cron.Stop()
	logging.Info("sync scheduler stopped", nil)
}

// RunAll syncs every configured location and returns the batch report. A
// location that fails entirely is logged, counted, and excluded from the
// report details; it never aborts the rest of the batch.
func (s *Scheduler) RunAll(ctx context.Context) model.SyncReport {
	report := model.SyncReport{StartedAt: time.Now().UTC()}

	for _, loc := range s.locations {
		result, err := s.worker.SyncLocation(ctx, loc, defaultRadiusMeters, defaultMaxResults)
		if err != nil {
			report.LocationsFailed++
			monitoring.SyncLocationFailures.Inc()
			logging.Error("location sync failed", logrus.Fields{
				"location": loc.Name,
				"error":    err.Error(),
			})
			continue
		}
		report.LocationsSynced++
		report.TotalFetched += result.Fetched
		report.Details = append(report.Details, result)
	}

	report.FinishedAt = time.Now().UTC()
	logging.Info("sync cycle complete", logrus.Fields{
		"locations_synced": report.LocationsSynced,
		"locations_failed": report.LocationsFailed,
		"total_fetched":    report.TotalFetched,
	})
	return report
}
