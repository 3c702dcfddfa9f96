// Package worker handles queued report requests.
package worker

import (
	"context"
	"fmt"
	"time"

	"budgeteer/internal/amqp"
	"budgeteer/internal/log"
	"budgeteer/internal/services"
)

// ReportWorker rebuilds and exports reports when a request arrives.
type ReportWorker struct {
	service *services.ReportService
	logger  *log.Logger
	now     func() time.Time
}

func NewReportWorker(service *services.ReportService, logger *log.Logger) *ReportWorker {
	return &ReportWorker{
		service: service,
		logger:  logger.WithComponent(log.ComponentWorker),
		now:     time.Now,
	}
}

// HandleRequest processes one report request. A request without years covers
// every persisted year, falling back to the current year when nothing is
// stored yet.
func (w *ReportWorker) HandleRequest(ctx context.Context, msg *amqp.ReportRequestMessage) error {
	years := msg.Years
	if len(years) == 0 {
		stored, err := w.service.StoredYears(ctx)
		if err != nil {
			return fmt.Errorf("list stored years: %w", err)
		}
		years = stored
	}
	if len(years) == 0 {
		years = []int{w.now().Year()}
	}

	started := w.now()
	w.logger.Info("Rebuilding report",
		log.FieldMessageID, msg.ID,
		"years", years)

	r, err := w.service.Run(ctx, years)
	if err != nil {
		return fmt.Errorf("run report for %v: %w", years, err)
	}

	if err := w.service.Export(ctx, r); err != nil {
		return fmt.Errorf("export report: %w", err)
	}

	w.logger.Info("Report rebuilt",
		log.FieldMessageID, msg.ID,
		log.FieldCount, len(r.Periods),
		log.FieldDuration, w.now().Sub(started))
	return nil
}
