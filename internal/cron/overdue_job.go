package cron

import (
	"context"
	"fmt"
	"time"

	"github.com/novatech/management-backend/pkg/logger"
)

const overdueJobName = "invoices.mark_overdue"

type overdueMarker interface {
	MarkOverdue(ctx context.Context, now time.Time) (int64, error)
}

// OverdueInvoiceJob moves pending invoices past their due date to Overdue.
type OverdueInvoiceJob struct {
	invoices overdueMarker
	logg     *logger.Logger
	now      func() time.Time
}

func NewOverdueInvoiceJob(invoices overdueMarker, logg *logger.Logger) (*OverdueInvoiceJob, error) {
	if invoices == nil {
		return nil, fmt.Errorf("invoice service required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &OverdueInvoiceJob{
		invoices: invoices,
		logg:     logg,
		now:      func() time.Time { return time.Now().UTC() },
	}, nil
}

func (j *OverdueInvoiceJob) Name() string { return overdueJobName }

func (j *OverdueInvoiceJob) Run(ctx context.Context) error {
	n, err := j.invoices.MarkOverdue(ctx, j.now())
	if err != nil {
		return err
	}
	j.logg.Info(j.logg.WithField(ctx, "rows_affected", n), "invoices marked overdue")
	return nil
}
