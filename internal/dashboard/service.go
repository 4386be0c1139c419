package dashboard

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/novatech/management-backend/internal/orders"
	"github.com/novatech/management-backend/pkg/db"
	"github.com/novatech/management-backend/pkg/enums"
	pkgerrors "github.com/novatech/management-backend/pkg/errors"
)

// Service computes the dashboard aggregates. Calendar boundaries are UTC.
type Service interface {
	Stats(ctx context.Context, now time.Time) (*StatsDTO, error)
	RevenueTrend(ctx context.Context, now time.Time) (*RevenueTrendDTO, error)
	OrderDistribution(ctx context.Context, now time.Time) (*OrderDistributionDTO, error)
	RecentActivity(ctx context.Context, count int) ([]orders.OrderDTO, error)
}

type service struct {
	repo   *Repository
	orders *orders.Repository
}

func NewService(client *db.Client) (Service, error) {
	if client == nil {
		return nil, fmt.Errorf("db client is required")
	}
	return &service{
		repo:   NewRepository(client.DB()),
		orders: orders.NewRepository(client.DB()),
	}, nil
}

func monthStart(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
}

func (s *service) Stats(ctx context.Context, now time.Time) (*StatsDTO, error) {
	revenue, err := s.repo.PaidRevenue(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "sum paid invoices")
	}
	processed, err := s.repo.CountOrdersWithStatus(ctx, enums.ProcessedOrderStatuses)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "count processed orders")
	}
	start := monthStart(now)
	newClients, err := s.repo.CountClientsAddedBetween(ctx, start, start.AddDate(0, 1, 0))
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "count new clients")
	}
	return &StatsDTO{
		TotalRevenue:        revenue,
		OrdersProcessed:     processed,
		NewClientsThisMonth: newClients,
	}, nil
}

// RevenueTrend buckets paid invoices into the current month and the five
// before it, oldest first. Months without revenue report zero.
func (s *service) RevenueTrend(ctx context.Context, now time.Time) (*RevenueTrendDTO, error) {
	first := monthStart(now).AddDate(0, -(trendMonths - 1), 0)
	rows, err := s.repo.PaidSince(ctx, first)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load paid invoices")
	}

	points := make([]RevenuePoint, trendMonths)
	index := make(map[string]int, trendMonths)
	for i := range points {
		period := first.AddDate(0, i, 0).Format(periodLayout)
		points[i] = RevenuePoint{Period: period, Revenue: decimal.Zero}
		index[period] = i
	}
	for _, row := range rows {
		if i, ok := index[row.InvoiceDate.UTC().Format(periodLayout)]; ok {
			points[i].Revenue = points[i].Revenue.Add(row.TotalAmount)
		}
	}
	for i := range points {
		points[i].Revenue = points[i].Revenue.Round(2)
	}
	return &RevenueTrendDTO{Data: points, TrendDescription: trendDescription}, nil
}

func (s *service) OrderDistribution(ctx context.Context, now time.Time) (*OrderDistributionDTO, error) {
	rows, err := s.repo.OrderStatusCounts(ctx, monthStart(now))
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "count orders by status")
	}
	if rows == nil {
		rows = []DistributionPoint{}
	}
	return &OrderDistributionDTO{Data: rows, DistributionDescription: distributionDescription}, nil
}

func (s *service) RecentActivity(ctx context.Context, count int) ([]orders.OrderDTO, error) {
	count = ClampRecentCount(count)
	rows, err := s.orders.Recent(ctx, count)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load recent orders")
	}
	out := make([]orders.OrderDTO, 0, len(rows))
	for i := range rows {
		out = append(out, orders.FromModel(&rows[i]))
	}
	return out, nil
}

// ClampRecentCount maps non-positive counts to the default and caps the rest.
func ClampRecentCount(count int) int {
	switch {
	case count <= 0:
		return defaultRecentCount
	case count > maxRecentCount:
		return maxRecentCount
	default:
		return count
	}
}
