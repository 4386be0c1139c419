package dashboard_test

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm/clause"

	"github.com/novatech/management-backend/internal/dashboard"
	"github.com/novatech/management-backend/pkg/db"
	"github.com/novatech/management-backend/pkg/db/dbtest"
	"github.com/novatech/management-backend/pkg/db/models"
	"github.com/novatech/management-backend/pkg/enums"
)

var now = time.Date(2026, 10, 15, 12, 0, 0, 0, time.UTC)

type seeder struct {
	t      *testing.T
	db     *db.Client
	client models.Client
}

func newSeeder(t *testing.T) (dashboard.Service, *seeder) {
	t.Helper()
	client := dbtest.Open(t)
	svc, err := dashboard.NewService(client)
	require.NoError(t, err)
	c := models.Client{ClientName: "Acme", Email: "ops@acme.test", Status: enums.ClientStatusActive, DateAdded: now.AddDate(0, -3, 0)}
	require.NoError(t, client.DB().Create(&c).Error)
	return svc, &seeder{t: t, db: client, client: c}
}

func (s *seeder) order(status enums.OrderStatus, at time.Time, total string) models.Order {
	s.t.Helper()
	o := models.Order{OrderDate: at, ClientID: s.client.ID, Status: status, TotalAmount: decimal.RequireFromString(total)}
	require.NoError(s.t, s.db.DB().Omit(clause.Associations).Create(&o).Error)
	return o
}

func (s *seeder) invoice(status enums.InvoiceStatus, at time.Time, total string) {
	s.t.Helper()
	o := s.order(enums.OrderStatusOpen, at, total)
	inv := models.Invoice{InvoiceDate: at, OrderID: o.ID, ClientID: s.client.ID, TotalAmount: o.TotalAmount, Status: status}
	require.NoError(s.t, s.db.DB().Omit(clause.Associations).Create(&inv).Error)
}

func TestStats(t *testing.T) {
	svc, seed := newSeeder(t)
	ctx := context.Background()

	seed.invoice(enums.InvoiceStatusPaid, now, "100.50")
	seed.invoice(enums.InvoiceStatusPaid, now.AddDate(-1, 0, 0), "20.25")
	seed.invoice(enums.InvoiceStatusPending, now, "999.00")
	seed.order(enums.OrderStatusShipped, now, "1.00")
	seed.order(enums.OrderStatusCompleted, now, "1.00")
	seed.order(enums.OrderStatusClosed, now, "1.00")
	require.NoError(t, seed.db.DB().Create(&models.Client{ClientName: "New", Email: "n@new.test", Status: enums.ClientStatusActive, DateAdded: now.AddDate(0, 0, -2)}).Error)

	stats, err := svc.Stats(ctx, now)
	require.NoError(t, err)
	assert.True(t, stats.TotalRevenue.Equal(decimal.RequireFromString("120.75")), stats.TotalRevenue.String())
	assert.Equal(t, int64(2), stats.OrdersProcessed)
	assert.Equal(t, int64(1), stats.NewClientsThisMonth)
}

func TestStatsOnEmptyStore(t *testing.T) {
	svc, _ := newSeeder(t)
	stats, err := svc.Stats(context.Background(), now)
	require.NoError(t, err)
	assert.True(t, stats.TotalRevenue.IsZero())
	assert.Zero(t, stats.OrdersProcessed)
}

func TestRevenueTrendZeroFillsSixMonths(t *testing.T) {
	svc, seed := newSeeder(t)

	seed.invoice(enums.InvoiceStatusPaid, now, "10.00")
	seed.invoice(enums.InvoiceStatusPaid, now.AddDate(0, 0, -3), "5.00")
	seed.invoice(enums.InvoiceStatusPaid, time.Date(2026, 7, 2, 0, 0, 0, 0, time.UTC), "7.50")
	seed.invoice(enums.InvoiceStatusPaid, time.Date(2026, 3, 31, 0, 0, 0, 0, time.UTC), "100.00")
	seed.invoice(enums.InvoiceStatusOverdue, now, "50.00")

	trend, err := svc.RevenueTrend(context.Background(), now)
	require.NoError(t, err)
	assert.Equal(t, "Revenue from Paid Invoices - Last 6 Months", trend.TrendDescription)
	require.Len(t, trend.Data, 6)

	periods := make([]string, 0, 6)
	for _, p := range trend.Data {
		periods = append(periods, p.Period)
	}
	assert.Equal(t, []string{"May 2026", "Jun 2026", "Jul 2026", "Aug 2026", "Sep 2026", "Oct 2026"}, periods)
	assert.True(t, trend.Data[0].Revenue.IsZero())
	assert.True(t, trend.Data[2].Revenue.Equal(decimal.RequireFromString("7.50")))
	assert.True(t, trend.Data[5].Revenue.Equal(decimal.RequireFromString("15.00")))
}

func TestOrderDistributionCountsThisMonth(t *testing.T) {
	svc, seed := newSeeder(t)

	seed.order(enums.OrderStatusOpen, now, "1.00")
	seed.order(enums.OrderStatusOpen, now.AddDate(0, 0, -1), "1.00")
	seed.order(enums.OrderStatusShipped, now, "1.00")
	seed.order(enums.OrderStatusShipped, now.AddDate(0, -1, 0), "1.00")

	dist, err := svc.OrderDistribution(context.Background(), now)
	require.NoError(t, err)
	assert.Equal(t, "Order Status Distribution - This Month", dist.DistributionDescription)
	assert.Equal(t, []dashboard.DistributionPoint{
		{Category: "Open", Count: 2},
		{Category: "Shipped", Count: 1},
	}, dist.Data)
}

func TestRecentActivity(t *testing.T) {
	svc, seed := newSeeder(t)
	for i := 0; i < 7; i++ {
		seed.order(enums.OrderStatusOpen, now.Add(time.Duration(i)*time.Minute), "1.00")
	}

	recent, err := svc.RecentActivity(context.Background(), 0)
	require.NoError(t, err)
	require.Len(t, recent, 5)
	assert.True(t, recent[0].OrderDate.After(recent[1].OrderDate))
	require.NotNil(t, recent[0].Client)
	assert.Equal(t, "Acme", recent[0].Client.ClientName)

	recent, err = svc.RecentActivity(context.Background(), 2)
	require.NoError(t, err)
	assert.Len(t, recent, 2)
}

func TestClampRecentCount(t *testing.T) {
	assert.Equal(t, 5, dashboard.ClampRecentCount(-1))
	assert.Equal(t, 5, dashboard.ClampRecentCount(0))
	assert.Equal(t, 7, dashboard.ClampRecentCount(7))
	assert.Equal(t, 20, dashboard.ClampRecentCount(50))
}
