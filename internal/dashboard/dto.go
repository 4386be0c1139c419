package dashboard

import "github.com/shopspring/decimal"

const (
	trendDescription        = "Revenue from Paid Invoices - Last 6 Months"
	distributionDescription = "Order Status Distribution - This Month"
	trendMonths             = 6
	periodLayout            = "Jan 2006"

	defaultRecentCount = 5
	maxRecentCount     = 20
)

type StatsDTO struct {
	TotalRevenue        decimal.Decimal `json:"total_revenue"`
	OrdersProcessed     int64           `json:"orders_processed"`
	NewClientsThisMonth int64           `json:"new_clients_this_month"`
}

type RevenuePoint struct {
	Period  string          `json:"period"`
	Revenue decimal.Decimal `json:"revenue"`
}

type RevenueTrendDTO struct {
	Data             []RevenuePoint `json:"data"`
	TrendDescription string         `json:"trend_description"`
}

type DistributionPoint struct {
	Category string `json:"category"`
	Count    int64  `json:"count"`
}

type OrderDistributionDTO struct {
	Data                    []DistributionPoint `json:"data"`
	DistributionDescription string              `json:"distribution_description"`
}
