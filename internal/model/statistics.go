package model

import (
	"time"
)

// DashboardStats aggregates the scoped counters shown on the dashboard
type DashboardStats struct {
	OrdersByStatus         map[string]int64 `json:"ordersByStatus"`
	DeliveriesByStatus     map[string]int64 `json:"deliveriesByStatus"`
	ReconciliationByStatus map[string]int64 `json:"reconciliationByStatus"`
	TotalBLAmount          string           `json:"totalBlAmount"`
	TotalInvoiceAmount     string           `json:"totalInvoiceAmount"`
	DlcExpiringSoon        int64            `json:"dlcExpiringSoon"`
	DlcExpired             int64            `json:"dlcExpired"`
	PeriodStart            *time.Time       `json:"periodStart,omitempty"`
	PeriodEnd              *time.Time       `json:"periodEnd,omitempty"`
}

// DlcStats counts DLC products per effective status
type DlcStats struct {
	Active      int64 `json:"active"`
	ExpiresSoon int64 `json:"expiresSoon"`
	Expired     int64 `json:"expired"`
	Validated   int64 `json:"validated"`
}
