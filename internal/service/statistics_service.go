package service

import (
	"context"
	"fmt"

	"logiflow/internal/access"
	"logiflow/internal/model"
	"logiflow/internal/repository"
)

type StatisticsService interface {
	GetDashboard(ctx context.Context, actor access.Requester, q ListQuery) (*model.DashboardStats, error)
}

type statisticsService struct {
	orderRepo      repository.OrderRepository
	deliveryRepo   repository.DeliveryRepository
	reconciliation ReconciliationService
	dlc            DlcService
}

func NewStatisticsService(
	orderRepo repository.OrderRepository,
	deliveryRepo repository.DeliveryRepository,
	reconciliation ReconciliationService,
	dlc DlcService,
) StatisticsService {
	return &statisticsService{
		orderRepo:      orderRepo,
		deliveryRepo:   deliveryRepo,
		reconciliation: reconciliation,
		dlc:            dlc,
	}
}

// GetDashboard aggregates the counters of the actor's stores, optionally narrowed to one store and a period
func (s *statisticsService) GetDashboard(ctx context.Context, actor access.Requester, q ListQuery) (*model.DashboardStats, error) {
	period, err := q.dateRange()
	if err != nil {
		return nil, err
	}
	scope := actor.Scope.Narrow(q.StoreID)

	orders, err := s.orderRepo.CountByStatus(ctx, scope, period)
	if err != nil {
		return nil, fmt.Errorf("failed to count orders: %w", err)
	}
	deliveries, err := s.deliveryRepo.CountByStatus(ctx, scope, period)
	if err != nil {
		return nil, fmt.Errorf("failed to count deliveries: %w", err)
	}
	recon, err := s.reconciliation.List(ctx, actor, ListQuery{StoreID: q.StoreID, StartDate: q.StartDate, EndDate: q.EndDate})
	if err != nil {
		return nil, err
	}
	dlc, err := s.dlc.Stats(ctx, actor, q.StoreID)
	if err != nil {
		return nil, err
	}

	stats := &model.DashboardStats{
		OrdersByStatus:         withZeroes(orders, model.OrderStatusPending, model.OrderStatusPlanned, model.OrderStatusDelivered),
		DeliveriesByStatus:     withZeroes(deliveries, model.DeliveryStatusPlanned, model.DeliveryStatusDelivered),
		ReconciliationByStatus: make(map[string]int64, len(recon.Summary.Counts)),
		TotalBLAmount:          recon.Summary.TotalBL,
		TotalInvoiceAmount:     recon.Summary.TotalInvoice,
		DlcExpiringSoon:        dlc.ExpiresSoon,
		DlcExpired:             dlc.Expired,
		PeriodStart:            period.From,
		PeriodEnd:              period.To,
	}
	for status, n := range recon.Summary.Counts {
		stats.ReconciliationByStatus[status] = int64(n)
	}
	return stats, nil
}

func withZeroes(counts map[string]int64, keys ...string) map[string]int64 {
	for _, k := range keys {
		if _, ok := counts[k]; !ok {
			counts[k] = 0
		}
	}
	return counts
}
