package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"

	"logiflow/internal/access"
	"logiflow/internal/model"
	"logiflow/internal/reconciliation"
	"logiflow/internal/repository"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
)

type UpdateInvoiceRequest struct {
	InvoiceReference OptionalString `json:"invoiceReference" swaggertype:"string"`
	InvoiceAmount    OptionalAmount `json:"invoiceAmount" swaggertype:"string"`
}

// ReconciliationSummary totals a reconciliation listing
type ReconciliationSummary struct {
	Counts        map[string]int `json:"counts"`
	TotalBL       string         `json:"totalBlAmount"`
	TotalInvoice  string         `json:"totalInvoiceAmount"`
	TotalVariance string         `json:"totalVariance"`
}

type ReconciliationList struct {
	Items   []DeliveryResponse    `json:"items"`
	Summary ReconciliationSummary `json:"summary"`
}

type ReconciliationService interface {
	List(ctx context.Context, actor access.Requester, q ListQuery) (*ReconciliationList, error)
	UpdateInvoice(ctx context.Context, actor access.Requester, id uint, req UpdateInvoiceRequest) (*DeliveryResponse, error)
	Validate(ctx context.Context, actor access.Requester, id uint) (*DeliveryResponse, error)
	Delete(ctx context.Context, actor access.Requester, id uint) error
	Export(ctx context.Context, actor access.Requester, q ListQuery) (*bytes.Buffer, error)
}

type reconciliationService struct {
	repo       repository.DeliveryRepository
	auditRepo  repository.AuditRepository
	txManager  repository.TransactionManager
	deliveries DeliveryService
	notifier   Notifier
}

func NewReconciliationService(
	repo repository.DeliveryRepository,
	auditRepo repository.AuditRepository,
	txManager repository.TransactionManager,
	deliveries DeliveryService,
	notifier Notifier,
) ReconciliationService {
	return &reconciliationService{
		repo:       repo,
		auditRepo:  auditRepo,
		txManager:  txManager,
		deliveries: deliveries,
		notifier:   notifierOrNoop(notifier),
	}
}

// checkCandidate rejects writes to deliveries outside the reconciliation list
func checkCandidate(d *model.Delivery) error {
	if !reconciliation.IsCandidate(d) {
		return fmt.Errorf("delivery %d: %v: %w", d.ID, reconciliation.ErrNotCandidate, ErrPrecondition)
	}
	return nil
}

// checkCanValidate maps the engine's precondition errors onto service errors
func checkCanValidate(d *model.Delivery) error {
	if err := checkCandidate(d); err != nil {
		return err
	}
	err := reconciliation.CanValidate(reconciliation.FieldsOf(d))
	switch {
	case err == nil:
		return nil
	case errors.Is(err, reconciliation.ErrAlreadyValidated):
		return fmt.Errorf("delivery %d: %v: %w", d.ID, err, ErrConflict)
	default:
		return fmt.Errorf("delivery %d: %v: %w", d.ID, err, ErrPrecondition)
	}
}

// checkReconciledInvariant rejects a reconciled delivery that lost its BL or invoice data
func checkReconciledInvariant(d *model.Delivery) error {
	if !d.Reconciled {
		return nil
	}
	if err := checkCandidate(d); err != nil {
		return err
	}
	if !reconciliation.HasReference(d.InvoiceReference) || !d.InvoiceAmount.Valid {
		return fmt.Errorf("a reconciled delivery must keep its invoice reference and amount: %w", ErrPrecondition)
	}
	return nil
}

func (s *reconciliationService) candidates(ctx context.Context, actor access.Requester, q ListQuery) ([]model.Delivery, error) {
	delivered, err := q.dateRange()
	if err != nil {
		return nil, err
	}
	if q.Status != "" && !reconciliation.ValidStatus(q.Status) {
		return nil, validationf("unknown reconciliation status '%s'", q.Status)
	}

	rows, err := s.repo.ListReconciliation(ctx, actor.Scope.Narrow(q.StoreID), delivered)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch reconciliation list: %w", err)
	}

	out := rows[:0]
	for _, d := range rows {
		if !reconciliation.IsCandidate(&d) {
			continue
		}
		if q.SupplierID != nil && d.SupplierID != *q.SupplierID {
			continue
		}
		if q.Status != "" && reconciliation.StatusOf(reconciliation.FieldsOf(&d)) != q.Status {
			continue
		}
		out = append(out, d)
	}
	return out, nil
}

func (s *reconciliationService) List(ctx context.Context, actor access.Requester, q ListQuery) (*ReconciliationList, error) {
	rows, err := s.candidates(ctx, actor, q)
	if err != nil {
		return nil, err
	}

	res := &ReconciliationList{
		Items: make([]DeliveryResponse, 0, len(rows)),
		Summary: ReconciliationSummary{Counts: map[string]int{
			reconciliation.StatusAwaiting:        0,
			reconciliation.StatusPartialInvoice:  0,
			reconciliation.StatusReadyToValidate: 0,
			reconciliation.StatusValidated:       0,
		}},
	}
	totalBL, totalInvoice, totalVariance := decimal.Zero, decimal.Zero, decimal.Zero
	for i := range rows {
		item := toDeliveryResponse(&rows[i])
		res.Items = append(res.Items, item)
		res.Summary.Counts[item.ReconciliationStatus]++
		if rows[i].BLAmount.Valid {
			totalBL = totalBL.Add(rows[i].BLAmount.Decimal)
		}
		if rows[i].InvoiceAmount.Valid {
			totalInvoice = totalInvoice.Add(rows[i].InvoiceAmount.Decimal)
		}
		if v := reconciliation.Variance(rows[i].BLAmount, rows[i].InvoiceAmount); v.Valid {
			totalVariance = totalVariance.Add(v.Decimal)
		}
	}
	res.Summary.TotalBL = totalBL.StringFixed(2)
	res.Summary.TotalInvoice = totalInvoice.StringFixed(2)
	res.Summary.TotalVariance = totalVariance.StringFixed(2)
	return res, nil
}

// UpdateInvoice sets the invoice reference and/or amount. It never changes the reconciled flag.
func (s *reconciliationService) UpdateInvoice(ctx context.Context, actor access.Requester, id uint, req UpdateInvoiceRequest) (*DeliveryResponse, error) {
	if !req.InvoiceReference.Set && !req.InvoiceAmount.Set {
		return nil, validationf("invoiceReference or invoiceAmount is required")
	}

	err := s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		delivery, err := loadDeliveryForWrite(txCtx, s.repo, actor, id)
		if err != nil {
			return err
		}
		if err := checkCandidate(delivery); err != nil {
			return err
		}
		if req.InvoiceReference.Set {
			delivery.InvoiceReference = req.InvoiceReference.Value
		}
		if req.InvoiceAmount.Set {
			delivery.InvoiceAmount = req.InvoiceAmount.Value
		}
		if err := checkReconciledInvariant(delivery); err != nil {
			return err
		}
		if err := s.repo.Update(txCtx, delivery); err != nil {
			return fmt.Errorf("failed to update invoice: %w", err)
		}
		return recordAudit(txCtx, s.auditRepo, actor, auditEntry{
			Action:     model.ActionUpdateInvoice,
			EntityType: "delivery",
			EntityID:   delivery.ID,
			Details: map[string]interface{}{
				"invoiceReference": delivery.InvoiceReference,
				"invoiceAmount":    formatAmount(delivery.InvoiceAmount),
			},
		})
	})
	if err != nil {
		return nil, err
	}

	s.notifier.Publish(TagReconciliation, TagDeliveries, TagStats)
	return s.deliveries.GetDelivery(ctx, actor, id)
}

// Validate flips reconciled to true once the invoice reference and amount are present
func (s *reconciliationService) Validate(ctx context.Context, actor access.Requester, id uint) (*DeliveryResponse, error) {
	err := s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		delivery, err := loadDeliveryForWrite(txCtx, s.repo, actor, id)
		if err != nil {
			return err
		}
		if err := checkCanValidate(delivery); err != nil {
			return err
		}
		delivery.Reconciled = true
		if err := s.repo.Update(txCtx, delivery); err != nil {
			return fmt.Errorf("failed to validate reconciliation: %w", err)
		}
		variance := reconciliation.Variance(delivery.BLAmount, delivery.InvoiceAmount)
		return recordAudit(txCtx, s.auditRepo, actor, auditEntry{
			Action:     model.ActionValidateReconcile,
			EntityType: "delivery",
			EntityID:   delivery.ID,
			Details: map[string]interface{}{
				"variance":      formatAmount(variance),
				"varianceClass": reconciliation.Classify(variance),
			},
		})
	})
	if err != nil {
		return nil, err
	}

	s.notifier.Publish(TagReconciliation, TagDeliveries, TagStats)
	return s.deliveries.GetDelivery(ctx, actor, id)
}

func (s *reconciliationService) Delete(ctx context.Context, actor access.Requester, id uint) error {
	return s.deliveries.DeleteDelivery(ctx, actor, id)
}

var exportHeadings = []string{
	"Store", "Supplier", "Delivered", "BL number", "BL amount",
	"Invoice reference", "Invoice amount", "Variance", "Status",
}

// Export renders the scoped reconciliation list as an xlsx workbook
func (s *reconciliationService) Export(ctx context.Context, actor access.Requester, q ListQuery) (*bytes.Buffer, error) {
	list, err := s.List(ctx, actor, q)
	if err != nil {
		return nil, err
	}

	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	const sheet = "Reconciliation"
	if err := f.SetSheetName("Sheet1", sheet); err != nil {
		return nil, fmt.Errorf("failed to name sheet: %w", err)
	}

	for i, h := range exportHeadings {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		if err := f.SetCellValue(sheet, cell, h); err != nil {
			return nil, fmt.Errorf("failed to write heading: %w", err)
		}
	}

	for i, d := range list.Items {
		values := []interface{}{
			groupName(d.Group),
			supplierName(d.Supplier),
			derefOr(d.DeliveredDate, ""),
			derefOr(d.BLNumber, ""),
			amountCell(d.BLAmount),
			derefOr(d.InvoiceReference, ""),
			amountCell(d.InvoiceAmount),
			amountCell(d.Variance),
			d.ReconciliationStatus,
		}
		for col, v := range values {
			cell, _ := excelize.CoordinatesToCellName(col+1, i+2)
			if err := f.SetCellValue(sheet, cell, v); err != nil {
				return nil, fmt.Errorf("failed to write row %d: %w", i+2, err)
			}
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("failed to render workbook: %w", err)
	}
	return buf, nil
}

func groupName(g *model.Group) string {
	if g == nil {
		return ""
	}
	return g.Name
}

func supplierName(s *model.Supplier) string {
	if s == nil {
		return ""
	}
	return s.Name
}

func derefOr(s *string, fallback string) string {
	if s == nil {
		return fallback
	}
	return *s
}

// amountCell keeps amounts numeric in the sheet; absent amounts stay blank
func amountCell(s *string) interface{} {
	if s == nil {
		return ""
	}
	d, err := decimal.NewFromString(*s)
	if err != nil {
		return *s
	}
	f, _ := d.Float64()
	return f
}
