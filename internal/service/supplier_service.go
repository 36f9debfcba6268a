package service

import (
	"context"
	"fmt"
	"strings"

	"logiflow/internal/model"
	"logiflow/internal/repository"
)

type SupplierRequest struct {
	Name    string `json:"name" binding:"required,max=255"`
	Contact string `json:"contact"`
	Phone   string `json:"phone" binding:"max=50"`
	Email   string `json:"email" binding:"omitempty,email"`
	HasDlc  bool   `json:"hasDlc"`
}

type SupplierService interface {
	ListSuppliers(ctx context.Context, search string, dlcOnly bool) ([]model.Supplier, error)
	GetSupplier(ctx context.Context, id uint) (*model.Supplier, error)
	CreateSupplier(ctx context.Context, req SupplierRequest) (*model.Supplier, error)
	UpdateSupplier(ctx context.Context, id uint, req SupplierRequest) (*model.Supplier, error)
	DeleteSupplier(ctx context.Context, id uint) error
}

type supplierService struct {
	repo     repository.SupplierRepository
	notifier Notifier
}

func NewSupplierService(repo repository.SupplierRepository, notifier Notifier) SupplierService {
	return &supplierService{repo: repo, notifier: notifierOrNoop(notifier)}
}

func (s *supplierService) ListSuppliers(ctx context.Context, search string, dlcOnly bool) ([]model.Supplier, error) {
	suppliers, err := s.repo.List(ctx, search, dlcOnly)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch suppliers: %w", err)
	}
	return suppliers, nil
}

func (s *supplierService) GetSupplier(ctx context.Context, id uint) (*model.Supplier, error) {
	supplier, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, notFound(err, "supplier")
	}
	return supplier, nil
}

func (s *supplierService) CreateSupplier(ctx context.Context, req SupplierRequest) (*model.Supplier, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, validationf("name is required")
	}
	supplier := &model.Supplier{
		Name:    name,
		Contact: strings.TrimSpace(req.Contact),
		Phone:   strings.TrimSpace(req.Phone),
		Email:   strings.TrimSpace(req.Email),
		HasDlc:  req.HasDlc,
	}
	if err := s.repo.Create(ctx, supplier); err != nil {
		return nil, fmt.Errorf("failed to create supplier: %w", err)
	}
	s.notifier.Publish(TagSuppliers)
	return supplier, nil
}

func (s *supplierService) UpdateSupplier(ctx context.Context, id uint, req SupplierRequest) (*model.Supplier, error) {
	supplier, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, notFound(err, "supplier")
	}
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, validationf("name is required")
	}

	supplier.Name = name
	supplier.Contact = strings.TrimSpace(req.Contact)
	supplier.Phone = strings.TrimSpace(req.Phone)
	supplier.Email = strings.TrimSpace(req.Email)
	supplier.HasDlc = req.HasDlc

	if err := s.repo.Update(ctx, supplier); err != nil {
		return nil, fmt.Errorf("failed to update supplier: %w", err)
	}
	s.notifier.Publish(TagSuppliers)
	return supplier, nil
}

func (s *supplierService) DeleteSupplier(ctx context.Context, id uint) error {
	supplier, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return notFound(err, "supplier")
	}
	refs, err := s.repo.CountReferences(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to count supplier references: %w", err)
	}
	if refs > 0 {
		return fmt.Errorf("supplier '%s' still has %d linked records: %w", supplier.Name, refs, ErrConflict)
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return fmt.Errorf("failed to delete supplier: %w", err)
	}
	s.notifier.Publish(TagSuppliers)
	return nil
}
