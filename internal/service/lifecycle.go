package service

import (
	"context"
	"fmt"

	"logiflow/internal/access"
	"logiflow/internal/model"
	"logiflow/internal/repository"
)

// references checks that a write lands in one of the actor's stores and points at existing rows
type references struct {
	groupRepo    repository.GroupRepository
	supplierRepo repository.SupplierRepository
}

func (r references) check(ctx context.Context, actor access.Requester, groupID, supplierID uint) error {
	if groupID == 0 {
		return validationf("groupId is required")
	}
	if supplierID == 0 {
		return validationf("supplierId is required")
	}
	if !actor.Scope.Allows(groupID) {
		return fmt.Errorf("group %d is outside your stores: %w", groupID, ErrForbidden)
	}
	if _, err := r.groupRepo.FindByID(ctx, groupID); err != nil {
		return notFound(err, "group")
	}
	if _, err := r.supplierRepo.FindByID(ctx, supplierID); err != nil {
		return notFound(err, "supplier")
	}
	return nil
}

// visible hides rows outside the actor's stores behind ErrNotFound
func visible(actor access.Requester, row access.Owned, what string) error {
	if !actor.Scope.Allows(row.OwnerGroupID()) {
		return fmt.Errorf("%s: %w", what, ErrNotFound)
	}
	return nil
}

func canModify(actor access.Requester, row access.Owned, what string) error {
	if !access.CanModify(actor, row) {
		return fmt.Errorf("you may not modify this %s: %w", what, ErrForbidden)
	}
	return nil
}

func validateUnit(unit string) error {
	if !model.ValidUnit(unit) {
		return validationf("unit must be one of %s, %s", model.UnitPalettes, model.UnitColis)
	}
	return nil
}
