package service

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"logiflow/internal/access"
	"logiflow/internal/model"
	"logiflow/internal/repository"
)

var hexColor = regexp.MustCompile(`^#[0-9A-Fa-f]{6}$`)

type CreateGroupRequest struct {
	Name  string `json:"name" binding:"required,max=100"`
	Color string `json:"color"`
}

type UpdateGroupRequest struct {
	Name  *string `json:"name" binding:"omitempty,max=100"`
	Color *string `json:"color"`
}

type GroupService interface {
	ListGroups(ctx context.Context, actor access.Requester, mineOnly bool) ([]model.Group, error)
	GetGroup(ctx context.Context, id uint) (*model.Group, error)
	CreateGroup(ctx context.Context, actor access.Requester, req CreateGroupRequest) (*model.Group, error)
	UpdateGroup(ctx context.Context, actor access.Requester, id uint, req UpdateGroupRequest) (*model.Group, error)
	DeleteGroup(ctx context.Context, actor access.Requester, id uint) error
}

type groupService struct {
	repo       repository.GroupRepository
	memberRepo repository.UserGroupRepository
	auditRepo  repository.AuditRepository
	txManager  repository.TransactionManager
	notifier   Notifier
}

func NewGroupService(
	repo repository.GroupRepository,
	memberRepo repository.UserGroupRepository,
	auditRepo repository.AuditRepository,
	txManager repository.TransactionManager,
	notifier Notifier,
) GroupService {
	return &groupService{
		repo:       repo,
		memberRepo: memberRepo,
		auditRepo:  auditRepo,
		txManager:  txManager,
		notifier:   notifierOrNoop(notifier),
	}
}

// ListGroups returns every store so users can label foreign records; mineOnly restricts to the actor's scope
func (s *groupService) ListGroups(ctx context.Context, actor access.Requester, mineOnly bool) ([]model.Group, error) {
	var ids []uint
	if mineOnly && !actor.Scope.Unrestricted() {
		ids = actor.Scope.GroupIDs()
		if ids == nil {
			ids = []uint{}
		}
	}
	groups, err := s.repo.List(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch groups: %w", err)
	}
	return groups, nil
}

func (s *groupService) GetGroup(ctx context.Context, id uint) (*model.Group, error) {
	group, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, notFound(err, "group")
	}
	return group, nil
}

func normalizeColor(color string) (string, error) {
	color = strings.TrimSpace(color)
	if color == "" {
		return model.DefaultGroupColor, nil
	}
	if !hexColor.MatchString(color) {
		return "", validationf("color must be a #RRGGBB hex value")
	}
	return strings.ToUpper(color), nil
}

func (s *groupService) CreateGroup(ctx context.Context, actor access.Requester, req CreateGroupRequest) (*model.Group, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, validationf("name is required")
	}
	color, err := normalizeColor(req.Color)
	if err != nil {
		return nil, err
	}

	group := &model.Group{Name: name, Color: color}
	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.repo.Create(txCtx, group); err != nil {
			return fmt.Errorf("failed to create group: %w", err)
		}
		// A manager creating a store joins it, otherwise it would be invisible to them.
		if !actor.IsAdmin() && actor.UserID != "" {
			if err := s.memberRepo.Add(txCtx, actor.UserID, group.ID); err != nil {
				return fmt.Errorf("failed to add creator membership: %w", err)
			}
		}
		return recordAudit(txCtx, s.auditRepo, actor, auditEntry{
			Action:     model.ActionCreateGroup,
			EntityType: "group",
			EntityID:   group.ID,
			EntityName: group.Name,
			Details:    group,
		})
	})
	if err != nil {
		return nil, err
	}

	s.notifier.Publish(TagGroups)
	return group, nil
}

func (s *groupService) UpdateGroup(ctx context.Context, actor access.Requester, id uint, req UpdateGroupRequest) (*model.Group, error) {
	if !actor.IsAdmin() && !actor.Scope.Allows(id) {
		return nil, fmt.Errorf("group %d is outside your stores: %w", id, ErrForbidden)
	}

	var group *model.Group
	err := s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		var err error
		group, err = s.repo.FindByID(txCtx, id)
		if err != nil {
			return notFound(err, "group")
		}
		if req.Name != nil {
			name := strings.TrimSpace(*req.Name)
			if name == "" {
				return validationf("name must not be empty")
			}
			group.Name = name
		}
		if req.Color != nil {
			color, err := normalizeColor(*req.Color)
			if err != nil {
				return err
			}
			group.Color = color
		}
		if err := s.repo.Update(txCtx, group); err != nil {
			return fmt.Errorf("failed to update group: %w", err)
		}
		return recordAudit(txCtx, s.auditRepo, actor, auditEntry{
			Action:     model.ActionUpdateGroup,
			EntityType: "group",
			EntityID:   group.ID,
			EntityName: group.Name,
			Details:    req,
		})
	})
	if err != nil {
		return nil, err
	}

	s.notifier.Publish(TagGroups)
	return group, nil
}

// DeleteGroup refuses while any order, delivery or DLC product still belongs to the store
func (s *groupService) DeleteGroup(ctx context.Context, actor access.Requester, id uint) error {
	if !actor.IsAdmin() && !actor.Scope.Allows(id) {
		return fmt.Errorf("group %d is outside your stores: %w", id, ErrForbidden)
	}

	err := s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		group, err := s.repo.FindByID(txCtx, id)
		if err != nil {
			return notFound(err, "group")
		}
		refs, err := s.repo.CountReferences(txCtx, id)
		if err != nil {
			return fmt.Errorf("failed to count group references: %w", err)
		}
		if refs > 0 {
			return fmt.Errorf("group '%s' still has %d linked records: %w", group.Name, refs, ErrConflict)
		}
		if err := s.repo.Delete(txCtx, id); err != nil {
			return fmt.Errorf("failed to delete group: %w", err)
		}
		return recordAudit(txCtx, s.auditRepo, actor, auditEntry{
			Action:     model.ActionDeleteGroup,
			EntityType: "group",
			EntityID:   id,
			EntityName: group.Name,
		})
	})
	if err != nil {
		return err
	}

	s.notifier.Publish(TagGroups)
	return nil
}
