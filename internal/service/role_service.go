package service

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"slices"
	"strings"

	"logiflow/internal/access"
	"logiflow/internal/model"
	"logiflow/internal/repository"

	"github.com/rs/zerolog/log"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// --- DTOs ---

type CreateRoleRequest struct {
	Name          string `json:"name" binding:"required,max=50"`
	DisplayName   string `json:"displayName" binding:"required,max=100"`
	Description   string `json:"description"`
	Color         string `json:"color"`
	PermissionIDs []uint `json:"permissionIds"`
}

type UpdateRoleRequest struct {
	DisplayName *string `json:"displayName" binding:"omitempty,max=100"`
	Description *string `json:"description"`
	Color       *string `json:"color"`
}

type UpdateRolePermissionsRequest struct {
	PermissionIDs []uint `json:"permissionIds"`
}

type RoleResponse struct {
	ID          uint                 `json:"id"`
	Name        string               `json:"name"`
	DisplayName string               `json:"displayName"`
	Description string               `json:"description"`
	Color       string               `json:"color"`
	IsSystem    bool                 `json:"isSystem"`
	Permissions []PermissionResponse `json:"permissions"`
	CreatedAt   string               `json:"createdAt"`
}

type PermissionResponse struct {
	ID          uint   `json:"id"`
	Code        string `json:"code"`
	DisplayName string `json:"displayName"`
	Category    string `json:"category"`
	Action      string `json:"action"`
}

// PermissionCategory groups the permission catalog for the role editor
type PermissionCategory struct {
	Category    string               `json:"category"`
	Permissions []PermissionResponse `json:"permissions"`
}

// --- Interface ---

type RoleService interface {
	ListRoles(ctx context.Context) ([]RoleResponse, error)
	GetRole(ctx context.Context, id uint) (*RoleResponse, error)
	CreateRole(ctx context.Context, actor access.Requester, req CreateRoleRequest) (*RoleResponse, error)
	UpdateRole(ctx context.Context, id uint, req UpdateRoleRequest) (*RoleResponse, error)
	DeleteRole(ctx context.Context, id uint) error
	ListPermissions(ctx context.Context) ([]PermissionCategory, error)
	GetRolePermissions(ctx context.Context, roleID uint) ([]PermissionResponse, error)
	UpdateRolePermissions(ctx context.Context, actor access.Requester, roleID uint, permissionIDs []uint) (*RoleResponse, error)
	SeedDefaults(ctx context.Context) error
	EnsureAdmin(ctx context.Context, username, email, password string) (bool, error)
}

type roleService struct {
	repo      repository.RoleRepository
	userRepo  repository.UserRepository
	auditRepo repository.AuditRepository
	txManager repository.TransactionManager
	notifier  Notifier
}

func NewRoleService(
	repo repository.RoleRepository,
	userRepo repository.UserRepository,
	auditRepo repository.AuditRepository,
	txManager repository.TransactionManager,
	notifier Notifier,
) RoleService {
	return &roleService{
		repo:      repo,
		userRepo:  userRepo,
		auditRepo: auditRepo,
		txManager: txManager,
		notifier:  notifierOrNoop(notifier),
	}
}

var roleNamePattern = regexp.MustCompile(`^[a-z][a-z0-9_]*$`)

// --- Implementation ---

func (s *roleService) ListRoles(ctx context.Context) ([]RoleResponse, error) {
	roles, err := s.repo.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch roles: %w", err)
	}

	res := make([]RoleResponse, 0, len(roles))
	for _, r := range roles {
		res = append(res, toRoleResponse(r))
	}
	return res, nil
}

func (s *roleService) GetRole(ctx context.Context, id uint) (*RoleResponse, error) {
	role, err := s.repo.FindByIDWithPermissions(ctx, id)
	if err != nil {
		return nil, notFound(err, "role")
	}
	resp := toRoleResponse(*role)
	return &resp, nil
}

func (s *roleService) CreateRole(ctx context.Context, actor access.Requester, req CreateRoleRequest) (*RoleResponse, error) {
	name := strings.ToLower(strings.TrimSpace(req.Name))
	if !roleNamePattern.MatchString(name) {
		return nil, validationf("role name must be lowercase letters, digits or underscores")
	}
	color := strings.TrimSpace(req.Color)
	if color == "" {
		color = "#757575"
	} else if !hexColor.MatchString(color) {
		return nil, validationf("color must be a #RRGGBB hex value")
	}

	if _, err := s.repo.FindByName(ctx, name); err == nil {
		return nil, fmt.Errorf("role %q already exists: %w", name, ErrConflict)
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("failed to check role name: %w", err)
	}

	role := model.Role{
		Name:        name,
		DisplayName: strings.TrimSpace(req.DisplayName),
		Description: req.Description,
		Color:       color,
	}

	err := s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.repo.Create(txCtx, &role); err != nil {
			return fmt.Errorf("failed to create role: %w", err)
		}
		ids, err := s.checkPermissionIDs(txCtx, req.PermissionIDs)
		if err != nil {
			return err
		}
		if err := s.repo.AddPermissions(txCtx, role.ID, ids); err != nil {
			return fmt.Errorf("failed to assign permissions: %w", err)
		}
		return recordAudit(txCtx, s.auditRepo, actor, auditEntry{
			Action:     model.ActionUpdateRolePerms,
			EntityType: "role",
			EntityID:   role.ID,
			EntityName: role.Name,
			Details:    map[string]interface{}{"added": ids, "removed": []uint{}},
		})
	})
	if err != nil {
		return nil, err
	}

	s.notifier.Publish(TagRoles)
	return s.GetRole(ctx, role.ID)
}

func (s *roleService) UpdateRole(ctx context.Context, id uint, req UpdateRoleRequest) (*RoleResponse, error) {
	role, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, notFound(err, "role")
	}

	if req.DisplayName != nil {
		name := strings.TrimSpace(*req.DisplayName)
		if name == "" {
			return nil, validationf("displayName must not be empty")
		}
		role.DisplayName = name
	}
	if req.Description != nil {
		role.Description = *req.Description
	}
	if req.Color != nil {
		if !hexColor.MatchString(*req.Color) {
			return nil, validationf("color must be a #RRGGBB hex value")
		}
		role.Color = *req.Color
	}

	if err := s.repo.Update(ctx, role); err != nil {
		return nil, fmt.Errorf("failed to update role: %w", err)
	}

	s.notifier.Publish(TagRoles)
	return s.GetRole(ctx, id)
}

func (s *roleService) DeleteRole(ctx context.Context, id uint) error {
	role, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return notFound(err, "role")
	}
	if role.IsSystem {
		return fmt.Errorf("cannot delete system role %q: %w", role.Name, ErrConflict)
	}

	assigned, err := s.repo.CountAssignments(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to count role assignments: %w", err)
	}
	if assigned > 0 {
		return fmt.Errorf("role %q is assigned to %d users: %w", role.Name, assigned, ErrConflict)
	}

	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		return s.repo.Delete(txCtx, id)
	})
	if err != nil {
		return fmt.Errorf("failed to delete role: %w", err)
	}

	s.notifier.Publish(TagRoles)
	return nil
}

func (s *roleService) ListPermissions(ctx context.Context) ([]PermissionCategory, error) {
	perms, err := s.repo.ListPermissions(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch permissions: %w", err)
	}

	// rows arrive ordered by category
	res := []PermissionCategory{}
	for _, p := range perms {
		if n := len(res); n == 0 || res[n-1].Category != p.Category {
			res = append(res, PermissionCategory{Category: p.Category})
		}
		last := &res[len(res)-1]
		last.Permissions = append(last.Permissions, toPermissionResponse(p))
	}
	return res, nil
}

func (s *roleService) GetRolePermissions(ctx context.Context, roleID uint) ([]PermissionResponse, error) {
	role, err := s.GetRole(ctx, roleID)
	if err != nil {
		return nil, err
	}
	return role.Permissions, nil
}

// UpdateRolePermissions replaces the permission set of a role, writing only the delta
func (s *roleService) UpdateRolePermissions(ctx context.Context, actor access.Requester, roleID uint, permissionIDs []uint) (*RoleResponse, error) {
	err := s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		role, err := s.repo.FindByID(txCtx, roleID)
		if err != nil {
			return notFound(err, "role")
		}
		wanted, err := s.checkPermissionIDs(txCtx, permissionIDs)
		if err != nil {
			return err
		}
		current, err := s.repo.PermissionIDs(txCtx, roleID)
		if err != nil {
			return fmt.Errorf("failed to load role permissions: %w", err)
		}

		added, removed := diffIDs(current, wanted)
		if len(added) == 0 && len(removed) == 0 {
			return nil
		}
		if err := s.repo.RemovePermissions(txCtx, roleID, removed); err != nil {
			return fmt.Errorf("failed to remove permissions: %w", err)
		}
		if err := s.repo.AddPermissions(txCtx, roleID, added); err != nil {
			return fmt.Errorf("failed to add permissions: %w", err)
		}
		return recordAudit(txCtx, s.auditRepo, actor, auditEntry{
			Action:     model.ActionUpdateRolePerms,
			EntityType: "role",
			EntityID:   role.ID,
			EntityName: role.Name,
			Details:    map[string]interface{}{"added": added, "removed": removed},
		})
	})
	if err != nil {
		return nil, err
	}

	s.notifier.Publish(TagRoles, TagUsers)
	return s.GetRole(ctx, roleID)
}

// checkPermissionIDs dedupes ids and rejects any that are not in the catalog
func (s *roleService) checkPermissionIDs(ctx context.Context, ids []uint) ([]uint, error) {
	wanted := slices.Clone(ids)
	slices.Sort(wanted)
	wanted = slices.Compact(wanted)

	found, err := s.repo.FindPermissionsByIDs(ctx, wanted)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch permissions: %w", err)
	}
	if len(found) != len(wanted) {
		known := make(map[uint]bool, len(found))
		for _, p := range found {
			known[p.ID] = true
		}
		for _, id := range wanted {
			if !known[id] {
				return nil, validationf("unknown permission id %d", id)
			}
		}
	}
	return wanted, nil
}

// diffIDs returns the ids of wanted missing from current and the ids of current missing from wanted
func diffIDs(current, wanted []uint) (added, removed []uint) {
	added, removed = []uint{}, []uint{}
	for _, id := range wanted {
		if !slices.Contains(current, id) {
			added = append(added, id)
		}
	}
	for _, id := range current {
		if !slices.Contains(wanted, id) {
			removed = append(removed, id)
		}
	}
	return added, removed
}

// SeedDefaults creates the permission catalog and the system roles. Running it again only adds what is missing.
func (s *roleService) SeedDefaults(ctx context.Context) error {
	return s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		idByCode := make(map[string]uint, len(DefaultPermissions))
		for _, def := range DefaultPermissions {
			p := def
			if err := s.repo.FindOrCreatePermission(txCtx, &p); err != nil {
				return fmt.Errorf("failed to seed permission %q: %w", p.Name, err)
			}
			idByCode[p.Name] = p.ID
		}

		for _, sr := range SystemRoles {
			role, err := s.repo.FindByName(txCtx, sr.Name)
			if errors.Is(err, gorm.ErrRecordNotFound) {
				role = &model.Role{
					Name:        sr.Name,
					DisplayName: sr.DisplayName,
					Description: sr.Description,
					Color:       sr.Color,
					IsSystem:    true,
				}
				if err := s.repo.Create(txCtx, role); err != nil {
					return fmt.Errorf("failed to seed role %q: %w", sr.Name, err)
				}
				log.Info().Str("role", sr.Name).Msg("seeded system role")
			} else if err != nil {
				return fmt.Errorf("failed to load role %q: %w", sr.Name, err)
			}

			ids := make([]uint, 0, len(sr.Permissions))
			for _, code := range sr.Permissions {
				ids = append(ids, idByCode[code])
			}
			current, err := s.repo.PermissionIDs(txCtx, role.ID)
			if err != nil {
				return fmt.Errorf("failed to load role permissions: %w", err)
			}
			// never revoke what an admin granted by hand
			missing, _ := diffIDs(current, ids)
			if err := s.repo.AddPermissions(txCtx, role.ID, missing); err != nil {
				return fmt.Errorf("failed to assign permissions to role %q: %w", sr.Name, err)
			}
		}
		return nil
	})
}

// EnsureAdmin creates the first admin account when no user exists yet
func (s *roleService) EnsureAdmin(ctx context.Context, username, email, password string) (bool, error) {
	count, err := s.userRepo.Count(ctx)
	if err != nil {
		return false, fmt.Errorf("failed to count users: %w", err)
	}
	if count > 0 {
		return false, nil
	}
	if username == "" || email == "" || len(password) < 8 {
		return false, validationf("admin username, email and a password of at least 8 characters are required")
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return false, fmt.Errorf("failed to hash password: %w", err)
	}

	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		role, err := s.repo.FindByName(txCtx, model.RoleAdmin)
		if err != nil {
			return fmt.Errorf("admin role missing, seed roles first: %w", err)
		}
		user := &model.User{
			Username: username,
			Email:    strings.ToLower(email),
			Name:     "Administrator",
			Password: string(hashed),
			Role:     model.RoleAdmin,
		}
		if err := s.userRepo.Create(txCtx, user); err != nil {
			return fmt.Errorf("failed to create admin: %w", err)
		}
		return s.repo.SetUserRole(txCtx, user.ID, role.ID)
	})
	if err != nil {
		return false, err
	}
	return true, nil
}

// --- Helpers ---

func toRoleResponse(r model.Role) RoleResponse {
	perms := make([]PermissionResponse, 0, len(r.Permissions))
	for _, p := range r.Permissions {
		perms = append(perms, toPermissionResponse(p))
	}

	return RoleResponse{
		ID:          r.ID,
		Name:        r.Name,
		DisplayName: r.DisplayName,
		Description: r.Description,
		Color:       r.Color,
		IsSystem:    r.IsSystem,
		Permissions: perms,
		CreatedAt:   r.CreatedAt.Format("2006-01-02 15:04:05"),
	}
}

func toPermissionResponse(p model.Permission) PermissionResponse {
	return PermissionResponse{
		ID:          p.ID,
		Code:        p.Name,
		DisplayName: p.DisplayName,
		Category:    p.Category,
		Action:      p.Action,
	}
}
