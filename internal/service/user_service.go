package service

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"

	"logiflow/internal/access"
	"logiflow/internal/model"
	"logiflow/internal/repository"
	"logiflow/pkg/pagination"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// DTOs for Request validation
type CreateUserRequest struct {
	Username string `json:"username" binding:"required,max=255"`
	Email    string `json:"email" binding:"required,email"`
	Name     string `json:"name"`
	Password string `json:"password" binding:"required,min=8"`
	RoleID   uint   `json:"roleId" binding:"required"`
	GroupIDs []uint `json:"groupIds"`
}

type UpdateUserRequest struct {
	Username *string `json:"username" binding:"omitempty,max=255"`
	Email    *string `json:"email" binding:"omitempty,email"`
	Name     *string `json:"name"`
	Password *string `json:"password" binding:"omitempty,min=8"`
}

type AssignRoleRequest struct {
	RoleID uint `json:"roleId" binding:"required"`
}

type ReplaceGroupsRequest struct {
	GroupIDs []uint `json:"groupIds"`
}

// UserResponse never exposes the password hash
type UserResponse struct {
	ID              string `json:"id"`
	Username        string `json:"username"`
	Email           string `json:"email"`
	Name            string `json:"name"`
	Role            string `json:"role"`
	PasswordChanged bool   `json:"passwordChanged"`
	CreatedAt       string `json:"createdAt"`
	UpdatedAt       string `json:"updatedAt"`
}

// UserService defines the interface for business logic related to User
type UserService interface {
	CreateUser(ctx context.Context, actor access.Requester, req CreateUserRequest) (*UserResponse, error)
	GetUserByID(ctx context.Context, id string) (*UserResponse, error)
	ListUsers(ctx context.Context, page, limit int) ([]UserResponse, int64, error)
	UpdateUser(ctx context.Context, id string, req UpdateUserRequest) (*UserResponse, error)
	DeleteUser(ctx context.Context, actor access.Requester, id string) error
	AssignRole(ctx context.Context, actor access.Requester, userID string, roleID uint) (*UserResponse, error)
	GetUserGroups(ctx context.Context, userID string) ([]uint, error)
	ReplaceUserGroups(ctx context.Context, actor access.Requester, userID string, groupIDs []uint) ([]uint, error)
}

type userService struct {
	repo       repository.UserRepository
	roleRepo   repository.RoleRepository
	groupRepo  repository.GroupRepository
	memberRepo repository.UserGroupRepository
	auditRepo  repository.AuditRepository
	txManager  repository.TransactionManager
	notifier   Notifier
}

func NewUserService(
	repo repository.UserRepository,
	roleRepo repository.RoleRepository,
	groupRepo repository.GroupRepository,
	memberRepo repository.UserGroupRepository,
	auditRepo repository.AuditRepository,
	txManager repository.TransactionManager,
	notifier Notifier,
) UserService {
	return &userService{
		repo:       repo,
		roleRepo:   roleRepo,
		groupRepo:  groupRepo,
		memberRepo: memberRepo,
		auditRepo:  auditRepo,
		txManager:  txManager,
		notifier:   notifierOrNoop(notifier),
	}
}

// Helper: parse model to standard json API response
func mapToResponse(user *model.User) *UserResponse {
	return &UserResponse{
		ID:              user.ID,
		Username:        user.Username,
		Email:           user.Email,
		Name:            user.Name,
		Role:            user.Role,
		PasswordChanged: user.PasswordChanged,
		CreatedAt:       user.CreatedAt.Format("2006-01-02T15:04:05Z07:00"),
		UpdatedAt:       user.UpdatedAt.Format("2006-01-02T15:04:05Z07:00"),
	}
}

func (s *userService) ensureUnique(ctx context.Context, username, email, exceptID string) error {
	if username != "" {
		if u, err := s.repo.GetByUsername(ctx, username); err == nil && u.ID != exceptID {
			return fmt.Errorf("username already exists: %w", ErrConflict)
		} else if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("failed to check username: %w", err)
		}
	}
	if email != "" {
		if u, err := s.repo.GetByEmail(ctx, email); err == nil && u.ID != exceptID {
			return fmt.Errorf("email already exists: %w", ErrConflict)
		} else if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("failed to check email: %w", err)
		}
	}
	return nil
}

func (s *userService) checkGroups(ctx context.Context, groupIDs []uint) ([]uint, error) {
	ids := slices.Clone(groupIDs)
	slices.Sort(ids)
	ids = slices.Compact(ids)
	n, err := s.groupRepo.CountExisting(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to check groups: %w", err)
	}
	if int(n) != len(ids) {
		return nil, validationf("groupIds references unknown groups")
	}
	return ids, nil
}

func (s *userService) CreateUser(ctx context.Context, actor access.Requester, req CreateUserRequest) (*UserResponse, error) {
	username := strings.TrimSpace(req.Username)
	email := strings.ToLower(strings.TrimSpace(req.Email))
	if username == "" || email == "" {
		return nil, validationf("username and email are required")
	}
	if len(req.Password) < 8 {
		return nil, validationf("password must be at least 8 characters")
	}
	if err := s.ensureUnique(ctx, username, email, ""); err != nil {
		return nil, err
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &model.User{
		Username: username,
		Email:    email,
		Name:     strings.TrimSpace(req.Name),
		Password: string(hashedPassword),
	}

	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		role, err := s.roleRepo.FindByID(txCtx, req.RoleID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return validationf("role %d does not exist", req.RoleID)
			}
			return fmt.Errorf("failed to load role: %w", err)
		}
		groupIDs, err := s.checkGroups(txCtx, req.GroupIDs)
		if err != nil {
			return err
		}

		user.Role = role.Name
		if err := s.repo.Create(txCtx, user); err != nil {
			return fmt.Errorf("failed to create user: %w", err)
		}
		if err := s.roleRepo.SetUserRole(txCtx, user.ID, role.ID); err != nil {
			return fmt.Errorf("failed to assign role: %w", err)
		}
		if err := s.memberRepo.Replace(txCtx, user.ID, groupIDs); err != nil {
			return fmt.Errorf("failed to assign groups: %w", err)
		}
		return recordAudit(txCtx, s.auditRepo, actor, auditEntry{
			Action:     model.ActionAssignUserRole,
			EntityType: "user",
			EntityID:   user.ID,
			EntityName: user.Username,
			Details:    map[string]interface{}{"role": role.Name, "groupIds": groupIDs},
		})
	})
	if err != nil {
		return nil, err
	}

	s.notifier.Publish(TagUsers)
	return mapToResponse(user), nil
}

func (s *userService) GetUserByID(ctx context.Context, id string) (*UserResponse, error) {
	user, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, notFound(err, "user")
	}
	return mapToResponse(user), nil
}

func (s *userService) ListUsers(ctx context.Context, page, limit int) ([]UserResponse, int64, error) {
	p := pagination.Normalize(page, limit)
	users, total, err := s.repo.List(ctx, p.Page, p.Limit)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to fetch users: %w", err)
	}

	responses := make([]UserResponse, 0, len(users))
	for i := range users {
		responses = append(responses, *mapToResponse(&users[i]))
	}
	return responses, total, nil
}

func (s *userService) UpdateUser(ctx context.Context, id string, req UpdateUserRequest) (*UserResponse, error) {
	user, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, notFound(err, "user")
	}

	var username, email string
	if req.Username != nil {
		username = strings.TrimSpace(*req.Username)
		if username == "" {
			return nil, validationf("username must not be empty")
		}
	}
	if req.Email != nil {
		email = strings.ToLower(strings.TrimSpace(*req.Email))
		if email == "" {
			return nil, validationf("email must not be empty")
		}
	}
	if err := s.ensureUnique(ctx, username, email, user.ID); err != nil {
		return nil, err
	}

	if username != "" {
		user.Username = username
	}
	if email != "" {
		user.Email = email
	}
	if req.Name != nil {
		user.Name = strings.TrimSpace(*req.Name)
	}
	if req.Password != nil {
		if len(*req.Password) < 8 {
			return nil, validationf("password must be at least 8 characters")
		}
		hashed, err := bcrypt.GenerateFromPassword([]byte(*req.Password), bcrypt.DefaultCost)
		if err != nil {
			return nil, fmt.Errorf("failed to hash password: %w", err)
		}
		user.Password = string(hashed)
		user.PasswordChanged = false
	}

	if err := s.repo.Update(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to update user: %w", err)
	}

	s.notifier.Publish(TagUsers)
	return mapToResponse(user), nil
}

func (s *userService) DeleteUser(ctx context.Context, actor access.Requester, id string) error {
	if id == actor.UserID {
		return fmt.Errorf("you cannot delete your own account: %w", ErrConflict)
	}
	if _, err := s.repo.GetByID(ctx, id); err != nil {
		return notFound(err, "user")
	}

	err := s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.repo.Delete(txCtx, id); err != nil {
			return fmt.Errorf("failed to delete user: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.notifier.Publish(TagUsers)
	return nil
}

// AssignRole sets the single relational role and refreshes the legacy role column in the same transaction
func (s *userService) AssignRole(ctx context.Context, actor access.Requester, userID string, roleID uint) (*UserResponse, error) {
	var user *model.User
	err := s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		var err error
		user, err = s.repo.GetByID(txCtx, userID)
		if err != nil {
			return notFound(err, "user")
		}
		role, err := s.roleRepo.FindByID(txCtx, roleID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return validationf("role %d does not exist", roleID)
			}
			return fmt.Errorf("failed to load role: %w", err)
		}
		if userID == actor.UserID && role.Name != model.RoleAdmin && actor.IsAdmin() {
			return fmt.Errorf("you cannot remove your own admin role: %w", ErrConflict)
		}

		if err := s.roleRepo.SetUserRole(txCtx, userID, roleID); err != nil {
			return fmt.Errorf("failed to assign role: %w", err)
		}
		if err := s.repo.UpdateRoleName(txCtx, userID, role.Name); err != nil {
			return fmt.Errorf("failed to refresh role column: %w", err)
		}
		user.Role = role.Name
		return recordAudit(txCtx, s.auditRepo, actor, auditEntry{
			Action:     model.ActionAssignUserRole,
			EntityType: "user",
			EntityID:   userID,
			EntityName: user.Username,
			Details:    map[string]interface{}{"roleId": roleID, "role": role.Name},
		})
	})
	if err != nil {
		return nil, err
	}

	s.notifier.Publish(TagUsers)
	return mapToResponse(user), nil
}

func (s *userService) GetUserGroups(ctx context.Context, userID string) ([]uint, error) {
	if _, err := s.repo.GetByID(ctx, userID); err != nil {
		return nil, notFound(err, "user")
	}
	ids, err := s.memberRepo.GroupIDsForUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch user groups: %w", err)
	}
	if ids == nil {
		ids = []uint{}
	}
	return ids, nil
}

func (s *userService) ReplaceUserGroups(ctx context.Context, actor access.Requester, userID string, groupIDs []uint) ([]uint, error) {
	var ids []uint
	err := s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		user, err := s.repo.GetByID(txCtx, userID)
		if err != nil {
			return notFound(err, "user")
		}
		if ids, err = s.checkGroups(txCtx, groupIDs); err != nil {
			return err
		}
		if err := s.memberRepo.Replace(txCtx, userID, ids); err != nil {
			return fmt.Errorf("failed to replace user groups: %w", err)
		}
		return recordAudit(txCtx, s.auditRepo, actor, auditEntry{
			Action:     model.ActionReplaceUserGroups,
			EntityType: "user",
			EntityID:   userID,
			EntityName: user.Username,
			Details:    map[string]interface{}{"groupIds": ids},
		})
	})
	if err != nil {
		return nil, err
	}

	s.notifier.Publish(TagUsers, TagGroups)
	if ids == nil {
		ids = []uint{}
	}
	return ids, nil
}
