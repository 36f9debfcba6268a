package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"logiflow/internal/access"
	"logiflow/internal/model"
	"logiflow/internal/repository"

	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog/log"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

type LoginRequest struct {
	Login    string `json:"username" binding:"required"` // username or email
	Password string `json:"password" binding:"required"`
}

type ChangePasswordRequest struct {
	CurrentPassword string `json:"currentPassword" binding:"required"`
	NewPassword     string `json:"newPassword" binding:"required,min=8"`
}

// SessionMeta describes the client opening a session
type SessionMeta struct {
	IP        string
	UserAgent string
}

type LoginResult struct {
	Token     string      `json:"-"`
	ExpiresAt time.Time   `json:"expiresAt"`
	Profile   *MeResponse `json:"profile"`
}

type MeResponse struct {
	User        UserResponse `json:"user"`
	Role        string       `json:"role"`
	Permissions []string     `json:"permissions"`
	GroupIDs    []uint       `json:"groupIds"`
	AllGroups   bool         `json:"allGroups"`
}

// Principal is what the session middleware attaches to a request
type Principal struct {
	SessionID string
	Requester access.Requester
}

type AuthService interface {
	Login(ctx context.Context, req LoginRequest, meta SessionMeta) (*LoginResult, error)
	Logout(ctx context.Context, sessionID string) error
	Authenticate(ctx context.Context, token string) (*Principal, error)
	Me(ctx context.Context, actor access.Requester) (*MeResponse, error)
	ChangePassword(ctx context.Context, p Principal, req ChangePasswordRequest) error
	PurgeExpiredSessions(ctx context.Context) (int64, error)
}

type authService struct {
	userRepo    repository.UserRepository
	sessionRepo repository.SessionRepository
	roleRepo    repository.RoleRepository
	memberRepo  repository.UserGroupRepository
	secret      []byte
	ttl         time.Duration
	now         func() time.Time
}

func NewAuthService(
	userRepo repository.UserRepository,
	sessionRepo repository.SessionRepository,
	roleRepo repository.RoleRepository,
	memberRepo repository.UserGroupRepository,
	secret string,
	ttl time.Duration,
) AuthService {
	return &authService{
		userRepo:    userRepo,
		sessionRepo: sessionRepo,
		roleRepo:    roleRepo,
		memberRepo:  memberRepo,
		secret:      []byte(secret),
		ttl:         ttl,
		now:         time.Now,
	}
}

type sessionClaims struct {
	SessionID string `json:"sid"`
	jwt.RegisteredClaims
}

func (s *authService) Login(ctx context.Context, req LoginRequest, meta SessionMeta) (*LoginResult, error) {
	user, err := s.userRepo.GetByLogin(ctx, req.Login)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("invalid username or password: %w", ErrUnauthenticated)
		}
		return nil, fmt.Errorf("failed to load user: %w", err)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.Password)); err != nil {
		return nil, fmt.Errorf("invalid username or password: %w", ErrUnauthenticated)
	}

	session := model.Session{
		UserID:    user.ID,
		ExpiresAt: s.now().Add(s.ttl),
		IP:        meta.IP,
		UserAgent: truncate(meta.UserAgent, 255),
	}
	if err := s.sessionRepo.Create(ctx, &session); err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, sessionClaims{
		SessionID: session.ID,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID,
			ExpiresAt: jwt.NewNumericDate(session.ExpiresAt),
			IssuedAt:  jwt.NewNumericDate(s.now()),
		},
	})
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return nil, fmt.Errorf("failed to sign session token: %w", err)
	}

	actor, err := s.requesterFor(ctx, user)
	if err != nil {
		return nil, err
	}
	profile, err := s.Me(ctx, actor)
	if err != nil {
		return nil, err
	}

	log.Info().Str("user_id", user.ID).Str("ip", meta.IP).Msg("user logged in")
	return &LoginResult{Token: signed, ExpiresAt: session.ExpiresAt, Profile: profile}, nil
}

func (s *authService) Logout(ctx context.Context, sessionID string) error {
	if err := s.sessionRepo.Delete(ctx, sessionID); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	return nil
}

// Authenticate resolves a session token into the requester. The session row is authoritative.
func (s *authService) Authenticate(ctx context.Context, token string) (*Principal, error) {
	claims := &sessionClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return s.secret, nil
	}, jwt.WithTimeFunc(s.now))
	if err != nil || !parsed.Valid || claims.SessionID == "" {
		return nil, fmt.Errorf("invalid session token: %w", ErrUnauthenticated)
	}

	session, err := s.sessionRepo.FindByID(ctx, claims.SessionID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("session not found: %w", ErrUnauthenticated)
		}
		return nil, fmt.Errorf("failed to load session: %w", err)
	}
	if session.Expired(s.now()) {
		if err := s.sessionRepo.Delete(ctx, session.ID); err != nil {
			log.Warn().Err(err).Str("session_id", session.ID).Msg("failed to delete expired session")
		}
		return nil, fmt.Errorf("session expired: %w", ErrUnauthenticated)
	}

	user, err := s.userRepo.GetByID(ctx, session.UserID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("session user no longer exists: %w", ErrUnauthenticated)
		}
		return nil, fmt.Errorf("failed to load session user: %w", err)
	}

	actor, err := s.requesterFor(ctx, user)
	if err != nil {
		return nil, err
	}
	return &Principal{SessionID: session.ID, Requester: actor}, nil
}

// requesterFor reads the relational role, its permission codes and the store memberships
func (s *authService) requesterFor(ctx context.Context, user *model.User) (access.Requester, error) {
	roleName := ""
	ur, err := s.roleRepo.FindUserRole(ctx, user.ID)
	switch {
	case err == nil && ur.Role != nil:
		roleName = ur.Role.Name
	case err != nil && !errors.Is(err, gorm.ErrRecordNotFound):
		return access.Requester{}, fmt.Errorf("failed to load user role: %w", err)
	}

	perms, err := s.roleRepo.PermissionCodesForUser(ctx, user.ID)
	if err != nil {
		return access.Requester{}, fmt.Errorf("failed to load permissions: %w", err)
	}
	groups, err := s.memberRepo.GroupIDsForUser(ctx, user.ID)
	if err != nil {
		return access.Requester{}, fmt.Errorf("failed to load store memberships: %w", err)
	}
	return access.NewRequester(user.ID, roleName, perms, groups), nil
}

func (s *authService) Me(ctx context.Context, actor access.Requester) (*MeResponse, error) {
	user, err := s.userRepo.GetByID(ctx, actor.UserID)
	if err != nil {
		return nil, notFound(err, "user")
	}
	perms := actor.Permissions
	if perms == nil {
		perms = []string{}
	}
	groups := actor.Scope.GroupIDs()
	if groups == nil {
		groups = []uint{}
	}
	return &MeResponse{
		User:        *mapToResponse(user),
		Role:        actor.Role,
		Permissions: perms,
		GroupIDs:    groups,
		AllGroups:   actor.Scope.Unrestricted(),
	}, nil
}

// ChangePassword also ends every other session of the user
func (s *authService) ChangePassword(ctx context.Context, p Principal, req ChangePasswordRequest) error {
	user, err := s.userRepo.GetByID(ctx, p.Requester.UserID)
	if err != nil {
		return notFound(err, "user")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.CurrentPassword)); err != nil {
		return validationf("current password is incorrect")
	}
	if len(req.NewPassword) < 8 {
		return validationf("new password must be at least 8 characters")
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(req.NewPassword), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}
	user.Password = string(hashed)
	user.PasswordChanged = true
	if err := s.userRepo.Update(ctx, user); err != nil {
		return fmt.Errorf("failed to update password: %w", err)
	}
	if err := s.sessionRepo.DeleteForUser(ctx, user.ID, p.SessionID); err != nil {
		return fmt.Errorf("failed to end other sessions: %w", err)
	}
	return nil
}

func (s *authService) PurgeExpiredSessions(ctx context.Context) (int64, error) {
	n, err := s.sessionRepo.DeleteExpired(ctx, s.now())
	if err != nil {
		return 0, fmt.Errorf("failed to purge sessions: %w", err)
	}
	return n, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
