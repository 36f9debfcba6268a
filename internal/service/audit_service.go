package service

import (
	"context"
	"encoding/json"
	"fmt"

	"logiflow/internal/access"
	"logiflow/internal/model"
	"logiflow/internal/repository"
	"logiflow/pkg/pagination"
)

type AuditLogResponse struct {
	ID         uint   `json:"id"`
	UserID     string `json:"userId"`
	Username   string `json:"username"`
	Action     string `json:"action"`
	EntityType string `json:"entityType"`
	EntityID   string `json:"entityId"`
	EntityName string `json:"entityName"`
	Details    string `json:"details"`
	CreatedAt  string `json:"createdAt"`
}

type AuditQuery struct {
	EntityType string `form:"entityType"`
	EntityID   string `form:"entityId"`
	UserID     string `form:"userId"`
}

type AuditService interface {
	GetAuditLogs(ctx context.Context, q AuditQuery, page, limit int) ([]AuditLogResponse, int64, error)
}

type auditService struct {
	repo repository.AuditRepository
}

func NewAuditService(repo repository.AuditRepository) AuditService {
	return &auditService{repo: repo}
}

func (s *auditService) GetAuditLogs(ctx context.Context, q AuditQuery, page, limit int) ([]AuditLogResponse, int64, error) {
	p := pagination.Normalize(page, limit)
	logs, total, err := s.repo.List(ctx, repository.AuditFilter{
		EntityType: q.EntityType,
		EntityID:   q.EntityID,
		UserID:     q.UserID,
	}, p.Page, p.Limit)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to fetch audit logs: %w", err)
	}

	res := make([]AuditLogResponse, 0, len(logs))
	for _, l := range logs {
		username := "System"
		userID := ""
		if l.User != nil {
			username = l.User.Username
		}
		if l.UserID != nil {
			userID = *l.UserID
		}

		res = append(res, AuditLogResponse{
			ID:         l.ID,
			UserID:     userID,
			Username:   username,
			Action:     l.Action,
			EntityType: l.EntityType,
			EntityID:   l.EntityID,
			EntityName: l.EntityName,
			Details:    l.Details,
			CreatedAt:  l.CreatedAt.Format("2006-01-02 15:04:05"),
		})
	}
	return res, total, nil
}

// auditEntry is written in the same transaction as the change it describes
type auditEntry struct {
	Action     string
	EntityType string
	EntityID   interface{}
	EntityName string
	Details    interface{}
}

func recordAudit(ctx context.Context, repo repository.AuditRepository, actor access.Requester, e auditEntry) error {
	details := ""
	if e.Details != nil {
		raw, err := json.Marshal(e.Details)
		if err != nil {
			return fmt.Errorf("failed to encode audit details: %w", err)
		}
		details = string(raw)
	}

	entry := &model.AuditLog{
		Action:     e.Action,
		EntityType: e.EntityType,
		EntityID:   fmt.Sprint(e.EntityID),
		EntityName: e.EntityName,
		Details:    details,
	}
	if actor.UserID != "" {
		uid := actor.UserID
		entry.UserID = &uid
	}
	if err := repo.Log(ctx, entry); err != nil {
		return fmt.Errorf("failed to write audit log: %w", err)
	}
	return nil
}
