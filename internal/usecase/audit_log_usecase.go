package usecase

import (
	"context"
	"net/http"
	"strings"
	"time"

	"shop/internal/domain/model"
	repo "shop/internal/repository"
)

// 管理者向けの監査ログ参照
type AuditLogUsecase struct {
	auditRepo repo.AuditLogRepository
}

func NewAuditLogUsecase(auditRepo repo.AuditLogRepository) *AuditLogUsecase {
	return &AuditLogUsecase{auditRepo: auditRepo}
}

// クエリ文字列そのまま。空は絞り込まない。
type AuditLogQuery struct {
	ActorUserID  int64
	Action       string
	ResourceType string
	ResourceID   int64
	From         string // RFC3339
	To           string // RFC3339
	Limit        int
	Offset       int
}

func (u *AuditLogUsecase) List(ctx context.Context, q AuditLogQuery) ([]model.AuditLog, error) {
	var f repo.AuditLogFilter

	if q.ActorUserID > 0 {
		f.ActorUserID = &q.ActorUserID
	}
	if a := strings.TrimSpace(q.Action); a != "" {
		action := model.AuditAction(strings.ToUpper(a))
		switch action {
		case model.AuditActionUpdateStock, model.AuditActionUpdateOrderStatus:
		default:
			return []model.AuditLog{}, NewHTTPError(http.StatusBadRequest, "invalid action")
		}
		f.Action = &action
	}
	if rt := strings.TrimSpace(q.ResourceType); rt != "" {
		res := model.AuditResourceType(strings.ToLower(rt))
		switch res {
		case model.AuditResourceProduct, model.AuditResourceOrder:
		default:
			return []model.AuditLog{}, NewHTTPError(http.StatusBadRequest, "invalid resource_type")
		}
		f.ResourceType = &res
	}
	if q.ResourceID > 0 {
		f.ResourceID = &q.ResourceID
	}

	from, ok := parseDateTimeRFC3339(q.From)
	if !ok {
		return []model.AuditLog{}, NewHTTPError(http.StatusBadRequest, "invalid from")
	}
	to, ok := parseDateTimeRFC3339(q.To)
	if !ok {
		return []model.AuditLog{}, NewHTTPError(http.StatusBadRequest, "invalid to")
	}
	if from != nil && to != nil && from.After(*to) {
		return []model.AuditLog{}, NewHTTPError(http.StatusBadRequest, "from must be <= to")
	}
	f.CreatedFrom, f.CreatedTo = from, to

	if q.Limit < 0 || q.Offset < 0 {
		return []model.AuditLog{}, NewHTTPError(http.StatusBadRequest, "invalid paging")
	}
	f.Limit, f.Offset = q.Limit, q.Offset

	logs, err := u.auditRepo.List(ctx, f)
	if err != nil {
		return []model.AuditLog{}, errDB()
	}
	return logs, nil
}

// 空ならnil・ok。形式違いは ok=false。
func parseDateTimeRFC3339(s string) (*time.Time, bool) {
	if strings.TrimSpace(s) == "" {
		return nil, true
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return nil, false
	}
	return &t, true
}
