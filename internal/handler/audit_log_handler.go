package handler

import (
	"net/http"
	"strconv"

	"shop/internal/config"
	"shop/internal/repository"
	"shop/internal/usecase"

	"github.com/labstack/echo/v4"
)

// GET /admin/audit-logs
type AuditLogHandler struct {
	uc *usecase.AuditLogUsecase
}

func NewAuditLogHandler(uc *usecase.AuditLogUsecase) *AuditLogHandler {
	return &AuditLogHandler{uc: uc}
}

func (h *AuditLogHandler) RegisterRoutes(e *echo.Echo, cfg config.Config, userRepo repository.UserRepository) {
	e.GET("/admin/audit-logs", h.list, adminOnly(cfg, userRepo)...)
}

func (h *AuditLogHandler) list(c echo.Context) error {
	var q usecase.AuditLogQuery

	q.Action = c.QueryParam("action")
	q.ResourceType = c.QueryParam("resource_type")
	q.From = c.QueryParam("from")
	q.To = c.QueryParam("to")

	var ok bool
	if q.ActorUserID, ok = queryInt64(c, "actor_user_id"); !ok {
		return badRequest(c, "invalid actor_user_id")
	}
	if q.ResourceID, ok = queryInt64(c, "resource_id"); !ok {
		return badRequest(c, "invalid resource_id")
	}
	if q.Limit, ok = queryInt(c, "limit"); !ok {
		return badRequest(c, "invalid limit")
	}
	if q.Offset, ok = queryInt(c, "offset"); !ok {
		return badRequest(c, "invalid offset")
	}

	logs, err := h.uc.List(c.Request().Context(), q)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, logs)
}

func queryInt64(c echo.Context, name string) (int64, bool) {
	v := c.QueryParam(name)
	if v == "" {
		return 0, true
	}
	i, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return 0, false
	}
	return i, true
}
