package handler

import (
	"net/http"

	"shop/internal/config"
	"shop/internal/domain/model"
	"shop/internal/repository"
	"shop/internal/usecase"

	"github.com/labstack/echo/v4"
)

type reviewRequest struct {
	Rating  int     `json:"rating"`
	Comment *string `json:"comment"`
}

func (r reviewRequest) toInput() usecase.ReviewInput {
	return usecase.ReviewInput{Rating: r.Rating, Comment: r.Comment}
}

// /products/:id/reviews
// 一覧と詳細は公開、書き込みはログイン必須。
type ReviewHandler struct {
	uc *usecase.ReviewUsecase
}

func NewReviewHandler(uc *usecase.ReviewUsecase) *ReviewHandler {
	return &ReviewHandler{uc: uc}
}

func (h *ReviewHandler) RegisterRoutes(e *echo.Echo, cfg config.Config, userRepo repository.UserRepository) {
	authMW := authenticated(cfg, userRepo)

	e.GET("/products/:id/reviews", h.list)
	e.GET("/products/:id/reviews/:review_id", h.detail)
	e.POST("/products/:id/reviews", h.create, authMW...)
	e.PUT("/products/:id/reviews/:review_id", h.update, authMW...)
	e.PATCH("/products/:id/reviews/:review_id", h.update, authMW...)
	e.DELETE("/products/:id/reviews/:review_id", h.delete, authMW...)
}

func productTarget(c echo.Context) (model.ReviewTarget, bool) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return model.ReviewTarget{}, false
	}
	return model.ProductTarget(id), true
}

func (h *ReviewHandler) list(c echo.Context) error {
	target, ok := productTarget(c)
	if !ok {
		return badRequest(c, "invalid id")
	}

	reviews, err := h.uc.List(c.Request().Context(), target)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, reviews)
}

func (h *ReviewHandler) detail(c echo.Context) error {
	target, ok := productTarget(c)
	if !ok {
		return badRequest(c, "invalid id")
	}
	reviewID, ok := parseIDParam(c, "review_id")
	if !ok {
		return badRequest(c, "invalid review_id")
	}

	r, err := h.uc.Get(c.Request().Context(), target, reviewID)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, r)
}

func (h *ReviewHandler) create(c echo.Context) error {
	userID, ok := getUserIDFromContext(c)
	if !ok {
		return unauthorized(c)
	}
	target, ok := productTarget(c)
	if !ok {
		return badRequest(c, "invalid id")
	}

	var req reviewRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid body")
	}

	r, err := h.uc.Create(c.Request().Context(), userID, target, req.toInput())
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusCreated, r)
}

func (h *ReviewHandler) update(c echo.Context) error {
	userID, ok := getUserIDFromContext(c)
	if !ok {
		return unauthorized(c)
	}
	target, ok := productTarget(c)
	if !ok {
		return badRequest(c, "invalid id")
	}
	reviewID, ok := parseIDParam(c, "review_id")
	if !ok {
		return badRequest(c, "invalid review_id")
	}

	var req reviewRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid body")
	}

	r, err := h.uc.Update(c.Request().Context(), userID, target, reviewID, req.toInput())
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, r)
}

func (h *ReviewHandler) delete(c echo.Context) error {
	userID, ok := getUserIDFromContext(c)
	if !ok {
		return unauthorized(c)
	}
	target, ok := productTarget(c)
	if !ok {
		return badRequest(c, "invalid id")
	}
	reviewID, ok := parseIDParam(c, "review_id")
	if !ok {
		return badRequest(c, "invalid review_id")
	}

	if err := h.uc.Delete(c.Request().Context(), userID, target, reviewID); err != nil {
		return writeError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}
