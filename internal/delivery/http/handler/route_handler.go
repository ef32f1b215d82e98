package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/route-draft-service/internal/delivery/http/middleware"
	"github.com/route-draft-service/internal/pkg/utils"
	"github.com/route-draft-service/internal/usecase"
	"github.com/route-draft-service/internal/usecase/dto"
	"go.uber.org/zap"
)

// RouteHandler - сохранение черновика и сохранённые маршруты
type RouteHandler struct {
	promotionUC *usecase.PromotionUseCase
	savedUC     *usecase.SavedRouteUseCase
	logger      *zap.Logger
}

func NewRouteHandler(promotionUC *usecase.PromotionUseCase, savedUC *usecase.SavedRouteUseCase, logger *zap.Logger) *RouteHandler {
	return &RouteHandler{
		promotionUC: promotionUC,
		savedUC:     savedUC,
		logger:      logger,
	}
}

// PromoteDraft - сохранить черновик как постоянный маршрут
// @Summary Сохранить черновик
// @Description Миниатюра, индекс пользователя и удаление черновика выполняются по возможности, сбои возвращаются в warnings
// @Tags Routes
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "ID черновика"
// @Param request body dto.PromoteDraftRequest true "Параметры маршрута"
// @Success 201 {object} utils.SuccessResponse{data=dto.PromoteResult}
// @Failure 403 {object} utils.ErrorResponse
// @Failure 404 {object} utils.ErrorResponse
// @Router /api/v1/drafts/{id}/promote [post]
func (h *RouteHandler) PromoteDraft(c *fiber.Ctx) error {
	var req dto.PromoteDraftRequest
	if err := parseRequest(c, &req); err != nil {
		return utils.SendError(c, err)
	}

	result, err := h.promotionUC.PromoteDraft(c.Context(), c.Params("id"), req, middleware.UserID(c))
	if err != nil {
		return utils.SendError(c, err)
	}
	return utils.SendCreated(c, result)
}

// ListRoutes - сохранённые маршруты пользователя
// @Summary Мои маршруты
// @Tags Routes
// @Produce json
// @Security BearerAuth
// @Success 200 {object} utils.SuccessResponse{data=dto.RouteListResponse}
// @Router /api/v1/routes [get]
func (h *RouteHandler) ListRoutes(c *fiber.Ctx) error {
	result, err := h.savedUC.ListUserRoutes(c.Context(), middleware.UserID(c))
	if err != nil {
		return utils.SendError(c, err)
	}
	return utils.SendSuccess(c, result, &utils.Meta{Total: result.Total})
}

// GetRoute - сохранённый маршрут (владельцу или всем, если публичный)
// @Summary Получить маршрут
// @Tags Routes
// @Produce json
// @Security BearerAuth
// @Param id path string true "ID маршрута"
// @Success 200 {object} utils.SuccessResponse{data=domain.Route}
// @Failure 404 {object} utils.ErrorResponse
// @Router /api/v1/routes/{id} [get]
func (h *RouteHandler) GetRoute(c *fiber.Ctx) error {
	route, err := h.savedUC.GetRoute(c.Context(), c.Params("id"), middleware.UserID(c))
	if err != nil {
		return utils.SendError(c, err)
	}
	return utils.SendSuccess(c, route, nil)
}

// UpdateRoute - имя, видимость, теги и описание
// @Summary Изменить маршрут
// @Tags Routes
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "ID маршрута"
// @Param request body dto.UpdateSavedRouteRequest true "Изменения"
// @Success 200 {object} utils.SuccessResponse{data=dto.UpdateResult}
// @Failure 403 {object} utils.ErrorResponse
// @Router /api/v1/routes/{id} [patch]
func (h *RouteHandler) UpdateRoute(c *fiber.Ctx) error {
	var req dto.UpdateSavedRouteRequest
	if err := parseRequest(c, &req); err != nil {
		return utils.SendError(c, err)
	}

	result, err := h.savedUC.UpdateSavedRoute(c.Context(), c.Params("id"), req, middleware.UserID(c))
	if err != nil {
		return utils.SendError(c, err)
	}
	return utils.SendSuccess(c, result, nil)
}

// UpdateSegment - имя и цвет сегмента сохранённого маршрута
// @Summary Изменить сегмент маршрута
// @Tags Routes
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "ID маршрута"
// @Param segmentId path string true "ID сегмента"
// @Param request body dto.UpdateSavedSegmentRequest true "Изменения"
// @Success 200 {object} utils.SuccessResponse{data=dto.UpdateResult}
// @Router /api/v1/routes/{id}/segments/{segmentId} [patch]
func (h *RouteHandler) UpdateSegment(c *fiber.Ctx) error {
	var req dto.UpdateSavedSegmentRequest
	if err := parseRequest(c, &req); err != nil {
		return utils.SendError(c, err)
	}

	result, err := h.savedUC.UpdateSavedSegment(c.Context(), c.Params("id"), c.Params("segmentId"), req, middleware.UserID(c))
	if err != nil {
		return utils.SendError(c, err)
	}
	return utils.SendSuccess(c, result, nil)
}

// DeleteSegment - удаление сегмента сохранённого маршрута
// @Summary Удалить сегмент маршрута
// @Tags Routes
// @Produce json
// @Security BearerAuth
// @Param id path string true "ID маршрута"
// @Param segmentId path string true "ID сегмента"
// @Success 200 {object} utils.SuccessResponse{data=dto.DeleteSegmentResult}
// @Router /api/v1/routes/{id}/segments/{segmentId} [delete]
func (h *RouteHandler) DeleteSegment(c *fiber.Ctx) error {
	result, err := h.savedUC.DeleteSegment(c.Context(), c.Params("id"), c.Params("segmentId"), middleware.UserID(c))
	if err != nil {
		return utils.SendError(c, err)
	}
	return utils.SendSuccess(c, result, nil)
}

// DeleteRoute - удаление сохранённого маршрута
// @Summary Удалить маршрут
// @Tags Routes
// @Produce json
// @Security BearerAuth
// @Param id path string true "ID маршрута"
// @Success 200 {object} utils.SuccessResponse{data=dto.DeleteRouteResult}
// @Failure 403 {object} utils.ErrorResponse
// @Router /api/v1/routes/{id} [delete]
func (h *RouteHandler) DeleteRoute(c *fiber.Ctx) error {
	result, err := h.savedUC.DeleteSavedRoute(c.Context(), c.Params("id"), middleware.UserID(c))
	if err != nil {
		return utils.SendError(c, err)
	}
	return utils.SendSuccess(c, result, nil)
}
