package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/route-draft-service/internal/delivery/http/middleware"
	"github.com/route-draft-service/internal/pkg/utils"
	"github.com/route-draft-service/internal/usecase"
	"github.com/route-draft-service/internal/usecase/dto"
	"go.uber.org/zap"
)

// DraftHandler - черновики и запись фрагментов
type DraftHandler struct {
	draftUC *usecase.DraftUseCase
	logger  *zap.Logger
}

func NewDraftHandler(draftUC *usecase.DraftUseCase, logger *zap.Logger) *DraftHandler {
	return &DraftHandler{
		draftUC: draftUC,
		logger:  logger,
	}
}

// ResolveDraft - найти или создать черновик
// @Summary Найти или создать черновик
// @Description Возвращает id черновика или сохранённого маршрута, который передаётся в последующие сохранения
// @Tags Drafts
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body dto.ResolveDraftRequest true "Цель записи"
// @Success 200 {object} utils.SuccessResponse{data=dto.ResolveResult}
// @Failure 400 {object} utils.ErrorResponse
// @Failure 403 {object} utils.ErrorResponse
// @Router /api/v1/drafts/resolve [post]
func (h *DraftHandler) ResolveDraft(c *fiber.Ctx) error {
	var req dto.ResolveDraftRequest
	if err := parseRequest(c, &req); err != nil {
		return utils.SendError(c, err)
	}

	result, err := h.draftUC.ResolveOrCreateDraft(c.Context(), req, middleware.UserID(c))
	if err != nil {
		return utils.SendError(c, err)
	}
	if result.Created {
		return utils.SendCreated(c, result)
	}
	return utils.SendSuccess(c, result, nil)
}

// LatestDraft - последний изменённый черновик пользователя
// @Summary Последний черновик
// @Tags Drafts
// @Produce json
// @Security BearerAuth
// @Success 200 {object} utils.SuccessResponse{data=domain.Route}
// @Failure 404 {object} utils.ErrorResponse
// @Router /api/v1/drafts/latest [get]
func (h *DraftHandler) LatestDraft(c *fiber.Ctx) error {
	route, err := h.draftUC.LatestDraft(c.Context(), middleware.UserID(c))
	if err != nil {
		return utils.SendError(c, err)
	}
	return utils.SendSuccess(c, route, nil)
}

// GetDraft - полный черновик владельца
// @Summary Получить черновик
// @Tags Drafts
// @Produce json
// @Security BearerAuth
// @Param id path string true "ID черновика"
// @Success 200 {object} utils.SuccessResponse{data=domain.Route}
// @Failure 404 {object} utils.ErrorResponse
// @Router /api/v1/drafts/{id} [get]
func (h *DraftHandler) GetDraft(c *fiber.Ctx) error {
	route, err := h.draftUC.LoadDraft(c.Context(), c.Params("id"), middleware.UserID(c))
	if err != nil {
		return utils.SendError(c, err)
	}
	return utils.SendSuccess(c, route, nil)
}

// SaveSegment - сохранение сегмента
// @Summary Сохранить сегмент
// @Description Геометрия сегмента заменяется целиком. Без цели создаётся новый черновик
// @Tags Fragments
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body dto.SaveSegmentRequest true "Сегмент"
// @Success 200 {object} utils.SuccessResponse{data=dto.SaveResult}
// @Failure 400 {object} utils.ErrorResponse
// @Failure 422 {object} utils.ErrorResponse
// @Router /api/v1/fragments/segments [post]
func (h *DraftHandler) SaveSegment(c *fiber.Ctx) error {
	var req dto.SaveSegmentRequest
	if err := parseRequest(c, &req); err != nil {
		return utils.SendError(c, err)
	}
	return sendSave(c)(h.draftUC.SaveRouteFragment(c.Context(), req, middleware.UserID(c)))
}

// MergePOIs - слияние точек интереса
// @Summary Слить POI
// @Tags Fragments
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body dto.MergePOIsRequest true "POI"
// @Success 200 {object} utils.SuccessResponse{data=dto.SaveResult}
// @Failure 400 {object} utils.ErrorResponse
// @Router /api/v1/fragments/pois [post]
func (h *DraftHandler) MergePOIs(c *fiber.Ctx) error {
	var req dto.MergePOIsRequest
	if err := parseRequest(c, &req); err != nil {
		return utils.SendError(c, err)
	}
	return sendSave(c)(h.draftUC.MergePOIs(c.Context(), req, middleware.UserID(c)))
}

// MergeLines - слияние линий
// @Summary Слить линии
// @Tags Fragments
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body dto.MergeLinesRequest true "Линии"
// @Success 200 {object} utils.SuccessResponse{data=dto.SaveResult}
// @Failure 400 {object} utils.ErrorResponse
// @Router /api/v1/fragments/lines [post]
func (h *DraftHandler) MergeLines(c *fiber.Ctx) error {
	var req dto.MergeLinesRequest
	if err := parseRequest(c, &req); err != nil {
		return utils.SendError(c, err)
	}
	return sendSave(c)(h.draftUC.MergeLines(c.Context(), req, middleware.UserID(c)))
}

// MergePhotos - слияние фотографий
// @Summary Слить фото
// @Description Локальные фото передаются data: URL и загружаются в медиасервис до записи
// @Tags Fragments
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body dto.MergePhotosRequest true "Фото"
// @Success 200 {object} utils.SuccessResponse{data=dto.SaveResult}
// @Failure 400 {object} utils.ErrorResponse
// @Router /api/v1/fragments/photos [post]
func (h *DraftHandler) MergePhotos(c *fiber.Ctx) error {
	var req dto.MergePhotosRequest
	if err := parseRequest(c, &req); err != nil {
		return utils.SendError(c, err)
	}
	return sendSave(c)(h.draftUC.MergePhotos(c.Context(), req, middleware.UserID(c)))
}

// SaveDescription - текстовое описание маршрута
// @Summary Сохранить описание
// @Tags Fragments
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body dto.SaveDescriptionRequest true "Описание"
// @Success 200 {object} utils.SuccessResponse{data=dto.SaveResult}
// @Router /api/v1/fragments/description [post]
func (h *DraftHandler) SaveDescription(c *fiber.Ctx) error {
	var req dto.SaveDescriptionRequest
	if err := parseRequest(c, &req); err != nil {
		return utils.SendError(c, err)
	}
	return sendSave(c)(h.draftUC.SaveDescription(c.Context(), req, middleware.UserID(c)))
}

// SaveMapOverview - обзорный текст над картой
// @Summary Сохранить обзор карты
// @Tags Fragments
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body dto.SaveMapOverviewRequest true "Обзор"
// @Success 200 {object} utils.SuccessResponse{data=dto.SaveResult}
// @Router /api/v1/fragments/map-overview [post]
func (h *DraftHandler) SaveMapOverview(c *fiber.Ctx) error {
	var req dto.SaveMapOverviewRequest
	if err := parseRequest(c, &req); err != nil {
		return utils.SendError(c, err)
	}
	return sendSave(c)(h.draftUC.SaveMapOverview(c.Context(), req, middleware.UserID(c)))
}

// UpdateHeaderSettings - оформление шапки маршрута
// @Summary Обновить шапку
// @Tags Fragments
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body dto.UpdateHeaderSettingsRequest true "Оформление"
// @Success 200 {object} utils.SuccessResponse{data=dto.SaveResult}
// @Failure 404 {object} utils.ErrorResponse
// @Router /api/v1/header-settings [put]
func (h *DraftHandler) UpdateHeaderSettings(c *fiber.Ctx) error {
	var req dto.UpdateHeaderSettingsRequest
	if err := parseRequest(c, &req); err != nil {
		return utils.SendError(c, err)
	}
	return sendSave(c)(h.draftUC.UpdateHeaderSettings(c.Context(), req, middleware.UserID(c)))
}

// UpdateSegment - свойства сегмента черновика
// @Summary Изменить сегмент черновика
// @Tags Drafts
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "ID черновика"
// @Param segmentId path string true "ID сегмента"
// @Param request body dto.UpdateSegmentRequest true "Изменения"
// @Success 200 {object} utils.SuccessResponse{data=dto.UpdateResult}
// @Failure 403 {object} utils.ErrorResponse
// @Failure 404 {object} utils.ErrorResponse
// @Router /api/v1/drafts/{id}/segments/{segmentId} [patch]
func (h *DraftHandler) UpdateSegment(c *fiber.Ctx) error {
	var req dto.UpdateSegmentRequest
	if err := parseRequest(c, &req); err != nil {
		return utils.SendError(c, err)
	}

	result, err := h.draftUC.UpdateSegmentProperties(c.Context(), c.Params("id"), c.Params("segmentId"), req, middleware.UserID(c))
	if err != nil {
		return utils.SendError(c, err)
	}
	return utils.SendSuccess(c, result, nil)
}

// DeleteSegment - удаление сегмента черновика
// @Summary Удалить сегмент черновика
// @Description Удаление последнего сегмента удаляет черновик
// @Tags Drafts
// @Produce json
// @Security BearerAuth
// @Param id path string true "ID черновика"
// @Param segmentId path string true "ID сегмента"
// @Success 200 {object} utils.SuccessResponse{data=dto.DeleteSegmentResult}
// @Failure 404 {object} utils.ErrorResponse
// @Router /api/v1/drafts/{id}/segments/{segmentId} [delete]
func (h *DraftHandler) DeleteSegment(c *fiber.Ctx) error {
	result, err := h.draftUC.DeleteSegment(c.Context(), c.Params("id"), c.Params("segmentId"), middleware.UserID(c))
	if err != nil {
		return utils.SendError(c, err)
	}
	return utils.SendSuccess(c, result, nil)
}

// UpdateMasterRoute - сводный документ bikepacking черновика
// @Summary Обновить master route
// @Tags Drafts
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "ID черновика"
// @Param request body dto.UpdateMasterRouteRequest true "Master route"
// @Success 200 {object} utils.SuccessResponse{data=dto.UpdateResult}
// @Failure 400 {object} utils.ErrorResponse
// @Router /api/v1/drafts/{id}/master-route [put]
func (h *DraftHandler) UpdateMasterRoute(c *fiber.Ctx) error {
	var req dto.UpdateMasterRouteRequest
	if err := parseRequest(c, &req); err != nil {
		return utils.SendError(c, err)
	}

	result, err := h.draftUC.UpdateMasterRoute(c.Context(), c.Params("id"), req, middleware.UserID(c))
	if err != nil {
		return utils.SendError(c, err)
	}
	return utils.SendSuccess(c, result, nil)
}

// sendSave отвечает 201 при создании черновика, иначе 200
func sendSave(c *fiber.Ctx) func(*dto.SaveResult, error) error {
	return func(result *dto.SaveResult, err error) error {
		if err != nil {
			return utils.SendError(c, err)
		}
		if result.Created {
			return utils.SendCreated(c, result)
		}
		return utils.SendSuccess(c, result, nil)
	}
}
