package dto

import (
	"github.com/route-draft-service/internal/domain"
)

// Outcome - итог операции, завершившейся без ошибки
type Outcome string

const (
	OutcomeSucceeded Outcome = "succeeded"
	OutcomeDegraded  Outcome = "degraded"
)

// Коды предупреждений для частично выполненных операций
const (
	WarningUploadFailure        = "UPLOAD_FAILURE"
	WarningUploadPending        = "UPLOAD_PENDING"
	WarningThumbnailUnavailable = "THUMBNAIL_UNAVAILABLE"
	WarningIndexUpdateFailed    = "INDEX_UPDATE_FAILED"
	WarningSummaryRefreshFailed = "SUMMARY_REFRESH_FAILED"
	WarningDraftCleanupFailed   = "DRAFT_CLEANUP_FAILED"
	WarningEventPublishFailed   = "EVENT_PUBLISH_FAILED"
	WarningMediaCleanupFailed   = "MEDIA_CLEANUP_FAILED"
	WarningCacheInvalidation    = "CACHE_INVALIDATION_FAILED"
)

type Warning struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Result - общая часть результатов изменяющих операций
type Result struct {
	Outcome  Outcome   `json:"outcome"`
	Warnings []Warning `json:"warnings,omitempty"`
}

func NewResult() Result {
	return Result{Outcome: OutcomeSucceeded}
}

// Warn добавляет предупреждение и помечает результат как degraded
func (r *Result) Warn(code, message string) {
	r.Warnings = append(r.Warnings, Warning{Code: code, Message: message})
	r.Outcome = OutcomeDegraded
}

func (r *Result) AddWarnings(warnings []Warning) {
	for _, w := range warnings {
		r.Warn(w.Code, w.Message)
	}
}

func (r *Result) Degraded() bool {
	return r.Outcome == OutcomeDegraded
}

// ResolveResult - id, который вызывающий передаёт в следующие сохранения
type ResolveResult struct {
	RouteID string           `json:"routeId"`
	Kind    domain.RouteKind `json:"kind"`
	Created bool             `json:"created"`
}

// SaveResult - результат записи фрагмента
type SaveResult struct {
	Result
	RouteID string           `json:"routeId"`
	Kind    domain.RouteKind `json:"kind"`
	Created bool             `json:"created"`
}

type UpdateResult struct {
	Result
	RouteID string `json:"routeId"`
}

// DeleteSegmentResult - RouteDeleted=true, если удалён последний сегмент черновика вместе с черновиком
type DeleteSegmentResult struct {
	Result
	RouteID      string `json:"routeId"`
	RouteDeleted bool   `json:"routeDeleted"`
}

type PromoteResult struct {
	Result
	RouteID      string               `json:"routeId"`
	DraftID      string               `json:"draftId"`
	ThumbnailURL string               `json:"thumbnailUrl,omitempty"`
	Statistics   *domain.RouteSummary `json:"statistics"`
}

// DeleteRouteResult - Existed=false, если маршрута уже не было и была очищена только запись индекса
type DeleteRouteResult struct {
	Result
	RouteID string `json:"routeId"`
	Existed bool   `json:"existed"`
}

type RouteListResponse struct {
	Routes []domain.UserIndexEntry `json:"routes"`
	Total  int                     `json:"total"`
}

type HealthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks"`
}
