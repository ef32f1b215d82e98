package usecase_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/route-draft-service/internal/config"
	"github.com/route-draft-service/internal/domain"
	"github.com/route-draft-service/internal/domain/repository"
	apperrors "github.com/route-draft-service/internal/pkg/errors"
	"github.com/route-draft-service/internal/usecase"
	"github.com/route-draft-service/internal/usecase/dto"
)

var testThumbnailConfig = config.ThumbnailConfig{Width: 400, Height: 300, Color: "ee5253", MaxPoints: 100}

type promotionFixture struct {
	env       *testEnv
	drafts    *usecase.DraftUseCase
	saved     *usecase.SavedRouteUseCase
	media     *MockMediaService
	renderer  *MockStaticMapRenderer
	stream    *MockStreamRepository
	promotion *usecase.PromotionUseCase
}

// newPromotionFixture wires the usecases over one miniredis store; failingDeletes breaks
// recursive deletes for the promotion coordinator only
func newPromotionFixture(t *testing.T, failingDeletes bool) *promotionFixture {
	t.Helper()
	env := newTestEnv(t)
	var routes repository.RouteRepository = env.routes
	if failingDeletes {
		routes = env.withFailingDeletes()
	}
	f := &promotionFixture{
		env:      env,
		media:    &MockMediaService{},
		renderer: &MockStaticMapRenderer{},
		stream:   &MockStreamRepository{},
	}
	logger := zap.NewNop()
	materializer := usecase.NewMediaMaterializer(f.media, 2, "", logger)
	thumbnails := usecase.NewThumbnailUseCase(routes, f.renderer, f.media, env.cache, testThumbnailConfig, logger)

	f.drafts = usecase.NewDraftUseCase(env.routes, materializer, env.cache, logger)
	f.saved = usecase.NewSavedRouteUseCase(env.routes, env.cache, thumbnails, 0, logger)
	f.promotion = usecase.NewPromotionUseCase(routes, materializer, thumbnails, f.stream, logger)
	return f
}

func (f *promotionFixture) expectThumbnail() {
	f.renderer.On("Render", mock.Anything, mock.AnythingOfType("domain.StaticMapRequest")).
		Return([]byte("png-bytes"), nil).Once()
	f.media.On("Upload", mock.Anything, mock.MatchedBy(func(req domain.UploadRequest) bool {
		return req.Folder == "thumbnails" && req.ContentType == "image/png"
	})).Return(&domain.MediaRef{PublicRef: "thumbnails/r", URL: "https://cdn.example/thumbnails/r.png"}, nil).Once()
}

func (f *promotionFixture) expectEvent() {
	f.stream.On("PublishToStream", mock.Anything, domain.StreamRoutePromoted, mock.AnythingOfType("domain.RoutePromotedEvent")).
		Return(nil).Once()
}

// seedDraft builds the chained-loop draft: 10 km closed segment plus 15 km open segment
func (f *promotionFixture) seedDraft(t *testing.T, owner string) string {
	t.Helper()
	ctx := context.Background()

	closed := testSegment("closed", 10000,
		domain.Position{2.0, 41.0, 100},
		domain.Position{2.01, 41.02, 150},
		domain.Position{2.0, 41.04, 120},
	)
	closed.UnpavedSections = []domain.UnpavedSection{{StartIndex: 0, EndIndex: 1, SurfaceType: "gravel"}}
	open := testSegment("open", 15000,
		domain.Position{2.0, 41.06},
		domain.Position{2.0, 41.0018},
	)

	res, err := f.drafts.SaveRouteFragment(ctx, dto.SaveSegmentRequest{Segment: closed, RouteName: "Coast loop"}, owner)
	require.NoError(t, err)
	target := dto.SaveTarget{DraftID: res.RouteID}

	_, err = f.drafts.SaveRouteFragment(ctx, dto.SaveSegmentRequest{Target: target, Segment: open}, owner)
	require.NoError(t, err)

	_, err = f.drafts.MergePOIs(ctx, dto.MergePOIsRequest{
		Target:    target,
		Draggable: []domain.POI{{ID: "poi-1", Name: "Spring", Coordinates: &domain.LngLat{Lng: 2.0, Lat: 41.01}}},
		Places:    []domain.POI{{ID: "poi-2", Name: "Refugio", ExternalPlaceRef: &domain.ExternalPlaceRef{PlaceID: "g-1"}}},
	}, owner)
	require.NoError(t, err)

	_, err = f.drafts.MergeLines(ctx, dto.MergeLinesRequest{
		Target: target,
		Lines: []domain.Line{{
			ID:          "line-1",
			Color:       "#123456",
			Coordinates: []domain.LngLat{{Lng: 2.0, Lat: 41.0}, {Lng: 2.01, Lat: 41.01}},
			Photos:      []domain.PhotoRef{{ID: "lp-1", PublicRef: "photos/lp1", URL: "https://cdn.example/lp1.jpg"}},
		}},
	}, owner)
	require.NoError(t, err)

	_, err = f.drafts.MergePhotos(ctx, dto.MergePhotosRequest{
		Target: target,
		Photos: []domain.PhotoRef{{ID: "ph-1", Caption: "summit", PublicRef: "photos/ph1", URL: "https://cdn.example/ph1.jpg"}},
	}, owner)
	require.NoError(t, err)

	return res.RouteID
}

func TestPromotionUseCase_PromoteDraft(t *testing.T) {
	f := newPromotionFixture(t, false)
	ctx := context.Background()

	draftID := f.seedDraft(t, "user-1")
	before, err := f.drafts.LoadDraft(ctx, draftID, "user-1")
	require.NoError(t, err)

	f.expectThumbnail()
	f.expectEvent()

	res, err := f.promotion.PromoteDraft(ctx, draftID, dto.PromoteDraftRequest{
		Name:     "Coast loop",
		IsPublic: true,
		Tags:     []string{"gravel"},
	}, "user-1")
	require.NoError(t, err)
	require.NotEmpty(t, res.RouteID)
	assert.Equal(t, dto.OutcomeSucceeded, res.Outcome)
	assert.Empty(t, res.Warnings)
	assert.Equal(t, "https://cdn.example/thumbnails/r.png", res.ThumbnailURL)

	t.Run("summary follows the chained loop rule", func(t *testing.T) {
		require.NotNil(t, res.Statistics)
		assert.Equal(t, 25.0, res.Statistics.TotalDistanceKm)
		assert.True(t, res.Statistics.IsLoop)
		assert.Equal(t, 4, res.Statistics.UnpavedPercentage)
		assert.Equal(t, []string{"Spain"}, res.Statistics.Countries)
	})

	t.Run("saved route holds the draft content", func(t *testing.T) {
		route, err := f.saved.GetRoute(ctx, res.RouteID, "user-1")
		require.NoError(t, err)

		assert.Equal(t, domain.RouteKindSaved, route.Kind)
		assert.Empty(t, route.Status)
		assert.Equal(t, draftID, route.PromotedFrom)
		assert.Equal(t, "thumbnails/r", route.ThumbnailRef)
		assert.Equal(t, before.Segments, route.Segments)
		assert.Equal(t, before.POIs, route.POIs)
		assert.Equal(t, before.Lines, route.Lines)
		assert.Equal(t, before.Photos, route.Photos)
	})

	t.Run("source draft is removed", func(t *testing.T) {
		_, err := f.drafts.LoadDraft(ctx, draftID, "user-1")
		assert.ErrorIs(t, err, apperrors.ErrRouteNotFound)
	})

	t.Run("index entry is written", func(t *testing.T) {
		list, err := f.saved.ListUserRoutes(ctx, "user-1")
		require.NoError(t, err)
		require.Equal(t, 1, list.Total)
		assert.Equal(t, res.RouteID, list.Routes[0].RouteID)
		assert.Equal(t, "Coast loop", list.Routes[0].Name)
		assert.Equal(t, []string{"gravel"}, list.Routes[0].Tags)
		assert.True(t, list.Routes[0].IsPublic)
	})

	f.renderer.AssertExpectations(t)
	f.media.AssertExpectations(t)
	f.stream.AssertExpectations(t)
}

func TestPromotionUseCase_CleanupFailureKeepsPromotion(t *testing.T) {
	f := newPromotionFixture(t, true)
	ctx := context.Background()

	draftID := f.seedDraft(t, "user-1")
	f.expectThumbnail()
	f.expectEvent()

	res, err := f.promotion.PromoteDraft(ctx, draftID, dto.PromoteDraftRequest{Name: "Kept"}, "user-1")
	require.NoError(t, err)
	require.NotEmpty(t, res.RouteID)
	assert.Equal(t, dto.OutcomeDegraded, res.Outcome)
	require.Len(t, res.Warnings, 1)
	assert.Equal(t, dto.WarningDraftCleanupFailed, res.Warnings[0].Code)

	_, err = f.saved.GetRoute(ctx, res.RouteID, "user-1")
	require.NoError(t, err)

	// the leftover draft stays readable but is retired
	leftover, err := f.drafts.LoadDraft(ctx, draftID, "user-1")
	require.NoError(t, err)
	assert.Equal(t, domain.DraftStatusPromoted, leftover.Status)

	t.Run("latest draft skips it", func(t *testing.T) {
		_, err := f.drafts.LatestDraft(ctx, "user-1")
		assert.ErrorIs(t, err, apperrors.ErrRouteNotFound)
	})

	t.Run("explicit draft id is not a write target", func(t *testing.T) {
		resolved, err := f.drafts.ResolveOrCreateDraft(ctx, dto.ResolveDraftRequest{
			Target: dto.SaveTarget{DraftID: draftID},
		}, "user-1")
		require.NoError(t, err)
		assert.True(t, resolved.Created)
		assert.NotEqual(t, draftID, resolved.RouteID)
	})

	t.Run("second promotion is rejected", func(t *testing.T) {
		_, err := f.promotion.PromoteDraft(ctx, draftID, dto.PromoteDraftRequest{Name: "Again"}, "user-1")
		assert.ErrorIs(t, err, apperrors.ErrRouteNotFound)

		list, err := f.saved.ListUserRoutes(ctx, "user-1")
		require.NoError(t, err)
		assert.Len(t, list.Routes, 1)
	})
}

func TestPromotionUseCase_DegradedSteps(t *testing.T) {
	t.Run("thumbnail failure does not abort promotion", func(t *testing.T) {
		f := newPromotionFixture(t, false)
		ctx := context.Background()
		draftID := f.seedDraft(t, "user-1")

		f.renderer.On("Render", mock.Anything, mock.Anything).Return(nil, errors.New("mapbox: 401")).Once()
		f.stream.On("PublishToStream", mock.Anything, domain.StreamRoutePromoted, mock.MatchedBy(func(e domain.RoutePromotedEvent) bool {
			return !e.HasThumbnail && e.DraftID == draftID
		})).Return(nil).Once()

		res, err := f.promotion.PromoteDraft(ctx, draftID, dto.PromoteDraftRequest{Name: "No thumb"}, "user-1")
		require.NoError(t, err)
		assert.NotEmpty(t, res.RouteID)
		assert.Empty(t, res.ThumbnailURL)
		require.Len(t, res.Warnings, 1)
		assert.Equal(t, dto.WarningThumbnailUnavailable, res.Warnings[0].Code)

		f.stream.AssertExpectations(t)
	})

	t.Run("event publish failure is a warning", func(t *testing.T) {
		f := newPromotionFixture(t, false)
		ctx := context.Background()
		draftID := f.seedDraft(t, "user-1")

		f.expectThumbnail()
		f.stream.On("PublishToStream", mock.Anything, mock.Anything, mock.Anything).Return(errors.New("redis down")).Once()

		res, err := f.promotion.PromoteDraft(ctx, draftID, dto.PromoteDraftRequest{Name: "Quiet"}, "user-1")
		require.NoError(t, err)
		require.Len(t, res.Warnings, 1)
		assert.Equal(t, dto.WarningEventPublishFailed, res.Warnings[0].Code)
	})
}

func TestPromotionUseCase_Failures(t *testing.T) {
	f := newPromotionFixture(t, false)
	ctx := context.Background()

	t.Run("missing draft", func(t *testing.T) {
		_, err := f.promotion.PromoteDraft(ctx, "missing", dto.PromoteDraftRequest{Name: "x"}, "user-1")
		assert.ErrorIs(t, err, apperrors.ErrRouteNotFound)
	})

	t.Run("foreign draft", func(t *testing.T) {
		draftID := f.seedDraft(t, "user-1")
		_, err := f.promotion.PromoteDraft(ctx, draftID, dto.PromoteDraftRequest{Name: "x"}, "user-2")
		assert.ErrorIs(t, err, apperrors.ErrPermissionDenied)
	})

	t.Run("store not configured", func(t *testing.T) {
		uc := usecase.NewPromotionUseCase(nil, usecase.NewMediaMaterializer(nil, 1, "", zap.NewNop()), nil, nil, zap.NewNop())
		_, err := uc.PromoteDraft(ctx, "d1", dto.PromoteDraftRequest{Name: "x"}, "user-1")
		assert.ErrorIs(t, err, apperrors.ErrNotInitialized)
	})
}
