package usecase_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/route-draft-service/internal/domain"
	"github.com/route-draft-service/internal/usecase"
	"github.com/route-draft-service/internal/usecase/dto"
)

func straightLine(n int) []domain.Position {
	coords := make([]domain.Position, n)
	for i := range coords {
		coords[i] = domain.Position{2.0 + float64(i)*0.001, 41.0}
	}
	return coords
}

func TestSamplePaths(t *testing.T) {
	t.Run("budget is split between segments", func(t *testing.T) {
		segments := []domain.Segment{
			testSegment("a", 1, straightLine(500)...),
			testSegment("b", 1, straightLine(30)...),
			testSegment("c", 1, domain.Position{1, 1}),
		}
		segments[1].Color = "#00ff00"

		paths := usecase.SamplePaths(segments, 100, "ee5253")
		require.Len(t, paths, 2)

		total := 0
		for _, p := range paths {
			total += len(p.Points)
		}
		assert.LessOrEqual(t, total, 100)
		assert.Len(t, paths[0].Points, 50)
		assert.Len(t, paths[1].Points, 30)
		assert.Equal(t, "ee5253", paths[0].Color)
		assert.Equal(t, "#00ff00", paths[1].Color)

		// endpoints survive sampling
		assert.Equal(t, domain.LngLat{Lng: 2.0, Lat: 41.0}, paths[0].Points[0])
		assert.InDelta(t, 2.499, paths[0].Points[49].Lng, 1e-9)
	})

	t.Run("too many segments are dropped", func(t *testing.T) {
		segments := make([]domain.Segment, 10)
		for i := range segments {
			segments[i] = testSegment("s", 1, straightLine(10)...)
		}
		paths := usecase.SamplePaths(segments, 8, "ee5253")
		assert.Len(t, paths, 4)
	})

	t.Run("no drawable geometry", func(t *testing.T) {
		assert.Empty(t, usecase.SamplePaths(nil, 100, "ee5253"))
	})
}

func TestThumbnailUseCase_Backfill(t *testing.T) {
	f := newPromotionFixture(t, false)
	ctx := context.Background()

	draftID := f.seedDraft(t, "user-1")
	f.renderer.On("Render", mock.Anything, mock.Anything).Return(nil, errors.New("timeout")).Once()
	f.stream.On("PublishToStream", mock.Anything, mock.Anything, mock.Anything).Return(nil).Once()

	promoted, err := f.promotion.PromoteDraft(ctx, draftID, dto.PromoteDraftRequest{Name: "Later"}, "user-1")
	require.NoError(t, err)
	require.Empty(t, promoted.ThumbnailURL)

	thumbnails := usecase.NewThumbnailUseCase(f.env.routes, f.renderer, f.media, f.env.cache, testThumbnailConfig, zap.NewNop())
	f.expectThumbnail()

	event := domain.RoutePromotedEvent{RouteID: promoted.RouteID, OwnerID: "user-1"}
	res, err := thumbnails.Backfill(ctx, event)
	require.NoError(t, err)
	assert.Equal(t, dto.OutcomeSucceeded, res.Outcome)

	route, err := f.saved.GetRoute(ctx, promoted.RouteID, "user-1")
	require.NoError(t, err)
	assert.Equal(t, "https://cdn.example/thumbnails/r.png", route.ThumbnailURL)

	list, err := f.saved.ListUserRoutes(ctx, "user-1")
	require.NoError(t, err)
	require.Len(t, list.Routes, 1)
	assert.Equal(t, "thumbnails/r", list.Routes[0].ThumbnailRef)

	t.Run("second delivery is skipped", func(t *testing.T) {
		res, err := thumbnails.Backfill(ctx, event)
		require.NoError(t, err)
		assert.Equal(t, dto.OutcomeSucceeded, res.Outcome)
		f.renderer.AssertExpectations(t)
	})
}
