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
	apperrors "github.com/route-draft-service/internal/pkg/errors"
	"github.com/route-draft-service/internal/usecase"
	"github.com/route-draft-service/internal/usecase/dto"
)

// promoteSeeded promotes the chained-loop draft and returns the saved route id
func promoteSeeded(t *testing.T, f *promotionFixture, owner string, public bool) string {
	t.Helper()
	draftID := f.seedDraft(t, owner)
	f.expectThumbnail()
	f.expectEvent()

	res, err := f.promotion.PromoteDraft(context.Background(), draftID, dto.PromoteDraftRequest{
		Name:     "Saved",
		IsPublic: public,
		Tags:     []string{"coast"},
	}, owner)
	require.NoError(t, err)
	return res.RouteID
}

func TestSavedRouteUseCase_GetRouteVisibility(t *testing.T) {
	f := newPromotionFixture(t, false)
	ctx := context.Background()

	private := promoteSeeded(t, f, "user-1", false)
	public := promoteSeeded(t, f, "user-1", true)

	tests := []struct {
		name    string
		routeID string
		viewer  string
		wantErr error
	}{
		{"owner reads private route", private, "user-1", nil},
		{"stranger cannot read private route", private, "user-2", apperrors.ErrRouteNotFound},
		{"stranger reads public route", public, "user-2", nil},
		{"missing route", "missing", "user-1", apperrors.ErrRouteNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// the second read is served from the cache
			for i := 0; i < 2; i++ {
				route, err := f.saved.GetRoute(ctx, tt.routeID, tt.viewer)
				if tt.wantErr != nil {
					assert.ErrorIs(t, err, tt.wantErr)
					continue
				}
				require.NoError(t, err)
				assert.Equal(t, tt.routeID, route.ID)
			}
		})
	}
}

func TestSavedRouteUseCase_UpdateSavedRoute(t *testing.T) {
	f := newPromotionFixture(t, false)
	ctx := context.Background()
	routeID := promoteSeeded(t, f, "user-1", false)

	// warm the cache so the update has something to invalidate
	_, err := f.saved.GetRoute(ctx, routeID, "user-1")
	require.NoError(t, err)

	res, err := f.saved.UpdateSavedRoute(ctx, routeID, dto.UpdateSavedRouteRequest{
		Name:        ptr("Renamed"),
		IsPublic:    ptr(true),
		Tags:        &[]string{"mtb", "coast"},
		Description: ptr("Updated text"),
	}, "user-1")
	require.NoError(t, err)
	assert.Equal(t, dto.OutcomeSucceeded, res.Outcome)

	route, err := f.saved.GetRoute(ctx, routeID, "user-2")
	require.NoError(t, err, "route became public")
	assert.Equal(t, "Renamed", route.Name)
	assert.Equal(t, "Updated text", route.Description)
	require.NotNil(t, route.DescriptionDoc)
	assert.Equal(t, "Updated text", route.DescriptionDoc.Text)

	list, err := f.saved.ListUserRoutes(ctx, "user-1")
	require.NoError(t, err)
	require.Len(t, list.Routes, 1)
	assert.Equal(t, "Renamed", list.Routes[0].Name)
	assert.Equal(t, []string{"mtb", "coast"}, list.Routes[0].Tags)
	assert.True(t, list.Routes[0].IsPublic)

	t.Run("owner mismatch", func(t *testing.T) {
		_, err := f.saved.UpdateSavedRoute(ctx, routeID, dto.UpdateSavedRouteRequest{Name: ptr("x")}, "user-2")
		assert.ErrorIs(t, err, apperrors.ErrPermissionDenied)
	})
}

func TestSavedRouteUseCase_SegmentEditing(t *testing.T) {
	f := newPromotionFixture(t, false)
	ctx := context.Background()
	routeID := promoteSeeded(t, f, "user-1", false)

	_, err := f.saved.UpdateSavedSegment(ctx, routeID, "open", dto.UpdateSavedSegmentRequest{Color: ptr("#abcdef")}, "user-1")
	require.NoError(t, err)

	res, err := f.saved.DeleteSegment(ctx, routeID, "closed", "user-1")
	require.NoError(t, err)
	assert.False(t, res.RouteDeleted)

	route, err := f.saved.GetRoute(ctx, routeID, "user-1")
	require.NoError(t, err)
	require.Len(t, route.Segments, 1)
	assert.Equal(t, "#abcdef", route.Segments[0].Color)
	require.NotNil(t, route.Statistics)
	assert.Equal(t, 15.0, route.Statistics.TotalDistanceKm)
	assert.False(t, route.Statistics.IsLoop)

	list, err := f.saved.ListUserRoutes(ctx, "user-1")
	require.NoError(t, err)
	require.Len(t, list.Routes, 1)
	assert.Equal(t, 15.0, list.Routes[0].Statistics.TotalDistanceKm)
}

func TestSavedRouteUseCase_FragmentWriteToPermanentTarget(t *testing.T) {
	f := newPromotionFixture(t, false)
	ctx := context.Background()
	routeID := promoteSeeded(t, f, "user-1", false)

	res, err := f.drafts.MergePOIs(ctx, dto.MergePOIsRequest{
		Target:    dto.SaveTarget{PermanentID: routeID, DraftID: "ignored"},
		Draggable: []domain.POI{{ID: "poi-9", Name: "Only"}},
	}, "user-1")
	require.NoError(t, err)
	assert.Equal(t, domain.RouteKindSaved, res.Kind)
	assert.False(t, res.Created)

	route, err := f.saved.GetRoute(ctx, routeID, "user-1")
	require.NoError(t, err)
	assert.Equal(t, []domain.POI{{ID: "poi-9", Name: "Only"}}, route.POIs.Draggable, "saved routes replace buckets")
	assert.Len(t, route.POIs.Places, 1)

	t.Run("foreign permanent target", func(t *testing.T) {
		_, err := f.drafts.MergePOIs(ctx, dto.MergePOIsRequest{
			Target:    dto.SaveTarget{PermanentID: routeID},
			Draggable: []domain.POI{{ID: "x"}},
		}, "user-2")
		assert.ErrorIs(t, err, apperrors.ErrPermissionDenied)
	})
}

func TestSavedRouteUseCase_DeleteSavedRoute(t *testing.T) {
	t.Run("deletes route, index entry and thumbnail", func(t *testing.T) {
		f := newPromotionFixture(t, false)
		ctx := context.Background()
		routeID := promoteSeeded(t, f, "user-1", false)

		f.media.On("Delete", mock.Anything, "thumbnails/r").Return(nil).Once()

		res, err := f.saved.DeleteSavedRoute(ctx, routeID, "user-1")
		require.NoError(t, err)
		assert.True(t, res.Existed)
		assert.Equal(t, dto.OutcomeSucceeded, res.Outcome)

		_, err = f.saved.GetRoute(ctx, routeID, "user-1")
		assert.ErrorIs(t, err, apperrors.ErrRouteNotFound)

		list, err := f.saved.ListUserRoutes(ctx, "user-1")
		require.NoError(t, err)
		assert.Empty(t, list.Routes)
		f.media.AssertExpectations(t)
	})

	t.Run("missing route still cleans the index", func(t *testing.T) {
		f := newPromotionFixture(t, false)
		ctx := context.Background()
		routeID := promoteSeeded(t, f, "user-1", false)
		require.NoError(t, f.env.routes.DeleteRoute(ctx, domain.RouteKindSaved, routeID))

		res, err := f.saved.DeleteSavedRoute(ctx, routeID, "user-1")
		require.NoError(t, err)
		assert.False(t, res.Existed)

		list, err := f.saved.ListUserRoutes(ctx, "user-1")
		require.NoError(t, err)
		assert.Empty(t, list.Routes)
	})

	t.Run("owner mismatch", func(t *testing.T) {
		f := newPromotionFixture(t, false)
		routeID := promoteSeeded(t, f, "user-1", false)

		_, err := f.saved.DeleteSavedRoute(context.Background(), routeID, "user-2")
		assert.ErrorIs(t, err, apperrors.ErrPermissionDenied)
	})

	t.Run("thumbnail cleanup failure is a warning", func(t *testing.T) {
		f := newPromotionFixture(t, false)
		routeID := promoteSeeded(t, f, "user-1", false)
		f.media.On("Delete", mock.Anything, "thumbnails/r").Return(errors.New("503")).Once()

		res, err := f.saved.DeleteSavedRoute(context.Background(), routeID, "user-1")
		require.NoError(t, err)
		require.Len(t, res.Warnings, 1)
		assert.Equal(t, dto.WarningMediaCleanupFailed, res.Warnings[0].Code)
	})
}

func TestSavedRouteUseCase_NotInitialized(t *testing.T) {
	uc := usecase.NewSavedRouteUseCase(nil, nil, nil, 0, zap.NewNop())
	ctx := context.Background()

	_, err := uc.GetRoute(ctx, "r1", "user-1")
	assert.ErrorIs(t, err, apperrors.ErrNotInitialized)
	_, err = uc.DeleteSavedRoute(ctx, "r1", "user-1")
	assert.ErrorIs(t, err, apperrors.ErrNotInitialized)
	_, err = uc.ListUserRoutes(ctx, "user-1")
	assert.ErrorIs(t, err, apperrors.ErrNotInitialized)
}
