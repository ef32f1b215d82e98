package usecase_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/route-draft-service/internal/domain"
	"github.com/route-draft-service/internal/pkg/errors"
	"github.com/route-draft-service/internal/usecase"
	"github.com/route-draft-service/internal/usecase/dto"
)

func newDraftUseCase(env *testEnv, media *MockMediaService) *usecase.DraftUseCase {
	var materializer *usecase.MediaMaterializer
	if media != nil {
		materializer = usecase.NewMediaMaterializer(media, 2, "", zap.NewNop())
	} else {
		materializer = usecase.NewMediaMaterializer(nil, 2, "", zap.NewNop())
	}
	return usecase.NewDraftUseCase(env.routes, materializer, env.cache, zap.NewNop())
}

func TestDraftUseCase_NotInitialized(t *testing.T) {
	uc := usecase.NewDraftUseCase(nil, usecase.NewMediaMaterializer(nil, 1, "", zap.NewNop()), nil, zap.NewNop())
	ctx := context.Background()

	_, err := uc.ResolveOrCreateDraft(ctx, dto.ResolveDraftRequest{}, "user-1")
	assert.ErrorIs(t, err, errors.ErrNotInitialized)

	_, err = uc.SaveRouteFragment(ctx, dto.SaveSegmentRequest{Segment: testSegment("s1", 10)}, "user-1")
	assert.ErrorIs(t, err, errors.ErrNotInitialized)

	_, err = uc.MergePOIs(ctx, dto.MergePOIsRequest{}, "user-1")
	assert.ErrorIs(t, err, errors.ErrNotInitialized)

	_, err = uc.LatestDraft(ctx, "user-1")
	assert.ErrorIs(t, err, errors.ErrNotInitialized)
}

func TestDraftUseCase_ResolveOrCreateDraft(t *testing.T) {
	env := newTestEnv(t)
	uc := newDraftUseCase(env, nil)
	ctx := context.Background()

	created, err := uc.ResolveOrCreateDraft(ctx, dto.ResolveDraftRequest{Name: "Pyrenees"}, "user-1")
	require.NoError(t, err)
	assert.True(t, created.Created)
	assert.Equal(t, domain.RouteKindDraft, created.Kind)

	t.Run("explicit draft id is reused", func(t *testing.T) {
		res, err := uc.ResolveOrCreateDraft(ctx, dto.ResolveDraftRequest{
			Target: dto.SaveTarget{DraftID: created.RouteID},
		}, "user-1")
		require.NoError(t, err)
		assert.False(t, res.Created)
		assert.Equal(t, created.RouteID, res.RouteID)
	})

	t.Run("session hint is used when draft id is unknown", func(t *testing.T) {
		res, err := uc.ResolveOrCreateDraft(ctx, dto.ResolveDraftRequest{
			Target: dto.SaveTarget{DraftID: "missing", SessionDraftID: created.RouteID},
		}, "user-1")
		require.NoError(t, err)
		assert.False(t, res.Created)
		assert.Equal(t, created.RouteID, res.RouteID)
	})

	t.Run("foreign draft is treated as absent", func(t *testing.T) {
		res, err := uc.ResolveOrCreateDraft(ctx, dto.ResolveDraftRequest{
			Target: dto.SaveTarget{DraftID: created.RouteID},
		}, "user-2")
		require.NoError(t, err)
		assert.True(t, res.Created)
		assert.NotEqual(t, created.RouteID, res.RouteID)
	})

	t.Run("unknown permanent id fails", func(t *testing.T) {
		_, err := uc.ResolveOrCreateDraft(ctx, dto.ResolveDraftRequest{
			Target: dto.SaveTarget{PermanentID: "nope", DraftID: created.RouteID},
		}, "user-1")
		assert.ErrorIs(t, err, errors.ErrRouteNotFound)
	})

	t.Run("anonymous caller is rejected", func(t *testing.T) {
		_, err := uc.ResolveOrCreateDraft(ctx, dto.ResolveDraftRequest{}, "")
		assert.ErrorIs(t, err, errors.ErrUnauthorized)
	})

	draft, err := uc.LoadDraft(ctx, created.RouteID, "user-1")
	require.NoError(t, err)
	assert.Equal(t, "Pyrenees", draft.Name)
	assert.Equal(t, domain.DraftStatusPendingAction, draft.Status)
}

func TestDraftUseCase_SaveRouteFragment(t *testing.T) {
	env := newTestEnv(t)
	uc := newDraftUseCase(env, nil)
	ctx := context.Background()

	seg := testSegment("s1", 10000,
		domain.Position{2.1, 41.3, 12},
		domain.Position{2.2, 41.4, 30},
		domain.Position{2.3, 41.5, 55},
	)
	seg.SourceFileName = "ride.gpx"

	res, err := uc.SaveRouteFragment(ctx, dto.SaveSegmentRequest{Segment: seg}, "user-1")
	require.NoError(t, err)
	assert.True(t, res.Created)
	assert.Equal(t, dto.OutcomeSucceeded, res.Outcome)

	draft, err := uc.LoadDraft(ctx, res.RouteID, "user-1")
	require.NoError(t, err)
	assert.Equal(t, "Segment s1", draft.Name)
	assert.Equal(t, "ride.gpx", draft.SourceFileName)
	require.Len(t, draft.Segments, 1)
	assert.Equal(t, seg.Coordinates, draft.Segments[0].Coordinates)
	assert.False(t, draft.Segments[0].AddedAt.IsZero())

	t.Run("geometry is replaced and position kept", func(t *testing.T) {
		second := testSegment("s2", 5000, domain.Position{1, 1}, domain.Position{2, 2})
		_, err := uc.SaveRouteFragment(ctx, dto.SaveSegmentRequest{
			Target:  dto.SaveTarget{DraftID: res.RouteID},
			Segment: second,
		}, "user-1")
		require.NoError(t, err)

		updated := testSegment("s1", 12000, domain.Position{3, 3}, domain.Position{4, 4})
		_, err = uc.SaveRouteFragment(ctx, dto.SaveSegmentRequest{
			Target:    dto.SaveTarget{DraftID: res.RouteID},
			Segment:   updated,
			RouteName: "Renamed",
		}, "user-1")
		require.NoError(t, err)

		draft, err := uc.LoadDraft(ctx, res.RouteID, "user-1")
		require.NoError(t, err)
		require.Len(t, draft.Segments, 2)
		assert.Equal(t, "s1", draft.Segments[0].SegmentID)
		assert.Equal(t, []domain.Position{{3, 3}, {4, 4}}, draft.Segments[0].Coordinates)
		assert.Equal(t, 12000.0, draft.Segments[0].Statistics.TotalDistance)
		assert.Equal(t, "Renamed", draft.Name)
	})

	t.Run("segment id is required", func(t *testing.T) {
		_, err := uc.SaveRouteFragment(ctx, dto.SaveSegmentRequest{Segment: domain.Segment{}}, "user-1")
		assert.ErrorIs(t, err, errors.ErrInvalidRequest)
	})

	t.Run("malformed unpaved section aborts the commit", func(t *testing.T) {
		bad := testSegment("s3", 100, domain.Position{1, 1}, domain.Position{2, 2})
		bad.UnpavedSections = []domain.UnpavedSection{{StartIndex: 5, EndIndex: 1}}

		_, err := uc.SaveRouteFragment(ctx, dto.SaveSegmentRequest{
			Target:  dto.SaveTarget{DraftID: res.RouteID},
			Segment: bad,
		}, "user-1")
		assert.ErrorIs(t, err, errors.ErrEncodingError)

		draft, err := uc.LoadDraft(ctx, res.RouteID, "user-1")
		require.NoError(t, err)
		assert.Len(t, draft.Segments, 2)
	})
}

func TestDraftUseCase_MergePOIs(t *testing.T) {
	env := newTestEnv(t)
	uc := newDraftUseCase(env, nil)
	ctx := context.Background()

	first, err := uc.MergePOIs(ctx, dto.MergePOIsRequest{
		Draggable: []domain.POI{{ID: "1", Name: "a"}},
		Places: []domain.POI{{
			ID:               "p1",
			Name:             "Cafe",
			ExternalPlaceRef: &domain.ExternalPlaceRef{PlaceID: "g-123", URL: "https://maps.example/g-123"},
		}},
	}, "user-1")
	require.NoError(t, err)
	target := dto.SaveTarget{DraftID: first.RouteID}

	req := dto.MergePOIsRequest{
		Target:    target,
		Draggable: []domain.POI{{ID: "1", Name: "b"}, {ID: "2", Name: "c"}},
	}
	_, err = uc.MergePOIs(ctx, req, "user-1")
	require.NoError(t, err)
	_, err = uc.MergePOIs(ctx, req, "user-1")
	require.NoError(t, err)

	draft, err := uc.LoadDraft(ctx, first.RouteID, "user-1")
	require.NoError(t, err)
	assert.Equal(t, []domain.POI{{ID: "1", Name: "b"}, {ID: "2", Name: "c"}}, draft.POIs.Draggable)
	require.Len(t, draft.POIs.Places, 1, "nil bucket is left untouched")
	assert.Equal(t, "g-123", draft.POIs.Places[0].ExternalPlaceRef.PlaceID)

	t.Run("poi without id is rejected", func(t *testing.T) {
		_, err := uc.MergePOIs(ctx, dto.MergePOIsRequest{Target: target, Places: []domain.POI{{Name: "x"}}}, "user-1")
		assert.ErrorIs(t, err, errors.ErrInvalidRequest)
	})
}

func TestDraftUseCase_MergeLines(t *testing.T) {
	localPhoto := domain.PhotoRef{
		ID:           "lp1",
		Name:         "trail.jpg",
		Caption:      "ridge",
		ThumbnailURL: "blob:thumb-lp1",
		Coordinates:  &domain.LngLat{Lng: 2.1, Lat: 41.1},
		IsLocal:      true,
	}
	existing := []domain.Line{
		{ID: "l0", Name: "old", Coordinates: []domain.LngLat{{Lng: 1, Lat: 1}, {Lng: 1.1, Lat: 1.1}}, Photos: []domain.PhotoRef{}},
		{ID: "l1", Name: "before", Coordinates: []domain.LngLat{{Lng: 2, Lat: 41}, {Lng: 2.1, Lat: 41.1}}, Photos: []domain.PhotoRef{}},
	}
	incoming := []domain.Line{
		{ID: "l2", Name: "new", Coordinates: []domain.LngLat{{Lng: 3, Lat: 42}, {Lng: 3.1, Lat: 42.1}}, Photos: []domain.PhotoRef{localPhoto}},
		{ID: "l1", Name: "after", Coordinates: []domain.LngLat{{Lng: 2, Lat: 41}, {Lng: 2.2, Lat: 41.2}}, Photos: []domain.PhotoRef{}},
	}

	tests := []struct {
		name      string
		permanent bool
		wantIDs   []string
		wantPhoto domain.PhotoRef
	}{
		{
			name:      "draft target merges by id",
			wantIDs:   []string{"l0", "l1", "l2"},
			wantPhoto: localPhoto,
		},
		{
			name:      "permanent target replaces and minimizes local photos",
			permanent: true,
			wantIDs:   []string{"l2", "l1"},
			wantPhoto: domain.PhotoRef{ID: "lp1", Name: "trail.jpg", Caption: "ridge", IsLocal: true},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t)
			uc := newDraftUseCase(env, nil)
			ctx := context.Background()

			var target dto.SaveTarget
			kind := domain.RouteKindDraft
			if tt.permanent {
				kind = domain.RouteKindSaved
				target.PermanentID = "saved-1"
				batch := env.routes.NewBatch(kind, "saved-1")
				require.NoError(t, batch.SetRecord(domain.RouteRecord{ID: "saved-1", Kind: kind, OwnerID: "user-1", Name: "Saved"}))
				require.NoError(t, batch.SetLines(existing))
				require.NoError(t, env.routes.Commit(ctx, batch))
			} else {
				first, err := uc.MergeLines(ctx, dto.MergeLinesRequest{Lines: existing}, "user-1")
				require.NoError(t, err)
				assert.True(t, first.Created)
				target.DraftID = first.RouteID
			}

			res, err := uc.MergeLines(ctx, dto.MergeLinesRequest{Target: target, Lines: incoming}, "user-1")
			require.NoError(t, err)
			assert.Equal(t, kind, res.Kind)
			assert.False(t, res.Created)

			lines, err := env.routes.GetLines(ctx, kind, res.RouteID)
			require.NoError(t, err)
			ids := make([]string, 0, len(lines))
			byID := map[string]domain.Line{}
			for _, l := range lines {
				ids = append(ids, l.ID)
				byID[l.ID] = l
			}
			assert.Equal(t, tt.wantIDs, ids)
			assert.Equal(t, "after", byID["l1"].Name)
			require.Len(t, byID["l2"].Photos, 1)
			assert.Equal(t, tt.wantPhoto, byID["l2"].Photos[0])
		})
	}

	t.Run("line without id is rejected", func(t *testing.T) {
		uc := newDraftUseCase(newTestEnv(t), nil)
		_, err := uc.MergeLines(context.Background(), dto.MergeLinesRequest{Lines: []domain.Line{{Name: "x"}}}, "user-1")
		assert.ErrorIs(t, err, errors.ErrInvalidRequest)
	})
}

func TestDraftUseCase_MergePhotos(t *testing.T) {
	env := newTestEnv(t)
	media := &MockMediaService{}
	uc := newDraftUseCase(env, media)
	ctx := context.Background()

	media.On("Upload", mock.Anything, mock.MatchedBy(func(req domain.UploadRequest) bool {
		return req.Folder == "photos" && string(req.Data) == "hello"
	})).Return(&domain.MediaRef{PublicRef: "photos/abc", URL: "https://cdn.example/photos/abc.jpg"}, nil).Once()

	res, err := uc.MergePhotos(ctx, dto.MergePhotosRequest{
		Photos: []domain.PhotoRef{
			{ID: "ph1", Name: "view.jpg", URL: "data:image/jpeg;base64,aGVsbG8="},
			{ID: "ph2", Name: "later.jpg", PendingUpload: true},
			{ID: "ph3", PublicRef: "photos/old", URL: "https://cdn.example/photos/old.jpg"},
		},
	}, "user-1")
	require.NoError(t, err)
	assert.Equal(t, dto.OutcomeDegraded, res.Outcome)
	require.Len(t, res.Warnings, 1)
	assert.Equal(t, dto.WarningUploadPending, res.Warnings[0].Code)

	draft, err := uc.LoadDraft(ctx, res.RouteID, "user-1")
	require.NoError(t, err)
	require.Len(t, draft.Photos, 3)
	assert.Equal(t, "photos/abc", draft.Photos[0].PublicRef)
	assert.False(t, draft.Photos[0].PendingUpload)
	assert.True(t, draft.Photos[1].PendingUpload)
	assert.Equal(t, "photos/old", draft.Photos[2].PublicRef)

	media.AssertExpectations(t)
}

func TestDraftUseCase_SaveDescriptionAndOverview(t *testing.T) {
	env := newTestEnv(t)
	uc := newDraftUseCase(env, nil)
	ctx := context.Background()

	res, err := uc.SaveDescription(ctx, dto.SaveDescriptionRequest{
		Description: "Three days along the coast",
		Photos:      []domain.PhotoRef{{ID: "l1", Name: "local.jpg", Caption: "dawn", IsLocal: true, URL: "blob:http://app/1"}},
	}, "user-1")
	require.NoError(t, err)

	_, err = uc.SaveMapOverview(ctx, dto.SaveMapOverviewRequest{
		Target:      dto.SaveTarget{DraftID: res.RouteID},
		Description: "Start at the harbour",
	}, "user-1")
	require.NoError(t, err)

	draft, err := uc.LoadDraft(ctx, res.RouteID, "user-1")
	require.NoError(t, err)
	require.NotNil(t, draft.DescriptionDoc)
	assert.Equal(t, "Three days along the coast", draft.DescriptionDoc.Text)
	assert.Equal(t, []domain.PhotoRef{{ID: "l1", Name: "local.jpg", Caption: "dawn", IsLocal: true}}, draft.DescriptionDoc.Photos)
	require.NotNil(t, draft.MapOverview)
	assert.Equal(t, "Start at the harbour", draft.MapOverview.Description)
}

func TestDraftUseCase_UpdateHeaderSettings(t *testing.T) {
	env := newTestEnv(t)
	uc := newDraftUseCase(env, nil)
	ctx := context.Background()

	t.Run("target must exist", func(t *testing.T) {
		_, err := uc.UpdateHeaderSettings(ctx, dto.UpdateHeaderSettingsRequest{
			Settings: domain.HeaderSettings{Color: "#fff"},
		}, "user-1")
		assert.ErrorIs(t, err, errors.ErrRouteNotFound)
	})

	t.Run("blob logo without asset is cleared", func(t *testing.T) {
		created, err := uc.ResolveOrCreateDraft(ctx, dto.ResolveDraftRequest{}, "user-1")
		require.NoError(t, err)

		res, err := uc.UpdateHeaderSettings(ctx, dto.UpdateHeaderSettingsRequest{
			Target:   dto.SaveTarget{DraftID: created.RouteID},
			Settings: domain.HeaderSettings{Color: "#fff", Username: "rider", LogoURL: "blob:http://app/logo"},
		}, "user-1")
		require.NoError(t, err)
		assert.True(t, res.Degraded())

		draft, err := uc.LoadDraft(ctx, created.RouteID, "user-1")
		require.NoError(t, err)
		require.NotNil(t, draft.HeaderSettings)
		assert.Equal(t, "rider", draft.HeaderSettings.Username)
		assert.Empty(t, draft.HeaderSettings.LogoURL)
	})
}

func TestDraftUseCase_SegmentEditing(t *testing.T) {
	env := newTestEnv(t)
	uc := newDraftUseCase(env, nil)
	ctx := context.Background()

	res, err := uc.SaveRouteFragment(ctx, dto.SaveSegmentRequest{
		Segment: testSegment("s1", 1000, domain.Position{1, 1}, domain.Position{2, 2}),
	}, "user-1")
	require.NoError(t, err)
	_, err = uc.SaveRouteFragment(ctx, dto.SaveSegmentRequest{
		Target:  dto.SaveTarget{DraftID: res.RouteID},
		Segment: testSegment("s2", 1000, domain.Position{2, 2}, domain.Position{3, 3}),
	}, "user-1")
	require.NoError(t, err)

	t.Run("owner mismatch", func(t *testing.T) {
		_, err := uc.UpdateSegmentProperties(ctx, res.RouteID, "s1", dto.UpdateSegmentRequest{Name: ptr("x")}, "user-2")
		assert.ErrorIs(t, err, errors.ErrPermissionDenied)
	})

	t.Run("unknown segment", func(t *testing.T) {
		_, err := uc.UpdateSegmentProperties(ctx, res.RouteID, "s9", dto.UpdateSegmentRequest{Name: ptr("x")}, "user-1")
		assert.ErrorIs(t, err, errors.ErrSegmentNotFound)
	})

	t.Run("bikepacking toggle manages master route", func(t *testing.T) {
		_, err := uc.UpdateMasterRoute(ctx, res.RouteID, dto.UpdateMasterRouteRequest{Description: "x"}, "user-1")
		assert.ErrorIs(t, err, errors.ErrInvalidRequest)

		_, err = uc.UpdateSegmentProperties(ctx, res.RouteID, "s1", dto.UpdateSegmentRequest{
			Name:      ptr("Day 1"),
			Color:     ptr("#00ff00"),
			RouteType: ptr(domain.RouteTypeBikepacking),
		}, "user-1")
		require.NoError(t, err)

		_, err = uc.UpdateMasterRoute(ctx, res.RouteID, dto.UpdateMasterRouteRequest{Description: "Two days"}, "user-1")
		require.NoError(t, err)

		draft, err := uc.LoadDraft(ctx, res.RouteID, "user-1")
		require.NoError(t, err)
		assert.Equal(t, domain.RouteTypeBikepacking, draft.RouteType)
		assert.Equal(t, "Day 1", draft.Segments[0].Name)
		assert.Equal(t, "#00ff00", draft.Segments[0].Color)
		require.NotNil(t, draft.MasterRoute)
		assert.Equal(t, "Two days", draft.MasterRoute.Description)

		_, err = uc.UpdateSegmentProperties(ctx, res.RouteID, "s1", dto.UpdateSegmentRequest{
			RouteType: ptr(domain.RouteTypeSingle),
		}, "user-1")
		require.NoError(t, err)

		draft, err = uc.LoadDraft(ctx, res.RouteID, "user-1")
		require.NoError(t, err)
		assert.Nil(t, draft.MasterRoute)
	})

	t.Run("deleting the last segment deletes the draft", func(t *testing.T) {
		del, err := uc.DeleteSegment(ctx, res.RouteID, "s1", "user-1")
		require.NoError(t, err)
		assert.False(t, del.RouteDeleted)

		draft, err := uc.LoadDraft(ctx, res.RouteID, "user-1")
		require.NoError(t, err)
		require.Len(t, draft.Segments, 1)
		assert.Equal(t, "s2", draft.Segments[0].SegmentID)

		del, err = uc.DeleteSegment(ctx, res.RouteID, "s2", "user-1")
		require.NoError(t, err)
		assert.True(t, del.RouteDeleted)

		_, err = uc.LoadDraft(ctx, res.RouteID, "user-1")
		assert.ErrorIs(t, err, errors.ErrRouteNotFound)
	})
}

func TestDraftUseCase_LoadAndLatestDraft(t *testing.T) {
	env := newTestEnv(t)
	uc := newDraftUseCase(env, nil)
	ctx := context.Background()

	_, err := uc.LatestDraft(ctx, "user-1")
	assert.ErrorIs(t, err, errors.ErrRouteNotFound)

	older, err := uc.ResolveOrCreateDraft(ctx, dto.ResolveDraftRequest{Name: "older"}, "user-1")
	require.NoError(t, err)
	newer, err := uc.ResolveOrCreateDraft(ctx, dto.ResolveDraftRequest{Name: "newer"}, "user-1")
	require.NoError(t, err)
	_, err = uc.ResolveOrCreateDraft(ctx, dto.ResolveDraftRequest{Name: "other user"}, "user-2")
	require.NoError(t, err)

	// touching the older draft makes it the latest
	_, err = uc.SaveMapOverview(ctx, dto.SaveMapOverviewRequest{
		Target:      dto.SaveTarget{DraftID: older.RouteID},
		Description: "touched",
	}, "user-1")
	require.NoError(t, err)

	latest, err := uc.LatestDraft(ctx, "user-1")
	require.NoError(t, err)
	assert.Contains(t, []string{older.RouteID, newer.RouteID}, latest.ID)
	assert.Equal(t, "user-1", latest.OwnerID)

	_, err = uc.LoadDraft(ctx, older.RouteID, "user-2")
	assert.ErrorIs(t, err, errors.ErrRouteNotFound)
}
