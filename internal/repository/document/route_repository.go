package document

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/route-draft-service/internal/domain"
	"github.com/route-draft-service/internal/domain/repository"
	"github.com/route-draft-service/internal/pkg/geometry"
	"go.uber.org/zap"
)

type routeRepository struct {
	store  repository.DocumentStore
	logger *zap.Logger
}

// NewRouteRepository создает репозиторий маршрутов поверх хранилища документов
func NewRouteRepository(store repository.DocumentStore, logger *zap.Logger) repository.RouteRepository {
	return &routeRepository{
		store:  store,
		logger: logger,
	}
}

func (r *routeRepository) GetRecord(ctx context.Context, kind domain.RouteKind, id string) (*domain.RouteRecord, error) {
	if err := checkID(id); err != nil {
		return nil, repository.ErrDocumentNotFound
	}

	path := RecordPath(kind, id)
	data, err := r.store.Get(ctx, path)
	if err != nil {
		if !errors.Is(err, repository.ErrDocumentNotFound) {
			r.logger.Error("Failed to get route record", zap.String("path", path), zap.Error(err))
		}
		return nil, err
	}

	var doc recordDocument
	if err := decode(data, &doc); err != nil {
		r.logger.Error("Route record does not match schema", zap.String("path", path), zap.Error(err))
		return nil, err
	}
	if doc.Kind != kind || doc.ID != id {
		r.logger.Error("Route record identity mismatch",
			zap.String("path", path),
			zap.String("kind", string(doc.Kind)),
			zap.String("id", doc.ID))
		return nil, fmt.Errorf("%w: record at %s has kind %q id %q", repository.ErrSchemaMismatch, path, doc.Kind, doc.ID)
	}

	return &doc.RouteRecord, nil
}

// LoadRoute собирает маршрут за три чтения: главный документ, вложенные документы, геометрия сегментов
func (r *routeRepository) LoadRoute(ctx context.Context, kind domain.RouteKind, id string) (*domain.Route, error) {
	record, err := r.GetRecord(ctx, kind, id)
	if err != nil {
		return nil, err
	}

	route := &domain.Route{
		RouteRecord: *record,
		Segments:    []domain.Segment{},
		POIs:        domain.POIBuckets{Draggable: []domain.POI{}, Places: []domain.POI{}},
		Lines:       []domain.Line{},
		Photos:      []domain.PhotoRef{},
	}

	dataPaths := []string{
		DataPath(kind, id, docSegments),
		DataPath(kind, id, docPOIs),
		DataPath(kind, id, docLines),
		DataPath(kind, id, docPhotos),
		DataPath(kind, id, docDescription),
		DataPath(kind, id, docMasterRoute),
		DataPath(kind, id, docMapOverview),
	}
	docs, err := r.store.GetMany(ctx, dataPaths)
	if err != nil {
		r.logger.Error("Failed to read route documents", zap.String("route_id", id), zap.Error(err))
		return nil, err
	}

	var segments []domain.SegmentMeta
	if data, ok := docs[dataPaths[0]]; ok {
		var doc segmentsDocument
		if err := decode(data, &doc); err != nil {
			return nil, r.schemaError(dataPaths[0], err)
		}
		segments = doc.Segments
	}
	if data, ok := docs[dataPaths[1]]; ok {
		var doc poisDocument
		if err := decode(data, &doc); err != nil {
			return nil, r.schemaError(dataPaths[1], err)
		}
		route.POIs = normalizePOIs(doc.POIBuckets)
	}
	if data, ok := docs[dataPaths[2]]; ok {
		var doc linesDocument
		if err := decode(data, &doc); err != nil {
			return nil, r.schemaError(dataPaths[2], err)
		}
		if doc.Lines != nil {
			route.Lines = doc.Lines
		}
	}
	if data, ok := docs[dataPaths[3]]; ok {
		var doc photosDocument
		if err := decode(data, &doc); err != nil {
			return nil, r.schemaError(dataPaths[3], err)
		}
		if doc.Photos != nil {
			route.Photos = doc.Photos
		}
	}
	if data, ok := docs[dataPaths[4]]; ok {
		var doc descriptionDocument
		if err := decode(data, &doc); err != nil {
			return nil, r.schemaError(dataPaths[4], err)
		}
		route.DescriptionDoc = &doc.Description
	}
	if data, ok := docs[dataPaths[5]]; ok {
		var doc masterRouteDocument
		if err := decode(data, &doc); err != nil {
			return nil, r.schemaError(dataPaths[5], err)
		}
		route.MasterRoute = &doc.MasterRoute
	}
	if data, ok := docs[dataPaths[6]]; ok {
		var doc mapOverviewDocument
		if err := decode(data, &doc); err != nil {
			return nil, r.schemaError(dataPaths[6], err)
		}
		route.MapOverview = &doc.MapOverview
	}

	if len(segments) == 0 {
		return route, nil
	}

	geomPaths := make([]string, 0, len(segments)*3)
	for _, s := range segments {
		geomPaths = append(geomPaths,
			SegmentDataPath(kind, id, s.SegmentID, geomCoords),
			SegmentDataPath(kind, id, s.SegmentID, geomElevation),
			SegmentDataPath(kind, id, s.SegmentID, geomUnpaved),
		)
	}
	geomDocs, err := r.store.GetMany(ctx, geomPaths)
	if err != nil {
		r.logger.Error("Failed to read segment geometry", zap.String("route_id", id), zap.Error(err))
		return nil, err
	}

	route.Segments = make([]domain.Segment, 0, len(segments))
	for i, meta := range segments {
		segment := domain.Segment{
			SegmentMeta:     meta,
			Coordinates:     []domain.Position{},
			Elevation:       []float64{},
			UnpavedSections: []domain.UnpavedSection{},
		}

		coordsPath, elevationPath, unpavedPath := geomPaths[i*3], geomPaths[i*3+1], geomPaths[i*3+2]
		if data, ok := geomDocs[coordsPath]; ok {
			var doc coordsDocument
			if err := decode(data, &doc); err != nil {
				return nil, r.schemaError(coordsPath, err)
			}
			segment.Coordinates = geometry.DecodeCoordinates(doc.Coordinates)
		}
		if data, ok := geomDocs[elevationPath]; ok {
			var doc elevationDocument
			if err := decode(data, &doc); err != nil {
				return nil, r.schemaError(elevationPath, err)
			}
			if doc.Samples != nil {
				segment.Elevation = doc.Samples
			}
		}
		if data, ok := geomDocs[unpavedPath]; ok {
			var doc unpavedDocument
			if err := decode(data, &doc); err != nil {
				return nil, r.schemaError(unpavedPath, err)
			}
			segment.UnpavedSections = geometry.DecodeUnpavedSections(doc.Sections)
		}

		route.Segments = append(route.Segments, segment)
	}

	return route, nil
}

func (r *routeRepository) GetSegments(ctx context.Context, kind domain.RouteKind, id string) ([]domain.SegmentMeta, error) {
	var doc segmentsDocument
	found, err := r.getData(ctx, DataPath(kind, id, docSegments), &doc)
	if err != nil || !found || doc.Segments == nil {
		return []domain.SegmentMeta{}, err
	}
	return doc.Segments, nil
}

func (r *routeRepository) GetPOIs(ctx context.Context, kind domain.RouteKind, id string) (domain.POIBuckets, error) {
	var doc poisDocument
	found, err := r.getData(ctx, DataPath(kind, id, docPOIs), &doc)
	if err != nil || !found {
		return normalizePOIs(domain.POIBuckets{}), err
	}
	return normalizePOIs(doc.POIBuckets), nil
}

func (r *routeRepository) GetLines(ctx context.Context, kind domain.RouteKind, id string) ([]domain.Line, error) {
	var doc linesDocument
	found, err := r.getData(ctx, DataPath(kind, id, docLines), &doc)
	if err != nil || !found || doc.Lines == nil {
		return []domain.Line{}, err
	}
	return doc.Lines, nil
}

func (r *routeRepository) GetPhotos(ctx context.Context, kind domain.RouteKind, id string) ([]domain.PhotoRef, error) {
	var doc photosDocument
	found, err := r.getData(ctx, DataPath(kind, id, docPhotos), &doc)
	if err != nil || !found || doc.Photos == nil {
		return []domain.PhotoRef{}, err
	}
	return doc.Photos, nil
}

func (r *routeRepository) FindDraftsByOwner(ctx context.Context, ownerID string) ([]domain.RouteRecord, error) {
	docs, err := r.store.FindByField(ctx, domain.RouteKindDraft.Namespace(), "ownerId", ownerID)
	if err != nil {
		r.logger.Error("Failed to find drafts by owner", zap.String("owner_id", ownerID), zap.Error(err))
		return nil, err
	}

	records := make([]domain.RouteRecord, 0, len(docs))
	for _, d := range docs {
		var doc recordDocument
		if err := decode(d.Data, &doc); err != nil {
			// Битый черновик не должен мешать найти остальные
			r.logger.Warn("Skipping draft with unexpected schema", zap.String("path", d.Path), zap.Error(err))
			continue
		}
		records = append(records, doc.RouteRecord)
	}
	return records, nil
}

func (r *routeRepository) NewBatch(kind domain.RouteKind, id string) repository.RouteBatch {
	return newRouteBatch(kind, id)
}

func (r *routeRepository) Commit(ctx context.Context, batch repository.RouteBatch) error {
	b, ok := batch.(*routeBatch)
	if !ok {
		return fmt.Errorf("unsupported batch type %T", batch)
	}
	if err := checkID(b.id); err != nil {
		return err
	}
	if b.Len() == 0 {
		return nil
	}

	if err := r.store.Commit(ctx, b.batch); err != nil {
		r.logger.Error("Failed to commit route batch",
			zap.String("route_id", b.id),
			zap.String("kind", string(b.kind)),
			zap.Strings("ops", b.batch.Paths()),
			zap.Error(err))
		return err
	}

	r.logger.Debug("Route batch committed",
		zap.String("route_id", b.id),
		zap.Int("ops", b.Len()))
	return nil
}

func (r *routeRepository) DeleteRoute(ctx context.Context, kind domain.RouteKind, id string) error {
	if err := checkID(id); err != nil {
		return err
	}
	if err := r.store.DeleteTree(ctx, RecordPath(kind, id)); err != nil {
		r.logger.Error("Failed to delete route tree",
			zap.String("route_id", id),
			zap.String("kind", string(kind)),
			zap.Error(err))
		return err
	}
	return nil
}

func (r *routeRepository) GetUserIndex(ctx context.Context, userID string) (*domain.UserRouteIndex, error) {
	if err := checkID(userID); err != nil {
		return nil, err
	}
	var doc userIndexDocument
	found, err := r.getData(ctx, UserIndexPath(userID), &doc)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, repository.ErrDocumentNotFound
	}
	if doc.Routes == nil {
		doc.Routes = []domain.UserIndexEntry{}
	}
	return &doc.UserRouteIndex, nil
}

func (r *routeRepository) PutUserIndex(ctx context.Context, index *domain.UserRouteIndex) error {
	if err := checkID(index.UserID); err != nil {
		return err
	}
	if index.Routes == nil {
		index.Routes = []domain.UserIndexEntry{}
	}

	data, err := json.Marshal(userIndexDocument{SchemaVersion: SchemaVersion, UserRouteIndex: *index})
	if err != nil {
		return fmt.Errorf("%w: %w", repository.ErrEncoding, err)
	}
	if err := r.store.Set(ctx, UserIndexPath(index.UserID), data); err != nil {
		r.logger.Error("Failed to write user route index", zap.String("user_id", index.UserID), zap.Error(err))
		return err
	}
	return nil
}

// getData читает и разбирает документ, found=false если документа нет
func (r *routeRepository) getData(ctx context.Context, path string, v interface{}) (bool, error) {
	data, err := r.store.Get(ctx, path)
	if errors.Is(err, repository.ErrDocumentNotFound) {
		return false, nil
	}
	if err != nil {
		r.logger.Error("Failed to get document", zap.String("path", path), zap.Error(err))
		return false, err
	}
	if err := decode(data, v); err != nil {
		return false, r.schemaError(path, err)
	}
	return true, nil
}

func (r *routeRepository) schemaError(path string, err error) error {
	r.logger.Error("Document does not match schema", zap.String("path", path), zap.Error(err))
	return fmt.Errorf("%s: %w", path, err)
}

func normalizePOIs(p domain.POIBuckets) domain.POIBuckets {
	if p.Draggable == nil {
		p.Draggable = []domain.POI{}
	}
	if p.Places == nil {
		p.Places = []domain.POI{}
	}
	return p
}
