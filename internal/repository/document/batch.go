package document

import (
	"fmt"

	"github.com/route-draft-service/internal/domain"
	"github.com/route-draft-service/internal/domain/repository"
	"github.com/route-draft-service/internal/pkg/geometry"
)

type routeBatch struct {
	kind  domain.RouteKind
	id    string
	batch *domain.WriteBatch
}

func newRouteBatch(kind domain.RouteKind, id string) *routeBatch {
	return &routeBatch{
		kind:  kind,
		id:    id,
		batch: domain.NewWriteBatch(),
	}
}

func (b *routeBatch) Kind() domain.RouteKind { return b.kind }
func (b *routeBatch) RouteID() string        { return b.id }
func (b *routeBatch) Len() int               { return b.batch.Len() }

func (b *routeBatch) SetRecord(record domain.RouteRecord) error {
	record.ID = b.id
	record.Kind = b.kind
	return b.set(RecordPath(b.kind, b.id), recordDocument{SchemaVersion: SchemaVersion, RouteRecord: record})
}

func (b *routeBatch) MergeRecord(patch domain.RecordPatch) error {
	patch.ID = b.id
	patch.Kind = b.kind
	doc := recordPatchDocument{SchemaVersion: SchemaVersion, RecordPatch: patch}
	if err := b.batch.Merge(RecordPath(b.kind, b.id), doc); err != nil {
		return fmt.Errorf("%w: %w", repository.ErrEncoding, err)
	}
	return nil
}

func (b *routeBatch) SetSegments(segments []domain.SegmentMeta) error {
	if segments == nil {
		segments = []domain.SegmentMeta{}
	}
	for _, s := range segments {
		if err := checkID(s.SegmentID); err != nil {
			return err
		}
	}
	return b.set(DataPath(b.kind, b.id, docSegments), segmentsDocument{SchemaVersion: SchemaVersion, Segments: segments})
}

// SetSegmentGeometry полностью заменяет три документа геометрии сегмента
func (b *routeBatch) SetSegmentGeometry(segment domain.Segment) error {
	if err := checkID(segment.SegmentID); err != nil {
		return err
	}

	points, err := geometry.EncodeCoordinates(segment.Coordinates, segment.Elevation)
	if err != nil {
		return fmt.Errorf("%w: segment %s: %w", repository.ErrEncoding, segment.SegmentID, err)
	}
	sections, err := geometry.EncodeUnpavedSections(segment.UnpavedSections, segment.Coordinates)
	if err != nil {
		return fmt.Errorf("%w: segment %s: %w", repository.ErrEncoding, segment.SegmentID, err)
	}

	samples := segment.Elevation
	if samples == nil {
		samples = []float64{}
	}

	if err := b.set(SegmentDataPath(b.kind, b.id, segment.SegmentID, geomCoords),
		coordsDocument{SchemaVersion: SchemaVersion, Coordinates: points}); err != nil {
		return err
	}
	if err := b.set(SegmentDataPath(b.kind, b.id, segment.SegmentID, geomElevation),
		elevationDocument{SchemaVersion: SchemaVersion, Samples: samples}); err != nil {
		return err
	}
	return b.set(SegmentDataPath(b.kind, b.id, segment.SegmentID, geomUnpaved),
		unpavedDocument{SchemaVersion: SchemaVersion, Sections: sections})
}

func (b *routeBatch) DeleteSegmentGeometry(segmentID string) {
	for _, name := range []string{geomCoords, geomElevation, geomUnpaved} {
		b.batch.Delete(SegmentDataPath(b.kind, b.id, segmentID, name))
	}
}

func (b *routeBatch) SetPOIs(pois domain.POIBuckets) error {
	if pois.Draggable == nil {
		pois.Draggable = []domain.POI{}
	}
	if pois.Places == nil {
		pois.Places = []domain.POI{}
	}
	return b.set(DataPath(b.kind, b.id, docPOIs), poisDocument{SchemaVersion: SchemaVersion, POIBuckets: pois})
}

func (b *routeBatch) SetLines(lines []domain.Line) error {
	if lines == nil {
		lines = []domain.Line{}
	}
	return b.set(DataPath(b.kind, b.id, docLines), linesDocument{SchemaVersion: SchemaVersion, Lines: lines})
}

func (b *routeBatch) SetPhotos(photos []domain.PhotoRef) error {
	if photos == nil {
		photos = []domain.PhotoRef{}
	}
	return b.set(DataPath(b.kind, b.id, docPhotos), photosDocument{SchemaVersion: SchemaVersion, Photos: photos})
}

func (b *routeBatch) SetDescription(description domain.Description) error {
	if description.Photos == nil {
		description.Photos = []domain.PhotoRef{}
	}
	return b.set(DataPath(b.kind, b.id, docDescription),
		descriptionDocument{SchemaVersion: SchemaVersion, Description: description})
}

func (b *routeBatch) SetMasterRoute(master domain.MasterRoute) error {
	return b.set(DataPath(b.kind, b.id, docMasterRoute),
		masterRouteDocument{SchemaVersion: SchemaVersion, MasterRoute: master})
}

func (b *routeBatch) DeleteMasterRoute() {
	b.batch.Delete(DataPath(b.kind, b.id, docMasterRoute))
}

func (b *routeBatch) SetMapOverview(overview domain.MapOverview) error {
	return b.set(DataPath(b.kind, b.id, docMapOverview),
		mapOverviewDocument{SchemaVersion: SchemaVersion, MapOverview: overview})
}

func (b *routeBatch) set(path string, doc interface{}) error {
	if err := b.batch.Set(path, doc); err != nil {
		return fmt.Errorf("%w: %w", repository.ErrEncoding, err)
	}
	return nil
}
