package document

import (
	"fmt"
	"strings"

	"github.com/route-draft-service/internal/domain"
	"github.com/route-draft-service/internal/domain/repository"
)

const (
	userIndexCollection = "user_route_index"

	docSegments    = "segments"
	docPOIs        = "pois"
	docLines       = "lines"
	docPhotos      = "photos"
	docDescription = "description"
	docMasterRoute = "masterRoute"
	docMapOverview = "mapOverview"

	geomCoords    = "coords"
	geomElevation = "elevation"
	geomUnpaved   = "unpaved"
)

// RecordPath - путь главного документа
func RecordPath(kind domain.RouteKind, id string) string {
	return kind.Namespace() + "/" + id
}

// DataPath - путь вложенного документа маршрута
func DataPath(kind domain.RouteKind, id, name string) string {
	return RecordPath(kind, id) + "/data/" + name
}

// SegmentDataPath - путь документа геометрии сегмента
func SegmentDataPath(kind domain.RouteKind, id, segmentID, name string) string {
	return RecordPath(kind, id) + "/segments/" + segmentID + "/data/" + name
}

// UserIndexPath - путь индекса маршрутов пользователя
func UserIndexPath(userID string) string {
	return userIndexCollection + "/" + userID
}

// checkID не даёт id ломать иерархию путей
func checkID(id string) error {
	if id == "" || strings.ContainsAny(id, "/") || id == "." || id == ".." {
		return fmt.Errorf("%w: invalid id %q", repository.ErrEncoding, id)
	}
	return nil
}
