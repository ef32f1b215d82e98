package document

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/route-draft-service/internal/domain"
	"github.com/route-draft-service/internal/domain/repository"
)

// SchemaVersion - текущая версия схемы всех документов маршрута
const SchemaVersion = 1

type envelope struct {
	SchemaVersion int `json:"schemaVersion"`
}

type recordDocument struct {
	SchemaVersion int `json:"schemaVersion"`
	domain.RouteRecord
}

type recordPatchDocument struct {
	SchemaVersion int `json:"schemaVersion"`
	domain.RecordPatch
}

type segmentsDocument struct {
	SchemaVersion int                  `json:"schemaVersion"`
	Segments      []domain.SegmentMeta `json:"segments"`
}

type coordsDocument struct {
	SchemaVersion int            `json:"schemaVersion"`
	Coordinates   []domain.Point `json:"coordinates"`
}

type elevationDocument struct {
	SchemaVersion int       `json:"schemaVersion"`
	Samples       []float64 `json:"samples"`
}

type unpavedDocument struct {
	SchemaVersion int                           `json:"schemaVersion"`
	Sections      []domain.StoredUnpavedSection `json:"sections"`
}

type poisDocument struct {
	SchemaVersion int `json:"schemaVersion"`
	domain.POIBuckets
}

type linesDocument struct {
	SchemaVersion int           `json:"schemaVersion"`
	Lines         []domain.Line `json:"lines"`
}

type photosDocument struct {
	SchemaVersion int               `json:"schemaVersion"`
	Photos        []domain.PhotoRef `json:"photos"`
}

type descriptionDocument struct {
	SchemaVersion int `json:"schemaVersion"`
	domain.Description
}

type masterRouteDocument struct {
	SchemaVersion int `json:"schemaVersion"`
	domain.MasterRoute
}

type mapOverviewDocument struct {
	SchemaVersion int `json:"schemaVersion"`
	domain.MapOverview
}

type userIndexDocument struct {
	SchemaVersion int `json:"schemaVersion"`
	domain.UserRouteIndex
}

// decode проверяет версию и строго разбирает документ: лишние поля считаются несовпадением схемы
func decode(data []byte, v interface{}) error {
	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return fmt.Errorf("%w: %v", repository.ErrSchemaMismatch, err)
	}
	if env.SchemaVersion != SchemaVersion {
		return fmt.Errorf("%w: version %d, expected %d",
			repository.ErrSchemaMismatch, env.SchemaVersion, SchemaVersion)
	}

	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("%w: %v", repository.ErrSchemaMismatch, err)
	}
	return nil
}
