package domain

// RawAsset - локальный файл, ещё не загруженный в медиасервис.
// Приоритет источников: Blob, затем EmbeddedBlob, затем FilePath.
// В JSON blob передаются base64. Материализатор всегда обнуляет ассет, в хранилище он не попадает
type RawAsset struct {
	Blob         []byte `json:"blob,omitempty"`
	EmbeddedBlob []byte `json:"embeddedBlob,omitempty"`
	FilePath     string `json:"filePath,omitempty"`
	Filename     string `json:"filename,omitempty"`
	ContentType  string `json:"contentType,omitempty"`
}

// UploadRequest - запрос на загрузку в медиасервис
type UploadRequest struct {
	Data        []byte
	Filename    string
	ContentType string
	Folder      string
	PublicID    string
}

// MediaRef - постоянная ссылка на загруженный файл
type MediaRef struct {
	PublicRef string `json:"publicRef"`
	URL       string `json:"url"`
}

// StaticMapRequest - параметры статической карты для миниатюры
type StaticMapRequest struct {
	Paths  []StaticMapPath
	Width  int
	Height int
}

// StaticMapPath - одна линия на статической карте
type StaticMapPath struct {
	Color  string
	Points []LngLat
}
