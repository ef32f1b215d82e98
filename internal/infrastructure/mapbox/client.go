package mapbox

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/route-draft-service/internal/config"
	"github.com/route-draft-service/internal/domain"
	"github.com/route-draft-service/internal/domain/repository"
	"github.com/twpayne/go-polyline"
	"go.uber.org/zap"
)

const (
	defaultStyle = "mapbox/satellite-streets-v12"
	defaultColor = "ee5253"

	// ограничение Mapbox на длину URL статической карты
	maxURLLength = 8192
)

type client struct {
	httpClient  *http.Client
	baseURL     string
	accessToken string
	style       string
	logger      *zap.Logger
}

// NewStaticMapClient создает клиент Mapbox Static Images API
func NewStaticMapClient(cfg *config.MapboxConfig, logger *zap.Logger) repository.StaticMapRenderer {
	style := cfg.Style
	if style == "" {
		style = defaultStyle
	}
	return &client{
		httpClient: &http.Client{
			Timeout: cfg.RequestTimeout,
		},
		baseURL:     strings.TrimRight(cfg.BaseURL, "/"),
		accessToken: cfg.AccessToken,
		style:       style,
		logger:      logger,
	}
}

// Render возвращает PNG статической карты с линией на каждый сегмент
func (c *client) Render(ctx context.Context, req domain.StaticMapRequest) ([]byte, error) {
	if req.Width <= 0 || req.Height <= 0 {
		return nil, fmt.Errorf("invalid image size %dx%d", req.Width, req.Height)
	}

	overlay := BuildOverlay(req.Paths)
	if overlay == "" {
		return nil, fmt.Errorf("static map has no paths with at least two points")
	}

	reqURL := fmt.Sprintf("%s/styles/v1/%s/static/%s/auto/%dx%d@2x?access_token=%s",
		c.baseURL,
		c.style,
		overlay,
		req.Width,
		req.Height,
		url.QueryEscape(c.accessToken),
	)
	if len(reqURL) > maxURLLength {
		return nil, fmt.Errorf("static map url too long: %d bytes", len(reqURL))
	}

	c.logger.Debug("Calling Mapbox Static Images API",
		zap.Int("paths", len(req.Paths)),
		zap.Int("url_length", len(reqURL)))

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		c.logger.Error("Failed to create request", zap.Error(err))
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		c.logger.Error("Failed to execute request", zap.Error(err))
		return nil, fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		c.logger.Error("Mapbox API returned error",
			zap.Int("status_code", resp.StatusCode),
			zap.String("body", string(body)))
		return nil, fmt.Errorf("mapbox API error: status %d, body: %s", resp.StatusCode, string(body))
	}

	image, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	if len(image) == 0 {
		return nil, fmt.Errorf("mapbox API returned empty image")
	}

	c.logger.Debug("Mapbox Static Images API call successful", zap.Int("bytes", len(image)))
	return image, nil
}

// BuildOverlay собирает оверлей path-3+{color}-0.9({polyline}) для каждой линии.
// Линии короче двух точек пропускаются
func BuildOverlay(paths []domain.StaticMapPath) string {
	parts := make([]string, 0, len(paths))
	for _, p := range paths {
		if len(p.Points) < 2 {
			continue
		}

		// polyline ожидает порядок [lat, lng]
		coords := make([][]float64, len(p.Points))
		for i, pt := range p.Points {
			coords[i] = []float64{pt.Lat, pt.Lng}
		}

		color := strings.TrimPrefix(p.Color, "#")
		if color == "" {
			color = defaultColor
		}

		encoded := polyline.EncodeCoords(coords)
		parts = append(parts, fmt.Sprintf("path-3+%s-0.9(%s)", color, url.QueryEscape(string(encoded))))
	}
	return strings.Join(parts, ",")
}
