package cloudinary

import (
	"context"
	"crypto/sha1"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/route-draft-service/internal/config"
	"github.com/route-draft-service/internal/domain"
	"github.com/route-draft-service/internal/domain/repository"
	"go.uber.org/zap"
)

type client struct {
	httpClient *http.Client
	baseURL    string
	cloudName  string
	apiKey     string
	apiSecret  string
	folder     string
	now        func() time.Time
	logger     *zap.Logger
}

type uploadResponse struct {
	PublicID  string `json:"public_id"`
	SecureURL string `json:"secure_url"`
	URL       string `json:"url"`
	Error     struct {
		Message string `json:"message"`
	} `json:"error"`
}

type destroyResponse struct {
	Result string `json:"result"`
	Error  struct {
		Message string `json:"message"`
	} `json:"error"`
}

// NewClient создает MediaService поверх Cloudinary Upload API (подписанные запросы)
func NewClient(cfg *config.CloudinaryConfig, logger *zap.Logger) repository.MediaService {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &client{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		cloudName:  cfg.CloudName,
		apiKey:     cfg.APIKey,
		apiSecret:  cfg.APISecret,
		folder:     cfg.Folder,
		now:        time.Now,
		logger:     logger,
	}
}

// Upload загружает файл как data URI и возвращает public_id и secure_url
func (c *client) Upload(ctx context.Context, req domain.UploadRequest) (*domain.MediaRef, error) {
	if len(req.Data) == 0 {
		return nil, fmt.Errorf("empty upload payload")
	}
	if c.cloudName == "" || c.apiKey == "" || c.apiSecret == "" {
		return nil, fmt.Errorf("cloudinary credentials are not configured")
	}

	contentType := req.ContentType
	if contentType == "" {
		contentType = http.DetectContentType(req.Data)
	}

	params := map[string]string{
		"timestamp": strconv.FormatInt(c.now().Unix(), 10),
	}
	if folder := c.joinFolder(req.Folder); folder != "" {
		params["folder"] = folder
	}
	if req.PublicID != "" {
		params["public_id"] = req.PublicID
		params["overwrite"] = "true"
	}

	form := c.signedForm(params)
	form.Set("file", "data:"+contentType+";base64,"+base64.StdEncoding.EncodeToString(req.Data))

	var res uploadResponse
	if err := c.post(ctx, "image/upload", form, &res); err != nil {
		c.logger.Error("Cloudinary upload failed",
			zap.String("filename", req.Filename),
			zap.String("folder", params["folder"]),
			zap.Error(err))
		return nil, err
	}

	publicURL := res.SecureURL
	if publicURL == "" {
		publicURL = res.URL
	}
	if res.PublicID == "" || publicURL == "" {
		return nil, fmt.Errorf("cloudinary returned no public id or url")
	}

	c.logger.Debug("Cloudinary upload succeeded",
		zap.String("public_id", res.PublicID),
		zap.Int("bytes", len(req.Data)))

	return &domain.MediaRef{PublicRef: res.PublicID, URL: publicURL}, nil
}

// Delete удаляет файл. Отсутствующий файл не считается ошибкой
func (c *client) Delete(ctx context.Context, publicRef string) error {
	if publicRef == "" {
		return nil
	}

	form := c.signedForm(map[string]string{
		"public_id": publicRef,
		"timestamp": strconv.FormatInt(c.now().Unix(), 10),
	})

	var res destroyResponse
	if err := c.post(ctx, "image/destroy", form, &res); err != nil {
		c.logger.Error("Cloudinary delete failed", zap.String("public_id", publicRef), zap.Error(err))
		return err
	}

	switch res.Result {
	case "ok", "not found":
		return nil
	default:
		return fmt.Errorf("cloudinary destroy result: %s", res.Result)
	}
}

func (c *client) joinFolder(sub string) string {
	switch {
	case c.folder == "":
		return sub
	case sub == "":
		return c.folder
	default:
		return c.folder + "/" + sub
	}
}

// signedForm добавляет api_key и подпись SHA-1 по отсортированным параметрам
func (c *client) signedForm(params map[string]string) url.Values {
	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	pairs := make([]string, len(keys))
	form := url.Values{}
	for i, k := range keys {
		pairs[i] = k + "=" + params[k]
		form.Set(k, params[k])
	}

	form.Set("api_key", c.apiKey)
	form.Set("signature", Sign(strings.Join(pairs, "&"), c.apiSecret))
	return form
}

func (c *client) post(ctx context.Context, action string, form url.Values, out interface{}) error {
	endpoint := fmt.Sprintf("%s/%s/%s", c.baseURL, c.cloudName, action)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("cloudinary API error: status %d, body: %s", resp.StatusCode, truncate(body, 512))
	}

	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

// Sign - подпись запроса Cloudinary: sha1(params + secret) в hex
func Sign(toSign, secret string) string {
	return fmt.Sprintf("%x", sha1.Sum([]byte(toSign+secret)))
}

func truncate(b []byte, n int) string {
	if len(b) > n {
		return string(b[:n])
	}
	return string(b)
}
