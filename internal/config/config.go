package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Драйверы хранилища документов
const (
	StoreDriverPostgres  = "postgres"
	StoreDriverRedis     = "redis"
	StoreDriverFirestore = "firestore"
	StoreDriverNone      = "none"
)

// Провайдеры медиа-сервиса
const (
	MediaProviderCloudinary = "cloudinary"
	MediaProviderMinio      = "minio"
)

type Config struct {
	Server     ServerConfig
	Store      StoreConfig
	Database   DatabaseConfig
	Redis      RedisConfig
	Firestore  FirestoreConfig
	Media      MediaConfig
	Cloudinary CloudinaryConfig
	Minio      MinioConfig
	Mapbox     MapboxConfig
	Thumbnail  ThumbnailConfig
	Auth       AuthConfig
	Cache      CacheConfig
	Log        LogConfig
	Worker     WorkerConfig
}

type ServerConfig struct {
	Host        string
	Port        int
	Env         string
	CORSOrigins []string
}

type StoreConfig struct {
	Driver string
}

type DatabaseConfig struct {
	Host            string
	Port            int
	User            string
	Password        string
	DBName          string
	SSLMode         string
	MaxConns        int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	ConnMaxIdleTime time.Duration
}

type RedisConfig struct {
	Host        string
	Port        int
	Password    string
	DB          int
	PoolSize    int
	ReadTimeout time.Duration
}

type FirestoreConfig struct {
	ProjectID       string
	CredentialsFile string
}

type MediaConfig struct {
	Provider          string
	UploadConcurrency int
	LocalDir          string
}

type CloudinaryConfig struct {
	CloudName string
	APIKey    string
	APISecret string
	BaseURL   string
	Folder    string
	Timeout   time.Duration
}

type MinioConfig struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
	PublicURL string
}

type MapboxConfig struct {
	AccessToken    string
	BaseURL        string
	Style          string
	RequestTimeout time.Duration
}

type ThumbnailConfig struct {
	Width     int
	Height    int
	Color     string
	MaxPoints int
}

type AuthConfig struct {
	JWTSecret string
}

type CacheConfig struct {
	RouteCacheTTL time.Duration
}

type LogConfig struct {
	Level string
}

type WorkerConfig struct {
	Enabled         bool
	ConsumerGroup   string
	BatchSize       int
	PollInterval    time.Duration
	MaxRetries      int
	ShutdownTimeout time.Duration
}

// Load читает конфигурацию из окружения. Файл .env необязателен
func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigFile(".env")
	v.SetConfigType("env")
	v.AutomaticEnv()
	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	return fromViper(v)
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("API_HOST", "0.0.0.0")
	v.SetDefault("API_PORT", 8080)
	v.SetDefault("API_ENV", "development")
	v.SetDefault("API_CORS_ORIGINS", "http://localhost:3000,http://localhost:5173")
	v.SetDefault("LOG_LEVEL", "info")

	v.SetDefault("STORE_DRIVER", StoreDriverPostgres)

	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", 5432)
	v.SetDefault("DB_SSLMODE", "disable")
	v.SetDefault("DB_MAX_CONNS", 25)
	v.SetDefault("DB_MAX_IDLE_CONNS", 5)
	v.SetDefault("DB_CONN_MAX_LIFETIME", 300)
	v.SetDefault("DB_CONN_MAX_IDLE_TIME", 60)

	v.SetDefault("REDIS_HOST", "localhost")
	v.SetDefault("REDIS_PORT", 6379)
	v.SetDefault("REDIS_POOL_SIZE", 20)
	v.SetDefault("REDIS_READ_TIMEOUT", 5)

	v.SetDefault("MEDIA_PROVIDER", MediaProviderCloudinary)
	v.SetDefault("MEDIA_UPLOAD_CONCURRENCY", 4)

	v.SetDefault("CLOUDINARY_BASE_URL", "https://api.cloudinary.com/v1_1")
	v.SetDefault("CLOUDINARY_FOLDER", "routes")
	v.SetDefault("CLOUDINARY_TIMEOUT", 30)

	v.SetDefault("MINIO_BUCKET", "route-media")

	v.SetDefault("MAPBOX_BASE_URL", "https://api.mapbox.com")
	v.SetDefault("MAPBOX_STYLE", "mapbox/satellite-streets-v12")
	v.SetDefault("MAPBOX_REQUEST_TIMEOUT", 10)

	v.SetDefault("THUMBNAIL_WIDTH", 400)
	v.SetDefault("THUMBNAIL_HEIGHT", 300)
	v.SetDefault("THUMBNAIL_COLOR", "ee5253")
	v.SetDefault("THUMBNAIL_MAX_POINTS", 100)

	v.SetDefault("ROUTE_CACHE_TTL", 300)

	v.SetDefault("WORKER_ENABLED", true)
	v.SetDefault("WORKER_CONSUMER_GROUP", "route-thumbnail-workers")
	v.SetDefault("WORKER_BATCH_SIZE", 10)
	v.SetDefault("WORKER_POLL_INTERVAL", 1000)
	v.SetDefault("WORKER_MAX_RETRIES", 3)
	v.SetDefault("WORKER_SHUTDOWN_TIMEOUT", 30)
}

func fromViper(v *viper.Viper) (*Config, error) {
	cfg := &Config{
		Server: ServerConfig{
			Host:        v.GetString("API_HOST"),
			Port:        v.GetInt("API_PORT"),
			Env:         v.GetString("API_ENV"),
			CORSOrigins: splitList(v.GetString("API_CORS_ORIGINS")),
		},
		Store: StoreConfig{
			Driver: strings.ToLower(strings.TrimSpace(v.GetString("STORE_DRIVER"))),
		},
		Database: DatabaseConfig{
			Host:            v.GetString("DB_HOST"),
			Port:            v.GetInt("DB_PORT"),
			User:            v.GetString("DB_USER"),
			Password:        v.GetString("DB_PASSWORD"),
			DBName:          v.GetString("DB_NAME"),
			SSLMode:         v.GetString("DB_SSLMODE"),
			MaxConns:        v.GetInt("DB_MAX_CONNS"),
			MaxIdleConns:    v.GetInt("DB_MAX_IDLE_CONNS"),
			ConnMaxLifetime: time.Duration(v.GetInt("DB_CONN_MAX_LIFETIME")) * time.Second,
			ConnMaxIdleTime: time.Duration(v.GetInt("DB_CONN_MAX_IDLE_TIME")) * time.Second,
		},
		Redis: RedisConfig{
			Host:        v.GetString("REDIS_HOST"),
			Port:        v.GetInt("REDIS_PORT"),
			Password:    v.GetString("REDIS_PASSWORD"),
			DB:          v.GetInt("REDIS_DB"),
			PoolSize:    v.GetInt("REDIS_POOL_SIZE"),
			ReadTimeout: time.Duration(v.GetInt("REDIS_READ_TIMEOUT")) * time.Second,
		},
		Firestore: FirestoreConfig{
			ProjectID:       v.GetString("FIRESTORE_PROJECT_ID"),
			CredentialsFile: v.GetString("FIRESTORE_CREDENTIALS_FILE"),
		},
		Media: MediaConfig{
			Provider:          strings.ToLower(v.GetString("MEDIA_PROVIDER")),
			UploadConcurrency: v.GetInt("MEDIA_UPLOAD_CONCURRENCY"),
			LocalDir:          v.GetString("MEDIA_LOCAL_DIR"),
		},
		Cloudinary: CloudinaryConfig{
			CloudName: v.GetString("CLOUDINARY_CLOUD_NAME"),
			APIKey:    v.GetString("CLOUDINARY_API_KEY"),
			APISecret: v.GetString("CLOUDINARY_API_SECRET"),
			BaseURL:   strings.TrimRight(v.GetString("CLOUDINARY_BASE_URL"), "/"),
			Folder:    v.GetString("CLOUDINARY_FOLDER"),
			Timeout:   time.Duration(v.GetInt("CLOUDINARY_TIMEOUT")) * time.Second,
		},
		Minio: MinioConfig{
			Endpoint:  v.GetString("MINIO_ENDPOINT"),
			AccessKey: v.GetString("MINIO_ACCESS_KEY"),
			SecretKey: v.GetString("MINIO_SECRET_KEY"),
			Bucket:    v.GetString("MINIO_BUCKET"),
			UseSSL:    v.GetBool("MINIO_USE_SSL"),
			PublicURL: strings.TrimRight(v.GetString("MINIO_PUBLIC_URL"), "/"),
		},
		Mapbox: MapboxConfig{
			AccessToken:    v.GetString("MAPBOX_ACCESS_TOKEN"),
			BaseURL:        strings.TrimRight(v.GetString("MAPBOX_BASE_URL"), "/"),
			Style:          v.GetString("MAPBOX_STYLE"),
			RequestTimeout: time.Duration(v.GetInt("MAPBOX_REQUEST_TIMEOUT")) * time.Second,
		},
		Thumbnail: ThumbnailConfig{
			Width:     v.GetInt("THUMBNAIL_WIDTH"),
			Height:    v.GetInt("THUMBNAIL_HEIGHT"),
			Color:     strings.TrimPrefix(v.GetString("THUMBNAIL_COLOR"), "#"),
			MaxPoints: v.GetInt("THUMBNAIL_MAX_POINTS"),
		},
		Auth: AuthConfig{
			JWTSecret: v.GetString("AUTH_JWT_SECRET"),
		},
		Cache: CacheConfig{
			RouteCacheTTL: time.Duration(v.GetInt("ROUTE_CACHE_TTL")) * time.Second,
		},
		Log: LogConfig{
			Level: v.GetString("LOG_LEVEL"),
		},
		Worker: WorkerConfig{
			Enabled:         v.GetBool("WORKER_ENABLED"),
			ConsumerGroup:   v.GetString("WORKER_CONSUMER_GROUP"),
			BatchSize:       v.GetInt("WORKER_BATCH_SIZE"),
			PollInterval:    time.Duration(v.GetInt("WORKER_POLL_INTERVAL")) * time.Millisecond,
			MaxRetries:      v.GetInt("WORKER_MAX_RETRIES"),
			ShutdownTimeout: time.Duration(v.GetInt("WORKER_SHUTDOWN_TIMEOUT")) * time.Second,
		},
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	switch c.Store.Driver {
	case "", StoreDriverNone, StoreDriverPostgres, StoreDriverRedis, StoreDriverFirestore:
	default:
		return fmt.Errorf("unknown STORE_DRIVER %q", c.Store.Driver)
	}

	switch c.Media.Provider {
	case MediaProviderCloudinary, MediaProviderMinio:
	default:
		return fmt.Errorf("unknown MEDIA_PROVIDER %q", c.Media.Provider)
	}

	if c.Media.UploadConcurrency <= 0 {
		c.Media.UploadConcurrency = 1
	}
	if c.Thumbnail.MaxPoints < 2 {
		c.Thumbnail.MaxPoints = 2
	}
	return nil
}

// StoreEnabled - false, если хранилище документов не настроено
func (c *Config) StoreEnabled() bool {
	return c.Store.Driver != "" && c.Store.Driver != StoreDriverNone
}

func (c *Config) GetServerAddr() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}

// splitList разбирает список через запятую, пустые элементы отбрасываются
func splitList(value string) []string {
	var out []string
	for _, item := range strings.Split(value, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}
