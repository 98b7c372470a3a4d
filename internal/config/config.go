package config

import (
	"net"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/kozaktomas/whereabouts/internal/constants"
)

type Config struct {
	Embedding EmbeddingConfig
	Data      DataConfig
	Matching  MatchingConfig
	Database  DatabaseConfig
	Camera    CameraConfig
	Web       WebConfig
	Log       LogConfig
}

type EmbeddingConfig struct {
	URL string // defaults to http://localhost:8000
	Dim int    // defaults to 512
}

type DataConfig struct {
	RawFacesDir   string // one subdirectory of photos per identity
	EmbeddingsDir string // one <identity>.npy per identity
	MobilityFile  string // CSV or YAML schedule
	Timezone      string // IANA zone used to evaluate schedules (empty = local)
}

type MatchingConfig struct {
	Threshold       float64
	SmoothingWindow int
	SharedSmoothing bool // one history buffer for all identities
}

type DatabaseConfig struct {
	URL          string // PostgreSQL connection URL (optional, enables the pgvector store)
	MaxOpenConns int    // Maximum open connections (default 10)
	MaxIdleConns int    // Maximum idle connections (default 2)
}

type CameraConfig struct {
	SnapshotURL string // HTTP endpoint returning one JPEG per request
	Username    string
	Password    string
}

type WebConfig struct {
	Host           string
	Port           int
	AllowedOrigins []string // extra CORS origins; localhost is always allowed
}

// Addr returns the host:port listen address.
func (c *WebConfig) Addr() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}

type LogConfig struct {
	Mode string // dev or prod
}

// Location resolves the configured timezone, falling back to the local zone.
func (c *DataConfig) Location() *time.Location {
	if c.Timezone == "" {
		return time.Local
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.Local
	}
	return loc
}

// envInt reads an environment variable and parses it as a positive integer.
// Returns the default value if the env var is unset, empty, or invalid.
func envInt(key string, defaultVal int) int {
	s := os.Getenv(key)
	if s == "" {
		return defaultVal
	}
	if n, err := strconv.Atoi(s); err == nil && n > 0 {
		return n
	}
	return defaultVal
}

// envFloat reads an environment variable as a float in [0, 1].
func envFloat(key string, defaultVal float64) float64 {
	s := os.Getenv(key)
	if s == "" {
		return defaultVal
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil && f >= 0 && f <= 1 {
		return f
	}
	return defaultVal
}

func envBool(key string) bool {
	switch strings.ToLower(strings.TrimSpace(os.Getenv(key))) {
	case "1", "true", "yes", "on":
		return true
	default:
		return false
	}
}

// envList splits a comma-separated environment variable, dropping empty items.
func envList(key string) []string {
	var out []string
	for item := range strings.SplitSeq(os.Getenv(key), ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}

func envString(key, defaultVal string) string {
	if s := os.Getenv(key); s != "" {
		return s
	}
	return defaultVal
}

func Load() *Config {
	return &Config{
		Embedding: EmbeddingConfig{
			URL: os.Getenv("EMBEDDING_URL"),
			Dim: envInt("EMBEDDING_DIM", constants.FaceEmbeddingDim),
		},
		Data: DataConfig{
			RawFacesDir:   envString("RAW_FACES_DIR", "data/raw_faces"),
			EmbeddingsDir: envString("EMBEDDINGS_DIR", "data/embeddings"),
			MobilityFile:  envString("MOBILITY_FILE", "data/mobility/identity_mobility.csv"),
			Timezone:      os.Getenv("TIMEZONE"),
		},
		Matching: MatchingConfig{
			Threshold:       envFloat("MATCH_THRESHOLD", constants.SimilarityThreshold),
			SmoothingWindow: envInt("SMOOTHING_WINDOW", constants.LocationSmoothingWindow),
			SharedSmoothing: envBool("SMOOTHING_SHARED"),
		},
		Database: DatabaseConfig{
			URL:          os.Getenv("DATABASE_URL"),
			MaxOpenConns: envInt("DATABASE_MAX_OPEN_CONNS", 10),
			MaxIdleConns: envInt("DATABASE_MAX_IDLE_CONNS", 2),
		},
		Camera: CameraConfig{
			SnapshotURL: os.Getenv("CAMERA_SNAPSHOT_URL"),
			Username:    os.Getenv("CAMERA_USERNAME"),
			Password:    os.Getenv("CAMERA_PASSWORD"),
		},
		Web: WebConfig{
			Host:           envString("WEB_HOST", "0.0.0.0"),
			Port:           envInt("WEB_PORT", 8080),
			AllowedOrigins: envList("WEB_ALLOWED_ORIGINS"),
		},
		Log: LogConfig{
			Mode: envString("LOG_MODE", "dev"),
		},
	}
}
