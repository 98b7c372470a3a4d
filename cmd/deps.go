package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/kozaktomas/whereabouts/internal/config"
	"github.com/kozaktomas/whereabouts/internal/constants"
	"github.com/kozaktomas/whereabouts/internal/database/postgres"
	"github.com/kozaktomas/whereabouts/internal/enrollment"
	"github.com/kozaktomas/whereabouts/internal/faceapi"
	"github.com/kozaktomas/whereabouts/internal/facematch"
	"github.com/kozaktomas/whereabouts/internal/logger"
	"github.com/kozaktomas/whereabouts/internal/mobility"
)

// loadConfig reads the environment and applies persistent flag overrides.
func loadConfig() *config.Config {
	cfg := config.Load()
	if logMode != "" {
		cfg.Log.Mode = logMode
	}
	return cfg
}

func newLogger(cfg *config.Config) (*logger.Logger, error) {
	log, err := logger.New(cfg.Log.Mode)
	if err != nil {
		return nil, fmt.Errorf("creating logger: %w", err)
	}
	return log, nil
}

// openStore returns the PostgreSQL store when DATABASE_URL is set and the
// .npy directory store otherwise. The returned closer is never nil.
func openStore(ctx context.Context, cfg *config.Config, log *logger.Logger) (enrollment.Store, io.Closer, error) {
	if cfg.Database.URL == "" {
		log.Debug("using file embedding store", "dir", cfg.Data.EmbeddingsDir)
		return enrollment.NewFileStore(cfg.Data.EmbeddingsDir), nopCloser{}, nil
	}

	pool, applied, err := postgres.Open(ctx, &cfg.Database)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to initialize PostgreSQL: %w", err)
	}
	for _, m := range applied {
		log.Info("applied migration", "file", m)
	}
	log.Debug("using PostgreSQL embedding store")
	return postgres.NewIdentityRepository(pool), pool, nil
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

func newDetector(cfg *config.Config) faceapi.Detector {
	return &faceapi.ResizingDetector{
		Detector: faceapi.NewClient(cfg.Embedding.URL),
		MaxSize:  constants.MaxImageSize,
		Quality:  constants.JPEGQuality,
	}
}

// checkEmbeddingServer fails fast when the embedding server is unreachable.
func checkEmbeddingServer(ctx context.Context, cfg *config.Config, log *logger.Logger) error {
	model, err := faceapi.NewClient(cfg.Embedding.URL).Health(ctx)
	if err != nil {
		return fmt.Errorf("embedding server is not available: %w", err)
	}
	log.Debug("embedding server ready", "model", model)
	return nil
}

// warnDimensionMismatch logs enrolled identities whose embedding length differs
// from EMBEDDING_DIM. Such identities never match a face from the current model.
func warnDimensionMismatch(cfg *config.Config, log *logger.Logger, refs []facematch.Reference) []string {
	mismatched := facematch.DimensionMismatches(refs, cfg.Embedding.Dim)
	if len(mismatched) > 0 {
		log.Warn("enrolled embeddings do not match the configured dimension, re-run enroll",
			"dim", cfg.Embedding.Dim, "identities", mismatched)
	}
	return mismatched
}

func loadSchedule(cfg *config.Config, path string) (*mobility.Store, *mobility.Inferencer, error) {
	if path == "" {
		path = cfg.Data.MobilityFile
	}
	store, err := mobility.Load(path)
	if err != nil {
		return nil, nil, err
	}
	return store, mobility.NewInferencer(store, cfg.Data.Location()), nil
}

// outputJSON writes data as indented JSON to stdout.
func outputJSON(data any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(data)
}
