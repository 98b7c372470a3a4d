//go:build integration

package postgres

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/kozaktomas/whereabouts/internal/config"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

func setupTestContainer(t *testing.T) (*Pool, func()) {
	ctx := context.Background()

	req := testcontainers.ContainerRequest{
		Image:        "pgvector/pgvector:pg16",
		ExposedPorts: []string{"5432/tcp"},
		Env: map[string]string{
			"POSTGRES_USER":     "test",
			"POSTGRES_PASSWORD": "test",
			"POSTGRES_DB":       "testdb",
		},
		WaitingFor: wait.ForLog("database system is ready to accept connections").
			WithOccurrence(2).
			WithStartupTimeout(60 * time.Second),
	}

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		t.Skipf("Docker not available or container failed to start, skipping integration test: %v", err)
		return nil, func() {}
	}

	host, err := container.Host(ctx)
	if err != nil {
		t.Fatalf("Failed to get container host: %v", err)
	}

	port, err := container.MappedPort(ctx, "5432")
	if err != nil {
		t.Fatalf("Failed to get container port: %v", err)
	}

	cfg := &config.DatabaseConfig{
		URL:          fmt.Sprintf("postgres://test:test@%s:%s/testdb?sslmode=disable", host, port.Port()),
		MaxOpenConns: 5,
		MaxIdleConns: 2,
	}

	pool, applied, err := Open(ctx, cfg)
	if err != nil {
		container.Terminate(ctx)
		t.Fatalf("Failed to open pool: %v", err)
	}
	if len(applied) == 0 {
		t.Errorf("Expected migrations to be applied on a fresh database")
	}

	cleanup := func() {
		pool.Close()
		container.Terminate(ctx)
	}
	return pool, cleanup
}

func TestMigrate_Idempotent(t *testing.T) {
	pool, cleanup := setupTestContainer(t)
	if pool == nil {
		return
	}
	defer cleanup()

	ctx := context.Background()
	applied, err := pool.Migrate(ctx)
	if err != nil {
		t.Fatalf("Second migrate failed: %v", err)
	}
	if len(applied) != 0 {
		t.Errorf("Expected no pending migrations, got %v", applied)
	}

	versions, err := pool.MigrationsApplied(ctx)
	if err != nil {
		t.Fatalf("Failed to list migrations: %v", err)
	}
	if len(versions) == 0 || versions[0] != "001_identities.sql" {
		t.Errorf("Expected 001_identities.sql to be recorded, got %v", versions)
	}
}

func TestIdentityRepository(t *testing.T) {
	pool, cleanup := setupTestContainer(t)
	if pool == nil {
		return
	}
	defer cleanup()

	ctx := context.Background()
	repo := NewIdentityRepository(pool)

	t.Run("SaveAndLoad", func(t *testing.T) {
		if err := repo.Save(ctx, "bob", []float32{0, 1, 0}); err != nil {
			t.Fatalf("Failed to save bob: %v", err)
		}
		if err := repo.Save(ctx, "alice", []float32{1, 0, 0}); err != nil {
			t.Fatalf("Failed to save alice: %v", err)
		}

		refs, err := repo.Load(ctx)
		if err != nil {
			t.Fatalf("Failed to load: %v", err)
		}
		if len(refs) != 2 {
			t.Fatalf("Expected 2 identities, got %d", len(refs))
		}
		if refs[0].Identity != "alice" || refs[1].Identity != "bob" {
			t.Errorf("Expected identities ordered by name, got %s, %s", refs[0].Identity, refs[1].Identity)
		}
		if refs[0].Embedding[0] != 1 {
			t.Errorf("Expected alice embedding [1 0 0], got %v", refs[0].Embedding)
		}
	})

	t.Run("SaveReplaces", func(t *testing.T) {
		if err := repo.Save(ctx, "alice", []float32{0.5, 0.5, 0, 0}); err != nil {
			t.Fatalf("Failed to overwrite alice: %v", err)
		}
		refs, err := repo.Load(ctx)
		if err != nil {
			t.Fatalf("Failed to load: %v", err)
		}
		if len(refs[0].Embedding) != 4 {
			t.Errorf("Expected replaced embedding with 4 dims, got %d", len(refs[0].Embedding))
		}
	})

	t.Run("RejectsInvalidIdentity", func(t *testing.T) {
		if err := repo.Save(ctx, "a/b", []float32{1}); err == nil {
			t.Error("Expected error for identity containing a slash")
		}
		if err := repo.Save(ctx, "carol", nil); err == nil {
			t.Error("Expected error for empty embedding")
		}
	})

	t.Run("Delete", func(t *testing.T) {
		if err := repo.Delete(ctx, "bob"); err != nil {
			t.Fatalf("Failed to delete: %v", err)
		}
		if err := repo.Delete(ctx, "nobody"); err != nil {
			t.Fatalf("Deleting unknown identity should not fail: %v", err)
		}
		refs, err := repo.Load(ctx)
		if err != nil {
			t.Fatalf("Failed to load: %v", err)
		}
		if len(refs) != 1 || refs[0].Identity != "alice" {
			t.Errorf("Expected only alice after delete, got %v", refs)
		}
	})
}
