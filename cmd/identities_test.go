package cmd

import (
	"context"
	"testing"

	"github.com/kozaktomas/whereabouts/internal/enrollment"
	"github.com/kozaktomas/whereabouts/internal/facematch"
)

type saveLoadOnlyStore struct{}

func (saveLoadOnlyStore) Save(context.Context, string, []float32) error { return nil }

func (saveLoadOnlyStore) Load(context.Context) ([]facematch.Reference, error) { return nil, nil }

func TestRemoveIdentities(t *testing.T) {
	ctx := context.Background()
	store := enrollment.NewFileStore(t.TempDir())
	for _, id := range []string{"alice", "bob", "carol"} {
		if err := store.Save(ctx, id, []float32{1, 0, 0}); err != nil {
			t.Fatalf("Save(%s): %v", id, err)
		}
	}

	if err := removeIdentities(ctx, store, []string{"alice", "carol", "nobody"}); err != nil {
		t.Fatalf("removeIdentities: %v", err)
	}

	refs, err := store.Load(ctx)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(refs) != 1 || refs[0].Identity != "bob" {
		t.Errorf("remaining = %v, want only bob", refs)
	}
}

func TestRemoveIdentities_InvalidIdentity(t *testing.T) {
	store := enrollment.NewFileStore(t.TempDir())
	if err := removeIdentities(context.Background(), store, []string{"../escape"}); err == nil {
		t.Error("expected error for invalid identity")
	}
}

func TestRemoveIdentities_StoreWithoutDelete(t *testing.T) {
	if err := removeIdentities(context.Background(), saveLoadOnlyStore{}, []string{"alice"}); err == nil {
		t.Error("expected error for a store that cannot delete")
	}
}
