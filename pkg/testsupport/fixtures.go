package testsupport

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/goliatone/go-kvcms/pkg/interfaces"
)

// Seed is one object written by SeedObjects.
type Seed struct {
	Container string
	Key       string
	Value     map[string]any
}

// SeedObjects creates every seed in order and returns the stored objects.
func SeedObjects(t testing.TB, store interfaces.ObjectStore, seeds ...Seed) []*interfaces.StoredObject {
	t.Helper()
	out := make([]*interfaces.StoredObject, 0, len(seeds))
	for _, seed := range seeds {
		obj, err := store.Create(context.Background(), seed.Container, seed.Key, seed.Value)
		if err != nil {
			t.Fatalf("seed %s/%s: %v", seed.Container, seed.Key, err)
		}
		out = append(out, obj)
	}
	return out
}

// LoadFixture returns testdata/<name>, usually a recorded commerce response.
func LoadFixture(t testing.TB, name string) []byte {
	t.Helper()
	data, err := os.ReadFile(filepath.Join("testdata", name))
	if err != nil {
		t.Fatalf("load fixture %s: %v", name, err)
	}
	return data
}

// LoadGolden decodes testdata/<name> into v.
func LoadGolden(t testing.TB, name string, v any) {
	t.Helper()
	if err := json.Unmarshal(LoadFixture(t, name), v); err != nil {
		t.Fatalf("decode golden %s: %v", name, err)
	}
}
