package cas_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"go.trai.ch/mason/internal/adapters/cas"
	"go.trai.ch/mason/internal/core/domain"
)

func TestStore_PutAndGet(t *testing.T) {
	storePath := filepath.Join(t.TempDir(), ".mason", "manifest.json")

	store, err := cas.NewStore(storePath)
	if err != nil {
		t.Fatalf("NewStore failed: %v", err)
	}

	digest := domain.FileDigest{
		Path:    "src/a.js",
		Dest:    "app/a.js",
		Hash:    "0123456789abcdef",
		Size:    42,
		BuiltAt: time.Now().UTC(),
	}
	if err := store.Put(digest); err != nil {
		t.Fatalf("Put failed: %v", err)
	}

	got, err := store.Get("src/a.js")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if got == nil {
		t.Fatal("Get returned nil")
	}
	if got.Hash != digest.Hash || got.Size != digest.Size {
		t.Errorf("expected %+v, got %+v", digest, *got)
	}

	missing, err := store.Get("src/missing.js")
	if err != nil || missing != nil {
		t.Errorf("expected nil, nil for unknown path, got %v, %v", missing, err)
	}
}

func TestStore_Persistence(t *testing.T) {
	storePath := filepath.Join(t.TempDir(), "manifest.json")

	store1, err := cas.NewStore(storePath)
	if err != nil {
		t.Fatalf("NewStore 1 failed: %v", err)
	}
	if err := store1.Put(domain.FileDigest{Path: "src/b.js", Hash: "xyz"}); err != nil {
		t.Fatalf("Put failed: %v", err)
	}

	store2, err := cas.NewOpener().Open(storePath)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}

	got, err := store2.Get("src/b.js")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if got == nil || got.Hash != "xyz" {
		t.Errorf("expected hash %q, got %+v", "xyz", got)
	}
}

func TestStore_Reset(t *testing.T) {
	storePath := filepath.Join(t.TempDir(), "manifest.json")

	store, err := cas.NewStore(storePath)
	if err != nil {
		t.Fatalf("NewStore failed: %v", err)
	}
	if err := store.Put(domain.FileDigest{Path: "src/c.js", Hash: "c"}); err != nil {
		t.Fatalf("Put failed: %v", err)
	}
	if err := store.Reset(); err != nil {
		t.Fatalf("Reset failed: %v", err)
	}

	if n := len(store.Digests()); n != 0 {
		t.Errorf("expected empty manifest, got %d entries", n)
	}

	reopened, err := cas.NewStore(storePath)
	if err != nil {
		t.Fatalf("NewStore failed: %v", err)
	}
	if got, _ := reopened.Get("src/c.js"); got != nil {
		t.Errorf("expected reset to persist, got %+v", got)
	}
}

func TestStore_OmitZero(t *testing.T) {
	storePath := filepath.Join(t.TempDir(), "manifest.json")

	store, err := cas.NewStore(storePath)
	if err != nil {
		t.Fatalf("NewStore failed: %v", err)
	}
	if err := store.Put(domain.FileDigest{Path: "src/zero.js"}); err != nil {
		t.Fatalf("Put failed: %v", err)
	}

	//nolint:gosec // Test file with controlled path
	content, err := os.ReadFile(storePath)
	if err != nil {
		t.Fatalf("ReadFile failed: %v", err)
	}

	jsonStr := string(content)
	for _, field := range []string{`"hash"`, `"size"`, `"built_at"`, `"dest"`} {
		if strings.Contains(jsonStr, field) {
			t.Errorf("JSON should not contain %s for zero value: %s", field, jsonStr)
		}
	}
	if !strings.Contains(jsonStr, `"path"`) {
		t.Error("JSON should contain 'path'")
	}
}

func TestStore_CorruptFile(t *testing.T) {
	storePath := filepath.Join(t.TempDir(), "manifest.json")
	if err := os.WriteFile(storePath, []byte("{not json"), domain.PrivateFilePerm); err != nil {
		t.Fatal(err)
	}

	_, err := cas.NewStore(storePath)
	if err == nil {
		t.Fatal("expected error for corrupt manifest")
	}
	if !strings.Contains(err.Error(), domain.ErrStoreUnmarshalFailed.Error()) {
		t.Errorf("unexpected error: %v", err)
	}
}
