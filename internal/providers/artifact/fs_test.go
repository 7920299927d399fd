package artifact_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/depictapp/depict/internal/providers/artifact"
)

func TestSaveWritesFileAndReturnsPublicURL(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	store := artifact.NewFSStore(dir, "/generated-images/")

	url, err := store.Save(ctx, "sub_1/attempt_1.png", []byte("png-bytes"))
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	if url != "/generated-images/sub_1/attempt_1.png" {
		t.Fatalf("unexpected url %q", url)
	}

	data, err := os.ReadFile(filepath.Join(dir, "sub_1", "attempt_1.png"))
	if err != nil {
		t.Fatalf("read back: %v", err)
	}
	if string(data) != "png-bytes" {
		t.Fatalf("unexpected contents %q", data)
	}
}

func TestSaveRejectsTraversal(t *testing.T) {
	ctx := context.Background()
	store := artifact.NewFSStore(t.TempDir(), "/generated-images")

	for _, path := range []string{"../escape.png", "a/../../escape.png", "."} {
		if _, err := store.Save(ctx, path, []byte("x")); err == nil {
			t.Fatalf("expected error for path %q", path)
		}
	}
}
