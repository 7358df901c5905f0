package blob

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"
)

func TestMemoryPutGetRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := NewMemory()

	info, err := store.Put(ctx, "exports/a.json", strings.NewReader(`{"x":1}`), PutOptions{
		ContentType: "application/json",
		Metadata:    map[string]string{"source": "test"},
	})
	if err != nil {
		t.Fatalf("put: %v", err)
	}
	if info.Size != 7 || info.ContentType != "application/json" {
		t.Fatalf("unexpected info: %+v", info)
	}

	got, rc, err := store.Get(ctx, "exports/a.json")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	defer func() { _ = rc.Close() }()
	body, err := io.ReadAll(rc)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if string(body) != `{"x":1}` {
		t.Fatalf("unexpected body %q", body)
	}
	if got.Metadata["source"] != "test" {
		t.Fatalf("metadata lost: %+v", got)
	}
}

func TestMemoryPutRejectsDuplicateKey(t *testing.T) {
	ctx := context.Background()
	store := NewMemory()
	if _, err := store.Put(ctx, "k", strings.NewReader("a"), PutOptions{}); err != nil {
		t.Fatalf("put: %v", err)
	}
	if _, err := store.Put(ctx, "k", strings.NewReader("b"), PutOptions{}); err == nil {
		t.Fatal("duplicate key accepted")
	}
}

func TestMemoryListPrefixOrdered(t *testing.T) {
	ctx := context.Background()
	store := NewMemory()
	for _, key := range []string{"exports/b", "exports/a", "other/c"} {
		if _, err := store.Put(ctx, key, strings.NewReader("x"), PutOptions{}); err != nil {
			t.Fatalf("put %s: %v", key, err)
		}
	}
	infos, err := store.List(ctx, "exports/")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(infos) != 2 || infos[0].Key != "exports/a" || infos[1].Key != "exports/b" {
		t.Fatalf("unexpected listing: %+v", infos)
	}
}

func TestMemoryDeleteAndPresign(t *testing.T) {
	ctx := context.Background()
	store := NewMemory()
	if _, err := store.Put(ctx, "k", strings.NewReader("x"), PutOptions{}); err != nil {
		t.Fatalf("put: %v", err)
	}
	ok, err := store.Delete(ctx, "k")
	if err != nil || !ok {
		t.Fatalf("delete: ok=%v err=%v", ok, err)
	}
	ok, err = store.Delete(ctx, "k")
	if err != nil || ok {
		t.Fatalf("second delete: ok=%v err=%v", ok, err)
	}
	if _, err := store.PresignURL(ctx, "k", SignedURLOptions{}); !errors.Is(err, ErrUnsupported) {
		t.Fatalf("expected ErrUnsupported, got %v", err)
	}
}
