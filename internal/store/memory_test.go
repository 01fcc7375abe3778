package store

import (
	"context"
	"errors"
	"reflect"
	"testing"
)

func TestMemoryGetNotFound(t *testing.T) {
	t.Parallel()

	mem := NewMemory()
	if _, err := mem.Get(context.Background(), "missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestMemoryListByPrefix(t *testing.T) {
	t.Parallel()

	mem := NewMemory()
	ctx := context.Background()
	for _, key := range []string{"a/1", "a/2", "b/1"} {
		if err := mem.Put(ctx, key, []byte("x"), "text/plain"); err != nil {
			t.Fatalf("put %s: %v", key, err)
		}
	}

	keys, err := mem.List(ctx, "a/")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if !reflect.DeepEqual(keys, []string{"a/1", "a/2"}) {
		t.Fatalf("unexpected keys %v", keys)
	}
}

func TestMemoryPutCopiesBody(t *testing.T) {
	t.Parallel()

	mem := NewMemory()
	ctx := context.Background()
	body := []byte("original")
	if err := mem.Put(ctx, "k", body, "text/plain"); err != nil {
		t.Fatalf("put: %v", err)
	}
	body[0] = 'X'

	stored, err := mem.Get(ctx, "k")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if string(stored) != "original" {
		t.Fatalf("stored body aliased caller buffer: %s", stored)
	}
}
