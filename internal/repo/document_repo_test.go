package repo

import (
	"context"
	"errors"
	"testing"

	"github.com/tbourn/catecismo-search/internal/domain"
)

func TestPutGetDocument_Upsert(t *testing.T) {
	db := newTestDB(t, &domain.DocumentRecord{})
	ctx := context.Background()

	if _, err := GetDocument(ctx, db, "a.html"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("want ErrNotFound, got %v", err)
	}
	if _, err := PutDocument(ctx, db, "a.html", "Parte 1", []byte("<p>v1</p>")); err != nil {
		t.Fatalf("put: %v", err)
	}
	if _, err := PutDocument(ctx, db, "a.html", "Parte 1", []byte("<p>v2!</p>")); err != nil {
		t.Fatalf("upsert: %v", err)
	}
	d, err := GetDocument(ctx, db, "a.html")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if d.Body != "<p>v2!</p>" || d.Size != len("<p>v2!</p>") || d.Label != "Parte 1" {
		t.Fatalf("record = %+v", d)
	}

	list, err := ListDocuments(ctx, db)
	if err != nil || len(list) != 1 {
		t.Fatalf("list = %v, %v", list, err)
	}
	if list[0].Body != "" {
		t.Fatalf("list must not load bodies")
	}
}

func TestDocumentStore(t *testing.T) {
	db := newTestDB(t, &domain.DocumentRecord{})
	ctx := context.Background()
	s := NewDocumentStore(db)

	if _, ok, err := s.Get(ctx, "x.html"); ok || err != nil {
		t.Fatalf("empty store: ok=%v err=%v", ok, err)
	}
	if err := s.Put(ctx, "x.html", "X", []byte("body")); err != nil {
		t.Fatalf("put: %v", err)
	}
	b, ok, err := s.Get(ctx, "x.html")
	if err != nil || !ok || string(b) != "body" {
		t.Fatalf("get = %q ok=%v err=%v", b, ok, err)
	}
	if err := s.Clear(ctx); err != nil {
		t.Fatalf("clear: %v", err)
	}
	if _, ok, _ := s.Get(ctx, "x.html"); ok {
		t.Fatalf("cleared store still has the document")
	}
}

func TestDocumentStore_PropagatesDBErrors(t *testing.T) {
	s := NewDocumentStore(newTestDB(t /* no migrations */))
	if _, _, err := s.Get(context.Background(), "x.html"); err == nil {
		t.Fatalf("expected error for missing table")
	}
}
