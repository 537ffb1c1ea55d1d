package pgstore

import (
	"io/fs"
	"strings"
	"testing"
)

func TestFormatVector(t *testing.T) {
	if got := formatVector(nil); got != nil {
		t.Errorf("empty embedding should be NULL, got %v", got)
	}
	got := formatVector([]float32{0.5, -1, 0.125})
	if got != "[0.500000,-1.000000,0.125000]" {
		t.Errorf("unexpected vector text %v", got)
	}
}

func TestChunkIDDeterministic(t *testing.T) {
	a := ChunkID("faq/split-payment.md", 0)
	if a != ChunkID("faq/split-payment.md", 0) {
		t.Error("same path and index should give the same id")
	}
	if a == ChunkID("faq/split-payment.md", 1) {
		t.Error("different index should give a different id")
	}
	if a == ChunkID("faq/split-payment.md#0", 0) {
		t.Error("different path should give a different id")
	}
	if a.Version() != 5 {
		t.Errorf("expected name-based v5 uuid, got v%d", a.Version())
	}
}

func TestEmbeddedMigrations(t *testing.T) {
	files, err := fs.Glob(migrations, "migrations/*.sql")
	if err != nil || len(files) == 0 {
		t.Fatalf("no embedded migrations: %v", err)
	}
	data, err := fs.ReadFile(migrations, files[0])
	if err != nil {
		t.Fatal(err)
	}
	sql := string(data)
	for _, want := range []string{"-- +goose Up", "-- +goose Down", "content_chunks", "match_content_chunks", "StatementBegin"} {
		if !strings.Contains(sql, want) {
			t.Errorf("migration missing %q", want)
		}
	}
}
