package repository

import (
	"reflect"
	"testing"

	"guru-chat/internal/domain"
)

func TestUniqueIDs(t *testing.T) {
	got := uniqueIDs([]string{" c1 ", "c2", "c1", "", "c3", "c2"})
	want := []string{"c1", "c2", "c3"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
	if out := uniqueIDs(nil); out == nil || len(out) != 0 {
		t.Fatalf("expected empty non-nil slice, got %#v", out)
	}
}

func TestMissingIDs(t *testing.T) {
	found := []domain.Character{{ID: "c1"}, {ID: "c3"}}
	got := missingIDs([]string{"c1", "c2", "c3", "c4"}, found)
	want := []string{"c2", "c4"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
}

func TestCharactersOrEmpty(t *testing.T) {
	if out := charactersOrEmpty(nil); out == nil {
		t.Fatalf("expected non-nil slice")
	}
	in := []domain.Character{{ID: "c1"}}
	if out := charactersOrEmpty(in); len(out) != 1 {
		t.Fatalf("expected input preserved")
	}
}
