package domain

import (
	"reflect"
	"testing"
)

func TestParseHashtags(t *testing.T) {
	got := ParseHashtags("Best latte in town #CoffeeDallas #brunch #coffeedallas no-tag #dallas_eats")
	want := []string{"coffeedallas", "brunch", "dallas_eats"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	if got := ParseHashtags("nothing here"); len(got) != 0 || got == nil {
		t.Fatalf("expected empty non-nil slice, got %#v", got)
	}
}

func TestNormalizeHashtags(t *testing.T) {
	got := NormalizeHashtags([]string{" #Coffee ", "coffee", "", "  ", "Brunch"})
	want := []string{"coffee", "brunch"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("got %v, want %v", got, want)
	}
}
