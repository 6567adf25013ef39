package item

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"testing"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/orgball2608/hashtag-discovery/internal/domain"
)

func TestUpsertQuery(t *testing.T) {
	stars := 4.5
	in := UpsertInput{
		Candidate: domain.CandidatePost{SourceID: "abc", Caption: "hello", LikeCount: domain.Int64(3)},
		Enrichment: domain.Enrichment{
			Narrative:      domain.Narrative{PlaceName: "Spot", YelpStars: &stars},
			Classification: domain.Classification{Groups: []string{"Coffee"}},
		},
	}

	query, args, err := upsertQuery(in)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	for _, want := range []string{
		"INSERT INTO items (source_post_id,source,caption,likes,views,\"timestamp\"",
		"ON CONFLICT (source_post_id) DO UPDATE SET source = EXCLUDED.source",
		"\"groups\" = EXCLUDED.\"groups\"",
		"updated_at = now()",
		"RETURNING id, (xmax = 0)",
	} {
		if !strings.Contains(query, want) {
			t.Errorf("query is missing %q:\n%s", want, query)
		}
	}
	if strings.Contains(query, "source_post_id = EXCLUDED") {
		t.Error("the conflict key must not be overwritten")
	}

	if len(args) != 17 {
		t.Fatalf("expected 17 args, got %d", len(args))
	}
	if args[0] != "abc" || args[1] != domain.SourceInstagram {
		t.Errorf("unexpected leading args %v", args[:2])
	}
	if views, ok := args[4].(*int64); !ok || views != nil {
		t.Errorf("unknown views must stay a nil pointer, got %#v", args[4])
	}
	if exp, ok := args[16].([]string); !ok || exp == nil || len(exp) != 0 {
		t.Errorf("nil experiences must be stored as an empty array, got %#v", args[16])
	}
}

func TestFilter(t *testing.T) {
	tests := []struct {
		name     string
		q        Query
		wantSQL  string
		wantArgs []any
	}{
		{"none", Query{}, "SELECT", nil},
		{"groups", Query{Groups: []string{"Coffee", " "}}, `WHERE ("groups" && $1)`, []any{[]string{"Coffee"}}},
		{
			"both",
			Query{Groups: []string{"Coffee"}, Experiences: []string{"Rooftop Views"}},
			`WHERE ("groups" && $1 AND experiences && $2)`,
			[]any{[]string{"Coffee"}, []string{"Rooftop Views"}},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			query, args, err := selectQuery(filter(tt.q), 20)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !strings.Contains(query, tt.wantSQL) {
				t.Errorf("query %q does not contain %q", query, tt.wantSQL)
			}
			if !strings.HasSuffix(query, "ORDER BY updated_at DESC, id DESC LIMIT 20") {
				t.Errorf("unexpected ordering: %s", query)
			}
			if len(tt.wantArgs) == 0 && len(args) != 0 {
				t.Errorf("expected no args, got %v", args)
			}
			if len(tt.wantArgs) > 0 && !reflect.DeepEqual(args, tt.wantArgs) {
				t.Errorf("args = %v, want %v", args, tt.wantArgs)
			}
		})
	}
}

func TestSelectQuery_NoLimit(t *testing.T) {
	query, _, err := selectQuery(sq.Eq{"id": int64(1)}, 0)
	if err != nil {
		t.Fatal(err)
	}
	if strings.Contains(query, "LIMIT") {
		t.Errorf("unexpected limit in %s", query)
	}
}

func TestMediaFor(t *testing.T) {
	suggested := "https://maps.example.com/spot.jpg"

	url, provider := mediaFor(UpsertInput{
		Candidate:  domain.CandidatePost{ImageURL: "https://cdn/1.jpg"},
		Enrichment: domain.Enrichment{Narrative: domain.Narrative{ImageURL: &suggested}},
	})
	if url != "https://cdn/1.jpg" || provider != domain.MediaProviderInstagram {
		t.Errorf("own image should win, got %q/%q", url, provider)
	}

	url, provider = mediaFor(UpsertInput{Enrichment: domain.Enrichment{Narrative: domain.Narrative{ImageURL: &suggested}}})
	if url != suggested || provider != domain.MediaProviderAISuggested {
		t.Errorf("expected suggested image, got %q/%q", url, provider)
	}

	if url, _ = mediaFor(UpsertInput{}); url != "" {
		t.Errorf("expected no media, got %q", url)
	}
}

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want error
	}{
		{"constraint violation", &pgconn.PgError{Code: "23502"}, ErrRejected},
		{"value too long", &pgconn.PgError{Code: "22001"}, ErrRejected},
		{"admin shutdown", &pgconn.PgError{Code: "57P01"}, ErrUnavailable},
		{"too many connections", &pgconn.PgError{Code: "53300"}, ErrUnavailable},
		{"network", errors.New("dial tcp: connection refused"), ErrUnavailable},
		{"already rejected", ErrRejected, ErrRejected},
		{"deadlock", &pgconn.PgError{Code: "40P01"}, ErrUnavailable},
		{"serialization failure", fmt.Errorf("commit: %w", &pgconn.PgError{Code: "40001"}), ErrUnavailable},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := classify(tt.err); !errors.Is(got, tt.want) {
				t.Errorf("classify(%v) = %v, want %v", tt.err, got, tt.want)
			}
		})
	}
}

func TestIsConflict(t *testing.T) {
	if !isConflict(fmt.Errorf("attach: %w", &pgconn.PgError{Code: "40P01"})) {
		t.Error("deadlock must be retried")
	}
	if !isConflict(&pgconn.PgError{Code: "40001"}) {
		t.Error("serialization failure must be retried")
	}
	if isConflict(&pgconn.PgError{Code: "23505"}) || isConflict(errors.New("boom")) {
		t.Error("only transaction conflicts are retried")
	}
}

func TestHashtagsFor_SortedLockOrder(t *testing.T) {
	a := hashtagsFor(domain.CandidatePost{Hashtags: []string{"#Jazz", "brunch", "art", "jazz"}})
	b := hashtagsFor(domain.CandidatePost{Hashtags: []string{"art", "jazz", "Brunch"}})

	want := []string{"art", "brunch", "jazz"}
	if !reflect.DeepEqual(a, want) || !reflect.DeepEqual(b, want) {
		t.Fatalf("got %v and %v, want %v", a, b, want)
	}
}
