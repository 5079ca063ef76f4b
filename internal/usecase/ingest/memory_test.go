package ingest

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/kailas-cloud/reviewdex/internal/db/memory"
	"github.com/kailas-cloud/reviewdex/internal/domain"
	"github.com/kailas-cloud/reviewdex/internal/domain/review"
	"github.com/kailas-cloud/reviewdex/internal/domain/search/request"
	"github.com/kailas-cloud/reviewdex/internal/reader"
	"github.com/kailas-cloud/reviewdex/internal/repository/index"
	"github.com/kailas-cloud/reviewdex/internal/repository/search"
	"github.com/kailas-cloud/reviewdex/internal/repository/vector"
	"github.com/kailas-cloud/reviewdex/internal/usecase/query"
)

const twoRows = `Id,Title,Price,User_id,profileName,review/helpfulness,review/score,review/time,review/summary,review/text
1882931173,Its Only Art If Its Well Hung!,,AVCGYZL8FQQTD,Jim of Oz,7/7,4.0,940636800,Nice collection of Julie Strain images,This is only for Julie Strain fans.
0826414346,Dr. Seuss: American Icon,,A30TK6U7DNS82R,Kevin Killian,10/10,5.0,1095724800,Really Enjoyed It,I changed my mind.
`

func TestMemory_IngestThenLookupByID(t *testing.T) {
	path := filepath.Join(t.TempDir(), "books_rating.csv")
	if err := os.WriteFile(path, []byte(twoRows), 0o600); err != nil {
		t.Fatalf("write csv: %v", err)
	}

	ctx := context.Background()
	store := memory.NewStore()
	spec := testSpec(t)
	indexes := index.New(store)
	vectors := vector.New(store)
	emb := &hashEmbedder{}

	p := New(spec, indexes, vectors, emb, reader.New(reader.DefaultLimit, nil), fastOptions(PolicySkip), nil)
	rep, err := p.Run(ctx, path)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if !rep.Created || rep.Upserted != 2 || !rep.Populated {
		t.Fatalf("unexpected report %+v", rep)
	}

	// Second run finds the index and leaves it alone.
	again, err := p.Run(ctx, path)
	if err != nil || !again.Skipped {
		t.Fatalf("expected skipped second run, got %+v %v", again, err)
	}

	stats, err := indexes.Stats(ctx, spec.Name(), domain.DefaultNamespace)
	if err != nil {
		t.Fatalf("Stats: %v", err)
	}
	if stats.TotalVectorCount != 2 || stats.Namespaces[domain.DefaultNamespace] != 2 || stats.Dimension != 4 {
		t.Errorf("unexpected stats %+v", stats)
	}

	id := review.DeriveIdentifier(review.Record{ID: "0826414346", UserID: "A30TK6U7DNS82R", Time: 1095724800})
	q := query.New(spec.Name(), spec.Metric(), search.New(store), vectors, emb, nil).WithDescriber(indexes)
	req, err := request.NewIDLookup(domain.DefaultNamespace, id, 5)
	if err != nil {
		t.Fatalf("NewIDLookup: %v", err)
	}

	ctx, cancel := context.WithTimeout(ctx, time.Second)
	defer cancel()
	res, err := q.Query(ctx, &req)
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if len(res) != 2 {
		t.Fatalf("expected 2 matches, got %d", len(res))
	}
	if res[0].ID() != id {
		t.Errorf("top match = %q, want %q", res[0].ID(), id)
	}
	if res[0].Score() < 0.9999 || res[0].Score() > 1 {
		t.Errorf("self match score = %v, want 1.0", res[0].Score())
	}
	if res[1].Score() > res[0].Score() {
		t.Error("results must be ordered by descending score")
	}

	title, err := res[0].Field(review.FieldTitle)
	if err != nil || title != "Dr. Seuss: American Icon" {
		t.Errorf("title = %q, %v", title, err)
	}
	score, err := res[0].Field(review.FieldScore)
	if err != nil || score != "5" {
		t.Errorf("review/score = %q, %v", score, err)
	}
	if _, err := res[0].Field(review.FieldText); err == nil {
		t.Error("review text must not be stored as metadata")
	}
}

func TestMemory_HybridFilter(t *testing.T) {
	path := filepath.Join(t.TempDir(), "books_rating.csv")
	if err := os.WriteFile(path, []byte(twoRows), 0o600); err != nil {
		t.Fatalf("write csv: %v", err)
	}

	ctx := context.Background()
	store := memory.NewStore()
	spec := testSpec(t)
	emb := &hashEmbedder{}
	vectors := vector.New(store)

	if _, err := New(spec, index.New(store), vectors, emb, reader.New(0, nil), fastOptions(PolicySkip), nil).
		Run(ctx, path); err != nil {
		t.Fatalf("Run: %v", err)
	}

	q := query.New(spec.Name(), spec.Metric(), search.New(store), vectors, emb, nil)
	for _, def := range []query.Definition{
		{Kind: "hybrid", Text: "romance novels", Filter: map[string]any{"review/score": map[string]any{"$gte": 4.5}}},
		{Kind: "filter", Filter: map[string]any{"Title": map[string]any{"$eq": "Dr. Seuss: American Icon"}}},
	} {
		res, err := q.Run(ctx, def)
		if err != nil {
			t.Fatalf("%s: %v", def.Kind, err)
		}
		if len(res) != 1 {
			t.Fatalf("%s: expected 1 match, got %d", def.Kind, len(res))
		}
		if title, _ := res[0].Field(review.FieldTitle); title != "Dr. Seuss: American Icon" {
			t.Errorf("%s: unexpected match %q", def.Kind, title)
		}
	}
}
