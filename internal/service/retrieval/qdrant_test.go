package retrieval

import (
	"context"
	"errors"
	"testing"

	"github.com/cloudwego/eino/components/embedding"
	"github.com/qdrant/go-client/qdrant"
)

type fakeEmbedder struct {
	vectors [][]float64
	err     error
}

func (f *fakeEmbedder) EmbedStrings(context.Context, []string, ...embedding.Option) ([][]float64, error) {
	return f.vectors, f.err
}

type fakeSearcher struct {
	points  []*qdrant.ScoredPoint
	err     error
	lastReq *qdrant.QueryPoints
}

func (f *fakeSearcher) Query(_ context.Context, req *qdrant.QueryPoints) ([]*qdrant.ScoredPoint, error) {
	f.lastReq = req
	return f.points, f.err
}

func (f *fakeSearcher) HealthCheck(context.Context) (*qdrant.HealthCheckReply, error) {
	return &qdrant.HealthCheckReply{}, f.err
}

func scoredPoint(key, text string) *qdrant.ScoredPoint {
	return &qdrant.ScoredPoint{
		Payload: map[string]*qdrant.Value{
			key: {Kind: &qdrant.Value_StringValue{StringValue: text}},
		},
	}
}

func TestRetrieveJoinsSnippets(t *testing.T) {
	searcher := &fakeSearcher{points: []*qdrant.ScoredPoint{
		scoredPoint("text", "first scenario"),
		scoredPoint("text", "second scenario"),
	}}
	svc := NewService(&fakeEmbedder{vectors: [][]float64{{0.1, 0.2}}}, searcher, "scenarios", 3)

	got := svc.Retrieve(t.Context(), "conflict with my manager")
	if got != "first scenario\n\nsecond scenario" {
		t.Fatalf("unexpected context: %q", got)
	}
	if searcher.lastReq.CollectionName != "scenarios" {
		t.Fatalf("unexpected collection: %q", searcher.lastReq.CollectionName)
	}
	if got := *searcher.lastReq.Limit; got != 3 {
		t.Fatalf("unexpected limit: %d", got)
	}
}

func TestRetrieveFallsBackToPageContentKey(t *testing.T) {
	searcher := &fakeSearcher{points: []*qdrant.ScoredPoint{
		scoredPoint("page_content", "legacy snippet"),
	}}
	svc := NewService(&fakeEmbedder{vectors: [][]float64{{0.1}}}, searcher, "scenarios", 3)

	if got := svc.Retrieve(t.Context(), "anything"); got != "legacy snippet" {
		t.Fatalf("unexpected context: %q", got)
	}
}

func TestRetrieveEmbeddingFailure(t *testing.T) {
	svc := NewService(&fakeEmbedder{err: errors.New("rate limited")}, &fakeSearcher{}, "scenarios", 3)

	if got := svc.Retrieve(t.Context(), "anything"); got != NoContextAvailable {
		t.Fatalf("expected %q, got %q", NoContextAvailable, got)
	}
}

func TestRetrieveSearchFailure(t *testing.T) {
	searcher := &fakeSearcher{err: errors.New("connection refused")}
	svc := NewService(&fakeEmbedder{vectors: [][]float64{{0.1}}}, searcher, "scenarios", 3)

	if got := svc.Retrieve(t.Context(), "anything"); got != NoContextAvailable {
		t.Fatalf("expected %q, got %q", NoContextAvailable, got)
	}
}

func TestRetrieveNoMatches(t *testing.T) {
	svc := NewService(&fakeEmbedder{vectors: [][]float64{{0.1}}}, &fakeSearcher{}, "scenarios", 3)

	if got := svc.Retrieve(t.Context(), "anything"); got != NoRelevantContext {
		t.Fatalf("expected %q, got %q", NoRelevantContext, got)
	}
}

func TestRetrieveSkipsEmptyPayloads(t *testing.T) {
	searcher := &fakeSearcher{points: []*qdrant.ScoredPoint{
		{},
		scoredPoint("text", "   "),
		scoredPoint("text", "useful"),
	}}
	svc := NewService(&fakeEmbedder{vectors: [][]float64{{0.1}}}, searcher, "scenarios", 3)

	if got := svc.Retrieve(t.Context(), "anything"); got != "useful" {
		t.Fatalf("unexpected context: %q", got)
	}
}

func TestDefaultTopK(t *testing.T) {
	searcher := &fakeSearcher{}
	svc := NewService(&fakeEmbedder{vectors: [][]float64{{0.1}}}, searcher, "scenarios", 0)

	svc.Retrieve(t.Context(), "anything")
	if got := *searcher.lastReq.Limit; got != 3 {
		t.Fatalf("expected default top-k of 3, got %d", got)
	}
}

func TestReady(t *testing.T) {
	ok := NewService(&fakeEmbedder{}, &fakeSearcher{}, "scenarios", 3)
	if !ok.Ready(t.Context()) {
		t.Fatal("expected ready")
	}

	down := NewService(&fakeEmbedder{}, &fakeSearcher{err: errors.New("down")}, "scenarios", 3)
	if down.Ready(t.Context()) {
		t.Fatal("expected not ready")
	}

	var nilSvc *Service
	if nilSvc.Ready(t.Context()) {
		t.Fatal("nil service must report not ready")
	}
}
