package retrieval

import (
	"context"
	"log"
	"strings"

	"github.com/cloudwego/eino/components/embedding"
	"github.com/qdrant/go-client/qdrant"
)

// Sentinel context strings returned when retrieval cannot contribute.
// Retrieval is best-effort and never fails a turn.
const (
	NoContextAvailable = "No context available."
	NoRelevantContext  = "No relevant context found."
)

// payloadKeys are tried in order when extracting snippet text from a point.
// Collections ingested through different pipelines use either key.
var payloadKeys = [...]string{"text", "page_content"}

// PointSearcher is the slice of the Qdrant client the retriever needs.
type PointSearcher interface {
	Query(ctx context.Context, req *qdrant.QueryPoints) ([]*qdrant.ScoredPoint, error)
	HealthCheck(ctx context.Context) (*qdrant.HealthCheckReply, error)
}

// Service retrieves reference coaching snippets for a user message by
// embedding the message and running nearest-neighbor search against a
// Qdrant collection.
type Service struct {
	embedder   embedding.Embedder
	points     PointSearcher
	collection string
	topK       uint64
}

// NewService wires an embedder and a Qdrant point searcher into a retriever.
func NewService(embedder embedding.Embedder, points PointSearcher, collection string, topK uint64) *Service {
	if topK == 0 {
		topK = 3
	}
	return &Service{
		embedder:   embedder,
		points:     points,
		collection: collection,
		topK:       topK,
	}
}

// Retrieve returns the supporting snippets for the message, joined with
// blank lines. Provider errors degrade to a sentinel string.
func (s *Service) Retrieve(ctx context.Context, message string) string {
	if s == nil || s.embedder == nil || s.points == nil {
		return NoContextAvailable
	}

	vectors, err := s.embedder.EmbedStrings(ctx, []string{message})
	if err != nil || len(vectors) == 0 || len(vectors[0]) == 0 {
		log.Printf("[retrieval] embedding failed: %v", err)
		return NoContextAvailable
	}

	query := make([]float32, len(vectors[0]))
	for i, v := range vectors[0] {
		query[i] = float32(v)
	}

	points, err := s.points.Query(ctx, &qdrant.QueryPoints{
		CollectionName: s.collection,
		Query:          qdrant.NewQuery(query...),
		Limit:          qdrant.PtrOf(s.topK),
		WithPayload:    qdrant.NewWithPayload(true),
	})
	if err != nil {
		log.Printf("[retrieval] qdrant query failed: %v", err)
		return NoContextAvailable
	}

	snippets := make([]string, 0, len(points))
	for _, point := range points {
		if text := snippetText(point); text != "" {
			snippets = append(snippets, text)
		}
	}

	if len(snippets) == 0 {
		return NoRelevantContext
	}
	return strings.Join(snippets, "\n\n")
}

// Ready reports whether the collaborator answers its health probe.
func (s *Service) Ready(ctx context.Context) bool {
	if s == nil || s.points == nil {
		return false
	}
	_, err := s.points.HealthCheck(ctx)
	return err == nil
}

func snippetText(point *qdrant.ScoredPoint) string {
	if point == nil || point.Payload == nil {
		return ""
	}
	for _, key := range payloadKeys {
		if value, ok := point.Payload[key]; ok {
			if text := strings.TrimSpace(value.GetStringValue()); text != "" {
				return text
			}
		}
	}
	return ""
}
