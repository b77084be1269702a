package turn

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/bridgetext/coachbot/backend/internal/analysis/safety"
	"github.com/bridgetext/coachbot/backend/internal/model/chat"
	"github.com/bridgetext/coachbot/backend/internal/model/tone"
	"github.com/bridgetext/coachbot/backend/internal/service/coach"
	"github.com/bridgetext/coachbot/backend/internal/service/session"
)

type fakeRetriever struct {
	context string
	queries []string
}

func (f *fakeRetriever) Retrieve(_ context.Context, message string) string {
	f.queries = append(f.queries, message)
	return f.context
}

type fakeGenerator struct {
	reply string
	err   error
	calls []coach.GenerateInput
}

func (f *fakeGenerator) Generate(_ context.Context, in coach.GenerateInput) (string, error) {
	f.calls = append(f.calls, in)
	if f.err != nil {
		return "", f.err
	}
	return f.reply, nil
}

func staticInit(collab Collaborators) InitFunc {
	return func(context.Context) (Collaborators, error) {
		return collab, nil
	}
}

func newTestEngine(t *testing.T, gen *fakeGenerator) (*Engine, *session.Store, *fakeRetriever) {
	t.Helper()

	retriever := &fakeRetriever{context: "scenario snippet"}
	store := session.NewStore()
	engine := NewEngine(store, safety.NewKeywordFilter(), staticInit(Collaborators{
		Retriever: retriever,
		Generator: gen,
	}), 10)
	if err := engine.Initialize(t.Context()); err != nil {
		t.Fatalf("initialize: %v", err)
	}
	return engine, store, retriever
}

func TestEmptyMessageRejected(t *testing.T) {
	engine, _, _ := newTestEngine(t, &fakeGenerator{reply: "ok"})

	if _, err := engine.Run(t.Context(), "s1", "   "); !errors.Is(err, ErrEmptyMessage) {
		t.Fatalf("expected ErrEmptyMessage, got %v", err)
	}
}

func TestFirstTurnGreeting(t *testing.T) {
	gen := &fakeGenerator{reply: "coached"}
	engine, store, _ := newTestEngine(t, gen)

	res, err := engine.Run(t.Context(), "s1", "Hi!")
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if res.Reply != greetingReply {
		t.Fatalf("expected greeting, got %q", res.Reply)
	}
	if len(res.QuickReplies) != 0 {
		t.Fatalf("greeting should carry no quick replies, got %v", res.QuickReplies)
	}
	if len(gen.calls) != 0 {
		t.Fatal("greeting must not hit the model")
	}
	if got := len(store.Transcript("s1")); got != 1 {
		t.Fatalf("expected the greeting exchange recorded, got %d", got)
	}
}

func TestGreetingOnlyOnFirstTurn(t *testing.T) {
	gen := &fakeGenerator{reply: "coached"}
	engine, store, _ := newTestEngine(t, gen)

	store.Append("s1", chat.Exchange{User: "earlier", Bot: "reply"})

	res, err := engine.Run(t.Context(), "s1", "hey")
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if res.Reply == greetingReply {
		t.Fatal("greeting must only fire on an empty transcript")
	}
}

func TestSafetyTriggerDominates(t *testing.T) {
	gen := &fakeGenerator{reply: "coached"}
	engine, store, _ := newTestEngine(t, gen)
	store.SetTone("s1", tone.Casual)

	res, err := engine.Run(t.Context(), "s1", "I want to hurt myself")
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if !strings.Contains(res.Reply, "988") {
		t.Fatalf("expected the crisis disclosure, got %q", res.Reply)
	}
	if len(gen.calls) != 0 {
		t.Fatal("safety replies must not hit the model")
	}
}

func TestMessageLimitBlocksTurn(t *testing.T) {
	gen := &fakeGenerator{reply: "coached"}
	engine, store, _ := newTestEngine(t, gen)
	store.SetTone("s1", tone.Professional)

	for i := 0; i < 10; i++ {
		store.Append("s1", chat.Exchange{User: "q", Bot: "a"})
	}

	res, err := engine.Run(t.Context(), "s1", "one more question about my manager")
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if !res.LimitReached {
		t.Fatal("expected LimitReached")
	}
	if res.Reply != limitReply {
		t.Fatalf("expected limit reply, got %q", res.Reply)
	}
	if len(gen.calls) != 0 {
		t.Fatal("limit turns must not hit the model")
	}
	if got := len(store.Transcript("s1")); got != 10 {
		t.Fatalf("limit turn must not be appended, transcript has %d", got)
	}
}

func TestSubstantiveWithoutToneAsksForTone(t *testing.T) {
	gen := &fakeGenerator{reply: "coached"}
	engine, _, _ := newTestEngine(t, gen)

	res, err := engine.Run(t.Context(), "s1", "My manager keeps changing priorities every week")
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if res.Reply != askToneReply {
		t.Fatalf("expected tone prompt, got %q", res.Reply)
	}
	want := tone.Options()
	if len(res.QuickReplies) != len(want) || res.QuickReplies[0] != want[0] {
		t.Fatalf("expected tone options %v, got %v", want, res.QuickReplies)
	}
	if len(gen.calls) != 0 {
		t.Fatal("tone prompt must not hit the model")
	}
}

func TestShortMessageWithoutToneAsksForDetail(t *testing.T) {
	engine, _, _ := newTestEngine(t, &fakeGenerator{reply: "coached"})

	res, err := engine.Run(t.Context(), "s1", "deadlines")
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if res.Reply != clarifyReply {
		t.Fatalf("expected clarify prompt, got %q", res.Reply)
	}
}

func TestToneLabelAnswersPendingQuestion(t *testing.T) {
	gen := &fakeGenerator{reply: "coached"}
	engine, store, retriever := newTestEngine(t, gen)

	pending := "My manager keeps changing priorities every week"
	if _, err := engine.Run(t.Context(), "s1", pending); err != nil {
		t.Fatalf("run: %v", err)
	}

	res, err := engine.Run(t.Context(), "s1", "Casual")
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if res.Reply != "coached" {
		t.Fatalf("expected generated reply, got %q", res.Reply)
	}
	if len(gen.calls) != 1 {
		t.Fatalf("expected one generation, got %d", len(gen.calls))
	}
	if gen.calls[0].Query != pending {
		t.Fatalf("expected the pending question as query, got %q", gen.calls[0].Query)
	}
	if gen.calls[0].Tone != tone.Casual {
		t.Fatalf("expected casual tone, got %s", gen.calls[0].Tone)
	}
	if gen.calls[0].Context != "scenario snippet" {
		t.Fatalf("expected retrieved context, got %q", gen.calls[0].Context)
	}
	if len(retriever.queries) != 1 || retriever.queries[0] != pending {
		t.Fatalf("retrieval should use the pending question, got %v", retriever.queries)
	}
	if store.Tone("s1") != tone.Casual {
		t.Fatal("tone selection must persist")
	}
}

func TestToneLabelWithoutPendingQuestionAcks(t *testing.T) {
	gen := &fakeGenerator{reply: "coached"}
	engine, _, _ := newTestEngine(t, gen)

	res, err := engine.Run(t.Context(), "s1", "Professional")
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if !strings.Contains(res.Reply, "Professional") {
		t.Fatalf("expected tone acknowledgment, got %q", res.Reply)
	}
	if len(res.QuickReplies) == 0 {
		t.Fatal("tone ack should offer topic starters")
	}
	if len(gen.calls) != 0 {
		t.Fatal("tone ack must not hit the model")
	}
}

func TestTonePersistsAcrossTurns(t *testing.T) {
	gen := &fakeGenerator{reply: "coached"}
	engine, store, _ := newTestEngine(t, gen)
	store.SetTone("s1", tone.Professional)

	if _, err := engine.Run(t.Context(), "s1", "How do I handle conflicting feedback?"); err != nil {
		t.Fatalf("run: %v", err)
	}
	if len(gen.calls) != 1 {
		t.Fatalf("expected one generation, got %d", len(gen.calls))
	}
	if gen.calls[0].Tone != tone.Professional {
		t.Fatalf("expected the stored tone, got %s", gen.calls[0].Tone)
	}
}

func TestGenerationFailureDegradesToApology(t *testing.T) {
	gen := &fakeGenerator{err: errors.New("model down")}
	engine, store, _ := newTestEngine(t, gen)
	store.SetTone("s1", tone.Casual)

	res, err := engine.Run(t.Context(), "s1", "My teammate takes credit for my work")
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if res.Reply != apologyReply {
		t.Fatalf("expected apology, got %q", res.Reply)
	}
	if got := len(store.Transcript("s1")); got != 1 {
		t.Fatalf("failed generations still complete the turn, transcript has %d", got)
	}
}

func TestUnavailableCollaboratorsRetryOnce(t *testing.T) {
	store := session.NewStore()
	var attempts int
	gen := &fakeGenerator{reply: "coached"}
	retriever := &fakeRetriever{context: "ctx"}

	init := func(context.Context) (Collaborators, error) {
		attempts++
		if attempts == 1 {
			return Collaborators{}, errors.New("qdrant unreachable")
		}
		return Collaborators{Retriever: retriever, Generator: gen}, nil
	}

	engine := NewEngine(store, safety.NewKeywordFilter(), init, 10)
	store.SetTone("s1", tone.Casual)

	// Startup attempt fails; the engine stays usable.
	if err := engine.Initialize(t.Context()); err == nil {
		t.Fatal("expected startup init failure")
	}

	res, err := engine.Run(t.Context(), "s1", "Help me prepare for a review")
	if err != nil {
		t.Fatalf("expected in-request re-init to recover: %v", err)
	}
	if res.Reply != "coached" {
		t.Fatalf("expected generated reply, got %q", res.Reply)
	}
	if attempts != 2 {
		t.Fatalf("expected 2 init attempts, got %d", attempts)
	}
}

func TestUnavailableWhenReinitAlsoFails(t *testing.T) {
	store := session.NewStore()
	init := func(context.Context) (Collaborators, error) {
		return Collaborators{}, errors.New("still down")
	}

	engine := NewEngine(store, safety.NewKeywordFilter(), init, 10)

	if _, err := engine.Run(t.Context(), "s1", "Any message at all here"); !errors.Is(err, ErrUnavailable) {
		t.Fatalf("expected ErrUnavailable, got %v", err)
	}
	if got := len(store.Transcript("s1")); got != 0 {
		t.Fatalf("failed turns must not be recorded, transcript has %d", got)
	}
}

func TestLastSubstantiveSkipsNoise(t *testing.T) {
	exchanges := []chat.Exchange{
		{User: "hi", Bot: "greeting"},
		{User: "My manager micromanages everything I do", Bot: "tone prompt"},
		{User: "ok", Bot: "clarify"},
	}

	if got := lastSubstantive(exchanges); got != "My manager micromanages everything I do" {
		t.Fatalf("unexpected pending question %q", got)
	}

	if got := lastSubstantive([]chat.Exchange{{User: "hey", Bot: "x"}}); got != "" {
		t.Fatalf("expected no pending question, got %q", got)
	}
}
