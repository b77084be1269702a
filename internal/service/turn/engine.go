package turn

import (
	"context"
	"errors"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/bridgetext/coachbot/backend/internal/analysis/safety"
	"github.com/bridgetext/coachbot/backend/internal/model/chat"
	"github.com/bridgetext/coachbot/backend/internal/model/tone"
	"github.com/bridgetext/coachbot/backend/internal/service/coach"
	"github.com/bridgetext/coachbot/backend/internal/service/session"
)

var (
	ErrEmptyMessage = errors.New("message cannot be empty")
	ErrUnavailable  = errors.New("assistant services unavailable")
)

// ContextRetriever supplies reference snippets for a message. Retrieval is
// best-effort; implementations degrade to sentinel strings instead of failing.
type ContextRetriever interface {
	Retrieve(ctx context.Context, message string) string
}

// ReplyGenerator produces one coaching reply.
type ReplyGenerator interface {
	Generate(ctx context.Context, in coach.GenerateInput) (string, error)
}

// SafetyClassifier screens a message against the safety keyword sets.
type SafetyClassifier interface {
	Classify(text string) (safety.Match, bool)
}

// Collaborators bundles the two external-provider clients a turn may call.
type Collaborators struct {
	Retriever ContextRetriever
	Generator ReplyGenerator
}

func (c Collaborators) complete() bool {
	return c.Retriever != nil && c.Generator != nil
}

// InitFunc builds the collaborators. The engine calls it at startup and again
// once per request whenever a collaborator is missing.
type InitFunc func(ctx context.Context) (Collaborators, error)

// Result is the outcome of one turn.
type Result struct {
	Reply        string
	QuickReplies []string
	LimitReached bool
}

// Engine is the turn-state decider: given a conversation's length, prior tone
// selection, and the nature of the current message, it picks the next bot
// action, the quick replies to surface, and whether to call the model at all.
//
// Pipeline order (the limit is checked before every other rule; safety
// dominates the greeting and tone rules):
// limit, safety, greeting, tone label, ask-tone / clarify, generate.
type Engine struct {
	sessions   *session.Store
	classifier SafetyClassifier
	init       InitFunc
	limit      int

	mu     sync.Mutex
	collab Collaborators
}

// NewEngine wires the decider. messageLimit <= 0 falls back to 10.
func NewEngine(sessions *session.Store, classifier SafetyClassifier, init InitFunc, messageLimit int) *Engine {
	if messageLimit <= 0 {
		messageLimit = 10
	}
	return &Engine{
		sessions:   sessions,
		classifier: classifier,
		init:       init,
		limit:      messageLimit,
	}
}

// Initialize builds the collaborators eagerly. A failure here is not fatal:
// the engine retries once per request until they come up.
func (e *Engine) Initialize(ctx context.Context) error {
	collab, err := e.init(ctx)
	if err != nil {
		return err
	}

	e.mu.Lock()
	e.collab = collab
	e.mu.Unlock()
	return nil
}

// Ready reports per-collaborator readiness for the health probe.
func (e *Engine) Ready() (retrieval, generation bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.collab.Retriever != nil, e.collab.Generator != nil
}

// collaborators returns the current collaborators, attempting one
// re-initialization when any is missing.
func (e *Engine) collaborators(ctx context.Context) (Collaborators, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.collab.complete() {
		return e.collab, nil
	}

	log.Printf("[turn] collaborators missing, attempting re-initialization")
	collab, err := e.init(ctx)
	if err != nil || !collab.complete() {
		log.Printf("[turn] re-initialization failed: %v", err)
		return Collaborators{}, ErrUnavailable
	}

	e.collab = collab
	return e.collab, nil
}

// Run executes one turn for the session.
func (e *Engine) Run(ctx context.Context, sessionID, message string) (Result, error) {
	msg := strings.TrimSpace(message)
	if msg == "" {
		return Result{}, ErrEmptyMessage
	}

	collab, err := e.collaborators(ctx)
	if err != nil {
		return Result{}, err
	}

	state := e.sessions.Snapshot(sessionID)

	// The limit turn is never appended, so the count stays at the cap.
	if state.Len() >= e.limit {
		log.Printf("[turn] session=%s hit message limit", sessionID)
		return Result{Reply: limitReply, QuickReplies: []string{}, LimitReached: true}, nil
	}

	res := e.decide(ctx, collab, state, msg)

	e.sessions.Append(sessionID, chat.Exchange{
		User:      msg,
		Bot:       res.Reply,
		Timestamp: time.Now().UTC(),
	})

	return res, nil
}

func (e *Engine) decide(ctx context.Context, collab Collaborators, state chat.Session, msg string) Result {
	if match, ok := e.classifier.Classify(msg); ok {
		log.Printf("[turn] session=%s safety trigger category=%s keyword=%q", state.ID, match.Category, match.Keyword)
		return Result{Reply: match.Reply, QuickReplies: []string{}}
	}

	if state.Len() == 0 && isGreeting(msg) {
		return Result{Reply: greetingReply, QuickReplies: []string{}}
	}

	if selected, ok := tone.Parse(msg); ok {
		e.sessions.SetTone(state.ID, selected)
		log.Printf("[turn] session=%s tone selected: %s", state.ID, selected)

		// Resolve the question the user asked before picking a tone.
		if query := lastSubstantive(state.Exchanges); query != "" {
			reply := e.generate(ctx, collab, selected, query, state.Exchanges)
			return Result{Reply: reply, QuickReplies: []string{}}
		}
		return Result{Reply: toneAck(selected), QuickReplies: topicReplies()}
	}

	if state.Tone == tone.Unset {
		if isSubstantive(msg) {
			return Result{Reply: askToneReply, QuickReplies: tone.Options()}
		}
		return Result{Reply: clarifyReply, QuickReplies: []string{}}
	}

	reply := e.generate(ctx, collab, state.Tone, msg, state.Exchanges)
	return Result{Reply: reply, QuickReplies: []string{}}
}

// generate runs retrieval and the model call. Generation failures degrade to
// a static apology; the turn still completes.
func (e *Engine) generate(ctx context.Context, collab Collaborators, t tone.Tone, query string, history []chat.Exchange) string {
	context := collab.Retriever.Retrieve(ctx, query)

	reply, err := collab.Generator.Generate(ctx, coach.GenerateInput{
		Query:   query,
		Tone:    t,
		Context: context,
		History: history,
	})
	if err != nil {
		log.Printf("[turn] generation failed: %v", err)
		return apologyReply
	}
	return reply
}
