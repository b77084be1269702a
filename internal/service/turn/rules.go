package turn

import (
	"fmt"
	"strings"

	"github.com/bridgetext/coachbot/backend/internal/model/chat"
	"github.com/bridgetext/coachbot/backend/internal/model/tone"
)

const (
	greetingReply = "Hey! 👋 I'm your workplace coach. Tell me about a challenge you're facing at work — a tricky teammate, a stressful deadline, anything on your mind."

	askToneReply = "Happy to dig into that. Quick thing first — how would you like me to reply?"

	clarifyReply = "Could you tell me a bit more about the workplace challenge you're facing?"

	limitReply = "You've reached the free message limit (10 messages). Upgrade to Premium for unlimited conversations! 🚀"

	apologyReply = "Sorry, I'm having trouble generating a response right now. Please try again."
)

func toneAck(t tone.Tone) string {
	return fmt.Sprintf("Got it — I'll reply in a %s tone. How can I help today?", t)
}

// topicReplies are the conversation starters offered once a tone is picked
// with no pending question.
func topicReplies() []string {
	return []string{
		"Work relationships",
		"Stress & deadlines",
		"Career growth",
		"Team conflicts",
	}
}

var greetingWords = map[string]struct{}{
	"hi": {}, "hello": {}, "hey": {}, "hii": {}, "hiii": {}, "sup": {}, "yo": {},
}

// isGreeting matches a bare salutation with no content behind it.
func isGreeting(msg string) bool {
	normalized := strings.ToLower(strings.TrimSpace(msg))
	normalized = strings.TrimRight(normalized, "!.?")
	_, ok := greetingWords[normalized]
	return ok
}

// isSubstantive is the heuristic for "the user described a real problem":
// three or more words.
func isSubstantive(msg string) bool {
	return len(strings.Fields(msg)) >= 3
}

// lastSubstantive walks the transcript backwards for the most recent user
// message worth answering: substantive, not a greeting, not a tone label.
func lastSubstantive(exchanges []chat.Exchange) string {
	for i := len(exchanges) - 1; i >= 0; i-- {
		msg := strings.TrimSpace(exchanges[i].User)
		if _, isTone := tone.Parse(msg); isTone {
			continue
		}
		if isGreeting(msg) || !isSubstantive(msg) {
			continue
		}
		return msg
	}
	return ""
}
