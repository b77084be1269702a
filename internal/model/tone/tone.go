package tone

import "strings"

// Tone selects the conversational style for generated replies. It is chosen
// once per session and persists until the session is cleared.
type Tone string

const (
	Unset        Tone = ""
	Professional Tone = "Professional"
	Casual       Tone = "Casual"
)

// Options lists the selectable tone labels, in quick-reply order.
func Options() []string {
	return []string{string(Professional), string(Casual)}
}

// Parse matches a message that is exactly a tone label.
func Parse(message string) (Tone, bool) {
	switch strings.TrimSpace(message) {
	case string(Professional):
		return Professional, true
	case string(Casual):
		return Casual, true
	default:
		return Unset, false
	}
}

// Directive returns the tone block injected into the system prompt.
// An unset tone falls back to the professional directive.
func (t Tone) Directive() string {
	if t == Casual {
		return casualDirective
	}
	return professionalDirective
}

const casualDirective = `• Use a CASUAL, Gen Z tone: relaxed, conversational, like texting a smart friend
• Use phrases like: "That sucks", "Ugh that's annoying", "Yeah I get it", "Super frustrating"
• Use contractions: "you're", "that's", "don't", "can't"
• Keep it SHORT and NATURAL - sound like you're texting, not writing an essay
• Be supportive but chill: "Okay let's figure this out" instead of "I understand your concern"
• Example casual response: "Ugh that's super frustrating. So the main issue is they're ghosting you? What part bothers you most - them ignoring you or how it makes you look?"`

const professionalDirective = `• Use a PROFESSIONAL tone: measured, empathetic, but formal like a workplace mentor or HR coach
• Use complete sentences with proper grammar
• Use phrases like: "I understand this is challenging", "That's a difficult situation", "Let's explore this together"
• Be empathetic but maintain professional distance
• Avoid slang or Gen Z casual language
• Example professional response: "That's a challenging situation. It sounds like communication barriers are impacting your work. Have you had an opportunity to address this directly with your colleague?"`
