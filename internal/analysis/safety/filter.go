package safety

import "strings"

// Category identifies which keyword set a message tripped.
type Category string

const (
	Crisis   Category = "crisis"
	Violence Category = "violence"
	Health   Category = "health"
)

// Match carries the classification outcome for a flagged message.
type Match struct {
	Category Category
	Keyword  string
	Reply    string
}

// KeywordFilter is a static substring classifier. It is deliberately
// heuristic: paraphrased threats slip through and innocent mentions
// ("knife" in a cooking story) can trip it.
type KeywordFilter struct{}

// NewKeywordFilter returns the default keyword classifier.
func NewKeywordFilter() *KeywordFilter {
	return &KeywordFilter{}
}

// checkOrder matters: "hurt myself" must resolve as crisis before the
// bare "hurt" in the health bucket can claim it.
var checkOrder = []Category{Crisis, Violence, Health}

var keywordBuckets = map[Category][]string{
	Crisis: {
		"suicide", "suicidal", "self-harm", "self harm", "hurt myself",
		"kill myself", "end my life", "end it all", "overdose",
		"want to die", "no reason to live",
	},
	Violence: {
		"kill", "murder", "violence", "assault", "weapon", "gun", "knife",
		"blood", "attack", "stab", "abuse", "threat", "harass", "beat",
	},
	Health: {
		"headache", "sick", "pain", "fever", "medication", "doctor",
		"hospital", "injury", "hurt",
	},
}

// ambiguousExclusions suppresses terms that double as ordinary workload
// phrasing, e.g. "beat the deadline".
var ambiguousExclusions = map[string][]string{
	"beat": {
		"deadline", "target", "quota", "goal", "record", "estimate",
		"competition", "competitor", "sales", "forecast",
	},
}

// Classify reports whether the message trips a safety keyword set and, if
// so, which canned disclosure to return.
func (f *KeywordFilter) Classify(text string) (Match, bool) {
	normalized := strings.ToLower(strings.TrimSpace(text))
	if normalized == "" {
		return Match{}, false
	}

	for _, category := range checkOrder {
		for _, keyword := range keywordBuckets[category] {
			if !strings.Contains(normalized, keyword) {
				continue
			}
			if excluded(normalized, keyword) {
				continue
			}
			return Match{
				Category: category,
				Keyword:  keyword,
				Reply:    replies[category],
			}, true
		}
	}

	return Match{}, false
}

func excluded(normalized, keyword string) bool {
	for _, marker := range ambiguousExclusions[keyword] {
		if strings.Contains(normalized, marker) {
			return true
		}
	}
	return false
}

var replies = map[Category]string{
	Violence: `⚠️ I'm concerned about what you've shared. If you're in immediate danger or witnessing illegal activity, please contact:

• Emergency Services: 911
• Workplace Violence Hotline: 1-800-799-7233

I'm designed to help with workplace communication challenges, not crisis or safety situations. Please reach out to professionals who can provide proper support.`,

	Crisis: `⚠️ I'm concerned about what you've shared. You don't have to face this alone — please reach out right now:

• National Suicide Prevention Lifeline: 988
• Emergency Services: 911

I'm designed to help with workplace communication challenges, not crisis situations. Please talk to someone who can provide proper support.`,

	Health: "I'm specifically designed for workplace communication challenges. For health concerns, please consult a medical professional. Can we focus on a work-related communication or teamwork challenge instead?",
}
