package grounding

import "strings"

// Interceptor is the fixed-phrase fast path. When an utterance contains
// one of the trigger phrases (case-insensitive substring), the canned
// response is returned without touching the catalog or the backend. It
// exists purely to cut latency on frequent non-ordering chit-chat and is
// independent of order state.
type Interceptor struct {
	phrases  []string
	response string
}

// DefaultInterceptPhrases are greeting-style openers that never need the
// generation backend.
var DefaultInterceptPhrases = []string{
	"hello",
	"hi there",
	"good morning",
	"good evening",
	"how are you",
}

// DefaultInterceptResponse is spoken on a phrase hit.
const DefaultInterceptResponse = "Hi, welcome to the drive-thru! What can I get for you today?"

// NewInterceptor builds an interceptor over the given phrases. Empty
// phrases are dropped; with no usable phrases the interceptor never fires.
func NewInterceptor(phrases []string, response string) *Interceptor {
	if response == "" {
		response = DefaultInterceptResponse
	}
	lowered := make([]string, 0, len(phrases))
	for _, p := range phrases {
		p = strings.ToLower(strings.TrimSpace(p))
		if p != "" {
			lowered = append(lowered, p)
		}
	}
	return &Interceptor{phrases: lowered, response: response}
}

// Intercept checks the utterance against the trigger phrases and returns
// the canned response on a hit.
func (i *Interceptor) Intercept(utterance string) (string, bool) {
	text := strings.ToLower(utterance)
	if text == "" {
		return "", false
	}
	for _, p := range i.phrases {
		if strings.Contains(text, p) {
			return i.response, true
		}
	}
	return "", false
}
