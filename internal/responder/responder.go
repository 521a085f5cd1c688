// Package responder selects the canned reply for a chat message.
package responder

import (
	"fmt"
	"strings"
	"unicode"
)

// Rule identifies which entry of the rule table produced a reply.
type Rule string

const (
	RulePhrase   Rule = "phrase"
	RuleGreeting Rule = "greeting"
	RuleFarewell Rule = "farewell"
	RuleFallback Rule = "fallback"
)

const (
	PhraseReply   = "I am fine"
	GreetingReply = "Hello! How can I help you?"
	FarewellReply = "Goodbye! Have a great day!"
)

// fallbackFormat is filled with the trimmed input.
const fallbackFormat = "I received your message: '%s'. How can I assist you?"

var (
	phrase        = []string{"how", "are", "you"}
	greetingWords = map[string]bool{"hello": true, "hi": true}
	farewellWords = map[string]bool{"bye": true, "goodbye": true}
)

// Match evaluates the rule table in priority order (phrase, greeting,
// farewell, fallback) and returns the rule that fired with its reply.
func Match(message string) (Rule, string) {
	words := tokenize(message)

	if containsSequence(words, phrase) {
		return RulePhrase, PhraseReply
	}
	for _, w := range words {
		if greetingWords[w] {
			return RuleGreeting, GreetingReply
		}
	}
	for _, w := range words {
		if farewellWords[w] {
			return RuleFarewell, FarewellReply
		}
	}
	return RuleFallback, fmt.Sprintf(fallbackFormat, strings.TrimSpace(message))
}

// Reply returns only the reply text of Match.
func Reply(message string) string {
	_, reply := Match(message)
	return reply
}

// tokenize lower-cases s and splits it on anything other than letters, digits
// and apostrophes. Apostrophes survive only inside a word, so "what's" stays
// one token while 'hello' reduces to hello. "this" never yields "hi".
func tokenize(s string) []string {
	fields := strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '\''
	})
	words := fields[:0]
	for _, f := range fields {
		if w := strings.Trim(f, "'"); w != "" {
			words = append(words, w)
		}
	}
	return words
}

func containsSequence(words, seq []string) bool {
	if len(seq) == 0 || len(words) < len(seq) {
		return false
	}
	for i := 0; i+len(seq) <= len(words); i++ {
		found := true
		for j, s := range seq {
			if words[i+j] != s {
				found = false
				break
			}
		}
		if found {
			return true
		}
	}
	return false
}
