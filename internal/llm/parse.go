package llm

import (
	"encoding/json"
	"strings"
)

// SimilarMatch is one entry of the similarity ranking the AI returns.
type SimilarMatch struct {
	MaterialNumber  string `json:"material_number"`
	SimilarityScore int    `json:"similarity_score"`
	Reason          string `json:"reason"`
}

// StripCodeFences removes triple-backtick markers, with or without a json
// language tag, from around the AI's reply.
func StripCodeFences(content string) string {
	content = strings.ReplaceAll(content, "```json", "")
	content = strings.ReplaceAll(content, "```", "")
	return strings.TrimSpace(content)
}

// ParseStringArray parses the AI reply as a JSON array of strings. The AI is
// unreliable output-wise, so a reply that does not parse yields (nil, false)
// rather than an error.
func ParseStringArray(content string) ([]string, bool) {
	var values []string
	if err := json.Unmarshal([]byte(StripCodeFences(content)), &values); err != nil {
		return nil, false
	}
	return values, true
}

// ParseSimilarMatches parses the AI reply as a JSON array of similarity
// matches, with the same parse-failure tolerance as ParseStringArray.
func ParseSimilarMatches(content string) ([]SimilarMatch, bool) {
	var matches []SimilarMatch
	if err := json.Unmarshal([]byte(StripCodeFences(content)), &matches); err != nil {
		return nil, false
	}
	return matches, true
}
