package collector

import (
	"strings"

	"jobradar/internal/model"
)

var (
	entryWords     = []string{"intern", "internship", "new graduate", "entry level", "entry-level"}
	seniorWords    = []string{"senior", "sr.", "lead", "principal", "director", "vp", "vice president"}
	executiveWords = []string{"executive", "chief", "ceo", "cto", "cfo"}
)

// DetectLevel classifies a listing by seniority keywords in its title and
// description. Entry-level markers win over senior ones so that postings
// like "internship with senior engineers" land in the entry bucket.
func DetectLevel(title, description string) string {
	text := strings.ToLower(title + " " + description)
	switch {
	case containsAny(text, entryWords):
		return model.LevelEntry
	case containsAny(text, seniorWords):
		return model.LevelSenior
	case containsAny(text, executiveWords):
		return model.LevelExecutive
	}
	return model.LevelMid
}

func containsAny(text string, words []string) bool {
	for _, w := range words {
		if strings.Contains(text, w) {
			return true
		}
	}
	return false
}
