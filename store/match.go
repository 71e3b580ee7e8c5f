package store

import (
	"strings"

	"soundscape/model"
)

// Matches evaluates a Filter against a document in process. The Mongo store
// translates the same vocabulary to server-side operators; this evaluation is
// the reference semantics the translation must preserve.
func Matches(doc *model.SoundDocument, f Filter) bool {
	for _, m := range f.Must {
		if !matchOne(doc, m) {
			return false
		}
	}
	if len(f.Any) == 0 {
		return true
	}
	for _, m := range f.Any {
		if matchOne(doc, m) {
			return true
		}
	}
	return false
}

func matchOne(doc *model.SoundDocument, m FieldMatch) bool {
	switch m.Kind {
	case MatchElem:
		if len(m.Values) == 0 {
			return false
		}
		return containsString(fieldStrings(doc, m.Field), m.Values[0])
	case MatchElemIn:
		have := fieldStrings(doc, m.Field)
		for _, v := range m.Values {
			if containsString(have, v) {
				return true
			}
		}
		return false
	case MatchSubstring:
		if len(m.Values) == 0 {
			return false
		}
		needle := strings.ToLower(m.Values[0])
		for _, s := range fieldStrings(doc, m.Field) {
			if strings.Contains(strings.ToLower(s), needle) {
				return true
			}
		}
		return false
	case MatchNotID:
		if len(m.Values) == 0 {
			return false
		}
		return doc.ID.Hex() != m.Values[0]
	}
	return false
}

// fieldStrings projects a document field to the string values a predicate
// can see. Scalar fields yield one element, array fields all of theirs.
func fieldStrings(doc *model.SoundDocument, field string) []string {
	switch field {
	case "name":
		return []string{doc.Name}
	case "description":
		return []string{doc.Description}
	case "author":
		return []string{doc.Author}
	case "audioUrl":
		return []string{doc.AudioURL}
	case "emotions":
		return doc.Emotions
	case "tags":
		return doc.Tags
	case "soundTypes":
		return doc.SoundTypes
	}
	return nil
}

func containsString(haystack []string, needle string) bool {
	for _, s := range haystack {
		if s == needle {
			return true
		}
	}
	return false
}
