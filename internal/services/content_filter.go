package services

import (
	"regexp"
	"sync"
)

// BannedWords are rejected in thread titles, thread content and replies.
// The boards are read by parents of young children.
var BannedWords = []string{
	"fuck", "fucking", "fucker", "motherfucker", "shit", "shitty", "bullshit",
	"asshole", "bastard", "bitch", "cunt", "dick", "piss", "slut", "whore",
	"retard", "retarded",
	"porn", "porno", "nude", "nudes",
}

// ContentFilter rejects user text containing banned words.
type ContentFilter struct {
	once    sync.Once
	words   []string
	regexps []*regexp.Regexp
}

func NewContentFilter(words []string) *ContentFilter {
	return &ContentFilter{words: words}
}

func (f *ContentFilter) compile() {
	f.regexps = make([]*regexp.Regexp, 0, len(f.words))
	for _, word := range f.words {
		re, err := regexp.Compile(`(?i)\b` + regexp.QuoteMeta(word) + `\b`)
		if err == nil {
			f.regexps = append(f.regexps, re)
		}
	}
}

func (f *ContentFilter) ContainsProfanity(text string) bool {
	if f == nil || text == "" {
		return false
	}
	f.once.Do(f.compile)
	for _, re := range f.regexps {
		if re.MatchString(text) {
			return true
		}
	}
	return false
}

// Check returns ErrInvalidInput when any of texts contains a banned word.
func (f *ContentFilter) Check(texts ...string) error {
	for _, text := range texts {
		if f.ContainsProfanity(text) {
			return invalid("please keep posts family friendly")
		}
	}
	return nil
}
