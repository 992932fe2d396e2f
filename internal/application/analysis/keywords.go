package analysis

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/bryanwahyu/rivalscope/internal/application/tally"
)

const (
	maxKeywords = 10
	maxTopics   = 10
)

var (
	wordPattern    = regexp.MustCompile(`[\p{L}\p{N}_]+`)
	hashtagPattern = regexp.MustCompile(`#([\p{L}\p{N}_]+)`)
	mentionPattern = regexp.MustCompile(`@([\p{L}\p{N}_]+)`)
)

var stopWords = map[string]struct{}{
	"the": {}, "and": {}, "or": {}, "but": {}, "in": {}, "on": {}, "at": {},
	"to": {}, "for": {}, "of": {}, "with": {}, "by": {},
	"في": {}, "من": {}, "إلى": {}, "على": {}, "هذا": {}, "هذه": {},
	"التي": {}, "الذي": {}, "و": {}, "أو": {}, "لكن": {},
}

// ExtractKeywords returns the most frequent content words of a caption.
func ExtractKeywords(caption string) []string {
	if caption == "" {
		return []string{}
	}
	c := tally.New()
	for _, w := range wordPattern.FindAllString(strings.ToLower(caption), -1) {
		if utf8.RuneCountInString(w) <= 2 {
			continue
		}
		if _, stop := stopWords[w]; stop {
			continue
		}
		c.Add(w)
	}
	return c.Terms(maxKeywords)
}

// ExtractTopics returns hashtags then mentions, markers stripped.
func ExtractTopics(caption string) []string {
	topics := []string{}
	for _, m := range hashtagPattern.FindAllStringSubmatch(caption, -1) {
		topics = append(topics, m[1])
	}
	for _, m := range mentionPattern.FindAllStringSubmatch(caption, -1) {
		topics = append(topics, m[1])
	}
	if len(topics) > maxTopics {
		topics = topics[:maxTopics]
	}
	return topics
}

// ExtractHashtags returns the caption's hashtags with the marker kept.
func ExtractHashtags(caption string) []string {
	return hashtagPattern.FindAllString(caption, -1)
}

// ExtractMentions returns the caption's mentions with the marker kept.
func ExtractMentions(caption string) []string {
	return mentionPattern.FindAllString(caption, -1)
}
