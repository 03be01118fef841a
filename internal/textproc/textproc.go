// Package textproc implements the rule-based summarizer and keyword
// extractor applied to gathered articles.
//
// Both operations are deliberately simple, deterministic text heuristics:
// identical input always yields identical output. There is no statistical
// or model-based extraction here, and there should not be.
package textproc

import (
	"regexp"
	"sort"
	"strings"
	"unicode/utf8"
)

const (
	// summaryMaxChars is the target length for generated summaries.
	summaryMaxChars = 200

	// emptyContentNotice is returned when there is nothing to summarize.
	emptyContentNotice = "No content available for summarization."

	// candidateKeywords is how many ranked keywords are collected before
	// the final cut.
	candidateKeywords = 8

	// maxKeywords is the number of keywords returned per article.
	maxKeywords = 5

	// minBackfill triggers title backfill when fewer keywords were found.
	minBackfill = 5
)

// wordPattern matches alphanumeric runs of length >= 3 that start with a letter.
var wordPattern = regexp.MustCompile(`\b[a-zA-Z][a-zA-Z0-9]{2,}\b`)

// Summarize produces a short summary of article content.
//
// Empty input yields a fixed notice. Content of at most 200 characters is
// returned unchanged. Longer content is cut on sentence boundaries: whole
// sentences are accumulated while the running length (sentence plus two
// characters for the ". " delimiter) stays within the target, then joined
// with ". " and terminated with a period. If not even the first sentence
// fits, the first 200 characters plus an ellipsis are returned.
func Summarize(content string) string {
	if content == "" {
		return emptyContentNotice
	}

	content = strings.TrimSpace(content)
	if utf8.RuneCountInString(content) <= summaryMaxChars {
		return content
	}

	sentences := strings.Split(content, ". ")

	// Lengths count characters, not bytes, so multibyte text is budgeted
	// the same as ASCII.
	var parts []string
	charCount := 0
	for _, sentence := range sentences {
		if charCount+utf8.RuneCountInString(sentence) > summaryMaxChars {
			break
		}
		parts = append(parts, sentence)
		charCount += utf8.RuneCountInString(sentence) + 2
	}

	summary := strings.Join(parts, ". ")
	if summary != "" && !strings.HasSuffix(summary, ".") {
		summary += "."
	}

	if summary == "" {
		return truncateRunes(content, summaryMaxChars) + "..."
	}
	return summary
}

// ExtractKeywords extracts up to five keywords from an article's content
// and title.
//
// The concatenation of title and content is lowercased and tokenized;
// stop words are discarded, remaining tokens are counted and ranked by
// descending frequency with ties broken by first occurrence. The top
// eight candidates are kept; if fewer than five tokens ranked, additional
// title-only tokens (in title order, skipping stop words and tokens
// already selected) backfill the candidate list up to eight. The first
// five candidates are returned. This ordering is part of the contract:
// callers rely on identical input producing identical output.
func ExtractKeywords(content, title string) []string {
	text := strings.ToLower(title + " " + content)
	words := wordPattern.FindAllString(text, -1)

	freq := make(map[string]int)
	var firstSeen []string
	for _, word := range words {
		if IsStopWord(word) {
			continue
		}
		if _, ok := freq[word]; !ok {
			firstSeen = append(firstSeen, word)
		}
		freq[word]++
	}

	// Stable sort over first-seen order keeps ties deterministic.
	ranked := make([]string, len(firstSeen))
	copy(ranked, firstSeen)
	sort.SliceStable(ranked, func(i, j int) bool {
		return freq[ranked[i]] > freq[ranked[j]]
	})

	keywords := ranked
	if len(keywords) > candidateKeywords {
		keywords = keywords[:candidateKeywords]
	}

	if len(keywords) < minBackfill && title != "" {
		titleWords := wordPattern.FindAllString(strings.ToLower(title), -1)
		for _, word := range titleWords {
			if IsStopWord(word) || containsWord(keywords, word) {
				continue
			}
			keywords = append(keywords, word)
			if len(keywords) >= candidateKeywords {
				break
			}
		}
	}

	if len(keywords) > maxKeywords {
		keywords = keywords[:maxKeywords]
	}
	return keywords
}

// containsWord reports whether words contains w.
func containsWord(words []string, w string) bool {
	for _, word := range words {
		if word == w {
			return true
		}
	}
	return false
}

// truncateRunes cuts s to at most n characters without splitting a rune.
func truncateRunes(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}
