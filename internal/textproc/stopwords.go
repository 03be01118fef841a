package textproc

// stopWords is the fixed set of common English function words excluded from
// keyword extraction. Keywords are drawn from what remains after filtering.
var stopWords = map[string]struct{}{
	"the": {}, "a": {}, "an": {}, "and": {}, "or": {}, "but": {}, "in": {}, "on": {}, "at": {}, "to": {}, "for": {}, "of": {}, "with": {}, "by": {},
	"is": {}, "are": {}, "was": {}, "were": {}, "be": {}, "been": {}, "have": {}, "has": {}, "had": {}, "do": {}, "does": {}, "did": {},
	"will": {}, "would": {}, "could": {}, "should": {}, "may": {}, "might": {}, "can": {}, "this": {}, "that": {}, "these": {}, "those": {},
	"it": {}, "its": {}, "they": {}, "them": {}, "their": {}, "we": {}, "us": {}, "our": {}, "you": {}, "your": {}, "he": {}, "him": {}, "his": {},
	"she": {}, "her": {}, "i": {}, "me": {}, "my": {}, "from": {}, "up": {}, "about": {}, "into": {}, "through": {}, "during": {}, "before": {},
	"after": {}, "above": {}, "below": {}, "between": {}, "among": {}, "within": {}, "without": {}, "against": {}, "toward": {},
	"towards": {}, "upon": {}, "across": {}, "behind": {}, "beyond": {}, "under": {}, "over": {}, "around": {}, "near": {}, "far": {},
	"here": {}, "there": {}, "where": {}, "when": {}, "while": {}, "until": {}, "since": {}, "because": {}, "if": {}, "unless": {},
	"although": {}, "though": {}, "however": {}, "therefore": {}, "thus": {}, "hence": {}, "moreover": {}, "furthermore": {},
	"nevertheless": {}, "nonetheless": {}, "meanwhile": {}, "otherwise": {}, "instead": {}, "rather": {}, "quite": {},
	"very": {}, "more": {}, "most": {}, "less": {}, "least": {}, "much": {}, "many": {}, "few": {}, "several": {}, "some": {}, "any": {},
	"all": {}, "both": {}, "each": {}, "every": {}, "either": {}, "neither": {}, "one": {}, "two": {}, "three": {}, "first": {},
	"second": {}, "third": {}, "last": {}, "next": {}, "previous": {}, "new": {}, "old": {}, "good": {}, "bad": {}, "big": {}, "small": {},
	"long": {}, "short": {}, "high": {}, "low": {}, "right": {}, "left": {}, "same": {}, "different": {}, "other": {}, "another": {},
}

// IsStopWord reports whether the given lowercase token is a stop word.
func IsStopWord(word string) bool {
	_, ok := stopWords[word]
	return ok
}
