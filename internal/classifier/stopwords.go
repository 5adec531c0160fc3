package classifier

import (
	"regexp"
	"strings"
)

// englishStopwords is the standard English stopword list (NLTK ordering).
var englishStopwords = []string{
	"i", "me", "my", "myself", "we", "our", "ours", "ourselves", "you", "you're",
	"you've", "you'll", "you'd", "your", "yours", "yourself", "yourselves", "he",
	"him", "his", "himself", "she", "she's", "her", "hers", "herself", "it",
	"it's", "its", "itself", "they", "them", "their", "theirs", "themselves",
	"what", "which", "who", "whom", "this", "that", "that'll", "these", "those",
	"am", "is", "are", "was", "were", "be", "been", "being", "have", "has",
	"had", "having", "do", "does", "did", "doing", "a", "an", "the", "and",
	"but", "if", "or", "because", "as", "until", "while", "of", "at", "by",
	"for", "with", "about", "against", "between", "into", "through", "during",
	"before", "after", "above", "below", "to", "from", "up", "down", "in",
	"out", "on", "off", "over", "under", "again", "further", "then", "once",
	"here", "there", "when", "where", "why", "how", "all", "any", "both",
	"each", "few", "more", "most", "other", "some", "such", "no", "nor", "not",
	"only", "own", "same", "so", "than", "too", "very", "s", "t", "can",
	"will", "just", "don", "don't", "should", "should've", "now", "d", "ll",
	"m", "o", "re", "ve", "y", "ain", "aren", "aren't", "couldn", "couldn't",
	"didn", "didn't", "doesn", "doesn't", "hadn", "hadn't", "hasn", "hasn't",
	"haven", "haven't", "isn", "isn't", "ma", "mightn", "mightn't", "mustn",
	"mustn't", "needn", "needn't", "shan", "shan't", "shouldn", "shouldn't",
	"wasn", "wasn't", "weren", "weren't", "won", "won't", "wouldn", "wouldn't",
}

// stopwordWhitelist keeps negations, intensifiers and modals in the text;
// they carry sentiment signal and must not be stripped. The bare contraction
// fragments (t, s, ...) stay too: stripping them would mutilate whitelisted
// contractions like "don't".
var stopwordWhitelist = []string{
	"above", "out", "off", "again", "against", "why", "few", "more", "most",
	"no", "nor", "not", "only", "don", "don't", "should", "should've", "ain",
	"aren", "aren't", "couldn", "couldn't", "didn", "didn't", "doesn",
	"doesn't", "hadn", "hadn't", "hasn", "hasn't", "haven", "haven't", "isn",
	"isn't", "mightn", "mightn't", "needn", "needn't", "shan", "shan't",
	"shouldn", "shouldn't", "wasn", "wasn't", "weren", "weren't", "won",
	"won't", "wouldn", "wouldn't",
	"s", "t", "d", "ll", "m", "o", "re", "ve", "y",
}

var stopwordPattern = buildStopwordPattern()

func buildStopwordPattern() *regexp.Regexp {
	whitelisted := make(map[string]struct{}, len(stopwordWhitelist))
	for _, word := range stopwordWhitelist {
		whitelisted[word] = struct{}{}
	}

	var filtered []string
	for _, word := range englishStopwords {
		if _, ok := whitelisted[word]; ok {
			continue
		}
		filtered = append(filtered, regexp.QuoteMeta(word))
	}

	// Whole-word, case-sensitive match; trailing whitespace is swallowed so
	// the remaining words stay single-spaced.
	return regexp.MustCompile(`\b(` + strings.Join(filtered, "|") + `)\b\s*`)
}

// StripStopwords removes filtered stopwords from text, keeping whitelisted
// negation words intact.
func StripStopwords(text string) string {
	return strings.TrimSpace(stopwordPattern.ReplaceAllString(text, ""))
}
