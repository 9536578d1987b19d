package service

import (
	"strings"
	"unicode"

	"github.com/agnivade/levenshtein"
	"github.com/samber/lo"
)

// canonicalTerms maps known exercise-name synonyms onto one canonical term,
// so "Morning Jog" and "running" compare as the same family.
var canonicalTerms = map[string]string{
	"run":     "running",
	"jog":     "running",
	"jogging": "running",
	"running": "running",

	"walk":    "walking",
	"walking": "walking",

	"bike":    "cycling",
	"biking":  "cycling",
	"cycle":   "cycling",
	"cycling": "cycling",
	"bicycle": "cycling",

	"swim":     "swimming",
	"swimming": "swimming",

	"exercise": "workout",
	"training": "workout",
	"workout":  "workout",
}

// normalizeExerciseName lowercases, strips non-alphanumeric runes, collapses
// whitespace and canonicalizes synonym families word by word.
func normalizeExerciseName(name string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(name) {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			b.WriteRune(r)
		case unicode.IsSpace(r):
			b.WriteRune(' ')
		}
	}

	words := strings.Fields(b.String())
	for i, w := range words {
		if canon, ok := canonicalTerms[w]; ok {
			words[i] = canon
		}
	}
	return strings.Join(words, " ")
}

// nameSimilarity scores two exercise names in [0, 1]. Identical normalized
// names score 1; otherwise 1 - levenshtein/maxLen.
func nameSimilarity(a, b string) float64 {
	na, nb := normalizeExerciseName(a), normalizeExerciseName(b)
	if na == nb {
		if na == "" {
			return 0
		}
		return 1
	}
	// ComputeDistance counts runes, so the length ratio must too
	maxLen := len([]rune(na))
	if l := len([]rune(nb)); l > maxLen {
		maxLen = l
	}
	if maxLen == 0 {
		return 0
	}
	return 1 - float64(levenshtein.ComputeDistance(na, nb))/float64(maxLen)
}

// sharedCanonicalTerm reports whether both names contain a word from the same
// canonical exercise family.
func sharedCanonicalTerm(a, b string) bool {
	wa := strings.Fields(normalizeExerciseName(a))
	wb := strings.Fields(normalizeExerciseName(b))

	seen := map[string]bool{}
	for _, w := range wa {
		if isCanonical(w) {
			seen[w] = true
		}
	}
	for _, w := range wb {
		if seen[w] {
			return true
		}
	}
	return false
}

func isCanonical(w string) bool {
	switch w {
	case "running", "walking", "cycling", "swimming", "workout":
		return true
	}
	return false
}

// durationSimilarity is min/max of the two durations, or 1 when both are zero.
func durationSimilarity(d1, d2 int) float64 {
	if d1 == 0 && d2 == 0 {
		return 1
	}
	shorter, longer := d1, d2
	if shorter > longer {
		shorter, longer = longer, shorter
	}
	if longer == 0 {
		return 0
	}
	return float64(shorter) / float64(longer)
}

// wordOverlapSimilarity is the share of words the two normalized names have
// in common, relative to the larger word set. Used by merge validation, which
// cares about whether the activities are related at all rather than about
// edit distance.
func wordOverlapSimilarity(a, b string) float64 {
	wa := strings.Fields(normalizeExerciseName(a))
	wb := strings.Fields(normalizeExerciseName(b))
	if len(wa) == 0 || len(wb) == 0 {
		return 0
	}

	ua, ub := lo.Uniq(wa), lo.Uniq(wb)
	set := map[string]bool{}
	for _, w := range ua {
		set[w] = true
	}
	common := 0
	for _, w := range ub {
		if set[w] {
			common++
		}
	}

	larger := len(ua)
	if len(ub) > larger {
		larger = len(ub)
	}
	return float64(common) / float64(larger)
}
