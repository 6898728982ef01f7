package helpers

import (
	"math/rand"
	"regexp"
	"sort"
	"strings"
	"unicode"

	"mvdan.cc/xurls/v2"
)

var (
	uwuFaces = []string{"(・`ω´・)", ";;w;;", "owo", "UwU", ">w<", "^w^", "(ᵘﻌᵘ)", "(◕ᴥ◕)", "x3"}

	uwuWordRegex  = regexp.MustCompile(`\S+`)
	uwuOveReplace = strings.NewReplacer("ove", "uv", "Ove", "Uv", "OVE", "UV", "oVE", "uV")
	uwuURLRegex   = xurls.Strict()
)

const (
	uwuStutterChance = 8 // one in n words
	uwuFaceChance    = 3 // one in n sentence endings
)

// Uwuify rewrites $text in uwu speak. Links, mentions and custom emojis are left untouched.
// A nil $rng disables the random stutters and faces.
func Uwuify(text string, rng *rand.Rand) string {
	if text == "" {
		return ""
	}

	var result strings.Builder
	last := 0
	for _, span := range uwuProtectedSpans(text) {
		result.WriteString(uwuSegment(text[last:span[0]], rng))
		result.WriteString(text[span[0]:span[1]])
		last = span[1]
	}
	result.WriteString(uwuSegment(text[last:], rng))

	return result.String()
}

// uwuProtectedSpans returns the sorted, non overlapping byte ranges that must not be touched
func uwuProtectedSpans(text string) (spans [][]int) {
	var all [][]int
	all = append(all, uwuURLRegex.FindAllStringIndex(text, -1)...)
	all = append(all, MentionRegex.FindAllStringIndex(text, -1)...)
	all = append(all, EmojiRegex.FindAllStringIndex(text, -1)...)

	sort.Slice(all, func(i, j int) bool { return all[i][0] < all[j][0] })

	for _, span := range all {
		if len(spans) > 0 && span[0] < spans[len(spans)-1][1] {
			if span[1] > spans[len(spans)-1][1] {
				spans[len(spans)-1][1] = span[1]
			}
			continue
		}
		spans = append(spans, []int{span[0], span[1]})
	}
	return spans
}

func uwuSegment(segment string, rng *rand.Rand) string {
	return uwuWordRegex.ReplaceAllStringFunc(segment, func(word string) string {
		transformed := UwuifyWord(word)

		if rng != nil {
			first := []rune(transformed)[0]
			if unicode.IsLetter(first) && rng.Intn(uwuStutterChance) == 0 {
				transformed = string(first) + "-" + transformed
			}
			if (strings.HasSuffix(word, "!") || strings.HasSuffix(word, ".")) && rng.Intn(uwuFaceChance) == 0 {
				transformed += " " + uwuFaces[rng.Intn(len(uwuFaces))]
			}
		}

		return transformed
	})
}

// UwuifyWord applies the deterministic letter replacements to a single word
func UwuifyWord(word string) string {
	word = uwuOveReplace.Replace(word)

	runes := []rune(word)
	var result strings.Builder
	for i, r := range runes {
		switch r {
		case 'r', 'l':
			result.WriteRune('w')
		case 'R', 'L':
			result.WriteRune('W')
		case 'n', 'N':
			result.WriteRune(r)
			if i+1 < len(runes) && isVowel(runes[i+1]) {
				if r == 'N' && unicode.IsUpper(runes[i+1]) {
					result.WriteRune('Y')
				} else {
					result.WriteRune('y')
				}
			}
		default:
			result.WriteRune(r)
		}
	}
	return result.String()
}

func isVowel(r rune) bool {
	return strings.ContainsRune("aeiouAEIOU", r)
}
