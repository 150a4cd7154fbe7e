/*
Copyright 2025 The RestFuzz Authors

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

	http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package datagen

import (
	"math/rand/v2"
	"regexp/syntax"
	"strings"
)

// No third-party library in the example pack turns a regex pattern into a
// matching string (the Python predecessor used the `rstr` package, which
// has no Go equivalent among the dependencies this module carries
// forward); regexp/syntax is the standard library's own parser for the
// same regex AST `regexp` compiles, so generateFromPattern walks it
// directly rather than hand-rolling a second regex parser.
const maxPatternRepeat = 10

// generateFromPattern produces a string matching pattern, falling back to
// the pattern text itself if it fails to parse (a malformed pattern is a
// spec-authoring error, not a reason to abort the whole sequence).
func generateFromPattern(pattern string) string {
	re, err := syntax.Parse(pattern, syntax.Perl)
	if err != nil {
		return pattern
	}
	var sb strings.Builder
	walkRegexNode(re, &sb)
	return sb.String()
}

func walkRegexNode(re *syntax.Regexp, sb *strings.Builder) {
	switch re.Op {
	case syntax.OpLiteral:
		for _, r := range re.Rune {
			sb.WriteRune(r)
		}
	case syntax.OpCharClass:
		sb.WriteRune(pickRuneFromClass(re.Rune))
	case syntax.OpAnyChar, syntax.OpAnyCharNotNL:
		sb.WriteRune(rune('a' + rand.IntN(26)))
	case syntax.OpBeginLine, syntax.OpEndLine, syntax.OpBeginText, syntax.OpEndText,
		syntax.OpWordBoundary, syntax.OpNoWordBoundary, syntax.OpEmptyMatch:
		// zero-width assertions contribute no characters
	case syntax.OpCapture:
		for _, sub := range re.Sub {
			walkRegexNode(sub, sb)
		}
	case syntax.OpConcat:
		for _, sub := range re.Sub {
			walkRegexNode(sub, sb)
		}
	case syntax.OpAlternate:
		if len(re.Sub) > 0 {
			walkRegexNode(re.Sub[rand.IntN(len(re.Sub))], sb)
		}
	case syntax.OpStar:
		n := rand.IntN(maxPatternRepeat)
		repeatNode(re.Sub, n, sb)
	case syntax.OpPlus:
		n := 1 + rand.IntN(maxPatternRepeat)
		repeatNode(re.Sub, n, sb)
	case syntax.OpQuest:
		if rand.IntN(2) == 0 {
			repeatNode(re.Sub, 1, sb)
		}
	case syntax.OpRepeat:
		lo, hi := re.Min, re.Max
		if hi < 0 || hi > lo+maxPatternRepeat {
			hi = lo + maxPatternRepeat
		}
		n := lo
		if hi > lo {
			n = lo + rand.IntN(hi-lo+1)
		}
		repeatNode(re.Sub, n, sb)
	default:
		for _, sub := range re.Sub {
			walkRegexNode(sub, sb)
		}
	}
}

func repeatNode(subs []*syntax.Regexp, n int, sb *strings.Builder) {
	for i := 0; i < n; i++ {
		for _, sub := range subs {
			walkRegexNode(sub, sb)
		}
	}
}

// pickRuneFromClass picks a uniformly random rune from a parsed
// [lo,hi,lo,hi,...] character-class rune range list.
func pickRuneFromClass(ranges []rune) rune {
	if len(ranges) == 0 {
		return 'a'
	}
	total := 0
	for i := 0; i+1 < len(ranges); i += 2 {
		total += int(ranges[i+1]-ranges[i]) + 1
	}
	if total <= 0 {
		return ranges[0]
	}
	pick := rand.IntN(total)
	for i := 0; i+1 < len(ranges); i += 2 {
		width := int(ranges[i+1]-ranges[i]) + 1
		if pick < width {
			return ranges[i] + rune(pick)
		}
		pick -= width
	}
	return ranges[0]
}
