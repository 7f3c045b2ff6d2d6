// Package hashtag extracts and normalizes #tags from captions
// Normalization
// 1 UTF-8 repair drop invalid bytes
// 2 Unicode NFKC normalization
// 3 Case folding
// 4 Remove format characters (ZWJ, ZWNJ, BOM)
// 5 Width fold fullwidth to ASCII
package hashtag

import (
	"strings"
	"sync"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
	"golang.org/x/text/width"
)

const (
	// MaxTags caps how many tags one caption contributes
	MaxTags = 30
	// MaxLen caps a single tag in runes; longer tags are cut
	MaxLen = 64
)

// pool of fresh transformer chains; a chain is stateful and not safe to share
var chainPool = sync.Pool{
	New: func() any {
		return transform.Chain(
			norm.NFKC,
			cases.Fold(),
			runes.Remove(runes.In(unicode.Cf)),
			width.Fold,
		)
	},
}

func fold(s string) string {
	s = strings.ToValidUTF8(s, "")
	tr := chainPool.Get().(transform.Transformer)
	out, _, err := transform.String(tr, s)
	tr.Reset()
	chainPool.Put(tr)
	if err != nil {
		return s
	}
	return out
}

func isTagRune(r rune) bool {
	return r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r) || unicode.Is(unicode.Mn, r)
}

// Normalize returns the canonical form of one tag, without its leading #
// "" when nothing taggable remains
func Normalize(tag string) string {
	s := fold(strings.TrimSpace(tag))
	s = strings.TrimLeft(s, "#＃")
	n := 0
	var b strings.Builder
	for _, r := range s {
		if !isTagRune(r) {
			break
		}
		if n == MaxLen {
			break
		}
		b.WriteRune(r)
		n++
	}
	return b.String()
}

// Extract returns the distinct tags in caption in first-seen order
func Extract(caption string) []string {
	s := fold(caption)
	var (
		out  []string
		seen = map[string]struct{}{}
	)
	rs := []rune(s)
	for i := 0; i < len(rs) && len(out) < MaxTags; i++ {
		if rs[i] != '#' {
			continue
		}
		// a # glued to a word is not a tag start, e.g. "c#"
		if i > 0 && isTagRune(rs[i-1]) {
			continue
		}
		j := i + 1
		for j < len(rs) && isTagRune(rs[j]) {
			j++
		}
		if j == i+1 {
			continue
		}
		tag := Normalize(string(rs[i+1 : j]))
		i = j - 1
		if tag == "" {
			continue
		}
		if _, dup := seen[tag]; dup {
			continue
		}
		seen[tag] = struct{}{}
		out = append(out, tag)
	}
	return out
}

// DocID is the id of the index entry linking tag to a video
func DocID(tag, videoID string) string { return tag + "_" + videoID }
