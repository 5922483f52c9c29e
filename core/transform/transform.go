// Package transform holds pure string transforms applied to raw lookup
// output. Nothing here touches the actor or the engine.
package transform

import "strings"

// StripFlags removes @-delimited flag-diacritic segments from an analysis
// string, e.g.
//
//	sko+N+Msc+Sg+Indef@D.CmpOnly.FALSE@@D.NeedNoun.ON@
//
// becomes "sko+N+Msc+Sg+Indef". Markers pair up left to right; text after a
// final unpaired @ is dropped.
func StripFlags(s string) string {
	if !strings.ContainsRune(s, '@') {
		return s
	}

	// Segment boundaries: a virtual marker before the string, every @, and
	// a virtual marker past the end. Consecutive boundary pairs delimit the
	// segments that are kept.
	bounds := make([]int, 0, strings.Count(s, "@")+2)
	bounds = append(bounds, -1)
	for i := 0; i < len(s); i++ {
		if s[i] == '@' {
			bounds = append(bounds, i)
		}
	}
	bounds = append(bounds, len(s))

	var b strings.Builder
	for i := 0; i+1 < len(bounds); i += 2 {
		b.WriteString(s[bounds[i]+1 : bounds[i+1]])
	}
	return b.String()
}
