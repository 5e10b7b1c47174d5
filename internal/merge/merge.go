package merge

import "strings"

// MergeLive folds a not-yet-final recognition fragment into the finalized
// transcript for display. The fragment may repeat the tail of the transcript
// (recognizers re-emit committed text), so the longest suffix of base that
// matches a prefix of the fragment is collapsed. Unrelated continuations are
// joined with a newline.
func MergeLive(base, interim string) string {
	return join(strings.TrimSpace(base), strings.TrimSpace(interim))
}

// AppendUniqueFinal appends a finalized fragment to an already-final
// transcript using the same overlap collapse. Used when per-chunk
// transcriptions overlap at chunk boundaries.
func AppendUniqueFinal(prev, fragment string) string {
	return join(strings.TrimSpace(prev), strings.TrimSpace(fragment))
}

func join(base, next string) string {
	if base == "" {
		return next
	}
	if next == "" {
		return base
	}
	if strings.HasSuffix(base, next) {
		return base
	}

	overlap := 0
	max := len(base)
	if len(next) < max {
		max = len(next)
	}
	for i := max; i > 0; i-- {
		if base[len(base)-i:] == next[:i] {
			overlap = i
			break
		}
	}

	if overlap == 0 {
		return base + "\n" + next
	}
	return base + next[overlap:]
}
