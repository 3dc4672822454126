package record

const (
	// maxSegmentSeconds caps one external fetch. The playlist endpoint
	// refuses very long ranges, so a window is recorded as a sequence
	// of bounded pieces.
	maxSegmentSeconds = 300

	// segmentGrain is the HLS piece length the service cuts audio
	// into. Segment lengths must land on this grain.
	segmentGrain = 5
)

// segment is one bounded piece of a recording window.
type segment struct {
	offset int // seconds from the window start
	length int // seconds
}

// planSegments splits a total window duration into the segment
// sequence the engine fetches. Every non-final segment is exactly
// maxSegmentSeconds; the final segment takes the remainder, rounded up
// to the next grain multiple. Overshoot past the nominal window end is
// expected for the final piece.
func planSegments(totalSeconds int) []segment {
	var segs []segment
	offset := 0
	remaining := totalSeconds
	for remaining > 0 {
		l := maxSegmentSeconds
		if remaining < maxSegmentSeconds {
			l = remaining
			if l%segmentGrain != 0 {
				l = (l/segmentGrain + 1) * segmentGrain
			}
		}
		segs = append(segs, segment{offset: offset, length: l})
		offset += l
		remaining -= l
	}
	return segs
}
