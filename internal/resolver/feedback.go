package resolver

// recordHit counts a confirmed hit and returns the fallback cursor to the
// baseline offset.
func (s *TrackedEntityState) recordHit() {
	s.HitCount++
	s.FallbackCursor = 0
}

// recordMiss counts a miss and advances the fallback cursor to the next
// offset in FallbackOffsets.
func (s *TrackedEntityState) recordMiss() {
	s.MissCount++
	s.FallbackCursor = (s.FallbackCursor + 1) % len(FallbackOffsets)
}

// Accuracy returns hits / (hits + misses). ok is false before any feedback.
func (s *TrackedEntityState) Accuracy() (ratio float64, ok bool) {
	total := s.HitCount + s.MissCount
	if total == 0 {
		return 0, false
	}
	return float64(s.HitCount) / float64(total), true
}

// fallbackOffset is the table entry the cursor currently points at.
func (s *TrackedEntityState) fallbackOffset() float64 {
	return FallbackOffsets[s.FallbackCursor%len(FallbackOffsets)]
}
