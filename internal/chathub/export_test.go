package chathub

// SetIntn replaces the matcher's random source.
func (m *MatcherService) SetIntn(f func(n int) int) {
	m.intn = f
}
