package merge

// passesFloor reports whether a record satisfies the recency floor. The
// primary latest field must be present and parse as a timestamp ≥ floor; a
// null or unparseable latest value never satisfies the floor. Without a
// configured floor every record passes.
func (c *Config) passesFloor(rec map[string]any) bool {
	if !c.hasFloor() {
		return true
	}
	v, ok := rec[c.LatestFields[0]]
	if !ok || v == nil {
		return false
	}
	t, ok := asTime(v)
	if !ok {
		return false
	}
	return !t.Before(c.LatestMin)
}
