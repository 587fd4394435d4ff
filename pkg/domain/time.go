package domain

import "time"

// Precision is the resolution of timestamps in the document store.
const Precision = time.Millisecond

// NormalizeTime converts t to UTC and truncates it to store precision, so an
// entity compares equal to its stored copy.
func NormalizeTime(t time.Time) time.Time {
	return t.UTC().Truncate(Precision)
}

// CeilTime is NormalizeTime rounded up. Use it for inclusive lower bounds so
// a sub-millisecond bound does not admit an earlier stored value.
func CeilTime(t time.Time) time.Time {
	n := NormalizeTime(t)
	if n.Before(t) {
		n = n.Add(Precision)
	}
	return n
}
