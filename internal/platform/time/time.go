// Package time converts between time.Time and the integer millisecond timestamps stored in documents
package time

import "time"

// Clock is the injectable time source used by services
type Clock func() time.Time

// System is the wall clock
func System() time.Time { return time.Now() }

// Millis returns t as milliseconds since the Unix epoch
func Millis(t time.Time) int64 { return t.UnixMilli() }

// FromMillis is the inverse of Millis, in UTC
func FromMillis(ms int64) time.Time { return time.UnixMilli(ms).UTC() }

// NowMillis reads c (or the wall clock when c is nil) as milliseconds
func (c Clock) NowMillis() int64 {
	if c == nil {
		return Millis(time.Now())
	}
	return Millis(c())
}
