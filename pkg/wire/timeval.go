// ABOUTME: TimeVal arithmetic
// ABOUTME: Normalized (sec, usec) pair used throughout the wire protocol
package wire

import (
	"encoding/binary"
	"fmt"
	"time"
)

const microsPerSecond = 1_000_000

// TimeVal is a signed (seconds, microseconds) pair. A normalized TimeVal
// has 0 <= Usec < 1_000_000; Sec may be negative to represent "in the
// past" relative to some other TimeVal.
type TimeVal struct {
	Sec  int32
	Usec int32
}

// FromMicros builds a normalized TimeVal from a non-negative duration
// expressed in microseconds. Exact for durations under 2^31 seconds.
func FromMicros(micros int64) TimeVal {
	return TimeVal{
		Sec:  int32(micros / microsPerSecond),
		Usec: int32(micros % microsPerSecond),
	}.normalize()
}

// FromMillis builds a TimeVal from a signed millisecond count.
func FromMillis(millis int32) TimeVal {
	return TimeVal{
		Sec:  0,
		Usec: millis * 1000,
	}.normalize()
}

// FromDuration builds a TimeVal from a time.Duration.
func FromDuration(d time.Duration) TimeVal {
	return FromMicros(d.Microseconds())
}

// normalize carries overflow in Usec into Sec, and borrows from Sec when
// Usec is negative, restoring the 0 <= Usec < 1_000_000 invariant.
func (t TimeVal) normalize() TimeVal {
	sec := int64(t.Sec)
	usec := int64(t.Usec)

	sec += usec / microsPerSecond
	usec %= microsPerSecond

	if usec < 0 {
		usec += microsPerSecond
		sec--
	}

	return TimeVal{Sec: int32(sec), Usec: int32(usec)}
}

// Add returns t + other, normalized.
func (t TimeVal) Add(other TimeVal) TimeVal {
	return TimeVal{
		Sec:  t.Sec + other.Sec,
		Usec: t.Usec + other.Usec,
	}.normalize()
}

// Sub returns t - other, normalized. The result may have Sec < 0.
func (t TimeVal) Sub(other TimeVal) TimeVal {
	return TimeVal{
		Sec:  t.Sec - other.Sec,
		Usec: t.Usec - other.Usec,
	}.normalize()
}

// Abs returns the absolute value of t. A normalized TimeVal always has
// 0 <= Usec < 1_000_000, so the sign lives entirely in Sec.
func (t TimeVal) Abs() TimeVal {
	n := t.normalize()
	if n.Sec < 0 {
		return TimeVal{}.Sub(n)
	}
	return n
}

// Negative reports whether t represents a value in the past (Sec < 0).
func (t TimeVal) Negative() bool {
	return t.Sec < 0
}

// Millis returns t expressed in whole milliseconds. It fails when t is
// negative or when t is >= 1 second, since the result is a sub-second
// u16 millisecond count.
func (t TimeVal) Millis() (uint16, error) {
	if t.Sec < 0 {
		return 0, fmt.Errorf("wire: negative TimeVal has no millis representation: %+v", t)
	}
	if t.Sec >= 1 {
		return 0, fmt.Errorf("wire: TimeVal %+v is >= 1 second, no millis representation", t)
	}
	return uint16(t.Usec / 1000), nil
}

// Compare returns -1, 0, or 1 as t is less than, equal to, or greater
// than other, after normalizing both.
func (t TimeVal) Compare(other TimeVal) int {
	a, b := t.normalize(), other.normalize()
	switch {
	case a.Sec != b.Sec:
		if a.Sec < b.Sec {
			return -1
		}
		return 1
	case a.Usec != b.Usec:
		if a.Usec < b.Usec {
			return -1
		}
		return 1
	default:
		return 0
	}
}

// Duration converts t to a time.Duration.
func (t TimeVal) Duration() time.Duration {
	return time.Duration(t.Sec)*time.Second + time.Duration(t.Usec)*time.Microsecond
}

// sizeTimeVal is the wire size of an encoded TimeVal: two little-endian
// signed 32-bit integers.
const sizeTimeVal = 8

func encodeTimeVal(buf []byte, t TimeVal) {
	binary.LittleEndian.PutUint32(buf[0:4], uint32(t.Sec))
	binary.LittleEndian.PutUint32(buf[4:8], uint32(t.Usec))
}

func decodeTimeVal(buf []byte) TimeVal {
	return TimeVal{
		Sec:  int32(binary.LittleEndian.Uint32(buf[0:4])),
		Usec: int32(binary.LittleEndian.Uint32(buf[4:8])),
	}
}
