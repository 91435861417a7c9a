package gpib

import "time"

// TimeoutCode is one of the discrete timeout settings understood by the
// driver (the ibtmo constants). The underlying hardware cannot time out
// after an arbitrary duration; requested durations are quantized to the
// nearest code whose duration is at least as long.
type TimeoutCode int

const (
	TNone   TimeoutCode = iota // No timeout, operations may block forever
	T10us                      // 10 microseconds
	T30us                      // 30 microseconds
	T100us                     // 100 microseconds
	T300us                     // 300 microseconds
	T1ms                       // 1 millisecond
	T3ms                       // 3 milliseconds
	T10ms                      // 10 milliseconds
	T30ms                      // 30 milliseconds
	T100ms                     // 100 milliseconds
	T300ms                     // 300 milliseconds
	T1s                        // 1 second
	T3s                        // 3 seconds
	T10s                       // 10 seconds
	T30s                       // 30 seconds
	T100s                      // 100 seconds
	T300s                      // 300 seconds
	T1000s                     // 1000 seconds
)

// NoTimeout requests that bus operations never time out. Use it with
// WithTimeout or Device.SetTimeout.
const NoTimeout time.Duration = -1

// timeoutTable maps each code to the duration it represents, in ascending
// order. The values are fixed by the driver API.
var timeoutTable = []struct {
	code TimeoutCode
	d    time.Duration
}{
	{T10us, 10 * time.Microsecond},
	{T30us, 30 * time.Microsecond},
	{T100us, 100 * time.Microsecond},
	{T300us, 300 * time.Microsecond},
	{T1ms, time.Millisecond},
	{T3ms, 3 * time.Millisecond},
	{T10ms, 10 * time.Millisecond},
	{T30ms, 30 * time.Millisecond},
	{T100ms, 100 * time.Millisecond},
	{T300ms, 300 * time.Millisecond},
	{T1s, time.Second},
	{T3s, 3 * time.Second},
	{T10s, 10 * time.Second},
	{T30s, 30 * time.Second},
	{T100s, 100 * time.Second},
	{T300s, 300 * time.Second},
	{T1000s, 1000 * time.Second},
}

// QuantizeTimeout maps a requested timeout duration to the smallest
// TimeoutCode whose duration is greater or equal. Durations beyond the
// largest table entry clamp to T1000s; NoTimeout (or any negative
// duration) maps to TNone.
func QuantizeTimeout(d time.Duration) TimeoutCode {
	if d < 0 {
		return TNone
	}
	for _, entry := range timeoutTable {
		if entry.d >= d {
			return entry.code
		}
	}
	return T1000s
}

// Duration returns the duration represented by the code. TNone and
// unknown codes return NoTimeout.
func (c TimeoutCode) Duration() time.Duration {
	for _, entry := range timeoutTable {
		if entry.code == c {
			return entry.d
		}
	}
	return NoTimeout
}

func (c TimeoutCode) String() string {
	switch c {
	case TNone:
		return "none"
	case T10us:
		return "10µs"
	case T30us:
		return "30µs"
	case T100us:
		return "100µs"
	case T300us:
		return "300µs"
	case T1ms:
		return "1ms"
	case T3ms:
		return "3ms"
	case T10ms:
		return "10ms"
	case T30ms:
		return "30ms"
	case T100ms:
		return "100ms"
	case T300ms:
		return "300ms"
	case T1s:
		return "1s"
	case T3s:
		return "3s"
	case T10s:
		return "10s"
	case T30s:
		return "30s"
	case T100s:
		return "100s"
	case T300s:
		return "300s"
	case T1000s:
		return "1000s"
	default:
		return "unknown"
	}
}
