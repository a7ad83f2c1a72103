// Package clock provides an injectable nanosecond-resolution time source.
//
// Production code uses Now, which wraps time.Now().UnixNano(). Tests can
// substitute a deterministic Nanos to exercise timeout and bucketing logic
// without sleeping in real time.
package clock

import "time"

// Nanos returns the current time in nanoseconds since the Unix epoch.
type Nanos func() int64

// Now is the default Nanos implementation, backed by the system clock.
func Now() int64 {
	return time.Now().UnixNano()
}

// Fixed returns a Nanos that always reports t.
func Fixed(t int64) Nanos {
	return func() int64 { return t }
}

// Sequence returns a Nanos that yields each value in ns once, in order,
// then keeps returning the final value. Useful for deterministically
// driving acquire-retry loops in tests.
func Sequence(ns ...int64) Nanos {
	i := 0
	return func() int64 {
		if i >= len(ns) {
			return ns[len(ns)-1]
		}
		v := ns[i]
		i++
		return v
	}
}
