// Package idgen provides pluggable ID generation. Constructors accept a
// Generator, making the ID strategy a startup-time decision rather than a
// compile-time one.
package idgen

import (
	"crypto/rand"
	"strconv"
	"time"

	"github.com/google/uuid"
)

// Generator produces unique string identifiers.
type Generator func() string

// UUID returns a Generator backed by random (v4) UUIDs. When the random
// source fails it falls back to a time+random identifier instead of
// panicking, so session creation never aborts over entropy trouble.
func UUID() Generator {
	fallback := TimeRandom(8)
	return func() string {
		u, err := uuid.NewRandom()
		if err != nil {
			return fallback()
		}
		return u.String()
	}
}

// TimeRandom returns a Generator producing "<unix-ms>-<suffix>" ids where
// the suffix is length base-36 random characters. Collision-resistant
// enough for process-local session ids.
func TimeRandom(length int) Generator {
	const alphabet = "0123456789abcdefghijklmnopqrstuvwxyz"
	return func() string {
		buf := make([]byte, length)
		if _, err := rand.Read(buf); err != nil {
			// Degenerate but still unique enough for in-process use.
			return strconv.FormatInt(time.Now().UnixMilli(), 10) + "-" +
				strconv.FormatInt(time.Now().UnixNano(), 36)
		}
		suffix := make([]byte, length)
		for i := range suffix {
			suffix[i] = alphabet[int(buf[i])%len(alphabet)]
		}
		return strconv.FormatInt(time.Now().UnixMilli(), 10) + "-" + string(suffix)
	}
}

// Prefixed wraps a Generator and prepends a fixed prefix to every ID.
// Useful for type-scoped identifiers (e.g. "sess_").
func Prefixed(prefix string, gen Generator) Generator {
	return func() string {
		return prefix + gen()
	}
}

// Default is the package default: random UUID with time+random fallback.
var Default Generator = UUID()

// New produces an ID using the Default generator.
func New() string {
	return Default()
}
