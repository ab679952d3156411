package jit

// arena holds the strings compiled code refers to by handle. Handles are
// only meaningful until the next top-level invocation resets the arena.
type arena struct {
	strings []string
}

func (a *arena) put(s string) int64 {
	a.strings = append(a.strings, s)
	return int64(len(a.strings) - 1)
}

func (a *arena) get(h int64) (string, bool) {
	if h < 0 || h >= int64(len(a.strings)) {
		return "", false
	}
	return a.strings[h], true
}

func (a *arena) reset() { a.strings = a.strings[:0] }
