package tap

import (
	"strconv"

	"kafkatap/internal/client"
)

// ParseOffset maps an offset token to a starting-offset directive.
// "end", "beginning" and "stored" are symbolic; anything else is read
// as a signed integer, non-negative meaning an absolute offset and
// negative meaning that many records before the current end.
//
// The integer parse is deliberately permissive: it takes the longest
// leading numeric prefix and falls back to 0 when there is none. The
// ok result is false in that fallback case so the caller can warn.
func ParseOffset(token string) (offset client.StartOffset, ok bool) {
	switch token {
	case "end":
		return client.StartOffset{Kind: client.OffsetEnd}, true
	case "beginning":
		return client.StartOffset{Kind: client.OffsetBeginning}, true
	case "stored":
		return client.StartOffset{Kind: client.OffsetStored}, true
	}

	n, ok := leadingInt(token)
	if n < 0 {
		return client.StartOffset{Kind: client.OffsetTail, Value: -n}, ok
	}
	return client.StartOffset{Kind: client.OffsetAbsolute, Value: n}, ok
}

// leadingInt parses the longest leading signed decimal prefix of s,
// 0 when there is none.
func leadingInt(s string) (int64, bool) {
	i := 0
	if i < len(s) && (s[i] == '-' || s[i] == '+') {
		i++
	}
	start := i
	for i < len(s) && s[i] >= '0' && s[i] <= '9' {
		i++
	}
	if i == start {
		return 0, false
	}
	n, err := strconv.ParseInt(s[:i], 10, 64)
	if err != nil {
		// Prefix overflows int64; saturate like strtoll would.
		if s[0] == '-' {
			return -1 << 63, false
		}
		return 1<<63 - 1, false
	}
	return n, i == len(s)
}
