package tap

import (
	"fmt"
	"strconv"

	"kafkatap/internal/client"
)

// PartitionAll selects every partition of the topic.
const PartitionAll = -1

// Config is the run configuration. It is built once at startup and
// read-only afterwards.
type Config struct {
	Topic        string
	Partition    int
	Offset       client.StartOffset
	Count        int64
	ExitOnEOF    bool
	Delimiter    byte
	KeyDelimiter byte
	PrintOffset  bool
	PrintKey     bool
}

// ParseDelimiter decodes a delimiter argument into a single byte.
// Accepts a literal byte or one of the escapes \n \t \r \0 \\ and \xNN.
func ParseDelimiter(s string) (byte, error) {
	switch {
	case len(s) == 1:
		return s[0], nil
	case len(s) == 2 && s[0] == '\\':
		switch s[1] {
		case 'n':
			return '\n', nil
		case 't':
			return '\t', nil
		case 'r':
			return '\r', nil
		case '0':
			return 0, nil
		case '\\':
			return '\\', nil
		}
	case len(s) == 4 && s[0] == '\\' && (s[1] == 'x' || s[1] == 'X'):
		n, err := strconv.ParseUint(s[2:], 16, 8)
		if err == nil {
			return byte(n), nil
		}
	}
	return 0, fmt.Errorf("delimiter must be a single byte, got %q", s)
}
