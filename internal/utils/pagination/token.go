package pagination

import (
	"encoding/base64"
	"fmt"
	"strconv"
	"strings"
)

const tokenPrefix = "seq"

// DefaultLimit and MaxLimit bound page sizes for chain listings.
const (
	DefaultLimit = 50
	MaxLimit     = 500
)

// EncodeSequenceToken creates an opaque token pointing after the given chain sequence.
func EncodeSequenceToken(sequence int64) string {
	tokenStr := fmt.Sprintf("%s|%d", tokenPrefix, sequence)
	return base64.RawURLEncoding.EncodeToString([]byte(tokenStr))
}

// DecodeSequenceToken parses a token produced by EncodeSequenceToken.
// An empty token decodes to sequence 0, the start of the chain.
func DecodeSequenceToken(token string) (int64, error) {
	if token == "" {
		return 0, nil
	}
	decodedBytes, err := base64.RawURLEncoding.DecodeString(token)
	if err != nil {
		return 0, fmt.Errorf("invalid pagination token format (base64 decode): %w", err)
	}
	parts := strings.SplitN(string(decodedBytes), "|", 2)
	if len(parts) != 2 || parts[0] != tokenPrefix {
		return 0, fmt.Errorf("invalid pagination token format (split)")
	}
	sequence, err := strconv.ParseInt(parts[1], 10, 64)
	if err != nil || sequence < 0 {
		return 0, fmt.Errorf("invalid pagination token format (sequence parse): %q", parts[1])
	}
	return sequence, nil
}

// ClampLimit applies DefaultLimit and MaxLimit.
func ClampLimit(limit int) int {
	if limit <= 0 {
		return DefaultLimit
	}
	if limit > MaxLimit {
		return MaxLimit
	}
	return limit
}
