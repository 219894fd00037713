package runner

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/aretw0/waypoint/pkg/domain"
)

var (
	// DefaultMaxInputSize caps one line of input at 4KB.
	DefaultMaxInputSize = 4096
	// EnvMaxInputSize overrides DefaultMaxInputSize.
	EnvMaxInputSize = "WAYPOINT_MAX_INPUT_SIZE"
)

var (
	ErrInputTooLarge = errors.New("input exceeds maximum allowed size")
	ErrInvalidUTF8   = errors.New("input contains invalid UTF-8 sequences")
)

// SanitizeInput rejects oversized or invalid UTF-8 input and strips control
// characters other than newline, tab and carriage return, so terminal escapes
// never reach the document.
func SanitizeInput(input string) (string, error) {
	if limit := getMaxInputSize(); len(input) > limit {
		return "", fmt.Errorf("%w: size=%d limit=%d", ErrInputTooLarge, len(input), limit)
	}
	if !utf8.ValidString(input) {
		return "", ErrInvalidUTF8
	}
	if strings.IndexFunc(input, isUnsafeControl) < 0 {
		return input, nil
	}
	return strings.Map(func(r rune) rune {
		if isUnsafeControl(r) {
			return -1
		}
		return r
	}, input), nil
}

// SanitizeAnswer cleans a prompt value received from a remote host. Besides
// SanitizeInput it trims surrounding whitespace, which the directive parser
// would drop anyway, and rejects values that cannot round-trip through a
// set_temp line.
func SanitizeAnswer(name, value string) (string, error) {
	clean, err := SanitizeInput(value)
	if err != nil {
		return "", err
	}
	clean = strings.TrimSpace(clean)
	if err := domain.ValidateAnswer(name, clean); err != nil {
		return "", err
	}
	return clean, nil
}

func isUnsafeControl(r rune) bool {
	return unicode.IsControl(r) && r != '\n' && r != '\t' && r != '\r'
}

func getMaxInputSize() int {
	if val := os.Getenv(EnvMaxInputSize); val != "" {
		if size, err := strconv.Atoi(val); err == nil && size > 0 {
			return size
		}
	}
	return DefaultMaxInputSize
}
