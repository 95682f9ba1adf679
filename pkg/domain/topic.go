package domain

import (
	"strconv"
	"strings"

	dErrors "selfid/pkg/domain-errors"
)

// Topic label codec. Relying parties derive numeric topics from
// human-readable attribute labels: each character maps to its numeric code,
// zero-padded to three digits, concatenated, with at most two leading zero
// digits stripped from the result. The inverse re-pads to a multiple of
// three and decodes each group. The registries never call this; it exists
// for the HTTP layer and external readers.

const topicDigitWidth = 3

// EncodeTopicLabel converts an attribute label into its numeric topic.
// Labels are limited to single-byte characters and to digit strings that
// fit a uint64 (roughly seven characters).
func EncodeTopicLabel(label string) (Topic, error) {
	if label == "" {
		return 0, dErrors.New(dErrors.CodeInvalidInput, "topic label must not be empty")
	}
	var digits strings.Builder
	for _, r := range label {
		if r > 0xff {
			return 0, dErrors.New(dErrors.CodeInvalidInput, "topic label must contain single-byte characters only")
		}
		code := strconv.Itoa(int(r))
		digits.WriteString(strings.Repeat("0", topicDigitWidth-len(code)))
		digits.WriteString(code)
	}
	s := digits.String()
	stripped := 0
	for stripped < 2 && stripped < len(s)-1 && s[stripped] == '0' {
		stripped++
	}
	n, err := strconv.ParseUint(s[stripped:], 10, 64)
	if err != nil {
		return 0, dErrors.New(dErrors.CodeInvalidInput, "topic label too long for numeric encoding")
	}
	return Topic(n), nil
}

// DecodeTopicLabel recovers the attribute label a topic was encoded from.
func DecodeTopicLabel(topic Topic) (string, error) {
	s := strconv.FormatUint(uint64(topic), 10)
	if pad := len(s) % topicDigitWidth; pad != 0 {
		s = strings.Repeat("0", topicDigitWidth-pad) + s
	}
	var label strings.Builder
	for i := 0; i < len(s); i += topicDigitWidth {
		code, err := strconv.Atoi(s[i : i+topicDigitWidth])
		if err != nil || code > 0xff {
			return "", dErrors.New(dErrors.CodeInvalidInput, "topic does not decode to a label")
		}
		label.WriteByte(byte(code))
	}
	return label.String(), nil
}
