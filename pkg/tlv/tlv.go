// Package tlv implements the EMVCo merchant-presented tag-length-value
// primitive: a flat sequence of 2-digit ASCII tags, 2-digit decimal
// lengths and raw string values, with no framing beyond the length
// prefix. The codec has no knowledge of tag semantics; nested templates
// are handled by running the same primitive over a field's value.
package tlv

import (
	"errors"
	"fmt"
)

var (
	ErrCorruptedData = errors.New("corrupted data")
	ErrInvalidTag    = errors.New("invalid tag")
	ErrInvalidLength = errors.New("invalid length")
)

const (
	tagWidth    = 2
	lengthWidth = 2

	// MaxValueLength is the largest value a two-digit decimal length
	// prefix can describe.
	MaxValueLength = 99
)

// Field is one decoded tag-length-value tuple. The same type represents
// fields at every nesting level.
type Field struct {
	Tag    string
	Length int
	Value  string
}

// DecodeFields scans payload left to right and returns the fields in
// payload order. Order is significant: the checksum domain and the tag
// ordering rules both depend on it.
func DecodeFields(payload string) ([]Field, error) {
	fields := make([]Field, 0, 16)

	offset := 0
	for offset < len(payload) {
		field, consumed, err := decodeOne(payload, offset)
		if err != nil {
			return nil, err
		}
		fields = append(fields, field)
		offset += consumed
	}

	return fields, nil
}

// decodeOne decodes a single field starting at offset and reports how
// many characters it consumed.
func decodeOne(payload string, offset int) (Field, int, error) {
	remaining := len(payload) - offset

	if remaining < tagWidth {
		return Field{}, 0, fmt.Errorf("%w: truncated tag at offset %d", ErrCorruptedData, offset)
	}
	tag := payload[offset : offset+tagWidth]
	if !isDigits(tag) {
		return Field{}, 0, fmt.Errorf("%w: %q at offset %d", ErrInvalidTag, tag, offset)
	}

	if remaining < tagWidth+lengthWidth {
		return Field{}, 0, fmt.Errorf("%w: truncated length for tag %s at offset %d", ErrCorruptedData, tag, offset)
	}
	lengthStr := payload[offset+tagWidth : offset+tagWidth+lengthWidth]
	length, err := parseLength(lengthStr)
	if err != nil {
		return Field{}, 0, fmt.Errorf("%w: tag %s at offset %d: %q", ErrInvalidLength, tag, offset, lengthStr)
	}

	if remaining < tagWidth+lengthWidth+length {
		return Field{}, 0, fmt.Errorf("%w: tag %s declares length %d but only %d characters remain",
			ErrCorruptedData, tag, length, remaining-tagWidth-lengthWidth)
	}
	value := payload[offset+tagWidth+lengthWidth : offset+tagWidth+lengthWidth+length]

	return Field{Tag: tag, Length: length, Value: value}, tagWidth + lengthWidth + length, nil
}

// EncodeField renders one tag-length-value tuple. The length prefix is
// zero-padded to exactly two decimal digits, so values longer than
// MaxValueLength are out of range and rejected up front.
func EncodeField(tag, value string) (string, error) {
	if len(tag) != tagWidth || !isDigits(tag) {
		return "", fmt.Errorf("%w: %q", ErrInvalidTag, tag)
	}
	if len(value) > MaxValueLength {
		return "", fmt.Errorf("%w: tag %s value is %d bytes, maximum %d", ErrInvalidLength, tag, len(value), MaxValueLength)
	}
	return fmt.Sprintf("%s%02d%s", tag, len(value), value), nil
}

// EncodeFields concatenates the given fields in order.
func EncodeFields(fields []Field) (string, error) {
	out := ""
	for _, f := range fields {
		encoded, err := EncodeField(f.Tag, f.Value)
		if err != nil {
			return "", err
		}
		out += encoded
	}
	return out, nil
}

// parseLength parses the two-character decimal length prefix without
// accepting signs, spaces or other strconv leniency.
func parseLength(s string) (int, error) {
	if !isDigits(s) {
		return 0, fmt.Errorf("non-numeric length %q", s)
	}
	return int(s[0]-'0')*10 + int(s[1]-'0'), nil
}

func isDigits(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return len(s) > 0
}
