package serialized

import (
	"fmt"
	"strconv"
)

// --------------------------------------------------------------------------
// Error Type
// --------------------------------------------------------------------------

// DecodeError describes why a byte sequence is not valid serialized data.
// It is deliberately a recoverable error: callers treat it as "this cell is
// plain text" and fall back to a direct substring replace.
type DecodeError struct {
	Offset int    // byte offset at which decoding failed
	Msg    string // human readable reason
}

// Error implements the error interface.
func (e *DecodeError) Error() string {
	return fmt.Sprintf("serialized: %s (offset %d)", e.Msg, e.Offset)
}

// --------------------------------------------------------------------------
// Options
// --------------------------------------------------------------------------

// DefaultMaxDepth bounds the nesting depth of decoded trees. Values nested
// deeper than this are rejected with a DecodeError instead of growing the
// native call stack without limit.
const DefaultMaxDepth = 128

// DecodeOptions configures the decoder.
type DecodeOptions struct {
	// MaxDepth is the maximum container nesting depth. Zero or negative
	// selects DefaultMaxDepth.
	MaxDepth int
}

// --------------------------------------------------------------------------
// Decoding
// --------------------------------------------------------------------------

// Decode parses a complete serialized value with default options.
func Decode(data []byte) (*Value, error) {
	return DecodeWithOptions(data, DecodeOptions{})
}

// DecodeWithOptions parses a complete serialized value. The whole input must
// be consumed; trailing bytes after the first value are an error.
func DecodeWithOptions(data []byte, opts DecodeOptions) (*Value, error) {
	maxDepth := opts.MaxDepth
	if maxDepth <= 0 {
		maxDepth = DefaultMaxDepth
	}
	d := &decoder{data: data, maxDepth: maxDepth}
	v, err := d.value(0)
	if err != nil {
		return nil, err
	}
	if d.pos != len(d.data) {
		return nil, d.errorf("trailing data after value")
	}
	return v, nil
}

type decoder struct {
	data     []byte
	pos      int
	maxDepth int
}

func (d *decoder) errorf(format string, args ...interface{}) *DecodeError {
	return &DecodeError{Offset: d.pos, Msg: fmt.Sprintf(format, args...)}
}

// expect consumes one literal byte.
func (d *decoder) expect(b byte) error {
	if d.pos >= len(d.data) {
		return d.errorf("unexpected end of input, want %q", b)
	}
	if d.data[d.pos] != b {
		return d.errorf("want %q, got %q", b, d.data[d.pos])
	}
	d.pos++
	return nil
}

// number consumes bytes up to (not including) the given terminator and
// returns them. Used for the int, float and length fields.
func (d *decoder) number(term byte) ([]byte, error) {
	start := d.pos
	for d.pos < len(d.data) && d.data[d.pos] != term {
		d.pos++
	}
	if d.pos >= len(d.data) {
		return nil, d.errorf("unexpected end of input, want %q", term)
	}
	if d.pos == start {
		return nil, d.errorf("empty numeric field")
	}
	return d.data[start:d.pos], nil
}

// length reads a non-negative decimal length field terminated by term.
func (d *decoder) length(term byte) (int, error) {
	raw, err := d.number(term)
	if err != nil {
		return 0, err
	}
	n, perr := strconv.Atoi(string(raw))
	if perr != nil || n < 0 {
		return 0, d.errorf("invalid length %q", raw)
	}
	d.pos++ // consume terminator
	return n, nil
}

// stringBody parses `:<n>:"<n bytes>"` and returns the exact byte slice.
// The length field is authoritative: exactly n bytes are taken after the
// opening quote regardless of their content, which is what keeps multi-byte
// text and embedded quotes intact.
func (d *decoder) stringBody() ([]byte, error) {
	if err := d.expect(':'); err != nil {
		return nil, err
	}
	n, err := d.length(':')
	if err != nil {
		return nil, err
	}
	if err := d.expect('"'); err != nil {
		return nil, err
	}
	// compare against the remaining bytes, d.pos+n could overflow for a
	// hostile length field
	if n > len(d.data)-d.pos {
		return nil, d.errorf("string payload truncated, want %d bytes", n)
	}
	payload := d.data[d.pos : d.pos+n]
	d.pos += n
	if err := d.expect('"'); err != nil {
		return nil, err
	}
	return payload, nil
}

// value parses one complete term.
func (d *decoder) value(depth int) (*Value, error) {
	if depth > d.maxDepth {
		return nil, d.errorf("nesting depth exceeds %d", d.maxDepth)
	}
	if d.pos >= len(d.data) {
		return nil, d.errorf("unexpected end of input, want value")
	}

	tag := d.data[d.pos]
	d.pos++

	switch tag {
	case 'N':
		if err := d.expect(';'); err != nil {
			return nil, err
		}
		return Null(), nil

	case 'b':
		if err := d.expect(':'); err != nil {
			return nil, err
		}
		raw, err := d.number(';')
		if err != nil {
			return nil, err
		}
		d.pos++
		// b:0; is a successful decode of boolean false, not a failed parse.
		switch string(raw) {
		case "0":
			return Bool(false), nil
		case "1":
			return Bool(true), nil
		default:
			return nil, d.errorf("invalid bool payload %q", raw)
		}

	case 'i':
		if err := d.expect(':'); err != nil {
			return nil, err
		}
		raw, err := d.number(';')
		if err != nil {
			return nil, err
		}
		d.pos++
		n, perr := strconv.ParseInt(string(raw), 10, 64)
		if perr != nil {
			return nil, d.errorf("invalid int payload %q", raw)
		}
		return Int(n), nil

	case 'd':
		if err := d.expect(':'); err != nil {
			return nil, err
		}
		raw, err := d.number(';')
		if err != nil {
			return nil, err
		}
		d.pos++
		f, perr := strconv.ParseFloat(string(raw), 64)
		if perr != nil {
			return nil, d.errorf("invalid float payload %q", raw)
		}
		return floatLit(f, string(raw)), nil

	case 's':
		payload, err := d.stringBody()
		if err != nil {
			return nil, err
		}
		if err := d.expect(';'); err != nil {
			return nil, err
		}
		return Str(payload), nil

	case 'a':
		if err := d.expect(':'); err != nil {
			return nil, err
		}
		count, err := d.length(':')
		if err != nil {
			return nil, err
		}
		if err := d.expect('{'); err != nil {
			return nil, err
		}
		// every entry takes at least 4 bytes (key and value, "N;" each), so a
		// count beyond that is a lie and must not size the allocation
		if count > (len(d.data)-d.pos)/4 {
			return nil, d.errorf("array count %d exceeds remaining input", count)
		}
		entries := make([]Entry, 0, count)
		for i := 0; i < count; i++ {
			key, err := d.value(depth + 1)
			if err != nil {
				return nil, err
			}
			if key.Kind() != KindInt && key.Kind() != KindStr {
				return nil, d.errorf("array key must be int or string, got %s", key.Kind())
			}
			val, err := d.value(depth + 1)
			if err != nil {
				return nil, err
			}
			entries = append(entries, Entry{Key: key, Val: val})
		}
		if err := d.expect('}'); err != nil {
			return nil, err
		}
		return Array(entries), nil

	case 'O':
		name, err := d.stringBody()
		if err != nil {
			return nil, err
		}
		if err := d.expect(':'); err != nil {
			return nil, err
		}
		count, err := d.length(':')
		if err != nil {
			return nil, err
		}
		if err := d.expect('{'); err != nil {
			return nil, err
		}
		if count > (len(d.data)-d.pos)/4 {
			return nil, d.errorf("object property count %d exceeds remaining input", count)
		}
		props := make([]Prop, 0, count)
		for i := 0; i < count; i++ {
			key, err := d.value(depth + 1)
			if err != nil {
				return nil, err
			}
			if key.Kind() != KindStr {
				return nil, d.errorf("object property name must be a string, got %s", key.Kind())
			}
			val, err := d.value(depth + 1)
			if err != nil {
				return nil, err
			}
			props = append(props, Prop{Name: key.StrVal(), Val: val})
		}
		if err := d.expect('}'); err != nil {
			return nil, err
		}
		return Object(string(name), props), nil

	default:
		d.pos--
		return nil, d.errorf("unknown tag %q", tag)
	}
}
