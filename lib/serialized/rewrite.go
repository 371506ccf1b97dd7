package serialized

import (
	"bytes"
)

// Rewrite returns a copy of the tree in which every non-overlapping
// occurrence of from has been replaced by to, scanning byte-wise and
// leftmost-first. Substitution happens in string payloads, string array keys
// and object property names. Null, bool, int and float values as well as
// object class names pass through untouched; numbers are never matched as
// substrings.
//
// The input tree is not mutated. Recursion depth equals the nesting depth of
// the input, which for decoded values is bounded by the decoder's MaxDepth.
func Rewrite(v *Value, from, to []byte) *Value {
	if v == nil || len(from) == 0 {
		return v
	}

	switch v.kind {
	case KindNull, KindBool, KindInt, KindFloat:
		return v

	case KindStr:
		if !bytes.Contains(v.strVal, from) {
			return v
		}
		return Str(bytes.ReplaceAll(v.strVal, from, to))

	case KindArray:
		entries := make([]Entry, len(v.entries))
		for i, e := range v.entries {
			entries[i] = Entry{
				Key: Rewrite(e.Key, from, to),
				Val: Rewrite(e.Val, from, to),
			}
		}
		return Array(entries)

	case KindObject:
		props := make([]Prop, len(v.props))
		for i, p := range v.props {
			name := p.Name
			if bytes.Contains(name, from) {
				name = bytes.ReplaceAll(name, from, to)
			}
			props[i] = Prop{Name: name, Val: Rewrite(p.Val, from, to)}
		}
		return Object(v.class, props)

	default:
		return v
	}
}

// ReplaceSerialized decodes data, rewrites it and encodes the result. The
// boolean reports whether the output differs from the input. A DecodeError
// means the data is not structured; callers then fall back to a plain
// substring replace on the raw text.
func ReplaceSerialized(data, from, to []byte) ([]byte, bool, error) {
	v, err := Decode(data)
	if err != nil {
		return nil, false, err
	}
	out := Encode(Rewrite(v, from, to))
	return out, !bytes.Equal(out, data), nil
}
