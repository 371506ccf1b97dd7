// Package serialized implements the length-prefixed textual serialization
// format used by PHP based content-management platforms to persist structured
// configuration (arrays, key/value maps, typed scalars, named objects).
//
// The package focuses on:
//   - A closed tagged-union value model (Null/Bool/Int/Float/Str/Array/Object)
//   - A strict decoder that slices string payloads by exact byte length
//   - A pure rewriter that substitutes a byte sequence inside strings and keys
//   - An encoder that recomputes every length prefix and element count
//
// Key Components:
//
//   - Value: The in-memory representation of one decoded cell. Every variant
//     is handled exhaustively by the rewriter and the encoder, so a transform
//     can never silently drop part of a tree.
//
//   - Decode / DecodeWithOptions: Parse a serialized byte sequence into a
//     Value tree. All malformed input is reported as a *DecodeError (never a
//     panic), which callers use to fall back to plain substring handling.
//     Nesting depth is bounded by an explicit counter so adversarial input
//     cannot grow the native call stack without limit.
//
//   - Rewrite: Replaces every non-overlapping occurrence of a byte sequence
//     inside string payloads, string array keys and object property names.
//     Numbers, booleans and class names pass through unchanged.
//
//   - Encode: Serializes a Value tree back to text. String length fields are
//     recomputed as the byte length (not the character length) of the payload,
//     array and object count fields as the current element count. Encoding an
//     unmodified decoded value reproduces the input byte for byte.
//
// The typical round trip for one database cell:
//
//	v, err := serialized.Decode(raw)
//	if err != nil {
//		// not structured data, use a plain substring replace instead
//	}
//	out := serialized.Encode(serialized.Rewrite(v, from, to))
package serialized
