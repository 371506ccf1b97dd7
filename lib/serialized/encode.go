package serialized

import (
	"bytes"
	"strconv"
)

// Encode serializes a tree back to its textual form. Every string length
// field is the byte length of its payload and every container count field is
// the current element count, so a rewritten tree always re-encodes to a
// parseable value. Encoding is deterministic: the same tree yields the same
// bytes.
func Encode(v *Value) []byte {
	var buf bytes.Buffer
	encodeValue(&buf, v)
	return buf.Bytes()
}

// EncodeString is Encode with a string result.
func EncodeString(v *Value) string {
	return string(Encode(v))
}

func encodeValue(buf *bytes.Buffer, v *Value) {
	if v == nil {
		buf.WriteString("N;")
		return
	}

	switch v.kind {
	case KindNull:
		buf.WriteString("N;")

	case KindBool:
		if v.boolVal {
			buf.WriteString("b:1;")
		} else {
			buf.WriteString("b:0;")
		}

	case KindInt:
		buf.WriteString("i:")
		buf.WriteString(strconv.FormatInt(v.intVal, 10))
		buf.WriteByte(';')

	case KindFloat:
		buf.WriteString("d:")
		buf.WriteString(v.floatLiteral())
		buf.WriteByte(';')

	case KindStr:
		encodeStr(buf, v.strVal)

	case KindArray:
		buf.WriteString("a:")
		buf.WriteString(strconv.Itoa(len(v.entries)))
		buf.WriteString(":{")
		for _, e := range v.entries {
			encodeValue(buf, e.Key)
			encodeValue(buf, e.Val)
		}
		buf.WriteByte('}')

	case KindObject:
		buf.WriteString("O:")
		buf.WriteString(strconv.Itoa(len(v.class)))
		buf.WriteString(":\"")
		buf.WriteString(v.class)
		buf.WriteString("\":")
		buf.WriteString(strconv.Itoa(len(v.props)))
		buf.WriteString(":{")
		for _, p := range v.props {
			encodeStr(buf, p.Name)
			encodeValue(buf, p.Val)
		}
		buf.WriteByte('}')
	}
}

// encodeStr writes one string term with its recomputed byte length.
func encodeStr(buf *bytes.Buffer, payload []byte) {
	buf.WriteString("s:")
	buf.WriteString(strconv.Itoa(len(payload)))
	buf.WriteString(":\"")
	buf.Write(payload)
	buf.WriteString("\";")
}
