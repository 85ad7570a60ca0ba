package value

import "bytes"

// Equal reports whether two value trees are identical. Floats compare
// with ==, so NaN never equals itself.
func (v Value) Equal(o Value) bool {
	if v.Kind != o.Kind {
		return false
	}
	switch v.Kind {
	case KindScalar:
		return v.Scalar == o.Scalar
	case KindStr:
		return v.Str == o.Str
	case KindBytes:
		return bytes.Equal(v.Bytes, o.Bytes)
	case KindUnit:
		return true
	case KindOption:
		if v.Some == nil || o.Some == nil {
			return v.Some == nil && o.Some == nil
		}
		return v.Some.Equal(*o.Some)
	case KindFixedLenSeq, KindVarLenSeq, KindTuple:
		if len(v.Elems) != len(o.Elems) {
			return false
		}
		for i := range v.Elems {
			if !v.Elems[i].Equal(o.Elems[i]) {
				return false
			}
		}
		return true
	case KindStruct:
		if len(v.Fields) != len(o.Fields) {
			return false
		}
		for i := range v.Fields {
			if v.Fields[i].Name != o.Fields[i].Name ||
				!v.Fields[i].Value.Equal(o.Fields[i].Value) {
				return false
			}
		}
		return true
	case KindEnum:
		return v.Ord == o.Ord && v.Variant == o.Variant && v.Inner.Equal(*o.Inner)
	}
	return false
}
