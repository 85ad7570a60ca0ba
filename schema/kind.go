package schema

// Kind discriminates the schema variant set.
type Kind uint8

const (
	KindScalar Kind = iota
	KindStr
	KindBytes
	KindUnit
	KindOption
	KindSeq
	KindTuple
	KindStruct
	KindEnum
	KindRecurse
)

var kindNames = [...]string{
	KindScalar:  "scalar",
	KindStr:     "str",
	KindBytes:   "bytes",
	KindUnit:    "unit",
	KindOption:  "option",
	KindSeq:     "seq",
	KindTuple:   "tuple",
	KindStruct:  "struct",
	KindEnum:    "enum",
	KindRecurse: "recurse",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "unknown"
}

// ScalarType identifies one of the 14 scalar kinds.
type ScalarType uint8

const (
	// ScalarU8 is encoded as-is, 1 byte.
	ScalarU8 ScalarType = iota
	// ScalarU16 is encoded little-endian, 2 bytes.
	ScalarU16
	// ScalarU32 is encoded var-len.
	ScalarU32
	// ScalarU64 is encoded var-len.
	ScalarU64
	// ScalarU128 is encoded var-len.
	ScalarU128
	// ScalarI8 is encoded as-is, 1 byte.
	ScalarI8
	// ScalarI16 is encoded little-endian, 2 bytes.
	ScalarI16
	// ScalarI32 is encoded var-len.
	ScalarI32
	// ScalarI64 is encoded var-len.
	ScalarI64
	// ScalarI128 is encoded var-len.
	ScalarI128
	// ScalarF32 is encoded little-endian IEEE 754, 4 bytes.
	ScalarF32
	// ScalarF64 is encoded little-endian IEEE 754, 8 bytes.
	ScalarF64
	// ScalarChar is a Unicode scalar value, encoded var-len.
	ScalarChar
	// ScalarBool is encoded as 1 byte, 0 or 1 only.
	ScalarBool
)

// NumScalarTypes is the number of scalar kinds.
const NumScalarTypes = 14

var scalarNames = [...]string{
	ScalarU8:   "u8",
	ScalarU16:  "u16",
	ScalarU32:  "u32",
	ScalarU64:  "u64",
	ScalarU128: "u128",
	ScalarI8:   "i8",
	ScalarI16:  "i16",
	ScalarI32:  "i32",
	ScalarI64:  "i64",
	ScalarI128: "i128",
	ScalarF32:  "f32",
	ScalarF64:  "f64",
	ScalarChar: "char",
	ScalarBool: "bool",
}

func (s ScalarType) String() string {
	if int(s) < len(scalarNames) {
		return scalarNames[s]
	}
	return "unknown"
}
