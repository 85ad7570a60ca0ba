package schema

import "sync"

var (
	metaOnce   sync.Once
	metaSchema *Schema
)

// MetaSchema returns the schema that describes serialized schemas. A
// Schema value encoded against MetaSchema is the portable wire form used
// by MarshalSchema and UnmarshalSchema in the root package.
//
// Variant and field ordering here is the wire contract; the returned
// schema is shared and must not be mutated.
func MetaSchema() *Schema {
	metaOnce.Do(func() {
		scalar := EnumOf(
			Variant{Name: "U8", Schema: Unit()},
			Variant{Name: "U16", Schema: Unit()},
			Variant{Name: "U32", Schema: Unit()},
			Variant{Name: "U64", Schema: Unit()},
			Variant{Name: "U128", Schema: Unit()},
			Variant{Name: "I8", Schema: Unit()},
			Variant{Name: "I16", Schema: Unit()},
			Variant{Name: "I32", Schema: Unit()},
			Variant{Name: "I64", Schema: Unit()},
			Variant{Name: "I128", Schema: Unit()},
			Variant{Name: "F32", Schema: Unit()},
			Variant{Name: "F64", Schema: Unit()},
			Variant{Name: "Char", Schema: Unit()},
			Variant{Name: "Bool", Schema: Unit()},
		)

		// name/inner pairs used by both Struct and Enum: the recurse
		// distance 3 climbs struct -> seq -> the root enum.
		named := SeqOf(StructOf(
			Field{Name: "name", Schema: Str()},
			Field{Name: "inner", Schema: RecurseUp(3)},
		))

		metaSchema = EnumOf(
			Variant{Name: "Scalar", Schema: scalar},
			Variant{Name: "Str", Schema: Unit()},
			Variant{Name: "Bytes", Schema: Unit()},
			Variant{Name: "Unit", Schema: Unit()},
			Variant{Name: "Option", Schema: RecurseUp(1)},
			Variant{Name: "Seq", Schema: StructOf(
				Field{Name: "len", Schema: OptionOf(U64())},
				Field{Name: "inner", Schema: RecurseUp(2)},
			)},
			Variant{Name: "Tuple", Schema: SeqOf(RecurseUp(2))},
			Variant{Name: "Struct", Schema: named},
			Variant{Name: "Enum", Schema: named},
			Variant{Name: "Recurse", Schema: U64()},
		)
	})
	return metaSchema
}
