// Package schema defines the data model describing how raw binary data
// encodes structures of semantic primitives.
//
// A Schema is a finite, runtime-inspectable description of a value's shape.
// It is ordinary data: it can be built programmatically, validated,
// pretty-printed, compared, and (via the root binschema package) itself
// serialized, since MetaSchema describes serialized schemas.
//
// # Variant Set
//
//	Scalar   one of 14 scalar kinds (u8..u128, i8..i128, f32, f64, char, bool)
//	Str      UTF-8 string
//	Bytes    byte string
//	Unit     zero bytes
//	Option   some or none
//	Seq      homogeneous sequence, fixed or variable length
//	Tuple    heterogeneous fixed-length sequence
//	Struct   ordered named fields
//	Enum     tagged union of ordered named variants
//	Recurse  back-reference n levels up the traversal ancestry
//
// Recurse is what makes unbounded-depth recursive types (trees, lists)
// describable by a finite schema. RecurseUp(n) refers to the schema node n
// levels above its own position; it is resolved while a value is traversed,
// not when the schema is built. A binary search tree:
//
//	schema.EnumOf(
//		schema.Variant{Name: "Branch", Schema: schema.StructOf(
//			schema.Field{Name: "left", Schema: schema.RecurseUp(2)},
//			schema.Field{Name: "right", Schema: schema.RecurseUp(2)},
//		)},
//		schema.Variant{Name: "Leaf", Schema: schema.I32()},
//	)
//
// # Reflection
//
// Types that know their own schema implement Reflector. Ancestry carries
// the reflection-time ancestor stack used to detect self-reference and
// emit Recurse nodes instead of expanding forever. This stack exists only
// while a schema is being built; it is distinct from the coder's runtime
// position stack, which walks the finished schema once per message.
package schema
