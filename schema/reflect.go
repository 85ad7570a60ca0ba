package schema

// Reflector is implemented by types that know their own schema. The
// Ancestry argument carries the reflection-time ancestor stack; a type
// that can contain itself uses it to emit a Recurse node instead of
// expanding forever.
//
// The canonical shape of an implementation for a recursive type:
//
//	func (Tree) ReflectSchema(a *schema.Ancestry) *schema.Schema {
//		if back := a.Enter(treeKey); back != nil {
//			return back
//		}
//		defer a.Exit()
//		return schema.StructOf(...)
//	}
//
// where treeKey is any comparable value unique to the type, e.g. a
// package-level sentinel.
type Reflector interface {
	ReflectSchema(a *Ancestry) *Schema
}

// Of reflects the schema of r with a fresh ancestry.
func Of(r Reflector) *Schema {
	return r.ReflectSchema(&Ancestry{})
}

// Ancestry is the stack of schema nodes currently open during reflection.
// Every node on the path from the root to the node being built occupies
// one level, keyed levels (Enter) and anonymous container levels
// (EnterOpaque) alike, so that back-reference distances line up with how
// the coder resolves Recurse against its traversal stack.
//
// The zero value is ready to use.
type Ancestry struct {
	keys []any
}

// Enter opens a level identified by key, which must be comparable. If key
// is already open, no level is pushed and the matching back-reference is
// returned instead; the caller must return it without calling Exit.
// Otherwise Enter returns nil and the caller owes a matching Exit.
func (a *Ancestry) Enter(key any) *Schema {
	for i := len(a.keys) - 1; i >= 0; i-- {
		if a.keys[i] != nil && a.keys[i] == key {
			return RecurseUp(len(a.keys) - i)
		}
	}
	a.keys = append(a.keys, key)
	return nil
}

// EnterOpaque opens an anonymous level for a container node that sits
// between a type and its recursive occurrence, such as the option in
// struct{next: option(recurse)}. Opaque levels never match Enter keys but
// still count toward back-reference distances. The caller owes a matching
// Exit.
func (a *Ancestry) EnterOpaque() {
	a.keys = append(a.keys, nil)
}

// Exit closes the most recently opened level.
func (a *Ancestry) Exit() {
	a.keys = a.keys[:len(a.keys)-1]
}

// Depth is the number of currently open levels.
func (a *Ancestry) Depth() int {
	return len(a.keys)
}

// ReflectOption builds an option schema, reflecting the element under an
// opaque ancestry level.
func ReflectOption(a *Ancestry, elem Reflector) *Schema {
	a.EnterOpaque()
	defer a.Exit()
	return OptionOf(elem.ReflectSchema(a))
}

// ReflectSeq builds a variable-length seq schema, reflecting the element
// under an opaque ancestry level.
func ReflectSeq(a *Ancestry, elem Reflector) *Schema {
	a.EnterOpaque()
	defer a.Exit()
	return SeqOf(elem.ReflectSchema(a))
}

// ReflectArray builds a fixed-length seq schema, reflecting the element
// under an opaque ancestry level.
func ReflectArray(a *Ancestry, n int, elem Reflector) *Schema {
	a.EnterOpaque()
	defer a.Exit()
	return ArrayOf(n, elem.ReflectSchema(a))
}
