package schema

import "testing"

// tree is a self-referential test type: struct{val: i32, kids: seq(tree)}.
type tree struct{}

var treeKey = new(byte)

func (tree) ReflectSchema(a *Ancestry) *Schema {
	if back := a.Enter(treeKey); back != nil {
		return back
	}
	defer a.Exit()
	return StructOf(
		Field{Name: "val", Schema: I32()},
		Field{Name: "kids", Schema: ReflectSeq(a, tree{})},
	)
}

// pair is flat and contains two trees.
type pair struct{}

var pairKey = new(byte)

func (pair) ReflectSchema(a *Ancestry) *Schema {
	if back := a.Enter(pairKey); back != nil {
		return back
	}
	defer a.Exit()
	return TupleOf(tree{}.ReflectSchema(a), tree{}.ReflectSchema(a))
}

func TestReflectRecursiveType(t *testing.T) {
	got := Of(tree{})
	want := StructOf(
		Field{Name: "val", Schema: I32()},
		Field{Name: "kids", Schema: SeqOf(RecurseUp(2))},
	)
	if !got.Equal(want) {
		t.Errorf("Of(tree) = %s, want %s", got, want)
	}
	if err := Validate(got); err != nil {
		t.Errorf("reflected schema should validate, got %v", err)
	}
}

func TestReflectNestedType(t *testing.T) {
	// Each tree inside pair starts its own cycle; the recurse distances
	// must count from the tree nodes, not from pair.
	got := Of(pair{})
	treeWant := StructOf(
		Field{Name: "val", Schema: I32()},
		Field{Name: "kids", Schema: SeqOf(RecurseUp(2))},
	)
	want := TupleOf(treeWant, treeWant)
	if !got.Equal(want) {
		t.Errorf("Of(pair) = %s, want %s", got, want)
	}
	if err := Validate(got); err != nil {
		t.Errorf("reflected schema should validate, got %v", err)
	}
}

func TestAncestryBalance(t *testing.T) {
	a := &Ancestry{}
	tree{}.ReflectSchema(a)
	if a.Depth() != 0 {
		t.Errorf("Depth() = %d after reflection, want 0", a.Depth())
	}
}

func TestEnterDistance(t *testing.T) {
	a := &Ancestry{}
	if back := a.Enter(treeKey); back != nil {
		t.Fatalf("first Enter returned %s", back)
	}
	a.EnterOpaque()
	a.EnterOpaque()
	back := a.Enter(treeKey)
	if back == nil {
		t.Fatal("re-entering an open key should return a back-reference")
	}
	if back.Kind != KindRecurse || back.Up != 3 {
		t.Errorf("back-reference = %s, want recurse(3)", back)
	}
	// a failed Enter does not push a level
	if a.Depth() != 3 {
		t.Errorf("Depth() = %d, want 3", a.Depth())
	}
}
