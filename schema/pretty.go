package schema

import "strings"

// Pretty renders the schema as an indented multi-line tree, one node per
// line. Useful for diagnostics and the command line tool.
//
//	struct {
//	    a: u8
//	    b: option (
//	        str
//	    )
//	}
func (s *Schema) Pretty() string {
	var b strings.Builder
	s.pretty(&b, 0)
	b.WriteByte('\n')
	return b.String()
}

func (s *Schema) pretty(b *strings.Builder, indent int) {
	switch s.Kind {
	case KindScalar, KindStr, KindBytes, KindUnit, KindRecurse:
		s.writeTo(b)
	case KindOption:
		b.WriteString("option (\n")
		padTo(b, indent+1)
		s.Elem.pretty(b, indent+1)
		b.WriteByte('\n')
		padTo(b, indent)
		b.WriteByte(')')
	case KindSeq:
		b.WriteString("seq")
		if !s.VarLen {
			writeInt(b, s.Len)
		}
		b.WriteString(" (\n")
		padTo(b, indent+1)
		s.Elem.pretty(b, indent+1)
		b.WriteByte('\n')
		padTo(b, indent)
		b.WriteByte(')')
	case KindTuple:
		b.WriteString("tuple (\n")
		for _, e := range s.Elems {
			padTo(b, indent+1)
			e.pretty(b, indent+1)
			b.WriteByte('\n')
		}
		padTo(b, indent)
		b.WriteByte(')')
	case KindStruct:
		b.WriteString("struct {\n")
		for _, f := range s.Fields {
			padTo(b, indent+1)
			b.WriteString(f.Name)
			b.WriteString(": ")
			f.Schema.pretty(b, indent+1)
			b.WriteByte('\n')
		}
		padTo(b, indent)
		b.WriteByte('}')
	case KindEnum:
		b.WriteString("enum {\n")
		for _, v := range s.Variants {
			padTo(b, indent+1)
			b.WriteString(v.Name)
			b.WriteString(" (\n")
			padTo(b, indent+2)
			v.Schema.pretty(b, indent+2)
			b.WriteByte('\n')
			padTo(b, indent+1)
			b.WriteString(")\n")
		}
		padTo(b, indent)
		b.WriteByte('}')
	default:
		b.WriteString("unknown")
	}
}

func padTo(b *strings.Builder, indent int) {
	for i := 0; i < indent; i++ {
		b.WriteString("    ")
	}
}
