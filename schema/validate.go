package schema

import "github.com/wippyai/binschema/errors"

// Validate checks the schema eagerly for defects that would otherwise
// surface as fatal illegal_schema errors mid-message: recurse distances of
// zero or past the root, zero-variant enums, duplicate struct field or
// enum variant names, negative fixed lengths, and nil child schemas.
//
// Coders do not require a validated schema. They perform the same checks
// lazily at the positions they actually visit; Validate exists so a schema
// from an untrusted source can be rejected before any bytes move.
func Validate(s *Schema) error {
	return validate(s, 0)
}

// depth is the number of ancestor nodes above s. RecurseUp(n) at depth d
// resolves to the ancestor n levels up, so 1 <= n <= d.
func validate(s *Schema, depth int) error {
	if s == nil {
		return errors.IllegalSchema(errors.PhaseValidate, "nil schema node")
	}
	switch s.Kind {
	case KindScalar:
		if int(s.Scalar) >= NumScalarTypes {
			return errors.IllegalSchema(errors.PhaseValidate, "unknown scalar type %d", s.Scalar)
		}
	case KindStr, KindBytes, KindUnit:
	case KindOption:
		return validate(s.Elem, depth+1)
	case KindSeq:
		if !s.VarLen && s.Len < 0 {
			return errors.IllegalSchema(errors.PhaseValidate, "seq with negative fixed length %d", s.Len)
		}
		return validate(s.Elem, depth+1)
	case KindTuple:
		for _, e := range s.Elems {
			if err := validate(e, depth+1); err != nil {
				return err
			}
		}
	case KindStruct:
		seen := make(map[string]struct{}, len(s.Fields))
		for _, f := range s.Fields {
			if _, dup := seen[f.Name]; dup {
				return errors.IllegalSchema(errors.PhaseValidate, "duplicate struct field %q", f.Name)
			}
			seen[f.Name] = struct{}{}
			if err := validate(f.Schema, depth+1); err != nil {
				return err
			}
		}
	case KindEnum:
		if len(s.Variants) == 0 {
			return errors.IllegalSchema(errors.PhaseValidate, "enum with zero variants")
		}
		seen := make(map[string]struct{}, len(s.Variants))
		for _, v := range s.Variants {
			if _, dup := seen[v.Name]; dup {
				return errors.IllegalSchema(errors.PhaseValidate, "duplicate enum variant %q", v.Name)
			}
			seen[v.Name] = struct{}{}
			if err := validate(v.Schema, depth+1); err != nil {
				return err
			}
		}
	case KindRecurse:
		if s.Up == 0 {
			return errors.IllegalSchema(errors.PhaseValidate, "recurse distance of zero")
		}
		if s.Up > depth {
			return errors.IllegalSchema(errors.PhaseValidate,
				"recurse distance %d exceeds depth %d, points past the root", s.Up, depth)
		}
	default:
		return errors.IllegalSchema(errors.PhaseValidate, "unknown schema kind %d", s.Kind)
	}
	return nil
}
