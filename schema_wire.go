package binschema

import (
	"math"

	"github.com/wippyai/binschema/coder"
	"github.com/wippyai/binschema/errors"
	"github.com/wippyai/binschema/schema"
)

// Meta schema variant ordinals. These mirror schema.Kind but are a wire
// contract of their own, fixed by the meta schema's declared order.
const (
	metaScalar = iota
	metaStr
	metaBytes
	metaUnit
	metaOption
	metaSeq
	metaTuple
	metaStruct
	metaEnum
	metaRecurse
)

func metaVariantName(ord int) string {
	return schema.MetaSchema().Variants[ord].Name
}

func metaScalarName(st schema.ScalarType) string {
	return schema.MetaSchema().Variants[metaScalar].Schema.Variants[st].Name
}

// encodeSchema writes s as one message of the meta schema.
func encodeSchema(e *coder.Encoder, s *schema.Schema) error {
	kindOrd := int(s.Kind)
	if err := e.BeginEnum(kindOrd, metaVariantName(kindOrd)); err != nil {
		return err
	}
	switch s.Kind {
	case schema.KindScalar:
		if err := e.BeginEnum(int(s.Scalar), metaScalarName(s.Scalar)); err != nil {
			return err
		}
		return e.EncodeUnit()
	case schema.KindStr, schema.KindBytes, schema.KindUnit:
		return e.EncodeUnit()
	case schema.KindOption:
		return encodeSchema(e, s.Elem)
	case schema.KindSeq:
		if err := e.BeginStruct(); err != nil {
			return err
		}
		if err := e.BeginStructField("len"); err != nil {
			return err
		}
		if s.VarLen {
			if err := e.EncodeNone(); err != nil {
				return err
			}
		} else {
			if err := e.BeginSome(); err != nil {
				return err
			}
			if err := e.EncodeU64(uint64(s.Len)); err != nil {
				return err
			}
		}
		if err := e.BeginStructField("inner"); err != nil {
			return err
		}
		if err := encodeSchema(e, s.Elem); err != nil {
			return err
		}
		return e.FinishStruct()
	case schema.KindTuple:
		if err := e.BeginVarLenSeq(len(s.Elems)); err != nil {
			return err
		}
		for _, elem := range s.Elems {
			if err := e.BeginSeqElem(); err != nil {
				return err
			}
			if err := encodeSchema(e, elem); err != nil {
				return err
			}
		}
		return e.FinishSeq()
	case schema.KindStruct:
		if err := e.BeginVarLenSeq(len(s.Fields)); err != nil {
			return err
		}
		for i := range s.Fields {
			if err := encodeNamed(e, s.Fields[i].Name, s.Fields[i].Schema); err != nil {
				return err
			}
		}
		return e.FinishSeq()
	case schema.KindEnum:
		if err := e.BeginVarLenSeq(len(s.Variants)); err != nil {
			return err
		}
		for i := range s.Variants {
			if err := encodeNamed(e, s.Variants[i].Name, s.Variants[i].Schema); err != nil {
				return err
			}
		}
		return e.FinishSeq()
	case schema.KindRecurse:
		return e.EncodeU64(uint64(s.Up))
	default:
		return errors.IllegalSchema(errors.PhaseEncode, "unknown schema kind %d", s.Kind)
	}
}

// encodeNamed writes one name/inner pair, the shared element shape of
// struct fields and enum variants.
func encodeNamed(e *coder.Encoder, name string, inner *schema.Schema) error {
	if err := e.BeginSeqElem(); err != nil {
		return err
	}
	if err := e.BeginStruct(); err != nil {
		return err
	}
	if err := e.BeginStructField("name"); err != nil {
		return err
	}
	if err := e.EncodeStr(name); err != nil {
		return err
	}
	if err := e.BeginStructField("inner"); err != nil {
		return err
	}
	if err := encodeSchema(e, inner); err != nil {
		return err
	}
	return e.FinishStruct()
}

// decodeSchema reads one message of the meta schema back into a schema
// tree.
func decodeSchema(d *coder.Decoder) (*schema.Schema, error) {
	ord, err := d.BeginEnum()
	if err != nil {
		return nil, err
	}
	if err := d.BeginEnumVariant(metaVariantName(ord)); err != nil {
		return nil, err
	}
	switch ord {
	case metaScalar:
		scalarOrd, err := d.BeginEnum()
		if err != nil {
			return nil, err
		}
		st := schema.ScalarType(scalarOrd)
		if err := d.BeginEnumVariant(metaScalarName(st)); err != nil {
			return nil, err
		}
		if err := d.DecodeUnit(); err != nil {
			return nil, err
		}
		return schema.ScalarOf(st), nil
	case metaStr:
		return schema.Str(), d.DecodeUnit()
	case metaBytes:
		return schema.Bytes(), d.DecodeUnit()
	case metaUnit:
		return schema.Unit(), d.DecodeUnit()
	case metaOption:
		inner, err := decodeSchema(d)
		if err != nil {
			return nil, err
		}
		return schema.OptionOf(inner), nil
	case metaSeq:
		if err := d.BeginStruct(); err != nil {
			return nil, err
		}
		if err := d.BeginStructField("len"); err != nil {
			return nil, err
		}
		fixed, err := d.BeginOption()
		if err != nil {
			return nil, err
		}
		var length uint64
		if fixed {
			length, err = d.DecodeU64()
			if err != nil {
				return nil, err
			}
			if length > uint64(math.MaxInt) {
				return nil, errors.PlatformLimits(errors.PhaseDecode,
					"%d out of range for a seq len", length)
			}
		}
		if err := d.BeginStructField("inner"); err != nil {
			return nil, err
		}
		inner, err := decodeSchema(d)
		if err != nil {
			return nil, err
		}
		if err := d.FinishStruct(); err != nil {
			return nil, err
		}
		if fixed {
			return schema.ArrayOf(int(length), inner), nil
		}
		return schema.SeqOf(inner), nil
	case metaTuple:
		n, err := d.BeginVarLenSeq()
		if err != nil {
			return nil, err
		}
		elems := make([]*schema.Schema, 0, capHint(n))
		for i := 0; i < n; i++ {
			if err := d.BeginSeqElem(); err != nil {
				return nil, err
			}
			elem, err := decodeSchema(d)
			if err != nil {
				return nil, err
			}
			elems = append(elems, elem)
		}
		if err := d.FinishSeq(); err != nil {
			return nil, err
		}
		return schema.TupleOf(elems...), nil
	case metaStruct:
		names, inners, err := decodeNamed(d)
		if err != nil {
			return nil, err
		}
		fields := make([]schema.Field, len(names))
		for i := range names {
			fields[i] = schema.Field{Name: names[i], Schema: inners[i]}
		}
		return schema.StructOf(fields...), nil
	case metaEnum:
		names, inners, err := decodeNamed(d)
		if err != nil {
			return nil, err
		}
		variants := make([]schema.Variant, len(names))
		for i := range names {
			variants[i] = schema.Variant{Name: names[i], Schema: inners[i]}
		}
		return schema.EnumOf(variants...), nil
	case metaRecurse:
		up, err := d.DecodeU64()
		if err != nil {
			return nil, err
		}
		if up > uint64(math.MaxInt) {
			return nil, errors.PlatformLimits(errors.PhaseDecode,
				"%d out of range for a recurse distance", up)
		}
		return schema.RecurseUp(int(up)), nil
	default:
		// BeginEnum bounds the ordinal to the meta schema's variants
		return nil, errors.MalformedData(errors.PhaseDecode,
			"unhandled meta schema ordinal %d", ord)
	}
}

// decodeNamed reads the name/inner pair seq shared by struct and enum.
func decodeNamed(d *coder.Decoder) ([]string, []*schema.Schema, error) {
	n, err := d.BeginVarLenSeq()
	if err != nil {
		return nil, nil, err
	}
	names := make([]string, 0, capHint(n))
	inners := make([]*schema.Schema, 0, capHint(n))
	for i := 0; i < n; i++ {
		if err := d.BeginSeqElem(); err != nil {
			return nil, nil, err
		}
		if err := d.BeginStruct(); err != nil {
			return nil, nil, err
		}
		if err := d.BeginStructField("name"); err != nil {
			return nil, nil, err
		}
		name, err := d.DecodeStr()
		if err != nil {
			return nil, nil, err
		}
		if err := d.BeginStructField("inner"); err != nil {
			return nil, nil, err
		}
		inner, err := decodeSchema(d)
		if err != nil {
			return nil, nil, err
		}
		if err := d.FinishStruct(); err != nil {
			return nil, nil, err
		}
		names = append(names, name)
		inners = append(inners, inner)
	}
	if err := d.FinishSeq(); err != nil {
		return nil, nil, err
	}
	return names, inners, nil
}

// capHint bounds preallocation against element counts the data declares
// but may not deliver.
func capHint(n int) int {
	if n > 1024 {
		return 1024
	}
	return n
}
