package main

import (
	"bytes"
	"encoding/hex"
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"golang.org/x/term"

	"github.com/wippyai/binschema"
	"github.com/wippyai/binschema/schema"
	"github.com/wippyai/binschema/value"
)

var (
	headingStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4")).
			Padding(0, 1)

	hashStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#87CEEB"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF6B6B"))
)

func main() {
	var (
		schemaFile  = flag.String("schema", "", "Path to a serialized schema file")
		dataFile    = flag.String("data", "", "Path to a message file to decode against the schema")
		meta        = flag.Bool("meta", false, "Use the meta schema (schemas as messages)")
		hashOnly    = flag.Bool("hash", false, "Print only the schema hash")
		interactive = flag.Bool("i", false, "Interactive mode with TUI")
	)
	flag.Parse()

	if *schemaFile == "" && !*meta {
		fmt.Fprintln(os.Stderr, "Usage: binschema -schema <file> [-data <file>] [-hash]")
		fmt.Fprintln(os.Stderr, "       binschema -meta [-data <file>]")
		fmt.Fprintln(os.Stderr, "       binschema -schema <file> -i  (interactive mode)")
		os.Exit(1)
	}

	if *interactive {
		if !term.IsTerminal(int(os.Stdin.Fd())) {
			fmt.Fprintln(os.Stderr, "Error: interactive mode needs a terminal")
			os.Exit(1)
		}
		if err := runInteractive(*schemaFile, *dataFile, *meta); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		return
	}

	if err := run(*schemaFile, *dataFile, *meta, *hashOnly); err != nil {
		fmt.Fprintln(os.Stderr, errorStyle.Render("Error: "+err.Error()))
		os.Exit(1)
	}
}

func loadSchema(schemaFile string, meta bool) (*schema.Schema, error) {
	if meta {
		return schema.MetaSchema(), nil
	}
	wire, err := os.ReadFile(schemaFile)
	if err != nil {
		return nil, fmt.Errorf("read schema: %w", err)
	}
	s, err := binschema.UnmarshalSchema(wire)
	if err != nil {
		return nil, fmt.Errorf("unmarshal schema: %w", err)
	}
	return s, nil
}

func run(schemaFile, dataFile string, meta, hashOnly bool) error {
	s, err := loadSchema(schemaFile, meta)
	if err != nil {
		return err
	}

	hash, err := binschema.SchemaHash(s)
	if err != nil {
		return err
	}
	if hashOnly {
		fmt.Println(hex.EncodeToString(hash[:]))
		return nil
	}

	fmt.Println(headingStyle.Render("Schema"))
	fmt.Print(s.Pretty())
	fmt.Println(hashStyle.Render("hash: " + hex.EncodeToString(hash[:])))

	if dataFile == "" {
		return nil
	}

	data, err := os.ReadFile(dataFile)
	if err != nil {
		return fmt.Errorf("read data: %w", err)
	}
	r := bytes.NewReader(data)
	// a data file may hold several back-to-back messages
	for n := 0; r.Len() > 0; n++ {
		v, err := binschema.DecodeValue(r, s)
		if err != nil {
			return fmt.Errorf("decode message %d: %w", n, err)
		}
		fmt.Println()
		fmt.Println(headingStyle.Render(fmt.Sprintf("Message %d", n)))
		fmt.Print(renderValue(v))
	}
	return nil
}

// renderValue renders a value tree as indented text, one node per line.
func renderValue(v value.Value) string {
	var b strings.Builder
	writeValue(&b, v, 0)
	b.WriteByte('\n')
	return b.String()
}

func writeValue(b *strings.Builder, v value.Value, indent int) {
	pad := strings.Repeat("    ", indent)
	switch v.Kind {
	case value.KindScalar:
		b.WriteString(renderScalar(v.Scalar))
	case value.KindStr:
		b.WriteString(strconv.Quote(v.Str))
	case value.KindBytes:
		b.WriteString("0x" + hex.EncodeToString(v.Bytes))
	case value.KindUnit:
		b.WriteString("unit")
	case value.KindOption:
		if v.Some == nil {
			b.WriteString("none")
			return
		}
		b.WriteString("some(")
		writeValue(b, *v.Some, indent)
		b.WriteByte(')')
	case value.KindFixedLenSeq, value.KindVarLenSeq, value.KindTuple:
		opener, closer := "[", "]"
		if v.Kind == value.KindTuple {
			opener, closer = "(", ")"
		}
		b.WriteString(opener + "\n")
		for _, elem := range v.Elems {
			b.WriteString(pad + "    ")
			writeValue(b, elem, indent+1)
			b.WriteString("\n")
		}
		b.WriteString(pad + closer)
	case value.KindStruct:
		b.WriteString("{\n")
		for _, f := range v.Fields {
			b.WriteString(pad + "    " + f.Name + ": ")
			writeValue(b, f.Value, indent+1)
			b.WriteString("\n")
		}
		b.WriteString(pad + "}")
	case value.KindEnum:
		b.WriteString(v.Variant + "(")
		writeValue(b, *v.Inner, indent)
		b.WriteByte(')')
	}
}

func renderScalar(s value.Scalar) string {
	switch s.Type {
	case schema.ScalarU8, schema.ScalarU16, schema.ScalarU32, schema.ScalarU64, schema.ScalarU128:
		return strconv.FormatUint(s.U, 10)
	case schema.ScalarI8, schema.ScalarI16, schema.ScalarI32, schema.ScalarI64, schema.ScalarI128:
		return strconv.FormatInt(s.I, 10)
	case schema.ScalarF32:
		return strconv.FormatFloat(float64(s.F32), 'g', -1, 32)
	case schema.ScalarF64:
		return strconv.FormatFloat(s.F64, 'g', -1, 64)
	case schema.ScalarChar:
		return strconv.QuoteRune(s.Ch)
	case schema.ScalarBool:
		return strconv.FormatBool(s.B)
	}
	return "?"
}
