package emit

import (
	"bytes"
	"fmt"
	"strings"
	"text/template"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/tools/imports"

	"github.com/schematools/modelgen"
	"github.com/schematools/modelgen/internal/naming"
	"github.com/schematools/modelgen/registry"
	"github.com/schematools/modelgen/synth"
	"github.com/schematools/modelgen/synthesis"
)

// GoEmitter renders models as Go source: structs for object models, string
// or numeric constant sets for enums, and pointer-member structs for
// discriminated unions. Output runs through goimports-equivalent processing
// so it compiles as written.
type GoEmitter struct {
	// PackageName is the package clause of the generated file.
	// Defaults to "models".
	PackageName string
	// FileName is the output file name. Defaults to "models.go".
	FileName string

	logger modelgen.Logger
	caser  cases.Caser
}

// NewGoEmitter creates a Go emitter for the given package name.
func NewGoEmitter(packageName string) *GoEmitter {
	if packageName == "" {
		packageName = "models"
	}
	return &GoEmitter{
		PackageName: packageName,
		FileName:    "models.go",
		logger:      modelgen.NopLogger{},
		caser:       cases.Title(language.English),
	}
}

// SetLogger replaces the emitter's logger. Nil restores the no-op logger.
func (g *GoEmitter) SetLogger(logger modelgen.Logger) {
	if logger == nil {
		logger = modelgen.NopLogger{}
	}
	g.logger = logger
}

// Language implements Backend.
func (g *GoEmitter) Language() string { return "go" }

// Emit implements Backend: one file containing every model in emission
// order.
func (g *GoEmitter) Emit(result *synthesis.Result) ([]File, error) {
	var buf bytes.Buffer
	fmt.Fprintf(&buf, "// Code generated by modelgen %s. DO NOT EDIT.\n\n", modelgen.Version())
	fmt.Fprintf(&buf, "package %s\n\n", g.PackageName)
	buf.WriteString("import \"time\"\n\n")

	for _, def := range result.Models {
		var err error
		switch def.Kind {
		case synth.CandidateStruct:
			err = g.renderStruct(&buf, def, result)
		case synth.CandidateEnum:
			err = g.renderEnum(&buf, def)
		case synth.CandidateUnion:
			err = g.renderUnion(&buf, def, result)
		}
		if err != nil {
			return nil, fmt.Errorf("failed to render model %s: %w", def.Name, err)
		}
	}

	src, err := imports.Process(g.FileName, buf.Bytes(), nil)
	if err != nil {
		return nil, fmt.Errorf("generated source does not parse: %w", err)
	}
	g.logger.Debug("emitted models", "count", len(result.Models), "bytes", len(src))
	return []File{{Name: g.FileName, Content: src}}, nil
}

var structTmpl = template.Must(template.New("struct").Parse(`{{if .Doc}}// {{.Name}} {{.Doc}}
{{end}}type {{.Name}} struct {
{{- range .Bases}}
	{{.}}
{{- end}}
{{- range .Fields}}
{{- if .Doc}}
	// {{.Doc}}
{{- end}}
	{{.Name}} {{.Type}} ` + "`{{.Tag}}`" + `
{{- end}}
}

`))

var enumTmpl = template.Must(template.New("enum").Parse(`{{if .Doc}}// {{.Name}} {{.Doc}}
{{end}}type {{.Name}} {{.Base}}

const (
{{- range .Members}}
	{{.Name}} {{.Type}} = {{.Value}}
{{- end}}
)

`))

var unionTmpl = template.Must(template.New("union").Parse(`// {{.Name}} is a union; exactly one member is set.
{{- if .Discriminator}}
// The {{.Discriminator}} field of the encoded value selects the member.
{{- end}}
type {{.Name}} struct {
{{- range .Members}}
	{{.Name}} {{.Type}} ` + "`json:\"-\"`" + `
{{- end}}
}

`))

type structData struct {
	Name   string
	Doc    string
	Bases  []string
	Fields []fieldData
}

type fieldData struct {
	Name string
	Type string
	Tag  string
	Doc  string
}

type enumData struct {
	Name    string
	Doc     string
	Base    string
	Members []enumMember
}

type enumMember struct {
	Name  string
	Type  string
	Value string
}

type unionData struct {
	Name          string
	Discriminator string
	Members       []fieldData
}

func (g *GoEmitter) renderStruct(buf *bytes.Buffer, def *registry.ModelDefinition, result *synthesis.Result) error {
	data := structData{
		Name: def.Name,
		Doc:  docSentence(def.Description),
	}
	for _, base := range def.Bases {
		data.Bases = append(data.Bases, modelName(result, base))
	}
	for _, f := range def.Fields {
		data.Fields = append(data.Fields, fieldData{
			Name: naming.ExportedIdentifier(f.Name),
			Type: g.fieldType(f, def.ID, result),
			Tag:  jsonTag(f),
			Doc:  docSentence(f.Description),
		})
	}
	return structTmpl.Execute(buf, data)
}

func (g *GoEmitter) renderEnum(buf *bytes.Buffer, def *registry.ModelDefinition) error {
	data := enumData{
		Name: def.Name,
		Doc:  docSentence(def.Description),
		Base: scalarGoType(synth.Scalar{Kind: def.EnumBase}),
	}
	used := make(map[string]bool)
	for _, value := range def.EnumValues {
		member := naming.ExportedIdentifier(g.caser.String(fmt.Sprintf("%v", value)))
		if member == "" {
			member = fmt.Sprintf("Value%d", len(data.Members)+1)
		}
		// Distinct values can title-case to the same identifier ("a" and
		// "A" both become A); later ones get a numeric suffix.
		base := member
		for n := 2; used[member]; n++ {
			member = fmt.Sprintf("%s%d", base, n)
		}
		used[member] = true
		data.Members = append(data.Members, enumMember{
			Name:  def.Name + member,
			Type:  def.Name,
			Value: goLiteral(value, def.EnumBase),
		})
	}
	return enumTmpl.Execute(buf, data)
}

func (g *GoEmitter) renderUnion(buf *bytes.Buffer, def *registry.ModelDefinition, result *synthesis.Result) error {
	data := unionData{Name: def.Name}
	if def.Union == nil {
		return unionTmpl.Execute(buf, data)
	}
	if d := def.Union.Discriminator; d != nil {
		data.Discriminator = fmt.Sprintf("%q", d.Field)
	}
	for i, member := range def.Union.Members {
		field := fieldData{Name: fmt.Sprintf("Member%d", i+1), Type: "any"}
		if ref, ok := member.(synth.ModelRef); ok {
			name := modelName(result, ref.ID)
			field.Name = name
			field.Type = "*" + name
		} else {
			field.Type = g.goType(member, def.ID, result)
		}
		data.Members = append(data.Members, field)
	}
	return unionTmpl.Execute(buf, data)
}

// fieldType maps a field to its Go type, adding pointer indirection for
// optional values, nullable scalars, and self references (a recursive
// struct needs the indirection to have finite size).
func (g *GoEmitter) fieldType(f synth.Field, selfID synth.ModelID, result *synthesis.Result) string {
	base := g.goType(f.Type, selfID, result)
	if strings.HasPrefix(base, "*") || strings.HasPrefix(base, "[]") ||
		strings.HasPrefix(base, "map[") || base == "any" {
		return base
	}
	if ref, ok := f.Type.(synth.ModelRef); ok && ref.ID == selfID {
		return "*" + base
	}
	if sc, ok := f.Type.(synth.Scalar); ok && sc.Nullable {
		return "*" + base
	}
	if !f.Required {
		return "*" + base
	}
	return base
}

// goType maps a canonical type to its Go rendering.
func (g *GoEmitter) goType(t synth.CanonicalType, selfID synth.ModelID, result *synthesis.Result) string {
	switch v := t.(type) {
	case synth.Scalar:
		return scalarGoType(v)
	case synth.Container:
		switch v.Kind {
		case synth.ContainerMap:
			return "map[string]" + g.goType(v.Elems[0], selfID, result)
		case synth.ContainerTuple:
			if elem, ok := homogeneous(v.Elems); ok {
				return "[]" + g.goType(elem, selfID, result)
			}
			return "[]any"
		default:
			return "[]" + g.goType(v.Elems[0], selfID, result)
		}
	case synth.Union:
		return "any"
	case synth.ModelRef:
		return modelName(result, v.ID)
	case synth.Never:
		return "struct{}"
	default:
		return "any"
	}
}

// homogeneous reports whether all tuple slots share one type.
func homogeneous(elems []synth.CanonicalType) (synth.CanonicalType, bool) {
	if len(elems) == 0 {
		return nil, false
	}
	for _, e := range elems[1:] {
		if !e.Equal(elems[0]) {
			return nil, false
		}
	}
	return elems[0], true
}

func scalarGoType(s synth.Scalar) string {
	switch s.Kind {
	case synth.ScalarInteger:
		switch s.Format {
		case "int32":
			return "int32"
		default:
			return "int64"
		}
	case synth.ScalarNumber:
		if s.Format == "float" {
			return "float32"
		}
		return "float64"
	case synth.ScalarBool:
		return "bool"
	case synth.ScalarNull:
		return "any"
	default:
		switch s.Format {
		case "date-time":
			return "time.Time"
		case "byte", "binary":
			return "[]byte"
		default:
			return "string"
		}
	}
}

func goLiteral(value any, base synth.ScalarKind) string {
	if base == synth.ScalarString {
		return fmt.Sprintf("%q", fmt.Sprintf("%v", value))
	}
	return fmt.Sprintf("%v", value)
}

func jsonTag(f synth.Field) string {
	if f.Required {
		return fmt.Sprintf(`json:%q`, f.Name)
	}
	return fmt.Sprintf(`json:%q`, f.Name+",omitempty")
}

func modelName(result *synthesis.Result, id synth.ModelID) string {
	if def := result.Registry.Model(id); def != nil && def.Name != "" {
		return def.Name
	}
	return fmt.Sprintf("Model_%d", id)
}

// docSentence normalizes a description into a single doc comment line.
func docSentence(desc string) string {
	desc = strings.TrimSpace(desc)
	if desc == "" {
		return ""
	}
	if idx := strings.IndexByte(desc, '\n'); idx >= 0 {
		desc = strings.TrimSpace(desc[:idx])
	}
	return desc
}
