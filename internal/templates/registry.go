// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package templates

import (
	"bytes"
	_ "embed"
	"fmt"
	"sort"
	"strings"
	"sync"
	"text/template"

	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/content-engine/internal/logic"
	"github.com/pdiddy/content-engine/internal/normalize"
	"github.com/pdiddy/content-engine/pkg/types"
)

//go:embed templates.yaml
var builtin []byte

// Source is where a section's content comes from. The set of
// implementations is closed: LogicBlock, SubsetQuestions, and Instruction.
type Source interface {
	source()
}

// LogicBlock renders a deterministic block from the logic registry.
type LogicBlock struct{ Name string }

// SubsetQuestions answers the questions of one category.
type SubsetQuestions struct{ Category types.Category }

// Instruction asks the model to write the section from the state.
type Instruction struct{ Text string }

func (LogicBlock) source()      {}
func (SubsetQuestions) source() {}
func (Instruction) source()     {}

// SectionSpec declares one section of a page.
type SectionSpec struct {
	Heading string
	Source  Source
}

// Template is one page type: metadata formats and an ordered section list.
type Template struct {
	ID       string
	Sections []SectionSpec

	title       *template.Template
	description *template.Template
}

// Registry is the static set of templates, keyed by identifier.
type Registry struct {
	templates map[string]*Template
}

// sectionFile is one section as written in YAML.
type sectionFile struct {
	Heading     string `yaml:"heading"`
	Source      string `yaml:"source"`
	Function    string `yaml:"function"`
	Filter      string `yaml:"filter"`
	Instruction string `yaml:"instruction"`
}

type templateFile struct {
	Title       string        `yaml:"title"`
	Description string        `yaml:"description"`
	Sections    []sectionFile `yaml:"sections"`
}

var metaFuncs = template.FuncMap{
	"price": normalize.FormatPrice,
}

// Load parses a YAML template set and checks every section against blocks.
// Unknown logic blocks, unknown question categories, unknown source kinds,
// and empty templates are configuration errors, so a broken template fails
// here rather than during a run.
func Load(data []byte, blocks *logic.Registry) (*Registry, error) {
	var files map[string]templateFile
	if err := yaml.Unmarshal(data, &files); err != nil {
		return nil, types.Configurationf("parsing templates: %v", err)
	}
	if len(files) == 0 {
		return nil, types.Configurationf("no templates defined")
	}

	r := &Registry{templates: make(map[string]*Template, len(files))}
	for id, f := range files {
		t, err := compile(id, f, blocks)
		if err != nil {
			return nil, err
		}
		r.templates[id] = t
	}
	return r, nil
}

func compile(id string, f templateFile, blocks *logic.Registry) (*Template, error) {
	if len(f.Sections) == 0 {
		return nil, types.Configurationf("template %q has no sections", id)
	}
	t := &Template{ID: id}

	titleSrc := f.Title
	if titleSrc == "" {
		titleSrc = "{{.Product.Name}}"
	}
	var err error
	if t.title, err = template.New(id + ".title").Funcs(metaFuncs).Option("missingkey=error").Parse(titleSrc); err != nil {
		return nil, types.Configurationf("template %q title: %v", id, err)
	}
	if t.description, err = template.New(id + ".description").Funcs(metaFuncs).Option("missingkey=error").Parse(f.Description); err != nil {
		return nil, types.Configurationf("template %q description: %v", id, err)
	}

	for i, s := range f.Sections {
		spec, err := compileSection(s, blocks)
		if err != nil {
			return nil, types.Configurationf("template %q section %d (%s): %v", id, i+1, s.Heading, err)
		}
		t.Sections = append(t.Sections, spec)
	}
	return t, nil
}

func compileSection(s sectionFile, blocks *logic.Registry) (SectionSpec, error) {
	heading := strings.TrimSpace(s.Heading)
	if heading == "" {
		return SectionSpec{}, fmt.Errorf("heading is required")
	}

	switch strings.TrimSpace(s.Source) {
	case "logic_block":
		if !blocks.Has(s.Function) {
			return SectionSpec{}, fmt.Errorf("unknown logic block %q", s.Function)
		}
		return SectionSpec{Heading: heading, Source: LogicBlock{Name: s.Function}}, nil
	case "subset_questions":
		c, err := types.ParseCategory(s.Filter)
		if err != nil {
			return SectionSpec{}, err
		}
		return SectionSpec{Heading: heading, Source: SubsetQuestions{Category: c}}, nil
	case "instruction", "":
		if strings.TrimSpace(s.Instruction) == "" {
			return SectionSpec{}, fmt.Errorf("instruction is empty")
		}
		return SectionSpec{Heading: heading, Source: Instruction{Text: strings.TrimSpace(s.Instruction)}}, nil
	default:
		return SectionSpec{}, fmt.Errorf("unknown source %q", s.Source)
	}
}

// Default returns the built-in templates checked against the default logic
// registry. It panics if the embedded file is broken, which tests catch.
var Default = sync.OnceValue(func() *Registry {
	r, err := Load(builtin, logic.Default())
	if err != nil {
		panic(err)
	}
	return r
})

// Get returns the template with identifier id.
func (r *Registry) Get(id string) (*Template, error) {
	t, ok := r.templates[id]
	if !ok {
		return nil, types.Configurationf("unknown template %q (known: %s)", id, strings.Join(r.IDs(), ", "))
	}
	return t, nil
}

// Resolve returns the ordered section list of template id.
func (r *Registry) Resolve(id string) ([]SectionSpec, error) {
	t, err := r.Get(id)
	if err != nil {
		return nil, err
	}
	return append([]SectionSpec(nil), t.Sections...), nil
}

// IDs returns the template identifiers in sorted order.
func (r *Registry) IDs() []string {
	ids := make([]string, 0, len(r.templates))
	for id := range r.templates {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// metaData is what the title and description formats see.
type metaData struct {
	Template   string
	Product    types.ProductRecord
	Competitor types.CompetitorProduct
}

// Metadata derives the page title and description from the state. It is a
// pure function of the template and the state.
func (t *Template) Metadata(s *types.EnrichedState) (types.PageMetadata, error) {
	data := metaData{Template: t.ID}
	if s != nil {
		data.Product, data.Competitor = s.Product, s.Competitor
	}
	var title, desc bytes.Buffer
	if err := t.title.Execute(&title, data); err != nil {
		return types.PageMetadata{}, types.Configurationf("template %q title: %v", t.ID, err)
	}
	if err := t.description.Execute(&desc, data); err != nil {
		return types.PageMetadata{}, types.Configurationf("template %q description: %v", t.ID, err)
	}
	return types.PageMetadata{
		Title:       strings.TrimSpace(title.String()),
		Description: strings.TrimSpace(desc.String()),
	}, nil
}

// Kind names a source for listings.
func Kind(s Source) string {
	switch s.(type) {
	case LogicBlock:
		return "logic_block"
	case SubsetQuestions:
		return "subset_questions"
	case Instruction:
		return "instruction"
	default:
		return "unknown"
	}
}
