package manifest

import (
	"errors"
	"slices"
	"strings"

	"github.com/pelletier/go-toml/v2"

	ferrors "git.home.luguber.info/inful/depmerge/internal/foundation/errors"
	"git.home.luguber.info/inful/depmerge/internal/versionspec"
)

// DefaultTable is the dependency table every manifest must carry.
const DefaultTable = "dependencies"

// Dependency is one entry of a dependency table.
type Dependency struct {
	Name    string
	Version versionspec.Spec
	// Raw is the decoded value: a string or a map[string]any for inline tables.
	Raw any
	// Source is the value exactly as written, so the winning side is copied verbatim.
	Source string

	// line is the whole entry as written, indentation and trailing comment included.
	line string
	kv   keyValue
}

// Table is a located dependency table.
type Table struct {
	Name    string
	Present bool
	// Entries are in source order.
	Entries []Dependency

	section *section
	byName  map[string]int
}

// Lookup returns the named dependency.
func (t *Table) Lookup(name string) (Dependency, bool) {
	if t == nil || t.byName == nil {
		return Dependency{}, false
	}
	i, ok := t.byName[name]
	if !ok {
		return Dependency{}, false
	}
	return t.Entries[i], true
}

// Names returns the dependency names in source order.
func (t *Table) Names() []string {
	names := make([]string, len(t.Entries))
	for i, e := range t.Entries {
		names[i] = e.Name
	}
	return names
}

// Document is a parsed manifest revision.
type Document struct {
	text   string
	tables []*Table
}

// Text returns the source the document was parsed from.
func (d *Document) Text() string { return d.text }

// Table returns the named table, or nil if it was not requested at parse time.
func (d *Document) Table(name string) *Table {
	for _, t := range d.tables {
		if t.Name == name {
			return t
		}
	}
	return nil
}

// Parse decodes text and locates the requested dependency tables. With no table
// names the default table is used. Missing tables are reported through Table.Present.
func Parse(text string, tables ...string) (*Document, error) {
	if len(tables) == 0 {
		tables = []string{DefaultTable}
	}

	var decoded map[string]any
	if err := toml.Unmarshal([]byte(text), &decoded); err != nil {
		return nil, decodeError(err)
	}
	sections, err := locate(text)
	if err != nil {
		return nil, err
	}

	doc := &Document{text: text}
	for _, name := range tables {
		path, err := parseKeyPath(name)
		if err != nil {
			return nil, ferrors.WrapError(err, ferrors.CategoryConfig, "invalid dependency table name").
				WithContext("table", name).
				Build()
		}
		t, err := buildTable(text, name, path, decoded, sections)
		if err != nil {
			return nil, err
		}
		doc.tables = append(doc.tables, t)
	}
	return doc, nil
}

func decodeError(err error) error {
	b := ferrors.WrapError(err, ferrors.CategoryParse, "malformed manifest").Fatal()
	var derr *toml.DecodeError
	if errors.As(err, &derr) {
		row, col := derr.Position()
		b = b.WithContext("line", row).WithContext("column", col)
	}
	return b.Build()
}

func buildTable(text, name string, path []string, decoded map[string]any, sections []*section) (*Table, error) {
	t := &Table{Name: name}
	values, err := lookupTable(decoded, path)
	if err != nil {
		return nil, ferrors.WrapError(err, ferrors.CategoryParse, "dependency table is not a table").
			Fatal().
			WithContext("table", name).
			Build()
	}
	if values == nil {
		return t, nil
	}
	t.Present = true

	for _, sec := range sections {
		if sec.array || len(sec.path) <= len(path) || !slices.Equal(sec.path[:len(path)], path) {
			continue
		}
		return nil, unsupported(name, sec.path[len(path)], "declared as a sub-table")
	}

	var sec *section
	for _, candidate := range sections {
		if !candidate.array && candidate.headerStart >= 0 && slices.Equal(candidate.path, path) {
			sec = candidate
			break
		}
	}
	if sec == nil {
		return nil, ferrors.ParseError("dependency table must be declared with a [" + name + "] header").
			WithContext("table", name).
			Build()
	}
	t.section = sec
	t.byName = make(map[string]int, len(sec.entries))

	for _, kv := range sec.entries {
		depName := kv.path[0]
		if len(kv.path) > 1 {
			return nil, unsupported(name, depName, "uses dotted keys")
		}
		raw, ok := values[depName]
		if !ok {
			return nil, ferrors.InternalError("located dependency missing from decoded table").
				WithContext("table", name).
				WithContext("dependency", depName).
				Build()
		}
		spec, err := specOf(name, depName, raw)
		if err != nil {
			return nil, err
		}
		t.byName[depName] = len(t.Entries)
		t.Entries = append(t.Entries, Dependency{
			Name:    depName,
			Version: spec,
			Raw:     raw,
			Source:  text[kv.value.start:kv.value.end],
			line:    text[kv.lineStart:kv.textEnd],
			kv:      kv,
		})
	}
	if len(t.Entries) != len(values) {
		for depName := range values {
			if _, ok := t.byName[depName]; !ok {
				return nil, unsupported(name, depName, "could not be located")
			}
		}
	}
	return t, nil
}

func lookupTable(decoded map[string]any, path []string) (map[string]any, error) {
	current := decoded
	for i, seg := range path {
		v, ok := current[seg]
		if !ok {
			return nil, nil
		}
		m, ok := v.(map[string]any)
		if !ok {
			return nil, errors.New(strings.Join(path[:i+1], ".") + " has a non-table value")
		}
		current = m
	}
	return current, nil
}

func unsupported(table, dep, reason string) error {
	return ferrors.ParseError("unsupported dependency layout: "+reason).
		WithContext("table", table).
		WithContext("dependency", dep).
		Build()
}

// specOf extracts the version from a bare string or the `version` key of an inline table.
func specOf(table, name string, raw any) (versionspec.Spec, error) {
	switch v := raw.(type) {
	case string:
		return parseVersion(table, name, v)
	case map[string]any:
		version, ok := v["version"]
		if !ok {
			return versionspec.Versionless(), nil
		}
		text, ok := version.(string)
		if !ok {
			return versionspec.Spec{}, ferrors.ParseError("dependency version must be a string").
				WithContext("table", table).
				WithContext("dependency", name).
				Build()
		}
		return parseVersion(table, name, text)
	default:
		return versionspec.Spec{}, unsupported(table, name, "value must be a string or inline table")
	}
}

func parseVersion(table, name, text string) (versionspec.Spec, error) {
	spec, err := versionspec.Parse(text)
	if err != nil {
		return versionspec.Spec{}, ferrors.WrapError(err, ferrors.CategoryParse, "invalid dependency version").
			Fatal().
			WithContext("table", table).
			WithContext("dependency", name).
			Build()
	}
	return spec, nil
}
