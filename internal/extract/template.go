package extract

import (
	"embed"
	"fmt"
	"regexp"
	"strings"

	"github.com/xtxerr/smartbid/internal/config"
	"github.com/xtxerr/smartbid/internal/errors"
	"github.com/xtxerr/smartbid/internal/eventstore"
)

//go:embed sql/*.sql
var queryFS embed.FS

var placeholderPattern = regexp.MustCompile(`\{([A-Za-z_][A-Za-z0-9_]*)\}`)

// Template is a SQL statement with {name} placeholders.
type Template struct {
	name  string
	text  string
	names []string // distinct placeholder names, first appearance order
}

// ParseTemplate parses text into a template named name.
func ParseTemplate(name, text string) *Template {
	t := &Template{name: name, text: text}

	seen := make(map[string]bool)
	for _, m := range placeholderPattern.FindAllStringSubmatch(text, -1) {
		if !seen[m[1]] {
			seen[m[1]] = true
			t.names = append(t.names, m[1])
		}
	}
	return t
}

// LoadTemplate reads an embedded template from sql/<name>.sql.
func LoadTemplate(name string) (*Template, error) {
	data, err := queryFS.ReadFile("sql/" + name + ".sql")
	if err != nil {
		return nil, fmt.Errorf("load template %s: %w", name, err)
	}
	return ParseTemplate(name, string(data)), nil
}

// Name returns the template name.
func (t *Template) Name() string {
	return t.name
}

// Placeholders returns the distinct placeholder names in order of first use.
func (t *Template) Placeholders() []string {
	return append([]string(nil), t.names...)
}

// Bindings supplies placeholder values.
//
// Identifiers are spliced into the statement text after validation.
// Values are passed to the driver as positional arguments, never as text.
type Bindings struct {
	Identifiers map[string]string
	Values      map[string]any
}

// Bind renders the template for dialect d. Each distinct value placeholder
// becomes one positional argument; repeated uses share the same position.
// A placeholder without a binding fails with ErrUnresolvedPlaceholder.
func (t *Template) Bind(d eventstore.Dialect, b Bindings) (string, []any, error) {
	positions := make(map[string]int)
	var args []any

	for _, name := range t.names {
		if ident, ok := b.Identifiers[name]; ok {
			if !config.ValidIdentifier(ident) {
				return "", nil, fmt.Errorf("%s: {%s}=%q: %w", t.name, name, ident, errors.ErrInvalidIdentifier)
			}
			continue
		}
		v, ok := b.Values[name]
		if !ok {
			return "", nil, fmt.Errorf("%s: {%s}: %w", t.name, name, errors.ErrUnresolvedPlaceholder)
		}
		args = append(args, v)
		positions[name] = len(args)
	}

	var sb strings.Builder
	last := 0
	for _, loc := range placeholderPattern.FindAllStringSubmatchIndex(t.text, -1) {
		sb.WriteString(t.text[last:loc[0]])
		name := t.text[loc[2]:loc[3]]
		if ident, ok := b.Identifiers[name]; ok {
			sb.WriteString(ident)
		} else {
			sb.WriteString(d.Placeholder(positions[name]))
		}
		last = loc[1]
	}
	sb.WriteString(t.text[last:])

	return sb.String(), args, nil
}
