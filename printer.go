// printer.go — canonical rendering of the description tree.
//
// Every node knows how to print itself back into CDL, and the output is
// canonical: parsing the printed form yields a structurally equal tree, and
// printing is idempotent (print(parse(print(d))) == print(d)). Scales of 1.0
// and unset optional parts are omitted, matching the most compact accepted
// spelling.
package cdl

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cast"
)

// String renders the Miller index in dense notation ({111}, {10-11}) when
// every component is a single digit, and in the separated notation
// ({12 3 4}) otherwise, so the result always reparses to the same index.
func (m MillerIndex) String() string {
	comps := m.Components()
	dense := true
	for _, c := range comps {
		if c > 9 || c < -9 {
			dense = false
			break
		}
	}
	parts := make([]string, len(comps))
	for i, c := range comps {
		parts[i] = strconv.Itoa(c)
	}
	if dense {
		return "{" + strings.Join(parts, "") + "}"
	}
	return "{" + strings.Join(parts, " ") + "}"
}

// String renders `name:value, ...` or a bare name.
func (f Feature) String() string {
	if len(f.Values) == 0 {
		return f.Name
	}
	vals := make([]string, len(f.Values))
	for i, v := range f.Values {
		vals[i] = renderValue(v)
	}
	return f.Name + ":" + strings.Join(vals, ", ")
}

func (f *CrystalForm) String() string {
	var b strings.Builder
	if f.Label != "" {
		b.WriteString(f.Label)
		b.WriteByte(':')
	}
	if f.Name != "" {
		b.WriteString(f.Name)
	} else {
		b.WriteString(f.Miller.String())
	}
	if f.Scale != 1.0 {
		b.WriteByte('@')
		b.WriteString(formatFloat(f.Scale))
	}
	writeFeatures(&b, f.Features)
	return b.String()
}

func (g *FormGroup) String() string {
	sep := " + "
	if g.Variant {
		sep = "; "
	}
	parts := make([]string, len(g.Forms))
	for i, n := range g.Forms {
		parts[i] = n.String()
	}
	var b strings.Builder
	if g.Label != "" {
		b.WriteString(g.Label)
		b.WriteByte(':')
	}
	b.WriteByte('(')
	b.WriteString(strings.Join(parts, sep))
	if g.Twin != nil {
		b.WriteString(" | ")
		b.WriteString(g.Twin.String())
	}
	b.WriteByte(')')
	writeFeatures(&b, g.Features)
	return b.String()
}

func (n *NestedGrowth) String() string {
	return n.Base.String() + " > " + n.Overgrowth.String()
}

func (a *AggregateSpec) String() string {
	var b strings.Builder
	b.WriteString(a.Form.String())
	fmt.Fprintf(&b, " ~ %s[%d]", a.Arrangement, a.Count)
	if a.Spacing != "" {
		b.WriteString(" @")
		b.WriteString(a.Spacing)
	}
	if a.Orientation != "" {
		b.WriteString(" [")
		b.WriteString(a.Orientation)
		if a.OrientationParam != nil {
			b.WriteByte(':')
			b.WriteString(formatFloat(*a.OrientationParam))
		}
		b.WriteByte(']')
	}
	return b.String()
}

func (t *TwinSpec) String() string {
	if t.Law != "" {
		if t.Count != 0 {
			return fmt.Sprintf("twin(%s,%d)", t.Law, t.Count)
		}
		return fmt.Sprintf("twin(%s)", t.Law)
	}
	s := fmt.Sprintf("twin([%d,%d,%d],%s", t.Axis[0], t.Axis[1], t.Axis[2], formatFloat(t.Angle))
	if t.Type != "" && t.Type != "contact" {
		s += "," + t.Type
	}
	return s + ")"
}

func (m Modification) String() string {
	parts := make([]string, len(m.Params))
	for i, param := range m.Params {
		parts[i] = param.Name + ":" + renderValue(param.Value)
	}
	return m.Kind + "(" + strings.Join(parts, ", ") + ")"
}

func (ph *PhenomenonSpec) String() string {
	parts := []string{ph.Kind}
	for _, param := range ph.Params {
		if b, ok := param.Value.(bool); ok && b {
			parts = append(parts, param.Name)
			continue
		}
		parts = append(parts, param.Name+":"+renderValue(param.Value))
	}
	return "phenomenon[" + strings.Join(parts, ", ") + "]"
}

func (def Definition) String() string {
	var body string
	switch def.Kind {
	case DefModifications:
		parts := make([]string, len(def.Mods))
		for i, m := range def.Mods {
			parts[i] = m.String()
		}
		body = strings.Join(parts, ", ")
	case DefFeatures:
		parts := make([]string, len(def.Features))
		for i, f := range def.Features {
			parts[i] = f.String()
		}
		body = strings.Join(parts, ", ")
	default:
		parts := make([]string, len(def.Forms))
		for i, n := range def.Forms {
			parts[i] = n.String()
		}
		body = strings.Join(parts, " + ")
	}
	return "@" + def.Name + " = " + body
}

// String renders the full crystalline description canonically. Doc comments
// and definitions are replayed as prelude lines so the result reparses to a
// structurally equal tree; the form tree itself is already
// reference-free.
func (d *CrystallineDescription) String() string {
	var b strings.Builder
	writePrelude(&b, d.DocComments, d.Definitions)
	b.WriteString(d.System)
	b.WriteByte('[')
	b.WriteString(d.PointGroup)
	b.WriteString("]:")
	parts := make([]string, len(d.Forms))
	for i, n := range d.Forms {
		parts[i] = n.String()
	}
	b.WriteString(strings.Join(parts, " + "))
	if len(d.Modifications) > 0 {
		mods := make([]string, len(d.Modifications))
		for i, m := range d.Modifications {
			mods[i] = m.String()
		}
		b.WriteString(" | ")
		b.WriteString(strings.Join(mods, ", "))
	}
	if d.Twin != nil {
		b.WriteString(" | ")
		b.WriteString(d.Twin.String())
	}
	if d.Phenomenon != nil {
		b.WriteString(" | ")
		b.WriteString(d.Phenomenon.String())
	}
	return b.String()
}

// String renders the amorphous description canonically.
func (d *AmorphousDescription) String() string {
	var b strings.Builder
	writePrelude(&b, d.DocComments, d.Definitions)
	b.WriteString("amorphous")
	if d.Subtype != "" {
		b.WriteByte('[')
		b.WriteString(d.Subtype)
		b.WriteByte(']')
	}
	b.WriteString(":{")
	b.WriteString(strings.Join(d.Shapes, ", "))
	b.WriteByte('}')
	writeFeatures(&b, d.Features)
	if d.Phenomenon != nil {
		b.WriteString(" | ")
		b.WriteString(d.Phenomenon.String())
	}
	return b.String()
}

// Canonical renders a description to its canonical CDL string.
func Canonical(d Description) string { return d.String() }

func writePrelude(b *strings.Builder, docComments []string, definitions []Definition) {
	for _, doc := range docComments {
		b.WriteString("#! ")
		b.WriteString(doc)
		b.WriteByte('\n')
	}
	for _, def := range definitions {
		b.WriteString(def.String())
		b.WriteByte('\n')
	}
}

func writeFeatures(b *strings.Builder, features []Feature) {
	if len(features) == 0 {
		return
	}
	parts := make([]string, len(features))
	for i, f := range features {
		parts[i] = f.String()
	}
	b.WriteByte('[')
	b.WriteString(strings.Join(parts, ", "))
	b.WriteByte(']')
}

// renderValue prints a feature or parameter value. Floats keep their shortest
// form; everything else goes through cast.
func renderValue(v interface{}) string {
	if f, ok := v.(float64); ok {
		return formatFloat(f)
	}
	return cast.ToString(v)
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}
