// ast.go: the typed description tree produced by the parser.
//
// A parsed document is either a CrystallineDescription or an
// AmorphousDescription; both satisfy Description. The form tree under a
// crystalline description is a sum of four FormNode variants (CrystalForm,
// FormGroup, NestedGrowth, AggregateSpec) handled by exhaustive type
// switches. The tree is built once by the parser and never mutated
// afterwards; references and named forms are resolved at parse time, so
// consumers never see `$name`.
package cdl

// MillerIndex identifies a crystal face orientation. When I is non-nil the
// index is 4-component Miller-Bravais (hexagonal/trigonal) and must satisfy
// i = -(h+k), which the validator enforces.
type MillerIndex struct {
	H int
	K int
	L int
	I *int
}

// Components returns the index in written order: (h,k,l) or (h,k,i,l).
func (m MillerIndex) Components() []int {
	if m.I != nil {
		return []int{m.H, m.K, *m.I, m.L}
	}
	return []int{m.H, m.K, m.L}
}

// As3Index drops i, which is redundant for calculations.
func (m MillerIndex) As3Index() [3]int { return [3]int{m.H, m.K, m.L} }

// IsBravais reports whether the index carries the fourth component.
func (m MillerIndex) IsBravais() bool { return m.I != nil }

// Feature is an annotation on a form, group, or amorphous body. Values are
// int64, float64, or string (identifiers and hyphen-joined color specs).
// Feature names are open-ended; the validator does not check them.
type Feature struct {
	Name   string
	Values []interface{}
}

// Param is one name:value pair in a modification or phenomenon clause. In a
// modification the value is a float64 or a string identifier; in a phenomenon
// it keeps its lexical type (int64, float64, or string), and a bare flag
// parameter holds true.
type Param struct {
	Name  string
	Value interface{}
}

// Modification is a morphological transformation such as elongate or
// truncate. Kinds form a closed set, enforced by the validator.
type Modification struct {
	Kind   string
	Params []Param
}

// TwinSpec describes crystal twinning, either by named law (Law non-empty,
// optional Count; 0 means unspecified) or by custom axis and angle. Type is
// "contact", "penetration", or "cyclic"; custom twins default to contact.
type TwinSpec struct {
	Law   string
	Count int
	Axis  *[3]int
	Angle float64
	Type  string
}

// PhenomenonSpec is an optical phenomenon with ordered parameters. Kinds are
// open-ended for forward compatibility.
type PhenomenonSpec struct {
	Kind   string
	Params []Param
}

// DefKind tags what a Definition body was recognized as at definition time.
type DefKind int

const (
	DefForms DefKind = iota
	DefFeatures
	DefModifications
)

// Definition is a prelude `@name = expr` binding. The raw token slice is what
// substitution uses; the typed body here is for consumers and serialization.
type Definition struct {
	Name     string
	Kind     DefKind
	Forms    []FormNode
	Features []Feature
	Mods     []Modification
}

// FormNode is the sum of the four form-tree variants.
type FormNode interface {
	formNode()
	String() string
}

// CrystalForm is a single form: a Miller index with a scale, an optional
// human name when reached through a named form, per-form features, and an
// optional label.
type CrystalForm struct {
	Miller   MillerIndex
	Scale    float64
	Name     string
	Features []Feature
	Label    string
}

// FormGroup is a parenthesized sequence of forms with optional shared
// features, label, and a group-level twin. When Variant is set the Forms are
// `;`-separated alternatives rather than a combination.
type FormGroup struct {
	Forms    []FormNode
	Features []Feature
	Label    string
	Twin     *TwinSpec
	Variant  bool
}

// NestedGrowth is `base > overgrowth`. Chains are right-associative, so
// `a > b > c` nests as (a, (b, c)).
type NestedGrowth struct {
	Base       FormNode
	Overgrowth FormNode
}

// AggregateSpec is `form ~ arrangement[count]` with optional spacing (a
// literal like "2mm") and orientation.
type AggregateSpec struct {
	Form             FormNode
	Arrangement      string
	Count            int
	Spacing          string
	Orientation      string
	OrientationParam *float64
}

func (*CrystalForm) formNode()   {}
func (*FormGroup) formNode()     {}
func (*NestedGrowth) formNode()  {}
func (*AggregateSpec) formNode() {}

// Description is the top of the tree: crystalline or amorphous.
type Description interface {
	description()
	// SystemName reports the crystal system, or "amorphous".
	SystemName() string
	// FlatForms flattens the form tree into its CrystalForm leaves, merging
	// group features downward. Amorphous descriptions have none.
	FlatForms() []*CrystalForm
	// String renders the canonical, reparseable form of the description.
	String() string
}

// CrystallineDescription is a full crystal habit: system, point group, the
// `+`-separated form tree, and the trailing modifier clauses.
type CrystallineDescription struct {
	System        string
	PointGroup    string
	Forms         []FormNode
	Modifications []Modification
	Twin          *TwinSpec
	Phenomenon    *PhenomenonSpec
	DocComments   []string
	Definitions   []Definition
}

func (*CrystallineDescription) description() {}

// SystemName reports the crystalline system.
func (d *CrystallineDescription) SystemName() string { return d.System }

// FlatForms returns every CrystalForm leaf in order, with features inherited
// from enclosing groups merged in front of the form's own.
func (d *CrystallineDescription) FlatForms() []*CrystalForm {
	var out []*CrystalForm
	for _, n := range d.Forms {
		out = append(out, flattenNode(n, nil)...)
	}
	return out
}

// AmorphousDescription covers non-crystalline materials: a subtype, external
// shape descriptors, and optional features. Subtype may be empty meaning
// unspecified.
type AmorphousDescription struct {
	Subtype     string
	Shapes      []string
	Features    []Feature
	Phenomenon  *PhenomenonSpec
	DocComments []string
	Definitions []Definition
}

func (*AmorphousDescription) description() {}

// SystemName always reports "amorphous".
func (d *AmorphousDescription) SystemName() string { return "amorphous" }

// FlatForms returns nil: amorphous materials carry no crystal forms.
func (d *AmorphousDescription) FlatForms() []*CrystalForm { return nil }

// flattenNode walks a FormNode collecting CrystalForm leaves. Features from
// enclosing groups are prepended to each leaf's own; leaves without inherited
// features are shared, not copied.
func flattenNode(n FormNode, inherited []Feature) []*CrystalForm {
	switch node := n.(type) {
	case *CrystalForm:
		if len(inherited) == 0 {
			return []*CrystalForm{node}
		}
		merged := append(append([]Feature{}, inherited...), node.Features...)
		cp := *node
		cp.Features = merged
		return []*CrystalForm{&cp}
	case *NestedGrowth:
		out := flattenNode(node.Base, inherited)
		return append(out, flattenNode(node.Overgrowth, inherited)...)
	case *AggregateSpec:
		return flattenNode(node.Form, inherited)
	case *FormGroup:
		combined := inherited
		if len(node.Features) > 0 {
			combined = append(append([]Feature{}, inherited...), node.Features...)
		}
		var out []*CrystalForm
		for _, child := range node.Forms {
			out = append(out, flattenNode(child, combined)...)
		}
		return out
	}
	return nil
}
