// json.go — JSON serialization of the description tree.
//
// Field names follow the canonical wire vocabulary: MillerIndex becomes
// {h,k,l,i?}, CrystalForm {type:"form", miller, scale, name?, ...}, and unset
// optional parts are omitted. Form-tree variants carry a "type" tag so
// consumers can switch without reflection.
package cdl

import (
	gojson "github.com/goccy/go-json"
)

// MarshalJSON encodes the index as {h,k,l} or {h,k,l,i}.
func (m MillerIndex) MarshalJSON() ([]byte, error) {
	type wire struct {
		H int  `json:"h"`
		K int  `json:"k"`
		L int  `json:"l"`
		I *int `json:"i,omitempty"`
	}
	return gojson.Marshal(wire{H: m.H, K: m.K, L: m.L, I: m.I})
}

// MarshalJSON encodes {name, values}; values keep their lexical types.
func (f Feature) MarshalJSON() ([]byte, error) {
	type wire struct {
		Name   string        `json:"name"`
		Values []interface{} `json:"values,omitempty"`
	}
	return gojson.Marshal(wire{Name: f.Name, Values: f.Values})
}

// MarshalJSON encodes one {name, value} pair.
func (p Param) MarshalJSON() ([]byte, error) {
	type wire struct {
		Name  string      `json:"name"`
		Value interface{} `json:"value"`
	}
	return gojson.Marshal(wire{Name: p.Name, Value: p.Value})
}

// MarshalJSON encodes {kind, params?}.
func (m Modification) MarshalJSON() ([]byte, error) {
	type wire struct {
		Kind   string  `json:"kind"`
		Params []Param `json:"params,omitempty"`
	}
	return gojson.Marshal(wire{Kind: m.Kind, Params: m.Params})
}

// MarshalJSON encodes a named law or a custom axis twin; unset parts are
// omitted.
func (t TwinSpec) MarshalJSON() ([]byte, error) {
	type wire struct {
		Law   string   `json:"law,omitempty"`
		Count int      `json:"count,omitempty"`
		Axis  *[3]int  `json:"axis,omitempty"`
		Angle *float64 `json:"angle,omitempty"`
		Type  string   `json:"twin_type,omitempty"`
	}
	w := wire{Law: t.Law, Count: t.Count, Axis: t.Axis, Type: t.Type}
	if t.Axis != nil {
		angle := t.Angle
		w.Angle = &angle
	}
	return gojson.Marshal(w)
}

// MarshalJSON encodes {kind, params?}.
func (ph PhenomenonSpec) MarshalJSON() ([]byte, error) {
	type wire struct {
		Kind   string  `json:"kind"`
		Params []Param `json:"params,omitempty"`
	}
	return gojson.Marshal(wire{Kind: ph.Kind, Params: ph.Params})
}

// MarshalJSON encodes {name, forms|features|modifications}.
func (def Definition) MarshalJSON() ([]byte, error) {
	out := map[string]interface{}{"name": def.Name}
	switch def.Kind {
	case DefModifications:
		out["modifications"] = def.Mods
	case DefFeatures:
		out["features"] = def.Features
	default:
		out["forms"] = def.Forms
	}
	return gojson.Marshal(out)
}

// MarshalJSON tags the leaf as {"type":"form", ...}.
func (f *CrystalForm) MarshalJSON() ([]byte, error) {
	type wire struct {
		Type     string      `json:"type"`
		Miller   MillerIndex `json:"miller"`
		Scale    float64     `json:"scale"`
		Name     string      `json:"name,omitempty"`
		Label    string      `json:"label,omitempty"`
		Features []Feature   `json:"features,omitempty"`
	}
	return gojson.Marshal(wire{
		Type: "form", Miller: f.Miller, Scale: f.Scale,
		Name: f.Name, Label: f.Label, Features: f.Features,
	})
}

// MarshalJSON tags the node as {"type":"group", ...}.
func (g *FormGroup) MarshalJSON() ([]byte, error) {
	type wire struct {
		Type     string     `json:"type"`
		Forms    []FormNode `json:"forms"`
		Features []Feature  `json:"features,omitempty"`
		Label    string     `json:"label,omitempty"`
		Twin     *TwinSpec  `json:"twin,omitempty"`
		Variant  bool       `json:"variant,omitempty"`
	}
	return gojson.Marshal(wire{
		Type: "group", Forms: g.Forms, Features: g.Features,
		Label: g.Label, Twin: g.Twin, Variant: g.Variant,
	})
}

// MarshalJSON tags the node as {"type":"nested_growth", ...}.
func (n *NestedGrowth) MarshalJSON() ([]byte, error) {
	type wire struct {
		Type       string   `json:"type"`
		Base       FormNode `json:"base"`
		Overgrowth FormNode `json:"overgrowth"`
	}
	return gojson.Marshal(wire{Type: "nested_growth", Base: n.Base, Overgrowth: n.Overgrowth})
}

// MarshalJSON tags the node as {"type":"aggregate", ...}.
func (a *AggregateSpec) MarshalJSON() ([]byte, error) {
	type wire struct {
		Type             string   `json:"type"`
		Form             FormNode `json:"form"`
		Arrangement      string   `json:"arrangement"`
		Count            int      `json:"count"`
		Spacing          string   `json:"spacing,omitempty"`
		Orientation      string   `json:"orientation,omitempty"`
		OrientationParam *float64 `json:"orientation_param,omitempty"`
	}
	return gojson.Marshal(wire{
		Type: "aggregate", Form: a.Form, Arrangement: a.Arrangement,
		Count: a.Count, Spacing: a.Spacing, Orientation: a.Orientation,
		OrientationParam: a.OrientationParam,
	})
}

// MarshalJSON encodes the full crystalline description, including the
// flattened leaf view consumers use for quick geometry lookups.
func (d *CrystallineDescription) MarshalJSON() ([]byte, error) {
	type wire struct {
		System        string          `json:"system"`
		PointGroup    string          `json:"point_group"`
		Forms         []FormNode      `json:"forms"`
		FlatForms     []*CrystalForm  `json:"flat_forms"`
		Modifications []Modification  `json:"modifications,omitempty"`
		Twin          *TwinSpec       `json:"twin,omitempty"`
		Phenomenon    *PhenomenonSpec `json:"phenomenon,omitempty"`
		DocComments   []string        `json:"doc_comments,omitempty"`
		Definitions   []Definition    `json:"definitions,omitempty"`
	}
	return gojson.Marshal(wire{
		System: d.System, PointGroup: d.PointGroup, Forms: d.Forms,
		FlatForms: d.FlatForms(), Modifications: d.Modifications,
		Twin: d.Twin, Phenomenon: d.Phenomenon,
		DocComments: d.DocComments, Definitions: d.Definitions,
	})
}

// MarshalJSON encodes the amorphous description; system is always
// "amorphous".
func (d *AmorphousDescription) MarshalJSON() ([]byte, error) {
	type wire struct {
		System      string          `json:"system"`
		Subtype     string          `json:"subtype,omitempty"`
		Shapes      []string        `json:"shapes"`
		Features    []Feature       `json:"features,omitempty"`
		Phenomenon  *PhenomenonSpec `json:"phenomenon,omitempty"`
		DocComments []string        `json:"doc_comments,omitempty"`
		Definitions []Definition    `json:"definitions,omitempty"`
	}
	return gojson.Marshal(wire{
		System: "amorphous", Subtype: d.Subtype, Shapes: d.Shapes,
		Features: d.Features, Phenomenon: d.Phenomenon,
		DocComments: d.DocComments, Definitions: d.Definitions,
	})
}

// ToJSON renders a description as compact JSON.
func ToJSON(d Description) ([]byte, error) {
	return gojson.Marshal(d)
}

// ToJSONIndent renders a description as indented JSON for terminals.
func ToJSONIndent(d Description) ([]byte, error) {
	return gojson.MarshalIndent(d, "", "  ")
}
