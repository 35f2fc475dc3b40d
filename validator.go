// validator.go: semantic checks over the parsed description tree.
//
// The validator runs after the parser, takes the tree as-is, and reports the
// first violation as a *ValidationError. Feature names and phenomenon kinds
// are deliberately not checked: unknown names pass through for forward
// compatibility, only their structure is enforced (by the parser).
package cdl

import (
	"fmt"

	"github.com/samber/lo"
)

// ValidateDescription verifies the domain constraints of a parsed
// description: system and point-group membership, Miller-Bravais
// consistency, catalog membership for twin laws, modifications, aggregates,
// and amorphous vocabulary. The tree is not modified.
func ValidateDescription(desc Description) error {
	switch d := desc.(type) {
	case *AmorphousDescription:
		return validateAmorphous(d)
	case *CrystallineDescription:
		return validateCrystalline(d)
	}
	return &ValidationError{Msg: "unknown description shape"}
}

func validateCrystalline(d *CrystallineDescription) error {
	if !isSystem(d.System) {
		return &ValidationError{Msg: fmt.Sprintf("Unknown crystal system '%s'", d.System)}
	}
	if !lo.Contains(pointGroups[d.System], d.PointGroup) {
		return &ValidationError{
			Msg:   fmt.Sprintf("Point group '%s' not valid for %s system", d.PointGroup, d.System),
			Field: "point_group",
			Value: d.PointGroup,
		}
	}
	for _, n := range d.Forms {
		if err := validateFormNode(n, d.System); err != nil {
			return err
		}
	}
	if err := validateTwin(d.Twin); err != nil {
		return err
	}
	for _, m := range d.Modifications {
		if !lo.Contains(modificationKinds, m.Kind) {
			return &ValidationError{
				Msg:   fmt.Sprintf("Unknown modification kind '%s'", m.Kind),
				Field: "modification",
				Value: m.Kind,
			}
		}
	}
	return nil
}

func validateAmorphous(d *AmorphousDescription) error {
	if d.Subtype != "" && !lo.Contains(amorphousSubtypes, d.Subtype) {
		return &ValidationError{
			Msg:   fmt.Sprintf("Unknown amorphous subtype '%s'", d.Subtype),
			Field: "subtype",
			Value: d.Subtype,
		}
	}
	for _, shape := range d.Shapes {
		if !lo.Contains(amorphousShapes, shape) {
			return &ValidationError{
				Msg:   fmt.Sprintf("Unknown amorphous shape '%s'", shape),
				Field: "shape",
				Value: shape,
			}
		}
	}
	return nil
}

func validateFormNode(n FormNode, system string) error {
	switch node := n.(type) {
	case *CrystalForm:
		return validateMiller(node.Miller, node.Scale, system)
	case *FormGroup:
		for _, child := range node.Forms {
			if err := validateFormNode(child, system); err != nil {
				return err
			}
		}
		return validateTwin(node.Twin)
	case *NestedGrowth:
		if err := validateFormNode(node.Base, system); err != nil {
			return err
		}
		return validateFormNode(node.Overgrowth, system)
	case *AggregateSpec:
		if err := validateFormNode(node.Form, system); err != nil {
			return err
		}
		if !lo.Contains(aggregateArrangements, node.Arrangement) {
			return &ValidationError{
				Msg:   fmt.Sprintf("Unknown aggregate arrangement '%s'", node.Arrangement),
				Field: "arrangement",
				Value: node.Arrangement,
			}
		}
		if node.Count < 0 {
			return &ValidationError{
				Msg:   fmt.Sprintf("Aggregate count must be non-negative, got %d", node.Count),
				Field: "count",
			}
		}
		if node.Orientation != "" && !lo.Contains(aggregateOrientations, node.Orientation) {
			return &ValidationError{
				Msg:   fmt.Sprintf("Unknown aggregate orientation '%s'", node.Orientation),
				Field: "orientation",
				Value: node.Orientation,
			}
		}
		return nil
	}
	return nil
}

func validateMiller(mi MillerIndex, scale float64, system string) error {
	if mi.IsBravais() {
		if system != "hexagonal" && system != "trigonal" {
			return &ValidationError{
				Msg: fmt.Sprintf("4-index Miller-Bravais notation is not valid for the %s system", system),
			}
		}
		if want := -(mi.H + mi.K); *mi.I != want {
			return &ValidationError{
				Msg: fmt.Sprintf("Invalid Miller-Bravais index: i should be %d, got %d", want, *mi.I),
			}
		}
	}
	if scale < 0 {
		return &ValidationError{
			Msg: fmt.Sprintf("Scale must be non-negative, got %g", scale),
		}
	}
	return nil
}

func validateTwin(t *TwinSpec) error {
	if t == nil {
		return nil
	}
	if t.Law != "" {
		if !lo.Contains(twinLaws, t.Law) {
			return &ValidationError{
				Msg:   fmt.Sprintf("Unknown twin law '%s'", t.Law),
				Field: "twin",
				Value: t.Law,
			}
		}
		if t.Count != 0 && t.Count < 2 {
			return &ValidationError{
				Msg:   fmt.Sprintf("Twin repeat count must be at least 2, got %d", t.Count),
				Field: "twin",
			}
		}
	}
	return nil
}
