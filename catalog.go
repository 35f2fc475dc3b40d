// catalog.go: static domain tables for the Crystal Description Language.
//
// Crystal systems, point groups, named forms, twin laws, amorphous
// vocabularies, aggregate arrangements and modification kinds. All tables are
// built once at program start and never mutated; the exported accessors hand
// out copies so tooling can enumerate legal values without touching the
// originals.
package cdl

import (
	"sort"

	"github.com/samber/lo"
)

// The seven crystalline systems. "amorphous" is a system for reporting
// purposes but is keyworded separately by the lexer.
var crystalSystems = []string{
	"cubic", "hexagonal", "trigonal", "tetragonal",
	"orthorhombic", "monoclinic", "triclinic",
}

// Hermann-Mauguin point groups per system.
var pointGroups = map[string][]string{
	"cubic":        {"23", "m3", "432", "-43m", "m3m"},
	"hexagonal":    {"6", "-6", "6/m", "622", "6mm", "-6m2", "6/mmm"},
	"trigonal":     {"3", "-3", "32", "3m", "-3m"},
	"tetragonal":   {"4", "-4", "4/m", "422", "4mm", "-42m", "4/mmm"},
	"orthorhombic": {"222", "mm2", "mmm"},
	"monoclinic":   {"2", "m", "2/m"},
	"triclinic":    {"1", "-1"},
}

// Highest-symmetry group per system, used when no bracket is given.
var defaultPointGroups = map[string]string{
	"cubic":        "m3m",
	"hexagonal":    "6/mmm",
	"trigonal":     "-3m",
	"tetragonal":   "4/mmm",
	"orthorhombic": "mmm",
	"monoclinic":   "2/m",
	"triclinic":    "-1",
}

func mi3(h, k, l int) MillerIndex { return MillerIndex{H: h, K: k, L: l} }

func mi4(h, k, i, l int) MillerIndex {
	ic := i
	return MillerIndex{H: h, K: k, L: l, I: &ic}
}

// Named forms are family-scoped: "prism" means different indices in the
// hexagonal family than in the tetragonal one. Lookup is system-aware;
// NamedForms() exports a merged view for enumeration.
var cubicForms = map[string]MillerIndex{
	"cube":            mi3(1, 0, 0),
	"octahedron":      mi3(1, 1, 1),
	"dodecahedron":    mi3(1, 1, 0),
	"trapezohedron":   mi3(2, 1, 1),
	"trisoctahedron":  mi3(2, 2, 1),
	"tetrahexahedron": mi3(2, 1, 0),
	"hexoctahedron":   mi3(3, 2, 1),
}

var hexagonalForms = map[string]MillerIndex{
	"prism":          mi4(1, 0, -1, 0),
	"prism_1":        mi4(1, 0, -1, 0),
	"prism_2":        mi4(1, 1, -2, 0),
	"basal":          mi4(0, 0, 0, 1),
	"pinacoid":       mi4(0, 0, 0, 1),
	"rhombohedron":   mi4(1, 0, -1, 1),
	"rhombohedron_r": mi4(1, 0, -1, 1),
	"rhombohedron_z": mi4(0, 1, -1, 1),
	"pyramid":        mi4(1, 0, -1, 1),
	"dipyramid":      mi4(1, 0, -1, 1),
	"scalenohedron":  mi4(2, 1, -3, 1),
}

var tetragonalForms = map[string]MillerIndex{
	"prism":     mi3(1, 0, 0),
	"prism_1":   mi3(1, 0, 0),
	"prism_2":   mi3(1, 1, 0),
	"pyramid":   mi3(1, 0, 1),
	"dipyramid": mi3(1, 0, 1),
	"bipyramid": mi3(1, 1, 1),
}

var twinLaws = []string{
	"spinel", "spinel_law", "iron_cross", "fluorite", "brazil", "dauphine",
	"japan", "carlsbad", "baveno", "manebach", "albite", "pericline",
	"gypsum_swallow", "staurolite_60", "staurolite_90", "trilling", "sixling",
}

var amorphousSubtypes = []string{
	"opalescent", "glassy", "waxy", "resinous", "cryptocrystalline",
}

var amorphousShapes = []string{
	"massive", "botryoidal", "reniform", "stalactitic", "mammillary",
	"nodular", "conchoidal",
}

var aggregateArrangements = []string{
	"parallel", "random", "radial", "epitaxial", "druse", "cluster",
}

var aggregateOrientations = []string{"aligned", "random", "planar", "spherical"}

var modificationKinds = []string{"elongate", "truncate", "taper", "flatten", "bevel"}

// isSystem reports whether name is one of the seven crystalline systems.
func isSystem(name string) bool { return lo.Contains(crystalSystems, name) }

// lookupNamedForm resolves a form name for the given system. The system's
// family table is consulted first; for systems with no named forms of their
// own every family is tried (cubic, then hexagonal, then tetragonal).
func lookupNamedForm(system, name string) (MillerIndex, bool) {
	switch system {
	case "cubic":
		mi, ok := cubicForms[name]
		return mi, ok
	case "hexagonal", "trigonal":
		mi, ok := hexagonalForms[name]
		return mi, ok
	case "tetragonal":
		mi, ok := tetragonalForms[name]
		return mi, ok
	}
	for _, tbl := range []map[string]MillerIndex{cubicForms, hexagonalForms, tetragonalForms} {
		if mi, ok := tbl[name]; ok {
			return mi, true
		}
	}
	return MillerIndex{}, false
}

// isNamedForm reports whether name resolves to a form in any family. Used to
// keep known form names from being captured as labels.
func isNamedForm(name string) bool {
	_, ok := lookupNamedForm("", name)
	return ok
}

// ----- exported, read-only views -----

// CrystalSystems returns the recognized crystalline systems plus "amorphous".
func CrystalSystems() []string {
	return append(append([]string{}, crystalSystems...), "amorphous")
}

// PointGroups returns the point-group sets keyed by system.
func PointGroups() map[string][]string {
	out := make(map[string][]string, len(pointGroups))
	for sys, groups := range pointGroups {
		out[sys] = append([]string{}, groups...)
	}
	return out
}

// DefaultPointGroup returns the highest-symmetry group for a system, or ""
// when the system is not crystalline.
func DefaultPointGroup(system string) string { return defaultPointGroups[system] }

// NamedForms returns the merged name -> Miller index table. Where a name is
// shared across families the hexagonal entry wins, matching system-aware
// lookup for the 4-index systems the shared names were coined for.
func NamedForms() map[string]MillerIndex {
	out := make(map[string]MillerIndex)
	for _, tbl := range []map[string]MillerIndex{tetragonalForms, cubicForms, hexagonalForms} {
		for name, mi := range tbl {
			if mi.I != nil {
				i := *mi.I
				mi.I = &i
			}
			out[name] = mi
		}
	}
	return out
}

// TwinLaws returns the recognized named twin laws, sorted.
func TwinLaws() []string { return sortedCopy(twinLaws) }

// AmorphousSubtypes returns the recognized amorphous subtypes, sorted.
func AmorphousSubtypes() []string { return sortedCopy(amorphousSubtypes) }

// AmorphousShapes returns the recognized amorphous shape descriptors, sorted.
func AmorphousShapes() []string { return sortedCopy(amorphousShapes) }

// AggregateArrangements returns the recognized aggregate arrangements, sorted.
func AggregateArrangements() []string { return sortedCopy(aggregateArrangements) }

// AggregateOrientations returns the recognized aggregate orientations, sorted.
func AggregateOrientations() []string { return sortedCopy(aggregateOrientations) }

// ModificationKinds returns the closed set of modification kinds, sorted.
func ModificationKinds() []string { return sortedCopy(modificationKinds) }

func sortedCopy(xs []string) []string {
	out := append([]string{}, xs...)
	sort.Strings(out)
	return out
}
