// parser_test.go
package cdl

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

// --- helpers ---------------------------------------------------------------

func mustParse(t *testing.T, src string) Description {
	t.Helper()
	desc, err := Parse(src)
	require.NoError(t, err, "parse error\nsource:\n%s", src)
	return desc
}

func mustParseCrystalline(t *testing.T, src string) *CrystallineDescription {
	t.Helper()
	desc := mustParse(t, src)
	cd, ok := desc.(*CrystallineDescription)
	require.True(t, ok, "want crystalline description\nsource:\n%s", src)
	return cd
}

func mustFailParse(t *testing.T, src, substr string) error {
	t.Helper()
	_, err := Parse(src)
	require.Error(t, err, "expected failure\nsource:\n%s", src)
	if substr != "" {
		require.Contains(t, err.Error(), substr, "source:\n%s", src)
	}
	return err
}

func asForm(t *testing.T, n FormNode) *CrystalForm {
	t.Helper()
	form, ok := n.(*CrystalForm)
	require.True(t, ok, "want *CrystalForm, got %T", n)
	return form
}

func wantMiller(t *testing.T, form *CrystalForm, comps ...int) {
	t.Helper()
	require.Equal(t, comps, form.Miller.Components())
}

// --- basics ----------------------------------------------------------------

func Test_Parse_SimpleOctahedron(t *testing.T) {
	desc := mustParseCrystalline(t, "cubic[m3m]:{111}")
	require.Equal(t, "cubic", desc.System)
	require.Equal(t, "m3m", desc.PointGroup)
	require.Len(t, desc.Forms, 1)
	form := asForm(t, desc.Forms[0])
	wantMiller(t, form, 1, 1, 1)
	require.Equal(t, 1.0, form.Scale)
	require.Empty(t, desc.Modifications)
	require.Nil(t, desc.Twin)
	require.Nil(t, desc.Phenomenon)
}

func Test_Parse_TwoScaledForms(t *testing.T) {
	desc := mustParseCrystalline(t, "cubic[m3m]:{111}@1.0 + {100}@1.3")
	require.Len(t, desc.Forms, 2)
	first, second := asForm(t, desc.Forms[0]), asForm(t, desc.Forms[1])
	wantMiller(t, first, 1, 1, 1)
	require.Equal(t, 1.0, first.Scale)
	wantMiller(t, second, 1, 0, 0)
	require.Equal(t, 1.3, second.Scale)
}

func Test_Parse_DefaultPointGroups(t *testing.T) {
	require.Equal(t, "m3m", mustParseCrystalline(t, "cubic:{111}").PointGroup)
	require.Equal(t, "6/mmm", mustParseCrystalline(t, "hexagonal:{0001}").PointGroup)
	require.Equal(t, "-3m", mustParseCrystalline(t, "trigonal:{10-11}").PointGroup)
	require.Equal(t, "-1", mustParseCrystalline(t, "triclinic:{100}").PointGroup)
}

func Test_Parse_AllSystems(t *testing.T) {
	cases := map[string]string{
		"cubic":        "cubic[m3m]:{111}",
		"hexagonal":    "hexagonal[6/mmm]:{10-10}",
		"trigonal":     "trigonal[-3m]:{10-11}",
		"tetragonal":   "tetragonal[4/mmm]:{101}",
		"orthorhombic": "orthorhombic[mmm]:{110}",
		"monoclinic":   "monoclinic[2/m]:{100}",
		"triclinic":    "triclinic[-1]:{100}",
	}
	for system, src := range cases {
		require.Equal(t, system, mustParseCrystalline(t, src).System)
	}
}

func Test_Parse_EveryPointGroup(t *testing.T) {
	for system, groups := range PointGroups() {
		for _, pg := range groups {
			src := system + "[" + pg + "]:{100}"
			require.Equal(t, pg, mustParseCrystalline(t, src).PointGroup, "source %q", src)
		}
	}
}

func Test_Parse_Bravais(t *testing.T) {
	desc := mustParseCrystalline(t, "trigonal[32]:{10-10}@1.0 + {10-11}@0.8")
	require.Equal(t, "trigonal", desc.System)
	first, second := asForm(t, desc.Forms[0]), asForm(t, desc.Forms[1])
	wantMiller(t, first, 1, 0, -1, 0)
	wantMiller(t, second, 1, 0, -1, 1)
	require.True(t, first.Miller.IsBravais())
	require.Equal(t, [3]int{1, 0, 0}, first.Miller.As3Index())
}

func Test_Parse_WhitespaceTolerated(t *testing.T) {
	desc := mustParseCrystalline(t, "  cubic  [  m3m  ]  :  { 111 }  ")
	require.Equal(t, "cubic", desc.System)
	require.Equal(t, "m3m", desc.PointGroup)
	wantMiller(t, asForm(t, desc.Forms[0]), 1, 1, 1)
}

// --- named forms and labels ------------------------------------------------

func Test_Parse_NamedForms(t *testing.T) {
	desc := mustParseCrystalline(t, "cubic[m3m]:octahedron")
	form := asForm(t, desc.Forms[0])
	require.Equal(t, "octahedron", form.Name)
	wantMiller(t, form, 1, 1, 1)

	desc = mustParseCrystalline(t, "cubic[m3m]:cube@1.3")
	form = asForm(t, desc.Forms[0])
	require.Equal(t, "cube", form.Name)
	wantMiller(t, form, 1, 0, 0)
	require.Equal(t, 1.3, form.Scale)
}

func Test_Parse_NamedFormsAreFamilyScoped(t *testing.T) {
	hex := asForm(t, mustParseCrystalline(t, "hexagonal:prism").Forms[0])
	wantMiller(t, hex, 1, 0, -1, 0)

	tet := asForm(t, mustParseCrystalline(t, "tetragonal:prism").Forms[0])
	wantMiller(t, tet, 1, 0, 0)

	mustFailParse(t, "cubic[m3m]:prism", "unknown form name")
}

func Test_Parse_Labels(t *testing.T) {
	desc := mustParseCrystalline(t, "cubic[m3m]:core:{111}@1.0 + rim:{100}@1.3")
	first, second := asForm(t, desc.Forms[0]), asForm(t, desc.Forms[1])
	require.Equal(t, "core", first.Label)
	wantMiller(t, first, 1, 1, 1)
	require.Equal(t, "rim", second.Label)
	wantMiller(t, second, 1, 0, 0)
}

func Test_Parse_LabeledGroup(t *testing.T) {
	desc := mustParseCrystalline(t, "cubic[m3m]:core:({111} + {100})[phantom:3]")
	group, ok := desc.Forms[0].(*FormGroup)
	require.True(t, ok)
	require.Equal(t, "core", group.Label)
	require.Len(t, group.Forms, 2)
	require.Equal(t, "phantom", group.Features[0].Name)
}

func Test_Parse_LabeledNamedForm(t *testing.T) {
	desc := mustParseCrystalline(t, "cubic[m3m]:zone:octahedron")
	form := asForm(t, desc.Forms[0])
	require.Equal(t, "zone", form.Label)
	require.Equal(t, "octahedron", form.Name)
}

func Test_Parse_NamedFormNotTreatedAsLabel(t *testing.T) {
	desc := mustParseCrystalline(t, "cubic[m3m]:octahedron@1.0")
	form := asForm(t, desc.Forms[0])
	require.Equal(t, "octahedron", form.Name)
	require.Empty(t, form.Label)
}

// --- groups and variants ---------------------------------------------------

func Test_Parse_Group(t *testing.T) {
	desc := mustParseCrystalline(t, "cubic[m3m]:({111} + {100})")
	require.Len(t, desc.Forms, 1)
	group, ok := desc.Forms[0].(*FormGroup)
	require.True(t, ok)
	require.Len(t, group.Forms, 2)
	require.False(t, group.Variant)
}

func Test_Parse_GroupSharedFeatures(t *testing.T) {
	desc := mustParseCrystalline(t, "cubic[m3m]:({111}@1.0 + {100}@1.3)[phantom:3]")
	group := desc.Forms[0].(*FormGroup)
	require.Equal(t, "phantom", group.Features[0].Name)

	flat := desc.FlatForms()
	require.Len(t, flat, 2)
	for _, f := range flat {
		require.Equal(t, "phantom", f.Features[0].Name)
	}
	require.Equal(t, 1.0, flat[0].Scale)
	require.Equal(t, 1.3, flat[1].Scale)
}

func Test_Parse_GroupPlusForm(t *testing.T) {
	desc := mustParseCrystalline(t, "cubic[m3m]:({111} + {100})[phantom:3] + {110}@0.8")
	require.Len(t, desc.Forms, 2)
	_, isGroup := desc.Forms[0].(*FormGroup)
	require.True(t, isGroup)
	flat := desc.FlatForms()
	require.Len(t, flat, 3)
	require.NotEmpty(t, flat[0].Features)
	require.NotEmpty(t, flat[1].Features)
	require.Empty(t, flat[2].Features)
}

func Test_Parse_FeatureMergeInFlatForms(t *testing.T) {
	desc := mustParseCrystalline(t, "cubic[m3m]:({111}[trigon:dense] + {100})[phantom:3]")
	flat := desc.FlatForms()
	require.Len(t, flat, 2)
	names := func(fs []Feature) []string {
		var out []string
		for _, f := range fs {
			out = append(out, f.Name)
		}
		return out
	}
	require.ElementsMatch(t, []string{"phantom", "trigon"}, names(flat[0].Features))
	require.Equal(t, []string{"phantom"}, names(flat[1].Features))
}

func Test_Parse_Variants(t *testing.T) {
	desc := mustParseCrystalline(t, "cubic[m3m]:({111}; {100}@1.3; {110} + {211})")
	group := desc.Forms[0].(*FormGroup)
	require.True(t, group.Variant)
	require.Len(t, group.Forms, 3)
	_, lastIsGroup := group.Forms[2].(*FormGroup)
	require.True(t, lastIsGroup, "a '+' alternative packs into an inner group")
}

func Test_ParseVariants_Expansion(t *testing.T) {
	descs, err := ParseVariants("cubic[m3m]:({111}; {100}@1.3)")
	require.NoError(t, err)
	require.Len(t, descs, 2)
	first := descs[0].(*CrystallineDescription)
	second := descs[1].(*CrystallineDescription)
	wantMiller(t, asForm(t, first.Forms[0]), 1, 1, 1)
	require.Equal(t, 1.3, asForm(t, second.Forms[0]).Scale)
}

func Test_ParseVariants_PlainInput(t *testing.T) {
	descs, err := ParseVariants("cubic[m3m]:{111}")
	require.NoError(t, err)
	require.Len(t, descs, 1)
}

// --- nested growth ---------------------------------------------------------

func Test_Parse_NestedGrowthRightAssociative(t *testing.T) {
	desc := mustParseCrystalline(t, "cubic[m3m]:{111} > {100} > {110}")
	require.Len(t, desc.Forms, 1)
	outer, ok := desc.Forms[0].(*NestedGrowth)
	require.True(t, ok)
	wantMiller(t, asForm(t, outer.Base), 1, 1, 1)
	inner, ok := outer.Overgrowth.(*NestedGrowth)
	require.True(t, ok, "a > b > c must parse as a > (b > c)")
	wantMiller(t, asForm(t, inner.Base), 1, 0, 0)
	wantMiller(t, asForm(t, inner.Overgrowth), 1, 1, 0)
}

func Test_Parse_NestedBindsTighterThanPlus(t *testing.T) {
	desc := mustParseCrystalline(t, "cubic[m3m]:{110} + {111} > {100}")
	require.Len(t, desc.Forms, 2)
	wantMiller(t, asForm(t, desc.Forms[0]), 1, 1, 0)
	nested, ok := desc.Forms[1].(*NestedGrowth)
	require.True(t, ok, "a + b > c must parse as a + (b > c)")
	wantMiller(t, asForm(t, nested.Base), 1, 1, 1)
}

func Test_Parse_NestedGroups(t *testing.T) {
	desc := mustParseCrystalline(t,
		"trigonal[32]:({10-10}@1.0 + {10-11}@0.8) > ({10-10}@0.5 + {10-11}@0.4)")
	nested, ok := desc.Forms[0].(*NestedGrowth)
	require.True(t, ok)
	base, ok := nested.Base.(*FormGroup)
	require.True(t, ok)
	over, ok := nested.Overgrowth.(*FormGroup)
	require.True(t, ok)
	require.Len(t, base.Forms, 2)
	require.Len(t, over.Forms, 2)
}

// --- aggregates ------------------------------------------------------------

func Test_Parse_TrailingAggregateWrapsFormList(t *testing.T) {
	desc := mustParseCrystalline(t, "trigonal[32]:{10-10}@1.0 + {10-11}@0.8 ~ cluster[12]")
	require.Len(t, desc.Forms, 1)
	agg, ok := desc.Forms[0].(*AggregateSpec)
	require.True(t, ok)
	require.Equal(t, "cluster", agg.Arrangement)
	require.Equal(t, 12, agg.Count)
	group, ok := agg.Form.(*FormGroup)
	require.True(t, ok, "trailing aggregate applies to the whole form list")
	require.Len(t, group.Forms, 2)
}

func Test_Parse_MidListAggregateBindsToTerm(t *testing.T) {
	desc := mustParseCrystalline(t, "cubic[m3m]:{111} ~ cluster[5] + {100}")
	require.Len(t, desc.Forms, 2)
	agg, ok := desc.Forms[0].(*AggregateSpec)
	require.True(t, ok, "a ~ cluster[5] + b must parse as (a ~ cluster[5]) + b")
	wantMiller(t, asForm(t, agg.Form), 1, 1, 1)
	wantMiller(t, asForm(t, desc.Forms[1]), 1, 0, 0)
}

func Test_Parse_AggregateSpacingAndOrientation(t *testing.T) {
	desc := mustParseCrystalline(t, "cubic[m3m]:{111} ~ druse[30] @0.5mm [random]")
	agg := desc.Forms[0].(*AggregateSpec)
	require.Equal(t, "druse", agg.Arrangement)
	require.Equal(t, 30, agg.Count)
	require.Equal(t, "0.5mm", agg.Spacing)
	require.Equal(t, "random", agg.Orientation)
	require.Nil(t, agg.OrientationParam)
}

func Test_Parse_AggregateOrientationParam(t *testing.T) {
	desc := mustParseCrystalline(t, "cubic[m3m]:{111} ~ radial[8] [planar:0.5]")
	agg := desc.Forms[0].(*AggregateSpec)
	require.Equal(t, "planar", agg.Orientation)
	require.NotNil(t, agg.OrientationParam)
	require.Equal(t, 0.5, *agg.OrientationParam)
}

func Test_Parse_AggregateOverNestedChain(t *testing.T) {
	desc := mustParseCrystalline(t, "cubic[m3m]:{111} > {100} ~ parallel[3]")
	agg, ok := desc.Forms[0].(*AggregateSpec)
	require.True(t, ok, "'>' binds tighter than '~'")
	_, isNested := agg.Form.(*NestedGrowth)
	require.True(t, isNested)
}

// --- features --------------------------------------------------------------

func Test_Parse_SingleFeature(t *testing.T) {
	desc := mustParseCrystalline(t, "cubic[m3m]:{111}@1.0[trigon:dense]")
	form := asForm(t, desc.Forms[0])
	require.Equal(t, 1.0, form.Scale)
	require.Len(t, form.Features, 1)
	require.Equal(t, "trigon", form.Features[0].Name)
	require.Equal(t, []interface{}{"dense"}, form.Features[0].Values)
}

func Test_Parse_FeatureMultipleValues(t *testing.T) {
	desc := mustParseCrystalline(t, "cubic[m3m]:{111}[phantom:3, white]")
	form := asForm(t, desc.Forms[0])
	require.Len(t, form.Features, 1)
	require.Equal(t, "phantom", form.Features[0].Name)
	require.Equal(t, []interface{}{int64(3), "white"}, form.Features[0].Values)
}

func Test_Parse_MultipleFeatures(t *testing.T) {
	desc := mustParseCrystalline(t, "cubic[m3m]:{111}[trigon:dense, phantom:3]")
	form := asForm(t, desc.Forms[0])
	require.Len(t, form.Features, 2)
	require.Equal(t, "trigon", form.Features[0].Name)
	require.Equal(t, "phantom", form.Features[1].Name)
	require.Equal(t, []interface{}{int64(3)}, form.Features[1].Values)
}

func Test_Parse_FeatureWithoutValues(t *testing.T) {
	desc := mustParseCrystalline(t, "cubic[m3m]:{111}[striated]")
	form := asForm(t, desc.Forms[0])
	require.Equal(t, "striated", form.Features[0].Name)
	require.Empty(t, form.Features[0].Values)
}

func Test_Parse_FeatureColorSpec(t *testing.T) {
	desc := mustParseCrystalline(t, "cubic[m3m]:{111}[colour:pink-white-green]")
	form := asForm(t, desc.Forms[0])
	require.Equal(t, []interface{}{"pink-white-green"}, form.Features[0].Values)
}

func Test_Parse_FeatureOnSecondFormOnly(t *testing.T) {
	desc := mustParseCrystalline(t, "cubic[m3m]:{111}@1.0 + {100}@1.3[trigon:sparse]")
	require.Empty(t, asForm(t, desc.Forms[0]).Features)
	require.Equal(t, "trigon", asForm(t, desc.Forms[1]).Features[0].Name)
}

// --- twins -----------------------------------------------------------------

func Test_Parse_NamedTwinLaws(t *testing.T) {
	for _, law := range []string{"spinel", "brazil", "japan", "carlsbad", "fluorite"} {
		desc := mustParseCrystalline(t, "cubic[m3m]:{111} | twin("+law+")")
		require.NotNil(t, desc.Twin)
		require.Equal(t, law, desc.Twin.Law)
		require.Zero(t, desc.Twin.Count)
	}
}

func Test_Parse_TwinWithRepeat(t *testing.T) {
	desc := mustParseCrystalline(t, "cubic[m3m]:{111} | twin(trilling,3)")
	require.Equal(t, "trilling", desc.Twin.Law)
	require.Equal(t, 3, desc.Twin.Count)
}

func Test_Parse_CustomTwinAxis(t *testing.T) {
	desc := mustParseCrystalline(t, "cubic[m3m]:{111} | twin([1,1,1],180)")
	require.NotNil(t, desc.Twin.Axis)
	require.Equal(t, [3]int{1, 1, 1}, *desc.Twin.Axis)
	require.Equal(t, 180.0, desc.Twin.Angle)
	require.Equal(t, "contact", desc.Twin.Type)
}

func Test_Parse_CustomTwinType(t *testing.T) {
	desc := mustParseCrystalline(t, "cubic[m3m]:{111} | twin([1,0,0],90,cyclic)")
	require.Equal(t, "cyclic", desc.Twin.Type)
	require.Equal(t, 90.0, desc.Twin.Angle)
}

func Test_Parse_GroupTwin(t *testing.T) {
	desc := mustParseCrystalline(t, "cubic[m3m]:({111} + {100})[phantom:3] | twin(spinel)")
	group := desc.Forms[0].(*FormGroup)
	require.NotNil(t, group.Twin)
	require.Equal(t, "spinel", group.Twin.Law)
	require.Nil(t, desc.Twin, "the twin belongs to the group, not the description")
}

func Test_Parse_InnerGroupTwin(t *testing.T) {
	desc := mustParseCrystalline(t, "cubic[m3m]:{110} + ({111} | twin(spinel))")
	require.Len(t, desc.Forms, 2)
	group := desc.Forms[1].(*FormGroup)
	require.NotNil(t, group.Twin)
	require.Equal(t, "spinel", group.Twin.Law)
	require.Nil(t, desc.Twin)
}

// --- modifications ---------------------------------------------------------

func Test_Parse_Elongate(t *testing.T) {
	desc := mustParseCrystalline(t, "cubic[m3m]:{111} | elongate(c:1.5)")
	require.Len(t, desc.Modifications, 1)
	mod := desc.Modifications[0]
	require.Equal(t, "elongate", mod.Kind)
	require.Equal(t, []Param{{Name: "c", Value: 1.5}}, mod.Params)
}

func Test_Parse_ModificationList(t *testing.T) {
	desc := mustParseCrystalline(t, "cubic[m3m]:{111} | elongate(c:1.5), flatten(a:0.5)")
	require.Len(t, desc.Modifications, 2)
	require.Equal(t, "elongate", desc.Modifications[0].Kind)
	require.Equal(t, "flatten", desc.Modifications[1].Kind)
	require.Equal(t, []Param{{Name: "a", Value: 0.5}}, desc.Modifications[1].Params)
}

func Test_Parse_ModificationIdentifierParam(t *testing.T) {
	desc := mustParseCrystalline(t, "cubic[m3m]:{111} | truncate(form:cube, depth:0.3)")
	mod := desc.Modifications[0]
	require.Equal(t, "truncate", mod.Kind)
	require.Equal(t, []Param{{Name: "form", Value: "cube"}, {Name: "depth", Value: 0.3}}, mod.Params)
}

func Test_Parse_ModificationsThenTwinThenPhenomenon(t *testing.T) {
	desc := mustParseCrystalline(t,
		"cubic[m3m]:{111} | elongate(c:1.5) | twin(spinel) | phenomenon[asterism:6]")
	require.Len(t, desc.Modifications, 1)
	require.NotNil(t, desc.Twin)
	require.NotNil(t, desc.Phenomenon)
	require.Equal(t, "asterism", desc.Phenomenon.Kind)
}

// --- phenomena -------------------------------------------------------------

func Test_Parse_PhenomenonNumericLead(t *testing.T) {
	desc := mustParseCrystalline(t, "trigonal[-3m]:{10-11}@1.0 | phenomenon[asterism:6]")
	require.Equal(t, "asterism", desc.Phenomenon.Kind)
	require.Equal(t, []Param{{Name: "value", Value: int64(6)}}, desc.Phenomenon.Params)
}

func Test_Parse_PhenomenonIdentifierLead(t *testing.T) {
	desc := mustParseCrystalline(t, "orthorhombic[mmm]:{110}@1.0 | phenomenon[chatoyancy:sharp]")
	require.Equal(t, "chatoyancy", desc.Phenomenon.Kind)
	require.Equal(t, []Param{{Name: "intensity", Value: "sharp"}}, desc.Phenomenon.Params)
}

func Test_Parse_PhenomenonMultipleParams(t *testing.T) {
	desc := mustParseCrystalline(t, "trigonal[-3m]:{10-11} | phenomenon[asterism:6, intensity:strong]")
	require.Equal(t, []Param{
		{Name: "value", Value: int64(6)},
		{Name: "intensity", Value: "strong"},
	}, desc.Phenomenon.Params)
}

func Test_Parse_UnknownPhenomenonKindPasses(t *testing.T) {
	desc := mustParseCrystalline(t, "cubic[m3m]:{111} | phenomenon[shimmering:faint]")
	require.Equal(t, "shimmering", desc.Phenomenon.Kind)
}

// --- amorphous -------------------------------------------------------------

func Test_Parse_Amorphous(t *testing.T) {
	desc := mustParse(t, "amorphous[opalescent]:{botryoidal}")
	ad, ok := desc.(*AmorphousDescription)
	require.True(t, ok)
	require.Equal(t, "amorphous", ad.SystemName())
	require.Equal(t, "opalescent", ad.Subtype)
	require.Equal(t, []string{"botryoidal"}, ad.Shapes)
	require.Empty(t, ad.FlatForms())
}

func Test_Parse_AmorphousNoSubtype(t *testing.T) {
	ad := mustParse(t, "amorphous:{massive, conchoidal}").(*AmorphousDescription)
	require.Empty(t, ad.Subtype)
	require.Equal(t, []string{"massive", "conchoidal"}, ad.Shapes)
}

func Test_Parse_AmorphousFeaturesAndPhenomenon(t *testing.T) {
	ad := mustParse(t,
		"amorphous[glassy]:{conchoidal}[colour:black] | phenomenon[iridescence:strong]").(*AmorphousDescription)
	require.Equal(t, "colour", ad.Features[0].Name)
	require.Equal(t, "iridescence", ad.Phenomenon.Kind)
}

// --- comments and doc comments --------------------------------------------

func Test_Parse_Comments(t *testing.T) {
	desc := mustParseCrystalline(t, "# habit note\ncubic[m3m]:{111} # octahedron")
	wantMiller(t, asForm(t, desc.Forms[0]), 1, 1, 1)
	require.Empty(t, desc.DocComments)
}

func Test_Parse_DocComments(t *testing.T) {
	desc := mustParseCrystalline(t, "#! Mineral: Diamond\n#! Habit: Octahedral\ncubic[m3m]:{111}")
	require.Equal(t, []string{"Mineral: Diamond", "Habit: Octahedral"}, desc.DocComments)
}

func Test_Parse_MixedComments(t *testing.T) {
	desc := mustParseCrystalline(t,
		"#! Mineral: Quartz\n# line\n/* block */ trigonal[-3m]:{10-10} # inline")
	require.Equal(t, "trigonal", desc.System)
	require.Equal(t, []string{"Mineral: Quartz"}, desc.DocComments)
}

func Test_Parse_CommentOnlyFails(t *testing.T) {
	mustFailParse(t, "# just a comment\n/* block */", "empty CDL string")
}

// --- definitions and references --------------------------------------------

func Test_Parse_SimpleDefinition(t *testing.T) {
	desc := mustParseCrystalline(t, "@oct = {111}@1.0\ncubic[m3m]:$oct + {100}@1.3")
	require.Len(t, desc.Forms, 2)
	wantMiller(t, asForm(t, desc.Forms[0]), 1, 1, 1)
	require.Equal(t, 1.0, asForm(t, desc.Forms[0]).Scale)
	require.Len(t, desc.Definitions, 1)
	require.Equal(t, "oct", desc.Definitions[0].Name)
	require.Equal(t, DefForms, desc.Definitions[0].Kind)
}

func Test_Parse_DefinitionSubstitutionIsStructural(t *testing.T) {
	withDef := mustParseCrystalline(t, "@x = {111}@1.0\ncubic[m3m]:$x")
	direct := mustParseCrystalline(t, "cubic[m3m]:{111}@1.0")
	require.Equal(t, direct.Forms, withDef.Forms)
}

func Test_Parse_DefinitionReferencingDefinition(t *testing.T) {
	desc := mustParseCrystalline(t,
		"@a = {111}@1.0\n@b = {100}@1.3\n@combo = $a + $b\ncubic[m3m]:$combo")
	require.Len(t, desc.FlatForms(), 2)
	require.Len(t, desc.Definitions, 3)
}

func Test_Parse_DefinitionGroupBody(t *testing.T) {
	desc := mustParseCrystalline(t, "@pair = ({111} + {100})\ncubic[m3m]:$pair")
	_, isGroup := desc.Forms[0].(*FormGroup)
	require.True(t, isGroup)
}

func Test_Parse_ReferenceWithFeatures(t *testing.T) {
	desc := mustParseCrystalline(t, "@oct = {111}@1.0\ncubic[m3m]:$oct[phantom:3]")
	form := asForm(t, desc.Forms[0])
	require.Equal(t, "phantom", form.Features[0].Name)
}

func Test_Parse_UndefinedReference(t *testing.T) {
	mustFailParse(t, "cubic[m3m]:$unknown", "undefined reference '$unknown'")
}

func Test_Parse_CyclicDefinition(t *testing.T) {
	mustFailParse(t, "@x = $x\ncubic[m3m]:$x", "expansion too deep")
}

func Test_Parse_DefinitionsWithComments(t *testing.T) {
	desc := mustParseCrystalline(t, "# Define forms\n@oct = {111}@1.0\n# Use them\ncubic[m3m]:$oct")
	require.Len(t, desc.FlatForms(), 1)
}

// --- syntax failures -------------------------------------------------------

func Test_Parse_SyntaxFailures(t *testing.T) {
	cases := []struct {
		name, src string
	}{
		{"missing_system", "[m3m]:{111}"},
		{"missing_forms", "cubic[m3m]"},
		{"empty_form_list", "cubic[m3m]:"},
		{"unterminated_miller", "cubic[m3m]:{111"},
		{"bad_component_count", "cubic[m3m]:{11}"},
		{"five_components", "cubic[m3m]:{11111}"},
		{"missing_colon", "cubic[m3m]{111}"},
		{"unclosed_group", "cubic[m3m]:({111} + {100}"},
		{"dangling_pipe", "cubic[m3m]:{111} |"},
		{"empty_input", ""},
		{"garbage", "invalid{{{syntax"},
	}
	for _, tc := range cases {
		_, err := Parse(tc.src)
		require.Error(t, err, "case %s\nsource:\n%s", tc.name, tc.src)
	}
}

func Test_Parse_SyntaxErrorCarriesPositionAndExpectation(t *testing.T) {
	_, err := Parse("cubic[m3m]{111}")
	require.Error(t, err)
	synErr, ok := err.(*SyntaxError)
	require.True(t, ok)
	require.Equal(t, 10, synErr.Pos)
	require.Equal(t, LBRACE, synErr.Got)
	require.Contains(t, synErr.Expected, COLON)
	require.Contains(t, err.Error(), "':'")
}

func Test_Parse_ErrorSnippetRendering(t *testing.T) {
	_, err := Parse("cubic[m3m]{111}")
	require.Error(t, err)
	wrapped := WrapErrorWithSource(err, "cubic[m3m]{111}")
	require.Contains(t, wrapped.Error(), "SYNTAX ERROR at 1:11")
	require.Contains(t, wrapped.Error(), "^")
	lines := strings.Split(wrapped.Error(), "\n")
	require.GreaterOrEqual(t, len(lines), 3)
}
