// cdl.go — the two-entry-point facade over the lexer, parser, and validator.
//
// Parse runs the full pipeline: text → tokens → tree → validated tree. Every
// description Parse returns has passed validation, so Validate(text) is
// exactly "does Parse succeed, and why not".
package cdl

// Version of the CDL language front-end.
const Version = "2.0.0"

// Parse converts a CDL source string into its typed description. The result
// has passed both syntactic and semantic checks; on failure the error is a
// *LexError, *SyntaxError, or *ValidationError carrying the earliest
// offending position or reason.
func Parse(text string) (Description, error) {
	lex := NewLexer(text)
	toks, err := lex.Scan()
	if err != nil {
		return nil, err
	}
	desc, err := parseDocument(toks, text, lex.DocComments())
	if err != nil {
		return nil, err
	}
	if err := ValidateDescription(desc); err != nil {
		return nil, err
	}
	return desc, nil
}

// ParseVariants parses like Parse and expands a top-level variant group
// (`(a; b; c)`) into one description per alternative. Inputs without a
// variant expression yield a single-element slice.
func ParseVariants(text string) ([]Description, error) {
	desc, err := Parse(text)
	if err != nil {
		return nil, err
	}
	cd, ok := desc.(*CrystallineDescription)
	if !ok || len(cd.Forms) != 1 {
		return []Description{desc}, nil
	}
	group, ok := cd.Forms[0].(*FormGroup)
	if !ok || !group.Variant {
		return []Description{desc}, nil
	}
	out := make([]Description, 0, len(group.Forms))
	for _, alt := range group.Forms {
		cp := *cd
		if inner, ok := alt.(*FormGroup); ok && !inner.Variant && inner.Label == "" &&
			inner.Twin == nil && len(inner.Features) == 0 {
			cp.Forms = inner.Forms
		} else {
			cp.Forms = []FormNode{alt}
		}
		out = append(out, &cp)
	}
	return out, nil
}

// Validate reports whether text is a valid CDL string, with the diagnostic
// message when it is not.
func Validate(text string) (bool, string) {
	_, err := Parse(text)
	if err != nil {
		return false, err.Error()
	}
	return true, ""
}
