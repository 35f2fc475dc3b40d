// parser.go — recursive-descent parser for CDL v2.
//
// OVERVIEW
// --------
// The parser consumes the token stream produced by the lexer (lexer.go) and
// builds the typed description tree (ast.go). The grammar has seven
// precedence levels, implemented as one function per level so associativity
// stays local and explicit:
//
//	level 1  '@' scale          parsePostfix      (left)
//	level 2  '[...]' features   parsePostfix      (left, post-fix)
//	level 3  '>' nested growth  parseNested       (RIGHT: a > b > c = a > (b > c))
//	level 4  '~' aggregate      parseFormList     (left; a list-final suffix is
//	                                              the aggregate clause over the
//	                                              whole form expression)
//	level 5  '+' form addition  parseFormList     (left)
//	level 6  '|' clauses        parseCrystalline  (left)
//	level 7  ';' variants       parseGroup        (inside a group only)
//
// Bracket disambiguation is contextual: after a system keyword the lexer has
// already committed `[...]` contents to a POINTGROUP token; after a form or
// group a `[` opens features; after `twin` or `phenomenon` it opens a
// parameter list; after an aggregate clause it opens an orientation.
//
// Definitions (`@name = expr`, one per prelude line) are stored as raw token
// slices and spliced into the stream wherever `$name` appears, so reference
// resolution is purely textual and the final tree never contains references.
// A substitution counter caps runaway (cyclic) expansion.
//
// The parser emits a single structured *SyntaxError on the first mismatch —
// byte offset, token seen, tokens that would have been accepted — and never
// attempts recovery.
package cdl

import "fmt"

// maxExpansions caps `$name` substitutions per parse; a cycle between
// definitions hits the cap long before exhausting memory.
const maxExpansions = 64

type parser struct {
	toks       []Token
	i          int
	src        string
	system     string // current crystalline system, for named-form lookup
	defs       map[string][]Token
	defList    []Definition
	expansions int
}

// ─────────────────────────── token basics & helpers ─────────────────────────

func (p *parser) peek() Token {
	if p.i >= len(p.toks) {
		return p.toks[len(p.toks)-1]
	}
	return p.toks[p.i]
}

func (p *parser) peekN(n int) Token {
	idx := p.i + n
	if idx >= len(p.toks) {
		return p.toks[len(p.toks)-1]
	}
	return p.toks[idx]
}

func (p *parser) atEnd() bool { return p.peek().Type == EOF }

func (p *parser) match(tt ...TokenType) bool {
	for _, t := range tt {
		if p.peek().Type == t {
			if !p.atEnd() {
				p.i++
			}
			return true
		}
	}
	return false
}

func (p *parser) need(tt TokenType, msg string) (Token, error) {
	if p.peek().Type == tt {
		tok := p.peek()
		if !p.atEnd() {
			p.i++
		}
		return tok, nil
	}
	g := p.peek()
	return Token{}, &SyntaxError{Pos: g.Pos, Msg: msg, Got: g.Type, Expected: []TokenType{tt}}
}

func (p *parser) fail(msg string, expected ...TokenType) error {
	g := p.peek()
	return &SyntaxError{Pos: g.Pos, Msg: msg, Got: g.Type, Expected: expected}
}

func identIs(tok Token, word string) bool {
	return tok.Type == IDENT && toLower(tok.Lexeme) == word
}

// ─────────────────────────── document ───────────────────────────

// parseDocument parses prelude definitions then one material description.
func parseDocument(toks []Token, src string, docComments []string) (Description, error) {
	p := &parser{toks: toks, src: src, defs: map[string][]Token{}}
	if err := p.parseDefinitions(); err != nil {
		return nil, err
	}

	var desc Description
	var err error
	switch p.peek().Type {
	case AMORPHOUS:
		desc, err = p.parseAmorphous()
	case SYSTEM:
		desc, err = p.parseCrystalline()
	case IDENT:
		return nil, &ValidationError{Msg: fmt.Sprintf("Unknown crystal system '%s'", p.peek().Lexeme)}
	case EOF:
		return nil, p.fail("empty CDL string", SYSTEM, AMORPHOUS)
	default:
		return nil, p.fail("expected crystal system or 'amorphous'", SYSTEM, AMORPHOUS)
	}
	if err != nil {
		return nil, err
	}
	if !p.atEnd() {
		return nil, p.fail("unexpected trailing input", EOF)
	}

	switch d := desc.(type) {
	case *CrystallineDescription:
		d.DocComments = docComments
		d.Definitions = p.defList
	case *AmorphousDescription:
		d.DocComments = docComments
		d.Definitions = p.defList
	}
	return desc, nil
}

// parseDefinitions consumes prelude `@name = expr` lines. The body is the raw
// token run to the end of the definition's source line; it is both stored for
// `$name` substitution and re-parsed into a typed Definition.
func (p *parser) parseDefinitions() error {
	for p.peek().Type == AT && p.peekN(1).Type == IDENT && p.peekN(2).Type == EQUALS {
		p.i++ // '@'
		nameTok := p.peek()
		p.i++ // name
		eqTok := p.peek()
		p.i++ // '='

		var body []Token
		for !p.atEnd() && p.peek().Line == eqTok.Line {
			body = append(body, p.peek())
			p.i++
		}
		if len(body) == 0 {
			return &SyntaxError{Pos: eqTok.Pos, Msg: fmt.Sprintf("empty definition body for '@%s'", nameTok.Lexeme)}
		}
		name := nameTok.Lexeme
		p.defs[name] = body

		def, err := p.parseDefinitionBody(name, body)
		if err != nil {
			return err
		}
		p.defList = append(p.defList, def)
	}
	return nil
}

// parseDefinitionBody re-parses a definition's token slice into its typed
// shape: a form list, a feature list, or a modification list, recognized by
// the leading tokens.
func (p *parser) parseDefinitionBody(name string, body []Token) (Definition, error) {
	endPos := body[len(body)-1].Pos + len(body[len(body)-1].Lexeme)
	sub := &parser{
		toks: append(append([]Token{}, body...), Token{Type: EOF, Pos: endPos}),
		src:  p.src,
		defs: p.defs,
	}
	def := Definition{Name: name, Kind: sub.definitionKind()}
	var err error
	switch def.Kind {
	case DefModifications:
		def.Mods, err = sub.parseModificationList()
	case DefFeatures:
		def.Features, err = sub.parseBareFeatures()
	default:
		def.Forms, err = sub.parseFormList()
	}
	if err != nil {
		return Definition{}, err
	}
	if !sub.atEnd() {
		return Definition{}, sub.fail(fmt.Sprintf("unexpected input in definition '@%s'", name), EOF)
	}
	return def, nil
}

// definitionKind classifies a definition body by its leading token shape.
func (p *parser) definitionKind() DefKind {
	first := p.peek()
	if first.Type != IDENT {
		return DefForms
	}
	second := p.peekN(1)
	switch second.Type {
	case LPAREN:
		return DefModifications
	case COLON:
		third := p.peekN(2)
		if third.Type == LBRACE || third.Type == LPAREN {
			return DefForms // labeled form or group
		}
		if third.Type == IDENT && isNamedForm(toLower(third.Lexeme)) {
			return DefForms
		}
		return DefFeatures
	default:
		if isNamedForm(toLower(first.Lexeme)) {
			return DefForms
		}
		return DefFeatures
	}
}

// ─────────────────────────── crystalline ───────────────────────────

func (p *parser) parseCrystalline() (*CrystallineDescription, error) {
	sysTok := p.peek()
	p.i++
	system := sysTok.Literal.(string)
	p.system = system

	pointGroup := DefaultPointGroup(system)
	if p.match(LBRACKET) {
		pgTok, err := p.need(POINTGROUP, "expected point-group symbol")
		if err != nil {
			return nil, err
		}
		pointGroup = pgTok.Lexeme
		if _, err := p.need(RBRACKET, "expected ']' after point group"); err != nil {
			return nil, err
		}
	}

	if _, err := p.need(COLON, "expected ':' after system"); err != nil {
		return nil, err
	}
	if p.atEnd() {
		return nil, p.fail("empty form list", LBRACE, IDENT, LPAREN, DOLLAR)
	}

	forms, err := p.parseFormList()
	if err != nil {
		return nil, err
	}

	desc := &CrystallineDescription{System: system, PointGroup: pointGroup, Forms: forms}
	for p.match(PIPE) {
		switch {
		case identIs(p.peek(), "twin"):
			if desc.Twin != nil {
				return nil, p.fail("duplicate twin clause")
			}
			desc.Twin, err = p.parseTwin()
		case identIs(p.peek(), "phenomenon"):
			if desc.Phenomenon != nil {
				return nil, p.fail("duplicate phenomenon clause")
			}
			desc.Phenomenon, err = p.parsePhenomenon()
		case p.peek().Type == IDENT:
			var mods []Modification
			mods, err = p.parseModificationList()
			desc.Modifications = append(desc.Modifications, mods...)
		default:
			return nil, p.fail("expected modification, twin, or phenomenon after '|'", IDENT)
		}
		if err != nil {
			return nil, err
		}
	}
	return desc, nil
}

// ─────────────────────────── amorphous ───────────────────────────

func (p *parser) parseAmorphous() (*AmorphousDescription, error) {
	p.i++ // 'amorphous'

	desc := &AmorphousDescription{}
	if p.match(LBRACKET) {
		sTok, err := p.need(IDENT, "expected amorphous subtype")
		if err != nil {
			return nil, err
		}
		desc.Subtype = toLower(sTok.Lexeme)
		if _, err := p.need(RBRACKET, "expected ']' after subtype"); err != nil {
			return nil, err
		}
	}
	if _, err := p.need(COLON, "expected ':' after 'amorphous'"); err != nil {
		return nil, err
	}
	if _, err := p.need(LBRACE, "expected '{' before shape list"); err != nil {
		return nil, err
	}
	for {
		sTok, err := p.need(IDENT, "expected shape name")
		if err != nil {
			return nil, err
		}
		desc.Shapes = append(desc.Shapes, toLower(sTok.Lexeme))
		if !p.match(COMMA) {
			break
		}
	}
	if _, err := p.need(RBRACE, "expected '}' after shape list"); err != nil {
		return nil, err
	}
	if p.peek().Type == LBRACKET {
		features, err := p.parseFeatures()
		if err != nil {
			return nil, err
		}
		desc.Features = features
	}
	if p.match(PIPE) {
		if !identIs(p.peek(), "phenomenon") {
			return nil, p.fail("expected phenomenon clause after '|'", IDENT)
		}
		phen, err := p.parsePhenomenon()
		if err != nil {
			return nil, err
		}
		desc.Phenomenon = phen
	}
	return desc, nil
}

// ─────────────────────────── form expressions ───────────────────────────

// parseFormList parses the '+'-joined sequence of form terms (level 5) with
// the aggregate level (4) folded in. An `~` suffix followed by more `+` terms
// binds to the term it trails (`a ~ cluster[5] + b` is `(a~cluster[5]) + b`);
// an `~` suffix that ends the list is the form expression's aggregate clause
// and wraps everything parsed so far (`a + b ~ cluster[12]` aggregates the
// two-form group).
func (p *parser) parseFormList() ([]FormNode, error) {
	var forms []FormNode
	for {
		n, err := p.parseNested()
		if err != nil {
			return nil, err
		}
		forms = append(forms, n)

		if p.peek().Type == TILDE {
			var specs []*AggregateSpec
			for p.peek().Type == TILDE {
				spec, err := p.parseAggregateSuffix()
				if err != nil {
					return nil, err
				}
				specs = append(specs, spec)
			}
			if p.peek().Type == PLUS {
				forms[len(forms)-1] = applyAggregates(forms[len(forms)-1], specs)
			} else {
				forms = []FormNode{applyAggregates(wrapAlternative(forms), specs)}
			}
		}

		if !p.match(PLUS) {
			return forms, nil
		}
	}
}

// applyAggregates nests a chain of aggregate suffixes around a form,
// left-associatively.
func applyAggregates(n FormNode, specs []*AggregateSpec) FormNode {
	for _, spec := range specs {
		spec.Form = n
		n = spec
	}
	return n
}

// parseAggregateSuffix parses one `~ arrangement[count] [@spacing]
// [[orientation]]` suffix, leaving Form for the caller to fill.
func (p *parser) parseAggregateSuffix() (*AggregateSpec, error) {
	p.i++ // '~'
	arrTok, err := p.need(IDENT, "expected arrangement name after '~'")
	if err != nil {
		return nil, err
	}
	if _, err := p.need(LBRACKET, "expected '[' after arrangement"); err != nil {
		return nil, err
	}
	cntTok, err := p.need(INTEGER, "expected aggregate count")
	if err != nil {
		return nil, err
	}
	if _, err := p.need(RBRACKET, "expected ']' after count"); err != nil {
		return nil, err
	}

	agg := &AggregateSpec{
		Arrangement: toLower(arrTok.Lexeme),
		Count:       int(cntTok.Literal.(int64)),
	}

	// optional spacing: @2mm, @0.5
	if p.peek().Type == AT && (p.peekN(1).Type == INTEGER || p.peekN(1).Type == FLOAT) {
		p.i++
		numTok := p.peek()
		p.i++
		agg.Spacing = numTok.Lexeme
		if p.peek().Type == IDENT {
			agg.Spacing += p.peek().Lexeme
			p.i++
		}
	}

	// optional orientation: [aligned] or [aligned:0.5]
	if p.match(LBRACKET) {
		oTok, err := p.need(IDENT, "expected orientation name")
		if err != nil {
			return nil, err
		}
		agg.Orientation = toLower(oTok.Lexeme)
		if p.match(COLON) {
			v, err := p.parseNumber()
			if err != nil {
				return nil, err
			}
			agg.OrientationParam = &v
		}
		if _, err := p.need(RBRACKET, "expected ']' after orientation"); err != nil {
			return nil, err
		}
	}
	return agg, nil
}

// parseNested parses the right-associative `>` chain (level 3).
func (p *parser) parseNested() (FormNode, error) {
	n, err := p.parsePostfix()
	if err != nil {
		return nil, err
	}
	if p.match(GT) {
		over, err := p.parseNested()
		if err != nil {
			return nil, err
		}
		return &NestedGrowth{Base: n, Overgrowth: over}, nil
	}
	return n, nil
}

// parsePostfix attaches `@scale` and `[features]` to a plain form (levels 1
// and 2). Groups carry their own features, consumed by parseGroup.
func (p *parser) parsePostfix() (FormNode, error) {
	n, err := p.parsePrimary()
	if err != nil {
		return nil, err
	}
	form, ok := n.(*CrystalForm)
	if !ok {
		return n, nil
	}
	if p.match(AT) {
		v, err := p.parseNumber()
		if err != nil {
			return nil, err
		}
		form.Scale = v
	}
	if p.peek().Type == LBRACKET {
		features, err := p.parseFeatures()
		if err != nil {
			return nil, err
		}
		form.Features = features
	}
	return form, nil
}

// parsePrimary parses a Miller index, named form, reference, group, or
// labeled form.
func (p *parser) parsePrimary() (FormNode, error) {
	switch p.peek().Type {
	case DOLLAR:
		if err := p.expandReference(); err != nil {
			return nil, err
		}
		return p.parsePrimary()
	case LBRACE:
		return p.parseMillerForm()
	case LPAREN:
		return p.parseGroup("")
	case IDENT:
		return p.parseNamedOrLabeled()
	}
	return nil, p.fail("expected form name, Miller index, group, or reference",
		LBRACE, IDENT, LPAREN, DOLLAR)
}

// expandReference splices a definition's token slice over the `$name` tokens.
func (p *parser) expandReference() error {
	dollar := p.peek()
	p.i++
	nameTok, err := p.need(IDENT, "expected definition name after '$'")
	if err != nil {
		return err
	}
	body, ok := p.defs[nameTok.Lexeme]
	if !ok {
		return &SyntaxError{Pos: dollar.Pos, Msg: fmt.Sprintf("undefined reference '$%s'", nameTok.Lexeme)}
	}
	p.expansions++
	if p.expansions > maxExpansions {
		return &SyntaxError{Pos: dollar.Pos, Msg: fmt.Sprintf("reference expansion too deep at '$%s' (cyclic definition?)", nameTok.Lexeme)}
	}
	spliced := make([]Token, 0, len(p.toks)+len(body))
	spliced = append(spliced, p.toks[:p.i]...)
	spliced = append(spliced, body...)
	spliced = append(spliced, p.toks[p.i:]...)
	p.toks = spliced
	return nil
}

// parseNamedOrLabeled handles an identifier at primary position: either a
// label (`core:{111}`, `rim:(...)`, `zone:octahedron`) or a named form.
// A known form name is never captured as a label.
func (p *parser) parseNamedOrLabeled() (FormNode, error) {
	identTok := p.peek()
	lower := toLower(identTok.Lexeme)

	if p.peekN(1).Type == COLON && !isNamedForm(lower) {
		after := p.peekN(2)
		isLabel := false
		switch {
		case after.Type == LPAREN:
			isLabel = true
		case after.Type == LBRACE:
			isLabel = true
		case after.Type == IDENT && isNamedForm(toLower(after.Lexeme)):
			isLabel = true
		}
		if isLabel {
			p.i += 2 // identifier, ':'
			if p.peek().Type == LPAREN {
				return p.parseGroup(identTok.Lexeme)
			}
			n, err := p.parsePrimary()
			if err != nil {
				return nil, err
			}
			if form, ok := n.(*CrystalForm); ok {
				form.Label = identTok.Lexeme
			}
			return n, nil
		}
	}

	p.i++
	mi, ok := lookupNamedForm(p.system, lower)
	if !ok {
		return nil, &SyntaxError{Pos: identTok.Pos, Msg: fmt.Sprintf("unknown form name '%s'", identTok.Lexeme), Got: IDENT}
	}
	return &CrystalForm{Miller: mi, Scale: 1, Name: lower}, nil
}

// parseMillerForm parses `{...}` into a 3- or 4-index CrystalForm. The lexer
// has already split the payload into one MILLER token per component.
func (p *parser) parseMillerForm() (FormNode, error) {
	lb := p.peek()
	p.i++
	var comps []int
	for p.peek().Type == MILLER {
		comps = append(comps, int(p.peek().Literal.(int64)))
		p.i++
	}
	if _, err := p.need(RBRACE, "expected '}' after Miller index"); err != nil {
		return nil, err
	}
	var mi MillerIndex
	switch len(comps) {
	case 3:
		mi = MillerIndex{H: comps[0], K: comps[1], L: comps[2]}
	case 4:
		i := comps[2]
		mi = MillerIndex{H: comps[0], K: comps[1], L: comps[3], I: &i}
	default:
		return nil, &SyntaxError{Pos: lb.Pos,
			Msg: fmt.Sprintf("Miller index must have 3 or 4 components, got %d", len(comps))}
	}
	return &CrystalForm{Miller: mi, Scale: 1}, nil
}

// parseGroup parses `( formList (';' formList)* ) [features] [| twin(...)]`.
// A twin directly before or after the closing paren binds to the group, not
// the description.
func (p *parser) parseGroup(label string) (FormNode, error) {
	p.i++ // '('
	forms, err := p.parseFormList()
	if err != nil {
		return nil, err
	}

	variant := false
	if p.peek().Type == SEMI {
		variant = true
		alts := []FormNode{wrapAlternative(forms)}
		for p.match(SEMI) {
			alt, err := p.parseFormList()
			if err != nil {
				return nil, err
			}
			alts = append(alts, wrapAlternative(alt))
		}
		forms = alts
	}

	group := &FormGroup{Forms: forms, Label: label, Variant: variant}

	if p.peek().Type == PIPE && identIs(p.peekN(1), "twin") {
		p.i++
		group.Twin, err = p.parseTwin()
		if err != nil {
			return nil, err
		}
	}
	if _, err := p.need(RPAREN, "expected ')' to close group"); err != nil {
		return nil, err
	}
	if p.peek().Type == LBRACKET {
		group.Features, err = p.parseFeatures()
		if err != nil {
			return nil, err
		}
	}
	if group.Twin == nil && p.peek().Type == PIPE && identIs(p.peekN(1), "twin") {
		p.i++
		group.Twin, err = p.parseTwin()
		if err != nil {
			return nil, err
		}
	}
	return group, nil
}

// wrapAlternative packs one `;` alternative: a single node stays itself, a
// '+' list becomes an inner group.
func wrapAlternative(forms []FormNode) FormNode {
	if len(forms) == 1 {
		return forms[0]
	}
	return &FormGroup{Forms: forms}
}

// ─────────────────────────── features ───────────────────────────

// parseFeatures parses a bracketed feature list.
func (p *parser) parseFeatures() ([]Feature, error) {
	if _, err := p.need(LBRACKET, "expected '['"); err != nil {
		return nil, err
	}
	var features []Feature
	for p.peek().Type != RBRACKET && !p.atEnd() {
		f, err := p.parseOneFeature()
		if err != nil {
			return nil, err
		}
		features = append(features, f)
		if p.peek().Type == COMMA {
			p.i++
		}
	}
	if _, err := p.need(RBRACKET, "expected ']' after features"); err != nil {
		return nil, err
	}
	return features, nil
}

// parseBareFeatures parses an unbracketed feature list (definition bodies).
func (p *parser) parseBareFeatures() ([]Feature, error) {
	var features []Feature
	for {
		f, err := p.parseOneFeature()
		if err != nil {
			return nil, err
		}
		features = append(features, f)
		if !p.match(COMMA) {
			return features, nil
		}
	}
}

// parseOneFeature parses `name` or `name: value (, value)*`. A comma followed
// by `identifier :` starts the next feature and is left unconsumed.
func (p *parser) parseOneFeature() (Feature, error) {
	nameTok, err := p.need(IDENT, "expected feature name")
	if err != nil {
		return Feature{}, err
	}
	f := Feature{Name: toLower(nameTok.Lexeme)}
	if !p.match(COLON) {
		return f, nil
	}
	v, err := p.parseFeatureValue()
	if err != nil {
		return Feature{}, err
	}
	f.Values = append(f.Values, v)
	for p.peek().Type == COMMA {
		if p.peekN(1).Type == IDENT && p.peekN(2).Type == COLON {
			break
		}
		p.i++
		v, err := p.parseFeatureValue()
		if err != nil {
			return Feature{}, err
		}
		f.Values = append(f.Values, v)
	}
	return f, nil
}

// parseFeatureValue parses a number, identifier, or hyphen-joined color spec.
func (p *parser) parseFeatureValue() (interface{}, error) {
	tok := p.peek()
	switch tok.Type {
	case INTEGER:
		p.i++
		return tok.Literal.(int64), nil
	case FLOAT:
		p.i++
		return tok.Literal.(float64), nil
	case IDENT:
		p.i++
		return toLower(tok.Lexeme), nil
	}
	return nil, p.fail("expected feature value", INTEGER, FLOAT, IDENT)
}

// ─────────────────────────── clauses ───────────────────────────

// parseTwin parses `twin(law [, repeat])` or `twin([h,k,l], angle [, type])`.
// Law membership is the validator's concern; custom twins default to contact.
func (p *parser) parseTwin() (*TwinSpec, error) {
	p.i++ // 'twin'
	if _, err := p.need(LPAREN, "expected '(' after 'twin'"); err != nil {
		return nil, err
	}

	spec := &TwinSpec{}
	switch p.peek().Type {
	case IDENT:
		spec.Law = toLower(p.peek().Lexeme)
		p.i++
		if p.match(COMMA) {
			cntTok, err := p.need(INTEGER, "expected twin repeat count")
			if err != nil {
				return nil, err
			}
			spec.Count = int(cntTok.Literal.(int64))
		}
	case LBRACKET:
		p.i++
		var axis [3]int
		for c := 0; c < 3; c++ {
			if c > 0 {
				if _, err := p.need(COMMA, "expected ',' in twin axis"); err != nil {
					return nil, err
				}
			}
			tok, err := p.need(INTEGER, "expected twin axis component")
			if err != nil {
				return nil, err
			}
			axis[c] = int(tok.Literal.(int64))
		}
		if _, err := p.need(RBRACKET, "expected ']' after twin axis"); err != nil {
			return nil, err
		}
		if _, err := p.need(COMMA, "expected ',' before twin angle"); err != nil {
			return nil, err
		}
		angle, err := p.parseNumber()
		if err != nil {
			return nil, err
		}
		spec.Axis = &axis
		spec.Angle = angle
		spec.Type = "contact"
		if p.match(COMMA) {
			tTok, err := p.need(IDENT, "expected twin type")
			if err != nil {
				return nil, err
			}
			spec.Type = toLower(tTok.Lexeme)
		}
	default:
		return nil, p.fail("expected twin law or axis", IDENT, LBRACKET)
	}

	if _, err := p.need(RPAREN, "expected ')' after twin"); err != nil {
		return nil, err
	}
	return spec, nil
}

// parseModificationList parses the comma-separated modifications of one
// clause.
func (p *parser) parseModificationList() ([]Modification, error) {
	m, err := p.parseModification()
	if err != nil {
		return nil, err
	}
	mods := []Modification{m}
	for p.peek().Type == COMMA && p.peekN(1).Type == IDENT && p.peekN(2).Type == LPAREN {
		p.i++
		m, err = p.parseModification()
		if err != nil {
			return nil, err
		}
		mods = append(mods, m)
	}
	return mods, nil
}

// parseModification parses `kind(name:value, ...)`. Kind membership in the
// closed set is the validator's concern.
func (p *parser) parseModification() (Modification, error) {
	kindTok, err := p.need(IDENT, "expected modification name")
	if err != nil {
		return Modification{}, err
	}
	mod := Modification{Kind: toLower(kindTok.Lexeme)}
	if _, err := p.need(LPAREN, "expected '(' after modification name"); err != nil {
		return Modification{}, err
	}
	for p.peek().Type != RPAREN {
		param, err := p.parseParam()
		if err != nil {
			return Modification{}, err
		}
		mod.Params = append(mod.Params, param)
		if !p.match(COMMA) {
			break
		}
	}
	if _, err := p.need(RPAREN, "expected ')' after modification parameters"); err != nil {
		return Modification{}, err
	}
	return mod, nil
}

// parseParam parses one `name:value` pair; numeric values become float64.
func (p *parser) parseParam() (Param, error) {
	nameTok, err := p.need(IDENT, "expected parameter name")
	if err != nil {
		return Param{}, err
	}
	if _, err := p.need(COLON, "expected ':' after parameter name"); err != nil {
		return Param{}, err
	}
	tok := p.peek()
	switch tok.Type {
	case INTEGER:
		p.i++
		return Param{Name: toLower(nameTok.Lexeme), Value: float64(tok.Literal.(int64))}, nil
	case FLOAT:
		p.i++
		return Param{Name: toLower(nameTok.Lexeme), Value: tok.Literal.(float64)}, nil
	case IDENT:
		p.i++
		return Param{Name: toLower(nameTok.Lexeme), Value: toLower(tok.Lexeme)}, nil
	}
	return Param{}, p.fail("expected parameter value", INTEGER, FLOAT, IDENT)
}

// parsePhenomenon parses `phenomenon[kind(:lead)? (, param)*]`. The leading
// value lands under "value" when numeric and "intensity" when an identifier.
func (p *parser) parsePhenomenon() (*PhenomenonSpec, error) {
	p.i++ // 'phenomenon'
	if _, err := p.need(LBRACKET, "expected '[' after 'phenomenon'"); err != nil {
		return nil, err
	}
	kindTok, err := p.need(IDENT, "expected phenomenon kind")
	if err != nil {
		return nil, err
	}
	spec := &PhenomenonSpec{Kind: toLower(kindTok.Lexeme)}

	if p.match(COLON) {
		v, err := p.parseFeatureValue()
		if err != nil {
			return nil, err
		}
		if s, ok := v.(string); ok {
			spec.Params = append(spec.Params, Param{Name: "intensity", Value: s})
		} else {
			spec.Params = append(spec.Params, Param{Name: "value", Value: v})
		}
	}
	for p.match(COMMA) {
		switch p.peek().Type {
		case IDENT:
			key := toLower(p.peek().Lexeme)
			p.i++
			if p.match(COLON) {
				v, err := p.parseFeatureValue()
				if err != nil {
					return nil, err
				}
				spec.Params = append(spec.Params, Param{Name: key, Value: v})
			} else {
				spec.Params = append(spec.Params, Param{Name: key, Value: true})
			}
		case INTEGER, FLOAT:
			v, _ := p.parseFeatureValue()
			spec.Params = append(spec.Params, Param{Name: "value", Value: v})
		default:
			return nil, p.fail("expected phenomenon parameter", IDENT, INTEGER, FLOAT)
		}
	}
	if _, err := p.need(RBRACKET, "expected ']' after phenomenon"); err != nil {
		return nil, err
	}
	return spec, nil
}

// parseNumber accepts an integer or float token as float64.
func (p *parser) parseNumber() (float64, error) {
	tok := p.peek()
	switch tok.Type {
	case INTEGER:
		p.i++
		return float64(tok.Literal.(int64)), nil
	case FLOAT:
		p.i++
		return tok.Literal.(float64), nil
	}
	return 0, p.fail("expected number", INTEGER, FLOAT)
}
