package stache

import (
	"errors"
	"fmt"
)

type parseState func(*parser, lexeme) parseState

type parser struct {
	tpl      *Template
	descs    []VarDescriptor
	symtab   *symtab
	lexer    *lexer
	flags    chunkFlags
	stack    []lexeme // open {{#}}, {{?}} and {{^}} tags, innermost last
	chunks   []chunk
	tplFlags CompileFlag
	err      error
}

func (p *parser) errorf(format string, args ...interface{}) parseState {
	if p.err == nil {
		p.err = fmt.Errorf(format, args...)
	}
	return nil
}

func (p *parser) unexpectedLexeme(lx lexeme) parseState {
	return p.errorf("unexpected lexeme: %s", lx)
}

// next pulls one more lexeme mid state, the way parser_identifier and
// parser_slash peek ahead. Returns false on lexer error or exhaustion, with
// p.err set.
func (p *parser) next() (lexeme, bool) {
	lx, ok := p.lexer.lexNext()
	if !ok {
		p.errorf("unexpected end of input")
		return lexeme{}, false
	}
	if lx.typ == lexError {
		p.errorf("%s", lx.val)
		return lexeme{}, false
	}
	return lx, true
}

func (p *parser) emitChunk(act action, flags chunkFlags, data interface{}) {
	p.chunks = append(p.chunks, chunk{action: act, flags: flags, data: data})
}

func (p *parser) pushLexeme(lx lexeme) {
	p.stack = append(p.stack, lx)
}

// stackTopMatches pops the innermost open tag if its identifier is byte
// identical to lx, reporting a descriptive error otherwise.
func (p *parser) stackTopMatches(lx lexeme) bool {
	if len(p.stack) == 0 {
		p.errorf("unexpected {{/%s}}", lx.val)
		return false
	}

	top := p.stack[len(p.stack)-1]
	if top.typ == lx.typ && string(top.val) == string(lx.val) {
		p.stack = p.stack[:len(p.stack)-1]
		return true
	}

	p.errorf("expecting %s `%s' but found `%s'", top.typ, top.val, lx.val)
	return false
}

func parserRightMeta(p *parser, lx lexeme) parseState {
	if lx.typ != lexRightMeta {
		return p.unexpectedLexeme(lx)
	}
	return parserText
}

func parserEndIter(p *parser, lx lexeme) parseState {
	if !p.stackTopMatches(lx) {
		return nil
	}

	symbol, err := p.symtabLookupLexeme(lx)
	if err != nil {
		return p.errorf("%s", err)
	}

	//loops already closed by a later END_ITER are skipped, so a nested loop
	//over the same variable closes the innermost open one
	closed := map[int]bool{}
	for i := len(p.chunks) - 1; i >= 0; i-- {
		if p.chunks[i].action == actionEndIter {
			closed[p.chunks[i].data.(int)] = true
			continue
		}
		if p.chunks[i].action != actionStartIter || closed[i] {
			continue
		}
		if p.chunks[i].data == interface{}(symbol) {
			p.emitChunk(actionEndIter, 0, i)
			p.symtabPop()
			return parserText
		}
	}

	return p.errorf("Could not find {{#%s}}", lx.val)
}

func parserEndVarNotEmpty(p *parser, lx lexeme) parseState {
	if !p.stackTopMatches(lx) {
		return nil
	}

	symbol, err := p.symtabLookupLexeme(lx)
	if err != nil {
		return p.errorf("%s", err)
	}

	for i := len(p.chunks) - 1; i >= 0; i-- {
		if p.chunks[i].action != actionIfVariableNotEmpty {
			continue
		}
		if p.chunks[i].data == interface{}(symbol) {
			p.emitChunk(actionEndIfVariableNotEmpty, 0, symbol)
			return parserRightMeta
		}
	}

	return p.errorf("Could not find {{%s?}}", lx.val)
}

func parserSlash(p *parser, lx lexeme) parseState {
	if lx.typ != lexIdentifier {
		return p.unexpectedLexeme(lx)
	}

	next, ok := p.next()
	if !ok {
		return nil
	}

	switch next.typ {
	case lexRightMeta:
		return parserEndIter(p, lx)
	case lexQuestionMark:
		return parserEndVarNotEmpty(p, lx)
	}
	return p.unexpectedLexeme(next)
}

func parserIter(p *parser, lx lexeme) parseState {
	if lx.typ != lexIdentifier {
		return p.unexpectedLexeme(lx)
	}

	negate := p.flags & flagNegate
	symbol, err := p.symtabLookupLexeme(lx)
	if err != nil {
		return p.errorf("%s", err)
	}

	if err := p.symtabPush(symbol.ListDesc); err != nil {
		return p.errorf("Couldn't find descriptor for variable `%s'", lx.val)
	}

	p.emitChunk(actionStartIter, negate, symbol)
	p.pushLexeme(lx)
	p.flags &^= flagNegate
	return parserRightMeta
}

func parserNegate(p *parser, lx lexeme) parseState {
	switch lx.typ {
	case lexHash:
		p.flags ^= flagNegate
		return parserIter
	case lexIdentifier:
		p.flags ^= flagNegate
		return parserIdentifier(p, lx)
	}
	return p.unexpectedLexeme(lx)
}

func parserIdentifier(p *parser, lx lexeme) parseState {
	next, ok := p.next()
	if !ok {
		return nil
	}

	if p.flags&flagQuote != 0 {
		if next.typ != lexCloseCurlyBrace {
			return p.errorf("Expecting closing brace")
		}
		if next, ok = p.next(); !ok {
			return nil
		}
	}

	switch next.typ {
	case lexRightMeta:
		symbol, err := p.symtabLookupLexeme(lx)
		if err != nil {
			return p.errorf("%s", err)
		}

		p.emitChunk(actionVariable, p.flags, symbol)
		p.flags &^= flagQuote
		p.tpl.minimumSize += len(lx.val) + 1
		return parserText

	case lexQuestionMark:
		symbol, err := p.symtabLookupLexeme(lx)
		if err != nil {
			return p.errorf("%s", err)
		}

		p.emitChunk(actionIfVariableNotEmpty, p.flags&flagNegate, symbol)
		p.pushLexeme(lx)
		p.flags &^= flagNegate
		return parserRightMeta
	}

	return p.unexpectedLexeme(next)
}

func parserPartial(p *parser, lx lexeme) parseState {
	if lx.typ != lexIdentifier {
		return p.unexpectedLexeme(lx)
	}

	name := string(lx.val)
	tpl, err := CompileFile(name, p.descs)
	if err != nil {
		return p.errorf("Could not compile template `%s': %s", name, err)
	}

	p.emitChunk(actionApplyTpl, 0, tpl)
	return parserRightMeta
}

func parserMeta(p *parser, lx lexeme) parseState {
	switch lx.typ {
	case lexOpenCurlyBrace:
		if p.flags&flagQuote != 0 {
			return p.unexpectedLexeme(lx)
		}
		p.flags |= flagQuote
		return parserMeta

	case lexIdentifier:
		return parserIdentifier(p, lx)

	case lexGreaterThan:
		return parserPartial

	case lexHash:
		return parserIter

	case lexHat:
		return parserNegate

	case lexSlash:
		return parserSlash
	}
	return p.unexpectedLexeme(lx)
}

func (p *parser) appendFromLexeme(lx lexeme) []byte {
	if p.tplFlags&ConstTemplate != 0 {
		return lx.val
	}
	return append([]byte(nil), lx.val...)
}

func parserText(p *parser, lx lexeme) parseState {
	switch lx.typ {
	case lexLeftMeta:
		return parserMeta

	case lexText:
		if len(lx.val) == 1 {
			p.emitChunk(actionAppendChar, 0, lx.val[0])
		} else {
			p.emitChunk(actionAppend, 0, p.appendFromLexeme(lx))
		}
		p.tpl.minimumSize += len(lx.val)
		return parserText

	case lexEOF:
		p.emitChunk(actionLast, 0, nil)
		return nil
	}
	return p.unexpectedLexeme(lx)
}

func (p *parser) init(data []byte) error {
	if err := p.symtabPush(p.descs); err != nil {
		return fmt.Errorf("no variable descriptors supplied")
	}
	p.lexer = newLexer(data)
	return nil
}

// shutdown drains the open tag stack and the symbol table, collecting every
// pending error, and runs the linker on success.
func (p *parser) shutdown() error {
	var errs []error
	if p.err != nil {
		errs = append(errs, p.err)
	}

	for i := len(p.stack) - 1; i >= 0; i-- {
		errs = append(errs, fmt.Errorf("EOF while looking for matching {{/%s}}", p.stack[i].val))
	}
	p.stack = nil

	p.symtabPop()
	if p.symtab != nil {
		errs = append(errs, errors.New("symbol table not empty when finishing parser"))
		for p.symtab != nil {
			p.symtabPop()
		}
	}

	if p.flags&flagNegate != 0 {
		errs = append(errs, errors.New("unmatched negation"))
	}
	if p.flags&flagQuote != 0 {
		errs = append(errs, errors.New("unmatched quote"))
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	return p.postProcess()
}

func (p *parser) parse(data []byte) error {
	if err := p.init(data); err != nil {
		return err
	}

	state := parserText
	for state != nil {
		lx, ok := p.lexer.lexNext()
		if !ok {
			break
		}
		if lx.typ == lexError {
			p.errorf("%s", lx.val)
			break
		}
		state = state(p, lx)
	}

	return p.shutdown()
}
