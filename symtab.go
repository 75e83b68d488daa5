package stache

import (
	"errors"
	"fmt"
)

var errNoDescriptor = errors.New("no descriptor")

// A symtab is one scope of the symbol table stack, mapping identifiers to
// descriptors. Lookup walks from the innermost scope outward.
type symtab struct {
	tab  map[string]*VarDescriptor
	next *symtab
}

func (p *parser) symtabPush(descs []VarDescriptor) error {
	if descs == nil {
		return errNoDescriptor
	}

	tab := &symtab{
		tab:  make(map[string]*VarDescriptor, len(descs)),
		next: p.symtab,
	}
	for i := range descs {
		tab.tab[descs[i].Name] = &descs[i]
	}
	p.symtab = tab
	return nil
}

func (p *parser) symtabPop() {
	p.symtab = p.symtab.next
}

func (p *parser) symtabLookup(name string) *VarDescriptor {
	for tab := p.symtab; tab != nil; tab = tab.next {
		if d, ok := tab.tab[name]; ok {
			return d
		}
	}
	return nil
}

// symtabLookupLexeme resolves an identifier lexeme, rejecting identifiers
// longer than lexemeMaxLen bytes.
func (p *parser) symtabLookupLexeme(lx lexeme) (*VarDescriptor, error) {
	if len(lx.val) > lexemeMaxLen {
		return nil, fmt.Errorf("Lexeme exceeds %d characters", lexemeMaxLen)
	}
	d := p.symtabLookup(string(lx.val))
	if d == nil {
		return nil, fmt.Errorf("Unknown variable: %s", lx.val)
	}
	return d, nil
}
