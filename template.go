package stache

import (
	"fmt"
	"os"
)

// CompileFlag alters how a template is compiled.
type CompileFlag int

const (
	// ConstTemplate lets literal text chunks alias the source buffer
	// instead of copying it. The source must outlive the template.
	ConstTemplate CompileFlag = 1 << iota
)

// A Template is a compiled program ready to be applied to variable records.
type Template struct {
	chunks      []chunk
	minimumSize int
}

// MinimumSize returns the output presizing hint: the sum of the literal
// text lengths plus a small reservation per variable.
func (t *Template) MinimumSize() int {
	return t.minimumSize
}

// CompileString compiles an in-memory template source against the supplied
// descriptor set.
func CompileString(source string, descs []VarDescriptor) (*Template, error) {
	return CompileStringFull(source, descs, 0)
}

// CompileStringFull is CompileString with compile flags. Note that the
// source is converted to bytes up front, so ConstTemplate here only shares
// that one conversion between chunks.
func CompileStringFull(source string, descs []VarDescriptor, flags CompileFlag) (*Template, error) {
	return compile([]byte(source), descs, flags)
}

// CompileFile loads and compiles the template file at path. Partials named
// by the template are resolved relative to the working directory, the same
// way the enclosing path is.
func CompileFile(path string, descs []VarDescriptor) (*Template, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return compile(data, descs, ConstTemplate)
}

func compile(data []byte, descs []VarDescriptor, flags CompileFlag) (*Template, error) {
	tpl := &Template{}
	p := &parser{
		tpl:      tpl,
		descs:    descs,
		tplFlags: flags,
	}
	if err := p.parse(data); err != nil {
		return nil, fmt.Errorf("template: %w", err)
	}
	return tpl, nil
}
