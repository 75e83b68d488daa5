package stache

import (
	"fmt"
	"io"
	"strings"
)

type action int

const (
	actionAppend action = iota
	actionAppendChar
	actionVariable
	actionVariableStr
	actionVariableStrEscape
	actionStartIter
	actionEndIter
	actionIfVariableNotEmpty
	actionEndIfVariableNotEmpty
	actionApplyTpl
	actionLast
)

var actionNames = [...]string{
	actionAppend:                "APPEND",
	actionAppendChar:            "APPEND_CHAR",
	actionVariable:              "VARIABLE",
	actionVariableStr:           "VARIABLE_STR",
	actionVariableStrEscape:     "VARIABLE_STR_ESCAPE",
	actionStartIter:             "START_ITER",
	actionEndIter:               "END_ITER",
	actionIfVariableNotEmpty:    "IF_VARIABLE_NOT_EMPTY",
	actionEndIfVariableNotEmpty: "END_IF_VARIABLE_NOT_EMPTY",
	actionApplyTpl:              "APPLY_TPL",
	actionLast:                  "LAST",
}

func (a action) String() string {
	if int(a) < len(actionNames) {
		return actionNames[a]
	}
	return "UNKNOWN"
}

type chunkFlags int

const (
	flagNegate chunkFlags = 1 << iota
	flagQuote
)

// A chunk is one instruction of the compiled template program. data is
// action dependent:
//
//	APPEND                     []byte literal (aliasing the source under
//	                           ConstTemplate, an owned copy otherwise)
//	APPEND_CHAR                byte
//	VARIABLE                   *VarDescriptor
//	VARIABLE_STR[_ESCAPE]      uintptr field offset
//	START_ITER                 *VarDescriptor, then *chunkDescriptor after
//	                           linking (chunk = index past the END_ITER)
//	END_ITER                   int index of the matching START_ITER
//	IF_VARIABLE_NOT_EMPTY      *VarDescriptor, then *chunkDescriptor after
//	                           linking (chunk = index of the END chunk)
//	END_IF_VARIABLE_NOT_EMPTY  *VarDescriptor
//	APPLY_TPL                  *Template
//	LAST                       nil
type chunk struct {
	action action
	flags  chunkFlags
	data   interface{}
}

type chunkDescriptor struct {
	desc  *VarDescriptor
	chunk int
}

// postProcess links control flow chunks by index and specializes string
// variables, walking the program once.
func (p *parser) postProcess() error {
	chunks := p.chunks
	for i := 0; i < len(chunks); i++ {
		switch c := &chunks[i]; c.action {
		case actionIfVariableNotEmpty:
			desc := c.data.(*VarDescriptor)
			end := i
			for {
				end++
				if end >= len(chunks) || chunks[end].action == actionLast {
					return fmt.Errorf("internal error: could not find the end var not empty chunk")
				}
				if chunks[end].action == actionEndIfVariableNotEmpty && chunks[end].data == c.data {
					break
				}
			}
			c.data = &chunkDescriptor{desc: desc, chunk: end}

		case actionStartIter:
			desc := c.data.(*VarDescriptor)
			end := i
			for {
				end++
				if end >= len(chunks) || chunks[end].action == actionLast {
					return fmt.Errorf("internal error: could not find the end iter chunk")
				}
				if chunks[end].action == actionEndIter && chunks[end].data.(int) == i {
					break
				}
			}
			chunks[end].flags |= c.flags
			c.data = &chunkDescriptor{desc: desc, chunk: end + 1}

		case actionVariable:
			desc := c.data.(*VarDescriptor)
			escape := c.flags&flagQuote != 0
			switch {
			case desc.str:
				if escape {
					c.action = actionVariableStrEscape
				} else {
					c.action = actionVariableStr
				}
				c.data = desc.Offset
			case escape:
				return fmt.Errorf("Variable must be string to be escaped")
			case desc.Append == nil:
				return fmt.Errorf("Invalid variable descriptor")
			}

		case actionLast:
			p.tpl.chunks = chunks
			return nil
		}
	}
	p.tpl.chunks = chunks
	return nil
}

// Dump writes a readable listing of the compiled program, one chunk per
// line, indenting conditional and iteration bodies.
func (t *Template) Dump(w io.Writer) {
	indent := 0
	for i, c := range t.chunks {
		pad := indent
		switch c.action {
		case actionEndIter, actionEndIfVariableNotEmpty:
			pad = 0
		}
		fmt.Fprintf(w, "%8d %s%s", i, strings.Repeat("  ", pad), c.action)

		switch c.action {
		case actionAppend:
			fmt.Fprintf(w, " [%s]", c.data.([]byte))
		case actionAppendChar:
			fmt.Fprintf(w, " [%c]", c.data.(byte))
		case actionVariable:
			fmt.Fprintf(w, " [%s]", c.data.(*VarDescriptor).Name)
		case actionVariableStr, actionVariableStrEscape:
			fmt.Fprintf(w, " [+%d]", c.data.(uintptr))
		case actionStartIter, actionIfVariableNotEmpty:
			fmt.Fprintf(w, " [%s]", c.data.(*chunkDescriptor).desc.Name)
			indent++
		case actionEndIter:
			fmt.Fprintf(w, " [%d]", c.data.(int))
			indent--
		case actionEndIfVariableNotEmpty:
			indent--
		}

		if c.flags&flagNegate != 0 {
			fmt.Fprint(w, " NEG")
		}
		if c.flags&flagQuote != 0 {
			fmt.Fprint(w, " QUOTE")
		}
		fmt.Fprintln(w)
	}
}
