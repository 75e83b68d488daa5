/*
Package stache is a logic-less template engine in the Mustache family: a
compiler that turns template text with embedded {{...}} actions into a
compact chunk program, and an interpreter that renders that program against
a caller supplied variable record.

Template syntax

	{{var}}          substitute var; strings are not escaped
	{{{var}}}        substitute var as a string, HTML escaped
	{{#var}}...{{/var}}    iterate, rendering the body once per item
	{{^#var}}...{{/var}}   negated iteration; body rendered when no items
	{{var?}}...{{/var?}}   conditional; body rendered when var is not empty
	{{^var?}}...{{/var?}}  inverted conditional
	{{> name}}       compile time partial, loaded from the file at name
	{{! comment }}   dropped; balanced inner braces are fine

Delimiters are fixed. Identifiers are made of letters, digits, '_', '.'
and '/', at most 64 bytes, and actions may not span newlines.

Partials are not checked for cycles: a template that includes itself,
directly or through other partials, recurses until compilation runs out of
stack.

Variables

Unlike reflection based template systems, stache knows nothing about the
shape of your data. The caller hands the compiler a descriptor set naming
each field a template may use, its byte offset inside the record, and the
functions that format and test it:

	type hello struct {
		name string
	}

	var h hello
	descs := []stache.VarDescriptor{
		stache.VarStr("name", unsafe.Offsetof(h.name)),
	}

	tpl, err := stache.CompileString("hello {{name}}", descs)
	if err != nil {
		//handle err
	}
	h.name = "world"
	buf := tpl.Apply(unsafe.Pointer(&h))

Compilation validates every identifier against the descriptor set, checks
that conditionals and iterations nest properly, and links the control flow
chunks so rendering is a single pass with no lookups.

Iteration

A {{#var}} loop needs two things on its descriptor: a generator that
produces an Iterator over the field, and the descriptor set for the
identifiers visible inside the body. Each Iterator.Next call makes the
current item addressable through the record, typically by copying it into a
scratch field. SliceGenerator builds the common case for slice fields.

Caching

Cache compiles template files on demand. In Development mode every Load
recompiles so the latest file contents are always used; in Production mode
compiled templates are cached per path and invalidated by a file watcher
when the file is written.
*/
package stache
