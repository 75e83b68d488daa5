package stache

import (
	"bytes"
	"unsafe"

	"github.com/yuin/goldmark"
)

// VarMarkdown describes a string field holding markdown, rendered to HTML
// when substituted. The field counts as empty when the string is empty.
func VarMarkdown(name string, offset uintptr) VarDescriptor {
	return VarDescriptor{
		Name:    name,
		Offset:  offset,
		Append:  appendMarkdown,
		IsEmpty: strIsEmpty,
	}
}

func appendMarkdown(buf *bytes.Buffer, ptr unsafe.Pointer) {
	s := *(*string)(ptr)
	if s == "" {
		return
	}
	if err := goldmark.Convert([]byte(s), buf); err != nil {
		//conversion does not fail for any input goldmark accepts; fall
		//back to the raw text if it ever does
		buf.WriteString(s)
	}
}
