package stache

import (
	"bytes"
	"strconv"
	"unsafe"
)

// A VarDescriptor describes one field of the caller's variable record: the
// name the template sees, the byte offset of the field inside the record,
// and the functions used to format and test it. Iterable fields also carry
// a generator and the descriptor set for identifiers inside the loop body.
type VarDescriptor struct {
	Name   string
	Offset uintptr

	// Append formats the field at ptr into buf.
	Append func(buf *bytes.Buffer, ptr unsafe.Pointer)

	// IsEmpty reports whether the field at ptr is empty, for {{var?}}
	// conditionals.
	IsEmpty func(ptr unsafe.Pointer) bool

	// Generator produces an iterator bound to the whole variable record.
	// Each Next call makes the current item addressable through the record
	// at the offsets named by ListDesc.
	Generator func(vars unsafe.Pointer) Iterator

	// ListDesc is the descriptor set for identifiers inside {{#var}} bodies.
	ListDesc []VarDescriptor

	str bool
}

// An Iterator is the resumable producer behind {{#var}} loops. Next
// advances to the next item, mutating the record so the item is visible to
// the loop body, and reports whether an item was produced. Next must keep
// returning false once exhausted. Close releases any resources held by the
// iterator; it is called even when the loop body never runs.
type Iterator interface {
	Next() bool
	Close()
}

// VarInt describes an int field, formatted in decimal.
func VarInt(name string, offset uintptr) VarDescriptor {
	return VarDescriptor{
		Name:    name,
		Offset:  offset,
		Append:  appendInt,
		IsEmpty: intIsEmpty,
	}
}

// VarStr describes a string field, substituted verbatim. Triple-braced uses
// of the variable HTML-escape it instead.
func VarStr(name string, offset uintptr) VarDescriptor {
	return VarDescriptor{
		Name:    name,
		Offset:  offset,
		Append:  appendStr,
		IsEmpty: strIsEmpty,
		str:     true,
	}
}

// VarDouble describes a float64 field, formatted like printf %f.
func VarDouble(name string, offset uintptr) VarDescriptor {
	return VarDescriptor{
		Name:    name,
		Offset:  offset,
		Append:  appendDouble,
		IsEmpty: doubleIsEmpty,
	}
}

// VarList describes an iterable field. gen builds the loop iterator and
// listDesc names the identifiers visible inside the loop body.
func VarList(name string, offset uintptr, gen func(vars unsafe.Pointer) Iterator, listDesc []VarDescriptor) VarDescriptor {
	return VarDescriptor{
		Name:      name,
		Offset:    offset,
		Generator: gen,
		ListDesc:  listDesc,
		IsEmpty:   func(unsafe.Pointer) bool { return false },
	}
}

// VarCustom describes a field with caller supplied formatting.
func VarCustom(name string, offset uintptr, app func(*bytes.Buffer, unsafe.Pointer), isEmpty func(unsafe.Pointer) bool) VarDescriptor {
	return VarDescriptor{
		Name:    name,
		Offset:  offset,
		Append:  app,
		IsEmpty: isEmpty,
	}
}

// SliceGenerator builds a generator for a slice field. listOffset locates
// the slice inside the record, itemOffset a scratch field of the element
// type; each Next copies the next element into the scratch field so the
// loop body descriptors can address it.
func SliceGenerator[T any](listOffset, itemOffset uintptr) func(vars unsafe.Pointer) Iterator {
	return func(vars unsafe.Pointer) Iterator {
		return &sliceIter[T]{
			list: *(*[]T)(unsafe.Add(vars, listOffset)),
			item: (*T)(unsafe.Add(vars, itemOffset)),
		}
	}
}

type sliceIter[T any] struct {
	list []T
	item *T
	idx  int
}

func (it *sliceIter[T]) Next() bool {
	if it.idx >= len(it.list) {
		return false
	}
	*it.item = it.list[it.idx]
	it.idx++
	return true
}

func (it *sliceIter[T]) Close() {}

func appendInt(buf *bytes.Buffer, ptr unsafe.Pointer) {
	buf.WriteString(strconv.Itoa(*(*int)(ptr)))
}

func intIsEmpty(ptr unsafe.Pointer) bool {
	return *(*int)(ptr) == 0
}

func appendDouble(buf *bytes.Buffer, ptr unsafe.Pointer) {
	buf.WriteString(strconv.FormatFloat(*(*float64)(ptr), 'f', 6, 64))
}

func doubleIsEmpty(ptr unsafe.Pointer) bool {
	//an IEEE zero of either sign compares equal to 0
	return *(*float64)(ptr) == 0
}

func appendStr(buf *bytes.Buffer, ptr unsafe.Pointer) {
	buf.WriteString(*(*string)(ptr))
}

func strIsEmpty(ptr unsafe.Pointer) bool {
	return len(*(*string)(ptr)) == 0
}

func appendStrEscaped(buf *bytes.Buffer, ptr unsafe.Pointer) {
	s := *(*string)(ptr)
	for i := 0; i < len(s); i++ {
		switch c := s[i]; c {
		case '<':
			buf.WriteString("&lt;")
		case '>':
			buf.WriteString("&gt;")
		case '&':
			buf.WriteString("&amp;")
		case '"':
			buf.WriteString("&quot;")
		case '\'':
			buf.WriteString("&#x27;")
		case '/':
			buf.WriteString("&#x2f;")
		default:
			buf.WriteByte(c)
		}
	}
}
