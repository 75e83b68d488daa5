package stache

import (
	"bytes"
	"unsafe"
)

// Apply renders the template against the variable record at vars into a
// fresh buffer.
func (t *Template) Apply(vars unsafe.Pointer) *bytes.Buffer {
	buf := new(bytes.Buffer)
	t.ApplyWithBuffer(buf, vars)
	return buf
}

// ApplyWithBuffer renders into a caller owned buffer, resetting it and
// growing it to the template's minimum size first.
func (t *Template) ApplyWithBuffer(buf *bytes.Buffer, vars unsafe.Pointer) error {
	buf.Reset()
	buf.Grow(t.minimumSize)
	if len(t.chunks) == 0 {
		return nil
	}
	t.run(buf, vars, 0, -1)
	return nil
}

// run is the dispatch loop. It recurses to execute conditional and loop
// bodies; sentinel is the index the body frame returns at (the END chunk of
// a conditional, the open chunk of an iteration), -1 at top level. The
// return value is the index where the frame finalized.
func (t *Template) run(buf *bytes.Buffer, vars unsafe.Pointer, pos, sentinel int) int {
	chunks := t.chunks
	var iter Iterator

	for {
		c := &chunks[pos]
		switch c.action {
		case actionAppend:
			buf.Write(c.data.([]byte))
			pos++

		case actionAppendChar:
			buf.WriteByte(c.data.(byte))
			pos++

		case actionVariable:
			d := c.data.(*VarDescriptor)
			d.Append(buf, unsafe.Add(vars, d.Offset))
			pos++

		case actionVariableStr:
			appendStr(buf, unsafe.Add(vars, c.data.(uintptr)))
			pos++

		case actionVariableStrEscape:
			appendStrEscaped(buf, unsafe.Add(vars, c.data.(uintptr)))
			pos++

		case actionIfVariableNotEmpty:
			cd := c.data.(*chunkDescriptor)
			empty := cd.desc.IsEmpty(unsafe.Add(vars, cd.desc.Offset))
			if c.flags&flagNegate != 0 {
				empty = !empty
			}
			if empty {
				pos = cd.chunk + 1
			} else {
				pos = t.run(buf, vars, pos+1, cd.chunk) + 1
			}

		case actionEndIfVariableNotEmpty:
			if sentinel == pos {
				return pos
			}
			pos++

		case actionApplyTpl:
			sub := c.data.(*Template)
			tmp := sub.Apply(vars)
			buf.Write(tmp.Bytes())
			pos++

		case actionStartIter:
			cd := c.data.(*chunkDescriptor)
			iter = cd.desc.Generator(vars)

			resumed := iter.Next()
			negate := c.flags&flagNegate != 0
			if negate {
				resumed = !resumed
			}
			if !resumed {
				// the negate path may leave the generator mid iteration;
				// Close lets it release resources either way
				iter.Close()
				iter = nil
				pos = cd.chunk
				continue
			}

			pos = t.run(buf, vars, pos+1, pos)

		case actionEndIter:
			open := c.data.(int)
			if sentinel == open {
				return pos
			}

			if iter == nil {
				pos++
				continue
			}

			if !iter.Next() {
				iter.Close()
				iter = nil
				pos++
				continue
			}

			pos = t.run(buf, vars, open+1, open)

		case actionLast:
			return pos
		}
	}
}
