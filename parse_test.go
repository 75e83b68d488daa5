package stache

import (
	"bytes"
	"strings"
	"testing"
)

func TestCompileErrors(t *testing.T) {
	cases := []struct {
		name   string
		source string
		msg    string
	}{
		{"mismatched close", "{{#items}}{{/str}}", "expecting IDENTIFIER `items' but found `str'"},
		{"unknown variable", "{{unknown}}", "Unknown variable: unknown"},
		{"escape non string", "{{{num}}}", "Variable must be string to be escaped"},
		{"newline in action", "{{\n}}", "actions cannot span multiple lines"},
		{"unmatched open", "{{#items}}body", "EOF while looking for matching {{/items}}"},
		{"unmatched conditional", "{{str?}}body", "EOF while looking for matching {{/str}}"},
		{"stray close tag", "{{/items}}", "unexpected {{/items}}"},
		{"stray close sequence", "a }} b", "unexpected action close sequence"},
		{"unmatched negation", "{{^name}}", "unmatched negation"},
		{"iterate scalar", "{{#name}}x{{/name}}", "Couldn't find descriptor for variable `name'"},
		{"brace after quote", "{{{{name}}}}", "expecting `}'"},
	}

	for _, c := range cases {
		_, err := CompileString(c.source, testDescs)
		if err == nil {
			t.Errorf("%s: expected a compile error", c.name)
			continue
		}
		if !strings.Contains(err.Error(), c.msg) {
			t.Errorf("%s:\nGot %q\nExp substring %q", c.name, err, c.msg)
		}
	}
}

func TestCompileEmptyDescriptors(t *testing.T) {
	if _, err := CompileString("{{unknown}}", []VarDescriptor{}); err == nil ||
		!strings.Contains(err.Error(), "Unknown variable: unknown") {
		t.Fatalf("Got %v", err)
	}
}

func TestCompileNilDescriptors(t *testing.T) {
	if _, err := CompileString("hello", nil); err == nil {
		t.Fatal("expected an error for a nil descriptor set")
	}
}

func TestCompileIdentifierTooLong(t *testing.T) {
	long := strings.Repeat("a", lexemeMaxLen+1)
	_, err := CompileString("{{"+long+"}}", testDescs)
	if err == nil || !strings.Contains(err.Error(), "Lexeme exceeds 64 characters") {
		t.Fatalf("Got %v", err)
	}
}

func TestCompileReportsEveryOpenTag(t *testing.T) {
	_, err := CompileString("{{str?}}{{#items}}", testDescs)
	if err == nil {
		t.Fatal("expected a compile error")
	}
	for _, pending := range []string{"{{/items}}", "{{/str}}"} {
		if !strings.Contains(err.Error(), pending) {
			t.Errorf("error does not mention %s: %q", pending, err)
		}
	}
}

func TestChunkProgram(t *testing.T) {
	tpl, err := CompileString("ab{{name}}c{{str?}}{{num}}{{/str?}}", testDescs)
	if err != nil {
		t.Fatal(err)
	}

	actions := []action{
		actionAppend,            // "ab"
		actionVariableStr,       // name, specialized by the linker
		actionAppendChar,        // "c"
		actionIfVariableNotEmpty,
		actionVariable, // num keeps its descriptor
		actionEndIfVariableNotEmpty,
		actionLast,
	}
	if len(tpl.chunks) != len(actions) {
		t.Fatalf("got %d chunks, exp %d", len(tpl.chunks), len(actions))
	}
	for i, ex := range actions {
		if got := tpl.chunks[i].action; got != ex {
			t.Errorf("chunk %d: got %s exp %s", i, got, ex)
		}
	}
}

func TestLinking(t *testing.T) {
	tpl, err := CompileString("{{#items}}{{v}}{{#items}}{{v}}{{/items}}{{/items}}{{str?}}x{{/str?}}", testDescs)
	if err != nil {
		t.Fatal(err)
	}

	for i, c := range tpl.chunks {
		switch c.action {
		case actionStartIter:
			cd := c.data.(*chunkDescriptor)
			end := cd.chunk - 1
			if end <= i || end >= len(tpl.chunks) {
				t.Fatalf("chunk %d: bad link %d", i, cd.chunk)
			}
			if tpl.chunks[end].action != actionEndIter {
				t.Errorf("chunk %d links past a %s", i, tpl.chunks[end].action)
			}
			if back := tpl.chunks[end].data.(int); back != i {
				t.Errorf("end chunk %d back references %d, exp %d", end, back, i)
			}
		case actionIfVariableNotEmpty:
			cd := c.data.(*chunkDescriptor)
			end := cd.chunk
			if tpl.chunks[end].action != actionEndIfVariableNotEmpty {
				t.Errorf("chunk %d links to a %s", i, tpl.chunks[end].action)
			}
			if tpl.chunks[end].data.(*VarDescriptor) != cd.desc {
				t.Errorf("chunk %d: descriptor mismatch at end chunk", i)
			}
		}
	}

	if last := tpl.chunks[len(tpl.chunks)-1]; last.action != actionLast {
		t.Fatalf("final chunk is %s", last.action)
	}
}

func TestSymbolScoping(t *testing.T) {
	//v is introduced by the loop scope and invisible outside it
	if _, err := CompileString("{{#items}}{{v}}{{/items}}", testDescs); err != nil {
		t.Fatal(err)
	}
	if _, err := CompileString("{{v}}", testDescs); err == nil ||
		!strings.Contains(err.Error(), "Unknown variable: v") {
		t.Fatalf("Got %v", err)
	}
	if _, err := CompileString("{{#items}}{{v}}{{/items}}{{v}}", testDescs); err == nil {
		t.Fatal("expected v to be out of scope after the loop")
	}
}

func TestDump(t *testing.T) {
	tpl, err := CompileString("ab{{#items}}{{v}}{{/items}}", testDescs)
	if err != nil {
		t.Fatal(err)
	}

	var buf bytes.Buffer
	tpl.Dump(&buf)
	out := buf.String()
	for _, want := range []string{"APPEND [ab]", "START_ITER [items]", "END_ITER", "LAST"} {
		if !strings.Contains(out, want) {
			t.Errorf("dump is missing %q:\n%s", want, out)
		}
	}
}
