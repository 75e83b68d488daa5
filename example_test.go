package stache_test

import (
	"fmt"
	"unsafe"

	"github.com/goods/stache"
)

func ExampleCompileString() {
	type greeting struct {
		name string
	}
	var g greeting

	descs := []stache.VarDescriptor{
		stache.VarStr("name", unsafe.Offsetof(g.name)),
	}
	tpl, err := stache.CompileString("hello {{name}}", descs)
	if err != nil {
		panic(err)
	}

	g.name = "world"
	fmt.Println(tpl.Apply(unsafe.Pointer(&g)).String())
	// Output: hello world
}

func ExampleSliceGenerator() {
	type todo struct {
		items []string
		item  string
	}
	var td todo

	descs := []stache.VarDescriptor{
		stache.VarList("items",
			unsafe.Offsetof(td.items),
			stache.SliceGenerator[string](unsafe.Offsetof(td.items), unsafe.Offsetof(td.item)),
			[]stache.VarDescriptor{
				stache.VarStr("item", unsafe.Offsetof(td.item)),
			}),
	}
	tpl, err := stache.CompileString("{{#items}}- {{item}}\n{{/items}}", descs)
	if err != nil {
		panic(err)
	}

	td.items = []string{"milk", "eggs"}
	fmt.Print(tpl.Apply(unsafe.Pointer(&td)).String())
	// Output:
	// - milk
	// - eggs
}
