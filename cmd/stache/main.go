// Command stache renders a template file against page data loaded from a
// YAML document.
//
// The data schema is fixed: a title, a count, a rating, a markdown body and
// a list of name/value items.
//
//	title: templates!
//	count: 3
//	body: |
//	  Some *markdown* here.
//	items:
//	  - name: one
//	    value: 1.js
//	  - name: two
//	    value: 2.js
//
// Usage:
//
//	stache [-d data.yaml] [-o file] [-dump] template.tpl
package main

import (
	"flag"
	"fmt"
	"os"
	"unsafe"

	"gopkg.in/yaml.v3"

	"github.com/goods/stache"
)

type item struct {
	Name  string `yaml:"name"`
	Value string `yaml:"value"`
}

type page struct {
	Title  string  `yaml:"title"`
	Count  int     `yaml:"count"`
	Rating float64 `yaml:"rating"`
	Body   string  `yaml:"body"`
	Items  []item  `yaml:"items"`
	Item   item    `yaml:"-"`
}

var zero page

var itemDescs = []stache.VarDescriptor{
	stache.VarStr("name", unsafe.Offsetof(zero.Item)+unsafe.Offsetof(zero.Item.Name)),
	stache.VarStr("value", unsafe.Offsetof(zero.Item)+unsafe.Offsetof(zero.Item.Value)),
}

var pageDescs = []stache.VarDescriptor{
	stache.VarStr("title", unsafe.Offsetof(zero.Title)),
	stache.VarInt("count", unsafe.Offsetof(zero.Count)),
	stache.VarDouble("rating", unsafe.Offsetof(zero.Rating)),
	stache.VarMarkdown("body", unsafe.Offsetof(zero.Body)),
	stache.VarList("items",
		unsafe.Offsetof(zero.Items),
		stache.SliceGenerator[item](unsafe.Offsetof(zero.Items), unsafe.Offsetof(zero.Item)),
		itemDescs),
}

func main() {
	dataFile := flag.String("d", "", "YAML file with the page data")
	outFile := flag.String("o", "", "write the output to a file instead of stdout")
	dump := flag.Bool("dump", false, "print the compiled program and exit")
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "usage: %s [-d data.yaml] [-o file] [-dump] template.tpl\n", os.Args[0])
		flag.PrintDefaults()
	}
	flag.Parse()

	if flag.NArg() != 1 {
		flag.Usage()
		os.Exit(2)
	}

	if err := run(flag.Arg(0), *dataFile, *outFile, *dump); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(tplFile, dataFile, outFile string, dump bool) error {
	var pg page
	if dataFile != "" {
		data, err := os.ReadFile(dataFile)
		if err != nil {
			return err
		}
		if err := yaml.Unmarshal(data, &pg); err != nil {
			return fmt.Errorf("%s: %s", dataFile, err)
		}
	}

	tpl, err := stache.CompileFile(tplFile, pageDescs)
	if err != nil {
		return err
	}

	if dump {
		tpl.Dump(os.Stdout)
		return nil
	}

	buf := tpl.Apply(unsafe.Pointer(&pg))

	if outFile != "" {
		return os.WriteFile(outFile, buf.Bytes(), 0666)
	}
	_, err = os.Stdout.Write(buf.Bytes())
	return err
}
