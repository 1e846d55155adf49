// Copyright 2025 KrakLabs
// SPDX-License-Identifier: AGPL-3.0-or-later

package gofunc

import (
	"context"
	"log/slog"
	"os"
	"sync"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/golang"
)

// funcDecl is one function, method or func literal found in a source file.
type funcDecl struct {
	name      string // empty for literals
	startLine int    // 1-indexed, line of the "func" keyword
	endLine   int    // 1-indexed, line closing the parameter list
	receiver  string
	params    []string
}

var declCache struct {
	mu    sync.Mutex
	files map[string][]funcDecl
}

// lookupParamNames finds the declaration of a function in file and returns
// its parameter names. The declaration is matched by line first and by name
// otherwise; either way the parameter count must match numIn.
func lookupParamNames(file string, line int, name string, numIn int) ([]string, bool) {
	decls, ok := fileDecls(file)
	if !ok {
		return nil, false
	}
	for _, d := range decls {
		if line >= d.startLine && line <= d.endLine {
			if names, ok := d.namesFor(numIn); ok {
				return names, true
			}
		}
	}
	for _, d := range decls {
		if d.name != "" && d.name == name {
			if names, ok := d.namesFor(numIn); ok {
				return names, true
			}
		}
	}
	return nil, false
}

// namesFor returns the names for a call taking numIn arguments; method
// expressions take the receiver as their first argument.
func (d funcDecl) namesFor(numIn int) ([]string, bool) {
	switch {
	case len(d.params) == numIn:
		return d.params, true
	case d.receiver != "" && len(d.params)+1 == numIn:
		return append([]string{d.receiver}, d.params...), true
	}
	return nil, false
}

func fileDecls(file string) ([]funcDecl, bool) {
	declCache.mu.Lock()
	defer declCache.mu.Unlock()
	if decls, ok := declCache.files[file]; ok {
		return decls, decls != nil
	}
	if declCache.files == nil {
		declCache.files = make(map[string][]funcDecl)
	}
	decls, err := parseFuncDecls(file)
	if err != nil {
		slog.Default().Debug("gofunc.names.unavailable", "path", file, "error", err)
	}
	declCache.files[file] = decls
	return decls, decls != nil
}

func parseFuncDecls(file string) ([]funcDecl, error) {
	content, err := os.ReadFile(file)
	if err != nil {
		return nil, err
	}
	parser := sitter.NewParser()
	parser.SetLanguage(golang.GetLanguage())
	tree, err := parser.ParseCtx(context.Background(), nil, content)
	if err != nil {
		return nil, err
	}
	defer tree.Close()

	decls := []funcDecl{}
	walkFuncs(tree.RootNode(), content, &decls)
	return decls, nil
}

func walkFuncs(node *sitter.Node, content []byte, out *[]funcDecl) {
	switch node.Type() {
	case "function_declaration", "method_declaration", "func_literal":
		if d, ok := extractFuncDecl(node, content); ok {
			*out = append(*out, d)
		}
	}
	for i := 0; i < int(node.NamedChildCount()); i++ {
		walkFuncs(node.NamedChild(i), content, out)
	}
}

func extractFuncDecl(node *sitter.Node, content []byte) (funcDecl, bool) {
	paramsNode := node.ChildByFieldName("parameters")
	if paramsNode == nil {
		return funcDecl{}, false
	}
	d := funcDecl{
		startLine: int(node.StartPoint().Row) + 1,
		endLine:   int(paramsNode.EndPoint().Row) + 1,
		params:    parameterNames(paramsNode, content),
	}
	if nameNode := node.ChildByFieldName("name"); nameNode != nil {
		d.name = nameNode.Content(content)
	}
	if recv := node.ChildByFieldName("receiver"); recv != nil {
		if names := parameterNames(recv, content); len(names) == 1 {
			d.receiver = names[0]
		}
	}
	return d, true
}

// parameterNames lists one entry per declared parameter of a
// parameter_list; unnamed parameters yield "".
func parameterNames(list *sitter.Node, content []byte) []string {
	var names []string
	for i := 0; i < int(list.NamedChildCount()); i++ {
		decl := list.NamedChild(i)
		switch decl.Type() {
		case "parameter_declaration", "variadic_parameter_declaration":
		default:
			continue
		}
		before := len(names)
		for j := 0; j < int(decl.NamedChildCount()); j++ {
			child := decl.NamedChild(j)
			if t := child.Type(); t == "identifier" || t == "blank_identifier" {
				names = append(names, child.Content(content))
			}
		}
		if len(names) == before {
			names = append(names, "")
		}
	}
	return names
}
