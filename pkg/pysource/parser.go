// Copyright 2025 KrakLabs
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published
// by the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with this program. If not, see <https://www.gnu.org/licenses/>.
//
// For commercial licensing, contact: licensing@kraklabs.com
//
// SPDX-License-Identifier: AGPL-3.0-or-later

package pysource

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"sort"
	"strings"
	"time"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/python"

	"github.com/kraklabs/siginspect/internal/contract"
	"github.com/kraklabs/siginspect/pkg/signature"
)

// Parser extracts definitions from Python source using Tree-sitter.
// A Parser is safe for concurrent use; each Parse call creates its own
// Tree-sitter parser.
type Parser struct {
	logger   *slog.Logger
	maxBytes int64
}

// NewParser creates a Parser. A nil logger falls back to slog.Default().
func NewParser(logger *slog.Logger) *Parser {
	if logger == nil {
		logger = slog.Default()
	}
	return &Parser{logger: logger}
}

// SetMaxBytes sets the size limit applied by LoadFile. Zero or negative
// selects the default limit.
func (p *Parser) SetMaxBytes(n int64) {
	p.maxBytes = n
}

// LoadFile reads and parses path, refusing files over the source size limit.
func (p *Parser) LoadFile(ctx context.Context, path string) (*Module, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", path, err)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("load %s: is a directory", path)
	}
	limit := contract.MaxSourceBytes(p.maxBytes)
	if res := contract.ValidateSourceSize(info.Size(), limit); !res.OK {
		return nil, fmt.Errorf("load %s: %s: %w", path, res.Message, ErrTooLarge)
	}
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", path, err)
	}
	return p.Parse(ctx, path, content)
}

// Parse extracts the module's functions, classes, methods, nested functions
// and lambda assignments. Tree-sitter is error-tolerant: syntax errors are
// logged and definitions around them are still extracted; a def whose
// parameter list is broken reports ErrMalformed from Signature.
func (p *Parser) Parse(ctx context.Context, path string, content []byte) (*Module, error) {
	start := time.Now()

	parser := sitter.NewParser()
	parser.SetLanguage(python.GetLanguage())
	tree, err := parser.ParseCtx(ctx, nil, content)
	if err != nil {
		return nil, fmt.Errorf("tree-sitter parse: %w", err)
	}
	defer tree.Close()

	root := tree.RootNode()
	if root.HasError() {
		if errorCount := countErrors(root); errorCount > 0 {
			p.logger.Warn("pysource.syntax_errors",
				"path", path,
				"error_count", errorCount,
			)
		}
	}

	w := &walker{content: content, module: newModule(path), logger: p.logger}
	w.statements(root, scope{})

	observeParse(time.Since(start), w.defs)
	p.logger.Debug("pysource.parsed",
		"path", path,
		"defs", w.defs,
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return w.module, nil
}

func countErrors(node *sitter.Node) int {
	count := 0
	if node.IsError() || node.IsMissing() {
		count++
	}
	for i := 0; i < int(node.ChildCount()); i++ {
		count += countErrors(node.Child(i))
	}
	return count
}

// scope is where a statement list sits.
type scope struct {
	// qual prefixes qualified names: "", "C" or "outer.<locals>".
	qual   string
	class  *Class
	inFunc bool
}

func (s scope) join(name string) string {
	if s.qual == "" {
		return name
	}
	return s.qual + "." + name
}

type walker struct {
	content []byte
	module  *Module
	logger  *slog.Logger
	defs    int
}

func (w *walker) text(n *sitter.Node) string {
	if n == nil {
		return ""
	}
	return n.Content(w.content)
}

func (w *walker) statements(node *sitter.Node, sc scope) {
	if node == nil {
		return
	}
	for i := 0; i < int(node.NamedChildCount()); i++ {
		stmt := node.NamedChild(i)
		switch stmt.Type() {
		case "function_definition":
			w.function(stmt, nil, sc)
		case "class_definition":
			w.class(stmt, nil, sc)
		case "decorated_definition":
			decorators := w.decorators(stmt)
			def := stmt.ChildByFieldName("definition")
			if def == nil {
				continue
			}
			switch def.Type() {
			case "function_definition":
				w.function(def, decorators, sc)
			case "class_definition":
				w.class(def, decorators, sc)
			}
		case "expression_statement":
			w.assignment(stmt, sc)
		case "import_statement", "import_from_statement":
			if sc.qual == "" {
				w.imports(stmt)
			}
		case "if_statement", "try_statement", "with_statement", "for_statement", "while_statement",
			"elif_clause", "else_clause", "except_clause", "finally_clause", "block":
			// conditional definitions still belong to the enclosing scope
			w.statements(stmt, sc)
		}
	}
}

// imports records the names bound by an import statement.
func (w *walker) imports(stmt *sitter.Node) {
	var from string
	module := stmt.ChildByFieldName("module_name")
	if module != nil {
		from = w.text(module)
	}
	for i := 0; i < int(stmt.NamedChildCount()); i++ {
		c := stmt.NamedChild(i)
		if module != nil && c.StartByte() == module.StartByte() {
			continue
		}
		var path, alias string
		switch c.Type() {
		case "dotted_name":
			path = w.text(c)
			alias = path
			if from == "" {
				// "import a.b" binds a
				alias, _, _ = strings.Cut(path, ".")
				path = alias
			}
		case "aliased_import":
			path = w.text(c.ChildByFieldName("name"))
			alias = w.text(c.ChildByFieldName("alias"))
		default:
			continue
		}
		if from != "" {
			if strings.HasSuffix(from, ".") {
				path = from + path
			} else {
				path = from + "." + path
			}
		}
		if alias != "" && path != "" {
			w.module.imports[alias] = path
		}
	}
}

func (w *walker) decorators(node *sitter.Node) []string {
	var out []string
	for i := 0; i < int(node.NamedChildCount()); i++ {
		dec := node.NamedChild(i)
		if dec.Type() != "decorator" || dec.NamedChildCount() == 0 {
			continue
		}
		expr := dec.NamedChild(0)
		if expr.Type() == "call" {
			expr = expr.ChildByFieldName("function")
		}
		if name := w.text(expr); name != "" {
			out = append(out, name)
		}
	}
	return out
}

func defKind(decorators []string) DefKind {
	kind := DefFunction
	for _, d := range decorators {
		switch {
		case d == "staticmethod":
			kind = DefStaticMethod
		case d == "classmethod":
			kind = DefClassMethod
		case d == "property", d == "cached_property", d == "functools.cached_property",
			d == "abc.abstractproperty", strings.HasSuffix(d, ".setter"),
			strings.HasSuffix(d, ".getter"), strings.HasSuffix(d, ".deleter"):
			return DefProperty
		}
	}
	return kind
}

func (w *walker) function(node *sitter.Node, decorators []string, sc scope) {
	nameNode := node.ChildByFieldName("name")
	if nameNode == nil {
		return
	}
	name := w.text(nameNode)
	qual := sc.join(name)
	async := node.ChildCount() > 0 && node.Child(0).Type() == "async"

	def := &Def{
		Name:       name,
		QualName:   qual,
		Line:       int(node.StartPoint().Row) + 1,
		Async:      async,
		Decorators: decorators,
	}
	if sc.class != nil {
		def.Kind = defKind(decorators)
	}
	def.sig, def.err = w.signature(name, qual, async,
		node.ChildByFieldName("parameters"), node.ChildByFieldName("return_type"))
	if def.err != nil {
		w.logger.Warn("pysource.malformed_parameters",
			"path", w.module.Path,
			"qualname", qual,
			"line", def.Line,
			"error", def.err,
		)
	}
	w.register(name, def, sc)

	w.statements(node.ChildByFieldName("body"), scope{qual: qual + ".<locals>", inFunc: true})
}

func (w *walker) register(name string, def *Def, sc scope) {
	w.defs++
	switch {
	case sc.class != nil:
		sc.class.add(name, def)
	case sc.inFunc:
		w.module.locals[def.QualName] = def
	default:
		w.module.add(name, def)
	}
}

func (w *walker) class(node *sitter.Node, decorators []string, sc scope) {
	if sc.inFunc {
		// local classes are not reachable by a target expression
		return
	}
	nameNode := node.ChildByFieldName("name")
	if nameNode == nil {
		return
	}
	name := w.text(nameNode)
	c := newClass(name, sc.join(name), int(node.StartPoint().Row)+1)
	c.Decorators = decorators

	if supers := node.ChildByFieldName("superclasses"); supers != nil {
		for i := 0; i < int(supers.NamedChildCount()); i++ {
			base := supers.NamedChild(i)
			switch base.Type() {
			case "identifier", "attribute":
				c.Bases = append(c.Bases, w.text(base))
			case "subscript":
				// Generic[T] and friends
				c.Bases = append(c.Bases, w.text(base.ChildByFieldName("value")))
			}
		}
	}

	w.defs++
	if sc.class != nil {
		sc.class.add(name, c)
	} else {
		w.module.add(name, c)
	}
	w.statements(node.ChildByFieldName("body"), scope{qual: c.QualName, class: c})
}

// assignment handles "name = lambda ...: ..." and annotated class
// attributes.
func (w *walker) assignment(stmt *sitter.Node, sc scope) {
	if stmt.NamedChildCount() == 0 || sc.inFunc {
		return
	}
	assign := stmt.NamedChild(0)
	if assign.Type() != "assignment" {
		return
	}
	left := assign.ChildByFieldName("left")
	if left == nil || left.Type() != "identifier" {
		return
	}
	name := w.text(left)
	right := assign.ChildByFieldName("right")
	annotation := assign.ChildByFieldName("type")

	if sc.class != nil && annotation != nil {
		ann := normalizeAnnotation(w.text(annotation))
		if strings.HasPrefix(ann, "ClassVar") || strings.HasPrefix(ann, "typing.ClassVar") {
			return
		}
		field := signature.Param{Name: name, Kind: signature.KindPositionalOrKeyword, Annotation: ann}
		if right != nil {
			field.Default = signature.ParseLiteral(w.text(right))
		}
		sc.class.fields = append(sc.class.fields, field)
		return
	}

	if right == nil || right.Type() != "lambda" {
		return
	}
	qual := sc.join("<lambda>")
	def := &Def{
		Name:     "<lambda>",
		QualName: qual,
		Line:     int(right.StartPoint().Row) + 1,
		Kind:     DefLambda,
	}
	if sc.class != nil {
		def.Kind = DefFunction
	}
	def.sig, def.err = w.signature("<lambda>", qual, false, right.ChildByFieldName("parameters"), nil)
	w.register(name, def, sc)
}

// signature reads a parameters or lambda_parameters node.
func (w *walker) signature(name, qual string, async bool, params, ret *sitter.Node) (*signature.Signature, error) {
	sig := &signature.Signature{Name: name, QualName: qual, Async: async}
	if ret != nil {
		sig.Return = normalizeAnnotation(w.text(ret))
	}
	if params == nil {
		return sig, nil
	}
	if params.HasError() {
		return nil, signature.NewInspectionError(qual, signature.ErrMalformed,
			"syntax error in parameter list at line %d", params.StartPoint().Row+1)
	}

	kind := signature.KindPositionalOrKeyword
	bareStar := false
	add := func(p signature.Param) {
		sig.Params = append(sig.Params, p)
	}

	for i := 0; i < int(params.NamedChildCount()); i++ {
		child := params.NamedChild(i)
		switch child.Type() {
		case "identifier":
			add(signature.Param{Name: w.text(child), Kind: kind})

		case "default_parameter", "typed_default_parameter":
			nameNode := child.ChildByFieldName("name")
			if nameNode == nil || nameNode.Type() != "identifier" {
				return nil, signature.NewInspectionError(qual, signature.ErrMalformed,
					"unsupported parameter %q", w.text(child))
			}
			p := signature.Param{
				Name:    w.text(nameNode),
				Kind:    kind,
				Default: signature.ParseLiteral(w.text(child.ChildByFieldName("value"))),
			}
			if t := child.ChildByFieldName("type"); t != nil {
				p.Annotation = normalizeAnnotation(w.text(t))
			}
			add(p)

		case "typed_parameter":
			ann := normalizeAnnotation(w.text(child.ChildByFieldName("type")))
			inner := child.NamedChild(0)
			switch inner.Type() {
			case "identifier":
				add(signature.Param{Name: w.text(inner), Kind: kind, Annotation: ann})
			case "list_splat_pattern":
				add(signature.Param{Name: w.splatName(inner), Kind: signature.KindVarPositional, Annotation: ann})
				kind = signature.KindKeywordOnly
			case "dictionary_splat_pattern":
				add(signature.Param{Name: w.splatName(inner), Kind: signature.KindVarKeyword, Annotation: ann})
			}

		case "list_splat_pattern":
			add(signature.Param{Name: w.splatName(child), Kind: signature.KindVarPositional})
			kind = signature.KindKeywordOnly

		case "dictionary_splat_pattern":
			add(signature.Param{Name: w.splatName(child), Kind: signature.KindVarKeyword})

		case "keyword_separator":
			kind = signature.KindKeywordOnly
			bareStar = true

		case "positional_separator":
			if kind == signature.KindKeywordOnly {
				return nil, signature.NewInspectionError(qual, signature.ErrMalformed, "\"/\" after \"*\"")
			}
			for j := range sig.Params {
				sig.Params[j].Kind = signature.KindPositionalOnly
			}

		case "comment":

		default:
			return nil, signature.NewInspectionError(qual, signature.ErrMalformed,
				"unsupported parameter %q", w.text(child))
		}
	}

	if bareStar {
		hasKeywordOnly := false
		for _, p := range sig.Params {
			if p.Kind == signature.KindKeywordOnly {
				hasKeywordOnly = true
			}
		}
		if !hasKeywordOnly {
			return nil, signature.NewInspectionError(qual, signature.ErrMalformed, "named arguments must follow bare \"*\"")
		}
	}
	if err := signature.Validate(sig); err != nil {
		return nil, err
	}
	return sig, nil
}

func (w *walker) splatName(n *sitter.Node) string {
	for i := 0; i < int(n.NamedChildCount()); i++ {
		if c := n.NamedChild(i); c.Type() == "identifier" {
			return w.text(c)
		}
	}
	return strings.TrimLeft(w.text(n), "*")
}

var annotationSpacing = strings.NewReplacer("[ ", "[", " ]", "]", " ,", ",", "( ", "(", " )", ")")

// normalizeAnnotation collapses whitespace so multi-line annotations read
// as written on one line.
func normalizeAnnotation(s string) string {
	return annotationSpacing.Replace(strings.Join(strings.Fields(s), " "))
}

func sortDefs(defs []*Def) {
	sort.Slice(defs, func(i, j int) bool {
		if defs[i].Line != defs[j].Line {
			return defs[i].Line < defs[j].Line
		}
		return defs[i].QualName < defs[j].QualName
	})
}
