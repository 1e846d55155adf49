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

package signature

import (
	"fmt"
	"strings"

	"github.com/alecthomas/participle/v2"
	"github.com/alecthomas/participle/v2/lexer"
)

// =============================================================================
// DECLARATION GRAMMAR
// =============================================================================

// declNode is the root of a textual declaration:
//
//	[async] def name(params) [-> type][:]
type declNode struct {
	Async  bool         `parser:"@'async'?"`
	Name   string       `parser:"'def' @Ident"`
	Params []*paramNode `parser:"'(' ( @@ ( ',' @@ )* ','? )? ')'"`
	Return *typeNode    `parser:"( '->' @@ )? ':'?"`
}

// paramNode is one comma-separated item of a parameter list.
type paramNode struct {
	Slash bool       `parser:"  @'/'"`
	VarKw *namedNode `parser:"| '**' @@"`
	Star  *starNode  `parser:"| @@"`
	Plain *plainNode `parser:"| @@"`
}

type namedNode struct {
	Name string    `parser:"@Ident"`
	Type *typeNode `parser:"( ':' @@ )?"`
}

// starNode is either the bare keyword-only marker or "*args".
type starNode struct {
	Star bool      `parser:"@'*'"`
	Name string    `parser:"@Ident?"`
	Type *typeNode `parser:"( ':' @@ )?"`
}

type plainNode struct {
	Name    string    `parser:"@Ident"`
	Type    *typeNode `parser:"( ':' @@ )?"`
	Default *exprNode `parser:"( '=' @@ )?"`
}

// typeNode is an annotation, possibly a "|" union.
type typeNode struct {
	Alts []*typeAtom `parser:"@@ ( '|' @@ )*"`
}

type typeAtom struct {
	Str      *string     `parser:"  @String"`
	Ellipsis bool        `parser:"| @Ellipsis"`
	List     *typeList   `parser:"| @@"`
	Name     []string    `parser:"| @Ident ( '.' @Ident )*"`
	Args     []*typeNode `parser:"  ( '[' @@ ( ',' @@ )* ']' )?"`
}

// typeList is a bracketed list inside a subscript, as in Callable[[int], str].
type typeList struct {
	Open  bool        `parser:"@'['"`
	Items []*typeNode `parser:"( @@ ( ',' @@ )* )? ']'"`
}

// exprNode is a default value expression.
type exprNode struct {
	Number *string    `parser:"  @( '-'? Number )"`
	Str    *string    `parser:"| @String"`
	List   *listExpr  `parser:"| @@"`
	Tuple  *tupleExpr `parser:"| @@"`
	Dict   *dictExpr  `parser:"| @@"`
	Name   []string   `parser:"| @Ident ( '.' @Ident )*"`
}

type listExpr struct {
	Open  bool        `parser:"@'['"`
	Items []*exprNode `parser:"( @@ ( ',' @@? )* )? ']'"`
}

// tupleExpr covers both tuples and parenthesized expressions; a tuple needs
// a comma or must be empty.
type tupleExpr struct {
	Open  bool        `parser:"@'('"`
	First *exprNode   `parser:"( @@"`
	Comma bool        `parser:"  ( @','"`
	More  []*exprNode `parser:"    ( @@ ( ',' @@? )* )? )? )? ')'"`
}

type dictExpr struct {
	Open    bool         `parser:"@'{'"`
	Entries []*dictEntry `parser:"( @@ ( ',' @@? )* )? '}'"`
}

type dictEntry struct {
	Key   *exprNode `parser:"@@ ':'"`
	Value *exprNode `parser:"@@"`
}

var declLexer = lexer.MustSimple([]lexer.SimpleRule{
	{Name: "String", Pattern: `[rRuU]?("""(\\.|[^\\])*?"""|'''(\\.|[^\\])*?'''|"(\\.|[^"\\])*"|'(\\.|[^'\\])*')`},
	{Name: "Number", Pattern: `0[xXoObB][0-9a-fA-F_]+|\d[\d_]*(\.\d*)?([eE][-+]?\d+)?|\.\d+([eE][-+]?\d+)?`},
	{Name: "Ident", Pattern: `[a-zA-Z_][a-zA-Z0-9_]*`},
	{Name: "Ellipsis", Pattern: `\.\.\.`},
	{Name: "Operator", Pattern: `\*\*|->|[-*/,:=()\[\]{}.|]`},
	{Name: "Whitespace", Pattern: `\s+`},
})

var declParser = participle.MustBuild[declNode](
	participle.Lexer(declLexer),
	participle.Elide("Whitespace"),
	participle.UseLookahead(2),
)

var literalParser = participle.MustBuild[exprNode](
	participle.Lexer(declLexer),
	participle.Elide("Whitespace"),
	participle.UseLookahead(2),
)

// =============================================================================
// CONVERSION
// =============================================================================

// ParseLiteral evaluates a default value expression. Literals yield their
// repr and Go value; anything the grammar does not cover, such as calls,
// yields the trimmed source text as an Expr.
func ParseLiteral(text string) *Default {
	text = strings.TrimSpace(text)
	node, err := literalParser.ParseString("", text)
	if err == nil {
		if d, err := node.toDefault(); err == nil {
			return d
		}
	}
	return &Default{Repr: text, Value: Expr(text)}
}

// Parse parses a textual declaration such as
//
//	def greet(name: str, age: int = 25) -> str
//
// into a validated, unbound Signature. Syntax errors and structural
// violations are returned as *InspectionError wrapping ErrMalformed.
func Parse(decl string) (*Signature, error) {
	node, err := declParser.ParseString("", strings.TrimSpace(decl))
	if err != nil {
		return nil, NewInspectionError("", ErrMalformed, "parse declaration: %v", err)
	}

	sig := &Signature{
		Name:     node.Name,
		QualName: node.Name,
		Async:    node.Async,
	}
	if node.Return != nil {
		sig.Return = node.Return.String()
	}

	params, err := convertParams(node.Name, node.Params)
	if err != nil {
		return nil, err
	}
	sig.Params = params

	if err := Validate(sig); err != nil {
		return nil, err
	}
	return sig, nil
}

// MustParse is like Parse but panics on error. It is intended for
// package-level declarations.
func MustParse(decl string) *Signature {
	sig, err := Parse(decl)
	if err != nil {
		panic(err)
	}
	return sig
}

func convertParams(target string, nodes []*paramNode) ([]Param, error) {
	var (
		params      []Param
		kind        = KindPositionalOrKeyword
		sawSlash    bool
		bareStarIdx = -1
	)
	for _, n := range nodes {
		switch {
		case n.Slash:
			if sawSlash {
				return nil, NewInspectionError(target, ErrMalformed, "\"/\" may appear only once")
			}
			if kind == KindKeywordOnly {
				return nil, NewInspectionError(target, ErrMalformed, "\"/\" must be ahead of \"*\"")
			}
			if len(params) == 0 {
				return nil, NewInspectionError(target, ErrMalformed, "at least one parameter must precede \"/\"")
			}
			for _, p := range params {
				if p.Kind != KindPositionalOrKeyword {
					return nil, NewInspectionError(target, ErrMalformed, "\"/\" cannot follow %s parameter %q", p.Kind, p.Name)
				}
			}
			sawSlash = true
			for i := range params {
				params[i].Kind = KindPositionalOnly
			}

		case n.VarKw != nil:
			p := Param{Name: n.VarKw.Name, Kind: KindVarKeyword}
			if n.VarKw.Type != nil {
				p.Annotation = n.VarKw.Type.String()
			}
			params = append(params, p)

		case n.Star != nil:
			if kind == KindKeywordOnly {
				return nil, NewInspectionError(target, ErrMalformed, "\"*\" may appear only once")
			}
			kind = KindKeywordOnly
			if n.Star.Name == "" {
				if n.Star.Type != nil {
					return nil, NewInspectionError(target, ErrMalformed, "bare \"*\" cannot be annotated")
				}
				bareStarIdx = len(params)
				continue
			}
			p := Param{Name: n.Star.Name, Kind: KindVarPositional}
			if n.Star.Type != nil {
				p.Annotation = n.Star.Type.String()
			}
			params = append(params, p)

		case n.Plain != nil:
			p := Param{Name: n.Plain.Name, Kind: kind}
			if n.Plain.Type != nil {
				p.Annotation = n.Plain.Type.String()
			}
			if n.Plain.Default != nil {
				d, err := n.Plain.Default.toDefault()
				if err != nil {
					return nil, NewInspectionError(target, ErrMalformed, "default of %q: %v", p.Name, err)
				}
				p.Default = d
			}
			params = append(params, p)
		}
	}

	if bareStarIdx >= 0 {
		if bareStarIdx == len(params) || params[bareStarIdx].Kind != KindKeywordOnly {
			return nil, NewInspectionError(target, ErrMalformed, "named arguments must follow bare \"*\"")
		}
	}
	return params, nil
}

// String renders the annotation in normalized form.
func (t *typeNode) String() string {
	parts := make([]string, len(t.Alts))
	for i, a := range t.Alts {
		parts[i] = a.String()
	}
	return strings.Join(parts, " | ")
}

func (a *typeAtom) String() string {
	switch {
	case a.Str != nil:
		return *a.Str
	case a.Ellipsis:
		return "..."
	case a.List != nil:
		return "[" + joinTypes(a.List.Items) + "]"
	}
	name := strings.Join(a.Name, ".")
	if len(a.Args) > 0 {
		name += "[" + joinTypes(a.Args) + "]"
	}
	return name
}

func joinTypes(ts []*typeNode) string {
	parts := make([]string, len(ts))
	for i, t := range ts {
		parts[i] = t.String()
	}
	return strings.Join(parts, ", ")
}

// toDefault evaluates a literal expression into its repr and Go value.
func (e *exprNode) toDefault() (*Default, error) {
	repr, value, err := e.eval()
	if err != nil {
		return nil, err
	}
	return &Default{Repr: repr, Value: value}, nil
}

func (e *exprNode) eval() (string, any, error) {
	switch {
	case e.Number != nil:
		v, err := NumberValue(*e.Number)
		if err != nil {
			return "", nil, err
		}
		return *e.Number, v, nil

	case e.Str != nil:
		s, err := UnquoteString(*e.Str)
		if err != nil {
			return *e.Str, Expr(*e.Str), nil
		}
		return QuoteString(s), s, nil

	case e.List != nil:
		reprs, values, err := evalAll(e.List.Items)
		if err != nil {
			return "", nil, err
		}
		return "[" + strings.Join(reprs, ", ") + "]", values, nil

	case e.Tuple != nil:
		t := e.Tuple
		if t.First == nil {
			return "()", Tuple{}, nil
		}
		if !t.Comma {
			return t.First.eval()
		}
		reprs, values, err := evalAll(append([]*exprNode{t.First}, t.More...))
		if err != nil {
			return "", nil, err
		}
		if len(reprs) == 1 {
			return "(" + reprs[0] + ",)", Tuple(values), nil
		}
		return "(" + strings.Join(reprs, ", ") + ")", Tuple(values), nil

	case e.Dict != nil:
		m := make(map[string]any, len(e.Dict.Entries))
		parts := make([]string, 0, len(e.Dict.Entries))
		for _, entry := range e.Dict.Entries {
			kr, kv, err := entry.Key.eval()
			if err != nil {
				return "", nil, err
			}
			vr, vv, err := entry.Value.eval()
			if err != nil {
				return "", nil, err
			}
			key, ok := kv.(string)
			if !ok {
				key = kr
			}
			m[key] = vv
			parts = append(parts, kr+": "+vr)
		}
		return "{" + strings.Join(parts, ", ") + "}", m, nil

	case len(e.Name) > 0:
		name := strings.Join(e.Name, ".")
		switch name {
		case "True":
			return name, true, nil
		case "False":
			return name, false, nil
		case "None":
			return name, nil, nil
		}
		return name, Expr(name), nil
	}
	return "", nil, fmt.Errorf("empty expression")
}

func evalAll(nodes []*exprNode) ([]string, []any, error) {
	reprs := make([]string, 0, len(nodes))
	values := make([]any, 0, len(nodes))
	for _, n := range nodes {
		r, v, err := n.eval()
		if err != nil {
			return nil, nil, err
		}
		reprs = append(reprs, r)
		values = append(values, v)
	}
	return reprs, values, nil
}
