// Copyright 2025 KrakLabs
// SPDX-License-Identifier: AGPL-3.0-or-later

package pysource

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrNotImported is returned for a dotted annotation whose root is not
	// defined or imported at module level, such as "np.ndarray" without
	// "import numpy as np".
	ErrNotImported = errors.New("module not imported")
	// ErrInvalidAnnotation is returned for annotation text that cannot be read.
	ErrInvalidAnnotation = errors.New("invalid annotation")
)

// AnnotationKind classifies what an annotation refers to.
type AnnotationKind int

const (
	AnnotationUnknown AnnotationKind = iota
	AnnotationClass
	AnnotationFunction
	AnnotationBuiltin
	AnnotationTyping
	AnnotationLiteral
	AnnotationImported
)

var annotationKindNames = [...]string{
	AnnotationUnknown:  "unknown",
	AnnotationClass:    "class",
	AnnotationFunction: "function",
	AnnotationBuiltin:  "builtin",
	AnnotationTyping:   "typing_construct",
	AnnotationLiteral:  "literal",
	AnnotationImported: "imported",
}

func (k AnnotationKind) String() string {
	if k < 0 || int(k) >= len(annotationKindNames) {
		return fmt.Sprintf("annotation(%d)", int(k))
	}
	return annotationKindNames[k]
}

// MarshalText implements encoding.TextMarshaler.
func (k AnnotationKind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

var builtinTypes = map[string]bool{
	"int": true, "str": true, "float": true, "bool": true, "complex": true,
	"list": true, "dict": true, "tuple": true, "set": true, "frozenset": true,
	"bytes": true, "bytearray": true, "object": true, "type": true,
	"NoneType": true,
}

var typingNames = map[string]bool{
	"Union": true, "Optional": true, "List": true, "Dict": true, "Tuple": true,
	"Set": true, "FrozenSet": true, "Callable": true, "Literal": true,
	"ClassVar": true, "Final": true, "Annotated": true, "Generic": true,
	"TypeVar": true, "NewType": true, "Sequence": true, "Mapping": true,
	"Iterable": true, "Iterator": true, "Type": true, "NoReturn": true,
	"Awaitable": true, "Coroutine": true,
}

// AnnotationObject is the definition an annotation resolves to.
type AnnotationObject struct {
	Kind AnnotationKind

	// Name is a qualname for module definitions, the builtin or typing name,
	// or the full dotted path of an imported name.
	Name string

	Class *Class
	Def   *Def

	// Args holds the resolved subscript arguments, as in Dict[str, int].
	Args []*AnnotationObject

	// Optional is set when Optional[X], Union[X, None] or X | None was
	// unwrapped to X.
	Optional bool
}

func (o *AnnotationObject) String() string {
	if len(o.Args) == 0 {
		return o.Name
	}
	parts := make([]string, len(o.Args))
	for i, a := range o.Args {
		parts[i] = a.String()
	}
	return o.Name + "[" + strings.Join(parts, ", ") + "]"
}

// LoadAnnotation resolves annotation text against the module's definitions
// and imports. It accepts source annotations ("UserService",
// "Optional[Outer.Inner]", `"Forward"`, "int | None") as well as object
// reprs ("<class '__main__.UserService'>", "<class 'int'>").
//
// Names the module does not define fail with ErrNotFound; dotted names
// rooted at an unimported module fail with ErrNotImported.
func (m *Module) LoadAnnotation(annotation string) (*AnnotationObject, error) {
	s := strings.TrimSpace(annotation)
	if s == "" {
		return nil, fmt.Errorf("%w: empty annotation", ErrInvalidAnnotation)
	}
	if _, path, ok := splitRepr(s); ok {
		return m.loadReprPath(path, s)
	}
	return m.loadExpr(s)
}

func (m *Module) loadExpr(s string) (*AnnotationObject, error) {
	s = strings.TrimSpace(s)
	if len(s) >= 2 && (s[0] == '"' || s[0] == '\'') && s[len(s)-1] == s[0] {
		s = strings.TrimSpace(s[1 : len(s)-1])
	}
	if s == "" {
		return nil, fmt.Errorf("%w: empty annotation", ErrInvalidAnnotation)
	}

	if alts := splitTop(s, '|'); len(alts) > 1 {
		return m.union(alts)
	}
	if s == "..." {
		return &AnnotationObject{Kind: AnnotationLiteral, Name: s}, nil
	}
	if strings.HasPrefix(s, "[") {
		if !strings.HasSuffix(s, "]") {
			return nil, fmt.Errorf("%w: %q", ErrInvalidAnnotation, s)
		}
		// parameter list of Callable[[int, str], bool]
		args, err := m.loadArgs(s[1 : len(s)-1])
		if err != nil {
			return nil, err
		}
		return &AnnotationObject{Kind: AnnotationTyping, Args: args}, nil
	}

	open := strings.IndexByte(s, '[')
	if open < 0 {
		return m.loadName(s)
	}
	if !strings.HasSuffix(s, "]") {
		return nil, fmt.Errorf("%w: %q", ErrInvalidAnnotation, s)
	}
	head := strings.TrimSpace(s[:open])
	inner := s[open+1 : len(s)-1]

	switch strings.TrimPrefix(head, "typing.") {
	case "Optional":
		obj, err := m.loadExpr(inner)
		if err != nil {
			return nil, err
		}
		obj.Optional = true
		return obj, nil
	case "Union":
		return m.union(splitTop(inner, ','))
	case "Literal":
		return &AnnotationObject{Kind: AnnotationTyping, Name: head}, nil
	case "Annotated":
		// metadata after the first argument is not a type
		return m.loadExpr(splitTop(inner, ',')[0])
	}

	obj, err := m.loadName(head)
	if err != nil {
		return nil, err
	}
	if obj.Args, err = m.loadArgs(inner); err != nil {
		return nil, err
	}
	return obj, nil
}

func (m *Module) loadArgs(inner string) ([]*AnnotationObject, error) {
	if strings.TrimSpace(inner) == "" {
		return nil, nil
	}
	var args []*AnnotationObject
	for _, part := range splitTop(inner, ',') {
		if strings.TrimSpace(part) == "" {
			continue
		}
		a, err := m.loadExpr(part)
		if err != nil {
			return nil, err
		}
		args = append(args, a)
	}
	return args, nil
}

// union drops None alternatives; a single remaining alternative is returned
// unwrapped.
func (m *Module) union(alts []string) (*AnnotationObject, error) {
	var (
		kept    []*AnnotationObject
		hadNone bool
	)
	for _, alt := range alts {
		a, err := m.loadExpr(alt)
		if err != nil {
			return nil, err
		}
		if a.Kind == AnnotationLiteral && a.Name == "None" {
			hadNone = true
			continue
		}
		kept = append(kept, a)
	}
	switch len(kept) {
	case 0:
		return &AnnotationObject{Kind: AnnotationLiteral, Name: "None"}, nil
	case 1:
		kept[0].Optional = kept[0].Optional || hadNone
		return kept[0], nil
	}
	return &AnnotationObject{Kind: AnnotationTyping, Name: "Union", Args: kept, Optional: hadNone}, nil
}

func (m *Module) loadName(name string) (*AnnotationObject, error) {
	segs := strings.Split(name, ".")
	for _, seg := range segs {
		if !isIdentifier(seg) {
			return nil, fmt.Errorf("%w: %q", ErrInvalidAnnotation, name)
		}
	}
	root := segs[0]

	if len(segs) == 1 {
		if c, ok := m.classes[name]; ok {
			return &AnnotationObject{Kind: AnnotationClass, Name: c.QualName, Class: c}, nil
		}
		if d, ok := m.functions[name]; ok {
			return &AnnotationObject{Kind: AnnotationFunction, Name: d.QualName, Def: d}, nil
		}
		if path, ok := m.imports[name]; ok {
			return importedObject(path), nil
		}
		switch {
		case name == "Any" || name == "None":
			return &AnnotationObject{Kind: AnnotationLiteral, Name: name}, nil
		case builtinTypes[name]:
			return &AnnotationObject{Kind: AnnotationBuiltin, Name: name}, nil
		case typingNames[name]:
			return &AnnotationObject{Kind: AnnotationTyping, Name: name}, nil
		}
		return nil, fmt.Errorf("%w: %s in %s", ErrNotFound, name, m.Path)
	}

	if _, ok := m.classes[root]; ok {
		if c, ok := m.base(name); ok {
			return &AnnotationObject{Kind: AnnotationClass, Name: c.QualName, Class: c}, nil
		}
		owner := strings.Join(segs[:len(segs)-1], ".")
		if c, ok := m.base(owner); ok {
			if d, ok := c.methods[segs[len(segs)-1]]; ok {
				return &AnnotationObject{Kind: AnnotationFunction, Name: d.QualName, Def: d}, nil
			}
		}
		return nil, fmt.Errorf("%w: %s in %s", ErrNotFound, name, m.Path)
	}
	if path, ok := m.imports[root]; ok {
		return importedObject(path + "." + strings.Join(segs[1:], ".")), nil
	}
	if root == "typing" && len(segs) == 2 {
		if segs[1] == "Any" {
			return &AnnotationObject{Kind: AnnotationLiteral, Name: "Any"}, nil
		}
		return &AnnotationObject{Kind: AnnotationTyping, Name: segs[1]}, nil
	}
	if root == "builtins" && len(segs) == 2 && builtinTypes[segs[1]] {
		return &AnnotationObject{Kind: AnnotationBuiltin, Name: segs[1]}, nil
	}
	if _, ok := m.functions[root]; ok {
		return nil, fmt.Errorf("%w: %s in %s", ErrNotFound, name, m.Path)
	}
	return nil, fmt.Errorf("%w: module %q required for annotation %q", ErrNotImported, root, name)
}

// importedObject classifies an imported path; names from typing modules
// are typing constructs.
func importedObject(path string) *AnnotationObject {
	for _, prefix := range []string{"typing.", "typing_extensions.", "collections.abc."} {
		name, ok := strings.CutPrefix(path, prefix)
		if !ok || strings.Contains(name, ".") {
			continue
		}
		if name == "Any" {
			return &AnnotationObject{Kind: AnnotationLiteral, Name: name}
		}
		return &AnnotationObject{Kind: AnnotationTyping, Name: name}
	}
	return &AnnotationObject{Kind: AnnotationImported, Name: path}
}

// loadReprPath resolves the path inside "<class 'path'>". Paths outside
// this module are reported as not found, never as not imported.
func (m *Module) loadReprPath(path, repr string) (*AnnotationObject, error) {
	if path == "" {
		return nil, fmt.Errorf("%w: %q", ErrInvalidAnnotation, repr)
	}
	name := path
	switch {
	case strings.HasPrefix(path, "__main__."):
		name = strings.TrimPrefix(path, "__main__.")
	case strings.HasPrefix(path, "builtins."):
		if b := strings.TrimPrefix(path, "builtins."); builtinTypes[b] {
			return &AnnotationObject{Kind: AnnotationBuiltin, Name: b}, nil
		}
		return nil, fmt.Errorf("%w: %s", ErrNotFound, path)
	}
	obj, err := m.loadName(name)
	if errors.Is(err, ErrNotImported) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, path)
	}
	return obj, err
}

// AnnotationInfo describes an annotation string.
type AnnotationInfo struct {
	Original     string         `json:"original" yaml:"original"`
	Kind         AnnotationKind `json:"type" yaml:"type"`
	ModuleName   string         `json:"module_name,omitempty" yaml:"module_name,omitempty"`
	ObjectName   string         `json:"object_name,omitempty" yaml:"object_name,omitempty"`
	IsMainModule bool           `json:"is_main_module" yaml:"is_main_module"`
	Optional     bool           `json:"optional" yaml:"optional"`
	CanLoad      bool           `json:"can_load" yaml:"can_load"`
	Resolved     string         `json:"resolved,omitempty" yaml:"resolved,omitempty"`
	Error        string         `json:"error,omitempty" yaml:"error,omitempty"`
}

// IsClass reports whether the annotation names a class.
func (i AnnotationInfo) IsClass() bool { return i.Kind == AnnotationClass }

// IsFunction reports whether the annotation names a function.
func (i AnnotationInfo) IsFunction() bool { return i.Kind == AnnotationFunction }

// IsBuiltin reports whether the annotation names a builtin type.
func (i AnnotationInfo) IsBuiltin() bool { return i.Kind == AnnotationBuiltin }

// IsTypingConstruct reports whether the annotation is a typing construct.
func (i AnnotationInfo) IsTypingConstruct() bool { return i.Kind == AnnotationTyping }

// DescribeAnnotation classifies annotation and reports whether it loads.
// The kind is that of the resolved object; an annotation that does not load
// is classified from its repr form or its text.
func (m *Module) DescribeAnnotation(annotation string) AnnotationInfo {
	info := AnnotationInfo{Original: annotation}
	s := strings.TrimSpace(annotation)

	reprKind := AnnotationUnknown
	if word, path, ok := splitRepr(s); ok {
		switch word {
		case "class":
			reprKind = AnnotationClass
		case "function":
			reprKind = AnnotationFunction
		case "built-in":
			reprKind = AnnotationBuiltin
		}
		if i := strings.LastIndexByte(path, '.'); i >= 0 {
			info.ModuleName, info.ObjectName = path[:i], path[i+1:]
			info.IsMainModule = strings.HasPrefix(path, "__main__.")
			if strings.HasPrefix(path, "builtins.") {
				reprKind = AnnotationBuiltin
			}
		} else {
			info.ObjectName = path
		}
	}

	obj, err := m.LoadAnnotation(s)
	if err != nil {
		info.Error = err.Error()
		info.Kind = reprKind
		if info.Kind == AnnotationUnknown {
			info.Kind = textKind(s)
		}
		return info
	}

	info.Kind = obj.Kind
	info.CanLoad = true
	info.Resolved = obj.String()
	info.Optional = obj.Optional
	if info.ObjectName == "" {
		switch obj.Kind {
		case AnnotationClass, AnnotationFunction:
			info.ObjectName, info.IsMainModule = obj.Name, true
		case AnnotationBuiltin:
			info.ModuleName, info.ObjectName = "builtins", obj.Name
		case AnnotationImported:
			if i := strings.LastIndexByte(obj.Name, '.'); i >= 0 {
				info.ModuleName, info.ObjectName = obj.Name[:i], obj.Name[i+1:]
			} else {
				info.ModuleName = obj.Name
			}
		case AnnotationLiteral, AnnotationTyping:
			info.ObjectName = obj.Name
		}
	}
	return info
}

// textKind guesses the kind of an annotation that did not load.
func textKind(s string) AnnotationKind {
	if s == "Any" || s == "None" {
		return AnnotationLiteral
	}
	if strings.HasPrefix(s, "typing.") {
		return AnnotationTyping
	}
	if i := strings.IndexByte(s, '['); i > 0 && typingNames[s[:i]] {
		return AnnotationTyping
	}
	return AnnotationUnknown
}

// splitRepr reads "<word ... 'path'...>" object reprs.
func splitRepr(s string) (word, path string, ok bool) {
	if !strings.HasPrefix(s, "<") || !strings.HasSuffix(s, ">") || !strings.Contains(s, " ") {
		return "", "", false
	}
	first, last := strings.IndexByte(s, '\''), strings.LastIndexByte(s, '\'')
	if first < 0 {
		return "", "", false
	}
	word, _, _ = strings.Cut(s[1:], " ")
	if first < last {
		path = s[first+1 : last]
	}
	return word, path, true
}

// splitTop splits s on sep outside brackets and quotes.
func splitTop(s string, sep byte) []string {
	var (
		parts []string
		depth int
		quote byte
		start int
	)
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case quote != 0:
			if c == quote {
				quote = 0
			}
		case c == '"' || c == '\'':
			quote = c
		case c == '[' || c == '(':
			depth++
		case c == ']' || c == ')':
			depth--
		case c == sep && depth == 0:
			parts = append(parts, strings.TrimSpace(s[start:i]))
			start = i + 1
		}
	}
	return append(parts, strings.TrimSpace(s[start:]))
}
