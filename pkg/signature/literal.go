// Copyright 2025 KrakLabs
// SPDX-License-Identifier: AGPL-3.0-or-later

package signature

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// QuoteString renders s as a Python string literal in repr form: single
// quotes unless the text contains a single quote and no double quote.
func QuoteString(s string) string {
	quote := byte('\'')
	if strings.ContainsRune(s, '\'') && !strings.ContainsRune(s, '"') {
		quote = '"'
	}

	var b strings.Builder
	b.WriteByte(quote)
	for _, r := range s {
		switch r {
		case '\\':
			b.WriteString(`\\`)
		case '\n':
			b.WriteString(`\n`)
		case '\r':
			b.WriteString(`\r`)
		case '\t':
			b.WriteString(`\t`)
		case rune(quote):
			b.WriteByte('\\')
			b.WriteRune(r)
		default:
			if r < 0x20 || r == 0x7f {
				fmt.Fprintf(&b, `\x%02x`, r)
				continue
			}
			b.WriteRune(r)
		}
	}
	b.WriteByte(quote)
	return b.String()
}

// UnquoteString decodes a Python string literal, including triple-quoted and
// raw forms. Byte and f-string prefixes are rejected because their value is
// not a plain string.
func UnquoteString(lit string) (string, error) {
	raw := false
	i := 0
	for i < len(lit) && strings.ContainsRune("rRuUbBfF", rune(lit[i])) {
		switch lit[i] {
		case 'r', 'R':
			raw = true
		case 'b', 'B', 'f', 'F':
			return "", fmt.Errorf("unsupported string prefix in %s", lit)
		}
		i++
	}
	body := lit[i:]

	var q string
	switch {
	case strings.HasPrefix(body, `"""`), strings.HasPrefix(body, `'''`):
		q = body[:3]
	case strings.HasPrefix(body, `"`), strings.HasPrefix(body, `'`):
		q = body[:1]
	default:
		return "", fmt.Errorf("not a string literal: %s", lit)
	}
	if len(body) < 2*len(q) || !strings.HasSuffix(body, q) {
		return "", fmt.Errorf("unterminated string literal: %s", lit)
	}
	body = body[len(q) : len(body)-len(q)]
	if raw {
		return body, nil
	}
	return unescape(body)
}

func unescape(s string) (string, error) {
	if !strings.ContainsRune(s, '\\') {
		return s, nil
	}
	var b strings.Builder
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c != '\\' || i+1 == len(s) {
			b.WriteByte(c)
			continue
		}
		i++
		switch s[i] {
		case 'n':
			b.WriteByte('\n')
		case 't':
			b.WriteByte('\t')
		case 'r':
			b.WriteByte('\r')
		case '0':
			b.WriteByte(0)
		case '\\', '\'', '"':
			b.WriteByte(s[i])
		case '\n':
			// line continuation
		case 'x':
			if i+2 >= len(s) {
				return "", fmt.Errorf("truncated \\x escape")
			}
			n, err := strconv.ParseUint(s[i+1:i+3], 16, 8)
			if err != nil {
				return "", fmt.Errorf("invalid \\x escape: %w", err)
			}
			b.WriteRune(rune(n))
			i += 2
		default:
			b.WriteByte('\\')
			b.WriteByte(s[i])
		}
	}
	return b.String(), nil
}

// NumberValue converts a Python numeric literal to int or float64.
func NumberValue(lit string) (any, error) {
	clean := strings.ReplaceAll(lit, "_", "")
	if n, err := strconv.ParseInt(clean, 0, 64); err == nil {
		return int(n), nil
	}
	f, err := strconv.ParseFloat(clean, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid number %q", lit)
	}
	return f, nil
}

// Repr renders a Go value the way Python's repr would render the equivalent
// literal. Expr values render as their source text.
func Repr(v any) string {
	switch x := v.(type) {
	case nil:
		return "None"
	case bool:
		if x {
			return "True"
		}
		return "False"
	case string:
		return QuoteString(x)
	case Expr:
		return string(x)
	case int:
		return strconv.Itoa(x)
	case float64:
		return formatFloat(x)
	case []any:
		parts := make([]string, len(x))
		for i, e := range x {
			parts[i] = Repr(e)
		}
		return "[" + strings.Join(parts, ", ") + "]"
	case Tuple:
		parts := make([]string, len(x))
		for i, e := range x {
			parts[i] = Repr(e)
		}
		if len(parts) == 1 {
			return "(" + parts[0] + ",)"
		}
		return "(" + strings.Join(parts, ", ") + ")"
	case map[string]any:
		keys := make([]string, 0, len(x))
		for k := range x {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		parts := make([]string, len(keys))
		for i, k := range keys {
			parts[i] = QuoteString(k) + ": " + Repr(x[k])
		}
		return "{" + strings.Join(parts, ", ") + "}"
	default:
		return fmt.Sprint(v)
	}
}

// Tuple is the Go value of a Python tuple literal.
type Tuple []any

func formatFloat(f float64) string {
	s := strconv.FormatFloat(f, 'g', -1, 64)
	if !strings.ContainsAny(s, ".eEn") {
		s += ".0"
	}
	return s
}
