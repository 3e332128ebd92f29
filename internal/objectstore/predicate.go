package objectstore

import (
	"fmt"
	"strings"
	"sync"
	"unicode"

	exprlang "github.com/expr-lang/expr"
	exprvm "github.com/expr-lang/expr/vm"

	"github.com/goliatone/go-kvcms/pkg/interfaces"
)

type parenKind int

const (
	parenPlain parenKind = iota
	parenValue
	parenList
)

// Translate rewrites a store filter into an expr-lang expression.
//
// Identifiers inside value(...) address fields of the object value and are
// emitted as optional-chained member access on `value`. Identifiers outside
// address top-level object fields (id, key, container, version).
func Translate(filter string) (string, error) {
	runes := []rune(strings.TrimSpace(filter))
	if len(runes) == 0 {
		return "", nil
	}

	var (
		out        strings.Builder
		parens     []parenKind
		valueDepth int
		lastWord   string
	)

	for i := 0; i < len(runes); {
		r := runes[i]
		next := rune(0)
		if i+1 < len(runes) {
			next = runes[i+1]
		}

		switch {
		case r == '"' || r == '\'':
			end, err := scanString(runes, i)
			if err != nil {
				return "", err
			}
			out.WriteString(string(runes[i:end]))
			i = end
			lastWord = ""
			continue
		case r == '(':
			kind := parenPlain
			open := "("
			if lastWord == "in" {
				kind = parenList
				open = "["
			}
			parens = append(parens, kind)
			out.WriteString(open)
			i++
		case r == ')':
			if len(parens) == 0 {
				return "", fmt.Errorf("%w: unbalanced parenthesis at %d", ErrFilterInvalid, i)
			}
			kind := parens[len(parens)-1]
			parens = parens[:len(parens)-1]
			switch kind {
			case parenValue:
				valueDepth--
				out.WriteRune(')')
			case parenList:
				out.WriteRune(']')
			default:
				out.WriteRune(')')
			}
			i++
		case r == '=':
			out.WriteString(" == ")
			if next == '=' {
				i += 2
			} else {
				i++
			}
		case r == '!' && next == '=':
			out.WriteString(" != ")
			i += 2
		case r == '<':
			switch next {
			case '>':
				out.WriteString(" != ")
				i += 2
			case '=':
				out.WriteString(" <= ")
				i += 2
			default:
				out.WriteString(" < ")
				i++
			}
		case r == '>':
			if next == '=' {
				out.WriteString(" >= ")
				i += 2
			} else {
				out.WriteString(" > ")
				i++
			}
		case isIdentStart(r):
			start := i
			for i < len(runes) && isIdentPart(runes[i]) {
				i++
			}
			word := string(runes[start:i])
			if word == "value" && nextNonSpace(runes, i) == '(' {
				for runes[i] != '(' {
					i++
				}
				i++
				parens = append(parens, parenValue)
				valueDepth++
				out.WriteRune('(')
				lastWord = ""
				continue
			}
			lastWord = ""
			switch strings.ToLower(word) {
			case "and", "or", "not", "in":
				lowered := strings.ToLower(word)
				out.WriteString(" " + lowered + " ")
				lastWord = lowered
				continue
			case "true", "false":
				out.WriteString(strings.ToLower(word))
				continue
			case "null", "nil":
				out.WriteString("nil")
				continue
			}
			if valueDepth > 0 {
				out.WriteString("value?." + strings.ReplaceAll(word, ".", "?."))
			} else {
				out.WriteString(strings.ReplaceAll(word, ".", "?."))
			}
			continue
		default:
			out.WriteRune(r)
			i++
		}
		if !unicode.IsSpace(r) {
			lastWord = ""
		}
	}

	if len(parens) != 0 {
		return "", fmt.Errorf("%w: unbalanced parenthesis", ErrFilterInvalid)
	}
	return collapseSpaces(out.String()), nil
}

// collapseSpaces squeezes whitespace runs outside string literals.
func collapseSpaces(src string) string {
	var (
		out   strings.Builder
		quote rune
		space bool
	)
	runes := []rune(strings.TrimSpace(src))
	for i := 0; i < len(runes); i++ {
		r := runes[i]
		if quote != 0 {
			out.WriteRune(r)
			switch r {
			case '\\':
				if i+1 < len(runes) {
					i++
					out.WriteRune(runes[i])
				}
			case quote:
				quote = 0
			}
			continue
		}
		if unicode.IsSpace(r) {
			space = true
			continue
		}
		if space {
			out.WriteRune(' ')
			space = false
		}
		if r == '"' || r == '\'' {
			quote = r
		}
		out.WriteRune(r)
	}
	return out.String()
}

func scanString(runes []rune, start int) (int, error) {
	quote := runes[start]
	for i := start + 1; i < len(runes); i++ {
		switch runes[i] {
		case '\\':
			i++
		case quote:
			return i + 1, nil
		}
	}
	return 0, fmt.Errorf("%w: unterminated string at %d", ErrFilterInvalid, start)
}

func nextNonSpace(runes []rune, from int) rune {
	for i := from; i < len(runes); i++ {
		if !unicode.IsSpace(runes[i]) {
			return runes[i]
		}
	}
	return 0
}

func isIdentStart(r rune) bool {
	return r == '_' || unicode.IsLetter(r)
}

func isIdentPart(r rune) bool {
	return r == '_' || r == '.' || unicode.IsLetter(r) || unicode.IsDigit(r)
}

// Predicate is a compiled filter.
type Predicate struct {
	source  string
	program *exprvm.Program
}

var programCache sync.Map

// CompilePredicate translates and compiles filter. An empty filter yields a
// predicate that matches every object. Compiled programs are cached by source.
func CompilePredicate(filter string) (*Predicate, error) {
	trimmed := strings.TrimSpace(filter)
	if trimmed == "" {
		return &Predicate{}, nil
	}
	if cached, ok := programCache.Load(trimmed); ok {
		return &Predicate{source: trimmed, program: cached.(*exprvm.Program)}, nil
	}
	translated, err := Translate(trimmed)
	if err != nil {
		return nil, err
	}
	program, err := exprlang.Compile(translated,
		exprlang.Env(map[string]any{}),
		exprlang.AllowUndefinedVariables(),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %q: %v", ErrFilterInvalid, trimmed, err)
	}
	programCache.Store(trimmed, program)
	return &Predicate{source: trimmed, program: program}, nil
}

// Match evaluates the predicate against obj.
func (p *Predicate) Match(obj *interfaces.StoredObject) (bool, error) {
	if p == nil || p.program == nil {
		return true, nil
	}
	if obj == nil {
		return false, nil
	}
	value := obj.Value
	if value == nil {
		value = map[string]any{}
	}
	env := map[string]any{
		"id":        obj.ID,
		"key":       obj.Key,
		"container": obj.Container,
		"version":   obj.Version,
		"value":     value,
	}
	result, err := exprlang.Run(p.program, env)
	if err != nil {
		return false, fmt.Errorf("%w: %q: %v", ErrFilterInvalid, p.source, err)
	}
	matched, ok := result.(bool)
	if !ok {
		return false, fmt.Errorf("%w: %q evaluated to %T", ErrFilterInvalid, p.source, result)
	}
	return matched, nil
}

// Filter returns the objects matched by the predicate, preserving order.
func (p *Predicate) Filter(objects []*interfaces.StoredObject) ([]*interfaces.StoredObject, error) {
	out := make([]*interfaces.StoredObject, 0, len(objects))
	for _, obj := range objects {
		ok, err := p.Match(obj)
		if err != nil {
			return nil, err
		}
		if ok {
			out = append(out, obj)
		}
	}
	return out, nil
}
