// Package expr evaluates ${{ }} expressions embedded in workflow strings.
package expr

import (
	"strings"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/hclsyntax"
	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/convert"
	"github.com/zclconf/go-cty/cty/function"
	"go.trai.ch/matrix/internal/core/domain"
	"go.trai.ch/matrix/internal/core/ports"
	"go.trai.ch/zerr"
)

const (
	openDelim  = "${{"
	closeDelim = "}}"
)

// Runner describes the host a job runs on, exposed as the runner context.
type Runner struct {
	OS   string
	Arch string
	Temp string
	Name string
}

// Context holds the values visible to an expression.
type Context struct {
	Matrix    map[string]string
	Env       map[string]string
	Runner    Runner
	Steps     map[string]map[string]string
	JobStatus string

	// Workspace is the directory hashFiles() resolves patterns against.
	Workspace string
	Hasher    ports.Hasher
}

// Interpolate replaces every ${{ }} segment of s with its evaluated value.
func (c *Context) Interpolate(s string) (string, error) {
	if !strings.Contains(s, openDelim) {
		return s, nil
	}

	var b strings.Builder
	rest := s
	for {
		start := strings.Index(rest, openDelim)
		if start < 0 {
			b.WriteString(rest)
			return b.String(), nil
		}
		b.WriteString(rest[:start])

		body := rest[start+len(openDelim):]
		end := closingIndex(body)
		if end < 0 {
			return "", zerr.With(domain.ErrUnterminatedExpression, "input", s)
		}

		val, err := c.Eval(body[:end])
		if err != nil {
			return "", err
		}
		str, err := toString(val)
		if err != nil {
			return "", zerr.With(zerr.Wrap(err, domain.ErrExpressionEvalFailed.Error()), "expression", body[:end])
		}
		b.WriteString(str)
		rest = body[end+len(closeDelim):]
	}
}

// InterpolateMap interpolates every value of m into a new map.
func (c *Context) InterpolateMap(m map[string]string) (map[string]string, error) {
	out := make(map[string]string, len(m))
	for k, v := range m {
		s, err := c.Interpolate(v)
		if err != nil {
			return nil, zerr.With(err, "key", k)
		}
		out[k] = s
	}
	return out, nil
}

// Condition evaluates an if: expression. The ${{ }} wrapper is optional and
// an empty condition is true.
func (c *Context) Condition(s string) (bool, error) {
	src := strings.TrimSpace(s)
	if src == "" {
		return true, nil
	}
	if strings.HasPrefix(src, openDelim) && strings.HasSuffix(src, closeDelim) {
		inner := src[len(openDelim) : len(src)-len(closeDelim)]
		if closingIndex(inner) < 0 {
			src = inner
		}
	}
	if strings.Contains(src, openDelim) {
		str, err := c.Interpolate(src)
		if err != nil {
			return false, err
		}
		return truthy(cty.StringVal(str)), nil
	}

	val, err := c.Eval(src)
	if err != nil {
		return false, err
	}
	return truthy(val), nil
}

// Eval evaluates a single expression without the ${{ }} wrapper.
func (c *Context) Eval(src string) (cty.Value, error) {
	translated := translateQuotes(strings.TrimSpace(src))

	parsed, diags := hclsyntax.ParseExpression([]byte(translated), "expression", hcl.InitialPos)
	if diags.HasErrors() {
		return cty.NilVal, zerr.With(zerr.Wrap(diags, domain.ErrExpressionParseFailed.Error()), "expression", src)
	}

	evalCtx := &hcl.EvalContext{
		Variables: c.variables(parsed.Variables()),
		Functions: c.functions(),
	}
	val, diags := parsed.Value(evalCtx)
	if diags.HasErrors() {
		return cty.NilVal, zerr.With(zerr.Wrap(diags, domain.ErrExpressionEvalFailed.Error()), "expression", src)
	}
	return val, nil
}

// variables builds the root objects of the evaluation context. Attributes
// referenced by the expression but absent from the context evaluate to an
// empty string.
func (c *Context) variables(refs []hcl.Traversal) map[string]cty.Value {
	steps := make(tree, len(c.Steps))
	for id, outputs := range c.Steps {
		steps[id] = tree{"outputs": fromStrings(outputs)}
	}

	roots := map[string]tree{
		"matrix": fromStrings(c.Matrix),
		"env":    fromStrings(c.Env),
		"runner": {
			"os":   c.Runner.OS,
			"arch": c.Runner.Arch,
			"temp": c.Runner.Temp,
			"name": c.Runner.Name,
		},
		"steps": steps,
		"job":   {"status": c.JobStatus},
	}

	for _, ref := range refs {
		root, ok := roots[ref.RootName()]
		if !ok {
			continue
		}
		root.fill(ref[1:])
	}

	vars := make(map[string]cty.Value, len(roots))
	for name, t := range roots {
		vars[name] = t.value()
	}
	return vars
}

func (c *Context) functions() map[string]function.Function {
	return map[string]function.Function{
		"hashFiles":  c.hashFilesFunc(),
		"contains":   containsFunc,
		"startsWith": startsWithFunc,
		"endsWith":   endsWithFunc,
		"format":     formatFunc,
	}
}

// tree is a nested string-keyed object whose leaves are strings.
type tree map[string]any

func fromStrings(m map[string]string) tree {
	t := make(tree, len(m))
	for k, v := range m {
		t[k] = v
	}
	return t
}

func (t tree) fill(path hcl.Traversal) {
	cur := t
	for i, step := range path {
		name, ok := stepName(step)
		if !ok {
			return
		}
		next, exists := cur[name]
		if i == len(path)-1 {
			if !exists {
				cur[name] = ""
			}
			return
		}
		if !exists {
			child := tree{}
			cur[name] = child
			cur = child
			continue
		}
		child, isTree := next.(tree)
		if !isTree {
			return
		}
		cur = child
	}
}

func (t tree) value() cty.Value {
	if len(t) == 0 {
		return cty.EmptyObjectVal
	}
	attrs := make(map[string]cty.Value, len(t))
	for k, v := range t {
		switch v := v.(type) {
		case tree:
			attrs[k] = v.value()
		case string:
			attrs[k] = cty.StringVal(v)
		}
	}
	return cty.ObjectVal(attrs)
}

func stepName(step hcl.Traverser) (string, bool) {
	switch s := step.(type) {
	case hcl.TraverseAttr:
		return s.Name, true
	case hcl.TraverseIndex:
		if s.Key.Type() == cty.String && s.Key.IsKnown() && !s.Key.IsNull() {
			return s.Key.AsString(), true
		}
	}
	return "", false
}

// closingIndex returns the index of the }} closing an expression body,
// ignoring braces inside quoted strings.
func closingIndex(body string) int {
	var quote byte
	for i := 0; i < len(body); i++ {
		ch := body[i]
		switch {
		case quote != 0:
			if ch == quote {
				quote = 0
			}
		case ch == '\'' || ch == '"':
			quote = ch
		case strings.HasPrefix(body[i:], closeDelim):
			return i
		}
	}
	return -1
}

// translateQuotes rewrites single-quoted literals, where a doubled quote escapes a quote, as HCL
// double-quoted strings.
func translateQuotes(src string) string {
	if !strings.Contains(src, "'") {
		return src
	}

	var b strings.Builder
	for i := 0; i < len(src); i++ {
		ch := src[i]
		switch ch {
		case '"':
			end := strings.IndexByte(src[i+1:], '"')
			if end < 0 {
				b.WriteString(src[i:])
				return b.String()
			}
			b.WriteString(src[i : i+end+2])
			i += end + 1
		case '\'':
			var lit strings.Builder
			j := i + 1
			for ; j < len(src); j++ {
				if src[j] != '\'' {
					lit.WriteByte(src[j])
					continue
				}
				if j+1 < len(src) && src[j+1] == '\'' {
					lit.WriteByte('\'')
					j++
					continue
				}
				break
			}
			b.WriteString(quoteHCL(lit.String()))
			i = j
		default:
			b.WriteByte(ch)
		}
	}
	return b.String()
}

var hclEscaper = strings.NewReplacer(
	`\`, `\\`,
	`"`, `\"`,
	"\n", `\n`,
	"${", "$${",
	"%{", "%%{",
)

func quoteHCL(s string) string {
	return `"` + hclEscaper.Replace(s) + `"`
}

func toString(val cty.Value) (string, error) {
	if val.IsNull() {
		return "", nil
	}
	if !val.IsWhollyKnown() {
		return "", nil
	}
	if val.Type() == cty.Bool {
		if val.True() {
			return "true", nil
		}
		return "false", nil
	}
	str, err := convert.Convert(val, cty.String)
	if err != nil {
		return "", err
	}
	return str.AsString(), nil
}

func truthy(val cty.Value) bool {
	if val.IsNull() || !val.IsKnown() {
		return false
	}
	switch val.Type() {
	case cty.Bool:
		return val.True()
	case cty.String:
		return val.AsString() != ""
	case cty.Number:
		return !val.Equals(cty.Zero).True()
	}
	return true
}
