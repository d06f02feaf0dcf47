package expr

import (
	"strconv"
	"strings"

	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/function"
	"go.trai.ch/zerr"
)

func (c *Context) hashFilesFunc() function.Function {
	return function.New(&function.Spec{
		VarParam: &function.Parameter{Name: "patterns", Type: cty.String},
		Type:     function.StaticReturnType(cty.String),
		Impl: func(args []cty.Value, _ cty.Type) (cty.Value, error) {
			if c.Hasher == nil {
				return cty.StringVal(""), nil
			}
			patterns := make([]string, 0, len(args))
			for _, arg := range args {
				patterns = append(patterns, arg.AsString())
			}
			digest, err := c.Hasher.HashFiles(c.Workspace, patterns)
			if err != nil {
				return cty.NilVal, err
			}
			return cty.StringVal(digest), nil
		},
	})
}

var containsFunc = function.New(&function.Spec{
	Params: []function.Parameter{
		{Name: "search", Type: cty.DynamicPseudoType},
		{Name: "item", Type: cty.DynamicPseudoType},
	},
	Type: function.StaticReturnType(cty.Bool),
	Impl: func(args []cty.Value, _ cty.Type) (cty.Value, error) {
		search, item := args[0], args[1]
		needle, err := toString(item)
		if err != nil {
			return cty.NilVal, err
		}

		ty := search.Type()
		if ty.IsListType() || ty.IsTupleType() || ty.IsSetType() {
			for it := search.ElementIterator(); it.Next(); {
				_, elem := it.Element()
				s, err := toString(elem)
				if err != nil {
					continue
				}
				if strings.EqualFold(s, needle) {
					return cty.True, nil
				}
			}
			return cty.False, nil
		}

		haystack, err := toString(search)
		if err != nil {
			return cty.NilVal, err
		}
		return cty.BoolVal(strings.Contains(strings.ToLower(haystack), strings.ToLower(needle))), nil
	},
})

var startsWithFunc = stringPredicate(strings.HasPrefix)

var endsWithFunc = stringPredicate(strings.HasSuffix)

func stringPredicate(pred func(s, affix string) bool) function.Function {
	return function.New(&function.Spec{
		Params: []function.Parameter{
			{Name: "str", Type: cty.String},
			{Name: "value", Type: cty.String},
		},
		Type: function.StaticReturnType(cty.Bool),
		Impl: func(args []cty.Value, _ cty.Type) (cty.Value, error) {
			s := strings.ToLower(args[0].AsString())
			affix := strings.ToLower(args[1].AsString())
			return cty.BoolVal(pred(s, affix)), nil
		},
	})
}

// formatFunc replaces {N} placeholders with the N-th argument; {{ and }}
// produce literal braces.
var formatFunc = function.New(&function.Spec{
	Params:   []function.Parameter{{Name: "format", Type: cty.String}},
	VarParam: &function.Parameter{Name: "args", Type: cty.DynamicPseudoType, AllowNull: true},
	Type:     function.StaticReturnType(cty.String),
	Impl: func(args []cty.Value, _ cty.Type) (cty.Value, error) {
		format := args[0].AsString()
		values := make([]string, 0, len(args)-1)
		for _, arg := range args[1:] {
			s, err := toString(arg)
			if err != nil {
				return cty.NilVal, err
			}
			values = append(values, s)
		}

		var b strings.Builder
		for i := 0; i < len(format); i++ {
			ch := format[i]
			switch {
			case ch == '{' && i+1 < len(format) && format[i+1] == '{':
				b.WriteByte('{')
				i++
			case ch == '}' && i+1 < len(format) && format[i+1] == '}':
				b.WriteByte('}')
				i++
			case ch == '{':
				end := strings.IndexByte(format[i:], '}')
				if end < 0 {
					return cty.NilVal, zerr.With(zerr.New("unclosed placeholder"), "format", format)
				}
				idx, err := strconv.Atoi(format[i+1 : i+end])
				if err != nil || idx < 0 || idx >= len(values) {
					return cty.NilVal, zerr.With(zerr.New("invalid placeholder"), "placeholder", format[i:i+end+1])
				}
				b.WriteString(values[idx])
				i += end
			default:
				b.WriteByte(ch)
			}
		}
		return cty.StringVal(b.String()), nil
	},
})
