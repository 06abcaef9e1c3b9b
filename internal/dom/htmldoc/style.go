package htmldoc

import (
	"math"
	"strconv"
	"strings"

	"github.com/aymerick/douceur/parser"
)

type declaration struct {
	property  string
	value     string
	important bool
}

// inlineStyle is the ordered list of declarations of a style attribute.
type inlineStyle []declaration

// parseStyle parses the value of a style attribute. Declarations that do
// not parse are skipped.
func parseStyle(s string) inlineStyle {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	// douceur only commits a declaration at ";" or "}", so the attribute is
	// parsed as a block.
	decls, err := parser.ParseDeclarations("{" + s + "}")
	if err != nil {
		decls = nil
		for _, chunk := range strings.Split(s, ";") {
			if strings.TrimSpace(chunk) == "" {
				continue
			}
			d, err := parser.ParseDeclarations("{" + chunk + "}")
			if err != nil {
				continue
			}
			decls = append(decls, d...)
		}
	}
	st := make(inlineStyle, 0, len(decls))
	for _, d := range decls {
		if d.Property == "" {
			continue
		}
		v := strings.TrimSpace(d.Value)
		important := d.Important
		if lv := strings.ToLower(v); strings.HasSuffix(lv, "!important") {
			v = strings.TrimSpace(v[:len(v)-len("!important")])
			important = true
		}
		st.setPriority(d.Property, v, important)
	}
	return st
}

func (st inlineStyle) index(prop string) int {
	prop = strings.ToLower(strings.TrimSpace(prop))
	for i, d := range st {
		if d.property == prop {
			return i
		}
	}
	return -1
}

func (st inlineStyle) get(prop string) string {
	if i := st.index(prop); i >= 0 {
		return st[i].value
	}
	return ""
}

func (st inlineStyle) important(prop string) bool {
	if i := st.index(prop); i >= 0 {
		return st[i].important
	}
	return false
}

// set replaces the value of prop and clears its priority. An empty value
// removes the declaration.
func (st *inlineStyle) set(prop, value string) {
	st.setPriority(prop, value, false)
}

func (st *inlineStyle) setPriority(prop, value string, important bool) {
	prop = strings.ToLower(strings.TrimSpace(prop))
	value = strings.TrimSpace(value)
	i := st.index(prop)
	switch {
	case value == "" && i >= 0:
		*st = append((*st)[:i:i], (*st)[i+1:]...)
	case value == "":
	case i >= 0:
		(*st)[i].value = value
		(*st)[i].important = important
	default:
		*st = append(*st, declaration{property: prop, value: value, important: important})
	}
}

func (st inlineStyle) String() string {
	parts := make([]string, 0, len(st))
	for _, d := range st {
		s := d.property + ": " + d.value
		if d.important {
			s += " !important"
		}
		parts = append(parts, s)
	}
	return strings.Join(parts, "; ")
}

// pixels parses a CSS length in px. Unitless numbers are accepted.
func pixels(v string) (float64, bool) {
	v = strings.TrimSpace(strings.ToLower(v))
	v = strings.TrimSuffix(v, "px")
	if v == "" {
		return 0, false
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}
