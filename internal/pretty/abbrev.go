package pretty

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

// Abbrev returns a Stringer of s which is cut short when longer than a
// maximum length. With no ranges, strings over 12 runes are cut to 12. With
// one, it is both the max length and the cut length. With two, they are the
// max length and the cut length.
func Abbrev(s string, ranges ...int) Abbreviated {
	MaxLen := 12
	CutTo := 12
	if len(ranges) >= 2 {
		MaxLen, CutTo = ranges[0], ranges[1]
	} else if len(ranges) == 1 {
		MaxLen, CutTo = ranges[0], ranges[0]
	}
	return Abbreviated{
		Original: s,
		MaxLen:   MaxLen,
		CutTo:    CutTo,
	}
}

type Abbreviated struct {
	Original string
	MaxLen   int
	CutTo    int
}

func (s Abbreviated) String() string {
	if utf8.RuneCountInString(s.Original) <= s.MaxLen {
		return s.Original
	}
	cut := 0
	for i := 0; i < s.CutTo && cut < len(s.Original); i++ {
		_, size := utf8.DecodeRuneInString(s.Original[cut:])
		cut += size
	}
	return s.Original[:cut] + "…"
}

// Params formats call params for logging, abbreviating each one.
func Params(params []interface{}) string {
	parts := make([]string, 0, len(params))
	for _, p := range params {
		var s string
		switch v := p.(type) {
		case string:
			s = fmt.Sprintf("%q", Abbrev(v, 32, 30).String())
		case []byte:
			s = fmt.Sprintf("base64(%d bytes)", len(v))
		default:
			s = Abbrev(fmt.Sprintf("%v", v), 32, 30).String()
		}
		parts = append(parts, s)
	}
	return "(" + strings.Join(parts, ", ") + ")"
}
