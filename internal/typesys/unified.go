package typesys

import (
	"strconv"
	"strings"

	"github.com/roach88/apigen/internal/ir"
)

// ParseUnified converts the dotted form produced by ir.Unified back to a
// canonical type. Used only at serialization boundaries.
func (u *Universe) ParseUnified(s string) (ir.Type, error) {
	toks := strings.Split(strings.TrimSpace(s), ".")
	pos := 0
	t, err := u.parseUnifiedTok(s, toks, &pos)
	if err != nil {
		return nil, err
	}
	if pos != len(toks) {
		return nil, syntaxErr(s, "trailing tokens %q", strings.Join(toks[pos:], "."))
	}
	return t, nil
}

func (u *Universe) parseUnifiedTok(src string, toks []string, pos *int) (ir.Type, error) {
	if *pos >= len(toks) {
		return nil, syntaxErr(src, "unexpected end")
	}
	tok := toks[*pos]
	*pos++

	next := func() (ir.Type, error) { return u.parseUnifiedTok(src, toks, pos) }

	switch tok {
	case ir.TokArray:
		elem, err := next()
		if err != nil {
			return nil, err
		}
		return ir.Array{Elem: elem}, nil
	case ir.TokMap:
		k, err := next()
		if err != nil {
			return nil, err
		}
		v, err := next()
		if err != nil {
			return nil, err
		}
		return ir.Map{Key: k, Value: v}, nil
	case ir.TokReference:
		inner, err := next()
		if err != nil {
			return nil, err
		}
		return ir.Reference{Inner: inner}, nil
	case ir.TokSelf:
		return ir.SelfEntity{}, nil
	case "":
		return nil, syntaxErr(src, "empty token")
	}

	for _, head := range []string{ir.TokCallback, ir.TokPredicate} {
		digits, ok := strings.CutPrefix(tok, head)
		if !ok || digits == "" {
			continue
		}
		n, err := strconv.Atoi(digits)
		if err != nil || n < 0 {
			break
		}
		params := make([]ir.Type, 0, n)
		for i := 0; i < n; i++ {
			p, err := next()
			if err != nil {
				return nil, err
			}
			params = append(params, p)
		}
		if head == ir.TokCallback {
			return ir.Callback{Params: params}, nil
		}
		return ir.Predicate{Params: params}, nil
	}

	return u.Named(tok)
}
