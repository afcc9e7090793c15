package filter

import (
	"strings"
)

// Predicate is a boolean expression over the product table aliased as p.
// It renders to a WHERE fragment with named parameters.
type Predicate interface {
	render(b *binder) string
}

type andNode []Predicate

type orNode []Predicate

// leaf renders a single condition, binding its arguments as it goes.
type leaf func(b *binder) string

func (l leaf) render(b *binder) string {
	return l(b)
}

func (n andNode) render(b *binder) string {
	return renderJoined(n, " AND ", b)
}

func (n orNode) render(b *binder) string {
	return renderJoined(n, " OR ", b)
}

func renderJoined(ps []Predicate, sep string, b *binder) string {
	parts := make([]string, 0, len(ps))
	for _, p := range ps {
		switch p.(type) {
		case andNode, orNode:
			parts = append(parts, "("+p.render(b)+")")
		default:
			parts = append(parts, p.render(b))
		}
	}
	return strings.Join(parts, sep)
}

// And combines predicates, dropping nils. It returns nil when nothing is left.
func And(ps ...Predicate) Predicate {
	out := make(andNode, 0, len(ps))
	for _, p := range ps {
		switch v := p.(type) {
		case nil:
		case andNode:
			out = append(out, v...)
		default:
			out = append(out, p)
		}
	}
	return collapse(out, func(n []Predicate) Predicate { return andNode(n) })
}

// Or combines predicates, dropping nils. It returns nil when nothing is left.
func Or(ps ...Predicate) Predicate {
	out := make(orNode, 0, len(ps))
	for _, p := range ps {
		switch v := p.(type) {
		case nil:
		case orNode:
			out = append(out, v...)
		default:
			out = append(out, p)
		}
	}
	return collapse(out, func(n []Predicate) Predicate { return orNode(n) })
}

func collapse(ps []Predicate, wrap func([]Predicate) Predicate) Predicate {
	switch len(ps) {
	case 0:
		return nil
	case 1:
		return ps[0]
	default:
		return wrap(ps)
	}
}

// MatchNone never matches a row.
func MatchNone() Predicate {
	return leaf(func(*binder) string { return "1 = 0" })
}

// Where renders p into a SQL condition and its named parameters.
// A nil predicate renders as a tautology.
func Where(p Predicate) (string, map[string]any) {
	b := &binder{params: map[string]any{}}
	if p == nil {
		return "1 = 1", b.params
	}
	return p.render(b), b.params
}

// binder hands out parameter names. Names use letters only (pa, pb, ..., pz, pba)
// so they never clash with the store's own named parameters.
type binder struct {
	params map[string]any
	n      int
}

func (b *binder) bind(v any) string {
	name := "p" + letters(b.n)
	b.n++
	b.params[name] = v
	return ":" + name
}

func letters(n int) string {
	if n < 26 {
		return string(rune('a' + n))
	}
	return letters(n/26) + string(rune('a'+n%26))
}
