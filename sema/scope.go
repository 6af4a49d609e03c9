package sema

import (
	"github.com/hexe-lang/hexe/internal/token"
	"github.com/hexe-lang/hexe/object"
)

type symbol struct {
	name     string
	typ      object.Type
	constant bool
	counter  bool
	pos      token.Position
}

// scope is one level of the lexical scope chain. Function bodies start a new
// chain, so top-level names are not visible inside functions.
type scope struct {
	parent  *scope
	symbols map[string]*symbol
}

func newScope(parent *scope) *scope {
	return &scope{parent: parent, symbols: map[string]*symbol{}}
}

func (s *scope) lookup(name string) (*symbol, bool) {
	for cur := s; cur != nil; cur = cur.parent {
		if sym, ok := cur.symbols[name]; ok {
			return sym, true
		}
	}
	return nil, false
}

func (s *scope) insert(sym *symbol) {
	s.symbols[sym.name] = sym
}

// names returns every name visible from s.
func (s *scope) names() []string {
	var result []string
	for cur := s; cur != nil; cur = cur.parent {
		for name := range cur.symbols {
			result = append(result, name)
		}
	}
	return result
}
