package compiler

import (
	"github.com/hexe-lang/hexe/object"
)

// Symbol is a named value bound to a register.
type Symbol struct {
	Name     string
	Register uint16
	Depth    int
	Mutable  bool
	Type     object.Type
}

// SymbolTable tracks the symbols of one function. Scopes nest by depth;
// leaving a scope removes every symbol declared at that depth.
type SymbolTable struct {
	byName map[string]*Symbol
	scopes [][]*Symbol
}

// NewSymbolTable returns a table with a single, outermost scope.
func NewSymbolTable() *SymbolTable {
	return &SymbolTable{
		byName: map[string]*Symbol{},
		scopes: [][]*Symbol{nil},
	}
}

// Depth returns the depth of the innermost scope. The outermost scope has
// depth zero.
func (t *SymbolTable) Depth() int {
	return len(t.scopes) - 1
}

// Enter starts a nested scope.
func (t *SymbolTable) Enter() {
	t.scopes = append(t.scopes, nil)
}

// Leave ends the innermost scope and returns the symbols it declared.
func (t *SymbolTable) Leave() []*Symbol {
	last := len(t.scopes) - 1
	removed := t.scopes[last]
	t.scopes = t.scopes[:last]
	for _, s := range removed {
		delete(t.byName, s.Name)
	}
	return removed
}

// Get returns the symbol visible under name.
func (t *SymbolTable) Get(name string) (*Symbol, bool) {
	s, ok := t.byName[name]
	return s, ok
}

// Insert declares a symbol in the innermost scope. It returns false, and
// changes nothing, if the name is already visible.
func (t *SymbolTable) Insert(name string, reg uint16, mutable bool, typ object.Type) (*Symbol, bool) {
	if _, exists := t.byName[name]; exists {
		return nil, false
	}
	s := &Symbol{Name: name, Register: reg, Depth: t.Depth(), Mutable: mutable, Type: typ}
	t.byName[name] = s
	t.scopes[len(t.scopes)-1] = append(t.scopes[len(t.scopes)-1], s)
	return s, true
}

// Names returns every visible name.
func (t *SymbolTable) Names() []string {
	names := make([]string, 0, len(t.byName))
	for name := range t.byName {
		names = append(names, name)
	}
	return names
}
