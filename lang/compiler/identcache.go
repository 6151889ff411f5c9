package compiler

import "github.com/dolthub/swiss"

// stringUint8Map wraps a swiss-table map for the identifier-constant
// dedup cache: a dependency repointed from backing the language's
// user-level map/dictionary value onto a purely internal compiler
// bookkeeping table instead (see DESIGN.md).
type stringUint8Map struct {
	m *swiss.Map[string, uint8]
}

func newStringUint8Map() *stringUint8Map {
	return &stringUint8Map{m: swiss.NewMap[string, uint8](8)}
}

func (s *stringUint8Map) Get(key string) (uint8, bool) { return s.m.Get(key) }
func (s *stringUint8Map) Put(key string, val uint8) { s.m.Put(key, val) }
