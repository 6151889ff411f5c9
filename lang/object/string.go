package object

// String is an immutable byte sequence with a cached FNV-1a hash,
// canonicalised via the Heap's interning table so content-equal strings
// are pointer-equal. Construct one only through
// Heap.InternString; never with &String{} directly, or interning and GC
// rooting invariants break.
type String struct {
	header
	Chars string
	Hash  uint32
}

var _ Obj = (*String)(nil)

func (s *String) String() string { return s.Chars }
func (s *String) Type() string   { return "string" }

// HashString computes the 32-bit FNV-1a hash of s.
func HashString(s string) uint32 {
	var h uint32 = 2166136261
	for i := 0; i < len(s); i++ {
		h ^= uint32(s[i])
		h *= 16777619
	}
	return h
}
