package agreement

// BinValues is a subset of {false, true}: the per-epoch lattice element
// that tracks which bits have crossed the 2f+1 BVAL threshold. It has
// exactly four inhabitants — None, Only(false), Only(true), Both — so it
// is represented as a 2-bit mask rather than a Go map or slice, the way the
// teacher favors small closed enumerations (SSFRoundPhase in
// ssf_round_engine.go) over open-ended types for protocol-closed sets.
type BinValues uint8

const (
	// BinNone is the empty set.
	BinNone BinValues = 0
	// bit masks, not exported: callers use Insert/Contains/Definite.
	binFalseBit BinValues = 1 << 0
	binTrueBit  BinValues = 1 << 1
	// BinBoth contains both false and true.
	BinBoth BinValues = binFalseBit | binTrueBit
)

func bitFor(b bool) BinValues {
	if b {
		return binTrueBit
	}
	return binFalseBit
}

// Insert adds b to the set and reports whether the set changed.
func (v *BinValues) Insert(b bool) bool {
	bit := bitFor(b)
	if *v&bit != 0 {
		return false
	}
	*v |= bit
	return true
}

// Contains reports whether b is a member of the set.
func (v BinValues) Contains(b bool) bool {
	return v&bitFor(b) != 0
}

// IsSubset reports whether v is a subset of other.
func (v BinValues) IsSubset(other BinValues) bool {
	return v&other == v
}

// Definite returns the set's sole element and true if the set is a
// singleton ({false} or {true}); otherwise it returns false, false.
func (v BinValues) Definite() (bool, bool) {
	switch v {
	case binFalseBit:
		return false, true
	case binTrueBit:
		return true, true
	default:
		return false, false
	}
}

// Clear resets the set to None.
func (v *BinValues) Clear() {
	*v = BinNone
}

// Union returns the union of a collection of BinValues. If
// every element of vs is a subset of some common superset S, the result is
// also a subset of S — the invariant the spec calls out in §3.
func Union(vs ...BinValues) BinValues {
	var out BinValues
	for _, v := range vs {
		out |= v
	}
	return out
}

// String renders the set in standard set notation, for logging.
func (v BinValues) String() string {
	switch v {
	case BinNone:
		return "{}"
	case binFalseBit:
		return "{false}"
	case binTrueBit:
		return "{true}"
	case BinBoth:
		return "{false,true}"
	default:
		return "{?}"
	}
}
