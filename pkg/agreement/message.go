package agreement

import "fmt"

// ContentKind distinguishes the three message kinds of the protocol. It is
// a closed tagged variant: BVal, Aux, and Conf are the only inhabitants the
// protocol ever produces, so — following the teacher's preference for
// small closed enums over interface hierarchies — AgreementContent carries
// a ContentKind tag plus the one payload field relevant to that kind,
// instead of three separate message types behind an interface.
type ContentKind uint8

const (
	// KindBVal tags a BVal(bit) message.
	KindBVal ContentKind = iota
	// KindAux tags an Aux(bit) message.
	KindAux
	// KindConf tags a Conf(BinValues) message.
	KindConf
)

// String returns the wire name of the content kind.
func (k ContentKind) String() string {
	switch k {
	case KindBVal:
		return "BVal"
	case KindAux:
		return "Aux"
	case KindConf:
		return "Conf"
	default:
		return "Unknown"
	}
}

// AgreementContent is the payload of an AgreementMessage: BVal(bool),
// Aux(bool), or Conf(BinValues), disambiguated by Kind. Bit is meaningful
// for KindBVal/KindAux; Conf is meaningful for KindConf.
type AgreementContent struct {
	Kind ContentKind
	Bit  bool
	Conf BinValues
}

// BVal constructs a BVal(b) content.
func BVal(b bool) AgreementContent { return AgreementContent{Kind: KindBVal, Bit: b} }

// Aux constructs an Aux(b) content.
func Aux(b bool) AgreementContent { return AgreementContent{Kind: KindAux, Bit: b} }

// Conf constructs a Conf(v) content.
func Conf(v BinValues) AgreementContent { return AgreementContent{Kind: KindConf, Conf: v} }

// Compare returns -1, 0, or 1 comparing two contents by (Kind, payload),
// giving AgreementMessage a total, deterministic order for reproducible
// test comparisons and canonical snapshots, as the spec requires.
func (c AgreementContent) Compare(other AgreementContent) int {
	if c.Kind != other.Kind {
		if c.Kind < other.Kind {
			return -1
		}
		return 1
	}
	switch c.Kind {
	case KindBVal, KindAux:
		return compareBool(c.Bit, other.Bit)
	case KindConf:
		return compareUint8(uint8(c.Conf), uint8(other.Conf))
	default:
		return 0
	}
}

func compareBool(a, b bool) int {
	if a == b {
		return 0
	}
	if !a && b {
		return -1
	}
	return 1
}

func compareUint8(a, b uint8) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

// String renders the content for logging.
func (c AgreementContent) String() string {
	switch c.Kind {
	case KindBVal:
		return fmt.Sprintf("BVal(%v)", c.Bit)
	case KindAux:
		return fmt.Sprintf("Aux(%v)", c.Bit)
	case KindConf:
		return fmt.Sprintf("Conf(%s)", c.Conf)
	default:
		return "Unknown"
	}
}

// AgreementMessage is a (epoch, content) pair. Messages are
// equality-comparable (plain struct equality — all fields are comparable)
// and order-comparable via Compare, in canonical lexicographic order over
// (epoch, content), as the spec's wire format requires for deterministic
// snapshots.
type AgreementMessage struct {
	Epoch   uint32
	Content AgreementContent
}

// Compare returns -1, 0, or 1 comparing two messages by (Epoch, Content).
func (m AgreementMessage) Compare(other AgreementMessage) int {
	if m.Epoch != other.Epoch {
		if m.Epoch < other.Epoch {
			return -1
		}
		return 1
	}
	return m.Content.Compare(other.Content)
}

// String renders the message for logging.
func (m AgreementMessage) String() string {
	return fmt.Sprintf("epoch=%d %s", m.Epoch, m.Content)
}

// Target identifies the intended recipients of an outbound message. The
// agreement core only ever broadcasts, so All is the sole inhabitant today
// — modeled as a closed enum (rather than a bare bool or an open interface)
// so a future per-peer target is a non-breaking addition.
type Target uint8

// TargetAll addresses every peer, including the sender.
const TargetAll Target = 0

// String renders the target for logging.
func (t Target) String() string {
	switch t {
	case TargetAll:
		return "All"
	default:
		return "Unknown"
	}
}

// TargetedMessage pairs an outbound AgreementMessage with its Target. This
// is what next_message() hands to the transport collaborator.
type TargetedMessage struct {
	Target  Target
	Message AgreementMessage
}
