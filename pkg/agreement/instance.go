// Package agreement implements the core of a Binary Byzantine Agreement
// (BBA) instance following the asynchronous, signature-free construction of
// Mostéfaoui, Moumen, and Raynal: a deterministic per-epoch state machine
// that advances in response to a one-shot local input, inbound peer
// messages, and a common-coin oracle, eventually latching a decision bit
// that is safe and live under the usual N >= 3f+1 Byzantine-fault
// assumption.
//
// The package owns none of its collaborators: netinfo.NetInfo, coin.Coin,
// and the transport that drains NextMessage are all injected. Instance is
// not safe for concurrent use — see the doc comment on Instance for
// the single-threaded cooperative model this mirrors from the spec.
package agreement

import (
	"github.com/eth2030/bba/pkg/log"
	"github.com/eth2030/bba/pkg/netinfo"
)

// Coin is the subset of coin.Coin the instance depends on, declared locally
// to avoid a hard import-time dependency from this package onto pkg/coin's
// exact type — any func(epoch uint32) bool satisfies it via coin.CoinFunc.
type Coin interface {
	Toss(epoch uint32) bool
}

type queuedMessage[ID comparable] struct {
	sender  ID
	message AgreementMessage
}

// Instance is a single Binary Byzantine Agreement run. It is a
// deterministic state machine: every exported method runs to completion
// synchronously and performs no I/O. External callers MUST serialize calls
// into a given Instance (one at a time) — the spec places no suspension
// points inside the instance and therefore no internal locking, matching
// the single-threaded cooperative concurrency model the core is specified
// against.
type Instance[ID comparable] struct {
	netinfo *netinfo.NetInfo[ID]
	coin    Coin
	log     *log.Logger

	epoch uint32

	binValues    BinValues
	receivedBVal map[ID]BinValues
	sentBVal     BinValues
	receivedAux  map[ID]bool
	receivedConf map[ID]BinValues

	estimated *bool
	output    *bool
	decision  *bool

	incomingQueue []queuedMessage[ID]
	terminated    bool
	messages      []AgreementMessage
	confRound     bool
}

// New constructs an Instance in epoch 0. ni is shared read-only with the
// rest of the system and must outlive the instance; c supplies the
// per-epoch common coin; logger may be nil.
func New[ID comparable](ni *netinfo.NetInfo[ID], c Coin, logger *log.Logger) *Instance[ID] {
	return &Instance[ID]{
		netinfo:      ni,
		coin:         c,
		log:          logger.Module("agreement"),
		receivedBVal: make(map[ID]BinValues),
		receivedAux:  make(map[ID]bool),
		receivedConf: make(map[ID]BinValues),
	}
}

// OurUID returns the local node's identifier.
func (a *Instance[ID]) OurUID() ID {
	return a.netinfo.OurUID()
}

// Terminated reports whether the instance has terminated.
func (a *Instance[ID]) Terminated() bool {
	return a.terminated
}

// AcceptsInput reports whether SetInput may currently succeed: epoch 0 and
// no estimate set yet.
func (a *Instance[ID]) AcceptsInput() bool {
	return a.epoch == 0 && a.estimated == nil
}

// SetInput is the one-shot local proposal. It fails with
// ErrInputNotAccepted unless AcceptsInput() holds.
func (a *Instance[ID]) SetInput(input bool) error {
	if !a.AcceptsInput() {
		return ErrInputNotAccepted
	}

	if a.netinfo.NumNodes() == 1 {
		a.estimated = &input
		a.decision = &input
		a.output = &input
		a.terminated = true
		return nil
	}

	a.estimated = &input
	a.sendBVal(input)
	return nil
}

// HandleMessage processes a message from sender. Messages from past epochs
// are dropped silently; messages from future epochs are buffered for
// replay once this instance reaches that epoch.
func (a *Instance[ID]) HandleMessage(sender ID, msg AgreementMessage) error {
	if a.terminated {
		return ErrTerminated
	}
	if msg.Epoch < a.epoch {
		return nil // obsolete: we are already past this epoch
	}
	if msg.Epoch > a.epoch {
		a.incomingQueue = append(a.incomingQueue, queuedMessage[ID]{sender, msg})
		return nil
	}

	switch msg.Content.Kind {
	case KindBVal:
		a.handleBVal(sender, msg.Content.Bit)
	case KindAux:
		a.handleAux(sender, msg.Content.Bit)
	case KindConf:
		a.handleConf(sender, msg.Content.Conf)
	}
	return nil
}

// NextMessage dequeues the oldest outbound message, if any, tagged for
// broadcast to every peer.
func (a *Instance[ID]) NextMessage() (TargetedMessage, bool) {
	if len(a.messages) == 0 {
		return TargetedMessage{}, false
	}
	msg := a.messages[0]
	a.messages = a.messages[1:]
	return TargetedMessage{Target: TargetAll, Message: msg}, true
}

// NextOutput consumes and returns the one-shot decision slot. Once
// consumed it stays empty; the latched Decision value is unaffected and
// retrievable via Decision.
func (a *Instance[ID]) NextOutput() (bool, bool) {
	if a.output == nil {
		return false, false
	}
	b := *a.output
	a.output = nil
	return b, true
}

// Decision returns the latched decision value, if the instance has ever
// decided. Unlike NextOutput this never clears.
func (a *Instance[ID]) Decision() (bool, bool) {
	if a.decision == nil {
		return false, false
	}
	return *a.decision, true
}

// --- BVAL handling (spec §4.4) ---

func (a *Instance[ID]) handleBVal(sender ID, b bool) {
	set := a.receivedBVal[sender]
	set.Insert(b)
	a.receivedBVal[sender] = set

	count := 0
	for _, bits := range a.receivedBVal {
		if bits.Contains(b) {
			count++
		}
	}

	f := a.netinfo.NumFaulty()
	switch {
	case count == 2*f+1:
		previous := a.binValues
		changed := a.binValues.Insert(b)
		switch {
		case previous == BinNone:
			a.sendAux(b)
		case changed:
			a.tryFinishConfRound()
		}
	case count == f+1 && !a.sentBVal.Contains(b):
		a.sendBVal(b)
	}
}

// --- send helpers (spec §4.5): broadcast + self-deliver ---

func (a *Instance[ID]) sendBVal(b bool) {
	a.sentBVal.Insert(b)
	a.messages = append(a.messages, AgreementMessage{Epoch: a.epoch, Content: BVal(b)})
	a.log.Debug("sending BVal", "epoch", a.epoch, "bit", b)
	a.handleBVal(a.netinfo.OurUID(), b)
}

func (a *Instance[ID]) sendAux(b bool) {
	a.messages = append(a.messages, AgreementMessage{Epoch: a.epoch, Content: Aux(b)})
	a.log.Debug("sending Aux", "epoch", a.epoch, "bit", b)
	a.handleAux(a.netinfo.OurUID(), b)
}

func (a *Instance[ID]) sendConf() {
	if a.confRound {
		return
	}
	v := a.binValues
	a.messages = append(a.messages, AgreementMessage{Epoch: a.epoch, Content: Conf(v)})
	a.confRound = true
	a.log.Debug("sending Conf", "epoch", a.epoch, "values", v)
	a.handleConf(a.netinfo.OurUID(), v)
}

// --- AUX / CONF handling (spec §4.6) ---

func (a *Instance[ID]) handleAux(sender ID, b bool) {
	if a.confRound {
		return
	}
	a.receivedAux[sender] = b

	if a.binValues == BinNone {
		return
	}

	count := 0
	for _, v := range a.receivedAux {
		if a.binValues.Contains(v) {
			count++
		}
	}
	if count < a.netinfo.NumNodes()-a.netinfo.NumFaulty() {
		return
	}
	a.sendConf()
}

func (a *Instance[ID]) handleConf(sender ID, v BinValues) {
	a.receivedConf[sender] = v
	a.tryFinishConfRound()
}

func (a *Instance[ID]) tryFinishConfRound() {
	if !a.confRound {
		return
	}

	count := 0
	var union BinValues
	for _, v := range a.receivedConf {
		if v.IsSubset(a.binValues) {
			count++
			union |= v
		}
	}
	if count < a.netinfo.NumNodes()-a.netinfo.NumFaulty() {
		return
	}
	a.invokeCoin(union)
}

// --- coin invocation and epoch advancement (spec §4.7) ---

func (a *Instance[ID]) invokeCoin(vals BinValues) {
	a.log.Debug("invoking coin", "epoch", a.epoch)
	c := a.coin.Toss(a.epoch)

	if a.decision != nil && *a.decision == c {
		a.terminated = true
		a.log.Debug("terminated", "epoch", a.epoch)
		return
	}

	a.startNextEpoch()
	a.log.Debug("started epoch", "epoch", a.epoch)

	var next bool
	if b, ok := vals.Definite(); ok {
		next = b
		if a.decision == nil && b == c {
			out := b
			a.output = &out
			a.decision = &out
			a.log.Debug("decided", "value", b)
		}
	} else {
		next = c
	}
	a.estimated = &next

	a.sendBVal(next)
	a.replayQueued()
}

func (a *Instance[ID]) startNextEpoch() {
	a.binValues.Clear()
	a.receivedBVal = make(map[ID]BinValues)
	a.sentBVal = BinNone
	a.receivedAux = make(map[ID]bool)
	a.receivedConf = make(map[ID]BinValues)
	a.confRound = false
	a.epoch++
}

func (a *Instance[ID]) replayQueued() {
	queued := a.incomingQueue
	a.incomingQueue = nil
	for _, q := range queued {
		// Epoch comparisons are re-evaluated fresh against the
		// now-advanced epoch. A replayed message can itself complete a
		// round and terminate the instance; HandleMessage then returns
		// ErrTerminated for the remaining messages, which are dropped.
		_ = a.HandleMessage(q.sender, q.message)
	}
}
