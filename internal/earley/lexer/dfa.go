package lexer

import (
	"fmt"
	"sort"
	"strings"

	"github.com/dekarrin/earley/internal/util"
)

// fragment is one lexeme's local automaton, expressed uniformly so the DFA
// can run an arbitrary mix of them side by side without knowing their
// concrete shape. This mirrors the way the teacher's automaton package
// builds a combined DFA out of per-production NFA fragments via subset
// construction (internal/ictiobus/automaton/automaton.go, ToDFA); here the
// fragments are lexeme kinds instead of grammar productions.
type fragment interface {
	idx() LexemeIdx
	start() int
	// step advances the fragment's local state on byte b. ok is false if
	// the fragment cannot consume b at all.
	step(state int, b byte) (next int, ok bool)
	// acceptsAt reports whether stopping at state completes the lexeme,
	// and how many trailing bytes of the match are hidden lookahead.
	acceptsAt(state int) (accepts bool, hiddenLen int)
	// continues reports whether the fragment may keep matching after
	// accepting at state (true for byte classes, false for literals and
	// stop-sequences).
	continues(state int) bool
}

type literalFragment struct {
	lexeme LexemeIdx
	bytes  []byte
}

func (f *literalFragment) idx() LexemeIdx { return f.lexeme }
func (f *literalFragment) start() int     { return 0 }
func (f *literalFragment) step(state int, b byte) (int, bool) {
	if state >= len(f.bytes) || f.bytes[state] != b {
		return 0, false
	}
	return state + 1, true
}
func (f *literalFragment) acceptsAt(state int) (bool, int) {
	return state == len(f.bytes), 0
}
func (f *literalFragment) continues(state int) bool { return false }

// classFragment matches one-or-more (min=1) or zero-or-more (min=0) bytes
// satisfying pred, maximal-munch, with no hidden lookahead: the byte that
// fails pred is never consumed, it is simply offered as the next lexeme's
// transition byte.
type classFragment struct {
	lexeme LexemeIdx
	pred   func(byte) bool
	min    int
}

func (f *classFragment) idx() LexemeIdx { return f.lexeme }
func (f *classFragment) start() int     { return 0 }
func (f *classFragment) step(state int, b byte) (int, bool) {
	if !f.pred(b) {
		return 0, false
	}
	if state < f.min {
		return state + 1, true
	}
	return f.min, true
}
func (f *classFragment) acceptsAt(state int) (bool, int) {
	return state >= f.min, 0
}
func (f *classFragment) continues(state int) bool { return true }

// stopSequenceFragment matches arbitrary content up to and including a
// literal delimiter, with the delimiter itself reported as hidden so the
// grammar can decide whether to re-consume it (e.g. a line comment whose
// terminating newline also separates the next statement).
type stopSequenceFragment struct {
	lexeme LexemeIdx
	stop   []byte
}

func (f *stopSequenceFragment) idx() LexemeIdx { return f.lexeme }
func (f *stopSequenceFragment) start() int     { return 0 }
func (f *stopSequenceFragment) step(state int, b byte) (int, bool) {
	if state >= len(f.stop) {
		return state, false
	}
	if f.stop[state] == b {
		return state + 1, true
	}
	if state > 0 {
		// no partial-overlap recovery; a mismatch mid-delimiter restarts
		// the search for the delimiter from scratch, re-testing b against
		// the first delimiter byte.
		if f.stop[0] == b {
			return 1, true
		}
		return 0, true
	}
	return 0, true
}
func (f *stopSequenceFragment) acceptsAt(state int) (bool, int) {
	if state == len(f.stop) {
		return true, len(f.stop)
	}
	return false, 0
}
func (f *stopSequenceFragment) continues(state int) bool { return false }

type dfaState struct {
	config     map[LexemeIdx]int
	bestAccept *acceptInfo
}

type acceptInfo struct {
	idx       LexemeIdx
	hiddenLen int
}

// DFA is a lazily-expanded combined automaton over a fixed set of lexeme
// fragments. States are discovered on demand and memoized by content, the
// same cache-by-canonical-key approach the teacher's NFA-to-DFA subset
// construction uses (directNFAToDFA), adapted here to a byte-configuration
// key instead of an epsilon-closure key.
type DFA struct {
	spec      *Spec
	fragments map[LexemeIdx]fragment
	states    []dfaState
	index     map[string]StateID
}

// NewDFA builds an empty combined automaton over spec; fragments are
// registered afterward via Builder.
func newDFA(spec *Spec) *DFA {
	return &DFA{
		spec:      spec,
		fragments: make(map[LexemeIdx]fragment),
		index:     make(map[string]StateID),
	}
}

func (d *DFA) Spec() *Spec { return d.spec }

func (d *DFA) ADeadState() StateID { return DeadStateID }

func stateKey(config map[LexemeIdx]int, best *acceptInfo) string {
	keys := make([]LexemeIdx, 0, len(config))
	for k := range config {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })

	var sb strings.Builder
	for _, k := range keys {
		fmt.Fprintf(&sb, "%d:%d;", k, config[k])
	}
	sb.WriteString("|")
	if best != nil {
		fmt.Fprintf(&sb, "%d:%d", best.idx, best.hiddenLen)
	}
	return sb.String()
}

func (d *DFA) intern(config map[LexemeIdx]int, best *acceptInfo) StateID {
	key := stateKey(config, best)
	if id, ok := d.index[key]; ok {
		return id
	}
	id := StateID(len(d.states))
	d.states = append(d.states, dfaState{config: config, bestAccept: best})
	d.index[key] = id
	return id
}

func (d *DFA) state(id StateID) dfaState {
	if id.IsDead() {
		return dfaState{}
	}
	return d.states[id]
}

// StartState seeds a configuration from every fragment whose lexeme is in
// allowed, then optionally consumes transitionByte.
func (d *DFA) StartState(allowed *util.Bitset, transitionByte *byte) StateID {
	config := make(map[LexemeIdx]int)
	var tied []acceptInfo
	for idx, frag := range d.fragments {
		if allowed != nil && !allowed.Get(int(idx)) {
			continue
		}
		s := frag.start()
		config[idx] = s
		if ok, hidden := frag.acceptsAt(s); ok {
			tied = append(tied, acceptInfo{idx: idx, hiddenLen: hidden})
			if !frag.continues(s) {
				delete(config, idx)
			}
		}
	}
	best := pickTiedAccept(tied)
	start := d.intern(config, best)
	if transitionByte == nil {
		return start
	}
	res := d.Advance(start, *transitionByte, false)
	if res.Kind == ResultState {
		return res.NextState
	}
	return d.ADeadState()
}

// pickTiedAccept resolves multiple lexemes accepting at the exact same
// position by preferring the earliest-declared (lowest LexemeIdx), the
// usual lexer-generator tie-break for rules of equal matched length.
func pickTiedAccept(candidates []acceptInfo) *acceptInfo {
	if len(candidates) == 0 {
		return nil
	}
	best := candidates[0]
	for _, c := range candidates[1:] {
		if c.idx < best.idx {
			best = c
		}
	}
	return &best
}

// Advance is the core transition function described atop the fragment
// interface: every alive fragment attempts to consume b; fragments that die
// drop out, fragments that accept update the running best-accept, and
// fragments that can't continue past their own accept retire immediately.
func (d *DFA) Advance(state StateID, b byte, logging bool) Result {
	if state.IsDead() {
		return ErrorResult()
	}
	st := d.state(state)
	next := make(map[LexemeIdx]int)
	prevBest := st.bestAccept
	var acceptedNow []acceptInfo

	for idx, ls := range st.config {
		frag := d.fragments[idx]
		newLs, ok := frag.step(ls, b)
		if !ok {
			continue
		}
		accepts, hidden := frag.acceptsAt(newLs)
		if accepts {
			acceptedNow = append(acceptedNow, acceptInfo{idx: idx, hiddenLen: hidden})
			if frag.continues(newLs) {
				next[idx] = newLs
			}
			continue
		}
		next[idx] = newLs
	}
	// Ties among lexemes completing on the very same byte are broken by
	// declaration order.
	stepWinner := pickTiedAccept(acceptedNow)

	if len(next) == 0 {
		bCopy := b
		if stepWinner != nil {
			// b was itself consumed into the match: it belongs to the
			// completed lexeme, not to whatever comes after it.
			return LexemeResult(PreLexeme{
				Idx:       stepWinner.idx,
				Byte:      &bCopy,
				HiddenLen: stepWinner.hiddenLen,
			})
		}
		if prevBest == nil {
			return ErrorResult()
		}
		// No fragment could consume b at all: the match ended at the
		// previous byte, and b starts whatever lexeme comes next.
		return LexemeResult(PreLexeme{
			Idx:         prevBest.idx,
			Byte:        &bCopy,
			ByteNextRow: true,
			HiddenLen:   prevBest.hiddenLen,
		})
	}

	nextBest := prevBest
	if stepWinner != nil {
		nextBest = stepWinner
	}
	return StateResult(d.intern(next, nextBest), b)
}

func (d *DFA) TryLexemeEnd(state StateID) Result {
	if state.IsDead() {
		return ErrorResult()
	}
	st := d.state(state)
	if st.bestAccept == nil {
		return ErrorResult()
	}
	return LexemeResult(PreLexeme{
		Idx:       st.bestAccept.idx,
		HiddenLen: st.bestAccept.hiddenLen,
	})
}

func (d *DFA) ForceLexemeEnd(state StateID) Result {
	return d.TryLexemeEnd(state)
}

func (d *DFA) AllowsEOS(state StateID) bool {
	if state.IsDead() {
		return false
	}
	st := d.state(state)
	return st.bestAccept != nil || len(st.config) == 0
}

func (d *DFA) PossibleLexemes(state StateID) *util.Bitset {
	set := util.NewBitset(len(d.spec.Lexemes))
	if state.IsDead() {
		return set
	}
	st := d.state(state)
	for idx := range st.config {
		set.Set(int(idx))
	}
	if st.bestAccept != nil {
		set.Set(int(st.bestAccept.idx))
	}
	return set
}

func (d *DFA) PossibleHiddenLen(state StateID) int {
	if state.IsDead() {
		return 0
	}
	st := d.state(state)
	if st.bestAccept == nil {
		return 0
	}
	return st.bestAccept.hiddenLen
}

func (d *DFA) LimitStateTo(state StateID, allowed *util.Bitset) StateID {
	if state.IsDead() {
		return d.ADeadState()
	}
	st := d.state(state)
	next := make(map[LexemeIdx]int)
	var best *acceptInfo
	for idx, ls := range st.config {
		if allowed.Get(int(idx)) {
			next[idx] = ls
		}
	}
	if st.bestAccept != nil && allowed.Get(int(st.bestAccept.idx)) {
		best = st.bestAccept
	}
	if len(next) == 0 && best == nil {
		return d.ADeadState()
	}
	return d.intern(next, best)
}

func (d *DFA) CheckForSingleByteLexeme(state StateID, b byte) (PreLexeme, bool) {
	res := d.Advance(state, b, false)
	if res.Kind == ResultLexeme {
		return res.Pre, true
	}
	return PreLexeme{}, false
}
