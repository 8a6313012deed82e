package tokenizer

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/rs/zerolog"
)

// ============================================================================
// Token ID layout:
//
//   0-255:   raw bytes (UTF-8 byte values), never reassigned
//   256+:    BPE merged tokens, one per training step, in learned order
// ============================================================================

const (
	NumBytes     = 256
	FirstMergeID = int64(256)

	// DefaultMaxNewTokens is the merge budget used when none is configured.
	DefaultMaxNewTokens = 300
)

// MergeRule is one learned merge: Pair collapses into ID.
type MergeRule struct {
	Pair Pair
	ID   int64
}

// BPETokenizer implements byte-level BPE.
//
// Training algorithm:
//  1. Start with one token per byte of the corpus
//  2. Count all adjacent token pairs, remembering first-occurrence order
//  3. Merge the most frequent pair into a new token (ties: first seen wins)
//  4. Repeat maxNewTokens times
//
// Encoding: apply learned merges in priority order (first learned = first applied).
// Decoding: look up byte sequence for each token ID, concatenate.
//
// A built tokenizer is immutable; Encode and Decode are safe for concurrent use.
type BPETokenizer struct {
	merges []MergeRule // ordered merge rules (index = priority)
	vocab  [][]byte    // id → byte sequence this token represents
}

type options struct {
	log       zerolog.Logger
	workers   int
	stopEarly bool
}

// Option configures training.
type Option func(*options)

// WithLogger sets the logger training progress is reported to.
func WithLogger(l zerolog.Logger) Option {
	return func(o *options) { o.log = l }
}

// WithWorkers counts pairs with n goroutines per training step. The learned
// merges do not depend on n.
func WithWorkers(n int) Option {
	return func(o *options) { o.workers = n }
}

// WithStopEarly makes running out of pairs end training with the merges
// learned so far instead of failing.
func WithStopEarly() Option {
	return func(o *options) { o.stopEarly = true }
}

func newOptions(opts []Option) options {
	o := options{log: zerolog.Nop(), workers: 1}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// TrainBPE learns maxNewTokens merge rules from text.
//
// It fails with ErrInvalidConfiguration if maxNewTokens <= 0, and with a
// *TrainingExhaustedError (matching ErrEmptyCorpus) if the working sequence
// has fewer than two tokens before the budget is spent, unless WithStopEarly
// is given.
func TrainBPE(text string, maxNewTokens int, opts ...Option) (*BPETokenizer, error) {
	o := newOptions(opts)
	if maxNewTokens <= 0 {
		return nil, fmt.Errorf("%w: maxNewTokens must be greater than 0, got %d", ErrInvalidConfiguration, maxNewTokens)
	}
	if o.workers <= 0 {
		return nil, fmt.Errorf("%w: workers must be greater than 0, got %d", ErrInvalidConfiguration, o.workers)
	}

	t := newBPEBase(maxNewTokens)

	// Convert entire corpus to byte token IDs
	raw := []byte(text)
	ids := make([]int64, len(raw))
	for i, b := range raw {
		ids[i] = int64(b)
	}

	o.log.Info().Int("bytes", len(raw)).Int("merges", maxNewTokens).Int("workers", o.workers).Msg("bpe training started")

	for m := 0; m < maxNewTokens; m++ {
		counts, err := countPairsParallel(ids, o.workers)
		if err != nil {
			return nil, fmt.Errorf("count pairs at merge %d: %w", m, err)
		}
		best, bestCount, ok := counts.best()
		if !ok {
			if o.stopEarly {
				o.log.Warn().Int("merge", m).Int("requested", maxNewTokens).Msg("no pairs left, stopping early")
				break
			}
			return nil, &TrainingExhaustedError{Completed: m, Requested: maxNewTokens}
		}

		newID := FirstMergeID + int64(m)
		merged := concatBytes(t.vocab[best.A], t.vocab[best.B])
		t.vocab = append(t.vocab, merged)
		t.merges = append(t.merges, MergeRule{Pair: best, ID: newID})

		ids = mergePair(ids, best, newID)

		if m < 5 || (m+1)%100 == 0 || m == maxNewTokens-1 {
			o.log.Debug().
				Int("merge", m+1).
				Str("a", safeStr(t.vocab[best.A])).
				Str("b", safeStr(t.vocab[best.B])).
				Str("token", safeStr(merged)).
				Int("freq", bestCount).
				Int("seq_len", len(ids)).
				Msg("merged pair")
		}
	}

	ratio := 0.0
	if len(ids) > 0 {
		ratio = float64(len(raw)) / float64(len(ids))
	}
	o.log.Info().
		Int("vocab", t.VocabSize()).
		Int("merges", len(t.merges)).
		Float64("compression", ratio).
		Int("tokens", len(ids)).
		Msg("bpe training done")

	return t, nil
}

// NewFromMerges rebuilds a tokenizer from an ordered rule list, as returned
// by Merges. Rule i must carry id 256+i and refer only to ids defined before it.
// Only WithLogger applies; the training options are ignored.
func NewFromMerges(rules []MergeRule, opts ...Option) (*BPETokenizer, error) {
	o := newOptions(opts)
	t := newBPEBase(len(rules))
	for i, r := range rules {
		want := FirstMergeID + int64(i)
		if r.ID != want {
			return nil, fmt.Errorf("%w: rule %d has id %d, want %d", ErrInvalidConfiguration, i, r.ID, want)
		}
		if !t.known(r.Pair.A) || !t.known(r.Pair.B) {
			return nil, fmt.Errorf("%w: rule %d refers to undefined pair (%d, %d)", ErrInvalidConfiguration, i, r.Pair.A, r.Pair.B)
		}
		t.vocab = append(t.vocab, concatBytes(t.vocab[r.Pair.A], t.vocab[r.Pair.B]))
		t.merges = append(t.merges, r)
	}
	o.log.Info().Int("vocab", t.VocabSize()).Int("merges", len(t.merges)).Msg("bpe merges loaded")
	return t, nil
}

// ============================================================================
// Encode / Decode
// ============================================================================

// Encode converts text to a sequence of BPE token IDs.
//
// Algorithm: start with byte-level tokens, then apply each merge rule
// in training order (highest priority first), one full pass per rule.
func (t *BPETokenizer) Encode(text string) []int64 {
	raw := []byte(text)
	if len(raw) == 0 {
		return nil
	}

	ids := make([]int64, len(raw))
	for i, b := range raw {
		ids[i] = int64(b)
	}

	for _, rule := range t.merges {
		if len(ids) < 2 {
			break
		}
		ids = mergePair(ids, rule.Pair, rule.ID)
	}
	return ids
}

// DecodeBytes concatenates the byte sequences of tokens. The result is exact
// and may not be valid UTF-8.
func (t *BPETokenizer) DecodeBytes(tokens []int64) ([]byte, error) {
	var buf []byte
	for i, id := range tokens {
		if !t.known(id) {
			return nil, &LookupError{ID: id, Position: i, VocabSize: t.VocabSize()}
		}
		buf = append(buf, t.vocab[id]...)
	}
	return buf, nil
}

// Decode converts BPE token IDs back to text.
//
// Decode is total but lossy: byte sequences that are not valid UTF-8 (a merge
// may end inside a multi-byte character) are dropped rather than reported.
// Only ids unknown to the vocabulary fail, with a *LookupError.
func (t *BPETokenizer) Decode(tokens []int64) (string, error) {
	buf, err := t.DecodeBytes(tokens)
	if err != nil {
		return "", err
	}
	return validUTF8(buf), nil
}

// DecodeToken returns the bytes of a single token ID, escaped for display.
func (t *BPETokenizer) DecodeToken(id int64) string {
	if !t.known(id) {
		return "<unk>"
	}
	return safeStr(t.vocab[id])
}

// TokenBytes returns a copy of the raw byte sequence for a token ID.
func (t *BPETokenizer) TokenBytes(id int64) ([]byte, bool) {
	if !t.known(id) {
		return nil, false
	}
	return concatBytes(t.vocab[id], nil), true
}

// Merges returns the learned rules in training order.
func (t *BPETokenizer) Merges() []MergeRule {
	out := make([]MergeRule, len(t.merges))
	copy(out, t.merges)
	return out
}

// VocabSize returns the total vocabulary size.
func (t *BPETokenizer) VocabSize() int {
	return len(t.vocab)
}

// NumMerges returns the number of learned merge rules.
func (t *BPETokenizer) NumMerges() int {
	return len(t.merges)
}

// ============================================================================
// Internal helpers
// ============================================================================

// newBPEBase creates a BPETokenizer with the 256 byte tokens.
func newBPEBase(merges int) *BPETokenizer {
	t := &BPETokenizer{
		merges: make([]MergeRule, 0, merges),
		vocab:  make([][]byte, NumBytes, NumBytes+merges),
	}
	for i := range NumBytes {
		t.vocab[i] = []byte{byte(i)}
	}
	return t
}

func (t *BPETokenizer) known(id int64) bool {
	return id >= 0 && id < int64(len(t.vocab))
}

// concatBytes concatenates two byte slices into a new slice.
func concatBytes(a, b []byte) []byte {
	c := make([]byte, len(a)+len(b))
	copy(c, a)
	copy(c[len(a):], b)
	return c
}

// validUTF8 drops every byte that is not part of a valid UTF-8 sequence.
func validUTF8(b []byte) string {
	if utf8.Valid(b) {
		return string(b)
	}
	return strings.ToValidUTF8(string(b), "")
}

// safeStr returns a printable representation of bytes (escaping control chars).
func safeStr(b []byte) string {
	var sb strings.Builder
	sb.Grow(len(b) * 2)
	for _, c := range b {
		switch {
		case c == '\n':
			sb.WriteString(`\n`)
		case c == '\t':
			sb.WriteString(`\t`)
		case c == '\r':
			sb.WriteString(`\r`)
		case c >= 32 && c < 127:
			sb.WriteByte(c)
		default:
			fmt.Fprintf(&sb, `\x%02x`, c)
		}
	}
	return sb.String()
}
