package tokenizer

import (
	"fmt"
	"slices"
	"strings"

	"github.com/dlclark/regexp2"
)

// DefaultWordPattern splits on punctuation, hyphens and whitespace. Matches
// are kept as tokens.
const DefaultWordPattern = `([,.:;?!_\(\)\"\']|-|--|---|\s+|\n)`

// DefaultUnknownToken stands in for words missing from a WordLevel vocabulary.
const DefaultUnknownToken = "|unk|"

// WordLevel is a fixed word-level tokenizer: the vocabulary is every distinct
// token of the training text, sorted, followed by the special tokens.
type WordLevel struct {
	re      *regexp2.Regexp
	vocab   []string
	ids     map[string]int64
	unknown int64
}

type wordOptions struct {
	pattern  string
	specials []string
	unknown  string
}

// WordOption configures a WordLevel tokenizer.
type WordOption func(*wordOptions)

// WithPattern replaces DefaultWordPattern.
func WithPattern(p string) WordOption {
	return func(o *wordOptions) { o.pattern = p }
}

// WithSpecialTokens appends tokens to the vocabulary after the learned words.
func WithSpecialTokens(tokens ...string) WordOption {
	return func(o *wordOptions) { o.specials = append(o.specials, tokens...) }
}

// WithUnknownToken sets the token unknown words encode to. It is added to
// the special tokens if missing.
func WithUnknownToken(tok string) WordOption {
	return func(o *wordOptions) { o.unknown = tok }
}

// NewWordLevel builds the vocabulary of text.
func NewWordLevel(text string, opts ...WordOption) (*WordLevel, error) {
	o := wordOptions{pattern: DefaultWordPattern, unknown: DefaultUnknownToken}
	for _, opt := range opts {
		opt(&o)
	}
	if strings.TrimSpace(o.unknown) == "" {
		return nil, fmt.Errorf("%w: unknown token cannot be empty", ErrInvalidConfiguration)
	}

	re, err := regexp2.Compile(o.pattern, regexp2.None)
	if err != nil {
		return nil, fmt.Errorf("%w: pattern %q: %v", ErrInvalidConfiguration, o.pattern, err)
	}

	w := &WordLevel{re: re, ids: make(map[string]int64)}

	words := w.split(text)
	slices.Sort(words)
	for _, word := range slices.Compact(words) {
		w.add(word)
	}
	for _, tok := range append(o.specials, o.unknown) {
		w.add(tok)
	}
	w.unknown = w.ids[o.unknown]
	return w, nil
}

func (w *WordLevel) add(tok string) {
	if _, ok := w.ids[tok]; ok {
		return
	}
	w.ids[tok] = int64(len(w.vocab))
	w.vocab = append(w.vocab, tok)
}

// split cuts s at every match of the pattern, keeping the matches, then
// trims pieces, drops empty ones and rejoins hyphen runs.
func (w *WordLevel) split(s string) []string {
	r := []rune(s)
	var pieces []string
	offset := 0
	for m, _ := w.re.FindRunesMatch(r); m != nil; m, _ = w.re.FindNextMatch(m) {
		pieces = append(pieces, string(r[offset:m.Index]), m.String())
		offset = m.Index + m.Length
	}
	pieces = append(pieces, string(r[offset:]))

	cleaned := pieces[:0]
	for _, p := range pieces {
		if p = strings.TrimSpace(p); p != "" {
			cleaned = append(cleaned, p)
		}
	}
	return joinHyphens(cleaned)
}

// joinHyphens collapses "-" "-" "-" into "---" and "-" "-" into "--".
func joinHyphens(tokens []string) []string {
	out := make([]string, 0, len(tokens))
	for i := 0; i < len(tokens); i++ {
		if tokens[i] == "-" && i+1 < len(tokens) && tokens[i+1] == "-" {
			if i+2 < len(tokens) && tokens[i+2] == "-" {
				out = append(out, "---")
				i += 2
			} else {
				out = append(out, "--")
				i++
			}
			continue
		}
		out = append(out, tokens[i])
	}
	return out
}

// Encode splits text into words and maps each to its id. Words missing from
// the vocabulary map to the unknown token.
func (w *WordLevel) Encode(text string) []int64 {
	words := w.split(text)
	ids := make([]int64, len(words))
	for i, word := range words {
		id, ok := w.ids[word]
		if !ok {
			id = w.unknown
		}
		ids[i] = id
	}
	return ids
}

// Decode joins the tokens of ids with single spaces.
func (w *WordLevel) Decode(tokens []int64) (string, error) {
	words := make([]string, len(tokens))
	for i, id := range tokens {
		if id < 0 || id >= int64(len(w.vocab)) {
			return "", &LookupError{ID: id, Position: i, VocabSize: len(w.vocab)}
		}
		words[i] = w.vocab[id]
	}
	return strings.Join(words, " "), nil
}

// ID returns the id of tok.
func (w *WordLevel) ID(tok string) (int64, bool) {
	id, ok := w.ids[tok]
	return id, ok
}

// UnknownID returns the id unknown words encode to.
func (w *WordLevel) UnknownID() int64 { return w.unknown }

func (w *WordLevel) VocabSize() int { return len(w.vocab) }
