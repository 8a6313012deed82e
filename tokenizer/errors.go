package tokenizer

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidConfiguration is returned when a tokenizer is constructed with
	// settings it cannot train with, e.g. a non-positive merge budget.
	ErrInvalidConfiguration = errors.New("invalid tokenizer configuration")

	// ErrEmptyCorpus is returned when training runs out of adjacent pairs
	// before the requested number of merges was learned.
	ErrEmptyCorpus = errors.New("no mergeable pair left in training corpus")

	// ErrUnknownToken is returned when decoding an id the vocabulary does not know.
	ErrUnknownToken = errors.New("unknown token id")
)

// TrainingExhaustedError reports how far training got before the working
// sequence had no adjacent pair left.
type TrainingExhaustedError struct {
	Completed int // merges learned before the corpus ran out
	Requested int
}

func (e *TrainingExhaustedError) Error() string {
	return fmt.Sprintf("%v: learned %d of %d merges", ErrEmptyCorpus, e.Completed, e.Requested)
}

func (e *TrainingExhaustedError) Unwrap() error { return ErrEmptyCorpus }

// LookupError reports a token id absent from the vocabulary table.
type LookupError struct {
	ID        int64
	Position  int // index of the id in the decoded sequence
	VocabSize int
}

func (e *LookupError) Error() string {
	return fmt.Sprintf("%v: %d at position %d (vocab size: %d)", ErrUnknownToken, e.ID, e.Position, e.VocabSize)
}

func (e *LookupError) Unwrap() error { return ErrUnknownToken }
