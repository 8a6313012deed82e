package tokenizer

// Tokenizer is the common interface for all tokenizers in this module.
// BPETokenizer, ByteTokenizer and WordLevel implement it.
type Tokenizer interface {
	Encode(text string) []int64
	Decode(tokens []int64) (string, error)
	VocabSize() int
}

var (
	_ Tokenizer = (*BPETokenizer)(nil)
	_ Tokenizer = (*ByteTokenizer)(nil)
	_ Tokenizer = (*WordLevel)(nil)
)
