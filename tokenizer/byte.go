package tokenizer

// ByteTokenizer is the simplest possible tokenizer: each byte is a token.
// Vocab size = 256. No subword merging. It is what a BPETokenizer encodes
// to before any merge is applied.
type ByteTokenizer struct{}

func NewByteTokenizer() *ByteTokenizer {
	return &ByteTokenizer{}
}

// Encode converts a string to token IDs.
func (t *ByteTokenizer) Encode(text string) []int64 {
	bytes := []byte(text)
	tokens := make([]int64, len(bytes))
	for i, b := range bytes {
		tokens[i] = int64(b)
	}
	return tokens
}

// Decode converts token IDs back to a string, dropping invalid UTF-8 like
// BPETokenizer.Decode. IDs outside 0-255 fail with a *LookupError.
func (t *ByteTokenizer) Decode(tokens []int64) (string, error) {
	bytes := make([]byte, len(tokens))
	for i, id := range tokens {
		if id < 0 || id >= NumBytes {
			return "", &LookupError{ID: id, Position: i, VocabSize: NumBytes}
		}
		bytes[i] = byte(id)
	}
	return validUTF8(bytes), nil
}

func (t *ByteTokenizer) VocabSize() int { return NumBytes }
