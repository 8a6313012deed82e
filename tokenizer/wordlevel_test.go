package tokenizer

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const wordCorpus = "Hello, world. This--is a test---ok"

func TestWordLevel_Vocabulary(t *testing.T) {
	w, err := NewWordLevel(wordCorpus)
	require.NoError(t, err)

	want := []string{",", "--", "---", ".", "Hello", "This", "a", "is", "ok", "test", "world", "|unk|"}
	assert.Equal(t, want, w.vocab)
	assert.Equal(t, len(want), w.VocabSize())
	assert.Equal(t, int64(11), w.UnknownID())
}

func TestWordLevel_Split(t *testing.T) {
	w, err := NewWordLevel("")
	require.NoError(t, err)

	tests := []struct {
		text string
		want []string
	}{
		{text: "a b", want: []string{"a", "b"}},
		{text: "  padded\n\nlines  ", want: []string{"padded", "lines"}},
		{text: "wait--what", want: []string{"wait", "--", "what"}},
		{text: "so---then", want: []string{"so", "---", "then"}},
		{text: "four----dashes", want: []string{"four", "---", "-", "dashes"}},
		{text: "single-dash", want: []string{"single", "-", "dash"}},
		{text: `"quoted" (paren)`, want: []string{`"`, "quoted", `"`, "(", "paren", ")"}},
		{text: "ends with dash -", want: []string{"ends", "with", "dash", "-"}},
		{text: "", want: []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			assert.Equal(t, tt.want, w.split(tt.text))
		})
	}
}

func TestWordLevel_EncodeDecode(t *testing.T) {
	w, err := NewWordLevel(wordCorpus)
	require.NoError(t, err)

	ids := w.Encode("Hello there, a test")
	hello, _ := w.ID("Hello")
	comma, _ := w.ID(",")
	a, _ := w.ID("a")
	test, _ := w.ID("test")
	assert.Equal(t, []int64{hello, w.UnknownID(), comma, a, test}, ids)

	got, err := w.Decode(ids)
	require.NoError(t, err)
	assert.Equal(t, "Hello |unk| , a test", got)

	_, err = w.Decode([]int64{hello, 12})
	var lookup *LookupError
	require.True(t, errors.As(err, &lookup))
	assert.Equal(t, int64(12), lookup.ID)
	assert.Equal(t, 1, lookup.Position)
}

func TestWordLevel_SpecialTokens(t *testing.T) {
	w, err := NewWordLevel("b a", WithSpecialTokens("<bos>", "<eos>", "a"), WithUnknownToken("<unk>"))
	require.NoError(t, err)

	assert.Equal(t, []string{"a", "b", "<bos>", "<eos>", "<unk>"}, w.vocab)
	assert.Equal(t, int64(4), w.UnknownID())
	assert.Equal(t, []int64{0, 4}, w.Encode("a c"))
}

func TestWordLevel_InvalidConfiguration(t *testing.T) {
	_, err := NewWordLevel(wordCorpus, WithPattern("("))
	assert.ErrorIs(t, err, ErrInvalidConfiguration)

	_, err = NewWordLevel(wordCorpus, WithUnknownToken("  "))
	assert.ErrorIs(t, err, ErrInvalidConfiguration)
}
