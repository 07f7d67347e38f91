package googletts

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInjectSentenceMarks(t *testing.T) {
	t.Parallel()

	markup := `<speak><p><s>Hola <emphasis>amigo</emphasis>.</s><s xml:lang="en-US">Hello friend.</s></p></speak>`
	marked, sentences := injectSentenceMarks(markup)

	assert.Equal(t,
		`<speak><p><s><mark name="s0"/>Hola <emphasis>amigo</emphasis>.</s>`+
			`<s xml:lang="en-US"><mark name="s1"/>Hello friend.</s></p></speak>`,
		marked)
	require.Len(t, sentences, 2)
	assert.Equal(t, sentence{Mark: "s0", Text: "Hola amigo ."}, sentences[0])
	assert.Equal(t, sentence{Mark: "s1", Text: "Hello friend."}, sentences[1])
}

func TestInjectSentenceMarks_NoSentences(t *testing.T) {
	t.Parallel()

	marked, sentences := injectSentenceMarks("Just some text")
	assert.Equal(t, `<speak><mark name="s0"/>Just some text</speak>`, marked)
	require.Len(t, sentences, 1)
	assert.Equal(t, "Just some text", sentences[0].Text)
}

func TestEncodeTimingMarks(t *testing.T) {
	t.Parallel()

	sentences := []sentence{
		{Mark: "s0", Text: "Uno & dos"},
		{Mark: "s1", Text: "Missing"},
		{Mark: "s2", Text: "Tres"},
	}
	data, err := encodeTimingMarks(sentences, map[string]float64{"s0": 0, "s2": 1.2345})
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, `{"time":0,"type":"sentence","value":"Uno & dos"}`, lines[0])
	assert.Equal(t, `{"time":1235,"type":"sentence","value":"Tres"}`, lines[1])
}
