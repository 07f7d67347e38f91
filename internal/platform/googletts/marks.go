package googletts

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"regexp"
	"strings"
)

var (
	sentencePattern = regexp.MustCompile(`(?s)<s(\s[^>]*)?>(.*?)</s>`)
	speakPattern    = regexp.MustCompile(`(?s)^\s*<speak(\s[^>]*)?>`)
	tagPattern      = regexp.MustCompile(`<[^>]*>`)
	spacePattern    = regexp.MustCompile(`\s+`)
)

// sentence is one marked sentence of a markup document.
type sentence struct {
	Mark string
	Text string
}

// TimingMark is one line of a timing-marks file.
type TimingMark struct {
	Time  int64  `json:"time"`
	Type  string `json:"type"`
	Value string `json:"value"`
}

func markName(i int) string {
	return fmt.Sprintf("s%d", i)
}

// ensureSpeak wraps markup in a <speak> root when it has none.
func ensureSpeak(markup string) string {
	if speakPattern.MatchString(markup) {
		return markup
	}
	return "<speak>" + markup + "</speak>"
}

// injectSentenceMarks places a <mark/> at the start of every <s> element
// and returns the rewritten markup with the plain text of each sentence.
// Markup without <s> elements is treated as a single sentence.
func injectSentenceMarks(markup string) (string, []sentence) {
	markup = ensureSpeak(markup)

	var sentences []sentence
	out := sentencePattern.ReplaceAllStringFunc(markup, func(m string) string {
		parts := sentencePattern.FindStringSubmatch(m)
		name := markName(len(sentences))
		sentences = append(sentences, sentence{Mark: name, Text: plainText(parts[2])})
		return fmt.Sprintf(`<s%s><mark name="%s"/>%s</s>`, parts[1], name, parts[2])
	})
	if len(sentences) > 0 {
		return out, sentences
	}

	loc := speakPattern.FindStringIndex(markup)
	name := markName(0)
	body := strings.TrimSuffix(strings.TrimSpace(markup[loc[1]:]), "</speak>")
	marked := markup[:loc[1]] + fmt.Sprintf(`<mark name="%s"/>`, name) + markup[loc[1]:]
	return marked, []sentence{{Mark: name, Text: plainText(body)}}
}

func plainText(s string) string {
	s = tagPattern.ReplaceAllString(s, " ")
	return strings.TrimSpace(spacePattern.ReplaceAllString(s, " "))
}

// encodeTimingMarks writes one JSON line per sentence whose mark was
// reported, with the mark's offset in milliseconds.
func encodeTimingMarks(sentences []sentence, offsets map[string]float64) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)

	for _, s := range sentences {
		seconds, ok := offsets[s.Mark]
		if !ok {
			continue
		}
		mark := TimingMark{
			Time:  int64(math.Round(seconds * 1000)),
			Type:  "sentence",
			Value: s.Text,
		}
		if err := enc.Encode(mark); err != nil {
			return nil, fmt.Errorf("encode timing mark: %w", err)
		}
	}
	return buf.Bytes(), nil
}
