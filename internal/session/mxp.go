package session

import "strings"

// mxpVocabulary is the fixed set of MXP element tags the core emits
// (spec.md §4.2: "the session is allowed to emit MXP element tags from a
// fixed vocabulary (names, commands, colors)"), grounded on mxp.cpp's
// MxpElement. The table holds name, exit and command elements only; it has
// no color element, and color is not rendered through MXP. Handlers
// embed "{tag:text}" markers; when MXP is on these become the named MXP
// element wrapping text, otherwise the marker is stripped to bare text.
var mxpVocabulary = map[string]struct{ open, close string }{
	"name":    {`<send href="look ##">`, `</send>`},
	"exit":    {`<send href="##">`, `</send>`},
	"command": {`<send>`, `</send>`},
}

// renderMXP expands "{tag:text}" markers in text. When mxpOn, a known tag
// becomes its MXP element; an unknown tag is treated as plain text (the
// marker syntax is stripped either way) so content authors using a tag
// outside the fixed vocabulary degrade safely rather than corrupt output.
func renderMXP(text string, mxpOn bool) string {
	if !strings.Contains(text, "{") {
		return text
	}
	var b strings.Builder
	i := 0
	for i < len(text) {
		if text[i] != '{' {
			b.WriteByte(text[i])
			i++
			continue
		}
		close := strings.IndexByte(text[i:], '}')
		colon := strings.IndexByte(text[i:], ':')
		if close < 0 || colon < 0 || colon > close {
			b.WriteByte(text[i])
			i++
			continue
		}
		tag := text[i+1 : i+colon]
		inner := text[i+colon+1 : i+close]
		if el, ok := mxpVocabulary[tag]; ok && mxpOn {
			b.WriteString(el.open)
			b.WriteString(inner)
			b.WriteString(el.close)
		} else {
			b.WriteString(inner)
		}
		i += close + 1
	}
	return b.String()
}
