package voice

import (
	"encoding/xml"
	"strings"
)

const defaultLocale = "en-US"

// buildSSML wraps plain text in a speak/voice document.
func buildSSML(voice, text string) string {
	var b strings.Builder
	b.WriteString("<speak version='1.0' xml:lang='")
	b.WriteString(localeOf(voice))
	b.WriteString("' xmlns='http://www.w3.org/2001/10/synthesis'><voice name='")
	xml.EscapeText(&b, []byte(voice))
	b.WriteString("'>")
	xml.EscapeText(&b, []byte(text))
	b.WriteString("</voice></speak>")
	return b.String()
}

// en-US-JennyNeural -> en-US
func localeOf(voice string) string {
	parts := strings.SplitN(voice, "-", 3)
	if len(parts) < 3 || len(parts[0]) < 2 || len(parts[1]) < 2 {
		return defaultLocale
	}
	return parts[0] + "-" + parts[1]
}
