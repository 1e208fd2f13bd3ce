package decoder

import (
	"strings"
)

// Sink receives decoded barcodes
type Sink interface {
	Detected(code string)
}

// popFrame splits the first CR/LF terminated frame off buf.
// Consecutive terminators (CRLF) are consumed together.
func popFrame(buf string) (frame, rest string, ok bool) {
	idx := strings.IndexAny(buf, "\r\n")
	if idx < 0 {
		return "", buf, false
	}

	frame = buf[:idx]
	j := idx
	for j < len(buf) {
		if buf[j] != '\r' && buf[j] != '\n' {
			break
		}
		j++
	}
	return frame, buf[j:], true
}

// appendRaw keeps at most max trailing bytes of existing+chunk.
func appendRaw(existing, chunk string, max int) string {
	combined := existing + chunk
	if len(combined) <= max {
		return combined
	}
	return combined[len(combined)-max:]
}

// cleanCode strips whitespace and the AIM symbology identifier
// (e.g. "]E0") some scanners prefix to every read.
func cleanCode(raw string) string {
	code := strings.TrimSpace(raw)
	if len(code) > 3 && code[0] == ']' {
		code = code[3:]
	}
	return code
}
