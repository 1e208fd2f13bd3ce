package decoder

import (
	"fmt"
	"io"

	"github.com/franckalain/nutriscan/internal/scanner"
)

// Source is a decoder that reports to a Sink
type Source interface {
	scanner.Decoder
	SetSink(s Sink)
}

// New creates a decoder of the given type ("serial" or "stdin")
func New(kind, device string, baud int, in io.Reader) (Source, error) {
	switch kind {
	case "serial":
		if device == "" {
			return nil, fmt.Errorf("serial decoder needs a device")
		}
		return NewSerial(device, baud, nil), nil
	case "stdin":
		return NewLines(in), nil
	default:
		return nil, fmt.Errorf("unsupported decoder type: %s", kind)
	}
}
