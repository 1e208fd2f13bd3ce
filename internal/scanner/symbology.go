package scanner

import (
	"strings"
)

// Symbology is a barcode encoding the decoder recognizes
type Symbology string

const (
	EAN13 Symbology = "EAN-13"
	EAN8  Symbology = "EAN-8"
	UPCA  Symbology = "UPC-A"
	UPCE  Symbology = "UPC-E"
)

// DefaultSymbologies is the closed list handed to every decoder.
var DefaultSymbologies = []Symbology{EAN13, EAN8, UPCA, UPCE}

// ReaderName returns the Quagga reader implementing the symbology
func (s Symbology) ReaderName() string {
	switch s {
	case EAN13:
		return "ean_reader"
	case EAN8:
		return "ean_8_reader"
	case UPCA:
		return "upc_reader"
	case UPCE:
		return "upc_e_reader"
	}
	return ""
}

// DecoderConfig is what a decoder is started with
type DecoderConfig struct {
	Target      string      `json:"target"`
	FacingMode  string      `json:"facing_mode"`
	Symbologies []Symbology `json:"symbologies"`
	// Cycle is set by the controller on every start; asynchronous
	// failures echo it back to InitFailed.
	Cycle uint64 `json:"cycle,omitempty"`
}

// DefaultDecoderConfig returns the fixed configuration used by the controller
func DefaultDecoderConfig() DecoderConfig {
	syms := make([]Symbology, len(DefaultSymbologies))
	copy(syms, DefaultSymbologies)
	return DecoderConfig{
		Target:      "#interactive",
		FacingMode:  "environment",
		Symbologies: syms,
	}
}

// Readers lists the Quagga reader names for the configured symbologies
func (c DecoderConfig) Readers() []string {
	readers := make([]string, 0, len(c.Symbologies))
	for _, s := range c.Symbologies {
		if name := s.ReaderName(); name != "" {
			readers = append(readers, name)
		}
	}
	return readers
}

// Detect returns the first configured symbology the code is valid for.
// Hardware decoders use it to filter misreads; camera decoders validate
// on their own.
func (c DecoderConfig) Detect(code string) (Symbology, bool) {
	code = strings.TrimSpace(code)
	if !allDigits(code) {
		return "", false
	}
	for _, s := range c.Symbologies {
		if s.Valid(code) {
			return s, true
		}
	}
	return "", false
}

// Valid checks length and check digit of code for the symbology
func (s Symbology) Valid(code string) bool {
	if !allDigits(code) {
		return false
	}
	switch s {
	case EAN13:
		return len(code) == 13 && checkDigitOK(code)
	case EAN8:
		return len(code) == 8 && checkDigitOK(code)
	case UPCA:
		return len(code) == 12 && checkDigitOK(code)
	case UPCE:
		if len(code) != 8 || (code[0] != '0' && code[0] != '1') {
			return false
		}
		expanded, ok := ExpandUPCE(code)
		return ok && checkDigitOK(expanded)
	}
	return false
}

// ExpandUPCE converts an 8 digit UPC-E code to its 12 digit UPC-A form.
// The check digit is carried over unchanged.
func ExpandUPCE(code string) (string, bool) {
	if len(code) != 8 || !allDigits(code) {
		return "", false
	}
	ns, d, check := code[:1], code[1:7], code[7:]

	var body string
	switch d[5] {
	case '0', '1', '2':
		body = d[0:2] + d[5:6] + "0000" + d[2:5]
	case '3':
		body = d[0:3] + "00000" + d[3:5]
	case '4':
		body = d[0:4] + "00000" + d[4:5]
	default:
		body = d[0:5] + "0000" + d[5:6]
	}
	return ns + body + check, true
}

// checkDigitOK validates a GTIN style mod-10 check digit (last digit).
func checkDigitOK(code string) bool {
	n := len(code)
	if n < 2 {
		return false
	}
	sum := 0
	// weights alternate 3,1 starting from the digit left of the check digit
	for i := n - 2; i >= 0; i-- {
		v := int(code[i] - '0')
		if (n-2-i)%2 == 0 {
			v *= 3
		}
		sum += v
	}
	return (10-sum%10)%10 == int(code[n-1]-'0')
}

func allDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
