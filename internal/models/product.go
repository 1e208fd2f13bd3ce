package models

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"
)

// Quantity is a nutriment amount as published by Open Food Facts.
// The API sends a JSON number or a string; strings are kept verbatim in
// Text (and parsed into Value when numeric) so a stray "traces" or "<0,5"
// never fails the surrounding product. null and absent values leave the
// pointer nil on the parent struct.
type Quantity struct {
	Value float64
	Text  string
}

// Amount returns a numeric quantity
func Amount(v float64) *Quantity {
	return &Quantity{Value: v}
}

// UnmarshalJSON accepts numbers and strings; it only fails on invalid JSON.
func (q *Quantity) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		s = strings.TrimSpace(s)
		*q = Quantity{Text: s}
		if v, err := strconv.ParseFloat(strings.ReplaceAll(s, ",", "."), 64); err == nil {
			q.Value = v
		}
		return nil
	}

	var v float64
	if err := json.Unmarshal(data, &v); err != nil {
		// booleans, objects and arrays: keep the raw text
		if !json.Valid(data) {
			return err
		}
		*q = Quantity{Text: string(data)}
		return nil
	}
	*q = Quantity{Value: v}
	return nil
}

// MarshalJSON writes the string form back when one was received
func (q Quantity) MarshalJSON() ([]byte, error) {
	if q.Text != "" {
		return json.Marshal(q.Text)
	}
	return json.Marshal(q.Value)
}

// Present reports whether the amount is worth displaying: a non-empty
// string or a non-zero number.
func (q Quantity) Present() bool {
	return q.Text != "" || q.Value != 0
}

// String renders the text as received, or the shortest decimal form (250, 3.2).
func (q Quantity) String() string {
	if q.Text != "" {
		return q.Text
	}
	return strconv.FormatFloat(q.Value, 'f', -1, 64)
}

// Nutriments holds the per-100g figures displayed by the scanner
type Nutriments struct {
	Energy        *Quantity `json:"energy_100g,omitempty"`        // kcal
	Proteins      *Quantity `json:"proteins_100g,omitempty"`      // grams
	Carbohydrates *Quantity `json:"carbohydrates_100g,omitempty"` // grams
	Fat           *Quantity `json:"fat_100g,omitempty"`           // grams
}

// Product is the product record returned by the lookup API.
// Every field is optional.
type Product struct {
	Name            string      `json:"product_name,omitempty"`
	Brands          string      `json:"brands,omitempty"`
	Nutriments      *Nutriments `json:"nutriments,omitempty"`
	IngredientsText string      `json:"ingredients_text,omitempty"`
}

// ProductResponse is the envelope of GET /product/{barcode}.json
type ProductResponse struct {
	Code          string   `json:"code"`
	Status        int      `json:"status"` // 1 = found
	StatusVerbose string   `json:"status_verbose,omitempty"`
	Product       *Product `json:"product,omitempty"`
}

// Found reports whether the response carries a product
func (r *ProductResponse) Found() bool {
	return r != nil && r.Status == 1 && r.Product != nil
}
