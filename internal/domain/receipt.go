package domain

import (
	"encoding/json"
	"time"
)

// Unit is the measurement unit inferred for a receipt item
type Unit string

const (
	UnitKilogram Unit = "kg"
	UnitGram     Unit = "g"
	UnitPiece    Unit = "piece"
	UnitPackage  Unit = "package" // default when no quantity signal is found
)

// Valid reports whether u is one of the known units
func (u Unit) Valid() bool {
	switch u {
	case UnitKilogram, UnitGram, UnitPiece, UnitPackage:
		return true
	}
	return false
}

// DefaultCategory is assigned to products the catalog does not know
const DefaultCategory = "other"

// dateLayout is the wire format of Date
const dateLayout = "2006-01-02"

// Date is a calendar date. The time part is always midnight.
type Date struct {
	time.Time
}

// DateOf truncates t to midnight in its own location
func DateOf(t time.Time) Date {
	y, m, d := t.Date()
	return Date{time.Date(y, m, d, 0, 0, 0, 0, t.Location())}
}

// AddDays returns the date n days after d
func (d Date) AddDays(n int) Date {
	return Date{d.Time.AddDate(0, 0, n)}
}

// String formats the date as YYYY-MM-DD
func (d Date) String() string {
	return d.Time.Format(dateLayout)
}

// MarshalJSON encodes the date as "YYYY-MM-DD"
func (d Date) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.String())
}

// UnmarshalJSON decodes a "YYYY-MM-DD" string
func (d *Date) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	t, err := time.ParseInLocation(dateLayout, s, time.Local)
	if err != nil {
		return err
	}
	d.Time = t
	return nil
}

// RawLine is one non-blank line of OCR output with its position in the receipt
type RawLine struct {
	Index int    `json:"index"`
	Text  string `json:"text"`
}

// ParsedProduct is one food item accepted from a receipt
type ParsedProduct struct {
	Name         string  `json:"name"`
	Quantity     float64 `json:"quantity"`
	Unit         Unit    `json:"unit"`
	Category     string  `json:"category"`
	ExpiryRange  string  `json:"expiryRange"`
	ExpiryFresh  Date    `json:"expiryFresh"`
	ExpiryFrozen Date    `json:"expiryFrozen"`
}

// ReceiptResult is the outcome of analyzing one receipt image.
// Either Success is true and Products holds every accepted item (possibly none),
// or Success is false, Products is empty and Error explains the failure.
type ReceiptResult struct {
	Success  bool            `json:"success"`
	Products []ParsedProduct `json:"products"`
	RawText  string          `json:"rawText,omitempty"`
	Error    string          `json:"error,omitempty"`
}

// FailedReceipt builds the failure envelope for a fatal pipeline error
func FailedReceipt(err error) ReceiptResult {
	return ReceiptResult{
		Success:  false,
		Products: []ParsedProduct{},
		Error:    err.Error(),
	}
}
