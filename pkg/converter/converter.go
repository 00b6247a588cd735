// Package converter implements the exchange-rate arithmetic behind the
// dimdim converter page and its /convert endpoint.
package converter

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
)

var (
	// ErrUnknownCurrency is returned for a currency code missing from the rate table.
	ErrUnknownCurrency = errors.New("unknown currency")

	// ErrInvalidAmount is returned for amounts that are not finite, non-negative numbers.
	ErrInvalidAmount = errors.New("invalid amount")
)

// Currency is a selectable currency: Code is the option value, Name the label.
type Currency struct {
	Code string `yaml:"code" validate:"len=3,uppercase"`
	Name string `yaml:"name" validate:"required"`
}

// DefaultCurrencies are the currencies offered by the reference page.
var DefaultCurrencies = []Currency{
	{Code: "USD", Name: "Dolar"},
	{Code: "BRL", Name: "Real"},
	{Code: "EUR", Name: "Euro"},
}

// RateTable holds the value of one unit of each currency expressed in Base.
type RateTable struct {
	Base  string             `yaml:"base" validate:"len=3"`
	Rates map[string]float64 `yaml:"rates" validate:"required,dive,keys,len=3,endkeys,gt=0"`
}

// DefaultRateTable returns the fixed 1:1 table the functional tests assume.
func DefaultRateTable() RateTable {
	rates := make(map[string]float64, len(DefaultCurrencies))
	for _, c := range DefaultCurrencies {
		rates[c.Code] = 1
	}
	return RateTable{Base: "USD", Rates: rates}
}

// Rate returns how many units of to one unit of from buys.
func (t RateTable) Rate(from, to string) (float64, error) {
	fromRate, ok := t.Rates[strings.ToUpper(from)]
	if !ok {
		return 0, fmt.Errorf("%w: %q", ErrUnknownCurrency, from)
	}
	toRate, ok := t.Rates[strings.ToUpper(to)]
	if !ok {
		return 0, fmt.Errorf("%w: %q", ErrUnknownCurrency, to)
	}
	return fromRate / toRate, nil
}

// Convert converts amount from one currency to another.
func (t RateTable) Convert(from, to string, amount float64) (float64, error) {
	if amount < 0 || math.IsNaN(amount) || math.IsInf(amount, 0) {
		return 0, fmt.Errorf("%w: %v", ErrInvalidAmount, amount)
	}
	rate, err := t.Rate(from, to)
	if err != nil {
		return 0, err
	}
	out := amount * rate
	if math.IsInf(out, 0) {
		return 0, fmt.Errorf("%w: %v %s is out of range in %s", ErrInvalidAmount, amount, from, to)
	}
	return out, nil
}

// Codes returns the known currency codes in sorted order.
func (t RateTable) Codes() []string {
	codes := make([]string, 0, len(t.Rates))
	for code := range t.Rates {
		codes = append(codes, code)
	}
	sort.Strings(codes)
	return codes
}

// ParseAmount parses a user-entered amount. Both "2.5" and "2,5" are accepted.
func ParseAmount(s string) (float64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, fmt.Errorf("%w: empty", ErrInvalidAmount)
	}
	v, err := strconv.ParseFloat(strings.Replace(s, ",", ".", 1), 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidAmount, s)
	}
	if v < 0 || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, fmt.Errorf("%w: %q", ErrInvalidAmount, s)
	}
	return v, nil
}

// FormatAmount renders v rounded to cents without trailing zeros. Values
// too large to scale to cents have no fraction to round and print as is.
func FormatAmount(v float64) string {
	rounded := v
	if cents := v * 100; !math.IsInf(cents, 0) {
		rounded = math.Round(cents) / 100
	}
	if rounded == 0 {
		rounded = 0 // no "-0"
	}
	return strconv.FormatFloat(rounded, 'f', -1, 64)
}
