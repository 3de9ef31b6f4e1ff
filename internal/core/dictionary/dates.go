package dictionary

import (
	perr "visitagg/internal/platform/errors"
)

const (
	// DateLen is the byte length of a YYYY-MM-DD date
	DateLen = 10
	// MonthSlots is the fixed number of day slots per month
	MonthSlots = 31
	// YearSlots is the fixed number of day slots per year
	YearSlots = 12 * MonthSlots
)

// Horizon is the inclusive year range dates are encoded over
//
// Every month gets 31 slots, so ids like 2023-02-30 exist and simply never occur in real
// input. Decoding stays pure arithmetic over ten bytes.
type Horizon struct {
	From int
	To   int
}

// Validate reports an empty or inverted range
func (h Horizon) Validate() error {
	if h.From < 0 || h.To > 9999 || h.To < h.From {
		return perr.InvalidArgf("invalid year horizon %d..%d", h.From, h.To)
	}
	return nil
}

// Size is the number of date ids in the horizon
func (h Horizon) Size() int { return (h.To - h.From + 1) * YearSlots }

// Encode maps the first ten bytes of b, YYYY-MM-DD, to a date id
// ok is false for short input, non-digits, wrong separators or an out of range field
func (h Horizon) Encode(b []byte) (id int, ok bool) {
	if len(b) < DateLen || b[4] != '-' || b[7] != '-' {
		return 0, false
	}
	y, ok1 := digits(b[0:4])
	m, ok2 := digits(b[5:7])
	d, ok3 := digits(b[8:10])
	if !ok1 || !ok2 || !ok3 {
		return 0, false
	}
	if y < h.From || y > h.To || m < 1 || m > 12 || d < 1 || d > MonthSlots {
		return 0, false
	}
	return (y-h.From)*YearSlots + (m-1)*MonthSlots + (d - 1), true
}

// Decode renders id back to YYYY-MM-DD
func (h Horizon) Decode(id int) string {
	return string(h.Append(make([]byte, 0, DateLen), id))
}

// Append appends the YYYY-MM-DD form of id to dst
func (h Horizon) Append(dst []byte, id int) []byte {
	y := h.From + id/YearSlots
	rem := id % YearSlots
	m := rem/MonthSlots + 1
	d := rem%MonthSlots + 1
	return append(dst,
		byte('0'+y/1000%10), byte('0'+y/100%10), byte('0'+y/10%10), byte('0'+y%10),
		'-', byte('0'+m/10), byte('0'+m%10),
		'-', byte('0'+d/10), byte('0'+d%10),
	)
}

func digits(b []byte) (int, bool) {
	n := 0
	for _, c := range b {
		if c < '0' || c > '9' {
			return 0, false
		}
		n = n*10 + int(c-'0')
	}
	return n, true
}
