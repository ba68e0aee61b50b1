package seats

import (
	"fmt"
	"strconv"
)

// Category is the pricing tier a seat belongs to. The tier is fixed by the
// seat's row letter; CategoryMixed only ever appears as a derived label on
// bookings whose seats span more than one tier.
type Category string

const (
	CategoryClassic  Category = "Classic"
	CategoryPrime    Category = "Prime"
	CategorySuperior Category = "Superior"
	CategoryMixed    Category = "Mixed"
)

// The auditorium layout is fixed: 8 rows (A-H) of 10 seats each.
const (
	Rows = "ABCDEFGH"
	Cols = 10
)

var categoryByRow = map[byte]Category{
	'A': CategoryClassic,
	'B': CategoryClassic,
	'C': CategoryClassic,
	'D': CategoryPrime,
	'E': CategoryPrime,
	'F': CategoryPrime,
	'G': CategorySuperior,
	'H': CategorySuperior,
}

// PriceMap holds the per-category ticket price for one showtime.
type PriceMap map[Category]float64

// Validate checks that prices exist for all three sellable categories and
// that none of them is negative.
func (p PriceMap) Validate() error {
	for _, c := range []Category{CategoryClassic, CategoryPrime, CategorySuperior} {
		price, ok := p[c]
		if !ok {
			return fmt.Errorf("price map missing category %s", c)
		}
		if price < 0 {
			return fmt.Errorf("price map has negative price for %s", c)
		}
	}
	return nil
}

// ParseSeatID splits a seat id like "C7" into its row letter and column.
// Anything outside the A1..H10 grid is rejected.
func ParseSeatID(id string) (row byte, col int, err error) {
	if len(id) < 2 || len(id) > 3 {
		return 0, 0, fmt.Errorf("invalid seat id %q", id)
	}
	row = id[0]
	if _, ok := categoryByRow[row]; !ok {
		return 0, 0, fmt.Errorf("invalid seat id %q: row %c outside A-%c", id, row, Rows[len(Rows)-1])
	}
	// Canonical spellings only: plain digits, no leading zero. Otherwise
	// "A01" or "A+1" would pass validation yet compare unequal to "A1",
	// slipping past the conflict check for the same physical seat.
	for i := 1; i < len(id); i++ {
		if id[i] < '0' || id[i] > '9' {
			return 0, 0, fmt.Errorf("invalid seat id %q: column must be 1-%d", id, Cols)
		}
	}
	if id[1] == '0' {
		return 0, 0, fmt.Errorf("invalid seat id %q: column must be 1-%d", id, Cols)
	}
	col, err = strconv.Atoi(id[1:])
	if err != nil || col < 1 || col > Cols {
		return 0, 0, fmt.Errorf("invalid seat id %q: column must be 1-%d", id, Cols)
	}
	return row, col, nil
}

// CategoryFor maps a seat id to its pricing category.
func CategoryFor(seatID string) (Category, error) {
	row, _, err := ParseSeatID(seatID)
	if err != nil {
		return "", err
	}
	return categoryByRow[row], nil
}

// AllSeatIDs returns every seat id in the grid, row-major: A1..A10,
// B1..B10, ..., H1..H10. Used for rendering seat maps and admin tooling.
func AllSeatIDs() []string {
	out := make([]string, 0, len(Rows)*Cols)
	for i := 0; i < len(Rows); i++ {
		for c := 1; c <= Cols; c++ {
			out = append(out, fmt.Sprintf("%c%d", Rows[i], c))
		}
	}
	return out
}

// DeriveCategory returns the single category shared by every seat in the
// set, or CategoryMixed when the seats span more than one tier.
func DeriveCategory(seatIDs []string) (Category, error) {
	if len(seatIDs) == 0 {
		return "", fmt.Errorf("no seats given")
	}
	var derived Category
	for _, id := range seatIDs {
		c, err := CategoryFor(id)
		if err != nil {
			return "", err
		}
		if derived == "" {
			derived = c
			continue
		}
		if c != derived {
			return CategoryMixed, nil
		}
	}
	return derived, nil
}

// ComputeTotal sums the per-seat price for the given seat set against a
// showtime's price map. This is the authoritative charge: totals declared
// by a client are informational only and never trusted.
func ComputeTotal(prices PriceMap, seatIDs []string) (float64, error) {
	var total float64
	for _, id := range seatIDs {
		c, err := CategoryFor(id)
		if err != nil {
			return 0, err
		}
		price, ok := prices[c]
		if !ok {
			return 0, fmt.Errorf("price map missing category %s for seat %s", c, id)
		}
		total += price
	}
	return total, nil
}
