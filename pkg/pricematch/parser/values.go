package parser

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
)

var (
	errBoolPrice = errors.New("boolean value is not a price")
	errDatePrice = errors.New("date value is not a price")
)

// dateNumFmts are the built-in number formats that display a date or a time.
var dateNumFmts = map[int]bool{
	14: true, 15: true, 16: true, 17: true, 18: true, 19: true, 20: true, 21: true, 22: true,
	27: true, 28: true, 29: true, 30: true, 31: true, 32: true, 33: true, 34: true, 35: true, 36: true,
	45: true, 46: true, 47: true,
	50: true, 51: true, 52: true, 53: true, 54: true, 55: true, 56: true, 57: true, 58: true,
}

// parsePrice parses raw cell content as a fixed-point decimal.
// Integers are tried first, then any decimal or scientific notation.
func parsePrice(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	if i, err := strconv.ParseInt(s, 10, 64); err == nil {
		return decimal.NewFromInt(i), nil
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("value %q is not a number", s)
	}
	return d, nil
}

// checkPriceCell rejects cells whose raw content looks numeric but is not a
// number: booleans are stored as 0/1 and dates as serial day counts.
func checkPriceCell(f *excelize.File, sheet, cell string) error {
	typ, err := f.GetCellType(sheet, cell)
	if err != nil {
		return err
	}
	switch typ {
	case excelize.CellTypeBool:
		return errBoolPrice
	case excelize.CellTypeDate:
		return errDatePrice
	}

	styleID, err := f.GetCellStyle(sheet, cell)
	if err != nil || styleID == 0 {
		return err
	}
	style, err := f.GetStyle(styleID)
	if err != nil {
		return err
	}
	if dateNumFmts[style.NumFmt] || (style.CustomNumFmt != nil && isDateFormat(*style.CustomNumFmt)) {
		return errDatePrice
	}
	return nil
}

// isDateFormat reports whether a custom number format code renders a date or
// a time. Quoted literals, escaped characters and bracketed sections such as
// colours and locales are ignored; elapsed-time sections like [h] count.
func isDateFormat(code string) bool {
	code = strings.ToLower(code)
	for i := 0; i < len(code); i++ {
		switch c := code[i]; c {
		case '"':
			end := strings.IndexByte(code[i+1:], '"')
			if end < 0 {
				return false
			}
			i += end + 1
		case '\\', '_', '*':
			i++
		case '[':
			end := strings.IndexByte(code[i+1:], ']')
			if end < 0 {
				return false
			}
			if strings.Trim(code[i+1:i+1+end], "hms") == "" && end > 0 {
				return true
			}
			i += end + 1
		case 'y', 'd', 'h', 'm', 's':
			return true
		}
	}
	return false
}
