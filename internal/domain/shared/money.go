package shared

import "github.com/shopspring/decimal"

// Amounts (total, precio, subtotal) cross the wire as JSON numbers, e.g.
// "total": 1800. Decoding still accepts the quoted form.
func init() {
	decimal.MarshalJSONWithoutQuotes = true
}
