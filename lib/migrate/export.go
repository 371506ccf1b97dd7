package migrate

import (
	"fmt"

	"github.com/alanpinnt/wpmigrate/lib/store"
)

// renderUpdate builds one complete update statement for a single changed
// column, quoted with the store's dialect rules so the output is directly
// executable against the same database.
func renderUpdate(st store.IStore, table, column, value, pkColumn string, pk any) string {
	return fmt.Sprintf("UPDATE %s SET %s = %s WHERE %s = %s;",
		st.QuoteIdentifier(table),
		st.QuoteIdentifier(column),
		st.QuoteLiteral(value),
		st.QuoteIdentifier(pkColumn),
		pkLiteral(st, pk))
}

// pkLiteral renders a primary key value. Numeric keys stay bare, everything
// else is quoted as a string literal.
func pkLiteral(st store.IStore, pk any) string {
	switch v := pk.(type) {
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
		return fmt.Sprintf("%d", v)
	case float32, float64:
		return fmt.Sprintf("%v", v)
	default:
		return st.QuoteLiteral(fmt.Sprintf("%v", v))
	}
}
