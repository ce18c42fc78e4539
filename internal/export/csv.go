// Package export renders an account's transaction history as a CSV
// statement.
package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/pocketbank-dev/pocketbank/internal/model"
)

// Header is the CSV header for a statement.
const Header = "id,kind,amount,signed_amount,description,counterparty_id,timestamp"

const (
	numFields = 7

	colID           = 0
	colKind         = 1
	colAmount       = 2
	colSigned       = 3
	colDescription  = 4
	colCounterparty = 5
	colTimestamp    = 6
)

// MarshalTransaction converts a transaction to a CSV row. Both the raw
// amount and the signed amount are written, so the statement sums to the
// balance without the reader knowing the sign rule.
func MarshalTransaction(t model.Transaction) []string {
	row := make([]string, numFields)
	row[colID] = t.ID
	row[colKind] = string(t.Kind)
	row[colAmount] = t.Amount.StringFixed(2)
	row[colSigned] = t.Signed().StringFixed(2)
	row[colDescription] = t.Description
	row[colCounterparty] = t.CounterpartyID
	row[colTimestamp] = t.Timestamp.Format(time.RFC3339)
	return row
}

// WriteStatement writes the transactions as CSV, header included, in the
// order given (the ledger hands them out newest first).
func WriteStatement(w io.Writer, txs []model.Transaction) error {
	cw := csv.NewWriter(w)
	defer cw.Flush()

	if err := cw.Write(strings.Split(Header, ",")); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}

	for i, t := range txs {
		if err := cw.Write(MarshalTransaction(t)); err != nil {
			return fmt.Errorf("writing row %d: %w", i+2, err)
		}
	}
	return cw.Error()
}
