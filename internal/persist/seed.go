package persist

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/pocketbank-dev/pocketbank/internal/model"
)

// Seed returns the demo account created on first run, when the adapter has
// no accounts at all. Ids are fixed so the seed is reproducible.
func Seed(now time.Time) []model.Account {
	amount := decimal.NewFromInt(1000)
	return []model.Account{
		{
			ID:       "demo1",
			Username: "demo",
			FullName: "Demo User",
			PIN:      "1234",
			Balance:  amount,
			Transactions: []model.Transaction{
				{
					ID:          "init1",
					Kind:        model.KindDeposit,
					Amount:      amount,
					Description: "Initial deposit",
					Timestamp:   now,
				},
			},
			CreatedAt: now,
		},
	}
}
