package main

import (
	"fmt"
	"math/rand"
	"time"

	"github.com/google/uuid"
	"github.com/radup/fintable/internal/model"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
)

var seedVendors = []struct {
	name        string
	category    string
	subcategory string
	isIncome    bool
}{
	{"Starbucks", "Food & Dining", "Coffee", false},
	{"Whole Foods", "Food & Dining", "Groceries", false},
	{"Shell", "Transport", "Fuel", false},
	{"Metro Transit", "Transport", "Public Transit", false},
	{"Netflix", "Entertainment", "Streaming", false},
	{"Landlord LLC", "Housing", "Rent", false},
	{"City Utilities", "Housing", "Utilities", false},
	{"Acme Corp", "Income", "Salary", true},
	{"Amazon", "Shopping", "", false},
	{"CVS Pharmacy", "Health", "Pharmacy", false},
}

func seedCmd() *cobra.Command {
	var (
		count        int
		uncategorize float64
	)

	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Populate the local database with generated transactions",
		RunE: func(cmd *cobra.Command, _ []string) error {
			store, err := initLocalStore()
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			rng := rand.New(rand.NewSource(time.Now().UnixNano()))
			bar := progressbar.Default(int64(count), "seeding")

			const batchSize = 200
			batch := make([]model.Transaction, 0, batchSize)
			for i := 0; i < count; i++ {
				batch = append(batch, generateTransaction(rng, uncategorize))
				if len(batch) == batchSize || i == count-1 {
					if err := store.SaveTransactions(cmd.Context(), batch); err != nil {
						return err
					}
					_ = bar.Add(len(batch))
					batch = batch[:0]
				}
			}

			cmd.Printf("seeded %d transactions into %s\n", count, dbPath())
			return nil
		},
	}

	cmd.Flags().IntVar(&count, "count", 500, "number of transactions to generate")
	cmd.Flags().Float64Var(&uncategorize, "uncategorized", 0.4, "fraction left uncategorized")

	return cmd
}

func generateTransaction(rng *rand.Rand, uncategorize float64) model.Transaction {
	v := seedVendors[rng.Intn(len(seedVendors))]

	amount := 5 + rng.Float64()*200
	if v.isIncome {
		amount = 1500 + rng.Float64()*3000
	}

	t := model.Transaction{
		ID:          uuid.NewString(),
		Date:        time.Now().AddDate(0, 0, -rng.Intn(365)),
		Description: fmt.Sprintf("%s purchase #%04d", v.name, rng.Intn(10000)),
		Vendor:      v.name,
		Amount:      amount,
		IsIncome:    v.isIncome,
	}

	if rng.Float64() >= uncategorize {
		confidence := 0.6 + rng.Float64()*0.4
		t.Category = v.category
		t.Subcategory = v.subcategory
		t.IsCategorized = true
		t.Confidence = &confidence
	}

	return t
}
