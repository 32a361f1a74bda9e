package cmd

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"github.com/bxcodec/faker/v3"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"split-reconciliation-backend/internal/models"
	"split-reconciliation-backend/internal/money"
	"split-reconciliation-backend/internal/repository"
)

var (
	seedTenant   string
	seedInvoices int
	seedAmount   string
)

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Insert demo invoices and a bank transaction for a tenant",
	Long: `Seed creates outstanding invoices with random customers and balances,
plus one pending bank transaction. Unless --amount is given, the transaction
pays a few of the generated invoices exactly, so a suggest call finds it.`,
	RunE: runSeed,
}

func init() {
	seedCmd.Flags().StringVar(&seedTenant, "tenant", "", "tenant id (random when empty)")
	seedCmd.Flags().IntVar(&seedInvoices, "invoices", 8, "number of invoices to create")
	seedCmd.Flags().StringVar(&seedAmount, "amount", "", "bank transaction amount, e.g. 1250.00")
}

func runSeed(cmd *cobra.Command, args []string) error {
	if seedInvoices < 2 {
		return fmt.Errorf("--invoices must be at least 2")
	}

	tenantID := uuid.New()
	if seedTenant != "" {
		parsed, err := uuid.Parse(seedTenant)
		if err != nil {
			return fmt.Errorf("invalid --tenant: %w", err)
		}
		tenantID = parsed
	}

	rt, err := bootstrap()
	if err != nil {
		return err
	}
	if err := migrate(rt.db); err != nil {
		return err
	}

	ctx := context.Background()
	store := repository.NewStore(rt.db)
	now := time.Now()
	prefix := tenantID.String()[:8]

	var invoices []models.Invoice
	err = repository.WithinTx(ctx, store, func(tx repository.Tx) error {
		for i := 0; i < seedInvoices; i++ {
			amount := randomAmount()
			inv := models.Invoice{
				TenantID:      tenantID,
				InvoiceNumber: fmt.Sprintf("INV-%s-%04d", prefix, i+1),
				CustomerName:  faker.Name(),
				CustomerEmail: faker.Email(),
				TotalCents:    amount.Shift(2).IntPart(),
				Status:        models.InvoiceStatusSent,
				DueDate:       now.AddDate(0, 0, 7+rand.Intn(30)),
			}
			if err := tx.Invoices().Create(ctx, &inv); err != nil {
				return err
			}
			invoices = append(invoices, inv)
		}

		amountCents, err := bankAmount(invoices)
		if err != nil {
			return err
		}
		bankTx := models.BankTransaction{
			TenantID:        tenantID,
			TransactionDate: now,
			Description:     "TRANSFER " + faker.Name(),
			AmountCents:     amountCents,
			ReferenceNumber: "SEED-" + uuid.NewString()[:8],
			Status:          models.TransactionStatusPending,
		}
		if err := tx.BankTransactions().Create(ctx, &bankTx); err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "tenant:           %s\n", tenantID)
		fmt.Fprintf(out, "bank transaction: %s (%s)\n", bankTx.ID, money.Format(bankTx.AmountCents))
		for _, inv := range invoices {
			fmt.Fprintf(out, "  %s  %10s  %s\n", inv.InvoiceNumber, money.Format(inv.TotalCents), inv.CustomerName)
		}
		return nil
	})
	return err
}

// randomAmount returns a balance between 100.00 and 1999.99.
func randomAmount() decimal.Decimal {
	units := decimal.NewFromInt(int64(100 + rand.Intn(1900)))
	return units.Add(decimal.New(int64(rand.Intn(100)), -2))
}

func bankAmount(invoices []models.Invoice) (int64, error) {
	if seedAmount != "" {
		cents, err := money.ParseCents(seedAmount)
		if err != nil {
			return 0, fmt.Errorf("invalid --amount: %w", err)
		}
		return cents, nil
	}

	k := 2 + rand.Intn(2)
	if k > len(invoices) {
		k = len(invoices)
	}
	var total int64
	for _, i := range rand.Perm(len(invoices))[:k] {
		total += invoices[i].TotalCents
	}
	return total, nil
}
