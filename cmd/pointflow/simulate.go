package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/mhutchins/pointflow/internal/cli"
	"github.com/mhutchins/pointflow/internal/model"
)

func simulateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "simulate",
		Short: "Preview the points a purchase would earn",
		Long: `Run a purchase through the reward engine without committing anything.

Simulation is side-effect free: it reads the rule catalog and current
cap usage but never writes, so it is safe to run repeatedly while
tweaking inputs.`,
		RunE: runSimulate,
	}

	cmd.Flags().Float64("amount", 0, "purchase amount (required)")
	cmd.Flags().String("currency", "USD", "purchase currency")
	cmd.Flags().String("card", "", "card type ID (required)")
	cmd.Flags().String("user", "local", "user ID for cap lookups")
	cmd.Flags().String("mcc", "", "merchant category code")
	cmd.Flags().String("merchant", "", "merchant name")
	cmd.Flags().String("category", "", "transaction category")
	cmd.Flags().String("date", "", "transaction date (YYYY-MM-DD, default today)")
	cmd.Flags().Bool("online", false, "online purchase")
	cmd.Flags().Bool("contactless", false, "contactless purchase")
	cmd.Flags().Float64("converted-amount", 0, "amount converted to the card currency")
	cmd.Flags().String("converted-currency", "", "conversion target currency")

	_ = cmd.MarkFlagRequired("amount")
	_ = cmd.MarkFlagRequired("card")

	return cmd
}

func runSimulate(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	store, err := initStorage(ctx)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer func() { _ = store.Close() }()

	date := time.Now()
	if raw, _ := cmd.Flags().GetString("date"); raw != "" {
		date, err = time.Parse("2006-01-02", raw)
		if err != nil {
			return fmt.Errorf("invalid date %q: %w", raw, err)
		}
	}

	amount, _ := cmd.Flags().GetFloat64("amount")
	convertedAmount, _ := cmd.Flags().GetFloat64("converted-amount")
	cardTypeID, _ := cmd.Flags().GetString("card")
	userID, _ := cmd.Flags().GetString("user")
	currency, _ := cmd.Flags().GetString("currency")
	mcc, _ := cmd.Flags().GetString("mcc")
	merchant, _ := cmd.Flags().GetString("merchant")
	category, _ := cmd.Flags().GetString("category")
	convertedCurrency, _ := cmd.Flags().GetString("converted-currency")
	online, _ := cmd.Flags().GetBool("online")
	contactless, _ := cmd.Flags().GetBool("contactless")

	tc := &model.TransactionContext{
		Date:              date,
		UserID:            userID,
		CardTypeID:        cardTypeID,
		Currency:          currency,
		MCC:               mcc,
		MerchantName:      merchant,
		Category:          category,
		Amount:            amount,
		ConvertedAmount:   convertedAmount,
		ConvertedCurrency: convertedCurrency,
		IsOnline:          online,
		IsContactless:     contactless,
	}

	result, err := initEngine(store).SimulateRewards(ctx, tc)
	if err != nil {
		return fmt.Errorf("simulation failed: %w", err)
	}

	fmt.Println(cli.RenderSimulation(result))
	return nil
}
