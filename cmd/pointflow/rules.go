package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/mhutchins/pointflow/internal/cli"
	"github.com/mhutchins/pointflow/internal/model"
)

func rulesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "rules",
		Short: "Manage the reward rule catalog",
	}

	cmd.AddCommand(rulesListCmd())
	cmd.AddCommand(rulesAddCmd())
	cmd.AddCommand(rulesEnableCmd())
	cmd.AddCommand(rulesDisableCmd())
	cmd.AddCommand(rulesDeleteCmd())

	return cmd
}

func rulesListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List catalog rules in declaration order",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			store, err := initStorage(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			rules, err := store.ListRules(ctx)
			if err != nil {
				return fmt.Errorf("failed to list rules: %w", err)
			}

			if len(rules) == 0 {
				fmt.Println(cli.SubtleStyle.Render("No rules in catalog"))
				return nil
			}

			fmt.Println(cli.TitleStyle.Render("Reward rules"))
			for i := range rules {
				fmt.Println(cli.RenderRuleRow(&rules[i]))
			}
			return nil
		},
	}
}

func rulesAddCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "add",
		Short: "Add a rule from a JSON definition",
		Long: `Add a reward rule to the catalog. The rule is read as JSON from
--file or stdin. The rule is validated before insert; condition trees
with unknown node types are rejected here rather than silently never
matching.`,
		RunE: runRulesAdd,
	}

	cmd.Flags().String("file", "", "JSON rule definition (defaults to stdin)")

	return cmd
}

func runRulesAdd(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	var data []byte
	var err error
	if path, _ := cmd.Flags().GetString("file"); path != "" {
		data, err = os.ReadFile(path)
	} else {
		data, err = io.ReadAll(cmd.InOrStdin())
	}
	if err != nil {
		return fmt.Errorf("failed to read rule definition: %w", err)
	}

	// Decode through an envelope so the condition tree goes through the
	// discriminant-aware decoder.
	var envelope struct {
		ID         string           `json:"id"`
		CardTypeID string           `json:"card_type_id"`
		Name       string           `json:"name"`
		Priority   int              `json:"priority"`
		Enabled    *bool            `json:"enabled"`
		Conditions json.RawMessage  `json:"conditions"`
		Reward     model.RewardSpec `json:"reward"`
	}
	if err := json.Unmarshal(data, &envelope); err != nil {
		return fmt.Errorf("invalid rule definition: %w", err)
	}

	conditions, err := model.DecodeConditions(envelope.Conditions)
	if err != nil {
		return fmt.Errorf("invalid rule conditions: %w", err)
	}

	rule := model.RewardRule{
		ID:         envelope.ID,
		CardTypeID: envelope.CardTypeID,
		Name:       envelope.Name,
		Priority:   envelope.Priority,
		Enabled:    envelope.Enabled == nil || *envelope.Enabled,
		Conditions: conditions,
		Reward:     envelope.Reward,
	}

	store, err := initStorage(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	if err := store.CreateRule(ctx, &rule); err != nil {
		return fmt.Errorf("failed to create rule: %w", err)
	}

	fmt.Println(cli.SuccessStyle.Render(fmt.Sprintf("Created rule %s (seq %d)", rule.ID, rule.Seq)))
	return nil
}

func rulesEnableCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "enable <rule-id>",
		Short: "Enable a rule",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return toggleRule(cmd, args[0], true)
		},
	}
}

func rulesDisableCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "disable <rule-id>",
		Short: "Disable a rule without deleting it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return toggleRule(cmd, args[0], false)
		},
	}
}

func toggleRule(cmd *cobra.Command, id string, enabled bool) error {
	ctx := cmd.Context()
	store, err := initStorage(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	if err := store.SetRuleEnabled(ctx, id, enabled); err != nil {
		return err
	}

	state := "enabled"
	if !enabled {
		state = "disabled"
	}
	fmt.Println(cli.SuccessStyle.Render(fmt.Sprintf("Rule %s %s", id, state)))
	return nil
}

func rulesDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <rule-id>",
		Short: "Delete a rule from the catalog",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			store, err := initStorage(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			if err := store.DeleteRule(ctx, args[0]); err != nil {
				return err
			}
			fmt.Println(cli.SuccessStyle.Render(fmt.Sprintf("Deleted rule %s", args[0])))
			return nil
		},
	}
}
