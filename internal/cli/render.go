package cli

import (
	"fmt"
	"strings"

	"github.com/mhutchins/pointflow/internal/model"
)

// RenderSimulation formats a simulation result for terminal display.
func RenderSimulation(result *model.SimulationResult) string {
	var b strings.Builder

	b.WriteString(TitleStyle.Render("Reward simulation"))
	b.WriteString("\n")

	if result.AppliedRule != nil {
		b.WriteString(fmt.Sprintf("%s %s\n",
			SubtleStyle.Render("Applied rule:"),
			BoldStyle.Render(result.AppliedRule.Name)))
	} else {
		b.WriteString(WarningStyle.Render("No rule applied") + "\n")
	}

	b.WriteString(fmt.Sprintf("%s %d\n", SubtleStyle.Render("Base points: "), result.BasePoints))
	b.WriteString(fmt.Sprintf("%s %d\n", SubtleStyle.Render("Bonus points:"), result.BonusPoints))
	b.WriteString(SuccessStyle.Render(fmt.Sprintf("Total points: %d", result.TotalPoints)))
	if result.PointsCurrency != "" {
		b.WriteString(SubtleStyle.Render(" " + result.PointsCurrency))
	}
	b.WriteString("\n")

	if result.RemainingMonthlyBonus != nil {
		b.WriteString(fmt.Sprintf("%s %.0f\n",
			SubtleStyle.Render("Remaining cap headroom:"),
			*result.RemainingMonthlyBonus))
	}

	for _, msg := range result.Messages {
		b.WriteString(WarningStyle.Render("! "+msg) + "\n")
	}

	return BoxStyle.Render(b.String())
}

// RenderRuleRow formats one catalog rule as a list line.
func RenderRuleRow(rule *model.RewardRule) string {
	status := SuccessStyle.Render("enabled")
	if !rule.Enabled {
		status = SubtleStyle.Render("disabled")
	}

	capInfo := "no cap"
	if rule.Reward.MonthlyCap != nil {
		capInfo = fmt.Sprintf("cap %.0f %s", rule.Reward.MonthlyCap.Value, rule.Reward.MonthlyCap.Type)
		if rule.Reward.CapGroupID != "" {
			capInfo += " (group " + rule.Reward.CapGroupID + ")"
		}
	}

	return fmt.Sprintf("%s  %s  %s  %s",
		BoldStyle.Render(fmt.Sprintf("%-24s", rule.Name)),
		SubtleStyle.Render(fmt.Sprintf("prio %2d  %s", rule.Priority, rule.CardTypeID)),
		capInfo,
		status)
}
