package application

import (
	"fmt"
	"strings"

	"docketvoice/internal/domain"
)

// Summary reads back one section of the collected answers, or all of
// them for review.
func Summary(d *domain.PetitionData, section domain.Command) string {
	switch section {
	case domain.CommandPersonalInfo:
		return personalSummary(d)
	case domain.CommandIncomeInfo:
		return incomeSummary(d)
	case domain.CommandExpenseInfo:
		return "I don't collect detailed monthly expenses in this interview. Your attorney will go over them with you."
	case domain.CommandAssetInfo:
		return assetSummary(d)
	case domain.CommandDebtInfo:
		return debtSummary(d)
	}

	parts := []string{fmt.Sprintf("Case type: %s.", orNotYet(string(d.CaseType)))}
	parts = append(parts, personalSummary(d), incomeSummary(d), assetSummary(d), debtSummary(d))
	if len(d.Skipped) > 0 {
		parts = append(parts, fmt.Sprintf("Skipped: %s.", strings.Join(d.Skipped, ", ")))
	}
	return strings.Join(parts, " ")
}

func personalSummary(d *domain.PetitionData) string {
	return fmt.Sprintf(
		"Name: %s. Date of birth: %s. Address: %s, ZIP %s. Phone: %s. Email: %s. Marital status: %s. Dependents: %d.",
		orNotYet(d.Name), orNotYet(d.DOB), orNotYet(d.Address), orNotYet(d.ZipCode),
		orNotYet(d.Phone), orNotYet(d.Email), orNotYet(d.MaritalStatus), len(d.Dependents),
	)
}

func incomeSummary(d *domain.PetitionData) string {
	income := orNotYet(d.GrossIncomeLast6M)
	if d.MonthlyIncome != nil {
		income = money(*d.MonthlyIncome) + " a month"
	}
	s := fmt.Sprintf("Employer: %s. Income: %s.", orNotYet(d.Employer), income)
	if d.SideIncome != "" {
		s += fmt.Sprintf(" Side income: %s.", d.SideIncome)
	}
	return s
}

func assetSummary(d *domain.PetitionData) string {
	if len(d.Assets) == 0 {
		return "No assets listed yet."
	}
	items := make([]string, 0, len(d.Assets))
	for _, a := range d.Assets {
		items = append(items, fmt.Sprintf("%s worth %s", a.Item, a.Value))
	}
	return fmt.Sprintf("%d %s: %s.", len(d.Assets), plural(len(d.Assets), "asset", "assets"), strings.Join(items, "; "))
}

func debtSummary(d *domain.PetitionData) string {
	if len(d.Liabilities) == 0 {
		return "No debts listed yet."
	}
	var total float64
	known := true
	items := make([]string, 0, len(d.Liabilities))
	for _, l := range d.Liabilities {
		items = append(items, fmt.Sprintf("%s, %s, %s", l.Creditor, l.Amount, l.Type))
		if l.Balance == nil {
			known = false
			continue
		}
		total += *l.Balance
	}
	s := fmt.Sprintf("%d %s: %s.", len(d.Liabilities), plural(len(d.Liabilities), "debt", "debts"), strings.Join(items, "; "))
	if known {
		s += fmt.Sprintf(" Total owed: %s.", money(total))
	}
	return s
}

func orNotYet(s string) string {
	if strings.TrimSpace(s) == "" {
		return "not given yet"
	}
	return s
}

func plural(n int, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}

func money(v float64) string {
	whole := int64(v)
	cents := int64((v-float64(whole))*100 + 0.5)
	if cents >= 100 {
		whole++
		cents -= 100
	}
	digits := fmt.Sprint(whole)
	var b strings.Builder
	for i, r := range digits {
		if i > 0 && (len(digits)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(r)
	}
	if cents == 0 {
		return "$" + b.String()
	}
	return fmt.Sprintf("$%s.%02d", b.String(), cents)
}
