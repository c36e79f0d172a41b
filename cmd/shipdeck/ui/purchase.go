package ui

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"

	"shipdeck/internal/api"
	"shipdeck/internal/batch"
)

const termsMarkdown = `## Shipping Terms

* Labels are purchased immediately and your prepaid balance is debited
  for the full amount shown.
* Purchased labels are **non-refundable** once generated.
* Rates are locked at purchase time; carrier adjustments for misdeclared
  weight or dimensions are billed to your account.
* Only valid records with an assigned service are purchased; flagged
  records are skipped.
`

// renderTerms renders the checkout terms once per visit to the page.
func (m *Model) renderTerms() {
	if m.terms != "" {
		return
	}
	r, err := glamour.NewTermRenderer(glamour.WithAutoStyle(), glamour.WithWordWrap(72))
	if err != nil {
		m.terms = termsMarkdown
		return
	}
	out, err := r.Render(termsMarkdown)
	if err != nil {
		m.terms = termsMarkdown
		return
	}
	m.terms = out
}

func (m Model) updatePurchase(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q":
		return m, tea.Quit
	case "esc", "left":
		return m.retreat()
	}
	if m.purchased != nil {
		return m, nil
	}

	switch msg.String() {
	case "l":
		if m.labelSize == api.LabelSizeThermal {
			m.labelSize = api.LabelSizeLetter
		} else {
			m.labelSize = api.LabelSizeThermal
		}
	case "t":
		m.acceptTerms = !m.acceptTerms
		m.errText = ""
	case "enter":
		if m.inflight {
			return m, nil
		}
		m.inflight = true
		m.errText = ""
		m.status = "Purchasing labels..."
		return m, m.purchaseCmd(m.labelSize, m.acceptTerms)
	}
	return m, nil
}

func (m Model) purchaseView() string {
	if m.purchased != nil {
		p := m.purchased
		var sb strings.Builder
		sb.WriteString(okStyle.Render("✓ Purchase complete") + "\n\n")
		fmt.Fprintf(&sb, "  %d labels (%s)\n", p.TotalLabels, p.LabelSize)
		fmt.Fprintf(&sb, "  Charged %s\n", batch.FormatUSD(p.TotalCost))
		fmt.Fprintf(&sb, "  New balance %s\n", batch.FormatUSD(p.NewBalance))
		if p.Message != "" {
			sb.WriteString("\n  " + p.Message + "\n")
		}
		return boxStyle.Render(sb.String())
	}

	balance := 0.0
	if u := m.session.User(); u != nil {
		balance = u.Profile.Balance
	}
	total := m.store.TotalCost()

	var sb strings.Builder
	fmt.Fprintf(&sb, "Order summary\n\n")
	fmt.Fprintf(&sb, "  Labels:     %d\n", m.store.ReadyCount())
	fmt.Fprintf(&sb, "  Total:      %s\n", selectStyle.Render(batch.FormatUSD(total)))
	fmt.Fprintf(&sb, "  Balance:    %s\n", batch.FormatUSD(balance))
	if short := batch.Shortfall(balance, total); short > 0 {
		fmt.Fprintf(&sb, "\n  %s\n",
			errorStyle.Render(fmt.Sprintf("Insufficient balance. You need %s more.", batch.FormatUSD(short))))
	}

	sizeLabel := "4\"×6\" thermal"
	if m.labelSize == api.LabelSizeLetter {
		sizeLabel = "8.5\"×11\" letter"
	}
	fmt.Fprintf(&sb, "\n  Label size: %s %s\n", sizeLabel, statusStyle.Render("(l to switch)"))

	check := "[ ]"
	if m.acceptTerms {
		check = selectStyle.Render("[x]")
	}
	fmt.Fprintf(&sb, "  %s I accept the shipping terms %s\n", check, statusStyle.Render("(t to toggle)"))

	summary := boxStyle.Render(sb.String())
	return summary + "\n" + m.terms
}
