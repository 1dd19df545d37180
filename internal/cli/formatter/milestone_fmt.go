package formatter

import (
	"fmt"
	"strings"

	"github.com/mfalkner/trackline/internal/domain"
)

// FormatMilestoneList renders milestones as an aligned table with their
// signing and breach state.
func FormatMilestoneList(milestones []*domain.Milestone) string {
	headers := []string{"ID", "NAME", "END", "BASELINE", "BREACH"}
	rows := make([][]string, 0, len(milestones))
	for _, m := range milestones {
		rows = append(rows, []string{
			StyleDim.Render(shortUUID(m.ID)),
			Truncate(m.Name, 32),
			FormatDate(m.EffectiveEnd()),
			BaselineIndicator(m.SignatureState()),
			BreachIndicator(m.Breached),
		})
	}
	return RenderTable(headers, rows)
}

// FormatMilestoneInspect renders one milestone in full: dates, baseline
// window, signatures, and breach detail.
func FormatMilestoneInspect(m *domain.Milestone, deliverables []*domain.Deliverable) string {
	var b strings.Builder
	b.WriteString(Header(m.Name))
	b.WriteString("\n")
	b.WriteString(fmt.Sprintf("%s %s\n", Dim("ID:"), m.ID))
	b.WriteString(fmt.Sprintf("%s %s   %s %s   %s %s\n",
		Dim("Start:"), FormatDate(m.StartDate),
		Dim("End:"), FormatDate(m.EndDate),
		Dim("Forecast:"), FormatDate(m.ForecastEnd)))

	b.WriteString("\n")
	b.WriteString(BaselineIndicator(m.SignatureState()))
	b.WriteString("\n")
	if m.BaselineStart != nil || m.BaselineEnd != nil {
		b.WriteString(fmt.Sprintf("%s %s → %s", Dim("Window:"), FormatDate(m.BaselineStart), FormatDate(m.BaselineEnd)))
		if m.BaselineBillable != nil {
			b.WriteString(fmt.Sprintf("   %s %.2f", Dim("Billable:"), *m.BaselineBillable))
		}
		b.WriteString("\n")
	}
	b.WriteString(signatureLine("Supplier", m.SupplierSignature))
	b.WriteString(signatureLine("Customer", m.CustomerSignature))

	if m.Breached {
		b.WriteString("\n")
		b.WriteString(BreachIndicator(true))
		b.WriteString("\n")
		b.WriteString(fmt.Sprintf("%s %s\n", Dim("Reason:"), m.BreachReason))
		if m.BreachedAt != nil {
			b.WriteString(fmt.Sprintf("%s %s by %s\n", Dim("Recorded:"), m.BreachedAt.Format("2006-01-02 15:04"), m.BreachedBy))
		}
	}

	if len(deliverables) > 0 {
		b.WriteString("\n")
		b.WriteString(Header("Deliverables"))
		b.WriteString("\n")
		rows := make([][]string, 0, len(deliverables))
		for _, d := range deliverables {
			rows = append(rows, []string{
				StyleDim.Render(shortUUID(d.ID)),
				Truncate(d.Name, 32),
				FormatDate(d.TargetDate),
			})
		}
		b.WriteString(RenderTable([]string{"ID", "NAME", "TARGET"}, rows))
	}
	return b.String()
}

// FormatBaselineVersions renders the permanent audit trail of a milestone.
func FormatBaselineVersions(versions []*domain.BaselineVersion) string {
	if len(versions) == 0 {
		return Dim("No baseline versions recorded.")
	}
	headers := []string{"VER", "WINDOW", "BILLABLE", "SUPPLIER", "CUSTOMER", "RECORDED"}
	rows := make([][]string, 0, len(versions))
	for _, v := range versions {
		billable := Dim("—")
		if v.BaselineBillable != nil {
			billable = fmt.Sprintf("%.2f", *v.BaselineBillable)
		}
		rows = append(rows, []string{
			fmt.Sprintf("v%d", v.Version),
			fmt.Sprintf("%s → %s", FormatDate(v.BaselineStart), FormatDate(v.BaselineEnd)),
			billable,
			fmt.Sprintf("%s (%s)", v.SupplierSignature.SignerName, v.SupplierSignature.SignedAt.Format("2006-01-02")),
			fmt.Sprintf("%s (%s)", v.CustomerSignature.SignerName, v.CustomerSignature.SignedAt.Format("2006-01-02")),
			v.CreatedAt.Format("2006-01-02 15:04"),
		})
	}
	return RenderTable(headers, rows)
}

func signatureLine(label string, sig *domain.Signature) string {
	if sig == nil {
		return fmt.Sprintf("%s %s\n", Dim(label+":"), Dim("not signed"))
	}
	return fmt.Sprintf("%s %s at %s\n", Dim(label+":"), sig.SignerName, sig.SignedAt.Format("2006-01-02 15:04"))
}

func shortUUID(id string) string {
	if len(id) >= 8 {
		return id[:8]
	}
	return id
}
