package sim

import (
	"fmt"
	"strings"

	"github.com/mind-engage/mindengage-adaptivequiz/internal/format"
)

// Render prints the summary table and, when details is set, one row per
// examinee. Abilities are shown on the quiz's display scale.
func (s Summary) Render(m format.Mode, details bool) string {
	scale := s.Config.Scale()
	var b strings.Builder

	tb := format.NewTable(m)
	tb.Header("Metric", "Logits", "Display")
	tb.Row("Examinees", len(s.Examinees), "")
	tb.Row("Bias", fmt.Sprintf("%.3f", s.Bias), fmt.Sprintf("%.3f", s.Bias*scale.Slope))
	tb.Row("RMSE", fmt.Sprintf("%.3f", s.RMSE), fmt.Sprintf("%.3f", s.RMSE*scale.Slope))
	tb.Row("Mean std. error", fmt.Sprintf("%.3f", s.MeanStdErr), fmt.Sprintf("%.3f", s.MeanStdErr*scale.Slope))
	tb.Row("Mean length", fmt.Sprintf("%.2f", s.MeanLength), "")
	for _, r := range s.ReasonKeys() {
		tb.Row("Stopped: "+string(r), s.Reasons[r], "")
	}
	tb.Columns(format.ColumnConfig{Number: 2, Align: format.AlignRight}, format.ColumnConfig{Number: 3, Align: format.AlignRight})
	b.WriteString(tb.String())
	b.WriteString("\n")

	if details {
		dt := format.NewTable(m)
		dt.Header("#", "True", "Estimate", "Std. error", "Answered", "Stop")
		for _, e := range s.Examinees {
			d := scale.ToDisplay(e.Estimate)
			dt.Row(e.Index, fmt.Sprintf("%.2f", scale.LogitToLevel(e.TrueAbility)),
				fmt.Sprintf("%.2f", d.Ability), fmt.Sprintf("%.2f", d.StdErr), e.Answered, string(e.Reason))
		}
		b.WriteString(dt.String())
		b.WriteString("\n")
	}
	return b.String()
}
