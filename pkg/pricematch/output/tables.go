package output

import (
	"fmt"

	"github.com/olekukonko/tablewriter/tw"

	pmerrors "github.com/ukaji3/pricematch-go/pkg/pricematch/errors"
	"github.com/ukaji3/pricematch-go/pkg/pricematch/models"
)

// Results renders match results one per row.
type Results []models.MatchResult

// TableData implements Tabler.
func (r Results) TableData() Data {
	d := Data{
		Headers: []string{"Working", "Cell", "Reference", "Ref Cell", "Price", "Score"},
		Alignment: []tw.Align{
			tw.AlignLeft, tw.AlignLeft, tw.AlignLeft, tw.AlignLeft, tw.AlignRight, tw.AlignRight,
		},
	}
	for _, m := range r {
		d.Rows = append(d.Rows, []string{
			m.WorkingDescription,
			m.WorkingCell,
			m.ReferenceDescription,
			m.ReferenceCell,
			m.Price.StringFixed(2),
			fmt.Sprintf("%.1f", m.Score),
		})
	}
	return d
}

// Violations renders validation problems one per row.
type Violations []pmerrors.Violation

// TableData implements Tabler.
func (v Violations) TableData() Data {
	d := Data{Headers: []string{"Field", "Value", "Problem"}}
	for _, x := range v {
		d.Rows = append(d.Rows, []string{x.Field, x.Value, x.Message})
	}
	return d
}
