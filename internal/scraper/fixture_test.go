package scraper

import (
	"fmt"
	"strings"

	"github.com/djbiega/MFP-Dash-App/internal/domain"
)

// diaryItem is one food row of a fixture page; values are keyed by the
// column header label ("Carbs", "Sat Fat", ...) and rendered as raw cell
// text, so tests can exercise separators and missing markers directly.
type diaryItem struct {
	name   string
	values map[string]string
}

// diaryHTML renders a diary page in the dense table layout: a classed
// header row declaring the visible nutrient columns, one class-less row per
// item with macro values wrapped in span.macro-value, and a classed totals
// row.
func diaryHTML(headers []string, items []diaryItem) string {
	var b strings.Builder
	b.WriteString(`<html><body><div id="main"><table class="food-diary">`)

	b.WriteString(`<tr class="meal_header"><td class="first alt">Foods</td>`)
	for _, h := range headers {
		fmt.Fprintf(&b, `<td class="alt nutrient-column">%s</td>`, h)
	}
	b.WriteString(`</tr>`)

	for _, item := range items {
		b.WriteString(`<tr><td class="first alt">` + item.name + `</td>`)
		for _, h := range headers {
			value := item.values[h]
			if value == "" {
				value = "--"
			}
			if n, ok := domain.NutrientForLabel(h); ok && n.IsMacro() {
				fmt.Fprintf(&b,
					`<td class="macro-cell"><span class="macro-value">%s</span><span class="macro-percentage">0%%</span></td>`,
					value)
			} else {
				fmt.Fprintf(&b, `<td>%s</td>`, value)
			}
		}
		b.WriteString(`</tr>`)
	}

	b.WriteString(`<tr class="total"><td class="first">Totals</td></tr>`)
	b.WriteString(`</table></div></body></html>`)
	return b.String()
}

const privateDiaryHTML = `<html><body><div id="main">
<div class="block-1"><p></p>This user maintains a private diary.</div>
</div></body></html>`

func notFoundHTML(username string) string {
	return `<html><body><div id="main">
<div class="block-1"><p></p>Username ` + username + ` can not be found.</div>
</div></body></html>`
}
