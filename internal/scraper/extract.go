package scraper

import (
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"

	"github.com/djbiega/MFP-Dash-App/internal/domain"
)

// maxNutrientColumns caps the detected nutrient set: the dense diary layout
// displays at most six nutrient columns per row.
const maxNutrientColumns = 6

// Extract parses one fetched diary document into the ordered list of food
// items logged that day, each carrying the nutrient values the diary
// displayed. Nutrients outside the user's configured column set are left
// unknown for every item. A diary with no parseable rows yields an empty
// result, which is success, not an error.
func Extract(doc *goquery.Document) []domain.NutritionRecord {
	detected := detectNutrients(doc)

	// Item rows carry no class attribute; header, total, and spacer rows do.
	rows := doc.Find("tr:not([class])")

	items := foodNames(rows)
	if len(items) == 0 {
		return nil
	}

	macroOrder, nonMacroOrder := splitOrder(detected)
	macros := cellTexts(rows.Find("span.macro-value"))
	nonMacros := cellTexts(rows.Find("td:not([class])"))

	records := make([]domain.NutritionRecord, len(items))
	for i, name := range items {
		records[i] = domain.NutritionRecord{
			Item:   name,
			Values: make(map[domain.Nutrient]float64, len(detected)),
		}
	}

	for _, n := range detected {
		values, order := nonMacros, nonMacroOrder
		if n.IsMacro() {
			values, order = macros, macroOrder
		}
		for i, v := range decodeColumn(values, order, n, len(items)) {
			if v.known {
				records[i].Values[n] = v.amount
			}
		}
	}

	return records
}

// detectNutrients reads the diary's column headers to learn which subset of
// the catalog this user displays. The detected order is the decoding key for
// the positional stride slicing below.
func detectNutrients(doc *goquery.Document) []domain.Nutrient {
	var detected []domain.Nutrient
	doc.Find("td.alt.nutrient-column").EachWithBreak(func(i int, s *goquery.Selection) bool {
		if i >= maxNutrientColumns {
			return false
		}
		if n, ok := domain.NutrientForLabel(firstText(s)); ok {
			detected = append(detected, n)
		}
		return true
	})
	return detected
}

// splitOrder partitions the detected set into the macro block and the
// remaining columns, preserving display order within each. The diary renders
// the two blocks as separate flat cell lists.
func splitOrder(detected []domain.Nutrient) (macro, nonMacro []domain.Nutrient) {
	for _, n := range detected {
		if n.IsMacro() {
			macro = append(macro, n)
		} else {
			nonMacro = append(nonMacro, n)
		}
	}
	return macro, nonMacro
}

// foodNames returns the ordered item names from the first table column.
func foodNames(rows *goquery.Selection) []string {
	var names []string
	rows.Find("td.first.alt").Each(func(_ int, s *goquery.Selection) {
		if name := firstText(s); name != "" {
			names = append(names, name)
		}
	})
	return names
}

func cellTexts(cells *goquery.Selection) []string {
	var texts []string
	cells.Each(func(_ int, s *goquery.Selection) {
		if t := firstText(s); t != "" {
			texts = append(texts, t)
		}
	})
	return texts
}

// firstText returns the first non-blank text node directly under the
// selection, ignoring nested elements such as percentage badges.
func firstText(s *goquery.Selection) string {
	for _, node := range s.Nodes {
		for c := node.FirstChild; c != nil; c = c.NextSibling {
			if c.Type != html.TextNode {
				continue
			}
			if t := strings.TrimSpace(c.Data); t != "" {
				return t
			}
		}
	}
	return ""
}

type cellValue struct {
	amount float64
	known  bool
}

// decodeColumn slices one nutrient's values out of a flat cell list. The
// diary renders one undifferentiated list of numeric cells per row block, so
// nutrient identity is positional: with n detected nutrients in the block,
// the values for nutrient k occupy every n-th slot starting at offset k.
// A nutrient absent from the order decodes to unknown for every item.
func decodeColumn(values []string, order []domain.Nutrient, want domain.Nutrient, items int) []cellValue {
	out := make([]cellValue, items)

	offset := -1
	for i, n := range order {
		if n == want {
			offset = i
			break
		}
	}
	if offset < 0 || len(order) == 0 {
		return out
	}

	stride := len(order)
	for i := 0; i < items; i++ {
		pos := offset + i*stride
		if pos >= len(values) {
			break
		}
		if amount, err := parseAmount(values[pos]); err == nil {
			out[i] = cellValue{amount: amount, known: true}
		}
	}
	return out
}

// parseAmount strips the thousands separators the site renders into large
// values before numeric parsing.
func parseAmount(raw string) (float64, error) {
	raw = strings.ReplaceAll(strings.TrimSpace(raw), ",", "")
	return strconv.ParseFloat(raw, 64)
}
