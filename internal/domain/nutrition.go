package domain

// Nutrient identifies one column of the nutrition catalog. The values double
// as storage column names.
type Nutrient string

const (
	Calories           Nutrient = "calories"
	Protein            Nutrient = "protein"
	Carbohydrates      Nutrient = "carbohydrates"
	Fat                Nutrient = "fat"
	Fiber              Nutrient = "fiber"
	Sugar              Nutrient = "sugar"
	SaturatedFat       Nutrient = "saturated_fat"
	PolyunsaturatedFat Nutrient = "polyunsaturated_fat"
	MonounsaturatedFat Nutrient = "monounsaturated_fat"
	TransFat           Nutrient = "trans_fat"
	Cholesterol        Nutrient = "cholesterol"
	Sodium             Nutrient = "sodium"
	Potassium          Nutrient = "potassium"
	VitaminA           Nutrient = "vitamin_a"
	VitaminC           Nutrient = "vitamin_c"
	Calcium            Nutrient = "calcium"
	Iron               Nutrient = "iron"
)

// Catalog lists every supported nutrient in canonical column order.
var Catalog = []Nutrient{
	Calories, Protein, Carbohydrates, Fat, Fiber, Sugar,
	SaturatedFat, PolyunsaturatedFat, MonounsaturatedFat, TransFat,
	Cholesterol, Sodium, Potassium, VitaminA, VitaminC, Calcium, Iron,
}

// headerLabels maps the abbreviated column headers rendered on the diary
// page to catalog nutrients. Users pick which of these their diary displays.
var headerLabels = map[string]Nutrient{
	"Calories": Calories,
	"Protein":  Protein,
	"Carbs":    Carbohydrates,
	"Fat":      Fat,
	"Fiber":    Fiber,
	"Sugar":    Sugar,
	"Sat Fat":  SaturatedFat,
	"Ply Fat":  PolyunsaturatedFat,
	"Mon Fat":  MonounsaturatedFat,
	"Trn Fat":  TransFat,
	"Chol":     Cholesterol,
	"Sodium":   Sodium,
	"Potass.":  Potassium,
	"Vit A":    VitaminA,
	"Vit C":    VitaminC,
	"Calcium":  Calcium,
	"Iron":     Iron,
}

// NutrientForLabel resolves a diary column header to a catalog nutrient.
func NutrientForLabel(label string) (Nutrient, bool) {
	n, ok := headerLabels[label]
	return n, ok
}

// IsMacro reports whether the nutrient is rendered in the macro block of the
// diary table (protein, carbohydrates, fat).
func (n Nutrient) IsMacro() bool {
	return n == Protein || n == Carbohydrates || n == Fat
}

// NutritionRecord is one food item logged on one date. Values holds only the
// nutrients the diary actually displayed; a missing key means the value is
// unknown, not zero.
type NutritionRecord struct {
	Item   string
	Values map[Nutrient]float64
}

// Value returns the parsed amount for a nutrient and whether it was present.
func (r NutritionRecord) Value(n Nutrient) (float64, bool) {
	v, ok := r.Values[n]
	return v, ok
}
