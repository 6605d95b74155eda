package fdc

// FoodData Central nutrient ids for the tracked macronutrients.
const (
	NutrientIDEnergy       = 1008 // Energy (kcal)
	NutrientIDProtein      = 1003 // Protein (g)
	NutrientIDCarbohydrate = 1005 // Carbohydrate, by difference (g)
	NutrientIDTotalFat     = 1004 // Total lipid (fat) (g)
)

// Curated reference datasets. Branded and user-submitted foods are excluded.
const (
	DataTypeSRLegacy   = "SR Legacy"
	DataTypeFoundation = "Foundation"
	DataTypeSurvey     = "Survey (FNDDS)"
)

// ReferenceDataTypes is the dataset filter used for matching.
var ReferenceDataTypes = []string{DataTypeSRLegacy, DataTypeFoundation, DataTypeSurvey}

type SearchRequest struct {
	Query     string
	PageSize  int
	DataTypes []string
}

type SearchResponse struct {
	TotalHits int    `json:"totalHits"`
	Foods     []Food `json:"foods"`
}

type Food struct {
	FdcID         int            `json:"fdcId"`
	Description   string         `json:"description"`
	DataType      string         `json:"dataType"`
	FoodNutrients []FoodNutrient `json:"foodNutrients"`
}

type FoodNutrient struct {
	NutrientID   int      `json:"nutrientId"`
	NutrientName string   `json:"nutrientName"`
	UnitName     string   `json:"unitName"`
	Value        *float64 `json:"value"`
}

// Nutrient returns the value for id, or nil when the food does not carry it.
func (f Food) Nutrient(id int) *float64 {
	for _, n := range f.FoodNutrients {
		if n.NutrientID == id && n.Value != nil {
			v := *n.Value
			return &v
		}
	}
	return nil
}
