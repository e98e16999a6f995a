// Package rates provides the static waste-type rate table mapping each
// waste type to a per-kilogram base rate and a carbon-equivalent factor.
package rates

// Rate holds the per-kilogram pricing pair for a waste type.
type Rate struct {
	// BasePerKg is the base monetary rate in currency units per kilogram.
	BasePerKg float64
	// CarbonPerKg is the CO2-equivalent reduction factor in kg per kilogram.
	CarbonPerKg float64
}

// Default is the rate applied to unrecognized waste types. Submissions are
// never rejected purely for an unknown waste-type string.
var Default = Rate{BasePerKg: 5, CarbonPerKg: 0.5}

// Categories lists the waste categories covered by the table.
var Categories = []string{
	"Agricultural",
	"Municipal",
	"Industrial",
	"Forestry",
	"Livestock",
	"Aquatic",
	"Construction",
	"Plastics",
	"Metals",
	"E-Waste",
	"Textiles",
	"Hazardous",
}

var table = map[string]Rate{
	// Agricultural
	"Crop Residue (Stubble/Straw)":   {8, 0.6},
	"Rice Husk & Bran":               {10, 0.7},
	"Wheat Bran":                     {9, 0.65},
	"Sugarcane Bagasse":              {12, 0.8},
	"Pressmud":                       {7, 0.5},
	"Cotton Stalks":                  {6, 0.45},
	"Maize Cobs & Stalks":            {7, 0.55},
	"Coconut Shells & Coir":          {15, 1.0},
	"Groundnut Shells":               {11, 0.75},
	"Fruit & Vegetable Pomace":       {9, 0.6},
	"Spent Grain (Brewery)":          {12, 0.8},
	"Coffee Grounds/Husks":           {14, 0.9},
	"Tea Waste":                      {10, 0.7},

	// Municipal
	"Municipal Organic Waste":  {5, 0.4},
	"Food & Kitchen Waste":     {6, 0.45},
	"Garden & Leaf Litter":     {4, 0.35},
	"Paper & Cardboard Waste":  {11, 0.7},
	"Used Cooking Oil":         {25, 1.8},
	"Textile Waste (Natural)":  {12, 0.85},
	"Glass Bottles & Jars":     {15, 0.4},

	// Industrial
	"Industrial Sludge (Organic)": {8, 0.55},
	"Leather Scraps":              {15, 1.1},
	"Rubber Waste":                {18, 1.3},
	"Distillery Spent Wash":       {13, 0.9},
	"Fly Ash":                     {5, 0.2},
	"Slag":                        {6, 0.25},

	// Forestry
	"Forestry Wood Chips":        {14, 0.9},
	"Sawdust & Bark":             {10, 0.7},
	"Bamboo Waste":               {13, 0.85},
	"Pine Needles":               {7, 0.5},
	"Invasive Species (Lantana)": {14, 0.95},

	// Livestock
	"Livestock Manure": {18, 1.2},
	"Poultry Litter":   {20, 1.4},
	"Bone Meal":        {22, 1.5},
	"Feather Waste":    {16, 1.1},

	// Aquatic
	"Aquatic Algae/Seaweed":              {16, 1.1},
	"Invasive Species (Water Hyacinth)":  {14, 0.95},
	"Fish Processing Waste":              {19, 1.35},

	// Construction
	"Construction Wood Waste":    {10, 0.7},
	"Concrete Rubble (Recycled)": {4, 0.15},
	"Brick & Tile Waste":         {3, 0.1},
	"Gypsum Board Scraps":        {8, 0.3},

	// Plastics
	"PET Bottles (Clear)":        {35, 2.1},
	"HDPE Containers":            {30, 1.9},
	"LDPE Film/Wrap":             {25, 1.7},
	"PP Rigid Plastic":           {28, 1.8},
	"PVC Scraps":                 {15, 1.2},
	"Multi-Layered Plastic (MLP)": {12, 0.9},

	// Metals
	"Aluminum Cans":          {110, 9.0},
	"Copper Wire Scraps":     {450, 12.0},
	"Steel/Iron Scrap":       {25, 1.5},
	"Brass/Bronze Fittings":  {320, 8.5},

	// E-Waste
	"Printed Circuit Boards (PCBs)": {800, 25.0},
	"Computer/Laptop Scraps":        {150, 15.0},
	"Mobile Phone Waste":            {250, 18.0},
	"Lithium-Ion Batteries":         {400, 30.0},
	"Cables & Connectors":           {120, 5.0},

	// Textiles
	"Cotton Textile Scraps":       {18, 1.2},
	"Polyester/Synthetic Fabric":  {14, 2.5},
	"Wool Waste":                  {22, 0.8},
	"Used Footwear":               {10, 1.5},

	// Hazardous
	"Lead-Acid Batteries":              {60, 4.0},
	"Used Engine Oil":                  {40, 3.5},
	"Paint & Solvent Waste":            {20, 2.0},
	"E-Waste Batteries (Ni-Cd/Ni-MH)":  {35, 5.5},
}

// For returns the rate pair for a waste type. Unknown types fall back to
// Default. No side effects, no failure modes.
func For(wasteType string) Rate {
	if r, ok := table[wasteType]; ok {
		return r
	}
	return Default
}

// Known reports whether the waste type is present in the configured table.
func Known(wasteType string) bool {
	_, ok := table[wasteType]
	return ok
}
