package models

// Sentinel values that mean "extraction did not find a real value".
const (
	UnknownMake  = "Unknown"
	UnknownModel = "Unknown"
)

// Currency codes a listing price can be quoted in.
const (
	CurrencyEUR = "EUR"
	CurrencyGBP = "GBP"
	CurrencyUSD = "USD"
)

// Vehicle condition values
const (
	ConditionNew       = "new"
	ConditionUsed      = "used"
	ConditionCertified = "certified"
)

// Body type categories
const (
	CategorySemiTruck    = "semi-truck"
	CategoryTipper       = "tipper"
	CategoryBoxTruck     = "box-truck"
	CategoryRefrigerated = "refrigerated"
	CategoryFlatbed      = "flatbed"
	CategoryVan          = "van"
	CategoryPickup       = "pickup"
	CategoryBus          = "bus"
	CategoryOther        = "other"
)

// Engine types
const (
	EngineDiesel   = "diesel"
	EnginePetrol   = "petrol"
	EngineElectric = "electric"
	EngineHybrid   = "hybrid"
)

// Transmission types
const (
	TransmissionManual          = "manual"
	TransmissionAutomatic       = "automatic"
	TransmissionAutomatedManual = "automated-manual"
)

// ExtractedVehicle is the platform-independent record every extractor fills.
// All values are best-effort guesses meant to pre-fill a form for human review.
type ExtractedVehicle struct {
	Make         string  `json:"make"`
	Model        string  `json:"model"`
	Year         int     `json:"year"`
	Mileage      int     `json:"mileage"` // kilometres
	Price        int     `json:"price"`   // 0 means extraction failed
	Currency     string  `json:"currency"`
	Condition    string  `json:"condition"`
	Category     string  `json:"category"`
	EngineType   string  `json:"engineType"`
	Transmission string  `json:"transmission"`
	EnginePower  int     `json:"enginePower"` // hp
	EngineSize   float64 `json:"engineSize"`  // litres
	Location     string  `json:"location"`
	Country      string  `json:"country"`
	Description  string  `json:"description"`

	Images         []string          `json:"images"`
	Features       []string          `json:"features"`
	Specifications map[string]string `json:"specifications"`

	SourceURL string `json:"sourceUrl,omitempty"`
}

// NewExtractedVehicle returns a record with every field set to its documented default.
func NewExtractedVehicle() ExtractedVehicle {
	return ExtractedVehicle{
		Make:           UnknownMake,
		Model:          UnknownModel,
		Currency:       CurrencyEUR,
		Condition:      ConditionUsed,
		Category:       CategoryOther,
		EngineType:     EngineDiesel,
		Transmission:   TransmissionManual,
		Images:         []string{},
		Features:       []string{},
		Specifications: map[string]string{},
	}
}

// NeedsReview reports whether any sentinel value survived extraction.
func (v ExtractedVehicle) NeedsReview() bool {
	return v.Price == 0 || v.Make == UnknownMake || v.Model == UnknownModel || v.Year == 0
}

// Normalize replaces nil collections and empty enum fields with defaults so the
// JSON shape is identical regardless of which code path built the record.
func (v *ExtractedVehicle) Normalize() {
	d := NewExtractedVehicle()
	if v.Make == "" {
		v.Make = d.Make
	}
	if v.Model == "" {
		v.Model = d.Model
	}
	if v.Currency == "" {
		v.Currency = d.Currency
	}
	if v.Condition == "" {
		v.Condition = d.Condition
	}
	if v.Category == "" {
		v.Category = d.Category
	}
	if v.EngineType == "" {
		v.EngineType = d.EngineType
	}
	if v.Transmission == "" {
		v.Transmission = d.Transmission
	}
	if v.Images == nil {
		v.Images = []string{}
	}
	if v.Features == nil {
		v.Features = []string{}
	}
	if v.Specifications == nil {
		v.Specifications = map[string]string{}
	}
	if v.Price < 0 {
		v.Price = 0
	}
}
