package domain

import "time"

// DoseVolume is a product-usage breakdown entry.
type DoseVolume struct {
	Doses  int     `json:"doses"`
	Volume float64 `json:"volume"`
	Waste  float64 `json:"waste"`
}

type ProductUsageSummary struct {
	TotalDoses    int     `json:"total_doses"`
	TotalVolume   float64 `json:"total_volume"`
	TotalWaste    float64 `json:"total_waste"`
	WastePercent  float64 `json:"waste_percent"`
	ProductCount  int     `json:"product_count"`
	LocationCount int     `json:"location_count"`
}

// ProductUsageDoc is the latest product-usage export, replaced on every upload.
type ProductUsageDoc struct {
	ByProduct  map[string]DoseVolume `json:"by_product"`
	ByLocation map[string]DoseVolume `json:"by_location"`
	Summary    ProductUsageSummary   `json:"summary"`
	UploadedAt *time.Time            `json:"uploaded_at"`
}

// WastedProduct is one line of the product-wastage export.
type WastedProduct struct {
	Name         string  `json:"name"`
	Type         string  `json:"type"`
	Count        int     `json:"count"`
	UsedML       float64 `json:"used_ml"`
	WasteML      float64 `json:"waste_ml"`
	WastePercent float64 `json:"waste_percent"`
}

type WastageByType struct {
	Count   int     `json:"count"`
	UsedML  float64 `json:"used_ml"`
	WasteML float64 `json:"waste_ml"`
}

type ProductWastageSummary struct {
	TotalUsedML  float64 `json:"total_used_ml"`
	TotalWasteML float64 `json:"total_waste_ml"`
	WastePercent float64 `json:"waste_percent"`
	ProductCount int     `json:"product_count"`
}

// ProductWastageDoc holds products ordered by waste_ml descending.
type ProductWastageDoc struct {
	Products   []WastedProduct          `json:"products"`
	ByType     map[string]WastageByType `json:"by_type"`
	Summary    ProductWastageSummary    `json:"summary"`
	UploadedAt *time.Time               `json:"uploaded_at"`
}

// DailyWastage is a by_date entry of the detailed wastage export.
type DailyWastage struct {
	Total          float64 `json:"total"`
	Used           float64 `json:"used"`
	Waste          float64 `json:"waste"`
	MultiDoseCount int     `json:"multi_dose_count"`
	StockCount     int     `json:"stock_count"`
}

type WasteStat struct {
	Count int     `json:"count"`
	Total float64 `json:"total"`
	Waste float64 `json:"waste"`
}

type DetailedWastageSummary struct {
	TotalVolume    float64 `json:"total_volume"`
	WasteVolume    float64 `json:"waste_volume"`
	WastePercent   float64 `json:"waste_percent"`
	MultiDoseCount int     `json:"multi_dose_count"`
	StockCount     int     `json:"stock_count"`
	StartDate      string  `json:"start_date,omitempty"`
	EndDate        string  `json:"end_date,omitempty"`
}

type DetailedWastageDoc struct {
	ByDate     map[string]DailyWastage `json:"by_date"`
	ByProduct  map[string]WasteStat    `json:"by_product"`
	ByLocation map[string]WasteStat    `json:"by_location"`
	Summary    DetailedWastageSummary  `json:"summary"`
	UploadedAt *time.Time              `json:"uploaded_at"`
}

// Stock dose categories.
const (
	StockCategory    = "stock"
	DilutionCategory = "dilution"
)

type StockDose struct {
	Name     string `json:"name"`
	Category string `json:"category"`
	Total    int    `json:"total"`
}

type StockDosesSummary struct {
	StockTotal    int `json:"stock_total"`
	DilutionTotal int `json:"dilution_total"`
	Total         int `json:"total"`
	StockCount    int `json:"stock_count"`
	DilutionCount int `json:"dilution_count"`
}

// StockDosesDoc keeps stocks and dilutions apart and merged; All is sorted by total descending.
type StockDosesDoc struct {
	Stocks     []StockDose       `json:"stocks"`
	Dilutions  []StockDose       `json:"dilutions"`
	All        []StockDose       `json:"all"`
	Summary    StockDosesSummary `json:"summary"`
	UploadedAt *time.Time        `json:"uploaded_at"`
}
