package domain

// ReportQuery carries the read parameters shared by every query endpoint.
type ReportQuery struct {
	Days     int    `json:"days"`
	Limit    int    `json:"limit"`
	Grouping string `json:"grouping,omitempty"`
	SortBy   string `json:"sort_by,omitempty"`
	Type     string `json:"type,omitempty"`
}

const (
	GroupingDaily  = "daily"
	GroupingWeekly = "weekly"
)

// ProductionPoint is one step of the production time series. Date holds the
// calendar date for daily grouping and the "Week of ..." label for weekly grouping.
type ProductionPoint struct {
	Date       string       `json:"date"`
	WeekStart  string       `json:"week_start,omitempty"`
	TotalDoses int          `json:"total_doses"`
	Hourly     HourlyCounts `json:"hourly"`
	Days       int          `json:"days,omitempty"`
}

// HourBucket is one hour of an hourly profile.
type HourBucket struct {
	Hour    int     `json:"hour"`
	Total   int     `json:"total"`
	Average float64 `json:"average"`
}

type ProductionSummary struct {
	TotalDoses int     `json:"total_doses"`
	DaysCount  int     `json:"days_count"`
	AvgDaily   float64 `json:"avg_daily"`
	PeakDay    string  `json:"peak_day"`
	PeakDoses  int     `json:"peak_doses"`
	PeakHour   int     `json:"peak_hour"`
}

type TurnaroundPoint struct {
	Date          string  `json:"date"`
	TotalDoses    int     `json:"total_doses"`
	AvgTurnaround float64 `json:"avg_turnaround"`
}

// TimingRollup is one dimension value of a turnaround breakdown.
type TimingRollup struct {
	Name          string  `json:"name"`
	Count         int     `json:"count"`
	TotalTime     float64 `json:"total_time"`
	AvgTurnaround float64 `json:"avg_turnaround"`
}

type TurnaroundSummary struct {
	TotalDoses    int     `json:"total_doses"`
	AvgTurnaround float64 `json:"avg_turnaround"`
	DaysCount     int     `json:"days_count"`
}

type BypassSummary struct {
	TotalBypasses int    `json:"total_bypasses"`
	LocationCount int    `json:"location_count"`
	TopLocation   string `json:"top_location"`
	PeakHour      int    `json:"peak_hour"`
}

type UsagePoint struct {
	Date         string  `json:"date"`
	TotalVolume  float64 `json:"total_volume"`
	UsedVolume   float64 `json:"used_volume"`
	WasteVolume  float64 `json:"waste_volume"`
	WastePercent float64 `json:"waste_percent"`
	ProductCount int     `json:"product_count"`
}

// VolumeRollup is one dimension value of a usage or wastage breakdown.
type VolumeRollup struct {
	Name         string  `json:"name"`
	Count        int     `json:"count"`
	TotalVolume  float64 `json:"total_volume"`
	UsedVolume   float64 `json:"used_volume"`
	WasteVolume  float64 `json:"waste_volume"`
	WastePercent float64 `json:"waste_percent"`
}

type UsageSummary struct {
	TotalVolume  float64 `json:"total_volume"`
	UsedVolume   float64 `json:"used_volume"`
	WasteVolume  float64 `json:"waste_volume"`
	WastePercent float64 `json:"waste_percent"`
	DaysCount    int     `json:"days_count"`
	ProductCount int     `json:"product_count"`
}

// ProductUsageRollup is one product or location of the product-usage snapshot.
type ProductUsageRollup struct {
	Name         string  `json:"name"`
	Doses        int     `json:"doses"`
	Volume       float64 `json:"volume"`
	Waste        float64 `json:"waste"`
	WastePercent float64 `json:"waste_percent"`
}

type WastageTypeRollup struct {
	Type         string  `json:"type"`
	Count        int     `json:"count"`
	UsedML       float64 `json:"used_ml"`
	WasteML      float64 `json:"waste_ml"`
	WastePercent float64 `json:"waste_percent"`
}

type DailyWastagePoint struct {
	Date           string  `json:"date"`
	Total          float64 `json:"total"`
	Used           float64 `json:"used"`
	Waste          float64 `json:"waste"`
	WastePercent   float64 `json:"waste_percent"`
	MultiDoseCount int     `json:"multi_dose_count"`
	StockCount     int     `json:"stock_count"`
}
