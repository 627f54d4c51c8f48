package domain

import "time"

// HourlyCounts maps an hour of day (0-23) to a count.
type HourlyCounts map[int]int

// Sum returns the total across all hours.
func (h HourlyCounts) Sum() int {
	total := 0
	for _, v := range h {
		total += v
	}
	return total
}

// Merge adds every bucket of other into h.
func (h HourlyCounts) Merge(other HourlyCounts) {
	for hour, v := range other {
		h[hour] += v
	}
}

// TimingStat accumulates preparation turnaround for one dimension value.
type TimingStat struct {
	Count     int     `json:"count"`
	TotalTime float64 `json:"total_time"`
}

// TimingBreakdown maps a dimension label (priority, workstation, drug) to its timing.
type TimingBreakdown map[string]TimingStat

func (b TimingBreakdown) Add(label string, count int, totalTime float64) {
	s := b[label]
	s.Count += count
	s.TotalTime += totalTime
	b[label] = s
}

// VolumeStat accumulates product volumes for one dimension value.
type VolumeStat struct {
	Count int     `json:"count"`
	Total float64 `json:"total"`
	Used  float64 `json:"used"`
	Waste float64 `json:"waste"`
}

// VolumeBreakdown maps a product or location label to its volumes.
type VolumeBreakdown map[string]VolumeStat

func (b VolumeBreakdown) Add(label string, v VolumeStat) {
	s := b[label]
	s.Count += v.Count
	s.Total += v.Total
	s.Used += v.Used
	s.Waste += v.Waste
	b[label] = s
}

// ProductionRecord is one day of compounded doses.
type ProductionRecord struct {
	ID         string       `json:"id"`
	Date       string       `json:"date"`
	TotalDoses int          `json:"total_doses"`
	Hourly     HourlyCounts `json:"hourly"`
	UploadedAt time.Time    `json:"uploaded_at"`
}

func (r *ProductionRecord) Key() string        { return r.Date }
func (r *ProductionRecord) GetID() string      { return r.ID }
func (r *ProductionRecord) SetID(id string)    { r.ID = id }
func (r *ProductionRecord) RecordDate() string { return r.Date }

// Dating modes for turnaround uploads.
const (
	DatingPerRow   = "per_row"
	DatingSnapshot = "snapshot"
)

// TurnaroundRecord is one day of completed preparations and their turnaround.
type TurnaroundRecord struct {
	ID            string          `json:"id"`
	Date          string          `json:"date"`
	TotalDoses    int             `json:"total_doses"`
	TotalTime     float64         `json:"total_time"`
	AvgTurnaround float64         `json:"avg_turnaround"`
	ByPriority    TimingBreakdown `json:"by_priority"`
	ByWorkstation TimingBreakdown `json:"by_workstation"`
	ByDrug        TimingBreakdown `json:"by_drug"`
	DatingMode    string          `json:"dating_mode,omitempty"`
	UploadedAt    time.Time       `json:"uploaded_at"`
}

func (r *TurnaroundRecord) Key() string        { return r.Date }
func (r *TurnaroundRecord) GetID() string      { return r.ID }
func (r *TurnaroundRecord) SetID(id string)    { r.ID = id }
func (r *TurnaroundRecord) RecordDate() string { return r.Date }

// BypassRecord counts safety-scan bypasses for one location. It has no date.
type BypassRecord struct {
	ID            string       `json:"id"`
	Location      string       `json:"location"`
	TotalBypasses int          `json:"total_bypasses"`
	Hourly        HourlyCounts `json:"hourly"`
	UploadedAt    time.Time    `json:"uploaded_at"`
}

func (r *BypassRecord) Key() string     { return r.Location }
func (r *BypassRecord) GetID() string   { return r.ID }
func (r *BypassRecord) SetID(id string) { r.ID = id }

// UsageRecord is one day of product volume usage and waste.
type UsageRecord struct {
	ID           string          `json:"id"`
	Date         string          `json:"date"`
	TotalVolume  float64         `json:"total_volume"`
	UsedVolume   float64         `json:"used_volume"`
	WasteVolume  float64         `json:"waste_volume"`
	WastePercent float64         `json:"waste_percent"`
	ProductCount int             `json:"product_count"`
	ByProduct    VolumeBreakdown `json:"by_product"`
	ByLocation   VolumeBreakdown `json:"by_location"`
	UploadedAt   time.Time       `json:"uploaded_at"`
}

func (r *UsageRecord) Key() string        { return r.Date }
func (r *UsageRecord) GetID() string      { return r.ID }
func (r *UsageRecord) SetID(id string)    { r.ID = id }
func (r *UsageRecord) RecordDate() string { return r.Date }
