package domain

// UploadedFile represents an uploaded file waiting to be ingested
type UploadedFile struct {
	Filename string
	Path     string
	Size     int64
}

// IngestResults carries the counters of one ingest. Totals only apply to some families.
type IngestResults struct {
	Added         int     `json:"added"`
	Updated       int     `json:"updated"`
	RowsRead      int     `json:"rows_read"`
	RowsSkipped   int     `json:"rows_skipped"`
	TotalRecords  int     `json:"total_records"`
	TotalDoses    int     `json:"total_doses,omitempty"`
	TotalBypasses int     `json:"total_bypasses,omitempty"`
	TotalVolume   float64 `json:"total_volume,omitempty"`
	TotalProducts int     `json:"total_products,omitempty"`
}

// IngestOutcome is the machine-readable response for one uploaded file.
type IngestOutcome struct {
	Success    bool          `json:"success"`
	Family     Family        `json:"family"`
	Filename   string        `json:"filename,omitempty"`
	Results    IngestResults `json:"results"`
	Warnings   []string      `json:"warnings"`
	DatingMode string        `json:"dating_mode,omitempty"`
	ArchiveKey string        `json:"archive_key,omitempty"`
}
