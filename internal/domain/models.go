package domain

import "time"

// DocumentRecord is a cached copy of a corpus document's raw text, keyed by
// URL. A row is written only after a fully successful fetch, so a record is
// either absent or complete.
//
// Fields:
//   - URL: document URL as configured (primary key).
//   - Label: display name of the document.
//   - Body: raw markup as fetched.
//   - Size: len(Body) in bytes.
//   - FetchedAt: when the fetch completed.
type DocumentRecord struct {
	URL       string    `json:"url"        gorm:"type:varchar(1024);primaryKey"`
	Label     string    `json:"label"      gorm:"type:varchar(255);not null"`
	Body      string    `json:"-"          gorm:"type:text;not null"`
	Size      int       `json:"size"       gorm:"not null"`
	FetchedAt time.Time `json:"fetched_at" gorm:"not null"`
}

// TableName returns the database table name for DocumentRecord.
func (DocumentRecord) TableName() string { return "documents" }

// BuildRun records the outcome of one index build.
//
// Fields:
//   - ID: UUID primary key (char(36)).
//   - State: ready, partial, degraded or failed.
//   - DocumentsLoaded / DocumentsTotal: loaded vs configured documents.
//   - Entries: total entries produced.
//   - Message: the status message published for this build.
//   - StartedAt / FinishedAt: wall-clock bounds of the build.
//   - Documents: per-document outcomes, cascade-deleted with the run.
type BuildRun struct {
	ID              string          `json:"id"               gorm:"type:char(36);primaryKey"`
	State           string          `json:"state"            gorm:"type:varchar(16);not null;check:state IN ('ready','partial','degraded','failed')"`
	DocumentsLoaded int             `json:"documents_loaded" gorm:"not null"`
	DocumentsTotal  int             `json:"documents_total"  gorm:"not null"`
	Entries         int             `json:"entries"          gorm:"not null"`
	Message         string          `json:"message"          gorm:"type:text"`
	StartedAt       time.Time       `json:"started_at"       gorm:"index:idx_build_started"`
	FinishedAt      time.Time       `json:"finished_at"`
	Documents       []BuildDocument `json:"documents"        gorm:"foreignKey:RunID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
}

// TableName returns the database table name for BuildRun.
func (BuildRun) TableName() string { return "build_runs" }

// BuildDocument is the outcome of loading one document during a build.
// Position preserves configuration order.
type BuildDocument struct {
	ID       uint   `json:"-"        gorm:"primaryKey"`
	RunID    string `json:"-"        gorm:"type:char(36);not null;index:idx_build_docs,priority:1"`
	Position int    `json:"position" gorm:"not null;index:idx_build_docs,priority:2"`
	URL      string `json:"url"      gorm:"type:varchar(1024);not null"`
	Label    string `json:"label"    gorm:"type:varchar(255);not null"`
	Loaded   bool   `json:"loaded"   gorm:"not null"`
	Entries  int    `json:"entries"  gorm:"not null"`
	Error    string `json:"error,omitempty" gorm:"type:text"`
}

// TableName returns the database table name for BuildDocument.
func (BuildDocument) TableName() string { return "build_documents" }
