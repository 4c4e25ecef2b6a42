package batchdb

// Status of an image in the processing pipeline. The store records whatever
// status the caller requests; stage ordering is the orchestrator's job.
type Status string

const (
	StatusPending     Status = "pending"
	StatusClassifying Status = "classifying"
	StatusScanning    Status = "scanning"
	StatusTikz        Status = "tikz"
	StatusIdeas       Status = "ideas"
	StatusAlternates  Status = "alternates"
	StatusVariants    Status = "variants"
	StatusCompleted   Status = "completed"
	StatusFailed      Status = "failed"
)

// ImageRecord is one image in the batch processing queue.
type ImageRecord struct {
	ID           int64
	ImagePath    string
	Status       Status
	CurrentStage *string
	ErrorMessage *string
	CreatedAt    *string
	UpdatedAt    *string
	CompletedAt  *string

	// Stage payloads, each filled in as its pipeline stage completes.
	ClassificationJSON *string
	Latex              *string
	TikzCode           *string
	IdeasJSON          *string
}

// Config is the run-wide batch configuration, stored as a singleton row.
type Config struct {
	ImagesDir          string
	OutputDir          string
	VariantTypes       []string
	GenerateAlternates bool
	UseContext         bool
}

// Stats contains aggregate queue statistics.
type Stats struct {
	Total      int
	Completed  int
	Failed     int
	Pending    int
	InProgress int
}
