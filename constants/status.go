package constants

// FileStatus is the state of one uploaded file inside a submission batch.
type FileStatus string

// Stable values (returned to API callers).
const (
	FileStatusPending   FileStatus = "PENDING"   // accepted, nothing run yet
	FileStatusDecoded   FileStatus = "DECODED"   // rasterized into page images
	FileStatusExtracted FileStatus = "EXTRACTED" // model output validated
	FileStatusPersisted FileStatus = "PERSISTED" // row written; terminal success
	FileStatusFailed    FileStatus = "FAILED"    // terminal failure, see Stage
)

// Stage names the pipeline step a failure belongs to.
type Stage string

const (
	StageValidate Stage = "validate"
	StageDecode   Stage = "decode"
	StageExtract  Stage = "extract"
	StagePersist  Stage = "persist"
)
