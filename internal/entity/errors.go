package entity

import "errors"

// Domain errors
var (
	// Configuration errors, fatal at startup
	ErrConfigNotFound      = errors.New("config file not found")
	ErrUnsupportedProvider = errors.New("unsupported model provider")

	// Validation errors, user-correctable
	ErrEmptyQuestion       = errors.New("question must not be empty")
	ErrNoFiles             = errors.New("at least one file is required")
	ErrUnsupportedFileType = errors.New("unsupported file type")
	ErrFileTooLarge        = errors.New("file too large")
	ErrTooManyFiles        = errors.New("too many files")

	// Provider errors, surfaced to the API layer unretried
	ErrEmbedding        = errors.New("embedding provider failure")
	ErrChatCompletion   = errors.New("chat completion provider failure")
	ErrIndexUnavailable = errors.New("vector index unavailable")
	ErrToolUnavailable  = errors.New("tool unavailable")

	// Workflow errors
	ErrWorkflowTimeout = errors.New("reasoning loop exceeded step budget")
)
