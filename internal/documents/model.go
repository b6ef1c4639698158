package documents

import "time"

// Ownership roles. Only RoleOwner is written today.
const (
	RoleOwner  = "owner"
	RoleViewer = "viewer"
	RoleEditor = "editor"
)

// Document is an uploaded file's logical record; its bytes live in Versions.
type Document struct {
	ID          string
	OwnerID     string
	Title       string
	FileName    string
	MimeType    string
	Extension   string
	Category    *string
	Tags        string
	Description string
	// LatestVersionID, once set, references a Version of this document.
	LatestVersionID *string
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// Version is one stored blob of a Document.
type Version struct {
	ID             string
	DocumentID     string
	StorageKey     string
	Checksum       string
	SizeBytes      int64
	ExtractedText  *string
	ExtractionMeta map[string]any
	ExtractedAt    *time.Time
	CreatedAt      time.Time
}

// Ownership associates a user with a document under a role.
type Ownership struct {
	UserID     string
	DocumentID string
	Role       string
	CreatedAt  time.Time
}
