package documents

import "time"

// DocumentResponse is the JSON shape of a Document.
type DocumentResponse struct {
	ID              string    `json:"id"`
	OwnerID         string    `json:"owner_id"`
	Title           string    `json:"title"`
	FileName        string    `json:"filename"`
	MimeType        string    `json:"mime_type"`
	Extension       string    `json:"extension"`
	Category        *string   `json:"category"`
	Tags            string    `json:"tags"`
	Description     string    `json:"description"`
	LatestVersionID *string   `json:"latest_version_id"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// VersionResponse is the JSON shape of a Version.
type VersionResponse struct {
	ID          string         `json:"id"`
	DocumentID  string         `json:"document_id"`
	StoragePath string         `json:"storage_path"`
	Checksum    string         `json:"checksum"`
	SizeBytes   int64          `json:"size_bytes"`
	OCRText     *string        `json:"ocr_text"`
	OCRJSON     map[string]any `json:"ocr_json"`
	CreatedAt   time.Time      `json:"created_at"`
}

func NewDocumentResponse(doc Document) DocumentResponse {
	return DocumentResponse{
		ID:              doc.ID,
		OwnerID:         doc.OwnerID,
		Title:           doc.Title,
		FileName:        doc.FileName,
		MimeType:        doc.MimeType,
		Extension:       doc.Extension,
		Category:        doc.Category,
		Tags:            doc.Tags,
		Description:     doc.Description,
		LatestVersionID: doc.LatestVersionID,
		CreatedAt:       doc.CreatedAt,
		UpdatedAt:       doc.UpdatedAt,
	}
}

func NewDocumentResponses(docs []Document) []DocumentResponse {
	out := make([]DocumentResponse, 0, len(docs))
	for _, doc := range docs {
		out = append(out, NewDocumentResponse(doc))
	}
	return out
}

func NewVersionResponse(v Version) VersionResponse {
	return VersionResponse{
		ID:          v.ID,
		DocumentID:  v.DocumentID,
		StoragePath: v.StorageKey,
		Checksum:    v.Checksum,
		SizeBytes:   v.SizeBytes,
		OCRText:     v.ExtractedText,
		OCRJSON:     v.ExtractionMeta,
		CreatedAt:   v.CreatedAt,
	}
}

func NewVersionResponses(versions []Version) []VersionResponse {
	out := make([]VersionResponse, 0, len(versions))
	for _, v := range versions {
		out = append(out, NewVersionResponse(v))
	}
	return out
}
