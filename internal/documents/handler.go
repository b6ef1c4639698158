package documents

import (
	"errors"
	"mime"
	"mime/multipart"
	"net/http"

	"github.com/gin-gonic/gin"

	"receipt-backend/internal/shared/server/middleware"
	"receipt-backend/internal/shared/server/params"
	"receipt-backend/internal/shared/server/respond"
)

// Handler wires HTTP handlers to the service.
type Handler struct {
	Svc *Service
	// MaxUploadBytes bounds the request body of uploads; zero disables the check.
	MaxUploadBytes int64
}

// NewHandler constructs a Handler.
func NewHandler(svc *Service, maxUploadBytes int64) *Handler {
	return &Handler{Svc: svc, MaxUploadBytes: maxUploadBytes}
}

// RegisterRoutes attaches document routes to the router group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/documents", h.list)
	rg.POST("/documents", h.upload)
	rg.GET("/documents/:id", h.get)
	rg.DELETE("/documents/:id", h.delete)
	rg.GET("/documents/:id/download", h.download)
	rg.GET("/documents/:id/versions", h.versions)
	rg.POST("/documents/:id/versions", h.addVersion)
}

func (h *Handler) list(c *gin.Context) {
	limit, offset := params.Page(c)
	docs, err := h.Svc.List(c.Request.Context(), middleware.UserIDFromContext(c), limit, offset)
	if err != nil {
		respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to list documents", nil)
		return
	}
	respond.OK(c, NewDocumentResponses(docs))
}

func (h *Handler) upload(c *gin.Context) {
	file, header, ok := h.formFile(c)
	if !ok {
		return
	}
	defer file.Close()

	doc, err := h.Svc.Upload(c.Request.Context(), UploadInput{
		OwnerID:     middleware.UserIDFromContext(c),
		Title:       c.PostForm("title"),
		Description: c.PostForm("description"),
		Tags:        c.PostForm("tags"),
		FileName:    header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		Body:        file,
	})
	if err != nil {
		h.writeError(c, err, "failed to upload document")
		return
	}

	c.Set(middleware.DocumentIDKey, doc.ID)
	respond.Created(c, NewDocumentResponse(doc))
}

func (h *Handler) get(c *gin.Context) {
	doc, err := h.Svc.Get(c.Request.Context(), middleware.UserIDFromContext(c), c.Param("id"))
	if err != nil {
		h.writeError(c, err, "failed to fetch document")
		return
	}
	c.Set(middleware.DocumentIDKey, doc.ID)
	respond.OK(c, NewDocumentResponse(doc))
}

func (h *Handler) delete(c *gin.Context) {
	id := c.Param("id")
	if err := h.Svc.Delete(c.Request.Context(), middleware.UserIDFromContext(c), id); err != nil {
		h.writeError(c, err, "failed to delete document")
		return
	}
	c.Set(middleware.DocumentIDKey, id)
	respond.NoContent(c)
}

func (h *Handler) download(c *gin.Context) {
	dl, err := h.Svc.OpenLatest(c.Request.Context(), middleware.UserIDFromContext(c), c.Param("id"))
	if err != nil {
		h.writeError(c, err, "failed to open document")
		return
	}
	defer dl.Body.Close()

	c.Set(middleware.DocumentIDKey, dl.Document.ID)
	contentType := dl.Document.MimeType
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	disposition := mime.FormatMediaType("attachment", map[string]string{"filename": dl.Document.FileName})
	if disposition == "" {
		disposition = "attachment"
	}
	c.DataFromReader(http.StatusOK, dl.Version.SizeBytes, contentType, dl.Body, map[string]string{
		"Content-Disposition": disposition,
	})
}

func (h *Handler) versions(c *gin.Context) {
	versions, err := h.Svc.Versions(c.Request.Context(), middleware.UserIDFromContext(c), c.Param("id"))
	if err != nil {
		h.writeError(c, err, "failed to list versions")
		return
	}
	c.Set(middleware.DocumentIDKey, c.Param("id"))
	respond.OK(c, NewVersionResponses(versions))
}

func (h *Handler) addVersion(c *gin.Context) {
	userID := middleware.UserIDFromContext(c)
	id := c.Param("id")
	// Unknown documents answer 404 before the body is read.
	if _, err := h.Svc.Get(c.Request.Context(), userID, id); err != nil {
		h.writeError(c, err, "failed to fetch document")
		return
	}

	file, header, ok := h.formFile(c)
	if !ok {
		return
	}
	defer file.Close()

	doc, err := h.Svc.AddVersion(c.Request.Context(), userID, id, header.Filename, file)
	if err != nil {
		h.writeError(c, err, "failed to add version")
		return
	}

	c.Set(middleware.DocumentIDKey, doc.ID)
	respond.Created(c, NewDocumentResponse(doc))
}

// formFile extracts the "file" part, answering the request itself on failure.
func (h *Handler) formFile(c *gin.Context) (multipart.File, *multipart.FileHeader, bool) {
	if h.MaxUploadBytes > 0 {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.MaxUploadBytes)
	}

	header, err := c.FormFile("file")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			respond.Error(c, http.StatusRequestEntityTooLarge, "file_too_large", "File exceeds the upload size limit", gin.H{
				"limitBytes": tooLarge.Limit,
			})
			return nil, nil, false
		}
		respond.Error(c, http.StatusBadRequest, "no_file", "No file provided", nil)
		return nil, nil, false
	}
	if header.Filename == "" {
		respond.Error(c, http.StatusBadRequest, "no_file", "No file provided", nil)
		return nil, nil, false
	}

	file, err := header.Open()
	if err != nil {
		respond.Error(c, http.StatusBadRequest, "no_file", "unable to read file", nil)
		return nil, nil, false
	}
	return file, header, true
}

func (h *Handler) writeError(c *gin.Context, err error, fallback string) {
	switch {
	case errors.Is(err, ErrNoFile):
		respond.Error(c, http.StatusBadRequest, "no_file", "No file provided", nil)
	case errors.Is(err, ErrTypeNotAllowed):
		respond.Error(c, http.StatusBadRequest, "file_type_not_allowed", "File type not allowed", nil)
	case errors.Is(err, ErrInvalidInput):
		respond.Error(c, http.StatusBadRequest, "invalid_input", err.Error(), nil)
	case errors.Is(err, ErrNotFound):
		respond.Error(c, http.StatusNotFound, "not_found", "Document not found", nil)
	case errors.Is(err, ErrVersionNotFound):
		respond.Error(c, http.StatusNotFound, "not_found", "Version not found", nil)
	case errors.Is(err, ErrFileMissing):
		respond.Error(c, http.StatusNotFound, "file_missing", "File missing on storage", nil)
	default:
		respond.Error(c, http.StatusInternalServerError, "internal_error", fallback, nil)
	}
}
