package http

import (
	"encoding/json"
	"io"
	"mime"
	"net/http"
	"strconv"

	"github.com/custodia-labs/docdash/internal/core/domain"
	"github.com/custodia-labs/docdash/internal/core/ports/driving"
)

// multipartOverhead is headroom for multipart framing on top of the file limit
const multipartOverhead = 1 << 20

// DocumentListResponse is the dashboard listing
// @Description Documents matching the filter
type DocumentListResponse struct {
	Documents []*domain.DocumentView `json:"documents"`
}

// DocumentResponse wraps an uploaded document
// @Description Uploaded document
type DocumentResponse struct {
	Document *domain.DocumentView `json:"document"`
}

// DocumentMutationResponse acknowledges a rename or label change
// @Description Updated document
type DocumentMutationResponse struct {
	Success  bool                 `json:"success" example:"true"`
	Document *domain.DocumentView `json:"document"`
}

// RenameRequest renames a document
// @Description New display name
type RenameRequest struct {
	Name string `json:"name" example:"Q1 sales"`
}

// LabelRequest adds a label
// @Description Label to attach
type LabelRequest struct {
	Label string `json:"label" example:"finance"`
}

// BulkDeleteRequest deletes several documents
// @Description Document IDs to delete
type BulkDeleteRequest struct {
	IDs []string `json:"ids"`
}

// BulkDeleteResponse reports how many documents were deleted
// @Description Bulk delete result
type BulkDeleteResponse struct {
	Success bool `json:"success" example:"true"`
	Deleted int  `json:"deleted" example:"2"`
}

// LabelListResponse lists labels with counts
// @Description Labels in use
type LabelListResponse struct {
	Labels []domain.LabelCount `json:"labels"`
}

func (s *Server) view(doc *domain.Document) *domain.DocumentView {
	return domain.NewDocumentView(doc, s.now())
}

// handleListDocuments godoc
// @Summary      List documents
// @Description  Lists dashboard documents, optionally filtered by label or name and sorted
// @Tags         Documents
// @Produce      json
// @Param        label  query     string  false  "Only documents with this label"
// @Param        q      query     string  false  "Case-insensitive name substring"
// @Param        sort   query     string  false  "date, name or pages"  Enums(date, name, pages)
// @Param        order  query     string  false  "asc or desc"  Enums(asc, desc)
// @Success      200    {object}  DocumentListResponse
// @Failure      400    {object}  ErrorResponse
// @Router       /api/documents [get]
func (s *Server) handleListDocuments(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := domain.DocumentFilter{
		Label: q.Get("label"),
		Query: q.Get("q"),
		Sort:  domain.SortField(q.Get("sort")),
	}

	switch order := q.Get("order"); order {
	case "asc":
	case "desc":
		filter.Desc = true
	case "":
		// Newest first by default
		filter.Desc = filter.Sort == "" || filter.Sort == domain.SortByDate
	default:
		writeError(w, http.StatusBadRequest, "order must be asc or desc")
		return
	}

	docs, err := s.docService.List(r.Context(), filter)
	if err != nil {
		s.writeServiceError(w, r, err, "failed to list documents")
		return
	}

	views := make([]*domain.DocumentView, len(docs))
	for i, doc := range docs {
		views[i] = s.view(doc)
	}
	writeJSON(w, http.StatusOK, DocumentListResponse{Documents: views})
}

// handleUploadDocument godoc
// @Summary      Upload a document
// @Description  Stores any file and schedules its analysis
// @Tags         Documents
// @Accept       multipart/form-data
// @Produce      json
// @Param        file  formData  file  true  "Document"
// @Success      201   {object}  DocumentResponse
// @Failure      400   {object}  ErrorResponse
// @Failure      413   {object}  ErrorResponse
// @Router       /api/documents [post]
func (s *Server) handleUploadDocument(w http.ResponseWriter, r *http.Request) {
	s.handleUpload(w, r, false)
}

// handleUploadCSV godoc
// @Summary      Upload a CSV file
// @Description  Stores a CSV file for chat and schedules its analysis
// @Tags         Documents
// @Accept       multipart/form-data
// @Produce      json
// @Param        file  formData  file  true  "CSV file"
// @Success      201   {object}  DocumentResponse
// @Failure      400   {object}  ErrorResponse
// @Failure      413   {object}  ErrorResponse
// @Router       /api/upload-csv [post]
func (s *Server) handleUploadCSV(w http.ResponseWriter, r *http.Request) {
	s.handleUpload(w, r, true)
}

// handleUpload streams the multipart "file" part into the document service.
func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request, csvOnly bool) {
	r.Body = http.MaxBytesReader(w, r.Body, s.maxUploadBytes+multipartOverhead)

	mr, err := r.MultipartReader()
	if err != nil {
		writeError(w, http.StatusBadRequest, "multipart form with a file field is required")
		return
	}

	for {
		part, err := mr.NextPart()
		if err == io.EOF {
			break
		}
		if err != nil {
			s.writeServiceError(w, r, err, "failed to read upload")
			return
		}
		if part.FormName() != "file" || part.FileName() == "" {
			_ = part.Close()
			continue
		}

		doc, err := s.docService.Upload(r.Context(), driving.UploadRequest{
			Filename: part.FileName(),
			MimeType: part.Header.Get("Content-Type"),
			Content:  part,
			CSVOnly:  csvOnly,
		})
		_ = part.Close()
		if err != nil {
			s.writeServiceError(w, r, err, "failed to upload document")
			return
		}

		writeJSON(w, http.StatusCreated, DocumentResponse{Document: s.view(doc)})
		return
	}

	writeError(w, http.StatusBadRequest, "file is required")
}

// handleGetDocument godoc
// @Summary      Get a document
// @Tags         Documents
// @Produce      json
// @Param        id   path      string  true  "Document ID"
// @Success      200  {object}  domain.DocumentView
// @Failure      404  {object}  ErrorResponse
// @Router       /api/documents/{id} [get]
func (s *Server) handleGetDocument(w http.ResponseWriter, r *http.Request) {
	doc, err := s.docService.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		s.writeServiceError(w, r, err, "failed to get document")
		return
	}
	writeJSON(w, http.StatusOK, s.view(doc))
}

// handleGetContent godoc
// @Summary      Download a document
// @Description  Returns the raw uploaded bytes with the stored mime type
// @Tags         Documents
// @Produce      octet-stream
// @Param        id   path  string  true  "Document ID"
// @Success      200
// @Failure      404  {object}  ErrorResponse
// @Router       /api/documents/{id}/content [get]
func (s *Server) handleGetContent(w http.ResponseWriter, r *http.Request) {
	doc, rc, err := s.docService.OpenContent(r.Context(), r.PathValue("id"))
	if err != nil {
		s.writeServiceError(w, r, err, "failed to read document")
		return
	}
	defer rc.Close()

	w.Header().Set("Content-Type", doc.MimeType)
	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": doc.Filename}))
	if doc.Size > 0 {
		w.Header().Set("Content-Length", strconv.FormatInt(doc.Size, 10))
	}
	w.WriteHeader(http.StatusOK)
	if _, err := io.Copy(w, rc); err != nil {
		s.logger.Warn("content download interrupted", "document_id", doc.ID, "error", err)
	}
}

// handleRenameDocument godoc
// @Summary      Rename a document
// @Tags         Documents
// @Accept       json
// @Produce      json
// @Param        id       path      string         true  "Document ID"
// @Param        request  body      RenameRequest  true  "New name"
// @Success      200      {object}  DocumentMutationResponse
// @Failure      400      {object}  ErrorResponse
// @Failure      404      {object}  ErrorResponse
// @Failure      409      {object}  ErrorResponse
// @Router       /api/documents/{id} [patch]
func (s *Server) handleRenameDocument(w http.ResponseWriter, r *http.Request) {
	var req RenameRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	doc, err := s.docService.Rename(r.Context(), r.PathValue("id"), req.Name)
	if err != nil {
		s.writeServiceError(w, r, err, "failed to rename document")
		return
	}
	writeJSON(w, http.StatusOK, DocumentMutationResponse{Success: true, Document: s.view(doc)})
}

// handleDeleteDocument godoc
// @Summary      Delete a document
// @Description  Removes the record with its file, cached rows and chat history
// @Tags         Documents
// @Produce      json
// @Param        id   path      string  true  "Document ID"
// @Success      200  {object}  SuccessResponse
// @Failure      404  {object}  ErrorResponse
// @Failure      409  {object}  ErrorResponse
// @Router       /api/documents/{id} [delete]
func (s *Server) handleDeleteDocument(w http.ResponseWriter, r *http.Request) {
	if err := s.docService.Delete(r.Context(), r.PathValue("id")); err != nil {
		s.writeServiceError(w, r, err, "failed to delete document")
		return
	}
	writeJSON(w, http.StatusOK, SuccessResponse{Success: true})
}

// handleBulkDelete godoc
// @Summary      Delete several documents
// @Description  Unknown IDs are skipped
// @Tags         Documents
// @Accept       json
// @Produce      json
// @Param        request  body      BulkDeleteRequest  true  "Document IDs"
// @Success      200      {object}  BulkDeleteResponse
// @Failure      400      {object}  ErrorResponse
// @Failure      409      {object}  ErrorResponse
// @Router       /api/documents/bulk-delete [post]
func (s *Server) handleBulkDelete(w http.ResponseWriter, r *http.Request) {
	var req BulkDeleteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	n, err := s.docService.DeleteMany(r.Context(), req.IDs)
	if err != nil {
		s.writeServiceError(w, r, err, "failed to delete documents")
		return
	}
	writeJSON(w, http.StatusOK, BulkDeleteResponse{Success: true, Deleted: n})
}

// handleListLabels godoc
// @Summary      List labels
// @Description  Labels in use with their document counts
// @Tags         Labels
// @Produce      json
// @Success      200  {object}  LabelListResponse
// @Router       /api/labels [get]
func (s *Server) handleListLabels(w http.ResponseWriter, r *http.Request) {
	labels, err := s.docService.Labels(r.Context())
	if err != nil {
		s.writeServiceError(w, r, err, "failed to list labels")
		return
	}
	if labels == nil {
		labels = []domain.LabelCount{}
	}
	writeJSON(w, http.StatusOK, LabelListResponse{Labels: labels})
}

// handleAddLabel godoc
// @Summary      Add a label
// @Description  Adding a label the document already has is a no-op
// @Tags         Labels
// @Accept       json
// @Produce      json
// @Param        id       path      string        true  "Document ID"
// @Param        request  body      LabelRequest  true  "Label"
// @Success      200      {object}  DocumentMutationResponse
// @Failure      400      {object}  ErrorResponse
// @Failure      404      {object}  ErrorResponse
// @Failure      409      {object}  ErrorResponse
// @Router       /api/documents/{id}/labels [post]
func (s *Server) handleAddLabel(w http.ResponseWriter, r *http.Request) {
	var req LabelRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	doc, err := s.docService.AddLabel(r.Context(), r.PathValue("id"), req.Label)
	if err != nil {
		s.writeServiceError(w, r, err, "failed to add label")
		return
	}
	writeJSON(w, http.StatusOK, DocumentMutationResponse{Success: true, Document: s.view(doc)})
}

// handleRemoveLabel godoc
// @Summary      Remove a label
// @Tags         Labels
// @Produce      json
// @Param        id     path      string  true  "Document ID"
// @Param        label  path      string  true  "Label"
// @Success      200    {object}  DocumentMutationResponse
// @Failure      404    {object}  ErrorResponse
// @Failure      409    {object}  ErrorResponse
// @Router       /api/documents/{id}/labels/{label} [delete]
func (s *Server) handleRemoveLabel(w http.ResponseWriter, r *http.Request) {
	doc, err := s.docService.RemoveLabel(r.Context(), r.PathValue("id"), r.PathValue("label"))
	if err != nil {
		s.writeServiceError(w, r, err, "failed to remove label")
		return
	}
	writeJSON(w, http.StatusOK, DocumentMutationResponse{Success: true, Document: s.view(doc)})
}
