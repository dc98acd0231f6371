package httpapi

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"github.com/custodia-labs/voltdex/internal/core/domain"
	"github.com/custodia-labs/voltdex/internal/core/ports/driving"
)

// validate is shared across requests; validator instances cache struct
// metadata.
var validate = validator.New()

// ActionHandler dispatches the single action endpoint to the driving
// services.
type ActionHandler struct {
	ingest driving.IngestService
	query  driving.QueryService
}

// NewActionHandler creates the handler for the actions endpoint.
func NewActionHandler(ingest driving.IngestService, query driving.QueryService) *ActionHandler {
	return &ActionHandler{ingest: ingest, query: query}
}

// envelope carries the action discriminator; the remaining fields are
// decoded per action.
type envelope struct {
	Action string `json:"action" validate:"required"`
}

// HandleAction routes {"action": ...} requests.
func (h *ActionHandler) HandleAction(c *fiber.Ctx) error {
	body := c.Body()

	var env envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return ErrBadRequest()
	}

	switch env.Action {
	case "process_document":
		return h.processDocument(c, body)
	case "process_batch":
		return h.processBatch(c, body)
	case "get_process_status":
		return h.getProcessStatus(c, body)
	case "embed_chunks":
		return h.embedChunks(c, body)
	case "query":
		return h.handleQuery(c, body)
	case "sync_folder":
		return h.syncFolder(c, body)
	case "delete_document":
		return h.deleteDocument(c, body)
	case "list_documents":
		return h.listDocuments(c)
	default:
		return ErrUnknownAction(env.Action)
	}
}

// decodeParams unmarshals and validates action parameters.
func decodeParams(body []byte, params any) error {
	if err := json.Unmarshal(body, params); err != nil {
		return ErrBadRequest()
	}
	if err := validate.Struct(params); err != nil {
		errs, ok := err.(validator.ValidationErrors) //nolint:errorlint // library returns this type directly
		if !ok {
			return ErrBadRequest()
		}
		fields := make([]string, len(errs))
		for i, e := range errs {
			fields[i] = fmt.Sprintf("%s failed on '%s'", e.Field(), e.Tag())
		}
		return NewError(fiber.StatusUnprocessableEntity, "validation: "+strings.Join(fields, ", "))
	}
	return nil
}

type processDocumentParams struct {
	DocumentID string `json:"documentId"`
	Name       string `json:"name"`
	SourceRef  string `json:"sourceRef"`
}

// processDocument registers a new document (name + sourceRef) or
// reprocesses an existing one (documentId), then runs extraction and
// pagination. Batch steps are driven separately by process_batch.
func (h *ActionHandler) processDocument(c *fiber.Ctx, body []byte) error {
	var params processDocumentParams
	if err := decodeParams(body, &params); err != nil {
		return err
	}

	if params.DocumentID == "" {
		if params.Name == "" || params.SourceRef == "" {
			return NewError(fiber.StatusUnprocessableEntity, "validation: name and sourceRef are required when documentId is not given")
		}
		doc, err := h.ingest.CreateDocument(c.Context(), params.Name, params.SourceRef)
		if err != nil {
			return err
		}
		params.DocumentID = doc.ID
	}

	if err := h.ingest.ProcessDocument(c.Context(), params.DocumentID); err != nil {
		return err
	}

	status, err := h.ingest.Status(c.Context(), params.DocumentID)
	if err != nil {
		return err
	}
	return c.JSON(status)
}

type documentParams struct {
	DocumentID string `json:"documentId" validate:"required"`
}

func (h *ActionHandler) processBatch(c *fiber.Ctx, body []byte) error {
	var params documentParams
	if err := decodeParams(body, &params); err != nil {
		return err
	}

	result, err := h.ingest.ProcessBatch(c.Context(), params.DocumentID)
	if err != nil {
		return err
	}
	return c.JSON(result)
}

func (h *ActionHandler) getProcessStatus(c *fiber.Ctx, body []byte) error {
	var params documentParams
	if err := decodeParams(body, &params); err != nil {
		return err
	}

	status, err := h.ingest.Status(c.Context(), params.DocumentID)
	if err != nil {
		return err
	}
	return c.JSON(status)
}

func (h *ActionHandler) embedChunks(c *fiber.Ctx, body []byte) error {
	var params documentParams
	if err := decodeParams(body, &params); err != nil {
		return err
	}

	result, err := h.ingest.EmbedChunks(c.Context(), params.DocumentID)
	if err != nil {
		return err
	}
	return c.JSON(result)
}

type queryParams struct {
	Query      string `json:"query" validate:"required"`
	DocumentID string `json:"documentId"`
	Panel      string `json:"panel"`
	Voltage    string `json:"voltage"`
	Mode       string `json:"mode" validate:"omitempty,oneof=text diagram"`
	TopK       int    `json:"topK" validate:"gte=0,lte=50"`
}

// matchResponse is the wire form of one retrieved chunk.
type matchResponse struct {
	DocumentID string  `json:"documentId"`
	PageNumber int     `json:"pageNumber"`
	Content    string  `json:"content"`
	Score      float64 `json:"score"`
}

type queryResponse struct {
	Answer     string             `json:"answer"`
	Intent     domain.QueryIntent `json:"intent"`
	SearchMode domain.SearchMode  `json:"searchMode"`
	Matches    []matchResponse    `json:"matches"`
}

func (h *ActionHandler) handleQuery(c *fiber.Ctx, body []byte) error {
	var params queryParams
	if err := decodeParams(body, &params); err != nil {
		return err
	}

	result, err := h.query.Query(c.Context(), params.Query, domain.QueryOptions{
		DocumentID: params.DocumentID,
		Panel:      params.Panel,
		Voltage:    params.Voltage,
		Mode:       domain.OutputMode(params.Mode),
		TopK:       params.TopK,
	})
	if err != nil {
		return err
	}

	resp := queryResponse{
		Answer:     result.Answer,
		Intent:     result.Intent,
		SearchMode: result.SearchMode,
		Matches:    make([]matchResponse, len(result.Matches)),
	}
	for i, match := range result.Matches {
		resp.Matches[i] = matchResponse{
			DocumentID: match.Chunk.DocumentID,
			PageNumber: match.Chunk.PageNumber,
			Content:    match.Chunk.Content,
			Score:      match.Score,
		}
	}
	return c.JSON(resp)
}

type syncFolderParams struct {
	FolderRef string `json:"folderRef" validate:"required"`
}

func (h *ActionHandler) syncFolder(c *fiber.Ctx, body []byte) error {
	var params syncFolderParams
	if err := decodeParams(body, &params); err != nil {
		return err
	}

	report, err := h.ingest.SyncFolder(c.Context(), params.FolderRef)
	if err != nil {
		return err
	}
	return c.JSON(report)
}

func (h *ActionHandler) deleteDocument(c *fiber.Ctx, body []byte) error {
	var params documentParams
	if err := decodeParams(body, &params); err != nil {
		return err
	}

	if err := h.ingest.DeleteDocument(c.Context(), params.DocumentID); err != nil {
		return err
	}
	return c.JSON(fiber.Map{"deleted": true})
}

func (h *ActionHandler) listDocuments(c *fiber.Ctx) error {
	docs, err := h.ingest.ListDocuments(c.Context())
	if err != nil {
		return err
	}

	type documentResponse struct {
		ID            string `json:"id"`
		Name          string `json:"name"`
		SourceRef     string `json:"sourceRef"`
		Status        string `json:"status"`
		StatusMessage string `json:"statusMessage,omitempty"`
		PageCount     int    `json:"pageCount"`
	}

	resp := make([]documentResponse, len(docs))
	for i, doc := range docs {
		resp[i] = documentResponse{
			ID:            doc.ID,
			Name:          doc.Name,
			SourceRef:     doc.SourceRef,
			Status:        string(doc.Status),
			StatusMessage: doc.StatusMessage,
			PageCount:     doc.PageCount,
		}
	}
	return c.JSON(fiber.Map{"documents": resp})
}
