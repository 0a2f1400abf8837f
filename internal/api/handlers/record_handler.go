package handlers

import (
	"errors"
	"log"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"health-records-service/internal/domain/dtos"
	"health-records-service/internal/domain/entities"
	"health-records-service/internal/domain/repositories"
	"health-records-service/internal/services"
)

// actorHeader carries the authenticated actor identity. Authentication and
// authorization happen upstream; by the time a request lands here the
// header is trusted.
const actorHeader = "X-User-ID"

type RecordHandler struct {
	recordService services.RecordServiceContract
	logger        *log.Logger
}

func NewRecordHandler(rs services.RecordServiceContract, logger *log.Logger) *RecordHandler {
	return &RecordHandler{
		recordService: rs,
		logger:        logger,
	}
}

func (h *RecordHandler) CreateRecord(c *fiber.Ctx) error {
	actor, err := actorID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": err.Error()})
	}

	var req dtos.CreateHealthRecordRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "could not parse request: " + err.Error()})
	}

	record, err := h.recordService.Create(c.Context(), actor, req)
	if err != nil {
		return h.mapServiceError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(record)
}

func (h *RecordHandler) GetRecord(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid record id"})
	}

	record, err := h.recordService.GetRecord(c.Context(), id)
	if err != nil {
		return h.mapServiceError(c, err)
	}
	return c.JSON(record)
}

func (h *RecordHandler) UpdateRecord(c *fiber.Ctx) error {
	actor, err := actorID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": err.Error()})
	}
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid record id"})
	}

	var req dtos.UpdateHealthRecordRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "could not parse request: " + err.Error()})
	}

	outcome, err := h.recordService.Update(c.Context(), actor, id, req)
	if err != nil {
		return h.mapServiceError(c, err)
	}
	if outcome.Conflict != nil {
		return c.Status(fiber.StatusConflict).JSON(outcome)
	}
	return c.JSON(outcome)
}

func (h *RecordHandler) DeleteRecord(c *fiber.Ctx) error {
	actor, err := actorID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": err.Error()})
	}
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid record id"})
	}

	var req dtos.DeleteHealthRecordRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "could not parse request: " + err.Error()})
	}

	outcome, err := h.recordService.Delete(c.Context(), actor, id, req)
	if err != nil {
		return h.mapServiceError(c, err)
	}
	if outcome.Conflict != nil {
		return c.Status(fiber.StatusConflict).JSON(outcome)
	}
	return c.JSON(outcome)
}

func (h *RecordHandler) ResolveConflict(c *fiber.Ctx) error {
	actor, err := actorID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": err.Error()})
	}
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid record id"})
	}

	var req dtos.ResolveConflictRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "could not parse request: " + err.Error()})
	}

	outcome, err := h.recordService.ResolveConflict(c.Context(), actor, id, req)
	if err != nil {
		return h.mapServiceError(c, err)
	}
	if outcome.Stale != nil {
		return c.Status(fiber.StatusConflict).JSON(outcome)
	}
	return c.JSON(outcome)
}

func (h *RecordHandler) ListRecords(c *fiber.Ctx) error {
	actor, err := actorID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": err.Error()})
	}

	userID := actor
	if raw := c.Query("user_id"); raw != "" {
		userID, err = uuid.Parse(raw)
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid user_id"})
		}
	}

	query := dtos.ListRecordsQuery{
		Page:           c.QueryInt("page", 1),
		PageSize:       c.QueryInt("page_size", 20),
		IncludeDeleted: c.QueryBool("include_deleted", false),
	}
	if raw := c.Query("record_type"); raw != "" {
		recordType := entities.RecordType(raw)
		query.RecordType = &recordType
	}

	page, err := h.recordService.ListRecords(c.Context(), userID, query)
	if err != nil {
		return h.mapServiceError(c, err)
	}
	return c.JSON(page)
}

func (h *RecordHandler) ListPendingOrConflict(c *fiber.Ctx) error {
	actor, err := actorID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": err.Error()})
	}

	userID := actor
	if raw := c.Query("user_id"); raw != "" {
		userID, err = uuid.Parse(raw)
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid user_id"})
		}
	}

	records, err := h.recordService.ListPendingOrConflict(c.Context(), userID)
	if err != nil {
		return h.mapServiceError(c, err)
	}
	return c.JSON(fiber.Map{"records": records})
}

func (h *RecordHandler) ListAudit(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid record id"})
	}

	entries, err := h.recordService.ListAudit(c.Context(), id)
	if err != nil {
		return h.mapServiceError(c, err)
	}
	return c.JSON(fiber.Map{"entries": entries})
}

func (h *RecordHandler) mapServiceError(c *fiber.Ctx, err error) error {
	var ve *services.ValidationError
	switch {
	case errors.As(err, &ve):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": ve.Error()})
	case errors.Is(err, repositories.ErrRecordNotFound):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": err.Error()})
	case errors.Is(err, services.ErrResolutionRequired):
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": err.Error()})
	default:
		h.logger.Printf("record handler: internal error: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal server error"})
	}
}

func actorID(c *fiber.Ctx) (uuid.UUID, error) {
	raw := c.Get(actorHeader)
	if raw == "" {
		return uuid.Nil, errors.New("missing " + actorHeader + " header")
	}
	actor, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, errors.New("invalid " + actorHeader + " header")
	}
	return actor, nil
}

// RegisterRecordRoutes wires the record endpoints onto the app.
func RegisterRecordRoutes(app *fiber.App, rh *RecordHandler) {
	records := app.Group("/records")
	records.Post("/", rh.CreateRecord)
	records.Get("/", rh.ListRecords)
	records.Get("/sync/pending", rh.ListPendingOrConflict)
	records.Get("/:id", rh.GetRecord)
	records.Put("/:id", rh.UpdateRecord)
	records.Delete("/:id", rh.DeleteRecord)
	records.Post("/:id/resolve", rh.ResolveConflict)
	records.Get("/:id/audit", rh.ListAudit)
}
