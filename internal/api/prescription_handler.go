package api

import (
	"net/http"
	"time"

	"totalfit/training-app/internal/domain"
	"totalfit/training-app/internal/service"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// PrescriptionHandler holds the prescription service dependency.
type PrescriptionHandler struct {
	prescriptionService service.PrescriptionService
}

// NewPrescriptionHandler creates a new PrescriptionHandler.
func NewPrescriptionHandler(prescriptionService service.PrescriptionService) *PrescriptionHandler {
	return &PrescriptionHandler{prescriptionService: prescriptionService}
}

// --- DTOs ---

// AddSlotRequest defines the expected JSON for prescribing an exercise.
// Order is optional: absent means "append after the current active view".
type AddSlotRequest struct {
	ExerciseID string                 `json:"exerciseId" binding:"required"`
	Order      *int                   `json:"order"`
	Params     map[string]interface{} `json:"params"`
	Notes      string                 `json:"notes"`
}

// BulkAddSlotsRequest prescribes several exercises in one atomic call.
type BulkAddSlotsRequest struct {
	Slots []AddSlotRequest `json:"slots" binding:"required,min=1,dive"`
}

// ReplaceSlotRequest carries the fields of a slot edit. Absent fields keep
// the old slot's values.
type ReplaceSlotRequest struct {
	Order  *int                   `json:"order"`
	Params map[string]interface{} `json:"params"`
	Notes  *string                `json:"notes"`
}

// CopySlotsRequest names the session whose active slots should be copied
// into the target session.
type CopySlotsRequest struct {
	SourceSessionID string `json:"sourceSessionId" binding:"required"`
}

// SlotResponse is the DTO for returning prescription slot details.
type SlotResponse struct {
	ID         string                 `json:"id"`
	SessionID  string                 `json:"sessionId"`
	ExerciseID string                 `json:"exerciseId"`
	Order      int                    `json:"order"`
	Params     map[string]interface{} `json:"params,omitempty"`
	Notes      string                 `json:"notes,omitempty"`
	CreatedAt  time.Time              `json:"createdAt"`
}

// MapSlotToResponse converts a domain.PrescriptionSlot to SlotResponse DTO.
func MapSlotToResponse(slot *domain.PrescriptionSlot) SlotResponse {
	if slot == nil {
		return SlotResponse{}
	}
	return SlotResponse{
		ID:         slot.ID.Hex(),
		SessionID:  slot.SessionID.Hex(),
		ExerciseID: slot.ExerciseID.Hex(),
		Order:      slot.Order,
		Params:     slot.Params,
		Notes:      slot.Notes,
		CreatedAt:  slot.CreatedAt,
	}
}

// MapSlotsToResponse converts a slice of slots to response DTOs.
func MapSlotsToResponse(slots []domain.PrescriptionSlot) []SlotResponse {
	responses := make([]SlotResponse, len(slots))
	for i := range slots {
		responses[i] = MapSlotToResponse(&slots[i])
	}
	return responses
}

func (r AddSlotRequest) toInput() (service.SlotInput, error) {
	exerciseID, err := primitive.ObjectIDFromHex(r.ExerciseID)
	if err != nil {
		return service.SlotInput{}, err
	}
	return service.SlotInput{
		ExerciseID: exerciseID,
		Order:      r.Order,
		Params:     r.Params,
		Notes:      r.Notes,
	}, nil
}

// --- Handler Methods ---

// AddSlot godoc
// @Summary Prescribe an exercise in a session
// @Tags Prescriptions
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param sessionId path string true "Session ID"
// @Param slot body AddSlotRequest true "Slot details"
// @Success 201 {object} SlotResponse
// @Failure 404 {object} gin.H "Session or exercise not found or archived"
// @Router /sessions/{sessionId}/slots [post]
func (h *PrescriptionHandler) AddSlot(c *gin.Context) {
	sessionID, ok := pathID(c, "sessionId")
	if !ok {
		return
	}
	var req AddSlotRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}
	input, err := req.toInput()
	if err != nil {
		abortWithError(c, http.StatusBadRequest, "Invalid exerciseId format.")
		return
	}

	slot, err := h.prescriptionService.AddSlot(c.Request.Context(), sessionID, input)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, MapSlotToResponse(slot))
}

// AddSlotsBulk godoc
// @Summary Prescribe several exercises at once
// @Description All slots are created in one atomic unit; any failure leaves
// the session unchanged.
// @Tags Prescriptions
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param sessionId path string true "Session ID"
// @Param slots body BulkAddSlotsRequest true "Slots"
// @Success 201 {array} SlotResponse
// @Router /sessions/{sessionId}/slots/bulk [post]
func (h *PrescriptionHandler) AddSlotsBulk(c *gin.Context) {
	sessionID, ok := pathID(c, "sessionId")
	if !ok {
		return
	}
	var req BulkAddSlotsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}
	inputs := make([]service.SlotInput, len(req.Slots))
	for i, slotReq := range req.Slots {
		input, err := slotReq.toInput()
		if err != nil {
			abortWithError(c, http.StatusBadRequest, "Invalid exerciseId format.")
			return
		}
		inputs[i] = input
	}

	slots, err := h.prescriptionService.AddSlots(c.Request.Context(), sessionID, inputs)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, MapSlotsToResponse(slots))
}

// CopySlots godoc
// @Summary Copy another session's active slots into this session
// @Description Copies are fresh rows with the source order preserved;
// archived source slots are skipped.
// @Tags Prescriptions
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param sessionId path string true "Target session ID"
// @Param source body CopySlotsRequest true "Source session"
// @Success 201 {array} SlotResponse
// @Router /sessions/{sessionId}/slots/copy [post]
func (h *PrescriptionHandler) CopySlots(c *gin.Context) {
	targetID, ok := pathID(c, "sessionId")
	if !ok {
		return
	}
	var req CopySlotsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}
	sourceID, err := primitive.ObjectIDFromHex(req.SourceSessionID)
	if err != nil {
		abortWithError(c, http.StatusBadRequest, "Invalid sourceSessionId format.")
		return
	}

	slots, err := h.prescriptionService.CopySlots(c.Request.Context(), sourceID, targetID)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, MapSlotsToResponse(slots))
}

// ListSlots godoc
// @Summary List a session's active slots
// @Description The active view: slots not archived, ordered by (order, id).
// @Tags Prescriptions
// @Produce json
// @Security BearerAuth
// @Param sessionId path string true "Session ID"
// @Success 200 {array} SlotResponse
// @Failure 404 {object} gin.H "Session not found"
// @Router /sessions/{sessionId}/slots [get]
func (h *PrescriptionHandler) ListSlots(c *gin.Context) {
	sessionID, ok := pathID(c, "sessionId")
	if !ok {
		return
	}
	slots, err := h.prescriptionService.ListActiveSlots(c.Request.Context(), sessionID)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, MapSlotsToResponse(slots))
}

// ReplaceSlot godoc
// @Summary Edit a slot by versioning it
// @Description Inserts a new slot with the supplied fields merged over the
// old ones and archives the old slot, atomically. Executions that already
// snapshotted the old slot are unaffected.
// @Tags Prescriptions
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param slotId path string true "Slot ID"
// @Param update body ReplaceSlotRequest true "Fields to change"
// @Success 200 {object} SlotResponse "The replacement slot"
// @Failure 404 {object} gin.H "Slot not found or archived"
// @Router /slots/{slotId} [put]
func (h *PrescriptionHandler) ReplaceSlot(c *gin.Context) {
	slotID, ok := pathID(c, "slotId")
	if !ok {
		return
	}
	var req ReplaceSlotRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}

	slot, err := h.prescriptionService.ReplaceSlot(c.Request.Context(), slotID, domain.SlotUpdate{
		Order:  req.Order,
		Params: req.Params,
		Notes:  req.Notes,
	})
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, MapSlotToResponse(slot))
}

// ArchiveSlot godoc
// @Summary Remove a slot from the active view
// @Description Idempotent soft delete. The slot row is kept for history.
// @Tags Prescriptions
// @Security BearerAuth
// @Param slotId path string true "Slot ID"
// @Success 204 "Archived"
// @Failure 404 {object} gin.H "Slot not found"
// @Router /slots/{slotId} [delete]
func (h *PrescriptionHandler) ArchiveSlot(c *gin.Context) {
	slotID, ok := pathID(c, "slotId")
	if !ok {
		return
	}
	if err := h.prescriptionService.ArchiveSlot(c.Request.Context(), slotID); err != nil {
		handleServiceError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// ResolveCurrentSlot godoc
// @Summary Resolve a slot to its current version
// @Description Follows the replace chain from any historical slot to the
// newest row. A corrupt (cyclic) chain reports 409.
// @Tags Prescriptions
// @Produce json
// @Security BearerAuth
// @Param slotId path string true "Slot ID"
// @Success 200 {object} SlotResponse
// @Failure 409 {object} gin.H "Replace chain is cyclic"
// @Router /slots/{slotId}/current [get]
func (h *PrescriptionHandler) ResolveCurrentSlot(c *gin.Context) {
	slotID, ok := pathID(c, "slotId")
	if !ok {
		return
	}
	slot, err := h.prescriptionService.ResolveCurrentSlot(c.Request.Context(), slotID)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, MapSlotToResponse(slot))
}
