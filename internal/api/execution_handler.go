package api

import (
	"net/http"
	"time"

	"totalfit/training-app/internal/domain"
	"totalfit/training-app/internal/service"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ExecutionHandler holds the execution service dependency.
type ExecutionHandler struct {
	executionService service.ExecutionService
}

// NewExecutionHandler creates a new ExecutionHandler.
func NewExecutionHandler(executionService service.ExecutionService) *ExecutionHandler {
	return &ExecutionHandler{executionService: executionService}
}

// --- DTOs ---

// ExecutionExerciseRequest is the athlete's report for one slot.
type ExecutionExerciseRequest struct {
	SlotID    string                 `json:"slotId" binding:"required"`
	Performed map[string]interface{} `json:"performed"`
	Notes     string                 `json:"notes"`
}

// CreateExecutionRequest defines the expected JSON for recording an
// execution. Slots the athlete skipped may simply be omitted; they are
// still snapshotted.
type CreateExecutionRequest struct {
	SessionID   string                     `json:"sessionId" binding:"required"`
	ExecutedAt  *time.Time                 `json:"executedAt"`
	Status      string                     `json:"status" binding:"required"`
	EffortScore *int                       `json:"effortScore" binding:"omitempty,min=0,max=10"`
	Comment     string                     `json:"comment"`
	Exercises   []ExecutionExerciseRequest `json:"exercises" binding:"omitempty,dive"`
}

// ExecutionItemResponse pairs one frozen snapshot with the performed data.
type ExecutionItemResponse struct {
	RecordID  string                 `json:"recordId,omitempty"`
	Snapshot  domain.SlotSnapshot    `json:"snapshot"`
	Performed map[string]interface{} `json:"performed,omitempty"`
	Notes     string                 `json:"notes,omitempty"`
}

// ExecutionResponse is the fully materialized execution report.
type ExecutionResponse struct {
	ID          string                  `json:"id"`
	AthleteID   string                  `json:"athleteId"`
	SessionID   string                  `json:"sessionId"`
	SessionName string                  `json:"sessionName,omitempty"`
	PlanName    string                  `json:"planName,omitempty"`
	ExecutedAt  time.Time               `json:"executedAt"`
	Status      domain.ExecutionStatus  `json:"status"`
	EffortScore *int                    `json:"effortScore,omitempty"`
	Comment     string                  `json:"comment,omitempty"`
	Degraded    bool                    `json:"degraded,omitempty"`
	Items       []ExecutionItemResponse `json:"items"`
}

// MapExecutionReportToResponse converts a service.ExecutionReport to its DTO.
func MapExecutionReportToResponse(report *service.ExecutionReport) ExecutionResponse {
	if report == nil {
		return ExecutionResponse{}
	}
	items := make([]ExecutionItemResponse, len(report.Items))
	for i, item := range report.Items {
		recordID := ""
		if item.RecordID != primitive.NilObjectID {
			recordID = item.RecordID.Hex()
		}
		items[i] = ExecutionItemResponse{
			RecordID:  recordID,
			Snapshot:  item.Snapshot,
			Performed: item.Performed,
			Notes:     item.Notes,
		}
	}
	return ExecutionResponse{
		ID:          report.Execution.ID.Hex(),
		AthleteID:   report.Execution.AthleteID.Hex(),
		SessionID:   report.Execution.SessionID.Hex(),
		SessionName: report.SessionName,
		PlanName:    report.PlanName,
		ExecutedAt:  report.Execution.ExecutedAt,
		Status:      report.Execution.Status,
		EffortScore: report.Execution.EffortScore,
		Comment:     report.Execution.Comment,
		Degraded:    report.Degraded,
		Items:       items,
	}
}

// --- Handler Methods ---

// CreateExecution godoc
// @Summary Record a session execution
// @Description Freezes the session's currently active slots into immutable
// snapshots paired with the athlete's reported data, atomically. Reports
// keyed by slots outside the active view fail with 400 listing the ids.
// @Tags Executions
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param athleteId path string true "Athlete ID"
// @Param execution body CreateExecutionRequest true "Execution details"
// @Success 201 {object} ExecutionResponse
// @Failure 400 {object} gin.H "Invalid slot ids or status"
// @Failure 404 {object} gin.H "Athlete or session not found"
// @Router /athletes/{athleteId}/executions [post]
func (h *ExecutionHandler) CreateExecution(c *gin.Context) {
	athleteID, ok := pathID(c, "athleteId")
	if !ok {
		return
	}
	var req CreateExecutionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}
	sessionID, err := primitive.ObjectIDFromHex(req.SessionID)
	if err != nil {
		abortWithError(c, http.StatusBadRequest, "Invalid sessionId format.")
		return
	}

	input := service.CreateExecutionInput{
		AthleteID:   athleteID,
		SessionID:   sessionID,
		ExecutedAt:  req.ExecutedAt,
		Status:      domain.ExecutionStatus(req.Status),
		EffortScore: req.EffortScore,
		Comment:     req.Comment,
	}
	for _, exercise := range req.Exercises {
		slotID, err := primitive.ObjectIDFromHex(exercise.SlotID)
		if err != nil {
			abortWithError(c, http.StatusBadRequest, "Invalid slotId format: "+exercise.SlotID)
			return
		}
		input.Exercises = append(input.Exercises, service.PerformedInput{
			SlotID:    slotID,
			Performed: exercise.Performed,
			Notes:     exercise.Notes,
		})
	}

	report, err := h.executionService.CreateExecution(c.Request.Context(), input)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, MapExecutionReportToResponse(report))
}

// GetExecution godoc
// @Summary Get one execution report
// @Description Executions from before per-slot records existed render the
// session's current active slots instead, marked degraded.
// @Tags Executions
// @Produce json
// @Security BearerAuth
// @Param executionId path string true "Execution ID"
// @Success 200 {object} ExecutionResponse
// @Failure 404 {object} gin.H "Execution not found"
// @Router /executions/{executionId} [get]
func (h *ExecutionHandler) GetExecution(c *gin.Context) {
	executionID, ok := pathID(c, "executionId")
	if !ok {
		return
	}
	report, err := h.executionService.GetExecution(c.Request.Context(), executionID)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, MapExecutionReportToResponse(report))
}

// ListExecutions godoc
// @Summary List an athlete's execution history, newest first
// @Tags Executions
// @Produce json
// @Security BearerAuth
// @Param athleteId path string true "Athlete ID"
// @Success 200 {array} ExecutionResponse
// @Router /athletes/{athleteId}/executions [get]
func (h *ExecutionHandler) ListExecutions(c *gin.Context) {
	athleteID, ok := pathID(c, "athleteId")
	if !ok {
		return
	}
	reports, err := h.executionService.ListExecutions(c.Request.Context(), athleteID)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	responses := make([]ExecutionResponse, len(reports))
	for i := range reports {
		responses[i] = MapExecutionReportToResponse(&reports[i])
	}
	c.JSON(http.StatusOK, responses)
}

// Evolution godoc
// @Summary Per-exercise trend summaries over the athlete's whole history
// @Description One entry per exercise with numeric history: last, previous
// and best load/reps plus deltas, sorted most recently trained first.
// @Tags Executions
// @Produce json
// @Security BearerAuth
// @Param athleteId path string true "Athlete ID"
// @Success 200 {array} service.EvolutionItem
// @Router /athletes/{athleteId}/evolution [get]
func (h *ExecutionHandler) Evolution(c *gin.Context) {
	athleteID, ok := pathID(c, "athleteId")
	if !ok {
		return
	}
	items, err := h.executionService.ComputeEvolution(c.Request.Context(), athleteID)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, items)
}

// LastPerformances godoc
// @Summary Newest reported data per exercise, for form pre-fill
// @Tags Executions
// @Produce json
// @Security BearerAuth
// @Param athleteId path string true "Athlete ID"
// @Success 200 {object} map[string]service.LastPerformance "Keyed by exercise id"
// @Router /athletes/{athleteId}/last-performances [get]
func (h *ExecutionHandler) LastPerformances(c *gin.Context) {
	athleteID, ok := pathID(c, "athleteId")
	if !ok {
		return
	}
	latest, err := h.executionService.LastPerformances(c.Request.Context(), athleteID)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, latest)
}
