package api

import (
	"net/http"
	"strconv"
	"time"

	"totalfit/training-app/internal/domain"
	"totalfit/training-app/internal/service"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// PlanHandler holds the plan service dependency.
type PlanHandler struct {
	planService service.PlanService
}

// NewPlanHandler creates a new PlanHandler.
func NewPlanHandler(planService service.PlanService) *PlanHandler {
	return &PlanHandler{planService: planService}
}

// --- DTOs ---

// CreatePlanRequest defines the expected JSON for creating a training plan.
type CreatePlanRequest struct {
	Name      string     `json:"name" binding:"required"`
	Goal      string     `json:"goal"`
	StartDate *time.Time `json:"startDate"`
	EndDate   *time.Time `json:"endDate"`
	Notes     string     `json:"notes"`
}

// PlanResponse is the DTO for returning plan details.
type PlanResponse struct {
	ID         string     `json:"id"`
	AthleteID  string     `json:"athleteId"`
	Name       string     `json:"name"`
	Goal       string     `json:"goal,omitempty"`
	StartDate  *time.Time `json:"startDate,omitempty"`
	EndDate    *time.Time `json:"endDate,omitempty"`
	Notes      string     `json:"notes,omitempty"`
	Active     bool       `json:"active"`
	ArchivedAt *time.Time `json:"archivedAt,omitempty"`
	CreatedAt  time.Time  `json:"createdAt"`
	UpdatedAt  time.Time  `json:"updatedAt"`
}

// MapPlanToResponse converts a domain.Plan to PlanResponse DTO.
func MapPlanToResponse(plan *domain.Plan) PlanResponse {
	if plan == nil {
		return PlanResponse{}
	}
	return PlanResponse{
		ID:        plan.ID.Hex(),
		AthleteID: plan.AthleteID.Hex(),
		Name:      plan.Name,
		Goal:      plan.Goal,
		StartDate: plan.StartDate,
		EndDate:   plan.EndDate,
		Notes:     plan.Notes,
		Active:    true,
		CreatedAt: plan.CreatedAt,
		UpdatedAt: plan.UpdatedAt,
	}
}

// CreateSessionRequest defines the expected JSON for creating a session.
// Sequence is optional: absent means "next position in the plan".
type CreateSessionRequest struct {
	Name     string `json:"name" binding:"required"`
	Sequence *int   `json:"sequence"`
	MainType string `json:"mainType"`
	Notes    string `json:"notes"`
}

// SessionResponse is the DTO for returning session details.
type SessionResponse struct {
	ID        string    `json:"id"`
	PlanID    string    `json:"planId"`
	Name      string    `json:"name"`
	Sequence  int       `json:"sequence"`
	MainType  string    `json:"mainType,omitempty"`
	Notes     string    `json:"notes,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// MapSessionToResponse converts a domain.TrainingSession to SessionResponse.
func MapSessionToResponse(session *domain.TrainingSession) SessionResponse {
	if session == nil {
		return SessionResponse{}
	}
	return SessionResponse{
		ID:        session.ID.Hex(),
		PlanID:    session.PlanID.Hex(),
		Name:      session.Name,
		Sequence:  session.Sequence,
		MainType:  session.MainType,
		Notes:     session.Notes,
		CreatedAt: session.CreatedAt,
		UpdatedAt: session.UpdatedAt,
	}
}

// --- Handler Methods ---

// CreatePlan godoc
// @Summary Create a training plan for an athlete
// @Tags Plans
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param athleteId path string true "Athlete ID"
// @Param plan body CreatePlanRequest true "Plan details"
// @Success 201 {object} PlanResponse
// @Failure 400 {object} gin.H "Invalid input"
// @Failure 404 {object} gin.H "Athlete not found"
// @Router /athletes/{athleteId}/plans [post]
func (h *PlanHandler) CreatePlan(c *gin.Context) {
	athleteID, ok := pathID(c, "athleteId")
	if !ok {
		return
	}
	var req CreatePlanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}

	plan, err := h.planService.CreatePlan(c.Request.Context(), athleteID, req.Name, req.Goal, req.StartDate, req.EndDate, req.Notes)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, MapPlanToResponse(plan))
}

// UpdatePlan godoc
// @Summary Update a training plan's header fields
// @Tags Plans
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param planId path string true "Plan ID"
// @Param plan body CreatePlanRequest true "Plan details"
// @Success 200 {object} PlanResponse
// @Failure 404 {object} gin.H "Plan not found or archived"
// @Router /plans/{planId} [put]
func (h *PlanHandler) UpdatePlan(c *gin.Context) {
	planID, ok := pathID(c, "planId")
	if !ok {
		return
	}
	var req CreatePlanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}

	plan, err := h.planService.UpdatePlan(c.Request.Context(), planID, req.Name, req.Goal, req.StartDate, req.EndDate, req.Notes)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, MapPlanToResponse(plan))
}

// ListPlans godoc
// @Summary List an athlete's training plans
// @Description Archived plans are included only with ?includeArchived=true,
// each annotated with its archival state.
// @Tags Plans
// @Produce json
// @Security BearerAuth
// @Param athleteId path string true "Athlete ID"
// @Param includeArchived query bool false "Include archived plans"
// @Success 200 {array} PlanResponse
// @Router /athletes/{athleteId}/plans [get]
func (h *PlanHandler) ListPlans(c *gin.Context) {
	athleteID, ok := pathID(c, "athleteId")
	if !ok {
		return
	}
	includeArchived, _ := strconv.ParseBool(c.DefaultQuery("includeArchived", "false"))

	plans, err := h.planService.ListPlans(c.Request.Context(), athleteID, includeArchived)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	responses := make([]PlanResponse, len(plans))
	for i, plan := range plans {
		response := MapPlanToResponse(&plan.Plan)
		response.Active = plan.Active
		response.ArchivedAt = plan.ArchivedAt
		responses[i] = response
	}
	c.JSON(http.StatusOK, responses)
}

// ArchivePlan godoc
// @Summary Archive a plan and everything under it
// @Description Soft-deletes the plan, its sessions and their slots in one
// atomic unit. Historical executions are unaffected.
// @Tags Plans
// @Security BearerAuth
// @Param planId path string true "Plan ID"
// @Success 204 "Archived"
// @Failure 404 {object} gin.H "Plan not found"
// @Router /plans/{planId} [delete]
func (h *PlanHandler) ArchivePlan(c *gin.Context) {
	planID, ok := pathID(c, "planId")
	if !ok {
		return
	}
	if err := h.planService.ArchivePlan(c.Request.Context(), planID); err != nil {
		handleServiceError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// CreateSession godoc
// @Summary Add a session to a plan
// @Tags Sessions
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param planId path string true "Plan ID"
// @Param session body CreateSessionRequest true "Session details"
// @Success 201 {object} SessionResponse
// @Failure 404 {object} gin.H "Plan not found or archived"
// @Router /plans/{planId}/sessions [post]
func (h *PlanHandler) CreateSession(c *gin.Context) {
	planID, ok := pathID(c, "planId")
	if !ok {
		return
	}
	var req CreateSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}

	session, err := h.planService.CreateSession(c.Request.Context(), planID, req.Name, req.Sequence, req.MainType, req.Notes)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, MapSessionToResponse(session))
}

// ListSessions godoc
// @Summary List a plan's active sessions
// @Tags Sessions
// @Produce json
// @Security BearerAuth
// @Param planId path string true "Plan ID"
// @Success 200 {array} SessionResponse
// @Router /plans/{planId}/sessions [get]
func (h *PlanHandler) ListSessions(c *gin.Context) {
	planID, ok := pathID(c, "planId")
	if !ok {
		return
	}
	sessions, err := h.planService.ListSessions(c.Request.Context(), planID)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	responses := make([]SessionResponse, len(sessions))
	for i := range sessions {
		responses[i] = MapSessionToResponse(&sessions[i])
	}
	c.JSON(http.StatusOK, responses)
}

// ArchiveSession godoc
// @Summary Archive a session and its slots
// @Tags Sessions
// @Security BearerAuth
// @Param sessionId path string true "Session ID"
// @Success 204 "Archived"
// @Failure 404 {object} gin.H "Session not found"
// @Router /sessions/{sessionId} [delete]
func (h *PlanHandler) ArchiveSession(c *gin.Context) {
	sessionID, ok := pathID(c, "sessionId")
	if !ok {
		return
	}
	if err := h.planService.ArchiveSession(c.Request.Context(), sessionID); err != nil {
		handleServiceError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// Agenda godoc
// @Summary Get an athlete's active prescription tree
// @Description Active plans with their active sessions and slots, slots
// enriched with the live exercise definition. Optional planId and sequence
// query filters.
// @Tags Plans
// @Produce json
// @Security BearerAuth
// @Param athleteId path string true "Athlete ID"
// @Param planId query string false "Filter to one plan"
// @Param sequence query int false "Filter sessions by sequence"
// @Success 200 {array} service.AgendaPlan
// @Router /athletes/{athleteId}/agenda [get]
func (h *PlanHandler) Agenda(c *gin.Context) {
	athleteID, ok := pathID(c, "athleteId")
	if !ok {
		return
	}

	var planFilter *primitive.ObjectID
	if raw := c.Query("planId"); raw != "" {
		planID, err := primitive.ObjectIDFromHex(raw)
		if err != nil {
			abortWithError(c, http.StatusBadRequest, "Invalid planId format.")
			return
		}
		planFilter = &planID
	}
	var sequenceFilter *int
	if raw := c.Query("sequence"); raw != "" {
		sequence, err := strconv.Atoi(raw)
		if err != nil {
			abortWithError(c, http.StatusBadRequest, "Invalid sequence value.")
			return
		}
		sequenceFilter = &sequence
	}

	agenda, err := h.planService.Agenda(c.Request.Context(), athleteID, planFilter, sequenceFilter)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, agenda)
}
