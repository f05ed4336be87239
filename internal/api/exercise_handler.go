package api

import (
	"net/http"
	"time"

	"totalfit/training-app/internal/domain"
	"totalfit/training-app/internal/service"

	"github.com/gin-gonic/gin"
)

// ExerciseHandler holds the exercise service dependency.
type ExerciseHandler struct {
	exerciseService service.ExerciseService
}

// NewExerciseHandler creates a new ExerciseHandler.
func NewExerciseHandler(exerciseService service.ExerciseService) *ExerciseHandler {
	return &ExerciseHandler{exerciseService: exerciseService}
}

// --- DTOs ---

// ExerciseRequest defines the expected JSON for creating or updating an
// exercise.
type ExerciseRequest struct {
	Name            string                 `json:"name" binding:"required"`
	Type            string                 `json:"type" binding:"omitempty,oneof=strength running cycling other"`
	MuscleGroup     string                 `json:"muscleGroup"`
	Description     string                 `json:"description"`
	Tips            string                 `json:"tips"`
	VideoURL        string                 `json:"videoUrl" binding:"omitempty,url"`
	EnduranceParams map[string]interface{} `json:"enduranceParams"`
}

// ExerciseResponse is the DTO for returning exercise details.
type ExerciseResponse struct {
	ID              string                 `json:"id"`
	CoachID         string                 `json:"coachId"`
	Name            string                 `json:"name"`
	Type            domain.ExerciseType    `json:"type"`
	MuscleGroup     string                 `json:"muscleGroup,omitempty"`
	Description     string                 `json:"description,omitempty"`
	Tips            string                 `json:"tips,omitempty"`
	VideoURL        string                 `json:"videoUrl,omitempty"`
	HasUploadedClip bool                   `json:"hasUploadedClip"`
	EnduranceParams map[string]interface{} `json:"enduranceParams,omitempty"`
	CreatedAt       time.Time              `json:"createdAt"`
	UpdatedAt       time.Time              `json:"updatedAt"`
}

// MapExerciseToResponse converts a domain.Exercise to ExerciseResponse DTO.
func MapExerciseToResponse(exercise *domain.Exercise) ExerciseResponse {
	if exercise == nil {
		return ExerciseResponse{}
	}
	return ExerciseResponse{
		ID:              exercise.ID.Hex(),
		CoachID:         exercise.CoachID.Hex(),
		Name:            exercise.Name,
		Type:            exercise.Type,
		MuscleGroup:     exercise.MuscleGroup,
		Description:     exercise.Description,
		Tips:            exercise.Tips,
		VideoURL:        exercise.VideoURL,
		HasUploadedClip: exercise.VideoObjectKey != "",
		EnduranceParams: exercise.EnduranceParams,
		CreatedAt:       exercise.CreatedAt,
		UpdatedAt:       exercise.UpdatedAt,
	}
}

// MapExercisesToResponse converts a slice of domain.Exercise to DTOs.
func MapExercisesToResponse(exercises []domain.Exercise) []ExerciseResponse {
	responses := make([]ExerciseResponse, len(exercises))
	for i := range exercises {
		responses[i] = MapExerciseToResponse(&exercises[i])
	}
	return responses
}

// VideoUploadRequest names the content type of the clip about to be uploaded.
type VideoUploadRequest struct {
	ContentType string `json:"contentType" binding:"required"`
}

// VideoUploadResponse carries the presigned PUT URL and the object key the
// client must upload to.
type VideoUploadResponse struct {
	UploadURL string `json:"uploadUrl"`
	ObjectKey string `json:"objectKey"`
}

func (r ExerciseRequest) toInput() service.ExerciseInput {
	return service.ExerciseInput{
		Name:            r.Name,
		Type:            domain.ExerciseType(r.Type),
		MuscleGroup:     r.MuscleGroup,
		Description:     r.Description,
		Tips:            r.Tips,
		VideoURL:        r.VideoURL,
		EnduranceParams: r.EnduranceParams,
	}
}

// --- Handler Methods ---

// CreateExercise godoc
// @Summary Create a new exercise
// @Description Creates a new exercise in the authenticated coach's library.
// @Tags Exercises
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param exercise body ExerciseRequest true "Exercise details"
// @Success 201 {object} ExerciseResponse
// @Failure 400 {object} gin.H "Invalid input"
// @Router /exercises [post]
func (h *ExerciseHandler) CreateExercise(c *gin.Context) {
	var req ExerciseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}
	coachID, ok := actorID(c)
	if !ok {
		return
	}

	exercise, err := h.exerciseService.CreateExercise(c.Request.Context(), coachID, req.toInput())
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, MapExerciseToResponse(exercise))
}

// ListExercises godoc
// @Summary List the authenticated coach's active exercises
// @Tags Exercises
// @Produce json
// @Security BearerAuth
// @Success 200 {array} ExerciseResponse
// @Router /exercises [get]
func (h *ExerciseHandler) ListExercises(c *gin.Context) {
	coachID, ok := actorID(c)
	if !ok {
		return
	}
	exercises, err := h.exerciseService.ListExercises(c.Request.Context(), coachID)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, MapExercisesToResponse(exercises))
}

// GetExercise godoc
// @Summary Get one exercise, archived or not
// @Tags Exercises
// @Produce json
// @Security BearerAuth
// @Param exerciseId path string true "Exercise ID"
// @Success 200 {object} ExerciseResponse
// @Failure 404 {object} gin.H "Exercise not found"
// @Router /exercises/{exerciseId} [get]
func (h *ExerciseHandler) GetExercise(c *gin.Context) {
	exerciseID, ok := pathID(c, "exerciseId")
	if !ok {
		return
	}
	exercise, err := h.exerciseService.GetExerciseByID(c.Request.Context(), exerciseID)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, MapExerciseToResponse(exercise))
}

// UpdateExercise godoc
// @Summary Update an exercise
// @Tags Exercises
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param exerciseId path string true "Exercise ID"
// @Param exercise body ExerciseRequest true "Exercise details"
// @Success 200 {object} ExerciseResponse
// @Failure 403 {object} gin.H "Not the owning coach"
// @Router /exercises/{exerciseId} [put]
func (h *ExerciseHandler) UpdateExercise(c *gin.Context) {
	exerciseID, ok := pathID(c, "exerciseId")
	if !ok {
		return
	}
	var req ExerciseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}
	coachID, ok := actorID(c)
	if !ok {
		return
	}

	exercise, err := h.exerciseService.UpdateExercise(c.Request.Context(), coachID, exerciseID, req.toInput())
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, MapExerciseToResponse(exercise))
}

// ArchiveExercise godoc
// @Summary Archive an exercise
// @Description Archived exercises cannot be newly prescribed; history that
// snapshotted them is untouched.
// @Tags Exercises
// @Security BearerAuth
// @Param exerciseId path string true "Exercise ID"
// @Success 204 "Archived"
// @Router /exercises/{exerciseId} [delete]
func (h *ExerciseHandler) ArchiveExercise(c *gin.Context) {
	exerciseID, ok := pathID(c, "exerciseId")
	if !ok {
		return
	}
	coachID, ok := actorID(c)
	if !ok {
		return
	}
	if err := h.exerciseService.ArchiveExercise(c.Request.Context(), coachID, exerciseID); err != nil {
		handleServiceError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// RequestVideoUpload godoc
// @Summary Get a presigned URL for uploading a demo video
// @Tags Exercises
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param exerciseId path string true "Exercise ID"
// @Param upload body VideoUploadRequest true "Clip content type"
// @Success 200 {object} VideoUploadResponse
// @Router /exercises/{exerciseId}/video/upload-url [post]
func (h *ExerciseHandler) RequestVideoUpload(c *gin.Context) {
	exerciseID, ok := pathID(c, "exerciseId")
	if !ok {
		return
	}
	var req VideoUploadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}
	coachID, ok := actorID(c)
	if !ok {
		return
	}

	uploadURL, objectKey, err := h.exerciseService.RequestVideoUploadURL(c.Request.Context(), coachID, exerciseID, req.ContentType)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, VideoUploadResponse{UploadURL: uploadURL, ObjectKey: objectKey})
}

// GetVideoURL godoc
// @Summary Get a playable URL for an exercise's demo video
// @Description Presigned GET for uploaded clips, or the stored external URL.
// @Tags Exercises
// @Produce json
// @Security BearerAuth
// @Param exerciseId path string true "Exercise ID"
// @Success 200 {object} gin.H "{"url": ...}"
// @Failure 404 {object} gin.H "No video attached"
// @Router /exercises/{exerciseId}/video [get]
func (h *ExerciseHandler) GetVideoURL(c *gin.Context) {
	exerciseID, ok := pathID(c, "exerciseId")
	if !ok {
		return
	}
	url, err := h.exerciseService.GetVideoDownloadURL(c.Request.Context(), exerciseID)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"url": url})
}
