package api

import (
	"net/http"

	"totalfit/training-app/internal/domain"
	"totalfit/training-app/internal/service"

	"github.com/gin-gonic/gin"
)

// SetupRoutes wires every handler onto the router. Authorization here is
// role-level only; ownership checks ("this coach owns this athlete") are the
// identity service's concern and assumed done before tokens reach us.
func SetupRoutes(
	router *gin.Engine,
	jwtSecret string,
	planService service.PlanService,
	prescriptionService service.PrescriptionService,
	executionService service.ExecutionService,
	exerciseService service.ExerciseService,
) {
	planHandler := NewPlanHandler(planService)
	prescriptionHandler := NewPrescriptionHandler(prescriptionService)
	executionHandler := NewExecutionHandler(executionService)
	exerciseHandler := NewExerciseHandler(exerciseService)

	authMiddleware := AuthMiddleware(jwtSecret)
	coachOnly := RoleMiddleware(domain.RoleCoach)
	anyRole := RoleMiddleware(domain.RoleCoach, domain.RoleAthlete)

	router.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "pong"})
	})

	apiV1 := router.Group("/api/v1")
	protected := apiV1.Group("")
	protected.Use(authMiddleware)
	{
		protected.GET("/me", func(c *gin.Context) {
			userIDStr, err := getUserIDFromContext(c)
			if err != nil {
				abortWithError(c, http.StatusInternalServerError, "Failed to get user ID from token")
				return
			}
			role, _ := getUserRoleFromContext(c)
			c.JSON(http.StatusOK, gin.H{"userId": userIDStr, "role": role})
		})

		// --- Exercise Catalog ---
		exerciseGroup := protected.Group("/exercises")
		{
			exerciseGroup.POST("", coachOnly, exerciseHandler.CreateExercise)
			exerciseGroup.GET("", coachOnly, exerciseHandler.ListExercises)
			exerciseGroup.GET("/:exerciseId", anyRole, exerciseHandler.GetExercise)
			exerciseGroup.PUT("/:exerciseId", coachOnly, exerciseHandler.UpdateExercise)
			exerciseGroup.DELETE("/:exerciseId", coachOnly, exerciseHandler.ArchiveExercise)
			exerciseGroup.POST("/:exerciseId/video/upload-url", coachOnly, exerciseHandler.RequestVideoUpload)
			exerciseGroup.GET("/:exerciseId/video", anyRole, exerciseHandler.GetVideoURL)
		}

		// --- Plans & Sessions ---
		athleteGroup := protected.Group("/athletes/:athleteId")
		{
			athleteGroup.POST("/plans", coachOnly, planHandler.CreatePlan)
			athleteGroup.GET("/plans", anyRole, planHandler.ListPlans)
			athleteGroup.GET("/agenda", anyRole, planHandler.Agenda)

			// --- Execution History ---
			athleteGroup.POST("/executions", anyRole, executionHandler.CreateExecution)
			athleteGroup.GET("/executions", anyRole, executionHandler.ListExecutions)
			athleteGroup.GET("/evolution", anyRole, executionHandler.Evolution)
			athleteGroup.GET("/last-performances", anyRole, executionHandler.LastPerformances)
		}

		planGroup := protected.Group("/plans")
		{
			planGroup.PUT("/:planId", coachOnly, planHandler.UpdatePlan)
			planGroup.DELETE("/:planId", coachOnly, planHandler.ArchivePlan)
			planGroup.POST("/:planId/sessions", coachOnly, planHandler.CreateSession)
			planGroup.GET("/:planId/sessions", anyRole, planHandler.ListSessions)
		}

		sessionGroup := protected.Group("/sessions")
		{
			sessionGroup.DELETE("/:sessionId", coachOnly, planHandler.ArchiveSession)

			// --- Prescription Slots ---
			sessionGroup.POST("/:sessionId/slots", coachOnly, prescriptionHandler.AddSlot)
			sessionGroup.POST("/:sessionId/slots/bulk", coachOnly, prescriptionHandler.AddSlotsBulk)
			sessionGroup.POST("/:sessionId/slots/copy", coachOnly, prescriptionHandler.CopySlots)
			sessionGroup.GET("/:sessionId/slots", anyRole, prescriptionHandler.ListSlots)
		}

		slotGroup := protected.Group("/slots")
		{
			slotGroup.PUT("/:slotId", coachOnly, prescriptionHandler.ReplaceSlot)
			slotGroup.DELETE("/:slotId", coachOnly, prescriptionHandler.ArchiveSlot)
			slotGroup.GET("/:slotId/current", anyRole, prescriptionHandler.ResolveCurrentSlot)
		}

		executionGroup := protected.Group("/executions")
		{
			executionGroup.GET("/:executionId", anyRole, executionHandler.GetExecution)
		}
	}
}
