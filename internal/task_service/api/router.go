package api

import "github.com/gin-gonic/gin"

// SetupRouter wires the task service endpoints onto a Gin engine.
func SetupRouter(h *Handler, jwtSecret string) *gin.Engine {
	r := gin.Default()

	r.GET("/health", h.Health)

	authMiddleware := AuthMiddleware(jwtSecret)

	apiV1 := r.Group("/api/v1")
	apiV1.Use(authMiddleware)
	{
		tasks := apiV1.Group("/tasks")
		{
			tasks.POST("/execute", h.ExecuteTask)
			tasks.POST("/reassign", h.ReassignTask)
			tasks.GET("/completed/:id", h.GetCompletedTask)
		}

		agents := apiV1.Group("/agents")
		{
			agents.POST("/:id/documents", h.UploadDocument)
		}

		apiV1.POST("/chat", h.Chat)
	}

	return r
}
