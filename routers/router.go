package routers

import (
	"lumina-server/routers/api"

	"github.com/gin-gonic/gin"
)

func InitRouter() *gin.Engine {
	r := gin.Default()
	v1 := r.Group("/v1/api")
	{
		v1.POST("/projects", api.CreateProject)
		v1.GET("/projects", api.ListProjects)
		v1.GET("/projects/:project_id", api.GetProject)
		v1.PUT("/projects/:project_id", api.UpdateProject)
		v1.DELETE("/projects/:project_id", api.DeleteProject)
		v1.GET("/projects/:project_id/export", api.ExportProject)

		v1.GET("/projects/:project_id/pages", api.GetPages)
		v1.GET("/projects/:project_id/pages/:page_id", api.GetPageDetail)
		v1.PUT("/projects/:project_id/pages/:page_id", api.UpdatePage)
		v1.POST("/projects/:project_id/pages/:page_id/regenerate", api.RegeneratePageImage)
		v1.POST("/projects/:project_id/pages/:page_id/upscale", api.UpscalePage)
		v1.POST("/projects/:project_id/pages/:page_id/video", api.GeneratePageVideo)
		v1.POST("/projects/:project_id/pages/:page_id/audio", api.NarratePage)

		v1.GET("/tasks/:task_id", api.GetTaskStatus)
		v1.POST("/tasks/:task_id/cancel", api.CancelTask)

		v1.GET("/wallet", api.GetWallet)
		v1.POST("/wallet/purchase", api.PurchaseCredits)
		v1.POST("/wallet/subscribe", api.Subscribe)

		v1.POST("/ads", api.GenerateAdCampaign)
		v1.POST("/characters", api.GenerateCharacter)
		v1.POST("/lab/generate", api.LabGenerate)
		v1.GET("/assets", api.ListAssets)

		v1.POST("/workspace/files", api.UploadFile)
		v1.GET("/workspace/files", api.ListFiles)
		v1.DELETE("/workspace/files/:file_id", api.DeleteFile)
		v1.POST("/workspace/notes", api.CreateNote)
		v1.GET("/workspace/notes", api.ListNotes)
		v1.PUT("/workspace/notes/:note_id", api.UpdateNote)
		v1.DELETE("/workspace/notes/:note_id", api.DeleteNote)
		v1.POST("/workspace/team", api.AddTeamMember)
		v1.GET("/workspace/team", api.ListTeamMembers)
		v1.DELETE("/workspace/team/:member_id", api.RemoveTeamMember)
	}
	r.GET("/tasks/:task_id/wss", api.TaskProgressWebSocket)
	return r
}
