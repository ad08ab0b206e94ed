package api

import (
	"fmt"
	"net/http"
	"path/filepath"

	"lumina-server/models"
	"lumina-server/service"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// UploadFile stores a multipart upload in object storage and records it.
func UploadFile(c *gin.Context) {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing file: " + err.Error()})
		return
	}
	src, err := fileHeader.Open()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to open upload: " + err.Error()})
		return
	}
	defer src.Close()

	id := uuid.NewString()
	objectName := fmt.Sprintf("workspace/%s/%s", id, filepath.Base(fileHeader.Filename))
	downloadURL, err := service.UploadStream(src, objectName, fileHeader.Size)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "upload failed: " + err.Error()})
		return
	}

	doc := models.FileDoc{
		ID:          id,
		Name:        fileHeader.Filename,
		Size:        fileHeader.Size,
		ContentType: fileHeader.Header.Get("Content-Type"),
		StoragePath: objectName,
		DownloadURL: downloadURL,
		FolderId:    c.PostForm("folder_id"),
	}
	if err := models.CreateFileDoc(models.GormDB, &doc); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to record file: " + err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"file": doc})
}

func ListFiles(c *gin.Context) {
	files, err := models.ListFileDocs(models.GormDB)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list files: " + err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"files": files, "total": len(files)})
}

// DeleteFile removes the record and best-effort deletes the stored object.
func DeleteFile(c *gin.Context) {
	fileID := c.Param("file_id")
	doc, err := models.GetFileDocByID(models.GormDB, fileID)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "file not found: " + err.Error()})
		return
	}
	if err := models.DeleteFileDocByID(models.GormDB, fileID); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to delete file: " + err.Error()})
		return
	}
	if err := service.RemoveObject(doc.StoragePath); err != nil {
		service.Log.Warnf("failed to remove stored object %s: %v", doc.StoragePath, err)
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

func CreateNote(c *gin.Context) {
	var req struct {
		Title   string `json:"title" binding:"required"`
		Content string `json:"content"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	note := models.NoteDoc{ID: uuid.NewString(), Title: req.Title, Content: req.Content}
	if err := models.CreateNote(models.GormDB, &note); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create note: " + err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"note": note})
}

func ListNotes(c *gin.Context) {
	notes, err := models.ListNotes(models.GormDB)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list notes: " + err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"notes": notes, "total": len(notes)})
}

func UpdateNote(c *gin.Context) {
	noteID := c.Param("note_id")
	var req struct {
		Title   string `json:"title"`
		Content string `json:"content"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := models.UpdateNoteByID(models.GormDB, noteID, req.Title, req.Content); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to update note: " + err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

func DeleteNote(c *gin.Context) {
	noteID := c.Param("note_id")
	if err := models.DeleteNoteByID(models.GormDB, noteID); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to delete note: " + err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

func AddTeamMember(c *gin.Context) {
	var req struct {
		Name string `json:"name" binding:"required"`
		Role string `json:"role"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	member := models.TeamMemberDoc{ID: uuid.NewString(), Name: req.Name, Role: req.Role}
	if err := models.CreateTeamMember(models.GormDB, &member); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to add member: " + err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"member": member})
}

func ListTeamMembers(c *gin.Context) {
	members, err := models.ListTeamMembers(models.GormDB)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list members: " + err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"members": members, "total": len(members)})
}

func RemoveTeamMember(c *gin.Context) {
	memberID := c.Param("member_id")
	if err := models.DeleteTeamMemberByID(models.GormDB, memberID); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to remove member: " + err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}
