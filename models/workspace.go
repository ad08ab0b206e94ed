package models

import (
	"time"

	"gorm.io/gorm"
)

// Workspace entities: uploaded files, notes and team members. These are
// plain CRUD collections next to the generation flows.

type FileDoc struct {
	ID          string    `gorm:"primaryKey;type:varchar(64)" json:"id"`
	Name        string    `json:"name"`
	Size        int64     `json:"size"`
	ContentType string    `json:"type"`
	StoragePath string    `json:"storagePath"`
	DownloadURL string    `json:"downloadUrl"`
	FolderId    string    `json:"folderId,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
}

func (FileDoc) TableName() string {
	return "workspace_file"
}

type NoteDoc struct {
	ID        string    `gorm:"primaryKey;type:varchar(64)" json:"id"`
	Title     string    `json:"title"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (NoteDoc) TableName() string {
	return "workspace_note"
}

type TeamMemberDoc struct {
	ID        string    `gorm:"primaryKey;type:varchar(64)" json:"id"`
	Name      string    `json:"name"`
	Role      string    `json:"role"`
	CreatedAt time.Time `json:"createdAt"`
}

func (TeamMemberDoc) TableName() string {
	return "workspace_member"
}

func CreateFileDoc(db *gorm.DB, f *FileDoc) error {
	f.CreatedAt = time.Now()
	return db.Create(f).Error
}

func ListFileDocs(db *gorm.DB) ([]FileDoc, error) {
	var res []FileDoc
	if err := db.Order("created_at DESC").Find(&res).Error; err != nil {
		return nil, err
	}
	return res, nil
}

func GetFileDocByID(db *gorm.DB, id string) (*FileDoc, error) {
	var f FileDoc
	if err := db.First(&f, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &f, nil
}

func DeleteFileDocByID(db *gorm.DB, id string) error {
	return db.Delete(&FileDoc{}, "id = ?", id).Error
}

func CreateNote(db *gorm.DB, n *NoteDoc) error {
	now := time.Now()
	n.CreatedAt = now
	n.UpdatedAt = now
	return db.Create(n).Error
}

func ListNotes(db *gorm.DB) ([]NoteDoc, error) {
	var res []NoteDoc
	if err := db.Order("created_at DESC").Find(&res).Error; err != nil {
		return nil, err
	}
	return res, nil
}

func UpdateNoteByID(db *gorm.DB, id, title, content string) error {
	updates := map[string]interface{}{"updated_at": time.Now()}
	if title != "" {
		updates["title"] = title
	}
	if content != "" {
		updates["content"] = content
	}
	return db.Model(&NoteDoc{}).Where("id = ?", id).Updates(updates).Error
}

func DeleteNoteByID(db *gorm.DB, id string) error {
	return db.Delete(&NoteDoc{}, "id = ?", id).Error
}

func CreateTeamMember(db *gorm.DB, m *TeamMemberDoc) error {
	m.CreatedAt = time.Now()
	return db.Create(m).Error
}

func ListTeamMembers(db *gorm.DB) ([]TeamMemberDoc, error) {
	var res []TeamMemberDoc
	if err := db.Order("created_at ASC").Find(&res).Error; err != nil {
		return nil, err
	}
	return res, nil
}

func DeleteTeamMemberByID(db *gorm.DB, id string) error {
	return db.Delete(&TeamMemberDoc{}, "id = ?", id).Error
}
