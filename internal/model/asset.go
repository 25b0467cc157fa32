package model

import (
	"time"
)

// Asset is one uploaded file. Locator is a storage key, never a filesystem path.
type Asset struct {
	ID          string    `db:"id" json:"id"`
	StoredName  string    `db:"filename" json:"filename"`
	DisplayName string    `db:"original_name" json:"originalName"`
	ContentType string    `db:"mime_type" json:"mimetype"`
	Size        int64     `db:"size" json:"size"`
	Locator     string    `db:"storage_path" json:"path"`
	OwnerID     string    `db:"uploaded_by" json:"uploadedBy"`
	Downloads   int64     `db:"downloads" json:"downloads"`
	CreatedAt   time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt   time.Time `db:"updated_at" json:"updatedAt"`

	// Joined from users for presentation, nil when the uploader has no user row
	UploaderName  *string `db:"uploader_name" json:"uploaderName,omitempty"`
	UploaderEmail *string `db:"uploader_email" json:"uploaderEmail,omitempty"`
}
