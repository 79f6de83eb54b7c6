package entities

import "time"

// VideoFile represents the persisted catalog record of a completed upload.
type VideoFile struct {
	ID             string `gorm:"type:varchar(40);primaryKey"`
	FileID         string `gorm:"type:varchar(255);uniqueIndex;not null"`
	FileName       string `gorm:"type:varchar(255);not null"`
	MimeType       string `gorm:"type:varchar(64);not null"`
	Bytes          int64  `gorm:"not null"`
	WebViewLink    string `gorm:"type:varchar(512)"`
	WebContentLink string `gorm:"type:varchar(1024)"`
	CreatedBy      string `gorm:"type:varchar(64)"`
	CreatedAt      time.Time `gorm:"autoCreateTime"`
	UpdatedAt      time.Time `gorm:"autoUpdateTime"`
}

func (VideoFile) TableName() string {
	return "video_files"
}
