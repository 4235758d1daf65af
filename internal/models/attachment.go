package models

import (
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
)

type FileType string

const (
	FileImage        FileType = "image"
	FileDocument     FileType = "document"
	FileSpreadsheet  FileType = "spreadsheet"
	FilePresentation FileType = "presentation"
	FileArchive      FileType = "archive"
	FileAudio        FileType = "audio"
	FileVideo        FileType = "video"
	FileOther        FileType = "other"
)

const MaxAttachmentSize = 50 << 20 // 50 MB

// extension -> derived category; extensions outside this table are rejected.
var extCategories = map[string]FileType{
	".jpg": FileImage, ".jpeg": FileImage, ".png": FileImage, ".gif": FileImage, ".webp": FileImage, ".svg": FileImage,
	".pdf": FileDocument, ".doc": FileDocument, ".docx": FileDocument, ".txt": FileDocument, ".md": FileDocument, ".rtf": FileDocument,
	".xls": FileSpreadsheet, ".xlsx": FileSpreadsheet, ".csv": FileSpreadsheet,
	".ppt": FilePresentation, ".pptx": FilePresentation,
	".zip": FileArchive, ".tar": FileArchive, ".gz": FileArchive, ".rar": FileArchive, ".7z": FileArchive,
	".mp3": FileAudio, ".wav": FileAudio, ".ogg": FileAudio, ".m4a": FileAudio,
	".mp4": FileVideo, ".mov": FileVideo, ".avi": FileVideo, ".webm": FileVideo, ".mkv": FileVideo,
}

// CategoryForFilename derives the attachment category from the file
// extension. The second return is false for disallowed extensions.
func CategoryForFilename(name string) (FileType, bool) {
	ext := strings.ToLower(filepath.Ext(name))
	cat, ok := extCategories[ext]
	return cat, ok
}

type Attachment struct {
	ID        uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	MessageID uuid.UUID `gorm:"type:uuid;not null;index"`

	Filename         string   `gorm:"uniqueIndex;not null"` // system-generated
	OriginalFilename string   `gorm:"not null"`
	FileSize         int64    `gorm:"not null"`
	FileType         FileType `gorm:"not null"`
	MimeType         string
	URL              string `gorm:"not null"`
	ThumbnailURL     *string

	DownloadCount    int64 `gorm:"default:0"`
	UploadedAt       time.Time
	LastDownloadedAt *time.Time
	LastDownloadedBy *uuid.UUID `gorm:"type:uuid"`
}
