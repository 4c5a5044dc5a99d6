package dto

import (
	"time"

	"github.com/google/uuid"
)

type UploadDocumentResponse struct {
	Id       uuid.UUID `json:"id"`
	FileName string    `json:"file_name"`
	Status   string    `json:"status"`
}

// PublishIndexDocumentMessage is the payload queued for the background
// indexing consumer.
type PublishIndexDocumentMessage struct {
	DocumentId uuid.UUID `json:"document_id"`
}

type DocumentResponse struct {
	Id        uuid.UUID `json:"id"`
	FileName  string    `json:"file_name"`
	FileSize  int64     `json:"file_size"`
	Status    string    `json:"status"`
	ThreadId  uuid.UUID `json:"thread_id"`
	CreatedAt time.Time `json:"created_at"`
}
