package dto

import (
	"time"

	"github.com/google/uuid"
)

type CreateThreadRequest struct {
	Title string `json:"title"`
}

type CreateThreadResponse struct {
	Id    uuid.UUID `json:"id"`
	Title string    `json:"title"`
}

type RenameThreadRequest struct {
	Title string `json:"title" validate:"required,max=255"`
}

type ThreadResponse struct {
	Id        uuid.UUID  `json:"id"`
	Title     string     `json:"title"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt *time.Time `json:"updated_at"`
}
