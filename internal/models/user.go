package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// User is read from the auth collaborator's table.
type User struct {
	ID       uuid.UUID `json:"id"`
	Username *string   `json:"username,omitempty"`
	Email    *string   `json:"email,omitempty"`
	Role     string    `json:"role"`
}

// Video is read from the video catalog's table.
type Video struct {
	ID        uuid.UUID `json:"id"`
	UserID    uuid.UUID `json:"userId"`
	Title     string    `json:"title"`
	Views     int64     `json:"views"`
	Likes     int64     `json:"likes"`
	CreatedAt time.Time `json:"createdAt"`
}

// PaymentMethod is a creator's saved default payout destination for one method.
type PaymentMethod struct {
	UserID    uuid.UUID       `json:"userId"`
	Method    string          `json:"method"`
	Details   json.RawMessage `json:"details"`
	UpdatedAt time.Time       `json:"updatedAt"`
}
