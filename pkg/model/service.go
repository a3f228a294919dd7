package model

import "time"

const (
	ServiceStatusActive   = "active"
	ServiceStatusInactive = "inactive"
)

type Service struct {
	ID              string    `json:"id,omitempty" bson:"_id,omitempty"`
	Name            string    `json:"name" bson:"name" validate:"required,max=200"`
	Description     string    `json:"description,omitempty" bson:"description,omitempty" validate:"omitempty,max=1000"`
	DurationMinutes int       `json:"duration_minutes" bson:"duration_minutes" validate:"min=5,max=480"`
	Price           float64   `json:"price" bson:"price" validate:"min=0"`
	Category        string    `json:"category,omitempty" bson:"category,omitempty" validate:"omitempty,max=100"`
	Features        []string  `json:"features,omitempty" bson:"features,omitempty" validate:"omitempty,dive,required,max=200"`
	ImageURL        string    `json:"image_url,omitempty" bson:"image_url,omitempty" validate:"omitempty,url"`
	Status          string    `json:"status" bson:"status" validate:"omitempty,oneof=active inactive"`
	CreatedAt       time.Time `json:"created_at" bson:"created_at"`
	UpdatedAt       time.Time `json:"updated_at" bson:"updated_at"`
}

type ServiceFilter struct {
	Status   string
	Category string
}
