package model

import "time"

const (
	DoctorStatusActive   = "active"
	DoctorStatusInactive = "inactive"
)

var DefaultAvailableDays = []string{"monday", "tuesday", "wednesday", "thursday", "friday"}

// TimeRange is an opening window such as 09:00-17:00. End is exclusive and
// must sort after Start.
type TimeRange struct {
	Start string `json:"start" bson:"start" validate:"required,hhmm"`
	End   string `json:"end" bson:"end" validate:"required,hhmm"`
}

// Contains reports whether the HH:MM value falls inside the range.
func (r TimeRange) Contains(hhmm string) bool {
	return hhmm >= r.Start && hhmm < r.End
}

type Doctor struct {
	ID              string                 `json:"id,omitempty" bson:"_id,omitempty"`
	FirstName       string                 `json:"first_name" bson:"first_name"`
	LastName        string                 `json:"last_name" bson:"last_name"`
	Email           string                 `json:"email" bson:"email"`
	PasswordHash    string                 `json:"-" bson:"password"`
	Specialization  string                 `json:"specialization" bson:"specialization"`
	Qualification   string                 `json:"qualification,omitempty" bson:"qualification,omitempty"`
	ExperienceYears int                    `json:"experience_years" bson:"experience_years"`
	Phone           string                 `json:"phone,omitempty" bson:"phone,omitempty"`
	ConsultationFee float64                `json:"consultation_fee" bson:"consultation_fee"`
	AvailableDays   []string               `json:"available_days" bson:"available_days"`
	AvailableHours  map[string][]TimeRange `json:"available_hours,omitempty" bson:"available_hours,omitempty"`
	Bio             string                 `json:"bio,omitempty" bson:"bio,omitempty"`
	ImageURL        string                 `json:"image_url,omitempty" bson:"image_url,omitempty"`
	Status          string                 `json:"status" bson:"status"`
	Role            string                 `json:"role" bson:"role"`
	CreatedAt       time.Time              `json:"created_at" bson:"created_at"`
	UpdatedAt       time.Time              `json:"updated_at" bson:"updated_at"`
}

func (d *Doctor) FullName() string {
	return d.FirstName + " " + d.LastName
}

func (d *Doctor) IsActive() bool {
	return d.Status == DoctorStatusActive
}

// Offers reports whether the doctor works at hhmm on the weekday of day.
// Undeclared days or hours do not restrict.
func (d *Doctor) Offers(day time.Time, hhmm string) bool {
	weekday := weekdayName(day)

	if len(d.AvailableDays) > 0 {
		found := false
		for _, available := range d.AvailableDays {
			if available == weekday {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}

	ranges := d.AvailableHours[weekday]
	if len(ranges) == 0 {
		return true
	}
	for _, r := range ranges {
		if r.Contains(hhmm) {
			return true
		}
	}
	return false
}

func weekdayName(t time.Time) string {
	switch t.UTC().Weekday() {
	case time.Monday:
		return "monday"
	case time.Tuesday:
		return "tuesday"
	case time.Wednesday:
		return "wednesday"
	case time.Thursday:
		return "thursday"
	case time.Friday:
		return "friday"
	case time.Saturday:
		return "saturday"
	default:
		return "sunday"
	}
}

type DoctorRequest struct {
	FirstName       string                 `json:"first_name" validate:"required,min=2,max=100"`
	LastName        string                 `json:"last_name" validate:"required,min=2,max=100"`
	Email           string                 `json:"email" validate:"required,email"`
	Password        string                 `json:"password" validate:"required,min=6,max=72"`
	Specialization  string                 `json:"specialization" validate:"required,max=100"`
	Qualification   string                 `json:"qualification,omitempty" validate:"omitempty,max=200"`
	ExperienceYears int                    `json:"experience_years" validate:"min=0,max=60"`
	Phone           string                 `json:"phone,omitempty" validate:"omitempty,phone"`
	ConsultationFee float64                `json:"consultation_fee" validate:"min=0"`
	AvailableDays   []string               `json:"available_days,omitempty" validate:"omitempty,unique,dive,weekday"`
	AvailableHours  map[string][]TimeRange `json:"available_hours,omitempty" validate:"omitempty,dive,keys,weekday,endkeys,dive"`
	Bio             string                 `json:"bio,omitempty" validate:"omitempty,max=1000"`
	ImageURL        string                 `json:"image_url,omitempty" validate:"omitempty,url"`
}

type DoctorUpdate struct {
	FirstName       *string                `json:"first_name,omitempty" validate:"omitempty,min=2,max=100"`
	LastName        *string                `json:"last_name,omitempty" validate:"omitempty,min=2,max=100"`
	Specialization  *string                `json:"specialization,omitempty" validate:"omitempty,max=100"`
	Qualification   *string                `json:"qualification,omitempty" validate:"omitempty,max=200"`
	ExperienceYears *int                   `json:"experience_years,omitempty" validate:"omitempty,min=0,max=60"`
	Phone           *string                `json:"phone,omitempty" validate:"omitempty,phone"`
	ConsultationFee *float64               `json:"consultation_fee,omitempty" validate:"omitempty,min=0"`
	AvailableDays   []string               `json:"available_days,omitempty" validate:"omitempty,unique,dive,weekday"`
	AvailableHours  map[string][]TimeRange `json:"available_hours,omitempty" validate:"omitempty,dive,keys,weekday,endkeys,dive"`
	Bio             *string                `json:"bio,omitempty" validate:"omitempty,max=1000"`
	ImageURL        *string                `json:"image_url,omitempty" validate:"omitempty,url"`
	Status          *string                `json:"status,omitempty" validate:"omitempty,oneof=active inactive"`
}

type DoctorFilter struct {
	Specialization string
	Status         string
	Search         string
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type LoginResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
	Doctor    *Doctor   `json:"doctor"`
}
