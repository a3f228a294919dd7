package model

import "time"

const (
	PatientStatusActive   = "active"
	PatientStatusInactive = "inactive"
	PatientStatusDeceased = "deceased"
)

type EmergencyContact struct {
	Name         string `json:"name,omitempty" bson:"name,omitempty" validate:"omitempty,max=200"`
	Phone        string `json:"phone,omitempty" bson:"phone,omitempty" validate:"omitempty,phone"`
	Relationship string `json:"relationship,omitempty" bson:"relationship,omitempty" validate:"omitempty,max=100"`
}

type PersonalInfo struct {
	FirstName   string     `json:"first_name" bson:"first_name"`
	LastName    string     `json:"last_name" bson:"last_name"`
	Email       string     `json:"email" bson:"email"`
	Phone       string     `json:"phone" bson:"phone"`
	DateOfBirth *time.Time `json:"date_of_birth,omitempty" bson:"date_of_birth,omitempty"`
	Gender      string     `json:"gender,omitempty" bson:"gender,omitempty"`
}

type ContactInfo struct {
	Address          string            `json:"address,omitempty" bson:"address,omitempty"`
	EmergencyContact *EmergencyContact `json:"emergency_contact,omitempty" bson:"emergency_contact,omitempty"`
}

type MedicalInfo struct {
	BloodGroup        string   `json:"blood_group,omitempty" bson:"blood_group,omitempty"`
	Allergies         []string `json:"allergies,omitempty" bson:"allergies,omitempty"`
	ChronicConditions []string `json:"chronic_conditions,omitempty" bson:"chronic_conditions,omitempty"`
}

type Visit struct {
	AppointmentID    string     `json:"appointment_id,omitempty" bson:"appointment_id,omitempty" validate:"omitempty,mongodb"`
	Date             time.Time  `json:"date" bson:"date" validate:"required"`
	DoctorID         string     `json:"doctor_id,omitempty" bson:"doctor_id,omitempty" validate:"omitempty,mongodb"`
	Diagnosis        string     `json:"diagnosis,omitempty" bson:"diagnosis,omitempty" validate:"omitempty,max=2000"`
	Treatment        string     `json:"treatment,omitempty" bson:"treatment,omitempty" validate:"omitempty,max=2000"`
	Prescriptions    []string   `json:"prescriptions,omitempty" bson:"prescriptions,omitempty" validate:"omitempty,dive,required"`
	FollowUpRequired bool       `json:"follow_up_required" bson:"follow_up_required"`
	FollowUpDate     *time.Time `json:"follow_up_date,omitempty" bson:"follow_up_date,omitempty"`
	Notes            string     `json:"notes,omitempty" bson:"notes,omitempty" validate:"omitempty,max=2000"`
}

type Patient struct {
	ID               string       `json:"id,omitempty" bson:"_id,omitempty"`
	PersonalInfo     PersonalInfo `json:"personal_info" bson:"personal_info"`
	ContactInfo      ContactInfo  `json:"contact_info" bson:"contact_info"`
	MedicalInfo      MedicalInfo  `json:"medical_info" bson:"medical_info"`
	VisitHistory     []Visit      `json:"visit_history" bson:"visit_history"`
	Status           string       `json:"status" bson:"status"`
	RegistrationDate time.Time    `json:"registration_date" bson:"registration_date"`
	LastVisit        *time.Time   `json:"last_visit,omitempty" bson:"last_visit,omitempty"`
	TotalVisits      int          `json:"total_visits" bson:"total_visits"`
	CreatedAt        time.Time    `json:"created_at" bson:"created_at"`
	UpdatedAt        time.Time    `json:"updated_at" bson:"updated_at"`
}

// PatientIdentity is what a booking knows about a patient. Email is the key.
type PatientIdentity struct {
	FirstName        string
	LastName         string
	Email            string
	Phone            string
	DateOfBirth      *time.Time
	Gender           string
	Address          string
	EmergencyContact *EmergencyContact
}

func (p PatientInput) Identity() PatientIdentity {
	return PatientIdentity{
		FirstName:        p.FirstName,
		LastName:         p.LastName,
		Email:            p.Email,
		Phone:            p.Phone,
		DateOfBirth:      p.DateOfBirth,
		Gender:           p.Gender,
		Address:          p.Address,
		EmergencyContact: p.EmergencyContact,
	}
}

// HasIdentity reports whether the stored personal and contact fields already
// equal identity, so an upsert would change nothing.
func (p *Patient) HasIdentity(identity PatientIdentity) bool {
	info := p.PersonalInfo
	if info.Email != identity.Email ||
		info.FirstName != identity.FirstName ||
		info.LastName != identity.LastName ||
		info.Phone != identity.Phone ||
		info.Gender != identity.Gender ||
		p.ContactInfo.Address != identity.Address {
		return false
	}
	if !sameTime(info.DateOfBirth, identity.DateOfBirth) {
		return false
	}
	a, b := p.ContactInfo.EmergencyContact, identity.EmergencyContact
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

func sameTime(a, b *time.Time) bool {
	if a == nil || b == nil {
		return a == b
	}
	return a.Equal(*b)
}

type PatientFilter struct {
	Search string
	Status string
}
