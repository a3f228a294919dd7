package model

const (
	RolePatient = "patient"
	RoleStaff   = "staff"
	RoleDoctor  = "doctor"
)

// Actor is the authenticated caller. The core trusts it as given.
type Actor struct {
	ID    string `json:"id"`
	Role  string `json:"role"`
	Email string `json:"email,omitempty"`
	Name  string `json:"name,omitempty"`
}

func (a Actor) IsDoctor() bool { return a.Role == RoleDoctor }

func (a Actor) IsStaff() bool { return a.Role == RoleStaff }

var (
	PatientActor = Actor{Role: RolePatient}
	StaffActor   = Actor{Role: RoleStaff}
)
