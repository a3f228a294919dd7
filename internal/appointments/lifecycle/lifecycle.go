// Package lifecycle holds the appointment state machine and the policy deciding
// who may drive it. The two are kept apart so each can be tested on its own.
package lifecycle

import "clinic/pkg/model"

var transitions = map[string][]string{
	model.StatusPending:   {model.StatusConfirmed, model.StatusCancelled, model.StatusNoShow},
	model.StatusConfirmed: {model.StatusCompleted, model.StatusCancelled, model.StatusNoShow},
}

// CanTransition reports whether to is reachable from from in one step.
// Terminal statuses have no outgoing edges.
func CanTransition(from, to string) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// Next lists the statuses reachable from status.
func Next(status string) []string {
	return append([]string(nil), transitions[status]...)
}

// CanActorTransition reports whether actor may move appointment to status.
// Doctors act only on their own appointments. Staff act on any.
func CanActorTransition(actor model.Actor, appointment *model.Appointment, status string) bool {
	if appointment == nil {
		return false
	}
	switch actor.Role {
	case model.RoleStaff:
		return true
	case model.RoleDoctor:
		return actor.ID != "" && actor.ID == appointment.DoctorID
	default:
		return false
	}
}

// CanActorEdit reports whether actor may edit or reschedule appointment.
// Only staff can; doctors change status through CanActorTransition.
func CanActorEdit(actor model.Actor, appointment *model.Appointment) bool {
	return appointment != nil && actor.IsStaff()
}

// InitialStatus returns the status a new booking starts in. Patients always
// start pending; staff and doctors may book straight into confirmed.
func InitialStatus(actor model.Actor, requested string) (string, bool) {
	switch requested {
	case "", model.StatusPending:
		return model.StatusPending, true
	case model.StatusConfirmed:
		return model.StatusConfirmed, actor.IsStaff() || actor.IsDoctor()
	default:
		return "", false
	}
}
