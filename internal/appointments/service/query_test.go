package service

import (
	"context"
	"testing"
	"time"

	apperrors "clinic/pkg/errors"
	"clinic/pkg/model"
)

func seed(t *testing.T, f *fixture, doctorID string, day time.Time, times ...string) []*model.Appointment {
	t.Helper()
	var out []*model.Appointment
	for i, hhmm := range times {
		req := f.request("p"+string(rune('a'+i))+"@x.com", hhmm)
		req.DoctorID = doctorID
		req.AppointmentDate = model.NewDate(day)
		appt, err := f.svc.Create(context.Background(), req, model.StaffActor)
		if err != nil {
			t.Fatalf("seed %s: %v", hhmm, err)
		}
		out = append(out, appt)
	}
	return out
}

func TestList_PaginationAndOrder(t *testing.T) {
	f := newFixture(t)
	seed(t, f, f.doctorID, bookingDay, "09:00", "09:30", "10:00")
	seed(t, f, f.doctorID, bookingDay.AddDate(0, 0, 1), "09:00", "09:30")

	items, total, err := f.svc.List(context.Background(), model.AppointmentFilter{}, model.Page{Page: 1, Limit: 2})
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if total != 5 || len(items) != 2 {
		t.Fatalf("total = %d, items = %d", total, len(items))
	}
	if !items[0].AppointmentDate.Equal(bookingDay.AddDate(0, 0, 1)) || items[0].AppointmentTime != "09:30" {
		t.Errorf("staff list must be newest first, got %s %s", items[0].AppointmentDate, items[0].AppointmentTime)
	}

	last, _, err := f.svc.List(context.Background(), model.AppointmentFilter{}, model.Page{Page: 3, Limit: 2})
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(last) != 1 || last[0].AppointmentTime != "09:00" || !last[0].AppointmentDate.Equal(bookingDay) {
		t.Errorf("last page = %+v", last)
	}

	beyond, total, err := f.svc.List(context.Background(), model.AppointmentFilter{}, model.Page{Page: 9, Limit: 2})
	if err != nil || len(beyond) != 0 || total != 5 {
		t.Errorf("page beyond end = %d items, total %d, err %v", len(beyond), total, err)
	}
}

func TestList_Filters(t *testing.T) {
	f := newFixture(t)
	appts := seed(t, f, f.doctorID, bookingDay, "09:00", "09:30")
	seed(t, f, f.otherID, bookingDay, "09:00")
	f.repo.items[appts[1].ID].SetStatus(model.StatusCancelled)

	tests := []struct {
		name   string
		filter model.AppointmentFilter
		want   int64
	}{
		{"no filter", model.AppointmentFilter{}, 3},
		{"status", model.AppointmentFilter{Status: " Cancelled "}, 1},
		{"doctor", model.AppointmentFilter{DoctorID: f.otherID}, 1},
		{"email is case-insensitive", model.AppointmentFilter{PatientEmail: "PA@X.COM"}, 2},
		{"active only", model.AppointmentFilter{ActiveOnly: true}, 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, total, err := f.svc.List(context.Background(), tt.filter, model.Page{})
			if err != nil {
				t.Fatalf("List() error = %v", err)
			}
			if total != tt.want {
				t.Errorf("total = %d, want %d", total, tt.want)
			}
		})
	}
}

func TestListForDoctor_ScopedAndOldestFirst(t *testing.T) {
	f := newFixture(t)
	seed(t, f, f.doctorID, bookingDay, "10:00", "09:00")
	seed(t, f, f.otherID, bookingDay, "09:30")

	items, total, err := f.svc.ListForDoctor(context.Background(), f.doctorID, model.AppointmentFilter{DoctorID: f.otherID}, model.Page{})
	if err != nil {
		t.Fatalf("ListForDoctor() error = %v", err)
	}
	if total != 2 {
		t.Fatalf("total = %d, want 2", total)
	}
	if items[0].AppointmentTime != "09:00" || items[1].AppointmentTime != "10:00" {
		t.Errorf("order = %s, %s", items[0].AppointmentTime, items[1].AppointmentTime)
	}
	for _, a := range items {
		if a.DoctorID != f.doctorID {
			t.Errorf("foreign appointment leaked: %s", a.DoctorID)
		}
	}
}

func TestDoctorSchedule_ActiveOnly(t *testing.T) {
	f := newFixture(t)
	appts := seed(t, f, f.doctorID, bookingDay, "11:00", "09:00", "10:00")
	seed(t, f, f.doctorID, bookingDay.AddDate(0, 0, 1), "09:00")
	f.repo.items[appts[2].ID].SetStatus(model.StatusCancelled)

	schedule, err := f.svc.DoctorSchedule(context.Background(), f.doctorID, bookingDay.Add(13*time.Hour))
	if err != nil {
		t.Fatalf("DoctorSchedule() error = %v", err)
	}
	if len(schedule) != 2 {
		t.Fatalf("schedule = %d entries, want 2", len(schedule))
	}
	if schedule[0].AppointmentTime != "09:00" || schedule[1].AppointmentTime != "11:00" {
		t.Errorf("schedule order = %s, %s", schedule[0].AppointmentTime, schedule[1].AppointmentTime)
	}
}

func TestListByDateRange(t *testing.T) {
	f := newFixture(t)
	seed(t, f, f.doctorID, bookingDay, "09:00")
	seed(t, f, f.doctorID, bookingDay.AddDate(0, 0, 2), "09:00")
	seed(t, f, f.doctorID, bookingDay.AddDate(0, 0, 5), "09:00")

	items, err := f.svc.ListByDateRange(context.Background(), bookingDay, bookingDay.AddDate(0, 0, 2), f.doctorID)
	if err != nil {
		t.Fatalf("ListByDateRange() error = %v", err)
	}
	if len(items) != 2 {
		t.Errorf("items = %d, want 2", len(items))
	}

	_, err = f.svc.ListByDateRange(context.Background(), bookingDay, bookingDay.AddDate(0, 0, -1), "")
	assertCode(t, err, apperrors.CodeInvalidInput)
}

func TestList_StorageFailure(t *testing.T) {
	f := newFixture(t)
	f.repo.err = context.DeadlineExceeded

	_, _, err := f.svc.List(context.Background(), model.AppointmentFilter{}, model.Page{})
	assertCode(t, err, apperrors.CodeTransientStorage)
}
