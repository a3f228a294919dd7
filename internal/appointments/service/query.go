package service

import (
	"context"
	"sync"
	"time"

	"clinic/internal/appointments/repository"
	"clinic/pkg/config"
	mongotx "clinic/pkg/db/mongo"
	apperrors "clinic/pkg/errors"
	"clinic/pkg/model"
	"clinic/pkg/sanitizer"
)

// List returns one page of appointments for staff, newest first.
func (s *appointmentService) List(ctx context.Context, filter model.AppointmentFilter, page model.Page) ([]*model.Appointment, int64, error) {
	return s.list(ctx, filter, page, repository.SortNewestFirst)
}

// ListForDoctor scopes List to one doctor, oldest first. A doctor filter in
// the request cannot widen the scope.
func (s *appointmentService) ListForDoctor(ctx context.Context, doctorID string, filter model.AppointmentFilter, page model.Page) ([]*model.Appointment, int64, error) {
	if doctorID == "" {
		return nil, 0, apperrors.InvalidInput("Doctor ID cannot be empty")
	}
	filter.DoctorID = doctorID
	return s.list(ctx, filter, page, repository.SortOldestFirst)
}

// DoctorSchedule lists the doctor's pending and confirmed appointments on
// date, earliest first.
func (s *appointmentService) DoctorSchedule(ctx context.Context, doctorID string, date time.Time) ([]*model.Appointment, error) {
	if doctorID == "" {
		return nil, apperrors.InvalidInput("Doctor ID cannot be empty")
	}

	filter := model.AppointmentFilter{DoctorID: doctorID, Date: &date, ActiveOnly: true}
	appointments, err := s.repo.List(ctx, filter, repository.SortOldestFirst, 0, 0)
	if err != nil {
		s.cfg.Log.Error("Failed to load doctor schedule", "doctor_id", doctorID, "date", date, "error", err)
		return nil, mongotx.StorageError("Failed to load schedule", err)
	}
	return appointments, nil
}

func (s *appointmentService) ListByDateRange(ctx context.Context, start, end time.Time, doctorID string) ([]*model.Appointment, error) {
	if end.Before(start) {
		return nil, apperrors.InvalidInput("end date must not be before start date")
	}

	appointments, err := s.repo.ListByDateRange(ctx, start, end, doctorID)
	if err != nil {
		s.cfg.Log.Error("Failed to list appointments by date range",
			"start", start,
			"end", end,
			"doctor_id", doctorID,
			"error", err,
		)
		return nil, mongotx.StorageError("Failed to list appointments", err)
	}
	return appointments, nil
}

func (s *appointmentService) list(ctx context.Context, filter model.AppointmentFilter, page model.Page, order repository.SortOrder) ([]*model.Appointment, int64, error) {
	filter.PatientEmail = sanitizer.NormalizeEmail(filter.PatientEmail)
	filter.Status = sanitizer.NormalizeLabel(filter.Status)
	_, limit, offset := config.NormalizePage(page.Page, page.Limit)

	var count int64
	var appointments []*model.Appointment
	var errCount, errFind error
	var wg sync.WaitGroup
	wg.Add(2)

	go func() {
		defer wg.Done()
		count, errCount = s.repo.Count(ctx, filter)
		if errCount != nil {
			s.cfg.Log.Error("Failed to count appointments", "error", errCount)
			errCount = mongotx.StorageError("Failed to count appointments", errCount)
		}
	}()

	go func() {
		defer wg.Done()
		appointments, errFind = s.repo.List(ctx, filter, order, limit, offset)
		if errFind != nil {
			s.cfg.Log.Error("Failed to list appointments", "limit", limit, "offset", offset, "error", errFind)
			errFind = mongotx.StorageError("Failed to retrieve appointments", errFind)
		}
	}()

	wg.Wait()
	if errCount != nil {
		return nil, 0, errCount
	}
	if errFind != nil {
		return nil, 0, errFind
	}

	s.cfg.Log.Debug("Appointment list completed",
		"status", filter.Status,
		"doctor_id", filter.DoctorID,
		"count", len(appointments),
		"total_count", count,
	)
	return appointments, count, nil
}
