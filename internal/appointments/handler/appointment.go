package handler

import (
	"net/http"
	"time"

	"clinic/internal/appointments/service"
	"clinic/pkg/auth"
	"clinic/pkg/config"
	apperrors "clinic/pkg/errors"
	httputil "clinic/pkg/http"
	"clinic/pkg/logger"
	"clinic/pkg/model"

	"github.com/julienschmidt/httprouter"
)

// Guard wraps a route with an authentication check.
type Guard func(httprouter.Handle) httprouter.Handle

type AppointmentHandler struct {
	service     service.AppointmentService
	doctorAuth  Guard
	staffAuth   Guard
	bookingAuth Guard
	log         *logger.Logger
}

// bookingAuth guards the public booking route: it may mark the caller as
// staff but must let anonymous patients through.
func NewAppointmentHandler(service service.AppointmentService, doctorAuth, staffAuth, bookingAuth Guard, log *logger.Logger) *AppointmentHandler {
	return &AppointmentHandler{
		service:     service,
		doctorAuth:  doctorAuth,
		staffAuth:   staffAuth,
		bookingAuth: bookingAuth,
		log:         log,
	}
}

// Create books an appointment on behalf of a patient, or of staff when the
// request carries the staff key.
func (h *AppointmentHandler) Create(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var req model.AppointmentRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.WriteError(w, err)
		return
	}

	actor := model.PatientActor
	if caller := auth.ActorFromContext(r.Context()); caller.IsStaff() {
		actor = caller
	}

	appointment, err := h.service.Create(r.Context(), &req, actor)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteCreated(w, appointment)
}

// --- Staff ---

func (h *AppointmentHandler) GetAll(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	filter, err := parseFilter(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	page, limit, err := httputil.ExtractPage(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	appointments, total, err := h.service.List(r.Context(), filter, model.Page{Page: page, Limit: limit})
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	httputil.WritePaginated(w, appointments, total, page, limit, config.TotalPages(total, limit))
}

func (h *AppointmentHandler) GetByDateRange(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	query := r.URL.Query()
	startStr, endStr := query.Get("start_date"), query.Get("end_date")
	if startStr == "" || endStr == "" {
		httputil.WriteError(w, apperrors.InvalidInput("Both 'start_date' and 'end_date' query parameters are required"))
		return
	}

	start, err := httputil.ParseDate(startStr)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	end, err := httputil.ParseDate(endStr)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	appointments, err := h.service.ListByDateRange(r.Context(), start, end, query.Get("doctor_id"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteSuccess(w, appointments)
}

func (h *AppointmentHandler) GetByID(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	appointment, err := h.service.GetByID(r.Context(), ps.ByName("id"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteSuccess(w, appointment)
}

func (h *AppointmentHandler) Update(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	var update model.AppointmentUpdate
	if err := httputil.DecodeJSON(r, &update); err != nil {
		httputil.WriteError(w, err)
		return
	}

	appointment, err := h.service.Update(r.Context(), ps.ByName("id"), &update, auth.ActorFromContext(r.Context()))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteSuccess(w, appointment)
}

// UpdateStatus serves both the staff and the doctor route. The actor on the
// context decides what the caller may touch.
func (h *AppointmentHandler) UpdateStatus(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	var update model.StatusUpdate
	if err := httputil.DecodeJSON(r, &update); err != nil {
		httputil.WriteError(w, err)
		return
	}

	appointment, err := h.service.UpdateStatus(r.Context(), ps.ByName("id"), &update, auth.ActorFromContext(r.Context()))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteSuccess(w, appointment)
}

func (h *AppointmentHandler) Delete(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	if err := h.service.Delete(r.Context(), ps.ByName("id")); err != nil {
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteNoContent(w)
}

// --- Doctor ---

func (h *AppointmentHandler) GetMine(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	actor := auth.ActorFromContext(r.Context())

	filter, err := parseFilter(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	page, limit, err := httputil.ExtractPage(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	appointments, total, err := h.service.ListForDoctor(r.Context(), actor.ID, filter, model.Page{Page: page, Limit: limit})
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	httputil.WritePaginated(w, appointments, total, page, limit, config.TotalPages(total, limit))
}

func (h *AppointmentHandler) GetMineByID(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	actor := auth.ActorFromContext(r.Context())

	appointment, err := h.service.GetForDoctor(r.Context(), actor.ID, ps.ByName("id"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteSuccess(w, appointment)
}

// GetSchedule returns the doctor's active appointments for ?date=, today when
// omitted.
func (h *AppointmentHandler) GetSchedule(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	actor := auth.ActorFromContext(r.Context())

	date := model.StartOfDay(time.Now())
	if s := r.URL.Query().Get("date"); s != "" {
		parsed, err := httputil.ParseDate(s)
		if err != nil {
			httputil.WriteError(w, err)
			return
		}
		date = parsed
	}

	appointments, err := h.service.DoctorSchedule(r.Context(), actor.ID, date)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteSuccess(w, map[string]any{
		"date":         date.Format(model.DateLayout),
		"appointments": appointments,
	})
}

func parseFilter(r *http.Request) (model.AppointmentFilter, error) {
	query := r.URL.Query()
	filter := model.AppointmentFilter{
		Status:       query.Get("status"),
		DoctorID:     query.Get("doctor_id"),
		PatientEmail: query.Get("patient_email"),
	}
	if s := query.Get("date"); s != "" {
		date, err := httputil.ParseDate(s)
		if err != nil {
			return filter, err
		}
		filter.Date = &date
	}
	return filter, nil
}

func (h *AppointmentHandler) RegisterRoutes(router *httprouter.Router) {
	router.POST("/api/v1/appointments", h.bookingAuth(h.Create))

	router.GET("/api/v1/appointments", h.staffAuth(h.GetAll))
	router.GET("/api/v1/appointments/date-range", h.staffAuth(h.GetByDateRange))
	router.GET("/api/v1/appointments/id/:id", h.staffAuth(h.GetByID))
	router.PATCH("/api/v1/appointments/id/:id", h.staffAuth(h.Update))
	router.PATCH("/api/v1/appointments/id/:id/status", h.staffAuth(h.UpdateStatus))
	router.DELETE("/api/v1/appointments/id/:id", h.staffAuth(h.Delete))

	router.GET("/api/v1/doctor/appointments", h.doctorAuth(h.GetMine))
	router.GET("/api/v1/doctor/appointments/id/:id", h.doctorAuth(h.GetMineByID))
	router.PATCH("/api/v1/doctor/appointments/id/:id/status", h.doctorAuth(h.UpdateStatus))
	router.GET("/api/v1/doctor/schedule", h.doctorAuth(h.GetSchedule))

	h.log.Debug("Appointment routes registered")
}
