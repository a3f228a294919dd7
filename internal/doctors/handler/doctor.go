package handler

import (
	"net/http"

	"clinic/internal/doctors/service"
	"clinic/pkg/auth"
	"clinic/pkg/config"
	httputil "clinic/pkg/http"
	"clinic/pkg/logger"
	"clinic/pkg/model"

	"github.com/julienschmidt/httprouter"
)

type Guard func(httprouter.Handle) httprouter.Handle

type DoctorHandler struct {
	service    service.DoctorService
	doctorAuth Guard
	staffAuth  Guard
	log        *logger.Logger
}

func NewDoctorHandler(service service.DoctorService, doctorAuth, staffAuth Guard, log *logger.Logger) *DoctorHandler {
	return &DoctorHandler{
		service:    service,
		doctorAuth: doctorAuth,
		staffAuth:  staffAuth,
		log:        log,
	}
}

func (h *DoctorHandler) Create(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var req model.DoctorRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.WriteError(w, err)
		return
	}

	doctor, err := h.service.Create(r.Context(), &req)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteCreated(w, doctor)
}

// GetAll is the public directory, so only active doctors are listed.
func (h *DoctorHandler) GetAll(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	page, limit, err := httputil.ExtractPage(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	query := r.URL.Query()
	filter := model.DoctorFilter{
		Specialization: query.Get("specialization"),
		Search:         query.Get("search"),
		Status:         model.DoctorStatusActive,
	}

	doctors, total, err := h.service.List(r.Context(), filter, model.Page{Page: page, Limit: limit})
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	httputil.WritePaginated(w, doctors, total, page, limit, config.TotalPages(total, limit))
}

func (h *DoctorHandler) GetByID(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	doctor, err := h.service.GetByID(r.Context(), ps.ByName("id"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteSuccess(w, doctor)
}

func (h *DoctorHandler) GetSpecializations(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	specializations, err := h.service.Specializations(r.Context())
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteSuccess(w, specializations)
}

func (h *DoctorHandler) Update(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	var update model.DoctorUpdate
	if err := httputil.DecodeJSON(r, &update); err != nil {
		httputil.WriteError(w, err)
		return
	}

	doctor, err := h.service.Update(r.Context(), ps.ByName("id"), &update)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteSuccess(w, doctor)
}

func (h *DoctorHandler) Delete(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	if err := h.service.Deactivate(r.Context(), ps.ByName("id")); err != nil {
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteNoContent(w)
}

func (h *DoctorHandler) Login(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var req model.LoginRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.WriteError(w, err)
		return
	}

	resp, err := h.service.Login(r.Context(), &req)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteSuccess(w, resp)
}

// Logout is a client-side operation for stateless tokens. The endpoint
// exists so clients have a single place to call.
func (h *DoctorHandler) Logout(w http.ResponseWriter, _ *http.Request, _ httprouter.Params) {
	httputil.WriteSuccess(w, map[string]string{"message": "Logged out successfully"})
}

func (h *DoctorHandler) Profile(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	actor := auth.ActorFromContext(r.Context())
	doctor, err := h.service.GetByID(r.Context(), actor.ID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteSuccess(w, doctor)
}

func (h *DoctorHandler) RegisterRoutes(router *httprouter.Router) {
	router.GET("/api/v1/doctors", h.GetAll)
	router.GET("/api/v1/doctors/specializations", h.GetSpecializations)
	router.GET("/api/v1/doctors/id/:id", h.GetByID)

	router.POST("/api/v1/doctors", h.staffAuth(h.Create))
	router.PATCH("/api/v1/doctors/id/:id", h.staffAuth(h.Update))
	router.DELETE("/api/v1/doctors/id/:id", h.staffAuth(h.Delete))

	router.POST("/api/v1/auth/doctor/login", h.Login)
	router.POST("/api/v1/auth/doctor/logout", h.doctorAuth(h.Logout))
	router.GET("/api/v1/auth/doctor/profile", h.doctorAuth(h.Profile))
}
