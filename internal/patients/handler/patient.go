package handler

import (
	"net/http"

	"clinic/internal/patients/service"
	"clinic/pkg/config"
	httputil "clinic/pkg/http"
	"clinic/pkg/logger"
	"clinic/pkg/model"

	"github.com/julienschmidt/httprouter"
)

type PatientHandler struct {
	service   service.PatientService
	staffAuth func(httprouter.Handle) httprouter.Handle
	log       *logger.Logger
}

func NewPatientHandler(service service.PatientService, staffAuth func(httprouter.Handle) httprouter.Handle, log *logger.Logger) *PatientHandler {
	return &PatientHandler{
		service:   service,
		staffAuth: staffAuth,
		log:       log,
	}
}

func (h *PatientHandler) GetAll(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	page, limit, err := httputil.ExtractPage(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	query := r.URL.Query()
	filter := model.PatientFilter{
		Search: query.Get("search"),
		Status: query.Get("status"),
	}

	patients, total, err := h.service.List(r.Context(), filter, model.Page{Page: page, Limit: limit})
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	httputil.WritePaginated(w, patients, total, page, limit, config.TotalPages(total, limit))
}

func (h *PatientHandler) GetByID(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	patient, err := h.service.GetByID(r.Context(), ps.ByName("id"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteSuccess(w, patient)
}

func (h *PatientHandler) GetByEmail(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	patient, err := h.service.GetByEmail(r.Context(), ps.ByName("email"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteSuccess(w, patient)
}

func (h *PatientHandler) AddVisit(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	var visit model.Visit
	if err := httputil.DecodeJSON(r, &visit); err != nil {
		httputil.WriteError(w, err)
		return
	}

	patient, err := h.service.AddVisit(r.Context(), ps.ByName("id"), &visit)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteCreated(w, patient)
}

func (h *PatientHandler) RegisterRoutes(router *httprouter.Router) {
	router.GET("/api/v1/patients", h.staffAuth(h.GetAll))
	router.GET("/api/v1/patients/id/:id", h.staffAuth(h.GetByID))
	router.GET("/api/v1/patients/email/:email", h.staffAuth(h.GetByEmail))
	router.POST("/api/v1/patients/id/:id/visits", h.staffAuth(h.AddVisit))
}
