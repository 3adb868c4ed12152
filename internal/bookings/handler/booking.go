package handler

import (
	"encoding/json"
	"fmt"
	"net/http"

	"clubmanager/internal/bookings/service"
	apperrors "clubmanager/pkg/errors"
	httputil "clubmanager/pkg/http"
	"clubmanager/pkg/logger"
	"clubmanager/pkg/model"

	"github.com/julienschmidt/httprouter"
)

type BookingHandler struct {
	service service.BookingService
	log     *logger.Logger
}

func NewBookingHandler(service service.BookingService, log *logger.Logger) *BookingHandler {
	return &BookingHandler{
		service: service,
		log:     log,
	}
}

func (h *BookingHandler) Create(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var req model.CreateBookingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		if writeErr := httputil.WriteJSON(w, http.StatusBadRequest, httputil.ErrorResponse{
			Error: "Invalid request body",
		}); writeErr != nil {
			h.log.Error("failed to write JSON response", "handler", "Create", "operation", "WriteJSON", "error", writeErr)
		}
		return
	}

	booking, err := h.service.Book(r.Context(), &req)
	if err != nil {
		if writeErr := httputil.WriteError(w, err); writeErr != nil {
			h.log.Error("failed to write error response", "handler", "Create", "operation", "WriteError", "error", writeErr)
		}
		return
	}

	message := fmt.Sprintf("Member %s booked for %s class successfully.", booking.MemberName, booking.ClassName)
	if err := httputil.WriteCreated(w, message, booking); err != nil {
		h.log.Error("failed to write created response", "handler", "Create", "operation", "WriteCreated", "error", err)
	}
}

func (h *BookingHandler) GetByID(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	id := ps.ByName("id")

	booking, err := h.service.GetByID(r.Context(), id)
	if err != nil {
		if writeErr := httputil.WriteError(w, err); writeErr != nil {
			h.log.Error("failed to write error response", "handler", "GetByID", "operation", "WriteError", "error", writeErr)
		}
		return
	}

	if err := httputil.WriteSuccess(w, booking); err != nil {
		h.log.Error("failed to write success response", "handler", "GetByID", "operation", "WriteSuccess", "error", err)
	}
}

func (h *BookingHandler) Search(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	query := r.URL.Query()

	search := model.BookingSearch{
		MemberName: query.Get("member_name"),
	}

	startStr := query.Get("start_date")
	endStr := query.Get("end_date")
	// A partial range counts as no range filter at all.
	if startStr != "" && endStr != "" {
		start, err := model.ParseDate(startStr)
		if err != nil {
			if writeErr := httputil.WriteError(w, apperrors.InvalidInput("start_date must be a date in YYYY-MM-DD format")); writeErr != nil {
				h.log.Error("failed to write error response", "handler", "Search", "operation", "WriteError", "error", writeErr)
			}
			return
		}
		end, err := model.ParseDate(endStr)
		if err != nil {
			if writeErr := httputil.WriteError(w, apperrors.InvalidInput("end_date must be a date in YYYY-MM-DD format")); writeErr != nil {
				h.log.Error("failed to write error response", "handler", "Search", "operation", "WriteError", "error", writeErr)
			}
			return
		}
		search.StartDate = &start
		search.EndDate = &end
	}

	bookings, err := h.service.Search(r.Context(), search)
	if err != nil {
		if writeErr := httputil.WriteError(w, err); writeErr != nil {
			h.log.Error("failed to write error response", "handler", "Search", "operation", "WriteError", "error", writeErr)
		}
		return
	}

	if err := httputil.WriteSuccess(w, bookings); err != nil {
		h.log.Error("failed to write success response", "handler", "Search", "operation", "WriteSuccess", "error", err)
	}
}

func (h *BookingHandler) RegisterRoutes(router *httprouter.Router) {
	router.POST("/api/v1/bookings", h.Create)
	router.GET("/api/v1/bookings/id/:id", h.GetByID)
	router.GET("/api/v1/bookings/search", h.Search)
}
