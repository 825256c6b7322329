package handler

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"costy-calendar/internal/booking"
	"costy-calendar/internal/calendar"
	"costy-calendar/internal/middleware"
	"costy-calendar/internal/view"
)

// handleList serves the filtered appointment list. A backend read
// failure is absorbed upstream: the repository logs and serves its
// last known list, so this always answers 200.
func (r *Router) handleList(w http.ResponseWriter, req *http.Request) {
	user := middleware.UserFrom(req.Context())

	mode, err := view.ParseMode(req.URL.Query().Get("view"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errBody(err))
		return
	}

	appts := view.Select(r.repo.ListAll(req.Context()), user.Email, mode)

	if d := req.URL.Query().Get("date"); d != "" {
		day, err := time.ParseInLocation("2006-01-02", d, time.Local)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "bad date"})
			return
		}
		appts = view.ForDate(appts, day)
	}

	writeJSON(w, http.StatusOK, appts)
}

func (r *Router) handleCreate(w http.ResponseWriter, req *http.Request) {
	user := middleware.UserFrom(req.Context())

	var in booking.SlotInput
	if err := json.NewDecoder(req.Body).Decode(&in); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
		return
	}

	a, err := r.repo.Create(req.Context(), in, user.Email)
	if err != nil {
		r.writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, a)
}

func (r *Router) handleEdit(w http.ResponseWriter, req *http.Request) {
	user := middleware.UserFrom(req.Context())
	id := chi.URLParam(req, "id")

	var in booking.SlotInput
	if err := json.NewDecoder(req.Body).Decode(&in); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
		return
	}

	a, err := r.repo.Edit(req.Context(), id, in, user.Email)
	if err != nil {
		r.writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, a)
}

func (r *Router) handleJoin(w http.ResponseWriter, req *http.Request) {
	user := middleware.UserFrom(req.Context())
	if err := r.repo.Join(req.Context(), chi.URLParam(req, "id"), user.Email); err != nil {
		r.writeErr(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (r *Router) handleLeave(w http.ResponseWriter, req *http.Request) {
	user := middleware.UserFrom(req.Context())
	if err := r.repo.Leave(req.Context(), chi.URLParam(req, "id"), user.Email); err != nil {
		r.writeErr(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (r *Router) handleDelete(w http.ResponseWriter, req *http.Request) {
	user := middleware.UserFrom(req.Context())
	if err := r.repo.Remove(req.Context(), chi.URLParam(req, "id"), user.Email); err != nil {
		r.writeErr(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleCalendar projects the caller's filtered view onto a month
// grid. year and month default to the current month; selected to
// today.
func (r *Router) handleCalendar(w http.ResponseWriter, req *http.Request) {
	user := middleware.UserFrom(req.Context())
	q := req.URL.Query()

	now := time.Now()
	year, month := now.Year(), now.Month()
	if v := q.Get("year"); v != "" {
		y, err := strconv.Atoi(v)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "bad year"})
			return
		}
		year = y
	}
	if v := q.Get("month"); v != "" {
		m, err := strconv.Atoi(v)
		if err != nil || m < 1 || m > 12 {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "bad month"})
			return
		}
		month = time.Month(m)
	}

	selected := now
	if v := q.Get("selected"); v != "" {
		d, err := time.ParseInLocation("2006-01-02", v, time.Local)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "bad selected date"})
			return
		}
		selected = d
	}

	mode, err := view.ParseMode(q.Get("view"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errBody(err))
		return
	}

	appts := view.Select(r.repo.ListAll(req.Context()), user.Email, mode)
	cells := calendar.BuildMonthGrid(year, month, appts, now, selected)

	writeJSON(w, http.StatusOK, map[string]any{
		"year":  year,
		"month": int(month),
		"cells": cells,
	})
}
