package http

import (
	"context"
	"fmt"
	"net/http"

	"tourbooking-backend/internal/domain"
)

func (h *Handler) CreateTour(w http.ResponseWriter, r *http.Request) {
	userID, _ := UserIDFromContext(r.Context())

	var req tourRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	tour := req.toDomain()
	tour.GuideID = userID
	if err := h.tours.CreateTour(r.Context(), tour); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, mapTour(tour))
}

func (h *Handler) GetTour(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	tour, err := h.tours.GetTour(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, mapTour(tour))
}

func (h *Handler) UpdateTour(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	if _, err := h.ownedTour(r.Context(), id); err != nil {
		writeError(w, r, err)
		return
	}

	var req tourRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	tour := req.toDomain()
	tour.ID = id
	if err := h.tours.UpdateTour(r.Context(), tour); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, mapTour(tour))
}

func (h *Handler) CancelTour(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	if _, err := h.ownedTour(r.Context(), id); err != nil {
		writeError(w, r, err)
		return
	}
	tour, err := h.tours.CancelTour(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, mapTour(tour))
}

func (h *Handler) ListWeather(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	if _, err := h.tours.GetTour(r.Context(), id); err != nil {
		writeError(w, r, err)
		return
	}
	snapshots, err := h.snapshots.ListByTour(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if snapshots == nil {
		snapshots = []domain.WeatherSnapshot{}
	}
	writeJSON(w, http.StatusOK, snapshots)
}

func (h *Handler) ListAddOns(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	addOns, err := h.addOns.ListAddOns(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if addOns == nil {
		addOns = []domain.TourAddOn{}
	}
	writeJSON(w, http.StatusOK, addOns)
}

func (h *Handler) CreateAddOn(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	if _, err := h.ownedTour(r.Context(), id); err != nil {
		writeError(w, r, err)
		return
	}

	var req addOnRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	addOn := req.toDomain(id)
	if err := h.addOns.CreateAddOn(r.Context(), addOn); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, addOn)
}

func (h *Handler) UpdateAddOn(w http.ResponseWriter, r *http.Request) {
	tourID, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	addOnID, err := pathID(r, "addOnID")
	if err != nil {
		writeError(w, r, err)
		return
	}
	if _, err := h.ownedTour(r.Context(), tourID); err != nil {
		writeError(w, r, err)
		return
	}
	if err := h.addOnOfTour(r.Context(), tourID, addOnID); err != nil {
		writeError(w, r, err)
		return
	}

	var req addOnRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	addOn := req.toDomain(tourID)
	addOn.ID = addOnID
	if err := h.addOns.UpdateAddOn(r.Context(), addOn); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, addOn)
}

// ownedTour loads the tour and checks the caller is its guide.
func (h *Handler) ownedTour(ctx context.Context, tourID int64) (*domain.Tour, error) {
	tour, err := h.tours.GetTour(ctx, tourID)
	if err != nil {
		return nil, err
	}
	userID, _ := UserIDFromContext(ctx)
	if tour.GuideID != userID {
		return nil, fmt.Errorf("%w: tour %d belongs to another guide", domain.ErrForbidden, tourID)
	}
	return tour, nil
}

func (h *Handler) addOnOfTour(ctx context.Context, tourID, addOnID int64) error {
	addOns, err := h.addOns.ListAddOns(ctx, tourID)
	if err != nil {
		return err
	}
	for _, a := range addOns {
		if a.ID == addOnID {
			return nil
		}
	}
	return fmt.Errorf("%w: add-on %d on tour %d", domain.ErrNotFound, addOnID, tourID)
}
