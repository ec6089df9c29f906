package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/mohamedmalandi/nova/internal/catalog"
	"github.com/mohamedmalandi/nova/internal/log"
)

const eventNotFound = "Event not found"

// listEvents handles GET /api/events?activeOnly=true. Events come back
// sorted by date.
func (a *API) listEvents(w http.ResponseWriter, r *http.Request) error {
	events, err := a.events.List(r.Context(), catalog.EventFilter{
		ActiveOnly: r.URL.Query().Get("activeOnly") == "true",
	})
	if err != nil {
		return err
	}
	writeJSON(w, http.StatusOK, events)
	return nil
}

func (a *API) getEvent(w http.ResponseWriter, r *http.Request) error {
	e, err := a.events.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		return notFoundAs(err, eventNotFound)
	}
	writeJSON(w, http.StatusOK, e)
	return nil
}

func (a *API) createEvent(w http.ResponseWriter, r *http.Request) error {
	var in catalog.EventInput
	if err := decodeJSON(r, &in); err != nil {
		return err
	}
	e, err := a.events.Create(r.Context(), in)
	if err != nil {
		return err
	}
	log.Info("event created", "id", e.ID, "title", e.Title, "admin_id", adminID(r))
	writeJSON(w, http.StatusCreated, e)
	return nil
}

func (a *API) updateEvent(w http.ResponseWriter, r *http.Request) error {
	var patch catalog.EventPatch
	if err := decodeJSON(r, &patch); err != nil {
		return err
	}
	e, err := a.events.Update(r.Context(), chi.URLParam(r, "id"), patch)
	if err != nil {
		return notFoundAs(err, eventNotFound)
	}
	log.Info("event updated", "id", e.ID, "admin_id", adminID(r))
	writeJSON(w, http.StatusOK, e)
	return nil
}

func (a *API) deleteEvent(w http.ResponseWriter, r *http.Request) error {
	id := chi.URLParam(r, "id")
	if err := a.events.Delete(r.Context(), id); err != nil {
		return notFoundAs(err, eventNotFound)
	}
	log.Info("event removed", "id", id, "admin_id", adminID(r))
	writeJSON(w, http.StatusOK, map[string]string{"message": "Event removed"})
	return nil
}
