package web

import (
	"errors"
	"net/http"
	"strings"
)

const maxDescriptionLen = 500

func (s *Server) handleAddItem(w http.ResponseWriter, r *http.Request) {
	upload, err := s.spoolUpload(w, r)
	if err != nil {
		s.writeMessage(w, http.StatusBadRequest, err.Error())
		return
	}
	defer upload.remove()

	description := r.FormValue("description")
	if len(strings.TrimSpace(description)) > maxDescriptionLen {
		s.writeMessage(w, http.StatusBadRequest, "description too long")
		return
	}

	item, err := s.service.AddItem(r.Context(), r.PathValue("spaceID"), r.PathValue("locationID"), upload.path, description)
	if err != nil {
		s.writeError(w, "add item", err)
		return
	}
	s.writeJSON(w, http.StatusCreated, item)
}

// handleUpdateItem replaces an item. The image part is optional; without it
// the item keeps its current photo.
func (s *Server) handleUpdateItem(w http.ResponseWriter, r *http.Request) {
	spaceID, locationID, itemID := r.PathValue("spaceID"), r.PathValue("locationID"), r.PathValue("itemID")

	upload, err := s.spoolUpload(w, r)
	if err != nil && !errors.Is(err, errNoImage) {
		s.writeMessage(w, http.StatusBadRequest, err.Error())
		return
	}
	defer upload.remove()

	description := r.FormValue("description")
	if len(strings.TrimSpace(description)) > maxDescriptionLen {
		s.writeMessage(w, http.StatusBadRequest, "description too long")
		return
	}

	var photoSource string
	if upload != nil {
		photoSource = upload.path
	} else {
		space, err := s.service.GetSpace(r.Context(), spaceID)
		if err != nil {
			s.writeError(w, "update item", err)
			return
		}
		if loc := space.Location(locationID); loc != nil {
			if item := loc.Item(itemID); item != nil {
				photoSource = item.PhotoPath
			}
		}
	}

	item, err := s.service.UpdateItem(r.Context(), spaceID, locationID, itemID, photoSource, description)
	if err != nil {
		s.writeError(w, "update item", err)
		return
	}
	s.writeJSON(w, http.StatusOK, item)
}

func (s *Server) handleDeleteItem(w http.ResponseWriter, r *http.Request) {
	err := s.service.DeleteItem(r.Context(), r.PathValue("spaceID"), r.PathValue("locationID"), r.PathValue("itemID"))
	if err != nil {
		s.writeError(w, "delete item", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type moveRequest struct {
	ToSpaceID    string `json:"toSpaceId"`
	ToLocationID string `json:"toLocationId"`
}

func (s *Server) handleMoveItem(w http.ResponseWriter, r *http.Request) {
	var req moveRequest
	if err := decodeJSON(w, r, &req); err != nil || req.ToSpaceID == "" || req.ToLocationID == "" {
		s.writeMessage(w, http.StatusBadRequest, "toSpaceId and toLocationId are required")
		return
	}

	err := s.service.MoveItem(r.Context(),
		r.PathValue("spaceID"), r.PathValue("locationID"), r.PathValue("itemID"),
		req.ToSpaceID, req.ToLocationID,
	)
	if err != nil {
		s.writeError(w, "move item", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
