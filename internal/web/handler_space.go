package web

import (
	"net/http"
	"strings"

	"github.com/vbonduro/shelfmap/internal/domain"
)

const maxTitleLen = 200

func (s *Server) handleListSpaces(w http.ResponseWriter, r *http.Request) {
	spaces, err := s.service.ListSpaces(r.Context())
	if err != nil {
		s.writeError(w, "list spaces", err)
		return
	}
	s.writeJSON(w, http.StatusOK, spaces)
}

func (s *Server) handleCreateSpace(w http.ResponseWriter, r *http.Request) {
	upload, err := s.spoolUpload(w, r)
	if err != nil {
		s.writeMessage(w, http.StatusBadRequest, err.Error())
		return
	}
	defer upload.remove()

	title := strings.TrimSpace(r.FormValue("title"))
	if len(title) > maxTitleLen {
		s.writeMessage(w, http.StatusBadRequest, "title too long")
		return
	}

	space, err := s.service.CreateSpace(r.Context(), title, upload.path)
	if err != nil {
		s.writeError(w, "create space", err)
		return
	}
	s.writeJSON(w, http.StatusCreated, space)
}

func (s *Server) handleGetSpace(w http.ResponseWriter, r *http.Request) {
	space, err := s.service.GetSpace(r.Context(), r.PathValue("spaceID"))
	if err != nil {
		s.writeError(w, "get space", err)
		return
	}
	s.writeJSON(w, http.StatusOK, space)
}

type renameRequest struct {
	Title string `json:"title"`
}

func (s *Server) handleRenameSpace(w http.ResponseWriter, r *http.Request) {
	var req renameRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.writeMessage(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if len(strings.TrimSpace(req.Title)) > maxTitleLen {
		s.writeMessage(w, http.StatusBadRequest, "title too long")
		return
	}

	spaceID := r.PathValue("spaceID")
	if err := s.service.RenameSpace(r.Context(), spaceID, req.Title); err != nil {
		s.writeError(w, "rename space", err)
		return
	}

	space, err := s.service.GetSpace(r.Context(), spaceID)
	if err != nil {
		s.writeError(w, "get space", err)
		return
	}
	s.writeJSON(w, http.StatusOK, space)
}

func (s *Server) handleDeleteSpace(w http.ResponseWriter, r *http.Request) {
	if err := s.service.DeleteSpace(r.Context(), r.PathValue("spaceID")); err != nil {
		s.writeError(w, "delete space", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// sectionJSON is the wire form of domain.Section. Empty locations carry an
// explicit empty row instead of an item.
type sectionJSON struct {
	LocationID string    `json:"locationId"`
	Title      string    `json:"title"`
	ItemCount  int       `json:"itemCount"`
	Rows       []rowJSON `json:"rows"`
}

type rowJSON struct {
	Kind string       `json:"kind"`
	Item *domain.Item `json:"item,omitempty"`
}

func (s *Server) handleSpaceSections(w http.ResponseWriter, r *http.Request) {
	sections, err := s.service.SpaceSections(r.Context(), r.PathValue("spaceID"))
	if err != nil {
		s.writeError(w, "list sections", err)
		return
	}
	s.writeJSON(w, http.StatusOK, toSectionsJSON(sections))
}

func (s *Server) handleSpaceMarkers(w http.ResponseWriter, r *http.Request) {
	markers, err := s.service.SpaceMarkers(r.Context(), r.PathValue("spaceID"))
	if err != nil {
		s.writeError(w, "list markers", err)
		return
	}
	s.writeJSON(w, http.StatusOK, markers)
}

type locationRequest struct {
	X *float64 `json:"x"`
	Y *float64 `json:"y"`
}

func (s *Server) handleAddLocation(w http.ResponseWriter, r *http.Request) {
	var req locationRequest
	if err := decodeJSON(w, r, &req); err != nil || req.X == nil || req.Y == nil {
		s.writeMessage(w, http.StatusBadRequest, "x and y are required")
		return
	}

	loc, err := s.service.AddLocation(r.Context(), r.PathValue("spaceID"), *req.X, *req.Y)
	if err != nil {
		s.writeError(w, "add location", err)
		return
	}
	s.writeJSON(w, http.StatusCreated, loc)
}

func (s *Server) handleDeleteLocation(w http.ResponseWriter, r *http.Request) {
	if err := s.service.DeleteLocation(r.Context(), r.PathValue("spaceID"), r.PathValue("locationID")); err != nil {
		s.writeError(w, "delete location", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func toSectionsJSON(sections []domain.Section) []sectionJSON {
	out := make([]sectionJSON, 0, len(sections))
	for _, sec := range sections {
		sj := sectionJSON{
			LocationID: sec.LocationID,
			Title:      sec.Title,
			ItemCount:  sec.ItemCount,
			Rows:       make([]rowJSON, 0, len(sec.Rows)),
		}
		for _, row := range sec.Rows {
			switch row := row.(type) {
			case domain.ItemRow:
				sj.Rows = append(sj.Rows, rowJSON{Kind: "item", Item: row.Item})
			case domain.EmptyRow:
				sj.Rows = append(sj.Rows, rowJSON{Kind: "empty"})
			}
		}
		out = append(out, sj)
	}
	return out
}
