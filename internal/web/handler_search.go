package web

import (
	"net/http"
)

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	results, err := s.service.Search(r.Context(), r.URL.Query().Get("q"))
	if err != nil {
		s.writeError(w, "search", err)
		return
	}
	s.writeJSON(w, http.StatusOK, results)
}

type describeResponse struct {
	Description string `json:"description"`
}

func (s *Server) handleDescribe(w http.ResponseWriter, r *http.Request) {
	upload, err := s.spoolUpload(w, r)
	if err != nil {
		s.writeMessage(w, http.StatusBadRequest, err.Error())
		return
	}
	defer upload.remove()

	desc, err := s.service.SuggestDescription(r.Context(), upload.path)
	if err != nil {
		s.writeError(w, "describe photo", err)
		return
	}
	s.writeJSON(w, http.StatusOK, describeResponse{Description: desc})
}

type idResponse struct {
	ID string `json:"id"`
}

func (s *Server) handleGenerateID(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, idResponse{ID: s.service.GenerateID()})
}
