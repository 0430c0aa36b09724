package httpapi

import (
	"net/http"

	"github.com/dmitrijs2005/mediashelf/internal/server/models"
	"github.com/dmitrijs2005/mediashelf/internal/server/services"
	"github.com/go-chi/chi/v5"
)

// Request bodies may carry a userId field from older clients; it is
// decoded nowhere and the token decides who the caller is.

type mediaIDRequest struct {
	MediaID string `json:"mediaId"`
}

type updateRequest struct {
	MediaID string `json:"mediaId"`
	services.MediaPatch
}

type searchRequest struct {
	MediaType  string `json:"mediaType"`
	SearchTerm string `json:"searchTerm"`
}

type mediaResponse struct {
	Message string            `json:"message"`
	Media   *models.MediaItem `json:"media"`
}

type messageResponse struct {
	Message string `json:"message"`
}

func (s *HTTPServer) caller(w http.ResponseWriter, r *http.Request) (string, bool) {
	userID, ok := UserIDFromContext(r.Context())
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "unauthenticated")
	}
	return userID, ok
}

func (s *HTTPServer) addMedia(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.caller(w, r)
	if !ok {
		return
	}
	var req services.MediaInput
	if !decodeJSON(w, r, &req) {
		return
	}

	item, err := s.media.Add(r.Context(), userID, req)
	if err != nil {
		s.respondWithServiceError(w, r, err)
		return
	}

	respondWithJSON(w, http.StatusCreated, mediaResponse{Message: "Media added successfully", Media: item})
}

func (s *HTTPServer) getMedia(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.caller(w, r)
	if !ok {
		return
	}

	item, err := s.media.Get(r.Context(), chi.URLParam(r, "mediaId"), userID)
	if err != nil {
		s.respondWithServiceError(w, r, err)
		return
	}

	respondWithJSON(w, http.StatusOK, dataResponse{Success: true, Data: item})
}

func (s *HTTPServer) deleteMedia(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.caller(w, r)
	if !ok {
		return
	}
	var req mediaIDRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	if err := s.media.Delete(r.Context(), req.MediaID, userID); err != nil {
		s.respondWithServiceError(w, r, err)
		return
	}

	respondWithJSON(w, http.StatusOK, messageResponse{Message: "Media deleted successfully"})
}

func (s *HTTPServer) updateMedia(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.caller(w, r)
	if !ok {
		return
	}
	var req updateRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	item, err := s.media.Update(r.Context(), req.MediaID, userID, req.MediaPatch)
	if err != nil {
		s.respondWithServiceError(w, r, err)
		return
	}

	respondWithJSON(w, http.StatusOK, mediaResponse{Message: "Media updated successfully", Media: item})
}

func (s *HTTPServer) searchMedia(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.caller(w, r)
	if !ok {
		return
	}
	var req searchRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	items, err := s.media.Search(r.Context(), userID, req.MediaType, req.SearchTerm)
	if err != nil {
		s.respondWithServiceError(w, r, err)
		return
	}
	if items == nil {
		items = []*models.MediaItem{}
	}

	respondWithJSON(w, http.StatusOK, dataResponse{Success: true, Data: items})
}
