package httpapi

import (
	"net/http"

	"github.com/dmitrijs2005/mediashelf/internal/server/services"
)

type signupData struct {
	UserID   string `json:"userId"`
	Username string `json:"username"`
}

type signupResponse struct {
	Success bool       `json:"success"`
	Message string     `json:"message"`
	Data    signupData `json:"data"`
}

type loginResponse struct {
	Token string `json:"token"`
}

type dataResponse struct {
	Success bool `json:"success"`
	Data    any  `json:"data"`
}

func (s *HTTPServer) health(w http.ResponseWriter, r *http.Request) {
	respondWithJSON(w, http.StatusOK, map[string]string{"status": "OK"})
}

func (s *HTTPServer) signup(w http.ResponseWriter, r *http.Request) {
	var req services.SignupInput
	if !decodeJSON(w, r, &req) {
		return
	}

	user, err := s.users.Signup(r.Context(), req)
	if err != nil {
		s.respondWithServiceError(w, r, err)
		return
	}

	respondWithJSON(w, http.StatusCreated, signupResponse{
		Success: true,
		Message: "User registered successfully",
		Data:    signupData{UserID: user.ID, Username: user.UserName},
	})
}

func (s *HTTPServer) login(w http.ResponseWriter, r *http.Request) {
	var req services.LoginInput
	if !decodeJSON(w, r, &req) {
		return
	}

	token, err := s.users.Login(r.Context(), req)
	if err != nil {
		s.respondWithServiceError(w, r, err)
		return
	}

	respondWithJSON(w, http.StatusOK, loginResponse{Token: token})
}

func (s *HTTPServer) me(w http.ResponseWriter, r *http.Request) {
	userID, ok := UserIDFromContext(r.Context())
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "unauthenticated")
		return
	}

	user, err := s.users.Profile(r.Context(), userID)
	if err != nil {
		s.respondWithServiceError(w, r, err)
		return
	}

	respondWithJSON(w, http.StatusOK, dataResponse{Success: true, Data: user})
}
