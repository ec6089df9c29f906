package httpapi

import (
	"net/http"

	"github.com/mohamedmalandi/nova/internal/log"
)

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginResponse struct {
	ID       string `json:"_id"`
	Username string `json:"username"`
	Email    string `json:"email"`
	Token    string `json:"token"`
}

// login handles POST /api/auth/login.
//
// Unknown email and wrong password both answer 401 "Invalid email or password".
func (a *API) login(w http.ResponseWriter, r *http.Request) error {
	var req loginRequest
	if err := decodeJSON(r, &req); err != nil {
		return err
	}

	session, err := a.authn.Authenticate(r.Context(), req.Email, req.Password)
	if err != nil {
		return err
	}

	log.Info("admin logged in", "admin_id", session.Admin.ID)
	writeJSON(w, http.StatusOK, loginResponse{
		ID:       session.Admin.ID,
		Username: session.Admin.Username,
		Email:    session.Admin.Email,
		Token:    session.Token,
	})
	return nil
}
