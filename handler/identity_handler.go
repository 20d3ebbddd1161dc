package handler

import (
	"encoding/json"
	"go-dating-api/common"
	"net/http"
)

// Me returns the identity established by the auth middleware.
func Me(w http.ResponseWriter, r *http.Request) *common.AppError {
	userID, ok := r.Context().Value(UserIDKey).(string)
	if !ok {
		return common.NewAppError(http.StatusUnauthorized, "No authenticated identity in request context", nil)
	}
	email, _ := r.Context().Value(UserEmailKey).(string)
	role, _ := r.Context().Value(UserRoleKey).(string)

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{
		"id":    userID,
		"email": email,
		"role":  role,
	})
	return nil
}
