package middleware

import (
	"encoding/json"
	"net/http"

	"github.com/soaringjerry/Talentflow/internal/utils"
)

// writeMessage writes the gateway's {"message": ...} error body, translated for the request.
func writeMessage(w http.ResponseWriter, r *http.Request, status int, key string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{
		"message": utils.T(LocaleFromContext(r.Context()), key),
	})
}
