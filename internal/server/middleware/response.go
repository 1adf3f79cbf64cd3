package middleware

import (
	"encoding/json"
	"net/http"

	"github.com/iudanet/gophblog/pkg/api"
)

// writeJSONError отправляет ответ с ошибкой в формате API
func writeJSONError(w http.ResponseWriter, resp api.ErrorResponse, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(resp)
}
