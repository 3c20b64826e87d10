package controller

import (
	"encoding/json"
	"net/http"

	"github.com/exportdesk/debt-ledger/internal/domain"
)

// kindStatus is the single place error kinds become HTTP statuses. Handlers
// never inspect message text.
var kindStatus = map[domain.Kind]int{
	domain.KindValidation:    http.StatusBadRequest,
	domain.KindNotFound:      http.StatusNotFound,
	domain.KindConflict:      http.StatusConflict,
	domain.KindLimitExceeded: http.StatusUnprocessableEntity,
	domain.KindInternal:      http.StatusInternalServerError,
}

func statusForError(err error) int {
	if status, ok := kindStatus[domain.KindOf(err)]; ok {
		return status
	}
	return http.StatusInternalServerError
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
