package delivery

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/Ifelsik/livecall/internal/repository"
	"github.com/Ifelsik/livecall/internal/usecase"
	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"
)

type HistoryHandlers struct {
	log     *logrus.Entry
	usecase usecase.UseCase
}

func NewHistoryHandlers(usecase usecase.UseCase, log *logrus.Logger) *HistoryHandlers {
	return &HistoryHandlers{
		usecase: usecase,
		log:     logrus.NewEntry(log),
	}
}

func (h *HistoryHandlers) GetCallsHistory(w http.ResponseWriter, r *http.Request) {
	h.log.Debug("Getting calls history")

	history, err := h.usecase.GetCallsHistory(r.Context())
	if err != nil {
		h.log.Errorf("Failed to get calls history: %v", err)
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	h.writeJSON(w, history)
}

func (h *HistoryHandlers) GetCallByID(w http.ResponseWriter, r *http.Request) {
	h.log.Debug("Getting call by ID")

	strID, ok := mux.Vars(r)["id"]
	if !ok {
		w.WriteHeader(http.StatusBadRequest)
		return
	}

	id, err := strconv.ParseUint(strID, 10, 64)
	if err != nil {
		h.log.Errorf("Failed to parse call ID: %v", err)
		w.WriteHeader(http.StatusBadRequest)
		return
	}

	record, err := h.usecase.GetCallByID(r.Context(), id)
	if errors.Is(err, repository.ErrNotFound) {
		w.WriteHeader(http.StatusNotFound)
		return
	}
	if err != nil {
		h.log.Errorf("Failed to get call by ID: %v", err)
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	h.writeJSON(w, record)
}

func (h *HistoryHandlers) writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.log.Errorf("Failed to encode response: %v", err)
	}
}
