package httpserver

import (
	"encoding/json"
	"net/http"

	"flockd/internal/service"
)

func handleStandupStart(standupSvc *service.StandupService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := channelID(r)
		if !ok {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid channel id"})
			return
		}

		var req struct {
			Length int64 `json:"length"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON body"})
			return
		}

		finish, err := standupSvc.Start(r.Context(), SessionToken(r), id, req.Length)
		if err != nil {
			writeErr(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]int64{"time_finish": finish})
	}
}

func handleStandupActive(standupSvc *service.StandupService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := channelID(r)
		if !ok {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid channel id"})
			return
		}

		active, finish, err := standupSvc.Active(r.Context(), SessionToken(r), id)
		if err != nil {
			writeErr(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"is_active":   active,
			"time_finish": finish,
		})
	}
}

func handleStandupSend(standupSvc *service.StandupService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := channelID(r)
		if !ok {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid channel id"})
			return
		}

		var req struct {
			Message string `json:"message"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON body"})
			return
		}

		if err := standupSvc.Send(r.Context(), SessionToken(r), id, req.Message); err != nil {
			writeErr(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{})
	}
}
