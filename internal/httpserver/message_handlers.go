package httpserver

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"flockd/internal/service"
)

func messageID(r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "messageID"), 10, 64)
	return id, err == nil
}

func handleSendMessage(msgSvc *service.MessageService) http.HandlerFunc {
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

		msgID, err := msgSvc.Send(r.Context(), SessionToken(r), id, req.Message)
		if err != nil {
			writeErr(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, map[string]int64{"message_id": msgID})
	}
}

func handleSendLater(msgSvc *service.MessageService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := channelID(r)
		if !ok {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid channel id"})
			return
		}

		var req struct {
			Message  string `json:"message"`
			TimeSent int64  `json:"time_sent"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON body"})
			return
		}

		msgID, err := msgSvc.SendLater(r.Context(), SessionToken(r), id, req.Message, req.TimeSent)
		if err != nil {
			writeErr(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, map[string]int64{"message_id": msgID})
	}
}

func handleMessagePage(msgSvc *service.MessageService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := channelID(r)
		if !ok {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid channel id"})
			return
		}

		start, err := strconv.Atoi(r.URL.Query().Get("start"))
		if err != nil || start < 0 {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid start"})
			return
		}

		page, err := msgSvc.Page(r.Context(), SessionToken(r), id, start)
		if err != nil {
			writeErr(w, err)
			return
		}
		writeJSON(w, http.StatusOK, page)
	}
}

func handleEditMessage(msgSvc *service.MessageService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := messageID(r)
		if !ok {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid message id"})
			return
		}

		var req struct {
			Message string `json:"message"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON body"})
			return
		}

		if err := msgSvc.Edit(r.Context(), SessionToken(r), id, req.Message); err != nil {
			writeErr(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{})
	}
}

func handleRemoveMessage(msgSvc *service.MessageService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := messageID(r)
		if !ok {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid message id"})
			return
		}

		if err := msgSvc.Remove(r.Context(), SessionToken(r), id); err != nil {
			writeErr(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{})
	}
}

// reactAction decodes the reaction kind shared by react and unreact.
func reactAction(call func(r *http.Request, messageID, kind int64) error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := messageID(r)
		if !ok {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid message id"})
			return
		}

		var req struct {
			ReactID int64 `json:"react_id"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON body"})
			return
		}

		if err := call(r, id, req.ReactID); err != nil {
			writeErr(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{})
	}
}

func handleReact(msgSvc *service.MessageService) http.HandlerFunc {
	return reactAction(func(r *http.Request, messageID, kind int64) error {
		return msgSvc.React(r.Context(), SessionToken(r), messageID, kind)
	})
}

func handleUnreact(msgSvc *service.MessageService) http.HandlerFunc {
	return reactAction(func(r *http.Request, messageID, kind int64) error {
		return msgSvc.Unreact(r.Context(), SessionToken(r), messageID, kind)
	})
}

func handlePin(msgSvc *service.MessageService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := messageID(r)
		if !ok {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid message id"})
			return
		}

		if err := msgSvc.Pin(r.Context(), SessionToken(r), id); err != nil {
			writeErr(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{})
	}
}

func handleUnpin(msgSvc *service.MessageService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := messageID(r)
		if !ok {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid message id"})
			return
		}

		if err := msgSvc.Unpin(r.Context(), SessionToken(r), id); err != nil {
			writeErr(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{})
	}
}

func handleBroadcast(msgSvc *service.MessageService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Message string `json:"message"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON body"})
			return
		}

		ids, err := msgSvc.Broadcast(r.Context(), SessionToken(r), req.Message)
		if err != nil {
			writeErr(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, map[string]any{"message_ids": ids})
	}
}

func handleSearch(msgSvc *service.MessageService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		messages, err := msgSvc.Search(r.Context(), SessionToken(r), r.URL.Query().Get("query_str"))
		if err != nil {
			writeErr(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"messages": messages})
	}
}
