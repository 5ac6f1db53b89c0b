package httpserver

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"flockd/internal/service"
)

func channelID(r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "channelID"), 10, 64)
	return id, err == nil
}

func handleCreateChannel(chanSvc *service.ChannelService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		// is_public is a pointer so that a missing or non-boolean field is
		// rejected instead of defaulting to false.
		var req struct {
			Name     string `json:"name"`
			IsPublic *bool  `json:"is_public"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.IsPublic == nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON body"})
			return
		}

		id, err := chanSvc.Create(r.Context(), SessionToken(r), req.Name, *req.IsPublic)
		if err != nil {
			writeErr(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, map[string]int64{"channel_id": id})
	}
}

func handleListChannels(chanSvc *service.ChannelService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		channels, err := chanSvc.List(r.Context(), SessionToken(r))
		if err != nil {
			writeErr(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"channels": channels})
	}
}

func handleListAllChannels(chanSvc *service.ChannelService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		channels, err := chanSvc.ListAll(r.Context(), SessionToken(r))
		if err != nil {
			writeErr(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"channels": channels})
	}
}

func handleChannelDetails(chanSvc *service.ChannelService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := channelID(r)
		if !ok {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid channel id"})
			return
		}

		details, err := chanSvc.Details(r.Context(), SessionToken(r), id)
		if err != nil {
			writeErr(w, err)
			return
		}
		writeJSON(w, http.StatusOK, details)
	}
}

func handleJoin(chanSvc *service.ChannelService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := channelID(r)
		if !ok {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid channel id"})
			return
		}

		if err := chanSvc.Join(r.Context(), SessionToken(r), id); err != nil {
			writeErr(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{})
	}
}

func handleLeave(chanSvc *service.ChannelService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := channelID(r)
		if !ok {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid channel id"})
			return
		}

		if err := chanSvc.Leave(r.Context(), SessionToken(r), id); err != nil {
			writeErr(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{})
	}
}

// memberAction decodes the target user id shared by invite, addowner and
// removeowner, then dispatches to the given service call.
func memberAction(call func(r *http.Request, channelID, targetID int64) error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := channelID(r)
		if !ok {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid channel id"})
			return
		}

		var req struct {
			UID int64 `json:"u_id"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON body"})
			return
		}

		if err := call(r, id, req.UID); err != nil {
			writeErr(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{})
	}
}

func handleInvite(chanSvc *service.ChannelService) http.HandlerFunc {
	return memberAction(func(r *http.Request, channelID, targetID int64) error {
		return chanSvc.Invite(r.Context(), SessionToken(r), channelID, targetID)
	})
}

func handleAddOwner(chanSvc *service.ChannelService) http.HandlerFunc {
	return memberAction(func(r *http.Request, channelID, targetID int64) error {
		return chanSvc.AddOwner(r.Context(), SessionToken(r), channelID, targetID)
	})
}

func handleRemoveOwner(chanSvc *service.ChannelService) http.HandlerFunc {
	return memberAction(func(r *http.Request, channelID, targetID int64) error {
		return chanSvc.RemoveOwner(r.Context(), SessionToken(r), channelID, targetID)
	})
}
