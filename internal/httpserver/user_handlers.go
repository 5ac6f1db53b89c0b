package httpserver

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"flockd/internal/service"
	"flockd/internal/store/memory"
)

func handleProfile(userSvc *service.UserService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		uid, err := strconv.ParseInt(chi.URLParam(r, "userID"), 10, 64)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid user id"})
			return
		}

		user, err := userSvc.Profile(r.Context(), SessionToken(r), uid)
		if err != nil {
			writeErr(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"user": user})
	}
}

func handleListUsers(userSvc *service.UserService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		users, err := userSvc.All(r.Context(), SessionToken(r))
		if err != nil {
			writeErr(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"users": users})
	}
}

func handleSetName(userSvc *service.UserService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			NameFirst string `json:"name_first"`
			NameLast  string `json:"name_last"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON body"})
			return
		}

		if err := userSvc.SetName(r.Context(), SessionToken(r), req.NameFirst, req.NameLast); err != nil {
			writeErr(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{})
	}
}

func handleSetEmail(userSvc *service.UserService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Email string `json:"email"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON body"})
			return
		}

		if err := userSvc.SetEmail(r.Context(), SessionToken(r), req.Email); err != nil {
			writeErr(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{})
	}
}

func handleSetHandle(userSvc *service.UserService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			HandleStr string `json:"handle_str"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON body"})
			return
		}

		if err := userSvc.SetHandle(r.Context(), SessionToken(r), req.HandleStr); err != nil {
			writeErr(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{})
	}
}

func handleUploadPhoto(userSvc *service.UserService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			ImgURL string `json:"img_url"`
			XStart int    `json:"x_start"`
			YStart int    `json:"y_start"`
			XEnd   int    `json:"x_end"`
			YEnd   int    `json:"y_end"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON body"})
			return
		}

		if err := userSvc.UploadPhoto(r.Context(), SessionToken(r), req.ImgURL, req.XStart, req.YStart, req.XEnd, req.YEnd); err != nil {
			writeErr(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{})
	}
}

func handleChangePermission(userSvc *service.UserService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			UID          int64 `json:"u_id"`
			PermissionID int   `json:"permission_id"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON body"})
			return
		}

		if err := userSvc.ChangePermission(r.Context(), SessionToken(r), req.UID, req.PermissionID); err != nil {
			writeErr(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{})
	}
}

// handleClear wipes all server state. It exists for test isolation and
// takes no token, matching the other endpoints' clients' expectations.
func handleClear(st *memory.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		st.Reset()
		writeJSON(w, http.StatusOK, map[string]any{})
	}
}
