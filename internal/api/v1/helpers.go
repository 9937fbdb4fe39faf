package v1

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"workplan/internal/domain"

	"github.com/go-chi/chi/v5"
)

const (
	headerUserID      = "X-User-ID"
	headerPermissions = "X-Permissions"

	PermissionManage = "work:manage"
)

func parseID(raw string) (int64, error) {
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid id")
	}
	return id, nil
}

// pathID reads a numeric URL parameter, writing a validation error when it
// is malformed.
func pathID(w http.ResponseWriter, r *http.Request, name, field string) (int64, bool) {
	id, err := parseID(chi.URLParam(r, name))
	if err != nil {
		writeError(w, http.StatusBadRequest, "VALIDATION_ERROR", "invalid "+strings.ReplaceAll(field, "_", " "), map[string]string{field: "invalid"})
		return 0, false
	}
	return id, true
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeError(w, http.StatusBadRequest, "VALIDATION_ERROR", "invalid payload", nil)
		return false
	}
	return true
}

// actorFromRequest reads the caller identity set by the upstream gateway.
func actorFromRequest(r *http.Request) (domain.Actor, error) {
	var actor domain.Actor
	if raw := strings.TrimSpace(r.Header.Get(headerUserID)); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return domain.Actor{}, fmt.Errorf("invalid %s", headerUserID)
		}
		actor.UserID = id
	}
	for _, permission := range strings.Split(r.Header.Get(headerPermissions), ",") {
		if strings.TrimSpace(permission) == PermissionManage {
			actor.CanManage = true
		}
	}
	return actor, nil
}

func requireActor(w http.ResponseWriter, r *http.Request) (domain.Actor, bool) {
	actor, err := actorFromRequest(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "VALIDATION_ERROR", err.Error(), map[string]string{"user_id": "invalid"})
		return domain.Actor{}, false
	}
	return actor, true
}
