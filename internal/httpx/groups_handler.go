package httpx

import (
	"net/http"

	"github.com/ariefcatur/go-restaurant-api.git/internal/apperr"
	"github.com/ariefcatur/go-restaurant-api.git/internal/roles"
	"github.com/go-chi/chi/v5"
)

var groupLabels = map[roles.Role]string{
	roles.Manager:      "manager",
	roles.DeliveryCrew: "delivery crew",
}

func (a *API) registerGroups(r chi.Router) {
	r.Route("/groups/{group}/users", func(r chi.Router) {
		r.Get("/", a.listGroup)
		r.Post("/", a.assignGroup)
		r.Post("/assign", a.assignGroup)
		r.Delete("/{user_id}", a.removeGroup)
		r.Delete("/{user_id}/remove", a.removeGroup)
	})
}

func groupParam(r *http.Request) (roles.Role, error) {
	role, ok := roles.Parse(chi.URLParam(r, "group"))
	if !ok {
		return "", apperr.ErrNotFound
	}
	return role, nil
}

func (a *API) listGroup(w http.ResponseWriter, r *http.Request) {
	if _, ok := a.authorize(w, r, managerOnly); !ok {
		return
	}
	role, err := groupParam(r)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	users, err := a.Roles.List(r.Context(), role)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, users)
}

type assignReq struct {
	UserID *int64 `json:"user_id"`
}

func (a *API) assignGroup(w http.ResponseWriter, r *http.Request) {
	if _, ok := a.authorize(w, r, managerOnly); !ok {
		return
	}
	role, err := groupParam(r)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	var req assignReq
	if err := decodeJSON(r, &req); err != nil {
		a.fail(w, r, err)
		return
	}
	if req.UserID == nil {
		a.fail(w, r, apperr.Invalid("user_id", "this field is required"))
		return
	}
	if err := a.Roles.Assign(r.Context(), *req.UserID, role); err != nil {
		a.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, detailBody{Detail: "User assigned as " + groupLabels[role]})
}

func (a *API) removeGroup(w http.ResponseWriter, r *http.Request) {
	if _, ok := a.authorize(w, r, managerOnly); !ok {
		return
	}
	role, err := groupParam(r)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	userID, err := idParam(r, "user_id")
	if err != nil {
		a.fail(w, r, apperr.ErrUserNotFound)
		return
	}
	if err := a.Roles.Revoke(r.Context(), userID, role); err != nil {
		a.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, detailBody{Detail: "User removed from " + groupLabels[role] + " group"})
}
