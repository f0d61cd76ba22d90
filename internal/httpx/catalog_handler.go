package httpx

import (
	"net/http"

	"github.com/ariefcatur/go-restaurant-api.git/internal/access"
	"github.com/ariefcatur/go-restaurant-api.git/internal/menu"
	"github.com/ariefcatur/go-restaurant-api.git/internal/roles"
	"github.com/go-chi/chi/v5"
)

var (
	staffOnly   = access.HasAnyRole(roles.Manager, roles.DeliveryCrew)
	managerOnly = access.HasRole(roles.Manager)
)

func (a *API) registerCatalog(r chi.Router) {
	r.Route("/categories", func(r chi.Router) {
		r.Get("/", a.listCategories)
		r.Post("/", a.createCategory)
		r.Get("/{id}", a.getCategory)
		r.Put("/{id}", a.updateCategory)
		r.Patch("/{id}", a.updateCategory)
		r.Delete("/{id}", a.deleteCategory)
	})
	r.Route("/menu-items", func(r chi.Router) {
		r.Get("/", a.listMenuItems)
		r.Post("/", a.createMenuItem)
		r.Post("/create", a.createMenuItem)
		r.Get("/{id}", a.getMenuItem)
		r.Put("/{id}", a.updateMenuItem)
		r.Patch("/{id}", a.updateMenuItem)
		r.Delete("/{id}", a.deleteMenuItem)
		r.Put("/{id}/update", a.updateMenuItem)
		r.Patch("/{id}/update", a.updateMenuItem)
		r.Delete("/{id}/delete", a.deleteMenuItem)
	})
}

func (a *API) listCategories(w http.ResponseWriter, r *http.Request) {
	if _, ok := a.authorize(w, r, staffOnly); !ok {
		return
	}
	cs, err := a.Menu.ListCategories(r.Context())
	if err != nil {
		a.fail(w, r, err)
		return
	}
	if cs == nil {
		cs = []menu.Category{}
	}
	writeJSON(w, http.StatusOK, cs)
}

func (a *API) getCategory(w http.ResponseWriter, r *http.Request) {
	if _, ok := a.authorize(w, r, staffOnly); !ok {
		return
	}
	id, err := idParam(r, "id")
	if err != nil {
		a.fail(w, r, err)
		return
	}
	c, err := a.Menu.GetCategory(r.Context(), id)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

func (a *API) createCategory(w http.ResponseWriter, r *http.Request) {
	if _, ok := a.authorize(w, r, managerOnly); !ok {
		return
	}
	var in menu.CategoryInput
	if err := decodeJSON(r, &in); err != nil {
		a.fail(w, r, err)
		return
	}
	c, err := a.Menu.CreateCategory(r.Context(), in)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, c)
}

func (a *API) updateCategory(w http.ResponseWriter, r *http.Request) {
	if _, ok := a.authorize(w, r, managerOnly); !ok {
		return
	}
	id, err := idParam(r, "id")
	if err != nil {
		a.fail(w, r, err)
		return
	}
	var in menu.CategoryInput
	if err := decodeJSON(r, &in); err != nil {
		a.fail(w, r, err)
		return
	}
	c, err := a.Menu.UpdateCategory(r.Context(), id, in)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

func (a *API) deleteCategory(w http.ResponseWriter, r *http.Request) {
	if _, ok := a.authorize(w, r, managerOnly); !ok {
		return
	}
	id, err := idParam(r, "id")
	if err != nil {
		a.fail(w, r, err)
		return
	}
	if err := a.Menu.DeleteCategory(r.Context(), id); err != nil {
		a.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (a *API) listMenuItems(w http.ResponseWriter, r *http.Request) {
	if _, ok := a.authorize(w, r, staffOnly); !ok {
		return
	}
	items, err := a.Menu.ListItems(r.Context())
	if err != nil {
		a.fail(w, r, err)
		return
	}
	if items == nil {
		items = []menu.MenuItem{}
	}
	writeJSON(w, http.StatusOK, items)
}

func (a *API) getMenuItem(w http.ResponseWriter, r *http.Request) {
	if _, ok := a.authorize(w, r, staffOnly); !ok {
		return
	}
	id, err := idParam(r, "id")
	if err != nil {
		a.fail(w, r, err)
		return
	}
	it, err := a.Menu.GetItem(r.Context(), id)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, it)
}

func (a *API) createMenuItem(w http.ResponseWriter, r *http.Request) {
	if _, ok := a.authorize(w, r, managerOnly); !ok {
		return
	}
	var in menu.ItemInput
	if err := decodeJSON(r, &in); err != nil {
		a.fail(w, r, err)
		return
	}
	it, err := a.Menu.CreateItem(r.Context(), in)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, it)
}

func (a *API) updateMenuItem(w http.ResponseWriter, r *http.Request) {
	if _, ok := a.authorize(w, r, managerOnly); !ok {
		return
	}
	id, err := idParam(r, "id")
	if err != nil {
		a.fail(w, r, err)
		return
	}
	var in menu.ItemInput
	if err := decodeJSON(r, &in); err != nil {
		a.fail(w, r, err)
		return
	}
	it, err := a.Menu.UpdateItem(r.Context(), id, in)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, it)
}

func (a *API) deleteMenuItem(w http.ResponseWriter, r *http.Request) {
	if _, ok := a.authorize(w, r, managerOnly); !ok {
		return
	}
	id, err := idParam(r, "id")
	if err != nil {
		a.fail(w, r, err)
		return
	}
	if err := a.Menu.DeleteItem(r.Context(), id); err != nil {
		a.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
