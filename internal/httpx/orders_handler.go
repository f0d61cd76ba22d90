package httpx

import (
	"net/http"

	"github.com/ariefcatur/go-restaurant-api.git/internal/access"
	"github.com/ariefcatur/go-restaurant-api.git/internal/orders"
	"github.com/ariefcatur/go-restaurant-api.git/internal/roles"
	"github.com/go-chi/chi/v5"
)

func (a *API) registerOrders(r chi.Router) {
	r.Route("/orders", func(r chi.Router) {
		r.Get("/", a.listOrders)
		r.Post("/", a.createOrder)
		r.Post("/create", a.createOrder)
		r.Get("/delivery-crew", a.listAssigned)
		r.Get("/{id}", a.getOrder)
		r.Put("/{id}", a.updateOrder)
		r.Patch("/{id}", a.updateOrder)
		r.Delete("/{id}", a.deleteOrder)
		r.Put("/{id}/update", a.updateOrder)
		r.Patch("/{id}/update", a.updateOrder)
		r.Delete("/{id}/delete", a.deleteOrder)
		r.Put("/{id}/status", a.updateStatus)
		r.Patch("/{id}/status", a.updateStatus)
	})
}

func (a *API) listOrders(w http.ResponseWriter, r *http.Request) {
	c, ok := a.authorize(w, r, access.AnyAuthenticated())
	if !ok {
		return
	}
	list, err := a.Orders.ListOrders(r.Context(), c)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

func (a *API) createOrder(w http.ResponseWriter, r *http.Request) {
	c, ok := a.authorize(w, r, access.AnyAuthenticated())
	if !ok {
		return
	}
	o, err := a.Orders.CreateOrder(r.Context(), c)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, o)
}

func (a *API) listAssigned(w http.ResponseWriter, r *http.Request) {
	c, ok := a.authorize(w, r, access.HasRole(roles.DeliveryCrew))
	if !ok {
		return
	}
	list, err := a.Orders.ListAssigned(r.Context(), c)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

func (a *API) getOrder(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		a.fail(w, r, err)
		return
	}
	c, ok := a.authorize(w, r, access.OwnerOrRole(id, roles.Manager))
	if !ok {
		return
	}
	o, err := a.Orders.GetOrder(r.Context(), c, id)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, o)
}

func (a *API) updateOrder(w http.ResponseWriter, r *http.Request) {
	c, ok := a.authorize(w, r, managerOnly)
	if !ok {
		return
	}
	id, err := idParam(r, "id")
	if err != nil {
		a.fail(w, r, err)
		return
	}
	var p orders.Patch
	if err := decodeJSON(r, &p); err != nil {
		a.fail(w, r, err)
		return
	}
	o, err := a.Orders.UpdateOrder(r.Context(), c, id, p)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, o)
}

func (a *API) deleteOrder(w http.ResponseWriter, r *http.Request) {
	c, ok := a.authorize(w, r, managerOnly)
	if !ok {
		return
	}
	id, err := idParam(r, "id")
	if err != nil {
		a.fail(w, r, err)
		return
	}
	if err := a.Orders.DeleteOrder(r.Context(), c, id); err != nil {
		a.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// updateStatus only decodes "status" from the body; a delivery crew member
// cannot touch any other field.
func (a *API) updateStatus(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		a.fail(w, r, err)
		return
	}
	c, ok := a.authorize(w, r, access.Assignee(id))
	if !ok {
		return
	}
	var body orders.StatusBody
	if err := decodeJSON(r, &body); err != nil {
		a.fail(w, r, err)
		return
	}
	o, err := a.Orders.UpdateStatus(r.Context(), c, id, body.Status)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, o)
}
