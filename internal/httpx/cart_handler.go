package httpx

import (
	"net/http"

	"github.com/ariefcatur/go-restaurant-api.git/internal/access"
	"github.com/ariefcatur/go-restaurant-api.git/internal/apperr"
	"github.com/ariefcatur/go-restaurant-api.git/internal/cart"
	"github.com/go-chi/chi/v5"
)

func (a *API) registerCart(r chi.Router) {
	r.Route("/cart/menu-items", func(r chi.Router) {
		r.Get("/", a.listCart)
		r.Post("/", a.addToCart)
		r.Post("/add", a.addToCart)
		r.Delete("/", a.clearCart)
		r.Delete("/clear", a.clearCart)
	})
}

type addReq struct {
	MenuItemID *int64 `json:"menuitem_id"`
	MenuItem   *int64 `json:"menuitem"`
	Quantity   *int   `json:"quantity"`
}

func (a *API) listCart(w http.ResponseWriter, r *http.Request) {
	c, ok := a.authorize(w, r, access.AnyAuthenticated())
	if !ok {
		return
	}
	lines, err := a.Cart.List(r.Context(), c.ID)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	w.Header().Set("X-Cart-Total", cart.Total(lines).String())
	writeJSON(w, http.StatusOK, lines)
}

func (a *API) addToCart(w http.ResponseWriter, r *http.Request) {
	c, ok := a.authorize(w, r, access.AnyAuthenticated())
	if !ok {
		return
	}
	var req addReq
	if err := decodeJSON(r, &req); err != nil {
		a.fail(w, r, err)
		return
	}
	var itemID int64
	switch {
	case req.MenuItemID != nil:
		itemID = *req.MenuItemID
	case req.MenuItem != nil:
		itemID = *req.MenuItem
	}
	if req.Quantity == nil {
		a.fail(w, r, apperr.Invalid("quantity", "this field is required"))
		return
	}
	qty := *req.Quantity
	line, err := a.Cart.Add(r.Context(), c.ID, itemID, qty)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, line)
}

func (a *API) clearCart(w http.ResponseWriter, r *http.Request) {
	c, ok := a.authorize(w, r, access.AnyAuthenticated())
	if !ok {
		return
	}
	if err := a.Cart.Clear(r.Context(), c.ID); err != nil {
		a.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
