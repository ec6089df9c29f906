package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/mohamedmalandi/nova/internal/catalog"
	"github.com/mohamedmalandi/nova/internal/log"
)

const productNotFound = "Product not found"

// listProducts handles GET /api/products?keyword=&activeOnly=true.
func (a *API) listProducts(w http.ResponseWriter, r *http.Request) error {
	q := r.URL.Query()
	products, err := a.products.List(r.Context(), catalog.ProductFilter{
		ActiveOnly: q.Get("activeOnly") == "true",
		Keyword:    q.Get("keyword"),
	})
	if err != nil {
		return err
	}
	writeJSON(w, http.StatusOK, products)
	return nil
}

func (a *API) getProduct(w http.ResponseWriter, r *http.Request) error {
	p, err := a.products.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		return notFoundAs(err, productNotFound)
	}
	writeJSON(w, http.StatusOK, p)
	return nil
}

func (a *API) createProduct(w http.ResponseWriter, r *http.Request) error {
	var in catalog.ProductInput
	if err := decodeJSON(r, &in); err != nil {
		return err
	}
	p, err := a.products.Create(r.Context(), in)
	if err != nil {
		return err
	}
	log.Info("product created", "id", p.ID, "name", p.Name, "admin_id", adminID(r))
	writeJSON(w, http.StatusCreated, p)
	return nil
}

// updateProduct applies a truthy-override patch; see catalog.ProductPatch.
func (a *API) updateProduct(w http.ResponseWriter, r *http.Request) error {
	var patch catalog.ProductPatch
	if err := decodeJSON(r, &patch); err != nil {
		return err
	}
	p, err := a.products.Update(r.Context(), chi.URLParam(r, "id"), patch)
	if err != nil {
		return notFoundAs(err, productNotFound)
	}
	log.Info("product updated", "id", p.ID, "admin_id", adminID(r))
	writeJSON(w, http.StatusOK, p)
	return nil
}

func (a *API) deleteProduct(w http.ResponseWriter, r *http.Request) error {
	id := chi.URLParam(r, "id")
	if err := a.products.Delete(r.Context(), id); err != nil {
		return notFoundAs(err, productNotFound)
	}
	log.Info("product removed", "id", id, "admin_id", adminID(r))
	writeJSON(w, http.StatusOK, map[string]string{"message": "Product removed"})
	return nil
}

func (a *API) toggleProduct(w http.ResponseWriter, r *http.Request) error {
	p, err := a.products.Toggle(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		return notFoundAs(err, productNotFound)
	}
	log.Info("product toggled", "id", p.ID, "active", p.IsActive, "admin_id", adminID(r))
	writeJSON(w, http.StatusOK, p)
	return nil
}
