package api

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"product-listing-service/internal/listing"
	"product-listing-service/internal/logger"
	"product-listing-service/internal/store"
)

// ProductLister runs product listing requests.
type ProductLister interface {
	List(ctx context.Context, req listing.Request) (*listing.Result, error)
}

// HTTPHandler holds dependencies for HTTP handlers.
type HTTPHandler struct {
	lister        ProductLister
	categoryStore store.CategoryStorer
}

// NewHTTPHandler creates a new HTTPHandler with dependencies.
func NewHTTPHandler(lister ProductLister, cs store.CategoryStorer) *HTTPHandler {
	return &HTTPHandler{
		lister:        lister,
		categoryStore: cs,
	}
}

// --- Helpers ---

// ErrorResponse defines the structure for JSON error responses.
type ErrorResponse struct {
	Error string `json:"error"`
}

func respondWithError(w http.ResponseWriter, code int, message string) {
	respondWithJSON(w, code, ErrorResponse{Error: message})
}

func respondWithJSON(w http.ResponseWriter, code int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if payload != nil {
		if err := json.NewEncoder(w).Encode(payload); err != nil {
			slog.Error("Failed to encode JSON response", "error", err)
		}
	}
}

// RespondJSON writes payload as a JSON response for handlers registered outside this package.
func RespondJSON(w http.ResponseWriter, code int, payload interface{}) {
	respondWithJSON(w, code, payload)
}

func parseIDParam(r *http.Request, name string) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, name), 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

// --- Product listing ---

func (h *HTTPHandler) ListProducts(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContext(r.Context())

	req, err := ParseListingRequest(r.URL.Query())
	if err != nil {
		log.Info("Rejected listing request", "error", err)
		respondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	res, err := h.lister.List(r.Context(), req)
	if err != nil {
		if errors.Is(err, listing.ErrInvalidRequest) {
			log.Info("Rejected listing request", "error", err)
			respondWithError(w, http.StatusBadRequest, err.Error())
			return
		}
		log.Error("ListProducts failed", "error", err)
		respondWithError(w, http.StatusInternalServerError, "Failed to retrieve products")
		return
	}
	respondWithJSON(w, http.StatusOK, res)
}

// --- Category lookups ---

func (h *HTTPHandler) GetCategoryByID(w http.ResponseWriter, r *http.Request) {
	categoryID, ok := parseIDParam(r, "categoryId")
	if !ok {
		respondWithError(w, http.StatusBadRequest, "Invalid category ID format")
		return
	}

	category, err := h.categoryStore.GetCategoryByID(r.Context(), categoryID)
	if err != nil {
		if errors.Is(err, store.ErrCategoryNotFound) {
			respondWithError(w, http.StatusNotFound, store.ErrCategoryNotFound.Error())
			return
		}
		logger.FromContext(r.Context()).Error("GetCategoryByID failed", "category_id", categoryID, "error", err)
		respondWithError(w, http.StatusInternalServerError, "Failed to retrieve category")
		return
	}
	respondWithJSON(w, http.StatusOK, category)
}

// CategoryDescendantsResponse lists a category subtree, root included.
type CategoryDescendantsResponse struct {
	CategoryID int64   `json:"categoryId"`
	IDs        []int64 `json:"ids"`
}

func (h *HTTPHandler) GetCategoryDescendants(w http.ResponseWriter, r *http.Request) {
	categoryID, ok := parseIDParam(r, "categoryId")
	if !ok {
		respondWithError(w, http.StatusBadRequest, "Invalid category ID format")
		return
	}
	log := logger.FromContext(r.Context())

	ids, err := h.categoryStore.ListDescendantIDs(r.Context(), categoryID)
	if err != nil {
		log.Error("ListDescendantIDs failed", "category_id", categoryID, "error", err)
		respondWithError(w, http.StatusInternalServerError, "Failed to retrieve category descendants")
		return
	}
	if len(ids) == 0 {
		respondWithError(w, http.StatusNotFound, store.ErrCategoryNotFound.Error())
		return
	}
	respondWithJSON(w, http.StatusOK, CategoryDescendantsResponse{CategoryID: categoryID, IDs: ids})
}

// --- Route Registration ---

// RegisterRoutes sets up the HTTP routes for the service.
func (h *HTTPHandler) RegisterRoutes(r chi.Router) {
	r.Get("/api/v1/products", h.ListProducts)
	r.Route("/api/v1/categories/{categoryId}", func(r chi.Router) {
		r.Get("/", h.GetCategoryByID)
		r.Get("/descendants", h.GetCategoryDescendants)
	})
}
