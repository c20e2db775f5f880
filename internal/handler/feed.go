package handler

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"souqly/internal/config"
	"souqly/internal/httputil"
	"souqly/internal/model"
	"souqly/internal/service"
	"souqly/internal/transport/http/middleware"
)

// FeedHandler serves the home feed: paged listings, search, categories,
// listing CRUD, likes, and listing photo uploads.
type FeedHandler struct {
	feedService  *service.FeedService
	mediaService *service.MediaService // nil when R2 is not configured
	config       *config.Config
}

func NewFeedHandler(feedService *service.FeedService, mediaService *service.MediaService, cfg *config.Config) *FeedHandler {
	return &FeedHandler{
		feedService:  feedService,
		mediaService: mediaService,
		config:       cfg,
	}
}

// List returns one page of the feed
// GET /products?offset=0&limit=10
func (h *FeedHandler) List(w http.ResponseWriter, r *http.Request) {
	offset := 0
	if offsetStr := r.URL.Query().Get("offset"); offsetStr != "" {
		parsed, err := strconv.Atoi(offsetStr)
		if err != nil || parsed < 0 {
			httputil.WriteBadRequest(w, "Invalid offset")
			return
		}
		offset = parsed
	}

	// First page and subsequent pages can use different sizes; the
	// client passes whichever it wants, the server only caps it.
	limit := h.config.FeedInitialPageSize
	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		parsed, err := strconv.Atoi(limitStr)
		if err != nil || parsed < 1 || parsed > 100 {
			httputil.WriteBadRequest(w, "Limit must be between 1 and 100")
			return
		}
		limit = parsed
	}

	page, err := h.feedService.ListPage(r.Context(), offset, limit)
	if err != nil {
		log.Printf("[ERROR] Feed list handler: %v", err)
		httputil.WriteInternalError(w, "Failed to fetch feed")
		return
	}

	httputil.WriteJSON(w, http.StatusOK, page)
}

// Search returns all matches plus category match counts
// GET /products/search?q=...
func (h *FeedHandler) Search(w http.ResponseWriter, r *http.Request) {
	query := strings.TrimSpace(r.URL.Query().Get("q"))
	if query == "" {
		httputil.WriteBadRequest(w, "Query parameter 'q' is required")
		return
	}

	result, err := h.feedService.Search(r.Context(), query)
	if err != nil {
		log.Printf("[ERROR] Feed search handler: %v", err)
		httputil.WriteInternalError(w, "Failed to search listings")
		return
	}

	httputil.WriteJSON(w, http.StatusOK, result)
}

// Categories returns the category reference data
// GET /categories
func (h *FeedHandler) Categories(w http.ResponseWriter, r *http.Request) {
	categories, err := h.feedService.Categories(r.Context())
	if err != nil {
		log.Printf("[ERROR] Categories handler: %v", err)
		httputil.WriteInternalError(w, "Failed to fetch categories")
		return
	}

	httputil.WriteJSON(w, http.StatusOK, model.CategoryListResponse{Categories: categories})
}

// Get returns a single listing
// GET /products/{id}
func (h *FeedHandler) Get(w http.ResponseWriter, r *http.Request) {
	productID, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httputil.WriteBadRequest(w, "Invalid product ID")
		return
	}

	product, err := h.feedService.Get(r.Context(), productID)
	if err != nil {
		if errors.Is(err, model.ErrProductNotFound) {
			httputil.WriteNotFound(w, "Product not found")
			return
		}
		log.Printf("[ERROR] Feed get handler: %v", err)
		httputil.WriteInternalError(w, "Failed to fetch listing")
		return
	}

	httputil.WriteJSON(w, http.StatusOK, product)
}

// Create publishes a new listing
// POST /products
func (h *FeedHandler) Create(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		httputil.WriteUnauthorized(w, "Authentication required")
		return
	}

	var req model.CreateProductRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteBadRequest(w, "Invalid request body")
		return
	}

	product, err := h.feedService.Create(r.Context(), ownerID, &req)
	if err != nil {
		switch {
		case errors.Is(err, model.ErrProductNameEmpty),
			errors.Is(err, model.ErrProductNameTooLong),
			errors.Is(err, model.ErrInvalidListingType),
			errors.Is(err, model.ErrNegativePrice):
			httputil.WriteBadRequest(w, err.Error())
		case errors.Is(err, model.ErrCategoryNotFound):
			httputil.WriteBadRequest(w, "Unknown category")
		default:
			log.Printf("[ERROR] Feed create handler: %v", err)
			httputil.WriteInternalError(w, "Failed to create listing")
		}
		return
	}

	httputil.WriteJSON(w, http.StatusCreated, product)
}

// Delete removes the viewer's own listing
// DELETE /products/{id}
func (h *FeedHandler) Delete(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		httputil.WriteUnauthorized(w, "Authentication required")
		return
	}

	productID, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httputil.WriteBadRequest(w, "Invalid product ID")
		return
	}

	if err := h.feedService.Delete(r.Context(), productID, ownerID); err != nil {
		switch {
		case errors.Is(err, model.ErrProductNotFound):
			httputil.WriteNotFound(w, "Product not found")
		case errors.Is(err, model.ErrNotProductOwner):
			httputil.WriteForbidden(w, "Not the owner of this listing")
		default:
			log.Printf("[ERROR] Feed delete handler: %v", err)
			httputil.WriteInternalError(w, "Failed to delete listing")
		}
		return
	}

	httputil.WriteJSON(w, http.StatusOK, map[string]string{
		"message": "Listing deleted",
	})
}

// Like marks a listing as liked by the viewer
// POST /products/{id}/like
func (h *FeedHandler) Like(w http.ResponseWriter, r *http.Request) {
	viewerID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		httputil.WriteUnauthorized(w, "Authentication required")
		return
	}

	productID, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httputil.WriteBadRequest(w, "Invalid product ID")
		return
	}

	if err := h.feedService.Like(r.Context(), viewerID, productID); err != nil {
		switch {
		case errors.Is(err, model.ErrProductNotFound):
			httputil.WriteNotFound(w, "Product not found")
		case errors.Is(err, model.ErrAlreadyLiked):
			httputil.WriteConflict(w, err.Error())
		default:
			log.Printf("[ERROR] Like handler: %v", err)
			httputil.WriteInternalError(w, "Failed to like listing")
		}
		return
	}

	httputil.WriteJSON(w, http.StatusOK, map[string]string{
		"message": "Listing liked",
	})
}

// Unlike removes the viewer's like
// DELETE /products/{id}/like
func (h *FeedHandler) Unlike(w http.ResponseWriter, r *http.Request) {
	viewerID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		httputil.WriteUnauthorized(w, "Authentication required")
		return
	}

	productID, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httputil.WriteBadRequest(w, "Invalid product ID")
		return
	}

	if err := h.feedService.Unlike(r.Context(), viewerID, productID); err != nil {
		switch {
		case errors.Is(err, model.ErrNotLiked):
			httputil.WriteNotFound(w, err.Error())
		default:
			log.Printf("[ERROR] Unlike handler: %v", err)
			httputil.WriteInternalError(w, "Failed to unlike listing")
		}
		return
	}

	httputil.WriteJSON(w, http.StatusOK, map[string]string{
		"message": "Like removed",
	})
}

// LikedIDs returns the ids of listings the viewer has liked
// GET /products/liked
func (h *FeedHandler) LikedIDs(w http.ResponseWriter, r *http.Request) {
	viewerID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		httputil.WriteUnauthorized(w, "Authentication required")
		return
	}

	ids, err := h.feedService.LikedIDs(r.Context(), viewerID)
	if err != nil {
		log.Printf("[ERROR] LikedIDs handler: %v", err)
		httputil.WriteInternalError(w, "Failed to fetch liked listings")
		return
	}

	httputil.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"product_ids": ids,
	})
}

// UploadPhoto uploads a listing photo and returns its public URL
// POST /products/photo (multipart, field "photo")
func (h *FeedHandler) UploadPhoto(w http.ResponseWriter, r *http.Request) {
	if _, ok := middleware.GetUserIDFromContext(r.Context()); !ok {
		httputil.WriteUnauthorized(w, "Authentication required")
		return
	}

	if h.mediaService == nil {
		httputil.WriteInternalError(w, "Media storage is not configured")
		return
	}

	maxFormSize := int64(model.MaxListingPhotoSizeBytes) + 1024*1024
	r.Body = http.MaxBytesReader(w, r.Body, maxFormSize)
	if err := r.ParseMultipartForm(maxFormSize); err != nil {
		if errors.Is(err, http.ErrNotMultipart) {
			httputil.WriteBadRequest(w, "Content-Type must be multipart/form-data")
			return
		}
		if strings.Contains(err.Error(), "request body too large") {
			httputil.WriteBadRequestWithCode(w, model.CodeFileTooLarge, "Photo exceeds 10MB limit")
			return
		}
		httputil.WriteBadRequest(w, "Invalid form data")
		return
	}

	file, header, err := r.FormFile("photo")
	if err != nil {
		httputil.WriteBadRequest(w, "Photo file is required")
		return
	}
	defer file.Close()

	upload, err := h.mediaService.UploadListingPhoto(r.Context(), file, header)
	if err != nil {
		switch {
		case errors.Is(err, model.ErrFileTooLarge):
			httputil.WriteBadRequestWithCode(w, model.CodeFileTooLarge, "Photo exceeds 10MB limit")
		case errors.Is(err, model.ErrInvalidImageType):
			httputil.WriteBadRequestWithCode(w, model.CodeInvalidImageType, "Unsupported image type. Allowed: jpeg, png, gif, webp")
		default:
			log.Printf("[ERROR] UploadPhoto handler: %v", err)
			httputil.WriteInternalError(w, "Failed to upload photo")
		}
		return
	}

	httputil.WriteJSON(w, http.StatusCreated, upload)
}
