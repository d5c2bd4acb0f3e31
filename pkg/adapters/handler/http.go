package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/snaplink/snaplink/pkg/core/domain"
	"github.com/snaplink/snaplink/pkg/ports"
)

// LinkHandler serves the shorten/redirect/stats endpoints.
type LinkHandler struct {
	service ports.LinkService
	baseURL string
}

func NewLinkHandler(service ports.LinkService, baseURL string) *LinkHandler {
	return &LinkHandler{service: service, baseURL: baseURL}
}

type shortenRequest struct {
	URL string `json:"url"`
}

type shortenResponse struct {
	Code     string `json:"code"`
	ShortURL string `json:"short_url"`
}

// Shorten handles POST /api/shorten. Validation problems come back with a
// precise message; generation and store failures with a generic one.
func (h *LinkHandler) Shorten(w http.ResponseWriter, r *http.Request) {
	var req shortenRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	link, err := h.service.Shorten(r.Context(), req.URL, UserID(r.Context()))
	if err != nil {
		if errors.Is(err, domain.ErrInvalidURL) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		writeError(w, http.StatusInternalServerError, "could not shorten the url, please try again")
		return
	}

	writeJSON(w, http.StatusCreated, shortenResponse{
		Code:     link.Code,
		ShortURL: h.baseURL + "/" + link.Code,
	})
}

// Redirect handles GET /{code}. 404 only for a confirmed absence; a store
// fault is a 500 so clients don't mistake a transient blip for a dead link.
func (h *LinkHandler) Redirect(w http.ResponseWriter, r *http.Request) {
	code := r.PathValue("code")
	if code == "" {
		writeError(w, http.StatusBadRequest, "short code is required")
		return
	}

	longURL, err := h.service.Resolve(r.Context(), code)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			writeError(w, http.StatusNotFound, "short link not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "could not resolve the link, please try again")
		return
	}

	http.Redirect(w, r, longURL, http.StatusFound)
}

// Stats handles GET /api/stats/{code}.
func (h *LinkHandler) Stats(w http.ResponseWriter, r *http.Request) {
	code := r.PathValue("code")

	link, err := h.service.Stats(r.Context(), code)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			writeError(w, http.StatusNotFound, "short link not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "could not load stats, please try again")
		return
	}

	writeJSON(w, http.StatusOK, link)
}

// Links handles GET /api/links: the authenticated requester's links,
// newest first.
func (h *LinkHandler) Links(w http.ResponseWriter, r *http.Request) {
	links, err := h.service.ListByOwner(r.Context(), UserID(r.Context()))
	if err != nil {
		writeError(w, http.StatusInternalServerError, "could not load links, please try again")
		return
	}
	if links == nil {
		links = []domain.ShortLink{}
	}
	writeJSON(w, http.StatusOK, links)
}
