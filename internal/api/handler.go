package api

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"crechespots/internal/models"
	"crechespots/internal/present"
	"crechespots/internal/proximity"
	"crechespots/internal/resolver"
	"crechespots/pkg/geo"
	"crechespots/pkg/location"
	"crechespots/pkg/response"
)

const msgLocationNotFound = "Location not found. Try again."

// Suggester provides type-ahead place suggestions.
type Suggester interface {
	Suggest(ctx context.Context, text string) ([]location.Place, error)
}

// Handler serves the proximity search sessions over HTTP.
type Handler struct {
	sessions  *proximity.Registry
	suggester Suggester
	nav       present.Navigator
}

// NewHandler creates a handler. A nil nav logs selections.
func NewHandler(sessions *proximity.Registry, suggester Suggester, nav present.Navigator) *Handler {
	if nav == nil {
		nav = present.NavigatorFunc(func(id int64) {
			log.Printf("Opening centre %d", id)
		})
	}
	return &Handler{sessions: sessions, suggester: suggester, nav: nav}
}

type positionRequest struct {
	Latitude  *float64 `json:"latitude"`
	Longitude *float64 `json:"longitude"`
}

// locator maps the reported position to a Locator. A request without a
// position stands for a device that refused location access.
func (r positionRequest) locator() (resolver.Locator, error) {
	if r.Latitude == nil || r.Longitude == nil {
		return resolver.StaticLocator{}, nil
	}
	at := geo.Coordinate{Latitude: *r.Latitude, Longitude: *r.Longitude}
	if !at.Valid() {
		return nil, fmt.Errorf("position %v is out of range", at)
	}
	return resolver.StaticLocator{Coord: &at}, nil
}

type queryRequest struct {
	Query string `json:"query"`
}

type sessionView struct {
	ID                string                `json:"id"`
	Phase             proximity.Phase       `json:"phase"`
	ResolvingLocation bool                  `json:"resolving_location"`
	FetchingCatalog   bool                  `json:"fetching_catalog"`
	Origin            *models.NamedLocation `json:"origin"`
	Fallback          bool                  `json:"fallback"`
	Query             string                `json:"query"`
	Notice            string                `json:"notice,omitempty"`
	Error             string                `json:"error,omitempty"`
	Centres           []present.Item        `json:"centres"`
}

func newSessionView(id string, snap proximity.Snapshot) sessionView {
	view := sessionView{
		ID:                id,
		Phase:             snap.Phase,
		ResolvingLocation: snap.ResolvingLocation,
		FetchingCatalog:   snap.FetchingCatalog,
		Origin:            snap.Origin,
		Fallback:          snap.Fallback,
		Query:             snap.Query,
		Notice:            snap.Notice,
		Centres:           present.Render(snap.Centres, nil).Items(),
	}
	if snap.CatalogErr != nil {
		view.Error = fmt.Sprintf("Error fetching creches: %v", snap.CatalogErr)
	}
	return view
}

type suggestionView struct {
	DisplayName string         `json:"display_name"`
	Coords      geo.Coordinate `json:"coords"`
}

// bindOptional decodes a JSON body when one was sent.
func bindOptional(c *gin.Context, out any) error {
	if c.Request.ContentLength == 0 {
		return nil
	}
	return c.ShouldBindJSON(out)
}

// session resolves the :id parameter, writing a 404 when it is unknown.
func (h *Handler) session(c *gin.Context) (string, *proximity.Session, bool) {
	id := c.Param("id")
	s, err := h.sessions.Get(id)
	if err != nil {
		response.NotFound(c, "session not found")
		return "", nil, false
	}
	return id, s, true
}

func (h *Handler) writeSession(c *gin.Context, id string, s *proximity.Session) {
	response.Success(c, newSessionView(id, s.Snapshot()))
}

// writeSessionError maps session errors to responses.
func writeSessionError(c *gin.Context, err error) {
	_ = c.Error(err)
	switch {
	case errors.Is(err, proximity.ErrClosed):
		response.Error(c, http.StatusGone, "session closed")
	case errors.Is(err, resolver.ErrBlankQuery):
		response.BadRequest(c, "Please enter a location.")
	case errors.Is(err, resolver.ErrLocationNotFound):
		response.NotFound(c, msgLocationNotFound)
	case errors.Is(err, proximity.ErrNotSaved):
		response.NotFound(c, err.Error())
	case errors.Is(err, resolver.ErrGeocodeLookupFailed):
		response.Error(c, http.StatusBadGateway, err.Error())
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		response.Error(c, http.StatusRequestTimeout, err.Error())
	default:
		response.InternalError(c, err.Error())
	}
}

func (h *Handler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":   "ok",
		"sessions": h.sessions.Len(),
	})
}

// CreateSession starts a proximity search.
// POST /v1/sessions?wait=true
func (h *Handler) CreateSession(c *gin.Context) {
	var req positionRequest
	if err := bindOptional(c, &req); err != nil {
		response.BadRequest(c, "invalid request body: "+err.Error())
		return
	}
	locator, err := req.locator()
	if err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	id, s := h.sessions.Create(locator)
	if c.Query("wait") == "true" {
		if err := s.WaitReady(c.Request.Context()); err != nil {
			writeSessionError(c, err)
			return
		}
	}
	response.Created(c, newSessionView(id, s.Snapshot()))
}

// GET /v1/sessions/:id
func (h *Handler) GetSession(c *gin.Context) {
	if id, s, ok := h.session(c); ok {
		h.writeSession(c, id, s)
	}
}

// DeleteSession closes the session.
// DELETE /v1/sessions/:id
func (h *Handler) DeleteSession(c *gin.Context) {
	if err := h.sessions.Remove(c.Param("id")); err != nil {
		response.NotFound(c, "session not found")
		return
	}
	c.Status(http.StatusNoContent)
}

// PUT /v1/sessions/:id/query
func (h *Handler) SetQuery(c *gin.Context) {
	id, s, ok := h.session(c)
	if !ok {
		return
	}
	var req queryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request body: "+err.Error())
		return
	}
	if err := s.SetQuery(req.Query); err != nil {
		writeSessionError(c, err)
		return
	}
	h.writeSession(c, id, s)
}

// SubmitLocation resolves a typed place and searches from it.
// POST /v1/sessions/:id/location
func (h *Handler) SubmitLocation(c *gin.Context) {
	id, s, ok := h.session(c)
	if !ok {
		return
	}
	var req queryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request body: "+err.Error())
		return
	}
	if _, err := s.SubmitLocation(c.Request.Context(), req.Query); err != nil {
		writeSessionError(c, err)
		return
	}
	h.writeSession(c, id, s)
}

// POST /v1/sessions/:id/relocate
func (h *Handler) Relocate(c *gin.Context) {
	id, s, ok := h.session(c)
	if !ok {
		return
	}
	var req positionRequest
	if err := bindOptional(c, &req); err != nil {
		response.BadRequest(c, "invalid request body: "+err.Error())
		return
	}
	locator, err := req.locator()
	if err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	if _, err := s.Relocate(c.Request.Context(), locator); err != nil {
		writeSessionError(c, err)
		return
	}
	h.writeSession(c, id, s)
}

// GET /v1/sessions/:id/locations
func (h *Handler) ListLocations(c *gin.Context) {
	if _, s, ok := h.session(c); ok {
		response.Success(c, s.SavedLocations(c.Request.Context()))
	}
}

// POST /v1/sessions/:id/locations/:name/select
func (h *Handler) SelectLocation(c *gin.Context) {
	id, s, ok := h.session(c)
	if !ok {
		return
	}
	if _, err := s.SelectSaved(c.Request.Context(), c.Param("name")); err != nil {
		writeSessionError(c, err)
		return
	}
	h.writeSession(c, id, s)
}

// DELETE /v1/sessions/:id/locations/:name
func (h *Handler) DeleteLocation(c *gin.Context) {
	_, s, ok := h.session(c)
	if !ok {
		return
	}
	remaining, err := s.DeleteSaved(c.Request.Context(), c.Param("name"))
	if err != nil {
		writeSessionError(c, err)
		return
	}
	response.Success(c, remaining)
}

// Refresh refetches the catalog. A failed fetch shows up in the session's
// error field.
// POST /v1/sessions/:id/refresh
func (h *Handler) Refresh(c *gin.Context) {
	id, s, ok := h.session(c)
	if !ok {
		return
	}
	if err := s.Refresh(c.Request.Context()); errors.Is(err, proximity.ErrClosed) {
		writeSessionError(c, err)
		return
	}
	h.writeSession(c, id, s)
}

// POST /v1/sessions/:id/notice/dismiss
func (h *Handler) DismissNotice(c *gin.Context) {
	id, s, ok := h.session(c)
	if !ok {
		return
	}
	if err := s.DismissNotice(); err != nil {
		writeSessionError(c, err)
		return
	}
	h.writeSession(c, id, s)
}

// SelectCentre opens a centre from the current list.
// GET /v1/sessions/:id/centres/:centreId
func (h *Handler) SelectCentre(c *gin.Context) {
	_, s, ok := h.session(c)
	if !ok {
		return
	}
	centreID, err := strconv.ParseInt(c.Param("centreId"), 10, 64)
	if err != nil {
		response.BadRequest(c, "Invalid centre ID")
		return
	}
	item, err := present.Render(s.Snapshot().Centres, h.nav).Select(centreID)
	if err != nil {
		response.NotFound(c, err.Error())
		return
	}
	response.Success(c, item)
}

// GET /v1/suggestions?q=
func (h *Handler) Suggestions(c *gin.Context) {
	places, err := h.suggester.Suggest(c.Request.Context(), c.Query("q"))
	if err != nil {
		writeSessionError(c, err)
		return
	}
	out := make([]suggestionView, 0, len(places))
	for _, p := range places {
		at, err := p.Coordinate()
		if err != nil {
			continue
		}
		out = append(out, suggestionView{DisplayName: p.DisplayName, Coords: at})
	}
	response.Success(c, out)
}
