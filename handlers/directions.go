package handlers

import (
	"net/http"
	"strconv"

	"fieldly/api"
	"fieldly/models"

	"github.com/gin-gonic/gin"
)

// RouteHandler exposes route derivation to the map view.
type RouteHandler struct {
	Routes api.RouteProvider
}

func NewRouteHandler(routes api.RouteProvider) *RouteHandler {
	return &RouteHandler{Routes: routes}
}

// GetRoute fetches a path between the provider position and the job address.
func (h *RouteHandler) GetRoute(c *gin.Context) {
	originLat := c.Query("originLat")
	originLng := c.Query("originLng")
	destLat := c.Query("destLat")
	destLng := c.Query("destLng")

	// Validate query parameters.
	if originLat == "" || originLng == "" || destLat == "" || destLng == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing required query parameters: originLat, originLng, destLat, destLng"})
		return
	}

	origin, ok1 := parseLatLng(originLat, originLng)
	dest, ok2 := parseLatLng(destLat, destLng)
	if !ok1 || !ok2 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Coordinates must be decimal degrees"})
		return
	}

	path, err := h.Routes.Route(c.Request.Context(), origin, dest)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Please try again later"})
		return
	}
	if len(path) == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "No route found"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"route": path})
}

func parseLatLng(lat, lng string) (models.LatLng, bool) {
	latF, err1 := strconv.ParseFloat(lat, 64)
	lngF, err2 := strconv.ParseFloat(lng, 64)
	if err1 != nil || err2 != nil {
		return models.LatLng{}, false
	}
	return models.LatLng{Lat: latF, Lng: lngF}, true
}
