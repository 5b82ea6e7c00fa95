package api

import (
	"net/http"

	"github.com/Stainless-Nata/awesomation/internal/driver"
)

// handleListDrivers returns every registered driver.
func (s *Server) handleListDrivers(w http.ResponseWriter, _ *http.Request) {
	var drivers []driver.Info
	if s.drivers != nil {
		drivers = s.drivers.List()
	}
	if drivers == nil {
		drivers = []driver.Info{}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"drivers": drivers,
		"count":   len(drivers),
	})
}
