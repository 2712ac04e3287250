package app

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/specialistvlad/regiongate/internal/fault"
)

// healthHandler answers liveness probes.
func (a *App) healthHandler(w http.ResponseWriter, r *http.Request) {
	a.logger.Debug("Health check endpoint hit.", "remote_addr", r.RemoteAddr, "path", r.URL.Path)
	w.WriteHeader(http.StatusOK)
	fmt.Fprintln(w, "OK")
}

func (a *App) regionsHandler(w http.ResponseWriter, r *http.Request) {
	a.writeJSON(w, http.StatusOK, a.RegionStatuses())
}

func (a *App) interfacesHandler(w http.ResponseWriter, r *http.Request) {
	a.writeJSON(w, http.StatusOK, a.InterfaceStatuses())
}

func (a *App) programHandler(w http.ResponseWriter, r *http.Request) {
	var req ProgramRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		a.writeError(w, http.StatusBadRequest, fmt.Errorf("decode request: %w", err))
		return
	}
	req.Region = r.PathValue("name")

	reg, err := a.Program(r.Context(), req)
	if err != nil {
		a.writeError(w, statusFor(err), err)
		return
	}
	a.writeJSON(w, http.StatusOK, a.regionStatus(reg.Name()))
}

func (a *App) releaseHandler(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")
	if err := a.Release(r.Context(), name); err != nil {
		a.writeError(w, statusFor(err), err)
		return
	}
	a.writeJSON(w, http.StatusOK, a.regionStatus(name))
}

// Handler returns the status server routes.
func (a *App) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", a.healthHandler)
	mux.HandleFunc("GET /regions", a.regionsHandler)
	mux.HandleFunc("GET /interfaces", a.interfacesHandler)
	mux.HandleFunc("POST /regions/{name}/program", a.programHandler)
	mux.HandleFunc("POST /regions/{name}/release", a.releaseHandler)
	return mux
}

func (a *App) regionStatus(name string) *RegionStatus {
	for _, s := range a.RegionStatuses() {
		if s.Name == name {
			return &s
		}
	}
	return nil
}

// statusFor maps error kinds to HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, fault.ErrBusy):
		return http.StatusConflict
	case errors.Is(err, fault.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, fault.ErrDeviceFailure), errors.Is(err, fault.ErrSetupFailure):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func (a *App) writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		a.logger.Error("Failed to write response.", "error", err)
	}
}

func (a *App) writeError(w http.ResponseWriter, code int, err error) {
	a.logger.Debug("Request failed.", "status", code, "error", err)
	a.writeJSON(w, code, map[string]string{"error": err.Error()})
}
