package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/Stainless-Nata/awesomation/internal/command"
	"github.com/Stainless-Nata/awesomation/internal/device"
	"github.com/Stainless-Nata/awesomation/internal/driver"
	"github.com/Stainless-Nata/awesomation/internal/location"
)

// createDeviceRequest is the body of POST /devices.
type createDeviceRequest struct {
	Name string      `json:"name"`
	Kind device.Kind `json:"kind"`
}

// deviceView is a device together with what it can do.
type deviceView struct {
	*device.Device
	Capabilities []driver.Capability `json:"capabilities"`
	Commands     []string            `json:"commands"`
}

func (s *Server) viewOf(d *device.Device) *deviceView {
	return &deviceView{
		Device:       d,
		Capabilities: s.dispatcher.Capabilities(d),
		Commands:     s.dispatcher.CommandNames(d),
	}
}

// commandResponse is returned by every command endpoint.
type commandResponse struct {
	Result any         `json:"result,omitempty"`
	Device *deviceView `json:"device,omitempty"`
}

// handleListDevices returns the devices of the request's building.
func (s *Server) handleListDevices(w http.ResponseWriter, r *http.Request) {
	devices, err := s.devices.ListDevices(r.Context(), buildingFromContext(r.Context()))
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	if devices == nil {
		devices = []device.Device{}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"devices": devices,
		"count":   len(devices),
	})
}

// handleGetDevice returns one device of the request's building.
func (s *Server) handleGetDevice(w http.ResponseWriter, r *http.Request) {
	d, err := s.ownedDevice(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, s.viewOf(d))
}

// handleCreateDevice creates an empty device of the requested kind.
func (s *Server) handleCreateDevice(w http.ResponseWriter, r *http.Request) {
	var req createDeviceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}

	d, err := device.New(buildingFromContext(r.Context()), req.Kind, req.Name)
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	if err := s.unitOfWork(r, func(ctx context.Context) error {
		return s.devices.CreateDevice(ctx, d)
	}); err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, d)
}

// handleDeleteDevice removes a device and its room membership.
func (s *Server) handleDeleteDevice(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	err := s.unitOfWork(r, func(ctx context.Context) error {
		d, err := s.ownedDevice(ctx, id)
		if err != nil {
			return err
		}
		if d.RoomID != nil {
			err := s.rooms.RemoveDevice(ctx, *d.RoomID, d.ID)
			if err != nil && !errors.Is(err, location.ErrRoomNotFound) {
				return err
			}
		}
		return s.devices.DeleteDevice(ctx, id)
	})
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleDeviceCommand runs a command envelope against one device.
func (s *Server) handleDeviceCommand(w http.ResponseWriter, r *http.Request) {
	env, ok := s.readEnvelope(w, r)
	if !ok {
		return
	}

	id := chi.URLParam(r, "id")
	var resp commandResponse
	err := s.unitOfWork(r, func(ctx context.Context) error {
		if _, err := s.ownedDevice(ctx, id); err != nil {
			return err
		}
		result, err := s.dispatcher.Dispatch(ctx, id, env)
		if err != nil {
			return err
		}
		resp.Result = result
		d, err := s.devices.GetDevice(ctx, id)
		if err != nil {
			return err
		}
		resp.Device = s.viewOf(d)
		return nil
	})
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// handleStaticCommand runs a kind-level command for the request's building.
func (s *Server) handleStaticCommand(w http.ResponseWriter, r *http.Request) {
	kind := device.Kind(chi.URLParam(r, "kind"))
	if !device.ValidKind(kind) {
		s.writeDomainError(w, r, device.ErrInvalidKind)
		return
	}
	env, ok := s.readEnvelope(w, r)
	if !ok {
		return
	}

	var resp commandResponse
	err := s.unitOfWork(r, func(ctx context.Context) error {
		result, err := s.dispatcher.DispatchStatic(ctx, buildingFromContext(ctx), kind, env)
		resp.Result = result
		return err
	})
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// ownedDevice loads a device and hides devices of other buildings.
func (s *Server) ownedDevice(ctx context.Context, id string) (*device.Device, error) {
	d, err := s.devices.GetDevice(ctx, id)
	if err != nil {
		return nil, err
	}
	if d.Owner != buildingFromContext(ctx) {
		return nil, device.ErrDeviceNotFound
	}
	return d, nil
}

// readEnvelope decodes a command envelope body, writing the error response
// itself when the body is unusable.
func (s *Server) readEnvelope(w http.ResponseWriter, r *http.Request) (command.Envelope, bool) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		writeBadRequest(w, "failed to read request body")
		return command.Envelope{}, false
	}
	env, err := command.ParseEnvelope(body)
	if err != nil {
		s.writeDomainError(w, r, err)
		return command.Envelope{}, false
	}
	return env, true
}
