package api

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/Stainless-Nata/awesomation/internal/location"
)

// createRoomRequest is the body of POST /rooms.
type createRoomRequest struct {
	Name       string  `json:"name"`
	HueGroupID *string `json:"hue_group_id,omitempty"`
}

// handleListRooms returns the rooms of the request's building.
func (s *Server) handleListRooms(w http.ResponseWriter, r *http.Request) {
	rooms, err := s.rooms.ListRooms(r.Context(), buildingFromContext(r.Context()))
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	if rooms == nil {
		rooms = []location.Room{}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"rooms": rooms,
		"count": len(rooms),
	})
}

// handleGetRoom returns one room of the request's building.
func (s *Server) handleGetRoom(w http.ResponseWriter, r *http.Request) {
	room, err := s.ownedRoom(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, room)
}

// handleCreateRoom creates an empty room.
func (s *Server) handleCreateRoom(w http.ResponseWriter, r *http.Request) {
	var req createRoomRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}

	room := &location.Room{
		Owner:      buildingFromContext(r.Context()),
		Name:       req.Name,
		HueGroupID: req.HueGroupID,
	}
	if err := s.unitOfWork(r, func(ctx context.Context) error {
		return s.rooms.CreateRoom(ctx, room)
	}); err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, room)
}

// updateRoomRequest is the body of PATCH /rooms/{id}. Absent fields are kept.
type updateRoomRequest struct {
	Name       *string `json:"name,omitempty"`
	HueGroupID *string `json:"hue_group_id,omitempty"`
}

// handleUpdateRoom renames a room or changes its Hue group.
func (s *Server) handleUpdateRoom(w http.ResponseWriter, r *http.Request) {
	var req updateRoomRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}

	id := chi.URLParam(r, "id")
	var room *location.Room
	err := s.unitOfWork(r, func(ctx context.Context) error {
		var err error
		if room, err = s.ownedRoom(ctx, id); err != nil {
			return err
		}
		if req.Name != nil {
			room.Name = *req.Name
		}
		if req.HueGroupID != nil {
			room.HueGroupID = req.HueGroupID
			if *req.HueGroupID == "" {
				room.HueGroupID = nil
			}
		}
		return s.rooms.UpdateRoom(ctx, room)
	})
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, room)
}

// handleDeleteRoom removes a room after taking its devices out of it.
func (s *Server) handleDeleteRoom(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	err := s.unitOfWork(r, func(ctx context.Context) error {
		if _, err := s.ownedRoom(ctx, id); err != nil {
			return err
		}
		members, err := s.devices.GetDevicesByRoom(ctx, id)
		if err != nil {
			return err
		}
		for i := range members {
			d := &members[i]
			d.RoomID = nil
			if err := s.devices.UpdateDevice(ctx, d); err != nil {
				return err
			}
		}
		return s.rooms.DeleteRoom(ctx, id)
	})
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleRoomCommand runs a room command such as set_lights.
func (s *Server) handleRoomCommand(w http.ResponseWriter, r *http.Request) {
	env, ok := s.readEnvelope(w, r)
	if !ok {
		return
	}

	id := chi.URLParam(r, "id")
	var resp commandResponse
	err := s.unitOfWork(r, func(ctx context.Context) error {
		if _, err := s.ownedRoom(ctx, id); err != nil {
			return err
		}
		result, err := s.dispatcher.DispatchRoom(ctx, id, env)
		resp.Result = result
		return err
	})
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// ownedRoom loads a room and hides rooms of other buildings.
func (s *Server) ownedRoom(ctx context.Context, id string) (*location.Room, error) {
	room, err := s.rooms.GetRoom(ctx, id)
	if err != nil {
		return nil, err
	}
	if room.Owner != buildingFromContext(ctx) {
		return nil, location.ErrRoomNotFound
	}
	return room, nil
}
