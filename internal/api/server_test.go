package api

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Stainless-Nata/awesomation/internal/account"
	"github.com/Stainless-Nata/awesomation/internal/auth"
	"github.com/Stainless-Nata/awesomation/internal/command"
	"github.com/Stainless-Nata/awesomation/internal/device"
	"github.com/Stainless-Nata/awesomation/internal/driver"
	"github.com/Stainless-Nata/awesomation/internal/infrastructure/config"
	"github.com/Stainless-Nata/awesomation/internal/infrastructure/database"
	"github.com/Stainless-Nata/awesomation/internal/infrastructure/logging"
	"github.com/Stainless-Nata/awesomation/internal/infrastructure/mqtt"
	"github.com/Stainless-Nata/awesomation/internal/location"
	"github.com/Stainless-Nata/awesomation/internal/proxy"
	"github.com/Stainless-Nata/awesomation/internal/push"
	"github.com/Stainless-Nata/awesomation/internal/zwave"
	_ "github.com/Stainless-Nata/awesomation/migrations"
)

const testSecret = "test-secret-at-least-32-characters-long"

type recordingMesh struct {
	mu   sync.Mutex
	sent []zwave.MeshCommand
}

func (m *recordingMesh) Send(_ context.Context, _ string, cmd zwave.MeshCommand) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, cmd)
	return nil
}

func (m *recordingMesh) commands() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	names := make([]string, 0, len(m.sent))
	for _, c := range m.sent {
		names = append(names, c.Command)
	}
	return names
}

// pushRecorder captures every published batch.
type pushRecorder struct {
	mu      sync.Mutex
	batches map[string][][]json.RawMessage
}

func (p *pushRecorder) Publish(_ context.Context, channel string, events []json.RawMessage) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.batches[channel] = append(p.batches[channel], events)
	return nil
}

func (p *pushRecorder) events(channel string) []map[string]any {
	p.mu.Lock()
	defer p.mu.Unlock()
	var out []map[string]any
	for _, batch := range p.batches[channel] {
		for _, raw := range batch {
			var ev map[string]any
			if err := json.Unmarshal(raw, &ev); err == nil {
				out = append(out, ev)
			}
		}
	}
	return out
}

// tokenServer fakes an OAuth2 token endpoint.
func tokenServer(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/oauth2/token" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"access_token":"at","token_type":"Bearer","refresh_token":"rt","expires_in":3600}`)) //nolint:errcheck // test server
	}))
	t.Cleanup(srv.Close)
	return srv
}

type testServer struct {
	srv      *Server
	handler  http.Handler
	devices  *device.Registry
	rooms    *location.Registry
	persons  *auth.SQLitePersonRepository
	mesh     *recordingMesh
	recorder *pushRecorder
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	db, err := database.OpenMemory()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, db.Migrate(context.Background()))

	drivers := driver.NewRegistry()
	zwave.RegisterDrivers(drivers)

	devices := device.NewRegistry(device.NewSQLiteRepository(db.DB))
	rooms := location.NewRegistry(location.NewSQLiteRepository(db.DB))
	mesh := &recordingMesh{}
	dispatcher := command.NewDispatcher(devices, rooms, drivers, mesh)

	provider := tokenServer(t)
	types := account.NewTypes()
	types.Register(account.NewNest(config.AccountTypeConfig{
		Enabled:      true,
		ClientID:     "client",
		ClientSecret: "secret",
		AuthURL:      provider.URL + "/login",
		TokenURL:     provider.URL + "/oauth2/token",
		APIURL:       provider.URL,
	}, "https://hub.example/api/v1/account/redirect", devices))
	accounts := account.NewService(account.NewSQLiteRepository(db.DB), types, time.Second)

	logger := logging.Discard()
	authorizer := push.NewAuthorizer("app-key", "app-secret")
	hub := NewHub(config.WebSocketConfig{MaxMessageSize: 8192, PingInterval: 30, PongTimeout: 10}, authorizer, logger)
	recorder := &pushRecorder{batches: make(map[string][][]json.RawMessage)}
	fanout := push.NewFanout(push.Multi{hub, recorder}, 8000)
	gateway := proxy.NewGateway(devices, dispatcher, fanout, mqtt.NewTopics("awesomation"))
	persons := auth.NewPersonRepository(db.DB)

	srv, err := New(Deps{
		WS:         config.WebSocketConfig{MaxMessageSize: 8192, PingInterval: 30, PongTimeout: 10, TicketTTL: 60},
		Security:   config.SecurityConfig{JWT: config.JWTConfig{Secret: testSecret}},
		Logger:     logger,
		Devices:    devices,
		Rooms:      rooms,
		Drivers:    drivers,
		Dispatcher: dispatcher,
		Accounts:   accounts,
		Persons:    persons,
		Fanout:     fanout,
		Authorizer: authorizer,
		Gateway:    gateway,
		Hub:        hub,
		Version:    "test",
	})
	require.NoError(t, err)

	return &testServer{
		srv:      srv,
		handler:  srv.Handler(),
		devices:  devices,
		rooms:    rooms,
		persons:  persons,
		mesh:     mesh,
		recorder: recorder,
	}
}

func bearer(t *testing.T, subject string) string {
	t.Helper()
	token, err := auth.GenerateToken(subject, subject+"@example.com", testSecret, time.Hour)
	require.NoError(t, err)
	return "Bearer " + token
}

// do performs a request as subject; an empty subject sends no token.
func (ts *testServer) do(t *testing.T, method, path, subject, body string) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if subject != "" {
		req.Header.Set("Authorization", bearer(t, subject))
	}
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	ts.handler.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func (ts *testServer) createDevice(t *testing.T, subject string, kind device.Kind, name string) device.Device {
	t.Helper()
	rec := ts.do(t, http.MethodPost, "/api/v1/devices", subject, `{"kind":"`+string(kind)+`","name":"`+name+`"}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	return decode[device.Device](t, rec)
}

func (ts *testServer) createRoom(t *testing.T, subject, body string) location.Room {
	t.Helper()
	rec := ts.do(t, http.MethodPost, "/api/v1/rooms", subject, body)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	return decode[location.Room](t, rec)
}

func TestNew_RequiresDependencies(t *testing.T) {
	_, err := New(Deps{})
	assert.Error(t, err)

	_, err = New(Deps{Logger: logging.Discard()})
	assert.Error(t, err)
}

func TestHealth(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(t, http.MethodGet, "/api/v1/health", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	body := decode[map[string]any](t, rec)
	assert.Equal(t, "ok", body["status"])
	assert.Equal(t, "test", body["version"])
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))
}

func TestHealthCheck_NotStarted(t *testing.T) {
	ts := newTestServer(t)
	assert.Error(t, ts.srv.HealthCheck(context.Background()))
	assert.NoError(t, ts.srv.Close())
}

func TestAuth(t *testing.T) {
	ts := newTestServer(t)

	tests := []struct {
		name   string
		header string
		want   int
	}{
		{"missing token", "", http.StatusUnauthorized},
		{"not bearer", "Basic abc", http.StatusUnauthorized},
		{"bad signature", "Bearer not-a-jwt", http.StatusUnauthorized},
		{"valid", bearer(t, "alice"), http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/v1/user", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			ts.handler.ServeHTTP(rec, req)
			assert.Equal(t, tt.want, rec.Code)
		})
	}
}

func TestGetUser_CreatesPerson(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(t, http.MethodGet, "/api/v1/user", "alice", "")
	require.Equal(t, http.StatusOK, rec.Code)
	person := decode[auth.Person](t, rec)
	assert.Equal(t, "alice", person.ID)
	assert.Equal(t, []string{"alice"}, person.Buildings)

	stored, err := ts.persons.Get(context.Background(), "alice")
	require.NoError(t, err)
	assert.Equal(t, "alice@example.com", stored.Email)
}

func TestBuildingHeader(t *testing.T) {
	ts := newTestServer(t)
	ctx := context.Background()
	_, err := ts.persons.GetOrCreate(ctx, "alice", "")
	require.NoError(t, err)
	require.NoError(t, ts.persons.SetBuildings(ctx, "alice", []string{"home", "cabin"}))

	list := func(building string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/devices", nil)
		req.Header.Set("Authorization", bearer(t, "alice"))
		req.Header.Set(buildingHeader, building)
		rec := httptest.NewRecorder()
		ts.handler.ServeHTTP(rec, req)
		return rec
	}

	assert.Equal(t, http.StatusOK, list("cabin").Code)
	rec := list("office")
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, ErrCodeForbidden, decode[Error](t, rec).Code)
}

func TestDevices_CRUD(t *testing.T) {
	ts := newTestServer(t)

	created := ts.createDevice(t, "alice", device.KindSwitch, "Lamp")
	assert.Equal(t, "alice", created.Owner)
	require.NotNil(t, created.Switch)

	rec := ts.do(t, http.MethodGet, "/api/v1/devices", "alice", "")
	require.Equal(t, http.StatusOK, rec.Code)
	list := decode[struct {
		Devices []device.Device `json:"devices"`
		Count   int             `json:"count"`
	}](t, rec)
	assert.Equal(t, 1, list.Count)

	rec = ts.do(t, http.MethodGet, "/api/v1/devices/"+created.ID, "alice", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	view := decode[deviceView](t, rec)
	assert.Equal(t, created.ID, view.ID)
	assert.Equal(t, []driver.Capability{driver.CapSwitch}, view.Capabilities)
	assert.Equal(t, []string{command.NameSetRoom, command.NameTurnOff, command.NameTurnOn}, view.Commands)

	// Devices of other buildings are invisible.
	rec = ts.do(t, http.MethodGet, "/api/v1/devices/"+created.ID, "bob", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	rec = ts.do(t, http.MethodDelete, "/api/v1/devices/"+created.ID, "bob", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = ts.do(t, http.MethodDelete, "/api/v1/devices/"+created.ID, "alice", "")
	assert.Equal(t, http.StatusNoContent, rec.Code)

	_, err := ts.devices.GetDevice(context.Background(), created.ID)
	assert.ErrorIs(t, err, device.ErrDeviceNotFound)

	deletes := ts.recorder.events(push.ChannelName("alice"))
	require.NotEmpty(t, deletes)
	assert.Equal(t, device.EventDelete, deletes[len(deletes)-1]["event"])
}

func TestCreateDevice_Invalid(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(t, http.MethodPost, "/api/v1/devices", "alice", `{"kind":"toaster"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, ErrCodeValidation, decode[Error](t, rec).Code)

	rec = ts.do(t, http.MethodPost, "/api/v1/devices", "alice", `{`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestDeviceCommand_FlushesToBuildingChannel(t *testing.T) {
	ts := newTestServer(t)
	lamp := ts.createDevice(t, "alice", device.KindSwitch, "Lamp")

	rec := ts.do(t, http.MethodPost, "/api/v1/devices/"+lamp.ID+"/command", "alice", `{"command":"turn_on"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	resp := decode[commandResponse](t, rec)
	require.NotNil(t, resp.Device)
	assert.True(t, resp.Device.Switch.On)

	events := ts.recorder.events(push.ChannelName("alice"))
	require.Len(t, events, 2) // create, then update
	assert.Equal(t, device.EventUpdate, events[1]["event"])
	assert.Equal(t, lamp.ID, events[1]["id"])
	assert.Empty(t, ts.recorder.events(push.ChannelName("bob")))
}

func TestDeviceCommand_Errors(t *testing.T) {
	ts := newTestServer(t)
	lamp := ts.createDevice(t, "alice", device.KindSwitch, "Lamp")
	before := len(ts.recorder.events(push.ChannelName("alice")))

	tests := []struct {
		name    string
		subject string
		id      string
		body    string
		status  int
		code    string
	}{
		{"unknown command", "alice", lamp.ID, `{"command":"explode"}`, http.StatusBadRequest, ErrCodeUnknownCommand},
		{"internal command", "alice", lamp.ID, `{"command":"handle_event"}`, http.StatusBadRequest, ErrCodeUnknownCommand},
		{"missing room", "alice", lamp.ID, `{"command":"set_room","room_id":"nowhere"}`, http.StatusNotFound, ErrCodeNotFound},
		{"bad args", "alice", lamp.ID, `{"command":"set_room","room":1}`, http.StatusBadRequest, ErrCodeValidation},
		{"unknown device", "alice", "missing", `{"command":"turn_on"}`, http.StatusNotFound, ErrCodeNotFound},
		{"foreign device", "bob", lamp.ID, `{"command":"turn_on"}`, http.StatusNotFound, ErrCodeNotFound},
		{"not json", "alice", lamp.ID, `nope`, http.StatusBadRequest, ErrCodeValidation},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := ts.do(t, http.MethodPost, "/api/v1/devices/"+tt.id+"/command", tt.subject, tt.body)
			assert.Equal(t, tt.status, rec.Code, rec.Body.String())
			assert.Equal(t, tt.code, decode[Error](t, rec).Code)
		})
	}

	assert.Len(t, ts.recorder.events(push.ChannelName("alice")), before, "failed units of work publish nothing")
}

func TestStaticCommand(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(t, http.MethodPost, "/api/v1/devices/kinds/zwave/command", "alice", `{"command":"heal"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, []string{zwave.CommandHeal}, ts.mesh.commands())

	rec = ts.do(t, http.MethodPost, "/api/v1/devices/kinds/toaster/command", "alice", `{"command":"heal"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = ts.do(t, http.MethodPost, "/api/v1/devices/kinds/switch/command", "alice", `{"command":"heal"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, ErrCodeUnknownCommand, decode[Error](t, rec).Code)
}

func TestRooms(t *testing.T) {
	ts := newTestServer(t)

	room := ts.createRoom(t, "alice", `{"name":"Kitchen"}`)
	assert.Equal(t, "alice", room.Owner)
	assert.Empty(t, room.DeviceIDs)

	lamp := ts.createDevice(t, "alice", device.KindSwitch, "Lamp")
	rec := ts.do(t, http.MethodPost, "/api/v1/devices/"+lamp.ID+"/command", "alice",
		`{"command":"set_room","room_id":"`+room.ID+`"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = ts.do(t, http.MethodGet, "/api/v1/rooms/"+room.ID, "alice", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []string{lamp.ID}, decode[location.Room](t, rec).DeviceIDs)

	rec = ts.do(t, http.MethodPost, "/api/v1/rooms/"+room.ID+"/command", "alice", `{"command":"set_lights","state":true}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	stored, err := ts.devices.GetDevice(context.Background(), lamp.ID)
	require.NoError(t, err)
	assert.True(t, stored.Switch.On)

	rec = ts.do(t, http.MethodGet, "/api/v1/rooms", "alice", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.EqualValues(t, 1, decode[map[string]any](t, rec)["count"])

	// Rooms of other buildings are invisible.
	rec = ts.do(t, http.MethodGet, "/api/v1/rooms/"+room.ID, "bob", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	rec = ts.do(t, http.MethodPost, "/api/v1/rooms/"+room.ID+"/command", "bob", `{"command":"set_lights","state":true}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = ts.do(t, http.MethodPost, "/api/v1/rooms/"+room.ID+"/command", "alice", `{"command":"dance"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, ErrCodeUnknownCommand, decode[Error](t, rec).Code)

	rec = ts.do(t, http.MethodPost, "/api/v1/rooms", "alice", `{"name":"  "}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRooms_UpdateAndDelete(t *testing.T) {
	ts := newTestServer(t)
	room := ts.createRoom(t, "alice", `{"name":"Den"}`)

	rec := ts.do(t, http.MethodPatch, "/api/v1/rooms/"+room.ID, "alice", `{"name":"Study","hue_group_id":"3"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	updated := decode[location.Room](t, rec)
	assert.Equal(t, "Study", updated.Name)
	require.NotNil(t, updated.HueGroupID)
	assert.Equal(t, "3", *updated.HueGroupID)

	rec = ts.do(t, http.MethodPatch, "/api/v1/rooms/"+room.ID, "bob", `{"name":"Mine"}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	lamp := ts.createDevice(t, "alice", device.KindSwitch, "Lamp")
	rec = ts.do(t, http.MethodPost, "/api/v1/devices/"+lamp.ID+"/command", "alice",
		`{"command":"set_room","room_id":"`+room.ID+`"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = ts.do(t, http.MethodDelete, "/api/v1/rooms/"+room.ID, "alice", "")
	require.Equal(t, http.StatusNoContent, rec.Code, rec.Body.String())

	stored, err := ts.devices.GetDevice(context.Background(), lamp.ID)
	require.NoError(t, err)
	assert.Nil(t, stored.RoomID)

	rec = ts.do(t, http.MethodGet, "/api/v1/rooms/"+room.ID, "alice", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestDeleteDevice_LeavesRoom(t *testing.T) {
	ts := newTestServer(t)
	room := ts.createRoom(t, "alice", `{"name":"Hall"}`)
	lamp := ts.createDevice(t, "alice", device.KindSwitch, "Lamp")
	rec := ts.do(t, http.MethodPost, "/api/v1/devices/"+lamp.ID+"/command", "alice",
		`{"command":"set_room","room_id":"`+room.ID+`"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = ts.do(t, http.MethodDelete, "/api/v1/devices/"+lamp.ID, "alice", "")
	require.Equal(t, http.StatusNoContent, rec.Code)

	stored, err := ts.rooms.GetRoom(context.Background(), room.ID)
	require.NoError(t, err)
	assert.Empty(t, stored.DeviceIDs)
}

func TestChannelAuth(t *testing.T) {
	ts := newTestServer(t)

	post := func(form url.Values) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/user/channel_auth", strings.NewReader(form.Encode()))
		req.Header.Set("Authorization", bearer(t, "alice"))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		rec := httptest.NewRecorder()
		ts.handler.ServeHTTP(rec, req)
		return rec
	}

	rec := post(url.Values{"socket_id": {"1.2"}, "channel_name": {"private-alice"}})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	grant := decode[map[string]string](t, rec)
	assert.True(t, strings.HasPrefix(grant["auth"], "app-key:"))

	rec = post(url.Values{"socket_id": {"1.2"}, "channel_name": {"private-bob"}})
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = post(url.Values{"socket_id": {"1.2"}, "channel_name": {"public"}})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = post(url.Values{"channel_name": {"private-alice"}})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAccountFlow(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(t, http.MethodGet, "/api/v1/account/start_flow?type=nest", "alice", "")
	require.Equal(t, http.StatusFound, rec.Code, rec.Body.String())
	redirect, err := url.Parse(rec.Header().Get("Location"))
	require.NoError(t, err)
	state := redirect.Query().Get("state")
	require.NotEmpty(t, state)

	// The provider calls back without credentials.
	rec = ts.do(t, http.MethodGet, "/api/v1/account/redirect?code=abc&state="+url.QueryEscape(state), "", "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "OK", rec.Body.String())

	events := ts.recorder.events(push.ChannelName("alice"))
	require.NotEmpty(t, events)
	assert.Equal(t, account.EventClass, events[len(events)-1]["class"])

	rec = ts.do(t, http.MethodGet, "/api/v1/accounts", "alice", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotContains(t, rec.Body.String(), `"at"`, "tokens never leave the hub")
	assert.EqualValues(t, 1, decode[map[string]any](t, rec)["count"])

	rec = ts.do(t, http.MethodPost, "/api/v1/accounts/"+state+"/command", "alice", `{"command":"refresh_access_token"}`)
	assert.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = ts.do(t, http.MethodPost, "/api/v1/accounts/"+state+"/command", "bob", `{"command":"refresh_access_token"}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = ts.do(t, http.MethodPost, "/api/v1/accounts/"+state+"/command", "alice", `{"command":"reboot"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, ErrCodeUnknownCommand, decode[Error](t, rec).Code)
}

func TestAccountFlow_Errors(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(t, http.MethodGet, "/api/v1/account/start_flow?type=hive", "alice", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, ErrCodeUnknownAccountType, decode[Error](t, rec).Code)

	rec = ts.do(t, http.MethodGet, "/api/v1/account/redirect?code=abc&state=unknown", "", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = ts.do(t, http.MethodGet, "/api/v1/account/redirect?state=unknown", "", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestProxyEvent(t *testing.T) {
	ts := newTestServer(t)

	body := `{"device_id":"node-7","device_type":"zwave","event":{"notificationType":"NodeInfoUpdate","nodeId":7,"node_name":"Porch"}}`
	rec := ts.do(t, http.MethodPost, "/api/v1/proxy/events", "alice", body)
	require.Equal(t, http.StatusNoContent, rec.Code, rec.Body.String())

	d, err := ts.devices.GetDevice(context.Background(), "node-7")
	require.NoError(t, err)
	assert.Equal(t, "alice", d.Owner)
	assert.Equal(t, device.KindZWave, d.Kind)

	rec = ts.do(t, http.MethodPost, "/api/v1/proxy/events", "alice", `{"device_id":"x","device_type":"hue","event":{}}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	// Another building cannot claim the device.
	rec = ts.do(t, http.MethodPost, "/api/v1/proxy/events", "bob", body)
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestGetDevice_UnknownZWaveProduct(t *testing.T) {
	ts := newTestServer(t)

	body := `{"device_id":"node-9","device_type":"zwave","event":{"notificationType":"NodeInfoUpdate","nodeId":9,"node_name":"Attic"}}`
	rec := ts.do(t, http.MethodPost, "/api/v1/proxy/events", "alice", body)
	require.Equal(t, http.StatusNoContent, rec.Code, rec.Body.String())

	rec = ts.do(t, http.MethodGet, "/api/v1/devices/node-9", "alice", "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	raw := decode[map[string]any](t, rec)
	assert.Equal(t, []any{}, raw["capabilities"])
	assert.Equal(t, []any{command.NameHealNode, command.NameLights, command.NameSetRoom}, raw["commands"])
}

func TestDrivers(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(t, http.MethodGet, "/api/v1/drivers", "alice", "")
	require.Equal(t, http.StatusOK, rec.Code)
	body := decode[struct {
		Drivers []driver.Info `json:"drivers"`
		Count   int           `json:"count"`
	}](t, rec)
	assert.Equal(t, len(body.Drivers), body.Count)
	assert.NotZero(t, body.Count)
}

func TestEvents_Disabled(t *testing.T) {
	ts := newTestServer(t)
	rec := ts.do(t, http.MethodGet, "/api/v1/events", "alice", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestEvents_ForbiddenStream(t *testing.T) {
	ts := newTestServer(t)
	ts.srv.events = NewEvents()
	t.Cleanup(ts.srv.events.Close)

	rec := ts.do(t, http.MethodGet, "/api/v1/events?stream=private-bob", "alice", "")
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestCORS_Preflight(t *testing.T) {
	ts := newTestServer(t)

	req := httptest.NewRequest(http.MethodOptions, "/api/v1/devices", nil)
	req.Header.Set("Origin", "https://app.example")
	rec := httptest.NewRecorder()
	ts.handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "https://app.example", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Contains(t, rec.Header().Get("Access-Control-Allow-Headers"), buildingHeader)
}
