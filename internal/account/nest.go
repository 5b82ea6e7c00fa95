package account

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"golang.org/x/oauth2"

	"github.com/Stainless-Nata/awesomation/internal/device"
	"github.com/Stainless-Nata/awesomation/internal/infrastructure/config"
)

// NestTypeName is the account type of Nest thermostats.
const NestTypeName = "nest"

// nestIDPrefix namespaces thermostat ids in the device table.
const nestIDPrefix = "nest-"

// DeviceStore is the part of the device registry that discovery writes to.
type DeviceStore interface {
	GetOrCreate(ctx context.Context, id, owner string, kind device.Kind) (*device.Device, bool, error)
	UpdateDevice(ctx context.Context, d *device.Device) error
}

// Nest links Nest accounts and mirrors their thermostats as nest devices.
type Nest struct {
	oauth   *oauth2.Config
	apiURL  string
	devices DeviceStore
}

// NewNest creates the nest account type from its configuration.
func NewNest(cfg config.AccountTypeConfig, redirectURL string, devices DeviceStore) *Nest {
	return &Nest{
		oauth: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			Endpoint: oauth2.Endpoint{
				AuthURL:   cfg.AuthURL,
				TokenURL:  cfg.TokenURL,
				AuthStyle: oauth2.AuthStyleInParams,
			},
			RedirectURL: redirectURL,
			Scopes:      cfg.Scopes,
		},
		apiURL:  strings.TrimRight(cfg.APIURL, "/"),
		devices: devices,
	}
}

// Name implements Type.
func (n *Nest) Name() string { return NestTypeName }

// OAuth2 implements Type.
func (n *Nest) OAuth2() *oauth2.Config { return n.oauth }

type nestThermostat struct {
	DeviceID            string   `json:"device_id"`
	Name                string   `json:"name"`
	IsOnline            bool     `json:"is_online"`
	AmbientTemperatureC *float64 `json:"ambient_temperature_c"`
	TargetTemperatureC  *float64 `json:"target_temperature_c"`
}

type nestDevices struct {
	Thermostats map[string]nestThermostat `json:"thermostats"`
}

// RefreshDevices implements Type. Each thermostat becomes a nest device of
// the link's owner; existing devices are updated in place.
func (n *Nest) RefreshDevices(ctx context.Context, link *Link, client *http.Client) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, n.apiURL+"/devices", nil)
	if err != nil {
		return fmt.Errorf("building nest request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("listing nest devices: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("listing nest devices: unexpected status %d", resp.StatusCode)
	}

	var body nestDevices
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return fmt.Errorf("decoding nest devices: %w", err)
	}

	for key, th := range body.Thermostats {
		if th.DeviceID == "" {
			th.DeviceID = key
		}
		d, _, err := n.devices.GetOrCreate(ctx, nestIDPrefix+th.DeviceID, link.Owner, device.KindNest)
		if err != nil {
			return fmt.Errorf("storing thermostat %s: %w", th.DeviceID, err)
		}
		if th.Name != "" {
			d.Name = th.Name
		}
		d.Nest.ExternalID = th.DeviceID
		d.Nest.AccountID = link.ID
		d.Nest.Online = th.IsOnline
		d.Nest.AmbientTemperatureC = th.AmbientTemperatureC
		d.Nest.TargetTemperatureC = th.TargetTemperatureC
		if err := n.devices.UpdateDevice(ctx, d); err != nil {
			return fmt.Errorf("storing thermostat %s: %w", th.DeviceID, err)
		}
	}
	return nil
}
