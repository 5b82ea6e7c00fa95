package zwave

import (
	"context"
	"encoding/json"
	"maps"

	"github.com/Stainless-Nata/awesomation/internal/device"
	"github.com/Stainless-Nata/awesomation/internal/driver"
)

// Mesh commands understood by the proxy.
const (
	CommandHeal     = "heal"
	CommandHealNode = "heal_node"
	CommandSetValue = "set_value"
)

// MeshCommand is an instruction for the mesh controller behind a proxy.
// It encodes as {"type":"zwave","command":...,"node_id":...} plus Params.
type MeshCommand struct {
	Command string
	NodeID  *int64
	Params  map[string]any
}

// MarshalJSON flattens Params into the command object.
func (c MeshCommand) MarshalJSON() ([]byte, error) {
	out := make(map[string]any, len(c.Params)+3)
	maps.Copy(out, c.Params)
	out["type"] = string(device.KindZWave)
	out["command"] = c.Command
	if c.NodeID != nil {
		out["node_id"] = *c.NodeID
	}
	return json.Marshal(out)
}

// Mesh sends commands to the proxy serving a building.
type Mesh interface {
	Send(ctx context.Context, building string, cmd MeshCommand) error
}

// target binds a driver to one Z-Wave device.
type target struct {
	device *device.Device
	mesh   Mesh
}

// NewTarget returns the driver target for d.
func NewTarget(d *device.Device, mesh Mesh) driver.Target {
	return &target{device: d, mesh: mesh}
}

func (t *target) NodeID() (int64, bool) {
	if t.device.ZWave == nil || t.device.ZWave.NodeID == nil {
		return 0, false
	}
	return *t.device.ZWave.NodeID, true
}

func (t *target) Send(ctx context.Context, command string, params map[string]any) error {
	cmd := MeshCommand{Command: command, Params: params}
	if node, ok := t.NodeID(); ok {
		cmd.NodeID = &node
	}
	return t.mesh.Send(ctx, t.device.Owner, cmd)
}

// Resolve returns the driver for d bound to mesh.
func Resolve(reg *driver.Registry, d *device.Device, mesh Mesh) driver.Driver {
	if d.ZWave == nil {
		return driver.Fallback()
	}
	return reg.Resolve(d.ZWave.DriverKey(), NewTarget(d, mesh))
}

// Heal asks the building's controller to heal the whole mesh.
func Heal(ctx context.Context, mesh Mesh, building string) error {
	return mesh.Send(ctx, building, MeshCommand{Command: CommandHeal})
}

// HealNode asks the controller to rebuild routes for d's node.
func HealNode(ctx context.Context, mesh Mesh, d *device.Device) error {
	return NewTarget(d, mesh).Send(ctx, CommandHealNode, nil)
}
