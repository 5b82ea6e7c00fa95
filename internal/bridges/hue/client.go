package hue

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/amimof/huego"

	"github.com/Stainless-Nata/awesomation/internal/infrastructure/config"
)

const defaultTimeout = 5 * time.Second

// Logger defines the logging interface used by the Client.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

// Client switches groups on one Hue bridge.
//
// Thread Safety:
//   - All methods are safe for concurrent use.
type Client struct {
	bridge  *huego.Bridge
	timeout time.Duration
	logger  Logger
}

// New creates a Client for the bridge described by cfg.
func New(cfg config.HueConfig) *Client {
	timeout := time.Duration(cfg.Timeout) * time.Second
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Client{
		bridge:  huego.New(cfg.Host, cfg.User),
		timeout: timeout,
		logger:  noopLogger{},
	}
}

// SetLogger sets the logger for the client.
func (c *Client) SetLogger(logger Logger) {
	c.logger = logger
}

// SetGroupLights sets the on state of a bridge group.
func (c *Client) SetGroupLights(ctx context.Context, groupID string, on bool) error {
	id, err := strconv.Atoi(groupID)
	if err != nil || id < 0 {
		return fmt.Errorf("%w: %q", ErrInvalidGroup, groupID)
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	resp, err := c.bridge.SetGroupStateContext(ctx, id, huego.State{On: on})
	if err != nil {
		c.logger.Error("hue group update failed", "group", id, "on", on, "error", err)
		return fmt.Errorf("setting group %d: %w", id, err)
	}
	if resp == nil || len(resp.Success) == 0 {
		return fmt.Errorf("%w: group %d", ErrBridgeRejected, id)
	}

	c.logger.Debug("hue group switched", "group", id, "on", on)
	return nil
}
