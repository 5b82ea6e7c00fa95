package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/Stainless-Nata/awesomation/internal/account"
	"github.com/Stainless-Nata/awesomation/internal/api"
	"github.com/Stainless-Nata/awesomation/internal/auth"
	"github.com/Stainless-Nata/awesomation/internal/bridges/hue"
	"github.com/Stainless-Nata/awesomation/internal/command"
	"github.com/Stainless-Nata/awesomation/internal/device"
	"github.com/Stainless-Nata/awesomation/internal/driver"
	"github.com/Stainless-Nata/awesomation/internal/infrastructure/config"
	"github.com/Stainless-Nata/awesomation/internal/infrastructure/database"
	"github.com/Stainless-Nata/awesomation/internal/infrastructure/influxdb"
	"github.com/Stainless-Nata/awesomation/internal/infrastructure/logging"
	"github.com/Stainless-Nata/awesomation/internal/infrastructure/mqtt"
	"github.com/Stainless-Nata/awesomation/internal/location"
	"github.com/Stainless-Nata/awesomation/internal/proxy"
	"github.com/Stainless-Nata/awesomation/internal/push"
	"github.com/Stainless-Nata/awesomation/internal/zwave"
)

func newServeCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the hub until interrupted",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return run(cmd.Context(), opts.configPath)
		},
	}
}

// run is the actual application logic, separated from the command for
// testability. It returns nil on clean shutdown.
func run(ctx context.Context, configPath string) error {
	// Use default logger until config is loaded
	log := logging.Default()
	log.Info("starting Awesomation hub",
		"version", version,
		"commit", commit,
		"build_date", date,
	)

	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	log.Info("configuration loaded", "path", configPath)

	// Reinitialise logger with config settings
	log = logging.New(cfg.Logging, version)
	log.Info("logger initialised",
		"level", cfg.Logging.Level,
		"format", cfg.Logging.Format,
	)

	db, err := openDatabase(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer func() {
		log.Info("closing database")
		if closeErr := db.Close(); closeErr != nil {
			log.Error("error closing database", "error", closeErr)
		}
	}()

	// Registries are fully populated before any traffic is accepted.
	drivers := driver.NewRegistry()
	drivers.SetLogger(log.Component("drivers"))
	zwave.RegisterDrivers(drivers)
	log.Info("driver registry initialised", "drivers", drivers.Len())

	devices := device.NewRegistry(device.NewSQLiteRepository(db.DB))
	devices.SetLogger(log.Component("devices"))
	if refreshErr := devices.RefreshCache(ctx); refreshErr != nil {
		return fmt.Errorf("loading device registry: %w", refreshErr)
	}

	rooms := location.NewRegistry(location.NewSQLiteRepository(db.DB))
	rooms.SetLogger(log.Component("rooms"))

	topics := mqtt.NewTopics(cfg.Proxy.TopicPrefix)
	mqttClient, err := mqtt.Connect(cfg.MQTT, topics)
	if err != nil {
		return fmt.Errorf("connecting to MQTT: %w", err)
	}
	defer func() {
		log.Info("disconnecting from MQTT")
		if closeErr := mqttClient.Close(); closeErr != nil {
			log.Error("error closing MQTT", "error", closeErr)
		}
	}()
	mqttClient.SetLogger(log.Component("mqtt"))
	mqttClient.SetOnConnect(func() {
		log.Info("MQTT reconnected")
	})
	mqttClient.SetOnDisconnect(func(err error) {
		log.Warn("MQTT disconnected", "error", err)
	})
	log.Info("MQTT connected",
		"broker", fmt.Sprintf("%s:%d", cfg.MQTT.Broker.Host, cfg.MQTT.Broker.Port),
		"client_id", cfg.MQTT.Broker.ClientID,
	)

	qos := mqttClient.QoS()
	mesh := proxy.NewMesh(mqttClient, topics, qos, time.Duration(cfg.Proxy.CommandTimeout)*time.Second)
	dispatcher := command.NewDispatcher(devices, rooms, drivers, mesh)
	dispatcher.SetLogger(log.Component("commands"))

	influxClient, err := connectInfluxDB(cfg, log)
	if err != nil {
		return err
	}
	if influxClient != nil {
		defer func() {
			log.Info("closing InfluxDB connection")
			if closeErr := influxClient.Close(); closeErr != nil {
				log.Error("error closing InfluxDB", "error", closeErr)
			}
		}()
		dispatcher.SetTelemetry(influxClient)
	}

	if cfg.Hue.Enabled {
		bridge := hue.New(cfg.Hue)
		bridge.SetLogger(log.Component("hue"))
		dispatcher.SetGroupLights(bridge)
		log.Info("Hue bridge configured", "host", cfg.Hue.Host)
	} else {
		log.Info("Hue bridge disabled")
	}

	accounts := newAccountService(cfg, db, devices, log)

	// Push: every unit of work flushes to the websocket hub, the MQTT mirror
	// and, when enabled, the SSE stream.
	authorizer := push.NewAuthorizer(cfg.Push.AppKey, cfg.Push.Secret)
	hub := api.NewHub(cfg.WebSocket, authorizer, log.Component("websocket"))
	publishers := push.Multi{hub, proxy.NewMirror(mqttClient, topics, qos)}
	var events *api.Events
	if cfg.Push.SSE {
		events = api.NewEvents()
		publishers = append(publishers, events)
	}
	fanout := push.NewFanout(publishers, cfg.Push.MaxBatchSize)
	fanout.SetLogger(log.Component("push"))

	gateway := proxy.NewGateway(devices, dispatcher, fanout, topics)
	gateway.SetLogger(log.Component("proxy"))
	if err := gateway.Subscribe(mqttClient, qos); err != nil {
		return err
	}
	log.Info("proxy gateway subscribed", "topic", topics.AllProxyEvents())

	apiServer, err := api.New(api.Deps{
		Config:     cfg.API,
		WS:         cfg.WebSocket,
		Security:   cfg.Security,
		Logger:     log.Component("api"),
		Devices:    devices,
		Rooms:      rooms,
		Drivers:    drivers,
		Dispatcher: dispatcher,
		Accounts:   accounts,
		Persons:    auth.NewPersonRepository(db.DB),
		Fanout:     fanout,
		Authorizer: authorizer,
		Gateway:    gateway,
		Hub:        hub,
		Events:     events,
		Version:    version,
	})
	if err != nil {
		return fmt.Errorf("creating API server: %w", err)
	}
	if err := apiServer.Start(ctx); err != nil {
		return fmt.Errorf("starting API server: %w", err)
	}
	defer func() {
		if closeErr := apiServer.Close(); closeErr != nil {
			log.Error("error closing API server", "error", closeErr)
		}
	}()

	if err := healthCheck(ctx, db, mqttClient, influxClient); err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	log.Info("all health checks passed")

	log.Info("initialisation complete, waiting for shutdown signal")
	<-ctx.Done()
	log.Info("shutdown signal received, cleaning up")

	// Deferred Close() calls run in reverse order: API, InfluxDB, MQTT, database.
	return nil
}

// openDatabase opens the SQLite store and applies pending migrations.
func openDatabase(ctx context.Context, cfg *config.Config, log *logging.Logger) (*database.DB, error) {
	db, err := database.Open(cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	log.Info("database connected", "path", cfg.Database.Path)

	if err := db.Migrate(ctx); err != nil {
		db.Close() //nolint:errcheck // best effort cleanup on error path
		return nil, fmt.Errorf("running migrations: %w", err)
	}
	log.Info("database migrations complete")
	return db, nil
}

// connectInfluxDB returns nil when telemetry is disabled.
func connectInfluxDB(cfg *config.Config, log *logging.Logger) (*influxdb.Client, error) {
	if !cfg.InfluxDB.Enabled {
		log.Info("InfluxDB disabled")
		return nil, nil
	}

	client, err := influxdb.Connect(cfg.InfluxDB)
	if err != nil {
		return nil, fmt.Errorf("connecting to InfluxDB: %w", err)
	}
	client.SetOnError(func(err error) {
		log.Error("InfluxDB write error", "error", err)
	})
	log.Info("InfluxDB connected",
		"url", cfg.InfluxDB.URL,
		"org", cfg.InfluxDB.Org,
		"bucket", cfg.InfluxDB.Bucket,
	)
	return client, nil
}

// newAccountService registers the enabled account types.
func newAccountService(cfg *config.Config, db *database.DB, devices *device.Registry, log *logging.Logger) *account.Service {
	types := account.NewTypes()
	if cfg.Accounts.Nest.Enabled {
		types.Register(account.NewNest(cfg.Accounts.Nest, cfg.RedirectURL(), devices))
	}

	svc := account.NewService(account.NewSQLiteRepository(db.DB), types,
		time.Duration(cfg.Accounts.Timeout)*time.Second)
	svc.SetLogger(log.Component("accounts"))
	log.Info("account types registered", "types", types.Names())
	return svc
}

// healthCheck verifies all infrastructure connections are healthy.
// influxClient may be nil when telemetry is disabled.
func healthCheck(ctx context.Context, db *database.DB, mqttClient *mqtt.Client, influxClient *influxdb.Client) error {
	if err := db.HealthCheck(ctx); err != nil {
		return fmt.Errorf("database: %w", err)
	}

	if err := mqttClient.HealthCheck(ctx); err != nil {
		return fmt.Errorf("mqtt: %w", err)
	}

	if influxClient != nil {
		if err := influxClient.HealthCheck(ctx); err != nil {
			return fmt.Errorf("influxdb: %w", err)
		}
	}
	return nil
}
