package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	mqttbroker "github.com/mochi-mqtt/server/v2"
	"github.com/mochi-mqtt/server/v2/hooks/auth"
	"github.com/mochi-mqtt/server/v2/listeners"

	"sensor-dashboard/backend/internal/api"
	"sensor-dashboard/backend/internal/apicommon"
	"sensor-dashboard/backend/internal/config"
	"sensor-dashboard/backend/internal/dashboard"
	"sensor-dashboard/backend/internal/ingest"
	"sensor-dashboard/backend/internal/scene"
	"sensor-dashboard/backend/internal/services"
	"sensor-dashboard/backend/internal/store"
	"sensor-dashboard/backend/internal/store/badgerstore"
	"sensor-dashboard/backend/internal/store/simulated"
	"sensor-dashboard/backend/internal/store/sqldb"
	"sensor-dashboard/backend/internal/store/supabase"
	"sensor-dashboard/backend/pkg/generate"
	"sensor-dashboard/backend/pkg/mqtt"
	"sensor-dashboard/backend/pkg/router"
	"sensor-dashboard/backend/pkg/utils"
	"sensor-dashboard/web"
)

const openAPIOutputPath = "openapi.yaml"

func main() {
	sigCtx, sigCancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer sigCancel()

	config, err := config.New()
	if err != nil {
		fatalIfErr(slog.Default(), fmt.Errorf("failed to create config: %w", err))
	}

	defer utils.LogOnError(slog.Default(), config.Close, "failed to close config")

	// Initialize logger
	logger := getLogger(config)
	slog.SetDefault(logger)

	collector, err := generate.NewOpenAPICollector(logger, generate.APIInfo{
		Title:       "Sensor Dashboard API",
		Version:     utils.GetVersionShort(),
		Description: "Live readings of an IoT sensor and the dashboard built on them",
		ServerURL:   config.DashboardBaseURL,
	})
	fatalIfErr(logger, err)

	st, err := openStore(sigCtx, logger, config)
	fatalIfErr(logger, err)

	defer utils.LogOnError(logger, st.Close, "failed to close store")

	// The MQTT builder is created when generating too, so the subscription is documented.
	var (
		mb      *mqtt.MQTTBuilder
		checker services.ConnectionChecker
	)

	if config.MQTTEnabled || config.Generate {
		mb, err = mqtt.NewMQTTBuilder(logger, collector, mqtt.MQTTClientOptions{
			BrokerURL: config.MQTTBroker,
			ClientID:  config.MQTTClientID,
			Username:  config.MQTTUsername,
			Password:  config.MQTTPassword,
		})
		fatalIfErr(logger, err)

		if config.MQTTEnabled {
			checker = mb
		}
	}

	services := services.NewServices(logger, st, checker, services.Options{Location: config.Location})

	layout := scene.DefaultLayout()
	layout.Projection.Location = config.Location

	dash, err := dashboard.New(logger, nil, dashboard.Config{
		BaseURL: config.DashboardBaseURL,
		Feeds:   config.Feeds,
		Layout:  layout,
	})
	fatalIfErr(logger, err)

	rb, err := router.NewRouteBuilder(logger, collector)
	fatalIfErr(logger, err)

	apiHandler := api.NewHandler(logger, services, utils.GetVersionShort(), collector.YAML)
	dashHandler, err := dashboard.NewHandler(logger, dash, utils.GetVersionShort())
	fatalIfErr(logger, err)

	registerHTTPHandlers(logger, rb, apiHandler, dashHandler)

	if mb != nil {
		registerMQTTHandlers(logger, mb, ingest.NewMQTTHandler(logger, services.Sensor))
	}

	if config.Generate {
		if err := collector.WriteYAML(openAPIOutputPath); err != nil {
			fatalIfErr(logger, fmt.Errorf("failed to generate API documentation: %w", err))
		}

		logger.Info("API documentation written", slog.String("path", openAPIOutputPath))

		return
	}

	// MQTT Broker
	var mqttBroker *mqttbroker.Server

	if config.MQTTServerEnabled {
		mqttAddr := fmt.Sprintf(":%d", config.MQTTBrokerPort)
		mqttBroker, err = getMQTTServer(logger, mqttAddr)
		fatalIfErr(logger, err)

		go func() {
			logger.Info("MQTT broker listening", slog.String("address", mqttAddr))

			if err := mqttBroker.Serve(); err != nil {
				logger.Error("MQTT broker failed", utils.ErrAttr(err))
				sigCancel()
			}
		}()
	}

	if config.MQTTEnabled {
		go func() {
			if err := mb.Connect(sigCtx); err != nil {
				logger.Error("Failed to connect to MQTT broker", utils.ErrAttr(err))
			}
		}()
	}

	// HTTP Server
	httpServer := apicommon.NewHTTPServer(logger, fmt.Sprintf(":%d", config.Port), rb.Router())
	httpServer.StartOnBackground(sigCancel)

	dash.Start(sigCtx)

	// Wait for signal (either OS or some failure)
	<-sigCtx.Done()
	logger.Info("received signal, shutting down...")

	dash.Stop()

	logger.Info("http server shutting down...")

	if err := httpServer.ShutdownWithDefaultTimeout(); err != nil {
		logger.Error("http server shutdown failed", utils.ErrAttr(err))
	}

	if config.MQTTEnabled {
		logger.Info("disconnecting from MQTT broker...")
		mb.Disconnect()
	}

	if mqttBroker != nil {
		logger.Info("mqtt broker shutting down...")

		if err := mqttBroker.Close(); err != nil {
			logger.Error("mqtt broker shutdown failed", utils.ErrAttr(err))
		}
	}

	logger.Info("server exited gracefully")
}

// openStore opens the configured store. Generating docs never touches a backend.
//
//nolint:ireturn // Returns the store.Store of the configured kind
func openStore(ctx context.Context, l *slog.Logger, c *config.Config) (store.Store, error) {
	if c.Generate {
		return simulated.New(), nil
	}

	l.Info("opening store", slog.String("store", c.Store.String()))

	switch c.Store {
	case store.KindSQLite, store.KindPostgres:
		d, _ := c.Dialect()

		s, err := sqldb.Open(ctx, l, d, c.Database)
		if err != nil {
			return nil, err
		}

		return s, nil
	case store.KindBadger:
		s, err := badgerstore.Open(l, c.BadgerDir)
		if err != nil {
			return nil, err
		}

		return s, nil
	case store.KindSupabase:
		s, err := supabase.New(l, supabase.Config{
			URL:     c.Supabase.URL,
			AnonKey: c.Supabase.AnonKey,
			Table:   c.Supabase.Table,
			RPS:     c.Supabase.RPS,
		}, nil)
		if err != nil {
			return nil, err
		}

		return s, nil
	case store.KindSimulated:
		return simulated.New(), nil
	default:
		return nil, fmt.Errorf("unsupported store %q", c.Store)
	}
}

func getMQTTServer(l *slog.Logger, addr string) (*mqttbroker.Server, error) {
	server := mqttbroker.New(&mqttbroker.Options{
		Logger: l.With(slog.String("component", "mqtt-broker")),
	})
	tcp := listeners.NewTCP(listeners.Config{ID: "tcp", Address: addr})

	err := server.AddListener(tcp)
	if err != nil {
		return nil, err
	}

	if err := server.AddHook(new(auth.AllowHook), nil); err != nil {
		return nil, err
	}

	return server, nil
}

// registerHTTPHandlers registers all HTTP handlers.
func registerHTTPHandlers(l *slog.Logger, rb *router.RouteBuilder, h *api.Handler, dh *dashboard.Handler) {
	l.Info("Registering HTTP handlers...")

	mw := apicommon.NewMiddlewareHandler(l)

	// Recover from panics
	rb.Use(mw.RecoveryMiddleware)
	// Add request ID
	rb.Use(mw.RequestIDMiddleware)
	// Add request logger
	rb.Use(mw.LoggerMiddleware)
	rb.Use(mw.CompressMiddleware)

	dh.RegisterPage("/", rb)

	rb.Route("/api", func(rb *router.RouteBuilder) {
		h.RegisterPing("/ping", rb)
		h.RegisterHealth("/health", rb)
		h.RegisterOpenAPI("/openapi.yaml", rb)
		h.RegisterSensorHistory("/sensor-history", rb)

		rb.Route("/sensor-data", func(rb *router.RouteBuilder) {
			h.RegisterSensorData("/", rb)
			h.RegisterTemperatureHistory("/history", rb)
			h.RegisterSensorHistoryAlias("/sensor-history", rb)
		})

		dh.RegisterScene("/scene", rb)
		dh.RegisterChart("/charts/{metric}.svg", rb)
	})

	static, err := web.StaticApp()
	fatalIfErr(l, err)
	static.Register(rb.Router(), l)

	l.Info("HTTP handlers registered successfully")
}

// registerMQTTHandlers registers all MQTT handlers.
func registerMQTTHandlers(l *slog.Logger, mb *mqtt.MQTTBuilder, h *ingest.Handler) {
	l.Info("Registering MQTT handlers...")
	h.RegisterReadingSubscribe(mb)
	l.Info("MQTT handlers registered successfully")
}

func getLogger(c *config.Config) *slog.Logger {
	logOptions := slog.HandlerOptions{
		Level:       c.LogLevel,
		ReplaceAttr: utils.SlogReplacer,
	}

	var logHandler slog.Handler = slog.NewJSONHandler(c.LogOutput, &logOptions)
	if c.Generate || c.LogFormat == config.LogFormatText {
		logHandler = slog.NewTextHandler(c.LogOutput, &logOptions)
	}

	return slog.New(logHandler).With(slog.String("version", utils.GetVersionShort()))
}

func fatalIfErr(l *slog.Logger, err error) {
	if err == nil {
		return
	}

	l.Error("error", utils.ErrAttr(err))
	os.Exit(1)
}
