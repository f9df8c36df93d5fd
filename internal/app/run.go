package app

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"wastemap-server/internal/config"
	db "wastemap-server/internal/db"
	httpapi "wastemap-server/internal/httpapi"
	"wastemap-server/internal/migrate"
	"wastemap-server/internal/modules/disposal"
	"wastemap-server/internal/modules/sites"
	sitesviews "wastemap-server/internal/modules/sites/views"
	"wastemap-server/internal/mqtt"
)

func Run(ctx context.Context, cfg config.Config) error {
	slog.Info("config loaded",
		"appEnv", cfg.AppEnv,
		"logLevel", cfg.LogLevel.String(),
		"httpAddr", cfg.HTTPAddr,
		"dbDriver", cfg.Driver,
		"dbPath", cfg.Path,
		"dbMaxOpenConns", cfg.MaxOpenConns,
		"dbMaxIdleConns", cfg.MaxIdleConns,
		"dbConnMaxLifetime", cfg.ConnMaxLifetime,
		"logSQL", cfg.LogSQL,
		"sitesSource", cfg.SitesSource,
		"displayTZ", cfg.DisplayTZ,
		"defaultLocale", cfg.DefaultLocale,
		"mqttEnabled", cfg.MQTTEnabled,
		"mqttBroker", cfg.MQTTBroker,
		"mqttPort", cfg.MQTTPort,
		"mqttTopic", cfg.MQTTTopic,
	)
	dbConn, err := db.Open(ctx, cfg, slog.Default())
	if err != nil {
		return err
	}
	defer func() {
		closeErr := db.Close(dbConn)
		if closeErr != nil {
			slog.Error("db close", "error", closeErr)
		}
	}()

	applied, err := migrate.Run(dbConn)
	if err != nil {
		return err
	}
	slog.Info("database ready", "migrationsApplied", applied)

	if err := sitesviews.LoadTemplates(); err != nil {
		return err
	}
	initializer, err := sites.NewInitializer(cfg, slog.Default())
	if err != nil {
		return err
	}
	src, err := sites.NewSource(cfg, dbConn)
	if err != nil {
		return err
	}

	// The handler is attached before Connect so no message arrives unhandled.
	var subscriber *mqtt.Subscriber
	var broker httpapi.BrokerStatus
	var ingest mqtt.MQTTSubscriber
	if cfg.MQTTEnabled {
		subscriber = mqtt.NewSubscriber(cfg, slog.Default())
		broker, ingest = subscriber, subscriber
	}

	mux := httpapi.NewMux(dbConn, broker)
	sites.RegisterFeature(mux, initializer, src, cfg.DefaultLocale)
	disposal.RegisterFeature(mux, dbConn, ingest, slog.Default())

	if subscriber != nil {
		// Short timeout so a missing broker does not block startup.
		connectCtx, connectCancel := context.WithTimeout(ctx, 5*time.Second)
		err = subscriber.Connect(connectCtx)
		connectCancel()
		if err != nil {
			slog.Warn("mqtt connection failed (continuing without mqtt)", "error", err)
		}
	}

	srv := httpapi.NewServer(cfg, mux)

	errCh := make(chan error, 1)
	go func() {
		slog.Info("http listening", "addr", cfg.HTTPAddr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if subscriber != nil {
		slog.Info("mqtt disconnecting")
		subscriber.Disconnect()
	}

	slog.Info("http shutting down")
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}

	err = <-errCh
	if err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}

	return ctx.Err()
}
