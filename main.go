package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"sort"
	"strings"
	"syscall"
	"time"

	"github.com/gorilla/websocket"
	"github.com/spf13/viper"
	"golang.org/x/sync/errgroup"

	"drop-bears/server/internal/sim"
	"drop-bears/server/internal/terrain"
	"drop-bears/server/logging"
	"drop-bears/server/logging/sinks"
	"drop-bears/server/weapons/catalog"
)

type serverConfig struct {
	Addr     string
	TickRate int

	World struct {
		Width       int
		Height      int
		Seed        int64
		GroundLevel float64 // fraction of height where the ground slab starts
		Waterline   float64 // fraction of height; feet below this drown
	}

	Logging struct {
		Sinks       []string
		MinSeverity string
		JSONPath    string
		UseColor    bool
	}

	Weapons struct {
		Definitions []string
	}
}

func loadConfig() (serverConfig, error) {
	v := viper.New()
	v.SetConfigName("server")
	v.SetConfigType("yaml")
	v.AddConfigPath("config")
	v.AddConfigPath(".")
	v.SetEnvPrefix("DROPBEARS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("addr", ":8080")
	v.SetDefault("tickrate", 30)
	v.SetDefault("world.width", 1920)
	v.SetDefault("world.height", 1080)
	v.SetDefault("world.seed", 1)
	v.SetDefault("world.groundlevel", 0.65)
	v.SetDefault("world.waterline", 0.98)
	v.SetDefault("logging.sinks", []string{"console"})
	v.SetDefault("logging.minseverity", "info")
	v.SetDefault("logging.usecolor", true)
	v.SetDefault("weapons.definitions", catalog.DefaultPaths())

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return serverConfig{}, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg serverConfig
	if err := v.Unmarshal(&cfg); err != nil {
		return serverConfig{}, fmt.Errorf("unmarshal config: %w", err)
	}
	return cfg, nil
}

func buildPublisher(cfg serverConfig) (*logging.Router, error) {
	logCfg := logging.DefaultConfig()
	logCfg.EnabledSinks = cfg.Logging.Sinks
	logCfg.MinimumSeverity = parseSeverity(cfg.Logging.MinSeverity)
	logCfg.Console.UseColor = cfg.Logging.UseColor
	logCfg.JSON.FilePath = cfg.Logging.JSONPath

	var named []logging.NamedSink
	if logCfg.HasSink("console") {
		named = append(named, logging.NamedSink{
			Name: "console",
			Sink: sinks.NewConsoleSink(os.Stdout, logCfg.Console),
		})
	}
	if logCfg.HasSink("json") && logCfg.JSON.FilePath != "" {
		f, err := os.OpenFile(logCfg.JSON.FilePath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return nil, fmt.Errorf("open json log: %w", err)
		}
		named = append(named, logging.NamedSink{
			Name: "json",
			Sink: sinks.NewJSON(f, logCfg.JSON.FlushInterval),
		})
	}
	return logging.NewRouter(nil, logCfg, named)
}

func parseSeverity(s string) logging.Severity {
	switch strings.ToLower(s) {
	case "debug":
		return logging.SeverityDebug
	case "warn":
		return logging.SeverityWarn
	case "error":
		return logging.SeverityError
	default:
		return logging.SeverityInfo
	}
}

// buildTerrain produces the default battlefield: a solid ground slab
// below the configured ground level. Real maps arrive as alpha buffers
// through Field.ImportAlpha; this keeps a fresh server playable.
func buildTerrain(cfg serverConfig) *terrain.Field {
	field := terrain.NewField(cfg.World.Width, cfg.World.Height)
	groundY := int(float64(cfg.World.Height) * cfg.World.GroundLevel)
	field.FillRect(0, groundY, cfg.World.Width-1, cfg.World.Height-1, 255)
	return field
}

func main() {
	cfg, err := loadConfig()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	publisher, err := buildPublisher(cfg)
	if err != nil {
		log.Fatalf("logging: %v", err)
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		publisher.Close(ctx)
	}()

	resolver, err := catalog.Load(cfg.Weapons.Definitions...)
	if err != nil {
		log.Fatalf("weapon catalog: %v", err)
	}
	profiles := resolver.Profiles()
	weaponIDs := make([]string, 0, len(profiles))
	for id := range profiles {
		weaponIDs = append(weaponIDs, id)
	}
	sort.Strings(weaponIDs)

	field := buildTerrain(cfg)

	worldCfg := sim.Config{Seed: cfg.World.Seed}
	worldCfg.Physics.Waterline = float64(cfg.World.Height) * cfg.World.Waterline
	world := sim.NewWorld(field, resolver, worldCfg, publisher)
	world.RollWind()

	telemetry := &telemetryCounters{}
	hub := newHub(world, cfg.TickRate, weaponIDs, telemetry)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	mux := http.NewServeMux()
	registerRoutes(mux, hub, telemetry)

	srv := &http.Server{Addr: cfg.Addr, Handler: mux}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		err := hub.RunSimulation(ctx)
		if err == context.Canceled {
			return nil
		}
		return err
	})
	g.Go(func() error {
		log.Printf("server listening on %s", cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		log.Fatalf("server failed: %v", err)
	}
}

func registerRoutes(mux *http.ServeMux, hub *Hub, telemetry *telemetryCounters) {
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain")
		w.Write([]byte("ok"))
	})

	mux.HandleFunc("/diagnostics", func(w http.ResponseWriter, r *http.Request) {
		payload := struct {
			Status     string            `json:"status"`
			ServerTime int64             `json:"serverTime"`
			Telemetry  telemetrySnapshot `json:"telemetry"`
		}{
			Status:     "ok",
			ServerTime: time.Now().UnixMilli(),
			Telemetry:  telemetry.Snapshot(),
		}
		data, err := json.Marshal(payload)
		if err != nil {
			http.Error(w, "failed to encode", http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write(data)
	})

	mux.HandleFunc("/join", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		join, err := hub.Join()
		if err != nil {
			http.Error(w, err.Error(), http.StatusConflict)
			return
		}
		data, err := json.Marshal(join)
		if err != nil {
			http.Error(w, "failed to encode", http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write(data)
	})

	upgrader := websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     func(r *http.Request) bool { return true },
	}

	mux.HandleFunc("/ws", func(w http.ResponseWriter, r *http.Request) {
		id := r.URL.Query().Get("id")
		if id == "" {
			http.Error(w, "missing id", http.StatusBadRequest)
			return
		}
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			log.Printf("upgrade failed for %s: %v", id, err)
			return
		}
		sub, ok := hub.Subscribe(id, conn)
		if !ok {
			message := websocket.FormatCloseMessage(websocket.ClosePolicyViolation, "unknown session")
			conn.WriteMessage(websocket.CloseMessage, message)
			conn.Close()
			return
		}

		for {
			_, payload, err := conn.ReadMessage()
			if err != nil {
				hub.Disconnect(id)
				return
			}
			var msg clientMessage
			if err := json.Unmarshal(payload, &msg); err != nil {
				log.Printf("discarding malformed message from %s: %v", id, err)
				continue
			}
			if msg.Type == "heartbeat" {
				ack := heartbeatMessage{
					Type:       "heartbeat",
					ServerTime: time.Now().UnixMilli(),
					ClientTime: msg.SentAt,
				}
				if err := hub.writeJSON(sub, ack); err != nil {
					hub.Disconnect(id)
					return
				}
				continue
			}
			hub.HandleMessage(id, msg)
		}
	})
}
