// File: cmd/server/main.go
// MUD Engine - server entry point

package main

import (
	"context"
	"fmt"
	"log"
	"math/rand"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"mudengine/internal/accounts"
	"mudengine/internal/ban"
	"mudengine/internal/cache"
	"mudengine/internal/clock"
	"mudengine/internal/command"
	"mudengine/internal/config"
	"mudengine/internal/content"
	"mudengine/internal/mudlog"
	"mudengine/internal/registry"
	"mudengine/internal/scheduler"
	"mudengine/internal/server"
	"mudengine/internal/worker"
	"mudengine/internal/worldmodel"
)

func main() {
	args := parseBootArgs(os.Args)

	cfg, err := config.LoadConfig("")
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	config.ApplyBootArgs(cfg, args)
	cfg.LogConfig()

	if err := cfg.EnsureDirectories(); err != nil {
		log.Fatalf("Failed to create data directories: %v", err)
	}
	if err := mudlog.Bootstrap(cfg.LogDir); err != nil {
		log.Fatalf("Failed to bootstrap logging: %v", err)
	}
	errLog := mudlog.Get(mudlog.ErrorLog)

	store, err := accounts.Open(cfg)
	if err != nil {
		log.Fatalf("Failed to open account store: %v", err)
	}
	defer store.Close()

	gate, err := newBanGate(cfg, store, errLog)
	if err != nil {
		log.Fatalf("Failed to build ban gate: %v", err)
	}

	loader := content.NewFileLoader(cfg.AreaDir)

	rooms := cache.New[*worldmodel.Room](cfg.RoomCacheCapacity, func(r *worldmodel.Room) bool {
		return !r.HasLivePlayer()
	}, func(key string, r *worldmodel.Room) {
		if err := loader.SaveRoom(r); err != nil {
			errLog.WithError(err).WithField("room", key).Warn("couldn't persist evicted room")
		}
	}, errLog)
	monsters := cache.New[*worldmodel.Monster](cfg.MonsterCacheCapacity, func(*worldmodel.Monster) bool { return true }, nil, errLog)
	objects := cache.New[*worldmodel.Object](cfg.ObjectCacheCapacity, func(*worldmodel.Object) bool { return true }, nil, errLog)

	var onlineSet registry.OnlineSet
	if cfg.RedisEnabled {
		client := redis.NewClient(&redis.Options{
			Addr: fmt.Sprintf("%s:%d", cfg.RedisHost, cfg.RedisPort),
			DB:   cfg.RedisDB,
		})
		onlineSet = registry.NewRedisOnlineSet(context.Background(), client, "mud:online")
	}
	reg := registry.New(onlineSet)

	workers := worker.NewPool(64)

	commands := command.NewRegistry()
	server.RegisterBuiltins(commands, reg, gate, store, workers, cfg.AreaDir)

	startRoom := worldmodel.NewCatRef(cfg.DefaultArea, 1)

	clk := clock.System{}
	sched := scheduler.New(clk)
	wireScheduler(sched, cfg, reg, loader, monsters, store)

	deps := server.Deps{
		Clock:        clk,
		Rooms:        rooms,
		Objects:      objects,
		Loader:       loader,
		Registry:     reg,
		Commands:     commands,
		Scheduler:    sched,
		Workers:      workers,
		BanGate:      gate,
		Accounts:     store,
		Log:          mudlog.Get(mudlog.Connect),
		StartRoom:    startRoom,
		TickInterval: time.Duration(cfg.PrimaryTickSecs) * time.Second,
	}
	srv := server.New(deps)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go srv.Run(ctx)

	go func() {
		log.Printf("%s v%s listening for telnet on %s", cfg.ServerName, cfg.ServerVersion, cfg.GetListenAddress())
		if err := srv.Serve(ctx, cfg.GetListenAddress()); err != nil {
			log.Printf("telnet listener stopped: %v", err)
		}
	}()

	var httpServer *http.Server
	if cfg.WebSocketPort > 0 {
		mux := http.NewServeMux()
		mux.HandleFunc("/ws", srv.WebSocketHandler())
		httpServer = &http.Server{
			Addr:         cfg.GetWebSocketListenAddress(),
			Handler:      mux,
			ReadTimeout:  15 * time.Second,
			WriteTimeout: 15 * time.Second,
			IdleTimeout:  60 * time.Second,
		}
		go func() {
			log.Printf("WebSocket bridge listening on %s", httpServer.Addr)
			if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				log.Printf("websocket server error: %v", err)
			}
		}()
	}

	pidPath := writePIDFile(cfg)
	defer removePIDFile(pidPath)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	sig := <-sigChan
	log.Printf("received signal: %v, shutting down", sig)
	performGracefulShutdown(cancel, httpServer, cfg)
}

// newBanGate seeds a ban.Gate from the persisted rule table, wiring a
// Redis-backed decision cache when Redis is enabled, per spec.md C9.
func newBanGate(cfg *config.Config, store *accounts.Store, log *logrus.Logger) (*ban.Gate, error) {
	rules, err := store.ListBanRules(context.Background())
	if err != nil {
		return nil, fmt.Errorf("loading ban rules: %w", err)
	}

	var cacheImpl ban.DecisionCache
	if cfg.RedisEnabled {
		client := redis.NewClient(&redis.Options{
			Addr: fmt.Sprintf("%s:%d", cfg.RedisHost, cfg.RedisPort),
			DB:   cfg.RedisDB,
		})
		cacheImpl = ban.NewRedisCache(client, "mud:ban")
	}

	return ban.NewGate(rules, store, cacheImpl, clock.System{}, log), nil
}

// wireScheduler registers the default C7 job set: wander (primary stream),
// save-all (secondary stream), and the daily-boundary counter reset.
func wireScheduler(sched *scheduler.Scheduler, cfg *config.Config, reg *registry.Registry, loader content.Loader, monsters *cache.Cache[*worldmodel.Monster], store *accounts.Store) {
	saveLog := mudlog.Get(mudlog.Commands)

	sched.Primary.Add(scheduler.NewWanderJob(
		func() []*worldmodel.Room {
			var rooms []*worldmodel.Room
			for _, e := range reg.ActiveEntities() {
				if e.Kind() == worldmodel.KindRoom {
					if r, ok := e.(*worldmodel.Room); ok {
						rooms = append(rooms, r)
					}
				}
			}
			return rooms
		},
		rand.Intn,
		func(tableArea string) (*worldmodel.Monster, bool) {
			ref := worldmodel.NewCatRef(tableArea, rand.Intn(50)+1)
			proto, err := monsters.Fetch(ref.String(), func() (*worldmodel.Monster, error) {
				return loader.LoadMonster(ref)
			})
			if err != nil {
				return nil, false
			}
			return proto.Clone(ref.String() + ":" + strconv.FormatInt(time.Now().UnixNano(), 36)), true
		},
	))

	sched.Secondary.Add(scheduler.NewSaveAllJob(
		time.Duration(cfg.SaveIntervalSecs)*time.Second,
		func() error {
			ctx := context.Background()
			for _, ls := range reg.LiveSessions() {
				if ls.Player == nil {
					continue
				}
				if err := store.SetBoundRoom(ctx, ls.PlayerID, ls.Player.CurrentRoom); err != nil {
					return err
				}
			}
			return nil
		},
		saveLog,
	))

	sched.OnDailyBoundary(func(time.Time) {
		for _, ls := range reg.LiveSessions() {
			if ls.Player == nil {
				continue
			}
			for k := range ls.Player.DailyCounters {
				ls.Player.DailyCounters[k] = 0
			}
		}
	})
}

// usage prints the boot flag surface (mordorMain.cpp's usage()).
func usage(name string) {
	fmt.Printf(" %s [port number] [-r] [-g] [-v]\n", name)
}

// bootArgs is handle_args's Go rendition: a positional port number plus
// -r/-g/-v switches, also accepted with a leading '/' (mordorMain.cpp). An
// unknown flag prints usage and exits non-zero (spec.md §6), matching the
// original's unrecognized-option path rather than silently continuing.
func parseBootArgs(argv []string) config.BootArgs {
	var args config.BootArgs
	for _, a := range argv[1:] {
		if len(a) >= 2 && (a[0] == '-' || a[0] == '/') {
			switch a[1] {
			case 'g', 'G':
				args.GDBMode = true
			case 'r', 'R':
				args.Rebooting = true
			case 'v', 'V':
				args.Valgrind = true
			default:
				fmt.Printf("Unknown option %q.\n", a)
				usage(argv[0])
				os.Exit(1)
			}
			continue
		}
		if n, err := strconv.Atoi(a); err == nil {
			args.Port = n
		} else {
			fmt.Printf("Unknown option %q.\n", a)
			usage(argv[0])
			os.Exit(1)
		}
	}
	return args
}

// writePIDFile mirrors mordorMain.cpp's "%s/mordor%d.pid" convention,
// returning the path (possibly empty on failure, which is logged but not
// fatal — a missing PID file never stops the server from running).
func writePIDFile(cfg *config.Config) string {
	path := fmt.Sprintf("%s/mordor%d.pid", cfg.LogDir, cfg.ServerPort)
	f, err := os.Create(path)
	if err != nil {
		log.Printf("couldn't create pid file %s: %v", path, err)
		return ""
	}
	defer f.Close()
	fmt.Fprintf(f, "%d", os.Getpid())
	return path
}

func removePIDFile(path string) {
	if path == "" {
		return
	}
	_ = os.Remove(path)
}

// performGracefulShutdown generalizes the teacher's 5-step shutdown
// sequence: cancel() triggers Server.Run's own shutdown() (step 2,
// notifying connected players and closing transports) before the
// WebSocket HTTP server is given its own bounded window to drain.
func performGracefulShutdown(cancel context.CancelFunc, httpServer *http.Server, cfg *config.Config) {
	log.Println("[1/2] stopping the event loop and notifying connected players...")
	cancel()

	if httpServer == nil {
		return
	}
	log.Println("[2/2] shutting down websocket bridge...")
	ctx, done := context.WithTimeout(context.Background(), time.Duration(cfg.ShutdownTimeoutSecs)*time.Second)
	defer done()
	if err := httpServer.Shutdown(ctx); err != nil {
		log.Printf("websocket server shutdown error: %v", err)
	}
}
