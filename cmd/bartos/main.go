// Command bartos is the barto server: it accepts worker WebSocket sessions
// at /v1/ws/worker, pushes each one its schedule, persists streamed output
// records, and serves operator requests at /v1/ws/cli. Workers send no
// command status records, so the status table is not filled from worker
// sessions. Grounded on _examples/teranos-QNTX/cmd/qntx/main.go's Cobra root
// command; the logger is initialized at the top of RunE.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/rustyhorde/barto-sub000/barto/config"
	"github.com/rustyhorde/barto-sub000/barto/errors"
	"github.com/rustyhorde/barto-sub000/barto/logging"
	"github.com/rustyhorde/barto-sub000/barto/store"
	"github.com/rustyhorde/barto-sub000/internal/calendar"
	"github.com/rustyhorde/barto-sub000/internal/codec"
	"github.com/rustyhorde/barto-sub000/internal/codec/shared"
	"github.com/rustyhorde/barto-sub000/internal/codec/wire"
	"github.com/rustyhorde/barto-sub000/internal/dispatch"
	"github.com/rustyhorde/barto-sub000/internal/session"
)

var (
	configPath    string
	schedulesPath string
)

var rootCmd = &cobra.Command{
	Use:   "bartos",
	Short: "barto server: schedule distribution, output persistence, CLI control plane",
	RunE:  runServer,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "path to barto.toml (defaults to built-in + environment)")
	rootCmd.Flags().StringVar(&schedulesPath, "schedules", "", "path to a JSON schedules file loaded once at startup (schedules are never persisted or re-read afterward, per spec.md's non-goal)")
}

func loadSchedulesFile(path string) (calendar.Schedules, error) {
	var out calendar.Schedules
	if path == "" {
		return out, nil
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return out, errors.Wrapf(err, "failed to read schedules file %s", path)
	}
	if err := json.Unmarshal(b, &out); err != nil {
		return out, errors.Wrapf(err, "failed to parse schedules file %s", path)
	}
	if _, err := calendar.BuildRtMap(out); err != nil {
		return out, errors.Wrap(err, "schedules file contains an invalid on_calendar expression")
	}
	return out, nil
}

// serverState tracks live sessions so shutdown can drain them, grounded on
// _examples/teranos-QNTX/server/lifecycle.go's ServerState
// ({Running,Draining,Stopped}) echoed here at the process level
// (SPEC_FULL.md §4).
type serverState struct {
	mu       sync.Mutex
	sessions map[string]*session.Session
}

func newServerState() *serverState {
	return &serverState{sessions: make(map[string]*session.Session)}
}

func (s *serverState) track(id string, sess *session.Session) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[id] = sess
}

func (s *serverState) untrack(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, id)
}

// drain sends every live worker session a normal-closure frame and waits up
// to grace for them to finish, rather than dropping connections outright.
func (s *serverState) drain(grace time.Duration) {
	s.mu.Lock()
	sessions := make([]*session.Session, 0, len(s.sessions))
	for _, sess := range s.sessions {
		sessions = append(sessions, sess)
	}
	s.mu.Unlock()

	closeFrame := codec.NewWorkerToServerClose(true, websocket.CloseNormalClosure, "server shutting down")
	w := wire.NewWriter()
	if err := closeFrame.Encode(w); err == nil {
		for _, sess := range sessions {
			sess.Enqueue(w.Bytes())
		}
	}
	time.Sleep(grace)
}

// atomicSchedules holds the single active schedule set pushed to every
// connecting worker (spec §3 "Schedules").
type atomicSchedules struct {
	mu sync.RWMutex
	m  calendar.Schedules
}

func (a *atomicSchedules) Load() calendar.Schedules {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.m
}

func (a *atomicSchedules) Set(m calendar.Schedules) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.m = m
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

func workerHandler(state *serverState, schedules *atomicSchedules, db *store.Store, registry *dispatch.Registry) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			logging.Warnw("worker upgrade failed", "error", err)
			return
		}

		id := uuid.New()
		workerName := r.URL.Query().Get("name")
		registry.Insert(id, shared.ClientData{Name: workerName, IP: r.RemoteAddr})
		defer registry.Remove(id)

		handler := func(payload []byte) ([]byte, error) {
			var msg codec.WorkerToServer
			if err := msg.Decode(wire.NewReader(payload)); err != nil {
				return nil, errors.Wrap(err, "failed to decode WorkerToServer frame")
			}
			if msg.IsRecord() {
				out := msg.Record()
				if err := db.RecordOutput(workerName, "", out); err != nil {
					logging.Warnw("failed to persist output", "error", err)
				}
			}
			return nil, nil
		}

		sess := session.New(id, conn, handler)
		idStr := id.String()
		state.track(idStr, sess)
		defer state.untrack(idStr)

		sched := schedules.Load()
		schedulesJSON, err := json.Marshal(sched)
		if err != nil {
			logging.Errorw("failed to marshal schedules", "error", err)
			return
		}
		initMsg := codec.NewServerToWorkerInitialize(shared.Initialize{ID: shared.UUID{UUID: id}, SchedulesJSON: schedulesJSON})
		initWriter := wire.NewWriter()
		if err := initMsg.Encode(initWriter); err == nil {
			sess.Enqueue(initWriter.Bytes())
		}

		sess.Run(r.Context())
	}
}

func cliHandler(router *dispatch.Router) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			logging.Warnw("cli upgrade failed", "error", err)
			return
		}

		handler := func(payload []byte) ([]byte, error) {
			var req codec.Cli
			if err := req.Decode(wire.NewReader(payload)); err != nil {
				return nil, errors.Wrap(err, "failed to decode Cli frame")
			}
			resp := router.Dispatch(req)
			respWriter := wire.NewWriter()
			if err := resp.Encode(respWriter); err != nil {
				return nil, errors.Wrap(err, "failed to encode ServerToCli response")
			}
			return respWriter.Bytes(), nil
		}

		sess := session.New(uuid.New(), conn, handler)
		sess.Run(r.Context())
	}
}

func runServer(cmd *cobra.Command, args []string) error {
	cfg, v, err := config.Load(configPath)
	if err != nil {
		return errors.Wrap(err, "failed to load configuration")
	}
	if err := logging.Initialize(cfg.Server.LogJSON); err != nil {
		return errors.Wrap(err, "failed to initialize logger")
	}
	defer logging.Cleanup()

	db, err := store.Open(cfg.Server.DatabasePath)
	if err != nil {
		return errors.Wrapf(err, "failed to open store at %s", cfg.Server.DatabasePath)
	}
	defer db.Close()

	registry := dispatch.NewRegistry()
	handler := store.NewHandler(db, "0.1.0", nil)
	router := dispatch.NewRouter(handler, registry)
	state := newServerState()
	var schedules atomicSchedules
	initial, err := loadSchedulesFile(schedulesPath)
	if err != nil {
		return err
	}
	schedules.Set(initial)

	config.WatchReload(v, func(c *config.Config) {
		logging.Infow("configuration reloaded")
	})

	mux := http.NewServeMux()
	mux.HandleFunc("/v1/ws/worker", workerHandler(state, &schedules, db, registry))
	mux.HandleFunc("/v1/ws/cli", cliHandler(router))
	mux.Handle("/metrics", promhttp.HandlerFor(session.Registry(), promhttp.HandlerOpts{}))

	srv := &http.Server{Addr: cfg.Server.ListenAddr, Handler: mux}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM, syscall.SIGHUP)
	defer stop()

	go func() {
		logging.Infow("bartos listening", "addr", cfg.Server.ListenAddr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logging.Errorw("server error", "error", err)
		}
	}()

	<-ctx.Done()
	logging.Infow("draining sessions before shutdown")
	state.drain(2 * time.Second)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
