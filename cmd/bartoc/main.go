// Command bartoc is a barto worker: it holds a persistent WebSocket session
// to bartos, receives its schedule on connect, and fires shell commands at
// the scheduled wall-clock instants, streaming their output lines back. A
// command's exit status is logged locally and is not sent to the server.
// Grounded on _examples/teranos-QNTX/cmd/qntx/main.go's Cobra root
// command shape.
package main

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"os"
	"os/exec"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/spf13/cobra"

	"github.com/rustyhorde/barto-sub000/barto/config"
	"github.com/rustyhorde/barto-sub000/barto/errors"
	"github.com/rustyhorde/barto-sub000/barto/logging"
	"github.com/rustyhorde/barto-sub000/internal/calendar"
	"github.com/rustyhorde/barto-sub000/internal/codec"
	"github.com/rustyhorde/barto-sub000/internal/codec/shared"
	"github.com/rustyhorde/barto-sub000/internal/codec/wire"
	"github.com/rustyhorde/barto-sub000/internal/scheduler"
	"github.com/rustyhorde/barto-sub000/internal/session"
)

var configPath string

var rootCmd = &cobra.Command{
	Use:   "bartoc",
	Short: "barto worker: receives a schedule and fires its commands",
	RunE:  runWorker,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "path to barto.toml (defaults to built-in + environment)")
}

// shellRunner executes cmd through the host shell, streaming combined
// stdout/stderr lines to emit as they arrive (spec §4.E "Dispatch
// discipline"). os/exec is stdlib; none of the example repos carry a
// process-supervision library that fits a one-shot command-runner shape
// (QNTX's own job execution is in-process function dispatch, not shelling
// out), so this is a deliberate standard-library component (DESIGN.md).
func shellRunner(ctx context.Context, cmdStr string, emit func(line string, isStderr bool)) (int, error) {
	cmd := exec.CommandContext(ctx, "sh", "-c", cmdStr)

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return -1, errors.Wrap(err, "failed to open stdout pipe")
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return -1, errors.Wrap(err, "failed to open stderr pipe")
	}

	if err := cmd.Start(); err != nil {
		return -1, errors.Wrapf(err, "failed to start command %q", cmdStr)
	}

	done := make(chan struct{}, 2)
	streamLines := func(scanner *bufio.Scanner, isStderr bool) {
		for scanner.Scan() {
			emit(scanner.Text(), isStderr)
		}
		done <- struct{}{}
	}
	go streamLines(bufio.NewScanner(stdout), false)
	go streamLines(bufio.NewScanner(stderr), true)
	<-done
	<-done

	err = cmd.Wait()
	exitCode := 0
	if exitErr, ok := err.(*exec.ExitError); ok {
		exitCode = exitErr.ExitCode()
		err = nil
	} else if err != nil {
		exitCode = -1
	}
	return exitCode, err
}

func runWorker(cmd *cobra.Command, args []string) error {
	cfg, _, err := config.Load(configPath)
	if err != nil {
		return errors.Wrap(err, "failed to load configuration")
	}
	if err := logging.Initialize(cfg.Worker.LogJSON); err != nil {
		return errors.Wrap(err, "failed to initialize logger")
	}
	defer logging.Cleanup()

	u, err := url.Parse(cfg.Worker.ServerURL)
	if err != nil {
		return errors.Wrapf(err, "invalid server_url %q", cfg.Worker.ServerURL)
	}
	u.Path = "/v1/ws/worker"
	if cfg.Worker.Name != "" {
		q := u.Query()
		q.Set("name", cfg.Worker.Name)
		u.RawQuery = q.Encode()
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM, syscall.SIGHUP)
	defer stop()

	conn, _, err := websocket.DefaultDialer.DialContext(ctx, u.String(), nil)
	if err != nil {
		return errors.Wrapf(err, "failed to connect to %s", u.String())
	}

	var sched *scheduler.Scheduler

	handler := func(payload []byte) ([]byte, error) {
		var msg codec.ServerToWorker
		if err := msg.Decode(wire.NewReader(payload)); err != nil {
			return nil, errors.Wrap(err, "failed to decode ServerToWorker frame")
		}
		var schedules calendar.Schedules
		if err := json.Unmarshal(msg.Initialize().SchedulesJSON, &schedules); err != nil {
			return nil, errors.Wrap(err, "failed to parse schedules payload")
		}
		rtMap, err := calendar.BuildRtMap(schedules)
		if err != nil {
			logging.Warnw("received schedule with invalid on_calendar expression", "error", err)
			return nil, nil
		}
		sched.Initialize(rtMap)
		logging.Infow("schedule initialized", "matchers", rtMap.Len())
		return nil, nil
	}

	sess := session.New(uuid.New(), conn, handler)

	sched = scheduler.New(shellRunner, scheduler.DefaultConfig(), func(cmdName, line string, isStderr bool, exitCode *int) {
		if exitCode == nil {
			out := shared.Output{
				Timestamp: shared.Timestamp{Time: time.Now().UTC()},
				UUID:      shared.UUID{UUID: uuid.New()},
				Kind:      outputKind(isStderr),
				Data:      line,
			}
			w := wire.NewWriter()
			if err := codec.NewWorkerToServerRecord(out).Encode(w); err == nil {
				sess.Enqueue(w.Bytes())
			}
			return
		}
		logging.Infow("command completed", "cmd", cmdName, "exit_code", *exitCode)
	})

	sched.Start(ctx)
	defer sched.Stop()

	sess.Run(ctx)
	return nil
}

func outputKind(isStderr bool) shared.OutputKind {
	if isStderr {
		return shared.OutputStderr
	}
	return shared.OutputStdout
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
