// Command barto-cli is the operator control-plane client: it opens a
// short-lived WebSocket session to bartos' /v1/ws/cli endpoint, sends one
// typed Cli request, prints the ServerToCli response, and exits. Grounded on
// _examples/teranos-QNTX/cmd/qntx/main.go's Cobra root command shape, with
// one subcommand per Cli request variant (SPEC_FULL.md §4).
package main

import (
	"encoding/json"
	"fmt"
	"net/url"
	"os"
	"time"

	"github.com/gorilla/websocket"
	"github.com/spf13/cobra"

	"github.com/rustyhorde/barto-sub000/barto/config"
	"github.com/rustyhorde/barto-sub000/barto/errors"
	"github.com/rustyhorde/barto-sub000/internal/codec"
	"github.com/rustyhorde/barto-sub000/internal/codec/wire"
)

var configPath string

var rootCmd = &cobra.Command{
	Use:   "barto-cli",
	Short: "operator control plane for barto",
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "path to barto.toml (defaults to built-in + environment)")

	rootCmd.AddCommand(infoCmd())
	rootCmd.AddCommand(updatesCmd())
	rootCmd.AddCommand(cleanupCmd())
	rootCmd.AddCommand(clientsCmd())
	rootCmd.AddCommand(queryCmd())
	rootCmd.AddCommand(listCmd())
	rootCmd.AddCommand(failedCmd())
}

func infoCmd() *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "info",
		Short: "show server info",
		RunE: func(cmd *cobra.Command, args []string) error {
			return roundTrip(codec.NewCliInfo(asJSON), printInfo)
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "request JSON-encoded info")
	return cmd
}

func updatesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "updates [worker-name]",
		Short: "show pending package updates for a worker",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return roundTrip(codec.NewCliUpdates(args[0]), printUpdates)
		},
	}
	return cmd
}

func cleanupCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "cleanup",
		Short: "delete retention-expired output/status records",
		RunE: func(cmd *cobra.Command, args []string) error {
			return roundTrip(codec.NewCliCleanup(), printCleanup)
		},
	}
}

func clientsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "clients",
		Short: "list currently connected workers",
		RunE: func(cmd *cobra.Command, args []string) error {
			return roundTrip(codec.NewCliClients(), printClients)
		},
	}
}

func queryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "query <expression>",
		Short: "run an ad-hoc query against the store (out of scope logic, returns an empty result)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return roundTrip(codec.NewCliQuery(args[0]), printQuery)
		},
	}
	return cmd
}

func listCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list <worker-name> <command-name>",
		Short: "list completion records for a scheduled command",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return roundTrip(codec.NewCliList(args[0], args[1]), printList)
		},
	}
	return cmd
}

func failedCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "failed",
		Short: "list recently failed command runs",
		RunE: func(cmd *cobra.Command, args []string) error {
			return roundTrip(codec.NewCliFailed(), printFailed)
		},
	}
}

func roundTrip(req codec.Cli, print func(codec.ServerToCli)) error {
	cfg, _, err := config.Load(configPath)
	if err != nil {
		return errors.Wrap(err, "failed to load configuration")
	}

	u, err := url.Parse(cfg.Worker.ServerURL)
	if err != nil {
		return errors.Wrapf(err, "invalid server_url %q", cfg.Worker.ServerURL)
	}
	u.Path = "/v1/ws/cli"
	q := u.Query()
	q.Set("name", "barto-cli")
	u.RawQuery = q.Encode()

	conn, _, err := websocket.DefaultDialer.Dial(u.String(), nil)
	if err != nil {
		return errors.Wrapf(err, "failed to connect to %s", u.String())
	}
	defer conn.Close()

	w := wire.NewWriter()
	if err := req.Encode(w); err != nil {
		return errors.Wrap(err, "failed to encode request")
	}
	if err := conn.WriteMessage(websocket.BinaryMessage, w.Bytes()); err != nil {
		return errors.Wrap(err, "failed to send request")
	}

	_ = conn.SetReadDeadline(time.Now().Add(10 * time.Second))
	_, payload, err := conn.ReadMessage()
	if err != nil {
		return errors.Wrap(err, "failed to read response")
	}

	var resp codec.ServerToCli
	if err := resp.Decode(wire.NewReader(payload)); err != nil {
		return errors.Wrap(err, "failed to decode response")
	}
	print(resp)
	return nil
}

func printInfo(resp codec.ServerToCli) {
	if resp.InfoJSON() != "" {
		fmt.Println(resp.InfoJSON())
		return
	}
	for k, v := range resp.Info() {
		fmt.Printf("%s: %s\n", k, v)
	}
}

func printUpdates(resp codec.ServerToCli) {
	u := resp.Updates()
	switch {
	case u.IsGaruda():
		for _, g := range u.Garuda() {
			fmt.Printf("%s/%s: %s -> %s\n", g.Channel, g.Package, g.OldVersion, g.NewVersion)
		}
	case u.IsPacman(), u.IsCachyos():
		p := u.Pacman()
		fmt.Printf("%d packages, %.2f MiB install size\n", p.UpdateCount, p.InstallSize)
	default:
		fmt.Println("no updates available")
	}
}

func printCleanup(resp codec.ServerToCli) {
	removed, kept := resp.Cleanup()
	fmt.Printf("removed=%d kept=%d\n", removed, kept)
}

func printClients(resp codec.ServerToCli) {
	for id, cd := range resp.Clients() {
		fmt.Printf("%s\t%s\t%s\n", id.String(), cd.Name, cd.IP)
	}
}

func printQuery(resp codec.ServerToCli) {
	b, _ := json.MarshalIndent(resp.Query(), "", "  ")
	fmt.Println(string(b))
}

func printList(resp codec.ServerToCli) {
	for _, lo := range resp.List() {
		fmt.Printf("exit=%d success=%d\n", lo.ExitCode, lo.Success)
	}
}

func printFailed(resp codec.ServerToCli) {
	for _, fo := range resp.Failed() {
		name := ""
		if fo.CmdName != nil {
			name = *fo.CmdName
		}
		fmt.Printf("%s exit=%d\n", name, fo.ExitCode)
	}
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
