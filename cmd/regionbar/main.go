package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"

	"github.com/joho/godotenv"

	"github.com/1broseidon/regionbar/internal/config"
	"github.com/1broseidon/regionbar/internal/ipc"
	"github.com/1broseidon/regionbar/internal/tui"
)

func main() {
	// A .env in the working directory may set REGIONBAR_CONFIG or REGIONBAR_SOCKET.
	_ = godotenv.Load()

	if len(os.Args) < 2 {
		printMainUsage(os.Stdout)
		os.Exit(0)
	}

	switch os.Args[1] {
	case "daemon":
		os.Exit(runDaemon(os.Args[2:]))
	case "status":
		os.Exit(runStatus(os.Args[2:]))
	case "windows":
		os.Exit(runWindows(os.Args[2:]))
	case "regions":
		os.Exit(runRegions(os.Args[2:]))
	case "fit":
		os.Exit(runFit(os.Args[2:]))
	case "group":
		os.Exit(runGroup(os.Args[2:]))
	case "activate":
		os.Exit(runActivate(os.Args[2:]))
	case "compact":
		os.Exit(runCompact(os.Args[2:]))
	case "reload":
		os.Exit(runReload(os.Args[2:]))
	case "config":
		os.Exit(runConfig(os.Args[2:]))
	case "tui":
		os.Exit(runTUI(os.Args[2:]))
	case "mcp":
		os.Exit(runMCP(os.Args[2:]))
	case "help", "-h", "--help":
		printMainUsage(os.Stdout)
		os.Exit(0)
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", os.Args[1])
		printMainUsage(os.Stderr)
		os.Exit(2)
	}
}

func printMainUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage: regionbar <command> [options]")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "Commands:")
	fmt.Fprintln(w, "  daemon              Start the regionbar daemon (foreground)")
	fmt.Fprintln(w, "  status              Show daemon status")
	fmt.Fprintln(w, "  windows             List tracked windows")
	fmt.Fprintln(w, "  regions             List regions and their windows")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "  fit <region>        Resize every window in a region to fill it")
	fmt.Fprintln(w, "  group               Snap every window into its region")
	fmt.Fprintln(w, "  activate <id>       Bring a window to the foreground")
	fmt.Fprintln(w, "  compact <id> [reg]  Toggle compact mode and refit a window")
	fmt.Fprintln(w, "  reload              Reload daemon configuration")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "  config validate     Validate configuration")
	fmt.Fprintln(w, "  config print        Print configuration")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "  tui                 Open live region view")
	fmt.Fprintln(w, "  mcp serve           Start MCP server (stdio transport)")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "Run 'regionbar <command> --help' for command-specific options.")
}

// newFlagSet returns a flag set whose usage prints usage followed by the
// command description.
func newFlagSet(name, usage, desc string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	fs.Usage = func() {
		fmt.Fprintln(os.Stderr, "Usage: "+usage)
		fmt.Fprintln(os.Stderr, "")
		fmt.Fprintln(os.Stderr, desc)
		fs.PrintDefaults()
	}
	return fs
}

// parseArgs parses args and checks the positional count is within [min, max].
// It returns an exit code and false when the command should stop.
func parseArgs(fs *flag.FlagSet, args []string, min, max int) (int, bool) {
	if err := fs.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return 0, false
		}
		return 2, false
	}
	if fs.NArg() < min || fs.NArg() > max {
		fmt.Fprintf(os.Stderr, "%s: wrong number of arguments\n", fs.Name())
		fs.Usage()
		return 2, false
	}
	return 0, true
}

func parseWindowID(s string) (uint32, error) {
	id, err := strconv.ParseUint(s, 0, 32)
	if err != nil || id == 0 {
		return 0, fmt.Errorf("invalid window id %q", s)
	}
	return uint32(id), nil
}

func printJSON(v any) int {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	return 0
}

func runStatus(args []string) int {
	fs := newFlagSet("status", "regionbar status", "Show daemon status via IPC.")
	if code, ok := parseArgs(fs, args, 0, 0); !ok {
		return code
	}

	status, err := ipc.NewClient().GetStatus()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	fmt.Printf("daemon_running: %v\n", status.DaemonRunning)
	fmt.Printf("window_count:   %d\n", status.WindowCount)
	fmt.Printf("region_count:   %d\n", status.RegionCount)
	fmt.Printf("foreground:     0x%x\n", status.Foreground)
	fmt.Printf("cycles:         %d\n", status.Cycles)
	fmt.Printf("pending_icons:  %d\n", status.PendingIcons)
	fmt.Printf("uptime_seconds: %d\n", status.UptimeSeconds)
	return 0
}

func runWindows(args []string) int {
	fs := newFlagSet("windows", "regionbar windows [--json]", "List every window the daemon tracks.")
	asJSON := fs.Bool("json", false, "Print JSON")
	if code, ok := parseArgs(fs, args, 0, 0); !ok {
		return code
	}

	data, err := ipc.NewClient().ListWindows()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	if *asJSON {
		return printJSON(data)
	}
	for _, w := range data.Windows {
		region := w.Region
		if region == "" {
			region = "-"
		}
		flags := ""
		if w.Compact {
			flags += " compact"
		}
		if !w.Manageable {
			flags += " unmanaged"
		}
		fmt.Printf("0x%08x  %-8s %-20s %-12s %s%s\n", w.ID, region, w.Bounds.String(), moduleOf(w), w.Title, flags)
	}
	return 0
}

func moduleOf(w ipc.WindowData) string {
	if w.Executable == "" {
		return "-"
	}
	return filepath.Base(w.Executable)
}

func runRegions(args []string) int {
	fs := newFlagSet("regions", "regionbar regions [--json]", "List regions with their manageable windows.")
	asJSON := fs.Bool("json", false, "Print JSON")
	if code, ok := parseArgs(fs, args, 0, 0); !ok {
		return code
	}

	data, err := ipc.NewClient().ListRegions()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	if *asJSON {
		return printJSON(data)
	}
	for _, r := range data.Regions {
		fmt.Printf("%s  %s  (%d windows)\n", r.Name, r.Bounds.String(), len(r.Windows))
		for _, w := range r.Windows {
			marker := " "
			if w.ID == r.LastActive {
				marker = "*"
			}
			fmt.Printf("  %s 0x%08x  %s\n", marker, w.ID, w.Title)
		}
	}
	return 0
}

func runFit(args []string) int {
	fs := newFlagSet("fit", "regionbar fit <region>", "Resize every manageable window in a region to fill it.")
	if code, ok := parseArgs(fs, args, 1, 1); !ok {
		return code
	}

	n, err := ipc.NewClient().FitRegion(fs.Arg(0))
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	fmt.Printf("fitted %d window(s) in %s\n", n, fs.Arg(0))
	return 0
}

func runGroup(args []string) int {
	fs := newFlagSet("group", "regionbar group", "Snap every manageable window into the region its center lies in.")
	if code, ok := parseArgs(fs, args, 0, 0); !ok {
		return code
	}

	n, err := ipc.NewClient().Group()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	fmt.Printf("grouped %d window(s)\n", n)
	return 0
}

func runActivate(args []string) int {
	fs := newFlagSet("activate", "regionbar activate <id>", "Bring a window to the foreground. Ids accept decimal or 0x-prefixed hex.")
	if code, ok := parseArgs(fs, args, 1, 1); !ok {
		return code
	}
	id, err := parseWindowID(fs.Arg(0))
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 2
	}

	if err := ipc.NewClient().Activate(id); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	return 0
}

func runCompact(args []string) int {
	fs := newFlagSet("compact", "regionbar compact <id> [region]", "Toggle compact mode for a window and refit it into a region (default: its own).")
	if code, ok := parseArgs(fs, args, 1, 2); !ok {
		return code
	}
	id, err := parseWindowID(fs.Arg(0))
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 2
	}

	data, err := ipc.NewClient().ToggleCompact(id, fs.Arg(1))
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	fmt.Printf("compact=%v region=%s\n", data.Compact, data.Region)
	return 0
}

func runReload(args []string) int {
	fs := newFlagSet("reload", "regionbar reload", "Ask the daemon to re-read its configuration.")
	if code, ok := parseArgs(fs, args, 0, 0); !ok {
		return code
	}

	if err := ipc.NewClient().Reload(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	fmt.Println("config reloaded")
	return 0
}

func loadConfig(path string) (*config.LoadResult, error) {
	if path == "" {
		return config.LoadWithSources()
	}
	return config.LoadFromPath(path)
}

func runConfig(args []string) int {
	if len(args) == 0 || args[0] == "help" || args[0] == "-h" || args[0] == "--help" {
		fmt.Fprintln(os.Stderr, "Usage:")
		fmt.Fprintln(os.Stderr, "  regionbar config validate [--path PATH]")
		fmt.Fprintln(os.Stderr, "  regionbar config print [--path PATH] [--defaults]")
		return 2
	}

	switch args[0] {
	case "validate":
		fs := flag.NewFlagSet("validate", flag.ContinueOnError)
		fs.SetOutput(os.Stderr)
		path := fs.String("path", "", "Config file path (default: ~/.config/regionbar/config.yaml)")
		if err := fs.Parse(args[1:]); err != nil {
			return 2
		}

		res, err := loadConfig(*path)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			return 1
		}
		for _, f := range res.Files {
			fmt.Printf("# loaded: %s\n", f)
		}
		fmt.Println("config: ok")
		return 0

	case "print":
		fs := flag.NewFlagSet("print", flag.ContinueOnError)
		fs.SetOutput(os.Stderr)
		path := fs.String("path", "", "Config file path (default: ~/.config/regionbar/config.yaml)")
		printDefaults := fs.Bool("defaults", false, "Print built-in defaults (no files)")
		if err := fs.Parse(args[1:]); err != nil {
			return 2
		}

		cfg := config.DefaultConfig()
		if !*printDefaults {
			res, err := loadConfig(*path)
			if err != nil {
				fmt.Fprintln(os.Stderr, err)
				return 1
			}
			fmt.Printf("# log_level from %s\n", formatSource(res.Source("log_level")))
			cfg = res.Config
		}
		data, err := cfg.Marshal()
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			return 1
		}
		fmt.Print(string(data))
		return 0

	default:
		fmt.Fprintf(os.Stderr, "Unknown config subcommand: %s\n", args[0])
		return 2
	}
}

func formatSource(src config.Source) string {
	switch src.Kind {
	case config.SourceFile:
		if src.File == "" {
			return "file"
		}
		if src.Line > 0 {
			return fmt.Sprintf("file:%s:%d:%d", src.File, src.Line, src.Column)
		}
		return "file:" + src.File
	case config.SourceDefault:
		return "default"
	default:
		return string(src.Kind)
	}
}

func runTUI(args []string) int {
	if len(args) > 0 && (args[0] == "help" || args[0] == "-h" || args[0] == "--help") {
		fmt.Fprintln(os.Stderr, "Usage: regionbar tui")
		fmt.Fprintln(os.Stderr, "")
		fmt.Fprintln(os.Stderr, "Live view of regions and their windows. Refreshes every second.")
		fmt.Fprintln(os.Stderr, "")
		fmt.Fprintln(os.Stderr, "Keybindings:")
		fmt.Fprintln(os.Stderr, "  ←/→, h/l  Select region")
		fmt.Fprintln(os.Stderr, "  f         Fit windows of the selected region")
		fmt.Fprintln(os.Stderr, "  g         Group all windows into their regions")
		fmt.Fprintln(os.Stderr, "  r         Refresh now")
		fmt.Fprintln(os.Stderr, "  q, Ctrl+C Quit")
		return 0
	}
	if len(args) > 0 {
		fmt.Fprintln(os.Stderr, "tui takes no arguments")
		return 2
	}

	if err := tui.Run(ipc.NewClient()); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	return 0
}
