package main

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/spf13/pflag"
	"golang.org/x/term"
	"golang.org/x/time/rate"

	"nas-media-catalog/internal/catalog"
	"nas-media-catalog/internal/database"
	"nas-media-catalog/internal/indexer"
	"nas-media-catalog/internal/logging"
	"nas-media-catalog/internal/startup"
	"nas-media-catalog/internal/upnp"
)

const (
	// Default timeout for database operations
	defaultTimeout = 30 * time.Second
	// Default database directory path
	defaultDatabaseDir = "./data"

	minPasswordLength = 6
)

var errUsage = errors.New("usage")

// passwordReader reads a password without echoing it.
type passwordReader func() ([]byte, error)

func readTerminalPassword() ([]byte, error) {
	return term.ReadPassword(int(os.Stdin.Fd()))
}

// app carries the streams and collaborators of one invocation.
type app struct {
	stdout       io.Writer
	stderr       io.Writer
	readPassword passwordReader
	discover     upnp.DiscoverFunc
	browser      indexer.Browser
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Command output goes to stdout; service logs only surface when asked for.
	logging.SetOutput(os.Stderr)
	if !logging.Configured() {
		logging.SetLevel(logging.LevelWarn)
	}

	a := &app{
		stdout:       os.Stdout,
		stderr:       os.Stderr,
		readPassword: readTerminalPassword,
		discover:     upnp.Discover,
	}
	os.Exit(a.run(ctx, os.Args[1:]))
}

// run executes a command and returns the process exit code.
func (a *app) run(ctx context.Context, args []string) int {
	if len(args) == 0 {
		a.printUsage(a.stderr)
		return 2
	}

	var err error
	switch args[0] {
	case "discover":
		err = a.discoverCmd(ctx, args[1:])
	case "scan":
		err = a.scanCmd(ctx, args[1:])
	case "playlists":
		err = a.playlistsCmd(ctx, args[1:])
	case "export":
		err = a.exportCmd(ctx, args[1:])
	case "password":
		err = a.passwordCmd(ctx, args[1:])
	case "help", "-h", "--help":
		a.printUsage(a.stdout)
		return 0
	default:
		fmt.Fprintf(a.stderr, "Unknown command: %s\n\n", sanitizeCommand(args[0]))
		a.printUsage(a.stderr)
		return 2
	}

	switch {
	case err == nil:
		return 0
	case errors.Is(err, pflag.ErrHelp):
		return 0
	case errors.Is(err, errUsage):
		return 2
	default:
		fmt.Fprintf(a.stderr, "Error: %v\n", err)
		return 1
	}
}

// sanitizeCommand replaces anything but [a-zA-Z0-9_-] with '_' before the
// command is echoed back.
func sanitizeCommand(cmd string) string {
	var b strings.Builder
	b.Grow(len(cmd))
	for _, r := range cmd {
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') || r == '-' || r == '_' {
			b.WriteRune(r)
		} else {
			b.WriteRune('_')
		}
	}
	return b.String()
}

func (a *app) printUsage(w io.Writer) {
	fmt.Fprintln(w, "NAS Media Catalog command line tool")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "Usage: catalogctl <command> [flags]")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "Commands:")
	fmt.Fprintln(w, "  discover           List UPnP media servers on the network")
	fmt.Fprintln(w, "  scan               Scan a media server into the catalog")
	fmt.Fprintln(w, "  playlists          List stored playlists")
	fmt.Fprintln(w, "  export <id>        Write a playlist as a VLC M3U document")
	fmt.Fprintln(w, "  password reset     Reset the password")
	fmt.Fprintln(w, "  password status    Check if a password is configured")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "Environment:")
	fmt.Fprintf(w, "  DATABASE_DIR - Path to database directory (default: %s)\n", defaultDatabaseDir)
	fmt.Fprintln(w, "  SMB_*        - SMB URL settings used by export")
}

func (a *app) newFlagSet(name string) *pflag.FlagSet {
	fs := pflag.NewFlagSet(name, pflag.ContinueOnError)
	fs.SetOutput(a.stderr)
	return fs
}

func databaseDirFlag(fs *pflag.FlagSet) *string {
	dir := os.Getenv("DATABASE_DIR")
	if dir == "" {
		dir = defaultDatabaseDir
	}
	return fs.StringP("database-dir", "d", dir, "database directory")
}

func (a *app) openDatabase(ctx context.Context, dir string) (*database.Database, func(), error) {
	db, err := database.New(ctx, filepath.Join(dir, startup.DatabaseFileName))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open database in %s: %w", dir, err)
	}
	closeDB := func() {
		if err := db.Close(); err != nil {
			fmt.Fprintf(a.stderr, "Warning: failed to close database: %v\n", err)
		}
	}
	return db, closeDB, nil
}

func (a *app) discoverCmd(ctx context.Context, args []string) error {
	fs := a.newFlagSet("discover")
	timeout := fs.DurationP("timeout", "t", 10*time.Second, "how long to collect SSDP responses")
	if err := fs.Parse(args); err != nil {
		return err
	}

	servers, err := a.discover(ctx, upnp.DiscoveryConfig{Timeout: *timeout})
	if err != nil {
		return fmt.Errorf("discovery failed: %w", err)
	}
	if len(servers) == 0 {
		fmt.Fprintln(a.stdout, "No UPnP media servers found")
		return nil
	}

	tw := tabwriter.NewWriter(a.stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "NAME\tMANUFACTURER\tMODEL\tLOCATION")
	for _, s := range servers {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", s.Name, dash(s.Manufacturer), dash(s.ModelName), s.Location)
	}
	return tw.Flush()
}

func (a *app) scanCmd(ctx context.Context, args []string) error {
	fs := a.newFlagSet("scan")
	dbDir := databaseDirFlag(fs)
	server := fs.StringP("server", "s", os.Getenv("UPNP_SERVER_NAME"), "media server name (substring match)")
	timeout := fs.DurationP("timeout", "t", 10*time.Second, "discovery timeout")
	depth := fs.Int("depth", indexer.DefaultMaxDepth, "maximum container depth")
	browseRate := fs.Int("rate", 20, "browse requests per second")
	if err := fs.Parse(args); err != nil {
		return err
	}

	db, closeDB, err := a.openDatabase(ctx, *dbDir)
	if err != nil {
		return err
	}
	defer closeDB()

	mgr := upnp.NewManager(upnp.DiscoveryConfig{Timeout: *timeout}, a.discover)
	connected, err := mgr.Connect(ctx, *server)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.stdout, "Scanning %s...\n", connected.Name)

	browser := a.browser
	if browser == nil {
		browser = upnp.NewClient(upnp.ClientOptions{RateLimit: rate.Limit(*browseRate)})
	}
	idx := indexer.New(db, browser, mgr, indexer.Config{MaxDepth: *depth, SMB: startup.SMBConfigFromEnv()})
	defer idx.Stop()

	result, err := idx.Index(ctx)
	if err != nil {
		return fmt.Errorf("scan failed: %w", err)
	}
	fmt.Fprintf(a.stdout, "Cached %d files (%d audio, %d video) in %v\n",
		result.Files, result.Audio, result.Video, result.Duration.Round(time.Millisecond))
	return nil
}

func (a *app) playlistsCmd(ctx context.Context, args []string) error {
	fs := a.newFlagSet("playlists")
	dbDir := databaseDirFlag(fs)
	if err := fs.Parse(args); err != nil {
		return err
	}

	db, closeDB, err := a.openDatabase(ctx, *dbDir)
	if err != nil {
		return err
	}
	defer closeDB()

	playlists, err := db.GetPlaylists(ctx)
	if err != nil {
		return err
	}
	if len(playlists) == 0 {
		fmt.Fprintln(a.stdout, "No playlists")
		return nil
	}

	tw := tabwriter.NewWriter(a.stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tITEMS\tUPDATED")
	for _, p := range playlists {
		fmt.Fprintf(tw, "%d\t%s\t%d\t%s\n", p.ID, p.Name, len(p.FilePaths), p.UpdatedAt.Local().Format(time.DateTime))
	}
	return tw.Flush()
}

func (a *app) exportCmd(ctx context.Context, args []string) error {
	fs := a.newFlagSet("export")
	dbDir := databaseDirFlag(fs)
	outDir := fs.StringP("output", "o", "", "write into this directory instead of stdout")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		fmt.Fprintln(a.stderr, "Usage: catalogctl export [flags] <playlist id>")
		return errUsage
	}
	id, err := strconv.ParseInt(fs.Arg(0), 10, 64)
	if err != nil || id <= 0 {
		return fmt.Errorf("invalid playlist id %q", fs.Arg(0))
	}

	db, closeDB, err := a.openDatabase(ctx, *dbDir)
	if err != nil {
		return err
	}
	defer closeDB()

	svc := catalog.NewService(db, catalog.Resolver{SMB: startup.SMBConfigFromEnv()})
	doc, err := svc.Document(ctx, id, "export")
	switch {
	case errors.Is(err, database.ErrNotFound):
		return fmt.Errorf("playlist %d not found", id)
	case err != nil:
		return err
	}
	if doc.Missing > 0 {
		fmt.Fprintf(a.stderr, "Warning: %d of %d items are no longer cached\n", doc.Missing, doc.Entries+doc.Missing)
	}

	if *outDir == "" {
		_, err := a.stdout.Write(doc.Body)
		return err
	}
	exporter, err := catalog.NewExporter(*outDir)
	if err != nil {
		return err
	}
	path, err := exporter.Export(doc)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.stdout, "Wrote %d entries to %s\n", doc.Entries, path)
	return nil
}

func (a *app) passwordCmd(ctx context.Context, args []string) error {
	fs := a.newFlagSet("password")
	dbDir := databaseDirFlag(fs)
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 || (fs.Arg(0) != "reset" && fs.Arg(0) != "status") {
		fmt.Fprintln(a.stderr, "Usage: catalogctl password [flags] reset|status")
		return errUsage
	}

	db, closeDB, err := a.openDatabase(ctx, *dbDir)
	if err != nil {
		return err
	}
	defer closeDB()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	if fs.Arg(0) == "status" {
		a.showStatus(ctx, db)
		return nil
	}
	return a.resetPassword(ctx, db)
}

func (a *app) resetPassword(ctx context.Context, db *database.Database) error {
	if !db.HasUsers(ctx) {
		return errors.New("no password configured yet, use the web interface to set up")
	}

	fmt.Fprint(a.stdout, "New Password: ")
	password, err := a.readPassword()
	fmt.Fprintln(a.stdout)
	if err != nil {
		return fmt.Errorf("reading password: %w", err)
	}

	fmt.Fprint(a.stdout, "Confirm Password: ")
	confirm, err := a.readPassword()
	fmt.Fprintln(a.stdout)
	if err != nil {
		return fmt.Errorf("reading password: %w", err)
	}

	if !bytes.Equal(password, confirm) {
		return errors.New("passwords do not match")
	}
	if len(password) < minPasswordLength {
		return fmt.Errorf("password must be at least %d characters", minPasswordLength)
	}

	if err := db.UpdatePassword(ctx, string(password)); err != nil {
		return fmt.Errorf("failed to update password: %w", err)
	}

	fmt.Fprintln(a.stdout, "Password updated successfully.")
	fmt.Fprintln(a.stdout, "All existing sessions have been invalidated.")
	return nil
}

func (a *app) showStatus(ctx context.Context, db *database.Database) {
	if db.HasUsers(ctx) {
		fmt.Fprintln(a.stdout, "Status: Password is configured")
	} else {
		fmt.Fprintln(a.stdout, "Status: No password configured (setup required)")
	}
}

func dash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
