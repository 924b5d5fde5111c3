package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"time"

	"github.com/cbodonnell/snapsync/pkg/client"
	"github.com/cbodonnell/snapsync/pkg/log"
	"github.com/cbodonnell/snapsync/pkg/savegame"
	"github.com/cbodonnell/snapsync/pkg/snapshots"
	"github.com/cbodonnell/snapsync/pkg/state"
	"github.com/cbodonnell/snapsync/pkg/version"
	"github.com/cbodonnell/snapsync/pkg/workers"
)

const defaultSlot = "snapshotTemp"

const usage = `usage: snapsync [flags] <command> [args]

commands:
  show                          print the local progress
  set <world> <level> <stars>   record stars for a level locally
  sync                          merge the local progress with the cloud snapshot
  list                          list the cloud snapshots
  delete                        delete the cloud snapshot
  login <email> <password>      print a token for -token
  version                       print the client version

flags:
`

func main() {
	serverURL := flag.String("server", client.DefaultServerURL, "snapshot server URL")
	token := flag.String("token", os.Getenv("SNAPSYNC_TOKEN"), "bearer token, defaults to $SNAPSYNC_TOKEN")
	cache := flag.String("cache", defaultCachePath(), "local progress file")
	slot := flag.String("slot", defaultSlot, "unique name of the cloud snapshot")
	logLevel := flag.String("log-level", "warn", "Log level")
	flag.Usage = func() {
		fmt.Fprint(flag.CommandLine.Output(), usage)
		flag.PrintDefaults()
	}
	flag.Parse()

	parsedLogLevel, err := log.ParseLogLevel(*logLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to parse log level: %v\n", err)
		os.Exit(2)
	}
	log.SetDefaultLogger(log.New(os.Stderr, "", log.DefaultLoggerFlag, parsedLogLevel))

	args := flag.Args()
	if len(args) == 0 {
		flag.Usage()
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	progress := state.NewFileProgressManager(*cache)
	newCoordinator := func() *snapshots.Coordinator {
		return snapshots.NewCoordinator(client.NewHTTPClient(client.NewHTTPClientOptions{
			ServerURL: *serverURL,
			Token:     *token,
		}))
	}

	switch args[0] {
	case "show":
		err = show(ctx, progress)
	case "set":
		err = set(ctx, progress, args[1:])
	case "sync":
		err = sync(ctx, newCoordinator(), progress, *slot)
	case "list":
		err = list(ctx, newCoordinator())
	case "delete":
		err = remove(ctx, newCoordinator(), *slot)
	case "login":
		err = login(ctx, *serverURL, args[1:])
	case "version":
		fmt.Println(version.Get())
	default:
		flag.Usage()
		os.Exit(2)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "%s: %v\n", args[0], err)
		os.Exit(1)
	}
}

func defaultCachePath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "snapsync-progress.json"
	}
	return filepath.Join(dir, "snapsync", "progress.json")
}

func show(ctx context.Context, progress state.ProgressManager) error {
	p, err := progress.Get(ctx)
	if err != nil {
		return err
	}
	for _, l := range p.Levels() {
		fmt.Printf("%-6s %d\n", l, p.Stars(l.World, l.Level))
	}
	fmt.Printf("total  %d\n", p.TotalStars())
	return nil
}

func set(ctx context.Context, progress state.ProgressManager, args []string) error {
	if len(args) != 3 {
		return fmt.Errorf("expected <world> <level> <stars>")
	}
	n := make([]int, len(args))
	for i, arg := range args {
		v, err := strconv.Atoi(arg)
		if err != nil {
			return fmt.Errorf("invalid number %q", arg)
		}
		n[i] = v
	}
	if n[2] < savegame.MinStars || n[2] > savegame.MaxStars {
		return fmt.Errorf("stars must be between %d and %d", savegame.MinStars, savegame.MaxStars)
	}

	p, err := progress.Get(ctx)
	if err != nil {
		return err
	}
	if err := p.SetStars(n[0], n[1], n[2]); err != nil {
		return err
	}
	return progress.Set(ctx, p)
}

func sync(ctx context.Context, coordinator *snapshots.Coordinator, progress state.ProgressManager, slot string) error {
	worker := workers.NewSyncWorker(workers.NewSyncWorkerOptions{
		Coordinator: coordinator,
		Progress:    progress,
		Slot:        slot,
	})
	if err := worker.Sync(ctx); err != nil {
		return err
	}
	p, err := progress.Get(ctx)
	if err != nil {
		return err
	}
	fmt.Printf("synced %s, %d stars\n", slot, p.TotalStars())
	return nil
}

func list(ctx context.Context, coordinator *snapshots.Coordinator) error {
	mds, err := coordinator.Load(ctx, true)
	if err != nil {
		return err
	}
	for _, md := range mds {
		fmt.Printf("%s\trev %d\t%d stars\t%s\t%s\n", md.UniqueName, md.Revision, md.ProgressValue,
			md.LastModified.Local().Format(time.DateTime), md.Description)
	}
	return nil
}

func remove(ctx context.Context, coordinator *snapshots.Coordinator, slot string) error {
	task, err := coordinator.Delete(ctx, &snapshots.Metadata{UniqueName: slot})
	if err != nil {
		return err
	}
	id, err := task.Await(ctx)
	if err != nil {
		return err
	}
	fmt.Printf("deleted %s (%s)\n", slot, id)
	return nil
}

func login(ctx context.Context, serverURL string, args []string) error {
	if len(args) != 2 {
		return fmt.Errorf("expected <email> <password>")
	}
	token, err := client.Login(ctx, serverURL, args[0], args[1])
	if err != nil {
		return err
	}
	fmt.Println(token.IDToken)
	return nil
}
