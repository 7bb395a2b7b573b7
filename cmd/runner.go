package main

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"
	"github.com/urfave/cli/v3"

	"cratedex/internal/collection"
	"cratedex/internal/formatter"
	"cratedex/internal/matching"
	"cratedex/internal/nml"
	"cratedex/internal/server"
	"cratedex/internal/sessions"
	"cratedex/internal/shared"
	"cratedex/internal/storage"
	"cratedex/internal/ui"
)

// Runner holds all dependencies for CLI commands and provides methods for each command action.
type Runner struct {
	config *shared.Config
	logger *log.Logger
	output io.Writer
	codec  *nml.Codec
}

// RunnerOpts contains configuration options for creating a Runner.
type RunnerOpts struct {
	Config *shared.Config
	Logger *log.Logger
	Output io.Writer
}

// NewRunner creates a new Runner with the provided configuration
func NewRunner(opts RunnerOpts) *Runner {
	if opts.Config == nil {
		opts.Config = shared.DefaultConfig()
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	if opts.Output == nil {
		opts.Output = os.Stdout
	}
	return &Runner{
		config: opts.Config,
		logger: opts.Logger,
		output: opts.Output,
		codec:  nml.NewCodec(opts.Logger),
	}
}

// loadTransient reads a document file into an in-memory engine.
func (r *Runner) loadTransient(ctx context.Context, path string) (*collection.Engine, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read document: %w", err)
	}

	engine := collection.NewEngine(collection.Options{
		Owner:  path,
		Mode:   collection.ModeTransient,
		Source: collection.BytesSource(data),
		Codec:  r.codec,
		Logger: r.logger,
	})
	if err := engine.Load(ctx); err != nil {
		return nil, err
	}
	return engine, nil
}

// requireArg returns the positional argument at idx or a usage error.
func requireArg(cmd *cli.Command, idx int, name string) (string, error) {
	arg := cmd.Args().Get(idx)
	if arg == "" {
		return "", fmt.Errorf("%w: %s", shared.ErrMissingArgument, name)
	}
	return arg, nil
}

// Serve starts the HTTP collection service.
func (r *Runner) Serve(ctx context.Context, cmd *cli.Command) error {
	if cmd.Bool("verbose") {
		shared.SetLogLevel(r.logger, log.DebugLevel)
	}
	logger := shared.WithLogger(r.logger, "component", "server")

	config := r.config
	if path := cmd.String("config"); path != "" {
		if loaded, err := shared.LoadConfig(path); err == nil {
			config = loaded
		}
	}

	host := config.Server.Host
	if cmd.String("host") != "" {
		host = cmd.String("host")
	}
	port := config.Server.Port
	if cmd.Int("port") != 0 {
		port = cmd.Int("port")
	}

	db, err := shared.NewDatabase(config.Storage.DatabasePath)
	if err != nil {
		return err
	}
	defer db.Close()
	shared.ConfigureDatabase(db, config.Storage.MaxOpenConns, config.Storage.MaxIdleConns)

	pointers := storage.NewPointerRepository(db)
	if err := pointers.Init(ctx); err != nil {
		return err
	}

	blobs, err := storage.NewFileBlobStore(config.Storage.BlobDir)
	if err != nil {
		return err
	}

	manager := sessions.NewManager(sessions.Options{
		MaxInstances: config.Library.MaxInstances,
		TTL:          config.Library.TTL(),
		Logger:       logger,
	})
	go manager.Run(ctx, config.Library.SweepInterval())

	handler := server.NewLibraryHandler(server.LibraryHandlerOpts{
		Sessions:  manager,
		Blobs:     blobs,
		Pointers:  pointers,
		Codec:     r.codec,
		Logger:    logger,
		Threshold: config.Matching.Threshold,
	})

	router := server.NewBasicRouter()
	router.Use(server.Logging(logger))
	if config.Server.RateLimitRPS > 0 {
		router.Use(server.RateLimit(config.Server.RateLimitRPS, config.Server.RateLimitBurst))
	}
	router.Handler(handler)

	addr := fmt.Sprintf("%s:%d", host, port)
	logger.Info("serving collection API", "addr", addr)

	srv := &http.Server{Addr: addr, Handler: router}
	go func() {
		<-ctx.Done()
		_ = srv.Close()
	}()
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Inspect prints the folder/playlist tree of a document.
func (r *Runner) Inspect(ctx context.Context, cmd *cli.Command) error {
	path, err := requireArg(cmd, 0, "document path")
	if err != nil {
		return err
	}

	engine, err := r.loadTransient(ctx, path)
	if err != nil {
		return err
	}
	sidebar, err := engine.GetSidebar()
	if err != nil {
		return err
	}

	fmt.Fprint(r.output, formatter.SidebarToText(sidebar))
	return nil
}

// Tracks exports the catalog as CSV.
func (r *Runner) Tracks(ctx context.Context, cmd *cli.Command) error {
	path, err := requireArg(cmd, 0, "document path")
	if err != nil {
		return err
	}

	engine, err := r.loadTransient(ctx, path)
	if err != nil {
		return err
	}
	tracks, err := engine.GetAllTracks()
	if err != nil {
		return err
	}

	data, err := formatter.TracksToCSV(tracks)
	if err != nil {
		return err
	}

	if out := cmd.String("output"); out != "" {
		return os.WriteFile(out, data, 0644)
	}
	_, err = r.output.Write(data)
	return err
}

// Comments prints the categorized comment report of a document.
func (r *Runner) Comments(ctx context.Context, cmd *cli.Command) error {
	path, err := requireArg(cmd, 0, "document path")
	if err != nil {
		return err
	}

	engine, err := r.loadTransient(ctx, path)
	if err != nil {
		return err
	}
	comments, err := engine.GetUniqueComments()
	if err != nil {
		return err
	}

	report := collection.CategorizeComments(comments)
	fmt.Fprint(r.output, formatter.CommentReportToText(report))
	return nil
}

// Orphans lists catalog tracks referenced by no playlist, optionally
// writing the document back with an orphans playlist added.
func (r *Runner) Orphans(ctx context.Context, cmd *cli.Command) error {
	path, err := requireArg(cmd, 0, "document path")
	if err != nil {
		return err
	}

	engine, err := r.loadTransient(ctx, path)
	if err != nil {
		return err
	}
	sidebar, err := engine.GetSidebar()
	if err != nil {
		return err
	}

	playlistPath, created, err := engine.CreateOrphansPlaylist(ctx, sidebar.Path, cmd.String("name"))
	if err != nil {
		return err
	}
	if !created {
		fmt.Fprintln(r.output, "no orphan tracks")
		return nil
	}

	tracks, err := engine.GetPlaylistTracks(playlistPath)
	if err != nil {
		return err
	}
	fmt.Fprintf(r.output, "%d orphan tracks:\n", len(tracks))
	for _, track := range tracks {
		fmt.Fprintf(r.output, "  %s - %s (%s)\n", track.Artist, track.Title, track.Key())
	}

	if out := cmd.String("output"); out != "" {
		data, err := engine.GetDocument(ctx)
		if err != nil {
			return err
		}
		return os.WriteFile(out, data, 0644)
	}
	return nil
}

// Match reconciles the catalogs of two documents.
func (r *Runner) Match(ctx context.Context, cmd *cli.Command) error {
	sourcePath, err := requireArg(cmd, 0, "source document")
	if err != nil {
		return err
	}
	targetPath, err := requireArg(cmd, 1, "target document")
	if err != nil {
		return err
	}

	source, err := r.loadDescriptors(ctx, sourcePath)
	if err != nil {
		return err
	}
	target, err := r.loadDescriptors(ctx, targetPath)
	if err != nil {
		return err
	}

	threshold := cmd.Int("threshold")
	if threshold <= 0 {
		threshold = r.config.Matching.Threshold
	}

	result := matching.Match(source, target, threshold)
	fmt.Fprint(r.output, formatter.MatchResultToText(result))
	return nil
}

func (r *Runner) loadDescriptors(ctx context.Context, path string) ([]matching.Descriptor, error) {
	engine, err := r.loadTransient(ctx, path)
	if err != nil {
		return nil, err
	}
	tracks, err := engine.GetAllTracks()
	if err != nil {
		return nil, err
	}

	descriptors := make([]matching.Descriptor, len(tracks))
	for i, track := range tracks {
		descriptors[i] = matching.NewDescriptor(track.Key(), track.Artist, track.Title)
	}
	return descriptors, nil
}

// Browse opens the TUI browser over a document.
func (r *Runner) Browse(ctx context.Context, cmd *cli.Command) error {
	path, err := requireArg(cmd, 0, "document path")
	if err != nil {
		return err
	}

	engine, err := r.loadTransient(ctx, path)
	if err != nil {
		return err
	}

	program := tea.NewProgram(ui.NewModel(engine), tea.WithAltScreen())
	_, err = program.Run()
	return err
}

// Init writes the example config file.
func (r *Runner) Init(ctx context.Context, cmd *cli.Command) error {
	path := cmd.String("path")
	if err := shared.CreateConfigFile(path); err != nil {
		return err
	}
	fmt.Fprintf(r.output, "wrote %s\n", path)
	return nil
}
