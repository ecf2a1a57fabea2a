package main

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/intmo/internal/auth"
	"github.com/desertthunder/intmo/internal/player"
	"github.com/desertthunder/intmo/internal/secrets"
	"github.com/desertthunder/intmo/internal/server"
	"github.com/desertthunder/intmo/internal/services"
	"github.com/desertthunder/intmo/internal/shared"
	"github.com/desertthunder/intmo/internal/ui"
	"github.com/urfave/cli/v3"
)

// Runner holds all dependencies for CLI commands and provides methods for each command action.
//
// Collaborators left nil in [RunnerOpts] are built from the configuration on first use.
type Runner struct {
	config     *shared.Config
	configPath string
	httpClient *http.Client
	logger     *log.Logger
	output     io.Writer
	input      io.Reader

	store     secrets.Store
	backend   string
	provider  auth.Provider
	opener    auth.Opener
	registrar auth.CallbackRegistrar
	service   services.PlayerService
	selector  player.DeviceSelector

	session *auth.Session
	player  *player.Controller
}

// RunnerOpts contains configuration options for creating a Runner.
type RunnerOpts struct {
	Config     *shared.Config
	ConfigPath string
	HTTPClient *http.Client
	Logger     *log.Logger
	Output     io.Writer
	Input      io.Reader

	Store     secrets.Store
	Provider  auth.Provider
	Opener    auth.Opener
	Registrar auth.CallbackRegistrar
	Service   services.PlayerService
	Selector  player.DeviceSelector
}

// NewRunner creates a new Runner with the provided configuration
func NewRunner(opts RunnerOpts) *Runner {
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	if opts.Output == nil {
		opts.Output = os.Stdout
	}
	if opts.Input == nil {
		opts.Input = os.Stdin
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = http.DefaultClient
	}
	if opts.Selector == nil {
		opts.Selector = ui.TerminalSelector{In: opts.Input, Out: opts.Output}
	}

	r := &Runner{
		config:     opts.Config,
		configPath: opts.ConfigPath,
		httpClient: opts.HTTPClient,
		logger:     opts.Logger,
		output:     opts.Output,
		input:      opts.Input,
		store:      opts.Store,
		provider:   opts.Provider,
		opener:     opts.Opener,
		registrar:  opts.Registrar,
		service:    opts.Service,
		selector:   opts.Selector,
	}
	if r.store != nil {
		r.backend = "injected"
	}
	return r
}

func (r *Runner) register() []*cli.Command {
	commands := []*cli.Command{}
	for _, fn := range [](func(*Runner) *cli.Command){
		setupCommand, authCommand, nowCommand, searchCommand, devicesCommand, playerCommand,
	} {
		commands = append(commands, fn(r))
	}
	commands = append(commands, playbackCommands(r)...)

	return commands
}

// Before applies global flags and resolves the configuration.
func (r *Runner) Before(ctx context.Context, cmd *cli.Command) (context.Context, error) {
	if cmd.Bool("verbose") {
		shared.SetLogLevel(r.logger, log.DebugLevel)
	}

	if r.configPath == "" {
		r.configPath = cmd.String("config")
	}

	if r.config == nil {
		config, err := shared.ResolveConfig(r.configPath)
		if err != nil {
			return ctx, err
		}
		r.config = config
	}
	return ctx, nil
}

// SetLogger replaces the logger, e.g. to keep log output away from the TUI.
func (r *Runner) SetLogger(logger *log.Logger) {
	r.logger = logger
}

// Close releases the secret store.
func (r *Runner) Close() {
	if r.store == nil {
		return
	}
	if err := r.store.Close(); err != nil {
		r.logger.Warn("failed to close secret store", "error", err)
	}
}

// openStore returns the configured secret store, opening it on first use.
func (r *Runner) openStore(ctx context.Context) (secrets.Store, error) {
	if r.store != nil {
		return r.store, nil
	}
	if r.config == nil {
		return nil, fmt.Errorf("%w: configuration not loaded", shared.ErrMissingConfig)
	}

	store, backend, err := secrets.Open(ctx, r.config, r.logger)
	if err != nil {
		return nil, fmt.Errorf("failed to open secret store: %w", err)
	}
	r.logger.Debug("opened secret store", "backend", backend)

	r.store, r.backend = store, backend
	return store, nil
}

// clientConfig merges the configured client with credentials from the secret store.
func (r *Runner) clientConfig(ctx context.Context) (auth.ClientConfig, error) {
	store, err := r.openStore(ctx)
	if err != nil {
		return auth.ClientConfig{}, err
	}

	spotify := r.config.Credentials.Spotify
	return auth.ResolveClientConfig(ctx, store, auth.ClientConfig{
		ClientID:     spotify.ClientID,
		ClientSecret: spotify.ClientSecret,
		RedirectURI:  spotify.RedirectURI,
		Scopes:       spotify.Scopes,
	})
}

// newSession builds the auth session and its collaborators. Nothing is contacted until the
// session is restored.
func (r *Runner) newSession(ctx context.Context, cmd *cli.Command) (*auth.Session, error) {
	if r.session != nil {
		return r.session, nil
	}

	store, err := r.openStore(ctx)
	if err != nil {
		return nil, err
	}

	provider := r.provider
	if provider == nil {
		client, err := r.clientConfig(ctx)
		if err != nil {
			return nil, err
		}
		provider = services.NewOAuthProvider(client, services.WithOAuthHTTPClient(r.httpClient))
	}

	registrar := r.registrar
	if registrar == nil {
		if cmd.Bool("paste") {
			registrar = server.NewPasteAcceptor(r.input, r.output)
		} else {
			registrar = server.NewCallbackServer(r.config.Server.Addr(), r.config.CallbackPath(), r.logger)
		}
	}

	opener := r.opener
	if opener == nil {
		opener = shared.NewBrowserOpener(r.output, cmd.Bool("no-browser"))
	}

	session, err := auth.NewSession(auth.Options{
		Store:     store,
		Provider:  provider,
		Opener:    opener,
		Registrar: registrar,
		Logger:    r.logger,
		Timeout:   r.config.Auth.Timeout,
	})
	if err != nil {
		return nil, err
	}

	r.session = session
	return session, nil
}

// connect restores (or interactively creates) the session and returns the player controller.
func (r *Runner) connect(ctx context.Context, cmd *cli.Command) (*player.Controller, error) {
	if r.player != nil {
		return r.player, nil
	}

	session, err := r.newSession(ctx, cmd)
	if err != nil {
		return nil, err
	}

	tokens, err := session.RestoreOrAuthenticate(ctx)
	if err != nil {
		return nil, err
	}

	svc := r.service
	if svc == nil {
		svc = services.NewSpotifyService(tokens,
			services.WithHTTPClient(r.httpClient),
			services.WithRateLimit(r.config.Player.RateLimit),
			services.WithLogger(r.logger))
		r.service = svc
	}

	r.player = player.NewController(session, svc, r.logger)
	return r.player, nil
}

// ensureDevice makes sure a device is active before a transport command, prompting for one
// when needed.
func (r *Runner) ensureDevice(ctx context.Context, p *player.Controller) error {
	device, err := p.EnsureActiveDevice(ctx, r.selector)
	if err != nil {
		return err
	}
	r.logger.Debug("active device", "name", device.Name)
	return nil
}

func (r *Runner) writeJSON(data any, pretty bool) error {
	output, err := shared.MarshalJSON(data, pretty)
	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}

	if _, err := r.output.Write(output); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}

	if _, err := r.output.Write([]byte("\n")); err != nil {
		return fmt.Errorf("failed to write newline: %w", err)
	}

	return nil
}

func (r *Runner) writePlain(format string, args ...any) error {
	text := fmt.Sprintf(format, args...)
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func (r *Runner) writeBytes(data []byte) error {
	if _, err := r.output.Write(data); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}
