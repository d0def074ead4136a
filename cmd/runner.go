package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/stacks/internal/cache"
	"github.com/desertthunder/stacks/internal/formatter"
	"github.com/desertthunder/stacks/internal/library"
	"github.com/desertthunder/stacks/internal/media"
	"github.com/desertthunder/stacks/internal/models"
	"github.com/desertthunder/stacks/internal/repositories"
	"github.com/desertthunder/stacks/internal/services"
	"github.com/desertthunder/stacks/internal/shared"
	"github.com/desertthunder/stacks/internal/tasks"
	"github.com/urfave/cli/v3"
)

// TokenStore persists the auth token between runs.
type TokenStore interface {
	Get() (string, error)
	Set(token string) error
	Delete() error
	SavedAt() (time.Time, error)
}

// SettingsStore persists small key/value preferences.
type SettingsStore interface {
	Get(key string) (*repositories.Setting, error)
	Set(key, value string) error
}

// ResourceOpener builds the audio output for the player.
type ResourceOpener func(cfg shared.PlayerConfig, opts ...media.Option) (media.Resource, error)

// Runner holds all dependencies for CLI commands and provides methods for each command action.
type Runner struct {
	config       *shared.Config
	configPath   string
	client       *services.Client
	library      *library.Library
	tokens       TokenStore
	settings     SettingsStore
	downloader   *tasks.Downloader
	openResource ResourceOpener
	openDocument func(url string) error
	logger       *log.Logger
	output       io.Writer
	input        io.Reader
}

// RunnerOpts contains configuration options for creating a Runner.
type RunnerOpts struct {
	Config       *shared.Config
	ConfigPath   string
	Client       *services.Client
	Library      *library.Library
	Tokens       TokenStore
	Settings     SettingsStore
	HTTPClient   *http.Client
	OpenResource ResourceOpener
	OpenDocument func(url string) error
	Logger       *log.Logger
	Output       io.Writer
	Input        io.Reader
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
	if opts.Input == nil {
		opts.Input = os.Stdin
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = &http.Client{Timeout: opts.Config.API.Timeout()}
	}
	if opts.Client == nil {
		opts.Client = services.NewClient(opts.Config.API,
			services.WithHTTPClient(opts.HTTPClient),
			services.WithLogger(opts.Logger),
		)
	}
	if opts.Library == nil {
		opts.Library = library.New(library.FromClient(opts.Client), opts.Logger,
			cache.WithCoalescing(opts.Config.Cache.Coalesce),
		)
	}
	if opts.OpenResource == nil {
		opts.OpenResource = media.Open
	}
	if opts.OpenDocument == nil {
		opts.OpenDocument = shared.OpenDocument
	}

	return &Runner{
		config:       opts.Config,
		configPath:   opts.ConfigPath,
		client:       opts.Client,
		library:      opts.Library,
		tokens:       opts.Tokens,
		settings:     opts.Settings,
		downloader:   tasks.NewDownloader(nil, opts.Logger),
		openResource: opts.OpenResource,
		openDocument: opts.OpenDocument,
		logger:       opts.Logger,
		output:       opts.Output,
		input:        opts.Input,
	}
}

func (r *Runner) register() []*cli.Command {
	commands := []*cli.Command{}
	for _, fn := range [](func(*Runner) *cli.Command){
		setupCommand, authCommand,
		homeCommand, booksCommand, likedCommand, categoriesCommand, searchCommand,
		likeCommand, unlikeCommand, reviewCommand, bookmarkCommand, openCommand, downloadCommand,
		cacheCommand, playCommand, tuiCommand, serveCommand,
		accountCommand, pageCommand,
	} {
		commands = append(commands, fn(r))
	}

	return commands
}

// SetLogger replaces the logger, for example when the TUI takes over the terminal.
func (r *Runner) SetLogger(l *log.Logger) {
	r.logger = l
}

// token returns the saved auth token, or "" when signed out.
func (r *Runner) token() string {
	if r.tokens == nil {
		return ""
	}
	token, err := r.tokens.Get()
	if err != nil {
		if !errors.Is(err, shared.ErrTokenNotFound) {
			r.logger.Warn("failed to read auth token", "error", err)
		}
		return ""
	}
	return token
}

// requireToken returns the saved auth token or [shared.ErrNotAuthenticated].
func (r *Runner) requireToken() (string, error) {
	token := r.token()
	if token == "" {
		return "", fmt.Errorf("%w: run 'stacks auth login' first", shared.ErrNotAuthenticated)
	}
	return token, nil
}

func (r *Runner) api(token string) *services.Client {
	return r.client.WithToken(token)
}

func (r *Runner) readLine(prompt string) (string, error) {
	r.writePlain("%s", prompt)
	line, err := bufio.NewReader(r.input).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", fmt.Errorf("failed to read input: %w", err)
	}
	return strings.TrimSpace(line), nil
}

// flagOrPrompt returns the flag value, asking on stdin when it is empty.
func (r *Runner) flagOrPrompt(cmd *cli.Command, name, prompt string) (string, error) {
	if v := strings.TrimSpace(cmd.String(name)); v != "" {
		return v, nil
	}
	v, err := r.readLine(prompt)
	if err != nil {
		return "", err
	}
	if v == "" {
		return "", fmt.Errorf("%w: --%s", shared.ErrMissingArgument, name)
	}
	return v, nil
}

func (r *Runner) writeItems(title string, items []models.Item, format string) error {
	f, err := formatter.ParseFormat(format)
	if err != nil {
		return err
	}
	data, err := formatter.Render(f, title, items)
	if err != nil {
		return fmt.Errorf("failed to render %s: %w", title, err)
	}
	if _, err := r.output.Write(data); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
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

func (r *Runner) writePlainln(format string, args ...any) error {
	text := "\n" + fmt.Sprintf(format, args...) + "\n"
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func (r *Runner) writePlainHeader(title string) {
	r.writePlain("═══════════════════════════════════════\n")
	r.writePlain("%v\n", title)
	r.writePlain("═══════════════════════════════════════\n")
}
