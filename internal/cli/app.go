package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/idilsaglam/kanban/internal/auth"
	"github.com/idilsaglam/kanban/internal/board"
	"github.com/idilsaglam/kanban/internal/config"
	"github.com/idilsaglam/kanban/internal/logging"
	"github.com/idilsaglam/kanban/internal/model"
	"github.com/idilsaglam/kanban/internal/store"
	"github.com/idilsaglam/kanban/internal/store/jsonstore"
	"github.com/idilsaglam/kanban/internal/store/redisstore"
	"github.com/idilsaglam/kanban/internal/ui"
)

// App holds what a command needs once setup has run.
type App struct {
	opt     Options
	cfgFile string
	verbose bool
	noColor bool

	Config   *config.Config
	Log      *logrus.Entry
	Repo     *board.Repository
	Auth     *auth.Client
	Sessions *auth.SessionStore

	closers []func() error
}

// setup loads config and builds the logger, auth client and session store.
func (a *App) setup() error {
	if a.Config != nil {
		return nil
	}
	p := a.opt.Paths
	if a.cfgFile != "" {
		p.File = a.cfgFile
	}
	cfg, err := config.LoadFrom(p)
	if err != nil {
		return err
	}
	level := cfg.LogLevel
	if a.verbose {
		level = "debug"
	}
	lg, err := logging.New(logging.Options{File: cfg.LogFile, Level: level})
	if err != nil {
		return fmt.Errorf("logger: %w", err)
	}
	a.closers = append(a.closers, lg.Close)
	ui.SetTheme(cfg.Theme)
	if a.noColor {
		ui.SetColorForcing(false, true)
	}

	a.Config = cfg
	a.Log = lg.Entry
	a.Auth = auth.NewClient(cfg.AuthURL, cfg.AuthTimeout, a.Log.WithField("component", "auth"))
	a.Sessions = auth.NewSessionStore(cfg.SessionFile, cfg.SessionTTL)
	return nil
}

// openRepo connects the configured store. Called after setup.
func (a *App) openRepo(ctx context.Context) error {
	if a.Repo != nil {
		return nil
	}
	var s store.Store
	log := a.Log.WithField("storage", a.Config.Storage)
	switch a.Config.Storage {
	case config.StorageRedis:
		rs, err := redisstore.Open(ctx, a.Config.RedisURL, a.Config.RedisPrefix, log)
		if err != nil {
			return err
		}
		a.closers = append(a.closers, rs.Close)
		s = rs
	default:
		s = jsonstore.New(a.Config.DataDir, log)
	}
	a.Repo = board.New(s,
		board.WithLogger(a.Log.WithField("component", "board")),
		board.WithPolicy(a.Config.Policy()),
	)
	return nil
}

// requireSession is the route guard in front of every board command.
func (a *App) requireSession(cmd *cobra.Command, _ []string) error {
	if err := a.setup(); err != nil {
		return err
	}
	sess, err := a.Sessions.Current()
	if err != nil {
		return err
	}
	if sess == nil {
		return usagef("run `kanban auth login` first", "not logged in")
	}
	a.Log.WithField("command", cmd.CommandPath()).Debug("session ok")
	return a.openRepo(cmd.Context())
}

// Close releases the store connection and the log file, last opened first.
func (a *App) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		_ = a.closers[i]()
	}
	a.closers = nil
}

// resolveBoard accepts a board id or a board name (case-insensitive).
func (a *App) resolveBoard(ctx context.Context, ref string) (*board.Workspace, error) {
	if b, err := a.Repo.Board(ctx, ref); err == nil {
		return a.Repo.Open(ctx, b.ID)
	}
	boards, err := a.Repo.Boards(ctx)
	if err != nil {
		return nil, err
	}
	var match []model.Board
	for _, b := range boards {
		if strings.EqualFold(b.Name, strings.TrimSpace(ref)) {
			match = append(match, b)
		}
	}
	switch len(match) {
	case 0:
		return nil, fmt.Errorf("%w: %s", board.ErrBoardNotFound, ref)
	case 1:
		return a.Repo.Open(ctx, match[0].ID)
	}
	return nil, usagef("use the board id from `kanban board ls`", fmt.Sprintf("%d boards are named %q", len(match), ref))
}

// resolveColumn accepts a column id or name within ws.
func resolveColumn(ws *board.Workspace, ref string) (model.Column, error) {
	if c, ok := ws.Column(ref); ok {
		return c, nil
	}
	var match []model.Column
	for _, c := range ws.Columns() {
		if strings.EqualFold(c.Name, strings.TrimSpace(ref)) {
			match = append(match, c)
		}
	}
	switch len(match) {
	case 0:
		return model.Column{}, fmt.Errorf("%w: %s", board.ErrColumnNotFound, ref)
	case 1:
		return match[0], nil
	}
	return model.Column{}, usagef("use the column id from `kanban board show`", fmt.Sprintf("%d columns are named %q", len(match), ref))
}
