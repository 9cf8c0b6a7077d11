package cli

import (
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/log"

	"github.com/nhle/todosync/internal/cache"
	"github.com/nhle/todosync/internal/credential"
	"github.com/nhle/todosync/internal/gateway"
	"github.com/nhle/todosync/internal/logging"
	"github.com/nhle/todosync/internal/model"
	"github.com/nhle/todosync/internal/mutation"
	"github.com/nhle/todosync/internal/session"
	"github.com/nhle/todosync/internal/theme"
)

// errNotLoggedIn is returned by commands that need a session.
var errNotLoggedIn = errors.New("not logged in; run `todosync login` first")

const retryDelay = 300 * time.Millisecond

// env is the wired client stack for one command invocation.
type env struct {
	cfg       *model.AppConfig
	log       *log.Logger
	logCloser io.Closer
	session   *session.Session
	client    *gateway.Client
	cache     *cache.Store
	mutations *mutation.Coordinator
}

func (o *RootOptions) configPath() string {
	if o.ConfigPath != "" {
		return o.ConfigPath
	}
	return model.DefaultConfigPath()
}

func (o *RootOptions) loadConfig() (*model.AppConfig, error) {
	cfg, err := model.LoadConfig(o.configPath())
	if err != nil {
		return nil, err
	}
	if u := strings.TrimRight(strings.TrimSpace(o.APIURL), "/"); u != "" {
		cfg.API.BaseURL = u
	}
	return cfg, nil
}

// open wires config, logging, the session, the gateway, the cache and the
// mutation coordinator. The TUI logs to a file so the screen stays intact.
func (o *RootOptions) open(forTUI bool) (*env, error) {
	cfg, err := o.loadConfig()
	if err != nil {
		return nil, err
	}

	logCfg := cfg.Log
	if forTUI && logCfg.File == "" {
		logCfg.File = filepath.Join(model.ConfigDir(), "todosync.log")
	}
	logger, closer, err := logging.New(logCfg, o.Verbose)
	if err != nil {
		return nil, err
	}
	theme.Apply(cfg.Display.Theme)

	creds := o.credentials
	if creds == nil {
		creds = credential.NewKeyringStore(model.ConfigDir())
	}

	sess := session.New(creds, nil, session.Options{Logger: logger.WithPrefix("session")})
	client := gateway.NewClient(cfg.API.BaseURL, sess,
		gateway.WithTimeout(cfg.API.Timeout()),
		gateway.WithErrorObserver(sess.Observe),
	)
	sess.SetAPI(client)

	c := cache.New(cache.Options{
		MaxAge:      cfg.Cache.MaxAge(),
		ReadRetries: cfg.Cache.ReadRetries,
		RetryDelay:  retryDelay,
		Logger:      logger.WithPrefix("cache"),
	})
	c.RegisterSource(client)

	coord := mutation.New(client, c, mutation.Options{
		RetryDelay: retryDelay,
		Logger:     logger.WithPrefix("mutation"),
	})

	if err := sess.Load(); err != nil {
		logger.Warn("reading stored session", "err", err)
	}

	return &env{
		cfg:       cfg,
		log:       logger,
		logCloser: closer,
		session:   sess,
		client:    client,
		cache:     c,
		mutations: coord,
	}, nil
}

func (e *env) Close() error {
	return e.logCloser.Close()
}

func (e *env) requireSession() error {
	if e.session.State() != session.StateAuthenticated {
		return errNotLoggedIn
	}
	return nil
}

// friendly turns gateway errors into their display message.
func friendly(err error) error {
	if err == nil {
		return nil
	}
	var gwErr *gateway.Error
	if errors.As(err, &gwErr) {
		return fmt.Errorf("%s", gwErr.UserMessage())
	}
	return err
}
