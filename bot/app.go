// Package bot assembles the AI-artwork search bot: command and callback
// handlers on top of the pagination engine, the search client, and the
// optional subscription checker.
package bot

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	tele "gopkg.in/telebot.v4"

	"github.com/m3rciful/aitagbot/core/bootstrap"
	coreconfig "github.com/m3rciful/aitagbot/core/config"
	coredatabase "github.com/m3rciful/aitagbot/core/database"
	"github.com/m3rciful/aitagbot/core/logger"
	coretelegram "github.com/m3rciful/aitagbot/core/telegram"
	"github.com/m3rciful/aitagbot/core/telegram/commands"
	"github.com/m3rciful/aitagbot/core/telegram/router"
	"github.com/m3rciful/aitagbot/core/telegram/sender"
	"github.com/m3rciful/aitagbot/pager"
	"github.com/m3rciful/aitagbot/render"
	"github.com/m3rciful/aitagbot/search"
	"github.com/m3rciful/aitagbot/subs"

	"github.com/jmoiron/sqlx"
)

// App holds the assembled bot components. Subscription fields are nil when no
// database is configured; sessions are in-memory either way.
type App struct {
	cfg *coreconfig.Config

	client   *search.Client
	sessions *pager.Store
	engine   *pager.Engine

	db         *sqlx.DB
	subs       *subs.Store
	dispatcher *sender.Dispatcher
}

// New bootstraps infrastructure (logger, optional database with migrations)
// and wires the domain components.
func New(cfg *Config) (*App, error) {
	core := cfg.CoreConfig()
	if core == nil {
		return nil, fmt.Errorf("bot: nil core config")
	}

	var dbCfg *coredatabase.Config
	if core.SubsEnabled() {
		dbCfg = &coredatabase.Config{
			Host:           core.Database.Host,
			Port:           core.Database.Port,
			User:           core.Database.User,
			Password:       core.Database.Password,
			Name:           core.Database.Name,
			SSLMode:        core.Database.SSLMode,
			MaxConnections: core.Database.MaxConnections,
		}
	}

	boot, err := bootstrap.Run(bootstrap.Options{Config: core, Database: dbCfg})
	if err != nil {
		return nil, err
	}

	client, err := search.New(search.Options{
		BaseURL:      core.Search.BaseURL,
		Timeout:      time.Duration(core.Search.TimeoutSeconds) * time.Second,
		RetryBackoff: time.Duration(core.Search.RetryBackoffMS) * time.Millisecond,
		ProxyURL:     core.Search.ProxyURL,
	})
	if err != nil {
		if boot.DB != nil {
			_ = boot.DB.Close()
		}
		return nil, err
	}

	limit := core.Search.ResultsPerPage
	sessions := pager.NewStore(limit, time.Duration(core.Sessions.TTLMinutes)*time.Minute)

	app := &App{
		cfg:      core,
		client:   client,
		sessions: sessions,
		engine:   pager.NewEngine(client, sessions, limit),
		db:       boot.DB,
	}
	if boot.DB != nil {
		app.subs = subs.NewStore(boot.DB)
	}
	return app, nil
}

// TelegramRunOptions wires the registry, routes, middleware chain and
// lifecycle hooks for the core Telegram runtime.
func (a *App) TelegramRunOptions() (coretelegram.RunOptions, error) {
	reg := coretelegram.NewRegistry()
	a.registerCommands(reg)
	a.registerCallbacks(reg)
	reg.SetTextFallback(a.handleText)
	reg.SetCallbackNotFound(a.handleCallbackNotFound)

	routes := router.CommandRoutes(reg, router.CommandRouteOptions{
		AdminID: a.cfg.Telegram.AdminID,
	})
	routes = append(routes, router.TextRoutes(reg, router.TextOptions{
		UnknownCommand: a.handleUnknownCommand,
	})...)
	routes = append(routes, router.CallbackRoute(reg, router.CallbackOptions{}))

	// Owned by the app so /stats can report queue depth; RunTelegram still
	// manages its lifecycle.
	a.dispatcher = sender.NewDispatcher(sender.Options{})

	return coretelegram.RunOptions{
		Config:      a.cfg,
		Registry:    reg,
		Dispatcher:  a.dispatcher,
		Middlewares: coretelegram.DefaultMiddlewares(a.cfg, a.handleRateLimited),
		Routes:      routes,
		OnStart:     a.onStart,
		OnStop:      a.onStop,
	}, nil
}

func (a *App) registerCommands(reg *coretelegram.Registry) {
	reg.RegisterCommand("/start", commands.Command{
		Handler:     a.handleStart,
		Description: "显示欢迎信息",
	})
	reg.RegisterCommand("/help", commands.Command{
		Handler:     a.handleHelp,
		Description: "显示帮助信息",
	})
	reg.RegisterCommand("/search", commands.Command{
		Handler:     a.handleSearch,
		Description: "搜索AI绘画作品",
		Aliases:     []string{"s"},
	})
	if a.subs != nil {
		reg.RegisterCommand("/sub", commands.Command{
			Handler:     a.handleSubscribe,
			Description: "订阅关键词更新",
		})
		reg.RegisterCommand("/unsub", commands.Command{
			Handler:     a.handleUnsubscribe,
			Description: "取消关键词订阅",
		})
		reg.RegisterCommand("/subs", commands.Command{
			Handler:     a.handleSubscriptionList,
			Description: "查看我的订阅",
		})
	}
	reg.RegisterCommand("/stats", commands.Command{
		Handler:     a.handleStats,
		Description: "运行状态",
		AdminOnly:   true,
		Hidden:      true,
	})
}

func (a *App) registerCallbacks(reg *coretelegram.Registry) {
	_ = reg.RegisterCallback(render.UniquePrev, func(c tele.Context) error {
		return a.handleNav(c, pager.DirPrev)
	})
	_ = reg.RegisterCallback(render.UniqueNext, func(c tele.Context) error {
		return a.handleNav(c, pager.DirNext)
	})
	_ = reg.RegisterCallback(render.UniquePageNum, a.handleNoop)
	_ = reg.RegisterCallback(render.UniqueDetail, a.handleDetail)
	_ = reg.RegisterCallback(render.UniqueExplain, a.handleExplain)
}

func (a *App) onStart(ctx context.Context, rt coretelegram.Runtime) error {
	if a.subs == nil {
		return nil
	}
	interval := time.Duration(a.cfg.Subs.CheckIntervalMinutes) * time.Minute
	checker := subs.NewChecker(a.subs, a.client, a.notifyFunc(rt.Bot), subs.Options{
		Interval: interval,
	})
	go checker.Run(ctx)
	logger.Subs.Info("checker started",
		slog.String("event", "start"),
		slog.Duration("interval", interval),
		slog.Int("max_per_user", a.cfg.Subs.MaxPerUser),
	)
	return nil
}

func (a *App) onStop(ctx context.Context, rt coretelegram.Runtime) error {
	if a.db == nil {
		return nil
	}
	if err := a.db.Close(); err != nil {
		logger.DB.Warn("close failed",
			slog.String("event", "close"),
			slog.String("err", err.Error()),
		)
	}
	return nil
}

// notifyFunc delivers subscription updates outside any handler context, so it
// sends through the bot directly rather than the per-update helpers.
func (a *App) notifyFunc(bot *tele.Bot) subs.NotifyFunc {
	return func(ctx context.Context, sub subs.Subscription, fresh []search.ResultItem) error {
		text := render.SubscriptionUpdate(sub.Keyword, fresh)
		_, err := bot.Send(tele.ChatID(sub.ChatID), text, htmlOpts(nil))
		return err
	}
}
