package main

import (
	"fmt"
	"math/rand"
	"time"

	tele "gopkg.in/telebot.v4"

	"github.com/PrincipeGhost/CorreosPremium/core/bootstrap"
	"github.com/PrincipeGhost/CorreosPremium/core/cmd"
	tg "github.com/PrincipeGhost/CorreosPremium/core/telegram"
	tghelpers "github.com/PrincipeGhost/CorreosPremium/core/telegram/helpers"
	"github.com/PrincipeGhost/CorreosPremium/core/telegram/router"
	"github.com/PrincipeGhost/CorreosPremium/core/telegram/state"
	"github.com/PrincipeGhost/CorreosPremium/core/telegram/ui"
	"github.com/PrincipeGhost/CorreosPremium/internal/access"
	"github.com/PrincipeGhost/CorreosPremium/internal/bot"
	"github.com/PrincipeGhost/CorreosPremium/internal/cache"
	"github.com/PrincipeGhost/CorreosPremium/internal/cache/rediscache"
	"github.com/PrincipeGhost/CorreosPremium/internal/geo/openroute"
	"github.com/PrincipeGhost/CorreosPremium/internal/route"
	"github.com/PrincipeGhost/CorreosPremium/internal/services/tracking"
	"github.com/PrincipeGhost/CorreosPremium/internal/shipping"
	"github.com/PrincipeGhost/CorreosPremium/internal/storage/pgtrack"
	"github.com/PrincipeGhost/CorreosPremium/internal/timeline"
)

// App holds everything TelegramRunOptions needs after bootstrap.
type App struct {
	cfg *AppConfig
	bot *bot.Bot
}

func newApp(carrier cmd.ConfigCarrier) (cmd.TelegramApp, error) {
	cfg, ok := carrier.(*AppConfig)
	if !ok {
		return nil, fmt.Errorf("app: unexpected config type %T", carrier)
	}

	res, err := bootstrap.Run(bootstrap.Options{
		Config:   cfg.CoreConfig(),
		Database: cfg.Database,
	})
	if err != nil {
		return nil, err
	}

	store := pgtrack.New(res.DB)

	var views cache.BytesCache = cache.Noop{}
	if cfg.Redis.Addr != "" {
		views = rediscache.New(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
	}

	geo := openroute.New(openroute.Config{
		BaseURL:     cfg.Geo.BaseURL,
		APIKey:      cfg.Geo.APIKey,
		Timeout:     cfg.Geo.Timeout(),
		SampleDelay: cfg.Geo.SampleDelay(),
	})

	rng := rand.New(rand.NewSource(time.Now().UnixNano()))
	policy := access.New(cfg.Telegram.OwnerID)

	svc := tracking.New(tracking.Options{
		Store:     store,
		Policy:    &policy,
		Estimator: shipping.NewEstimator(geo, time.Now),
		Synth:     route.NewSynthesizer(geo, rng),
		Sched:     timeline.NewGenerator(rng),
		Views:     views,
		ViewTTL:   cfg.Redis.ViewTTL(),
	})

	b := bot.New(svc, state.NewMemoryManager(), cfg.Telegram.OwnerID)
	return &App{cfg: cfg, bot: b}, nil
}

// TelegramRunOptions implements cmd.TelegramApp.
func (a *App) TelegramRunOptions() (tg.RunOptions, error) {
	reg := a.bot.BuildRegistry()

	routes := router.CommandRoutes(reg, router.CommandRouteOptions{
		OwnerID: a.cfg.Telegram.OwnerID,
		OnAdminReject: func(c tele.Context) error {
			return tghelpers.SendText(c, "Este comando es solo para el administrador.")
		},
	})
	var fb ui.FallbackProvider = a.bot
	routes = append(routes, router.CallbackRoute(reg, router.CallbackOptions{
		NotFound: fb.UnknownCallback(),
	}))
	routes = append(routes, router.TextRoutes(a.bot.FSM(), reg, router.TextOptions{
		UnknownText:     fb.UnknownText(),
		UnknownDocument: fb.UnknownDocument(),
	})...)

	mws := tg.DefaultMiddlewares(a.cfg.CoreConfig(), nil)
	mws = append(mws, tg.Middleware{Name: "session", Use: state.WithSession(a.bot.FSM())})

	return tg.RunOptions{
		Config:      a.cfg.CoreConfig(),
		Registry:    reg,
		Middlewares: mws,
		Routes:      routes,
	}, nil
}
