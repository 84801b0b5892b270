package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"jarvis/internal/agent"
	"jarvis/internal/calendar"
	"jarvis/internal/config"
	"jarvis/internal/daily"
	"jarvis/internal/garmin"
	"jarvis/internal/hass"
	"jarvis/internal/health"
	"jarvis/internal/ics"
	appLog "jarvis/internal/log"
	"jarvis/internal/schedule"
	"jarvis/internal/source"
	"jarvis/internal/vault"
	"jarvis/internal/web"
	"jarvis/internal/whoop"
)

// flagConfig holds CLI flag values.
type flagConfig struct {
	configPath string
	listen     string
	once       string
}

func main() {
	appLog.Info("jarvis starting", "version", "0.1.0-dev")

	flags := parseFlags()

	conf, err := config.Load(flags.configPath)
	if err != nil {
		appLog.Error("failed to load config", err, "config_path", flags.configPath)
		os.Exit(1)
	}
	if flags.listen != "" {
		conf.Listen = flags.listen
	}
	appLog.SetLevelFromString(conf.LogLevel)

	loc := resolveLocation(conf.Timezone)

	appLog.Info("effective config",
		"listen", conf.Listen,
		"timezone", loc.String(),
		"log_level", conf.LogLevel,
		"work_hours", fmt.Sprintf("%v", conf.WorkHours),
		"once", flags.once,
	)

	// Root context with cancellation on SIGINT/SIGTERM.
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		appLog.Info("signal received, shutting down", "signal", sig.String())
		cancel()
	}()

	// Health sources: the recovery tracker is primary, the activity
	// tracker secondary; the merge precedence depends on this order.
	whoopSrc := whoop.New(conf.Whoop.AccessToken)
	garminSrc := garmin.New(conf.Garmin.AccessToken)
	healthAgg := health.NewAggregator(whoopSrc, garminSrc)
	healthAgg.Connect(ctx)
	defer healthAgg.Disconnect(context.Background())

	// Calendar sources: argument position fixes the personal/work
	// tagging of merged events.
	personalCal := ics.NewAdapter(conf.Calendars.Personal.ID, conf.Calendars.Personal.URL, conf.CacheDir, loc)
	workCal := ics.NewAdapter(conf.Calendars.Work.ID, conf.Calendars.Work.URL, conf.CacheDir, loc)
	calendarAgg := calendar.NewAggregator(personalCal, workCal)
	calendarAgg.Connect(ctx)
	defer calendarAgg.Disconnect(context.Background())

	// Notes vault.
	notes := vault.New(vault.Config{
		Path:        conf.Vault.Path,
		DailyFolder: conf.Vault.DailyFolder,
		DailyLayout: conf.Vault.DailyFormat,
	})
	if conf.Vault.Path != "" {
		if err := notes.Connect(ctx); err != nil {
			appLog.Warn("vault unavailable", err)
		}
	}
	defer notes.Disconnect(context.Background())

	// Smart-home hub.
	home := hass.New(conf.HomeAssistant.URL, conf.HomeAssistant.Token)
	if conf.HomeAssistant.URL != "" {
		if err := home.Connect(ctx); err != nil {
			appLog.Warn("home assistant unavailable", err)
		}
	}
	defer home.Disconnect(context.Background())

	dailyAgg := daily.NewAggregator(healthAgg, calendarAgg, notes, home, daily.Options{
		WeatherEntities: conf.WeatherEntities,
		TrainingPlan:    conf.Vault.TrainingPlan,
	})

	// Single-shot mode: build one document, print it, exit.
	if flags.once != "" {
		runOnce(ctx, dailyAgg, loc, flags.once)
		return
	}

	window := calendar.DefaultWindow
	if len(conf.WorkHours) == 2 {
		window = calendar.Window{StartHour: conf.WorkHours[0], EndHour: conf.WorkHours[1]}
	}

	var chatter web.Chatter
	if conf.Agent.APIKey != "" || os.Getenv("OPENAI_API_KEY") != "" {
		client := agent.NewClient(conf.Agent.APIKey, conf.Agent.Model)
		chatter = agent.New(client, agent.Deps{
			Notes:    notes,
			Health:   healthAgg,
			Calendar: calendarAgg,
			Speaker:  home,
		}, window, loc)
	}

	sched := schedule.New(dailyAgg, home, conf.HomeAssistant.MediaPlayer,
		[]source.Adapter{whoopSrc, garminSrc, personalCal, workCal, notes, home},
		loc, conf.Schedule)
	if err := sched.Start(); err != nil {
		appLog.Error("failed to start scheduler", err)
		os.Exit(1)
	}
	defer sched.Stop()

	server := web.NewServer(conf, dailyAgg, healthAgg, calendarAgg, chatter, loc)
	serverErr := make(chan error, 1)
	go func() {
		serverErr <- web.StartServer(ctx, server)
	}()

	select {
	case err := <-serverErr:
		appLog.Error("HTTP server failed", err)
		os.Exit(1)
	case <-ctx.Done():
	}

	// Give running jobs a moment to wind down.
	time.Sleep(100 * time.Millisecond)
	appLog.Info("jarvis exiting")
}

// runOnce builds one document and prints its JSON-free spoken summary.
func runOnce(ctx context.Context, agg *daily.Aggregator, loc *time.Location, kind string) {
	now := time.Now().In(loc)

	var doc daily.Document
	switch kind {
	case "briefing":
		doc = agg.MorningBriefing(ctx, now)
	case "reflection":
		doc = agg.EveningReflection(ctx, now)
	default:
		appLog.Error("unknown -once mode", nil, "mode", kind)
		os.Exit(2)
	}

	fmt.Println(doc.Summary)
}

func resolveLocation(name string) *time.Location {
	if name == "" || name == "Local" {
		return time.Local
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		appLog.Error("failed to load timezone; falling back to local", err, "name", name)
		return time.Local
	}
	return loc
}

func parseFlags() flagConfig {
	var cfg flagConfig

	flag.StringVar(&cfg.configPath, "config", "./config.yaml", "Path to config file")
	flag.StringVar(&cfg.listen, "listen", "", "HTTP listen address (overrides config if set)")
	flag.StringVar(&cfg.once, "once", "", "Build one document and exit: briefing or reflection")

	flag.Parse()

	return cfg
}
