package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ashgrove/parley/internal/agent"
	"github.com/ashgrove/parley/internal/alerts"
	"github.com/ashgrove/parley/internal/bot"
	"github.com/ashgrove/parley/internal/config"
	"github.com/ashgrove/parley/internal/heartbeat"
	"github.com/ashgrove/parley/internal/llm"
	"github.com/ashgrove/parley/internal/logger"
	"github.com/ashgrove/parley/internal/session"
	"github.com/joho/godotenv"
)

func init() {
	godotenv.Load()
}

func loadSystemPrompt(path string) string {
	data, err := os.ReadFile(path)
	if err != nil {
		logger.Warn("system prompt not found, running without one", "path", path, "error", err)
		return ""
	}

	return string(data)
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("failed to load config", "error", err)
	}

	model, err := llm.New(llm.Config{
		Provider: cfg.LLM.Provider,
		APIKey:   cfg.LLM.APIKey,
		Model:    cfg.LLM.Model,
		BaseURL:  cfg.LLM.BaseURL,
	})
	if err != nil {
		logger.Fatal("failed to create llm", "error", err)
	}

	sessions := session.NewStore(cfg.Agent.MaxHistory)

	agentCfg := agent.Config{
		SystemPrompt:      loadSystemPrompt(cfg.SystemPromptPath),
		Cooldown:          cfg.Agent.Cooldown,
		CompletionTimeout: cfg.Agent.CompletionTimeout,
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var bots []bot.Bot
	var enabledProviders []string

	if cfg.Bots.Telegram.Enabled {
		b, err := bot.NewTelegram(bot.Config{
			Provider:      "telegram",
			Token:         cfg.Bots.Telegram.Token,
			AllowedChatID: cfg.Bots.AllowedChatID,
		}, model, sessions, agentCfg)
		if err != nil {
			logger.Fatal("failed to create telegram bot", "error", err)
		}

		bots = append(bots, b)
		enabledProviders = append(enabledProviders, "telegram")

		go b.Start(ctx)
	}

	if cfg.Bots.Discord.Enabled {
		b, err := bot.NewDiscord(bot.Config{
			Provider:  "discord",
			Token:     cfg.Bots.Discord.Token,
			MinRoleID: cfg.Bots.MinRoleID,
		}, model, sessions, agentCfg)
		if err != nil {
			logger.Fatal("failed to create discord bot", "error", err)
		}

		bots = append(bots, b)
		enabledProviders = append(enabledProviders, "discord")

		go b.Start(ctx)
	}

	if len(bots) == 0 {
		logger.Fatal("no bot providers enabled, set TELEGRAM_TOKEN or DISCORD_TOKEN")
	}

	notifyBot := bots[0]

	if cfg.Heartbeat.ChannelID != "" {
		alerter := alerts.New(
			func(message string) {
				notifyBot.Send(cfg.Heartbeat.ChannelID, message)
			},
			time.Hour,
		)

		for _, b := range bots {
			b.SetAlerter(alerter)
		}

		logger.Info("error alerting enabled", "channel", cfg.Heartbeat.ChannelID)
	}

	if cfg.Heartbeat.Schedule != "" {
		reporter := heartbeat.NewReporter(sessions, func(channelID, text string) {
			notifyBot.Send(channelID, text)
		}, cfg.Heartbeat.ChannelID)

		if err := reporter.Start(cfg.Heartbeat.Schedule); err != nil {
			logger.Fatal("failed to start heartbeat", "error", err)
		}
		defer reporter.Stop()
	}

	logger.Info("parley started",
		"bots", enabledProviders,
		"llm", cfg.LLM.Provider,
		"history_cap", cfg.Agent.MaxHistory,
		"cooldown", cfg.Agent.Cooldown,
	)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	logger.Info("shutting down")
	cancel()
}
