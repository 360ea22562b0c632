package main

import (
	"fmt"
	"log"

	"github.com/m3rciful/aitagbot/bot"
	"github.com/m3rciful/aitagbot/core/cmd"
)

func main() {
	err := cmd.Run(cmd.Options{
		DefaultConfigPath: "config.yaml",
		LoadConfig: func(path string) (cmd.ConfigCarrier, error) {
			cfg, err := bot.LoadConfig(path)
			if err != nil {
				return nil, err
			}
			return cfg, nil
		},
		Bootstrap: func(carrier cmd.ConfigCarrier) (cmd.TelegramApp, error) {
			cfg, ok := carrier.(*bot.Config)
			if !ok {
				return nil, fmt.Errorf("unexpected config type %T", carrier)
			}
			app, err := bot.New(cfg)
			if err != nil {
				return nil, err
			}
			return app, nil
		},
	})
	if err != nil {
		log.Fatalf("fatal: %v", err)
	}
}
