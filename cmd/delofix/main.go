package main

import (
	"context"
	"os"

	"github.com/m3rciful/delofix/bot/app"
	"github.com/m3rciful/delofix/core/cmd"
	"github.com/m3rciful/delofix/core/config"
)

func main() {
	os.Exit(cmd.Execute(cmd.Options{
		Use:     "delofix",
		Short:   "ДелоФикс: marketplace bot for clients and masters",
		Serve:   serve,
		Migrate: app.Migrate,
	}))
}

func serve(ctx context.Context, cfg *config.Config) error {
	a, err := app.New(ctx, cfg)
	if err != nil {
		return err
	}
	defer a.Close()
	return a.Serve(ctx)
}
