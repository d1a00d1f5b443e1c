package main

import (
	"flag"

	"go.uber.org/fx"

	"letschat/internal/app"
)

func main() {
	configFlag := flag.String("config", "", "config file path (default ~/.letschat/config.toml)")
	listenFlag := flag.String("listen", "", "bind address (overrides config)")
	flag.Parse()

	fx.New(
		app.Module(app.Params{
			ConfigPath: *configFlag,
			Listen:     *listenFlag,
		}),
	).Run()
}
