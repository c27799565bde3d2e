package main

import (
	"context"

	"github.com/webxash3d/webproxy/pkg/config"
	"github.com/webxash3d/webproxy/pkg/logger"
	"github.com/webxash3d/webproxy/pkg/monitoring"
	"github.com/webxash3d/webproxy/pkg/os"
	"github.com/webxash3d/webproxy/pkg/proxy"
	"github.com/webxash3d/webproxy/pkg/service"
)

var Version = "?"

func main() {
	conf, err := config.NewConfig("")
	if err != nil {
		logger.Default().Fatal().Err(err).Msg("config load fail")
	}
	conf.ParseFlags()

	log := logger.NewConsole(conf.Webproxy.Debug, "w", false)
	log.Info().Msgf("version %s", Version)
	if log.GetLevel() < logger.InfoLevel {
		log.Debug().Msgf("config: %+v", conf)
	}

	p, err := proxy.New(conf.Webproxy, log)
	if err != nil {
		log.Fatal().Err(err).Msg("proxy init fail")
	}

	services := service.Group{}
	services.Add(p)
	services.AddIf(conf.Webproxy.Monitoring.IsEnabled(),
		monitoring.New(conf.Webproxy.Monitoring, log))
	services.Start()

	ctx, cancel := context.WithCancel(context.Background())
	defer func() {
		if err := services.Shutdown(ctx); err != nil {
			log.Error().Err(err).Msg("service shutdown errors")
		}
	}()
	<-os.ExpectTermination()
	cancel()
}
