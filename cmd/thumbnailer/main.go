package main

import (
	"context"
	"os"

	"github.com/spf13/cobra"

	pkglog "github.com/weiawesome/thumbnail-service/pkg/log"
)

func main() {
	var configFile string

	root := &cobra.Command{
		Use:           "thumbnailer",
		Short:         "Generate bounded thumbnails for images written to object storage",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&configFile, "config", "", "path to a YAML config file (default ./config/config.yaml)")

	root.AddCommand(newServeCmd(&configFile), newProcessCmd(&configFile), newTokenCmd(&configFile))

	if err := root.ExecuteContext(context.Background()); err != nil {
		l := pkglog.L()
		l.Error().Err(err).Msg("thumbnailer failed")
		os.Exit(1)
	}
}
