package main

import (
	"encoding/json"
	"errors"
	"os"

	"github.com/spf13/cobra"
)

func newProcessCmd(configFile *string) *cobra.Command {
	var bucket, key string

	cmd := &cobra.Command{
		Use:   "process",
		Short: "Run the thumbnail pipeline once for a single object",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if bucket == "" {
				return errors.New("--bucket is required")
			}
			cfg, err := loadConfig(*configFile)
			if err != nil {
				return err
			}

			a, err := newApp(cmd.Context(), cfg, false)
			if err != nil {
				return err
			}
			defer a.Close()

			res, err := a.processor.Process(cmd.Context(), bucket, key)

			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			if encErr := enc.Encode(res); encErr != nil {
				return encErr
			}
			return err
		},
	}
	cmd.Flags().StringVar(&bucket, "bucket", "", "source bucket")
	cmd.Flags().StringVar(&key, "key", "", "object key, as stored (not URL-encoded)")
	return cmd
}
