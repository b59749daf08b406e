package main

import (
	"encoding/json"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	redisstore "github.com/gosuda/taskhub/internal/store/redis"
)

func newAuditTailCmd() *cobra.Command {
	var tenant string

	cmd := &cobra.Command{
		Use:   "audit-tail",
		Short: "Stream audit entries published to Redis as JSON lines",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if cfg.Redis.Addr == "" {
				return errors.New("audit-tail requires TASKHUB_REDIS_ADDR")
			}

			channel := redisstore.PlatformChannel
			if tenant != "" {
				id, err := uuid.Parse(tenant)
				if err != nil {
					return errors.New("--tenant must be a tenant UUID")
				}
				channel = redisstore.AuditChannel(id)
			}

			ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer cancel()

			pubsub, err := redisstore.New(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
			if err != nil {
				return err
			}
			defer pubsub.Close()

			entries, stop, err := pubsub.Subscribe(ctx, channel)
			if err != nil {
				return err
			}
			defer stop()

			enc := json.NewEncoder(cmd.OutOrStdout())
			for entry := range entries {
				if err := enc.Encode(entry); err != nil {
					return err
				}
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&tenant, "tenant", "", "tenant ID to follow; platform entries when empty")
	return cmd
}
