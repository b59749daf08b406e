package main

import (
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/gosuda/taskhub/internal/seed"
)

func newSeedCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "Create the platform administrator and the demo tenant",
		Long: "Creates " + seed.SuperAdminEmail + " and the \"" + seed.DemoSubdomain + "\" tenant with its admin, " +
			"two users, one project and one task. Existing rows are left alone.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if err := requirePostgres(cfg, "seed"); err != nil {
				return err
			}

			store, pg, err := openStore(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer pg.Close()

			res, err := seed.Run(cmd.Context(), store, newCredentials(cfg))
			if err != nil {
				return err
			}
			log.Info().
				Bool("created", res.Created).
				Str("tenant_id", res.Tenant.ID.String()).
				Msg("seed complete")
			return nil
		},
	}
}
