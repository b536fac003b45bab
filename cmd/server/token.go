package main

import (
	"errors"
	"fmt"

	"people_api/pkg/token"

	"github.com/spf13/cobra"
)

func newTokenCmd(configPath *string) *cobra.Command {
	var subject, role string

	cmd := &cobra.Command{
		Use:   "token",
		Short: "签发编辑者令牌，用于 create/sync organization 接口",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(*configPath)
			if err != nil {
				return err
			}
			if cfg.Auth.Secret == "" {
				return errors.New("auth.secret is not configured")
			}
			if subject == "" {
				return errors.New("--subject is required")
			}
			if role != token.RoleEditor && role != token.RoleAdmin {
				return errors.New("--role must be editor or admin")
			}

			signed, err := token.NewJWTManager(cfg.Auth.Secret, tokenDuration(cfg)).GenerateToken(subject, role)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), signed)
			return nil
		},
	}
	cmd.Flags().StringVar(&subject, "subject", "", "令牌持有人（写入操作日志）")
	cmd.Flags().StringVar(&role, "role", token.RoleEditor, "editor 或 admin")
	return cmd
}
