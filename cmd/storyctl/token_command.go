// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/taibuivan/storybook/internal/platform/constants"
	"github.com/taibuivan/storybook/internal/platform/sec"
	"github.com/taibuivan/storybook/pkg/uuid"
)

const editorRole = "editor"

func newTokenCommand(ctx *commandContext) *cobra.Command {
	var privateKeyPath string
	var publicKeyPath string
	var username string
	var ttl time.Duration

	tokenCmd := &cobra.Command{
		Use:   "token",
		Short: "Mint an editor bearer token",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if strings.TrimSpace(username) == "" {
				return fmt.Errorf("--username is required")
			}

			// Fall back to the environment when key paths are not given.
			if privateKeyPath == "" || publicKeyPath == "" {
				cfg, err := ctx.ensureConfig()
				if err != nil {
					return err
				}
				if privateKeyPath == "" {
					privateKeyPath = cfg.JWTPrivKeyPath
				}
				if publicKeyPath == "" {
					publicKeyPath = cfg.JWTPubKeyPath
				}
			}
			if privateKeyPath == "" || publicKeyPath == "" {
				return fmt.Errorf("both JWT key paths are required")
			}

			tokens, err := sec.NewTokenService(privateKeyPath, publicKeyPath, constants.AuthIssuer)
			if err != nil {
				return err
			}

			token, err := tokens.GenerateAccessToken(uuid.New(), username, editorRole, ttl)
			if err != nil {
				return err
			}

			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}
	tokenCmd.Flags().StringVar(&privateKeyPath, "private-key", "", "RSA private key PEM (defaults to JWT_PRIVATE_KEY_PATH)")
	tokenCmd.Flags().StringVar(&publicKeyPath, "public-key", "", "RSA public key PEM (defaults to JWT_PUBLIC_KEY_PATH)")
	tokenCmd.Flags().StringVar(&username, "username", "", "Editor name carried in the token")
	tokenCmd.Flags().DurationVar(&ttl, "ttl", constants.EditorTokenTTL, "Token lifetime")

	return tokenCmd
}
