package main

import (
	"fmt"
	"strings"

	"ravito/internal/service"
	"ravito/internal/validation"

	"github.com/spf13/cobra"
)

func hashPasswordCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "hash-password <password>",
		Short: "Affiche le hash bcrypt d'un mot de passe",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			check := validation.ValidatePassword(args[0])
			if !check.Valid {
				return fmt.Errorf("mot de passe trop faible (%s): %s", check.Label, strings.Join(check.Errors, ", "))
			}
			hash, err := service.HashPassword(args[0])
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), hash)
			return nil
		},
	}
}
