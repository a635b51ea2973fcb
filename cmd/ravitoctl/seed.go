package main

import (
	"errors"
	"fmt"
	"strings"

	"ravito/internal/model"
	"ravito/internal/repository"
	"ravito/internal/service"
	"ravito/internal/validation"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"gorm.io/gorm"
)

type seedAdminOptions struct {
	email    string
	password string
	fullName string
	phone    string
	org      string
}

func seedAdminCmd() *cobra.Command {
	var o seedAdminOptions
	cmd := &cobra.Command{
		Use:   "seed-admin",
		Short: "Crée le compte administrateur de la plateforme s'il n'existe pas",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := o.validate(); err != nil {
				return err
			}
			_, db, err := openDB()
			if err != nil {
				return err
			}
			return seedAdmin(cmd, db, o)
		},
	}
	cmd.Flags().StringVar(&o.email, "email", "admin@ravito.ci", "e-mail de connexion")
	cmd.Flags().StringVar(&o.password, "password", "", "mot de passe (obligatoire)")
	cmd.Flags().StringVar(&o.fullName, "name", "Admin Ravito", "nom complet")
	cmd.Flags().StringVar(&o.phone, "phone", "0700000000", "téléphone")
	cmd.Flags().StringVar(&o.org, "org", "RAVITO", "nom de l'organisation plateforme")
	_ = cmd.MarkFlagRequired("password")
	return cmd
}

func (o seedAdminOptions) validate() error {
	if r := validation.ValidateEmail(o.email); !r.Valid {
		return errors.New(r.Error)
	}
	if r := validation.ValidatePhoneCI(o.phone); !r.Valid {
		return errors.New(r.Error)
	}
	if r := validation.ValidateFullName(o.fullName); !r.Valid {
		return errors.New(r.Error)
	}
	if check := validation.ValidatePassword(o.password); !check.Valid {
		return fmt.Errorf("mot de passe trop faible: %s", strings.Join(check.Errors, ", "))
	}
	return nil
}

func seedAdmin(cmd *cobra.Command, db *gorm.DB, o seedAdminOptions) error {
	ctx := cmd.Context()
	users := repository.NewUserRepository(db)
	orgs := repository.NewOrganizationRepository(db)

	email := strings.ToLower(strings.TrimSpace(o.email))
	existing, err := users.FindByEmail(ctx, email)
	if err == nil {
		if existing.Role != model.RoleAdmin {
			return fmt.Errorf("%s existe déjà avec le rôle %s", email, existing.Role)
		}
		if err := users.UpdateStatus(ctx, existing.ID, model.UserApproved, nil); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "admin %s déjà présent, compte validé\n", email)
		return nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}

	hash, err := service.HashPassword(o.password)
	if err != nil {
		return err
	}
	err = repository.NewTxRunner(db).Transaction(ctx, func(tx *gorm.DB) error {
		org := &model.Organization{Name: o.org, Type: model.OrgTypeAdmin}
		if err := orgs.Create(ctx, tx, org); err != nil {
			return err
		}
		user := &model.User{
			Email:          email,
			Phone:          validation.NormalizePhoneCI(o.phone),
			FullName:       strings.TrimSpace(o.fullName),
			PasswordHash:   hash,
			Role:           model.RoleAdmin,
			Status:         model.UserApproved,
			OrganizationID: org.ID,
		}
		if err := users.Create(ctx, tx, user); err != nil {
			return err
		}
		return orgs.SetOwner(ctx, tx, org.ID, user.ID)
	})
	if err != nil {
		return err
	}
	log.Info().Str("email", email).Msg("admin account created")
	fmt.Fprintf(cmd.OutOrStdout(), "admin %s créé\n", email)
	return nil
}
