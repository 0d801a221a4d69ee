package main

import (
	"errors"
	"fmt"
	"time"

	"github.com/go-extras/cobraflags"
	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"pos-recipe-engine/src/config"
	"pos-recipe-engine/src/middleware"
	"pos-recipe-engine/src/models"
	"pos-recipe-engine/src/repositories"
)

const (
	tenantFlag  = "tenant"
	productFlag = "product"
	userFlag    = "user"
	ttlFlag     = "ttl"
)

var seedFlags = map[string]cobraflags.Flag{
	tenantFlag: &cobraflags.StringFlag{
		Name:  tenantFlag,
		Value: "",
		Usage: "Tenant id to seed (required)",
	},
	productFlag: &cobraflags.StringFlag{
		Name:  productFlag,
		Value: "",
		Usage: "Product id of the sample recipe. A new id is generated when empty",
	},
}

var tokenFlags = map[string]cobraflags.Flag{
	tenantFlag: &cobraflags.StringFlag{
		Name:  tenantFlag,
		Value: "",
		Usage: "Tenant id carried by the token (required)",
	},
	userFlag: &cobraflags.StringFlag{
		Name:  userFlag,
		Value: "",
		Usage: "Acting user id carried by the token",
	},
	ttlFlag: &cobraflags.StringFlag{
		Name:  ttlFlag,
		Value: "24h",
		Usage: "Token lifetime",
	},
}

func newSeedCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Insert the sample Cake recipe with flour and sugar for a tenant",
		RunE:  seedCommand,
	}
	cobraflags.RegisterMap(cmd, seedFlags)
	return cmd
}

func newTokenCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Print a signed development token for a tenant",
		RunE:  tokenCommand,
	}
	cobraflags.RegisterMap(cmd, tokenFlags)
	return cmd
}

func seedCommand(cmd *cobra.Command, _ []string) error {
	tenantID, err := requiredUUID(seedFlags[tenantFlag].GetString(), tenantFlag)
	if err != nil {
		return err
	}
	productID := uuid.New()
	if s := seedFlags[productFlag].GetString(); s != "" {
		if productID, err = uuid.Parse(s); err != nil {
			return fmt.Errorf("invalid --%s: %w", productFlag, err)
		}
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	db, err := config.InitDB(cfg)
	if err != nil {
		return err
	}
	store := repositories.NewGormStore(db, cfg.LockTimeout)

	recipe, err := seedCake(cmd.Context(), store, tenantID, productID)
	if errors.Is(err, models.ErrValidation) {
		return fmt.Errorf("tenant %s looks seeded already: %w", tenantID, err)
	}
	if err != nil {
		return err
	}

	config.GetLogger().WithField("recipe_id", recipe.ID).WithField("product_id", productID).Info("sample recipe seeded")
	return nil
}

func tokenCommand(cmd *cobra.Command, _ []string) error {
	tenantID, err := requiredUUID(tokenFlags[tenantFlag].GetString(), tenantFlag)
	if err != nil {
		return err
	}
	var userID *uuid.UUID
	if s := tokenFlags[userFlag].GetString(); s != "" {
		id, err := uuid.Parse(s)
		if err != nil {
			return fmt.Errorf("invalid --%s: %w", userFlag, err)
		}
		userID = &id
	}
	ttl, err := time.ParseDuration(tokenFlags[ttlFlag].GetString())
	if err != nil {
		return fmt.Errorf("invalid --%s: %w", ttlFlag, err)
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if err := cfg.ValidateServe(); err != nil {
		return err
	}
	token, err := middleware.GenerateToken(cfg.JWTSecret, tenantID, userID, ttl)
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), token)
	return nil
}

func requiredUUID(s, flag string) (uuid.UUID, error) {
	if s == "" {
		return uuid.Nil, fmt.Errorf("--%s is required", flag)
	}
	id, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil, fmt.Errorf("invalid --%s: %w", flag, err)
	}
	return id, nil
}
