package main

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"parish-site/internal/auth"
)

var adminCmd = &cobra.Command{
	Use:   "admin",
	Short: "Manage administrator accounts",
}

var adminCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Create an administrator",
	RunE:  runAdminCreate,
}

var adminSetStatusCmd = &cobra.Command{
	Use:   "set-status <email> <active|inactive>",
	Short: "Activate or deactivate an administrator",
	Args:  cobra.ExactArgs(2),
	RunE:  runAdminSetStatus,
}

var adminListCmd = &cobra.Command{
	Use:   "list",
	Short: "List administrators",
	RunE:  runAdminList,
}

var adminSeedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Create the first administrator from ADMIN_EMAIL and ADMIN_PASSWORD",
	Long: `Creates the administrator described by ADMIN_EMAIL, ADMIN_PASSWORD and
ADMIN_NAME when no administrator exists yet. Does nothing otherwise.`,
	RunE: runAdminSeed,
}

var (
	adminEmail    string
	adminPassword string
	adminName     string
)

func init() {
	adminCreateCmd.Flags().StringVar(&adminEmail, "email", "", "login email")
	adminCreateCmd.Flags().StringVar(&adminPassword, "password", "", "initial password (or PARISH_ADMIN_PASSWORD env)")
	adminCreateCmd.Flags().StringVar(&adminName, "name", "", "display name")
	_ = adminCreateCmd.MarkFlagRequired("email")

	adminCmd.AddCommand(adminCreateCmd)
	adminCmd.AddCommand(adminSetStatusCmd)
	adminCmd.AddCommand(adminListCmd)
	adminCmd.AddCommand(adminSeedCmd)
	rootCmd.AddCommand(adminCmd)
}

func runAdminCreate(cmd *cobra.Command, args []string) error {
	password := passwordFromFlagOrEnv(adminPassword)
	if password == "" {
		return errors.New("password is required (--password or PARISH_ADMIN_PASSWORD)")
	}

	env, err := openAdminEnv(cmd.Context())
	if err != nil {
		return err
	}
	defer env.close()

	admin, err := env.service.CreateAdmin(cmd.Context(), adminEmail, password, adminName)
	if err != nil {
		return fmt.Errorf("create admin: %w", err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "created %s (%s)\n", admin.Email, admin.ID)
	return nil
}

func runAdminSetStatus(cmd *cobra.Command, args []string) error {
	status := auth.Status(strings.ToLower(strings.TrimSpace(args[1])))
	if !status.Valid() {
		return fmt.Errorf("status must be %s or %s", auth.StatusActive, auth.StatusInactive)
	}

	env, err := openAdminEnv(cmd.Context())
	if err != nil {
		return err
	}
	defer env.close()

	if err := env.service.SetStatus(cmd.Context(), args[0], status); err != nil {
		return fmt.Errorf("set status: %w", err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "%s is now %s\n", auth.NormalizeEmail(args[0]), status)
	return nil
}

func runAdminList(cmd *cobra.Command, args []string) error {
	env, err := openAdminEnv(cmd.Context())
	if err != nil {
		return err
	}
	defer env.close()

	admins, err := env.store.List(cmd.Context())
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "EMAIL\tNAME\tSTATUS\tLAST LOGIN")
	for _, admin := range admins {
		lastLogin := "never"
		if admin.LastLoginAt != nil {
			lastLogin = admin.LastLoginAt.Format(time.RFC3339)
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", admin.Email, admin.Name, admin.Status, lastLogin)
	}
	return w.Flush()
}

func runAdminSeed(cmd *cobra.Command, args []string) error {
	env, err := openAdminEnv(cmd.Context())
	if err != nil {
		return err
	}
	defer env.close()

	created, err := env.service.BootstrapAdmin(cmd.Context(), env.cfg.AdminEmail, env.cfg.AdminPassword, env.cfg.AdminName)
	if err != nil {
		return err
	}
	if !created {
		fmt.Fprintln(cmd.OutOrStdout(), "administrators already exist or ADMIN_EMAIL is unset; nothing to do")
		return nil
	}

	fmt.Fprintf(cmd.OutOrStdout(), "created %s\n", env.cfg.AdminEmail)
	return nil
}

func passwordFromFlagOrEnv(flag string) string {
	if flag != "" {
		return flag
	}
	return os.Getenv("PARISH_ADMIN_PASSWORD")
}
