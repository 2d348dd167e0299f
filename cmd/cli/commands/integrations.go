package commands

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

func init() {
	integrationsCmd.AddCommand(listIntegrationsCmd)
	integrationsCmd.AddCommand(availabilityCmd)
	integrationsCmd.AddCommand(enableIntegrationCmd)
	integrationsCmd.AddCommand(disableIntegrationCmd)

	enableIntegrationCmd.Flags().StringP("name", "n", "", "Integration name")
	_ = enableIntegrationCmd.MarkFlagRequired("name")

	disableIntegrationCmd.Flags().StringP("name", "n", "", "Integration name")
	disableIntegrationCmd.Flags().StringP("reason", "r", "", "Reason for disabling")
	_ = disableIntegrationCmd.MarkFlagRequired("name")
	_ = disableIntegrationCmd.MarkFlagRequired("reason")
}

var integrationsCmd = &cobra.Command{
	Use:   "integrations",
	Short: "Manage provider integrations",
}

var listIntegrationsCmd = &cobra.Command{
	Use:   "list",
	Short: "List provider health rows",
	RunE: func(cmd *cobra.Command, _ []string) error {
		statuses, err := apiClient.GetIntegrations(context.Background())
		if err != nil {
			return fmt.Errorf("error fetching integrations: %w", err)
		}
		return printJSON(cmd, statuses)
	},
}

var availabilityCmd = &cobra.Command{
	Use:   "availability",
	Short: "Show feature-level data availability",
	RunE: func(cmd *cobra.Command, _ []string) error {
		availability, err := apiClient.GetAvailability(context.Background())
		if err != nil {
			return fmt.Errorf("error fetching availability: %w", err)
		}
		return printJSON(cmd, availability)
	},
}

var enableIntegrationCmd = &cobra.Command{
	Use:   "enable",
	Short: "Clear a manual disable",
	RunE: func(cmd *cobra.Command, _ []string) error {
		name, _ := cmd.Flags().GetString("name")

		status, err := apiClient.EnableIntegration(context.Background(), name)
		if err != nil {
			return fmt.Errorf("error enabling integration: %w", err)
		}
		return printJSON(cmd, status)
	},
}

var disableIntegrationCmd = &cobra.Command{
	Use:   "disable",
	Short: "Manually disable an integration",
	RunE: func(cmd *cobra.Command, _ []string) error {
		name, _ := cmd.Flags().GetString("name")
		reason, _ := cmd.Flags().GetString("reason")

		status, err := apiClient.DisableIntegration(context.Background(), name, reason)
		if err != nil {
			return fmt.Errorf("error disabling integration: %w", err)
		}
		return printJSON(cmd, status)
	},
}

// GetIntegrationsCmd returns the integrations command
func GetIntegrationsCmd() *cobra.Command {
	return integrationsCmd
}
