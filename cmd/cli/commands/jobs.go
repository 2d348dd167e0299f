package commands

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/betslib/feedsync/pkg/api/v1/client"
)

func init() {
	jobsCmd.AddCommand(listJobsCmd)
	jobsCmd.AddCommand(jobStatsCmd)
	jobsCmd.AddCommand(getJobCmd)
	jobsCmd.AddCommand(retryJobCmd)
	jobsCmd.AddCommand(cancelJobCmd)

	listJobsCmd.Flags().StringP("status", "t", "", "Filter jobs by status")
	listJobsCmd.Flags().String("type", "", "Filter jobs by job type")
	listJobsCmd.Flags().IntP("page", "p", 1, "Page number")
	listJobsCmd.Flags().Int("page-size", 0, "Page size")

	getJobCmd.Flags().StringP("id", "i", "", "Job ID to fetch")
	_ = getJobCmd.MarkFlagRequired("id")

	retryJobCmd.Flags().StringP("id", "i", "", "Job ID to retry")
	_ = retryJobCmd.MarkFlagRequired("id")

	cancelJobCmd.Flags().StringP("id", "i", "", "Job ID to cancel")
	_ = cancelJobCmd.MarkFlagRequired("id")
}

var jobsCmd = &cobra.Command{
	Use:   "jobs",
	Short: "Manage background jobs",
}

var listJobsCmd = &cobra.Command{
	Use:   "list",
	Short: "List jobs",
	RunE: func(cmd *cobra.Command, _ []string) error {
		status, _ := cmd.Flags().GetString("status")
		jobType, _ := cmd.Flags().GetString("type")
		page, _ := cmd.Flags().GetInt("page")
		pageSize, _ := cmd.Flags().GetInt("page-size")

		data, err := apiClient.GetJobs(context.Background(), client.JobListParams{
			Status:   status,
			JobType:  jobType,
			Page:     page,
			PageSize: pageSize,
		})
		if err != nil {
			return fmt.Errorf("error fetching jobs: %w", err)
		}
		return printJSON(cmd, data)
	},
}

var jobStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show job counts per status",
	RunE: func(cmd *cobra.Command, _ []string) error {
		stats, err := apiClient.GetJobStats(context.Background())
		if err != nil {
			return fmt.Errorf("error fetching job stats: %w", err)
		}
		return printJSON(cmd, stats)
	},
}

var getJobCmd = &cobra.Command{
	Use:   "get",
	Short: "Get a specific job",
	RunE: func(cmd *cobra.Command, _ []string) error {
		jobID, _ := cmd.Flags().GetString("id")

		job, err := apiClient.GetJob(context.Background(), jobID)
		if err != nil {
			return fmt.Errorf("error fetching job: %w", err)
		}
		return printJSON(cmd, job)
	},
}

var retryJobCmd = &cobra.Command{
	Use:   "retry",
	Short: "Retry a failed or cancelled job",
	RunE: func(cmd *cobra.Command, _ []string) error {
		jobID, _ := cmd.Flags().GetString("id")

		job, err := apiClient.RetryJob(context.Background(), jobID)
		if err != nil {
			return fmt.Errorf("error retrying job: %w", err)
		}
		return printJSON(cmd, job)
	},
}

var cancelJobCmd = &cobra.Command{
	Use:   "cancel",
	Short: "Cancel a pending or processing job",
	RunE: func(cmd *cobra.Command, _ []string) error {
		jobID, _ := cmd.Flags().GetString("id")

		job, err := apiClient.CancelJob(context.Background(), jobID)
		if err != nil {
			return fmt.Errorf("error cancelling job: %w", err)
		}
		return printJSON(cmd, job)
	},
}

// GetJobsCmd returns the jobs command
func GetJobsCmd() *cobra.Command {
	return jobsCmd
}

// printJSON pretty prints the value as JSON on the command's output stream
func printJSON(cmd *cobra.Command, v interface{}) error {
	prettyJSON, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("error formatting response: %w", err)
	}
	fmt.Fprintln(cmd.OutOrStdout(), string(prettyJSON))
	return nil
}
