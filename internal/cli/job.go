package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

// NewJobCmd создаёт группу команд для управления jobs.
func NewJobCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "job",
		Short: "Manage ingestion jobs",
	}

	cmd.AddCommand(
		newJobSubmitCmd(clientFn, outputFn),
		newJobShowCmd(clientFn, outputFn),
		newJobWatchCmd(clientFn, outputFn),
	)

	return cmd
}

func newJobSubmitCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	var jobID string
	var filePath string
	var contentType string
	var checksum string
	var submittedBy string
	var wait bool

	cmd := &cobra.Command{
		Use:   "submit",
		Short: "Submit a file for processing",
		RunE: func(cmd *cobra.Command, args []string) error {
			client := clientFn()
			out := outputFn()

			accepted, err := client.SubmitJob(SubmitJobRequest{
				JobID:          jobID,
				FilePath:       filePath,
				ContentType:    contentType,
				ChecksumSHA256: checksum,
				SubmittedBy:    submittedBy,
			})
			if err != nil {
				return err
			}

			out.Success(fmt.Sprintf("Job %s accepted", accepted.JobID))

			if !wait {
				out.Print(
					[]string{"JOB_ID", "STATUS"},
					[][]string{{accepted.JobID, accepted.Status}},
					accepted,
				)
				return nil
			}

			job, err := waitTerminal(client, accepted.JobID)
			if err != nil {
				return err
			}
			printJob(out, job)
			return nil
		},
	}

	cmd.Flags().StringVar(&jobID, "job-id", "", "Job ID (generated if omitted)")
	cmd.Flags().StringVar(&filePath, "file", "", "Path of the uploaded file (required)")
	cmd.Flags().StringVar(&contentType, "content-type", "", "MIME type of the file (required)")
	cmd.Flags().StringVar(&checksum, "checksum", "", "SHA-256 checksum of the file")
	cmd.Flags().StringVar(&submittedBy, "submitted-by", "", "Submitter identity")
	cmd.Flags().BoolVar(&wait, "wait", false, "Wait until the job finishes")
	cmd.MarkFlagRequired("file")
	cmd.MarkFlagRequired("content-type")

	return cmd
}

func newJobShowCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	return &cobra.Command{
		Use:   "show <job-id>",
		Short: "Show job state",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := clientFn()
			out := outputFn()

			job, err := client.GetJob(args[0])
			if err != nil {
				return err
			}

			printJob(out, job)
			return nil
		},
	}
}

func newJobWatchCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	return &cobra.Command{
		Use:   "watch <job-id>",
		Short: "Poll job state until it finishes",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := clientFn()
			out := outputFn()

			job, err := waitTerminal(client, args[0])
			if err != nil {
				return err
			}

			printJob(out, job)
			return nil
		},
	}
}

// waitTerminal опрашивает API, пока job не завершится.
func waitTerminal(client *Client, jobID string) (*JobResponse, error) {
	for {
		job, err := client.GetJob(jobID)
		if err != nil {
			return nil, err
		}
		if job.Status == "completed" || job.Status == "failed" {
			return job, nil
		}
		time.Sleep(500 * time.Millisecond)
	}
}

func printJob(out *Output, job *JobResponse) {
	headers := []string{"JOB_ID", "STATUS", "STEP", "BRANCH", "ERROR"}
	rows := [][]string{{job.JobID, job.Status, job.Step, job.Branch, job.Error}}
	out.Print(headers, rows, job)
}
