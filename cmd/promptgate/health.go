package main

import (
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/awantoch/promptgate/constants"
	"github.com/awantoch/promptgate/utils"
)

// newHealthCmd creates the 'health' subcommand, a liveness probe against a
// running instance.
func newHealthCmd() *cobra.Command {
	var (
		baseURL string
		timeout time.Duration
	)
	cmd := &cobra.Command{
		Use:   "health",
		Short: "Probe the health endpoint of a running server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if baseURL == "" {
				port := os.Getenv(constants.EnvPort)
				if port == "" {
					port = fmt.Sprint(constants.DefaultHTTPPort)
				}
				baseURL = "http://127.0.0.1:" + port
			}
			target := strings.TrimSuffix(baseURL, "/") + constants.RoutePrefix + constants.RouteHealth

			req, err := http.NewRequestWithContext(cmd.Context(), http.MethodGet, target, nil)
			if err != nil {
				return err
			}
			client := &http.Client{Timeout: timeout}
			resp, err := client.Do(req)
			if err != nil {
				return fmt.Errorf("health check failed: %w", err)
			}
			defer resp.Body.Close()

			var body struct {
				Status string `json:"status"`
			}
			if resp.StatusCode != http.StatusOK {
				return fmt.Errorf("health check failed: %s returned %d", target, resp.StatusCode)
			}
			if err := json.NewDecoder(resp.Body).Decode(&body); err != nil || body.Status != constants.HealthStatusOK {
				return fmt.Errorf("health check failed: unexpected body from %s", target)
			}
			utils.User("%s", body.Status)
			return nil
		},
	}
	cmd.Flags().StringVar(&baseURL, "url", "", "Base URL of the server (default http://127.0.0.1:$PORT)")
	cmd.Flags().DurationVar(&timeout, "timeout", 5*time.Second, "Request timeout")
	return cmd
}
