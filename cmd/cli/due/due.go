package due

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"github.com/crucial707/hci-dispatch/cmd/cli/config"
	"github.com/crucial707/hci-dispatch/cmd/cli/output"
	"github.com/spf13/cobra"
)

// ==========================
// Init Due
// ==========================
func InitDue(rootCmd *cobra.Command) {

	var at string

	cmd := &cobra.Command{
		Use:   "due",
		Short: "List templates currently due for dispatch",
		Long: `List template IDs that are due for dispatch, split by schedule kind.
Useful for checking what the dispatcher will pick up on its next pass.`,
		Run: func(cmd *cobra.Command, args []string) {

			token, err := config.LoadToken()
			if err != nil {
				fmt.Println("Please login first")
				return
			}

			rows := [][]interface{}{}
			for _, kind := range []string{"fixed", "repeating"} {
				ids, asOf, err := fetchDue(token, kind, at)
				if err != nil {
					fmt.Println(err)
					return
				}
				for _, id := range ids {
					rows = append(rows, []interface{}{id, kind, asOf})
				}
			}
			output.RenderTable([]string{"ID", "KIND", "AS OF"}, rows)
		},
	}

	cmd.Flags().StringVar(&at, "at", "", "evaluate dueness at this instant (RFC 3339, default now)")

	rootCmd.AddCommand(cmd)
}

func fetchDue(token, kind, at string) ([]int, string, error) {
	u := config.APIURL() + "/v1/due/" + kind
	if at != "" {
		u += "?at=" + url.QueryEscape(at)
	}

	req, err := http.NewRequest("GET", u, nil)
	if err != nil {
		return nil, "", err
	}
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, "", fmt.Errorf("API error: status %d", resp.StatusCode)
	}

	var out struct {
		At  string `json:"at"`
		IDs []int  `json:"ids"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, "", err
	}
	return out.IDs, out.At, nil
}
