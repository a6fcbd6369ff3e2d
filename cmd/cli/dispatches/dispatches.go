package dispatches

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/crucial707/hci-dispatch/cmd/cli/config"
	"github.com/crucial707/hci-dispatch/cmd/cli/output"
	"github.com/crucial707/hci-dispatch/internal/models"
	"github.com/spf13/cobra"
)

// ==========================
// Init Dispatches
// ==========================
func InitDispatches(rootCmd *cobra.Command) {

	var templateID int
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "dispatches",
		Short: "Show the dispatch log",
		Run: func(cmd *cobra.Command, args []string) {

			token, err := config.LoadToken()
			if err != nil {
				fmt.Println("Please login first")
				return
			}

			u := config.APIURL() + "/v1/dispatches"
			if templateID > 0 {
				u += fmt.Sprintf("?template_id=%d", templateID)
			}

			req, _ := http.NewRequest("GET", u, nil)
			req.Header.Set("Authorization", "Bearer "+token)

			resp, err := http.DefaultClient.Do(req)
			if err != nil {
				fmt.Println(err)
				return
			}
			defer resp.Body.Close()

			var entries []models.DispatchEntry
			if err := json.NewDecoder(resp.Body).Decode(&entries); err != nil {
				fmt.Println(err)
				return
			}

			if asJSON {
				output.RenderJSON(entries)
				return
			}

			rows := make([][]interface{}, 0, len(entries))
			for _, e := range entries {
				rows = append(rows, []interface{}{
					e.ID, e.TemplateID, e.FiredAt.Local().Format("2006-01-02 15:04:05"),
					e.Status, e.Detail,
				})
			}
			output.RenderTable([]string{"ID", "TEMPLATE", "FIRED AT", "STATUS", "DETAIL"}, rows)
		},
	}

	cmd.Flags().IntVar(&templateID, "template", 0, "only show dispatches for this template ID")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print raw JSON instead of a table")

	rootCmd.AddCommand(cmd)
}
