package templates

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/crucial707/hci-dispatch/cmd/cli/config"
	"github.com/crucial707/hci-dispatch/cmd/cli/output"
	"github.com/crucial707/hci-dispatch/internal/models"
	"github.com/spf13/cobra"
)

// ==========================
// Init Templates
// ==========================
func InitTemplates(rootCmd *cobra.Command) {

	templatesCmd := &cobra.Command{
		Use:   "templates",
		Short: "Manage message templates",
	}

	templatesCmd.AddCommand(
		listTemplatesCmd(),
		showTemplateCmd(),
		createTemplateCmd(),
		deleteTemplateCmd(),
	)

	rootCmd.AddCommand(templatesCmd)
}

// ==========================
// LIST
// ==========================
func listTemplatesCmd() *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List message templates",
		Run: func(cmd *cobra.Command, args []string) {

			var out struct {
				Items []models.Template `json:"items"`
				Total int               `json:"total"`
			}
			if err := authedGet("/v1/templates", &out); err != nil {
				fmt.Println(err)
				return
			}

			if asJSON {
				output.RenderJSON(out.Items)
				return
			}

			rows := make([][]interface{}, 0, len(out.Items))
			for _, t := range out.Items {
				sched := string(t.Schedule.SendingMethod)
				if t.Schedule.Type != nil {
					sched += "/" + string(*t.Schedule.Type)
				}
				rows = append(rows, []interface{}{
					t.ID, t.Name, t.Subject, sched,
					output.FormatTime(t.Schedule.NextSendDate),
				})
			}
			output.RenderTable([]string{"ID", "NAME", "SUBJECT", "SCHEDULE", "NEXT SEND"}, rows)
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "print raw JSON instead of a table")
	return cmd
}

// ==========================
// SHOW
// ==========================
func showTemplateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show [id]",
		Short: "Show one template",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {

			var t models.Template
			if err := authedGet("/v1/templates/"+args[0], &t); err != nil {
				fmt.Println(err)
				return
			}
			output.RenderJSON(t)
		},
	}
}

// ==========================
// CREATE
// ==========================
func createTemplateCmd() *cobra.Command {

	var name string
	var subject string
	var body string

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a template",
		Run: func(cmd *cobra.Command, args []string) {

			token, err := config.LoadToken()
			if err != nil {
				fmt.Println("Please login first")
				return
			}

			payload := map[string]string{
				"name":    name,
				"subject": subject,
				"body":    body,
			}
			data, _ := json.Marshal(payload)

			req, _ := http.NewRequest("POST", config.APIURL()+"/v1/templates", bytes.NewBuffer(data))
			req.Header.Set("Authorization", "Bearer "+token)
			req.Header.Set("Content-Type", "application/json")

			resp, err := http.DefaultClient.Do(req)
			if err != nil {
				fmt.Println(err)
				return
			}
			defer resp.Body.Close()

			var out any
			json.NewDecoder(resp.Body).Decode(&out)
			output.RenderJSON(out)
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "template name")
	cmd.Flags().StringVar(&subject, "subject", "", "message subject")
	cmd.Flags().StringVar(&body, "body", "", "message body")

	return cmd
}

// ==========================
// DELETE
// ==========================
func deleteTemplateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete [id]",
		Short: "Delete a template",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {

			token, err := config.LoadToken()
			if err != nil {
				fmt.Println("Please login first")
				return
			}

			req, _ := http.NewRequest("DELETE", config.APIURL()+"/v1/templates/"+args[0], nil)
			req.Header.Set("Authorization", "Bearer "+token)

			resp, err := http.DefaultClient.Do(req)
			if err != nil {
				fmt.Println(err)
				return
			}
			resp.Body.Close()

			if resp.StatusCode == http.StatusNoContent {
				fmt.Println("Template deleted")
			} else {
				fmt.Println("Failed to delete template")
			}
		},
	}
}

// authedGet performs a token-authenticated GET and decodes the JSON response.
func authedGet(path string, out interface{}) error {
	token, err := config.LoadToken()
	if err != nil {
		return fmt.Errorf("please login first")
	}

	req, err := http.NewRequest("GET", config.APIURL()+path, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("API error: %s", string(b))
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
