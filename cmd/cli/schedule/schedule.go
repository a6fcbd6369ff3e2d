package schedule

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/crucial707/hci-dispatch/cmd/cli/config"
	"github.com/crucial707/hci-dispatch/cmd/cli/output"
	"github.com/spf13/cobra"
)

// ==========================
// Init Schedule
// ==========================
func InitSchedule(rootCmd *cobra.Command) {

	scheduleCmd := &cobra.Command{
		Use:   "schedule",
		Short: "View and edit template schedules",
	}

	scheduleCmd.AddCommand(
		showScheduleCmd(),
		setScheduleCmd(),
		clearScheduleCmd(),
	)

	rootCmd.AddCommand(scheduleCmd)
}

// ==========================
// SHOW
// ==========================
func showScheduleCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show [id]",
		Short: "Show a template's schedule",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {

			token, err := config.LoadToken()
			if err != nil {
				fmt.Println("Please login first")
				return
			}

			req, _ := http.NewRequest("GET", config.APIURL()+"/v1/templates/"+args[0]+"/schedule", nil)
			req.Header.Set("Authorization", "Bearer "+token)

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
}

// ==========================
// SET
// ==========================
func setScheduleCmd() *cobra.Command {

	var scheduleType string
	var date string
	var measure int
	var unit string
	var start string
	var end string

	cmd := &cobra.Command{
		Use:   "set [id]",
		Short: "Set a template's schedule",
		Long: `Set a template's schedule.

For a one-shot send at a fixed time:
  schedule set 3 --type fixed_date --date 2026-09-01T09:00:00Z

For a repeating schedule:
  schedule set 3 --type repeating --every 2 --unit week --start 2026-09-01T00:00:00Z`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {

			payload := map[string]interface{}{
				"sending_method": "scheduled",
				"schedule_type":  scheduleType,
			}

			switch scheduleType {
			case "fixed_date":
				t, err := parseTimeFlag("date", date, true)
				if err != nil {
					return err
				}
				payload["schedule_date"] = t
			case "repeating":
				if measure <= 0 {
					return fmt.Errorf("--every must be a positive integer")
				}
				payload["schedule_measure"] = measure
				payload["schedule_unit"] = unit
				if t, err := parseTimeFlag("start", start, false); err != nil {
					return err
				} else if t != nil {
					payload["schedule_start_date"] = t
				}
				if t, err := parseTimeFlag("end", end, false); err != nil {
					return err
				} else if t != nil {
					payload["schedule_end_date"] = t
				}
			default:
				return fmt.Errorf("--type must be fixed_date or repeating")
			}

			return putSchedule(args[0], payload)
		},
	}

	cmd.Flags().StringVar(&scheduleType, "type", "", "fixed_date or repeating")
	cmd.Flags().StringVar(&date, "date", "", "send time for fixed_date (RFC 3339)")
	cmd.Flags().IntVar(&measure, "every", 0, "interval measure for repeating (e.g. 2 for every 2 weeks)")
	cmd.Flags().StringVar(&unit, "unit", "", "interval unit: minute, hour, day, week, month, year")
	cmd.Flags().StringVar(&start, "start", "", "optional window start (RFC 3339)")
	cmd.Flags().StringVar(&end, "end", "", "optional window end (RFC 3339)")

	return cmd
}

// ==========================
// CLEAR
// ==========================
func clearScheduleCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "clear [id]",
		Short: "Switch a template to manual sending",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return putSchedule(args[0], map[string]interface{}{
				"sending_method": "manual",
			})
		},
	}
}

func putSchedule(id string, payload map[string]interface{}) error {
	token, err := config.LoadToken()
	if err != nil {
		return fmt.Errorf("please login first")
	}

	data, _ := json.Marshal(payload)

	req, err := http.NewRequest("PUT", config.APIURL()+"/v1/templates/"+id+"/schedule", bytes.NewBuffer(data))
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("API error: %s", string(body))
	}

	var out any
	json.Unmarshal(body, &out)
	output.RenderJSON(out)
	return nil
}

func parseTimeFlag(name, value string, required bool) (*time.Time, error) {
	if value == "" {
		if required {
			return nil, fmt.Errorf("--%s is required", name)
		}
		return nil, nil
	}
	t, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return nil, fmt.Errorf("--%s must be RFC 3339 (e.g. 2026-09-01T09:00:00Z)", name)
	}
	return &t, nil
}
