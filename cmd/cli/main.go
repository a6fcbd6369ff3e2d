package main

import (
	"fmt"
	"os"

	"github.com/crucial707/hci-dispatch/cmd/cli/auth"
	"github.com/crucial707/hci-dispatch/cmd/cli/dispatches"
	"github.com/crucial707/hci-dispatch/cmd/cli/due"
	"github.com/crucial707/hci-dispatch/cmd/cli/root"
	"github.com/crucial707/hci-dispatch/cmd/cli/schedule"
	"github.com/crucial707/hci-dispatch/cmd/cli/templates"
	"github.com/crucial707/hci-dispatch/cmd/cli/users"
)

func main() {
	rootCmd := root.GetRoot()

	auth.InitAuth(rootCmd)
	templates.InitTemplates(rootCmd)
	schedule.InitSchedule(rootCmd)
	due.InitDue(rootCmd)
	dispatches.InitDispatches(rootCmd)
	users.InitUsers(rootCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Println("Error:", err)
		os.Exit(1)
	}
}
