package main

import (
	"fmt"
	"io"
	"strconv"

	"github.com/rtucker-mozilla/minventory/internal/models"
	"github.com/rtucker-mozilla/minventory/internal/services"
	"github.com/spf13/cobra"
)

var taskType string

func init() {
	tasksCmd.PersistentFlags().StringVar(&taskType, "type", "", "task type (dhcp, dns, reverse_dns_zone)")
	tasksCmd.AddCommand(tasksListCmd)
	tasksCmd.AddCommand(tasksClearCmd)
}

var tasksCmd = &cobra.Command{
	Use:   "tasks",
	Short: "Inspect or clear the scheduled task table",
}

var tasksListCmd = &cobra.Command{
	Use:   "list",
	Short: "List scheduled tasks ordered by task name",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openDB()
		if err != nil {
			return err
		}
		tasks, err := services.NewScheduledTaskService(db, nil).List(taskType)
		if err != nil {
			return err
		}
		printTasks(cmd.OutOrStdout(), tasks)
		return nil
	},
}

var tasksClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Delete every task of one type once its job has run",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if taskType == "" {
			return fmt.Errorf("--type is required")
		}
		db, err := openDB()
		if err != nil {
			return err
		}
		n, err := services.NewScheduledTaskService(db, nil).DeleteByType(taskType)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "removed %d %s tasks\n", n, taskType)
		return nil
	},
}

func printTasks(w io.Writer, tasks []models.ScheduledTask) {
	table := newTable(w, []string{"ID", "Type", "Task"})
	for _, t := range tasks {
		table.Append([]string{strconv.FormatUint(uint64(t.ID), 10), t.Type, t.Task})
	}
	table.Render()
}
