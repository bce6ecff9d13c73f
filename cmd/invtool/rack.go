package main

import (
	"fmt"
	"io"
	"strconv"

	"github.com/rtucker-mozilla/minventory/internal/models"
	"github.com/rtucker-mozilla/minventory/internal/services"
	"github.com/spf13/cobra"
)

var (
	rackSite   string
	rackStatus string
)

func init() {
	rackCmd.Flags().StringVar(&rackSite, "site", "", "only list racks of this site (id or full name)")
	rackCmd.Flags().StringVar(&rackStatus, "status", "", "only show systems with this status")
}

var rackCmd = &cobra.Command{
	Use:   "rack [RACK]",
	Short: "List racks, or print the elevation of one rack",
	Long: `Without arguments rack lists every rack. Given a rack id or name it
prints the systems of that rack in rack order, systems without a slot last.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openDB()
		if err != nil {
			return err
		}
		racks := services.NewRackService(db, services.NewRevisionService(db))

		if len(args) == 0 {
			list, err := racks.List(&services.RackListRequest{Site: rackSite})
			if err != nil {
				return err
			}
			printRacks(cmd.OutOrStdout(), list)
			return nil
		}

		view, err := racks.View(args[0], &services.RackSystemsFilter{Status: rackStatus})
		if err != nil {
			return err
		}
		printElevation(cmd.OutOrStdout(), view)
		return nil
	},
}

func printRacks(w io.Writer, racks []models.SystemRack) {
	table := newTable(w, []string{"ID", "Rack", "Site", "Location"})
	for _, rack := range racks {
		site, location := "", ""
		if rack.Site != nil {
			site = rack.Site.FullName
		}
		if rack.Location != nil {
			location = rack.Location.Name
		}
		table.Append([]string{strconv.FormatUint(uint64(rack.ID), 10), rack.Name, site, location})
	}
	table.Render()
}

func printElevation(w io.Writer, view *services.RackView) {
	fmt.Fprintf(w, "%s", view.Name)
	if view.SiteName != "" {
		fmt.Fprintf(w, " (%s)", view.SiteName)
	}
	fmt.Fprintf(w, ": %d systems\n", len(view.Systems))

	table := newTable(w, []string{"Order", "Hostname", "Model", "Status", "Serial", "Asset Tag"})
	for _, sys := range view.Systems {
		order := ""
		if sys.RackOrder != nil {
			order = strconv.FormatFloat(*sys.RackOrder, 'f', 2, 64)
		}
		table.Append([]string{order, sys.Hostname, value(sys.ServerModel), value(sys.SystemStatus), sys.Serial, sys.AssetTag})
	}
	table.Render()
}

func value(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
