package main

import (
	"flag"
	"fmt"
	"os"
	"sort"

	"github.com/funduq/funduq/scripts/internal"
)

type command struct {
	description string
	run         func() error
}

var commands = map[string]command{
	"reprocess-payments": {
		description: "Re-apply gateway payments listed in a CSV (FILE_PATH, DRY_RUN)",
		run:         internal.ReprocessPayments,
	},
	"recompute-booking-totals": {
		description: "Recompute paid amount and balance for bookings listed in a CSV (FILE_PATH, DRY_RUN)",
		run:         internal.RecomputeBookingTotals,
	},
}

func main() {
	name := flag.String("cmd", "", "command to run")
	list := flag.Bool("list", false, "list available commands")
	flag.Parse()

	if *list || *name == "" {
		names := make([]string, 0, len(commands))
		for n := range commands {
			names = append(names, n)
		}
		sort.Strings(names)
		fmt.Println("available commands:")
		for _, n := range names {
			fmt.Printf("  %-26s %s\n", n, commands[n].description)
		}
		if !*list {
			os.Exit(1)
		}
		return
	}

	cmd, ok := commands[*name]
	if !ok {
		fmt.Printf("unknown command: %s\n", *name)
		os.Exit(1)
	}
	if err := cmd.run(); err != nil {
		fmt.Printf("%s failed: %v\n", *name, err)
		os.Exit(1)
	}
}
