package main

import (
	"context"
	"flag"
	"fmt"

	"github.com/trezcool/mahudhurio/core/maintenance"
)

func (cli *commandLine) maintenance(args []string) error {
	if len(args) == 0 {
		cli.printUsage()
		return errHelp
	}
	ctx := context.Background()

	switch args[0] {
	case "on":
		onCmd := flag.NewFlagSet("maintenance on", flag.ExitOnError)
		start := onCmd.String("start", "", "Start instant, e.g. 2006-01-02T15:04 (immediate when omitted).")
		end := onCmd.String("end", "", "End instant; the window clears itself past it.")
		message := onCmd.String("message", "", "Message shown on the maintenance page.")
		if err := onCmd.Parse(args[1:]); err != nil {
			return err
		}

		uw := maintenance.UpdateWindow{
			Active:  true,
			StartAt: *start,
			EndAt:   *end,
			Message: *message,
		}
		if err := uw.Validate(); err != nil {
			return err
		}
		w, err := cli.maintSvc.Set(ctx, uw)
		if err != nil {
			return err
		}
		printWindow(w)
		return nil

	case "off":
		w, err := cli.maintSvc.Set(ctx, maintenance.UpdateWindow{})
		if err != nil {
			return err
		}
		printWindow(w)
		return nil

	case "status":
		w, err := cli.maintSvc.Get(ctx)
		if err != nil {
			return err
		}
		printWindow(w)
		return nil

	default:
		cli.printUsage()
		return errHelp
	}
}

func printWindow(w maintenance.Window) {
	fmt.Printf("active:     %t\n", w.Active)
	fmt.Printf("start_at:   %s\n", valueOrUnset(w.StartAt))
	fmt.Printf("end_at:     %s\n", valueOrUnset(w.EndAt))
	fmt.Printf("message:    %s\n", valueOrUnset(w.Message))
	fmt.Printf("updated_at: %s\n", w.UpdatedAt)
}

func valueOrUnset(s string) string {
	if s == "" {
		return "<unset>"
	}
	return s
}
