package commands

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/yegors/hamsearch/internal/lookup"
	"github.com/yegors/hamsearch/internal/render"
)

func lookupCmd() *cobra.Command {
	return oneShotCmd("lookup <callsign>", "Print the registry record for a callsign", lookup.CommandLookup, 1)
}

func statsCmd() *cobra.Command {
	return oneShotCmd("stats <callsign>", "Print QRZ logbook statistics for a callsign", lookup.CommandStats, 1)
}

func distanceCmd() *cobra.Command {
	return oneShotCmd("distance <from> <to>", "Print the distance between two callsigns", lookup.CommandDistance, 2)
}

func conditionsCmd() *cobra.Command {
	return oneShotCmd("conditions", "Print the band conditions image URL", lookup.CommandConditions, 0)
}

func oneShotCmd(use, short, command string, nargs int) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.ExactArgs(nargs),
		RunE: func(cmd *cobra.Command, args []string) error {
			inv := lookup.Invocation{User: cliUser(), Source: "cli"}

			out := appCtx.Service.Execute(cmd.Context(), inv, command, args)
			if !out.OK() {
				return errors.New(out.Failure.UserMessage)
			}

			card, ok := render.Payload(out.Payload)
			if !ok {
				return fmt.Errorf("no renderer for %T", out.Payload)
			}
			fmt.Fprint(cmd.OutOrStdout(), render.Text(card))
			return nil
		},
	}
}

func cliUser() string {
	if u := os.Getenv("USER"); u != "" {
		return u
	}
	return "cli"
}
