package main

import (
	"fmt"

	"github.com/bytedance/sonic"
	"github.com/spf13/cobra"

	"github.com/Sternrassler/learn-cache/pkg/cacheditem"
	"github.com/Sternrassler/learn-cache/pkg/form"
	"github.com/Sternrassler/learn-cache/pkg/systemsettings"
)

// getFlags holds the flags shared by the get subcommands.
type getFlags struct {
	from string
}

func newGetCmd(opts *rootFlags) *cobra.Command {
	getOpts := &getFlags{}

	cmd := &cobra.Command{
		Use:   "get",
		Short: "Look up one cached item and print it as JSON",
	}
	cmd.PersistentFlags().StringVar(&getOpts.from, "from", "cache", "Lookup source: cache or server")

	cmd.AddCommand(newGetFormCmd(opts, getOpts))
	cmd.AddCommand(newGetSettingsCmd(opts, getOpts))
	return cmd
}

func newGetFormCmd(opts *rootFlags, getOpts *getFlags) *cobra.Command {
	var component, rootOrgID, framework string

	cmd := &cobra.Command{
		Use:   "form <type> <subType> <action>",
		Short: "Look up a form",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			from, err := cacheditem.ParseSource(getOpts.from)
			if err != nil {
				return err
			}

			a, err := newApp(cmd.Context(), opts)
			if err != nil {
				return err
			}
			defer a.Close()

			result, err := a.forms.GetForm(cmd.Context(), form.Request{
				Type:      args[0],
				SubType:   args[1],
				Action:    args[2],
				Component: component,
				RootOrgID: rootOrgID,
				Framework: framework,
				From:      from,
			})
			if err != nil {
				return err
			}
			return printJSON(cmd, result)
		},
	}

	cmd.Flags().StringVar(&component, "component", "", "Form component")
	cmd.Flags().StringVar(&rootOrgID, "root-org-id", "", "Root organisation id")
	cmd.Flags().StringVar(&framework, "framework", "", "Framework id")
	return cmd
}

func newGetSettingsCmd(opts *rootFlags, getOpts *getFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "settings <id>",
		Short: "Look up a system setting",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			from, err := cacheditem.ParseSource(getOpts.from)
			if err != nil {
				return err
			}

			a, err := newApp(cmd.Context(), opts)
			if err != nil {
				return err
			}
			defer a.Close()

			result, err := a.settings.GetSystemSettings(cmd.Context(), systemsettings.Request{ID: args[0], From: from})
			if err != nil {
				return err
			}
			return printJSON(cmd, result)
		},
	}
}

func printJSON(cmd *cobra.Command, v any) error {
	data, err := sonic.ConfigStd.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(cmd.OutOrStdout(), string(data))
	return err
}
