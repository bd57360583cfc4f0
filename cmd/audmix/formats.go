// SPDX-License-Identifier: EPL-2.0

package main

import (
	"fmt"

	"github.com/ik5/audmix"
	"github.com/spf13/cobra"
)

func newFormatsCmd(_ *app) *cobra.Command {
	return &cobra.Command{
		Use:   "formats",
		Short: "List the file extensions audmix can decode",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			for _, ext := range audmix.DefaultRegistry().Formats() {
				fmt.Fprintln(cmd.OutOrStdout(), ext)
			}
			return nil
		},
	}
}
