/* Copyright 2019 Comcast Cable Communications Management, LLC
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 * http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package main

import (
	"github.com/Comcast/chatter/journal"

	"github.com/spf13/cobra"
)

// NewJournalCommand creates the journal command.
func NewJournalCommand(rootOpts *RootOptions) *cobra.Command {
	rm := false

	cmd := &cobra.Command{
		Use:   "journal FILE [SESSION]",
		Short: "List journal sessions or one session's entries",
		Long: `With just a FILE, print each session as a line of JSON.  With a
SESSION id, print that session's entries in order.`,
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			j, err := journal.Open(args[0])
			if err != nil {
				return err
			}
			defer j.Close()
			j.Debug = rootOpts.Verbose

			out := cmd.OutOrStdout()
			if len(args) == 1 {
				ss, err := j.Sessions(ctx)
				if err != nil {
					return err
				}
				for _, s := range ss {
					if err = writeJSON(out, s); err != nil {
						return err
					}
				}
				return nil
			}

			if rm {
				return j.RemSession(ctx, args[1])
			}
			es, err := j.Entries(ctx, args[1])
			if err != nil {
				return err
			}
			for _, e := range es {
				if err = writeJSON(out, e); err != nil {
					return err
				}
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&rm, "rm", false, "remove the session instead")

	return cmd
}
