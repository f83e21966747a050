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
	"fmt"

	"github.com/Comcast/chatter/interpreters"
	"github.com/Comcast/chatter/plan"
	"github.com/Comcast/chatter/sio"
	"github.com/Comcast/chatter/tools"

	"github.com/spf13/cobra"
)

// NewCheckCommand creates the check command.
func NewCheckCommand(rootOpts *RootOptions) *cobra.Command {
	compile := false

	cmd := &cobra.Command{
		Use:   "check PLAN...",
		Short: "Look for problems in plans",
		Long: `Analyze each plan and print the analysis as a line of JSON.

With --compile, also compile every script in the plan.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			is := interpreters.Standard()
			bad := 0
			for _, filename := range args {
				p, err := plan.ParseFile(filename)
				if err != nil {
					return err
				}
				a := tools.Analyze(p, is)
				if a.OK() && compile {
					if _, err = p.Compile(cmd.Context(), is, sio.NewQueue()); err != nil {
						a.Errors = append(a.Errors, err.Error())
					}
				}
				if !a.OK() {
					bad++
				}
				if err = writeJSON(cmd.OutOrStdout(), map[string]interface{}{
					"plan":     filename,
					"analysis": a,
				}); err != nil {
					return err
				}
			}
			if 0 < bad {
				return fmt.Errorf("%d of %d plans have errors", bad, len(args))
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&compile, "compile", false, "compile scripts too")

	return cmd
}
