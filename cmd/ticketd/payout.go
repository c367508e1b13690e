// Copyright 2025 Blink Labs Software
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package main

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"strconv"

	"github.com/blinklabs-io/ticketd/database/types"
	"github.com/blinklabs-io/ticketd/internal/node"
	"github.com/spf13/cobra"
)

func payoutCommand() *cobra.Command {
	var maxLen uint32
	cmd := &cobra.Command{
		Use:   "payout <ticket-id> <balance>",
		Short: "Show how a ticket sale would be split between royalty holders",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ticketID, err := strconv.ParseUint(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid ticket ID: %w", err)
			}
			balance, err := types.ParseBalance(args[1])
			if err != nil {
				return err
			}
			cfg := configFromCommand(cmd)
			logger := commonRun()
			payout, err := node.Payout(cfg, logger, ticketID, balance, maxLen)
			if err != nil {
				slog.Error(err.Error())
				os.Exit(1)
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(payout)
		},
	}
	cmd.Flags().Uint32Var(&maxLen, "max-len", 10, "maximum number of payout recipients")
	return cmd
}
