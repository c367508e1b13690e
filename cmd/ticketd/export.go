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
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/blinklabs-io/ticketd/archive"
	"github.com/blinklabs-io/ticketd/internal/node"
	"github.com/spf13/cobra"
)

func exportCommand() *cobra.Command {
	var (
		dest            string
		fromSeq         uint64
		region          string
		endpoint        string
		credentialsFile string
		timeout         time.Duration
		encrypt         bool
	)
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export the event journal as zstd-compressed JSON lines",
		Long: "Export the event journal to a local file, s3://bucket/key or " +
			"gs://bucket/object.",
		Args: cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			cfg := configFromCommand(cmd)
			logger := commonRun()
			res, err := node.Export(
				cmd.Context(),
				cfg,
				logger,
				dest,
				fromSeq,
				archive.WithRegion(region),
				archive.WithEndpoint(endpoint),
				archive.WithCredentialsFile(credentialsFile),
				archive.WithTimeout(timeout),
				archive.WithEncryption(encrypt),
			)
			if err != nil {
				slog.Error(err.Error())
				os.Exit(1)
			}
			fmt.Printf(
				"exported %d entries (seq %d-%d) to %s\n",
				res.Entries,
				res.FirstSeq,
				res.LastSeq,
				res.Target.String(),
			)
		},
	}
	cmd.Flags().StringVar(&dest, "dest", "", "export destination (path, s3:// or gs:// URL)")
	cmd.Flags().Uint64Var(&fromSeq, "from-seq", 1, "first journal sequence number to export")
	cmd.Flags().StringVar(&region, "s3-region", "", "AWS region for s3:// destinations")
	cmd.Flags().StringVar(&endpoint, "s3-endpoint", "", "custom S3 endpoint")
	cmd.Flags().StringVar(&credentialsFile, "gcs-credentials-file", "", "service account file for gs:// destinations")
	cmd.Flags().DurationVar(&timeout, "timeout", 0, "export timeout (0 = none)")
	cmd.Flags().BoolVar(&encrypt, "encrypt", false, "encrypt the export with sops using "+archive.EnvGCPKMSResourceID+" or "+archive.EnvAWSKMSKeyARNs)
	_ = cmd.MarkFlagRequired("dest")
	return cmd
}
