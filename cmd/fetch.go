// Package cmd holds the extra cobra commands attached to the root CLI.
package cmd

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/dlnode/dlnode/internal/logbus"
	"github.com/dlnode/dlnode/internal/logging"
	"github.com/dlnode/dlnode/internal/supervisor"
	"github.com/dlnode/dlnode/internal/ytdlp"
)

// CreateFetchCmd creates the fetch command: a one-shot foreground download
// that goes through the same argument builder and process supervision as
// the HTTP API, printing output lines to stdout.
func CreateFetchCmd() *cobra.Command {
	var (
		bin            string
		outputTemplate string
		archivePath    string
		customFormat   string
		dlKind         string
		maxHeight      string
		limitRate      string
		destinationDir string
		logJSON        bool
	)

	cmd := &cobra.Command{
		Use:   "fetch [url]",
		Short: "Download a single URL in the foreground",
		Long: `Builds the same yt-dlp invocation the API would and runs it to completion, ` +
			`streaming output to stdout. Ctrl-C interrupts the whole download process group.`,
		Args: cobra.ExactArgs(1),
		Run: func(_ *cobra.Command, args []string) {
			loggingConfig := logging.Config{
				Level:  "warn",
				Format: "text",
			}
			if logJSON {
				loggingConfig.Format = "json"
			}
			logging.Initialize(loggingConfig)
			logger := logging.GetLogger("fetch")

			req := ytdlp.Request{
				URL:            args[0],
				OutputTemplate: outputTemplate,
				ArchivePath:    archivePath,
				DownloadKind:   dlKind,
				MaxHeight:      maxHeight,
				LimitRate:      limitRate,
				DestinationDir: destinationDir,
			}
			if customFormat != "" {
				req.FormatMode = ytdlp.FormatModeCustom
				req.CustomFormat = customFormat
			}

			argv, err := ytdlp.BuildArgs(bin, req)
			if err != nil {
				logger.Error("Invalid download request", "error", err)
				os.Exit(2)
			}

			bus := logbus.New(logbus.Config{})
			sup := supervisor.New(&supervisor.Options{
				Bus:    bus,
				Logger: logger,
			})

			// Subscribe before starting so the announce line is never missed
			sub := bus.Subscribe()
			defer sub.Close()

			job, err := sup.Start(argv, false)
			if err != nil {
				logger.Error("Failed to start download", "error", err)
				os.Exit(1)
			}

			// Forward Ctrl-C as a cooperative stop; yt-dlp finalizes its
			// archive and partial files on SIGINT
			sigCh := make(chan os.Signal, 1)
			signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
			go func() {
				<-sigCh
				sup.Stop()
			}()

			for {
				select {
				case line, ok := <-sub.Lines():
					if !ok {
						<-job.Done()
						os.Exit(job.ExitCode())
					}
					fmt.Println(line)
				case <-job.Done():
					// Drain whatever the broadcaster still holds
					for {
						select {
						case line, ok := <-sub.Lines():
							if !ok {
								os.Exit(job.ExitCode())
							}
							fmt.Println(line)
						default:
							os.Exit(job.ExitCode())
						}
					}
				}
			}
		},
	}

	cmd.Flags().StringVar(&bin, "bin", ytdlp.DefaultBinary, "yt-dlp executable to run")
	cmd.Flags().StringVarP(&outputTemplate, "output", "o", "", "yt-dlp output template")
	cmd.Flags().StringVar(&archivePath, "archive", "", "Download archive file")
	cmd.Flags().StringVarP(&customFormat, "format", "f", "", "Custom yt-dlp format selector")
	cmd.Flags().StringVar(&dlKind, "kind", ytdlp.KindVideoAudio,
		"Preset download kind (video_audio, video, audio)")
	cmd.Flags().StringVar(&maxHeight, "max-height", "", "Cap video height for preset formats (e.g. 1080)")
	cmd.Flags().StringVar(&limitRate, "limit-rate", "", "Download rate limit (e.g. 4M)")
	cmd.Flags().StringVar(&destinationDir, "dest", "", "Destination directory")
	cmd.Flags().BoolVar(&logJSON, "log-json", false, "Use JSON log format")

	return cmd
}
