package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/tripplanner/itinerary-service/internal/client"
	"github.com/tripplanner/itinerary-service/internal/model"
)

var serviceURL string
var debug bool

func main() {
	cmd := NewRootCmd()
	if err := cmd.Execute(); err != nil {
		log.Error().Err(err).Msg("command failed")
		os.Exit(1)
	}
}

// NewRootCmd constructs the root CLI command; exposed for unit testing.
func NewRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "itinctl",
		Short:         "Command line client for the itinerary service",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			log.Logger = log.Output(zerolog.ConsoleWriter{
				Out:        os.Stderr,
				TimeFormat: "2006-01-02 15:04:05",
				NoColor:    true,
			})
			if debug {
				zerolog.SetGlobalLevel(zerolog.DebugLevel)
			} else {
				zerolog.SetGlobalLevel(zerolog.InfoLevel)
			}
		},
	}

	rootCmd.PersistentFlags().StringVar(&serviceURL, "url", getEnv("ITINERARY_SERVICE_URL", "http://localhost:8080"), "Base URL of the itinerary service")
	rootCmd.PersistentFlags().BoolVarP(&debug, "debug", "d", false, "Enable verbose debug output")

	rootCmd.AddCommand(newGenerateCmd())
	rootCmd.AddCommand(newUsageCmd())
	rootCmd.AddCommand(newIndexCmd())
	rootCmd.AddCommand(newHealthCmd())
	return rootCmd
}

func newGenerateCmd() *cobra.Command {
	var userID, destination, style, interests string
	var days int
	var budget float64
	var retrieval bool

	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Generate an itinerary",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := client.New(serviceURL)
			if err != nil {
				return err
			}
			ctx, cancel := context.WithTimeout(cmd.Context(), 5*time.Minute)
			defer cancel()

			req := client.GenerateRequest{TripRequest: model.TripRequest{
				Destination: destination,
				TravelDays:  days,
				Budget:      budget,
				TravelStyle: model.TravelStyle(style),
				Interests:   splitList(interests),
			}}
			if cmd.Flags().Changed("retrieval") {
				req.EnableRetrieval = &retrieval
			}

			start := time.Now()
			resp, err := c.Generate(ctx, userID, req)
			if err != nil {
				log.Error().Err(err).Str("user_id", userID).Dur("elapsed", time.Since(start)).Msg("generate failed")
				return err
			}
			log.Debug().Str("request_id", resp.RequestID).Str("provider", resp.Provider).Dur("elapsed", time.Since(start)).Msg("generate completed")
			return printJSON(cmd.OutOrStdout(), resp)
		},
	}
	cmd.Flags().StringVar(&userID, "user-id", "", "User ID (required)")
	cmd.Flags().StringVar(&destination, "destination", "", "Destination (required)")
	cmd.Flags().IntVar(&days, "days", 3, "Travel days")
	cmd.Flags().Float64Var(&budget, "budget", 1000, "Total budget in USD")
	cmd.Flags().StringVar(&style, "style", string(model.StyleModerate), "Travel style: budget|moderate|luxury")
	cmd.Flags().StringVar(&interests, "interests", "", "Comma-separated interests")
	cmd.Flags().BoolVar(&retrieval, "retrieval", false, "Ground the plan in indexed knowledge")
	_ = cmd.MarkFlagRequired("user-id")
	_ = cmd.MarkFlagRequired("destination")
	return cmd
}

func newUsageCmd() *cobra.Command {
	var userID string
	var window time.Duration

	cmd := &cobra.Command{
		Use:   "usage",
		Short: "Show token usage for a user",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := client.New(serviceURL)
			if err != nil {
				return err
			}
			ctx, cancel := context.WithTimeout(cmd.Context(), 15*time.Second)
			defer cancel()
			u, err := c.Usage(ctx, userID, window)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s used %d of %d tokens since %s\n", u.UserID, u.TotalTokens, u.DailyQuota, u.Since.Format(time.RFC3339))
			return nil
		},
	}
	cmd.Flags().StringVar(&userID, "user-id", "", "User ID (required)")
	cmd.Flags().DurationVar(&window, "window", 0, "Trailing window (default: server side 24h)")
	_ = cmd.MarkFlagRequired("user-id")
	return cmd
}

func newIndexCmd() *cobra.Command {
	var contentType, content, file, id string

	cmd := &cobra.Command{
		Use:   "index",
		Short: "Index a knowledge chunk for retrieval",
		RunE: func(cmd *cobra.Command, args []string) error {
			if file != "" {
				b, err := os.ReadFile(file)
				if err != nil {
					return err
				}
				content = string(b)
			}
			c, err := client.New(serviceURL)
			if err != nil {
				return err
			}
			ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
			defer cancel()
			newID, err := c.IndexChunk(ctx, client.Chunk{
				ID:          id,
				ContentType: model.ContentType(contentType),
				Content:     content,
			})
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Chunk indexed: %s\n", newID)
			return nil
		},
	}
	cmd.Flags().StringVar(&contentType, "type", string(model.ContentCity), "Content type: city|attraction|visa_rule|itinerary_summary")
	cmd.Flags().StringVar(&content, "content", "", "Chunk text")
	cmd.Flags().StringVar(&file, "file", "", "Read chunk text from a file")
	cmd.Flags().StringVar(&id, "id", "", "Chunk ID (generated when empty)")
	return cmd
}

func newHealthCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "health",
		Short: "Check service health",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := client.New(serviceURL, client.WithRetry(0, time.Millisecond))
			if err != nil {
				return err
			}
			ctx, cancel := context.WithTimeout(cmd.Context(), 10*time.Second)
			defer cancel()
			if err := c.Health(ctx); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "healthy")
			return nil
		},
	}
}

func printJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func splitList(s string) []string {
	out := []string{}
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
