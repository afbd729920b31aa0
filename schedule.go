package main

import (
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/prometheus/client_golang/prometheus/push"
	"github.com/spf13/cobra"

	"agent-scheduler/formatter"
	"agent-scheduler/metrics"
	"agent-scheduler/models"
	"agent-scheduler/parser"
	"agent-scheduler/scheduler"
	"agent-scheduler/timeline"
)

var scheduleFlags struct {
	input       string
	format      string
	utilization float64
	capacity    int
	timezone    string
	date        string
	verbose     bool
	metricsAddr string
	pushGateway string
	wait        bool
}

var scheduleCmd = &cobra.Command{
	Use:   "schedule",
	Short: "Compute a staffing schedule from a CSV input file",
	Example: `  agentsched schedule --input calls.csv
  agentsched schedule --input calls.csv --utilization 0.8
  agentsched schedule --input calls.csv --capacity 500 --format json
  agentsched schedule --input calls.csv --date 2024-03-10 --timezone America/Los_Angeles`,
	RunE: runSchedule,
}

func init() {
	f := scheduleCmd.Flags()
	f.StringVarP(&scheduleFlags.input, "input", "i", "", "Input CSV file (required)")
	f.StringVarP(&scheduleFlags.format, "format", "f", "text", "Output format: text|json|csv")
	f.Float64VarP(&scheduleFlags.utilization, "utilization", "u", 1.0, "Agent utilization factor in (0, 1]")
	f.IntVarP(&scheduleFlags.capacity, "capacity", "c", 0, "Maximum agent capacity per bucket (omit for unlimited)")
	f.StringVarP(&scheduleFlags.timezone, "timezone", "t", models.DefaultTimezone, "Timezone for scheduling (IANA format)")
	f.StringVarP(&scheduleFlags.date, "date", "d", "", "Date to schedule for (YYYY-MM-DD, default today)")
	f.BoolVarP(&scheduleFlags.verbose, "verbose", "v", false, "Show additional diagnostic information")
	f.StringVar(&scheduleFlags.metricsAddr, "metrics-addr", "", "Address to expose Prometheus metrics (e.g., :9090)")
	f.StringVar(&scheduleFlags.pushGateway, "push-url", "", "Pushgateway URL to push metrics to (e.g., http://localhost:9091)")
	f.BoolVar(&scheduleFlags.wait, "wait", false, "Keep process running after completion to allow for metric scraping")
	scheduleCmd.MarkFlagRequired("input")
}

func runSchedule(cmd *cobra.Command, _ []string) error {
	validFormats := map[string]bool{"text": true, "json": true, "csv": true}
	if !validFormats[scheduleFlags.format] {
		return fmt.Errorf("format must be one of: text, json, csv (got: %s)", scheduleFlags.format)
	}

	// Start metrics server if address provided
	if scheduleFlags.metricsAddr != "" {
		go func() {
			http.Handle("/metrics", promhttp.HandlerFor(metrics.Registry, promhttp.HandlerOpts{}))
			fmt.Fprintf(os.Stderr, "Metrics server listening on %s/metrics\n", scheduleFlags.metricsAddr)
			if err := http.ListenAndServe(scheduleFlags.metricsAddr, nil); err != nil {
				fmt.Fprintf(os.Stderr, "Metrics server error: %v\n", err)
			}
		}()
	}

	loc, err := parser.LoadTimezone(scheduleFlags.timezone)
	if err != nil {
		return err
	}
	date, err := parser.ParseDate(scheduleFlags.date, loc)
	if err != nil {
		return err
	}

	file, err := os.Open(scheduleFlags.input)
	if err != nil {
		return fmt.Errorf("error opening file: %w", err)
	}
	defer file.Close()

	requests, err := parser.Parse(file)
	if err != nil {
		return fmt.Errorf("error parsing file: %w", err)
	}

	day := timeline.NewDayFor(date, loc)

	if scheduleFlags.verbose {
		fmt.Fprintf(os.Stderr, "Timezone: %s\n", scheduleFlags.timezone)
		fmt.Fprintf(os.Stderr, "Date: %s\n", day.Date.Format("2006-01-02"))
		fmt.Fprintf(os.Stderr, "Hours in day: %d\n", day.HourCount())
		if day.IsTransition() {
			fmt.Fprintf(os.Stderr, "DST Note: %s\n", day.TransitionNote())
		}
		fmt.Fprintf(os.Stderr, "Loaded %d customer requests\n", len(requests))
		for _, req := range requests {
			fmt.Fprintf(os.Stderr, "  - %s: %d calls, %s-%s, priority %d\n",
				req.Name, req.NumCalls, req.Start, req.End, req.Priority)
		}
	}

	var capacity *int
	if cmd.Flags().Changed("capacity") {
		capacity = &scheduleFlags.capacity
	}

	sched, err := scheduler.GenerateSchedule(requests, day, scheduleFlags.utilization, capacity)
	if err != nil {
		return err
	}

	switch scheduleFlags.format {
	case "json":
		fmt.Print(formatter.FormatJSON(sched))
	case "csv":
		fmt.Print(formatter.FormatCSV(sched))
	default: // "text"
		fmt.Print(formatter.FormatText(sched))
	}

	// Handle metrics pushing or waiting
	if scheduleFlags.pushGateway != "" {
		if err := push.New(scheduleFlags.pushGateway, "agent_scheduler").Gatherer(metrics.Registry).Push(); err != nil {
			fmt.Fprintf(os.Stderr, "Error pushing to Pushgateway: %v\n", err)
		} else {
			fmt.Fprintln(os.Stderr, "Metrics successfully pushed to Pushgateway")
		}
	}

	if scheduleFlags.wait && scheduleFlags.metricsAddr != "" {
		fmt.Fprintln(os.Stderr, "Process kept alive for metric scraping. Press Ctrl+C to exit.")
		c := make(chan os.Signal, 1)
		signal.Notify(c, os.Interrupt, syscall.SIGTERM)
		<-c
	} else if scheduleFlags.metricsAddr != "" && scheduleFlags.pushGateway == "" {
		// Small delay to allow a final scrape; batch jobs should normally
		// use the pushgateway or --wait instead.
		time.Sleep(100 * time.Millisecond)
	}

	return nil
}
