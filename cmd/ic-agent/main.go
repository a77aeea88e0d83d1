package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"

	"infocollect/internal/agent"
	"infocollect/internal/shared"
)

func main() {
	configPath := flag.String("config", "./agent.json", "path to agent config json")
	location := flag.String("location", "", "router location description (overrides location_desc)")
	dryRun := flag.Bool("dry-run", false, "print the report instead of uploading it")
	saveConfig := flag.Bool("save-config", false, "write the effective config back to -config")
	flag.Parse()

	log := shared.NewLogger(os.Stderr)

	a, err := agent.New(*configPath, log)
	if err != nil {
		log.Fatal(err)
	}
	if *location != "" {
		a.Cfg.LocationDesc = *location
	}
	if *saveConfig {
		if err := shared.SaveAgentConfig(a.ConfigPath, a.Cfg); err != nil {
			log.Fatal(err)
		}
		log.Printf("config written to %s", a.ConfigPath)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	report, err := a.Collect(ctx)
	if err != nil {
		log.Fatal(err)
	}

	if *dryRun {
		fmt.Println(report.String())
		return
	}

	resp, err := a.Upload(ctx, report)
	if err != nil {
		log.Fatal(err)
	}
	log.Printf("ic-agent uploaded report to %s (success=%t)", a.Cfg.ServerURL, resp.Success)
}
