package main

import (
	"context"
	"flag"
	"fmt"
	"os/signal"
	"syscall"

	"ipshield/internal/app"
	"ipshield/internal/config"
	"ipshield/internal/domain"
	"ipshield/internal/logging"

	"github.com/google/uuid"
)

func runVerify(args []string) int {
	fs := flag.NewFlagSet("verify", flag.ContinueOnError)
	fs.SetOutput(stderr)

	var url, contentType, title, creator string
	fs.StringVar(&url, "url", "", "content url")
	fs.StringVar(&contentType, "type", "", "content type")
	fs.StringVar(&title, "title", "", "content title")
	fs.StringVar(&creator, "creator", "", "creator id")
	if err := fs.Parse(args); err != nil {
		return 2
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	a, code := wire(ctx)
	if a == nil {
		return code
	}
	defer a.Close()

	outcome, err := a.Orchestrator.Verify(ctx, domain.VerifyInput{
		ContentURL:  url,
		ContentType: domain.ContentType(contentType),
		Title:       title,
		CreatorID:   creator,
	})
	if err != nil {
		fmt.Fprintf(stderr, "verify: %v\n", err)
		return 1
	}
	if err := writeJSON(map[string]any{
		"status": outcome.Status(),
		"result": outcome.Result,
		"failed": outcome.Failed,
	}); err != nil {
		fmt.Fprintf(stderr, "write output: %v\n", err)
		return 1
	}
	if outcome.Failed {
		fmt.Fprintf(stderr, "verification unavailable: %s\n", outcome.Reason)
		return 1
	}
	return 0
}

func runProtect(args []string) int {
	fs := flag.NewFlagSet("protect", flag.ContinueOnError)
	fs.SetOutput(stderr)

	var id, url, contentType, title, license string
	var royalty int
	fs.StringVar(&id, "id", "", "item id (default: random uuid)")
	fs.StringVar(&url, "url", "", "media url")
	fs.StringVar(&contentType, "type", "", "content type")
	fs.StringVar(&title, "title", "", "asset title")
	fs.StringVar(&license, "license", string(domain.LicenseNonCommercial), "license type")
	fs.IntVar(&royalty, "royalty", 0, "royalty percentage for commercial use")
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if id == "" {
		id = uuid.NewString()
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	a, code := wire(ctx)
	if a == nil {
		return code
	}
	defer a.Close()

	item := domain.ContentItem{
		ID:    domain.ItemID(id),
		URL:   url,
		Title: title,
		Type:  domain.ContentType(contentType),
	}
	res, err := a.Orchestrator.QuickProtect(ctx, &item, domain.LicenseType(license), royalty)
	if err != nil {
		fmt.Fprintf(stderr, "protect: %v\n", err)
		return 1
	}
	if err := writeJSON(map[string]any{"item": item, "result": res}); err != nil {
		fmt.Fprintf(stderr, "write output: %v\n", err)
		return 1
	}
	if !res.Registered {
		return 1
	}
	return 0
}

func runLicense(args []string) int {
	fs := flag.NewFlagSet("license", flag.ContinueOnError)
	fs.SetOutput(stderr)

	var license string
	var royalty int
	fs.StringVar(&license, "type", "", "license type")
	fs.IntVar(&royalty, "royalty", 0, "royalty percentage")
	if err := fs.Parse(args); err != nil {
		return 2
	}

	licenseType, err := domain.ParseLicenseType(license)
	if err != nil {
		fmt.Fprintf(stderr, "license: %v\n", err)
		return 1
	}
	terms, err := domain.TermsFor(licenseType, royalty)
	if err != nil {
		fmt.Fprintf(stderr, "license: %v\n", err)
		return 1
	}
	if err := writeJSON(terms); err != nil {
		fmt.Fprintf(stderr, "write output: %v\n", err)
		return 1
	}
	return 0
}

func wire(ctx context.Context) (*app.App, int) {
	cfg := config.FromEnv()
	logger := logging.NewWithWriter(stderr, cfg.LogLevel, cfg.LogFormat)
	a, err := app.New(ctx, cfg, logger)
	if err != nil {
		fmt.Fprintf(stderr, "init: %v\n", err)
		return nil, 1
	}
	return a, 0
}
