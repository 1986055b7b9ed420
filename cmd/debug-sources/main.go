// Debug tool to test crt.sh and Wayback CDX fetching directly
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/charmbracelet/huh/spinner"
	"github.com/charmbracelet/log"

	"github.com/thesavant42/webhist/internal/api"
	"github.com/thesavant42/webhist/internal/config"
	"github.com/thesavant42/webhist/internal/history"
)

func main() {
	domain := "example.com"
	if len(os.Args) > 1 {
		domain = os.Args[1]
	}

	cfg := config.Load()
	logger := log.NewWithOptions(os.Stderr, log.Options{
		Level:           log.DebugLevel,
		ReportTimestamp: true,
	})
	opts := cfg.ClientOptions()

	fmt.Printf("Testing sources for domain: %s\n", domain)
	fmt.Printf("crt.sh:  %s/?q=%s&output=json\n", cfg.CrtshURL, domain)
	fmt.Printf("CDX:     %s/cdx/search/cdx?%s\n", cfg.WaybackURL, api.BuildCDXQuery(domain, cfg.ArchiveLimit))
	if root, err := api.ExtractRootDomain(domain); err == nil {
		fmt.Printf("Registrable domain: %s\n", root)
	}

	crtsh := api.NewCrtshClient(cfg.CrtshURL, opts, logger)
	wayback := api.NewWaybackClient(cfg.WaybackURL, cfg.ArchiveLimit, opts, logger)

	var certBody, cdxBody []byte
	var certErr, cdxErr error
	var certTook, cdxTook time.Duration

	err := spinner.New().
		Title("Fetching crt.sh and CDX for " + domain + "...").
		Action(func() {
			ctx, cancel := context.WithTimeout(context.Background(), cfg.FetchTimeout)
			defer cancel()
			start := time.Now()
			certBody, certErr = crtsh.FetchCertificates(ctx, domain)
			certTook = time.Since(start)

			ctx2, cancel2 := context.WithTimeout(context.Background(), cfg.FetchTimeout)
			defer cancel2()
			start = time.Now()
			cdxBody, cdxErr = wayback.FetchSnapshots(ctx2, domain)
			cdxTook = time.Since(start)
		}).
		Run()
	if err != nil {
		fmt.Printf("ERROR: spinner: %v\n", err)
		os.Exit(1)
	}

	fmt.Println("\n--- crt.sh ---")
	if certErr != nil {
		fmt.Printf("ERROR: %v\n", certErr)
	} else {
		certs := history.NormalizeCertificates(certBody)
		fmt.Printf("Bytes: %d  Records: %d  Took: %v\n", len(certBody), len(certs), certTook)
		for i, c := range certs {
			if i >= 3 {
				fmt.Printf("  ... and %d more\n", len(certs)-3)
				break
			}
			fmt.Printf("  %d. %s (%s -> %s, dated: %v)\n", i+1, c.CommonName, c.NotBefore, c.NotAfter, c.Dated())
		}
	}

	fmt.Println("\n--- Wayback CDX ---")
	if cdxErr != nil {
		fmt.Printf("ERROR: %v\n", cdxErr)
	} else {
		snaps := history.NormalizeArchive(cdxBody)
		fmt.Printf("Bytes: %d  Records: %d  Took: %v\n", len(cdxBody), len(snaps), cdxTook)
		for i, s := range snaps {
			if i >= 3 {
				fmt.Printf("  ... and %d more\n", len(snaps)-3)
				break
			}
			fmt.Printf("  %d. %s %s (status: %s)\n", i+1, s.Timestamp, s.URL, s.HTTPStatus)
		}
	}

	if certErr != nil && cdxErr != nil {
		os.Exit(1)
	}
}
