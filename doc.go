// Package html2pdf converts uploaded HTML documents to PDF using headless Chrome.
//
// # Quick Start
//
// Create a converter rooted at a scratch directory, convert, serve, release:
//
//	conv, err := html2pdf.NewConverter("/tmp/html-to-pdf")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer conv.Close()
//
//	res, err := conv.Convert(ctx, "report.html", body)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer conv.Release(res.Job)
//	http.ServeFile(w, r, res.Job.OutputPath)
//
// # Job Lifecycle
//
// Each call to Convert owns one job:
//
//  1. Filename validation (.html/.htm only), before any file is created
//  2. Workspace allocation: a fresh job-<uuid> directory under the root
//  3. Streaming ingestion in 1 MiB chunks under a byte ceiling
//  4. PDF rendering via headless Chrome (go-rod), one browser per job
//  5. Output check with pdfcpu
//
// A failure at steps 3-5 deletes the workspace before Convert returns.
// On success the caller serves Job.OutputPath and calls Release, which
// deletes the workspace after a fixed grace period. The grace period is a
// heuristic: a transfer slower than the delay can still lose its file.
//
// # Configuration
//
// Use functional options to customize the converter:
//
//	conv, err := html2pdf.NewConverter(root,
//	    html2pdf.WithMaxFileSize(50 << 20),
//	    html2pdf.WithCleanupDelay(5 * time.Minute),
//	    html2pdf.WithRenderOptions(html2pdf.RenderOptions{
//	        Timeout: 90 * time.Second,
//	        Page:    &html2pdf.PageSettings{Size: "letter", Orientation: "portrait", Margin: 0.5},
//	    }),
//	)
//
// # Browser Requirements
//
// PDF generation requires Chrome/Chromium. The go-rod library automatically
// downloads a managed Chromium instance on first run (~/.cache/rod/browser/).
//
// For containers and CI environments, set RenderOptions.NoSandbox. Use
// RenderOptions.BrowserBin to specify a custom Chrome binary.
package html2pdf
