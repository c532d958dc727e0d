package report

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"path/filepath"
)

// ════════════════════════════════════════════════════════════════════
// PDF export: HTML → PDF via wkhtmltopdf / chromium headless
// ════════════════════════════════════════════════════════════════════

// PDFEngine specifies which engine to use for HTML→PDF conversion.
type PDFEngine string

const (
	EngineAuto     PDFEngine = ""
	EngineWKHTML   PDFEngine = "wkhtmltopdf"
	EngineChromium PDFEngine = "chromium"
	EngineNone     PDFEngine = "none"
)

// ErrNoPDFEngine is returned when no conversion engine is installed.
var ErrNoPDFEngine = errors.New("no PDF engine found (install wkhtmltopdf or chromium)")

var chromiumBinaries = []string{"chromium-browser", "chromium", "google-chrome", "google-chrome-stable"}

// lookPath is replaced in tests.
var lookPath = exec.LookPath

// DetectPDFEngine checks which PDF engine is available on the system.
func DetectPDFEngine() PDFEngine {
	if _, err := lookPath("wkhtmltopdf"); err == nil {
		return EngineWKHTML
	}
	if chromiumPath() != "" {
		return EngineChromium
	}
	return EngineNone
}

func chromiumPath() string {
	for _, name := range chromiumBinaries {
		if path, err := lookPath(name); err == nil {
			return path
		}
	}
	return ""
}

// ExportPDF converts the HTML report at htmlPath into pdfPath.
func ExportPDF(ctx context.Context, htmlPath, pdfPath string, engine PDFEngine) error {
	if engine == EngineAuto {
		engine = DetectPDFEngine()
	}
	absHTML, err := filepath.Abs(htmlPath)
	if err != nil {
		return fmt.Errorf("resolving html path: %w", err)
	}
	absPDF, err := filepath.Abs(pdfPath)
	if err != nil {
		return fmt.Errorf("resolving output path: %w", err)
	}

	var cmd *exec.Cmd
	switch engine {
	case EngineWKHTML:
		cmd = exec.CommandContext(ctx, "wkhtmltopdf",
			"--page-size", "A4",
			"--encoding", "UTF-8",
			"--enable-local-file-access",
			"--quiet",
			absHTML, absPDF)
	case EngineChromium:
		bin := chromiumPath()
		if bin == "" {
			return ErrNoPDFEngine
		}
		cmd = exec.CommandContext(ctx, bin,
			"--headless",
			"--disable-gpu",
			"--no-sandbox",
			"--print-to-pdf="+absPDF,
			"--print-to-pdf-no-header",
			"file://"+absHTML)
	case EngineNone:
		return ErrNoPDFEngine
	default:
		return fmt.Errorf("unsupported PDF engine: %s", engine)
	}

	if output, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("%s failed: %w\nOutput: %s", engine, err, output)
	}
	return nil
}
