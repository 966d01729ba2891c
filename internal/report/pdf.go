package report

import (
	"bytes"
	"fmt"

	"github.com/jung-kurt/gofpdf"

	"github.com/banshee-data/lap.report/internal/db"
	"github.com/banshee-data/lap.report/internal/telemetry"
)

const (
	pdfMarginMM  = 15.0
	pdfPageWidth = 210.0 // A4 portrait
	contentWidth = pdfPageWidth - 2*pdfMarginMM
)

// GeneratePDF assembles the session report: a summary page with the lap
// table, followed by the channel plots. samples and result are the processed
// session the summary row was derived from.
func GeneratePDF(session *db.Session, samples []telemetry.Sample, result *telemetry.Result, targetUnits string) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(pdfMarginMM, pdfMarginMM, pdfMarginMM)
	pdf.SetAutoPageBreak(true, pdfMarginMM)
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 18)
	pdf.CellFormat(contentWidth, 10, "Session Report", "", 1, "L", false, 0, "")
	pdf.SetFont("Helvetica", "", 11)
	pdf.CellFormat(contentWidth, 6, session.Name, "", 1, "L", false, 0, "")
	pdf.CellFormat(contentWidth, 6, session.CreatedAt.Format("2006-01-02 15:04 MST"), "", 1, "L", false, 0, "")
	pdf.Ln(4)

	writeSummaryTable(pdf, session)
	pdf.Ln(4)
	writeAlignmentNote(pdf, result.Alignment)
	pdf.Ln(4)
	writeLapTable(pdf, result.Laps)

	charts := []struct {
		name   string
		render func() ([]byte, error)
		wMM    float64
	}{
		{"track", func() ([]byte, error) { return TrackPlot(samples) }, 120},
		{"speed", func() ([]byte, error) { return SpeedPlot(samples, targetUnits) }, contentWidth},
		{"orientation", func() ([]byte, error) { return OrientationPlot(samples, result) }, contentWidth},
		{"slip", func() ([]byte, error) { return SlipPlot(samples, result) }, contentWidth},
		{"accel", func() ([]byte, error) { return AccelPlot(samples, result) }, contentWidth},
		{"rpm", func() ([]byte, error) { return RPMPlot(samples, result) }, contentWidth},
	}

	pdf.AddPage()
	for _, c := range charts {
		png, err := c.render()
		if err != nil {
			// Channels can be legitimately empty (no tach, no trusted
			// heading); skip their plots rather than failing the report.
			continue
		}
		addImage(pdf, c.name, png, c.wMM)
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("failed to write PDF: %w", err)
	}
	return buf.Bytes(), nil
}

func writeSummaryTable(pdf *gofpdf.Fpdf, session *db.Session) {
	rows := [][2]string{
		{"Samples", fmt.Sprintf("%d", session.SampleCount)},
		{"Duration", fmt.Sprintf("%.1f s", session.DurationS)},
		{"Laps", fmt.Sprintf("%d", session.LapCount)},
		{"Max speed", fmt.Sprintf("%.1f mph", session.MaxSpeedMPH)},
		{"P50 speed", fmt.Sprintf("%.1f mph", session.P50SpeedMPH)},
		{"P85 speed", fmt.Sprintf("%.1f mph", session.P85SpeedMPH)},
	}
	if session.BestLapS != nil {
		rows = append(rows, [2]string{"Best lap", fmt.Sprintf("%.2f s", *session.BestLapS)})
	}

	pdf.SetFont("Helvetica", "B", 12)
	pdf.CellFormat(contentWidth, 8, "Summary", "", 1, "L", false, 0, "")
	pdf.SetFont("Helvetica", "", 10)
	for _, row := range rows {
		pdf.CellFormat(50, 6, row[0], "1", 0, "L", false, 0, "")
		pdf.CellFormat(50, 6, row[1], "1", 1, "R", false, 0, "")
	}
}

func writeAlignmentNote(pdf *gofpdf.Fpdf, align telemetry.AlignmentResult) {
	pdf.SetFont("Helvetica", "B", 12)
	pdf.CellFormat(contentWidth, 8, "Yaw Alignment", "", 1, "L", false, 0, "")
	pdf.SetFont("Helvetica", "", 10)
	if align.Identity() {
		pdf.MultiCell(contentWidth, 5,
			"No heading-trusted samples; yaw is shown unaligned.", "", "L", false)
		return
	}
	pdf.MultiCell(contentWidth, 5, fmt.Sprintf(
		"Mount sign %+d, offset %.1f deg, residual %.2f deg over %d trusted samples.",
		align.Sign, align.OffsetDeg, align.ResidualStdDeg, align.TrustedSamples), "", "L", false)
}

func writeLapTable(pdf *gofpdf.Fpdf, laps []telemetry.Lap) {
	pdf.SetFont("Helvetica", "B", 12)
	pdf.CellFormat(contentWidth, 8, "Laps", "", 1, "L", false, 0, "")
	if len(laps) == 0 {
		pdf.SetFont("Helvetica", "", 10)
		pdf.CellFormat(contentWidth, 6, "No complete laps.", "", 1, "L", false, 0, "")
		return
	}

	best := laps[0].LapTimeS
	for _, lap := range laps {
		if lap.LapTimeS < best {
			best = lap.LapTimeS
		}
	}

	pdf.SetFont("Helvetica", "B", 10)
	pdf.SetFillColor(220, 220, 220)
	pdf.CellFormat(20, 6, "Lap", "1", 0, "C", true, 0, "")
	pdf.CellFormat(40, 6, "Start (s)", "1", 0, "C", true, 0, "")
	pdf.CellFormat(40, 6, "End (s)", "1", 0, "C", true, 0, "")
	pdf.CellFormat(40, 6, "Time (s)", "1", 1, "C", true, 0, "")

	for _, lap := range laps {
		style := ""
		if lap.LapTimeS == best {
			style = "B"
		}
		pdf.SetFont("Helvetica", style, 10)
		pdf.CellFormat(20, 6, fmt.Sprintf("%d", lap.Lap), "1", 0, "C", false, 0, "")
		pdf.CellFormat(40, 6, fmt.Sprintf("%.2f", lap.StartTime), "1", 0, "R", false, 0, "")
		pdf.CellFormat(40, 6, fmt.Sprintf("%.2f", lap.EndTime), "1", 0, "R", false, 0, "")
		pdf.CellFormat(40, 6, fmt.Sprintf("%.2f", lap.LapTimeS), "1", 1, "R", false, 0, "")
	}
}

func addImage(pdf *gofpdf.Fpdf, name string, png []byte, widthMM float64) {
	info := pdf.RegisterImageOptionsReader(name,
		gofpdf.ImageOptions{ImageType: "PNG"}, bytes.NewReader(png))
	if info == nil || pdf.Err() {
		return
	}
	heightMM := widthMM * info.Height() / info.Width()

	_, pageH := pdf.GetPageSize()
	if pdf.GetY()+heightMM > pageH-pdfMarginMM {
		pdf.AddPage()
	}
	pdf.ImageOptions(name, pdfMarginMM, pdf.GetY(),
		widthMM, heightMM, false, gofpdf.ImageOptions{ImageType: "PNG"}, 0, "")
	pdf.SetY(pdf.GetY() + heightMM + 4)
}
