// Copyright 2026 The CityPulse Authors. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package report renders analysis results as PDF documents.
package report

import (
	"bytes"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/jung-kurt/gofpdf"

	"github.com/citypulse/citypulse/internal/agent"
	"github.com/citypulse/citypulse/internal/observability"
	"github.com/citypulse/citypulse/internal/risk"
)

// Generator renders analysis results into PDF reports.
type Generator struct {
	metrics *observability.Metrics
}

// NewGenerator creates a report generator. Metrics may be nil.
func NewGenerator(metrics *observability.Metrics) *Generator {
	return &Generator{metrics: metrics}
}

// Generate renders a complete report for one analysis result.
func (g *Generator) Generate(result *agent.Result) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetTitle("CityPulse Analysis Report", false)
	pdf.SetAutoPageBreak(true, 20)

	writeTitlePage(pdf, result)
	writeSummary(pdf, result)
	writeRiskAssessment(pdf, result.Rankings)
	writeRecommendations(pdf, result.Analysis.Recommendations)
	writeBarChart(pdf, result.Charts)
	writeDataTable(pdf, result)
	writeTechnicalDetails(pdf, result)

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("report: failed to render PDF: %w", err)
	}
	if g.metrics != nil {
		g.metrics.ReportsGenerated.Inc()
	}
	return buf.Bytes(), nil
}

func writeTitlePage(pdf *gofpdf.Fpdf, result *agent.Result) {
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 24)
	pdf.SetTextColor(30, 60, 110)
	pdf.CellFormat(0, 20, "CityPulse Analysis Report", "", 1, "C", false, 0, "")
	pdf.Ln(8)

	pdf.SetFont("Helvetica", "", 12)
	pdf.SetTextColor(0, 0, 0)

	meta := [][2]string{
		{"Question", result.Question},
		{"Intent", result.Intent.Type},
		{"Timeframe", result.Intent.Timeframe},
		{"SQL source", result.Source},
		{"Records analyzed", fmt.Sprintf("%d", result.RowCount)},
		{"Generated", time.Now().UTC().Format("2006-01-02 15:04 UTC")},
	}
	for _, row := range meta {
		pdf.SetFont("Helvetica", "B", 11)
		pdf.CellFormat(45, 8, row[0], "1", 0, "L", false, 0, "")
		pdf.SetFont("Helvetica", "", 11)
		pdf.MultiCell(0, 8, row[1], "1", "L", false)
	}
}

func writeSummary(pdf *gofpdf.Fpdf, result *agent.Result) {
	sectionHeading(pdf, "Executive Summary")
	pdf.SetFont("Helvetica", "", 11)
	summary := result.Analysis.ExecutiveSummary
	if result.Explanation != "" {
		summary = result.Explanation + "\n\n" + summary
	}
	pdf.MultiCell(0, 6, summary, "", "L", false)
	pdf.Ln(4)

	if len(result.Insights) > 0 || len(result.Analysis.KeyInsights) > 0 {
		sectionHeading(pdf, "Key Insights")
		pdf.SetFont("Helvetica", "", 11)
		for _, insight := range append(result.Insights, result.Analysis.KeyInsights...) {
			pdf.MultiCell(0, 6, "- "+insight, "", "L", false)
		}
		pdf.Ln(4)
	}
}

// tierFill returns the background color used for each risk tier row.
func tierFill(tier risk.Tier) (r, g, b int) {
	switch tier {
	case risk.TierCritical:
		return 220, 60, 60
	case risk.TierHigh:
		return 240, 150, 60
	case risk.TierMedium:
		return 245, 215, 90
	default:
		return 150, 200, 150
	}
}

func writeRiskAssessment(pdf *gofpdf.Fpdf, rankings []risk.Score) {
	if len(rankings) == 0 {
		return
	}
	sectionHeading(pdf, "Risk Assessment")

	pdf.SetFont("Helvetica", "B", 11)
	pdf.SetFillColor(230, 230, 230)
	pdf.CellFormat(80, 8, "Neighborhood", "1", 0, "L", true, 0, "")
	pdf.CellFormat(40, 8, "Score", "1", 0, "R", true, 0, "")
	pdf.CellFormat(40, 8, "Tier", "1", 1, "C", true, 0, "")

	pdf.SetFont("Helvetica", "", 11)
	for _, score := range rankings {
		pdf.CellFormat(80, 8, score.Neighborhood, "1", 0, "L", false, 0, "")
		pdf.CellFormat(40, 8, fmt.Sprintf("%.1f", score.Value), "1", 0, "R", false, 0, "")
		pdf.SetFillColor(tierFill(score.Tier))
		pdf.CellFormat(40, 8, string(score.Tier), "1", 1, "C", true, 0, "")
	}
	pdf.Ln(4)
}

func writeRecommendations(pdf *gofpdf.Fpdf, recs []string) {
	if len(recs) == 0 {
		return
	}
	sectionHeading(pdf, "Recommendations")
	pdf.SetFont("Helvetica", "", 11)
	for i, rec := range recs {
		pdf.MultiCell(0, 6, fmt.Sprintf("%d. %s", i+1, rec), "", "L", false)
	}
	pdf.Ln(4)
}

// writeBarChart draws the first bar chart with plain rectangles, scaled to
// the largest value.
func writeBarChart(pdf *gofpdf.Fpdf, charts []agent.Chart) {
	if len(charts) == 0 || len(charts[0].Values) == 0 {
		return
	}
	chart := charts[0]

	sectionHeading(pdf, chart.Title)

	maxValue := 0.0
	for _, v := range chart.Values {
		if v > maxValue {
			maxValue = v
		}
	}
	if maxValue == 0 {
		maxValue = 1
	}

	const barMaxWidth = 110.0
	pdf.SetFont("Helvetica", "", 9)
	pdf.SetFillColor(70, 130, 180)
	for i, label := range chart.Labels {
		pdf.CellFormat(45, 6, truncate(label, 24), "", 0, "R", false, 0, "")
		width := barMaxWidth * chart.Values[i] / maxValue
		x, y := pdf.GetXY()
		pdf.Rect(x+1, y+1, width, 4, "F")
		pdf.SetXY(x+width+3, y)
		pdf.CellFormat(25, 6, fmt.Sprintf("%.1f", chart.Values[i]), "", 1, "L", false, 0, "")
	}
	pdf.Ln(4)
}

func writeDataTable(pdf *gofpdf.Fpdf, result *agent.Result) {
	if len(result.Rows) == 0 {
		return
	}
	sectionHeading(pdf, "Data Sample")

	columns := tableColumns(result.Rows[0])
	if len(columns) == 0 {
		return
	}
	colWidth := 180.0 / float64(len(columns))

	pdf.SetFont("Helvetica", "B", 8)
	pdf.SetFillColor(230, 230, 230)
	for _, col := range columns {
		pdf.CellFormat(colWidth, 7, truncate(col, 20), "1", 0, "L", true, 0, "")
	}
	pdf.Ln(-1)

	pdf.SetFont("Helvetica", "", 8)
	for i, row := range result.Rows {
		if i == 10 {
			break
		}
		for _, col := range columns {
			pdf.CellFormat(colWidth, 6, truncate(cellText(row[col]), 22), "1", 0, "L", false, 0, "")
		}
		pdf.Ln(-1)
	}
	pdf.Ln(4)
}

func writeTechnicalDetails(pdf *gofpdf.Fpdf, result *agent.Result) {
	sectionHeading(pdf, "Technical Details")
	pdf.SetFont("Helvetica", "", 10)
	pdf.MultiCell(0, 5, "Source: "+result.Source, "", "L", false)
	pdf.MultiCell(0, 5, fmt.Sprintf("Confidence: %.2f", result.Confidence), "", "L", false)
	pdf.Ln(2)
	pdf.SetFont("Courier", "", 8)
	pdf.MultiCell(0, 4, strings.TrimSpace(result.SQL), "", "L", false)
}

func sectionHeading(pdf *gofpdf.Fpdf, title string) {
	pdf.SetFont("Helvetica", "B", 14)
	pdf.SetTextColor(30, 60, 110)
	pdf.CellFormat(0, 10, title, "", 1, "L", false, 0, "")
	pdf.SetTextColor(0, 0, 0)
	pdf.Ln(1)
}

// tableColumns orders a row's columns with neighborhood first, geography
// last, and everything else alphabetical in between.
func tableColumns(row map[string]interface{}) []string {
	var middle []string
	hasNeighborhood := false
	var geo []string
	for col := range row {
		switch col {
		case "neighborhood":
			hasNeighborhood = true
		case "latitude", "longitude", "lat", "lng", "lon":
			geo = append(geo, col)
		default:
			middle = append(middle, col)
		}
	}
	sort.Strings(middle)
	sort.Strings(geo)

	var columns []string
	if hasNeighborhood {
		columns = append(columns, "neighborhood")
	}
	columns = append(columns, middle...)
	columns = append(columns, geo...)
	if len(columns) > 6 {
		columns = columns[:6]
	}
	return columns
}

func cellText(v interface{}) string {
	switch n := v.(type) {
	case nil:
		return ""
	case float64:
		return fmt.Sprintf("%.2f", n)
	case string:
		return n
	default:
		return fmt.Sprintf("%v", v)
	}
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max-1] + "~"
}
