// Package render — PDF renderer.
// Lays a transcript out as a PDF using gofpdf: one labeled section per
// turn, with headings, paragraphs, code blocks, lists and rules drawn from
// the turn's Markdown. Images are not rendered.
package render

import (
	"bytes"
	"fmt"
	"regexp"
	"strings"
	"unicode"

	"github.com/jung-kurt/gofpdf"

	"github.com/gaurav-prasanna/chatmark/core"
)

// PDFRenderer renders a transcript as a PDF document.
type PDFRenderer struct {
	Labels Labels
}

// NewPDFRenderer creates a PDFRenderer.
func NewPDFRenderer(labels Labels) *PDFRenderer {
	return &PDFRenderer{Labels: labels}
}

var (
	numberedItem  = regexp.MustCompile(`^\d+\.\s`)
	italicRegex   = regexp.MustCompile(`(?:^|\s)\*([^*]+)\*(?:\s|$)`)
	codeSpanRegex = regexp.MustCompile("`([^`]+)`")
	pdfLinkRegex  = regexp.MustCompile(`\[([^\]]*)\]\([^)]+\)`)
)

// Render converts the transcript into PDF bytes.
func (r *PDFRenderer) Render(t core.Transcript) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetAutoPageBreak(true, 15)
	pdf.AddPage()
	// Core fonts are cp1252; anything outside it is replaced.
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	if t.Title != "" {
		pdf.SetFont("Helvetica", "B", 18)
		pdf.MultiCell(0, 8, tr(t.Title), "", "L", false)
		pdf.Ln(4)
	}

	if t.Meta.Source != "" {
		pdf.SetFont("Helvetica", "I", 9)
		pdf.SetTextColor(100, 100, 100)
		pdf.MultiCell(0, 5, tr("Source: "+t.Meta.Source), "", "L", false)
		pdf.SetTextColor(0, 0, 0)
		pdf.Ln(6)
	}

	for _, turn := range t.Turns {
		pdf.SetFont("Helvetica", "B", 14)
		pdf.SetTextColor(60, 60, 140)
		pdf.MultiCell(0, 8, tr(plainLabel(r.Labels.For(turn.Role))), "", "L", false)
		pdf.SetTextColor(0, 0, 0)
		pdf.Ln(2)
		renderMarkdown(pdf, tr, turn.Content)
		pdf.Ln(3)
		drawRule(pdf)
		pdf.Ln(4)
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("writing PDF: %w", err)
	}
	return buf.Bytes(), nil
}

// Extension returns the file extension for PDF output.
func (r *PDFRenderer) Extension() string {
	return ".pdf"
}

// renderMarkdown draws one turn's Markdown line by line.
func renderMarkdown(pdf *gofpdf.Fpdf, tr func(string) string, md string) {
	inCodeBlock := false
	for _, line := range strings.Split(md, "\n") {
		trimmed := strings.TrimSpace(line)

		if strings.HasPrefix(trimmed, "```") {
			inCodeBlock = !inCodeBlock
			pdf.Ln(2)
			continue
		}

		if inCodeBlock {
			pdf.SetFont("Courier", "", 9)
			pdf.SetFillColor(245, 245, 245)
			pdf.MultiCell(0, 4.5, tr(line), "", "L", true)
			continue
		}

		switch {
		case trimmed == "":
			pdf.Ln(3)
		case trimmed == "---":
			drawRule(pdf)
		case strings.HasPrefix(trimmed, "#"):
			level := len(trimmed) - len(strings.TrimLeft(trimmed, "#"))
			renderHeading(pdf, tr(cleanInlineMarkdown(strings.TrimLeft(trimmed, "# "))), level)
		case strings.HasPrefix(trimmed, "- ") || strings.HasPrefix(trimmed, "* "):
			pdf.SetFont("Helvetica", "", 10)
			pdf.MultiCell(0, 5, tr("• "+cleanInlineMarkdown(trimmed[2:])), "", "L", false)
		case numberedItem.MatchString(trimmed):
			pdf.SetFont("Helvetica", "", 10)
			pdf.MultiCell(0, 5, tr(cleanInlineMarkdown(trimmed)), "", "L", false)
		default:
			pdf.SetFont("Helvetica", "", 10)
			pdf.MultiCell(0, 5, tr(cleanInlineMarkdown(line)), "", "L", false)
		}
	}
}

// renderHeading sets the font size based on heading level and writes text.
func renderHeading(pdf *gofpdf.Fpdf, text string, level int) {
	sizes := map[int]float64{1: 16, 2: 14, 3: 12, 4: 11, 5: 10, 6: 10}
	size, ok := sizes[level]
	if !ok {
		size = 10
	}
	pdf.Ln(3)
	pdf.SetFont("Helvetica", "B", size)
	pdf.MultiCell(0, size*0.6, text, "", "L", false)
	pdf.Ln(2)
}

func drawRule(pdf *gofpdf.Fpdf) {
	left, _, right, _ := pdf.GetMargins()
	width, _ := pdf.GetPageSize()
	y := pdf.GetY()
	pdf.SetDrawColor(200, 200, 200)
	pdf.Line(left, y, width-right, y)
}

// cleanInlineMarkdown strips inline Markdown formatting for PDF rendering.
// Links keep their text, so a citation "([example.com](...))" reads as
// "(example.com)".
func cleanInlineMarkdown(text string) string {
	text = strings.ReplaceAll(text, "**", "")
	text = strings.ReplaceAll(text, "__", "")
	text = italicRegex.ReplaceAllString(text, " $1 ")
	text = codeSpanRegex.ReplaceAllString(text, "$1")
	text = pdfLinkRegex.ReplaceAllString(text, "$1")
	return strings.TrimSpace(text)
}

// plainLabel drops emoji and other symbols the core fonts cannot draw.
func plainLabel(label string) string {
	out := strings.Map(func(r rune) rune {
		if unicode.Is(unicode.So, r) || unicode.Is(unicode.Mn, r) || r == '\u200d' {
			return -1
		}
		return r
	}, label)
	return strings.TrimSpace(out)
}
