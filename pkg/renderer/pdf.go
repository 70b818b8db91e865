package renderer

import (
	"bytes"
	"fmt"
	"strings"
	"time"

	"github.com/go-pdf/fpdf"
	"github.com/pkg/errors"

	"github.com/nikogura/academic-cv/pkg/compose"
	"github.com/nikogura/academic-cv/pkg/style"
)

const (
	pageMargin = 18.0
	ptToMM     = 0.3528
)

// PdfRenderer draws documents with per-page header and footer callbacks.
type PdfRenderer struct {
	now func() time.Time
}

// Format returns PDF.
func (r *PdfRenderer) Format() (f Format) {
	f = PDF
	return f
}

// SupportsPerPageDecoration is true: fpdf invokes header and footer once per physical page.
func (r *PdfRenderer) SupportsPerPageDecoration() (ok bool) {
	ok = true
	return ok
}

// Render lays out doc and returns a validated PDF.
func (r *PdfRenderer) Render(doc compose.Document, set style.StyleSet) (out []byte, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			out = nil
			err = fail(PDF, errors.Errorf("layout engine panic: %v", rec))
		}
	}()

	stamp := r.now()

	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetCatalogSort(true)
	pdf.SetCreationDate(stamp)
	pdf.SetModificationDate(stamp)
	pdf.SetTitle(doc.Title, true)
	pdf.SetAuthor(doc.Title, true)
	pdf.SetCreator("academic-cv", false)

	pdf.AliasNbPages("")
	addFonts(pdf)

	page := &pdfPage{
		pdf:   pdf,
		set:   set,
		doc:   doc,
		stamp: stamp,
	}

	pdf.SetMargins(pageMargin, set.Decoration.HeaderHeight+10, pageMargin)
	pdf.SetAutoPageBreak(true, set.Decoration.FooterHeight+10)
	pdf.SetHeaderFuncMode(page.header, true)
	pdf.SetFooterFunc(page.footer)

	pdf.AddPage()
	page.titleBlock()
	for _, s := range doc.Sections {
		page.section(s)
	}

	if pdf.Err() {
		err = fail(PDF, pdf.Error())
		return out, err
	}

	var buf bytes.Buffer
	err = pdf.Output(&buf)
	if err != nil {
		err = fail(PDF, errors.Wrap(err, "failed to serialize PDF"))
		return out, err
	}

	err = validatePDF(buf.Bytes())
	if err != nil {
		err = fail(PDF, err)
		return out, err
	}

	out = buf.Bytes()
	return out, err
}

// pdfPage holds the drawing state shared by the page callbacks.
type pdfPage struct {
	pdf   *fpdf.Fpdf
	set   style.StyleSet
	doc   compose.Document
	stamp time.Time
}

func lineHeight(size float64) (h float64) {
	h = size * ptToMM * 1.45
	return h
}

func fontStyle(w style.Weight) (s string) {
	if w.Bold {
		s += "B"
	}
	if w.Italic {
		s += "I"
	}
	return s
}

func (p *pdfPage) font(w style.Weight) {
	p.pdf.SetFont(fontFamily, fontStyle(w), w.Size)
}

func (p *pdfPage) textColor(c style.Color) {
	p.pdf.SetTextColor(c.RGB())
}

func (p *pdfPage) fillColor(c style.Color) {
	p.pdf.SetFillColor(c.RGB())
}

func (p *pdfPage) drawColor(c style.Color) {
	p.pdf.SetDrawColor(c.RGB())
}

func (p *pdfPage) white() {
	p.pdf.SetTextColor(255, 255, 255)
}

func (p *pdfPage) muted() {
	p.pdf.SetTextColor(100, 100, 100)
}

// caption is the running header text for the current page.
func (p *pdfPage) caption() (text string) {
	d := p.set.Decoration
	text = d.Caption
	if p.pdf.PageNo() > 1 && d.RepeatTitle {
		if text == "" {
			text = p.doc.Title
		} else {
			text += "  |  " + p.doc.Title
		}
	}
	return text
}

// header is invoked by fpdf at the top of every page.
func (p *pdfPage) header() {
	w, _ := p.pdf.GetPageSize()
	d := p.set.Decoration
	pal := p.set.Palette
	h := d.HeaderHeight
	sub := p.set.Typography.Subtitle

	switch d.Kind {
	case style.DecorationBanner:
		p.fillColor(pal.Primary)
		p.pdf.Rect(0, 0, w, h, "F")
		p.fillColor(pal.Accent)
		p.pdf.Rect(0, h, w, 1.2, "F")
		p.headerText(p.caption(), sub, w, h, "C")

	case style.DecorationSplitBanner:
		p.fillColor(pal.Primary)
		p.pdf.Rect(0, 0, w, h, "F")
		p.fillColor(pal.Accent)
		p.pdf.Rect(0, h-2, w, 2, "F")
		if d.Ornaments {
			p.fillColor(pal.Accent)
			p.pdf.Circle(7, h/2, 3, "F")
			p.pdf.Circle(w-7, h/2, 3, "F")
			p.fillColor(pal.Secondary)
			p.pdf.Circle(7, h/2, 1.4, "F")
			p.pdf.Circle(w-7, h/2, 1.4, "F")
		}
		p.headerText(p.caption(), sub, w, h-2, "L")

	default:
		if p.pdf.PageNo() == 1 {
			return
		}
		if d.RepeatTitle || d.Caption != "" {
			p.font(sub)
			p.textColor(pal.Secondary)
			p.pdf.SetXY(pageMargin, h/2)
			p.pdf.CellFormat(w-2*pageMargin, lineHeight(sub.Size), p.caption(), "", 0, "L", false, 0, "")
		}
		p.drawColor(pal.Primary)
		p.pdf.SetLineWidth(0.3)
		p.pdf.Line(pageMargin, h+2, w-pageMargin, h+2)
	}
}

func (p *pdfPage) headerText(text string, weight style.Weight, w, h float64, align string) {
	if text == "" {
		return
	}
	weight.Bold = true
	p.font(weight)
	p.white()
	lh := lineHeight(weight.Size)
	p.pdf.SetXY(pageMargin, (h-lh)/2)
	p.pdf.CellFormat(w-2*pageMargin, lh, text, "", 0, align, false, 0, "")
}

// footer is invoked by fpdf at the bottom of every page.
func (p *pdfPage) footer() {
	w, h := p.pdf.GetPageSize()
	d := p.set.Decoration
	pal := p.set.Palette
	fh := d.FooterHeight
	top := h - fh
	detail := p.set.Typography.Detail
	detail.Size = min(detail.Size, 9)

	pageText := fmt.Sprintf("Page %d of {nb}", p.pdf.PageNo())
	dateText := ""
	if d.ShowDate {
		dateText = generatedStamp(p.stamp)
	}

	pageAlign := alignCode(d.PageNumberAlign)
	dateAlign := "L"
	if pageAlign == "L" {
		dateAlign = "R"
	}

	lh := lineHeight(detail.Size)
	textY := top + (fh-lh)/2
	p.font(detail)

	switch d.Kind {
	case style.DecorationBanner:
		p.fillColor(pal.Primary)
		p.pdf.Rect(0, top, w, fh, "F")
		p.white()
		p.footerText(dateText, textY, lh, w, dateAlign)
		p.footerText(pageText, textY, lh, w, pageAlign)

	case style.DecorationSplitBanner:
		half := w / 2
		p.fillColor(pal.Primary)
		p.pdf.Rect(0, top, half, fh, "F")
		p.fillColor(pal.Accent)
		p.pdf.Rect(half, top, w-half, fh, "F")
		p.white()
		if dateText != "" {
			p.pdf.SetXY(pageMargin, textY)
			p.pdf.CellFormat(half-pageMargin, lh, dateText, "", 0, "L", false, 0, "")
		}
		p.pdf.SetXY(half, textY)
		p.pdf.CellFormat(half-pageMargin, lh, pageText, "", 0, "R", false, 0, "")

	default:
		p.drawColor(pal.Primary)
		p.pdf.SetLineWidth(0.3)
		p.pdf.Line(pageMargin, top, w-pageMargin, top)
		p.muted()
		p.footerText(dateText, textY, lh, w, dateAlign)
		p.footerText(pageText, textY, lh, w, pageAlign)
	}
}

func (p *pdfPage) footerText(text string, y, lh, w float64, align string) {
	if text == "" {
		return
	}
	p.pdf.SetXY(pageMargin, y)
	p.pdf.CellFormat(w-2*pageMargin, lh, text, "", 0, align, false, 0, "")
}

func alignCode(align string) (code string) {
	switch align {
	case "left":
		code = "L"
	case "center":
		code = "C"
	default:
		code = "R"
	}
	return code
}

// titleBlock draws the owner name and contact line on the first page.
func (p *pdfPage) titleBlock() {
	typo := p.set.Typography
	pal := p.set.Palette
	w, _ := p.pdf.GetPageSize()

	p.font(typo.Title)
	p.textColor(pal.Primary)
	p.pdf.MultiCell(0, lineHeight(typo.Title.Size), p.doc.Title, "", "L", false)

	if len(p.doc.Contact) > 0 {
		p.font(typo.Subtitle)
		p.muted()
		p.pdf.MultiCell(0, lineHeight(typo.Subtitle.Size), strings.Join(p.doc.Contact, "  |  "), "", "L", false)
	}

	y := p.pdf.GetY() + 2
	p.drawColor(pal.Accent)
	p.pdf.SetLineWidth(0.6)
	p.pdf.Line(pageMargin, y, w-pageMargin, y)
	p.pdf.SetY(y + 4)
}

func (p *pdfPage) section(s compose.Section) {
	typo := p.set.Typography
	pal := p.set.Palette
	w, _ := p.pdf.GetPageSize()

	p.pdf.Ln(2)
	p.font(typo.Heading)
	p.textColor(pal.Primary)
	p.pdf.CellFormat(0, lineHeight(typo.Heading.Size), s.Title, "", 1, "L", false, 0, "")

	y := p.pdf.GetY() + 0.5
	p.drawColor(pal.Accent)
	p.pdf.SetLineWidth(0.3)
	p.pdf.Line(pageMargin, y, w-pageMargin, y)
	p.pdf.SetY(y + 2)

	for _, b := range s.Blocks {
		p.block(s, b)
	}
}

func (p *pdfPage) block(s compose.Section, b compose.Block) {
	typo := p.set.Typography
	detail := typo.Detail
	lh := lineHeight(detail.Size)

	if b.Label != "" {
		label := typo.Subtitle
		label.Bold = true
		p.font(label)
		p.textColor(p.set.Palette.Accent)
		p.pdf.CellFormat(0, lineHeight(label.Size), b.Label, "", 1, "L", false, 0, "")
	}

	heading := b.Heading
	if s.Numbered && b.Number > 0 {
		heading = fmt.Sprintf("%d. %s", b.Number, heading)
	}

	strong := detail
	strong.Bold = true
	p.font(strong)
	p.pdf.SetTextColor(30, 30, 30)
	p.pdf.MultiCell(0, lh, heading, "", "L", false)

	p.font(detail)
	p.pdf.SetTextColor(50, 50, 50)
	for _, line := range b.Lines {
		p.pdf.MultiCell(0, lh, line, "", "L", false)
	}

	if b.Footer != "" {
		em := detail
		em.Italic = true
		p.font(em)
		p.muted()
		p.pdf.MultiCell(0, lh, b.Footer, "", "L", false)
	}

	p.pdf.Ln(2)
}
