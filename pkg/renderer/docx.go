package renderer

import (
	"archive/zip"
	"bytes"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/benjaminschreck/go-stencil/pkg/stencil"
	"github.com/pkg/errors"

	"github.com/nikogura/academic-cv/pkg/compose"
	"github.com/nikogura/academic-cv/pkg/style"
)

// Paragraph style IDs used in the generated skeleton.
const (
	styleTitle        = "CVTitle"
	styleContact      = "CVContact"
	styleSection      = "CVSection"
	styleLabel        = "CVLabel"
	styleEntryHeading = "CVEntryHeading"
	styleEntryLine    = "CVEntryLine"
	styleEntryFooter  = "CVEntryFooter"
	styleHeader       = "CVHeader"
	styleFooter       = "CVFooter"
)

// DocxRenderer fills a WordprocessingML skeleton through go-stencil. Word has
// no per-page callback, so decoration lives in the document-level header and
// footer parts and in paragraph styles.
type DocxRenderer struct {
	now func() time.Time
}

// Format returns DOCX.
func (r *DocxRenderer) Format() (f Format) {
	f = DOCX
	return f
}

// SupportsPerPageDecoration is false; headers and footers are emulated.
func (r *DocxRenderer) SupportsPerPageDecoration() (ok bool) {
	ok = false
	return ok
}

// Render builds the skeleton for doc, then renders it with the document text as data.
// Document text never becomes template source.
func (r *DocxRenderer) Render(doc compose.Document, set style.StyleSet) (out []byte, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			out = nil
			err = fail(DOCX, errors.Errorf("template engine panic: %v", rec))
		}
	}()

	paragraphs := docxParagraphs(doc)

	var skeleton []byte
	skeleton, err = buildSkeleton(paragraphs, set)
	if err != nil {
		err = fail(DOCX, err)
		return out, err
	}

	var tmpl *stencil.PreparedTemplate
	tmpl, err = stencil.Prepare(bytes.NewReader(skeleton))
	if err != nil {
		err = fail(DOCX, errors.Wrap(err, "failed to prepare DOCX skeleton"))
		return out, err
	}
	defer tmpl.Close()

	data := stencil.TemplateData{
		"caption":   headerCaption(doc, set),
		"generated": "",
	}
	if set.Decoration.ShowDate {
		data["generated"] = generatedStamp(r.now())
	}
	for i, p := range paragraphs {
		data[placeholder(i)] = p.text
	}

	var rendered io.Reader
	rendered, err = tmpl.Render(data)
	if err != nil {
		err = fail(DOCX, errors.Wrap(err, "failed to render DOCX"))
		return out, err
	}

	var buf bytes.Buffer
	_, err = io.Copy(&buf, rendered)
	if err != nil {
		err = fail(DOCX, errors.Wrap(err, "failed to read rendered DOCX"))
		return out, err
	}

	err = checkPackage(buf.Bytes())
	if err != nil {
		err = fail(DOCX, err)
		return out, err
	}

	out = buf.Bytes()
	return out, err
}

type docxParagraph struct {
	style string
	text  string
}

// docxParagraphs flattens the document into styled paragraphs in order.
func docxParagraphs(doc compose.Document) (paras []docxParagraph) {
	paras = append(paras, docxParagraph{styleTitle, doc.Title})
	if len(doc.Contact) > 0 {
		paras = append(paras, docxParagraph{styleContact, strings.Join(doc.Contact, "  |  ")})
	}

	for _, s := range doc.Sections {
		paras = append(paras, docxParagraph{styleSection, s.Title})
		for _, b := range s.Blocks {
			if b.Label != "" {
				paras = append(paras, docxParagraph{styleLabel, b.Label})
			}
			heading := b.Heading
			if s.Numbered && b.Number > 0 {
				heading = strconv.Itoa(b.Number) + ". " + heading
			}
			paras = append(paras, docxParagraph{styleEntryHeading, heading})
			for _, line := range b.Lines {
				paras = append(paras, docxParagraph{styleEntryLine, line})
			}
			if b.Footer != "" {
				paras = append(paras, docxParagraph{styleEntryFooter, b.Footer})
			}
		}
	}
	return paras
}

func placeholder(i int) (name string) {
	name = "p" + strconv.Itoa(i)
	return name
}

// headerCaption is the running header text. Word repeats one header on every page.
func headerCaption(doc compose.Document, set style.StyleSet) (caption string) {
	caption = set.Decoration.Caption
	if set.Decoration.RepeatTitle {
		if caption == "" {
			caption = doc.Title
		} else {
			caption += "  |  " + doc.Title
		}
	}
	return caption
}

const (
	nsW = "http://schemas.openxmlformats.org/wordprocessingml/2006/main"
	nsR = "http://schemas.openxmlformats.org/officeDocument/2006/relationships"
)

const contentTypesXML = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<Types xmlns="http://schemas.openxmlformats.org/package/2006/content-types">` +
	`<Default Extension="rels" ContentType="application/vnd.openxmlformats-package.relationships+xml"/>` +
	`<Default Extension="xml" ContentType="application/xml"/>` +
	`<Override PartName="/word/document.xml" ContentType="application/vnd.openxmlformats-officedocument.wordprocessingml.document.main+xml"/>` +
	`<Override PartName="/word/styles.xml" ContentType="application/vnd.openxmlformats-officedocument.wordprocessingml.styles+xml"/>` +
	`<Override PartName="/word/header1.xml" ContentType="application/vnd.openxmlformats-officedocument.wordprocessingml.header+xml"/>` +
	`<Override PartName="/word/footer1.xml" ContentType="application/vnd.openxmlformats-officedocument.wordprocessingml.footer+xml"/>` +
	`</Types>`

const packageRelsXML = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships">` +
	`<Relationship Id="rId1" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/officeDocument" Target="word/document.xml"/>` +
	`</Relationships>`

const documentRelsXML = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships">` +
	`<Relationship Id="rId1" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/styles" Target="styles.xml"/>` +
	`<Relationship Id="rId2" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/header" Target="header1.xml"/>` +
	`<Relationship Id="rId3" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/footer" Target="footer1.xml"/>` +
	`</Relationships>`

// buildSkeleton writes the template package. Every paragraph holds a single
// placeholder that the render step fills from data.
func buildSkeleton(paras []docxParagraph, set style.StyleSet) (pkg []byte, err error) {
	parts := []struct {
		name    string
		content string
	}{
		{"[Content_Types].xml", contentTypesXML},
		{"_rels/.rels", packageRelsXML},
		{"word/_rels/document.xml.rels", documentRelsXML},
		{"word/document.xml", documentXML(paras)},
		{"word/styles.xml", stylesXML(set)},
		{"word/header1.xml", headerXML()},
		{"word/footer1.xml", footerXML(set)},
	}

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for _, part := range parts {
		var w io.Writer
		w, err = zw.Create(part.name)
		if err != nil {
			err = errors.Wrapf(err, "failed to add %s", part.name)
			return pkg, err
		}
		_, err = io.WriteString(w, part.content)
		if err != nil {
			err = errors.Wrapf(err, "failed to write %s", part.name)
			return pkg, err
		}
	}

	err = zw.Close()
	if err != nil {
		err = errors.Wrap(err, "failed to finish DOCX skeleton")
		return pkg, err
	}

	pkg = buf.Bytes()
	return pkg, err
}

func placeholderParagraph(b *strings.Builder, styleID, field string) {
	fmt.Fprintf(b, `<w:p><w:pPr><w:pStyle w:val="%s"/></w:pPr><w:r><w:t xml:space="preserve">{{%s}}</w:t></w:r></w:p>`, styleID, field)
}

func documentXML(paras []docxParagraph) (doc string) {
	var b strings.Builder
	b.WriteString(`<?xml version="1.0" encoding="UTF-8" standalone="yes"?>`)
	fmt.Fprintf(&b, `<w:document xmlns:w="%s" xmlns:r="%s"><w:body>`, nsW, nsR)
	for i, p := range paras {
		placeholderParagraph(&b, p.style, placeholder(i))
	}
	b.WriteString(`<w:sectPr>`)
	b.WriteString(`<w:headerReference w:type="default" r:id="rId2"/>`)
	b.WriteString(`<w:footerReference w:type="default" r:id="rId3"/>`)
	b.WriteString(`<w:pgSz w:w="11906" w:h="16838"/>`)
	b.WriteString(`<w:pgMar w:top="1418" w:right="1021" w:bottom="1418" w:left="1021" w:header="425" w:footer="425" w:gutter="0"/>`)
	b.WriteString(`</w:sectPr></w:body></w:document>`)
	doc = b.String()
	return doc
}

func headerXML() (part string) {
	var b strings.Builder
	b.WriteString(`<?xml version="1.0" encoding="UTF-8" standalone="yes"?>`)
	fmt.Fprintf(&b, `<w:hdr xmlns:w="%s" xmlns:r="%s">`, nsW, nsR)
	placeholderParagraph(&b, styleHeader, "caption")
	b.WriteString(`</w:hdr>`)
	part = b.String()
	return part
}

// footerXML holds the generation stamp and a PAGE field, which Word evaluates per page.
func footerXML(set style.StyleSet) (part string) {
	var b strings.Builder
	b.WriteString(`<?xml version="1.0" encoding="UTF-8" standalone="yes"?>`)
	fmt.Fprintf(&b, `<w:ftr xmlns:w="%s" xmlns:r="%s">`, nsW, nsR)
	fmt.Fprintf(&b, `<w:p><w:pPr><w:pStyle w:val="%s"/></w:pPr>`, styleFooter)
	if set.Decoration.ShowDate {
		b.WriteString(`<w:r><w:t xml:space="preserve">{{generated}}</w:t></w:r>`)
		b.WriteString(`<w:r><w:tab/></w:r>`)
	}
	b.WriteString(`<w:r><w:t xml:space="preserve">Page </w:t></w:r>`)
	b.WriteString(`<w:r><w:fldChar w:fldCharType="begin"/></w:r>`)
	b.WriteString(`<w:r><w:instrText xml:space="preserve"> PAGE </w:instrText></w:r>`)
	b.WriteString(`<w:r><w:fldChar w:fldCharType="separate"/></w:r>`)
	b.WriteString(`<w:r><w:t>1</w:t></w:r>`)
	b.WriteString(`<w:r><w:fldChar w:fldCharType="end"/></w:r>`)
	b.WriteString(`</w:p></w:ftr>`)
	part = b.String()
	return part
}

func halfPoints(size float64) (hp int) {
	hp = int(size*2 + 0.5)
	return hp
}

func runProps(w style.Weight, color string) (rpr string) {
	var b strings.Builder
	b.WriteString(`<w:rPr><w:rFonts w:ascii="Calibri" w:hAnsi="Calibri" w:cs="Calibri"/>`)
	if w.Bold {
		b.WriteString(`<w:b/>`)
	}
	if w.Italic {
		b.WriteString(`<w:i/>`)
	}
	fmt.Fprintf(&b, `<w:color w:val="%s"/><w:sz w:val="%d"/></w:rPr>`, color, halfPoints(w.Size))
	rpr = b.String()
	return rpr
}

func paragraphStyle(b *strings.Builder, id string, ppr string, rpr string) {
	fmt.Fprintf(b, `<w:style w:type="paragraph" w:customStyle="1" w:styleId="%s"><w:name w:val="%s"/><w:basedOn w:val="Normal"/><w:qFormat/>`, id, id)
	b.WriteString(`<w:pPr>` + ppr + `</w:pPr>`)
	b.WriteString(rpr)
	b.WriteString(`</w:style>`)
}

// decorationProps returns header and footer paragraph properties for the
// decoration kind. Bands become paragraph shading; rules become borders.
func decorationProps(set style.StyleSet) (headerPPr, headerColor, footerPPr, footerColor string) {
	pal := set.Palette
	tab := `<w:tabs><w:tab w:val="right" w:pos="9864"/></w:tabs>`

	switch set.Decoration.Kind {
	case style.DecorationBanner:
		headerPPr = fmt.Sprintf(`<w:pBdr><w:bottom w:val="single" w:sz="18" w:space="4" w:color="%s"/></w:pBdr><w:shd w:val="clear" w:color="auto" w:fill="%s"/><w:jc w:val="center"/>`, pal.Accent.Hex(), pal.Primary.Hex())
		headerColor = "FFFFFF"
		footerPPr = fmt.Sprintf(`<w:shd w:val="clear" w:color="auto" w:fill="%s"/>%s<w:jc w:val="center"/>`, pal.Primary.Hex(), tab)
		footerColor = "FFFFFF"
	case style.DecorationSplitBanner:
		headerPPr = fmt.Sprintf(`<w:pBdr><w:bottom w:val="single" w:sz="24" w:space="2" w:color="%s"/></w:pBdr><w:shd w:val="clear" w:color="auto" w:fill="%s"/>`, pal.Accent.Hex(), pal.Primary.Hex())
		headerColor = "FFFFFF"
		footerPPr = fmt.Sprintf(`<w:pBdr><w:top w:val="single" w:sz="24" w:space="2" w:color="%s"/></w:pBdr><w:shd w:val="clear" w:color="auto" w:fill="%s"/>%s`, pal.Accent.Hex(), pal.Primary.Hex(), tab)
		footerColor = "FFFFFF"
	default:
		headerPPr = fmt.Sprintf(`<w:pBdr><w:bottom w:val="single" w:sz="4" w:space="4" w:color="%s"/></w:pBdr>`, pal.Primary.Hex())
		headerColor = pal.Secondary.Hex()
		footerPPr = fmt.Sprintf(`<w:pBdr><w:top w:val="single" w:sz="4" w:space="4" w:color="%s"/></w:pBdr>%s`, pal.Primary.Hex(), tab)
		footerColor = "646464"
	}
	return headerPPr, headerColor, footerPPr, footerColor
}

func stylesXML(set style.StyleSet) (part string) {
	typo := set.Typography
	pal := set.Palette

	var b strings.Builder
	b.WriteString(`<?xml version="1.0" encoding="UTF-8" standalone="yes"?>`)
	fmt.Fprintf(&b, `<w:styles xmlns:w="%s">`, nsW)
	b.WriteString(`<w:docDefaults><w:rPrDefault><w:rPr><w:rFonts w:ascii="Calibri" w:hAnsi="Calibri" w:cs="Calibri"/>`)
	fmt.Fprintf(&b, `<w:sz w:val="%d"/></w:rPr></w:rPrDefault>`, halfPoints(typo.Detail.Size))
	b.WriteString(`<w:pPrDefault><w:pPr><w:spacing w:after="40" w:line="259" w:lineRule="auto"/></w:pPr></w:pPrDefault></w:docDefaults>`)
	b.WriteString(`<w:style w:type="paragraph" w:default="1" w:styleId="Normal"><w:name w:val="Normal"/><w:qFormat/></w:style>`)

	label := typo.Subtitle
	label.Bold = true
	strong := typo.Detail
	strong.Bold = true
	em := typo.Detail
	em.Italic = true
	small := typo.Detail
	small.Size = min(small.Size, 9)
	headerWeight := typo.Subtitle
	headerWeight.Bold = true

	paragraphStyle(&b, styleTitle, `<w:spacing w:after="60"/>`, runProps(typo.Title, pal.Primary.Hex()))
	paragraphStyle(&b, styleContact,
		fmt.Sprintf(`<w:pBdr><w:bottom w:val="single" w:sz="8" w:space="6" w:color="%s"/></w:pBdr><w:spacing w:after="200"/>`, pal.Accent.Hex()),
		runProps(typo.Subtitle, "646464"))
	paragraphStyle(&b, styleSection,
		fmt.Sprintf(`<w:keepNext/><w:pBdr><w:bottom w:val="single" w:sz="6" w:space="2" w:color="%s"/></w:pBdr><w:spacing w:before="240" w:after="120"/>`, pal.Accent.Hex()),
		runProps(typo.Heading, pal.Primary.Hex()))
	paragraphStyle(&b, styleLabel, `<w:keepNext/><w:spacing w:before="80"/>`, runProps(label, pal.Accent.Hex()))
	paragraphStyle(&b, styleEntryHeading, `<w:keepNext/><w:spacing w:before="100"/>`, runProps(strong, "1E1E1E"))
	paragraphStyle(&b, styleEntryLine, ``, runProps(typo.Detail, "323232"))
	paragraphStyle(&b, styleEntryFooter, `<w:spacing w:after="120"/>`, runProps(em, "646464"))

	headerPPr, headerColor, footerPPr, footerColor := decorationProps(set)
	paragraphStyle(&b, styleHeader, headerPPr, runProps(headerWeight, headerColor))
	paragraphStyle(&b, styleFooter, footerPPr, runProps(small, footerColor))

	b.WriteString(`</w:styles>`)
	part = b.String()
	return part
}

// checkPackage confirms the rendered bytes are a readable DOCX package.
func checkPackage(data []byte) (err error) {
	var zr *zip.Reader
	zr, err = zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		err = errors.Wrap(err, "rendered DOCX is not a zip package")
		return err
	}

	for _, f := range zr.File {
		if f.Name == "word/document.xml" {
			return err
		}
	}

	err = errors.New("rendered DOCX has no word/document.xml")
	return err
}
