// Package pdftest writes small PDF documents for tests.
package pdftest

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// Field is a form field placed on the first page.
type Field struct {
	Name string
	// Type is the /FT value; empty means Tx.
	Type  string
	Value string
	// Kids become child text fields named Name.Kid.
	Kids []string
}

// Document describes a generated PDF.
type Document struct {
	// Pages holds the text lines of each page.
	Pages  [][]string
	Fields []Field
	// NoAcroForm omits the interactive form dictionary entirely.
	NoAcroForm bool
}

var literalEscaper = strings.NewReplacer(`\`, `\\`, `(`, `\(`, `)`, `\)`)

// Write renders doc into dir/name and returns the path.
func Write(tb testing.TB, dir, name string, doc Document) string {
	tb.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, Build(doc), 0o600); err != nil {
		tb.Fatalf("write %s: %v", path, err)
	}
	return path
}

// Build renders doc as PDF bytes with a valid cross-reference table.
func Build(doc Document) []byte {
	b := &builder{}

	// Fixed object numbers: 1 catalog, 2 page tree, 3 font.
	catalog := b.reserve()
	pageTree := b.reserve()
	font := b.reserve()

	pageObjs := make([]int, len(doc.Pages))
	contentObjs := make([]int, len(doc.Pages))
	for i := range doc.Pages {
		pageObjs[i] = b.reserve()
		contentObjs[i] = b.reserve()
	}

	var fieldRefs, annotRefs []string
	type pending struct {
		num  int
		body string
	}
	var fieldBodies []pending
	for i, f := range doc.Fields {
		ft := f.Type
		if ft == "" {
			ft = "Tx"
		}
		rect := fmt.Sprintf("[100 %d 300 %d]", 700-i*30, 720-i*30)
		num := b.reserve()
		fieldRefs = append(fieldRefs, ref(num))

		value := ""
		if f.Value != "" {
			value = fmt.Sprintf(" /V (%s)", literalEscaper.Replace(f.Value))
		}

		if len(f.Kids) == 0 {
			annotRefs = append(annotRefs, ref(num))
			fieldBodies = append(fieldBodies, pending{num, fmt.Sprintf(
				"<< /Type /Annot /Subtype /Widget /FT /%s /T (%s)%s /Rect %s /F 4 /P %s >>",
				ft, literalEscaper.Replace(f.Name), value, rect, pageRefOrNull(pageObjs))})
			continue
		}

		var kidRefs []string
		for j, kid := range f.Kids {
			kidNum := b.reserve()
			kidRefs = append(kidRefs, ref(kidNum))
			annotRefs = append(annotRefs, ref(kidNum))
			kidRect := fmt.Sprintf("[%d %d %d %d]", 320+j*110, 700-i*30, 420+j*110, 720-i*30)
			fieldBodies = append(fieldBodies, pending{kidNum, fmt.Sprintf(
				"<< /Type /Annot /Subtype /Widget /T (%s) /Parent %s /Rect %s /F 4 /P %s >>",
				literalEscaper.Replace(kid), ref(num), kidRect, pageRefOrNull(pageObjs))})
		}
		fieldBodies = append(fieldBodies, pending{num, fmt.Sprintf(
			"<< /FT /%s /T (%s)%s /Kids [%s] >>",
			ft, literalEscaper.Replace(f.Name), value, strings.Join(kidRefs, " "))})
	}

	acroForm := ""
	if !doc.NoAcroForm {
		acroForm = fmt.Sprintf(" /AcroForm << /Fields [%s] /DA (/F1 0 Tf 0 g) >>", strings.Join(fieldRefs, " "))
	}
	b.set(catalog, fmt.Sprintf("<< /Type /Catalog /Pages %s%s >>", ref(pageTree), acroForm))

	kids := make([]string, len(pageObjs))
	for i, p := range pageObjs {
		kids[i] = ref(p)
	}
	b.set(pageTree, fmt.Sprintf("<< /Type /Pages /Kids [%s] /Count %d >>", strings.Join(kids, " "), len(pageObjs)))
	b.set(font, "<< /Type /Font /Subtype /Type1 /BaseFont /Helvetica /Encoding /WinAnsiEncoding >>")

	for i, lines := range doc.Pages {
		annots := ""
		if i == 0 && len(annotRefs) > 0 {
			annots = fmt.Sprintf(" /Annots [%s]", strings.Join(annotRefs, " "))
		}
		b.set(pageObjs[i], fmt.Sprintf(
			"<< /Type /Page /Parent %s /MediaBox [0 0 612 792] /Resources << /Font << /F1 %s >> >> /Contents %s%s >>",
			ref(pageTree), ref(font), ref(contentObjs[i]), annots))

		var content strings.Builder
		content.WriteString("BT\n/F1 12 Tf\n72 720 Td\n14 TL\n")
		for _, line := range lines {
			fmt.Fprintf(&content, "(%s) Tj\nT*\n", literalEscaper.Replace(line))
		}
		content.WriteString("ET")
		stream := content.String()
		b.set(contentObjs[i], fmt.Sprintf("<< /Length %d >>\nstream\n%s\nendstream", len(stream), stream))
	}

	for _, fb := range fieldBodies {
		b.set(fb.num, fb.body)
	}

	return b.bytes()
}

func ref(num int) string { return fmt.Sprintf("%d 0 R", num) }

func pageRefOrNull(pages []int) string {
	if len(pages) == 0 {
		return "null"
	}
	return ref(pages[0])
}

type builder struct {
	bodies []string
}

func (b *builder) reserve() int {
	b.bodies = append(b.bodies, "")
	return len(b.bodies)
}

func (b *builder) set(num int, body string) {
	b.bodies[num-1] = body
}

func (b *builder) bytes() []byte {
	var buf bytes.Buffer
	buf.WriteString("%PDF-1.4\n%\xe2\xe3\xcf\xd3\n")

	offsets := make([]int, len(b.bodies))
	for i, body := range b.bodies {
		offsets[i] = buf.Len()
		fmt.Fprintf(&buf, "%d 0 obj\n%s\nendobj\n", i+1, body)
	}

	xref := buf.Len()
	fmt.Fprintf(&buf, "xref\n0 %d\n", len(b.bodies)+1)
	buf.WriteString("0000000000 65535 f \n")
	for _, off := range offsets {
		fmt.Fprintf(&buf, "%010d 00000 n \n", off)
	}
	fmt.Fprintf(&buf, "trailer\n<< /Size %d /Root 1 0 R >>\nstartxref\n%d\n%%%%EOF\n", len(b.bodies)+1, xref)
	return buf.Bytes()
}
