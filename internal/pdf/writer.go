package pdf

import (
	"bytes"
	"fmt"
)

const (
	pageWidth   = 595
	pageHeight  = 842
	marginLeft  = 50
	marginTop   = 52
	titleSize   = 16
	titleLead   = 24
	bodySize    = 11
	bodyLeading = 14
)

// BuildMinimalPDF writes a single-page PDF 1.4 document showing lines top to bottom in
// Helvetica. The first line is set as the title. Lines must already be sanitized.
func BuildMinimalPDF(lines []string) []byte {
	content := contentStream(lines)

	objects := []string{
		"<< /Type /Catalog /Pages 2 0 R >>",
		"<< /Type /Pages /Kids [3 0 R] /Count 1 >>",
		fmt.Sprintf("<< /Type /Page /Parent 2 0 R /MediaBox [0 0 %d %d] /Resources << /Font << /F1 5 0 R >> >> /Contents 4 0 R >>", pageWidth, pageHeight),
		fmt.Sprintf("<< /Length %d >>\nstream\n%s\nendstream", len(content), content),
		"<< /Type /Font /Subtype /Type1 /BaseFont /Helvetica /Encoding /WinAnsiEncoding >>",
	}

	var buf bytes.Buffer
	buf.WriteString("%PDF-1.4\n")

	offsets := make([]int, len(objects))
	for i, obj := range objects {
		offsets[i] = buf.Len()
		fmt.Fprintf(&buf, "%d 0 obj\n%s\nendobj\n", i+1, obj)
	}

	xref := buf.Len()
	fmt.Fprintf(&buf, "xref\n0 %d\n", len(objects)+1)
	buf.WriteString("0000000000 65535 f \n")
	for _, off := range offsets {
		fmt.Fprintf(&buf, "%010d 00000 n \n", off)
	}
	fmt.Fprintf(&buf, "trailer\n<< /Size %d /Root 1 0 R >>\nstartxref\n%d\n%%%%EOF\n", len(objects)+1, xref)

	return buf.Bytes()
}

func contentStream(lines []string) []byte {
	var b bytes.Buffer
	b.WriteString("BT\n")
	fmt.Fprintf(&b, "%d %d Td\n", marginLeft, pageHeight-marginTop)

	for i, line := range lines {
		if i == 0 {
			fmt.Fprintf(&b, "/F1 %d Tf\n%d TL\n", titleSize, titleLead)
		}
		fmt.Fprintf(&b, "(%s) Tj\nT*\n", escape(line))
		if i == 0 {
			fmt.Fprintf(&b, "/F1 %d Tf\n%d TL\n", bodySize, bodyLeading)
		}
	}

	b.WriteString("ET")
	return b.Bytes()
}
