package export

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"strconv"
	"time"

	"github.com/jung-kurt/gofpdf"
	"github.com/skip2/go-qrcode"
)

// QRSize is the edge length in pixels of generated QR codes.
const QRSize = 200

// CertificateData carries everything printed on an internship certificate.
type CertificateData struct {
	CertificateID      string
	StudentName        string
	Role               string
	Company            string
	StartDate          *time.Time
	EndDate            *time.Time
	OverallRating      *float64
	PerformanceGrade   string
	EmployabilityScore *float64
	IssuedAt           time.Time
	// QRCode is an optional PNG embedded next to the signatures.
	QRCode []byte
}

// CertificateRenderer draws landscape A4 internship certificates.
type CertificateRenderer struct{}

// NewCertificateRenderer constructs a renderer.
func NewCertificateRenderer() *CertificateRenderer {
	return &CertificateRenderer{}
}

// Render produces the certificate PDF bytes.
func (r *CertificateRenderer) Render(data CertificateData) ([]byte, error) {
	if data.CertificateID == "" {
		return nil, fmt.Errorf("certificate id required")
	}
	pdf := gofpdf.New("L", "mm", "A4", "")
	pdf.SetMargins(18, 18, 18)
	pdf.SetAutoPageBreak(false, 0)
	pdf.AddPage()
	width, height := pdf.GetPageSize()

	pdf.SetFillColor(248, 249, 250)
	pdf.Rect(0, 0, width, height, "F")
	pdf.SetDrawColor(31, 41, 55)
	pdf.SetLineWidth(1)
	pdf.Rect(10, 10, width-20, height-20, "D")

	centered := func(y float64, style string, size float64, rgb [3]int, text string) {
		pdf.SetFont("Helvetica", style, size)
		pdf.SetTextColor(rgb[0], rgb[1], rgb[2])
		pdf.SetXY(0, y)
		pdf.CellFormat(width, size*0.5, text, "", 0, "C", false, 0, "")
	}

	dark := [3]int{31, 41, 55}
	muted := [3]int{107, 114, 128}

	centered(26, "B", 26, dark, "INTERNSHIP PERFORMANCE CERTIFICATE")
	centered(44, "", 12, muted, "Certificate ID: "+data.CertificateID)
	centered(64, "", 14, dark, "This is to certify that")
	centered(76, "B", 24, [3]int{59, 130, 246}, orDefault(data.StudentName, "Student Name"))
	centered(94, "", 14, dark, "has successfully completed an internship as")
	centered(105, "B", 20, [3]int{5, 150, 105}, orDefault(data.Role, "Internship Role"))
	centered(119, "", 14, dark, "at "+orDefault(data.Company, "Company Name"))

	const blockY = 140.0
	pdf.SetTextColor(dark[0], dark[1], dark[2])
	pdf.SetFont("Helvetica", "B", 13)
	pdf.SetXY(35, blockY)
	pdf.CellFormat(100, 7, "Performance Summary:", "", 1, "L", false, 0, "")
	pdf.SetFont("Helvetica", "", 11)
	pdf.SetTextColor(55, 65, 81)
	lines := []string{
		"Overall Rating: " + formatScore(data.OverallRating) + "/10",
		"Performance Grade: " + orDefault(data.PerformanceGrade, "N/A"),
		"Employability Score: " + formatScore(data.EmployabilityScore),
	}
	for i, line := range lines {
		pdf.SetXY(35, blockY+10+float64(i)*7)
		pdf.CellFormat(100, 6, line, "", 1, "L", false, 0, "")
	}

	rightX := width - 115
	issued := data.IssuedAt
	if issued.IsZero() {
		issued = time.Now()
	}
	pdf.SetTextColor(muted[0], muted[1], muted[2])
	pdf.SetXY(rightX, blockY)
	pdf.CellFormat(90, 7, "Internship Period:", "", 1, "L", false, 0, "")
	pdf.SetXY(rightX, blockY+8)
	pdf.CellFormat(90, 6, formatDate(data.StartDate)+" - "+formatDate(data.EndDate), "", 1, "L", false, 0, "")
	pdf.SetXY(rightX, blockY+18)
	pdf.CellFormat(90, 6, "Certificate Issued: "+issued.Format("02 Jan 2006"), "", 1, "L", false, 0, "")

	sigY := height - 30
	pdf.SetDrawColor(muted[0], muted[1], muted[2])
	pdf.SetLineWidth(0.3)
	pdf.Line(35, sigY, 90, sigY)
	pdf.Line(width-90, sigY, width-35, sigY)
	pdf.SetFont("Helvetica", "", 9)
	pdf.SetXY(35, sigY+2)
	pdf.CellFormat(55, 5, "Placement Officer", "", 0, "C", false, 0, "")
	pdf.SetXY(width-90, sigY+2)
	pdf.CellFormat(55, 5, "Faculty Mentor", "", 0, "C", false, 0, "")

	if len(data.QRCode) > 0 {
		opts := gofpdf.ImageOptions{ImageType: "PNG"}
		pdf.RegisterImageOptionsReader("qr", opts, bytes.NewReader(data.QRCode))
		pdf.ImageOptions("qr", width/2-14, sigY-22, 28, 28, false, opts, 0, "")
	}

	if err := pdf.Error(); err != nil {
		return nil, fmt.Errorf("render certificate: %w", err)
	}
	buf := &bytes.Buffer{}
	if err := pdf.Output(buf); err != nil {
		return nil, fmt.Errorf("render certificate: %w", err)
	}
	return buf.Bytes(), nil
}

// QRCodePNG encodes content as a QR PNG of QRSize pixels.
func QRCodePNG(content string) ([]byte, error) {
	png, err := qrcode.Encode(content, qrcode.Medium, QRSize)
	if err != nil {
		return nil, fmt.Errorf("encode qr code: %w", err)
	}
	return png, nil
}

// DataURL wraps a PNG as a data URL.
func DataURL(png []byte) string {
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(png)
}

func orDefault(value, fallback string) string {
	if value == "" {
		return fallback
	}
	return value
}

func formatScore(v *float64) string {
	if v == nil {
		return "N/A"
	}
	return strconv.FormatFloat(*v, 'f', -1, 64)
}

func formatDate(t *time.Time) string {
	if t == nil || t.IsZero() {
		return "N/A"
	}
	return t.Format("02 Jan 2006")
}
