package pdf

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/pawsitter/backend/internal/domain"
	"github.com/signintech/gopdf"
)

var ErrFontNotLoaded = errors.New("pdf font not loaded")

const (
	fontName   = "dejavu"
	pageBottom = 760
)

var fallbackFontPaths = []string{
	"./fonts/DejaVuSans.ttf",
	"/usr/share/fonts/truetype/dejavu/DejaVuSans.ttf",
	"/usr/share/fonts/TTF/DejaVuSans.ttf",
}

// Generator renders audit reports. A document is built per call, so one
// Generator can serve concurrent requests.
type Generator struct {
	fontPath string
	now      func() time.Time
}

// NewGenerator picks the first readable font among fontPath and the usual
// system locations. It never fails; reports fail with ErrFontNotLoaded instead.
func NewGenerator(fontPath string) *Generator {
	g := &Generator{now: time.Now}
	for _, path := range append([]string{fontPath}, fallbackFontPaths...) {
		if path == "" {
			continue
		}
		if _, err := os.Stat(path); err == nil {
			g.fontPath = path
			break
		}
	}
	return g
}

func (g *Generator) HasFont() bool {
	return g.fontPath != ""
}

type page struct {
	pdf *gopdf.GoPdf
}

// AuditReport renders the verification summary followed by every audit
// entry in order.
func (g *Generator) AuditReport(v *domain.Verification, entries []*domain.AuditLog) ([]byte, error) {
	if !g.HasFont() {
		return nil, ErrFontNotLoaded
	}

	doc := &gopdf.GoPdf{}
	doc.Start(gopdf.Config{PageSize: *gopdf.PageSizeA4, Unit: gopdf.Unit_PT})
	if err := doc.AddTTFFont(fontName, g.fontPath); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFontNotLoaded, err)
	}
	p := &page{pdf: doc}

	doc.AddPage()
	p.header("ID VERIFICATION AUDIT")

	doc.SetY(90)
	p.field("Verification", v.ID.String())
	p.field("User", v.UserID.String())
	p.field("Document", fmt.Sprintf("%s (attempt %d)", v.DocumentType.Label(), v.Attempt))
	p.field("Status", string(v.Status))
	if v.VerificationMethod != nil {
		p.field("Method", string(*v.VerificationMethod))
	}
	if v.ConfidenceLevel != nil {
		p.field("Confidence", string(*v.ConfidenceLevel))
	}
	if v.RejectionReason != nil {
		p.field("Rejection reason", *v.RejectionReason)
	}
	if len(v.BadgesEarned) > 0 {
		p.field("Badges", strings.Join(v.BadgesEarned, ", "))
	}

	doc.SetY(doc.GetY() + 20)
	p.title(fmt.Sprintf("Audit trail (%d entries)", len(entries)))

	for _, e := range entries {
		p.entry(e)
	}

	p.footer(g.now())

	var buf bytes.Buffer
	if _, err := doc.WriteTo(&buf); err != nil {
		return nil, fmt.Errorf("failed to output PDF: %w", err)
	}

	return buf.Bytes(), nil
}

func (p *page) header(text string) {
	p.pdf.SetFillColor(46, 125, 50)
	p.pdf.RectFromUpperLeftWithStyle(0, 0, 595, 60, "F")

	p.pdf.SetTextColor(255, 255, 255)
	_ = p.pdf.SetFont(fontName, "", 20)
	p.pdf.SetXY(50, 22)
	_ = p.pdf.Cell(nil, text)
	p.pdf.SetTextColor(0, 0, 0)
}

func (p *page) title(text string) {
	p.ensureSpace(30)
	p.pdf.SetX(50)
	_ = p.pdf.SetFont(fontName, "", 14)
	p.pdf.SetTextColor(0, 0, 0)
	_ = p.pdf.Cell(nil, text)
	p.pdf.SetY(p.pdf.GetY() + 22)
}

func (p *page) field(label, value string) {
	p.ensureSpace(18)
	y := p.pdf.GetY()
	_ = p.pdf.SetFont(fontName, "", 10)
	p.pdf.SetTextColor(110, 110, 110)
	p.pdf.SetXY(50, y)
	_ = p.pdf.Cell(nil, label)
	p.pdf.SetTextColor(0, 0, 0)
	p.pdf.SetXY(170, y)
	_ = p.pdf.Cell(nil, value)
	p.pdf.SetY(y + 16)
}

func (p *page) entry(e *domain.AuditLog) {
	p.ensureSpace(60)

	actor := "vendor"
	if e.AdminID != nil {
		actor = "admin " + e.AdminID.String()
	}
	p.field(e.CreatedAt.UTC().Format("2006-01-02 15:04:05"), fmt.Sprintf("%s by %s", e.Action, actor))

	if prev, ok := e.Metadata[domain.AuditMetaPreviousStatus].(string); ok {
		next, _ := e.Metadata[domain.AuditMetaNewStatus].(string)
		transition := fmt.Sprintf("%s -> %s", prev, next)
		if !e.Applied() {
			transition += " (recorded, not applied)"
		}
		p.field("", transition)
	}
	if e.Reason != nil {
		p.field("", "Reason: "+*e.Reason)
	}
	if e.IPAddress != nil {
		p.field("", "IP: "+*e.IPAddress)
	}
	p.pdf.SetY(p.pdf.GetY() + 6)
}

func (p *page) ensureSpace(h float64) {
	if p.pdf.GetY()+h > pageBottom {
		p.pdf.AddPage()
		p.pdf.SetY(50)
	}
}

func (p *page) footer(now time.Time) {
	p.pdf.SetXY(50, 800)
	_ = p.pdf.SetFont(fontName, "", 8)
	p.pdf.SetTextColor(150, 150, 150)
	_ = p.pdf.Cell(nil, fmt.Sprintf("Generated %s", now.UTC().Format(time.RFC3339)))
}
