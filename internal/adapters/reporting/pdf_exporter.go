// Package reporting renders a one-page network overview PDF for the
// control surface's network.pdf route, adapted from the teacher's
// executive-summary PDF export.
package reporting

import (
	"bytes"
	"fmt"
	"sort"
	"time"

	"github.com/jung-kurt/gofpdf"

	"github.com/lcalzada-xor/dawnd/internal/core/domain"
)

// PDFExporter renders a get_network-shaped snapshot to PDF.
type PDFExporter struct{}

func NewPDFExporter() *PDFExporter { return &PDFExporter{} }

// ExportNetworkOverview renders network (as returned by control.Network)
// to a PDF: one section per SSID, one row per BSSID, with client
// counts and channel utilisation; a new page is added when the
// current one fills up.
func (e *PDFExporter) ExportNetworkOverview(network map[string]map[string]domain.NetworkAP, generatedAt time.Time) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.AddPage()

	e.addHeader(pdf, generatedAt)

	ssids := make([]string, 0, len(network))
	for ssid := range network {
		ssids = append(ssids, ssid)
	}
	sort.Strings(ssids)

	for _, ssid := range ssids {
		e.addSSIDSection(pdf, ssid, network[ssid])
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("generate network overview pdf: %w", err)
	}
	return buf.Bytes(), nil
}

func (e *PDFExporter) addHeader(pdf *gofpdf.Fpdf, generatedAt time.Time) {
	pdf.SetFont("Arial", "B", 24)
	pdf.SetTextColor(0, 51, 102)
	pdf.CellFormat(0, 15, "Network Overview", "", 1, "L", false, 0, "")
	pdf.Ln(2)

	pdf.SetFont("Arial", "", 10)
	pdf.SetTextColor(120, 120, 120)
	pdf.CellFormat(0, 6, fmt.Sprintf("Generated: %s", generatedAt.Format("2006-01-02 15:04")), "", 1, "L", false, 0, "")
	pdf.Ln(8)
}

func (e *PDFExporter) addSSIDSection(pdf *gofpdf.Fpdf, ssid string, bssids map[string]domain.NetworkAP) {
	if pdf.GetY() > 250 {
		pdf.AddPage()
	}

	pdf.SetFont("Arial", "B", 14)
	pdf.SetTextColor(0, 51, 102)
	pdf.CellFormat(0, 10, ssid, "", 1, "L", false, 0, "")
	pdf.Ln(1)

	pdf.SetFillColor(240, 240, 240)
	pdf.SetFont("Arial", "B", 9)
	pdf.SetTextColor(60, 60, 60)
	pdf.CellFormat(45, 7, "BSSID", "1", 0, "L", true, 0, "")
	pdf.CellFormat(20, 7, "Local", "1", 0, "C", true, 0, "")
	pdf.CellFormat(25, 7, "Chan Util", "1", 0, "C", true, 0, "")
	pdf.CellFormat(25, 7, "Stations", "1", 0, "C", true, 0, "")
	pdf.CellFormat(25, 7, "HT/VHT", "1", 1, "C", true, 0, "")

	bssidList := make([]string, 0, len(bssids))
	for bssid := range bssids {
		bssidList = append(bssidList, bssid)
	}
	sort.Strings(bssidList)

	pdf.SetFont("Arial", "", 9)
	for _, bssid := range bssidList {
		ap := bssids[bssid]
		local := ""
		if ap.Local {
			local = "yes"
		}
		htvht := capsLabel(ap.HTSupport, ap.VHTSupport)

		pdf.SetTextColor(60, 60, 60)
		pdf.CellFormat(45, 6, bssid, "1", 0, "L", false, 0, "")
		pdf.CellFormat(20, 6, local, "1", 0, "C", false, 0, "")
		pdf.CellFormat(25, 6, fmt.Sprintf("%d", ap.ChannelUtilization), "1", 0, "C", false, 0, "")
		pdf.CellFormat(25, 6, fmt.Sprintf("%d", len(ap.Clients)), "1", 0, "C", false, 0, "")
		pdf.CellFormat(25, 6, htvht, "1", 1, "C", false, 0, "")
	}
	pdf.Ln(6)
}

func capsLabel(ht, vht bool) string {
	switch {
	case ht && vht:
		return "HT/VHT"
	case ht:
		return "HT"
	case vht:
		return "VHT"
	default:
		return "-"
	}
}
