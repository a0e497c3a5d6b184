package services

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/jung-kurt/gofpdf"
	"github.com/sitescope/backend/internal/config"
	"github.com/sitescope/backend/internal/models"
	"gorm.io/gorm"
)

// ReportService computes the canned dashboard datasets and renders the
// downloadable PDF report.
type ReportService struct {
	db  *gorm.DB
	cfg *config.Config
}

func NewReportService(db *gorm.DB, cfg *config.Config) *ReportService {
	return &ReportService{db: db, cfg: cfg}
}

type KindCount struct {
	Kind  models.MediaKind `json:"kind"`
	Count int64            `json:"count"`
	Bytes int64            `json:"bytes"`
}

type MonthCount struct {
	Month string `json:"month"` // YYYY-MM
	Count int64  `json:"count"`
}

type ProjectOrders struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Orders int64  `json:"orders"`
}

type AnalyticsSummary struct {
	Projects       int64           `json:"projects"`
	MediaByKind    []KindCount     `json:"media_by_kind"`
	UploadsByMonth []MonthCount    `json:"uploads_by_month"`
	TopProjects    []ProjectOrders `json:"top_projects"`
	GeneratedAt    time.Time       `json:"generated_at"`
}

// monthsOfHistory bounds the uploads-per-month chart.
const monthsOfHistory = 12

// Summary aggregates the datasets behind the dashboard charts.
func (s *ReportService) Summary(ctx context.Context) (*AnalyticsSummary, error) {
	out := &AnalyticsSummary{GeneratedAt: time.Now().UTC()}

	if err := s.db.WithContext(ctx).Model(&models.Project{}).Count(&out.Projects).Error; err != nil {
		return nil, fmt.Errorf("count projects: %w", err)
	}

	if err := s.db.WithContext(ctx).Model(&models.MediaItem{}).
		Select("kind, COUNT(*) AS count, COALESCE(SUM(size), 0) AS bytes").
		Group("kind").
		Order("kind").
		Scan(&out.MediaByKind).Error; err != nil {
		return nil, fmt.Errorf("media by kind: %w", err)
	}

	since := out.GeneratedAt.AddDate(0, -(monthsOfHistory - 1), 0)
	var createdAts []time.Time
	if err := s.db.WithContext(ctx).Model(&models.MediaItem{}).
		Where("created_at >= ?", startOfMonth(since)).
		Pluck("created_at", &createdAts).Error; err != nil {
		return nil, fmt.Errorf("upload timestamps: %w", err)
	}
	out.UploadsByMonth = MonthBuckets(createdAts, monthsOfHistory, out.GeneratedAt)

	if err := s.db.WithContext(ctx).Model(&models.Project{}).
		Select("id, name, orders").
		Order("orders DESC").
		Limit(5).
		Scan(&out.TopProjects).Error; err != nil {
		return nil, fmt.Errorf("top projects: %w", err)
	}

	return out, nil
}

func startOfMonth(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
}

// MonthBuckets counts timestamps per calendar month over the last n months
// ending at now. Buckets are returned oldest first and months with no
// activity appear with a zero count.
func MonthBuckets(times []time.Time, n int, now time.Time) []MonthCount {
	if n <= 0 {
		return nil
	}
	counts := make(map[string]int64, n)
	order := make([]string, 0, n)
	for i := n - 1; i >= 0; i-- {
		key := now.AddDate(0, -i, 0).UTC().Format("2006-01")
		counts[key] = 0
		order = append(order, key)
	}
	for _, t := range times {
		key := t.UTC().Format("2006-01")
		if _, ok := counts[key]; ok {
			counts[key]++
		}
	}
	out := make([]MonthCount, 0, n)
	for _, key := range order {
		out = append(out, MonthCount{Month: key, Count: counts[key]})
	}
	return out
}

// BuildPDF renders the summary as a one-page A4 report.
func (s *ReportService) BuildPDF(summary *AnalyticsSummary) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.AddPage()
	pdf.SetFont("Arial", "B", 18)
	pdf.Cell(0, 10, "SiteScope Analytics Report")
	pdf.Ln(10)
	pdf.SetFont("Arial", "", 10)
	pdf.Cell(0, 6, fmt.Sprintf("Generated %s", summary.GeneratedAt.Format(time.RFC1123)))
	pdf.Ln(12)

	pdf.SetFont("Arial", "B", 13)
	pdf.Cell(0, 8, fmt.Sprintf("Projects: %d", summary.Projects))
	pdf.Ln(12)

	pdf.SetFont("Arial", "B", 13)
	pdf.Cell(0, 8, "Media by kind")
	pdf.Ln(9)
	pdf.SetFont("Arial", "", 11)
	for _, kc := range summary.MediaByKind {
		pdf.Cell(0, 6, fmt.Sprintf("%-8s %6d items  %12d bytes", kc.Kind, kc.Count, kc.Bytes))
		pdf.Ln(6)
	}
	pdf.Ln(6)

	pdf.SetFont("Arial", "B", 13)
	pdf.Cell(0, 8, "Uploads per month")
	pdf.Ln(9)
	pdf.SetFont("Arial", "", 11)
	for _, mc := range summary.UploadsByMonth {
		pdf.Cell(0, 6, fmt.Sprintf("%s  %d", mc.Month, mc.Count))
		pdf.Ln(6)
	}
	pdf.Ln(6)

	pdf.SetFont("Arial", "B", 13)
	pdf.Cell(0, 8, "Top projects by orders")
	pdf.Ln(9)
	pdf.SetFont("Arial", "", 11)
	for _, po := range summary.TopProjects {
		pdf.Cell(0, 6, fmt.Sprintf("%-40s %d", po.Name, po.Orders))
		pdf.Ln(6)
	}

	var out bytes.Buffer
	if err := pdf.Output(&out); err != nil {
		return nil, err
	}
	return out.Bytes(), nil
}
