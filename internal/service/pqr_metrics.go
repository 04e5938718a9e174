package service

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/spec-kit/conjunto-service/internal/domain"
	apperrors "github.com/spec-kit/conjunto-service/pkg/util"
)

// MetricsPeriod selects the trailing window a metrics snapshot covers.
type MetricsPeriod string

const (
	PeriodSemana    MetricsPeriod = "semana"
	PeriodMes       MetricsPeriod = "mes"
	PeriodTrimestre MetricsPeriod = "trimestre"
	PeriodAno       MetricsPeriod = "año"
)

// IsValid reports whether the value is an enumerated period.
func (p MetricsPeriod) IsValid() bool {
	switch p {
	case PeriodSemana, PeriodMes, PeriodTrimestre, PeriodAno:
		return true
	}
	return false
}

func (p MetricsPeriod) start(now time.Time) time.Time {
	switch p {
	case PeriodSemana:
		return now.AddDate(0, 0, -7)
	case PeriodMes:
		return now.AddDate(0, -1, 0)
	case PeriodTrimestre:
		return now.AddDate(0, -3, 0)
	default:
		return now.AddDate(-1, 0, 0)
	}
}

// MonthlyCount is one point of the creation trend.
type MonthlyCount struct {
	Month string `json:"mes"`
	Count int    `json:"cantidad"`
}

// AssigneeStats aggregates workload per responsible account.
type AssigneeStats struct {
	Count             int     `json:"cantidad"`
	MeanResponseHours float64 `json:"tiempoPromedioHoras"`
	MeanSatisfaction  float64 `json:"satisfaccionPromedio"`
}

// CategoryCount is one entry of the top-categories ranking.
type CategoryCount struct {
	Category domain.PQRCategory `json:"categoria"`
	Count    int                `json:"cantidad"`
}

// PQRSummary is the trimmed shape used for the recent list.
type PQRSummary struct {
	ID        string             `json:"id"`
	Number    string             `json:"numero"`
	Type      domain.PQRType     `json:"tipo"`
	Status    domain.PQRStatus   `json:"estado"`
	Priority  domain.PQRPriority `json:"prioridad"`
	Subject   string             `json:"asunto"`
	CreatedAt time.Time          `json:"fechaCreacion"`
}

// PQRMetrics is the full snapshot served by the metrics endpoint.
type PQRMetrics struct {
	Period            MetricsPeriod               `json:"periodo"`
	Total             int                         `json:"total"`
	TotalInPeriod     int                         `json:"totalPeriodo"`
	ByStatus          map[domain.PQRStatus]int    `json:"porEstado"`
	ByType            map[domain.PQRType]int      `json:"porTipo"`
	ByCategory        map[domain.PQRCategory]int  `json:"porCategoria"`
	ByPriority        map[domain.PQRPriority]int  `json:"porPrioridad"`
	MeanResponseHours float64                     `json:"tiempoPromedioRespuestaHoras"`
	MeanSatisfaction  float64                     `json:"satisfaccionPromedio"`
	ResolutionRate    int                         `json:"tasaResolucion"`
	MonthlyTrend      []MonthlyCount              `json:"tendenciaMensual"`
	ByAssignee        map[string]AssigneeStats    `json:"porResponsable"`
	Recent            []PQRSummary                `json:"recientes"`
	TopCategories     []CategoryCount             `json:"categoriasTop"`
	GeneratedAt       time.Time                   `json:"generadoEn"`
}

// MetricsCache stores computed snapshots per tenant and period. A miss or a
// broken cache entry simply triggers recomputation.
type MetricsCache interface {
	Get(ctx context.Context, tenantID string, period MetricsPeriod) (*PQRMetrics, bool)
	Set(ctx context.Context, tenantID string, period MetricsPeriod, metrics *PQRMetrics)
}

type redisMetricsCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisMetricsCache builds a snapshot cache over Redis.
func NewRedisMetricsCache(client *redis.Client, ttl time.Duration) MetricsCache {
	return &redisMetricsCache{client: client, ttl: ttl}
}

func metricsCacheKey(tenantID string, period MetricsPeriod) string {
	return fmt.Sprintf("pqr:metrics:%s:%s", tenantID, period)
}

func (c *redisMetricsCache) Get(ctx context.Context, tenantID string, period MetricsPeriod) (*PQRMetrics, bool) {
	raw, err := c.client.Get(ctx, metricsCacheKey(tenantID, period)).Bytes()
	if err != nil {
		return nil, false
	}
	var metrics PQRMetrics
	if err := json.Unmarshal(raw, &metrics); err != nil {
		return nil, false
	}
	return &metrics, true
}

func (c *redisMetricsCache) Set(ctx context.Context, tenantID string, period MetricsPeriod, metrics *PQRMetrics) {
	raw, err := json.Marshal(metrics)
	if err != nil {
		return
	}
	_ = c.client.Set(ctx, metricsCacheKey(tenantID, period), raw, c.ttl).Err()
}

// Metrics computes (or serves from cache) the snapshot for one tenant.
func (s *PQRService) Metrics(ctx context.Context, tenantID string, period MetricsPeriod) (*PQRMetrics, error) {
	if !period.IsValid() {
		return nil, apperrors.NewValidationError("validation failed", map[string]any{
			"periodo": "must be one of semana, mes, trimestre, año",
		})
	}
	if s.cache != nil {
		if cached, ok := s.cache.Get(ctx, tenantID, period); ok {
			return cached, nil
		}
	}

	repo, err := s.repos.PQRs(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	all, err := repo.ListAll(ctx)
	if err != nil {
		return nil, err
	}

	metrics := computeMetrics(all, period, s.now())
	if s.cache != nil {
		s.cache.Set(ctx, tenantID, period, metrics)
	}
	return metrics, nil
}

func computeMetrics(all []domain.PQR, period MetricsPeriod, now time.Time) *PQRMetrics {
	metrics := &PQRMetrics{
		Period:      period,
		Total:       len(all),
		ByStatus:    make(map[domain.PQRStatus]int),
		ByType:      make(map[domain.PQRType]int),
		ByCategory:  make(map[domain.PQRCategory]int),
		ByPriority:  make(map[domain.PQRPriority]int),
		ByAssignee:  make(map[string]AssigneeStats),
		GeneratedAt: now,
	}

	periodStart := period.start(now)
	var responseHoursSum float64
	var responded int
	var ratingSum int
	var rated int
	var resolvedOrClosed int

	type assigneeAcc struct {
		count  int
		hours  float64
		rating int
		rated  int
	}
	assignees := make(map[string]*assigneeAcc)

	for i := range all {
		pqr := &all[i]
		metrics.ByStatus[pqr.Status]++
		metrics.ByType[pqr.Type]++
		metrics.ByCategory[pqr.Category]++
		metrics.ByPriority[pqr.Priority]++

		if !pqr.CreatedAt.Before(periodStart) {
			metrics.TotalInPeriod++
		}
		if pqr.Status == domain.PQRStatusResuelto || pqr.Status == domain.PQRStatusCerrado {
			resolvedOrClosed++
		}
		var hours float64
		if pqr.RespondedAt != nil {
			hours = pqr.RespondedAt.Sub(pqr.CreatedAt).Hours()
			responseHoursSum += hours
			responded++
		}
		if pqr.Rating != nil {
			ratingSum += *pqr.Rating
			rated++
		}
		// Per-assignee efficiency only makes sense over responded tickets.
		if pqr.AssigneeID != nil && pqr.RespondedAt != nil {
			acc, ok := assignees[*pqr.AssigneeID]
			if !ok {
				acc = &assigneeAcc{}
				assignees[*pqr.AssigneeID] = acc
			}
			acc.count++
			acc.hours += hours
			if pqr.Rating != nil {
				acc.rating += *pqr.Rating
				acc.rated++
			}
		}
	}

	if responded > 0 {
		metrics.MeanResponseHours = round1(responseHoursSum / float64(responded))
	}
	if rated > 0 {
		metrics.MeanSatisfaction = round1(float64(ratingSum) / float64(rated))
	}
	if len(all) > 0 {
		metrics.ResolutionRate = int(math.Round(float64(resolvedOrClosed) / float64(len(all)) * 100))
	}

	for id, acc := range assignees {
		stats := AssigneeStats{Count: acc.count}
		if acc.count > 0 {
			stats.MeanResponseHours = round1(acc.hours / float64(acc.count))
		}
		if acc.rated > 0 {
			stats.MeanSatisfaction = round1(float64(acc.rating) / float64(acc.rated))
		}
		metrics.ByAssignee[id] = stats
	}

	metrics.MonthlyTrend = monthlyTrend(all, now)
	metrics.Recent = recentSummaries(all, 5)
	metrics.TopCategories = topCategories(metrics.ByCategory, 5)
	return metrics
}

// monthlyTrend buckets creations over the trailing six calendar months,
// oldest first. Buckets step back from the first of the current month;
// stepping from `now` itself would normalize month-end dates and skip months.
func monthlyTrend(all []domain.PQR, now time.Time) []MonthlyCount {
	trend := make([]MonthlyCount, 0, 6)
	counts := make(map[string]int)
	for i := range all {
		counts[all[i].CreatedAt.Format("2006-01")]++
	}
	first := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
	for i := 5; i >= 0; i-- {
		month := first.AddDate(0, -i, 0).Format("2006-01")
		trend = append(trend, MonthlyCount{Month: month, Count: counts[month]})
	}
	return trend
}

// recentSummaries assumes the input is already ordered newest first.
func recentSummaries(all []domain.PQR, limit int) []PQRSummary {
	if len(all) < limit {
		limit = len(all)
	}
	result := make([]PQRSummary, 0, limit)
	for i := 0; i < limit; i++ {
		pqr := &all[i]
		result = append(result, PQRSummary{
			ID:        pqr.ID,
			Number:    pqr.Number,
			Type:      pqr.Type,
			Status:    pqr.Status,
			Priority:  pqr.Priority,
			Subject:   pqr.Subject,
			CreatedAt: pqr.CreatedAt,
		})
	}
	return result
}

func topCategories(byCategory map[domain.PQRCategory]int, limit int) []CategoryCount {
	ranking := make([]CategoryCount, 0, len(byCategory))
	for category, count := range byCategory {
		ranking = append(ranking, CategoryCount{Category: category, Count: count})
	}
	sort.Slice(ranking, func(i, j int) bool {
		if ranking[i].Count != ranking[j].Count {
			return ranking[i].Count > ranking[j].Count
		}
		return ranking[i].Category < ranking[j].Category
	})
	if len(ranking) > limit {
		ranking = ranking[:limit]
	}
	return ranking
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
