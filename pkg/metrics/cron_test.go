package metrics

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

func TestCronJobMetricsRecordsRunsByResult(t *testing.T) {
	reg := prometheus.NewRegistry()
	metrics := NewCronJobMetrics(reg)
	job := "pending_reminder"
	end := time.Unix(1_750_000_000, 0)
	metrics.ObserveRun(job, nil, 250*time.Millisecond, end)
	metrics.ObserveRun(job, errors.New("send failed"), 100*time.Millisecond, end.Add(time.Hour))
	metrics.IncSkipped()

	mfs, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather metrics: %v", err)
	}

	if got, err := fetchCounterValue(mfs, "orderbot_cron_job_runs_total", "result", CronResultSuccess); err != nil {
		t.Fatalf("fetch success: %v", err)
	} else if got != 1 {
		t.Fatalf("expected success=1, got %f", got)
	}

	if got, err := fetchCounterValue(mfs, "orderbot_cron_job_runs_total", "result", CronResultFailure); err != nil {
		t.Fatalf("fetch failure: %v", err)
	} else if got != 1 {
		t.Fatalf("expected failure=1, got %f", got)
	}

	if got, err := fetchHistogramSum(mfs, "orderbot_cron_job_duration_seconds", "job", job); err != nil {
		t.Fatalf("fetch duration: %v", err)
	} else if got < 0.34 || got > 0.36 {
		t.Fatalf("expected duration sum 0.35, got %f", got)
	}

	mf := findMetricFamily(mfs, "orderbot_cron_job_last_success_timestamp_seconds")
	if mf == nil || len(mf.GetMetric()) != 1 {
		t.Fatalf("expected one last-success gauge")
	}
	if got := mf.GetMetric()[0].GetGauge().GetValue(); got != float64(end.Unix()) {
		t.Fatalf("failure must not advance last success, got %f", got)
	}

	skipped := findMetricFamily(mfs, "orderbot_cron_cycles_skipped_total")
	if skipped == nil || skipped.GetMetric()[0].GetCounter().GetValue() != 1 {
		t.Fatalf("expected one skipped cycle")
	}
}

func TestCronJobMetricsNilSafe(t *testing.T) {
	var nilMetrics *CronJobMetrics
	nilMetrics.ObserveRun("job", nil, time.Second, time.Now())
	nilMetrics.IncSkipped()
	NewCronJobMetrics(nil).ObserveRun("job", nil, time.Second, time.Now())
}

func fetchCounterValue(mfs []*dto.MetricFamily, name, label, value string) (float64, error) {
	mf := findMetricFamily(mfs, name)
	if mf == nil {
		return 0, fmt.Errorf("metric %q not found", name)
	}
	for _, metric := range mf.GetMetric() {
		if matchesLabel(metric.GetLabel(), label, value) {
			return metric.GetCounter().GetValue(), nil
		}
	}
	return 0, fmt.Errorf("metric %q missing label %s=%s", name, label, value)
}

func fetchHistogramSum(mfs []*dto.MetricFamily, name, label, value string) (float64, error) {
	mf := findMetricFamily(mfs, name)
	if mf == nil {
		return 0, fmt.Errorf("metric %q not found", name)
	}
	for _, metric := range mf.GetMetric() {
		if matchesLabel(metric.GetLabel(), label, value) {
			return metric.GetHistogram().GetSampleSum(), nil
		}
	}
	return 0, fmt.Errorf("histogram %q missing label %s=%s", name, label, value)
}

func findMetricFamily(mfs []*dto.MetricFamily, name string) *dto.MetricFamily {
	for _, mf := range mfs {
		if mf.GetName() == name {
			return mf
		}
	}
	return nil
}

func matchesLabel(labels []*dto.LabelPair, name, value string) bool {
	for _, label := range labels {
		if label.GetName() == name && label.GetValue() == value {
			return true
		}
	}
	return false
}
