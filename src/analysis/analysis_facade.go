package analysis

import (
	"time"

	"telemetry-viewer/src/analysis/core"
	"telemetry-viewer/src/logger"
	"telemetry-viewer/src/models"
)

type AnalysisFacade struct {
	Config    *models.MConfig
	Transform *ViewTransform
	Assembler *ChartAssembler
	Logger    *logger.Logger
	now       func() time.Time
}

// -----------------------------------------------------------------------------

func NewAnalysisFacade(cfg *models.MConfig, log *logger.Logger) *AnalysisFacade {
	if log == nil {
		log = logger.NewLogger(cfg, "Analysis")
	}
	return &AnalysisFacade{
		Config:    cfg,
		Transform: NewViewTransform(cfg.Viewer.BaselineSamples, cfg.Viewer.GainMin, cfg.Viewer.GainMax),
		Assembler: NewChartAssembler(),
		Logger:    log,
		now:       time.Now,
	}
}

// -----------------------------------------------------------------------------

// BuildFrame recomputes the whole display frame from a registry snapshot.
// Nothing is cached; every call starts from the raw windows.
func (a *AnalysisFacade) BuildFrame(snapshot models.MSeriesSnapshot, mode models.MViewMode, gain int) models.MDisplayFrame {
	labels := make([]string, len(snapshot.Series))
	views := make([]models.MSeriesView, len(snapshot.Series))
	display := make([][]float64, len(snapshot.Series))

	for k, raw := range snapshot.Series {
		labels[k] = LabelAt(snapshot.Labels, k)

		values, baseline := a.Transform.Apply(raw, mode, gain)
		display[k] = values

		// 1. Stats on the raw window, domain on what is drawn
		mean, std := core.CalculateMeanStd(raw)
		views[k] = models.MSeriesView{
			Label:   labels[k],
			Raw:     finiteAll(raw),
			Display: finiteAll(values),
			Mean:    finite(mean),
			Std:     finite(std),
			YDomain: YDomain(values),
		}
		if baseline != nil {
			views[k].Baseline = finite(*baseline)
		}
	}

	// 2. Shared index for rendering
	chart := a.Assembler.Assemble(display, labels)

	return models.MDisplayFrame{
		Type:      "FRAME",
		Mode:      mode,
		Gain:      gain,
		Labels:    labels,
		Series:    views,
		Chart:     chart,
		Timestamp: a.now().UnixMilli(),
	}
}
