package application

// Recorder receives domain events for metrics.
type Recorder interface {
	AnalysisCompleted(outcome string)
	SentimentDegraded(reason string)
	ReportGenerated(kind string)
}

// NopRecorder discards everything.
type NopRecorder struct{}

func (NopRecorder) AnalysisCompleted(string) {}
func (NopRecorder) SentimentDegraded(string) {}
func (NopRecorder) ReportGenerated(string)   {}
