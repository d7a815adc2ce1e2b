package asset

// TrimWindow is a validated request to cut [Start, End) out of a source file
type TrimWindow struct {
	SourcePath string
	Start      float64
	End        float64
}

// NewTrimWindow validates start and end against the source duration.
// Valid windows satisfy 0 <= start < end <= sourceDuration.
func NewTrimWindow(source *Asset, start, end float64) (*TrimWindow, error) {
	w := &TrimWindow{
		SourcePath: source.Path,
		Start:      start,
		End:        end,
	}

	if err := w.Validate(source.Duration); err != nil {
		return nil, err
	}

	return w, nil
}

// Validate checks the window against the source duration
func (w *TrimWindow) Validate(sourceDuration float64) error {
	if w.SourcePath == "" {
		return Errorf(ErrValidation, "source path is required")
	}
	if w.Start < 0 || w.End > sourceDuration || w.Start >= w.End {
		return Errorf(ErrRange, "Invalid start_time or end_time for trimming.")
	}
	return nil
}

// Duration returns the length of the window in seconds
func (w *TrimWindow) Duration() float64 {
	return w.End - w.Start
}

// StartTimestamp returns the start as an engine timestamp
func (w *TrimWindow) StartTimestamp() Timestamp {
	return TimestampFromSeconds(w.Start)
}

// DurationTimestamp returns the window length as an engine timestamp
func (w *TrimWindow) DurationTimestamp() Timestamp {
	return TimestampFromSeconds(w.Duration())
}
