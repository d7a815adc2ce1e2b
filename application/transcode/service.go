package transcode

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"video-toolbox/domain/asset"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// MergeDuration selects how a concatenation's duration is determined
type MergeDuration string

const (
	// MergeDurationSum records the sum of the source durations
	MergeDurationSum MergeDuration = "sum"
	// MergeDurationProbe probes the output, falling back to the sum
	MergeDurationProbe MergeDuration = "probe"
)

// ParseMergeDuration validates a merge duration mode
func ParseMergeDuration(s string) (MergeDuration, error) {
	switch m := MergeDuration(s); m {
	case MergeDurationSum, MergeDurationProbe:
		return m, nil
	case "":
		return MergeDurationSum, nil
	default:
		return "", fmt.Errorf("unknown merge duration mode %q: expected %q or %q", s, MergeDurationSum, MergeDurationProbe)
	}
}

// Policy holds the orchestrator's fixed settings
type Policy struct {
	OutputDir        string
	TrimOutput       asset.TrimOutputPolicy
	MergeDuration    MergeDuration
	Timeout          time.Duration // zero means no engine deadline
	RequireOwnership bool
}

// Service produces derived assets through the external engine. An output
// file always exists and has been measured before its record is committed.
type Service struct {
	store        asset.Store
	trimmer      asset.Trimmer
	concatenator asset.Concatenator
	prober       asset.Prober
	files        asset.FileStore
	policy       Policy
	now          func() time.Time
	logger       *slog.Logger
	tracer       trace.Tracer
}

// ServiceOption is a functional option for configuring Service
type ServiceOption func(*Service)

// WithClock sets the time source used for output naming
func WithClock(now func() time.Time) ServiceOption {
	return func(s *Service) {
		s.now = now
	}
}

// WithLogger sets the logger
func WithLogger(logger *slog.Logger) ServiceOption {
	return func(s *Service) {
		s.logger = logger
	}
}

// NewService creates a new transcode orchestrator
func NewService(
	store asset.Store,
	trimmer asset.Trimmer,
	concatenator asset.Concatenator,
	prober asset.Prober,
	files asset.FileStore,
	policy Policy,
	opts ...ServiceOption,
) *Service {
	s := &Service{
		store:        store,
		trimmer:      trimmer,
		concatenator: concatenator,
		prober:       prober,
		files:        files,
		policy:       policy,
		now:          time.Now,
		logger:       slog.New(slog.DiscardHandler),
		tracer:       otel.Tracer("video-toolbox/transcode"),
	}

	if s.policy.TrimOutput == "" {
		s.policy.TrimOutput = asset.TrimOutputDeterministic
	}
	if s.policy.MergeDuration == "" {
		s.policy.MergeDuration = MergeDurationSum
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// TrimInput identifies the source and the window to keep
type TrimInput struct {
	OwnerID string
	AssetID int64
	Start   float64
	End     float64
}

// ConcatInput lists the sources in playback order
type ConcatInput struct {
	OwnerID  string
	AssetIDs []int64
}

// Trim cuts [Start, End) out of an asset into a new asset
func (s *Service) Trim(ctx context.Context, in TrimInput) (_ *asset.Asset, err error) {
	ctx, span := s.tracer.Start(ctx, "transcode.Trim", trace.WithAttributes(
		attribute.Int64("video.source_id", in.AssetID),
		attribute.Float64("video.start", in.Start),
		attribute.Float64("video.end", in.End),
	))
	defer func() { endSpan(span, err) }()

	source, err := s.store.GetAsset(ctx, in.AssetID)
	if err != nil {
		return nil, lookupError(err, "Video with the given ID does not exist.")
	}
	if s.policy.RequireOwnership && !source.OwnedBy(in.OwnerID) {
		return nil, asset.Errorf(asset.ErrNotFound, "Video with the given ID does not exist.")
	}

	window, err := asset.NewTrimWindow(source, in.Start, in.End)
	if err != nil {
		return nil, err
	}

	outputPath := s.policy.TrimOutput.TrimOutputPath(s.policy.OutputDir, source.Path, s.now())
	unique := s.policy.TrimOutput.UniquePerRequest()

	err = s.runEngine(ctx, func(ctx context.Context) error {
		return s.trimmer.Trim(ctx, window, outputPath)
	})
	if err != nil {
		s.discardOutput(outputPath, unique)
		return nil, asset.Wrap(asset.ErrTranscodeFailed, err, "Failed to trim video.")
	}

	return s.commit(ctx, in.OwnerID, outputPath, unique, window.Duration())
}

// Concatenate joins assets, in the given order, into a new asset
func (s *Service) Concatenate(ctx context.Context, in ConcatInput) (_ *asset.Asset, err error) {
	ctx, span := s.tracer.Start(ctx, "transcode.Concatenate", trace.WithAttributes(
		attribute.Int64Slice("video.source_ids", in.AssetIDs),
	))
	defer func() { endSpan(span, err) }()

	if len(in.AssetIDs) == 0 {
		return nil, asset.Errorf(asset.ErrValidation, "video_ids must be a non-empty array.")
	}

	sources, err := s.store.FindAssets(ctx, in.AssetIDs)
	if err != nil {
		return nil, asset.Wrap(asset.ErrStorage, err, "failed to look up videos")
	}
	if len(sources) != len(in.AssetIDs) {
		return nil, asset.Errorf(asset.ErrNotFound, "Some video_ids are invalid or do not exist.")
	}

	inputs := make([]string, len(sources))
	var total float64
	for i, src := range sources {
		if s.policy.RequireOwnership && !src.OwnedBy(in.OwnerID) {
			return nil, asset.Errorf(asset.ErrNotFound, "Some video_ids are invalid or do not exist.")
		}
		inputs[i] = src.Path
		total += src.Duration
	}

	outputPath := asset.MergeOutputPath(s.policy.OutputDir, in.OwnerID, s.now())

	err = s.runEngine(ctx, func(ctx context.Context) error {
		return s.concatenator.Concat(ctx, inputs, outputPath)
	})
	if err != nil {
		s.discardOutput(outputPath, true)
		return nil, asset.Wrap(asset.ErrTranscodeFailed, err, "Failed to merge videos.")
	}

	duration := total
	if s.policy.MergeDuration == MergeDurationProbe {
		duration = s.measure(ctx, outputPath, total)
	}

	return s.commit(ctx, in.OwnerID, outputPath, true, duration)
}

// runEngine bounds an engine call by the configured timeout
func (s *Service) runEngine(ctx context.Context, call func(context.Context) error) error {
	if s.policy.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.policy.Timeout)
		defer cancel()
	}

	err := call(ctx)
	if err != nil && errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return fmt.Errorf("engine timed out after %s: %w", s.policy.Timeout, err)
	}
	return err
}

// commit measures the produced file and records it
func (s *Service) commit(ctx context.Context, ownerID, outputPath string, unique bool, duration float64) (*asset.Asset, error) {
	info, err := s.files.Stat(outputPath)
	if err != nil {
		s.discardOutput(outputPath, unique)
		return nil, asset.Wrap(asset.ErrStorage, err, "engine reported success but output is missing")
	}

	derived := &asset.Asset{
		OwnerID:  ownerID,
		Path:     outputPath,
		Size:     info.Size,
		Duration: duration,
	}

	if err := s.store.CreateAsset(ctx, derived); err != nil {
		s.discardOutput(outputPath, unique)
		return nil, asset.Wrap(asset.ErrStorage, err, "failed to record derived video")
	}

	s.logger.Info("derived video created", "id", derived.ID, "path", derived.Path, "size", derived.Size, "duration", derived.Duration)
	return derived, nil
}

// measure probes a merged output, falling back to the sum of its sources
func (s *Service) measure(ctx context.Context, path string, fallback float64) float64 {
	if s.prober == nil {
		return fallback
	}
	info, err := s.prober.Probe(ctx, path)
	if err != nil {
		s.logger.Warn("could not probe merged output, using summed duration", "path", path, "error", err)
		return fallback
	}
	return info.DurationSeconds
}

// discardOutput removes a failed operation's output when no other request
// can own the same path. Shared deterministic paths are left alone.
func (s *Service) discardOutput(path string, unique bool) {
	if !unique || !s.files.Exists(path) {
		return
	}
	if err := s.files.Remove(path); err != nil {
		s.logger.Warn("failed to delete partial output", "path", path, "error", err)
	}
}

func lookupError(err error, notFound string) error {
	if errors.Is(err, asset.ErrNotFound) {
		return asset.Wrap(asset.ErrNotFound, err, "%s", notFound)
	}
	return asset.Wrap(asset.ErrStorage, err, "failed to look up video")
}

func endSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, asset.Message(err))
	}
	span.End()
}
