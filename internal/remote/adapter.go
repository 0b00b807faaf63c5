// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package remote runs the remote analysis path: deck text is sent to a
// completion service under a daily and monthly call quota, and the reply
// is parsed into a fixed-schema record with a confidence score.
package remote

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/pdiddy/deckminer/internal/aggregate"
	"github.com/pdiddy/deckminer/internal/completion"
	"github.com/pdiddy/deckminer/internal/logging"
	"github.com/pdiddy/deckminer/internal/usage"
	"github.com/pdiddy/deckminer/pkg/types"
)

// ErrQuotaExceeded is returned instead of a record once the daily or
// monthly call ceiling is reached. No call is made and no counter changes.
var ErrQuotaExceeded = errors.New("remote call quota exceeded")

// Sample sizes for RemoteResult.SlideTextsSample.
const (
	sampleBlocks = 5
	sampleChars  = 1000
)

// Config tunes an Adapter. Zero values select defaults.
type Config struct {
	Limits usage.Limits

	// MaxPromptChars bounds the deck text embedded in the prompt.
	MaxPromptChars int

	// Limiter spaces consecutive remote calls. Nil means no spacing.
	Limiter *rate.Limiter

	Now    func() time.Time
	Logger *zap.Logger
}

// Adapter turns deck text into RemoteAnalysis records.
type Adapter struct {
	completer completion.Completer
	ledger    *usage.Ledger
	cfg       Config
	logger    *zap.Logger
}

// NewAdapter returns an Adapter that calls c and accounts usage in ledger.
func NewAdapter(c completion.Completer, ledger *usage.Ledger, cfg Config) *Adapter {
	if cfg.MaxPromptChars <= 0 {
		cfg.MaxPromptChars = DefaultMaxPromptChars
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &Adapter{
		completer: c,
		ledger:    ledger,
		cfg:       cfg,
		logger:    logging.OrNop(cfg.Logger).With(zap.String("provider", c.Name())),
	}
}

// Method is the processing_method recorded on results, e.g. "gemini_api".
func (a *Adapter) Method() string {
	provider, _, _ := strings.Cut(a.completer.Name(), "/")
	return provider + "_api"
}

// Status reports current usage against the adapter's limits.
func (a *Adapter) Status() usage.Status {
	return a.ledger.Status(a.cfg.Now(), a.cfg.Limits)
}

func (a *Adapter) checkQuota() error {
	if reason, exceeded := a.ledger.Exceeded(a.cfg.Now(), a.cfg.Limits); exceeded {
		return fmt.Errorf("%w: %s limit reached", ErrQuotaExceeded, reason)
	}
	return nil
}

// Analyze sends one deck's text for structured extraction.
//
// It returns ErrQuotaExceeded when a ceiling is reached. A failed call or
// an unparseable reply yields the empty record and a nil error; only a
// parsed reply is counted against the quota. Context cancellation is
// returned as an error.
func (a *Adapter) Analyze(ctx context.Context, fileName string, texts []string) (types.RemoteAnalysis, error) {
	if err := a.checkQuota(); err != nil {
		return types.RemoteAnalysis{}, err
	}

	prompt, err := renderPrompt(fileName, texts, a.cfg.MaxPromptChars)
	if err != nil {
		return types.RemoteAnalysis{}, fmt.Errorf("rendering prompt: %w", err)
	}

	if a.cfg.Limiter != nil {
		if err := a.cfg.Limiter.Wait(ctx); err != nil {
			return types.RemoteAnalysis{}, err
		}
	}

	reply, err := a.completer.Complete(ctx, prompt)
	if err != nil {
		if ctx.Err() != nil {
			return types.RemoteAnalysis{}, ctx.Err()
		}
		a.logger.Warn("remote analysis call failed", zap.String("file", fileName), zap.Error(err))
		return types.EmptyRemoteAnalysis(), nil
	}

	analysis, err := parseAnalysis(reply)
	if err != nil {
		a.logger.Warn("remote analysis reply not parseable",
			zap.String("file", fileName),
			zap.String("reply", truncateRunes(reply, 500)),
			zap.Error(err))
		return types.EmptyRemoteAnalysis(), nil
	}

	if err := a.ledger.Increment(a.cfg.Now()); err != nil {
		a.logger.Error("saving usage ledger failed", zap.String("path", a.ledger.Path()), zap.Error(err))
	}
	a.logger.Debug("remote analysis complete",
		zap.String("file", fileName), zap.Int("confidence", analysis.ConfidenceScore))
	return analysis, nil
}

// ProcessFile opens the deck at path and analyzes it remotely. A deck that
// cannot be opened yields a result carrying only an ErrorRecord. The error
// return is reserved for ErrQuotaExceeded and context cancellation.
func (a *Adapter) ProcessFile(ctx context.Context, opener aggregate.Opener, path string) (types.DeckResult, error) {
	if err := a.checkQuota(); err != nil {
		return types.DeckResult{}, err
	}

	deck, err := opener.Open(path)
	if err != nil {
		return types.DeckResult{Failed: aggregate.NewErrorRecord(path, err, a.cfg.Now())}, nil
	}

	texts := aggregate.DeckTexts(deck)
	analysis, err := a.Analyze(ctx, deck.FileName, texts)
	if err != nil {
		return types.DeckResult{}, err
	}

	return types.DeckResult{Remote: &types.RemoteResult{
		FileInfo: types.FileInfo{
			FileName:         deck.FileName,
			ProcessedAt:      a.cfg.Now(),
			SlideCount:       len(deck.Slides),
			ProcessingMethod: a.Method(),
		},
		Analysis:         analysis,
		SlideTextsSample: textSample(texts),
	}}, nil
}

func textSample(texts []string) string {
	if len(texts) > sampleBlocks {
		texts = texts[:sampleBlocks]
	}
	return truncateRunes(strings.Join(texts, "\n"), sampleChars)
}
