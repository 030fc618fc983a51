package assistant

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/mamadbah2/palmtrack/internal/domain/errs"
	"github.com/mamadbah2/palmtrack/internal/domain/models"
	"github.com/mamadbah2/palmtrack/pkg/clients/anthropic"
)

const systemPrompt = "You are a smart assistant helping monitor a neera processing unit. " +
	"Answer clearly and concisely using only the data you are given."

// Summaries supplies the figures the assistant answers from.
type Summaries interface {
	ComputeSummary(ctx context.Context) (models.Summary, error)
}

// Service answers questions about the current dashboard summary.
type Service struct {
	summaries Summaries
	client    anthropic.Client
	logger    *zap.Logger
}

// NewService wires the assistant. A nil client leaves it disabled.
func NewService(summaries Summaries, client anthropic.Client, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{summaries: summaries, client: client, logger: logger}
}

// Enabled reports whether an upstream client is configured.
func (s *Service) Enabled() bool { return s.client != nil }

// Answer asks the upstream model about the current summary.
func (s *Service) Answer(ctx context.Context, in models.ChatInput) (string, error) {
	if err := models.Validate(in); err != nil {
		return "", err
	}
	question := strings.TrimSpace(in.Question)
	if question == "" {
		return "", errs.ValidationFields("missing required fields: question", map[string]string{"question": "required"})
	}
	if !s.Enabled() {
		return "", errs.Unavailable("assistant is not configured")
	}

	summary, err := s.summaries.ComputeSummary(ctx)
	if err != nil {
		return "", err
	}

	answer, err := s.client.Complete(ctx, systemPrompt, BuildPrompt(summary, question))
	if err != nil {
		s.logger.Error("assistant request failed", zap.Error(err))
		return "", errs.Internal(err, "failed to generate response")
	}
	s.logger.Info("assistant answered", zap.Int("question_len", len(question)), zap.Int("answer_len", len(answer)))
	return answer, nil
}

// BuildPrompt renders the summary and question as the user turn.
func BuildPrompt(summary models.Summary, question string) string {
	var b strings.Builder
	b.WriteString("Here's the current summary:\n")
	fmt.Fprintf(&b, "- Total Neera Collected: %g liters\n", summary.TotalNeeraLiters)
	fmt.Fprintf(&b, "- Total Output: %g liters\n", summary.TotalOutput)
	fmt.Fprintf(&b, "- Total Wastage: %g liters\n", summary.TotalWastage)
	fmt.Fprintf(&b, "- Total Sugar Produced: %g kg\n", summary.TotalSugarKg)
	fmt.Fprintf(&b, "- Total Batches: %d\n", summary.TotalBatches)
	fmt.Fprintf(&b, "- Completed Batches: %d\n", summary.CompletedBatches)
	fmt.Fprintf(&b, "- Processing Batches: %d\n", summary.ProcessingBatches)
	fmt.Fprintf(&b, "- Pending Batches: %d\n", summary.PendingBatches)
	fmt.Fprintf(&b, "- Wastage Percentage: %s%%\n", summary.WastagePercentage)
	fmt.Fprintf(&b, "\nUser asked: %q\n", question)
	return b.String()
}
