package service

import (
	"context"
	"strings"

	"github.com/financetrack/financetrack-go/internal/domain"
	"github.com/financetrack/financetrack-go/internal/port"

	"go.opentelemetry.io/otel"
	"go.uber.org/zap"
)

var queryTracer = otel.Tracer("service/query")

// QueryService answers natural-language questions about the user's finances
// by handing the question and recent transactions to the external agent.
type QueryService struct {
	transactions port.TransactionStore
	agent        port.InsightsAgent
	logger       *zap.Logger
}

// NewQueryService creates a query service.
func NewQueryService(transactions port.TransactionStore, agent port.InsightsAgent, logger *zap.Logger) *QueryService {
	return &QueryService{transactions: transactions, agent: agent, logger: logger}
}

// Ask forwards the question to the agent with the user's recent transactions
// as context. This is a pass-through: nothing is interpreted locally.
func (s *QueryService) Ask(ctx context.Context, userID, question string) (*domain.QueryAnswer, error) {
	ctx, span := queryTracer.Start(ctx, "QueryService.Ask")
	defer span.End()

	question = strings.TrimSpace(question)
	if question == "" {
		return nil, &domain.ErrValidation{Field: "question", Message: "question is required"}
	}

	txns, err := s.transactions.ListTransactions(ctx, userID, domain.TransactionFilter{Limit: 200})
	if err != nil {
		return nil, err
	}

	answer, err := s.agent.Query(ctx, question, txns)
	if err != nil {
		s.logger.Warn("query agent failed",
			zap.String("user_id", userID),
			zap.Error(err),
		)
		return nil, &domain.ErrExternalService{Service: "agent/query", Err: err}
	}

	return &domain.QueryAnswer{Question: question, Answer: answer}, nil
}
