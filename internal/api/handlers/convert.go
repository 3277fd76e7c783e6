package handlers

import (
	"fmt"
	"time"

	"github.com/eshaffer321/recurring-finder/internal/api/dto"
	"github.com/eshaffer321/recurring-finder/internal/application/service"
	"github.com/eshaffer321/recurring-finder/internal/domain/analysis"
	"github.com/eshaffer321/recurring-finder/internal/domain/grouper"
	"github.com/eshaffer321/recurring-finder/internal/domain/transaction"
	"github.com/eshaffer321/recurring-finder/internal/infrastructure/storage"
)

const apiDateLayout = "2006-01-02"

// toTransactions converts request lines in order. The first bad line fails
// the whole request.
func toTransactions(reqs []dto.TransactionRequest) ([]transaction.Transaction, error) {
	out := make([]transaction.Transaction, 0, len(reqs))
	for i, r := range reqs {
		date, err := transaction.ParseDate(r.Date)
		if err != nil {
			return nil, fmt.Errorf("transaction %d: %w", i, err)
		}
		tx := transaction.New(date, r.Merchant, r.Amount)
		tx.Description = r.Description
		tx.Source = r.Source
		out = append(out, tx)
	}
	return out, nil
}

// applyConfig overlays the fields a request sets on top of defaults.
func applyConfig(defaults analysis.Config, req *dto.ConfigRequest) analysis.Config {
	cfg := defaults
	if req == nil {
		return cfg
	}
	if req.SimilarityThreshold != nil {
		cfg.SimilarityThreshold = *req.SimilarityThreshold
	}
	if req.MinOccurrences != nil {
		cfg.MinOccurrences = *req.MinOccurrences
	}
	if req.MaxGapDays != nil {
		cfg.MaxGapDays = *req.MaxGapDays
	}
	if req.AmountVariance != nil {
		cfg.AmountVariance = *req.AmountVariance
	}
	return cfg
}

func toTransactionResponses(txs []transaction.Transaction) []dto.TransactionResponse {
	out := make([]dto.TransactionResponse, 0, len(txs))
	for _, tx := range txs {
		out = append(out, dto.TransactionResponse{
			Date:     tx.Date.Format(apiDateLayout),
			Merchant: tx.Merchant,
			Amount:   tx.Amount.StringFixed(2),
			Source:   tx.Source,
		})
	}
	return out
}

func toGroupListResponse(groups *grouper.Groups) dto.GroupListResponse {
	resp := dto.GroupListResponse{
		Groups:           make([]dto.GroupResponse, 0, groups.Len()),
		Count:            groups.Len(),
		TransactionCount: groups.TransactionCount(),
	}
	for _, g := range groups.List() {
		resp.Groups = append(resp.Groups, dto.GroupResponse{
			Name:         g.Name,
			Key:          g.Key,
			Transactions: toTransactionResponses(g.Members),
		})
	}
	return resp
}

func toSubscriptionResponses(subs []service.Subscription) []dto.SubscriptionResponse {
	out := make([]dto.SubscriptionResponse, 0, len(subs))
	for _, s := range subs {
		out = append(out, dto.SubscriptionResponse{
			Merchant:     s.Merchant,
			MonthlyCost:  s.MonthlyCost.StringFixed(2),
			Occurrences:  len(s.Transactions),
			FirstDate:    s.FirstDate().Format(apiDateLayout),
			LastDate:     s.LastDate().Format(apiDateLayout),
			CancelLink:   s.CancelLink,
			Transactions: toTransactionResponses(s.Transactions),
		})
	}
	return out
}

func toConfigResponse(cfg analysis.Config) dto.ConfigResponse {
	return dto.ConfigResponse{
		SimilarityThreshold: cfg.SimilarityThreshold,
		MinOccurrences:      cfg.MinOccurrences,
		MaxGapDays:          cfg.MaxGapDays,
		AmountVariance:      cfg.AmountVariance,
	}
}

func toAnalyzeResponse(report *service.Report) dto.AnalyzeResponse {
	return dto.AnalyzeResponse{
		RunID:            report.RunID,
		Source:           report.Source,
		CreatedAt:        report.CreatedAt.Format(time.RFC3339),
		Config:           toConfigResponse(report.Config),
		TransactionCount: report.TransactionCount,
		GroupCount:       report.Groups.Len(),
		Recurring:        toSubscriptionResponses(report.Subscriptions),
		TotalMonthlyCost: report.TotalMonthlyCost.StringFixed(2),
	}
}

func toRunResponse(run *storage.AnalysisRun) dto.RunResponse {
	resp := dto.RunResponse{
		ID:        run.ID,
		Source:    run.Source,
		CreatedAt: run.CreatedAt.UTC().Format(time.RFC3339),
		Config: dto.ConfigResponse{
			SimilarityThreshold: run.SimilarityThreshold,
			MinOccurrences:      run.MinOccurrences,
			MaxGapDays:          run.MaxGapDays,
			AmountVariance:      run.AmountVariance,
		},
		TransactionCount: run.TransactionCount,
		GroupCount:       run.GroupCount,
		TotalMonthlyCost: run.TotalMonthlyCost.StringFixed(2),
	}
	for _, c := range run.Charges {
		sub := dto.SubscriptionResponse{
			Merchant:     c.Merchant,
			MonthlyCost:  c.MonthlyCost.StringFixed(2),
			Occurrences:  c.Occurrences,
			FirstDate:    c.FirstDate.Format(apiDateLayout),
			LastDate:     c.LastDate.Format(apiDateLayout),
			CancelLink:   c.CancelLink,
			Transactions: make([]dto.TransactionResponse, 0, len(c.Transactions)),
		}
		for _, tx := range c.Transactions {
			sub.Transactions = append(sub.Transactions, dto.TransactionResponse{
				Date:     tx.Date.Format(apiDateLayout),
				Merchant: tx.Merchant,
				Amount:   tx.Amount.StringFixed(2),
				Source:   tx.Source,
			})
		}
		resp.Recurring = append(resp.Recurring, sub)
	}
	return resp
}
