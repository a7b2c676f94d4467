package services

import (
	"context"
	"strings"

	"go.uber.org/zap"
)

// Completer is the slice of the LLM client the assistant needs; nil means
// the assistant always answers with the local templated reports.
type Completer interface {
	Complete(ctx context.Context, systemMessage, prompt string) (string, error)
}

const assistantSystemMessage = "You are an analytics assistant for a university journal subscription dashboard. " +
	"Rewrite the provided report as a concise, friendly answer to the user's question. " +
	"Do not invent numbers; only use figures present in the report."

// Assistant answers dashboard chat messages. Routing is plain substring
// matching over a fixed table; there is no language understanding here,
// and none is claimed.
type Assistant struct {
	Reports *ReportService
	LLM     Completer
	Logger  *zap.Logger
}

func NewAssistant(reports *ReportService, llmClient Completer, logger *zap.Logger) *Assistant {
	return &Assistant{Reports: reports, LLM: llmClient, Logger: logger}
}

// AssistantReply carries the rendered answer plus how it was produced.
type AssistantReply struct {
	Answer string `json:"answer"`
	Report string `json:"report"`
	// Source is "llm" when the external model formatted the answer and
	// "template" when the local report was returned directly (including
	// every LLM failure fallback).
	Source string `json:"source"`
}

// routes is evaluated top to bottom; the first entry with any keyword
// contained in the lower-cased message wins.
var routes = []struct {
	Report   string
	Keywords []string
}{
	{"top_journals", []string{"most subscribed", "top journal", "popular"}},
	{"spending", []string{"spend", "cost", "budget", "expensive", "price"}},
	{"trial_candidates", []string{"trial", "not subscribed", "candidate", "upsell"}},
	{"engagement", []string{"engagement", "browsing", "usage", "session"}},
	{"subjects", []string{"subject", "discipline", "categor"}},
	{"publishers", []string{"publisher"}},
	{"comparison", []string{"compare", "comparison", "versus", " vs "}},
}

// Route returns the report key for a chat message; "overview" is the default.
func (a *Assistant) Route(message string) string {
	msg := strings.ToLower(message)
	for _, route := range routes {
		for _, keyword := range route.Keywords {
			if strings.Contains(msg, keyword) {
				return route.Report
			}
		}
	}
	return "overview"
}

// Answer routes the message to a report generator and optionally lets the
// LLM rephrase the result. Any LLM failure or timeout falls back to the
// templated report; chat must never surface an LLM error to the user.
func (a *Assistant) Answer(ctx context.Context, message string) (AssistantReply, error) {
	reportKey := a.Route(message)
	report, err := a.runReport(reportKey)
	if err != nil {
		return AssistantReply{}, err
	}

	reply := AssistantReply{Answer: report, Report: reportKey, Source: "template"}
	if a.LLM == nil {
		return reply, nil
	}

	prompt := "Question: " + message + "\n\nReport:\n" + report
	formatted, err := a.LLM.Complete(ctx, assistantSystemMessage, prompt)
	if err != nil || strings.TrimSpace(formatted) == "" {
		a.Logger.Warn("LLM formatting failed, using templated report",
			zap.String("report", reportKey), zap.Error(err))
		return reply, nil
	}

	reply.Answer = formatted
	reply.Source = "llm"
	return reply, nil
}

func (a *Assistant) runReport(key string) (string, error) {
	switch key {
	case "top_journals":
		return a.Reports.TopJournals(10)
	case "spending":
		return a.Reports.SpendingByUniversity()
	case "trial_candidates":
		return a.Reports.TrialCandidates(10)
	case "engagement":
		return a.Reports.EngagementSummary()
	case "subjects":
		return a.Reports.SubjectBreakdown()
	case "publishers":
		return a.Reports.PublisherBreakdown()
	case "comparison":
		return a.Reports.UniversityComparison()
	default:
		return a.Reports.Overview()
	}
}
