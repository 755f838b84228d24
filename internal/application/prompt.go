package application

import (
	"fmt"
	"strings"

	"github.com/bnema/finagents/internal/domain"
)

var capabilities = map[domain.AgentID]string{
	domain.AgentRatios: "calculate the company's financial metrics or financial ratios, which include " +
		"profitability metrics such as Return on Equity (ROE), Return on Assets (ROA), Net Profit Margin, Gross Margin, " +
		"and leverage/financial stability metrics such as Debt to Equity and Interest Coverage. " +
		"These metrics are commonly used to analyze the performance, efficiency and financial health of a company.",
	domain.AgentTechPlot: "perform stock trend analysis by comparing and plotting technical indicators such as moving averages. " +
		"Specifically, it can compare or plot closing prices, a moving average for a given window, a short moving average, " +
		"a long moving average and an exponential moving average for a given span.",
	domain.AgentCompInfo: "report descriptive information about the company from its SEC filings: name, industry, exchanges, " +
		"fiscal year end, state of incorporation, headquarters, website and the latest annual or quarterly reports.",
}

// SystemPrompt describes the available workers to the classifier and pins
// the only accepted answer shapes.
func SystemPrompt(company domain.CompanyContext, agents []domain.AgentID) string {
	names := make([]string, 0, len(agents))
	for _, agent := range agents {
		names = append(names, string(agent))
	}

	var b strings.Builder
	b.WriteString("You are a supervisor tasked with managing a conversation between the following workers: ")
	b.WriteString(strings.Join(names, ", "))
	b.WriteString(".\n\n")
	b.WriteString("Your responsibility is to decide which workers should act, in which order, and what each of them ")
	b.WriteString("should do, based on the user's latest request and the conversation so far. ")
	b.WriteString("Each worker performs one task and reports its result.\n\n")
	b.WriteString("Available workers and their capabilities:\n")
	for _, agent := range agents {
		fmt.Fprintf(&b, "- %s: %s\n", agent, capabilities[agent])
	}
	b.WriteString("\nRespond with a single JSON object and nothing else, in one of these shapes:\n")
	b.WriteString(`{"plan":[{"agent":"<worker>","task":"<what the worker should do>"}]}` + "\n")
	b.WriteString(`{"finish":"<your answer when none of the workers can do this task>"}` + "\n")
	b.WriteString("Use an empty plan when there is nothing to do.\n\n")
	fmt.Fprintf(&b, "Company Ticker is '%s'.", company.Ticker)
	if company.Name != "" {
		fmt.Fprintf(&b, " Company name is '%s'.", company.Name)
	}

	return b.String()
}
