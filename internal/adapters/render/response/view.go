package response

import (
	"fmt"
	"math"
	"strings"

	"github.com/bnema/finagents/internal/domain"
	"github.com/charmbracelet/lipgloss"
)

const sparklineWidth = 32

var sparkBlocks = []rune("▁▂▃▄▅▆▇█")

type RenderOptions struct {
	Question string
}

// Render prints every narrative entry first, then the attachments.
func Render(response domain.Response, opts RenderOptions) (string, error) {
	return run(func(s styles) string {
		return renderView(response, opts, s)
	})
}

func renderView(response domain.Response, opts RenderOptions, s styles) string {
	lines := make([]string, 0, len(response.Entries)+3)
	if question := strings.TrimSpace(opts.Question); question != "" {
		lines = append(lines, s.title.Render("> "+question))
	}

	if response.IsToken() {
		lines = append(lines, s.warning.Render(TokenMessage(response.Token)))
		return lipgloss.JoinVertical(lipgloss.Left, lines...)
	}
	if len(response.Entries) == 0 {
		lines = append(lines, s.empty.Render("No response entries."))
		return lipgloss.JoinVertical(lipgloss.Left, lines...)
	}

	var attachments []domain.ResponseEntry
	for _, entry := range response.Entries {
		if entry.Kind == domain.EntryAttachment {
			attachments = append(attachments, entry)
			continue
		}
		lines = append(lines, s.section.Render(renderNarrative(entry, s)))
	}

	if len(attachments) > 0 {
		lines = append(lines, s.section.Render(s.title.Render("Attachments")))
		for _, entry := range attachments {
			lines = append(lines, renderAttachment(entry, s))
		}
	}

	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}

// TokenMessage explains a failure token to a person.
func TokenMessage(token string) string {
	switch token {
	case domain.TokenRateLimited:
		return "Rate limited by an upstream service. Try again in a moment."
	case domain.TokenBusy:
		return "Still working on the previous question. Wait for its answer before asking again."
	case domain.TokenError:
		return "The request could not be processed."
	default:
		return fmt.Sprintf("Unexpected response: %s", token)
	}
}

func renderNarrative(entry domain.ResponseEntry, s styles) string {
	header := s.sender.Render(string(entry.Sender))
	if entry.Status == domain.StatusError {
		header += " " + s.warning.Render("[error]")
	}

	return lipgloss.JoinVertical(lipgloss.Left, header, s.detail.Render(entry.Content))
}

func renderAttachment(entry domain.ResponseEntry, s styles) string {
	parts := []string{
		s.header.Render(string(entry.Sender)+":") + " " + s.ref.Render(entry.Content),
	}
	if entry.Attachment == nil {
		return lipgloss.JoinVertical(lipgloss.Left, parts...)
	}

	if caption := entry.Attachment.Caption; caption != "" {
		parts = append(parts, "  "+s.detail.Render(caption))
	}
	for _, series := range entry.Attachment.Series {
		parts = append(parts, "  "+seriesLine(series, s))
	}

	return lipgloss.JoinVertical(lipgloss.Left, parts...)
}

func seriesLine(series domain.Series, s styles) string {
	label := s.kindLabel.Render(series.Label + ":")
	if len(series.Points) == 0 {
		return label + " " + s.empty.Render("no points")
	}

	last := series.Points[len(series.Points)-1]
	meta := s.meta.Render(fmt.Sprintf("%d points, last %.2f on %s", len(series.Points), last.Value, last.Date.Format("2006-01-02")))

	return lipgloss.JoinHorizontal(
		lipgloss.Top,
		label,
		" ",
		s.sparkline.Render(sparkline(series.Points, sparklineWidth)),
		" ",
		meta,
	)
}

// sparkline samples the points down to width columns and maps each value
// onto the block ramp between the series minimum and maximum.
func sparkline(points []domain.Point, width int) string {
	if len(points) == 0 || width <= 0 {
		return ""
	}

	low, high := math.Inf(1), math.Inf(-1)
	for _, point := range points {
		low = math.Min(low, point.Value)
		high = math.Max(high, point.Value)
	}

	columns := width
	if len(points) < columns {
		columns = len(points)
	}

	var b strings.Builder
	for i := 0; i < columns; i++ {
		value := points[i*len(points)/columns].Value
		level := 0
		if high > low {
			level = int(math.Round((value - low) / (high - low) * float64(len(sparkBlocks)-1)))
		}
		b.WriteRune(sparkBlocks[level])
	}
	return b.String()
}
