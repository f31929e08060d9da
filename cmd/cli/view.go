package main

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/hamed0406/uptimemonitor/internal/domain"
	"github.com/hamed0406/uptimemonitor/internal/httpapi"
)

var styleErrorWrapper = lipgloss.NewStyle().BorderStyle(lipgloss.RoundedBorder()).BorderForeground(colorFailure)
var styleErrorHeading = lipgloss.NewStyle().Foreground(colorFailure).Bold(true)
var styleErrorBody = lipgloss.NewStyle().PaddingLeft(3).Foreground(colorFailure).Width(80).MaxWidth(80)

func renderError(err error) string {
	return styleErrorWrapper.Render(
		lipgloss.JoinVertical(
			lipgloss.Left,
			styleErrorHeading.Render("uptimectl: request failed"),
			styleErrorBody.Render(err.Error()),
		),
	)
}

func renderHealth(h httpapi.HealthResponse) string {
	verdict := styleUp.Render("OK")
	if !h.OK {
		verdict = styleDown.Render("STALE")
	}
	db := styleUp.Render("reachable")
	if !h.DB {
		verdict = styleDown.Render("DOWN")
		db = styleDown.Render("unreachable")
	}
	last := styleNotSet.Render("never")
	if h.Stats.LastResultTS != nil {
		last = h.Stats.LastResultTS.Format(time.RFC3339)
		if h.Stats.SecondsSinceLastResult != nil {
			last += fmt.Sprintf(" (%ds ago)", *h.Stats.SecondsSinceLastResult)
		}
	}
	return styleInfoBox.Render(lipgloss.JoinVertical(lipgloss.Left,
		"health:          "+verdict,
		"database:        "+db,
		"enabled targets: "+styleHighlight.Render(strconv.Itoa(h.Stats.EnabledTargets)),
		"last result:     "+last,
		"stale after:     "+fmt.Sprintf("%ds", h.Thresholds.StaleAfterSeconds),
	))
}

func targetLine(t domain.Target) string {
	state := styleUp.Render("▶︎")
	if !t.Enabled {
		state = styleDisabled.Render("◼︎")
	}
	return lipgloss.JoinHorizontal(lipgloss.Left,
		state, " ",
		styleHighlight.Render(t.Name), " (",
		string(t.Kind), " ", t.Address(),
		fmt.Sprintf("; every %ds; timeout %dms", t.IntervalSeconds, t.TimeoutMS),
		"; id=", styleNotSet.Render(string(t.ID)), ")",
	)
}

// resultLine renders one probe outcome; name may be empty for single-target listings.
func resultLine(name string, ts time.Time, success bool, latency, status *int, errText *string) string {
	parts := []string{ts.Local().Format("2006-01-02 15:04:05")}
	if name != "" {
		parts = append(parts, styleHighlight.Render(name))
	}
	if success {
		parts = append(parts, styleUp.Render("up"))
	} else {
		parts = append(parts, styleDown.Render("down"))
	}
	if latency != nil {
		parts = append(parts, fmt.Sprintf("%dms", *latency))
	}
	if status != nil {
		parts = append(parts, fmt.Sprintf("status=%d", *status))
	}
	if errText != nil {
		parts = append(parts, styleNotSet.Render(*errText))
	}
	return strings.Join(parts, "  ")
}

func latestLine(it domain.LatestForTarget) string {
	if it.TS == nil || it.Success == nil {
		return styleHighlight.Render(it.TargetName) + "  " + styleNotSet.Render("no results yet")
	}
	return resultLine(it.TargetName, *it.TS, *it.Success, it.LatencyMS, it.StatusCode, it.Error)
}
