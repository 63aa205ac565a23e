package report

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"git.home.luguber.info/inful/depmerge/internal/journal"
	"git.home.luguber.info/inful/depmerge/internal/orchestrator"
	"git.home.luguber.info/inful/depmerge/internal/state"
)

const timeLayout = "2006-01-02 15:04:05 MST"

func field(label, value string) string {
	return lipgloss.JoinHorizontal(lipgloss.Top, labelStyle.Render(label), value)
}

func list(title string, names []string, style lipgloss.Style, mark string) string {
	var b strings.Builder
	b.WriteString(titleStyle.Render(fmt.Sprintf("%s (%d)", title, len(names))))
	if len(names) == 0 {
		b.WriteString("\n  " + mutedStyle.Render("none"))
	}
	for _, n := range names {
		b.WriteString("\n  " + style.Render(mark+" "+n))
	}
	return b.String()
}

// Status renders the persisted state of a run.
func Status(st *state.WorkflowState) string {
	current := mutedStyle.Render("none")
	if c, ok := st.Current(); ok {
		current = pendingStyle.Render(c)
	}
	progress := pendingStyle.Render("in progress")
	if st.Finished() {
		progress = okStyle.Render("finished " + st.FinishedAt.Local().Format(timeLayout))
	}

	header := strings.Join([]string{
		field("Run", st.RunID),
		field("Status", progress),
		field("Started", st.StartedAt.Local().Format(timeLayout)),
		field("Starting branch", st.StartingBranch+" @ "+short(st.StartingCommit)),
		field("Integration branch", st.IntegrationBranch),
		field("Current candidate", current),
	}, "\n")

	sections := []string{
		boxStyle.Render(header),
		list("Succeeded", st.Succeeded, okStyle, "✓"),
		list("Failed", st.Failed, failStyle, "✗"),
	}
	if pending := st.Pending(); len(pending) > 0 {
		sections = append(sections, list("Pending", pending, pendingStyle, "•"))
	}
	sections = append(sections, list("Skipped (CI failing)", st.Candidates.CIFailing, mutedStyle, "-"))
	return strings.Join(sections, "\n\n") + "\n"
}

// Summary renders the outcome of a start or continue invocation.
func Summary(sum *orchestrator.Summary) string {
	var rows []string
	for _, r := range sum.Results {
		style, mark := okStyle, "✓"
		if !r.Phase.Succeeded() {
			style, mark = failStyle, "✗"
		}
		line := style.Render(fmt.Sprintf("%s %s", mark, r.Name)) + " " +
			mutedStyle.Render(fmt.Sprintf("%s, %s", r.Phase, r.Duration.Round(time.Millisecond)))
		rows = append(rows, line)
	}
	if len(rows) == 0 {
		rows = append(rows, mutedStyle.Render("no candidates processed"))
	}

	totals := fmt.Sprintf("%s  %s  %s",
		okStyle.Render(fmt.Sprintf("%d succeeded", len(sum.Succeeded))),
		failStyle.Render(fmt.Sprintf("%d failed", len(sum.Failed))),
		mutedStyle.Render(fmt.Sprintf("%d skipped", len(sum.CIFailing))))

	return titleStyle.Render("Run "+sum.RunID) + "\n" +
		strings.Join(rows, "\n") + "\n\n" +
		totals + "\n"
}

// History renders journal run summaries, newest first.
func History(runs []journal.RunSummary) string {
	if len(runs) == 0 {
		return mutedStyle.Render("no runs recorded") + "\n"
	}
	var b strings.Builder
	for _, r := range runs {
		status := pendingStyle.Render(r.Status)
		switch r.Status {
		case journal.StatusFinished:
			status = okStyle.Render(r.Status)
		case journal.StatusAborted:
			status = failStyle.Render(r.Status)
		}
		fmt.Fprintf(&b, "%s  %s  %s  %s\n",
			r.StartedAt.Local().Format(timeLayout),
			r.RunID,
			status,
			mutedStyle.Render(fmt.Sprintf("%d/%d succeeded, %d failed, branch %s",
				len(r.Succeeded), r.Mergeable, len(r.Failed), r.IntegrationBranch)))
	}
	return b.String()
}

// Events renders the journal entries of a single run.
func Events(runID string, events []journal.Event) string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("Run "+runID) + "\n")
	if len(events) == 0 {
		b.WriteString(mutedStyle.Render("no events recorded") + "\n")
		return b.String()
	}
	for _, e := range events {
		line := e.Type
		switch e.Type {
		case journal.TypeCandidateSucceeded:
			line = okStyle.Render(e.Type)
		case journal.TypeCandidateFailed, journal.TypeRunAborted:
			line = failStyle.Render(e.Type)
		}
		if e.Candidate != "" {
			line += " " + e.Candidate
		}
		var meta journal.CandidateMeta
		if e.Candidate != "" && e.Decode(&meta) == nil {
			if meta.Conflicts > 0 {
				line += " " + pendingStyle.Render(fmt.Sprintf("(%d conflicted)", meta.Conflicts))
			}
			if meta.Reason != "" {
				line += " " + mutedStyle.Render(meta.Reason)
			}
		}
		fmt.Fprintf(&b, "%s  %s\n", e.Timestamp.Local().Format(timeLayout), line)
	}
	return b.String()
}

func short(commit string) string {
	if len(commit) > 12 {
		return commit[:12]
	}
	return commit
}
