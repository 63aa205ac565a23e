package manifest

import (
	"log/slog"
	"sort"
	"strings"

	"github.com/pelletier/go-toml/v2"

	ferrors "git.home.luguber.info/inful/depmerge/internal/foundation/errors"
	"git.home.luguber.info/inful/depmerge/internal/logfields"
	"git.home.luguber.info/inful/depmerge/internal/versionspec"
)

// Side names one of the two revisions being merged.
type Side string

const (
	SideLocal  Side = "local"
	SideRemote Side = "remote"
)

// TieBreak decides the winner when neither side is strictly greater.
type TieBreak string

const (
	// PreferRemote takes the remote entry on equal or incomparable versions.
	PreferRemote TieBreak = "remote"
	// PreferLocal keeps the local entry on equal or incomparable versions.
	PreferLocal TieBreak = "local"
)

// ParseTieBreak accepts "remote" or "local"; empty means PreferRemote.
func ParseTieBreak(s string) (TieBreak, error) {
	switch TieBreak(strings.ToLower(strings.TrimSpace(s))) {
	case "", PreferRemote:
		return PreferRemote, nil
	case PreferLocal:
		return PreferLocal, nil
	default:
		return "", ferrors.ConfigError("unknown tie-break policy").WithContext("value", s).Build()
	}
}

func (tb TieBreak) side() Side {
	if tb == PreferLocal {
		return SideLocal
	}
	return SideRemote
}

type options struct {
	tables   []string
	tieBreak TieBreak
	logger   *slog.Logger
}

// Option configures Merge.
type Option func(*options)

// WithTables sets the dependency tables to merge. The first one must exist on both
// sides; the rest are optional.
func WithTables(tables ...string) Option {
	return func(o *options) {
		if len(tables) > 0 {
			o.tables = tables
		}
	}
}

// WithTieBreak sets the policy for equal or incomparable versions.
func WithTieBreak(tb TieBreak) Option {
	return func(o *options) {
		if tb != "" {
			o.tieBreak = tb
		}
	}
}

// WithLogger routes per-dependency decisions to logger at debug level.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) { o.logger = logger }
}

// Decision records how one dependency present on both sides was resolved.
type Decision struct {
	Table      string
	Name       string
	Local      string
	Remote     string
	Winner     Side
	Comparable bool
	Ordering   versionspec.Ordering
}

// Result is the merged text plus what was decided along the way.
type Result struct {
	Text      string
	Decisions []Decision
	// Added lists remote-only dependencies appended to the local table, as table.name.
	Added []string
}

// Merge returns the local manifest with the dependency tables merged against remote.
func Merge(local, remote string, opts ...Option) (string, error) {
	res, err := MergeWithReport(local, remote, opts...)
	if err != nil {
		return "", err
	}
	return res.Text, nil
}

// MergeWithReport is Merge plus the per-dependency decisions.
func MergeWithReport(local, remote string, opts ...Option) (*Result, error) {
	o := options{tables: []string{DefaultTable}, tieBreak: PreferRemote}
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		o.logger = slog.New(slog.DiscardHandler)
	}

	ld, err := Parse(local, o.tables...)
	if err != nil {
		return nil, ferrors.WrapError(err, ferrors.CategoryParse, "parse local manifest").Fatal().Build()
	}
	rd, err := Parse(remote, o.tables...)
	if err != nil {
		return nil, ferrors.WrapError(err, ferrors.CategoryParse, "parse remote manifest").Fatal().Build()
	}

	nl := newlineOf(local)
	res := &Result{}
	var edits []edit
	var trailer strings.Builder
	var taken []string

	for i, name := range o.tables {
		lt, rt := ld.Table(name), rd.Table(name)
		if i == 0 {
			if err := requirePresent(lt, SideLocal); err != nil {
				return nil, err
			}
			if err := requirePresent(rt, SideRemote); err != nil {
				return nil, err
			}
		}
		switch {
		case !rt.Present:
			continue
		case !lt.Present:
			o.logger.Debug("Taking table from remote", logfields.Table(name))
			sec := rt.section
			trailer.WriteString(remote[sec.headerStart:sec.end])
			taken = append(taken, name)
			continue
		}

		tableEdits, decisions, added := mergeTable(lt, rt, o, nl, local)
		edits = append(edits, tableEdits...)
		res.Decisions = append(res.Decisions, decisions...)
		res.Added = append(res.Added, added...)
	}

	out := applyEdits(local, edits)
	if trailer.Len() > 0 {
		if out != "" && !strings.HasSuffix(out, "\n") {
			out += nl
		}
		out += nl + trailer.String()
		if err := checkAppended(out, taken); err != nil {
			return nil, err
		}
	}
	res.Text = out
	return res, nil
}

// checkAppended rejects output where a table copied from remote collides with a local key,
// e.g. [workspace.dependencies] appended below an inline `workspace = { ... }`.
func checkAppended(out string, taken []string) error {
	var decoded map[string]any
	if err := toml.Unmarshal([]byte(out), &decoded); err != nil {
		return ferrors.WrapError(err, ferrors.CategoryParse, "table from remote conflicts with the local manifest").
			Fatal().
			WithContext("tables", strings.Join(taken, ", ")).
			WithHint("declare the parent table with a [header] in the local manifest, or resolve this file by hand").
			Build()
	}
	return nil
}

func requirePresent(t *Table, side Side) error {
	if t.Present {
		return nil
	}
	return ferrors.ParseError("dependency table missing").
		WithContext("table", t.Name).
		WithContext("side", string(side)).
		Build()
}

// Choose returns the side whose entry wins. Local wins only when strictly greater.
func Choose(local, remote versionspec.Spec, tb TieBreak) (Side, versionspec.Ordering, bool) {
	ord, ok := versionspec.Compare(local, remote)
	switch {
	case ok && ord == versionspec.Greater:
		return SideLocal, ord, ok
	case ok && ord == versionspec.Less:
		return SideRemote, ord, ok
	default:
		return tb.side(), ord, ok
	}
}

func mergeTable(lt, rt *Table, o options, nl, local string) ([]edit, []Decision, []string) {
	var edits []edit
	var decisions []Decision
	var added []string
	var appended strings.Builder

	for _, l := range lt.Entries {
		r, ok := rt.Lookup(l.Name)
		if !ok {
			continue
		}
		winner, ord, ok := Choose(l.Version, r.Version, o.tieBreak)
		decisions = append(decisions, Decision{
			Table:      lt.Name,
			Name:       l.Name,
			Local:      l.Version.String(),
			Remote:     r.Version.String(),
			Winner:     winner,
			Comparable: ok,
			Ordering:   ord,
		})
		o.logger.Debug("Resolved dependency",
			logfields.Table(lt.Name),
			logfields.Dependency(l.Name),
			slog.String("winner", string(winner)),
			slog.Bool("comparable", ok))
		if winner == SideRemote && r.Source != l.Source {
			edits = append(edits, edit{start: l.kv.value.start, end: l.kv.value.end, text: r.Source})
		}
	}

	for _, r := range rt.Entries {
		if _, ok := lt.Lookup(r.Name); ok {
			continue
		}
		appended.WriteString(r.line)
		appended.WriteString(nl)
		added = append(added, lt.Name+"."+r.Name)
		o.logger.Debug("Adding remote-only dependency", logfields.Table(lt.Name), logfields.Dependency(r.Name))
	}

	if appended.Len() > 0 {
		at := lt.section.bodyStart
		if n := len(lt.Entries); n > 0 {
			at = lt.Entries[n-1].kv.lineEnd
		}
		text := appended.String()
		if at > 0 && local[at-1] != '\n' {
			text = nl + text
		}
		edits = append(edits, edit{start: at, end: at, text: text})
	}
	return edits, decisions, added
}

type edit struct {
	start, end int
	text       string
}

// applyEdits splices non-overlapping edits into src.
func applyEdits(src string, edits []edit) string {
	if len(edits) == 0 {
		return src
	}
	sort.SliceStable(edits, func(i, j int) bool { return edits[i].start < edits[j].start })
	var b strings.Builder
	b.Grow(len(src))
	last := 0
	for _, e := range edits {
		b.WriteString(src[last:e.start])
		b.WriteString(e.text)
		last = e.end
	}
	b.WriteString(src[last:])
	return b.String()
}

func newlineOf(text string) string {
	if strings.Contains(text, "\r\n") {
		return "\r\n"
	}
	return "\n"
}
