package forge

import (
	"strings"

	"github.com/samber/lo"
)

// Partition keeps change requests opened by author and splits their branch names into
// CI-failing and mergeable lists, preserving order and dropping duplicates.
func Partition(crs []ChangeRequest, author string) (ciFailing, mergeable []string) {
	mine := lo.Filter(crs, func(cr ChangeRequest, _ int) bool {
		return strings.EqualFold(cr.Author, author)
	})
	branch := func(cr ChangeRequest, _ int) string { return cr.Branch }

	ciFailing = lo.Uniq(lo.Map(lo.Filter(mine, func(cr ChangeRequest, _ int) bool { return cr.Failing() }), branch))
	mergeable = lo.Uniq(lo.Map(lo.Reject(mine, func(cr ChangeRequest, _ int) bool { return cr.Failing() }), branch))
	if ciFailing == nil {
		ciFailing = []string{}
	}
	if mergeable == nil {
		mergeable = []string{}
	}
	return ciFailing, mergeable
}
