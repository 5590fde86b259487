package repositories

import (
	"context"
	"strings"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"social-service/internal/models"
)

// ErrDuplicate is returned when an insert hits a unique constraint.
var ErrDuplicate = errors.New("duplicate row")

var userFields = []string{"id", "subject_id", "username", "display_name", "avatar_url", "bio", "created_at"}

// userColumns selects the user columns of table alias, nesting them under prefix
// so sqlx can scan them into an embedded models.User.
func userColumns(alias, prefix string) string {
	cols := make([]string, 0, len(userFields))
	for _, f := range userFields {
		col := alias + "." + f
		if prefix != "" {
			col += ` AS "` + prefix + "." + f + `"`
		}
		cols = append(cols, col)
	}
	return strings.Join(cols, ", ")
}

type attachmentTable struct {
	name   string
	parent string
}

var (
	messageAttachments = attachmentTable{name: "message_attachments", parent: "message_id"}
	postAttachments    = attachmentTable{name: "post_attachments", parent: "post_id"}
	commentAttachments = attachmentTable{name: "comment_attachments", parent: "comment_id"}
)

// capAttachments keeps the first MaxAttachments urls in order.
func capAttachments(urls []string) []string {
	kept := make([]string, 0, models.MaxAttachments)
	for _, u := range urls {
		if u == "" {
			continue
		}
		if len(kept) == models.MaxAttachments {
			break
		}
		kept = append(kept, u)
	}
	return kept
}

// insert stores urls for parentID with their ordinal. Returns the stored urls.
func (t attachmentTable) insert(ctx context.Context, tx *sqlx.Tx, parentID string, urls []string) ([]string, error) {
	kept := capAttachments(urls)
	query := tx.Rebind(`INSERT INTO ` + t.name + ` (` + t.parent + `, ordinal, url) VALUES (?, ?, ?)`)
	for i, url := range kept {
		if _, err := tx.ExecContext(ctx, query, parentID, i, url); err != nil {
			return nil, errors.Wrapf(err, "insert %s", t.name)
		}
	}
	return kept, nil
}

// load returns the ordered urls of every parent in ids. Parents without
// attachments map to an empty slice.
func (t attachmentTable) load(ctx context.Context, q sqlx.ExtContext, ids []string) (map[string][]string, error) {
	result := make(map[string][]string, len(ids))
	if len(ids) == 0 {
		return result, nil
	}
	for _, id := range ids {
		result[id] = []string{}
	}

	query, args, err := sqlx.In(`SELECT `+t.parent+` AS parent_id, url FROM `+t.name+` WHERE `+t.parent+` IN (?) ORDER BY `+t.parent+`, ordinal`, ids)
	if err != nil {
		return nil, errors.Wrapf(err, "build %s query", t.name)
	}

	var rows []struct {
		ParentID string `db:"parent_id"`
		URL      string `db:"url"`
	}
	if err := sqlx.SelectContext(ctx, q, &rows, q.Rebind(query), args...); err != nil {
		return nil, errors.Wrapf(err, "load %s", t.name)
	}
	for _, row := range rows {
		result[row.ParentID] = append(result[row.ParentID], row.URL)
	}
	return result, nil
}
