// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package blog

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"blogpress/internal/models"
)

// ViewKey is the session key marking an article as already counted.
func ViewKey(id uuid.UUID) string {
	return "viewed_article_" + id.String()
}

// RecordView increments the view counter of a at most once per session.
// A counted view is a save of the article, so once created_on is set it
// refreshes updated_on under the same rules as an edit. The session marker
// is written inside the same transaction as the increment and reverted if
// the transaction rolls back. It reports whether the counter moved; a.Views
// and a.UpdatedOn are refreshed when it did.
func (s *Service) RecordView(ctx context.Context, sess Session, a *models.Article) (bool, error) {
	key := ViewKey(a.ID)
	marker := a.ID.String()

	prev, hadPrev := sess.Get(key)
	if hadPrev && prev == marker {
		return false, nil
	}

	var stamp *time.Time
	if a.CreatedOn != nil {
		next := *a
		ApplyTimestamps(a, &next, s.clock.Now())
		stamp = next.UpdatedOn
	}

	var views int
	err := s.store.WithTx(ctx, func(repo Repository) error {
		n, err := repo.IncrementViews(ctx, a.ID, stamp)
		if err != nil {
			return err
		}
		views = n
		sess.Set(key, marker)
		return nil
	})
	if err != nil {
		if hadPrev {
			sess.Set(key, prev)
		} else {
			sess.Delete(key)
		}
		return false, fmt.Errorf("record view: %w", err)
	}

	a.Views = views
	if stamp != nil {
		a.UpdatedOn = stamp
	}
	slog.Info("view counted", "article_id", a.ID, "views", views)
	return true, nil
}
