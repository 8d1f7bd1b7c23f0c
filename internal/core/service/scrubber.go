package service

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/sirpyerre/blogkeeper/internal/core/domain"
	"github.com/sirpyerre/blogkeeper/internal/core/ports"
	"github.com/sirpyerre/blogkeeper/internal/metrics"
)

// Scrubber removes records whose owner no longer resolves to a live user.
// A pass is idempotent: a second pass over the same state removes nothing.
type Scrubber struct {
	repos ports.Repositories
	log   zerolog.Logger
}

func NewScrubber(repos ports.Repositories, log zerolog.Logger) *Scrubber {
	return &Scrubber{repos: repos, log: log}
}

// Scrub runs one pass in its own transaction.
func (s *Scrubber) Scrub(ctx context.Context) (ports.ScrubReport, error) {
	var report ports.ScrubReport
	err := s.repos.Tx.WithinTx(ctx, func(ctx context.Context) error {
		var err error
		report, err = s.Sweep(ctx)
		return err
	})
	if err != nil {
		return ports.ScrubReport{}, fmt.Errorf("scrub: %w", err)
	}
	s.publish(report)
	return report, nil
}

// Sweep runs one pass using ctx as is, so it joins a transaction the caller
// already opened. Kinds are processed parent first, so records orphaned by an
// earlier step in the same pass are removed too.
func (s *Scrubber) Sweep(ctx context.Context) (ports.ScrubReport, error) {
	var report ports.ScrubReport

	users, err := s.repos.Users.List(ctx)
	if err != nil {
		return report, fmt.Errorf("list users: %w", err)
	}
	liveIDs := make(map[string]struct{}, len(users))
	liveEmails := make(map[string]struct{}, len(users))
	for _, u := range users {
		liveIDs[u.ID] = struct{}{}
		liveEmails[u.Email] = struct{}{}
	}
	hasUser := func(id string) bool { _, ok := liveIDs[id]; return ok }
	hasEmail := func(email string) bool { _, ok := liveEmails[email]; return ok }

	if err := s.sweepArchives(ctx, hasEmail, &report); err != nil {
		return report, err
	}

	posts, err := s.repos.Posts.List(ctx)
	if err != nil {
		return report, fmt.Errorf("list posts: %w", err)
	}
	livePosts := make(map[string]struct{}, len(posts))
	for _, p := range posts {
		if !hasUser(p.AuthorID) {
			if err := s.repos.Posts.Delete(ctx, p.ID); err != nil {
				return report, fmt.Errorf("delete post %s: %w", p.ID, err)
			}
			report.Posts++
			continue
		}
		livePosts[p.ID] = struct{}{}
	}

	comments, err := s.repos.Comments.List(ctx)
	if err != nil {
		return report, fmt.Errorf("list comments: %w", err)
	}
	liveComments := make(map[string]struct{}, len(comments))
	for _, c := range comments {
		_, postOK := livePosts[c.PostID]
		if !postOK || !hasUser(c.AuthorID) {
			if err := s.repos.Comments.Delete(ctx, c.ID); err != nil {
				return report, fmt.Errorf("delete comment %s: %w", c.ID, err)
			}
			report.Comments++
			continue
		}
		liveComments[c.ID] = struct{}{}
	}

	replies, err := s.repos.Replies.List(ctx)
	if err != nil {
		return report, fmt.Errorf("list replies: %w", err)
	}
	liveReplies := make(map[string]struct{}, len(replies))
	for _, r := range replies {
		_, commentOK := liveComments[r.CommentID]
		_, postOK := livePosts[r.PostID]
		if !commentOK || !postOK || !hasUser(r.AuthorID) {
			if err := s.repos.Replies.Delete(ctx, r.ID); err != nil {
				return report, fmt.Errorf("delete reply %s: %w", r.ID, err)
			}
			report.Replies++
			continue
		}
		liveReplies[r.ID] = struct{}{}
	}

	keys, err := s.repos.APIKeys.List(ctx)
	if err != nil {
		return report, fmt.Errorf("list api keys: %w", err)
	}
	for _, k := range keys {
		if hasUser(k.OwnerID) {
			continue
		}
		if err := s.repos.APIKeys.Delete(ctx, k.ID); err != nil {
			return report, fmt.Errorf("delete api key %s: %w", k.ID, err)
		}
		report.APIKeys++
	}

	reports, err := s.repos.Reports.List(ctx)
	if err != nil {
		return report, fmt.Errorf("list deletion reports: %w", err)
	}
	for _, r := range reports {
		if hasUser(r.OwnerID) {
			continue
		}
		if err := s.repos.Reports.Delete(ctx, r.ID); err != nil {
			return report, fmt.Errorf("delete deletion report %s: %w", r.ID, err)
		}
		report.Reports++
	}

	parentExists := map[domain.ParentKind]func(id string) bool{
		domain.ParentComment: func(id string) bool { _, ok := liveComments[id]; return ok },
		domain.ParentReply:   func(id string) bool { _, ok := liveReplies[id]; return ok },
	}
	notes, err := s.repos.Notifications.List(ctx)
	if err != nil {
		return report, fmt.Errorf("list notifications: %w", err)
	}
	for _, n := range notes {
		if hasUser(n.RecipientID) && parentResolves(n, parentExists) {
			continue
		}
		if err := s.repos.Notifications.Delete(ctx, n.ID); err != nil {
			return report, fmt.Errorf("delete notification %s: %w", n.ID, err)
		}
		report.Notifications++
	}

	return report, nil
}

// sweepArchives drops archives whose post author is gone and prunes nested
// comments and replies whose author is gone. A pruned comment takes its
// replies with it.
func (s *Scrubber) sweepArchives(ctx context.Context, hasEmail func(string) bool, report *ports.ScrubReport) error {
	archives, err := s.repos.Archives.List(ctx)
	if err != nil {
		return fmt.Errorf("list archives: %w", err)
	}
	for _, a := range archives {
		if !hasEmail(a.Snapshot.AuthorEmail) {
			if err := s.repos.Archives.Delete(ctx, a.ID); err != nil {
				return fmt.Errorf("delete archive %s: %w", a.ID, err)
			}
			report.Archives++
			continue
		}

		pruned := 0
		kept := make([]domain.CommentSnapshot, 0, len(a.Snapshot.Comments))
		for _, c := range a.Snapshot.Comments {
			if !hasEmail(c.AuthorEmail) {
				pruned += 1 + len(c.Replies)
				continue
			}
			replies := make([]domain.ReplySnapshot, 0, len(c.Replies))
			for _, r := range c.Replies {
				if !hasEmail(r.AuthorEmail) {
					pruned++
					continue
				}
				replies = append(replies, r)
			}
			c.Replies = replies
			kept = append(kept, c)
		}
		if pruned == 0 {
			continue
		}
		a.Snapshot.Comments = kept
		if err := s.repos.Archives.Replace(ctx, a); err != nil {
			return fmt.Errorf("replace archive %s: %w", a.ID, err)
		}
		report.ArchiveNodes += pruned
	}
	return nil
}

// parentResolves reports whether the record a notification deep-links to
// still exists. Categories without a parent always resolve.
func parentResolves(n *domain.Notification, exists map[domain.ParentKind]func(string) bool) bool {
	check, ok := exists[n.Category.ParentKind()]
	if !ok || n.ParentID == "" {
		return true
	}
	return check(n.ParentID)
}

func (s *Scrubber) publish(r ports.ScrubReport) {
	counts := map[string]int{
		"archives":         r.Archives,
		"archive_nodes":    r.ArchiveNodes,
		"posts":            r.Posts,
		"comments":         r.Comments,
		"replies":          r.Replies,
		"api_keys":         r.APIKeys,
		"deletion_reports": r.Reports,
		"notifications":    r.Notifications,
	}
	for kind, n := range counts {
		if n > 0 {
			metrics.ScrubRemovedTotal.WithLabelValues(kind).Add(float64(n))
		}
	}
	s.log.Info().
		Int("archives", r.Archives).
		Int("archive_nodes", r.ArchiveNodes).
		Int("posts", r.Posts).
		Int("comments", r.Comments).
		Int("replies", r.Replies).
		Int("api_keys", r.APIKeys).
		Int("deletion_reports", r.Reports).
		Int("notifications", r.Notifications).
		Msg("scrub completed")
}
