package services

import (
	"context"
	"errors"
	"regexp"
	"strings"

	"github.com/anonto42/nano-midea/engagement/internal/models"
	"github.com/anonto42/nano-midea/engagement/internal/repositories"
	"github.com/anonto42/nano-midea/engagement/pkg/logger"
)

const (
	defaultCommentLimit = 20
	maxCommentLimit     = 100
)

var mentionPattern = regexp.MustCompile(`@([A-Za-z0-9_.]{1,50})`)

type CommentService struct {
	comments repositories.CommentRepository
	posts    repositories.PostRepository
	users    repositories.UserRepository
	fanout   *Fanout
}

func NewCommentService(
	comments repositories.CommentRepository,
	posts repositories.PostRepository,
	users repositories.UserRepository,
	fanout *Fanout,
) *CommentService {
	return &CommentService{comments: comments, posts: posts, users: users, fanout: fanout}
}

// Create adds a comment, notifies the post author and every mentioned
// user. Each recipient gets at most one event and the actor none.
func (s *CommentService) Create(ctx context.Context, actor models.Identity, postID uint, content string) (*models.Comment, error) {
	post, err := s.posts.GetPostByID(ctx, postID)
	if err != nil {
		if errors.Is(err, repositories.ErrPostNotFound) {
			return nil, ErrPostNotFound
		}
		return nil, err
	}

	comment := &models.Comment{PostID: postID, UserID: actor.UserID, Content: content}
	if err := s.comments.CreateComment(ctx, comment); err != nil {
		if errors.Is(err, repositories.ErrPostNotFound) {
			return nil, ErrPostNotFound
		}
		return nil, err
	}

	notified := map[uint]bool{actor.UserID: true}
	if !notified[post.AuthorID] {
		notified[post.AuthorID] = true
		s.fanout.Dispatch(ctx, models.InteractionEvent{
			Type:        models.NotificationComment,
			ActorID:     actor.UserID,
			RecipientID: post.AuthorID,
			PostID:      &comment.PostID,
			CommentID:   &comment.ID,
			Message:     "commented on your post",
			OccurredAt:  comment.CreatedAt,
		})
	}

	mentioned, err := s.users.GetUsersByUsernames(ctx, ParseMentions(content))
	if err != nil {
		// The comment is committed; a failed lookup only loses mentions.
		l := logger.Ctx(ctx)
		l.Error().Err(err).Uint(logger.FieldCommentID, comment.ID).Msg("failed to resolve mentions")
		return comment, nil
	}
	for _, u := range mentioned {
		if notified[u.ID] {
			continue
		}
		notified[u.ID] = true
		s.fanout.Dispatch(ctx, models.InteractionEvent{
			Type:        models.NotificationMention,
			ActorID:     actor.UserID,
			RecipientID: u.ID,
			PostID:      &comment.PostID,
			CommentID:   &comment.ID,
			Message:     "mentioned you in a comment",
			OccurredAt:  comment.CreatedAt,
		})
	}
	return comment, nil
}

func (s *CommentService) Update(ctx context.Context, actor models.Identity, commentID uint, content string) (*models.Comment, error) {
	comment, err := s.find(ctx, commentID)
	if err != nil {
		return nil, err
	}
	if err := authorize(actor, comment.UserID); err != nil {
		return nil, err
	}

	comment.Content = content
	if err := s.comments.UpdateComment(ctx, comment); err != nil {
		return nil, err
	}
	return comment, nil
}

func (s *CommentService) Delete(ctx context.Context, actor models.Identity, commentID uint) error {
	comment, err := s.find(ctx, commentID)
	if err != nil {
		return err
	}
	if err := authorize(actor, comment.UserID); err != nil {
		return err
	}
	if err := s.comments.DeleteComment(ctx, comment); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return ErrCommentNotFound
		}
		return err
	}
	return nil
}

// List returns a page of a post's comments, oldest first.
func (s *CommentService) List(ctx context.Context, postID uint, page, limit int) ([]models.EnrichedComment, models.PageMeta, error) {
	page, limit = models.Page(page, limit, defaultCommentLimit, maxCommentLimit)

	if _, err := s.posts.GetPostByID(ctx, postID); err != nil {
		if errors.Is(err, repositories.ErrPostNotFound) {
			return nil, models.PageMeta{}, ErrPostNotFound
		}
		return nil, models.PageMeta{}, err
	}

	rows, total, err := s.comments.GetCommentsByPostID(ctx, postID, models.Offset(page, limit), limit)
	if err != nil {
		return nil, models.PageMeta{}, err
	}

	ids := make([]uint, len(rows))
	for i, c := range rows {
		ids[i] = c.UserID
	}
	authors, err := s.users.GetUsersByIDs(ctx, ids)
	if err != nil {
		return nil, models.PageMeta{}, err
	}

	out := make([]models.EnrichedComment, len(rows))
	for i, c := range rows {
		out[i] = models.EnrichedComment{Comment: c}
		if a, ok := authors[c.UserID]; ok {
			out[i].Author = a.ToCompact()
		}
	}
	return out, models.NewPageMeta(page, limit, total), nil
}

func (s *CommentService) find(ctx context.Context, commentID uint) (*models.Comment, error) {
	comment, err := s.comments.GetCommentByID(ctx, commentID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrCommentNotFound
		}
		return nil, err
	}
	return comment, nil
}

// ParseMentions returns the distinct @usernames in text, in order of first
// appearance. Matching is case-insensitive.
func ParseMentions(text string) []string {
	matches := mentionPattern.FindAllStringSubmatch(text, -1)
	out := make([]string, 0, len(matches))
	seen := make(map[string]bool, len(matches))
	for _, m := range matches {
		name := strings.ToLower(strings.TrimRight(m[1], "."))
		if name == "" || seen[name] {
			continue
		}
		seen[name] = true
		out = append(out, name)
	}
	return out
}
