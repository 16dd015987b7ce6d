package repositories

import (
	"context"
	"testing"
	"time"

	"github.com/anonto42/inkwell/backend/internal/apperrors"
	"github.com/anonto42/inkwell/backend/internal/models"
	"github.com/anonto42/inkwell/backend/internal/testutil"
	"github.com/stretchr/testify/suite"
	"gorm.io/gorm"
)

type NotificationRepositorySuite struct {
	suite.Suite
	db   *gorm.DB
	repo *PostgresNotificationRepository
	ctx  context.Context
}

func (s *NotificationRepositorySuite) SetupTest() {
	s.db = testutil.NewDB(s.T())
	s.repo = NewPostgresNotificationRepository(s.db)
	s.ctx = context.Background()
}

func (s *NotificationRepositorySuite) row(userID uint, at time.Time) models.Notification {
	return models.Notification{
		UserID:    userID,
		Type:      models.NotificationLikeOnYourArticle,
		ArticleID: "65a1f0c2e4b0a1b2c3d4e5f6",
		Actor:     models.Actor{ID: 99, Name: "Liker", Avatar: "a.png"},
		Message:   "Liker liked your article",
		CreatedAt: at,
	}
}

func (s *NotificationRepositorySuite) TestCreateBatchAssignsIDs() {
	rows := []models.Notification{s.row(1, time.Now()), s.row(2, time.Now())}
	s.Require().NoError(s.repo.CreateBatch(s.ctx, rows))

	s.NotZero(rows[0].ID)
	s.NotZero(rows[1].ID)
	s.NotEqual(rows[0].ID, rows[1].ID)

	var count int64
	s.db.Model(&models.Notification{}).Count(&count)
	s.Equal(int64(2), count)
}

func (s *NotificationRepositorySuite) TestCreateBatchEmptyIsNoop() {
	s.NoError(s.repo.CreateBatch(s.ctx, nil))
}

func (s *NotificationRepositorySuite) TestActorColumnsRoundTrip() {
	rows := []models.Notification{s.row(1, time.Now())}
	rows[0].Type = models.NotificationCommentOnYourArticle
	rows[0].Payload = models.NotificationPayload{CommentText: "nice"}
	s.Require().NoError(s.repo.CreateBatch(s.ctx, rows))

	got, err := s.repo.GetForUser(s.ctx, rows[0].ID, 1)
	s.Require().NoError(err)
	s.Equal(models.Actor{ID: 99, Name: "Liker", Avatar: "a.png"}, got.Actor)
	s.Equal("nice", got.Payload.CommentText)
	s.False(got.IsRead)
}

func (s *NotificationRepositorySuite) TestListByUserNewestFirstWithLimit() {
	base := time.Now().Add(-time.Hour)
	rows := []models.Notification{
		s.row(1, base),
		s.row(1, base.Add(2*time.Minute)),
		s.row(1, base.Add(time.Minute)),
		s.row(2, base.Add(3*time.Minute)),
	}
	s.Require().NoError(s.repo.CreateBatch(s.ctx, rows))

	got, err := s.repo.ListByUser(s.ctx, 1, 2)
	s.Require().NoError(err)
	s.Require().Len(got, 2)
	s.Equal(rows[1].ID, got[0].ID)
	s.Equal(rows[2].ID, got[1].ID)
	for _, n := range got {
		s.Equal(uint(1), n.UserID)
	}
}

func (s *NotificationRepositorySuite) TestListByUserTiesBrokenByID() {
	at := time.Now().Truncate(time.Second)
	rows := []models.Notification{s.row(1, at), s.row(1, at), s.row(1, at)}
	s.Require().NoError(s.repo.CreateBatch(s.ctx, rows))

	got, err := s.repo.ListByUser(s.ctx, 1, 10)
	s.Require().NoError(err)
	s.Require().Len(got, 3)
	s.Greater(got[0].ID, got[1].ID)
	s.Greater(got[1].ID, got[2].ID)
}

func (s *NotificationRepositorySuite) TestGetForUserRejectsOtherOwner() {
	rows := []models.Notification{s.row(1, time.Now())}
	s.Require().NoError(s.repo.CreateBatch(s.ctx, rows))

	_, err := s.repo.GetForUser(s.ctx, rows[0].ID, 2)
	s.ErrorIs(err, apperrors.ErrNotFound)

	_, err = s.repo.GetForUser(s.ctx, rows[0].ID+100, 1)
	s.ErrorIs(err, apperrors.ErrNotFound)
}

func (s *NotificationRepositorySuite) TestMarkAsReadIsIdempotentAndScoped() {
	rows := []models.Notification{s.row(1, time.Now()), s.row(2, time.Now())}
	s.Require().NoError(s.repo.CreateBatch(s.ctx, rows))

	s.Require().NoError(s.repo.MarkAsRead(s.ctx, rows[0].ID, 1))
	s.Require().NoError(s.repo.MarkAsRead(s.ctx, rows[0].ID, 1))
	// Another user's row is left alone.
	s.Require().NoError(s.repo.MarkAsRead(s.ctx, rows[1].ID, 1))
	// Absent row is not an error.
	s.Require().NoError(s.repo.MarkAsRead(s.ctx, 12345, 1))

	count, err := s.repo.UnreadCount(s.ctx, 1)
	s.Require().NoError(err)
	s.Zero(count)

	count, err = s.repo.UnreadCount(s.ctx, 2)
	s.Require().NoError(err)
	s.Equal(int64(1), count)
}

func (s *NotificationRepositorySuite) TestMarkAllAsRead() {
	rows := []models.Notification{s.row(1, time.Now()), s.row(1, time.Now()), s.row(2, time.Now())}
	s.Require().NoError(s.repo.CreateBatch(s.ctx, rows))

	s.Require().NoError(s.repo.MarkAllAsRead(s.ctx, 1))
	s.Require().NoError(s.repo.MarkAllAsRead(s.ctx, 1))

	c1, _ := s.repo.UnreadCount(s.ctx, 1)
	c2, _ := s.repo.UnreadCount(s.ctx, 2)
	s.Zero(c1)
	s.Equal(int64(1), c2)
}

func (s *NotificationRepositorySuite) TestDeleteIsHardAndIdempotent() {
	rows := []models.Notification{s.row(1, time.Now()), s.row(2, time.Now())}
	s.Require().NoError(s.repo.CreateBatch(s.ctx, rows))

	s.Require().NoError(s.repo.Delete(s.ctx, rows[0].ID, 1))
	s.Require().NoError(s.repo.Delete(s.ctx, rows[0].ID, 1))
	// Not owned: no effect.
	s.Require().NoError(s.repo.Delete(s.ctx, rows[1].ID, 1))

	var count int64
	s.db.Model(&models.Notification{}).Count(&count)
	s.Equal(int64(1), count)
}

func TestNotificationRepositorySuite(t *testing.T) {
	suite.Run(t, new(NotificationRepositorySuite))
}
