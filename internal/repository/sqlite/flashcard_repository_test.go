package sqlite_test

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/suite"
	"github.com/vytor/speakflash/internal/models"
	"github.com/vytor/speakflash/internal/repository"
	"github.com/vytor/speakflash/internal/repository/sqlite"
	"github.com/vytor/speakflash/internal/testutil"
)

type FlashcardRepositorySuite struct {
	suite.Suite
	db   *sql.DB
	repo repository.FlashcardRepository
}

func (s *FlashcardRepositorySuite) SetupTest() {
	s.db = testutil.NewTestDB(s.T())
	s.repo = sqlite.NewFlashcardRepository(s.db)
}

func (s *FlashcardRepositorySuite) TearDownTest() {
	testutil.MustClose(s.T(), s.db)
}

func (s *FlashcardRepositorySuite) TestAllEmpty() {
	cards, err := s.repo.All(context.Background())
	s.Require().NoError(err)
	s.Assert().Empty(cards)
}

func (s *FlashcardRepositorySuite) TestInsertAndAll() {
	ctx := context.Background()

	id1, err := s.repo.Insert(ctx, models.Flashcard{Question: "2+2", Answer: "4"})
	s.Require().NoError(err)
	id2, err := s.repo.Insert(ctx, models.Flashcard{Question: "3+3", Answer: "6"})
	s.Require().NoError(err)
	s.Assert().Greater(id2, id1)

	cards, err := s.repo.All(ctx)
	s.Require().NoError(err)
	s.Require().Len(cards, 2)

	byID := map[int64]models.Flashcard{}
	for _, c := range cards {
		byID[c.ID] = c
	}
	s.Assert().Equal("2+2", byID[id1].Question)
	s.Assert().Equal("4", byID[id1].Answer)
	s.Assert().Equal("3+3", byID[id2].Question)
	s.Assert().False(byID[id2].CreatedAt.IsZero())
}

func (s *FlashcardRepositorySuite) TestAllFailsOnClosedDB() {
	s.Require().NoError(s.db.Close())
	_, err := s.repo.All(context.Background())
	s.Assert().Error(err)

	// reopen so TearDownTest can close cleanly
	s.db = testutil.NewTestDB(s.T())
}

func TestFlashcardRepositorySuite(t *testing.T) {
	suite.Run(t, new(FlashcardRepositorySuite))
}
