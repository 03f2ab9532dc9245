package postgres_test

import (
	"context"
	"fmt"
	"time"

	"github.com/xy-planning-network/acrsample"
	"github.com/xy-planning-network/acrsample/postgres"
)

func (suite *DBTestSuite) newUser(username string) *acrsample.User {
	u, err := acrsample.NewUser(username, username+"@example.com", "correct horse")
	suite.Require().Nil(err)
	return u
}

func (suite *DBTestSuite) TestUserStoreCreate() {
	// Arrange
	store := postgres.NewUserStore(suite.db)
	ctx := context.Background()
	u := suite.newUser("admin")

	// Act
	err := store.Create(ctx, u)

	// Assert
	suite.Require().Nil(err)
	suite.Require().NotZero(u.ID)
	suite.Require().True(u.IsActive)

	// Act
	err = store.Create(ctx, suite.newUser("admin"))

	// Assert
	suite.Require().ErrorIs(err, acrsample.ErrExists)

	// Act
	err = store.Create(ctx, &acrsample.User{})

	// Assert
	suite.Require().ErrorIs(err, acrsample.ErrMissingData)
}

func (suite *DBTestSuite) TestUserStoreFind() {
	// Arrange
	store := postgres.NewUserStore(suite.db)
	ctx := context.Background()
	u := suite.newUser("admin")
	suite.Require().Nil(store.Create(ctx, u))

	// Act
	byID, err := store.FindByID(ctx, u.ID)

	// Assert
	suite.Require().Nil(err)
	suite.Require().Equal("admin", byID.Username)
	suite.Require().True(byID.CheckPassword("correct horse"))

	// Act
	byName, err := store.FindByUsername(ctx, "admin")

	// Assert
	suite.Require().Nil(err)
	suite.Require().Equal(u.ID, byName.ID)

	// Act
	_, err = store.FindByUsername(ctx, "Admin")

	// Assert
	suite.Require().ErrorIs(err, acrsample.ErrNotFound)

	// Act
	_, err = store.FindByID(ctx, u.ID+1)

	// Assert
	suite.Require().ErrorIs(err, acrsample.ErrNotFound)
}

func (suite *DBTestSuite) TestUserStoreUpdateLastLogin() {
	// Arrange
	store := postgres.NewUserStore(suite.db)
	ctx := context.Background()
	u := suite.newUser("admin")
	suite.Require().Nil(store.Create(ctx, u))
	at := time.Now().Truncate(time.Microsecond)

	// Act
	err := store.UpdateLastLogin(ctx, u.ID, at)

	// Assert
	suite.Require().Nil(err)
	actual, err := store.FindByID(ctx, u.ID)
	suite.Require().Nil(err)
	suite.Require().True(actual.LastLogin.Valid)
	suite.Require().True(at.Equal(actual.LastLogin.Time))

	// Act
	err = store.UpdateLastLogin(ctx, u.ID+1, at)

	// Assert
	suite.Require().ErrorIs(err, acrsample.ErrNotFound)
}

func (suite *DBTestSuite) TestUserStorePage() {
	// Arrange
	store := postgres.NewUserStore(suite.db)
	ctx := context.Background()
	for i := 0; i < 5; i++ {
		suite.Require().Nil(store.Create(ctx, suite.newUser(fmt.Sprintf("user%d", i))))
	}

	// Act
	users, total, err := store.Page(ctx, 2, 2)

	// Assert
	suite.Require().Nil(err)
	suite.Require().EqualValues(5, total)
	suite.Require().Len(users, 2)
	suite.Require().Equal("user2", users[0].Username)

	// Act
	count, err := store.Count(ctx)

	// Assert
	suite.Require().Nil(err)
	suite.Require().EqualValues(5, count)
}
