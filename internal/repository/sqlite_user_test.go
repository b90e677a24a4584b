package repository

import (
	"context"
	"testing"

	"github.com/alexanderramin/roofline/internal/domain"
	"github.com/alexanderramin/roofline/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUserRepo_CRUD(t *testing.T) {
	database := testutil.NewTestDB(t)
	ctx := context.Background()
	users := NewSQLiteUserRepo(database)

	u := testutil.NewTestUser("dana", domain.RoleOwner, testutil.WithName("Dana Ridge"))
	require.NoError(t, users.Create(ctx, u))

	got, err := users.GetByID(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, "dana", got.Username)
	assert.Equal(t, "Dana Ridge", got.Name)
	assert.Equal(t, domain.RoleOwner, got.Role)
	assert.True(t, got.Active)

	byName, err := users.GetByUsername(ctx, "dana")
	require.NoError(t, err)
	assert.Equal(t, u.ID, byName.ID)

	got.Active = false
	got.Phone = "555-0100"
	require.NoError(t, users.Update(ctx, got))
	again, err := users.GetByID(ctx, u.ID)
	require.NoError(t, err)
	assert.False(t, again.Active)
	assert.Equal(t, "555-0100", again.Phone)
}

func TestUserRepo_DuplicateUsernameIsConflict(t *testing.T) {
	database := testutil.NewTestDB(t)
	ctx := context.Background()
	users := NewSQLiteUserRepo(database)

	require.NoError(t, users.Create(ctx, testutil.NewTestUser("eli", domain.RoleEmployee)))
	err := users.Create(ctx, testutil.NewTestUser("eli", domain.RoleEmployee, testutil.WithEmail("other@example.com")))
	assert.ErrorIs(t, err, domain.ErrConflict)
}

func TestUserRepo_ListByRole(t *testing.T) {
	database := testutil.NewTestDB(t)
	ctx := context.Background()
	users := NewSQLiteUserRepo(database)

	require.NoError(t, users.Create(ctx, testutil.NewTestUser("zed", domain.RoleEmployee)))
	require.NoError(t, users.Create(ctx, testutil.NewTestUser("amy", domain.RoleEmployee)))
	require.NoError(t, users.Create(ctx, testutil.NewTestUser("own", domain.RoleOwner)))

	all, err := users.List(ctx, "")
	require.NoError(t, err)
	assert.Len(t, all, 3)

	employees, err := users.List(ctx, domain.RoleEmployee)
	require.NoError(t, err)
	require.Len(t, employees, 2)
	assert.Equal(t, "amy", employees[0].Username)
}

func TestUserRepo_NotFound(t *testing.T) {
	database := testutil.NewTestDB(t)
	ctx := context.Background()
	users := NewSQLiteUserRepo(database)

	_, err := users.GetByID(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = users.GetByUsername(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestCustomerRepo_CRUDAndLinkedUser(t *testing.T) {
	database := testutil.NewTestDB(t)
	ctx := context.Background()
	users := NewSQLiteUserRepo(database)
	customers := NewSQLiteCustomerRepo(database)

	login := testutil.NewTestUser("hoa", domain.RoleCustomer)
	require.NoError(t, users.Create(ctx, login))

	c := testutil.NewTestCustomer("Hillside HOA", testutil.WithLinkedUser(login.ID))
	require.NoError(t, customers.Create(ctx, c))

	linked, err := customers.GetByUserID(ctx, login.ID)
	require.NoError(t, err)
	assert.Equal(t, c.ID, linked.ID)

	c.Address = "1 Hill Rd"
	c.Status = domain.CustomerInactive
	require.NoError(t, customers.Update(ctx, c))
	got, err := customers.GetByID(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, "1 Hill Rd", got.Address)
	assert.Equal(t, domain.CustomerInactive, got.Status)

	list, err := customers.List(ctx)
	require.NoError(t, err)
	assert.Len(t, list, 1)

	require.NoError(t, customers.Delete(ctx, c.ID))
	_, err = customers.GetByID(ctx, c.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, customers.Delete(ctx, c.ID), ErrNotFound)
}

func TestCustomerRepo_DeleteClearsJobCustomer(t *testing.T) {
	database := testutil.NewTestDB(t)
	ctx := context.Background()
	customers := NewSQLiteCustomerRepo(database)
	jobs := NewSQLiteJobRepo(database)

	c := testutil.NewTestCustomer("Gone Soon")
	require.NoError(t, customers.Create(ctx, c))
	j := testutil.NewTestJob("Orphaned", testutil.WithCustomer(c.ID))
	require.NoError(t, jobs.Create(ctx, j))

	require.NoError(t, customers.Delete(ctx, c.ID))

	got, err := jobs.GetByID(ctx, j.ID)
	require.NoError(t, err)
	assert.Nil(t, got.CustomerID)
}

func TestCustomerRepo_GetByUserID_NotLinked(t *testing.T) {
	database := testutil.NewTestDB(t)
	_, err := NewSQLiteCustomerRepo(database).GetByUserID(context.Background(), "nobody")
	assert.ErrorIs(t, err, ErrNotFound)
}
