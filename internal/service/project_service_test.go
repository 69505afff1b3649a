package service

import (
	"context"
	"encoding/base64"
	"strings"
	"testing"

	"propertyflow-backend/internal/model"
	"propertyflow-backend/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newProjectService(env *testEnv) ProjectService {
	return NewProjectService(repository.NewProjectRepository(env.db), env.store)
}

func TestProjectCRUD(t *testing.T) {
	env := newTestEnv(t)
	svc := newProjectService(env)
	ctx := context.Background()

	created, err := svc.CreateProject(ctx, env.owner.ID, CreateProjectRequest{
		Code:        "WH2",
		Name:        "Warehouse Two",
		CompanyName: "Warehouse Two Co., Ltd.",
	})
	require.NoError(t, err)
	assert.Equal(t, "WH2", created.Code)
	assert.Empty(t, created.LogoURL)

	name := "Warehouse Two Renamed"
	updated, err := svc.UpdateProject(ctx, env.owner.ID, mustUUID(t, created.ID), UpdateProjectRequest{Name: &name})
	require.NoError(t, err)
	assert.Equal(t, name, updated.Name)

	_, total, err := svc.ListProjects(ctx, env.owner.ID, 1, 10)
	require.NoError(t, err)
	assert.EqualValues(t, 2, total) // the env's seeded project plus this one

	require.NoError(t, svc.DeleteProject(ctx, env.owner.ID, mustUUID(t, created.ID)))
	_, err = svc.GetProject(ctx, env.owner.ID, mustUUID(t, created.ID))
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestProjectOwnershipScoped(t *testing.T) {
	env := newTestEnv(t)
	svc := newProjectService(env)

	other := &model.User{Username: "other", Email: "other@example.com", Password: "x", Role: model.RoleOwner}
	require.NoError(t, env.db.Create(other).Error)

	_, err := svc.GetProject(context.Background(), other.ID, env.project.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	_, total, err := svc.ListProjects(context.Background(), other.ID, 1, 10)
	require.NoError(t, err)
	assert.Zero(t, total)
}

func TestUploadLogoReplacesPrevious(t *testing.T) {
	env := newTestEnv(t)
	svc := newProjectService(env)
	ctx := context.Background()

	payload := base64.StdEncoding.EncodeToString([]byte("logo-bytes"))
	resp, err := svc.UploadLogo(ctx, env.owner.ID, env.project.ID, UploadLogoRequest{
		Image:       payload,
		ContentType: "image/png",
	})
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(resp.LogoURL, "https://storage.test/logo/"), "got %s", resp.LogoURL)
	assert.Equal(t, 1, env.store.count())

	// A second upload replaces the stored object.
	_, err = svc.UploadLogo(ctx, env.owner.ID, env.project.ID, UploadLogoRequest{
		Image:       payload,
		ContentType: "image/png",
	})
	require.NoError(t, err)
	assert.Equal(t, 1, env.store.count())
}
