package handler_test

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"path/filepath"
	"testing"

	"github.com/santhosh-tekuri/jsonschema/v5"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/kegiatan-api/internal/dto"
	"github.com/noah-isme/kegiatan-api/internal/models"
	"github.com/noah-isme/kegiatan-api/internal/service"
)

type envelope struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
	Meta    json.RawMessage `json:"meta"`
	Details json.RawMessage `json:"details"`
}

func decodeEnvelope(t *testing.T, resp *http.Response) envelope {
	t.Helper()
	defer resp.Body.Close()

	var payload envelope
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&payload))
	return payload
}

func validateContract(t *testing.T, schemaFile string, resp *http.Response) {
	t.Helper()

	schemaPath, err := filepath.Abs(filepath.Join("testdata", schemaFile))
	require.NoError(t, err)

	schema, err := jsonschema.NewCompiler().Compile("file://" + schemaPath)
	require.NoError(t, err)

	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	var payload interface{}
	require.NoError(t, json.Unmarshal(body, &payload))
	require.NoError(t, schema.Validate(payload))
}

type stubActivityService struct {
	createResp dto.ActivityResponse
	createErr  error
	updateResp dto.ActivityResponse
	updateErr  error
	deleteErr  error
	getResp    dto.ActivityResponse
	getErr     error
	listResp   dto.ActivityListResponse
	listErr    error
	logResp    dto.ChangeLogListResponse
	logErr     error

	lastUpdateID string
	lastSearch   string
	lastLogReq   dto.ChangeLogListRequest
}

func (s *stubActivityService) Create(_ context.Context, payload dto.ActivityRequest) (dto.ActivityResponse, error) {
	return s.createResp, s.createErr
}

func (s *stubActivityService) Update(_ context.Context, id string, _ dto.ActivityRequest) (dto.ActivityResponse, error) {
	s.lastUpdateID = id
	return s.updateResp, s.updateErr
}

func (s *stubActivityService) Delete(context.Context, string) error {
	return s.deleteErr
}

func (s *stubActivityService) Get(context.Context, string) (dto.ActivityResponse, error) {
	return s.getResp, s.getErr
}

func (s *stubActivityService) List(_ context.Context, search string) (dto.ActivityListResponse, error) {
	s.lastSearch = search
	return s.listResp, s.listErr
}

func (s *stubActivityService) ChangeLog(_ context.Context, req dto.ChangeLogListRequest) (dto.ChangeLogListResponse, error) {
	s.lastLogReq = req
	return s.logResp, s.logErr
}

type stubUserService struct {
	verifyUser  models.User
	verifyErr   error
	registered  dto.UserResponse
	registerErr error
	users       []dto.UserResponse
	roles       []dto.RoleResponse
}

func (s *stubUserService) VerifyCredentials(context.Context, string, string) (models.User, error) {
	return s.verifyUser, s.verifyErr
}

func (s *stubUserService) Register(context.Context, dto.RegisterRequest) (dto.UserResponse, error) {
	return s.registered, s.registerErr
}

func (s *stubUserService) ListAll(context.Context) ([]dto.UserResponse, error) {
	return s.users, nil
}

func (s *stubUserService) ListRoles(context.Context) ([]dto.RoleResponse, error) {
	return s.roles, nil
}

type stubAuthService struct {
	resp dto.LoginResponse
	err  error
}

func (s *stubAuthService) Login(context.Context, dto.LoginRequest) (dto.LoginResponse, error) {
	return s.resp, s.err
}

type stubSeedService struct {
	report service.SeedReport
	calls  int
}

func (s *stubSeedService) SeedIfEmpty(context.Context) service.SeedReport {
	s.calls++
	return s.report
}

func ptrString(v string) *string {
	return &v
}

func ptrUint(v uint) *uint {
	return &v
}
