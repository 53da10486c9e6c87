// Package service implements the business logic of the user account
// backend: signup validation, authentication, profile updates, metadata,
// refresh tokens, roles and capability checks. Handlers stay thin and
// translate the tagged errors produced here into HTTP responses.
package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"regexp"
	"strings"
	"time"

	"github.com/iliyamo/user-account-service/internal/logger"
	"github.com/iliyamo/user-account-service/internal/model"
	"github.com/iliyamo/user-account-service/internal/repository"
	"github.com/iliyamo/user-account-service/internal/utils"
)

// LegacyCapabilityKey is the meta key consulted when a user holds no
// normalized role granting a capability. Its value is a JSON object of
// capability flags carried over from the old schema.
const LegacyCapabilityKey = "wp_capabilities"

var emailRe = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)

// UserService orchestrates repositories and the password hasher. It holds
// no in-memory state beyond the shared connection pool; consistency of
// multi-step operations is delegated to the database.
type UserService struct {
	db     *sql.DB
	users  *repository.UserRepo
	meta   *repository.MetaRepo
	roles  *repository.RoleRepo
	tokens *repository.TokenRepo
	log    *logger.Logger
	cost   int // bcrypt cost factor
}

// NewUserService wires a service over one shared *sql.DB.
func NewUserService(db *sql.DB, log *logger.Logger, bcryptCost int) *UserService {
	return &UserService{
		db:     db,
		users:  repository.NewUserRepo(db),
		meta:   repository.NewMetaRepo(db),
		roles:  repository.NewRoleRepo(db),
		tokens: repository.NewTokenRepo(db),
		log:    log,
		cost:   bcryptCost,
	}
}

// CreateUserInput is the payload accepted by CreateUser.
type CreateUserInput struct {
	Login       string  `json:"userLogin"`
	Email       string  `json:"userEmail"`
	Password    string  `json:"password"`
	DisplayName *string `json:"displayName"`
}

// CreateUser validates the input, hashes the password and inserts the
// row. Duplicate login or email surface as a conflict naming the field.
func (s *UserService) CreateUser(ctx context.Context, in CreateUserInput) (model.UserPublicView, error) {
	in.Login = strings.TrimSpace(in.Login)
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
	switch {
	case len(in.Login) < 3:
		return model.UserPublicView{}, validationf("userLogin must be at least 3 characters")
	case !emailRe.MatchString(in.Email):
		return model.UserPublicView{}, validationf("userEmail is not a valid email address")
	case len(in.Password) < 8:
		return model.UserPublicView{}, validationf("password must be at least 8 characters")
	}

	hash, err := utils.HashPassword(in.Password, s.cost)
	if err != nil {
		return model.UserPublicView{}, internal("hash password failed", err)
	}

	id, err := s.users.Create(ctx, in.Login, in.Email, hash, in.DisplayName)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrLoginExists):
			return model.UserPublicView{}, conflict("userLogin")
		case errors.Is(err, repository.ErrEmailExists):
			return model.UserPublicView{}, conflict("userEmail")
		}
		s.log.Error("createUser failed", "login", in.Login, "email", in.Email, "err", err)
		return model.UserPublicView{}, internal("create user failed", err)
	}

	u, err := s.users.GetByID(ctx, id)
	if err != nil {
		s.log.Error("createUser readback failed", "id", id, "err", err)
		return model.UserPublicView{}, internal("create user failed", err)
	}
	return u.PublicView(), nil
}

// Authenticate looks a user up by login or email and verifies the
// password. It returns nil on no match or wrong password; the two cases
// are deliberately indistinguishable to avoid account enumeration.
func (s *UserService) Authenticate(ctx context.Context, loginOrEmail, password string) (*model.UserPublicView, error) {
	if strings.TrimSpace(loginOrEmail) == "" || password == "" {
		return nil, validationf("credentials required")
	}
	u, err := s.users.GetByLoginOrEmail(ctx, strings.TrimSpace(loginOrEmail))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		s.log.Error("authenticate lookup failed", "login", loginOrEmail, "err", err)
		return nil, internal("authenticate failed", err)
	}
	if !utils.VerifyPassword(u.PassHash, password) {
		return nil, nil
	}
	v := u.PublicView()
	return &v, nil
}

// GetUserByID returns the user view, optionally joined with metadata and
// resolved roles. A missing user returns nil without error.
func (s *UserService) GetUserByID(ctx context.Context, id uint64, withMeta bool) (*model.UserView, error) {
	if id == 0 {
		return nil, validationf("id must be a positive integer")
	}
	u, err := s.users.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		s.log.Error("getUserById failed", "id", id, "err", err)
		return nil, internal("load user failed", err)
	}
	view := model.UserView{UserPublicView: u.PublicView()}
	if withMeta {
		if view.Meta, err = s.meta.ListByUser(ctx, id); err != nil {
			s.log.Error("getUserById meta failed", "id", id, "err", err)
			return nil, internal("load user meta failed", err)
		}
		if view.Roles, err = s.roles.ListByUser(ctx, id); err != nil {
			s.log.Error("getUserById roles failed", "id", id, "err", err)
			return nil, internal("load user roles failed", err)
		}
	}
	return &view, nil
}

// UpdateUserInput restricts profile mutation to an explicit allow-list.
// A new password is rehashed before storage.
type UpdateUserInput struct {
	DisplayName *string `json:"displayName"`
	Email       *string `json:"userEmail"`
	Password    *string `json:"password"`
}

// UpdateUser applies the allow-listed fields and returns the fresh public
// projection.
func (s *UserService) UpdateUser(ctx context.Context, id uint64, in UpdateUserInput) (model.UserPublicView, error) {
	if id == 0 {
		return model.UserPublicView{}, validationf("id must be a positive integer")
	}
	var f repository.UpdateFields
	f.DisplayName = in.DisplayName
	if in.Email != nil {
		email := strings.ToLower(strings.TrimSpace(*in.Email))
		if !emailRe.MatchString(email) {
			return model.UserPublicView{}, validationf("userEmail is not a valid email address")
		}
		f.Email = &email
	}
	if in.Password != nil {
		if len(*in.Password) < 8 {
			return model.UserPublicView{}, validationf("password must be at least 8 characters")
		}
		hash, err := utils.HashPassword(*in.Password, s.cost)
		if err != nil {
			return model.UserPublicView{}, internal("hash password failed", err)
		}
		f.PassHash = &hash
	}
	if f.Empty() {
		return model.UserPublicView{}, validationf("nothing to update")
	}

	if err := s.users.Update(ctx, id, f); err != nil {
		switch {
		case errors.Is(err, repository.ErrEmailExists):
			return model.UserPublicView{}, conflict("userEmail")
		case errors.Is(err, sql.ErrNoRows):
			return model.UserPublicView{}, notFound("user")
		}
		s.log.Error("updateUser failed", "id", id, "err", err)
		return model.UserPublicView{}, internal("update user failed", err)
	}
	u, err := s.users.GetByID(ctx, id)
	if err != nil {
		s.log.Error("updateUser readback failed", "id", id, "err", err)
		return model.UserPublicView{}, internal("update user failed", err)
	}
	return u.PublicView(), nil
}

// SetUserMeta stores a value under (userID, key). Non-string values are
// serialized to JSON text. The write is a single atomic upsert.
func (s *UserService) SetUserMeta(ctx context.Context, userID uint64, key string, value any) (model.UserMeta, error) {
	if key == "" {
		return model.UserMeta{}, validationf("meta key required")
	}
	val, ok := value.(string)
	if !ok {
		raw, err := json.Marshal(value)
		if err != nil {
			return model.UserMeta{}, validationf("meta value is not serializable")
		}
		val = string(raw)
	}
	rec, err := s.meta.Upsert(ctx, userID, key, val)
	if err != nil {
		s.log.Error("setUserMeta failed", "userId", userID, "key", key, "err", err)
		return model.UserMeta{}, internal("set user meta failed", err)
	}
	return rec, nil
}

// GetUserMeta returns the decoded value stored under (userID, key). JSON
// text decodes to its value; anything else comes back as the raw string.
// A missing key returns nil without error.
func (s *UserService) GetUserMeta(ctx context.Context, userID uint64, key string) (any, error) {
	if key == "" {
		return nil, validationf("meta key required")
	}
	rec, err := s.meta.Get(ctx, userID, key)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		s.log.Error("getUserMeta failed", "userId", userID, "key", key, "err", err)
		return nil, internal("get user meta failed", err)
	}
	var decoded any
	if err := json.Unmarshal([]byte(rec.MetaValue), &decoded); err != nil {
		return rec.MetaValue, nil // raw string fallback
	}
	return decoded, nil
}

// ListUserMeta returns every meta row for the user, values left opaque.
func (s *UserService) ListUserMeta(ctx context.Context, userID uint64) ([]model.UserMeta, error) {
	rows, err := s.meta.ListByUser(ctx, userID)
	if err != nil {
		s.log.Error("listUserMeta failed", "userId", userID, "err", err)
		return nil, internal("list user meta failed", err)
	}
	return rows, nil
}

// CreateRefreshToken issues a 48-byte random token rendered as hex and
// stores it with an expiry of now plus ttlDays (30 when zero).
func (s *UserService) CreateRefreshToken(ctx context.Context, userID uint64, ttlDays int) (utils.RefreshToken, error) {
	if ttlDays <= 0 {
		ttlDays = 30
	}
	tok, err := utils.NewRefreshToken(ttlDays)
	if err != nil {
		return utils.RefreshToken{}, internal("generate refresh token failed", err)
	}
	if err := s.tokens.Create(ctx, userID, tok.Raw, "refresh", tok.Exp); err != nil {
		s.log.Error("createRefreshToken failed", "userId", userID, "err", err)
		return utils.RefreshToken{}, internal("store refresh token failed", err)
	}
	return tok, nil
}

// ValidateRefreshToken resolves a raw token to its owning user ID. An
// unknown or expired token reports an auth error.
func (s *UserService) ValidateRefreshToken(ctx context.Context, token string) (uint64, error) {
	if token == "" {
		return 0, validationf("refresh token required")
	}
	rec, err := s.tokens.GetByToken(ctx, token)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, &Error{Kind: KindAuth, Msg: "invalid refresh token"}
		}
		s.log.Error("validateRefreshToken failed", "err", err)
		return 0, internal("validate refresh token failed", err)
	}
	if time.Now().UTC().After(rec.ExpiresAt) {
		return 0, &Error{Kind: KindAuth, Msg: "invalid refresh token"}
	}
	return rec.UserID, nil
}

// RevokeRefreshToken deletes every row matching the token and reports the
// count (0 or 1 given tokens are unique).
func (s *UserService) RevokeRefreshToken(ctx context.Context, token string) (int64, error) {
	if token == "" {
		return 0, validationf("refresh token required")
	}
	n, err := s.tokens.DeleteByToken(ctx, token)
	if err != nil {
		s.log.Error("revokeRefreshToken failed", "err", err)
		return 0, internal("revoke refresh token failed", err)
	}
	return n, nil
}

// AssignRoleToUser gets or creates the named role and links the user to
// it, all inside one transaction. Repeating the call for the same pair
// changes nothing.
func (s *UserService) AssignRoleToUser(ctx context.Context, userID uint64, roleName string) (model.Role, error) {
	roleName = strings.TrimSpace(roleName)
	if userID == 0 || roleName == "" {
		return model.Role{}, validationf("userId and role name required")
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return model.Role{}, internal("begin transaction failed", err)
	}
	defer func() { _ = tx.Rollback() }()

	role, err := s.roles.GetByNameTx(ctx, tx, roleName)
	if errors.Is(err, sql.ErrNoRows) {
		role, err = s.roles.CreateTx(ctx, tx, roleName, map[string]any{})
	}
	if err != nil {
		s.log.Error("assignRoleToUser role failed", "userId", userID, "role", roleName, "err", err)
		return model.Role{}, internal("resolve role failed", err)
	}
	if err := s.roles.AssignTx(ctx, tx, userID, role.ID); err != nil {
		s.log.Error("assignRoleToUser link failed", "userId", userID, "role", roleName, "err", err)
		return model.Role{}, internal("assign role failed", err)
	}
	if err := tx.Commit(); err != nil {
		return model.Role{}, internal("commit failed", err)
	}
	return role, nil
}

// UserHasCapability checks every role the user holds for a truthy
// capability flag, then falls back to the legacy capabilities meta key.
// Malformed legacy JSON means "no capability", never an error.
func (s *UserService) UserHasCapability(ctx context.Context, userID uint64, capability string) (bool, error) {
	roles, err := s.roles.ListByUser(ctx, userID)
	if err != nil {
		s.log.Error("userHasCapability roles failed", "userId", userID, "err", err)
		return false, internal("load roles failed", err)
	}
	for _, r := range roles {
		if truthy(r.Capabilities[capability]) {
			return true, nil
		}
	}

	rec, err := s.meta.Get(ctx, userID, LegacyCapabilityKey)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, nil
		}
		s.log.Error("userHasCapability meta failed", "userId", userID, "err", err)
		return false, internal("load legacy capabilities failed", err)
	}
	caps := map[string]any{}
	if err := json.Unmarshal([]byte(rec.MetaValue), &caps); err != nil {
		return false, nil
	}
	return truthy(caps[capability]), nil
}

// truthy interprets a capability flag the way loosely-typed capability
// maps are written: booleans, numbers and "1"/"true" strings all count.
func truthy(v any) bool {
	switch t := v.(type) {
	case bool:
		return t
	case float64:
		return t != 0
	case string:
		return t == "1" || strings.EqualFold(t, "true")
	}
	return false
}

// ListQuery carries pagination and search parameters for ListUsers.
type ListQuery struct {
	Page    int
	PerPage int
	Q       string
}

// ListUsers returns a page of public user views ordered newest-first.
// Page is clamped to a minimum of 1, perPage to 1..100. The search term
// matches login, email or display name case-insensitively.
func (s *UserService) ListUsers(ctx context.Context, q ListQuery) (model.UserPage, error) {
	page := q.Page
	if page < 1 {
		page = 1
	}
	perPage := q.PerPage
	if perPage < 1 {
		perPage = 20
	}
	if perPage > 100 {
		perPage = 100
	}
	offset := (page - 1) * perPage

	users, total, err := s.users.List(ctx, strings.TrimSpace(q.Q), perPage, offset)
	if err != nil {
		s.log.Error("listUsers failed", "q", q.Q, "err", err)
		return model.UserPage{}, internal("list users failed", err)
	}
	items := make([]model.UserPublicView, 0, len(users))
	for _, u := range users {
		items = append(items, u.PublicView())
	}
	return model.UserPage{Items: items, Total: total, Page: page, PerPage: perPage}, nil
}
