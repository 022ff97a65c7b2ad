package services

import (
	"context"
	"strings"

	"go-erp-agent/internal/models"
	"go-erp-agent/internal/store"
	"go-erp-agent/internal/utils"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// UserService is the admin user management.
type UserService struct {
	*deps
}

type UserRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
	Name     string `json:"name"`
	Email    string `json:"email"`
	Role     string `json:"role"`
	Active   *bool  `json:"active"`
}

type UserPatch struct {
	Username *string `json:"username"`
	Password *string `json:"password"`
	Name     *string `json:"name"`
	Email    *string `json:"email"`
	Role     *string `json:"role"`
	Active   *bool   `json:"active"`
}

func (s *UserService) hash(password string) (string, error) {
	return utils.HashPassword(password, s.bcryptCost)
}

func viewUsers(users []models.User) []models.UserView {
	out := make([]models.UserView, len(users))
	for i, u := range users {
		out[i] = u.View()
	}
	return out
}

// List matches search against name, username and email.
func (s *UserService) List(ctx context.Context, search string) []models.UserView {
	users := store.ReadList[models.User](ctx, s.store, store.Users, s.log)
	if search == "" {
		return viewUsers(users)
	}
	out := make([]models.User, 0, len(users))
	for _, u := range users {
		if containsFold(u.Name, search) || containsFold(u.Username, search) || containsFold(u.Email, search) {
			out = append(out, u)
		}
	}
	return viewUsers(out)
}

func (s *UserService) Get(ctx context.Context, id string) (*models.UserView, error) {
	for _, u := range store.ReadList[models.User](ctx, s.store, store.Users, s.log) {
		if u.ID == id {
			v := u.View()
			return &v, nil
		}
	}
	return nil, notFound("user", id)
}

func (s *UserService) Create(ctx context.Context, actor Actor, req UserRequest) (*models.UserView, error) {
	username := strings.TrimSpace(req.Username)
	if username == "" || req.Password == "" || strings.TrimSpace(req.Name) == "" {
		return nil, invalid("username, password and name are required")
	}
	role, err := models.ParseRole(req.Role)
	if err != nil {
		return nil, invalid("%v", err)
	}
	hash, err := s.hash(req.Password)
	if err != nil {
		return nil, err
	}
	active := true
	if req.Active != nil {
		active = *req.Active
	}
	u := models.User{
		ID:       "U" + uuid.NewString(),
		Username: username,
		Password: hash,
		Name:     strings.TrimSpace(req.Name),
		Email:    req.Email,
		Role:     role,
		Active:   active,
	}

	err = s.store.Update(ctx, []store.Key{store.Users, store.AuditLog}, func(tx store.Tx) error {
		users, err := store.DecodeList[models.User](tx, store.Users)
		if err != nil {
			return err
		}
		for _, existing := range users {
			if existing.Username == u.Username {
				return invalid("username %s is taken", u.Username)
			}
		}
		if err := store.EncodeList(tx, store.Users, append(users, u)); err != nil {
			return err
		}
		return s.appendAudit(tx, actor, "create", "user", u.ID, string(u.Role))
	})
	if err != nil {
		return nil, err
	}
	s.log.Info("user created", zap.String("username", u.Username), zap.String("role", string(u.Role)), zap.String("by", actor.displayName()))
	v := u.View()
	return &v, nil
}

// Update applies the patch. A new password is hashed before it is stored.
func (s *UserService) Update(ctx context.Context, actor Actor, id string, patch UserPatch) (*models.UserView, error) {
	var role models.Role
	if patch.Role != nil {
		r, err := models.ParseRole(*patch.Role)
		if err != nil {
			return nil, invalid("%v", err)
		}
		role = r
	}
	var hash string
	if patch.Password != nil {
		if *patch.Password == "" {
			return nil, invalid("password cannot be empty")
		}
		h, err := s.hash(*patch.Password)
		if err != nil {
			return nil, err
		}
		hash = h
	}

	var updated models.User
	err := s.store.Update(ctx, []store.Key{store.Users, store.AuditLog}, func(tx store.Tx) error {
		users, err := store.DecodeList[models.User](tx, store.Users)
		if err != nil {
			return err
		}
		idx := -1
		for i := range users {
			if users[i].ID == id {
				idx = i
				break
			}
		}
		if idx < 0 {
			return notFound("user", id)
		}

		u := users[idx]
		if patch.Username != nil {
			name := strings.TrimSpace(*patch.Username)
			if name == "" {
				return invalid("username cannot be empty")
			}
			for i, existing := range users {
				if i != idx && existing.Username == name {
					return invalid("username %s is taken", name)
				}
			}
			u.Username = name
		}
		if patch.Name != nil {
			u.Name = strings.TrimSpace(*patch.Name)
		}
		if patch.Email != nil {
			u.Email = *patch.Email
		}
		if role != "" {
			u.Role = role
		}
		if patch.Active != nil {
			u.Active = *patch.Active
		}
		if hash != "" {
			u.Password = hash
		}
		users[idx] = u
		updated = u
		if err := store.EncodeList(tx, store.Users, users); err != nil {
			return err
		}
		return s.appendAudit(tx, actor, "update", "user", u.ID, string(u.Role))
	})
	if err != nil {
		return nil, err
	}
	s.log.Info("user updated", zap.String("username", updated.Username), zap.String("by", actor.displayName()))
	v := updated.View()
	return &v, nil
}

// Delete removes a user. Admins cannot delete themselves.
func (s *UserService) Delete(ctx context.Context, actor Actor, id string) error {
	if id == actor.UserID {
		return invalid("you cannot delete your own account")
	}
	err := s.store.Update(ctx, []store.Key{store.Users, store.AuditLog}, func(tx store.Tx) error {
		users, err := store.DecodeList[models.User](tx, store.Users)
		if err != nil {
			return err
		}
		for i, u := range users {
			if u.ID != id {
				continue
			}
			users = append(users[:i], users[i+1:]...)
			if err := store.EncodeList(tx, store.Users, users); err != nil {
				return err
			}
			return s.appendAudit(tx, actor, "delete", "user", id, u.Username)
		}
		return notFound("user", id)
	})
	if err != nil {
		return err
	}
	s.log.Info("user deleted", zap.String("id", id), zap.String("by", actor.displayName()))
	return nil
}
