package loankit

import (
	"context"

	"github.com/fernandezvara/dbkit"
)

// ============================================================================
// USERS
// ============================================================================
//
// Credentials, hashing and token issuance are the identity collaborator's
// concern; this package only keeps the account record and enforces the
// self-or-admin rule on its mutation.

// RegisterUser creates a library account. Non-admins always register as
// members; only an admin may create an account with an elevated role.
func (s *Service) RegisterUser(ctx context.Context, user *User) (*User, error) {
	p, err := principalFor(ctx)
	if err != nil {
		return nil, err
	}

	if user.Email == "" || user.FullName == "" {
		return nil, NewError(ErrInvariantViolation, "email and full name required")
	}
	if user.Role == "" {
		user.Role = RoleMember
	}
	if !user.Role.Valid() {
		return nil, NewError(ErrInvariantViolation, "unknown role")
	}
	if user.Role != RoleMember && !CanAssignRole(p, user.Role) {
		return nil, NewError(ErrForbidden, "only admins may grant elevated roles").
			WithActor(p.UserID)
	}
	user.Active = true

	result, err := s.db.NewInsert().Model(user).Returning("*").Exec(ctx)
	if err = dbkit.WithErr(result, err, "RegisterUser").Err(); err != nil {
		if dbkit.IsDuplicate(err) {
			return nil, NewError(ErrConflict, "email already registered")
		}
		return nil, NewError(ErrDatabaseError, "failed to register user")
	}

	_ = s.logEvent(ctx, EventUserRegistered, user.ID, "", map[string]any{
		"email": user.Email,
		"role":  user.Role,
	})

	return user, nil
}

// GetUser returns an account by id. Members may only read their own
// record.
func (s *Service) GetUser(ctx context.Context, userID string) (*User, error) {
	p, err := principalFor(ctx)
	if err != nil {
		return nil, err
	}
	if p.Role == RoleMember && p.UserID != userID {
		return nil, NewError(ErrForbidden, "members may only read their own record").
			WithUser(userID).
			WithActor(p.UserID)
	}

	var user User
	err = dbkit.WithErr1(
		s.db.NewSelect().Model(&user).Where("id = ?", userID).Scan(ctx),
		"GetUser").Err()
	if err != nil {
		if dbkit.IsNotFound(err) {
			return nil, NewError(ErrNotFound, "user not found").WithUser(userID)
		}
		return nil, err
	}
	return &user, nil
}

// UpdateUser changes an account's profile fields. Self-or-admin: a
// non-admin principal may only modify its own record, and only an admin
// may change a role at all (which covers granting admin).
func (s *Service) UpdateUser(ctx context.Context, user *User) (*User, error) {
	p, err := principalFor(ctx)
	if err != nil {
		return nil, err
	}
	if user.ID == "" {
		return nil, NewError(ErrNotFound, "user id required")
	}
	if !CanModifyUser(p, user.ID) {
		return nil, NewError(ErrForbidden, "self-or-admin required").
			WithUser(user.ID).
			WithActor(p.UserID)
	}

	current, err := s.GetUser(ctx, user.ID)
	if err != nil {
		return nil, err
	}

	if user.Role == "" {
		user.Role = current.Role
	}
	if !user.Role.Valid() {
		return nil, NewError(ErrInvariantViolation, "unknown role")
	}
	if user.Role != current.Role && !CanAssignRole(p, user.Role) {
		return nil, NewError(ErrForbidden, "only admins may change roles").
			WithUser(user.ID).
			WithActor(p.UserID)
	}

	result, err := s.db.NewUpdate().
		Model(user).
		Column("email", "full_name", "role").
		Set("updated_at = current_timestamp").
		Where("id = ?", user.ID).
		Returning("*").
		Exec(ctx)
	if err = dbkit.WithErr(result, err, "UpdateUser").Err(); err != nil {
		if dbkit.IsDuplicate(err) {
			return nil, NewError(ErrConflict, "email already registered").WithUser(user.ID)
		}
		return nil, NewError(ErrDatabaseError, "failed to update user").WithUser(user.ID)
	}

	_ = s.logEvent(ctx, EventUserUpdated, user.ID, "", map[string]any{
		"role": user.Role,
	})

	return user, nil
}

// DeactivateUser marks an account inactive. Admin only. The record and
// its history stay in place; the HTTP layer decides what an inactive
// account may still do.
func (s *Service) DeactivateUser(ctx context.Context, userID string) (*User, error) {
	p, err := requireRole(ctx, RoleAdmin)
	if err != nil {
		return nil, err
	}

	user := new(User)
	result, err := s.db.NewUpdate().
		Model(user).
		Set("active = FALSE").
		Set("updated_at = current_timestamp").
		Where("id = ? AND active", userID).
		Returning("*").
		Exec(ctx)
	if err = dbkit.WithErr(result, err, "DeactivateUser").Err(); err != nil {
		return nil, NewError(ErrDatabaseError, "failed to deactivate user").WithUser(userID)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return nil, err
	}
	if affected == 0 {
		exists, err := s.userExists(ctx, userID)
		if err != nil {
			return nil, err
		}
		if !exists {
			return nil, NewError(ErrNotFound, "user not found").WithUser(userID)
		}
		return nil, NewError(ErrConflict, "already inactive").WithUser(userID)
	}

	_ = s.logEvent(ctx, EventUserUpdated, userID, "", map[string]any{
		"active": false,
		"by":     p.UserID,
	})

	return user, nil
}

func (s *Service) userExists(ctx context.Context, userID string) (bool, error) {
	count, err := s.db.NewSelect().
		Model((*User)(nil)).
		Where("id = ?", userID).
		Count(ctx)
	if err = dbkit.WithErr1(err, "UserExists").Err(); err != nil {
		return false, err
	}
	return count > 0, nil
}
